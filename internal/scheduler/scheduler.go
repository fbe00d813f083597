package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"SignalSentinel/internal/model"
	"SignalSentinel/internal/notifier"
)

// Runner executes one evaluation pass.
type Runner interface {
	Run(ctx context.Context) *model.PassReport
}

// Lister returns the current watchlist.
type Lister interface {
	List(ctx context.Context) ([]model.WatchlistItem, error)
}

// Scheduler hosts the cron trigger and answers bot commands.
type Scheduler struct {
	Cron      *cron.Cron
	Monitor   Runner
	Watchlist Lister
	Ctx       context.Context

	log logrus.FieldLogger
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, mon Runner, wl Lister, log logrus.FieldLogger) *Scheduler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("component", "scheduler")
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cronLogger{log}))),
		Monitor:   mon,
		Watchlist: wl,
		Ctx:       ctx,
		log:       log,
	}
}

// Register adds the evaluation task. An empty expression disables scheduling.
func (s *Scheduler) Register(checkCron string) error {
	if checkCron == "" {
		s.log.Info("check schedule disabled")
		return nil
	}
	if _, err := s.Cron.AddFunc(checkCron, s.checkTask); err != nil {
		return fmt.Errorf("register check task: %w", err)
	}
	s.log.WithField("cron", checkCron).Info("check task registered")
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running pass to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// RunNow executes a pass immediately (for RUN_ON_START).
func (s *Scheduler) RunNow() *model.PassReport {
	return s.run(s.Ctx, "startup")
}

func (s *Scheduler) checkTask() {
	s.run(s.Ctx, "cron")
}

func (s *Scheduler) run(ctx context.Context, trigger string) *model.PassReport {
	s.log.WithField("trigger", trigger).Info("running check")
	return s.Monitor.Run(ctx)
}

// HandleCommand processes a bot command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	switch command {
	case "/check":
		return notifier.FormatPassSummary(s.run(ctx, "command"))
	case "/watchlist":
		items, err := s.Watchlist.List(ctx)
		if err != nil {
			s.log.WithError(err).Error("list watchlist")
			return fmt.Sprintf("❌ 读取关注列表失败: %v", err)
		}
		return notifier.FormatWatchlist(items)
	default:
		return notifier.FormatHelp()
	}
}

// cronLogger adapts logrus to cron.Logger.
type cronLogger struct {
	log logrus.FieldLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fields(keysAndValues)).WithError(err).Error(msg)
}

func fields(kv []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return f
}
