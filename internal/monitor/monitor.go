package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"SignalSentinel/internal/collector"
	"SignalSentinel/internal/metrics"
	"SignalSentinel/internal/model"
	"SignalSentinel/internal/notifier"
	"SignalSentinel/internal/recorder"
	"SignalSentinel/internal/strategy"
	"SignalSentinel/internal/watchlist"
)

const (
	DefaultConcurrency = 4
	DefaultItemTimeout = 30 * time.Second
)

// Options tunes a pass.
type Options struct {
	Concurrency int
	ItemTimeout time.Duration
}

// Monitor runs evaluation passes over the watchlist. Overlapping Run calls
// are serialized.
type Monitor struct {
	collector *collector.Collector
	watchlist *watchlist.Manager
	sink      notifier.Sink
	recorder  recorder.Recorder
	metrics   *metrics.Metrics
	log       logrus.FieldLogger

	concurrency int
	itemTimeout time.Duration
	now         func() time.Time

	mu sync.Mutex
}

// New creates a Monitor. A nil recorder records nothing; a nil sink logs.
func New(col *collector.Collector, wl *watchlist.Manager, sink notifier.Sink, rec recorder.Recorder,
	m *metrics.Metrics, log logrus.FieldLogger, opts Options) *Monitor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if sink == nil {
		sink = notifier.LogSink{Log: log}
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.ItemTimeout <= 0 {
		opts.ItemTimeout = DefaultItemTimeout
	}
	return &Monitor{
		collector:   col,
		watchlist:   wl,
		sink:        sink,
		recorder:    rec,
		metrics:     m,
		log:         log.WithField("component", "monitor"),
		concurrency: opts.Concurrency,
		itemTimeout: opts.ItemTimeout,
		now:         time.Now,
	}
}

// evaluation is one item's outcome before notifications are sent.
type evaluation struct {
	report model.ItemReport
	quote  *model.Quote
}

// Run evaluates every watchlist item once, sends alerts and writes fresh
// quotes back. It never fails: per-item problems become item statuses.
func (m *Monitor) Run(ctx context.Context) *model.PassReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	report := &model.PassReport{
		RunID:     uuid.NewString(),
		StartedAt: m.now(),
		Results:   []model.ItemReport{},
	}
	log := m.log.WithField("run_id", report.RunID)

	items, err := m.watchlist.List(ctx)
	if err != nil {
		log.WithError(err).Error("load watchlist")
	}
	log.WithField("items", len(items)).Info("evaluation pass started")

	evals := make([]evaluation, len(items))
	var g errgroup.Group
	g.SetLimit(m.concurrency)
	for i, item := range items {
		g.Go(func() error {
			evals[i] = m.evaluate(ctx, log, item)
			return nil
		})
	}
	_ = g.Wait()

	quotes := make(map[string]*model.Quote, len(items))
	for i, item := range items {
		ev := evals[i]
		if ev.quote.Valid() {
			quotes[watchlist.NormalizeKey(item.Symbol)] = ev.quote
		}
		if ev.report.Alerted {
			m.notify(ctx, log, item, &ev.report, report)
		}
		m.metrics.ItemEvaluated(string(ev.report.Status))
		report.Results = append(report.Results, ev.report)
	}

	report.FinishedAt = m.now()
	if n, err := m.watchlist.ApplyQuotes(ctx, quotes, report.FinishedAt); err != nil {
		log.WithError(err).Warn("write back quotes")
	} else {
		log.WithField("updated", n).Debug("quotes written back")
	}
	if err := m.recorder.RecordPass(report); err != nil {
		log.WithError(err).Warn("record pass")
	}
	m.metrics.ObservePass(report.FinishedAt.Sub(report.StartedAt))

	log.WithFields(logrus.Fields{
		"items":   len(report.Results),
		"sent":    report.NotificationsSent,
		"failed":  report.NotificationsFailed,
		"elapsed": report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond),
	}).Info("evaluation pass finished")
	return report
}

func (m *Monitor) notify(ctx context.Context, log logrus.FieldLogger, item model.WatchlistItem, ir *model.ItemReport, report *model.PassReport) {
	text := notifier.FormatAlert(item, ir.Result, ir.Triggered)
	if err := m.sink.Send(ctx, text); err != nil {
		report.NotificationsFailed++
		m.metrics.Notification("failed")
		log.WithField("symbol", item.Symbol).WithError(err).Error("send alert")
		return
	}
	ir.Notified = true
	report.NotificationsSent++
	m.metrics.Notification("sent")
	log.WithFields(logrus.Fields{"symbol": item.Symbol, "triggered": ir.Triggered}).Info("alert sent")
}

// evaluate fetches data for one item and applies the signal engine and the
// alert rule. A panic becomes an error status.
func (m *Monitor) evaluate(ctx context.Context, log logrus.FieldLogger, item model.WatchlistItem) (ev evaluation) {
	ev.report = model.ItemReport{Symbol: item.Symbol, AssetClass: item.AssetClass}
	log = log.WithField("symbol", item.Symbol)

	defer func() {
		if r := recover(); r != nil {
			ev.report.Status = model.StatusError
			ev.report.Error = fmt.Sprintf("panic: %v", r)
			ev.report.Alerted = false
			ev.report.Triggered = nil
			log.WithField("panic", r).Error("item evaluation panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, m.itemTimeout)
	defer cancel()

	bars := m.collector.GetCandles(ctx, item.Symbol, item.AssetClass)
	quote := m.collector.GetQuote(ctx, item.Symbol, item.AssetClass)

	ev.quote = quote
	ev.report.Bars = len(bars)

	if !strategy.Sufficient(len(bars)) {
		ev.report.Status = model.StatusInsufficientData
		ev.report.Error = fmt.Sprintf("%v: %d of %d bars", strategy.ErrInsufficientHistory, len(bars), strategy.MinBars)
		log.WithField("bars", len(bars)).Warn("insufficient data")
		return ev
	}

	res := strategy.Evaluate(item.Symbol, bars)
	alert, triggered := strategy.ShouldAlert(item.Indicators, res.Signals)

	ev.report.Status = model.StatusOK
	ev.report.Result = res
	ev.report.Alerted = alert
	ev.report.Triggered = triggered
	log.WithFields(logrus.Fields{"bars": len(bars), "alert": alert}).Debug("item evaluated")
	return ev
}
