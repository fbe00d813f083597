package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"SignalSentinel/internal/collector"
	"SignalSentinel/internal/config"
	"SignalSentinel/internal/logger"
	"SignalSentinel/internal/metrics"
	"SignalSentinel/internal/monitor"
	"SignalSentinel/internal/notifier"
	"SignalSentinel/internal/recorder"
	"SignalSentinel/internal/scheduler"
	"SignalSentinel/internal/server"
	"SignalSentinel/internal/watchlist"
)

func main() {
	cfg, err := config.Load(config.Path())
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	if err := cfg.Validate(); err != nil {
		logrus.WithError(err).Fatal("config validation")
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info("SignalSentinel starting...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()

	// Providers
	col := collector.NewCollector(collector.DefaultChains(collector.Options{
		Timeout:          cfg.Network.Timeout,
		Proxy:            cfg.Network.Proxy,
		RatePerMinute:    cfg.Providers.RatePerMinute,
		YahooBaseURL:     cfg.Providers.YahooBaseURL,
		FinnhubBaseURL:   cfg.Providers.FinnhubBaseURL,
		FinnhubAPIKey:    cfg.Providers.FinnhubAPIKey,
		BinanceBaseURL:   cfg.Providers.BinanceBaseURL,
		CoinGeckoBaseURL: cfg.Providers.CoinGeckoBaseURL,
		CoinGeckoAPIKey:  cfg.Providers.CoinGeckoAPIKey,
	}), log, m)
	col.FilterCalendar = cfg.CalendarFilter()
	if cfg.Providers.FinnhubAPIKey == "" {
		log.Warn("FINNHUB_API_KEY not set, finnhub fallback and search disabled")
	}

	// Watchlist
	var durable watchlist.Store
	if cfg.Watchlist.RedisURL != "" {
		rs, client, err := watchlist.NewRedisStore(cfg.Watchlist.RedisURL, cfg.Watchlist.RedisKey)
		if err != nil {
			log.WithError(err).Fatal("init redis store")
		}
		defer client.Close()
		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			log.WithError(err).Warn("redis unreachable, serving defaults until it recovers")
		}
		pingCancel()
		durable = rs
		log.WithField("key", cfg.Watchlist.RedisKey).Info("watchlist store: redis")
	} else {
		durable = watchlist.NewFileStore(cfg.Watchlist.File)
		log.WithField("file", cfg.Watchlist.File).Info("watchlist store: file")
	}
	wl := watchlist.NewManager(watchlist.NewCachedStore(durable, log))

	// Notifications
	var (
		sink notifier.Sink = notifier.LogSink{Log: log}
		tn   *notifier.TelegramNotifier
	)
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Network.Proxy, cfg.Network.Timeout)
		sink = tn
	} else {
		log.Warn("telegram not configured, alerts go to the log")
	}

	// History
	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.SQLitePath), 0o755); err != nil {
			log.WithError(err).Warn("create database dir")
		}
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.WithError(err).Warn("init sqlite recorder failed, using noop")
		} else {
			rec = sr
		}
	}
	defer rec.Close()

	mon := monitor.New(col, wl, sink, rec, m, log, monitor.Options{
		Concurrency: cfg.Network.ConcurrentRequests,
		ItemTimeout: cfg.Network.ItemTimeout,
	})

	// Scheduler
	sched := scheduler.NewScheduler(ctx, mon, wl, log)
	if err := sched.Register(cfg.Schedule.CheckCron); err != nil {
		log.WithError(err).Fatal("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, log, sched.HandleCommand)
		log.Info("telegram polling started")
	}

	if cfg.Schedule.RunOnStart {
		log.Info("RUN_ON_START enabled, executing check now")
		go sched.RunNow()
	}

	// HTTP
	srv := server.New(cfg.Server.Addr, strings.EqualFold(cfg.Log.Level, "debug"), col, wl, mon, sink, m, log)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	log.Info("SignalSentinel is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Info("shutdown signal received, stopping...")
	case err := <-errCh:
		if err != nil {
			log.WithError(err).Error("http server stopped")
		}
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	log.Info("SignalSentinel stopped")
}
