package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"CoinLens/internal/collector"
	"CoinLens/internal/config"
	"CoinLens/internal/controller"
	"CoinLens/internal/logger"
	"CoinLens/internal/notifier"
	"CoinLens/internal/presenter"
	"CoinLens/internal/recorder"
	"CoinLens/internal/scheduler"
	"CoinLens/internal/server"
	"CoinLens/internal/store"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("config validation: %v", err)
	}

	log := logger.New(cfg.LogLevel)
	log.Info("CoinLens starting...")

	start, _ := cfg.Start()
	defaultChart, _ := cfg.DefaultChart()

	// Init provider
	var provider collector.Provider
	switch cfg.DataSource.Provider {
	case config.ProviderREST:
		provider = collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy, cfg.DataSource.RateLimit)
	case config.ProviderMock:
		provider = &collector.MockFetcher{}
	default:
		provider = collector.NewYahooFetcher(cfg.Proxy, cfg.DataSource.RateLimit)
	}
	log.WithField("provider", provider.Name()).Info("data source selected")
	col := collector.NewCollector(provider, cfg.DataSource.Timeout, log)

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.WithError(err).Warn("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Presenters
	cache := server.NewViewCache()
	presenters := presenter.NewMulti(log, presenter.NewLogPresenter(log), cache)
	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
		tp := notifier.NewTelegramPresenter(tn, 32)
		presenters.Add(tp)
		go tp.Run(ctx)
	}

	ctl := controller.New(col, store.New(), presenters, rec, log, controller.Options{
		Symbols:      cfg.Symbols,
		DefaultChart: defaultChart,
		Start:        start,
		Window:       cfg.Charts.MAWindow,
		Bins:         cfg.Charts.HistogramBins,
	})
	defer ctl.Stop()

	// Init scheduler
	sched := scheduler.NewScheduler(ctl, log)
	if err := sched.RegisterRefresh(cfg.Schedule.RefreshCron); err != nil {
		log.Fatalf("register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Start Telegram polling
	if tn != nil {
		go tn.StartPolling(ctx, ctl.HandleCommand)
		log.Info("telegram polling started")
	}

	// HTTP API
	router := server.NewRouter(&server.Config{
		ChartHandler: server.NewChartHandler(ctl, cache, rec),
		Logger:       log,
	})
	srv := server.New(cfg.Server.Addr, router, log)
	go func() {
		if err := srv.Run(ctx); err != nil {
			log.WithError(err).Error("http server failed")
			cancel()
		}
	}()

	ctl.Start(ctx)
	log.Info("CoinLens is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Info("shutdown signal received, stopping...")
	case <-ctx.Done():
	}
	cancel()
	log.Info("CoinLens stopped")
}
