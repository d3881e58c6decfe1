package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"PercentileBoard/internal/board"
	"PercentileBoard/internal/collector"
	"PercentileBoard/internal/config"
	"PercentileBoard/internal/display"
	"PercentileBoard/internal/logger"
	"PercentileBoard/internal/matrix"
	"PercentileBoard/internal/metrics"
	"PercentileBoard/internal/notifier"
	"PercentileBoard/internal/recorder"
	"PercentileBoard/internal/scheduler"
	"PercentileBoard/internal/server"
)

func main() {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	flag.StringVar(&cfgPath, "config", cfgPath, "path to the YAML config file")
	once := flag.Bool("once", false, "fetch the table once, print it and exit")
	mock := flag.Bool("mock", false, "use generated data instead of the remote service")
	flag.Parse()

	// Load config
	cfg, err := config.Load(cfgPath)
	if err != nil {
		bootLog := logger.New(logger.Config{Pretty: true})
		bootLog.Fatal().Err(err).Msg("load config")
	}
	if *mock && cfg.DataSource.BaseURL == "" {
		cfg.DataSource.BaseURL = "mock://"
	}

	logCfg := logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty}
	log := logger.New(logCfg)
	if *once {
		// stdout carries the table
		logCfg.Pretty = true
		log = logger.NewWithWriter(logCfg, os.Stderr)
	}
	logger.SetGlobalLogger(log)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}

	// Init fetcher
	var fetcher collector.Fetcher
	if *mock {
		fetcher = &collector.MockFetcher{Days: 60}
	} else {
		fetcher = collector.NewGaugerFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy, cfg.DataSource.Timeout)
	}
	log.Info().Str("source", fetcher.Name()).Msg("data source ready")

	opts := matrix.Options{
		Concurrency: cfg.Fetch.Concurrency,
		Attempts:    cfg.Fetch.Attempts,
		Backoff:     cfg.Fetch.Backoff,
		Timeout:     cfg.DataSource.Timeout,
	}
	if cfg.Fetch.RatePerSecond > 0 {
		opts.Limiter = rate.NewLimiter(rate.Limit(cfg.Fetch.RatePerSecond), cfg.Fetch.Burst)
	}
	orch := matrix.NewOrchestrator(fetcher, opts, log)
	labeler := display.NewLabeler(cfg.Board.Leverage)

	if *once {
		os.Exit(runOnce(orch, cfg, labeler, log))
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	m := metrics.New()
	svc := board.NewService(orch, cfg.Board.Instruments, cfg.Board.Windows, rec, m, log)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telegram is optional
	var tn *notifier.TelegramNotifier
	var sender scheduler.Notifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
		sender = tn
	}

	sched := scheduler.NewScheduler(ctx, svc, labeler, sender, log)
	if err := sched.Register(cfg.Schedule.RefreshCron); err != nil {
		log.Fatal().Err(err).Msg("register cron task")
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	srv := server.New(server.Config{Log: log, Board: svc, Labeler: labeler, Metrics: m, Port: cfg.Server.Port})
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server stopped")
			cancel()
		}
	}()

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, refreshing now")
		go sched.RunNow()
	}

	log.Info().Msg("percentile board is running, press Ctrl+C to stop")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Info().Msg("shutdown signal received, stopping")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	cancel()
	log.Info().Msg("percentile board stopped")
}

// runOnce fetches one table, prints it to stdout and returns the exit code.
func runOnce(orch *matrix.Orchestrator, cfg *config.Config, labeler *display.Labeler, log zerolog.Logger) int {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	svc := board.NewService(orch, cfg.Board.Instruments, cfg.Board.Windows, nil, nil, log)
	snap, err := svc.Refresh(ctx)
	if err != nil {
		log.Error().Err(err).Msg("refresh failed")
		return 1
	}
	if err := notifier.WriteTableText(os.Stdout, snap, labeler); err != nil {
		log.Error().Err(err).Msg("write table")
		return 1
	}
	return 0
}
