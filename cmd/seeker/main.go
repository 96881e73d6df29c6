package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"StockSeeker/internal/cache"
	"StockSeeker/internal/collector"
	"StockSeeker/internal/config"
	"StockSeeker/internal/metrics"
	"StockSeeker/internal/model"
	"StockSeeker/internal/notifier"
	"StockSeeker/internal/recorder"
	"StockSeeker/internal/scheduler"
	"StockSeeker/internal/screener"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	flag.StringVar(&cfgPath, "config", cfgPath, "path to the YAML config file")
	once := flag.Bool("once", false, "run a single screen and exit")
	preset := flag.String("preset", "", "screen preset ("+strings.Join(model.PresetNames(), ", ")+"), overrides the config file")
	verbose := flag.Bool("v", false, "log every rejected ticker")
	flag.Parse()

	log.Println("[INFO] StockSeeker starting...")

	if *preset != "" {
		os.Setenv("SEEKER_PRESET", *preset)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Init fetcher
	fetcher := newFetcher(cfg)
	log.Printf("[INFO] data source: %s", fetcher.Name())

	// Init collector with optional Redis cache
	col := collector.NewCollector(fetcher, cfg.DataSource.RequestsPerSecond, cfg.DataSource.Burst)
	if cfg.Redis.Addr != "" {
		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		rc, err := cache.New(pingCtx, cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		})
		pingCancel()
		if err != nil {
			log.Printf("[WARN] redis cache disabled: %v", err)
		} else {
			col.Cache = rc
			defer rc.Close()
			log.Printf("[INFO] series cache: redis %s", cfg.Redis.Addr)
		}
	}

	universe := newUniverse(cfg)
	log.Printf("[INFO] ticker universe: %s", universe.Name())

	// Init metrics
	m := metrics.New()
	health := metrics.NewHealth()
	if cfg.Metrics.Addr != "" {
		srv := metrics.NewServer(cfg.Metrics.Addr, m, health)
		srv.Start()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			srv.Stop(shutdownCtx)
		}()
	}

	sc := screener.New(col, cfg.DataSource.Workers)
	sc.Preset = cfg.Preset
	sc.Metrics = m
	sc.Diagnostics = screener.LogDiagnostics{ProgressEvery: 250, Verbose: *verbose}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Init Telegram notifier
	var tn *notifier.TelegramNotifier
	var sink scheduler.Notifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		sink = tn
	}

	sched := scheduler.NewScheduler(ctx, sc, universe, sink, rec, scheduler.Job{
		Preset:      cfg.Preset,
		Screen:      cfg.Screen,
		HistoryDays: cfg.DataSource.HistoryDays,
		OutputDir:   cfg.Output.Dir,
		RunTimeout:  cfg.DataSource.RunTimeout,
	})
	sched.Health = health

	if *once {
		report, err := sched.RunScreenNow()
		if err != nil {
			log.Fatalf("[FATAL] screen: %v", err)
		}
		log.Printf("[INFO] %d tickers passed (%s)", len(report.Results), report.Status())
		return
	}

	if err := sched.Register(cfg.Schedule.ScreenCron); err != nil {
		log.Fatalf("[FATAL] register cron task: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Start Telegram polling
	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	// Optional: run immediately on start
	if cfg.Schedule.RunOnStart {
		log.Println("[INFO] RUN_ON_START enabled, executing screen now")
		sched.RunScreenAsync()
	}

	log.Printf("[INFO] StockSeeker is running (cron %q). Press Ctrl+C to stop.", cfg.Schedule.ScreenCron)
	<-ctx.Done()
	log.Println("[INFO] shutdown signal received, stopping...")
}

func newFetcher(cfg *config.Config) collector.Fetcher {
	switch cfg.DataSource.Provider {
	case "rest":
		return collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	case "mock":
		return &collector.MockFetcher{Price: 100}
	default:
		return collector.NewYahooFetcher(cfg.Proxy)
	}
}

func newUniverse(cfg *config.Config) collector.Universe {
	switch cfg.Universe.Source {
	case "static":
		return collector.StaticUniverse(cfg.Universe.Symbols)
	case "file":
		return collector.FileUniverse{Path: cfg.Universe.File}
	default:
		u := collector.NewNasdaqUniverse(cfg.Universe.Exchanges, cfg.Universe.IncludeETFs, cfg.Proxy)
		if cfg.Universe.URL != "" {
			u.URL = cfg.Universe.URL
		}
		return u
	}
}
