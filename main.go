package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"stockcrawler/browser"
	"stockcrawler/cache"
	"stockcrawler/config"
	"stockcrawler/crawler"
	"stockcrawler/fetch"
	"stockcrawler/quote"
	"stockcrawler/report"
	"stockcrawler/server"
	"stockcrawler/table"
)

func main() {
	configPath := flag.String("config", "", "optional config file (yaml, json or toml)")
	serve := flag.Bool("serve", false, "serve quotes over HTTP instead of running the crawl")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger, err := config.NewLogger(cfg.Logger)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	schema, err := quote.NewSchema(quote.Variant(cfg.Variant))
	if err != nil {
		logger.Fatal("Invalid schema variant", zap.Error(err))
	}
	sel := quote.DefaultSelectors()
	builder := quote.NewBuilder(schema,
		quote.NewExtractor(sel),
		quote.NewSignResolver(sel.Indicator, quote.Sign(cfg.Sign.Unmatched)),
	)

	var fetcher crawler.Fetcher
	switch cfg.Fetch.Mode {
	case "browser":
		pool := browser.New(cfg.Browser.Size, cfg.Fetch.Timeout, cfg.Fetch.UserAgent, cfg.Fetch.RequestHeaders(), logger)
		defer pool.Close()
		fetcher = pool
	default:
		fetcher = fetch.NewClient(cfg.Fetch.Timeout, cfg.Fetch.RequestHeaders())
	}
	if cfg.Cache.Addr != "" {
		rdb := cache.NewClient(cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB)
		defer rdb.Close()
		fetcher = cache.NewPageFetcher(fetcher, rdb, cfg.Cache.TTL, logger)
	}

	c := crawler.New(crawler.Config{
		Symbols:     cfg.Symbols,
		URLTemplate: cfg.Fetch.URLTemplate,
		Fetcher:     fetcher,
		Builder:     builder,
		Persister:   table.NewWriter(cfg.Table.Path, schema, logger),
		Printer:     report.NewPrinter(os.Stdout, schema),
		Logger:      logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch {
	case *serve:
		runServer(ctx, cfg.Server.Addr, c, schema, logger)
	case cfg.Schedule != "":
		runScheduled(ctx, cfg.Schedule, c, logger)
	default:
		if _, err := c.Run(ctx); err != nil {
			logger.Error("Run failed", zap.Error(err))
			os.Exit(1)
		}
	}
}

// runScheduled runs the crawl on a cron schedule until ctx is done.
// A run still in progress makes the next tick skip, and shutdown waits for it.
func runScheduled(ctx context.Context, spec string, c *crawler.Crawler, logger *zap.Logger) {
	// Runs outlive the signal so an in-flight crawl completes before exit.
	runCtx := context.WithoutCancel(ctx)

	sched := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err := sched.AddFunc(spec, func() {
		if _, err := c.Run(runCtx); err != nil {
			logger.Error("Scheduled run failed", zap.Error(err))
		}
	})
	if err != nil {
		logger.Fatal("Invalid schedule", zap.String("schedule", spec), zap.Error(err))
	}

	logger.Info("Scheduler started", zap.String("schedule", spec))
	sched.Start()
	<-ctx.Done()
	logger.Info("Shutdown signal received, waiting for running crawl...")
	<-sched.Stop().Done()
}

func runServer(ctx context.Context, addr string, c *crawler.Crawler, schema quote.Schema, logger *zap.Logger) {
	srv := &http.Server{
		Addr:    addr,
		Handler: server.New(c, schema, logger),
	}
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	logger.Info("Server is running", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
