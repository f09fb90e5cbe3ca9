package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rickgao/market-sync/internal/aggregate"
	"github.com/rickgao/market-sync/internal/api"
	"github.com/rickgao/market-sync/internal/cache"
	"github.com/rickgao/market-sync/internal/config"
	"github.com/rickgao/market-sync/internal/cursor"
	"github.com/rickgao/market-sync/internal/database"
	"github.com/rickgao/market-sync/internal/fanout"
	"github.com/rickgao/market-sync/internal/loader"
	"github.com/rickgao/market-sync/internal/logging"
	"github.com/rickgao/market-sync/internal/metrics"
	"github.com/rickgao/market-sync/internal/pages"
	"github.com/rickgao/market-sync/internal/supervisor"
	"github.com/rickgao/market-sync/internal/syncer"
	"github.com/rickgao/market-sync/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/syncer.local.yaml", "path to config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	// Bootstrap logger until the configured one is available
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err = logging.New(cfg.Log, os.Stdout)
	if err != nil {
		logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
		logger.Error("invalid log config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	logger.Info("starting syncer",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
		"instance_id", cfg.Instance.ID,
		"variant", cfg.Sync.Variant,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("syncer stopped", "error", err)
		os.Exit(1)
	}

	logger.Info("syncer finished")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("connecting to redis", "addr", cfg.Redis.Addr())
	store, err := cache.NewStore(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer store.Close()

	client := api.NewClient(
		cfg.API.BaseURL,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.Retries(), cfg.API.RetryDelay),
		api.WithDatasource(cfg.API.Datasource),
		api.WithUniverseURL(cfg.API.UniverseURL),
		api.WithUserAgent(cfg.API.UserAgent),
		api.WithRateLimit(cfg.API.RequestsPerSecond),
	)

	rec := metrics.New()
	enum := pages.NewEnumerator(pages.Config{
		Concurrency:        cfg.Sync.PageConcurrency,
		LowBudgetThreshold: cfg.Sync.LowBudgetThreshold,
		LowBudgetPause:     cfg.Sync.LowBudgetPause,
	}, logger)

	checks := map[string]pinger{"redis": store}

	var processor syncer.RegionProcessor
	switch cfg.Sync.Variant {
	case config.VariantHistory:
		policy, err := aggregate.FromConfig(cfg.Sync.Policy, cfg.Sync.Metric, cfg.Sync.WindowDays)
		if err != nil {
			return fmt.Errorf("build aggregate policy: %w", err)
		}
		kv := loader.NewKVLoader(loader.KVConfig{BatchSize: cfg.Sync.BatchSize, TTL: cfg.Sync.TTL}, store, logger)
		exec := fanout.New(fanout.Config{Concurrency: cfg.Sync.Concurrency}, logger)
		processor = syncer.NewHistoryProcessor(client, enum, exec, policy, kv, rec, logger)

	case config.VariantOrders:
		logger.Info("connecting to database",
			"host", cfg.Database.Host,
			"port", cfg.Database.Port,
			"database", cfg.Database.Name,
		)
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()

		if err := database.EnsureSchema(ctx, pool); err != nil {
			return err
		}
		checks["postgres"] = pool

		orders := loader.NewOrderLoader(loader.OrderConfig{
			BatchSize:     cfg.Sync.BatchSize,
			RetentionDays: cfg.Retention.Days,
			Compact:       !cfg.Retention.SkipCompact,
		}, database.NewOrderRepo(pool), logger)
		processor = syncer.NewOrdersProcessor(client, enum, orders, rec, logger)
	}

	driver := syncer.NewDriver(client, cursor.New(store, cfg.Sync.CursorKey), processor, rec, logger)

	if cfg.Health.Port > 0 {
		healthServer := &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Health.Port),
			Handler: newHealthHandler(checks, rec),
		}
		go func() {
			logger.Info("starting health server", "port", cfg.Health.Port)
			if err := healthServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				logger.Error("health server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			healthServer.Shutdown(shutdownCtx)
		}()
	}

	sup := supervisor.New(supervisor.Config{
		Cooldown:          cfg.Supervisor.Cooldown,
		RateLimitCooldown: cfg.Supervisor.RateLimitCooldown,
	}, logger)

	return sup.Run(ctx, driver.RunOnce)
}
