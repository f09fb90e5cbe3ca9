package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rickgao/market-sync/internal/cache"
	"github.com/rickgao/market-sync/internal/config"
	"github.com/rickgao/market-sync/internal/database"
	"github.com/rickgao/market-sync/internal/ingest"
	"github.com/rickgao/market-sync/internal/loader"
	"github.com/rickgao/market-sync/internal/logging"
	"github.com/rickgao/market-sync/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/syncer.local.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.LoadIngest(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if l, err := logging.New(cfg.Log, os.Stdout); err == nil {
		logger = l
	} else {
		logger.Warn("invalid log config, using defaults", "error", err)
	}
	slog.SetDefault(logger)

	logger.Info("starting ingest",
		"version", version.Version,
		"window_days", cfg.Ingest.WindowDays,
		"ttl", cfg.Ingest.TTL,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("ingest failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := database.EnsureSchema(ctx, pool); err != nil {
		return err
	}

	store, err := cache.NewStore(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer store.Close()

	kv := loader.NewKVLoader(loader.KVConfig{BatchSize: cfg.Ingest.BatchSize, TTL: cfg.Ingest.TTL}, store, logger)
	job := ingest.NewJob(database.NewOrderRepo(pool), kv, cfg.Ingest.WindowDays, logger)

	_, err = job.Run(ctx)
	return err
}
