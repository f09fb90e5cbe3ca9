// Package ingest publishes trailing order-book volumes from the relational
// store to the key-value store.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rickgao/market-sync/internal/model"
)

// VolumeSource computes per-(region, type) trailing volumes.
type VolumeSource interface {
	TrailingVolumes(ctx context.Context, since time.Time) ([]model.AggregateRecord, error)
}

// Loader writes aggregate records.
type Loader interface {
	Load(ctx context.Context, records []model.AggregateRecord) (int, error)
}

// Job runs one ingest pass.
type Job struct {
	source     VolumeSource
	loader     Loader
	windowDays int
	logger     *slog.Logger
	now        func() time.Time
}

// NewJob creates a Job averaging over windowDays.
func NewJob(source VolumeSource, loader Loader, windowDays int, logger *slog.Logger) *Job {
	if logger == nil {
		logger = slog.Default()
	}
	return &Job{
		source:     source,
		loader:     loader,
		windowDays: windowDays,
		logger:     logger,
		now:        time.Now,
	}
}

// Run queries the trailing window and loads the results. Returns the number
// of keys written.
func (j *Job) Run(ctx context.Context) (int, error) {
	start := time.Now()
	since := model.Day(j.now()).AddDate(0, 0, -j.windowDays)

	records, err := j.source.TrailingVolumes(ctx, since)
	if err != nil {
		return 0, err
	}

	j.logger.Info("trailing volumes computed",
		"since", since.Format(model.DateLayout),
		"rows", len(records),
		"query_duration", time.Since(start).Round(time.Millisecond),
	)

	n, err := j.loader.Load(ctx, records)
	if err != nil {
		return n, fmt.Errorf("ingest volumes: %w", err)
	}

	j.logger.Info("ingest complete",
		"keys", n,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return n, nil
}
