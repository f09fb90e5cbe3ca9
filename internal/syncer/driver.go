package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/market-sync/internal/cursor"
	"github.com/rickgao/market-sync/internal/metrics"
	"github.com/rickgao/market-sync/internal/model"
)

// UniverseSource lists the regions to cycle through.
type UniverseSource interface {
	GetRegionIDs(ctx context.Context) ([]model.RegionID, error)
}

// RegionProcessor syncs one region.
type RegionProcessor interface {
	ProcessRegion(ctx context.Context, region model.RegionID) error
}

// Driver runs sync invocations.
type Driver struct {
	universe  UniverseSource
	cursor    *cursor.Cursor
	processor RegionProcessor
	metrics   *metrics.Recorder
	logger    *slog.Logger
	now       func() time.Time
}

// NewDriver creates a Driver. rec may be nil.
func NewDriver(universe UniverseSource, cur *cursor.Cursor, processor RegionProcessor, rec *metrics.Recorder, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	if rec == nil {
		rec = metrics.New()
	}
	return &Driver{
		universe:  universe,
		cursor:    cur,
		processor: processor,
		metrics:   rec,
		logger:    logger,
		now:       time.Now,
	}
}

// RunOnce selects the next region, persists the cursor past it, and processes it.
func (d *Driver) RunOnce(ctx context.Context) error {
	start := d.now()
	logger := d.logger.With("run_id", uuid.NewString())

	regions, err := d.universe.GetRegionIDs(ctx)
	if err != nil {
		err = fmt.Errorf("fetch universe: %w", err)
		d.metrics.RunFailed(err)
		return err
	}

	current, next, err := d.cursor.Advance(ctx, regions)
	var stale *cursor.StaleError
	if errors.As(err, &stale) {
		logger.Warn("cursor region not in universe, restarting at first region",
			"stored", stale.Stored,
			"first", regions[0],
		)
		current, next, err = d.cursor.Restart(ctx, regions)
	}
	if err != nil {
		err = fmt.Errorf("advance cursor: %w", err)
		d.metrics.RunFailed(err)
		return err
	}

	d.metrics.RunStarted(current)
	logger.Info("region selected",
		"region", current,
		"next", next,
		"regions", len(regions),
	)

	if err := d.processor.ProcessRegion(ctx, current); err != nil {
		err = fmt.Errorf("process region %d: %w", current, err)
		d.metrics.RunFailed(err)
		return err
	}

	d.metrics.RunSucceeded(d.now())
	logger.Info("invocation complete",
		"region", current,
		"duration", d.now().Sub(start).Round(time.Millisecond),
	)
	return nil
}
