package loader

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/market-sync/internal/model"
)

// OrderStore persists observed orders.
type OrderStore interface {
	Upsert(ctx context.Context, day time.Time, orders []model.Order) (int64, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Vacuum(ctx context.Context) error
}

// OrderLoader upserts orders and enforces retention.
type OrderLoader struct {
	cfg    OrderConfig
	store  OrderStore
	logger *slog.Logger

	mu      sync.Mutex
	metrics Metrics
}

// NewOrderLoader creates an OrderLoader.
func NewOrderLoader(cfg OrderConfig, store OrderStore, logger *slog.Logger) *OrderLoader {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = DefaultOrderConfig().BatchSize
	}
	return &OrderLoader{cfg: cfg, store: store, logger: logger}
}

// Load upserts orders observed on day. Returns rows written.
func (l *OrderLoader) Load(ctx context.Context, day time.Time, orders []model.Order) (int64, error) {
	start := time.Now()
	var written int64

	for i, chunk := range chunks(orders, l.cfg.BatchSize) {
		n, err := l.store.Upsert(ctx, day, chunk)
		if err != nil {
			l.record(func(m *Metrics) { m.Errors++ })
			return written, &SinkWriteError{Sink: "orders", Batch: i, Size: len(chunk), Written: int(written), Err: err}
		}
		written += n
		l.record(func(m *Metrics) {
			m.Written += n
			m.Batches++
		})
	}

	l.logger.Info("orders upserted",
		"orders", len(orders),
		"written", written,
		"duration", time.Since(start),
	)
	return written, nil
}

// Prune deletes orders older than the retention window relative to now, then
// compacts the table if configured.
func (l *OrderLoader) Prune(ctx context.Context, now time.Time) (int64, error) {
	cutoff := model.Day(now).AddDate(0, 0, -l.cfg.RetentionDays)

	deleted, err := l.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("retention delete: %w", err)
	}
	l.record(func(m *Metrics) { m.Pruned += deleted })

	if l.cfg.Compact {
		if err := l.store.Vacuum(ctx); err != nil {
			return deleted, fmt.Errorf("compact: %w", err)
		}
	}

	l.logger.Info("orders pruned",
		"cutoff", cutoff.Format(model.DateLayout),
		"deleted", deleted,
		"compacted", l.cfg.Compact,
	)
	return deleted, nil
}

// Stats returns current metrics.
func (l *OrderLoader) Stats() Metrics {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.metrics
}

func (l *OrderLoader) record(f func(*Metrics)) {
	l.mu.Lock()
	f(&l.metrics)
	l.mu.Unlock()
}
