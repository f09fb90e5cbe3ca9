package loader

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/market-sync/internal/cache"
	"github.com/rickgao/market-sync/internal/model"
)

// KVSink accepts batched writes with a TTL.
type KVSink interface {
	SetBatch(ctx context.Context, entries []cache.Entry, ttl time.Duration) error
}

// KVLoader writes aggregate records to the key-value store.
type KVLoader struct {
	cfg    KVConfig
	sink   KVSink
	logger *slog.Logger

	mu      sync.Mutex
	metrics Metrics
}

// NewKVLoader creates a KVLoader.
func NewKVLoader(cfg KVConfig, sink KVSink, logger *slog.Logger) *KVLoader {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = DefaultKVConfig().BatchSize
	}
	return &KVLoader{cfg: cfg, sink: sink, logger: logger}
}

// Load writes records as region-type keys. It returns the number of records
// written and a *SinkWriteError for the first batch that failed.
func (l *KVLoader) Load(ctx context.Context, records []model.AggregateRecord) (int, error) {
	start := time.Now()
	written := 0

	for i, chunk := range chunks(records, l.cfg.BatchSize) {
		entries := make([]cache.Entry, len(chunk))
		for j, r := range chunk {
			entries[j] = cache.Entry{Key: r.Key(), Value: r.Value.String()}
		}

		if err := l.sink.SetBatch(ctx, entries, l.cfg.TTL); err != nil {
			l.record(func(m *Metrics) { m.Errors++ })
			return written, &SinkWriteError{Sink: "kv", Batch: i, Size: len(chunk), Written: written, Err: err}
		}

		written += len(chunk)
		l.record(func(m *Metrics) {
			m.Written += int64(len(chunk))
			m.Batches++
		})

		l.logger.Debug("kv batch written",
			"batch", i,
			"count", len(chunk),
			"total", written,
		)
	}

	l.logger.Info("kv load complete",
		"records", written,
		"ttl", l.cfg.TTL,
		"duration", time.Since(start),
	)
	return written, nil
}

// Stats returns current metrics.
func (l *KVLoader) Stats() Metrics {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.metrics
}

func (l *KVLoader) record(f func(*Metrics)) {
	l.mu.Lock()
	f(&l.metrics)
	l.mu.Unlock()
}
