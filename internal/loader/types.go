package loader

import (
	"fmt"
	"time"
)

// KVConfig holds key-value loader configuration.
type KVConfig struct {
	// BatchSize is the number of keys written per round trip.
	BatchSize int

	// TTL is applied to every aggregate key.
	TTL time.Duration
}

// DefaultKVConfig returns sensible defaults.
func DefaultKVConfig() KVConfig {
	return KVConfig{
		BatchSize: 10000,
		TTL:       336 * 24 * time.Hour,
	}
}

// OrderConfig holds order loader configuration.
type OrderConfig struct {
	// BatchSize is the number of orders per upsert batch.
	BatchSize int

	// RetentionDays is how many days of orders to keep.
	RetentionDays int

	// Compact runs VACUUM after the retention delete.
	Compact bool
}

// DefaultOrderConfig returns sensible defaults.
func DefaultOrderConfig() OrderConfig {
	return OrderConfig{
		BatchSize:     10000,
		RetentionDays: 31,
		Compact:       true,
	}
}

// Metrics tracks loader activity.
type Metrics struct {
	Written int64
	Batches int64
	Errors  int64
	Pruned  int64
}

// SinkWriteError reports a batch that failed to commit.
type SinkWriteError struct {
	Sink    string
	Batch   int // zero-based batch index
	Size    int
	Written int // records committed before this batch
	Err     error
}

func (e *SinkWriteError) Error() string {
	return fmt.Sprintf("%s batch %d (%d records, %d already written): %v",
		e.Sink, e.Batch, e.Size, e.Written, e.Err)
}

func (e *SinkWriteError) Unwrap() error {
	return e.Err
}

// chunks splits items into consecutive slices of at most size elements.
func chunks[T any](items []T, size int) [][]T {
	if size < 1 {
		size = len(items)
	}
	var out [][]T
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}
