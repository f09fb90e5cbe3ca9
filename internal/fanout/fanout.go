// Package fanout runs one task per key with bounded concurrency and collects
// every outcome.
//
// A failing task never cancels its siblings. Each key ends up in exactly one of
// Result.Values, Result.Empty, or Result.Failures.
package fanout

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rickgao/market-sync/internal/model"
)

// Outcome is what a task reports for its key.
type Outcome[V any] struct {
	Value  V
	Status model.FetchStatus
	Err    error
}

// Data wraps a successful value.
func Data[V any](v V) Outcome[V] {
	return Outcome[V]{Value: v, Status: model.FetchData}
}

// Empty reports that the key had nothing to contribute.
func Empty[V any]() Outcome[V] {
	return Outcome[V]{Status: model.FetchEmpty}
}

// Failed reports a task failure.
func Failed[V any](err error) Outcome[V] {
	return Outcome[V]{Status: model.FetchFailed, Err: err}
}

// Failure records a key whose task failed.
type Failure[K comparable] struct {
	Key K
	Err error
}

func (f Failure[K]) Error() string {
	return fmt.Sprintf("%v: %v", f.Key, f.Err)
}

// Result is the partitioned outcome of a Run. Empty and Failures keep the
// order of the input keys.
type Result[K comparable, V any] struct {
	Values   map[K]V
	Empty    []K
	Failures []Failure[K]
}

// Config holds executor configuration.
type Config struct {
	Concurrency int // Max tasks in flight (default: 16)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{Concurrency: 16}
}

// Executor runs fan-outs with a fixed concurrency bound.
type Executor struct {
	cfg    Config
	logger *slog.Logger
}

// New creates an Executor.
func New(cfg Config, logger *slog.Logger) *Executor {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = DefaultConfig().Concurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{cfg: cfg, logger: logger}
}

// Concurrency reports the executor's in-flight bound.
func (e *Executor) Concurrency() int {
	return e.cfg.Concurrency
}

// Run executes task for every key and waits for all of them. Keys not started
// before ctx is cancelled are reported as failures with the context error.
func Run[K comparable, V any](ctx context.Context, e *Executor, keys []K, task func(ctx context.Context, key K) Outcome[V]) Result[K, V] {
	start := time.Now()
	outcomes := make([]Outcome[V], len(keys))

	sem := make(chan struct{}, e.cfg.Concurrency)
	var wg sync.WaitGroup
	var succeeded, empty, failed atomic.Int64

	for i, key := range keys {
		i, key := i, key
		wg.Add(1)
		go func() {
			defer wg.Done()

			if err := ctx.Err(); err != nil {
				outcomes[i] = Failed[V](err)
				failed.Add(1)
				return
			}

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				outcomes[i] = Failed[V](ctx.Err())
				failed.Add(1)
				return
			}

			out := runTask(ctx, key, task)
			outcomes[i] = out

			switch out.Status {
			case model.FetchData:
				succeeded.Add(1)
			case model.FetchEmpty:
				empty.Add(1)
			default:
				failed.Add(1)
			}
		}()
	}

	wg.Wait()

	result := Result[K, V]{Values: make(map[K]V, succeeded.Load())}
	for i, out := range outcomes {
		switch out.Status {
		case model.FetchData:
			result.Values[keys[i]] = out.Value
		case model.FetchEmpty:
			result.Empty = append(result.Empty, keys[i])
		default:
			err := out.Err
			if err == nil {
				if out.Status == model.FetchFailed {
					err = fmt.Errorf("task failed without error")
				} else {
					err = fmt.Errorf("task returned no outcome (status %v)", out.Status)
				}
			}
			result.Failures = append(result.Failures, Failure[K]{Key: keys[i], Err: err})
		}
	}

	e.logger.Debug("fan-out complete",
		"keys", len(keys),
		"succeeded", succeeded.Load(),
		"empty", empty.Load(),
		"failed", failed.Load(),
		"duration", time.Since(start),
	)

	return result
}

// runTask converts a panic in task into a failed outcome.
func runTask[K comparable, V any](ctx context.Context, key K, task func(context.Context, K) Outcome[V]) (out Outcome[V]) {
	defer func() {
		if r := recover(); r != nil {
			out = Failed[V](fmt.Errorf("task panicked: %v", r))
		}
	}()
	return task(ctx, key)
}
