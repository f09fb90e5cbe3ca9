// Package cursor persists the round-robin position over the region universe.
//
// The persisted value is the region the next invocation should process. An
// absent value means the cursor is unset and resolves to the first region.
package cursor

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rickgao/market-sync/internal/model"
)

// DefaultKey is the well-known key holding the next region.
const DefaultKey = "volume_region"

// ErrEmptyUniverse is returned when there is no region to point at.
var ErrEmptyUniverse = errors.New("region universe is empty")

// StaleError means the persisted region is not in the current universe.
type StaleError struct {
	Key    string
	Stored string
}

func (e *StaleError) Error() string {
	return fmt.Sprintf("cursor %s points at region %q which is not in the universe", e.Key, e.Stored)
}

// Store reads and writes the persisted scalar. ok is false when the key is absent.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Cursor walks the universe one region per invocation.
type Cursor struct {
	store Store
	key   string
}

// New creates a Cursor stored under key.
func New(store Store, key string) *Cursor {
	if key == "" {
		key = DefaultKey
	}
	return &Cursor{store: store, key: key}
}

// Key returns the store key holding the cursor.
func (c *Cursor) Key() string {
	return c.key
}

// Current resolves the persisted region against universe. An unset cursor
// resolves to universe[0]; a region missing from universe yields *StaleError.
func (c *Cursor) Current(ctx context.Context, universe []model.RegionID) (model.RegionID, error) {
	_, region, err := c.resolve(ctx, universe)
	return region, err
}

// Advance persists the region after the current one and returns both. It must
// run before the current region is processed.
func (c *Cursor) Advance(ctx context.Context, universe []model.RegionID) (current, next model.RegionID, err error) {
	idx, current, err := c.resolve(ctx, universe)
	if err != nil {
		return 0, 0, err
	}
	next = universe[(idx+1)%len(universe)]
	if err := c.store.Set(ctx, c.key, formatRegion(next)); err != nil {
		return 0, 0, fmt.Errorf("persist cursor: %w", err)
	}
	return current, next, nil
}

// Restart points the cursor at universe[0] as if it were unset, persisting the
// region after it. Used to recover from a stale cursor.
func (c *Cursor) Restart(ctx context.Context, universe []model.RegionID) (current, next model.RegionID, err error) {
	if len(universe) == 0 {
		return 0, 0, ErrEmptyUniverse
	}
	current = universe[0]
	next = universe[1%len(universe)]
	if err := c.store.Set(ctx, c.key, formatRegion(next)); err != nil {
		return 0, 0, fmt.Errorf("persist cursor: %w", err)
	}
	return current, next, nil
}

func (c *Cursor) resolve(ctx context.Context, universe []model.RegionID) (int, model.RegionID, error) {
	if len(universe) == 0 {
		return 0, 0, ErrEmptyUniverse
	}

	stored, ok, err := c.store.Get(ctx, c.key)
	if err != nil {
		return 0, 0, fmt.Errorf("read cursor: %w", err)
	}
	if !ok {
		return 0, universe[0], nil
	}

	id, err := strconv.ParseInt(stored, 10, 64)
	if err != nil {
		return 0, 0, &StaleError{Key: c.key, Stored: stored}
	}
	for i, r := range universe {
		if r == model.RegionID(id) {
			return i, r, nil
		}
	}
	return 0, 0, &StaleError{Key: c.key, Stored: stored}
}

func formatRegion(r model.RegionID) string {
	return strconv.FormatInt(int64(r), 10)
}
