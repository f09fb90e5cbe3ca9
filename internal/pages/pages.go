// Package pages enumerates every page of an X-Pages paginated ESI listing.
//
// Page 1 is fetched first because only its response declares the page count.
// Pages 2..N are then fetched concurrently and joined in ascending page order.
package pages

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/market-sync/internal/api"
)

// Config holds enumerator settings.
type Config struct {
	Concurrency        int           // Max pages in flight after page 1
	LowBudgetThreshold int           // Pause when X-Esi-Error-Limit-Remain drops below this
	LowBudgetPause     time.Duration // Length of that pause
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Concurrency:        8,
		LowBudgetThreshold: 10,
		LowBudgetPause:     5 * time.Second,
	}
}

// Enumerator fetches all pages of a listing.
type Enumerator struct {
	cfg    Config
	logger *slog.Logger
}

// NewEnumerator creates a new Enumerator.
func NewEnumerator(cfg Config, logger *slog.Logger) *Enumerator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Enumerator{cfg: cfg, logger: logger}
}

// FetchAll returns the items of every page, concatenated in page order. fetch
// receives a 1-based page number. Any page failure fails the whole enumeration.
func FetchAll[T any](ctx context.Context, e *Enumerator, fetch func(ctx context.Context, page int) ([]T, api.PageInfo, error)) ([]T, error) {
	first, info, err := fetch(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("fetch page 1: %w", err)
	}
	if err := e.honorBudget(ctx, 1, info); err != nil {
		return nil, err
	}

	if info.Pages <= 1 {
		return first, nil
	}

	results := make([][]T, info.Pages)
	results[0] = first

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)

	for page := 2; page <= info.Pages; page++ {
		page := page
		g.Go(func() error {
			items, pageInfo, err := fetch(gctx, page)
			if err != nil {
				return fmt.Errorf("fetch page %d of %d: %w", page, info.Pages, err)
			}
			results[page-1] = items
			return e.honorBudget(gctx, page, pageInfo)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, items := range results {
		total += len(items)
	}
	all := make([]T, 0, total)
	for _, items := range results {
		all = append(all, items...)
	}

	e.logger.Debug("enumerated pages",
		"pages", info.Pages,
		"items", total,
	)

	return all, nil
}

// honorBudget pauses when the remaining error budget is low.
func (e *Enumerator) honorBudget(ctx context.Context, page int, info api.PageInfo) error {
	if info.ErrorLimitRemain < 0 || info.ErrorLimitRemain >= e.cfg.LowBudgetThreshold {
		return nil
	}

	e.logger.Warn("esi error budget low, pausing",
		"page", page,
		"error_limit_remain", info.ErrorLimitRemain,
		"pause", e.cfg.LowBudgetPause,
	)

	t := time.NewTimer(e.cfg.LowBudgetPause)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
