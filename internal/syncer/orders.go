package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rickgao/market-sync/internal/api"
	"github.com/rickgao/market-sync/internal/loader"
	"github.com/rickgao/market-sync/internal/metrics"
	"github.com/rickgao/market-sync/internal/model"
	"github.com/rickgao/market-sync/internal/pages"
)

// OrderSource is the part of the ESI client the orders variant uses.
type OrderSource interface {
	GetOrdersPage(ctx context.Context, region model.RegionID, page int) ([]model.Order, api.PageInfo, error)
}

// OrdersProcessor snapshots a region's order book into the relational store.
type OrdersProcessor struct {
	source  OrderSource
	pages   *pages.Enumerator
	loader  *loader.OrderLoader
	metrics *metrics.Recorder
	logger  *slog.Logger
	now     func() time.Time
}

// NewOrdersProcessor creates an OrdersProcessor. rec may be nil.
func NewOrdersProcessor(source OrderSource, enum *pages.Enumerator, orders *loader.OrderLoader, rec *metrics.Recorder, logger *slog.Logger) *OrdersProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	if rec == nil {
		rec = metrics.New()
	}
	return &OrdersProcessor{
		source:  source,
		pages:   enum,
		loader:  orders,
		metrics: rec,
		logger:  logger,
		now:     time.Now,
	}
}

// ProcessRegion fetches every order page, upserts the orders under today's
// date, then applies retention.
func (p *OrdersProcessor) ProcessRegion(ctx context.Context, region model.RegionID) error {
	start := time.Now()

	orders, err := pages.FetchAll(ctx, p.pages, func(ctx context.Context, page int) ([]model.Order, api.PageInfo, error) {
		return p.source.GetOrdersPage(ctx, region, page)
	})
	if err != nil {
		return fmt.Errorf("enumerate orders: %w", err)
	}

	p.logger.Info("orders fetched",
		"region", region,
		"orders", len(orders),
		"fetch_duration", time.Since(start).Round(time.Millisecond),
	)
	p.metrics.Items(len(orders), 0, 0)

	now := p.now()
	n, err := p.loader.Load(ctx, now, orders)
	p.metrics.Written(n)
	if err != nil {
		return fmt.Errorf("load orders: %w", err)
	}

	if _, err := p.loader.Prune(ctx, now); err != nil {
		return fmt.Errorf("prune orders: %w", err)
	}

	return nil
}
