package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rickgao/market-sync/internal/aggregate"
	"github.com/rickgao/market-sync/internal/api"
	"github.com/rickgao/market-sync/internal/fanout"
	"github.com/rickgao/market-sync/internal/loader"
	"github.com/rickgao/market-sync/internal/metrics"
	"github.com/rickgao/market-sync/internal/model"
	"github.com/rickgao/market-sync/internal/pages"
)

// HistorySource is the part of the ESI client the history variant uses.
type HistorySource interface {
	GetTypeIDsPage(ctx context.Context, region model.RegionID, page int) ([]model.TypeID, api.PageInfo, error)
	GetHistory(ctx context.Context, region model.RegionID, typeID model.TypeID) model.HistoryResult
}

// HistoryProcessor aggregates each item's market history into the key-value store.
type HistoryProcessor struct {
	source  HistorySource
	pages   *pages.Enumerator
	exec    *fanout.Executor
	policy  aggregate.Policy
	loader  *loader.KVLoader
	metrics *metrics.Recorder
	logger  *slog.Logger
	now     func() time.Time
}

// NewHistoryProcessor creates a HistoryProcessor. rec may be nil.
func NewHistoryProcessor(
	source HistorySource,
	enum *pages.Enumerator,
	exec *fanout.Executor,
	policy aggregate.Policy,
	kv *loader.KVLoader,
	rec *metrics.Recorder,
	logger *slog.Logger,
) *HistoryProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	if rec == nil {
		rec = metrics.New()
	}
	return &HistoryProcessor{
		source:  source,
		pages:   enum,
		exec:    exec,
		policy:  policy,
		loader:  kv,
		metrics: rec,
		logger:  logger,
		now:     time.Now,
	}
}

// ProcessRegion enumerates the region's item types, aggregates each item's
// history, and loads the results. Per-item failures are logged and skipped.
func (p *HistoryProcessor) ProcessRegion(ctx context.Context, region model.RegionID) error {
	start := time.Now()

	typeIDs, err := pages.FetchAll(ctx, p.pages, func(ctx context.Context, page int) ([]model.TypeID, api.PageInfo, error) {
		return p.source.GetTypeIDsPage(ctx, region, page)
	})
	if err != nil {
		return fmt.Errorf("enumerate item types: %w", err)
	}

	p.logger.Info("item types enumerated",
		"region", region,
		"types", len(typeIDs),
		"policy", p.policy.Name(),
	)

	now := p.now()
	res := fanout.Run(ctx, p.exec, typeIDs, func(ctx context.Context, typeID model.TypeID) fanout.Outcome[decimal.Decimal] {
		hist := p.source.GetHistory(ctx, region, typeID)
		switch hist.Status {
		case model.FetchData:
		case model.FetchEmpty:
			return fanout.Empty[decimal.Decimal]()
		case model.FetchFailed:
			return fanout.Failed[decimal.Decimal](hist.Reason)
		default:
			return fanout.Failed[decimal.Decimal](fmt.Errorf("history fetch returned status %v", hist.Status))
		}

		value, ok := p.policy.Aggregate(hist.Points, now)
		if !ok {
			return fanout.Empty[decimal.Decimal]()
		}
		p.logger.Debug("item value set",
			"region", region,
			"type_id", typeID,
			"value", value.String(),
		)
		return fanout.Data(value)
	})
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, f := range res.Failures {
		p.logger.Warn("item history failed",
			"region", region,
			"type_id", f.Key,
			"error", f.Err,
		)
	}
	p.metrics.Items(len(res.Values), len(res.Empty), len(res.Failures))

	records := make([]model.AggregateRecord, 0, len(res.Values))
	for typeID, value := range res.Values {
		records = append(records, model.AggregateRecord{RegionID: region, TypeID: typeID, Value: value})
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].TypeID < records[j].TypeID
	})

	p.logger.Info("item set aggregated",
		"region", region,
		"values", len(res.Values),
		"empty", len(res.Empty),
		"failed", len(res.Failures),
		"fetch_duration", time.Since(start).Round(time.Millisecond),
	)

	n, err := p.loader.Load(ctx, records)
	p.metrics.Written(int64(n))
	if err != nil {
		return fmt.Errorf("load aggregates: %w", err)
	}

	return nil
}
