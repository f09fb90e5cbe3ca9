package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/rickgao/market-sync/internal/model"
)

// DB is the subset of *pgxpool.Pool the orders repository uses.
type DB interface {
	Execer
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const upsertOrderSQL = `
	INSERT INTO orders (date, order_id, region_id, system_id, station_id, type_id,
		is_buy_order, price, volume_remain, volume_total, volume, issued)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric, $9, $10, $11, $12)
	ON CONFLICT (date, order_id) DO UPDATE SET
		price = EXCLUDED.price,
		volume_remain = EXCLUDED.volume_remain,
		volume_total = EXCLUDED.volume_total,
		volume = EXCLUDED.volume
`

// Averages per-day summed volume, taking each order's latest observation.
const trailingVolumeSQL = `
	SELECT avg_agg.region_id, avg_agg.type_id, FLOOR(AVG(avg_agg.volume))::BIGINT AS volume
	FROM (
		SELECT sum_agg.region_id, sum_agg.type_id, sum_agg.date, SUM(sum_agg.volume) AS volume
		FROM (
			SELECT region_id, type_id, order_id, MAX(date) AS date, SUM(volume) AS volume
			FROM orders
			WHERE date >= $1
			GROUP BY region_id, type_id, order_id
		) sum_agg
		GROUP BY sum_agg.region_id, sum_agg.type_id, sum_agg.date
	) avg_agg
	GROUP BY avg_agg.region_id, avg_agg.type_id
`

// OrderRepo reads and writes the orders table.
type OrderRepo struct {
	db DB
}

// NewOrderRepo creates an OrderRepo.
func NewOrderRepo(db DB) *OrderRepo {
	return &OrderRepo{db: db}
}

// Upsert writes orders observed on day in one batch. Returns the number of
// rows inserted or updated.
func (r *OrderRepo) Upsert(ctx context.Context, day time.Time, orders []model.Order) (int64, error) {
	if len(orders) == 0 {
		return 0, nil
	}

	date := model.Day(day)
	batch := &pgx.Batch{}
	for _, o := range orders {
		var issued *time.Time
		if !o.Issued.IsZero() {
			t := o.Issued
			issued = &t
		}
		batch.Queue(upsertOrderSQL,
			date, o.OrderID, int64(o.RegionID), o.SystemID, o.StationID, int64(o.TypeID),
			o.IsBuyOrder, o.Price.String(), o.VolumeRemain, o.VolumeTotal, o.Volume(), issued,
		)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	var written int64
	for range orders {
		ct, err := results.Exec()
		if err != nil {
			return written, fmt.Errorf("upsert orders: %w", err)
		}
		written += ct.RowsAffected()
	}

	return written, nil
}

// DeleteBefore removes rows dated strictly before cutoff's day.
func (r *OrderRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ct, err := r.db.Exec(ctx, `DELETE FROM orders WHERE date < $1`, model.Day(cutoff))
	if err != nil {
		return 0, fmt.Errorf("delete old orders: %w", err)
	}
	return ct.RowsAffected(), nil
}

// Vacuum reclaims space freed by deletes.
func (r *OrderRepo) Vacuum(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `VACUUM (ANALYZE) orders`); err != nil {
		return fmt.Errorf("vacuum orders: %w", err)
	}
	return nil
}

// TrailingVolumes returns the mean daily traded volume per (region, type)
// over orders observed on or after since.
func (r *OrderRepo) TrailingVolumes(ctx context.Context, since time.Time) ([]model.AggregateRecord, error) {
	rows, err := r.db.Query(ctx, trailingVolumeSQL, model.Day(since))
	if err != nil {
		return nil, fmt.Errorf("query trailing volumes: %w", err)
	}
	defer rows.Close()

	var records []model.AggregateRecord
	for rows.Next() {
		var region, typeID, volume int64
		if err := rows.Scan(&region, &typeID, &volume); err != nil {
			return nil, fmt.Errorf("scan trailing volume: %w", err)
		}
		records = append(records, model.AggregateRecord{
			RegionID: model.RegionID(region),
			TypeID:   model.TypeID(typeID),
			Value:    decimal.NewFromInt(volume),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read trailing volumes: %w", err)
	}

	return records, nil
}

var _ DB = (*pgxpool.Pool)(nil)
