package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Execer runs a statement without returning rows.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		date          DATE        NOT NULL,
		order_id      BIGINT      NOT NULL,
		region_id     BIGINT      NOT NULL,
		system_id     BIGINT      NOT NULL,
		station_id    BIGINT      NOT NULL,
		type_id       BIGINT      NOT NULL,
		is_buy_order  BOOLEAN     NOT NULL,
		price         NUMERIC     NOT NULL,
		volume_remain BIGINT      NOT NULL,
		volume_total  BIGINT      NOT NULL,
		volume        BIGINT      NOT NULL,
		issued        TIMESTAMPTZ,
		PRIMARY KEY (date, order_id)
	)`,
	`CREATE INDEX IF NOT EXISTS orders_region_type_date_idx
		ON orders (region_id, type_id, date)`,
}

// EnsureSchema creates the orders table and its index if they do not exist.
func EnsureSchema(ctx context.Context, db Execer) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
