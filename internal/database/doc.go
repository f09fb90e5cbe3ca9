// Package database provides the PostgreSQL pool and the orders repository.
//
// The orders table holds one row per order per observation day:
//   - Re-observing an order on the same day updates it in place
//   - Rows older than the retention window are deleted once per invocation
//   - Trailing daily volumes are computed from it for the cache ingest job
package database
