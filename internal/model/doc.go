// Package model defines shared data types used across the market sync job.
//
// Conventions:
//   - Region and type identifiers: int64, as issued by ESI
//   - Calendar days: time.Time truncated to midnight UTC
//   - Volumes: int64 unit counts
//   - Prices and daily averages: decimal.Decimal (ISK)
package model
