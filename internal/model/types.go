package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RegionID identifies a market region.
type RegionID int64

// TypeID identifies a tradable item type.
type TypeID int64

// DateLayout is the calendar-day layout used by ESI and the relational store.
const DateLayout = "2006-01-02"

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// -----------------------------------------------------------------------------
// History
// -----------------------------------------------------------------------------

// HistoryPoint is one day's trading summary for a (region, type) pair.
type HistoryPoint struct {
	Date       time.Time       // Midnight UTC
	Volume     int64           // Units traded
	Average    decimal.Decimal // Volume-weighted average price
	Highest    decimal.Decimal
	Lowest     decimal.Decimal
	OrderCount int64
}

// FetchStatus tags the outcome of a history fetch. The zero value is not a
// valid outcome and is treated as a failure.
type FetchStatus uint8

const (
	FetchUnset  FetchStatus = iota // Zero value; never produced by a fetch
	FetchData                      // Points holds at least one day
	FetchEmpty                     // Valid response without data; skip silently
	FetchFailed                    // Reason holds the failure
)

func (s FetchStatus) String() string {
	switch s {
	case FetchUnset:
		return "unset"
	case FetchData:
		return "data"
	case FetchEmpty:
		return "empty"
	case FetchFailed:
		return "failed"
	default:
		return fmt.Sprintf("FetchStatus(%d)", uint8(s))
	}
}

// HistoryResult is the explicit result of fetching one history series.
type HistoryResult struct {
	Status FetchStatus
	Points []HistoryPoint
	Reason error
}

// -----------------------------------------------------------------------------
// Orders
// -----------------------------------------------------------------------------

// Order is a market order observed in a region.
type Order struct {
	OrderID      int64
	RegionID     RegionID
	SystemID     int64
	StationID    int64 // ESI location_id
	TypeID       TypeID
	IsBuyOrder   bool
	Price        decimal.Decimal
	VolumeRemain int64
	VolumeTotal  int64
	Issued       time.Time
}

// Volume is the filled quantity. It is derived, never transmitted.
func (o Order) Volume() int64 {
	return o.VolumeTotal - o.VolumeRemain
}

// -----------------------------------------------------------------------------
// Output
// -----------------------------------------------------------------------------

// AggregateRecord is the pipeline's output unit for one (region, type) pair.
type AggregateRecord struct {
	RegionID RegionID
	TypeID   TypeID
	Value    decimal.Decimal
}

// Key returns the key-value store key, "<region>-<type>".
func (r AggregateRecord) Key() string {
	return AggregateKey(r.RegionID, r.TypeID)
}

// AggregateKey formats the key-value store key for a (region, type) pair.
func AggregateKey(region RegionID, typeID TypeID) string {
	return fmt.Sprintf("%d-%d", region, typeID)
}
