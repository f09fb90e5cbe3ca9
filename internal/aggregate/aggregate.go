// Package aggregate reduces a daily history series to a single value.
//
// Policies are pure functions of the series and the current time. Both treat
// the series as a set keyed by calendar day: when a day appears more than once,
// the last occurrence wins.
package aggregate

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rickgao/market-sync/internal/model"
)

// Policy reduces history to one value. ok is false when the series yields no value.
type Policy interface {
	Name() string
	Aggregate(points []model.HistoryPoint, now time.Time) (value decimal.Decimal, ok bool)
}

// Metric selects which field of a history point LatestValue reports.
type Metric uint8

const (
	MetricVolume Metric = iota
	MetricAverage
)

func (m Metric) String() string {
	switch m {
	case MetricVolume:
		return "volume"
	case MetricAverage:
		return "average"
	default:
		return fmt.Sprintf("Metric(%d)", uint8(m))
	}
}

// Dedupe keys points by calendar day (last write wins) and returns them sorted
// by date ascending. The input is not modified.
func Dedupe(points []model.HistoryPoint) []model.HistoryPoint {
	byDay := make(map[time.Time]model.HistoryPoint, len(points))
	for _, p := range points {
		p.Date = model.Day(p.Date)
		byDay[p.Date] = p
	}

	out := make([]model.HistoryPoint, 0, len(byDay))
	for _, p := range byDay {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// LatestValue reports the metric of the most recent day.
type LatestValue struct {
	Metric Metric
}

func (l LatestValue) Name() string {
	return "latest_" + l.Metric.String()
}

// Aggregate returns the metric on the latest day, or ok=false for an empty series.
func (l LatestValue) Aggregate(points []model.HistoryPoint, _ time.Time) (decimal.Decimal, bool) {
	days := Dedupe(points)
	if len(days) == 0 {
		return decimal.Decimal{}, false
	}

	last := days[len(days)-1]
	if l.Metric == MetricAverage {
		return last.Average, true
	}
	return decimal.NewFromInt(last.Volume), true
}

// TrailingMean is the truncated mean volume over the last Days calendar days.
type TrailingMean struct {
	Days int
}

func (m TrailingMean) Name() string {
	return fmt.Sprintf("trailing_mean_%dd", m.Days)
}

// Aggregate averages the volume of days on or after today-Days. A series with
// no day in the window yields an explicit zero.
func (m TrailingMean) Aggregate(points []model.HistoryPoint, now time.Time) (decimal.Decimal, bool) {
	cutoff := model.Day(now).AddDate(0, 0, -m.Days)

	var sum, count int64
	for _, p := range Dedupe(points) {
		if p.Date.Before(cutoff) {
			continue
		}
		sum += p.Volume
		count++
	}

	if count == 0 {
		return decimal.Zero, true
	}
	return decimal.NewFromInt(sum / count), true
}

// FromConfig builds the policy named by the sync configuration.
func FromConfig(policy, metric string, windowDays int) (Policy, error) {
	switch policy {
	case "trailing_mean":
		if metric != "volume" {
			return nil, fmt.Errorf("policy %q does not support metric %q", policy, metric)
		}
		return TrailingMean{Days: windowDays}, nil
	case "latest":
		switch metric {
		case "volume":
			return LatestValue{Metric: MetricVolume}, nil
		case "average":
			return LatestValue{Metric: MetricAverage}, nil
		default:
			return nil, fmt.Errorf("unknown metric %q", metric)
		}
	default:
		return nil, fmt.Errorf("unknown policy %q", policy)
	}
}
