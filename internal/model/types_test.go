package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDay(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "midday utc",
			in:   time.Date(2024, 3, 9, 13, 45, 0, 0, time.UTC),
			want: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "already midnight",
			in:   time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC),
			want: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "offset zone crosses day",
			in:   time.Date(2024, 3, 9, 23, 30, 0, 0, time.FixedZone("UTC-5", -5*3600)),
			want: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Day(tt.in); !got.Equal(tt.want) {
				t.Errorf("Day() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOrderVolume(t *testing.T) {
	o := Order{VolumeTotal: 500, VolumeRemain: 120}
	if got := o.Volume(); got != 380 {
		t.Errorf("Volume() = %d, want 380", got)
	}

	fresh := Order{VolumeTotal: 10, VolumeRemain: 10}
	if got := fresh.Volume(); got != 0 {
		t.Errorf("Volume() = %d, want 0", got)
	}
}

func TestAggregateRecordKey(t *testing.T) {
	r := AggregateRecord{RegionID: 10000002, TypeID: 34, Value: decimal.NewFromInt(7)}
	if got := r.Key(); got != "10000002-34" {
		t.Errorf("Key() = %q, want %q", got, "10000002-34")
	}
}

func TestFetchStatusString(t *testing.T) {
	tests := []struct {
		status FetchStatus
		want   string
	}{
		{FetchUnset, "unset"},
		{FetchData, "data"},
		{FetchEmpty, "empty"},
		{FetchFailed, "failed"},
		{FetchStatus(9), "FetchStatus(9)"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
