package loader

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/rickgao/market-sync/internal/cache"
	"github.com/rickgao/market-sync/internal/model"
)

// countingSink records batch sizes and fails from batch failAt onward.
type countingSink struct {
	sizes  []int
	failAt int
}

func (s *countingSink) SetBatch(_ context.Context, entries []cache.Entry, _ time.Duration) error {
	if s.failAt >= 0 && len(s.sizes) >= s.failAt {
		return errors.New("connection reset")
	}
	s.sizes = append(s.sizes, len(entries))
	return nil
}

func records(region model.RegionID, n int) []model.AggregateRecord {
	out := make([]model.AggregateRecord, n)
	for i := range out {
		out[i] = model.AggregateRecord{
			RegionID: region,
			TypeID:   model.TypeID(i + 1),
			Value:    decimal.NewFromInt(int64(i * 100)),
		}
	}
	return out
}

func TestKVLoader_Batching(t *testing.T) {
	sink := &countingSink{failAt: -1}
	l := NewKVLoader(KVConfig{BatchSize: 10, TTL: time.Hour}, sink, nil)

	n, err := l.Load(context.Background(), records(10000002, 25))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if n != 25 {
		t.Errorf("Load() = %d, want 25", n)
	}

	want := []int{10, 10, 5}
	if fmt.Sprint(sink.sizes) != fmt.Sprint(want) {
		t.Errorf("batch sizes = %v, want %v", sink.sizes, want)
	}

	stats := l.Stats()
	if stats.Written != 25 || stats.Batches != 3 || stats.Errors != 0 {
		t.Errorf("Stats() = %+v", stats)
	}
}

func TestKVLoader_PartialFailure(t *testing.T) {
	sink := &countingSink{failAt: 1}
	l := NewKVLoader(KVConfig{BatchSize: 10, TTL: time.Hour}, sink, nil)

	n, err := l.Load(context.Background(), records(10000002, 25))

	var swe *SinkWriteError
	if !errors.As(err, &swe) {
		t.Fatalf("Load() error = %v, want *SinkWriteError", err)
	}
	if swe.Batch != 1 || swe.Written != 10 || swe.Size != 10 {
		t.Errorf("SinkWriteError = %+v", swe)
	}
	if n != 10 {
		t.Errorf("Load() = %d, want 10 written before failure", n)
	}
	if l.Stats().Errors != 1 {
		t.Errorf("Errors = %d, want 1", l.Stats().Errors)
	}
}

func TestKVLoader_Empty(t *testing.T) {
	sink := &countingSink{failAt: -1}
	l := NewKVLoader(KVConfig{BatchSize: 10}, sink, nil)

	n, err := l.Load(context.Background(), nil)
	if err != nil || n != 0 {
		t.Errorf("Load(nil) = %d, %v; want 0, nil", n, err)
	}
	if len(sink.sizes) != 0 {
		t.Errorf("batches = %v, want none", sink.sizes)
	}
}

func TestKVLoader_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	store := cache.NewStoreFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	defer store.Close()

	ttl := 336 * 24 * time.Hour
	l := NewKVLoader(KVConfig{BatchSize: 2, TTL: ttl}, store, nil)
	ctx := context.Background()

	first := []model.AggregateRecord{
		{RegionID: 10000002, TypeID: 34, Value: decimal.NewFromInt(100)},
		{RegionID: 10000002, TypeID: 35, Value: decimal.NewFromInt(7)},
		{RegionID: 10000002, TypeID: 36, Value: decimal.Zero},
	}
	if _, err := l.Load(ctx, first); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	second := []model.AggregateRecord{
		{RegionID: 10000002, TypeID: 34, Value: decimal.NewFromInt(250)},
	}
	if _, err := l.Load(ctx, second); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	mr.CheckGet(t, "10000002-34", "250")
	mr.CheckGet(t, "10000002-35", "7")
	mr.CheckGet(t, "10000002-36", "0")

	mr.FastForward(ttl + time.Second)
	if mr.Exists("10000002-34") {
		t.Error("key present after TTL")
	}
}
