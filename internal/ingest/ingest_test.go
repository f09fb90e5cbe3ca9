package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/rickgao/market-sync/internal/cache"
	"github.com/rickgao/market-sync/internal/loader"
	"github.com/rickgao/market-sync/internal/model"
)

type stubVolumes struct {
	since   time.Time
	records []model.AggregateRecord
	err     error
}

func (s *stubVolumes) TrailingVolumes(_ context.Context, since time.Time) ([]model.AggregateRecord, error) {
	s.since = since
	return s.records, s.err
}

func TestJob_Run(t *testing.T) {
	mr := miniredis.RunT(t)
	store := cache.NewStoreFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	defer store.Close()

	source := &stubVolumes{records: []model.AggregateRecord{
		{RegionID: 10000002, TypeID: 34, Value: decimal.NewFromInt(1500)},
		{RegionID: 10000043, TypeID: 35, Value: decimal.NewFromInt(12)},
	}}
	ttl := 28 * 24 * time.Hour
	kv := loader.NewKVLoader(loader.KVConfig{BatchSize: 1, TTL: ttl}, store, nil)

	job := NewJob(source, kv, 20, nil)
	job.now = func() time.Time { return time.Date(2024, 3, 21, 9, 30, 0, 0, time.UTC) }

	n, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if n != 2 {
		t.Errorf("Run() = %d, want 2", n)
	}

	if want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC); !source.since.Equal(want) {
		t.Errorf("since = %v, want %v", source.since, want)
	}
	mr.CheckGet(t, "10000002-34", "1500")
	mr.CheckGet(t, "10000043-35", "12")
	if got := mr.TTL("10000043-35"); got != ttl {
		t.Errorf("TTL = %v, want %v", got, ttl)
	}
}

func TestJob_RunQueryError(t *testing.T) {
	source := &stubVolumes{err: errors.New("relation \"orders\" does not exist")}
	job := NewJob(source, loader.NewKVLoader(loader.DefaultKVConfig(), nil, nil), 20, nil)

	if _, err := job.Run(context.Background()); err == nil {
		t.Error("Run() expected error")
	}
}
