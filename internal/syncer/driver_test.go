package syncer

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/rickgao/market-sync/internal/cache"
	"github.com/rickgao/market-sync/internal/cursor"
	"github.com/rickgao/market-sync/internal/metrics"
	"github.com/rickgao/market-sync/internal/model"
)

type staticUniverse struct {
	regions []model.RegionID
	err     error
}

func (u staticUniverse) GetRegionIDs(context.Context) ([]model.RegionID, error) {
	return u.regions, u.err
}

type recordingProcessor struct {
	regions []model.RegionID
	err     error
}

func (p *recordingProcessor) ProcessRegion(_ context.Context, region model.RegionID) error {
	p.regions = append(p.regions, region)
	return p.err
}

func newCursorStore(t *testing.T) (*cache.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store := cache.NewStoreFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func TestDriver_RoundRobin(t *testing.T) {
	store, mr := newCursorStore(t)
	universe := staticUniverse{regions: []model.RegionID{10, 20, 30}}
	proc := &recordingProcessor{}

	wantCursor := []string{"20", "30", "10"}
	for i, want := range wantCursor {
		// A fresh driver per invocation, as after a process restart.
		d := NewDriver(universe, cursor.New(store, cursor.DefaultKey), proc, nil, nil)
		if err := d.RunOnce(context.Background()); err != nil {
			t.Fatalf("invocation %d: RunOnce() error: %v", i, err)
		}
		mr.CheckGet(t, cursor.DefaultKey, want)
	}

	want := []model.RegionID{10, 20, 30}
	for i := range want {
		if proc.regions[i] != want[i] {
			t.Errorf("processed = %v, want %v", proc.regions, want)
			break
		}
	}
}

func TestDriver_StaleCursorRestarts(t *testing.T) {
	store, mr := newCursorStore(t)
	mr.Set(cursor.DefaultKey, "99")

	proc := &recordingProcessor{}
	d := NewDriver(staticUniverse{regions: []model.RegionID{10, 20, 30}}, cursor.New(store, ""), proc, nil, nil)

	if err := d.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error: %v", err)
	}
	if len(proc.regions) != 1 || proc.regions[0] != 10 {
		t.Errorf("processed = %v, want [10]", proc.regions)
	}
	mr.CheckGet(t, cursor.DefaultKey, "20")
}

func TestDriver_UniverseFailure(t *testing.T) {
	store, mr := newCursorStore(t)
	proc := &recordingProcessor{}
	rec := metrics.New()

	d := NewDriver(staticUniverse{err: errors.New("s3 unreachable")}, cursor.New(store, ""), proc, rec, nil)

	if err := d.RunOnce(context.Background()); err == nil {
		t.Fatal("RunOnce() expected error")
	}
	if len(proc.regions) != 0 {
		t.Errorf("processed = %v, want none", proc.regions)
	}
	if mr.Exists(cursor.DefaultKey) {
		t.Error("cursor persisted despite universe failure")
	}
	if rec.Snapshot().Failures != 1 {
		t.Errorf("Failures = %d, want 1", rec.Snapshot().Failures)
	}
}

func TestDriver_ProcessorFailureStillAdvances(t *testing.T) {
	store, mr := newCursorStore(t)
	boom := errors.New("redis pipeline failed")
	proc := &recordingProcessor{err: boom}
	rec := metrics.New()

	d := NewDriver(staticUniverse{regions: []model.RegionID{10, 20}}, cursor.New(store, ""), proc, rec, nil)

	err := d.RunOnce(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("RunOnce() error = %v, want %v", err, boom)
	}
	mr.CheckGet(t, cursor.DefaultKey, "20")

	s := rec.Snapshot()
	if s.Runs != 1 || s.Failures != 1 || s.LastRegion != 10 {
		t.Errorf("Snapshot() = %+v", s)
	}
}

func TestDriver_EmptyUniverse(t *testing.T) {
	store, _ := newCursorStore(t)
	d := NewDriver(staticUniverse{}, cursor.New(store, ""), &recordingProcessor{}, nil, nil)

	if err := d.RunOnce(context.Background()); !errors.Is(err, cursor.ErrEmptyUniverse) {
		t.Errorf("RunOnce() error = %v, want ErrEmptyUniverse", err)
	}
}
