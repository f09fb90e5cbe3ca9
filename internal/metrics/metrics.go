package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rickgao/market-sync/internal/model"
)

// Recorder accumulates counters across invocations. Safe for concurrent use.
type Recorder struct {
	runs      atomic.Int64
	successes atomic.Int64
	failures  atomic.Int64

	itemsFetched atomic.Int64
	itemsEmpty   atomic.Int64
	itemsFailed  atomic.Int64
	written      atomic.Int64

	mu          sync.Mutex
	lastRegion  model.RegionID
	lastSuccess time.Time
	lastError   string
}

// New creates a Recorder.
func New() *Recorder {
	return &Recorder{}
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Runs         int64     `json:"runs"`
	Successes    int64     `json:"successes"`
	Failures     int64     `json:"failures"`
	ItemsFetched int64     `json:"items_fetched"`
	ItemsEmpty   int64     `json:"items_empty"`
	ItemsFailed  int64     `json:"items_failed"`
	Written      int64     `json:"written"`
	LastRegion   int64     `json:"last_region,omitempty"`
	LastSuccess  time.Time `json:"last_success,omitzero"`
	LastError    string    `json:"last_error,omitempty"`
}

// RunStarted records the start of an invocation on region.
func (r *Recorder) RunStarted(region model.RegionID) {
	r.runs.Add(1)
	r.mu.Lock()
	r.lastRegion = region
	r.mu.Unlock()
}

// RunSucceeded records a completed invocation.
func (r *Recorder) RunSucceeded(at time.Time) {
	r.successes.Add(1)
	r.mu.Lock()
	r.lastSuccess = at
	r.lastError = ""
	r.mu.Unlock()
}

// RunFailed records a failed invocation.
func (r *Recorder) RunFailed(err error) {
	r.failures.Add(1)
	r.mu.Lock()
	r.lastError = err.Error()
	r.mu.Unlock()
}

// Items records the outcome counts of one fan-out.
func (r *Recorder) Items(fetched, empty, failed int) {
	r.itemsFetched.Add(int64(fetched))
	r.itemsEmpty.Add(int64(empty))
	r.itemsFailed.Add(int64(failed))
}

// Written records records committed to a sink.
func (r *Recorder) Written(n int64) {
	r.written.Add(n)
}

// Snapshot returns the current counters.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{
		Runs:         r.runs.Load(),
		Successes:    r.successes.Load(),
		Failures:     r.failures.Load(),
		ItemsFetched: r.itemsFetched.Load(),
		ItemsEmpty:   r.itemsEmpty.Load(),
		ItemsFailed:  r.itemsFailed.Load(),
		Written:      r.written.Load(),
		LastRegion:   int64(r.lastRegion),
		LastSuccess:  r.lastSuccess,
		LastError:    r.lastError,
	}
}
