package api

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// gate paces requests with a token bucket and holds every caller during a
// cool-off window after the server signals throttling.
type gate struct {
	mu        sync.Mutex
	lim       *rate.Limiter
	coolUntil time.Time
}

func newGate(rps float64) *gate {
	limit := rate.Inf
	burst := 1
	if rps > 0 {
		limit = rate.Limit(rps)
		burst = int(math.Max(1, math.Ceil(rps)))
	}
	return &gate{lim: rate.NewLimiter(limit, burst)}
}

func (g *gate) wait(ctx context.Context) error {
	g.mu.Lock()
	cool := g.coolUntil
	g.mu.Unlock()

	if d := time.Until(cool); d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return g.lim.Wait(ctx)
}

// coolOff extends the cool-off window to at least now+d.
func (g *gate) coolOff(d time.Duration) {
	if d <= 0 {
		return
	}
	until := time.Now().Add(d)

	g.mu.Lock()
	if until.After(g.coolUntil) {
		g.coolUntil = until
	}
	g.mu.Unlock()
}

func (g *gate) coolingUntil() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.coolUntil
}
