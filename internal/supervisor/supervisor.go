// Package supervisor re-runs a sync invocation until it succeeds.
//
// Failures are classified by kind. Throttling from the upstream API earns a
// longer cooldown than any other failure. There is no attempt limit.
package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/rickgao/market-sync/internal/api"
)

// Kind classifies an invocation error.
type Kind uint8

const (
	KindNone Kind = iota
	KindCanceled
	KindRateLimited
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindCanceled:
		return "canceled"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "transient"
	}
}

// Classify maps err to a Kind.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.IsRateLimited() {
		return KindRateLimited
	}
	return KindTransient
}

// Config holds supervisor configuration.
type Config struct {
	Cooldown          time.Duration // After an ordinary failure (default: 2m)
	RateLimitCooldown time.Duration // After upstream throttling (default: 5m)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Cooldown:          2 * time.Minute,
		RateLimitCooldown: 5 * time.Minute,
	}
}

// Supervisor runs a function until it returns nil.
type Supervisor struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Supervisor.
func New(cfg Config, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{cfg: cfg, logger: logger}
}

// Run invokes fn until it succeeds, sleeping a kind-specific cooldown between
// attempts. It returns nil after the first success, or ctx's error once ctx is
// done.
func (s *Supervisor) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				s.logger.Info("invocation succeeded after retries", "attempts", attempt)
			}
			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		kind := Classify(err)
		if kind == KindCanceled {
			return err
		}

		wait := s.cooldown(kind)
		s.logger.Error("invocation failed",
			"attempt", attempt,
			"kind", kind.String(),
			"retry_in", wait,
			"error", err,
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (s *Supervisor) cooldown(kind Kind) time.Duration {
	if kind == KindRateLimited {
		return s.cfg.RateLimitCooldown
	}
	return s.cfg.Cooldown
}
