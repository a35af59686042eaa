package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/abelzeko/erfiume-bot/internal/metrics"
	"github.com/abelzeko/erfiume-bot/internal/repository"
)

const (
	DefaultThrottleThreshold = 5
	DefaultThrottleWindow    = 15 * time.Minute
)

// ThrottleGate limits how many station queries one identity may make
// within a rolling cool-down window.
//
// The read and the increment are separate store calls, so two concurrent
// calls for the same identity may both pass at the threshold boundary.
type ThrottleGate struct {
	repo      repository.ThrottleRepository
	threshold int
	window    time.Duration
	now       func() time.Time
}

// NewThrottleGate creates a gate; non-positive settings fall back to the defaults.
func NewThrottleGate(repo repository.ThrottleRepository, threshold int, window time.Duration) *ThrottleGate {
	if threshold <= 0 {
		threshold = DefaultThrottleThreshold
	}
	if window <= 0 {
		window = DefaultThrottleWindow
	}
	return &ThrottleGate{
		repo:      repo,
		threshold: threshold,
		window:    window,
		now:       time.Now,
	}
}

// Check returns 0 when the call may proceed (and counts it), otherwise the
// number of seconds left before the identity may ask again.
func (g *ThrottleGate) Check(ctx context.Context, identity int64) (int, error) {
	now := g.now()

	rec, found, err := g.repo.GetThrottle(ctx, identity)
	if err != nil {
		return 0, fmt.Errorf("throttle check for %d: %w", identity, err)
	}

	if found && !rec.ExpiresAt.After(now) {
		if err := g.repo.DeleteThrottle(ctx, identity); err != nil {
			return 0, fmt.Errorf("throttle reset for %d: %w", identity, err)
		}
		found = false
	}

	if found && rec.Count >= g.threshold {
		wait := int(math.Ceil(rec.ExpiresAt.Sub(now).Seconds()))
		if wait < 1 {
			wait = 1
		}
		metrics.ThrottledRequests.Inc()
		slog.Info("request throttled", "identity", identity, "count", rec.Count, "wait_seconds", wait)
		return wait, nil
	}

	count, err := g.repo.IncrementThrottle(ctx, identity, now.Add(g.window))
	if err != nil {
		return 0, fmt.Errorf("throttle increment for %d: %w", identity, err)
	}
	slog.Debug("request allowed", "identity", identity, "count", count)
	return 0, nil
}
