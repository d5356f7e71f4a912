// Package limiter implements the per-client request gate: a fixed-window
// counter with a hard lockout penalty. A burst straddling a window boundary
// can briefly exceed the nominal rate, but no single window ever admits more
// than the limit.
package limiter

import (
	"context"
	"time"
)

const (
	// DefaultWindow is the counting window.
	DefaultWindow = time.Minute
	// DefaultPenalty is how long a client stays banned after exceeding the
	// limit.
	DefaultPenalty = 180 * time.Second
)

// Decision is the outcome of admitting one request. A rejection always
// carries the remaining penalty so the caller can emit Retry-After.
type Decision struct {
	Allowed    bool
	Count      int64
	RetryAfter time.Duration
}

// Store keeps per-client counting and ban state. Every method must be atomic
// per key; implementations receive the caller's notion of now so they stay
// clock-free and deterministic under test.
type Store interface {
	// Incr advances the fixed window for key: the window restarts when
	// stale (or after an expired ban), the counter increments, and the new
	// count is returned.
	Incr(ctx context.Context, key string, window time.Duration, now time.Time) (int64, error)

	// Ban rejects key for the next penalty duration and clears its
	// counter, so the window starts fresh once the ban lifts.
	Ban(ctx context.Context, key string, penalty time.Duration, now time.Time) error

	// Banned reports the remaining penalty for key, if a ban is active.
	Banned(ctx context.Context, key string, now time.Time) (time.Duration, bool, error)
}

// Limiter applies the fixed-window policy over a Store.
type Limiter struct {
	store   Store
	limit   int64
	window  time.Duration
	penalty time.Duration

	// Clock overrides time.Now for tests.
	Clock func() time.Time
}

// New builds a Limiter admitting at most limit requests per window, banning
// offenders for penalty. limit 0 disables limiting entirely.
func New(store Store, limit int64, window, penalty time.Duration) *Limiter {
	if window <= 0 {
		window = DefaultWindow
	}
	if penalty <= 0 {
		penalty = DefaultPenalty
	}
	return &Limiter{store: store, limit: limit, window: window, penalty: penalty}
}

// Limit returns the configured requests-per-window cap.
func (l *Limiter) Limit() int64 { return l.limit }

// Allow decides whether key's next request is admitted. The request that
// first exceeds the limit is itself rejected and starts the ban. Store
// failures fail open: the decision allows and the error is returned for
// logging.
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	if l.limit == 0 {
		return Decision{Allowed: true}, nil
	}
	now := l.now()

	remaining, banned, err := l.store.Banned(ctx, key, now)
	if err != nil {
		return Decision{Allowed: true}, err
	}
	if banned {
		return Decision{RetryAfter: remaining}, nil
	}

	count, err := l.store.Incr(ctx, key, l.window, now)
	if err != nil {
		return Decision{Allowed: true}, err
	}
	if count > l.limit {
		if err := l.store.Ban(ctx, key, l.penalty, now); err != nil {
			return Decision{Allowed: true}, err
		}
		return Decision{Count: count, RetryAfter: l.penalty}, nil
	}

	return Decision{Allowed: true, Count: count}, nil
}

func (l *Limiter) now() time.Time {
	if l.Clock != nil {
		return l.Clock()
	}
	return time.Now()
}
