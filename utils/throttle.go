package utils

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Throttle paces outgoing requests. Every request after the first is
// scheduled a random delay in [minDelay, maxDelay] after the slot of the
// previous one, so concurrent callers queue up instead of firing together.
// Independently, no two requests are ever closer than minInterval.
type Throttle struct {
	minDelay time.Duration
	maxDelay time.Duration
	limiter  *rate.Limiter
	logger   *Logger

	mu   sync.Mutex
	next time.Time
}

// NewThrottle creates a Throttle. A swapped range is normalized; a
// non-positive minInterval disables the floor.
func NewThrottle(minDelay, maxDelay, minInterval time.Duration, logger *Logger) *Throttle {
	if maxDelay < minDelay {
		minDelay, maxDelay = maxDelay, minDelay
	}
	t := &Throttle{
		minDelay: max(minDelay, 0),
		maxDelay: max(maxDelay, 0),
		logger:   logger,
	}
	if minInterval > 0 {
		t.limiter = rate.NewLimiter(rate.Every(minInterval), 1)
	}
	return t
}

// Wait blocks until the next request may be issued or ctx is done.
func (t *Throttle) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if delay := t.reserve(time.Now()); delay > 0 {
		if t.logger != nil {
			t.logger.Info("[throttle] Waiting %v before next request", delay.Round(time.Millisecond))
		}
		if err := SleepContext(ctx, delay); err != nil {
			return err
		}
	}

	if t.limiter != nil {
		return t.limiter.Wait(ctx)
	}
	return nil
}

// reserve claims the next request slot and returns how long the caller has
// to wait for it. The first slot is immediate.
func (t *Throttle) reserve(now time.Time) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.next.IsZero() {
		t.next = now
		return 0
	}
	slot := t.next
	if now.After(slot) {
		slot = now
	}
	t.next = slot.Add(t.nextDelay())
	return t.next.Sub(now)
}

func (t *Throttle) nextDelay() time.Duration {
	span := t.maxDelay - t.minDelay
	if span <= 0 {
		return t.minDelay
	}
	return t.minDelay + time.Duration(rand.Int63n(int64(span)+1))
}
