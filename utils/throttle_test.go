package utils

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrottleFirstWaitIsImmediate(t *testing.T) {
	th := NewThrottle(time.Hour, time.Hour, 0, NopLogger())

	start := time.Now()
	require.NoError(t, th.Wait(context.Background()))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestThrottleDelayWithinRange(t *testing.T) {
	minDelay, maxDelay := 20*time.Millisecond, 40*time.Millisecond
	th := NewThrottle(minDelay, maxDelay, 0, NopLogger())
	require.NoError(t, th.Wait(context.Background()))

	for i := 0; i < 3; i++ {
		start := time.Now()
		require.NoError(t, th.Wait(context.Background()))
		assert.GreaterOrEqual(t, time.Since(start), minDelay)
	}

	for i := 0; i < 50; i++ {
		d := th.nextDelay()
		assert.GreaterOrEqual(t, d, minDelay)
		assert.LessOrEqual(t, d, maxDelay)
	}
}

func TestThrottleMinIntervalFloor(t *testing.T) {
	interval := 50 * time.Millisecond
	th := NewThrottle(0, 0, interval, NopLogger())

	var stamps []time.Time
	for i := 0; i < 3; i++ {
		require.NoError(t, th.Wait(context.Background()))
		stamps = append(stamps, time.Now())
	}

	for i := 1; i < len(stamps); i++ {
		gap := stamps[i].Sub(stamps[i-1])
		// allow a little scheduler slack under the token bucket
		assert.GreaterOrEqual(t, gap, interval-5*time.Millisecond, "gap %d", i)
	}
}

func TestThrottleHonoursCancellation(t *testing.T) {
	th := NewThrottle(time.Hour, time.Hour, 0, NopLogger())
	require.NoError(t, th.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := th.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestThrottleSwappedRange(t *testing.T) {
	th := NewThrottle(30*time.Millisecond, 10*time.Millisecond, 0, nil)
	assert.Equal(t, 10*time.Millisecond, th.minDelay)
	assert.Equal(t, 30*time.Millisecond, th.maxDelay)
}

func TestThrottleSerializesConcurrentCallers(t *testing.T) {
	delay := 50 * time.Millisecond
	th := NewThrottle(delay, delay, 0, NopLogger())

	var (
		mu     sync.Mutex
		stamps []time.Time
		wg     sync.WaitGroup
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := th.Wait(context.Background()); err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			stamps = append(stamps, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, stamps, 4)
	sort.Slice(stamps, func(i, j int) bool { return stamps[i].Before(stamps[j]) })
	for i := 1; i < len(stamps); i++ {
		gap := stamps[i].Sub(stamps[i-1])
		assert.GreaterOrEqual(t, gap, delay-10*time.Millisecond, "gap %d", i)
	}
}

func TestThrottleReserveQueuesSlots(t *testing.T) {
	th := NewThrottle(time.Second, time.Second, 0, nil)
	now := time.Now()

	assert.Zero(t, th.reserve(now))
	assert.Equal(t, time.Second, th.reserve(now))
	assert.Equal(t, 2*time.Second, th.reserve(now))
	// a caller arriving after the queue has drained waits one delay from now
	assert.Equal(t, time.Second, th.reserve(now.Add(10*time.Second)))
}
