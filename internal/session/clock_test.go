package session

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClock_DeliversTicks(t *testing.T) {
	factory, ticks := newFakeTicks()
	clock := NewClock(factory)
	defer clock.Stop()

	var count atomic.Int32
	clock.Start(func() bool {
		count.Add(1)
		return true
	})

	for i := 0; i < 3; i++ {
		ticks <- time.Now()
	}
	require.Eventually(t, func() bool { return count.Load() == 3 }, time.Second, 5*time.Millisecond)
}

func TestClock_StopHaltsDelivery(t *testing.T) {
	factory, ticks := newFakeTicks()
	clock := NewClock(factory)

	var count atomic.Int32
	clock.Start(func() bool {
		count.Add(1)
		return true
	})

	ticks <- time.Now()
	require.Eventually(t, func() bool { return count.Load() == 1 }, time.Second, 5*time.Millisecond)

	clock.Stop()
	clock.Stop() // idempotent

	ticks <- time.Now()
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, int32(1), count.Load())
}

func TestClock_HandlerCanStopFromInside(t *testing.T) {
	factory, ticks := newFakeTicks()
	clock := NewClock(factory)
	defer clock.Stop()

	var count atomic.Int32
	clock.Start(func() bool {
		return count.Add(1) < 2
	})

	for i := 0; i < 5; i++ {
		ticks <- time.Now()
	}
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, int32(2), count.Load())
}

func TestClock_StartWhileRunningIsNoOp(t *testing.T) {
	factory, ticks := newFakeTicks()
	clock := NewClock(factory)
	defer clock.Stop()

	var first, second atomic.Int32
	clock.Start(func() bool {
		first.Add(1)
		return true
	})
	clock.Start(func() bool {
		second.Add(1)
		return true
	})

	ticks <- time.Now()
	require.Eventually(t, func() bool { return first.Load() == 1 }, time.Second, 5*time.Millisecond)
	require.Equal(t, int32(0), second.Load())
}
