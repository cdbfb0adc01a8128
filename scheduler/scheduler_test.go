package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestScheduleFiresAfterDeadline(t *testing.T) {
	clock := NewVirtualClock(time.Unix(0, 0))
	s := New(clock)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	var fired int32
	s.Schedule(Key{ArenaID: "a1", Kind: KindIdleReap}, clock.Now().Add(50*time.Millisecond), func() {
		atomic.StoreInt32(&fired, 1)
	})

	require.Eventually(t, func() bool {
		clock.Advance(10 * time.Millisecond)
		return atomic.LoadInt32(&fired) == 1
	}, time.Second, time.Millisecond)
}

func TestScheduleReplacesPriorCallbackForSameKey(t *testing.T) {
	clock := NewVirtualClock(time.Unix(0, 0))
	s := New(clock)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	key := Key{ArenaID: "a1", Kind: KindRoundDeadline}
	var firstFired, secondFired int32
	s.Schedule(key, clock.Now().Add(20*time.Millisecond), func() {
		atomic.StoreInt32(&firstFired, 1)
	})
	s.Schedule(key, clock.Now().Add(60*time.Millisecond), func() {
		atomic.StoreInt32(&secondFired, 1)
	})

	require.Eventually(t, func() bool {
		clock.Advance(10 * time.Millisecond)
		return atomic.LoadInt32(&secondFired) == 1
	}, time.Second, time.Millisecond)
	require.Equal(t, int32(0), atomic.LoadInt32(&firstFired), "earlier callback for a replaced key must not fire")
}

func TestCancelPreventsFiring(t *testing.T) {
	clock := NewVirtualClock(time.Unix(0, 0))
	s := New(clock)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	key := Key{ArenaID: "a2", Kind: KindGameStartCountdown}
	var fired int32
	s.Schedule(key, clock.Now().Add(20*time.Millisecond), func() {
		atomic.StoreInt32(&fired, 1)
	})
	s.Cancel(key)
	require.False(t, s.Pending(key))

	for i := 0; i < 5; i++ {
		clock.Advance(20 * time.Millisecond)
		time.Sleep(5 * time.Millisecond)
	}
	require.Equal(t, int32(0), atomic.LoadInt32(&fired))
}

func TestAtMostOneTimerPerKey(t *testing.T) {
	clock := NewVirtualClock(time.Unix(0, 0))
	s := New(clock)
	key := Key{ArenaID: "a3", Kind: KindLearningEnd}
	s.Schedule(key, clock.Now().Add(time.Second), func() {})
	s.Schedule(key, clock.Now().Add(2*time.Second), func() {})
	require.Equal(t, 1, s.Len())
}
