// Package scheduler provides the monotonic clock and cooperative timer wheel
// that drives every arena's soft real-time deadlines: registration
// countdowns, idle reaping, learning-phase expiry, and round deadlines.
package scheduler

import (
	"container/heap"
	"context"
	"sync"
	"time"
)

// Key identifies a scheduled callback. At most one timer exists per Key;
// scheduling a new callback under the same Key replaces the prior one.
type Key struct {
	ArenaID string
	Kind    string
}

// Well-known timer kinds, matching the (arena_id, kind) pairs named in the
// specification's timer entity.
const (
	KindGameStartCountdown = "game_start_countdown"
	KindIdleReap           = "idle_reap"
	KindLearningEnd        = "learning_end"
	KindRoundDeadline      = "round_deadline"
	KindAgentCycle         = "agent_cycle"
)

// Callback is invoked at-most-once after FiresAt is reached, in the
// scheduler's own dispatch goroutine. Callbacks must be short; heavy work is
// the caller's responsibility to offload (typically by enqueuing a command
// onto an arena actor's mailbox).
type Callback func()

type timerEntry struct {
	key     Key
	firesAt time.Time
	cb      Callback
	index   int
	cancel  bool
}

type timerHeap []*timerEntry

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].firesAt.Before(h[j].firesAt) }
func (h timerHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *timerHeap) Push(x interface{}) {
	entry := x.(*timerEntry)
	entry.index = len(*h)
	*h = append(*h, entry)
}
func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	entry := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return entry
}

// Clock supplies the scheduler's notion of "now". Production code uses
// WallClock; tests inject a VirtualClock to advance time deterministically
// without sleeping.
type Clock interface {
	Now() time.Time
}

// WallClock is the production Clock backed by time.Now.
type WallClock struct{}

func (WallClock) Now() time.Time { return time.Now() }

// Scheduler is the single-writer timer wheel described in the specification's
// Clock & Scheduler component. One Scheduler serves the whole fleet of
// arenas; per-arena state lives in the arena store, not here.
type Scheduler struct {
	clock Clock

	mu      sync.Mutex
	entries map[Key]*timerEntry
	heap    timerHeap

	wake chan struct{}
	done chan struct{}
	once sync.Once
}

// New constructs a Scheduler using the supplied clock. Pass WallClock{} in
// production and a virtual clock in tests.
func New(clock Clock) *Scheduler {
	if clock == nil {
		clock = WallClock{}
	}
	return &Scheduler{
		clock:   clock,
		entries: make(map[Key]*timerEntry),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// Now returns the scheduler's current time per its injected clock.
func (s *Scheduler) Now() time.Time { return s.clock.Now() }

// Schedule registers cb to run at-most-once at or after firesAt, replacing
// any previously scheduled callback for the same key. Scheduling is
// idempotent: calling it again for the same key before it fires simply moves
// the fire time and swaps the callback.
func (s *Scheduler) Schedule(key Key, firesAt time.Time, cb Callback) {
	s.mu.Lock()
	if prior, ok := s.entries[key]; ok {
		prior.cancel = true
	}
	entry := &timerEntry{key: key, firesAt: firesAt, cb: cb}
	s.entries[key] = entry
	heap.Push(&s.heap, entry)
	s.mu.Unlock()
	s.nudge()
}

// Cancel removes the pending callback for key, if any, before it fires.
func (s *Scheduler) Cancel(key Key) {
	s.mu.Lock()
	if entry, ok := s.entries[key]; ok {
		entry.cancel = true
		delete(s.entries, key)
	}
	s.mu.Unlock()
	s.nudge()
}

func (s *Scheduler) nudge() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// tickResolution caps how long the dispatcher sleeps between checks, whether
// or not timers are pending. config.Config.SchedulerTickMS does not change it.
const tickResolution = 100 * time.Millisecond

// Run drives the dispatch loop until ctx is cancelled. It sleeps until the
// earliest pending fire time (or tickResolution, whichever is sooner),
// fires all callbacks whose time has come, and repeats.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		wait := s.nextWait()
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			close(s.done)
			return
		case <-timer.C:
		case <-s.wake:
			timer.Stop()
		}
		s.fireDue()
	}
}

func (s *Scheduler) nextWait() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.heap.Len() == 0 {
		return tickResolution
	}
	next := s.heap[0].firesAt
	wait := next.Sub(s.clock.Now())
	if wait < 0 {
		wait = 0
	}
	if wait > tickResolution {
		wait = tickResolution
	}
	return wait
}

func (s *Scheduler) fireDue() {
	now := s.clock.Now()
	var due []*timerEntry
	s.mu.Lock()
	for s.heap.Len() > 0 {
		top := s.heap[0]
		if top.cancel {
			heap.Pop(&s.heap)
			continue
		}
		if top.firesAt.After(now) {
			break
		}
		heap.Pop(&s.heap)
		if current, ok := s.entries[top.key]; ok && current == top {
			delete(s.entries, top.key)
			due = append(due, top)
		}
	}
	s.mu.Unlock()

	for _, entry := range due {
		entry.cb()
	}
}

// ScheduleTimer is a convenience wrapper over Schedule for callers that think
// in terms of (arenaID, kind) rather than the bare Key struct; it is the
// shape native/arena's Engine depends on via its narrow TimerScheduler
// interface.
func (s *Scheduler) ScheduleTimer(arenaID, kind string, firesAt time.Time, cb Callback) {
	s.Schedule(Key{ArenaID: arenaID, Kind: kind}, firesAt, cb)
}

// CancelTimer is the (arenaID, kind) counterpart to ScheduleTimer.
func (s *Scheduler) CancelTimer(arenaID, kind string) {
	s.Cancel(Key{ArenaID: arenaID, Kind: kind})
}

// Pending reports whether a callback is currently scheduled for key.
func (s *Scheduler) Pending(key Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	return ok
}

// Len reports the number of distinct pending timer keys, for diagnostics.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// VirtualClock is an advanceable Clock for deterministic tests.
type VirtualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewVirtualClock constructs a VirtualClock starting at the given instant.
func NewVirtualClock(start time.Time) *VirtualClock {
	return &VirtualClock{now: start}
}

func (c *VirtualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the virtual clock forward by d. It does not itself wake a
// running Scheduler; call Scheduler.fireDue indirectly via Run, or drive the
// scheduler from the same goroutine in tests that bypass Run entirely.
func (c *VirtualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
