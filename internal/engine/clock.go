package engine

import (
	"container/heap"
	"sync"
	"time"
)

// Timer is a scheduled callback that can be stopped before it fires.
type Timer interface {
	Stop() bool
}

// Clock schedules recharge timers.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Stepper is implemented by clocks the engine loop drives itself.
// Step fires the earliest pending timer and reports whether one existed.
type Stepper interface {
	Step() bool
}

// RealClock schedules timers on the wall clock.
type RealClock struct{}

// Now returns the current wall-clock time.
func (RealClock) Now() time.Time { return time.Now() }

// AfterFunc wraps time.AfterFunc.
func (RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// VirtualClock is a discrete event clock. Time only moves when Step is called,
// jumping straight to the next due timer, so a whole battle runs as fast as the
// engine can process it.
type VirtualClock struct {
	mu     sync.Mutex
	epoch  time.Time
	now    time.Duration
	seq    uint64
	timers timerHeap
}

// NewVirtualClock creates a virtual clock starting at the given epoch.
func NewVirtualClock(epoch time.Time) *VirtualClock {
	return &VirtualClock{epoch: epoch}
}

// Now returns the epoch plus the virtual time elapsed so far.
func (c *VirtualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch.Add(c.now)
}

// Elapsed returns the virtual time elapsed since the epoch.
func (c *VirtualClock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc schedules f to run d after the current virtual time.
func (c *VirtualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	if d < 0 {
		d = 0
	}
	c.seq++
	e := &timerEntry{at: c.now + d, seq: c.seq, fn: f, clock: c}
	heap.Push(&c.timers, e)
	return e
}

// Pending returns the number of timers that have neither fired nor been stopped.
func (c *VirtualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.timers {
		if !e.stopped {
			n++
		}
	}
	return n
}

// Step advances to the earliest live timer and runs it on the caller's goroutine.
func (c *VirtualClock) Step() bool {
	c.mu.Lock()
	for c.timers.Len() > 0 {
		e := heap.Pop(&c.timers).(*timerEntry)
		if e.stopped {
			continue
		}
		e.fired = true
		if e.at > c.now {
			c.now = e.at
		}
		c.mu.Unlock()
		e.fn()
		return true
	}
	c.mu.Unlock()
	return false
}

type timerEntry struct {
	at      time.Duration
	seq     uint64
	fn      func()
	fired   bool
	stopped bool
	clock   *VirtualClock
}

func (e *timerEntry) Stop() bool {
	e.clock.mu.Lock()
	defer e.clock.mu.Unlock()
	if e.fired || e.stopped {
		return false
	}
	e.stopped = true
	return true
}

// timerHeap orders timers by due time, then by scheduling order.
type timerHeap []*timerEntry

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].at == h[j].at {
		return h[i].seq < h[j].seq
	}
	return h[i].at < h[j].at
}

func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *timerHeap) Push(x any) { *h = append(*h, x.(*timerEntry)) }

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}
