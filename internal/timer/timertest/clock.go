package timertest

import (
	"sort"
	"sync"
	"time"
)

// ManualClock is a deterministic clock for tests. Callbacks fire only from Advance,
// synchronously, on the calling goroutine.
type ManualClock struct {
	mu      sync.Mutex
	start   time.Time
	elapsed time.Duration
	lastSeq int
	pending []*scheduledFunc
}

type scheduledFunc struct {
	at  time.Duration
	seq int
	f   func()
}

func NewManualClock() *ManualClock {
	return &ManualClock{
		start: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
	}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.start.Add(c.elapsed)
}

func (c *ManualClock) AfterFunc(d time.Duration, f func()) func() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastSeq++
	sf := &scheduledFunc{
		at:  c.elapsed + d,
		seq: c.lastSeq,
		f:   f,
	}
	c.pending = append(c.pending, sf)

	return func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, p := range c.pending {
			if p == sf {
				c.pending = append(c.pending[:i], c.pending[i+1:]...)
				return true
			}
		}
		return false
	}
}

// Advance moves the clock forward by d and fires every callback that falls due, including
// callbacks scheduled by fired callbacks. It returns the number of fired callbacks.
func (c *ManualClock) Advance(d time.Duration) int {
	c.mu.Lock()
	target := c.elapsed + d
	c.mu.Unlock()

	fired := 0
	for {
		c.mu.Lock()
		next := c.popDueLocked(target)
		if next == nil {
			c.elapsed = target
			c.mu.Unlock()
			return fired
		}
		c.elapsed = next.at
		c.mu.Unlock()

		next.f()
		fired++
	}
}

// Pending returns the number of armed callbacks.
func (c *ManualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// TakePending removes every armed callback and returns them in firing order, without firing.
// Tests use it to deliver late ticks by hand.
func (c *ManualClock) TakePending() []func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sortLocked()
	fns := make([]func(), 0, len(c.pending))
	for _, p := range c.pending {
		fns = append(fns, p.f)
	}
	c.pending = nil
	return fns
}

func (c *ManualClock) popDueLocked(target time.Duration) *scheduledFunc {
	if len(c.pending) == 0 {
		return nil
	}
	c.sortLocked()
	first := c.pending[0]
	if first.at > target {
		return nil
	}
	c.pending = c.pending[1:]
	return first
}

func (c *ManualClock) sortLocked() {
	sort.SliceStable(c.pending, func(i, j int) bool {
		if c.pending[i].at == c.pending[j].at {
			return c.pending[i].seq < c.pending[j].seq
		}
		return c.pending[i].at < c.pending[j].at
	})
}
