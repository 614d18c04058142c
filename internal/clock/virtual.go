package clock

import (
	"sort"
	"sync"
	"time"
)

// Virtual is a manually advanced Clock. Callbacks run synchronously on the
// goroutine that calls Advance, in deadline order; callbacks sharing a
// deadline run in the order they were scheduled.
type Virtual struct {
	mu      sync.Mutex
	now     time.Time
	seq     uint64
	pending []*virtualTimer
}

type virtualTimer struct {
	c        *Virtual
	deadline time.Time
	seq      uint64
	f        func()
	done     bool
}

// NewVirtual returns a Virtual clock starting at start.
func NewVirtual(start time.Time) *Virtual {
	return &Virtual{now: start}
}

// Now returns the virtual time.
func (c *Virtual) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc schedules f to run once the clock has been advanced by d.
// A non-positive d fires on the next call to Advance.
func (c *Virtual) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	if d < 0 {
		d = 0
	}
	c.seq++
	t := &virtualTimer{c: c, deadline: c.now.Add(d), seq: c.seq, f: f}
	c.pending = append(c.pending, t)
	return t
}

// Advance moves the clock forward by d, firing every timer whose deadline
// falls within the window. Timers scheduled by a firing callback are also
// run if their deadline is reached before the end of the window.
func (c *Virtual) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		next := c.nextDue(target)
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		next.done = true
		c.remove(next)
		if next.deadline.After(c.now) {
			c.now = next.deadline
		}
		c.mu.Unlock()

		next.f()
	}
}

// Pending returns the number of timers that have neither fired nor been
// stopped.
func (c *Virtual) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// nextDue must be called with c.mu held.
func (c *Virtual) nextDue(target time.Time) *virtualTimer {
	if len(c.pending) == 0 {
		return nil
	}
	sort.SliceStable(c.pending, func(i, j int) bool {
		a, b := c.pending[i], c.pending[j]
		if a.deadline.Equal(b.deadline) {
			return a.seq < b.seq
		}
		return a.deadline.Before(b.deadline)
	})
	if first := c.pending[0]; !first.deadline.After(target) {
		return first
	}
	return nil
}

// remove must be called with c.mu held.
func (c *Virtual) remove(t *virtualTimer) {
	for i, p := range c.pending {
		if p == t {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			return
		}
	}
}

func (t *virtualTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()

	if t.done {
		return false
	}
	t.done = true
	t.c.remove(t)
	return true
}

var _ Clock = (*Virtual)(nil)
