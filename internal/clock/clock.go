// Package clock provides the time source used to schedule delayed
// announcements. Production code uses Real; tests drive a Virtual clock by
// hand so that timer-ordered behaviour can be asserted deterministically.
package clock

import "time"

// Timer is a handle to a scheduled one-shot callback.
type Timer interface {
	// Stop prevents the callback from running. It reports whether the
	// call stopped the timer; false means it already fired or was stopped.
	Stop() bool
}

// Clock schedules one-shot callbacks.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Real is a Clock backed by the time package.
type Real struct{}

// New returns the wall clock.
func New() Real { return Real{} }

// Now returns the current local time.
func (Real) Now() time.Time { return time.Now() }

// AfterFunc runs f in its own goroutine after d elapses.
func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

var _ Clock = Real{}
