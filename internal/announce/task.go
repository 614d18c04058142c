package announce

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/neelchudasama51-ui/netramarg/internal/clock"
)

// ErrTaskCancelled is returned by Task.Wait when the task was cancelled
// before it ran.
var ErrTaskCancelled = errors.New("task cancelled")

// TaskStatus is the lifecycle position of a Task.
type TaskStatus int32

const (
	TaskPending TaskStatus = iota
	TaskCompleted
	TaskCancelled
)

func (s TaskStatus) String() string {
	switch s {
	case TaskPending:
		return "pending"
	case TaskCompleted:
		return "completed"
	case TaskCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Task is a delayed step scheduled by the controller: the welcome
// message or a feature follow-up.
type Task struct {
	Name string
	Due  time.Time

	c      *Controller
	id     uint64
	timer  clock.Timer
	done   chan struct{}
	status atomic.Int32
}

func newTask(c *Controller, id uint64, name string, due time.Time) *Task {
	return &Task{
		Name: name,
		Due:  due,
		c:    c,
		id:   id,
		done: make(chan struct{}),
	}
}

// Done is closed once the task has completed or been cancelled.
func (t *Task) Done() <-chan struct{} { return t.done }

// Status returns the task's current status.
func (t *Task) Status() TaskStatus { return TaskStatus(t.status.Load()) }

// Wait blocks until the task finishes or ctx ends.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		if t.Status() == TaskCancelled {
			return ErrTaskCancelled
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel stops the task if it has not run yet. It reports whether this
// call cancelled it. Cancel must not be called from an event listener.
func (t *Task) Cancel() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	return t.c.cancelLocked(t)
}

// finish must be called with the controller lock held.
func (t *Task) finish(s TaskStatus) bool {
	if !t.status.CompareAndSwap(int32(TaskPending), int32(s)) {
		return false
	}
	close(t.done)
	return true
}
