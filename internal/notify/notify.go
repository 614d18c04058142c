// Package notify implements the toast notification surface.
package notify

import (
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Level is the severity of a toast.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// ParseLevel is the inverse of Level.String. Unknown names map to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "success":
		return LevelSuccess
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Toast is a short on-screen notification.
type Toast struct {
	ID    uuid.UUID `json:"id"`
	Level Level     `json:"level"`
	Text  string    `json:"text"`
	Time  time.Time `json:"time"`
}

// New builds a toast stamped with a fresh id.
func New(level Level, text string, at time.Time) Toast {
	return Toast{ID: uuid.New(), Level: level, Text: text, Time: at}
}

// Notifier displays toasts. Implementations must not block and must not
// call back into whatever raised the toast.
type Notifier interface {
	Notify(Toast)
}

// Func adapts a function to a Notifier.
type Func func(Toast)

// Notify calls f(t).
func (f Func) Notify(t Toast) { f(t) }

// Discard drops every toast.
var Discard Notifier = Func(func(Toast) {})

// Multi fans a toast out to several notifiers in order.
type Multi []Notifier

// Notify forwards t to each notifier.
func (m Multi) Notify(t Toast) {
	for _, n := range m {
		if n != nil {
			n.Notify(t)
		}
	}
}

// Logger writes toasts to a charmbracelet logger.
type Logger struct {
	L *log.Logger
}

// NewLogger returns a Logger that writes through the default logger when l
// is nil.
func NewLogger(l *log.Logger) *Logger {
	if l == nil {
		l = log.Default()
	}
	return &Logger{L: l.WithPrefix("toast")}
}

// Notify logs the toast, at error level for error toasts.
func (n *Logger) Notify(t Toast) {
	kv := []any{"id", t.ID, "level", t.Level}
	if t.Level == LevelError {
		n.L.Error(t.Text, kv...)
		return
	}
	n.L.Info(t.Text, kv...)
}

// History keeps the most recent toasts, newest first.
type History struct {
	mu    sync.RWMutex
	limit int
	items []Toast
}

// NewHistory keeps at most limit toasts. A non-positive limit means 50.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = 50
	}
	return &History{limit: limit}
}

// Notify records t.
func (h *History) Notify(t Toast) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.items = append([]Toast{t}, h.items...)
	if len(h.items) > h.limit {
		h.items = h.items[:h.limit]
	}
}

// List returns a copy of the recorded toasts, newest first.
func (h *History) List() []Toast {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Toast, len(h.items))
	copy(out, h.items)
	return out
}

// Len returns the number of recorded toasts.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.items)
}

var (
	_ Notifier = Func(nil)
	_ Notifier = Multi(nil)
	_ Notifier = (*Logger)(nil)
	_ Notifier = (*History)(nil)
)
