package engines

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/neelchudasama51-ui/netramarg/internal/speech"
)

// ErrMockFailure is returned by a MockEngine configured to fail.
var ErrMockFailure = errors.New("mock synthesis failure")

// MockEngine produces silence sized to the text, for demos and tests.
type MockEngine struct {
	// Delay simulates synthesis latency; it honours ctx.
	Delay time.Duration
	// WordsPerMinute at rate 1.0. Defaults to 150.
	WordsPerMinute int
	// SampleRate of the produced audio. Defaults to 22050.
	SampleRate int

	mu    sync.Mutex
	calls []string
	fail  bool
}

// NewMockEngine returns a mock engine with the given latency.
func NewMockEngine(delay time.Duration) *MockEngine {
	return &MockEngine{Delay: delay}
}

// Synthesize waits Delay and returns silence for the estimated speaking
// time.
func (m *MockEngine) Synthesize(ctx context.Context, text string, rate float64) (speech.Audio, error) {
	if err := checkText(text, maxTextSize); err != nil {
		return speech.Audio{}, err
	}

	m.mu.Lock()
	m.calls = append(m.calls, text)
	fail := m.fail
	m.mu.Unlock()

	if m.Delay > 0 {
		t := time.NewTimer(m.Delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return speech.Audio{}, ctx.Err()
		}
	}
	if fail {
		return speech.Audio{}, speech.NewEngineError("mock", "synthesize", ErrMockFailure)
	}

	wpm := m.WordsPerMinute
	if wpm <= 0 {
		wpm = 150
	}
	sr := m.sampleRate()
	words := len(strings.Fields(text))
	d := time.Duration(float64(words) / (float64(wpm) * clamp(rate, 0.25, 4.0)) * float64(time.Minute))
	if d < 100*time.Millisecond {
		d = 100 * time.Millisecond
	}
	return speech.Audio{PCM: speech.Silence(d, sr), SampleRate: sr}, nil
}

// SetFailing makes subsequent syntheses fail.
func (m *MockEngine) SetFailing(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = fail
}

// Calls returns the texts synthesised so far.
func (m *MockEngine) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// Info describes the engine.
func (m *MockEngine) Info() speech.EngineInfo {
	return speech.EngineInfo{
		Name:        "mock",
		Voice:       "silence",
		SampleRate:  m.sampleRate(),
		MaxTextSize: maxTextSize,
	}
}

// Validate always succeeds.
func (m *MockEngine) Validate() error { return nil }

// Close is a no-op.
func (m *MockEngine) Close() error { return nil }

func (m *MockEngine) sampleRate() int {
	if m.SampleRate > 0 {
		return m.SampleRate
	}
	return 22050
}

var _ speech.Engine = (*MockEngine)(nil)
