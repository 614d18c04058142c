package engines

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/neelchudasama51-ui/netramarg/internal/speech"
)

// FallbackEngine uses a primary engine until it has failed maxFailures
// times in a row, then switches to the fallback for the rest of the
// session.
type FallbackEngine struct {
	primary     speech.Engine
	fallback    speech.Engine
	maxFailures int

	mu            sync.Mutex
	failures      int
	usingFallback bool
}

// NewFallbackEngine wraps primary with fallback.
func NewFallbackEngine(primary, fallback speech.Engine, maxFailures int) *FallbackEngine {
	if maxFailures <= 0 {
		maxFailures = 3
	}
	return &FallbackEngine{
		primary:     primary,
		fallback:    fallback,
		maxFailures: maxFailures,
	}
}

// Synthesize tries the active engine, switching to the fallback once the
// primary has failed too often. Cancellation never counts as a failure.
func (f *FallbackEngine) Synthesize(ctx context.Context, text string, rate float64) (speech.Audio, error) {
	f.mu.Lock()
	using := f.usingFallback
	f.mu.Unlock()

	if using {
		return f.fallback.Synthesize(ctx, text, rate)
	}

	audio, err := f.primary.Synthesize(ctx, text, rate)
	if err == nil {
		f.mu.Lock()
		if f.failures > 0 {
			log.Info("primary engine recovered", "engine", f.primary.Info().Name, "failures", f.failures)
		}
		f.failures = 0
		f.mu.Unlock()
		return audio, nil
	}
	if errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return speech.Audio{}, err
	}

	f.mu.Lock()
	f.failures++
	failures := f.failures
	if failures >= f.maxFailures {
		f.usingFallback = true
	}
	f.mu.Unlock()

	log.Warn("primary engine failed",
		"engine", f.primary.Info().Name,
		"attempt", failures,
		"max", f.maxFailures,
		"err", err)

	if failures < f.maxFailures {
		return speech.Audio{}, err
	}

	log.Warn("switching to fallback engine", "engine", f.fallback.Info().Name)
	audio, ferr := f.fallback.Synthesize(ctx, text, rate)
	if ferr != nil {
		return speech.Audio{}, fmt.Errorf("both engines failed: %w", errors.Join(err, ferr))
	}
	return audio, nil
}

// UsingFallback reports whether the fallback is active.
func (f *FallbackEngine) UsingFallback() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.usingFallback
}

// Info describes the active engine.
func (f *FallbackEngine) Info() speech.EngineInfo {
	if f.UsingFallback() {
		return f.fallback.Info()
	}
	return f.primary.Info()
}

// Validate succeeds if either engine is usable. An unusable primary
// switches straight to the fallback.
func (f *FallbackEngine) Validate() error {
	perr := f.primary.Validate()
	if perr == nil {
		return nil
	}
	if ferr := f.fallback.Validate(); ferr != nil {
		return errors.Join(perr, ferr)
	}

	f.mu.Lock()
	f.usingFallback = true
	f.mu.Unlock()
	log.Warn("primary engine unavailable, using fallback", "primary", f.primary.Info().Name, "err", perr)
	return nil
}

// Close closes both engines.
func (f *FallbackEngine) Close() error {
	return errors.Join(f.primary.Close(), f.fallback.Close())
}

var _ speech.Engine = (*FallbackEngine)(nil)
