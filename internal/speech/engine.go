// Package speech turns announcement text into audible speech with
// interrupt semantics: a new utterance always silences the previous one.
package speech

import (
	"context"
	"errors"
	"fmt"
)

// Common speech errors.
var (
	ErrEmptyText         = errors.New("text cannot be empty")
	ErrTextTooLong       = errors.New("text too long")
	ErrNoAudio           = errors.New("engine produced no audio")
	ErrEngineUnavailable = errors.New("speech engine is not available")
	ErrAnnouncerClosed   = errors.New("announcer is closed")
)

// Audio is mono signed 16-bit little-endian PCM.
type Audio struct {
	PCM        []byte
	SampleRate int
}

// EngineInfo describes an engine.
type EngineInfo struct {
	Name        string
	Voice       string
	SampleRate  int
	MaxTextSize int
	Online      bool
}

// Engine synthesises speech. Synthesize must honour ctx cancellation; a
// cancelled synthesis is how an interrupted announcement is abandoned.
type Engine interface {
	Synthesize(ctx context.Context, text string, rate float64) (Audio, error)
	Info() EngineInfo
	Validate() error
	Close() error
}

// EngineError wraps a failure inside a specific engine.
type EngineError struct {
	Engine string
	Op     string
	Err    error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Engine, e.Op, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// NewEngineError builds an EngineError.
func NewEngineError(engine, op string, err error) *EngineError {
	return &EngineError{Engine: engine, Op: op, Err: err}
}
