package engines

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/neelchudasama51-ui/netramarg/internal/speech"
)

// EspeakConfig holds configuration for the espeak-ng engine.
type EspeakConfig struct {
	// Binary defaults to espeak-ng.
	Binary string
	// Voice is an espeak voice name such as "en-us" or "hi".
	Voice string
	// WordsPerMinute at rate 1.0. Defaults to 175.
	WordsPerMinute int
	Timeout        time.Duration
}

// EspeakEngine synthesises speech with espeak-ng, which is small enough to
// run on the stick itself and needs no network.
type EspeakEngine struct {
	binary  string
	voice   string
	wpm     int
	timeout time.Duration
}

// NewEspeakEngine creates an espeak-ng engine.
func NewEspeakEngine(cfg EspeakConfig) *EspeakEngine {
	if cfg.Binary == "" {
		cfg.Binary = "espeak-ng"
	}
	if cfg.Voice == "" {
		cfg.Voice = "en"
	}
	if cfg.WordsPerMinute <= 0 {
		cfg.WordsPerMinute = 175
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &EspeakEngine{
		binary:  cfg.Binary,
		voice:   cfg.Voice,
		wpm:     cfg.WordsPerMinute,
		timeout: cfg.Timeout,
	}
}

// Synthesize runs espeak-ng and decodes the WAV it writes to stdout.
func (e *EspeakEngine) Synthesize(ctx context.Context, text string, rate float64) (speech.Audio, error) {
	if err := checkText(text, maxTextSize); err != nil {
		return speech.Audio{}, speech.NewEngineError("espeak", "synthesize", err)
	}

	wpm := int(float64(e.wpm) * clamp(rate, 0.5, 2.5))
	args := []string{
		"--stdout",
		"-v", e.voice,
		"-s", strconv.Itoa(wpm),
		"--stdin",
	}

	out, err := runCommand(ctx, e.timeout, strings.NewReader(text), e.binary, args...)
	if err != nil {
		return speech.Audio{}, speech.NewEngineError("espeak", "synthesize", err)
	}

	pcm, sampleRate, err := decodeWAV(out)
	if err != nil {
		return speech.Audio{}, speech.NewEngineError("espeak", "decode", err)
	}
	if len(pcm) == 0 {
		return speech.Audio{}, speech.NewEngineError("espeak", "synthesize", speech.ErrNoAudio)
	}
	return speech.Audio{PCM: pcm, SampleRate: sampleRate}, nil
}

// Info describes the engine.
func (e *EspeakEngine) Info() speech.EngineInfo {
	return speech.EngineInfo{
		Name:        "espeak",
		Voice:       e.voice,
		SampleRate:  22050,
		MaxTextSize: maxTextSize,
	}
}

// Validate checks that espeak-ng is installed.
func (e *EspeakEngine) Validate() error {
	if err := checkBinary(e.binary); err != nil {
		return fmt.Errorf("%w: %w", speech.ErrEngineUnavailable, err)
	}
	return nil
}

// Close is a no-op.
func (e *EspeakEngine) Close() error { return nil }

var _ speech.Engine = (*EspeakEngine)(nil)
