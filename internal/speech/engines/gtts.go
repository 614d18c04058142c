package engines

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/neelchudasama51-ui/netramarg/internal/speech"
	"golang.org/x/time/rate"
)

// GTTSConfig holds configuration for the Google Translate TTS engine.
type GTTSConfig struct {
	// Language code such as "en" or "hi". Defaults to "en".
	Language string
	// TLD selects the regional accent, e.g. "co.in". Optional.
	TLD string
	// RequestsPerMinute throttles calls to Google. Defaults to 50.
	RequestsPerMinute int
	Timeout           time.Duration
}

// GTTSEngine synthesises speech with gtts-cli and converts the MP3 to PCM
// with ffmpeg. It needs network access and is throttled to avoid being
// blocked.
type GTTSEngine struct {
	language string
	tld      string
	limiter  *rate.Limiter
	timeout  time.Duration
}

const gttsSampleRate = 44100

// NewGTTSEngine creates a gTTS engine.
func NewGTTSEngine(cfg GTTSConfig) *GTTSEngine {
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 50
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &GTTSEngine{
		language: cfg.Language,
		tld:      cfg.TLD,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1),
		timeout:  cfg.Timeout,
	}
}

// Synthesize fetches MP3 from gtts-cli and decodes it with ffmpeg.
func (e *GTTSEngine) Synthesize(ctx context.Context, text string, speed float64) (speech.Audio, error) {
	if err := checkText(text, maxTextSize); err != nil {
		return speech.Audio{}, speech.NewEngineError("gtts", "synthesize", err)
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return speech.Audio{}, speech.NewEngineError("gtts", "rate limit", err)
	}

	args := []string{text, "-l", e.language}
	if e.tld != "" {
		args = append(args, "--tld", e.tld)
	}
	args = append(args, "-o", "-")

	mp3, err := runCommand(ctx, e.timeout, nil, "gtts-cli", args...)
	if err != nil {
		return speech.Audio{}, speech.NewEngineError("gtts", "fetch", err)
	}
	if len(mp3) == 0 {
		return speech.Audio{}, speech.NewEngineError("gtts", "fetch", speech.ErrNoAudio)
	}

	pcm, err := e.decode(ctx, mp3, speed)
	if err != nil {
		return speech.Audio{}, speech.NewEngineError("gtts", "decode", err)
	}
	return speech.Audio{PCM: pcm, SampleRate: gttsSampleRate}, nil
}

// decode converts MP3 to mono 16-bit PCM, applying speed with atempo.
func (e *GTTSEngine) decode(ctx context.Context, mp3 []byte, speed float64) ([]byte, error) {
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-i", "pipe:0",
		"-f", "s16le",
		"-ar", fmt.Sprint(gttsSampleRate),
		"-ac", "1",
	}
	if speed != 1.0 {
		// atempo accepts 0.5 to 2.0.
		args = append(args, "-filter:a", fmt.Sprintf("atempo=%.2f", clamp(speed, 0.5, 2.0)))
	}
	args = append(args, "pipe:1")

	pcm, err := runCommand(ctx, 15*time.Second, bytes.NewReader(mp3), "ffmpeg", args...)
	if err != nil {
		return nil, err
	}
	if len(pcm) == 0 {
		return nil, speech.ErrNoAudio
	}
	if len(pcm) > 2*maxAudioSize {
		return nil, fmt.Errorf("ffmpeg output too large: %d bytes", len(pcm))
	}
	return pcm[:len(pcm)&^1], nil
}

// Info describes the engine.
func (e *GTTSEngine) Info() speech.EngineInfo {
	voice := e.language
	if e.tld != "" {
		voice += "-" + e.tld
	}
	return speech.EngineInfo{
		Name:        "gtts",
		Voice:       voice,
		SampleRate:  gttsSampleRate,
		MaxTextSize: maxTextSize,
		Online:      true,
	}
}

// Validate checks that gtts-cli and ffmpeg are installed.
func (e *GTTSEngine) Validate() error {
	if err := checkBinary("gtts-cli"); err != nil {
		return fmt.Errorf("%w: %w (install with: pip install gTTS)", speech.ErrEngineUnavailable, err)
	}
	if err := checkBinary("ffmpeg"); err != nil {
		return fmt.Errorf("%w: %w", speech.ErrEngineUnavailable, err)
	}
	return nil
}

// Close is a no-op.
func (e *GTTSEngine) Close() error { return nil }

var _ speech.Engine = (*GTTSEngine)(nil)
