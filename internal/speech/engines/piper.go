package engines

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/neelchudasama51-ui/netramarg/internal/speech"
)

const (
	// maxTextSize bounds a single announcement for every engine.
	maxTextSize = 5000
	// maxAudioSize rejects runaway engine output.
	maxAudioSize = 10 * 1024 * 1024
)

// PiperConfig holds configuration for the Piper engine.
type PiperConfig struct {
	// Binary defaults to piper.
	Binary string
	// ModelPath is the .onnx voice model. Required.
	ModelPath string
	// ConfigPath defaults to the model path with a .json extension.
	ConfigPath string
	// Speaker selects a speaker in multi-speaker models.
	Speaker string
	// SampleRate of the model output. Defaults to 22050.
	SampleRate int
	Timeout    time.Duration
}

// PiperEngine synthesises speech with Piper, an offline neural TTS. Each
// synthesis runs a fresh process with stdin prepared before start.
type PiperEngine struct {
	binary     string
	modelPath  string
	configPath string
	speaker    string
	sampleRate int
	timeout    time.Duration
}

// NewPiperEngine creates a Piper engine.
func NewPiperEngine(cfg PiperConfig) (*PiperEngine, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("model path is required")
	}
	if cfg.Binary == "" {
		cfg.Binary = "piper"
	}
	if cfg.ConfigPath == "" {
		cfg.ConfigPath = strings.TrimSuffix(cfg.ModelPath, filepath.Ext(cfg.ModelPath)) + ".json"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 22050
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &PiperEngine{
		binary:     cfg.Binary,
		modelPath:  cfg.ModelPath,
		configPath: cfg.ConfigPath,
		speaker:    cfg.Speaker,
		sampleRate: cfg.SampleRate,
		timeout:    cfg.Timeout,
	}, nil
}

// Synthesize runs Piper with raw PCM output.
func (e *PiperEngine) Synthesize(ctx context.Context, text string, rate float64) (speech.Audio, error) {
	if err := checkText(text, maxTextSize); err != nil {
		return speech.Audio{}, speech.NewEngineError("piper", "synthesize", err)
	}

	// Piper's length scale is the inverse of speed.
	lengthScale := 1.0 / clamp(rate, 0.25, 4.0)

	args := []string{
		"--model", e.modelPath,
		"--output-raw",
		"--length-scale", strconv.FormatFloat(lengthScale, 'f', 2, 64),
	}
	if _, err := os.Stat(e.configPath); err == nil {
		args = append(args, "--config", e.configPath)
	}
	if e.speaker != "" {
		args = append(args, "--speaker", e.speaker)
	}

	pcm, err := runCommand(ctx, e.timeout, strings.NewReader(text), e.binary, args...)
	if err != nil {
		return speech.Audio{}, speech.NewEngineError("piper", "synthesize", err)
	}
	if len(pcm) == 0 {
		return speech.Audio{}, speech.NewEngineError("piper", "synthesize", speech.ErrNoAudio)
	}
	if len(pcm) > maxAudioSize {
		return speech.Audio{}, speech.NewEngineError("piper", "synthesize",
			fmt.Errorf("output too large: %d bytes (max %d)", len(pcm), maxAudioSize))
	}

	return speech.Audio{PCM: pcm[:len(pcm)&^1], SampleRate: e.sampleRate}, nil
}

// Info describes the engine.
func (e *PiperEngine) Info() speech.EngineInfo {
	voice := strings.TrimSuffix(filepath.Base(e.modelPath), filepath.Ext(e.modelPath))
	if e.speaker != "" {
		voice += "#" + e.speaker
	}
	return speech.EngineInfo{
		Name:        "piper",
		Voice:       voice,
		SampleRate:  e.sampleRate,
		MaxTextSize: maxTextSize,
	}
}

// Validate checks that the binary and model are present.
func (e *PiperEngine) Validate() error {
	if err := checkBinary(e.binary); err != nil {
		return fmt.Errorf("%w: %w", speech.ErrEngineUnavailable, err)
	}
	if _, err := os.Stat(e.modelPath); err != nil {
		return fmt.Errorf("%w: model file not accessible: %w", speech.ErrEngineUnavailable, err)
	}
	return nil
}

// Close is a no-op.
func (e *PiperEngine) Close() error { return nil }

var _ speech.Engine = (*PiperEngine)(nil)
