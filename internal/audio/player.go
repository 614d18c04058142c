package audio

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"
)

// ErrPlayerClosed is returned by operations on a closed player.
var ErrPlayerClosed = errors.New("player is closed")

// PlayerState is the playback state of a player.
type PlayerState int32

const (
	StateStopped PlayerState = iota
	StatePlaying
	StateClosed
)

func (s PlayerState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// PlayerConfig contains configuration for the audio player.
type PlayerConfig struct {
	SampleRate int // 44100 or 48000 Hz only
	BufferSize int // bytes
}

// DefaultPlayerConfig returns the default player configuration.
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{
		SampleRate: 44100,
		BufferSize: 4096,
	}
}

// Validate checks the configuration.
func (c PlayerConfig) Validate() error {
	// oto only supports these rates reliably
	if c.SampleRate != 44100 && c.SampleRate != 48000 {
		return fmt.Errorf("sample rate must be 44100 or 48000 Hz, got %d", c.SampleRate)
	}
	if c.BufferSize <= 0 {
		return errors.New("buffer size must be positive")
	}
	return nil
}

// Player plays mono 16-bit PCM on the default output device. oto allows a
// single context per process, so create at most one Player.
type Player struct {
	context    *oto.Context
	sampleRate int

	mu     sync.Mutex
	player *oto.Player
	// data backs player's reader and must outlive playback.
	data   []byte
	closed bool

	volume atomic.Uint64 // math.Float64bits
}

// NewPlayer opens the output device.
func NewPlayer(cfg PlayerConfig) (*Player, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	op := &oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   time.Duration(cfg.BufferSize) * time.Second / time.Duration(cfg.SampleRate*2),
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-ready

	p := &Player{context: ctx, sampleRate: cfg.SampleRate}
	p.volume.Store(math.Float64bits(1.0))
	return p, nil
}

// Play stops whatever is playing and starts pcm. It returns once playback
// has started.
func (p *Player) Play(pcm []byte) error {
	if len(pcm) == 0 {
		return errors.New("audio data is empty")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPlayerClosed
	}
	p.stopLocked()

	data := make([]byte, len(pcm))
	copy(data, pcm)

	player := p.context.NewPlayer(bytes.NewReader(data))
	player.SetVolume(p.Volume())
	player.Play()

	p.player = player
	p.data = data
	return nil
}

// Stop silences current playback. It is a no-op when nothing plays.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopLocked()
}

func (p *Player) stopLocked() error {
	if p.player == nil {
		return nil
	}
	p.player.Pause()
	err := p.player.Close()
	p.player = nil
	p.data = nil
	return err
}

// IsPlaying reports whether audio is still being played.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.player != nil && p.player.IsPlaying()
}

// State returns the playback state.
func (p *Player) State() PlayerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.closed:
		return StateClosed
	case p.player != nil && p.player.IsPlaying():
		return StatePlaying
	default:
		return StateStopped
	}
}

// SetVolume sets the playback volume (0.0 to 1.0).
func (p *Player) SetVolume(volume float64) error {
	if volume < 0.0 || volume > 1.0 {
		return fmt.Errorf("volume must be between 0.0 and 1.0, got %f", volume)
	}
	p.volume.Store(math.Float64bits(volume))

	p.mu.Lock()
	if p.player != nil {
		p.player.SetVolume(volume)
	}
	p.mu.Unlock()
	return nil
}

// Volume returns the current volume.
func (p *Player) Volume() float64 {
	return math.Float64frombits(p.volume.Load())
}

// SampleRate returns the device sample rate.
func (p *Player) SampleRate() int { return p.sampleRate }

// Close stops playback. oto/v3 contexts cannot be closed, so the device
// stays open until the process exits.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	err := p.stopLocked()
	p.closed = true
	return err
}
