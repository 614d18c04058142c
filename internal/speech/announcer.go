package speech

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/neelchudasama51-ui/netramarg/internal/cache"
)

// Player plays PCM at a fixed sample rate. Play must return once playback
// has started; Stop silences whatever is playing.
type Player interface {
	Play(pcm []byte) error
	Stop() error
	SetVolume(volume float64) error
	IsPlaying() bool
	SampleRate() int
}

// Cache stores synthesised PCM by key.
type Cache interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
}

// Config holds announcer settings.
type Config struct {
	// Rate is the speaking rate relative to the engine default.
	Rate float64
	// Volume is the playback volume from 0 to 1.
	Volume float64
	// Timeout bounds a single synthesis.
	Timeout time.Duration
	Logger  *log.Logger
}

// DefaultConfig speaks a little slower and quieter than the engine
// defaults.
func DefaultConfig() Config {
	return Config{
		Rate:    0.8,
		Volume:  0.8,
		Timeout: 30 * time.Second,
	}
}

// Validate checks the configured ranges.
func (c Config) Validate() error {
	if c.Rate < 0.25 || c.Rate > 4.0 {
		return fmt.Errorf("rate must be between 0.25 and 4.0, got %.2f", c.Rate)
	}
	if c.Volume < 0 || c.Volume > 1 {
		return fmt.Errorf("volume must be between 0.0 and 1.0, got %.2f", c.Volume)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	return nil
}

// Stats counts announcer activity.
type Stats struct {
	Requested   uint64
	Played      uint64
	Interrupted uint64
	Failed      uint64
	CacheHits   uint64
}

// Announcer speaks text through an engine and a player. Each Speak
// supersedes the previous one: in-flight synthesis is cancelled, playing
// audio is stopped, and only the newest request may reach the player.
type Announcer struct {
	engine Engine
	player Player
	cache  Cache
	log    *log.Logger

	mu      sync.Mutex
	rate    float64
	timeout time.Duration
	gen     uint64
	cancel  context.CancelFunc
	closed  bool
	wg      sync.WaitGroup

	requested   atomic.Uint64
	played      atomic.Uint64
	interrupted atomic.Uint64
	failed      atomic.Uint64
	cacheHits   atomic.Uint64
}

// NewAnnouncer creates an Announcer. cache may be nil.
func NewAnnouncer(engine Engine, player Player, cache Cache, cfg Config) (*Announcer, error) {
	if engine == nil {
		return nil, errors.New("engine cannot be nil")
	}
	if player == nil {
		return nil, errors.New("player cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid speech config: %w", err)
	}
	if err := player.SetVolume(cfg.Volume); err != nil {
		return nil, fmt.Errorf("unable to set volume: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Announcer{
		engine:  engine,
		player:  player,
		cache:   cache,
		log:     logger.WithPrefix("speech"),
		rate:    cfg.Rate,
		timeout: cfg.Timeout,
	}, nil
}

// Speak interrupts the current utterance and starts speaking text. It
// returns immediately; failures are logged and otherwise ignored. Text
// with nothing to say still interrupts, like Stop.
func (a *Announcer) Speak(text string) {
	text = Normalize(text)

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return
	}

	a.gen++
	a.interruptLocked()
	if text == "" {
		return
	}
	a.requested.Add(1)

	gen := a.gen
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	a.cancel = cancel
	rate := a.rate

	a.wg.Add(1)
	go a.run(ctx, cancel, gen, text, rate)
}

// Stop silences the current utterance without starting a new one.
func (a *Announcer) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.gen++
	a.interruptLocked()
}

// interruptLocked must be called with a.mu held.
func (a *Announcer) interruptLocked() {
	busy := a.player.IsPlaying()
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
		busy = true
	}
	if err := a.player.Stop(); err != nil {
		a.log.Debug("stop failed", "err", err)
	}
	if busy {
		a.interrupted.Add(1)
	}
}

func (a *Announcer) run(ctx context.Context, cancel context.CancelFunc, gen uint64, text string, rate float64) {
	defer a.wg.Done()
	defer cancel()

	pcm, err := a.synthesize(ctx, text, rate)
	if err != nil {
		if ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled) {
			a.log.Debug("synthesis abandoned", "text", text)
			return
		}
		a.failed.Add(1)
		a.log.Warn("synthesis failed", "err", err)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed || gen != a.gen {
		a.log.Debug("dropping superseded utterance", "text", text)
		return
	}
	a.cancel = nil
	if err := a.player.Play(pcm); err != nil {
		a.failed.Add(1)
		a.log.Warn("playback failed", "err", err)
		return
	}
	a.played.Add(1)
	a.log.Debug("speaking", "text", text, "duration", Duration(pcm, a.player.SampleRate()))
}

// synthesize returns PCM at the player's sample rate, consulting the cache
// first.
func (a *Announcer) synthesize(ctx context.Context, text string, rate float64) ([]byte, error) {
	key := a.cacheKey(text, rate)
	if a.cache != nil {
		if pcm, ok := a.cache.Get(key); ok {
			a.cacheHits.Add(1)
			return pcm, nil
		}
	}

	audio, err := a.engine.Synthesize(ctx, text, rate)
	if err != nil {
		return nil, err
	}
	if len(audio.PCM) == 0 {
		return nil, NewEngineError(a.engine.Info().Name, "synthesize", ErrNoAudio)
	}

	pcm := Resample(audio.PCM, audio.SampleRate, a.player.SampleRate())
	if a.cache != nil {
		if err := a.cache.Put(key, pcm); err != nil {
			a.log.Debug("cache put failed", "err", err)
		}
	}
	return pcm, nil
}

// Prewarm synthesises texts into the cache so that their first
// announcement plays without synthesis latency. It stops at the first
// context error; engine failures are logged and skipped.
func (a *Announcer) Prewarm(ctx context.Context, texts []string) error {
	if a.cache == nil {
		return nil
	}

	a.mu.Lock()
	rate := a.rate
	a.mu.Unlock()

	warmed := 0
	for _, t := range texts {
		if err := ctx.Err(); err != nil {
			return err
		}
		t = Normalize(t)
		if t == "" {
			continue
		}
		if _, ok := a.cache.Get(a.cacheKey(t, rate)); ok {
			continue
		}
		sctx, cancel := context.WithTimeout(ctx, a.timeout)
		_, err := a.synthesize(sctx, t, rate)
		cancel()
		if err != nil {
			a.log.Debug("prewarm failed", "text", t, "err", err)
			continue
		}
		warmed++
	}
	a.log.Debug("prewarm finished", "synthesised", warmed, "total", len(texts))
	return nil
}

// SetRate changes the speaking rate for subsequent utterances.
func (a *Announcer) SetRate(rate float64) error {
	if rate < 0.25 || rate > 4.0 {
		return fmt.Errorf("rate must be between 0.25 and 4.0, got %.2f", rate)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rate = rate
	return nil
}

// SetVolume changes the playback volume.
func (a *Announcer) SetVolume(volume float64) error {
	return a.player.SetVolume(volume)
}

// Rate returns the current speaking rate.
func (a *Announcer) Rate() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rate
}

// Wait blocks until every started synthesis has either played or been
// dropped.
func (a *Announcer) Wait() {
	a.wg.Wait()
}

// Stats returns activity counters.
func (a *Announcer) Stats() Stats {
	return Stats{
		Requested:   a.requested.Load(),
		Played:      a.played.Load(),
		Interrupted: a.interrupted.Load(),
		Failed:      a.failed.Load(),
		CacheHits:   a.cacheHits.Load(),
	}
}

// Engine returns the underlying engine.
func (a *Announcer) Engine() Engine { return a.engine }

// Close stops playback, abandons in-flight synthesis and waits for it to
// wind down. The engine and player are left for their owner to close.
func (a *Announcer) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	err := a.player.Stop()
	a.mu.Unlock()

	a.wg.Wait()
	return err
}

func (a *Announcer) cacheKey(text string, rate float64) string {
	info := a.engine.Info()
	voice := fmt.Sprintf("%s/%s@%d", info.Name, info.Voice, a.player.SampleRate())
	return cache.GenerateCacheKey(text, voice, rate)
}
