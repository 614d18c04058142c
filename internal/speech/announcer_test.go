package speech_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/neelchudasama51-ui/netramarg/internal/speech"
	"github.com/neelchudasama51-ui/netramarg/internal/speech/engines"
)

type fakePlayer struct {
	mu      sync.Mutex
	rate    int
	plays   [][]byte
	stops   int
	volume  float64
	playing bool
	failing bool
}

func newFakePlayer(rate int) *fakePlayer { return &fakePlayer{rate: rate} }

func (p *fakePlayer) Play(pcm []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failing {
		return errors.New("device gone")
	}
	p.plays = append(p.plays, pcm)
	p.playing = true
	return nil
}

func (p *fakePlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stops++
	p.playing = false
	return nil
}

func (p *fakePlayer) SetVolume(v float64) error {
	if v < 0 || v > 1 {
		return errors.New("volume out of range")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = v
	return nil
}

func (p *fakePlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *fakePlayer) SampleRate() int { return p.rate }

func (p *fakePlayer) playCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.plays)
}

type mapCache struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newMapCache() *mapCache { return &mapCache{m: make(map[string][]byte)} }

func (c *mapCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	return v, ok
}

func (c *mapCache) Put(key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = value
	return nil
}

func (c *mapCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}

func newAnnouncer(t *testing.T, e speech.Engine, p speech.Player, c speech.Cache) *speech.Announcer {
	t.Helper()
	a, err := speech.NewAnnouncer(e, p, c, speech.DefaultConfig())
	if err != nil {
		t.Fatalf("NewAnnouncer failed: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestNewAnnouncerValidation(t *testing.T) {
	p := newFakePlayer(44100)
	e := engines.NewMockEngine(0)

	if _, err := speech.NewAnnouncer(nil, p, nil, speech.DefaultConfig()); err == nil {
		t.Error("expected error for nil engine")
	}
	if _, err := speech.NewAnnouncer(e, nil, nil, speech.DefaultConfig()); err == nil {
		t.Error("expected error for nil player")
	}

	cfg := speech.DefaultConfig()
	cfg.Rate = 10
	if _, err := speech.NewAnnouncer(e, p, nil, cfg); err == nil {
		t.Error("expected error for rate out of range")
	}

	cfg = speech.DefaultConfig()
	cfg.Volume = 1.5
	if _, err := speech.NewAnnouncer(e, p, nil, cfg); err == nil {
		t.Error("expected error for volume out of range")
	}
}

func TestAnnouncerSpeaks(t *testing.T) {
	p := newFakePlayer(44100)
	e := engines.NewMockEngine(0)
	a := newAnnouncer(t, e, p, nil)

	a.Speak("Welcome to NetraMarg")
	a.Wait()

	if p.playCount() != 1 {
		t.Fatalf("expected 1 play, got %d", p.playCount())
	}
	if p.volume != 0.8 {
		t.Errorf("expected volume 0.8, got %v", p.volume)
	}
	// Mock engine produces 22050 Hz, the player wants 44100.
	if got := speech.Duration(p.plays[0], 44100); got < 100*time.Millisecond {
		t.Errorf("audio too short after resampling: %v", got)
	}
	if s := a.Stats(); s.Requested != 1 || s.Played != 1 {
		t.Errorf("unexpected stats %+v", s)
	}
}

func TestAnnouncerIgnoresBlankText(t *testing.T) {
	p := newFakePlayer(44100)
	e := engines.NewMockEngine(0)
	a := newAnnouncer(t, e, p, nil)

	a.Speak("   ")
	a.Speak("```\nls -la\n```")
	a.Wait()

	if len(e.Calls()) != 0 {
		t.Errorf("blank text should not reach the engine, got %v", e.Calls())
	}
	if a.Stats().Requested != 0 {
		t.Error("blank text should not count as a request")
	}
}

func TestAnnouncerBlankTextInterrupts(t *testing.T) {
	p := newFakePlayer(22050)
	a := newAnnouncer(t, engines.NewMockEngine(50*time.Millisecond), p, nil)

	a.Speak("Opening AI vision")
	a.Speak("   ")
	a.Wait()

	if p.playCount() != 0 {
		t.Errorf("pending utterance should be dropped, got %d plays", p.playCount())
	}
	if a.Stats().Requested != 1 {
		t.Errorf("expected 1 request, got %d", a.Stats().Requested)
	}

	a.Speak("Starting navigation")
	a.Wait()
	if !p.IsPlaying() {
		t.Fatal("expected playback")
	}
	a.Speak("")
	if p.IsPlaying() {
		t.Error("blank text should stop the playing utterance")
	}
}

func TestAnnouncerNewestWins(t *testing.T) {
	p := newFakePlayer(22050)
	e := engines.NewMockEngine(50 * time.Millisecond)
	a := newAnnouncer(t, e, p, nil)

	a.Speak("Opening AI vision")
	a.Speak("Starting navigation")
	a.Speak("Emergency SOS activated")
	a.Wait()

	if p.playCount() != 1 {
		t.Fatalf("only the newest utterance should play, got %d plays", p.playCount())
	}
	s := a.Stats()
	if s.Requested != 3 || s.Played != 1 || s.Interrupted < 2 {
		t.Errorf("unexpected stats %+v", s)
	}
}

func TestAnnouncerInterruptsPlayback(t *testing.T) {
	p := newFakePlayer(22050)
	a := newAnnouncer(t, engines.NewMockEngine(0), p, nil)

	a.Speak("first")
	a.Wait()
	stopsBefore := p.stops

	a.Speak("second")
	a.Wait()

	if p.stops <= stopsBefore {
		t.Error("a new utterance should stop the playing one")
	}
	if p.playCount() != 2 {
		t.Errorf("expected 2 plays, got %d", p.playCount())
	}
}

func TestAnnouncerUsesCache(t *testing.T) {
	p := newFakePlayer(22050)
	e := engines.NewMockEngine(0)
	c := newMapCache()
	a := newAnnouncer(t, e, p, c)

	a.Speak("SOS alert sent")
	a.Wait()
	a.Speak("SOS alert sent")
	a.Wait()

	if len(e.Calls()) != 1 {
		t.Errorf("second utterance should come from cache, engine calls %v", e.Calls())
	}
	if a.Stats().CacheHits != 1 {
		t.Errorf("expected 1 cache hit, got %d", a.Stats().CacheHits)
	}
	if p.playCount() != 2 {
		t.Errorf("expected 2 plays, got %d", p.playCount())
	}
}

func TestAnnouncerRateChangesCacheKey(t *testing.T) {
	p := newFakePlayer(22050)
	e := engines.NewMockEngine(0)
	a := newAnnouncer(t, e, p, newMapCache())

	a.Speak("hello")
	a.Wait()
	if err := a.SetRate(1.5); err != nil {
		t.Fatalf("SetRate failed: %v", err)
	}
	a.Speak("hello")
	a.Wait()

	if len(e.Calls()) != 2 {
		t.Errorf("different rate should miss the cache, engine calls %v", e.Calls())
	}
	if err := a.SetRate(0.1); err == nil {
		t.Error("expected error for rate out of range")
	}
	if a.Rate() != 1.5 {
		t.Errorf("rate changed by rejected SetRate: %v", a.Rate())
	}
}

func TestAnnouncerPrewarm(t *testing.T) {
	p := newFakePlayer(22050)
	e := engines.NewMockEngine(0)
	c := newMapCache()
	a := newAnnouncer(t, e, p, c)

	texts := []string{"Welcome to NetraMarg", "Voice feedback enabled", "", "Welcome to NetraMarg"}
	if err := a.Prewarm(context.Background(), texts); err != nil {
		t.Fatalf("Prewarm failed: %v", err)
	}
	if c.len() != 2 {
		t.Errorf("expected 2 cached entries, got %d", c.len())
	}
	if p.playCount() != 0 {
		t.Error("Prewarm must not play anything")
	}

	a.Speak("Voice feedback enabled")
	a.Wait()
	if a.Stats().CacheHits != 1 {
		t.Error("prewarmed phrase should be served from cache")
	}
}

func TestAnnouncerPrewarmCancelled(t *testing.T) {
	a := newAnnouncer(t, engines.NewMockEngine(0), newFakePlayer(22050), newMapCache())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := a.Prewarm(ctx, []string{"a"}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestAnnouncerEngineFailure(t *testing.T) {
	p := newFakePlayer(22050)
	e := engines.NewMockEngine(0)
	e.SetFailing(true)
	a := newAnnouncer(t, e, p, nil)

	a.Speak("hello")
	a.Wait()

	if p.playCount() != 0 {
		t.Error("nothing should play when synthesis fails")
	}
	if a.Stats().Failed != 1 {
		t.Errorf("expected 1 failure, got %d", a.Stats().Failed)
	}
}

func TestAnnouncerPlaybackFailure(t *testing.T) {
	p := newFakePlayer(22050)
	p.failing = true
	a := newAnnouncer(t, engines.NewMockEngine(0), p, nil)

	a.Speak("hello")
	a.Wait()

	if a.Stats().Failed != 1 {
		t.Errorf("expected 1 failure, got %d", a.Stats().Failed)
	}
}

func TestAnnouncerStop(t *testing.T) {
	p := newFakePlayer(22050)
	a := newAnnouncer(t, engines.NewMockEngine(50*time.Millisecond), p, nil)

	a.Speak("hello")
	a.Stop()
	a.Wait()

	if p.playCount() != 0 {
		t.Error("stopped utterance should not play")
	}
}

func TestAnnouncerClose(t *testing.T) {
	p := newFakePlayer(22050)
	a, err := speech.NewAnnouncer(engines.NewMockEngine(time.Minute), p, nil, speech.DefaultConfig())
	if err != nil {
		t.Fatalf("NewAnnouncer failed: %v", err)
	}

	a.Speak("this never finishes")

	done := make(chan struct{})
	go func() {
		_ = a.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not abandon in-flight synthesis")
	}

	a.Speak("after close")
	a.Wait()
	if p.playCount() != 0 {
		t.Error("nothing should play after Close")
	}
	if err := a.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
}
