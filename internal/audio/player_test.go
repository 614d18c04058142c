package audio

import (
	"sync"
	"testing"
	"time"
)

func TestPlayerConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  PlayerConfig
		wantErr bool
	}{
		{"default", DefaultPlayerConfig(), false},
		{"48kHz", PlayerConfig{SampleRate: 48000, BufferSize: 2048}, false},
		{"22kHz", PlayerConfig{SampleRate: 22050, BufferSize: 4096}, true},
		{"zero buffer", PlayerConfig{SampleRate: 44100}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPlayerStateString(t *testing.T) {
	for state, want := range map[PlayerState]string{
		StateStopped:    "stopped",
		StatePlaying:    "playing",
		StateClosed:     "closed",
		PlayerState(42): "unknown",
	} {
		if got := state.String(); got != want {
			t.Errorf("%d: got %q, want %q", state, got, want)
		}
	}
}

// oto allows a single context per process.
var (
	testPlayer     *Player
	testPlayerOnce sync.Once
	testPlayerErr  error
)

func getTestPlayer(t *testing.T) *Player {
	t.Helper()
	testPlayerOnce.Do(func() {
		testPlayer, testPlayerErr = NewPlayer(DefaultPlayerConfig())
	})
	if testPlayerErr != nil {
		t.Skipf("cannot create audio player (no audio device?): %v", testPlayerErr)
	}
	_ = testPlayer.Stop()
	return testPlayer
}

func tone(sampleRate int, d time.Duration) []byte {
	n := int(d.Seconds() * float64(sampleRate))
	data := make([]byte, n*2)
	for i := 0; i < n; i++ {
		s := int16((i % 100) * 50)
		data[2*i] = byte(s)
		data[2*i+1] = byte(s >> 8)
	}
	return data
}

func TestPlayerPlayStop(t *testing.T) {
	p := getTestPlayer(t)

	if err := p.Play(nil); err == nil {
		t.Error("expected error for empty audio")
	}

	if err := p.Play(tone(p.SampleRate(), 500*time.Millisecond)); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if p.IsPlaying() {
		t.Error("should not be playing after Stop")
	}
	if err := p.Stop(); err != nil {
		t.Errorf("second Stop should be a no-op, got %v", err)
	}
}

func TestPlayerVolume(t *testing.T) {
	p := getTestPlayer(t)
	defer p.SetVolume(1.0)

	if err := p.SetVolume(0.5); err != nil {
		t.Fatalf("SetVolume failed: %v", err)
	}
	if p.Volume() != 0.5 {
		t.Errorf("expected 0.5, got %v", p.Volume())
	}
	if err := p.SetVolume(1.5); err == nil {
		t.Error("expected error for volume above 1")
	}
	if err := p.SetVolume(-0.1); err == nil {
		t.Error("expected error for negative volume")
	}
}
