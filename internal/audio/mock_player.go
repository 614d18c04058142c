package audio

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// MockCallbacks provides hooks for observing a MockPlayer.
type MockCallbacks struct {
	OnPlay func(pcm []byte)
	OnStop func()
}

// MockPlayerMetrics counts MockPlayer activity.
type MockPlayerMetrics struct {
	PlayCount int
	StopCount int
	// Interrupted counts plays cut short by Stop or a newer Play.
	Interrupted int
}

// MockPlayer simulates playback without producing sound. A played buffer
// counts as playing for its real duration at the configured sample rate,
// scaled by the delay factor.
type MockPlayer struct {
	sampleRate int
	callbacks  MockCallbacks

	mu          sync.Mutex
	state       PlayerState
	volume      float64
	delayFactor float64
	last        []byte
	timer       *time.Timer
	done        chan struct{}
	failNext    error
	metrics     MockPlayerMetrics
}

// NewMockPlayer creates a mock player at sampleRate.
func NewMockPlayer(sampleRate int, callbacks MockCallbacks) *MockPlayer {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	return &MockPlayer{
		sampleRate:  sampleRate,
		callbacks:   callbacks,
		volume:      1.0,
		delayFactor: 1.0,
	}
}

// Play simulates starting playback of pcm.
func (mp *MockPlayer) Play(pcm []byte) error {
	if len(pcm) == 0 {
		return errors.New("audio data is empty")
	}

	mp.mu.Lock()
	if mp.state == StateClosed {
		mp.mu.Unlock()
		return ErrPlayerClosed
	}
	if err := mp.failNext; err != nil {
		mp.failNext = nil
		mp.mu.Unlock()
		return err
	}
	mp.stopLocked()

	mp.last = make([]byte, len(pcm))
	copy(mp.last, pcm)
	mp.state = StatePlaying
	mp.metrics.PlayCount++

	done := make(chan struct{})
	mp.done = done
	d := time.Duration(float64(mp.duration(len(pcm))) * mp.delayFactor)
	mp.timer = time.AfterFunc(d, func() { mp.finish(done) })
	onPlay := mp.callbacks.OnPlay
	mp.mu.Unlock()

	if onPlay != nil {
		onPlay(pcm)
	}
	return nil
}

func (mp *MockPlayer) finish(done chan struct{}) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	if mp.done != done {
		return
	}
	mp.state = StateStopped
	mp.timer = nil
	mp.done = nil
	close(done)
}

// Stop ends simulated playback.
func (mp *MockPlayer) Stop() error {
	mp.mu.Lock()
	if mp.state == StateClosed {
		mp.mu.Unlock()
		return nil
	}
	mp.stopLocked()
	mp.metrics.StopCount++
	onStop := mp.callbacks.OnStop
	mp.mu.Unlock()

	if onStop != nil {
		onStop()
	}
	return nil
}

func (mp *MockPlayer) stopLocked() {
	if mp.state != StatePlaying {
		return
	}
	if mp.timer != nil {
		mp.timer.Stop()
		mp.timer = nil
	}
	if mp.done != nil {
		close(mp.done)
		mp.done = nil
	}
	mp.state = StateStopped
	mp.metrics.Interrupted++
}

// IsPlaying reports whether simulated playback is in progress.
func (mp *MockPlayer) IsPlaying() bool {
	return mp.State() == StatePlaying
}

// State returns the playback state.
func (mp *MockPlayer) State() PlayerState {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.state
}

// SetVolume sets the volume (0.0 to 1.0).
func (mp *MockPlayer) SetVolume(volume float64) error {
	if volume < 0.0 || volume > 1.0 {
		return fmt.Errorf("volume must be between 0.0 and 1.0, got %f", volume)
	}
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.volume = volume
	return nil
}

// Volume returns the current volume.
func (mp *MockPlayer) Volume() float64 {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.volume
}

// SampleRate returns the simulated device rate.
func (mp *MockPlayer) SampleRate() int { return mp.sampleRate }

// Close stops playback and rejects further plays.
func (mp *MockPlayer) Close() error {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.stopLocked()
	mp.state = StateClosed
	return nil
}

// SetDelayFactor scales simulated playback time; 0 finishes at once.
func (mp *MockPlayer) SetDelayFactor(factor float64) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	if factor < 0 {
		factor = 0
	}
	mp.delayFactor = factor
}

// FailNext makes the next Play return err.
func (mp *MockPlayer) FailNext(err error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.failNext = err
}

// Metrics returns activity counters.
func (mp *MockPlayer) Metrics() MockPlayerMetrics {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.metrics
}

// LastAudio returns a copy of the most recently played buffer.
func (mp *MockPlayer) LastAudio() []byte {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	if mp.last == nil {
		return nil
	}
	out := make([]byte, len(mp.last))
	copy(out, mp.last)
	return out
}

// WaitForCompletion waits for the current playback to end, returning
// false on timeout.
func (mp *MockPlayer) WaitForCompletion(timeout time.Duration) bool {
	mp.mu.Lock()
	done := mp.done
	mp.mu.Unlock()
	if done == nil {
		return true
	}

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (mp *MockPlayer) duration(n int) time.Duration {
	return time.Duration(n/2) * time.Second / time.Duration(mp.sampleRate)
}
