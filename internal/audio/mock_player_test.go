package audio

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestMockPlayer_BasicPlayback(t *testing.T) {
	mp := NewMockPlayer(1000, MockCallbacks{})

	// 100 samples at 1 kHz is 100ms.
	if err := mp.Play(make([]byte, 200)); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if !mp.IsPlaying() {
		t.Error("expected playing right after Play")
	}
	if !mp.WaitForCompletion(time.Second) {
		t.Fatal("playback did not complete")
	}
	if mp.State() != StateStopped {
		t.Errorf("expected stopped, got %s", mp.State())
	}
	if m := mp.Metrics(); m.PlayCount != 1 || m.Interrupted != 0 {
		t.Errorf("unexpected metrics %+v", m)
	}
}

func TestMockPlayer_PlayInterrupts(t *testing.T) {
	mp := NewMockPlayer(1000, MockCallbacks{})

	_ = mp.Play(make([]byte, 20000))
	_ = mp.Play([]byte{1, 2, 3, 4})

	if m := mp.Metrics(); m.PlayCount != 2 || m.Interrupted != 1 {
		t.Errorf("unexpected metrics %+v", m)
	}
	if got := mp.LastAudio(); len(got) != 4 {
		t.Errorf("expected the newest buffer, got %d bytes", len(got))
	}
}

func TestMockPlayer_Stop(t *testing.T) {
	var stops int
	mp := NewMockPlayer(1000, MockCallbacks{OnStop: func() { stops++ }})

	_ = mp.Play(make([]byte, 20000))
	if err := mp.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if mp.IsPlaying() {
		t.Error("should not be playing after Stop")
	}
	if !mp.WaitForCompletion(10 * time.Millisecond) {
		t.Error("stopped playback should count as complete")
	}
	if stops != 1 {
		t.Errorf("expected OnStop once, got %d", stops)
	}
}

func TestMockPlayer_Callbacks(t *testing.T) {
	var got []byte
	mp := NewMockPlayer(44100, MockCallbacks{OnPlay: func(pcm []byte) { got = pcm }})

	_ = mp.Play([]byte{9, 9})
	if len(got) != 2 {
		t.Error("OnPlay not called with the buffer")
	}
}

func TestMockPlayer_VolumeControl(t *testing.T) {
	mp := NewMockPlayer(44100, MockCallbacks{})

	if mp.Volume() != 1.0 {
		t.Errorf("expected initial volume 1.0, got %v", mp.Volume())
	}
	if err := mp.SetVolume(0.3); err != nil || mp.Volume() != 0.3 {
		t.Errorf("SetVolume(0.3): err=%v volume=%v", err, mp.Volume())
	}
	if err := mp.SetVolume(2); err == nil {
		t.Error("expected error for volume above 1")
	}
}

func TestMockPlayer_FailNext(t *testing.T) {
	mp := NewMockPlayer(44100, MockCallbacks{})
	boom := errors.New("device unplugged")

	mp.FailNext(boom)
	if err := mp.Play([]byte{0, 0}); !errors.Is(err, boom) {
		t.Errorf("expected injected error, got %v", err)
	}
	if err := mp.Play([]byte{0, 0}); err != nil {
		t.Errorf("failure should apply once, got %v", err)
	}
}

func TestMockPlayer_Close(t *testing.T) {
	mp := NewMockPlayer(44100, MockCallbacks{})
	_ = mp.Close()

	if err := mp.Play([]byte{0, 0}); !errors.Is(err, ErrPlayerClosed) {
		t.Errorf("expected ErrPlayerClosed, got %v", err)
	}
	if mp.State() != StateClosed {
		t.Errorf("expected closed, got %s", mp.State())
	}
}

func TestMockPlayer_DelayFactor(t *testing.T) {
	mp := NewMockPlayer(1000, MockCallbacks{})
	mp.SetDelayFactor(0)

	_ = mp.Play(make([]byte, 200000))
	if !mp.WaitForCompletion(time.Second) {
		t.Error("delay factor 0 should finish at once")
	}
}

func TestMockPlayer_ConcurrentOperations(t *testing.T) {
	mp := NewMockPlayer(44100, MockCallbacks{})
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_ = mp.Play([]byte{1, 0, 2, 0})
				_ = mp.IsPlaying()
				_ = mp.SetVolume(0.5)
				_ = mp.Stop()
			}
		}()
	}
	wg.Wait()

	if m := mp.Metrics(); m.PlayCount != 200 || m.StopCount != 200 {
		t.Errorf("unexpected metrics %+v", m)
	}
}
