package engines

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/neelchudasama51-ui/netramarg/internal/speech"
)

func wavBytes(rate, channels, bits int, pcm []byte, dataSize uint32) []byte {
	var b bytes.Buffer
	b.WriteString("RIFF")
	_ = binary.Write(&b, binary.LittleEndian, uint32(36+len(pcm)))
	b.WriteString("WAVE")
	b.WriteString("fmt ")
	_ = binary.Write(&b, binary.LittleEndian, uint32(16))
	_ = binary.Write(&b, binary.LittleEndian, uint16(1))
	_ = binary.Write(&b, binary.LittleEndian, uint16(channels))
	_ = binary.Write(&b, binary.LittleEndian, uint32(rate))
	_ = binary.Write(&b, binary.LittleEndian, uint32(rate*channels*bits/8))
	_ = binary.Write(&b, binary.LittleEndian, uint16(channels*bits/8))
	_ = binary.Write(&b, binary.LittleEndian, uint16(bits))
	b.WriteString("data")
	_ = binary.Write(&b, binary.LittleEndian, dataSize)
	b.Write(pcm)
	return b.Bytes()
}

func TestDecodeWAV(t *testing.T) {
	pcm := []byte{1, 0, 2, 0, 3, 0}

	got, rate, err := decodeWAV(wavBytes(22050, 1, 16, pcm, uint32(len(pcm))))
	if err != nil {
		t.Fatalf("decodeWAV failed: %v", err)
	}
	if rate != 22050 || !bytes.Equal(got, pcm) {
		t.Errorf("got rate=%d pcm=%v", rate, got)
	}
}

func TestDecodeWAVStreamedSize(t *testing.T) {
	pcm := []byte{1, 0, 2, 0}

	// espeak-ng writing to a pipe cannot seek back to fix the sizes.
	got, _, err := decodeWAV(wavBytes(22050, 1, 16, pcm, 0xFFFFFFFF))
	if err != nil {
		t.Fatalf("decodeWAV failed: %v", err)
	}
	if !bytes.Equal(got, pcm) {
		t.Errorf("got %v, want %v", got, pcm)
	}
}

func TestDecodeWAVRejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not riff", []byte("OggS........")},
		{"stereo", wavBytes(22050, 2, 16, []byte{0, 0, 0, 0}, 4)},
		{"8 bit", wavBytes(22050, 1, 8, []byte{0, 0}, 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := decodeWAV(tt.data); !errors.Is(err, errBadWAV) {
				t.Errorf("expected errBadWAV, got %v", err)
			}
		})
	}
}

func TestCheckText(t *testing.T) {
	if err := checkText("", 10); !errors.Is(err, speech.ErrEmptyText) {
		t.Errorf("expected ErrEmptyText, got %v", err)
	}
	if err := checkText(strings.Repeat("a", 11), 10); !errors.Is(err, speech.ErrTextTooLong) {
		t.Errorf("expected ErrTextTooLong, got %v", err)
	}
	if err := checkText("ok", 10); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}

func TestRunCommandFeedsStdin(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}

	out, err := runCommand(context.Background(), time.Second, strings.NewReader("hello"), "cat")
	if err != nil {
		t.Fatalf("runCommand failed: %v", err)
	}
	if string(out) != "hello" {
		t.Errorf("got %q", out)
	}
}

func TestRunCommandCancellation(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := runCommand(ctx, 10*time.Second, nil, "sleep", "5")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("cancellation took %v", elapsed)
	}
}

func TestRunCommandMissingBinary(t *testing.T) {
	_, err := runCommand(context.Background(), time.Second, nil, "netramarg-no-such-binary")
	if err == nil {
		t.Error("expected an error for a missing binary")
	}
}

func TestMockEngine(t *testing.T) {
	m := NewMockEngine(0)

	audio, err := m.Synthesize(context.Background(), "Voice feedback enabled", 1.0)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if audio.SampleRate != 22050 || len(audio.PCM) == 0 {
		t.Errorf("unexpected audio: rate=%d len=%d", audio.SampleRate, len(audio.PCM))
	}

	slow, _ := m.Synthesize(context.Background(), "Voice feedback enabled", 0.5)
	if len(slow.PCM) <= len(audio.PCM) {
		t.Error("slower rate should produce longer audio")
	}

	m.SetFailing(true)
	if _, err := m.Synthesize(context.Background(), "x", 1.0); !errors.Is(err, ErrMockFailure) {
		t.Errorf("expected ErrMockFailure, got %v", err)
	}
	if got := len(m.Calls()); got != 3 {
		t.Errorf("expected 3 calls, got %d", got)
	}
}

func TestMockEngineHonoursContext(t *testing.T) {
	m := NewMockEngine(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := m.Synthesize(ctx, "hello", 1.0); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestFallbackSwitchesAfterFailures(t *testing.T) {
	primary := NewMockEngine(0)
	primary.SetFailing(true)
	secondary := NewMockEngine(0)
	secondary.SampleRate = 44100

	f := NewFallbackEngine(primary, secondary, 2)
	ctx := context.Background()

	if _, err := f.Synthesize(ctx, "one", 1.0); err == nil {
		t.Fatal("first failure should be returned")
	}
	if f.UsingFallback() {
		t.Fatal("should not switch after one failure")
	}

	audio, err := f.Synthesize(ctx, "two", 1.0)
	if err != nil {
		t.Fatalf("second call should be served by fallback: %v", err)
	}
	if audio.SampleRate != 44100 || !f.UsingFallback() {
		t.Error("fallback should now be active")
	}
	if f.Info().SampleRate != 44100 {
		t.Error("Info should describe the active engine")
	}
}

func TestFallbackResetsOnSuccess(t *testing.T) {
	primary := NewMockEngine(0)
	f := NewFallbackEngine(primary, NewMockEngine(0), 2)
	ctx := context.Background()

	primary.SetFailing(true)
	_, _ = f.Synthesize(ctx, "a", 1.0)
	primary.SetFailing(false)
	_, _ = f.Synthesize(ctx, "b", 1.0)
	primary.SetFailing(true)
	_, _ = f.Synthesize(ctx, "c", 1.0)

	if f.UsingFallback() {
		t.Error("a success in between should reset the failure count")
	}
}

func TestNewUnknownEngine(t *testing.T) {
	if _, err := New(Config{Name: "festival"}); err == nil {
		t.Error("expected error for unknown engine")
	}
}

func TestNewMock(t *testing.T) {
	e, err := New(Config{Name: "MOCK"})
	if err != nil {
		t.Fatalf("New(mock) failed: %v", err)
	}
	if e.Info().Name != NameMock {
		t.Errorf("got engine %q", e.Info().Name)
	}
}

func TestNewPiperRequiresModel(t *testing.T) {
	if _, err := New(Config{Name: NamePiper}); err == nil {
		t.Error("expected error without a model path")
	}
}
