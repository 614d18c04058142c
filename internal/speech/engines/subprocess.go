// Package engines provides speech synthesis engines backed by local TTS
// programs, plus a mock and a fallback wrapper.
package engines

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/neelchudasama51-ui/netramarg/internal/speech"
)

// killGrace is how long a cancelled process gets to exit after an
// interrupt before it is killed.
const killGrace = 100 * time.Millisecond

// runCommand runs name with args, feeding stdin, and returns stdout. The
// process is bounded by timeout and by ctx; on cancellation it is
// interrupted first and killed if it does not exit within killGrace.
func runCommand(ctx context.Context, timeout time.Duration, stdin io.Reader, name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.Command(name, args...)
	if stdin == nil {
		stdin = bytes.NewReader(nil)
	}
	cmd.Stdin = stdin

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("unable to start %s: %w", name, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("%s failed: %w, stderr: %s", name, err, bytes.TrimSpace(stderr.Bytes()))
		}
	case <-ctx.Done():
		_ = cmd.Process.Signal(os.Interrupt)
		select {
		case <-done:
		case <-time.After(killGrace):
			_ = cmd.Process.Kill()
			<-done
		}
		return nil, fmt.Errorf("%s interrupted: %w", name, ctx.Err())
	}

	return stdout.Bytes(), nil
}

// checkBinary reports whether name can be found in PATH.
func checkBinary(name string) error {
	if _, err := exec.LookPath(name); err != nil {
		return fmt.Errorf("%s not found in PATH: %w", name, err)
	}
	return nil
}

// checkText enforces the shared text limits.
func checkText(text string, limit int) error {
	if text == "" {
		return speech.ErrEmptyText
	}
	if len(text) > limit {
		return fmt.Errorf("%w: %d characters (max %d)", speech.ErrTextTooLong, len(text), limit)
	}
	return nil
}

// clamp limits v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}
