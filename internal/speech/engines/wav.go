package engines

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

var errBadWAV = errors.New("malformed WAV data")

// decodeWAV extracts mono 16-bit PCM and its sample rate from a RIFF/WAVE
// stream as written by espeak-ng. Streams written to a pipe may carry
// placeholder chunk sizes, so a data chunk that overruns the buffer is
// truncated to what is present.
func decodeWAV(b []byte) ([]byte, int, error) {
	if len(b) < 12 || !bytes.Equal(b[0:4], []byte("RIFF")) || !bytes.Equal(b[8:12], []byte("WAVE")) {
		return nil, 0, errBadWAV
	}

	var (
		rate     int
		channels int
		bits     int
		haveFmt  bool
	)

	off := 12
	for off+8 <= len(b) {
		id := string(b[off : off+4])
		size := int(binary.LittleEndian.Uint32(b[off+4 : off+8]))
		body := off + 8

		switch id {
		case "fmt ":
			if size < 16 || body+16 > len(b) {
				return nil, 0, fmt.Errorf("%w: short fmt chunk", errBadWAV)
			}
			format := binary.LittleEndian.Uint16(b[body:])
			channels = int(binary.LittleEndian.Uint16(b[body+2:]))
			rate = int(binary.LittleEndian.Uint32(b[body+4:]))
			bits = int(binary.LittleEndian.Uint16(b[body+14:]))
			if format != 1 {
				return nil, 0, fmt.Errorf("%w: unsupported format %d", errBadWAV, format)
			}
			haveFmt = true

		case "data":
			if !haveFmt {
				return nil, 0, fmt.Errorf("%w: data before fmt", errBadWAV)
			}
			if channels != 1 || bits != 16 {
				return nil, 0, fmt.Errorf("%w: want mono 16-bit, got %d channels %d bits", errBadWAV, channels, bits)
			}
			end := body + size
			if size <= 0 || end > len(b) {
				end = len(b)
			}
			pcm := b[body:end]
			return pcm[:len(pcm)&^1], rate, nil
		}

		if size < 0 || body+size > len(b) {
			break
		}
		off = body + size + size&1
	}

	return nil, 0, fmt.Errorf("%w: no data chunk", errBadWAV)
}
