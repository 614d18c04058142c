package speech

import (
	"encoding/binary"
	"time"
)

const bytesPerSample = 2

// Duration returns the play time of mono 16-bit PCM at rate Hz.
func Duration(pcm []byte, rate int) time.Duration {
	if rate <= 0 {
		return 0
	}
	samples := len(pcm) / bytesPerSample
	return time.Duration(samples) * time.Second / time.Duration(rate)
}

// Silence returns d worth of silent mono 16-bit PCM at rate Hz.
func Silence(d time.Duration, rate int) []byte {
	samples := int(d * time.Duration(rate) / time.Second)
	if samples < 0 {
		samples = 0
	}
	return make([]byte, samples*bytesPerSample)
}

// Resample converts mono 16-bit PCM from one sample rate to another using
// linear interpolation.
func Resample(pcm []byte, from, to int) []byte {
	if from == to || from <= 0 || to <= 0 || len(pcm) < bytesPerSample {
		return pcm
	}

	in := len(pcm) / bytesPerSample
	out := int(int64(in) * int64(to) / int64(from))
	if out == 0 {
		return nil
	}

	sample := func(i int) float64 {
		return float64(int16(binary.LittleEndian.Uint16(pcm[i*bytesPerSample:])))
	}

	ratio := float64(from) / float64(to)
	dst := make([]byte, out*bytesPerSample)
	for i := 0; i < out; i++ {
		pos := float64(i) * ratio
		idx := int(pos)
		frac := pos - float64(idx)

		var v float64
		if idx >= in-1 {
			v = sample(in - 1)
		} else {
			v = sample(idx)*(1-frac) + sample(idx+1)*frac
		}
		binary.LittleEndian.PutUint16(dst[i*bytesPerSample:], uint16(int16(v)))
	}
	return dst
}
