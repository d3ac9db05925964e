// ABOUTME: Audio type definitions
// ABOUTME: Defines clips, decoded waveforms and sample conversions
package audio

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Container format hints
const (
	FormatMP3  = "mp3"
	FormatWAV  = "wav"
	FormatFLAC = "flac"
	FormatOpus = "opus"
)

// Format describes a decoded audio stream
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
}

// Clip is an encoded audio payload as received from a caller
type Clip struct {
	Data   []byte
	Format string // Declared container hint, may be empty
}

// Waveform represents decoded mono PCM audio in the [-1, 1] range
type Waveform struct {
	Samples    []float64
	SampleRate int
	Channels   int
}

// ErrInvalidWaveform is returned by Validate for waveforms that break the invariants
var ErrInvalidWaveform = errors.New("invalid waveform")

// Validate checks sample count and sample rate
func (w *Waveform) Validate() error {
	if w == nil {
		return fmt.Errorf("%w: nil waveform", ErrInvalidWaveform)
	}
	if len(w.Samples) == 0 {
		return fmt.Errorf("%w: no samples", ErrInvalidWaveform)
	}
	if w.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidWaveform, w.SampleRate)
	}
	return nil
}

// Duration returns the playback length of the waveform
func (w *Waveform) Duration() time.Duration {
	if w == nil || w.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(w.Samples)) / float64(w.SampleRate) * float64(time.Second))
}

// Downmix averages interleaved channels into a single channel
func Downmix(interleaved []float64, channels int) []float64 {
	if channels <= 1 {
		out := make([]float64, len(interleaved))
		copy(out, interleaved)
		return out
	}

	frames := len(interleaved) / channels
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for ch := 0; ch < channels; ch++ {
			sum += interleaved[i*channels+ch]
		}
		out[i] = sum / float64(channels)
	}
	return out
}

// SampleFromInt16 converts an int16 sample to float in [-1, 1)
func SampleFromInt16(sample int16) float64 {
	return float64(sample) / 32768.0
}

// SampleToInt16 converts a float sample to int16, clipping out-of-range values
func SampleToInt16(sample float64) int16 {
	v := math.Round(sample * 32768.0)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

// SampleFromInt converts a signed integer sample of the given bit depth to float
func SampleFromInt(sample int, bitDepth int) float64 {
	if bitDepth <= 0 || bitDepth > 32 {
		return 0
	}
	return float64(sample) / float64(uint64(1)<<(bitDepth-1))
}
