// ABOUTME: Test tone generator
// ABOUTME: Synthesizes sine waveforms for clients and fixtures
package audio

import (
	"math"
	"time"
)

// DefaultToneFrequency is the A4 note
const DefaultToneFrequency = 440.0

// Tone generates a mono sine wave at the given frequency and amplitude
func Tone(frequency float64, sampleRate int, duration time.Duration, amplitude float64) *Waveform {
	if sampleRate <= 0 || duration <= 0 {
		return &Waveform{SampleRate: sampleRate, Channels: 1}
	}

	n := int(duration.Seconds() * float64(sampleRate))
	samples := make([]float64, n)
	for i := range samples {
		t := float64(i) / float64(sampleRate)
		samples[i] = amplitude * math.Sin(2*math.Pi*frequency*t)
	}

	return &Waveform{
		Samples:    samples,
		SampleRate: sampleRate,
		Channels:   1,
	}
}

// Silence generates a zero-valued mono waveform
func Silence(sampleRate int, duration time.Duration) *Waveform {
	n := 0
	if sampleRate > 0 && duration > 0 {
		n = int(duration.Seconds() * float64(sampleRate))
	}
	return &Waveform{
		Samples:    make([]float64, n),
		SampleRate: sampleRate,
		Channels:   1,
	}
}
