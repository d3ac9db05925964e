// ABOUTME: Tests for FLAC decoder
// ABOUTME: Tests bit-depth scaling, channel averaging and truncated streams
package decode

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicedetect/voicedetect-go/pkg/audio"
)

func TestDecodeFLACFixtures(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		rate     int
		channels int
		bitDepth int
		// expected mono amplitude of the 440Hz tone
		amplitude float64
		delta     float64
	}{
		// left at 0.5 and right at 0.25 average to 0.375
		{"stereo 24-bit", "tone_stereo24.flac", 22050, 2, 24, 0.375, 1e-6},
		{"mono 16-bit", "tone_mono16.flac", 16000, 1, 16, 0.5, 1e-4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			w, format, err := Decode(readFixture(t, tt.file), "", Options{TempDir: dir})
			require.NoError(t, err)

			assert.Equal(t, audio.FormatFLAC, format.Codec)
			assert.Equal(t, tt.channels, format.Channels)
			assert.Equal(t, tt.bitDepth, format.BitDepth)
			assert.Equal(t, tt.rate, w.SampleRate, "native sample rate must be preserved")
			assert.Equal(t, 1, w.Channels)
			require.Len(t, w.Samples, 4096)

			for n, s := range w.Samples {
				want := tt.amplitude * math.Sin(2*math.Pi*440*float64(n)/float64(tt.rate))
				if math.Abs(want-s) > tt.delta {
					t.Fatalf("sample %d: want %v, got %v", n, want, s)
				}
			}
			assert.InDelta(t, tt.amplitude, assertInRange(t, w), 0.01)

			assertDirEmpty(t, dir)
		})
	}
}

func TestDecodeFLACCorruptFrame(t *testing.T) {
	data := readFixture(t, "tone_mono16.flac")
	// Flip a sample bit inside the first frame so its CRC-16 no longer matches
	data[len(data)/8] ^= 0x01

	_, _, err := Decode(data, "", Options{TempDir: t.TempDir()})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidAudio)
}

func TestDecodeTruncatedFLAC(t *testing.T) {
	_, _, err := Decode([]byte{'f', 'L', 'a', 'C', 0x00, 0x00}, "", Options{TempDir: t.TempDir()})
	assert.ErrorIs(t, err, ErrInvalidAudio)
}

