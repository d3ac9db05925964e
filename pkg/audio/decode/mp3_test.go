// ABOUTME: Tests for MP3 decoder
// ABOUTME: Tests native rate, mono output, frame-accurate length and stereo downmix
package decode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicedetect/voicedetect-go/pkg/audio"
)

// Both fixtures hold 20 MPEG-1 Layer III frames at 48kHz
const (
	mp3FixtureFrames = 20
	mp3FrameSamples  = 1152
)

func decodeMP3Fixture(t *testing.T, name string) (*audio.Waveform, audio.Format) {
	t.Helper()
	dir := t.TempDir()
	w, format, err := Decode(readFixture(t, name), "", Options{TempDir: dir})
	require.NoError(t, err)
	assertDirEmpty(t, dir)
	return w, format
}

func TestDecodeMP3Mono(t *testing.T) {
	w, format := decodeMP3Fixture(t, "tone_mono.mp3")

	assert.Equal(t, audio.FormatMP3, format.Codec)
	assert.Equal(t, 48000, format.SampleRate)
	assert.Equal(t, 48000, w.SampleRate, "native sample rate must be preserved")
	assert.Equal(t, 1, w.Channels)
	assert.InDelta(t, mp3FixtureFrames*mp3FrameSamples, len(w.Samples), mp3FrameSamples)

	peak := assertInRange(t, w)
	assert.Greater(t, peak, 0.01, "tone decoded as silence")
}

func TestDecodeMP3StereoDownmix(t *testing.T) {
	mono, _ := decodeMP3Fixture(t, "tone_mono.mp3")
	// Same tone on the left channel, silence on the right
	stereo, format := decodeMP3Fixture(t, "tone_left.mp3")

	assert.Equal(t, 48000, stereo.SampleRate)
	assert.Equal(t, 1, stereo.Channels)
	assert.Equal(t, 2, format.Channels)
	require.Len(t, stereo.Samples, len(mono.Samples))
	assertInRange(t, stereo)

	for i := range mono.Samples {
		if d := stereo.Samples[i] - mono.Samples[i]/2; d > 1e-12 || d < -1e-12 {
			t.Fatalf("sample %d: want %v, got %v", i, mono.Samples[i]/2, stereo.Samples[i])
		}
	}
}

func TestDecodeMP3Hint(t *testing.T) {
	w, format, err := Decode(readFixture(t, "tone_mono.mp3"), "audio/mpeg", Options{TempDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, audio.FormatMP3, format.Codec)
	assert.NotEmpty(t, w.Samples)
}
