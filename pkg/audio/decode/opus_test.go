// ABOUTME: Tests for Ogg Opus decoder
// ABOUTME: Tests 48kHz output, samples-per-channel handling and missing headers
package decode

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicedetect/voicedetect-go/pkg/audio"
	"github.com/voicedetect/voicedetect-go/pkg/audio/encode"
)

func encodeOpus(t *testing.T, w *audio.Waveform) []byte {
	t.Helper()
	encoder, err := encode.NewOpus(w.Channels)
	require.NoError(t, err)
	data, err := encoder.Encode(w)
	require.NoError(t, err)
	return data
}

func TestDecodeOpus(t *testing.T) {
	tone := audio.Tone(440, 16000, 250*time.Millisecond, 0.5)

	stereo := &audio.Waveform{SampleRate: 16000, Channels: 2}
	for _, s := range tone.Samples {
		stereo.Samples = append(stereo.Samples, s, s)
	}

	tests := []struct {
		name     string
		input    *audio.Waveform
		channels int
	}{
		{"mono", tone, 1},
		{"stereo", stereo, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			w, format, err := Decode(encodeOpus(t, tt.input), "", Options{TempDir: dir})
			require.NoError(t, err)

			assert.Equal(t, audio.FormatOpus, format.Codec)
			assert.Equal(t, tt.channels, format.Channels)
			assert.Equal(t, 48000, w.SampleRate)
			assert.Equal(t, 1, w.Channels)

			// 250ms at 48kHz per channel, regardless of channel count
			assert.InDelta(t, 12000, len(w.Samples), 960)

			peak := assertInRange(t, w)
			assert.Greater(t, peak, 0.2)
			assert.Less(t, peak, 0.8)

			assert.InDelta(t, 0.25, w.Duration().Seconds(), 0.02)

			assertDirEmpty(t, dir)
		})
	}
}

func TestDecodeOggWithoutOpusHead(t *testing.T) {
	data := append([]byte("OggS"), make([]byte, 60)...)
	_, _, err := Decode(data, "opus", Options{TempDir: t.TempDir()})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidAudio)
	assert.Contains(t, err.Error(), "OpusHead")
}

