// ABOUTME: MP3 audio decoder
// ABOUTME: Decodes MP3 containers to mono float samples
package decode

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"

	"github.com/voicedetect/voicedetect-go/pkg/audio"
)

// mp3Channels is fixed because go-mp3 always emits interleaved stereo
const mp3Channels = 2

// MP3Decoder decodes MP3 audio
type MP3Decoder struct{}

// NewMP3 creates a new MP3 decoder
func NewMP3() Decoder {
	return &MP3Decoder{}
}

// Decode converts an MP3 stream to mono samples
func (d *MP3Decoder) Decode(r io.ReadSeeker) (*audio.Waveform, audio.Format, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, audio.Format{}, fmt.Errorf("%w: failed to create mp3 decoder: %w", ErrInvalidAudio, err)
	}

	format := audio.Format{
		Codec:      audio.FormatMP3,
		SampleRate: decoder.SampleRate(),
		Channels:   mp3Channels,
		BitDepth:   16,
	}

	// Decoded PCM is int16 little-endian, 2 bytes per sample
	pcm, err := io.ReadAll(decoder)
	if err != nil {
		return nil, format, fmt.Errorf("%w: mp3 decode error: %w", ErrInvalidAudio, err)
	}

	numSamples := len(pcm) / 2
	interleaved := make([]float64, numSamples)
	for i := 0; i < numSamples; i++ {
		sample16 := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		interleaved[i] = audio.SampleFromInt16(sample16)
	}

	return mono(audio.Downmix(interleaved, mp3Channels), format.SampleRate), format, nil
}
