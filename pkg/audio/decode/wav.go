// ABOUTME: WAV audio decoder
// ABOUTME: Decodes RIFF/WAVE PCM and float data to mono samples
package decode

import (
	"fmt"
	"io"
	"math"

	"github.com/go-audio/wav"

	"github.com/voicedetect/voicedetect-go/pkg/audio"
)

// WAVE format tags
const (
	wavFormatPCM   = 1
	wavFormatFloat = 3
)

// WAVDecoder decodes WAV audio
type WAVDecoder struct{}

// NewWAV creates a new WAV decoder
func NewWAV() Decoder {
	return &WAVDecoder{}
}

// Decode converts a WAV file to mono samples
func (d *WAVDecoder) Decode(r io.ReadSeeker) (*audio.Waveform, audio.Format, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, audio.Format{}, fmt.Errorf("%w: not a valid wav file", ErrInvalidAudio)
	}

	format := audio.Format{
		Codec:      audio.FormatWAV,
		SampleRate: int(decoder.SampleRate),
		Channels:   int(decoder.NumChans),
		BitDepth:   int(decoder.BitDepth),
	}
	if format.Channels <= 0 {
		return nil, format, fmt.Errorf("%w: wav file reports %d channels", ErrInvalidAudio, format.Channels)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, format, fmt.Errorf("%w: failed to read wav data: %w", ErrInvalidAudio, err)
	}

	isFloat := decoder.WavAudioFormat == wavFormatFloat
	if isFloat && format.BitDepth != 32 {
		return nil, format, fmt.Errorf("%w: unsupported float bit depth: %d", ErrInvalidAudio, format.BitDepth)
	}

	interleaved := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		switch {
		case isFloat:
			interleaved[i] = float64(math.Float32frombits(uint32(int32(v))))
		case format.BitDepth == 8:
			// 8-bit WAV is unsigned with a 128 offset
			interleaved[i] = float64(v-128) / 128.0
		default:
			interleaved[i] = audio.SampleFromInt(v, format.BitDepth)
		}
	}

	return mono(audio.Downmix(interleaved, format.Channels), format.SampleRate), format, nil
}
