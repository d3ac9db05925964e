// ABOUTME: FLAC audio decoder
// ABOUTME: Decodes FLAC streams frame by frame to mono float samples
package decode

import (
	"errors"
	"fmt"
	"io"

	"github.com/mewkiz/flac"

	"github.com/voicedetect/voicedetect-go/pkg/audio"
)

// flacPreallocLimit caps the up-front allocation trusted from the stream header
const flacPreallocLimit = 1 << 24

// FLACDecoder decodes FLAC audio
type FLACDecoder struct{}

// NewFLAC creates a new FLAC decoder
func NewFLAC() Decoder {
	return &FLACDecoder{}
}

// Decode converts a FLAC stream to mono samples
func (d *FLACDecoder) Decode(r io.ReadSeeker) (*audio.Waveform, audio.Format, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, audio.Format{}, fmt.Errorf("%w: failed to decode FLAC: %w", ErrInvalidAudio, err)
	}

	info := stream.Info
	format := audio.Format{
		Codec:      audio.FormatFLAC,
		SampleRate: int(info.SampleRate),
		Channels:   int(info.NChannels),
		BitDepth:   int(info.BitsPerSample),
	}
	if format.Channels <= 0 {
		return nil, format, fmt.Errorf("%w: FLAC stream reports %d channels", ErrInvalidAudio, format.Channels)
	}

	var samples []float64
	if info.NSamples > 0 && info.NSamples <= flacPreallocLimit {
		samples = make([]float64, 0, info.NSamples)
	}

	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, format, fmt.Errorf("%w: FLAC frame error: %w", ErrInvalidAudio, err)
		}

		// Subframes are already decorrelated; average them per sample
		for i := 0; i < int(frame.BlockSize); i++ {
			sum := 0.0
			for ch := 0; ch < format.Channels; ch++ {
				sum += audio.SampleFromInt(int(frame.Subframes[ch].Samples[i]), format.BitDepth)
			}
			samples = append(samples, sum/float64(format.Channels))
		}
	}

	return mono(samples, format.SampleRate), format, nil
}
