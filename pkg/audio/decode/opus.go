// ABOUTME: Ogg Opus audio decoder
// ABOUTME: Decodes Ogg-encapsulated Opus streams to mono samples at 48kHz
package decode

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/hraban/opus.v2"

	"github.com/voicedetect/voicedetect-go/pkg/audio"
)

// opusfile always decodes at 48kHz
const opusSampleRate = 48000

// opusMaxFrame is the largest Opus frame (120ms at 48kHz) per channel
const opusMaxFrame = 5760

// OpusDecoder decodes Ogg Opus audio
type OpusDecoder struct{}

// NewOpus creates a new Opus decoder
func NewOpus() Decoder {
	return &OpusDecoder{}
}

// Decode converts an Ogg Opus stream to mono samples
func (d *OpusDecoder) Decode(r io.ReadSeeker) (*audio.Waveform, audio.Format, error) {
	// The stream API does not report channel count, so read it from OpusHead
	head := make([]byte, opusHeadScan)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, audio.Format{}, fmt.Errorf("%w: failed to read ogg header: %w", ErrInvalidAudio, err)
	}
	channels := opusChannels(head[:n])
	if channels <= 0 {
		return nil, audio.Format{}, fmt.Errorf("%w: missing OpusHead identification header", ErrInvalidAudio)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, audio.Format{}, fmt.Errorf("failed to rewind opus stream: %w", err)
	}

	format := audio.Format{
		Codec:      audio.FormatOpus,
		SampleRate: opusSampleRate,
		Channels:   channels,
		BitDepth:   16,
	}

	stream, err := opus.NewStream(r)
	if err != nil {
		return nil, format, fmt.Errorf("%w: failed to open opus stream: %w", ErrInvalidAudio, err)
	}
	defer stream.Close()

	pcm16 := make([]int16, opusMaxFrame*channels)
	var interleaved []float64
	for {
		// Read returns samples per channel
		n, err := stream.Read(pcm16)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, format, fmt.Errorf("%w: opus decode failed: %w", ErrInvalidAudio, err)
		}
		for i := 0; i < n*channels; i++ {
			interleaved = append(interleaved, audio.SampleFromInt16(pcm16[i]))
		}
	}

	return mono(audio.Downmix(interleaved, channels), opusSampleRate), format, nil
}
