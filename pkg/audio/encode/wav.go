// ABOUTME: WAV audio encoder
// ABOUTME: Encodes float waveforms to RIFF/WAVE PCM bytes
package encode

import (
	"fmt"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/voicedetect/voicedetect-go/pkg/audio"
)

// wavFormatPCM is the WAVE_FORMAT_PCM format tag
const wavFormatPCM = 1

// WAVEncoder encodes waveforms as PCM WAV files
type WAVEncoder struct {
	bitDepth int
}

// NewWAV creates a new WAV encoder
func NewWAV(bitDepth int) (Encoder, error) {
	if bitDepth != 16 && bitDepth != 24 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24)", bitDepth)
	}

	return &WAVEncoder{
		bitDepth: bitDepth,
	}, nil
}

// Encode converts the waveform to WAV bytes
func (e *WAVEncoder) Encode(w *audio.Waveform) ([]byte, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	channels := w.Channels
	if channels <= 0 {
		channels = 1
	}

	// The WAV writer patches chunk sizes on Close, so it needs a seekable sink
	f, err := os.CreateTemp("", "voicedetect-encode-*.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	enc := wav.NewEncoder(f, w.SampleRate, e.bitDepth, channels, wavFormatPCM)

	scale := float64(uint64(1) << (e.bitDepth - 1))
	maxVal := scale - 1
	data := make([]int, len(w.Samples))
	for i, s := range w.Samples {
		v := math.Round(s * scale)
		if v > maxVal {
			v = maxVal
		} else if v < -scale {
			v = -scale
		}
		data[i] = int(v)
	}

	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: channels,
			SampleRate:  w.SampleRate,
		},
		Data:           data,
		SourceBitDepth: e.bitDepth,
	}

	if err := enc.Write(buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write wav data: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to finalize wav: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close temp file: %w", err)
	}

	out, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read encoded wav: %w", err)
	}
	return out, nil
}
