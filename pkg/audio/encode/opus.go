// ABOUTME: Ogg Opus audio encoder
// ABOUTME: Encodes waveforms to 20ms Opus packets in an Ogg container
package encode

import (
	"encoding/binary"
	"fmt"

	"gopkg.in/hraban/opus.v2"

	"github.com/voicedetect/voicedetect-go/pkg/audio"
)

const (
	// Ogg Opus granule positions always count 48kHz samples
	opusGranuleRate = 48000

	// opusPreSkip is the encoder lookahead at 48kHz
	opusPreSkip = 312

	opusFrameDivisor = 50 // 20ms frames
	opusMaxPacket    = 4000
	opusSerial       = 0x76646574
	opusVendor       = "voicedetect"
)

var opusRates = map[int]bool{8000: true, 12000: true, 16000: true, 24000: true, 48000: true}

// OpusEncoder encodes Ogg Opus audio
type OpusEncoder struct {
	channels int
}

// NewOpus creates an Ogg Opus encoder for mono or stereo waveforms
func NewOpus(channels int) (Encoder, error) {
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("unsupported channel count: %d (supported: 1, 2)", channels)
	}
	return &OpusEncoder{channels: channels}, nil
}

// Encode converts the waveform to an Ogg Opus stream. The sample rate must
// be one libopus accepts: 8, 12, 16, 24 or 48kHz.
func (e *OpusEncoder) Encode(w *audio.Waveform) ([]byte, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	channels := w.Channels
	if channels <= 0 {
		channels = 1
	}
	if channels != e.channels {
		return nil, fmt.Errorf("waveform has %d channels, encoder expects %d", channels, e.channels)
	}
	if !opusRates[w.SampleRate] {
		return nil, fmt.Errorf("unsupported opus sample rate: %d", w.SampleRate)
	}

	enc, err := opus.NewEncoder(w.SampleRate, channels, opus.AppAudio)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus encoder: %w", err)
	}

	ogg := newOggWriter(opusSerial)
	if err := ogg.writePacket(opusHead(channels, w.SampleRate), 0, oggBOS); err != nil {
		return nil, err
	}
	if err := ogg.writePacket(opusTags(), 0, 0); err != nil {
		return nil, err
	}

	frameSize := w.SampleRate / opusFrameDivisor
	scale := opusGranuleRate / w.SampleRate
	total := len(w.Samples) / channels
	// Run past the end so the lookahead is flushed
	need := total + opusPreSkip/scale
	finalGranule := uint64(opusPreSkip + total*scale)

	pcm := make([]int16, frameSize*channels)
	packet := make([]byte, opusMaxPacket)
	var granule uint64
	for pos := 0; pos < need; pos += frameSize {
		for i := range pcm {
			idx := pos*channels + i
			if idx < len(w.Samples) {
				pcm[i] = audio.SampleToInt16(w.Samples[idx])
			} else {
				pcm[i] = 0
			}
		}

		n, err := enc.Encode(pcm, packet)
		if err != nil {
			return nil, fmt.Errorf("opus encode error: %w", err)
		}

		granule += uint64(frameSize * scale)
		var flags byte
		if pos+frameSize >= need {
			flags = oggEOS
			granule = finalGranule
		}
		if err := ogg.writePacket(packet[:n], granule, flags); err != nil {
			return nil, err
		}
	}

	return ogg.Bytes(), nil
}

// opusHead builds the identification header with channel mapping family 0
func opusHead(channels, inputRate int) []byte {
	head := make([]byte, 19)
	copy(head, "OpusHead")
	head[8] = 1
	head[9] = byte(channels)
	binary.LittleEndian.PutUint16(head[10:12], opusPreSkip)
	binary.LittleEndian.PutUint32(head[12:16], uint32(inputRate))
	binary.LittleEndian.PutUint16(head[16:18], 0)
	head[18] = 0
	return head
}

func opusTags() []byte {
	tags := make([]byte, 0, 16+len(opusVendor))
	tags = append(tags, "OpusTags"...)
	tags = binary.LittleEndian.AppendUint32(tags, uint32(len(opusVendor)))
	tags = append(tags, opusVendor...)
	tags = binary.LittleEndian.AppendUint32(tags, 0)
	return tags
}
