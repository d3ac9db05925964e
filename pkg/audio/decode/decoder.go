// ABOUTME: Decoder interface definition and container dispatch
// ABOUTME: Writes payloads to transient storage, sniffs the container and decodes to mono PCM
package decode

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/voicedetect/voicedetect-go/pkg/audio"
)

var (
	// ErrInvalidAudio marks payloads that are not a parseable audio container
	ErrInvalidAudio = errors.New("invalid audio")
	// ErrEmptyAudio marks payloads that decode to zero samples
	ErrEmptyAudio = errors.New("empty audio")
)

// Decoder decodes a complete audio container to a mono waveform
type Decoder interface {
	// Decode reads the container from r and returns mono PCM at the native rate
	Decode(r io.ReadSeeker) (*audio.Waveform, audio.Format, error)
}

// Options controls transient storage used while decoding
type Options struct {
	// TempDir holds transient payload files. Empty uses os.TempDir.
	TempDir string
}

// New returns the decoder for a container format
func New(codec string) (Decoder, error) {
	switch codec {
	case audio.FormatMP3:
		return NewMP3(), nil
	case audio.FormatWAV:
		return NewWAV(), nil
	case audio.FormatFLAC:
		return NewFLAC(), nil
	case audio.FormatOpus:
		return NewOpus(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported audio format: %s (supported: mp3, wav, flac, opus)", ErrInvalidAudio, codec)
	}
}

// Decode decodes an encoded payload. The container is sniffed from the
// payload; hint is consulted only when sniffing fails, and MP3 is assumed
// when both are inconclusive.
func Decode(data []byte, hint string, opts Options) (*audio.Waveform, audio.Format, error) {
	if len(data) == 0 {
		return nil, audio.Format{}, fmt.Errorf("%w: payload is empty", ErrEmptyAudio)
	}

	codec := Sniff(data)
	if codec == "" {
		codec = NormalizeHint(hint)
	}
	if codec == "" {
		codec = audio.FormatMP3
	}

	dec, err := New(codec)
	if err != nil {
		return nil, audio.Format{}, err
	}

	f, err := os.CreateTemp(opts.TempDir, "voicedetect-*."+codec)
	if err != nil {
		return nil, audio.Format{}, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(f.Name())
	}()

	if _, err := f.Write(data); err != nil {
		return nil, audio.Format{}, fmt.Errorf("failed to write temp file: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, audio.Format{}, fmt.Errorf("failed to rewind temp file: %w", err)
	}

	w, format, err := dec.Decode(f)
	if err != nil {
		return nil, format, err
	}
	if len(w.Samples) == 0 {
		return nil, format, fmt.Errorf("%w: %s container holds no samples", ErrEmptyAudio, codec)
	}
	if w.SampleRate <= 0 {
		return nil, format, fmt.Errorf("%w: %s container reports sample rate %d", ErrInvalidAudio, codec, w.SampleRate)
	}
	return w, format, nil
}

// NormalizeHint maps a caller-declared format or MIME type to a codec name.
// Unknown hints return an empty string.
func NormalizeHint(hint string) string {
	h := strings.ToLower(strings.TrimSpace(hint))
	h = strings.TrimPrefix(h, ".")
	h = strings.TrimPrefix(h, "audio/")
	h = strings.TrimPrefix(h, "x-")

	switch h {
	case "mp3", "mpeg", "mpga", "mpeg3":
		return audio.FormatMP3
	case "wav", "wave", "vnd.wave":
		return audio.FormatWAV
	case "flac":
		return audio.FormatFLAC
	case "opus", "ogg":
		return audio.FormatOpus
	default:
		return ""
	}
}

// mono wraps already-downmixed samples in a waveform
func mono(samples []float64, sampleRate int) *audio.Waveform {
	return &audio.Waveform{
		Samples:    samples,
		SampleRate: sampleRate,
		Channels:   1,
	}
}
