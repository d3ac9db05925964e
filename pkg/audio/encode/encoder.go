// ABOUTME: Encoder interface definition
// ABOUTME: Common interface for all audio encoders
package encode

import "github.com/voicedetect/voicedetect-go/pkg/audio"

// Encoder encodes a waveform into a complete audio container
type Encoder interface {
	// Encode converts the waveform to encoded audio data
	Encode(w *audio.Waveform) ([]byte, error)
}
