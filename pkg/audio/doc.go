// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Clip, Waveform types and sample conversion functions
// Package audio provides the fundamental audio types shared by the decoder,
// feature extractor and classification service.
//
// This package defines:
//   - Clip: an encoded payload plus its declared container hint
//   - Waveform: decoded mono PCM samples in the [-1, 1] range at the native rate
//   - Format: the codec parameters a decoder discovered
//
// It also provides sample conversions (int16/N-bit integer to float),
// channel downmixing and a sine tone generator.
//
// Example:
//
//	w := audio.Tone(audio.DefaultToneFrequency, 16000, time.Second, 0.5)
//	if err := w.Validate(); err != nil {
//	    return err
//	}
package audio
