// ABOUTME: Audio encoder package for writing waveforms to containers
// ABOUTME: Provides Encoder interface with WAV and Ogg Opus implementations
// Package encode provides audio encoders for building complete containers
// from decoded waveforms.
//
// Supports: WAV (16-bit and 24-bit PCM), Ogg Opus (mono and stereo)
//
// The voicecheck client uses it to submit synthesized test tones, and the
// decoder tests use it to build fixtures.
//
// Example:
//
//	encoder, err := encode.NewWAV(16)
//	data, err := encoder.Encode(waveform)
package encode
