// ABOUTME: Audio decoder package for multiple container support
// ABOUTME: Provides Decoder interface and implementations for MP3, WAV, FLAC, Ogg Opus
// Package decode turns encoded audio payloads into mono waveforms.
//
// Supports: MP3, WAV (8/16/24/32-bit PCM, 32-bit float), FLAC, Ogg Opus
//
// Decode writes the payload to a transient file, sniffs the container from
// its magic bytes (falling back to the caller's hint, then to MP3), decodes
// it, averages all channels to mono and removes the file before returning.
// The native sample rate is preserved.
//
// Example:
//
//	w, format, err := decode.Decode(payload, "mp3", decode.Options{})
//	if errors.Is(err, decode.ErrInvalidAudio) {
//	    // not an audio container
//	}
package decode
