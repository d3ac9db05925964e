// ABOUTME: Container detection for encoded audio
// ABOUTME: Identifies WAV, FLAC, Ogg Opus and MP3 from magic bytes
package decode

import (
	"bytes"

	"github.com/voicedetect/voicedetect-go/pkg/audio"
)

// opusHeadScan bounds how far into an Ogg stream the identification header is searched
const opusHeadScan = 512

// Sniff identifies the container from its leading bytes. It returns an empty
// string when the format is not recognized.
func Sniff(data []byte) string {
	switch {
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return audio.FormatWAV
	case bytes.HasPrefix(data, []byte("fLaC")):
		return audio.FormatFLAC
	case bytes.HasPrefix(data, []byte("OggS")):
		if opusChannels(data) > 0 {
			return audio.FormatOpus
		}
		return ""
	case bytes.HasPrefix(data, []byte("ID3")):
		return audio.FormatMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		// MPEG audio frame sync
		return audio.FormatMP3
	}
	return ""
}

// opusChannels reads the channel count from the OpusHead identification
// header, or returns 0 when there is none in the first page.
func opusChannels(data []byte) int {
	scan := data
	if len(scan) > opusHeadScan {
		scan = scan[:opusHeadScan]
	}
	idx := bytes.Index(scan, []byte("OpusHead"))
	// magic(8) version(1) channels(1)
	if idx < 0 || idx+9 >= len(scan) {
		return 0
	}
	return int(scan[idx+9])
}
