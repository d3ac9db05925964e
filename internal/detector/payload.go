// ABOUTME: Base64 payload decoding
// ABOUTME: Accepts data URIs, embedded whitespace and unpadded input
package detector

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// DecodePayload decodes a base64 audio payload.
func DecodePayload(payload string) ([]byte, error) {
	s := payload
	if strings.HasPrefix(s, "data:") {
		if i := strings.IndexByte(s, ','); i >= 0 {
			s = s[i+1:]
		}
	}
	s = strings.Join(strings.Fields(s), "")

	data, err := base64.StdEncoding.DecodeString(s)
	if err == nil {
		return data, nil
	}
	if raw, rawErr := base64.RawStdEncoding.DecodeString(s); rawErr == nil {
		return raw, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrInvalidBase64, err)
}
