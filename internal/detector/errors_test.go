// ABOUTME: Tests for error classification
// ABOUTME: Tests sentinel to kind mapping and Error unwrapping
package detector

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/voicedetect/voicedetect-go/pkg/analysis"
	"github.com/voicedetect/voicedetect-go/pkg/audio/decode"
	"github.com/voicedetect/voicedetect-go/pkg/features"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{nil, KindUnknown},
		{errors.New("other"), KindUnknown},
		{fmt.Errorf("wrap: %w", ErrInvalidBase64), KindInput},
		{fmt.Errorf("wrap: %w", decode.ErrInvalidAudio), KindDecode},
		{decode.ErrEmptyAudio, KindDecode},
		{fmt.Errorf("x: %w", features.ErrDegenerateWaveform), KindFeature},
		{analysis.ErrInvalidScore, KindFeature},
		{fmt.Errorf("x: %w", ErrUpstream), KindUpstream},
		{ErrMissingAPIKey, KindAuth},
		{&Error{Kind: KindAuth, Err: errors.New("nope")}, KindAuth},
		{fmt.Errorf("outer: %w", &Error{Kind: KindDecode, Err: ErrInvalidBase64}), KindDecode},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, KindOf(tt.err), "%v", tt.err)
	}
}

func TestErrorFormatting(t *testing.T) {
	e := &Error{Kind: KindInput, Err: ErrInvalidBase64}
	assert.Equal(t, "invalid base64", e.Error())
	assert.ErrorIs(t, e, ErrInvalidBase64)
	assert.Equal(t, "input error", (&Error{Kind: KindInput}).Error())
	assert.Equal(t, "upstream", KindUpstream.String())
}
