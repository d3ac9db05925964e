// ABOUTME: Classification error kinds
// ABOUTME: Maps stage sentinels to input, decode, feature, upstream and auth kinds
package detector

import (
	"errors"

	"github.com/voicedetect/voicedetect-go/pkg/analysis"
	"github.com/voicedetect/voicedetect-go/pkg/audio/decode"
	"github.com/voicedetect/voicedetect-go/pkg/features"
)

// Kind classifies a pipeline failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindInput
	KindDecode
	KindFeature
	KindUpstream
	KindAuth
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindDecode:
		return "decode"
	case KindFeature:
		return "feature"
	case KindUpstream:
		return "upstream"
	case KindAuth:
		return "auth"
	default:
		return "unknown"
	}
}

// Error is a classified failure.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String() + " error"
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Sentinels for failures raised by this package
var (
	ErrInvalidBase64   = errors.New("invalid base64")
	ErrUpstream        = errors.New("upstream failure")
	ErrTooLarge        = errors.New("upstream response too large")
	ErrMissingAPIKey   = errors.New("missing api key")
	ErrInvalidAPIKey   = errors.New("invalid api key")
	ErrNoRemote        = errors.New("delegated mode requires a remote classifier")
	ErrUnsupportedMode = errors.New("unsupported mode")
)

// KindOf reports the kind of err, unwrapping *Error and stage sentinels.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	switch {
	case errors.Is(err, ErrInvalidBase64):
		return KindInput
	case errors.Is(err, decode.ErrInvalidAudio), errors.Is(err, decode.ErrEmptyAudio):
		return KindDecode
	case errors.Is(err, features.ErrDegenerateWaveform), errors.Is(err, analysis.ErrInvalidScore):
		return KindFeature
	case errors.Is(err, ErrUpstream):
		return KindUpstream
	case errors.Is(err, ErrMissingAPIKey), errors.Is(err, ErrInvalidAPIKey):
		return KindAuth
	default:
		return KindUnknown
	}
}
