// ABOUTME: Classification result type
// ABOUTME: JSON shape covers success, local errors, upstream failures and passthrough
package analysis

import (
	"encoding/json"
	"strconv"
)

// Classification labels
const (
	LabelAI        = "AI-generated"
	LabelHuman     = "Human-generated"
	LabelUncertain = "Uncertain"
	LabelUnknown   = "unknown"
)

// Result is the outcome of one classification request.
//
// Exactly one shape is serialized: Raw verbatim when set, {error} when Error
// is set, otherwise the classification fields.
type Result struct {
	Classification string
	Confidence     float64
	Explanation    string
	Error          string
	Details        map[string]any
	Raw            json.RawMessage
}

type resultJSON struct {
	Classification string         `json:"classification"`
	Confidence     float64        `json:"confidence"`
	Explanation    string         `json:"explanation"`
	Details        map[string]any `json:"details,omitempty"`
}

type errorJSON struct {
	Error string `json:"error"`
}

// ErrorResult builds a result that reports a processing failure.
func ErrorResult(msg string) Result {
	return Result{Error: msg}
}

// UnknownResult builds an unknown classification with zero confidence.
func UnknownResult(explanation string, details map[string]any) Result {
	return Result{
		Classification: LabelUnknown,
		Confidence:     0,
		Explanation:    explanation,
		Details:        details,
	}
}

// IsError reports whether the result carries a processing error.
func (r Result) IsError() bool {
	return r.Error != ""
}

// Label returns the classification, or "error" for error results.
func (r Result) Label() string {
	if r.IsError() {
		return "error"
	}
	if r.Classification == "" {
		return LabelUnknown
	}
	return r.Classification
}

func (r Result) MarshalJSON() ([]byte, error) {
	if len(r.Raw) > 0 {
		return r.Raw, nil
	}
	if r.Error != "" {
		return json.Marshal(errorJSON{Error: r.Error})
	}
	return json.Marshal(resultJSON{
		Classification: r.Classification,
		Confidence:     r.Confidence,
		Explanation:    r.Explanation,
		Details:        r.Details,
	})
}

// UnmarshalJSON parses any result shape and keeps the original bytes in Raw.
func (r *Result) UnmarshalJSON(data []byte) error {
	var wire struct {
		resultJSON
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		// Valid JSON with an unexpected shape is kept verbatim
		if !json.Valid(data) {
			return err
		}
		*r = Result{Raw: append(json.RawMessage(nil), data...)}
		return nil
	}
	*r = Result{
		Classification: wire.Classification,
		Confidence:     wire.Confidence,
		Explanation:    wire.Explanation,
		Error:          wire.Error,
		Details:        wire.Details,
		Raw:            append(json.RawMessage(nil), data...),
	}
	return nil
}

// round2 rounds to two decimals using the exact binary value, so 0.625
// rounds to 0.62 and 2.675 to 2.67.
func round2(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	if err != nil {
		return v
	}
	return r
}
