// ABOUTME: Analyzer composing a scorer with a decision policy
// ABOUTME: Builds the configured strategy pair and applies it to a matrix
package analysis

import (
	"fmt"

	"github.com/voicedetect/voicedetect-go/pkg/features"
)

// Calibration holds the tunables for every scorer and policy.
type Calibration struct {
	MinVar    float64
	MaxVar    float64
	Threshold float64
	Lower     float64
	Upper     float64
}

// DefaultCalibration returns the deployed constants for 13 coefficients.
func DefaultCalibration() Calibration {
	return Calibration{
		MinVar:    DefaultMinVariability,
		MaxVar:    DefaultMaxVariability,
		Threshold: DefaultThreshold,
		Lower:     DefaultLower,
		Upper:     DefaultUpper,
	}
}

// Analyzer applies a Scorer and then a Policy.
type Analyzer struct {
	Scorer Scorer
	Policy Policy
}

// NewScorer returns the scorer registered under mode.
func NewScorer(mode string, cal Calibration) (Scorer, error) {
	switch mode {
	case ScorerRaw:
		return RawScorer{}, nil
	case ScorerNormalized:
		s := NormalizedScorer{MinVar: cal.MinVar, MaxVar: cal.MaxVar}
		if err := s.Validate(); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown scorer mode: %q (supported: raw, normalized)", mode)
	}
}

// NewPolicy returns the policy registered under mode.
func NewPolicy(mode string, cal Calibration) (Policy, error) {
	switch mode {
	case PolicyBinary:
		return BinaryPolicy{Threshold: cal.Threshold}, nil
	case PolicyTiered:
		p := TieredPolicy{Lower: cal.Lower, Upper: cal.Upper}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown policy mode: %q (supported: binary, tiered)", mode)
	}
}

// NewAnalyzer builds an Analyzer from mode names.
func NewAnalyzer(scorerMode, policyMode string, cal Calibration) (*Analyzer, error) {
	scorer, err := NewScorer(scorerMode, cal)
	if err != nil {
		return nil, err
	}
	policy, err := NewPolicy(policyMode, cal)
	if err != nil {
		return nil, err
	}
	return &Analyzer{Scorer: scorer, Policy: policy}, nil
}

// Analyze scores m and classifies the score. The score is returned for logging.
func (a *Analyzer) Analyze(m *features.Matrix) (Result, float64, error) {
	score, err := a.Scorer.Score(m)
	if err != nil {
		return Result{}, 0, err
	}
	return a.Policy.Decide(score), score, nil
}
