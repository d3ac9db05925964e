// ABOUTME: Decision policies
// ABOUTME: Binary threshold and three-tier policies mapping scores to labels
package analysis

import "fmt"

// Policy modes
const (
	PolicyBinary = "binary"
	PolicyTiered = "tiered"
)

// Defaults
const (
	DefaultThreshold = 20.0
	DefaultLower     = 0.4
	DefaultUpper     = 0.6
)

// Explanations
const (
	ExplainBinaryAI     = "Low spectral variability indicates synthetic speech patterns."
	ExplainBinaryHuman  = "Natural spectral variability indicates human speech."
	ExplainTieredAI     = "Low spectral variability suggests synthetic uniformity."
	ExplainTieredHuman  = "High spectral variability suggests natural speech dynamics."
	ExplainTieredUnsure = "Spectral variability falls in an overlapping acoustic region."
)

const (
	binaryAIConfidence    = 0.85
	binaryHumanConfidence = 0.80
	uncertainConfidence   = 0.5
)

// Policy maps a score to a classification result.
type Policy interface {
	Decide(score float64) Result
	Name() string
}

// BinaryPolicy splits raw variability at a single threshold.
// Confidence is constant per branch.
type BinaryPolicy struct {
	Threshold float64
}

func (p BinaryPolicy) Decide(score float64) Result {
	if score < p.Threshold {
		return Result{Classification: LabelAI, Confidence: binaryAIConfidence, Explanation: ExplainBinaryAI}
	}
	return Result{Classification: LabelHuman, Confidence: binaryHumanConfidence, Explanation: ExplainBinaryHuman}
}

func (BinaryPolicy) Name() string { return PolicyBinary }

// TieredPolicy classifies a [0,1] score into three zones.
// Both cut points belong to the uncertain zone.
type TieredPolicy struct {
	Lower float64
	Upper float64
}

// Validate requires 0 <= Lower <= Upper <= 1.
func (p TieredPolicy) Validate() error {
	if p.Lower < 0 || p.Upper > 1 || p.Lower > p.Upper {
		return fmt.Errorf("invalid tier bounds [%g, %g]", p.Lower, p.Upper)
	}
	return nil
}

func (p TieredPolicy) Decide(score float64) Result {
	switch {
	case score < p.Lower:
		return Result{Classification: LabelAI, Confidence: round2(1 - score), Explanation: ExplainTieredAI}
	case score > p.Upper:
		return Result{Classification: LabelHuman, Confidence: round2(score), Explanation: ExplainTieredHuman}
	default:
		return Result{Classification: LabelUncertain, Confidence: uncertainConfidence, Explanation: ExplainTieredUnsure}
	}
}

func (TieredPolicy) Name() string { return PolicyTiered }
