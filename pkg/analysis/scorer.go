// ABOUTME: Variability scorers
// ABOUTME: Population standard deviation over the flattened matrix, raw or normalized
package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/voicedetect/voicedetect-go/pkg/features"
	"gonum.org/v1/gonum/stat"
)

// ErrInvalidScore is returned when a matrix cannot produce a finite score.
var ErrInvalidScore = errors.New("invalid score")

// Scorer modes
const (
	ScorerRaw        = "raw"
	ScorerNormalized = "normalized"
)

// Default calibration bounds for 13 coefficients
const (
	DefaultMinVariability = 10.0
	DefaultMaxVariability = 50.0
)

// Scorer reduces a feature matrix to a single score.
type Scorer interface {
	Score(m *features.Matrix) (float64, error)
	Name() string
}

// Variability returns the population standard deviation of values.
func Variability(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return math.Sqrt(stat.PopVariance(values, nil))
}

// Normalize maps std into [0, 1] using the calibration bounds.
func Normalize(std, minVar, maxVar float64) float64 {
	s := (std - minVar) / (maxVar - minVar)
	return math.Max(0, math.Min(1, s))
}

func matrixVariability(m *features.Matrix) (float64, error) {
	if m == nil || len(m.Data) == 0 {
		return 0, fmt.Errorf("%w: empty matrix", ErrInvalidScore)
	}
	std := Variability(m.Data)
	if math.IsNaN(std) || math.IsInf(std, 0) {
		return 0, fmt.Errorf("%w: non-finite variability", ErrInvalidScore)
	}
	return std, nil
}

// RawScorer returns the standard deviation unchanged.
type RawScorer struct{}

func (RawScorer) Score(m *features.Matrix) (float64, error) {
	return matrixVariability(m)
}

func (RawScorer) Name() string { return ScorerRaw }

// NormalizedScorer returns the standard deviation rescaled into [0, 1].
type NormalizedScorer struct {
	MinVar float64
	MaxVar float64
}

// Validate rejects inverted or empty calibration ranges.
func (s NormalizedScorer) Validate() error {
	if !(s.MaxVar > s.MinVar) {
		return fmt.Errorf("max variability %g must exceed min variability %g", s.MaxVar, s.MinVar)
	}
	return nil
}

func (s NormalizedScorer) Score(m *features.Matrix) (float64, error) {
	std, err := matrixVariability(m)
	if err != nil {
		return 0, err
	}
	return Normalize(std, s.MinVar, s.MaxVar), nil
}

func (NormalizedScorer) Name() string { return ScorerNormalized }
