// ABOUTME: Tests for decision policies
// ABOUTME: Tests thresholds, strict tier boundaries and confidence rounding
package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBinaryPolicy(t *testing.T) {
	p := BinaryPolicy{Threshold: DefaultThreshold}

	tests := []struct {
		name       string
		score      float64
		label      string
		confidence float64
		explain    string
	}{
		{"zero", 0, LabelAI, 0.85, ExplainBinaryAI},
		{"just below", 19.999, LabelAI, 0.85, ExplainBinaryAI},
		{"at threshold", 20, LabelHuman, 0.80, ExplainBinaryHuman},
		{"far above", 90, LabelHuman, 0.80, ExplainBinaryHuman},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := p.Decide(tt.score)
			assert.Equal(t, tt.label, r.Classification)
			assert.Equal(t, tt.confidence, r.Confidence)
			assert.Equal(t, tt.explain, r.Explanation)
		})
	}
}

func TestTieredPolicy(t *testing.T) {
	p := TieredPolicy{Lower: DefaultLower, Upper: DefaultUpper}

	tests := []struct {
		name       string
		score      float64
		label      string
		confidence float64
	}{
		{"zero", 0, LabelAI, 1.0},
		{"low", 0.123, LabelAI, 0.88},
		{"just below lower", 0.399, LabelAI, 0.6},
		{"at lower", 0.4, LabelUncertain, 0.5},
		{"middle", 0.5, LabelUncertain, 0.5},
		{"at upper", 0.6, LabelUncertain, 0.5},
		{"just above upper", 0.601, LabelHuman, 0.6},
		{"high", 0.876, LabelHuman, 0.88},
		{"tie below lower", 0.375, LabelAI, 0.62},
		{"tie above upper", 0.625, LabelHuman, 0.62},
		{"one", 1.0, LabelHuman, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := p.Decide(tt.score)
			assert.Equal(t, tt.label, r.Classification)
			assert.InDelta(t, tt.confidence, r.Confidence, 1e-12)
		})
	}
}

func TestTieredPolicyValidate(t *testing.T) {
	assert.NoError(t, TieredPolicy{Lower: 0.4, Upper: 0.6}.Validate())
	assert.Error(t, TieredPolicy{Lower: 0.7, Upper: 0.6}.Validate())
	assert.Error(t, TieredPolicy{Lower: -0.1, Upper: 0.6}.Validate())
	assert.Error(t, TieredPolicy{Lower: 0.4, Upper: 1.2}.Validate())
}
