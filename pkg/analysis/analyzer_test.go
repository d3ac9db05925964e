// ABOUTME: Tests for analyzer composition
// ABOUTME: Tests mode selection and end-to-end score to result mapping
package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voicedetect/voicedetect-go/pkg/features"
)

func TestNewAnalyzer(t *testing.T) {
	tests := []struct {
		scorer  string
		policy  string
		wantErr bool
	}{
		{ScorerRaw, PolicyBinary, false},
		{ScorerNormalized, PolicyTiered, false},
		{ScorerNormalized, PolicyBinary, false},
		{ScorerRaw, PolicyTiered, false},
		{"median", PolicyBinary, true},
		{ScorerRaw, "fuzzy", true},
	}

	for _, tt := range tests {
		t.Run(tt.scorer+"/"+tt.policy, func(t *testing.T) {
			a, err := NewAnalyzer(tt.scorer, tt.policy, DefaultCalibration())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.scorer, a.Scorer.Name())
			assert.Equal(t, tt.policy, a.Policy.Name())
		})
	}
}

func TestNewAnalyzerInvalidCalibration(t *testing.T) {
	cal := DefaultCalibration()
	cal.MinVar, cal.MaxVar = 50, 10
	_, err := NewAnalyzer(ScorerNormalized, PolicyTiered, cal)
	assert.Error(t, err)

	cal = DefaultCalibration()
	cal.Lower, cal.Upper = 0.7, 0.3
	_, err = NewAnalyzer(ScorerNormalized, PolicyTiered, cal)
	assert.Error(t, err)
}

func TestAnalyzeZeroMatrix(t *testing.T) {
	m := features.NewMatrix(13, 10)

	tiered, err := NewAnalyzer(ScorerNormalized, PolicyTiered, DefaultCalibration())
	require.NoError(t, err)
	r, score, err := tiered.Analyze(m)
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
	assert.Equal(t, LabelAI, r.Classification)
	assert.Equal(t, 1.0, r.Confidence)

	binary, err := NewAnalyzer(ScorerRaw, PolicyBinary, DefaultCalibration())
	require.NoError(t, err)
	r, _, err = binary.Analyze(m)
	require.NoError(t, err)
	assert.Equal(t, LabelAI, r.Classification)
	assert.Equal(t, 0.85, r.Confidence)
}

func TestAnalyzeMidpoint(t *testing.T) {
	// values ±30 give a population std of exactly 30
	m := matrixOf(1, 2, -30, 30)

	a, err := NewAnalyzer(ScorerNormalized, PolicyTiered, DefaultCalibration())
	require.NoError(t, err)
	r, score, err := a.Analyze(m)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, score, 1e-12)
	assert.Equal(t, LabelUncertain, r.Classification)
	assert.Equal(t, 0.5, r.Confidence)

	raw, err := NewAnalyzer(ScorerRaw, PolicyBinary, DefaultCalibration())
	require.NoError(t, err)
	r, score, err = raw.Analyze(m)
	require.NoError(t, err)
	assert.InDelta(t, 30, score, 1e-12)
	assert.Equal(t, LabelHuman, r.Classification)
}

func TestAnalyzeScorerError(t *testing.T) {
	a, err := NewAnalyzer(ScorerRaw, PolicyBinary, DefaultCalibration())
	require.NoError(t, err)
	_, _, err = a.Analyze(nil)
	assert.ErrorIs(t, err, ErrInvalidScore)
}
