// ABOUTME: Tests for the classification service
// ABOUTME: Tests local pipeline results, delegated normalization and concurrency
package detector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voicedetect/voicedetect-go/pkg/analysis"
)

func newLocal(t *testing.T, mutate func(*Config), deps Dependencies) *Service {
	t.Helper()
	cfg := DefaultConfig()
	cfg.TempDir = t.TempDir()
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := New(cfg, deps)
	require.NoError(t, err)
	return s
}

func newDelegated(t *testing.T, remote RemoteClassifier, strict bool) *Service {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Mode = ModeDelegated
	cfg.StrictInput = strict
	s, err := New(cfg, Dependencies{Remote: remote})
	require.NoError(t, err)
	return s
}

func TestNew(t *testing.T) {
	_, err := New(Config{Mode: "hybrid"}, Dependencies{})
	assert.ErrorIs(t, err, ErrUnsupportedMode)

	cfg := DefaultConfig()
	cfg.Mode = ModeDelegated
	_, err = New(cfg, Dependencies{})
	assert.ErrorIs(t, err, ErrNoRemote)

	cfg = DefaultConfig()
	cfg.Scorer = "median"
	_, err = New(cfg, Dependencies{})
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.Features.Coefficients = 0
	_, err = New(cfg, Dependencies{})
	assert.Error(t, err)
}

func TestLocalClassifyTone(t *testing.T) {
	obs := &recordingObserver{}
	s := newLocal(t, nil, Dependencies{Observer: obs})

	r, err := s.Classify(context.Background(), tonePayload(t, 440), Options{Format: "wav"})
	require.NoError(t, err)
	assert.False(t, r.IsError(), r.Error)
	assert.Contains(t, []string{analysis.LabelAI, analysis.LabelHuman}, r.Classification)
	assert.Contains(t, []float64{0.85, 0.80}, r.Confidence)
	assert.Equal(t, []string{StageBase64, StageDecode, StageFeatures, StageScore}, obs.stages)
}

func TestLocalClassifyTiered(t *testing.T) {
	s := newLocal(t, func(c *Config) {
		c.Scorer = analysis.ScorerNormalized
		c.Policy = analysis.PolicyTiered
		c.Features.Coefficients = 20
	}, Dependencies{})

	r, err := s.Classify(context.Background(), tonePayload(t, 220), Options{})
	require.NoError(t, err)
	assert.False(t, r.IsError(), r.Error)
	assert.Contains(t, []string{analysis.LabelAI, analysis.LabelHuman, analysis.LabelUncertain}, r.Classification)
	assert.GreaterOrEqual(t, r.Confidence, 0.5)
	assert.LessOrEqual(t, r.Confidence, 1.0)
}

func TestLocalClassifyIdempotent(t *testing.T) {
	s := newLocal(t, nil, Dependencies{})
	payload := tonePayload(t, 330)

	first, err := s.Classify(context.Background(), payload, Options{})
	require.NoError(t, err)
	second, err := s.Classify(context.Background(), payload, Options{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLocalClassifyInvalidBase64(t *testing.T) {
	s := newLocal(t, nil, Dependencies{})

	r, err := s.Classify(context.Background(), "not-base64!!", Options{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(r.Error, "Invalid base64 audio: "), r.Error)

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "classification")
}

func TestLocalClassifyUndecodable(t *testing.T) {
	s := newLocal(t, nil, Dependencies{})

	// valid base64 of plain text
	r, err := s.Classify(context.Background(), "aGVsbG8gd29ybGQ=", Options{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(r.Error, "Audio processing failed: "), r.Error)
}

func TestLocalClassifyEmptyPayload(t *testing.T) {
	s := newLocal(t, nil, Dependencies{})

	r, err := s.Classify(context.Background(), "", Options{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(r.Error, "Audio processing failed: "), r.Error)
}

func TestLocalClassifyConcurrent(t *testing.T) {
	s := newLocal(t, nil, Dependencies{})
	payloads := []string{tonePayload(t, 220), tonePayload(t, 880)}

	want := make([]analysis.Result, len(payloads))
	for i, p := range payloads {
		r, err := s.Classify(context.Background(), p, Options{})
		require.NoError(t, err)
		want[i] = r
	}

	var wg sync.WaitGroup
	errs := make(chan string, 32)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			idx := i % len(payloads)
			r, err := s.Classify(context.Background(), payloads[idx], Options{})
			w := want[idx]
			if err != nil || r.Classification != w.Classification || r.Confidence != w.Confidence || r.Error != w.Error {
				errs <- "mismatched result"
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	assert.Empty(t, errs)
}

func TestDelegatedPassthrough(t *testing.T) {
	body := `{"classification":"AI-generated","confidence":0.93,"explanation":"vendor","model":"v2"}`
	remote := &fakeRemote{resp: &RemoteResponse{Status: 200, Body: []byte(body)}}
	s := newDelegated(t, remote, false)

	payload := tonePayload(t, 440)
	r, err := s.Classify(context.Background(), payload, Options{Language: "Tamil"})
	require.NoError(t, err)

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, body, string(data))

	require.Equal(t, 1, remote.callCount())
	assert.Equal(t, payload, remote.calls[0].Audio)
	assert.Equal(t, "Ta", remote.calls[0].Language)
}

func TestDelegatedDefaultLanguage(t *testing.T) {
	remote := &fakeRemote{resp: &RemoteResponse{Status: 200, Body: []byte(`{}`)}}
	s := newDelegated(t, remote, false)

	_, err := s.Classify(context.Background(), "AAAA", Options{})
	require.NoError(t, err)
	assert.Equal(t, "en", remote.calls[0].Language)
}

func TestDelegatedFailures(t *testing.T) {
	tests := []struct {
		name    string
		resp    *RemoteResponse
		err     error
		explain string
		details map[string]any
	}{
		{
			name:    "unreachable",
			err:     errors.New("dial tcp: connection refused"),
			explain: ExplainUnreachable,
		},
		{
			name:    "server error",
			resp:    &RemoteResponse{Status: 503, Body: []byte("overloaded")},
			explain: ExplainUpstreamError,
			details: map[string]any{"status": 503, "body": "overloaded"},
		},
		{
			name:    "redirect",
			resp:    &RemoteResponse{Status: 302, Body: nil},
			explain: ExplainUpstreamError,
			details: map[string]any{"status": 302, "body": ""},
		},
		{
			name:    "too large",
			err:     fmt.Errorf("%w: %w", ErrUpstream, ErrTooLarge),
			explain: ExplainInvalidResponse,
			details: map[string]any{"reason": "response exceeds 1048576 bytes"},
		},
		{
			name:    "not json",
			resp:    &RemoteResponse{Status: 200, Body: []byte("<html>ok</html>")},
			explain: ExplainInvalidResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newDelegated(t, &fakeRemote{resp: tt.resp, err: tt.err}, false)
			r, err := s.Classify(context.Background(), "AAAA", Options{})
			require.NoError(t, err)
			assert.Equal(t, analysis.LabelUnknown, r.Classification)
			assert.Equal(t, 0.0, r.Confidence)
			assert.Equal(t, tt.explain, r.Explanation)
			assert.Equal(t, tt.details, r.Details)
		})
	}
}

func TestDelegatedInvalidBase64(t *testing.T) {
	remote := &fakeRemote{resp: &RemoteResponse{Status: 200, Body: []byte(`{}`)}}
	s := newDelegated(t, remote, false)

	r, err := s.Classify(context.Background(), "not-base64!!", Options{})
	require.NoError(t, err)
	assert.Equal(t, analysis.LabelUnknown, r.Classification)
	assert.Equal(t, ExplainInvalidBase64, r.Explanation)
	assert.Zero(t, remote.callCount())
}

func TestDelegatedStrictInput(t *testing.T) {
	remote := &fakeRemote{resp: &RemoteResponse{Status: 200, Body: []byte(`{}`)}}
	s := newDelegated(t, remote, true)

	_, err := s.Classify(context.Background(), "not-base64!!", Options{})
	require.Error(t, err)

	var de *Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, KindInput, de.Kind)
	assert.ErrorIs(t, err, ErrInvalidBase64)
	assert.Zero(t, remote.callCount())
}

func TestDelegatedIgnoresCallerCancellation(t *testing.T) {
	remote := &fakeRemote{resp: &RemoteResponse{Status: 200, Body: []byte(`{"classification":"Human-generated"}`)}}
	s := newDelegated(t, remote, false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, err := s.Classify(ctx, "AAAA", Options{})
	require.NoError(t, err)
	assert.Equal(t, analysis.LabelHuman, r.Classification)
	assert.NoError(t, remote.ctxs[0].Err())
}

func TestLanguageCode(t *testing.T) {
	assert.Equal(t, "en", LanguageCode(""))
	assert.Equal(t, "hi", LanguageCode("hi"))
	assert.Equal(t, "t", LanguageCode("t"))
	assert.Equal(t, "Ma", LanguageCode("Malayalam"))
	assert.Equal(t, "தம", LanguageCode("தமிழ்"))
}
