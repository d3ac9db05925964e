// ABOUTME: Shared fixtures for server tests
// ABOUTME: Provides a counting fake classifier and a test configuration
package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/voicedetect/voicedetect-go/internal/config"
	"github.com/voicedetect/voicedetect-go/internal/detector"
	"github.com/voicedetect/voicedetect-go/pkg/analysis"
	"go.uber.org/zap"
)

const testKey = "secret"

type fakeClassifier struct {
	mu      sync.Mutex
	calls   int
	payload string
	opts    detector.Options
	result  analysis.Result
	err     error
	mode    string
}

func newFakeClassifier() *fakeClassifier {
	return &fakeClassifier{
		mode: detector.ModeLocal,
		result: analysis.Result{
			Classification: analysis.LabelHuman,
			Confidence:     0.8,
			Explanation:    analysis.ExplainBinaryHuman,
		},
	}
}

func (f *fakeClassifier) Classify(ctx context.Context, payload string, opts detector.Options) (analysis.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.payload = payload
	f.opts = opts
	return f.result, f.err
}

func (f *fakeClassifier) Mode() string { return f.mode }

func (f *fakeClassifier) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Server.Name = "test-server"
	cfg.Server.EnableMDNS = false
	cfg.Server.UseTUI = false
	cfg.Server.RateLimit = 0
	cfg.Auth.APIKey = testKey
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config, fc *fakeClassifier) *Server {
	t.Helper()
	s := New(cfg, fc, NewMetrics(), zap.NewNop())
	t.Cleanup(s.baseCancel)
	return s
}

func detectRequest(body, key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/detect", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(detector.APIKeyHeader, key)
	}
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}
