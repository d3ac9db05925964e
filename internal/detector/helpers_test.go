// ABOUTME: Shared fixtures for detector tests
// ABOUTME: Builds base64 WAV payloads and fake remote classifiers
package detector

import (
	"context"
	"encoding/base64"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/voicedetect/voicedetect-go/pkg/audio"
	"github.com/voicedetect/voicedetect-go/pkg/audio/encode"
)

func tonePayload(t *testing.T, freq float64) string {
	t.Helper()
	enc, err := encode.NewWAV(16)
	require.NoError(t, err)
	data, err := enc.Encode(audio.Tone(freq, 16000, time.Second, 0.5))
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(data)
}

type fakeRemote struct {
	mu    sync.Mutex
	calls []RemoteRequest
	ctxs  []context.Context
	resp  *RemoteResponse
	err   error
}

func (f *fakeRemote) Post(ctx context.Context, req RemoteRequest) (*RemoteResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	f.ctxs = append(f.ctxs, ctx)
	return f.resp, f.err
}

func (f *fakeRemote) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type recordingObserver struct {
	mu     sync.Mutex
	stages []string
}

func (r *recordingObserver) ObserveStage(stage string, _ time.Duration, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, stage)
}
