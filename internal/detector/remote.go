// ABOUTME: Remote classifier client
// ABOUTME: Posts payloads to an upstream detection API with a bounded timeout
package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultRemoteTimeout bounds a single upstream call
const DefaultRemoteTimeout = 20 * time.Second

// APIKeyHeader carries credentials to and from the service
const APIKeyHeader = "x-api-key"

// MaxRemoteBody caps the upstream reply size
const MaxRemoteBody = 1 << 20

// RemoteRequest is the upstream request body.
type RemoteRequest struct {
	Audio    string `json:"audio"`
	Language string `json:"language"`
}

// RemoteResponse is the raw upstream reply.
type RemoteResponse struct {
	Status int
	Body   []byte
}

// RemoteClassifier forwards payloads to an external detector.
type RemoteClassifier interface {
	Post(ctx context.Context, req RemoteRequest) (*RemoteResponse, error)
}

// HTTPRemote is a RemoteClassifier over HTTP.
type HTTPRemote struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewHTTPRemote creates a client for endpoint. A non-positive timeout uses
// DefaultRemoteTimeout.
func NewHTTPRemote(endpoint, apiKey string, timeout time.Duration) *HTTPRemote {
	if timeout <= 0 {
		timeout = DefaultRemoteTimeout
	}
	return &HTTPRemote{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

// Post sends req and returns the status and body. Transport failures and
// timeouts are returned as errors wrapping ErrUpstream. A body over
// MaxRemoteBody also wraps ErrTooLarge.
func (h *HTTPRemote) Post(ctx context.Context, req RemoteRequest) (*RemoteResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode remote request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if h.apiKey != "" {
		httpReq.Header.Set(APIKeyHeader, h.apiKey)
	}

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxRemoteBody+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrUpstream, err)
	}
	if len(data) > MaxRemoteBody {
		return nil, fmt.Errorf("%w: %w: status %d, over %d bytes", ErrUpstream, ErrTooLarge, resp.StatusCode, MaxRemoteBody)
	}
	return &RemoteResponse{Status: resp.StatusCode, Body: data}, nil
}
