// ABOUTME: Client for the voice detection service
// ABOUTME: Sends detection requests over HTTP and shares configuration with the WebSocket client
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/voicedetect/voicedetect-go/internal/detector"
	"github.com/voicedetect/voicedetect-go/internal/protocol"
	"github.com/voicedetect/voicedetect-go/internal/version"
	"github.com/voicedetect/voicedetect-go/pkg/analysis"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single detection round trip
const DefaultTimeout = 60 * time.Second

const maxResponseBytes = 1 << 20

// ErrNotConnected is returned by WebSocket calls before Connect or after Close
var ErrNotConnected = errors.New("not connected")

// StatusError reports a non-200 HTTP response
type StatusError struct {
	StatusCode int
	Detail     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("server returned %d", e.StatusCode)
}

// ServerError is a server/error envelope answering a request
type ServerError struct {
	Code    string
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Config holds client configuration
type Config struct {
	ServerAddr string // host:port
	APIKey     string
	Timeout    time.Duration
	Logger     *zap.Logger
}

// Client talks to one detection server
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger

	ws *wsState
}

// NewClient creates a new client
func NewClient(config Config) *Client {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger.With(zap.String("component", "client")),
		ws:         newWSState(),
	}
}

func (c *Client) header() http.Header {
	h := http.Header{}
	h.Set("User-Agent", version.UserAgent())
	if c.config.APIKey != "" {
		h.Set(detector.APIKeyHeader, c.config.APIKey)
	}
	return h
}

// Detect posts req to /detect and decodes the result. Auth failures in body
// mode and pipeline failures come back as Results carrying Error.
func (c *Client) Detect(ctx context.Context, req protocol.DetectRequest) (analysis.Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return analysis.Result{}, fmt.Errorf("failed to encode request: %w", err)
	}

	u := url.URL{Scheme: "http", Host: c.config.ServerAddr, Path: "/detect"}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return analysis.Result{}, err
	}
	httpReq.Header = c.header()
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Debug("posting detection", zap.String("url", u.String()), zap.Int("bytes", len(body)))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return analysis.Result{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return analysis.Result{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		se := &StatusError{StatusCode: resp.StatusCode, Body: string(data)}
		var d protocol.Detail
		if json.Unmarshal(data, &d) == nil {
			se.Detail = d.Detail
		}
		return analysis.Result{}, se
	}

	var result analysis.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return analysis.Result{}, fmt.Errorf("invalid response: %w", err)
	}
	return result, nil
}

// Version fetches GET /version
func (c *Client) Version(ctx context.Context) (protocol.VersionInfo, error) {
	var info protocol.VersionInfo

	u := url.URL{Scheme: "http", Host: c.config.ServerAddr, Path: "/version"}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return info, err
	}
	req.Header = c.header()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return info, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return info, &StatusError{StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&info); err != nil {
		return info, fmt.Errorf("invalid response: %w", err)
	}
	return info, nil
}
