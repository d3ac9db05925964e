// ABOUTME: WebSocket client for the detection protocol
// ABOUTME: Handles connection, server/hello handshake and request/response correlation
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/voicedetect/voicedetect-go/internal/protocol"
	"github.com/voicedetect/voicedetect-go/pkg/analysis"
	"go.uber.org/zap"
)

const handshakeTimeout = 5 * time.Second

type wsReply struct {
	result analysis.Result
	err    error
}

// wsState is the connection half of Client
type wsState struct {
	conn      *websocket.Conn
	mu        sync.RWMutex
	writeMu   sync.Mutex
	hello     protocol.ServerHello
	connected bool

	pending   map[string]chan wsReply
	pendingMu sync.Mutex

	done chan struct{}
}

func newWSState() *wsState {
	return &wsState{
		pending: make(map[string]chan wsReply),
		done:    make(chan struct{}),
	}
}

// Connect establishes the WebSocket connection and waits for server/hello
func (c *Client) Connect(ctx context.Context) error {
	u := url.URL{Scheme: "ws", Host: c.config.ServerAddr, Path: "/detect/ws"}
	c.logger.Info("connecting", zap.String("url", u.String()))

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, u.String(), c.header())
	if err != nil {
		if resp != nil {
			resp.Body.Close()
			return fmt.Errorf("dial failed: %w", &StatusError{StatusCode: resp.StatusCode})
		}
		return fmt.Errorf("dial failed: %w", err)
	}

	ws := c.ws
	ws.mu.Lock()
	ws.conn = conn
	ws.connected = true
	ws.mu.Unlock()

	if err := c.handshake(); err != nil {
		c.Close()
		return fmt.Errorf("handshake failed: %w", err)
	}

	go c.readMessages()
	return nil
}

// handshake reads the server/hello sent on connect
func (c *Client) handshake() error {
	conn := c.ws.conn

	conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	var env protocol.Envelope
	if err := conn.ReadJSON(&env); err != nil {
		return fmt.Errorf("failed to read server/hello: %w", err)
	}
	conn.SetReadDeadline(time.Time{}) // Clear deadline

	if env.Type != protocol.TypeServerHello {
		return fmt.Errorf("expected %s, got %s", protocol.TypeServerHello, env.Type)
	}
	var hello protocol.ServerHello
	if err := json.Unmarshal(env.Payload, &hello); err != nil {
		return fmt.Errorf("failed to parse server/hello: %w", err)
	}

	c.ws.mu.Lock()
	c.ws.hello = hello
	c.ws.mu.Unlock()

	c.logger.Info("handshake complete",
		zap.String("server", hello.Name),
		zap.String("mode", hello.Mode),
		zap.Int("version", hello.Version),
	)
	return nil
}

// Hello returns the server/hello received by Connect
func (c *Client) Hello() protocol.ServerHello {
	c.ws.mu.RLock()
	defer c.ws.mu.RUnlock()
	return c.ws.hello
}

// DetectWS sends a detect/request and waits for the matching reply
func (c *Client) DetectWS(ctx context.Context, req protocol.DetectRequest) (analysis.Result, error) {
	id := uuid.New().String()
	reply := make(chan wsReply, 1)

	c.ws.pendingMu.Lock()
	c.ws.pending[id] = reply
	c.ws.pendingMu.Unlock()
	defer func() {
		c.ws.pendingMu.Lock()
		delete(c.ws.pending, id)
		c.ws.pendingMu.Unlock()
	}()

	if err := c.sendJSON(protocol.Message{Type: protocol.TypeDetectRequest, ID: id, Payload: req}); err != nil {
		return analysis.Result{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	select {
	case r := <-reply:
		return r.result, r.err
	case <-c.ws.done:
		return analysis.Result{}, ErrNotConnected
	case <-ctx.Done():
		return analysis.Result{}, ctx.Err()
	}
}

// sendJSON sends a JSON message
func (c *Client) sendJSON(msg protocol.Message) error {
	c.ws.mu.RLock()
	defer c.ws.mu.RUnlock()

	if !c.ws.connected {
		return ErrNotConnected
	}

	c.ws.writeMu.Lock()
	defer c.ws.writeMu.Unlock()
	return c.ws.conn.WriteJSON(msg)
}

// readMessages reads and routes incoming messages
func (c *Client) readMessages() {
	defer c.Close()

	for {
		var env protocol.Envelope
		if err := c.ws.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn("read error", zap.Error(err))
			}
			return
		}
		c.handleMessage(env)
	}
}

func (c *Client) handleMessage(env protocol.Envelope) {
	var r wsReply

	switch env.Type {
	case protocol.TypeDetectResult:
		if err := json.Unmarshal(env.Payload, &r.result); err != nil {
			r.err = fmt.Errorf("invalid detect/result: %w", err)
		}
	case protocol.TypeServerError:
		var p protocol.ErrorPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			r.err = fmt.Errorf("invalid server/error: %w", err)
		} else {
			r.err = &ServerError{Code: p.Error, Message: p.Message}
		}
	default:
		c.logger.Debug("ignoring message", zap.String("type", env.Type))
		return
	}

	c.ws.pendingMu.Lock()
	reply, ok := c.ws.pending[env.ID]
	c.ws.pendingMu.Unlock()
	if !ok {
		c.logger.Warn("unmatched reply", zap.String("type", env.Type), zap.String("id", env.ID), zap.Error(r.err))
		return
	}
	select {
	case reply <- r:
	default:
	}
}

// Close closes the WebSocket connection
func (c *Client) Close() {
	c.ws.mu.Lock()
	defer c.ws.mu.Unlock()

	if c.ws.connected {
		c.ws.connected = false
		close(c.ws.done)
		c.ws.conn.Close()
		c.logger.Debug("connection closed")
	}
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	c.ws.mu.RLock()
	defer c.ws.mu.RUnlock()
	return c.ws.connected
}
