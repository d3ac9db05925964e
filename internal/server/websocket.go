// ABOUTME: WebSocket detection endpoint
// ABOUTME: Answers detect/request envelopes with detect/result over a persistent connection
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/voicedetect/voicedetect-go/internal/detector"
	"github.com/voicedetect/voicedetect-go/internal/protocol"
	"go.uber.org/zap"
)

const (
	wsWriteDeadline = 10 * time.Second
	wsPingInterval  = 30 * time.Second
	wsSendBuffer    = 16
	wsMaxInflight   = 4
)

// wsConn is one connected WebSocket client
type wsConn struct {
	id        string
	conn      *websocket.Conn
	remote    string
	sendChan  chan protocol.Message
	inflight  sync.WaitGroup
	slots     chan struct{}
	closeOnce sync.Once

	// queueTimeout bounds how long a result waits for buffer space
	queueTimeout time.Duration
}

func (c *wsConn) close() {
	c.closeOnce.Do(func() {
		c.conn.Close()
	})
}

// handleWebSocket upgrades GET /detect/ws
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.shuttingDown() {
		writeDetail(w, http.StatusServiceUnavailable, "Server shutting down")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade error", zap.Error(err))
		return
	}

	c := &wsConn{
		id:       uuid.New().String(),
		conn:     conn,
		remote:   r.RemoteAddr,
		sendChan:     make(chan protocol.Message, wsSendBuffer),
		slots:        make(chan struct{}, wsMaxInflight),
		queueTimeout: wsWriteDeadline,
	}
	s.logger.Info("WebSocket connected", zap.String("conn", c.id), zap.String("remote_addr", c.remote))

	s.handleConnection(c)
}

// handleConnection registers c and runs its read loop until the peer leaves
func (s *Server) handleConnection(c *wsConn) {
	defer c.close()

	s.connsMu.Lock()
	s.conns[c.id] = c
	s.connsMu.Unlock()
	s.metrics.wsConnections.Inc()
	s.updateTUI()

	writerDone := make(chan struct{})
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(writerDone)
		s.connWriter(c)
	}()

	defer func() {
		c.inflight.Wait()
		close(c.sendChan)
		<-writerDone

		s.connsMu.Lock()
		delete(s.conns, c.id)
		s.connsMu.Unlock()
		s.metrics.wsConnections.Dec()
		s.logger.Info("WebSocket disconnected", zap.String("conn", c.id))
		s.updateTUI()
	}()

	c.conn.SetReadLimit(s.config.Server.MaxBodyBytes)

	if err := s.send(c, protocol.Message{
		Type: protocol.TypeServerHello,
		Payload: protocol.ServerHello{
			ServerID: s.serverID,
			Name:     s.config.Server.Name,
			Version:  protocol.ProtocolVersion,
			Mode:     s.classifier.Mode(),
		},
	}); err != nil {
		s.logger.Warn("error sending server hello", zap.Error(err))
		return
	}

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.logger.Warn("WebSocket read error", zap.String("conn", c.id), zap.Error(err))
			}
			return
		}
		s.handleConnMessage(c, data)
	}
}

// handleConnMessage dispatches one text frame
func (s *Server) handleConnMessage(c *wsConn, data []byte) {
	var env protocol.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.sendError(c, "", "invalid_message", "Message must be a JSON envelope")
		return
	}

	switch env.Type {
	case protocol.TypeDetectRequest:
		var req protocol.DetectRequest
		if len(env.Payload) == 0 || json.Unmarshal(env.Payload, &req) != nil {
			s.sendError(c, env.ID, "invalid_request", detailInvalidBody)
			return
		}
		if req.AudioBase64 == "" {
			s.sendError(c, env.ID, "invalid_request", detailMissingAudio)
			return
		}

		// Bound concurrent classifications per connection
		c.slots <- struct{}{}
		c.inflight.Add(1)
		go func() {
			defer c.inflight.Done()
			defer func() { <-c.slots }()
			s.answerDetect(c, env.ID, req)
		}()
	default:
		s.sendError(c, env.ID, "unknown_type", fmt.Sprintf("Unknown message type: %s", env.Type))
	}
}

func (s *Server) answerDetect(c *wsConn, id string, req protocol.DetectRequest) {
	result, err := s.classify(s.baseCtx, req, transportWS)
	if err != nil {
		if detector.KindOf(err) == detector.KindInput {
			s.sendError(c, id, "invalid_input", detailInvalidBase64)
			return
		}
		s.sendError(c, id, "internal_error", "Internal server error")
		return
	}
	if err := s.sendResult(c, protocol.Message{Type: protocol.TypeDetectResult, ID: id, Payload: result}); err != nil {
		s.logger.Warn("closing connection, detect result not delivered",
			zap.String("conn", c.id), zap.String("id", id), zap.Error(err))
	}
}

func (s *Server) sendError(c *wsConn, id, code, message string) {
	err := s.send(c, protocol.Message{
		Type:    protocol.TypeServerError,
		ID:      id,
		Payload: protocol.ErrorPayload{Error: code, Message: message},
	})
	if err != nil {
		s.logger.Warn("dropping error message", zap.String("conn", c.id), zap.Error(err))
	}
}

// send queues a message without blocking
func (s *Server) send(c *wsConn, msg protocol.Message) error {
	select {
	case c.sendChan <- msg:
		return nil
	default:
		return fmt.Errorf("connection send buffer full")
	}
}

// sendResult queues a message, waiting for buffer space. The connection is
// closed if the writer makes no room within queueTimeout.
func (s *Server) sendResult(c *wsConn, msg protocol.Message) error {
	select {
	case c.sendChan <- msg:
		return nil
	default:
	}

	timer := time.NewTimer(c.queueTimeout)
	defer timer.Stop()

	select {
	case c.sendChan <- msg:
		return nil
	case <-timer.C:
		c.close()
		return fmt.Errorf("send buffer full for %s", c.queueTimeout)
	}
}

// connWriter serializes writes and keeps the connection alive with pings
func (s *Server) connWriter(c *wsConn) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.sendChan:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(time.Second))
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				s.logger.Error("error marshaling message", zap.Error(err))
				continue
			}
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Warn("error writing message", zap.String("conn", c.id), zap.Error(err))
				c.close()
				// Keep draining so senders never block on a dead connection
				for range c.sendChan {
				}
				return
			}

		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(wsWriteDeadline)); err != nil {
				c.close()
				for range c.sendChan {
				}
				return
			}
		}
	}
}

// connectionCount returns the number of open WebSocket connections
func (s *Server) connectionCount() int {
	s.connsMu.RLock()
	defer s.connsMu.RUnlock()
	return len(s.conns)
}

// closeConnections closes every open WebSocket so read loops exit
func (s *Server) closeConnections() {
	s.connsMu.RLock()
	conns := make([]*wsConn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.connsMu.RUnlock()

	for _, c := range conns {
		c.close()
	}
}
