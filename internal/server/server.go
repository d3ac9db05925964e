// ABOUTME: Main server implementation for the voice detection service
// ABOUTME: Wires routes and middleware, manages lifecycle, mDNS and the dashboard
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/voicedetect/voicedetect-go/internal/config"
	"github.com/voicedetect/voicedetect-go/internal/detector"
	"github.com/voicedetect/voicedetect-go/internal/discovery"
	"github.com/voicedetect/voicedetect-go/pkg/analysis"
	"go.uber.org/zap"
)

// Classifier is the pipeline the server fronts
type Classifier interface {
	Classify(ctx context.Context, payload string, opts detector.Options) (analysis.Result, error)
	Mode() string
}

// Server represents the detection server
type Server struct {
	config     *config.Config
	serverID   string
	classifier Classifier
	logger     *zap.Logger
	auth       *Authenticator
	metrics    *Metrics
	stats      *Stats

	// WebSocket upgrader
	upgrader websocket.Upgrader

	// HTTP server
	httpServer *http.Server
	mux        *http.ServeMux
	handler    http.Handler
	addr       net.Addr
	addrMu     sync.RWMutex
	ready      chan struct{}

	// WebSocket connections
	conns   map[string]*wsConn
	connsMu sync.RWMutex

	// mDNS discovery
	mdnsManager *discovery.Manager

	// TUI
	tui       *ServerTUI
	startTime time.Time

	// Control
	baseCtx    context.Context
	baseCancel context.CancelFunc
	stopChan   chan struct{}
	stopOnce   sync.Once
	shutdownMu sync.RWMutex
	isShutdown bool
	wg         sync.WaitGroup
}

// New creates a server. A nil metrics gets a fresh registry.
func New(cfg *config.Config, classifier Classifier, metrics *Metrics, logger *zap.Logger) *Server {
	if metrics == nil {
		metrics = NewMetrics()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Server.Name == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		cfg.Server.Name = hostname + "-voicedetect"
	}
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		config:     cfg,
		serverID:   uuid.New().String(),
		classifier: classifier,
		logger:     logger.With(zap.String("component", "server")),
		auth:       NewAuthenticator(cfg.Auth),
		metrics:    metrics,
		stats:      NewStats(),
		mux:        http.NewServeMux(),
		ready:      make(chan struct{}),
		conns:      make(map[string]*wsConn),
		startTime:  time.Now(),
		baseCtx:    ctx,
		baseCancel: cancel,
		stopChan:   make(chan struct{}),
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			// Non-browser clients send no Origin; browsers are accepted but logged
			if origin := r.Header.Get("Origin"); origin != "" {
				s.logger.Debug("accepting WebSocket origin", zap.String("origin", origin))
			}
			return true
		},
	}
	s.routes()
	return s
}

// routes registers handlers and builds the middleware chain
func (s *Server) routes() {
	cfg := s.config.Server

	detectChain := []Middleware{}
	if cfg.RateLimit > 0 {
		detectChain = append(detectChain, RateLimiter(s.baseCtx, cfg.RateLimit, cfg.RateBurst, s.metrics))
	}
	detectChain = append(detectChain, s.auth.Middleware(s.logger, s.metrics))

	s.mux.Handle("POST /detect", Chain(http.HandlerFunc(s.handleDetect),
		append(append([]Middleware{}, detectChain...), MaxBytes(cfg.MaxBodyBytes))...))
	s.mux.Handle("GET /detect/ws", Chain(http.HandlerFunc(s.handleWebSocket), detectChain...))
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /version", s.handleVersion)
	s.mux.Handle("GET /metrics", s.metrics.Handler())

	s.handler = Chain(s.mux,
		Recovery(s.logger),
		RequestID(),
		RequestLogger(s.logger, s.metrics),
	)
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Stats returns the detection statistics
func (s *Server) Stats() StatsSnapshot {
	return s.stats.Snapshot()
}

// Addr returns the listening address once Start has bound it
func (s *Server) Addr() net.Addr {
	s.addrMu.RLock()
	defer s.addrMu.RUnlock()
	return s.addr
}

// Ready is closed when the listener is bound
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Start runs the server until Stop, a TUI quit or a listener error
func (s *Server) Start() error {
	cfg := s.config.Server

	if cfg.UseTUI {
		s.tui = NewServerTUI(cfg.Name, cfg.Port, s.classifier.Mode())

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.tui.Start(); err != nil {
				s.logger.Error("TUI error", zap.Error(err))
			}
		}()
	}

	s.logger.Info("server starting",
		zap.String("name", cfg.Name),
		zap.String("id", s.serverID),
		zap.String("mode", s.classifier.Mode()),
	)

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		s.shutdownTUI()
		s.wg.Wait()
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.addrMu.Lock()
	s.addr = ln.Addr()
	s.addrMu.Unlock()
	close(s.ready)

	if cfg.EnableMDNS {
		port := cfg.Port
		if tcp, ok := ln.Addr().(*net.TCPAddr); ok {
			port = tcp.Port
		}
		s.mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: cfg.Name,
			Port:        port,
			TXT:         []string{"mode=" + s.classifier.Mode()},
			Logger:      s.logger,
		})
		if err := s.mdnsManager.Advertise(); err != nil {
			s.logger.Warn("failed to start mDNS advertisement", zap.Error(err))
		}
	}

	s.httpServer = &http.Server{
		Handler:      s.handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return s.baseCtx },
	}

	s.logger.Info("HTTP server listening", zap.String("addr", ln.Addr().String()))

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	var serverErr error
	var tuiQuitChan <-chan struct{}
	if s.tui != nil {
		tuiQuitChan = s.tui.QuitChan()
	}

	select {
	case <-s.stopChan:
		s.logger.Info("server shutting down")
	case <-tuiQuitChan:
		s.logger.Info("TUI quit requested, shutting down")
	case err := <-errChan:
		s.logger.Error("HTTP server error", zap.Error(err))
		serverErr = err
	}

	// Reject new WebSocket connections
	s.shutdownMu.Lock()
	s.isShutdown = true
	s.shutdownMu.Unlock()

	s.shutdownTUI()

	if s.mdnsManager != nil {
		s.mdnsManager.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Warn("HTTP server shutdown error", zap.Error(err))
	}
	s.closeConnections()
	s.baseCancel()

	s.wg.Wait()
	s.logger.Info("server stopped cleanly")

	if serverErr != nil {
		return fmt.Errorf("HTTP server failed: %w", serverErr)
	}
	return nil
}

// Stop stops the server
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

func (s *Server) shutdownTUI() {
	if s.tui != nil {
		s.tui.Stop()
	}
}

func (s *Server) shuttingDown() bool {
	s.shutdownMu.RLock()
	defer s.shutdownMu.RUnlock()
	return s.isShutdown
}
