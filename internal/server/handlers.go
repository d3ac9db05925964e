// ABOUTME: HTTP handlers for detection, health and version
// ABOUTME: Parses JSON or legacy query requests and writes classification results
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/voicedetect/voicedetect-go/internal/detector"
	"github.com/voicedetect/voicedetect-go/internal/protocol"
	"github.com/voicedetect/voicedetect-go/internal/version"
	"github.com/voicedetect/voicedetect-go/pkg/analysis"
	"go.uber.org/zap"
)

// Transports recorded in metrics and stats
const (
	transportHTTP = "http"
	transportWS   = "ws"
)

const (
	detailMissingAudio  = "audioBase64 is required"
	detailInvalidBody   = "Request body must be a JSON object"
	detailBodyTooLarge  = "Request body too large"
	detailInvalidBase64 = "Invalid base64 audio"
)

// errRequestTooLarge marks bodies rejected by the size limit
var errRequestTooLarge = errors.New("request body too large")

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, protocol.Detail{Detail: detail})
}

// parseDetectRequest reads the JSON body, then fills empty fields from the
// legacy query parameters
func parseDetectRequest(r *http.Request) (protocol.DetectRequest, error) {
	var req protocol.DetectRequest

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, errRequestTooLarge
		}
		return req, err
	}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			return req, err
		}
	}

	q := r.URL.Query()
	if req.AudioBase64 == "" {
		req.AudioBase64 = q.Get("audio_base64")
	}
	if req.Language == "" {
		req.Language = q.Get("language")
	}
	if req.AudioFormat == "" {
		req.AudioFormat = q.Get("audio_format")
	}
	return req, nil
}

// handleDetect serves POST /detect
func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	req, err := parseDetectRequest(r)
	if err != nil {
		if errors.Is(err, errRequestTooLarge) {
			writeDetail(w, http.StatusRequestEntityTooLarge, detailBodyTooLarge)
			return
		}
		writeDetail(w, http.StatusUnprocessableEntity, detailInvalidBody)
		return
	}
	if req.AudioBase64 == "" {
		writeDetail(w, http.StatusUnprocessableEntity, detailMissingAudio)
		return
	}

	result, err := s.classify(r.Context(), req, transportHTTP)
	if err != nil {
		if detector.KindOf(err) == detector.KindInput {
			writeDetail(w, http.StatusUnprocessableEntity, detailInvalidBase64)
			return
		}
		s.logger.Error("classification failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// classify runs the classifier and records the outcome
func (s *Server) classify(ctx context.Context, req protocol.DetectRequest, transport string) (analysis.Result, error) {
	start := time.Now()
	result, err := s.classifier.Classify(ctx, req.AudioBase64, detector.Options{
		Language: req.Language,
		Format:   req.AudioFormat,
	})
	duration := time.Since(start)

	label := result.Label()
	if err != nil {
		label = "error"
	}
	s.metrics.ObserveDetection(transport, label, duration)
	s.stats.Record(Detection{
		Time:           start,
		Transport:      transport,
		Classification: label,
		Confidence:     result.Confidence,
		Duration:       duration,
		RequestID:      RequestIDFromContext(ctx),
	})
	s.updateTUI()

	s.logger.Debug("detection",
		zap.String("transport", transport),
		zap.String("classification", label),
		zap.Duration("duration", duration),
		zap.String("request_id", RequestIDFromContext(ctx)),
	)
	return result, err
}

type healthResponse struct {
	Status      string  `json:"status"`
	Mode        string  `json:"mode"`
	Uptime      float64 `json:"uptime_seconds"`
	Detections  int     `json:"detections"`
	Connections int     `json:"websocket_connections"`
}

// handleHealth serves GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if s.shuttingDown() {
		status = "shutting_down"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, healthResponse{
		Status:      status,
		Mode:        s.classifier.Mode(),
		Uptime:      time.Since(s.startTime).Seconds(),
		Detections:  s.stats.Snapshot().Total,
		Connections: s.connectionCount(),
	})
}

// handleVersion serves GET /version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, protocol.VersionInfo{
		Product:  version.Product,
		Version:  version.Version,
		Protocol: protocol.ProtocolVersion,
		Mode:     s.classifier.Mode(),
	})
}
