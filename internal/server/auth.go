// ABOUTME: Caller authentication for detection endpoints
// ABOUTME: Checks the API key by match or presence and renders failures as body or fault
package server

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/voicedetect/voicedetect-go/internal/config"
	"github.com/voicedetect/voicedetect-go/internal/detector"
	"github.com/voicedetect/voicedetect-go/internal/protocol"
	"go.uber.org/zap"
)

// Authenticator validates credentials on incoming requests
type Authenticator struct {
	key        []byte
	check      string
	failure    string
	allowQuery bool
}

// NewAuthenticator creates an Authenticator from the auth settings
func NewAuthenticator(cfg config.AuthConfig) *Authenticator {
	return &Authenticator{
		key:        []byte(cfg.APIKey),
		check:      cfg.Check,
		failure:    cfg.Failure,
		allowQuery: cfg.AllowQuery,
	}
}

// credential returns the key from the x-api-key header, falling back to the
// api_key query parameter
func (a *Authenticator) credential(r *http.Request) string {
	key := r.Header.Get(detector.APIKeyHeader)
	if key == "" && a.allowQuery {
		key = r.URL.Query().Get("api_key")
	}
	return key
}

// Verify returns nil for an acceptable credential, otherwise a KindAuth error
func (a *Authenticator) Verify(r *http.Request) error {
	key := a.credential(r)
	if key == "" {
		return &detector.Error{Kind: detector.KindAuth, Err: detector.ErrMissingAPIKey}
	}
	if a.check == config.CheckPresence {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(key), a.key) != 1 {
		return &detector.Error{Kind: detector.KindAuth, Err: detector.ErrInvalidAPIKey}
	}
	return nil
}

// Reject writes the configured failure response for err
func (a *Authenticator) Reject(w http.ResponseWriter, err error) {
	missing := errors.Is(err, detector.ErrMissingAPIKey)

	if a.failure == config.FailureFault {
		detail := "Invalid API key"
		if missing {
			detail = "Missing API key"
		}
		writeJSON(w, http.StatusUnauthorized, protocol.Detail{Detail: detail})
		return
	}

	msg := "Unauthorized: Invalid API Key"
	if missing {
		msg = "Unauthorized: Missing API Key"
	}
	writeJSON(w, http.StatusOK, map[string]string{"error": msg})
}

// Middleware rejects unauthenticated requests before the handler runs
func (a *Authenticator) Middleware(logger *zap.Logger, metrics *Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := a.Verify(r); err != nil {
				reason := "invalid"
				if errors.Is(err, detector.ErrMissingAPIKey) {
					reason = "missing"
				}
				if metrics != nil {
					metrics.authFailures.WithLabelValues(reason).Inc()
				}
				logger.Info("rejected credentials",
					zap.String("reason", reason),
					zap.String("path", r.URL.Path),
					zap.String("request_id", RequestIDFromContext(r.Context())),
				)
				a.Reject(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
