// ABOUTME: Classification service
// ABOUTME: Runs the local MFCC pipeline or delegates to a remote classifier
package detector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/voicedetect/voicedetect-go/pkg/analysis"
	"github.com/voicedetect/voicedetect-go/pkg/audio/decode"
	"github.com/voicedetect/voicedetect-go/pkg/features"
	"go.uber.org/zap"
)

// Modes
const (
	ModeLocal     = "local"
	ModeDelegated = "delegated"
)

// Pipeline stages reported to an Observer
const (
	StageBase64   = "base64"
	StageDecode   = "decode"
	StageFeatures = "features"
	StageScore    = "score"
	StageRemote   = "remote"
)

// Delegated-mode explanations
const (
	ExplainInvalidBase64   = "Invalid base64 audio."
	ExplainUnreachable     = "Upstream service unreachable."
	ExplainUpstreamError   = "Upstream service error."
	ExplainInvalidResponse = "Upstream service returned invalid response."
)

const defaultLanguage = "en"

// Config holds service settings.
type Config struct {
	Mode        string
	StrictInput bool // delegated mode: invalid base64 is returned as a KindInput error
	TempDir     string
	Features    features.Config
	Scorer      string
	Policy      string
	Calibration analysis.Calibration
}

// DefaultConfig returns local mode with the binary policy on raw variability.
func DefaultConfig() Config {
	return Config{
		Mode:        ModeLocal,
		Features:    features.DefaultConfig(),
		Scorer:      analysis.ScorerRaw,
		Policy:      analysis.PolicyBinary,
		Calibration: analysis.DefaultCalibration(),
	}
}

// Options are per-request hints.
type Options struct {
	Language string
	Format   string
}

// Observer receives per-stage timings.
type Observer interface {
	ObserveStage(stage string, d time.Duration, err error)
}

// Dependencies are the collaborators of a Service. Remote is required in
// delegated mode; nil Logger and Observer are replaced by no-ops.
type Dependencies struct {
	Remote   RemoteClassifier
	Logger   *zap.Logger
	Observer Observer
}

// Service classifies base64 audio payloads. It holds no per-request state and
// is safe for concurrent use.
type Service struct {
	cfg       Config
	extractor *features.Extractor
	analyzer  *analysis.Analyzer
	remote    RemoteClassifier
	logger    *zap.Logger
	observer  Observer
}

// New creates a Service.
func New(cfg Config, deps Dependencies) (*Service, error) {
	s := &Service{
		cfg:      cfg,
		remote:   deps.Remote,
		logger:   deps.Logger,
		observer: deps.Observer,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.logger = s.logger.With(zap.String("component", "detector"), zap.String("mode", cfg.Mode))
	if s.observer == nil {
		s.observer = nopObserver{}
	}

	switch cfg.Mode {
	case ModeLocal:
		extractor, err := features.New(cfg.Features)
		if err != nil {
			return nil, err
		}
		analyzer, err := analysis.NewAnalyzer(cfg.Scorer, cfg.Policy, cfg.Calibration)
		if err != nil {
			return nil, err
		}
		s.extractor = extractor
		s.analyzer = analyzer
	case ModeDelegated:
		if deps.Remote == nil {
			return nil, ErrNoRemote
		}
	default:
		return nil, fmt.Errorf("%w: %q (supported: local, delegated)", ErrUnsupportedMode, cfg.Mode)
	}
	return s, nil
}

// Mode returns the configured mode.
func (s *Service) Mode() string {
	return s.cfg.Mode
}

// Classify produces a result for payload. Failures are reported inside the
// result; the only returned error is a KindInput *Error in strict delegated mode.
func (s *Service) Classify(ctx context.Context, payload string, opts Options) (analysis.Result, error) {
	if s.cfg.Mode == ModeDelegated {
		return s.delegate(ctx, payload, opts)
	}
	return s.classifyLocal(payload, opts), nil
}

func (s *Service) classifyLocal(payload string, opts Options) analysis.Result {
	start := time.Now()
	data, err := DecodePayload(payload)
	s.observer.ObserveStage(StageBase64, time.Since(start), err)
	if err != nil {
		s.logger.Debug("rejected payload", zap.Error(err))
		return analysis.ErrorResult("Invalid base64 audio: " + err.Error())
	}

	start = time.Now()
	wave, format, err := decode.Decode(data, opts.Format, decode.Options{TempDir: s.cfg.TempDir})
	s.observer.ObserveStage(StageDecode, time.Since(start), err)
	if err != nil {
		return s.processingFailed(err)
	}

	start = time.Now()
	m, err := s.extractor.Extract(wave)
	s.observer.ObserveStage(StageFeatures, time.Since(start), err)
	if err != nil {
		return s.processingFailed(err)
	}

	start = time.Now()
	result, score, err := s.analyzer.Analyze(m)
	s.observer.ObserveStage(StageScore, time.Since(start), err)
	if err != nil {
		return s.processingFailed(err)
	}

	s.logger.Debug("classified",
		zap.String("classification", result.Classification),
		zap.Float64("score", score),
		zap.String("codec", format.Codec),
		zap.Int("sample_rate", wave.SampleRate),
		zap.Duration("audio_duration", wave.Duration()),
		zap.Int("frames", m.Frames),
	)
	return result
}

func (s *Service) processingFailed(err error) analysis.Result {
	s.logger.Info("audio processing failed",
		zap.String("kind", KindOf(err).String()),
		zap.Error(err),
	)
	return analysis.ErrorResult("Audio processing failed: " + err.Error())
}

func (s *Service) delegate(ctx context.Context, payload string, opts Options) (analysis.Result, error) {
	start := time.Now()
	_, err := DecodePayload(payload)
	s.observer.ObserveStage(StageBase64, time.Since(start), err)
	if err != nil {
		if s.cfg.StrictInput {
			return analysis.Result{}, &Error{Kind: KindInput, Err: err}
		}
		return analysis.UnknownResult(ExplainInvalidBase64, nil), nil
	}

	req := RemoteRequest{Audio: payload, Language: LanguageCode(opts.Language)}

	// The upstream call runs to completion even if the caller goes away
	start = time.Now()
	resp, err := s.remote.Post(context.WithoutCancel(ctx), req)
	s.observer.ObserveStage(StageRemote, time.Since(start), err)
	if errors.Is(err, ErrTooLarge) {
		s.logger.Warn("upstream response too large", zap.Int("limit", MaxRemoteBody), zap.Error(err))
		return analysis.UnknownResult(ExplainInvalidResponse, map[string]any{
			"reason": fmt.Sprintf("response exceeds %d bytes", MaxRemoteBody),
		}), nil
	}
	if err != nil {
		s.logger.Warn("upstream unreachable", zap.Error(err))
		return analysis.UnknownResult(ExplainUnreachable, nil), nil
	}

	if resp.Status < 200 || resp.Status > 299 {
		s.logger.Warn("upstream error", zap.Int("status", resp.Status))
		return analysis.UnknownResult(ExplainUpstreamError, map[string]any{
			"status": resp.Status,
			"body":   string(resp.Body),
		}), nil
	}

	if !json.Valid(resp.Body) {
		s.logger.Warn("upstream returned invalid json", zap.Int("bytes", len(resp.Body)))
		return analysis.UnknownResult(ExplainInvalidResponse, nil), nil
	}

	var result analysis.Result
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		result = analysis.Result{Raw: resp.Body}
	}
	return result, nil
}

// LanguageCode returns the first two characters of hint, or "en" when empty.
func LanguageCode(hint string) string {
	if hint == "" {
		return defaultLanguage
	}
	if utf8.RuneCountInString(hint) <= 2 {
		return hint
	}
	r := []rune(hint)
	return string(r[:2])
}

type nopObserver struct{}

func (nopObserver) ObserveStage(string, time.Duration, error) {}
