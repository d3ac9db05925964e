// ABOUTME: Service configuration
// ABOUTME: Defines the config tree, defaults, validation and conversions
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/voicedetect/voicedetect-go/internal/detector"
	"github.com/voicedetect/voicedetect-go/internal/logging"
	"github.com/voicedetect/voicedetect-go/pkg/analysis"
	"github.com/voicedetect/voicedetect-go/pkg/features"
)

// Auth check modes
const (
	CheckMatch    = "match"
	CheckPresence = "presence"
)

// Auth failure modes
const (
	FailureBody  = "body"
	FailureFault = "fault"
)

// Config is the complete service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" env:"SERVER"`
	Detector DetectorConfig `yaml:"detector" env:"DETECTOR"`
	Remote   RemoteConfig   `yaml:"remote" env:"REMOTE"`
	Auth     AuthConfig     `yaml:"auth" env:"AUTH"`
	Log      LogConfig      `yaml:"log" env:"LOG"`
}

// ServerConfig covers the HTTP listener and its extras.
type ServerConfig struct {
	Name            string        `yaml:"name" env:"NAME"`
	Port            int           `yaml:"port" env:"PORT"`
	EnableMDNS      bool          `yaml:"mdns" env:"MDNS"`
	UseTUI          bool          `yaml:"tui" env:"TUI"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" env:"MAX_BODY_BYTES"`
	RateLimit       float64       `yaml:"rate_limit" env:"RATE_LIMIT"` // requests per second per client IP, 0 disables
	RateBurst       int           `yaml:"rate_burst" env:"RATE_BURST"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// DetectorConfig selects the classification strategy and its tunables.
type DetectorConfig struct {
	Mode         string  `yaml:"mode" env:"MODE"`
	Scorer       string  `yaml:"scorer" env:"SCORER"`
	Policy       string  `yaml:"policy" env:"POLICY"`
	StrictInput  bool    `yaml:"strict_input" env:"STRICT_INPUT"`
	TempDir      string  `yaml:"temp_dir" env:"TEMP_DIR"`
	Coefficients int     `yaml:"coefficients" env:"COEFFICIENTS"`
	FFTSize      int     `yaml:"fft_size" env:"FFT_SIZE"`
	HopSize      int     `yaml:"hop_size" env:"HOP_SIZE"`
	NumMels      int     `yaml:"num_mels" env:"NUM_MELS"`
	TopDB        float64 `yaml:"top_db" env:"TOP_DB"`
	MinVar       float64 `yaml:"min_var" env:"MIN_VAR"`
	MaxVar       float64 `yaml:"max_var" env:"MAX_VAR"`
	Threshold    float64 `yaml:"threshold" env:"THRESHOLD"`
	Lower        float64 `yaml:"lower" env:"LOWER"`
	Upper        float64 `yaml:"upper" env:"UPPER"`
}

// RemoteConfig points delegated mode at an upstream classifier.
type RemoteConfig struct {
	Endpoint string        `yaml:"endpoint" env:"ENDPOINT"`
	APIKey   string        `yaml:"api_key" env:"API_KEY"`
	Timeout  time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// AuthConfig controls caller authentication.
type AuthConfig struct {
	APIKey     string `yaml:"api_key" env:"API_KEY"`
	Check      string `yaml:"check" env:"CHECK"`
	Failure    string `yaml:"failure" env:"FAILURE"`
	AllowQuery bool   `yaml:"allow_query" env:"ALLOW_QUERY"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
	File   string `yaml:"file" env:"FILE"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	feat := features.DefaultConfig()
	cal := analysis.DefaultCalibration()
	return &Config{
		Server: ServerConfig{
			Port:            8000,
			EnableMDNS:      true,
			MaxBodyBytes:    32 << 20,
			RateLimit:       10,
			RateBurst:       20,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Detector: DetectorConfig{
			Mode:         detector.ModeLocal,
			Scorer:       analysis.ScorerRaw,
			Policy:       analysis.PolicyBinary,
			Coefficients: feat.Coefficients,
			FFTSize:      feat.FFTSize,
			HopSize:      feat.HopSize,
			NumMels:      feat.NumMels,
			TopDB:        feat.TopDB,
			MinVar:       cal.MinVar,
			MaxVar:       cal.MaxVar,
			Threshold:    cal.Threshold,
			Lower:        cal.Lower,
			Upper:        cal.Upper,
		},
		Remote: RemoteConfig{
			Timeout: detector.DefaultRemoteTimeout,
		},
		Auth: AuthConfig{
			Check:      CheckMatch,
			Failure:    FailureBody,
			AllowQuery: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: logging.FormatJSON,
		},
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid server port %d", c.Server.Port))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, "max_body_bytes must be positive")
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, "rate_limit must not be negative")
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst <= 0 {
		errs = append(errs, "rate_burst must be positive when rate limiting")
	}

	d := c.Detector
	switch d.Mode {
	case detector.ModeLocal:
		if _, err := analysis.NewAnalyzer(d.Scorer, d.Policy, c.calibration()); err != nil {
			errs = append(errs, err.Error())
		}
		if err := c.featureConfig().Validate(); err != nil {
			errs = append(errs, err.Error())
		}
	case detector.ModeDelegated:
		if c.Remote.Endpoint == "" {
			errs = append(errs, "delegated mode requires remote.endpoint")
		}
		if c.Remote.Timeout <= 0 {
			errs = append(errs, "remote.timeout must be positive")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown detector mode %q (supported: local, delegated)", d.Mode))
	}

	switch c.Auth.Check {
	case CheckMatch:
		if c.Auth.APIKey == "" {
			errs = append(errs, "auth.check match requires auth.api_key")
		}
	case CheckPresence:
	default:
		errs = append(errs, fmt.Sprintf("unknown auth check %q (supported: match, presence)", c.Auth.Check))
	}
	switch c.Auth.Failure {
	case FailureBody, FailureFault:
	default:
		errs = append(errs, fmt.Sprintf("unknown auth failure %q (supported: body, fault)", c.Auth.Failure))
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Log.Format != logging.FormatJSON && c.Log.Format != logging.FormatConsole {
		errs = append(errs, fmt.Sprintf("unknown log format %q (supported: json, console)", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) featureConfig() features.Config {
	cfg := features.DefaultConfig()
	cfg.Coefficients = c.Detector.Coefficients
	cfg.FFTSize = c.Detector.FFTSize
	cfg.HopSize = c.Detector.HopSize
	cfg.NumMels = c.Detector.NumMels
	cfg.TopDB = c.Detector.TopDB
	return cfg
}

func (c *Config) calibration() analysis.Calibration {
	return analysis.Calibration{
		MinVar:    c.Detector.MinVar,
		MaxVar:    c.Detector.MaxVar,
		Threshold: c.Detector.Threshold,
		Lower:     c.Detector.Lower,
		Upper:     c.Detector.Upper,
	}
}

// DetectorService converts the detector section into service settings.
func (c *Config) DetectorService() detector.Config {
	return detector.Config{
		Mode:        c.Detector.Mode,
		StrictInput: c.Detector.StrictInput,
		TempDir:     c.Detector.TempDir,
		Features:    c.featureConfig(),
		Scorer:      c.Detector.Scorer,
		Policy:      c.Detector.Policy,
		Calibration: c.calibration(),
	}
}

// Logging converts the log section. Console output is suppressed while the
// dashboard owns the terminal.
func (c *Config) Logging() logging.Config {
	return logging.Config{
		Level:   c.Log.Level,
		Format:  c.Log.Format,
		File:    c.Log.File,
		Console: !c.Server.UseTUI,
	}
}
