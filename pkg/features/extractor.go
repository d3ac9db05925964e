// ABOUTME: MFCC extractor
// ABOUTME: Frames, windows, projects onto mel bands and applies the DCT
package features

import (
	"errors"
	"fmt"
	"math"

	"github.com/voicedetect/voicedetect-go/pkg/audio"
	"gonum.org/v1/gonum/dsp/fourier"
)

// ErrDegenerateWaveform is returned for waveforms that cannot be analyzed.
var ErrDegenerateWaveform = errors.New("degenerate waveform")

// Power-to-dB constants
const (
	powerFloor = 1e-10
	powerRef   = 1.0
)

// Config holds MFCC extraction parameters.
type Config struct {
	Coefficients int     // cepstral coefficients kept per frame (13 or 20 in deployments)
	FFTSize      int     // window and FFT length in samples
	HopSize      int     // frame advance in samples
	NumMels      int     // mel bands
	FMin         float64 // lowest filter edge in Hz
	FMax         float64 // highest filter edge in Hz, 0 means sampleRate/2
	TopDB        float64 // dynamic range below the peak, <= 0 disables
}

// DefaultConfig returns the librosa defaults with 13 coefficients.
func DefaultConfig() Config {
	return Config{
		Coefficients: 13,
		FFTSize:      2048,
		HopSize:      512,
		NumMels:      128,
		FMin:         0,
		FMax:         0,
		TopDB:        80,
	}
}

// Validate checks the configuration for values the extractor cannot use.
func (c Config) Validate() error {
	if c.Coefficients <= 0 {
		return fmt.Errorf("coefficients must be positive, got %d", c.Coefficients)
	}
	if c.NumMels <= 0 {
		return fmt.Errorf("num mels must be positive, got %d", c.NumMels)
	}
	if c.Coefficients > c.NumMels {
		return fmt.Errorf("coefficients (%d) exceed mel bands (%d)", c.Coefficients, c.NumMels)
	}
	if c.FFTSize < 2 || c.FFTSize%2 != 0 {
		return fmt.Errorf("fft size must be even and at least 2, got %d", c.FFTSize)
	}
	if c.HopSize <= 0 {
		return fmt.Errorf("hop size must be positive, got %d", c.HopSize)
	}
	if c.FMin < 0 || (c.FMax > 0 && c.FMax <= c.FMin) {
		return fmt.Errorf("invalid frequency range [%g, %g]", c.FMin, c.FMax)
	}
	return nil
}

// Extractor computes MFCC matrices. The precomputed window and DCT basis are
// read-only, so one Extractor may be shared between goroutines.
type Extractor struct {
	cfg    Config
	window []float64
	dct    [][]float64
}

// New creates an Extractor for cfg.
func New(cfg Config) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid feature config: %w", err)
	}
	return &Extractor{
		cfg:    cfg,
		window: hannWindow(cfg.FFTSize),
		dct:    dctBasis(cfg.Coefficients, cfg.NumMels),
	}, nil
}

// Config returns the extractor configuration.
func (e *Extractor) Config() Config {
	return e.cfg
}

// Extract is a convenience wrapper that builds an Extractor for one call.
func Extract(w *audio.Waveform, cfg Config) (*Matrix, error) {
	e, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return e.Extract(w)
}

// Extract computes the Coefficients × Frames MFCC matrix of w.
func (e *Extractor) Extract(w *audio.Waveform) (*Matrix, error) {
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDegenerateWaveform, err)
	}
	for i, s := range w.Samples {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return nil, fmt.Errorf("%w: non-finite sample at %d", ErrDegenerateWaveform, i)
		}
	}

	cfg := e.cfg
	fmax := cfg.FMax
	if fmax <= 0 {
		fmax = float64(w.SampleRate) / 2
	}
	if fmax <= cfg.FMin {
		return nil, fmt.Errorf("%w: sample rate %d below fmin %g", ErrDegenerateWaveform, w.SampleRate, cfg.FMin)
	}

	bank := melFilterBank(cfg.NumMels, cfg.FFTSize, w.SampleRate, cfg.FMin, fmax)
	melDB := e.melSpectrogramDB(w.Samples, bank)
	frames := len(melDB)

	m := NewMatrix(cfg.Coefficients, frames)
	for t, bands := range melDB {
		for c, basis := range e.dct {
			sum := 0.0
			for i, v := range bands {
				sum += basis[i] * v
			}
			m.Set(c, t, sum)
		}
	}
	return m, nil
}

// melSpectrogramDB returns the log-mel spectrogram as [frame][band].
func (e *Extractor) melSpectrogramDB(samples []float64, bank []melFilter) [][]float64 {
	n := e.cfg.FFTSize
	hop := e.cfg.HopSize

	// Centered frames: n/2 zeros on both sides
	padded := make([]float64, len(samples)+n)
	copy(padded[n/2:], samples)
	frames := 1 + (len(padded)-n)/hop

	fft := fourier.NewFFT(n)
	frame := make([]float64, n)
	power := make([]float64, n/2+1)
	var coeffs []complex128

	out := make([][]float64, frames)
	peak := math.Inf(-1)
	for t := 0; t < frames; t++ {
		start := t * hop
		for i := 0; i < n; i++ {
			frame[i] = padded[start+i] * e.window[i]
		}
		coeffs = fft.Coefficients(coeffs, frame)
		for k, c := range coeffs {
			re, im := real(c), imag(c)
			power[k] = re*re + im*im
		}

		bands := make([]float64, len(bank))
		for b, f := range bank {
			db := 10*math.Log10(math.Max(powerFloor, f.apply(power))) - 10*math.Log10(math.Max(powerFloor, powerRef))
			bands[b] = db
			if db > peak {
				peak = db
			}
		}
		out[t] = bands
	}

	if e.cfg.TopDB > 0 {
		floor := peak - e.cfg.TopDB
		for _, bands := range out {
			for b, v := range bands {
				if v < floor {
					bands[b] = floor
				}
			}
		}
	}
	return out
}
