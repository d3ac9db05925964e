// ABOUTME: MFCC feature extraction package
// ABOUTME: Computes librosa-compatible cepstral matrices from mono waveforms
// Package features computes MFCC feature matrices from decoded waveforms.
//
// The front-end matches librosa's feature.mfcc defaults so calibration
// constants tuned against it carry over:
//
//	FFTSize:      2048
//	HopSize:      512
//	Window:       periodic Hann, centered frames (zero padded)
//	NumMels:      128, Slaney scale, Slaney area normalization
//	FMin/FMax:    0 / sampleRate/2
//	dB floor:     amin 1e-10, ref 1.0, top_db 80
//	DCT:          type II, orthonormal, truncated to Coefficients
//
// Output is a Coefficients × Frames matrix where
// Frames = 1 + len(samples)/HopSize.
package features
