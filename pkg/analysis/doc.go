// ABOUTME: Variability scoring and classification policy package
// ABOUTME: Turns MFCC matrices into classification results
// Package analysis reduces a feature matrix to a single dispersion score and
// maps that score to a classification.
//
// Scorers and policies are independent strategies:
//
//	RawScorer + BinaryPolicy          std compared against a bare threshold
//	NormalizedScorer + TieredPolicy   clipped [0,1] score with an uncertain band
//
// Analyzer composes one of each.
package analysis
