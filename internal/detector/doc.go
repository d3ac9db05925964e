// ABOUTME: Classification service package
// ABOUTME: Orchestrates local analysis or remote delegation for base64 audio
// Package detector turns a base64 audio payload into a classification result.
//
// In local mode the payload is decoded, reduced to an MFCC matrix, scored and
// classified in process. In delegated mode the payload is forwarded to a
// RemoteClassifier and its reply is normalized. Failures are reported inside
// the analysis.Result rather than as errors.
package detector
