package domain

import (
	"errors"
	"fmt"
)

// FailureKind classifies caller-visible failures of the pipeline operations.
type FailureKind string

const (
	// InvalidIdentifier means the input could not be parsed. Never retried.
	InvalidIdentifier FailureKind = "invalid_identifier"
	// UpstreamUnavailable means an external dependency returned a network
	// error or a non-2xx response. Safe to retry with backoff.
	UpstreamUnavailable FailureKind = "upstream_unavailable"
	// NoCandidates means the match universe was empty.
	NoCandidates FailureKind = "no_candidates"
	// MalformedScorerOutput means the scorer response failed to parse as the
	// expected schema. Nothing is persisted in that case.
	MalformedScorerOutput FailureKind = "malformed_scorer_output"
	// NotFound means a referenced project, job or match does not exist.
	NotFound FailureKind = "not_found"
)

// Failure is a typed, caller-visible error with a kind and a readable message.
type Failure struct {
	Kind    FailureKind
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// NewFailure builds a failure of the given kind wrapping an optional cause.
func NewFailure(kind FailureKind, message string, cause error) *Failure {
	return &Failure{Kind: kind, Message: message, Err: cause}
}

// Failf builds a failure with a formatted message and no cause.
func Failf(kind FailureKind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the failure kind carried by err, or "" for plain errors.
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}

// IsKind reports whether err carries the given failure kind.
func IsKind(err error, kind FailureKind) bool {
	return KindOf(err) == kind
}
