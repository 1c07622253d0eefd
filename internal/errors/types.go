// internal/errors/types.go

// Package errors defines the pipeline failure taxonomy and a retry service
// with exponential backoff and per-operation circuit breakers.
//
// The taxonomy separates four classes with different propagation rules:
//
//   - TransientError: network or vendor overload; safe to retry or to
//     skip-and-continue at record granularity.
//   - ResolutionError: both direct and fallback video resolution failed;
//     the record is kept, marked unresolved, and excluded from analysis.
//   - ConfigError: malformed configuration; fatal, aborts the run before
//     any external call is made.
//   - RecordError: one record's stage failure; isolated, never propagates
//     to sibling records.
package errors

import (
	"errors"
	"fmt"

	"github.com/socialpulse/viralpipe/pkg/types"
)

// TransientError marks a failure of an external call that is safe to retry.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient failure in %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// NewTransient wraps err as a transient external failure.
func NewTransient(op string, err error) error {
	return &TransientError{Op: op, Err: err}
}

// ResolutionError marks a permanent video resolution failure: the direct
// fetch and the fallback both failed for the given post.
type ResolutionError struct {
	PostID string
	Direct error
	Fallback error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("video resolution failed for post %s: direct: %v; fallback: %v",
		e.PostID, e.Direct, e.Fallback)
}

// ConfigError marks a configuration problem. Configuration errors are fatal
// and abort the run before any external call.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("configuration error in %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("configuration error: %v", e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfig wraps err as a fatal configuration error.
func NewConfig(field string, err error) error {
	return &ConfigError{Field: field, Err: err}
}

// NewConfigf creates a fatal configuration error from a format string.
func NewConfigf(field, format string, args ...interface{}) error {
	return &ConfigError{Field: field, Err: fmt.Errorf(format, args...)}
}

// RecordError marks a per-record stage failure. It carries enough context for
// run-summary accounting while the batch continues.
type RecordError struct {
	Stage  types.Stage
	PostID string
	Err    error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %s failed in stage %s: %v", e.PostID, e.Stage, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// NewRecord wraps err as an isolated per-record failure.
func NewRecord(stage types.Stage, postID string, err error) error {
	return &RecordError{Stage: stage, PostID: postID, Err: err}
}

// IsTransient reports whether err (or any error it wraps) is transient.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsConfig reports whether err is a configuration error.
func IsConfig(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsResolution reports whether err is a permanent resolution failure.
func IsResolution(err error) bool {
	var re *ResolutionError
	return errors.As(err, &re)
}
