package qcli

import (
	"errors"
	"fmt"
	"time"
)

// TimeoutError reports an attempt whose process outlived its deadline and
// was killed. Retryable: a later attempt may complete in time.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("amazon q cli command timed out after %s", e.Timeout)
}

// NotFoundError reports that the configured CLI executable could not be
// spawned because it does not exist. Retried like other failures so the
// aggregated error can tell operators exactly which path was probed.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("amazon q cli not found at path: %s", e.Path)
}

// ExitError reports a process that ran to completion with a non-zero exit
// code. Retryable: transient credential or throttling errors surface this way.
type ExitError struct {
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("amazon q cli exited with code %d: %s", e.ExitCode, e.Detail())
}

// Detail returns the captured stderr, or a placeholder when the process
// failed silently.
func (e *ExitError) Detail() string {
	if e.Stderr == "" {
		return "command failed"
	}
	return e.Stderr
}

// InvocationError aggregates an exhausted retry cycle. Its message always
// names the configured executable path and the attempt count so operators
// can separate configuration problems from transient ones.
type InvocationError struct {
	Path     string
	Attempts int
	LastErr  error
}

func (e *InvocationError) Error() string {
	var notFound *NotFoundError
	if errors.As(e.LastErr, &notFound) {
		return fmt.Sprintf("amazon q cli not found at path %s after %d attempts: install the CLI or update the configured path", e.Path, e.Attempts)
	}
	var exit *ExitError
	if errors.As(e.LastErr, &exit) {
		return fmt.Sprintf("amazon q cli (%s) failed after %d attempts: %s: check AWS credentials and the CLI installation", e.Path, e.Attempts, exit.Detail())
	}
	return fmt.Sprintf("amazon q cli (%s) failed after %d attempts: %v: check AWS authentication and try again", e.Path, e.Attempts, e.LastErr)
}

func (e *InvocationError) Unwrap() error {
	return e.LastErr
}

// IsTimeout reports whether err is, or wraps, a TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
