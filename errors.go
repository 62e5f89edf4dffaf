// errors.go: structured error handling for flowsession tracker operations.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package flowsession

import (
	goerrors "errors"

	"github.com/agilira/go-errors"
)

// Error codes for flowsession operations.
const (
	// Configuration errors (1xxx)
	ErrCodeInvalidConfig errors.ErrorCode = "FLOWSESSION_INVALID_CONFIG"

	// Operation errors (2xxx)
	ErrCodeNilPayload     errors.ErrorCode = "FLOWSESSION_NIL_PAYLOAD"
	ErrCodeNilDestructor  errors.ErrorCode = "FLOWSESSION_NIL_DESTRUCTOR"
	ErrCodeClosed         errors.ErrorCode = "FLOWSESSION_CLOSED"
	ErrCodeProbeExhausted errors.ErrorCode = "FLOWSESSION_PROBE_EXHAUSTED"

	// Refresh-cycle errors (3xxx)
	ErrCodeAllocFailed errors.ErrorCode = "FLOWSESSION_ALLOC_FAILED"
)

const (
	msgInvalidConfig  = "invalid tracker configuration"
	msgNilPayload     = "payload must not be nil"
	msgNilDestructor  = "destructor must not be nil"
	msgClosed         = "operation attempted on a closed tracker"
	msgProbeExhausted = "probe traversed the entire table without finding a match or an insertable slot"
	msgAllocFailed    = "standby table allocation failed; refresh cycle skipped"
)

// NewErrInvalidConfig creates an error for a configuration that cannot be
// repaired by defaulting.
func NewErrInvalidConfig(reason string) error {
	return errors.NewWithField(ErrCodeInvalidConfig, msgInvalidConfig, "reason", reason)
}

// NewErrNilPayload creates an error for an Insert call with a nil payload.
func NewErrNilPayload() error {
	return errors.NewWithContext(ErrCodeNilPayload, msgNilPayload, map[string]interface{}{})
}

// NewErrNilDestructor creates an error for a New call with a nil
// destructor.
func NewErrNilDestructor() error {
	return errors.NewWithContext(ErrCodeNilDestructor, msgNilDestructor, map[string]interface{}{})
}

// NewErrClosed creates an error for an operation attempted after Close.
func NewErrClosed(operation string) error {
	return errors.NewWithField(ErrCodeClosed, msgClosed, "operation", operation)
}

// NewErrProbeExhausted creates the defensive error returned when a probe
// traverses the whole table without resolving — unreachable while
// inserted <= maxInserts <= capacity holds.
func NewErrProbeExhausted() error {
	return errors.NewWithContext(ErrCodeProbeExhausted, msgProbeExhausted, map[string]interface{}{})
}

// NewErrAllocFailed creates an error describing a skipped refresh cycle.
// This is not fatal: the tracker keeps serving from its current active
// table and retries at the next refresh period.
func NewErrAllocFailed(rows uint64, cause error) error {
	e := errors.NewWithField(ErrCodeAllocFailed, msgAllocFailed, "requested_rows", rows).
		AsRetryable()
	if cause != nil {
		return errors.Wrap(cause, ErrCodeAllocFailed, msgAllocFailed).
			WithContext("requested_rows", rows).
			AsRetryable()
	}
	return e
}

// IsClosed reports whether err indicates an operation on a closed
// tracker.
func IsClosed(err error) bool {
	return errors.HasCode(err, ErrCodeClosed)
}

// IsConfigError reports whether err originated from Config.Validate.
func IsConfigError(err error) bool {
	return errors.HasCode(err, ErrCodeInvalidConfig)
}

// IsRetryable reports whether err can be retried — true for
// ErrCodeAllocFailed, since the worker retries automatically at the next
// refresh period regardless.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var retryable errors.Retryable
	if goerrors.As(err, &retryable) {
		return retryable.IsRetryable()
	}
	return false
}

// GetErrorCode extracts the error code from err, or "" if err does not
// carry one.
func GetErrorCode(err error) errors.ErrorCode {
	if err == nil {
		return ""
	}
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		return coder.ErrorCode()
	}
	return ""
}
