// errors_test.go: tests for structured error handling
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package flowsession

import (
	"encoding/json"
	goerrors "errors"
	"testing"

	"github.com/agilira/go-errors"
)

func TestErrorCodes(t *testing.T) {
	tests := []struct {
		name         string
		errFunc      func() error
		expectedCode errors.ErrorCode
		shouldRetry  bool
	}{
		{
			name:         "InvalidConfig",
			errFunc:      func() error { return NewErrInvalidConfig("min_rows must be <= max_rows") },
			expectedCode: ErrCodeInvalidConfig,
			shouldRetry:  false,
		},
		{
			name:         "NilPayload",
			errFunc:      func() error { return NewErrNilPayload() },
			expectedCode: ErrCodeNilPayload,
			shouldRetry:  false,
		},
		{
			name:         "NilDestructor",
			errFunc:      func() error { return NewErrNilDestructor() },
			expectedCode: ErrCodeNilDestructor,
			shouldRetry:  false,
		},
		{
			name:         "Closed",
			errFunc:      func() error { return NewErrClosed("Insert") },
			expectedCode: ErrCodeClosed,
			shouldRetry:  false,
		},
		{
			name:         "ProbeExhausted",
			errFunc:      func() error { return NewErrProbeExhausted() },
			expectedCode: ErrCodeProbeExhausted,
			shouldRetry:  false,
		},
		{
			name:         "AllocFailed",
			errFunc:      func() error { return NewErrAllocFailed(100003, nil) },
			expectedCode: ErrCodeAllocFailed,
			shouldRetry:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.errFunc()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.HasCode(err, tt.expectedCode) {
				t.Errorf("expected code %s, got %s", tt.expectedCode, GetErrorCode(err))
			}
			if IsRetryable(err) != tt.shouldRetry {
				t.Errorf("expected retryable=%v, got %v", tt.shouldRetry, IsRetryable(err))
			}
			if err.Error() == "" {
				t.Error("error message should not be empty")
			}
		})
	}
}

func TestErrAllocFailedWrapsCause(t *testing.T) {
	cause := goerrors.New("out of memory")
	err := NewErrAllocFailed(200003, cause)

	if !IsRetryable(err) {
		t.Error("wrapped alloc-failed error should still be retryable")
	}
	rootCause := errors.RootCause(err)
	if rootCause.Error() != cause.Error() {
		t.Errorf("expected root cause %q, got %q", cause.Error(), rootCause.Error())
	}
}

func TestIsClosed(t *testing.T) {
	if !IsClosed(NewErrClosed("Lookup")) {
		t.Error("IsClosed should return true for a closed-tracker error")
	}
	if IsClosed(NewErrNilPayload()) {
		t.Error("IsClosed should return false for an unrelated error")
	}
	if IsClosed(nil) {
		t.Error("IsClosed should return false for nil")
	}
}

func TestIsConfigError(t *testing.T) {
	if !IsConfigError(NewErrInvalidConfig("bad")) {
		t.Error("IsConfigError should return true for an invalid-config error")
	}
	if IsConfigError(NewErrClosed("Insert")) {
		t.Error("IsConfigError should return false for an unrelated error")
	}
}

func TestGetErrorCode(t *testing.T) {
	if GetErrorCode(nil) != "" {
		t.Error("expected empty string for nil error")
	}

	stdErr := goerrors.New("standard error")
	if GetErrorCode(stdErr) != "" {
		t.Error("expected empty string for a plain error")
	}

	err := NewErrClosed("Clear")
	if GetErrorCode(err) != ErrCodeClosed {
		t.Errorf("expected code %s, got %s", ErrCodeClosed, GetErrorCode(err))
	}
}

func TestErrorJSONSerialization(t *testing.T) {
	err := NewErrInvalidConfig("min_rows must be <= max_rows")

	var flowErr *errors.Error
	if !goerrors.As(err, &flowErr) {
		t.Fatal("expected *errors.Error type")
	}

	data, jsonErr := json.Marshal(flowErr)
	if jsonErr != nil {
		t.Fatalf("JSON marshal failed: %v", jsonErr)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("JSON unmarshal failed: %v", err)
	}

	if decoded["code"] != string(ErrCodeInvalidConfig) {
		t.Errorf("expected code %q in JSON, got %v", ErrCodeInvalidConfig, decoded["code"])
	}
	if decoded["message"] == "" {
		t.Error("expected non-empty message in JSON")
	}
}

func BenchmarkErrorCreation(b *testing.B) {
	b.Run("Simple", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = NewErrClosed("Insert")
		}
	})

	b.Run("WithField", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = NewErrAllocFailed(100003, nil)
		}
	})

	b.Run("Wrapped", func(b *testing.B) {
		cause := goerrors.New("underlying error")
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_ = NewErrAllocFailed(100003, cause)
		}
	})
}

func BenchmarkErrorChecking(b *testing.B) {
	err := NewErrAllocFailed(100003, nil)

	b.Run("HasCode", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = errors.HasCode(err, ErrCodeAllocFailed)
		}
	})

	b.Run("IsRetryable", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = IsRetryable(err)
		}
	})

	b.Run("GetErrorCode", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = GetErrorCode(err)
		}
	})
}
