package coordinator

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes a SyncError. The values travel to clients unchanged.
type ErrorCode string

const (
	CodeValidation       ErrorCode = "VALIDATION_ERROR"
	CodeVersionConflict  ErrorCode = "VERSION_CONFLICT"
	CodeManualResolution ErrorCode = "MANUAL_RESOLUTION_REQUIRED"
	CodeStorage          ErrorCode = "STORAGE_UNAVAILABLE"
	CodeLockTimeout      ErrorCode = "LOCK_TIMEOUT"
	CodeFanout           ErrorCode = "FANOUT_DELIVERY"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeApplyFailed      ErrorCode = "APPLY_FAILED"
	CodeInternal         ErrorCode = "INTERNAL_ERROR"
)

// SyncError is the error type surfaced by the coordinator.
type SyncError struct {
	Code    ErrorCode
	Message string
	Err     error
}

var (
	ErrValidation         = &SyncError{Code: CodeValidation, Message: "invalid mutation"}
	ErrVersionConflict    = &SyncError{Code: CodeVersionConflict, Message: "version conflict"}
	ErrLockTimeout        = &SyncError{Code: CodeLockTimeout, Message: "timed out waiting for commit lock"}
	ErrStorageUnavailable = &SyncError{Code: CodeStorage, Message: "storage unavailable"}
	ErrNotFound           = &SyncError{Code: CodeNotFound, Message: "not found"}
)

func newError(code ErrorCode, err error, format string, args ...any) *SyncError {
	return &SyncError{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

func (e *SyncError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// Is matches any SyncError with the same code, so callers can compare with
// the package sentinels.
func (e *SyncError) Is(target error) bool {
	t, ok := target.(*SyncError)
	return ok && t.Code == e.Code
}

// Retryable reports whether the same request may succeed when sent again.
func (e *SyncError) Retryable() bool {
	switch e.Code {
	case CodeStorage, CodeLockTimeout:
		return true
	}
	return false
}

// CodeOf returns the code of the first SyncError in err's chain, or
// CodeInternal when there is none.
func CodeOf(err error) ErrorCode {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Code
	}
	return CodeInternal
}
