package errors

import (
	"context"
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrAgreementNotFound = errors.New("agreement not found")
	ErrLockBusy          = errors.New("operation already in progress")
	ErrTimeout           = errors.New("operation timed out")
	ErrInvalidRequest    = errors.New("invalid request")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeAgreementNotFound = "AGREEMENT_NOT_FOUND"
	ErrCodeDatabaseError     = "DATABASE_ERROR"
	ErrCodeLockError         = "LOCK_ERROR"
	ErrCodeLockBusy          = "LOCK_BUSY"
	ErrCodeTimeout           = "TIMEOUT"
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
)

// CodeOf returns the BusinessError code carried by err, or "" when there is none.
func CodeOf(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

func WrapAgreementNotFound(agreementID string) *BusinessError {
	return NewBusinessError(
		ErrCodeAgreementNotFound,
		fmt.Sprintf("Agreement with ID %s not found", agreementID),
		ErrAgreementNotFound,
	)
}

// WrapDatabaseError wraps a storage failure. Context deadline errors are
// reported as timeouts so callers see a single shape for both.
func WrapDatabaseError(err error) *BusinessError {
	if errors.Is(err, context.DeadlineExceeded) {
		return WrapTimeout(err)
	}
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

// WrapLockError wraps a lock backend failure. A deadline hit while talking
// to the backend is reported as a timeout.
func WrapLockError(err error) *BusinessError {
	if errors.Is(err, context.DeadlineExceeded) {
		return WrapTimeout(err)
	}
	return NewBusinessError(
		ErrCodeLockError,
		"lock operation failed",
		err,
	)
}

func WrapLockBusy(key string) *BusinessError {
	return NewBusinessError(
		ErrCodeLockBusy,
		fmt.Sprintf("lock %s is held by another worker", key),
		ErrLockBusy,
	)
}

func WrapTimeout(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeTimeout,
		"operation exceeded its time budget",
		errors.Join(ErrTimeout, err),
	)
}

func WrapInvalidRequest(message string, err error) *BusinessError {
	if err == nil {
		err = ErrInvalidRequest
	}
	return NewBusinessError(ErrCodeInvalidRequest, message, err)
}
