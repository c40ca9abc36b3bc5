package service

import (
	"errors"
	"log/slog"

	"github.com/jiashuyu/belay/internal/metrics"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidReply    = errors.New("invalid reply")
	ErrStorage         = errors.New("storage failure")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrInternal        = errors.New("internal error")
)

var errMissingAfterInsert = errors.New("row missing after insert")

// ServiceError wraps a sentinel error with a specific code and message for the handler to use.
type ServiceError struct {
	Err     error
	Code    string
	Message string
}

func (e *ServiceError) Error() string { return e.Message }
func (e *ServiceError) Unwrap() error { return e.Err }

// NewError creates a ServiceError wrapping the given sentinel.
func NewError(sentinel error, code, message string) *ServiceError {
	return &ServiceError{Err: sentinel, Code: code, Message: message}
}

// Convenience constructors for common error types.

func NotFound(code, message string) *ServiceError {
	return NewError(ErrNotFound, code, message)
}

func InvalidArgument(code, message string) *ServiceError {
	return NewError(ErrInvalidArgument, code, message)
}

func InvalidReply(message string) *ServiceError {
	return NewError(ErrInvalidReply, "INVALID_REPLY", message)
}

func Unauthorized(code, message string) *ServiceError {
	return NewError(ErrUnauthorized, code, message)
}

func Forbidden(code, message string) *ServiceError {
	return NewError(ErrForbidden, code, message)
}

func Internal(code, message string) *ServiceError {
	return NewError(ErrInternal, code, message)
}

// Storage is returned whenever the database fails. The cause is logged by the
// caller, never exposed.
func Storage() *ServiceError {
	return NewError(ErrStorage, "STORAGE_FAILURE", "storage failure")
}

// storageFailure logs the cause of a failed store call and returns the
// StorageFailure error surfaced to callers.
func storageFailure(m *metrics.Metrics, op string, err error, attrs ...any) *ServiceError {
	slog.Error("storage failure", append([]any{"op", op, "error", err}, attrs...)...)
	m.StorageFailure(op)
	return Storage()
}

// txError passes service errors raised inside a transaction through
// unchanged and turns anything else into a StorageFailure.
func txError(m *metrics.Metrics, op string, err error, attrs ...any) error {
	if err == nil {
		return nil
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return storageFailure(m, op, err, attrs...)
}
