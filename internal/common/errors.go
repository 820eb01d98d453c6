package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors. The last three are the recoverable extraction taxonomy:
// each is downgraded to an empty or partial result at the boundary that meets it.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrInternal          = errors.New("internal error")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrCorruptSource     = errors.New("corrupt or unreadable source")
	ErrCollaborator      = errors.New("collaborator failure")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// UnsupportedError reports a kind that an extraction stage cannot handle.
func UnsupportedError(stage, kind string) error {
	return NewAppError("UNSUPPORTED_FORMAT", fmt.Sprintf("%s does not handle %s documents", stage, kind), ErrUnsupportedFormat)
}

// CorruptError reports a document that could not be opened or parsed.
func CorruptError(path string, cause error) error {
	return NewAppError("CORRUPT_SOURCE", "cannot read "+path, joinCause(ErrCorruptSource, cause))
}

// CollaboratorError reports a failed call into an external tool or service.
func CollaboratorError(name string, cause error) error {
	return NewAppError("COLLABORATOR_FAILURE", name+" failed", joinCause(ErrCollaborator, cause))
}

func joinCause(kind, cause error) error {
	if cause == nil {
		return kind
	}
	return fmt.Errorf("%w: %w", kind, cause)
}

// Classify returns a stable short label for logs and reports.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported"
	case errors.Is(err, ErrCorruptSource):
		return "corrupt"
	case errors.Is(err, ErrCollaborator):
		return "collaborator"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	default:
		return "internal"
	}
}
