package errors

import (
	stderrors "errors"
	"fmt"

	"gostats/domain/core"
)

// AppError is the error surfaced at the service and transport boundary
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context, keeping the code of the
// innermost AppError or classifying a domain error
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    GetCode(err),
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// FromDomain classifies a domain error. Errors that are already AppErrors
// are returned unchanged.
func FromDomain(err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return err
	}
	return &AppError{
		Code:    domainCode(err),
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error is or wraps an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the code of the outermost AppError, the domain code of a
// domain error, or CodeInternalError
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return domainCode(err)
}

func domainCode(err error) string {
	switch {
	case core.IsSchemaMismatch(err):
		return CodeSchemaMismatch
	case core.IsSchemaError(err):
		return CodeSchemaError
	case core.IsInvalidComparison(err):
		return CodeInvalidComparison
	case core.IsUnsupportedExact(err):
		return CodeUnsupportedExact
	case core.IsInsufficientPairing(err):
		return CodeInsufficientPairing
	}
	return CodeInternalError
}

// Predefined error codes
const (
	CodeSchemaError         = "SCHEMA_ERROR"
	CodeInvalidComparison   = "INVALID_COMPARISON"
	CodeUnsupportedExact    = "UNSUPPORTED_EXACT"
	CodeInsufficientPairing = "INSUFFICIENT_PAIRING"
	CodeSchemaMismatch      = "SCHEMA_MISMATCH"
	CodeConfigInvalid       = "CONFIG_INVALID"
	CodeDatabaseError       = "DATABASE_ERROR"
	CodeValidationError     = "VALIDATION_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeInternalError       = "INTERNAL_ERROR"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func DatabaseError(message string, cause error) *AppError {
	return &AppError{Code: CodeDatabaseError, Message: message, Cause: cause}
}

func ValidationError(message string, cause error) *AppError {
	return &AppError{Code: CodeValidationError, Message: message, Cause: cause}
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}
