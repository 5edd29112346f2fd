// Package errors provides unified error handling with structured error codes.
// Codes cover the pipeline's failure taxonomy: fatal startup errors, per-cycle
// recoverable errors, and per-key translation failures.
package errors

import (
	"errors"
	"fmt"
)

// Code identifies an error category.
type Code string

const (
	CodeUnknown         Code = "UNKNOWN"
	CodeInternal        Code = "INTERNAL"
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeUnavailable     Code = "UNAVAILABLE"
	CodeTimeout         Code = "TIMEOUT"
	CodeCancelled       Code = "CANCELLED"

	CodeCaptureFailed   Code = "CAPTURE_FAILED"
	CodeOCRInitFailed   Code = "OCR_INIT_FAILED"
	CodeOCRFailed       Code = "OCR_FAILED"
	CodeOCRInvalidImage Code = "OCR_INVALID_IMAGE"

	CodeTranslateFailed      Code = "TRANSLATE_FAILED"
	CodeTranslateRateLimited Code = "TRANSLATE_RATE_LIMITED"
	CodeTranslateBadRequest  Code = "TRANSLATE_BAD_REQUEST"

	CodeConfigInvalid Code = "CONFIG_INVALID"
	CodeConfigMissing Code = "CONFIG_MISSING"
)

// AppError is the base error type with structured error code and metadata.
type AppError struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	s := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if len(e.Metadata) > 0 {
		s += fmt.Sprintf(" %v", e.Metadata)
	}
	if e.Cause != nil {
		s += fmt.Sprintf(" caused by: %v", e.Cause)
	}
	return s
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *AppError) Unwrap() error { return e.Cause }

// New creates a new AppError with the given code and message.
func New(code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

// Newf creates a new AppError with formatted message.
func Newf(code Code, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with an AppError.
func Wrap(err error, code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg, Cause: err}
}

// Wrapf wraps an existing error with formatted message.
func Wrapf(err error, code Code, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// WithMetadata adds metadata to an AppError.
func (e *AppError) WithMetadata(key, value string) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// CodeOf extracts the code from an error chain, CodeUnknown if absent.
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// IsRetryable returns true if the error is potentially retryable.
// Malformed-request and config errors are permanent and never retried.
func IsRetryable(err error) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return true // unclassified error, retry
	}
	switch appErr.Code {
	case CodeUnavailable, CodeTimeout, CodeInternal, CodeTranslateRateLimited, CodeTranslateFailed:
		return true
	default:
		return false
	}
}

// IsFatal returns true for startup-class errors that must halt the pipeline.
func IsFatal(err error) bool {
	switch CodeOf(err) {
	case CodeOCRInitFailed, CodeConfigInvalid, CodeConfigMissing:
		return true
	default:
		return false
	}
}
