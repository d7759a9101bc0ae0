// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and internal errors
//   - Validation errors (100-199): Invalid input, candles, order intents, configuration
//   - Order lifecycle errors (200-299): Duplicate submissions, unknown orders, illegal transitions
//   - Exchange errors (300-399): Gateway failures, split into transient and permanent
//   - Strategy errors (400-499): Strategy runtime failures
//   - Engine errors (500-599): Engine lifecycle errors
//   - Market data errors (600-699): Candle fetching and timeframe errors
//
// Usage:
//
//	// Create a new error
//	err := errors.New(errors.ErrCodeInvalidInput, "quantity must be positive")
//
//	// Create a formatted error
//	err := errors.Newf(errors.ErrCodeUnknownOrder, "order %s is not tracked", id)
//
//	// Wrap an existing error
//	err := errors.Wrap(errors.ErrCodeExchangeNetwork, "place order failed", originalErr)
//
//	// Check error code
//	if errors.HasCode(err, errors.ErrCodeDuplicateSubmission) { ... }
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around the standard errors.Is function.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard errors.As function.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error if it's an *Error type.
// Returns ErrCodeUnknown if the error is not an *Error type.
// An *InsufficientDataError maps to ErrCodeInsufficientData.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	var insufficient *InsufficientDataError
	if errors.As(err, &insufficient) {
		return ErrCodeInsufficientData
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// IsTransient reports whether err is an exchange failure worth retrying.
// Context deadline errors count as transient because every gateway call
// carries its own timeout.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	switch GetCode(err) {
	case ErrCodeExchangeNetwork, ErrCodeExchangeRateLimited:
		return true
	default:
		return false
	}
}

// InsufficientDataError represents an error when there is not enough data
// for a calculation (e.g., a candle window shorter than the analyzer minimum).
// It matches ErrCodeInsufficientData through HasCode.
type InsufficientDataError struct {
	Required int    // Minimum data points required
	Actual   int    // Actual data points available
	Symbol   string // Optional: symbol context
	Message  string // Human-readable message
}

// NewInsufficientDataError creates a new InsufficientDataError.
func NewInsufficientDataError(required, actual int, symbol, message string) *InsufficientDataError {
	return &InsufficientDataError{
		Required: required,
		Actual:   actual,
		Symbol:   symbol,
		Message:  message,
	}
}

// NewInsufficientDataErrorf creates a new InsufficientDataError with a formatted message.
func NewInsufficientDataErrorf(required, actual int, symbol, format string, args ...any) *InsufficientDataError {
	return &InsufficientDataError{
		Required: required,
		Actual:   actual,
		Symbol:   symbol,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface.
func (e *InsufficientDataError) Error() string {
	return e.Message
}

// IsInsufficientDataError checks if an error is an InsufficientDataError.
// It uses errors.As to check the error chain.
func IsInsufficientDataError(err error) bool {
	var insufficientErr *InsufficientDataError

	return errors.As(err, &insufficientErr)
}
