package errors

import (
	"errors"
	"fmt"
)

// ErrorType defines different categories of errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "VALIDATION"
	ErrorTypeNotFound   ErrorType = "NOT_FOUND"
	ErrorTypeInternal   ErrorType = "INTERNAL"

	// Connection bootstrap failures. MissingCredentials and
	// MalformedCredentials are raised before any network call is made;
	// RemoteInit covers client initialization and the connectivity self-test.
	ErrorTypeMissingCredentials   ErrorType = "MISSING_CREDENTIALS"
	ErrorTypeMalformedCredentials ErrorType = "MALFORMED_CREDENTIALS"
	ErrorTypeRemoteInit           ErrorType = "REMOTE_INIT"
)

// AppError is the custom error type for the application
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work
func (e *AppError) Unwrap() error {
	return e.Err
}

// Constructor functions for different error types

// NewValidation creates a validation error
func NewValidation(message string) error {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewNotFound creates a not found error
func NewNotFound(message string) error {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewInternal creates an internal error
func NewInternal(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// NewMissingCredentials creates a missing-credentials error
func NewMissingCredentials(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeMissingCredentials,
		Message: message,
		Err:     err,
	}
}

// NewMalformedCredentials creates a malformed-credentials error
func NewMalformedCredentials(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeMalformedCredentials,
		Message: message,
		Err:     err,
	}
}

// NewRemoteInit creates a remote-initialization error
func NewRemoteInit(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeRemoteInit,
		Message: message,
		Err:     err,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	// If it's already an AppError, preserve the type
	var appErr *AppError
	if errors.As(err, &appErr) {
		return &AppError{
			Type:    appErr.Type,
			Message: fmt.Sprintf("%s: %s", message, appErr.Message),
			Err:     appErr.Err,
		}
	}

	// Otherwise, create an internal error
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// TypeOf returns the category of err, or ErrorTypeInternal for plain errors.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// Type checking functions

func isType(err error, t ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == t
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return isType(err, ErrorTypeValidation)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return isType(err, ErrorTypeNotFound)
}

// IsInternal checks if an error is an internal error
func IsInternal(err error) bool {
	return isType(err, ErrorTypeInternal)
}

// IsMissingCredentials checks if an error is a missing-credentials error
func IsMissingCredentials(err error) bool {
	return isType(err, ErrorTypeMissingCredentials)
}

// IsMalformedCredentials checks if an error is a malformed-credentials error
func IsMalformedCredentials(err error) bool {
	return isType(err, ErrorTypeMalformedCredentials)
}

// IsRemoteInit checks if an error is a remote-initialization error
func IsRemoteInit(err error) bool {
	return isType(err, ErrorTypeRemoteInit)
}
