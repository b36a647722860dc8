package errors

import (
	"errors"
	"fmt"
)

// Standard application errors
var (
	ErrEmptyInput        = errors.New("input is empty or contains only whitespace")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrTrailingData      = errors.New("unexpected data after the top-level value")
	ErrNullInTOML        = errors.New("TOML has no representation for null")
	ErrNonTableRoot      = errors.New("TOML documents must have a table at the root")
	ErrNonFiniteFloat    = errors.New("JSON cannot represent NaN or infinite numbers")
	ErrUnsupportedKey    = errors.New("mapping keys must be scalars")
	ErrRecursiveAlias    = errors.New("alias refers to a node that contains it")
	ErrInvalidLineEnding = errors.New("line ending must be one of native, lf or crlf")
	ErrInvalidUTF8       = errors.New("input is not valid UTF-8")
	ErrNoInput           = errors.New("no input provided: pass the document as an argument or pipe it to stdin")
)

// ErrorType categorizes errors
type ErrorType string

const (
	ErrorTypeDeserialization ErrorType = "deserialization"
	ErrorTypeSerialization   ErrorType = "serialization"
	ErrorTypeInput           ErrorType = "input"
	ErrorTypeOutput          ErrorType = "output"
	ErrorTypeConfig          ErrorType = "config"
	ErrorTypeUnknown         ErrorType = "unknown"
)

// AppError is an application-specific error with context
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for comparison
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// NewDeserializationError reports text that does not parse under its claimed format.
func NewDeserializationError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeDeserialization,
		Message: message,
		Err:     err,
	}
}

// NewSerializationError reports a value the target format cannot render.
func NewSerializationError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeSerialization,
		Message: message,
		Err:     err,
	}
}

// NewInputError creates a new error related to input processing
func NewInputError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInput,
		Message: message,
		Err:     err,
	}
}

// NewOutputError creates a new error related to output processing
func NewOutputError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeOutput,
		Message: message,
		Err:     err,
	}
}

// NewConfigError creates a new error related to loading configuration
func NewConfigError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeConfig,
		Message: message,
		Err:     err,
	}
}

// IsDeserialization reports whether err is, or wraps, a deserialization error.
func IsDeserialization(err error) bool {
	return errors.Is(err, &AppError{Type: ErrorTypeDeserialization})
}

// IsSerialization reports whether err is, or wraps, a serialization error.
func IsSerialization(err error) bool {
	return errors.Is(err, &AppError{Type: ErrorTypeSerialization})
}

// UserFriendlyError returns a user-friendly error message
func UserFriendlyError(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		detail := appErr.Message
		if appErr.Err != nil {
			detail = fmt.Sprintf("%s: %v", appErr.Message, appErr.Err)
		}
		switch appErr.Type {
		case ErrorTypeDeserialization:
			return fmt.Sprintf("A deserialization error occurred: %s", detail)
		case ErrorTypeSerialization:
			return fmt.Sprintf("A serialization error occurred: %s", detail)
		case ErrorTypeInput:
			return fmt.Sprintf("Input error: %s", detail)
		case ErrorTypeOutput:
			return fmt.Sprintf("Output error: %s", detail)
		case ErrorTypeConfig:
			return fmt.Sprintf("Configuration error: %s", detail)
		default:
			return fmt.Sprintf("Error: %s", detail)
		}
	}

	// Handle standard errors
	if errors.Is(err, ErrEmptyInput) {
		return "Error: The input is empty. Please provide a document to convert."
	}
	if errors.Is(err, ErrUnsupportedFormat) {
		return "Error: Unsupported format. Use one of json, yaml or toml."
	}
	if errors.Is(err, ErrNoInput) {
		return "Error: No input provided. Pass the document as an argument or pipe it to stdin."
	}

	// Generic error message for unknown errors
	return fmt.Sprintf("Error: %v", err)
}
