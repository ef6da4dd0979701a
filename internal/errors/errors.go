// Package errors provides a lightweight structured error type (AssistError)
// for category-based classification and retry semantics in HTTP adapters and CLI.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of an assistant error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryAuth       ErrorCategory = "auth"

	// External system integration errors
	CategoryNetwork     ErrorCategory = "network"
	CategoryLLM         ErrorCategory = "llm"
	CategoryMarketplace ErrorCategory = "marketplace"

	// Data and processing errors
	CategoryStore      ErrorCategory = "store"
	CategoryNotFound   ErrorCategory = "not_found"
	CategoryExport     ErrorCategory = "export"
	CategoryFileSystem ErrorCategory = "filesystem"

	// Runtime and infrastructure errors
	CategoryRuntime  ErrorCategory = "runtime"
	CategoryDaemon   ErrorCategory = "daemon"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// AssistError is a structured error with category, retryability, and context
type AssistError struct {
	Category  ErrorCategory `json:"category"`
	Severity  ErrorSeverity `json:"severity"`
	Message   string        `json:"message"`
	Cause     error         `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Context   ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for AssistError
type ContextFields map[string]any

// Error implements the error interface
func (e *AssistError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *AssistError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *AssistError) WithContext(key string, value any) *AssistError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new AssistError
func New(category ErrorCategory, severity ErrorSeverity, message string) *AssistError {
	return &AssistError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Retryable: false,
	}
}

// Wrap creates a new AssistError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *AssistError {
	return &AssistError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: false,
	}
}

// Retryable creates a new retryable AssistError
func Retryable(category ErrorCategory, severity ErrorSeverity, message string) *AssistError {
	return &AssistError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Retryable: true,
	}
}

// WrapRetryable creates a new retryable AssistError that wraps an existing error
func WrapRetryable(err error, category ErrorCategory, severity ErrorSeverity, message string) *AssistError {
	return &AssistError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: true,
	}
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if ae, ok := err.(*AssistError); ok {
		return ae.Category == category
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if ae, ok := err.(*AssistError); ok {
		return ae.Retryable
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not an AssistError
func GetCategory(err error) ErrorCategory {
	if ae, ok := err.(*AssistError); ok {
		return ae.Category
	}
	return CategoryInternal
}

// ValidationError creates a new validation error (400 Bad Request)
func ValidationError(message string) *AssistError {
	return &AssistError{
		Category:  CategoryValidation,
		Severity:  SeverityWarning,
		Message:   message,
		Retryable: false,
	}
}

// DaemonError creates a new daemon error (service unavailable)
func DaemonError(message string) *AssistError {
	return &AssistError{
		Category:  CategoryDaemon,
		Severity:  SeverityError,
		Message:   message,
		Retryable: false,
	}
}

// WrapError wraps an existing error with a new AssistError
func WrapError(err error, category ErrorCategory, message string) *AssistError {
	return &AssistError{
		Category:  category,
		Severity:  SeverityError,
		Message:   message,
		Cause:     err,
		Retryable: false,
	}
}
