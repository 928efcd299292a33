// Package core holds types shared across the inspector packages.
package core

import (
	"fmt"
)

// ErrorCategory classifies the type of error for better debugging and reporting
type ErrorCategory int

const (
	ErrCategoryNone       ErrorCategory = iota // No error
	ErrCategoryLocator                         // Element not found, unknown strategy
	ErrCategoryCommand                         // Unknown action, bad argument, unsupported command
	ErrCategoryConnection                      // Device/server connection lost
	ErrCategorySnapshot                        // No page source fetched yet
	ErrCategoryConfig                          // Invalid configuration, missing required field
)

// String returns the string representation of ErrorCategory
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategoryLocator:
		return "locator"
	case ErrCategoryCommand:
		return "command"
	case ErrCategoryConnection:
		return "connection"
	case ErrCategorySnapshot:
		return "snapshot"
	case ErrCategoryConfig:
		return "config"
	default:
		return "unknown"
	}
}

// ExecutionError represents a structured error with category and details
type ExecutionError struct {
	Category ErrorCategory
	Code     string                 // Machine-readable code: element_not_found, unknown_action, etc.
	Message  string                 // Human-readable message
	Details  map[string]interface{} // Additional context
	Cause    error                  // Underlying error
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is matches any ExecutionError with the same code, so copies made with
// WithCause/WithMessage/WithDetails still match the predefined error.
func (e *ExecutionError) Is(target error) bool {
	t, ok := target.(*ExecutionError)
	return ok && t.Code == e.Code
}

// WithCause returns a copy of the error with the given cause
func (e *ExecutionError) WithCause(cause error) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  e.Details,
		Cause:    cause,
	}
}

// WithMessage returns a copy of the error with a custom message
func (e *ExecutionError) WithMessage(msg string) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  msg,
		Details:  e.Details,
		Cause:    e.Cause,
	}
}

// WithDetails returns a copy of the error with additional details
func (e *ExecutionError) WithDetails(details map[string]interface{}) *ExecutionError {
	merged := make(map[string]interface{})
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  merged,
		Cause:    e.Cause,
	}
}

// Predefined errors
var (
	// Locator errors
	ErrElementNotFound = &ExecutionError{
		Category: ErrCategoryLocator,
		Code:     "element_not_found",
		Message:  "element not found",
	}
	ErrNoUniqueLocator = &ExecutionError{
		Category: ErrCategoryLocator,
		Code:     "no_unique_locator",
		Message:  "no unique locator found for element",
	}

	// Command errors
	ErrUnknownAction = &ExecutionError{
		Category: ErrCategoryCommand,
		Code:     "unknown_action",
		Message:  "unknown action",
	}
	ErrInvalidArgument = &ExecutionError{
		Category: ErrCategoryCommand,
		Code:     "invalid_argument",
		Message:  "invalid argument",
	}
	ErrUnsupportedCommand = &ExecutionError{
		Category: ErrCategoryCommand,
		Code:     "unsupported_command",
		Message:  "command not supported by this driver",
	}

	// Connection errors
	ErrServerUnreachable = &ExecutionError{
		Category: ErrCategoryConnection,
		Code:     "server_unreachable",
		Message:  "could not connect to automation server",
	}
	ErrNoSession = &ExecutionError{
		Category: ErrCategoryConnection,
		Code:     "no_session",
		Message:  "no active session",
	}

	// Snapshot errors
	ErrNoSnapshot = &ExecutionError{
		Category: ErrCategorySnapshot,
		Code:     "no_snapshot",
		Message:  "page source has not been fetched",
	}

	// Config errors
	ErrInvalidConfig = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "invalid_config",
		Message:  "invalid configuration",
	}
	ErrMissingRequired = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "missing_required",
		Message:  "missing required field",
	}
)

// NewExecutionError creates a new ExecutionError with the given parameters
func NewExecutionError(category ErrorCategory, code, message string) *ExecutionError {
	return &ExecutionError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}
