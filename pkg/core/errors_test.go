package core

import (
	"errors"
	"strings"
	"testing"
)

func TestExecutionError_Error(t *testing.T) {
	err := &ExecutionError{
		Category: ErrCategoryLocator,
		Code:     "test_error",
		Message:  "test message",
	}

	if got := err.Error(); got != "test message" {
		t.Errorf("Error() = %q, want %q", got, "test message")
	}
}

func TestExecutionError_ErrorWithCause(t *testing.T) {
	cause := errors.New("underlying error")
	err := &ExecutionError{
		Category: ErrCategoryLocator,
		Code:     "test_error",
		Message:  "test message",
		Cause:    cause,
	}

	got := err.Error()
	if !strings.Contains(got, "test message") {
		t.Errorf("Error() = %q, should contain 'test message'", got)
	}
	if !strings.Contains(got, "underlying error") {
		t.Errorf("Error() = %q, should contain 'underlying error'", got)
	}
}

func TestExecutionError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := &ExecutionError{
		Message: "wrapper",
		Cause:   cause,
	}

	if got := err.Unwrap(); got != cause {
		t.Errorf("Unwrap() = %v, want %v", got, cause)
	}
}

func TestExecutionError_WithCause(t *testing.T) {
	original := ErrElementNotFound
	cause := errors.New("custom cause")

	newErr := original.WithCause(cause)

	if newErr.Cause != cause {
		t.Error("WithCause() did not set cause")
	}
	if newErr.Code != original.Code {
		t.Error("WithCause() changed code")
	}
	if original.Cause != nil {
		t.Error("WithCause() modified original error")
	}
}

func TestExecutionError_WithMessage(t *testing.T) {
	original := ErrUnknownAction
	newErr := original.WithMessage("unknown action: tapTwice")

	if newErr.Message != "unknown action: tapTwice" {
		t.Errorf("Message = %q, want 'unknown action: tapTwice'", newErr.Message)
	}
	if newErr.Code != original.Code {
		t.Error("WithMessage() changed code")
	}
	if original.Message == "unknown action: tapTwice" {
		t.Error("WithMessage() modified original error")
	}
}

func TestExecutionError_WithDetails(t *testing.T) {
	original := &ExecutionError{
		Code:    "test",
		Message: "test",
		Details: map[string]interface{}{"existing": "value"},
	}

	newErr := original.WithDetails(map[string]interface{}{
		"strategy": "objectName",
		"value":    "loginBtn",
	})

	if newErr.Details["strategy"] != "objectName" {
		t.Error("WithDetails() did not add new details")
	}
	if newErr.Details["existing"] != "value" {
		t.Error("WithDetails() did not preserve existing details")
	}
	if _, ok := original.Details["strategy"]; ok {
		t.Error("WithDetails() modified original error")
	}
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		err      *ExecutionError
		category ErrorCategory
		code     string
	}{
		{ErrElementNotFound, ErrCategoryLocator, "element_not_found"},
		{ErrNoUniqueLocator, ErrCategoryLocator, "no_unique_locator"},
		{ErrUnknownAction, ErrCategoryCommand, "unknown_action"},
		{ErrInvalidArgument, ErrCategoryCommand, "invalid_argument"},
		{ErrUnsupportedCommand, ErrCategoryCommand, "unsupported_command"},
		{ErrServerUnreachable, ErrCategoryConnection, "server_unreachable"},
		{ErrNoSession, ErrCategoryConnection, "no_session"},
		{ErrNoSnapshot, ErrCategorySnapshot, "no_snapshot"},
		{ErrInvalidConfig, ErrCategoryConfig, "invalid_config"},
		{ErrMissingRequired, ErrCategoryConfig, "missing_required"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if tt.err.Category != tt.category {
				t.Errorf("Category = %s, want %s", tt.err.Category, tt.category)
			}
			if tt.err.Code != tt.code {
				t.Errorf("Code = %s, want %s", tt.err.Code, tt.code)
			}
			if tt.err.Message == "" {
				t.Error("Message should not be empty")
			}
		})
	}
}

func TestNewExecutionError(t *testing.T) {
	err := NewExecutionError(ErrCategorySnapshot, "custom_error", "custom message")

	if err.Category != ErrCategorySnapshot {
		t.Errorf("Category = %s, want %s", err.Category, ErrCategorySnapshot)
	}
	if err.Code != "custom_error" {
		t.Errorf("Code = %s, want 'custom_error'", err.Code)
	}
	if err.Message != "custom message" {
		t.Errorf("Message = %s, want 'custom message'", err.Message)
	}
}

func TestExecutionError_ErrorsIs(t *testing.T) {
	cause := errors.New("root cause")
	err := ErrServerUnreachable.WithCause(cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is() should find the cause")
	}
	if !errors.Is(err, ErrServerUnreachable) {
		t.Error("errors.Is() should match the predefined error by code")
	}
	if errors.Is(err, ErrNoSession) {
		t.Error("errors.Is() should not match a different code")
	}
}

func TestErrorCategory_String(t *testing.T) {
	if ErrCategoryLocator.String() != "locator" {
		t.Errorf("String() = %s", ErrCategoryLocator.String())
	}
	if ErrorCategory(99).String() != "unknown" {
		t.Errorf("String() = %s", ErrorCategory(99).String())
	}
}
