package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	apperrors "todo-list/internal/errors"
	"todo-list/internal/validation"
)

func TestErrorHandler_Handle(t *testing.T) {
	eh := NewErrorHandler(nil)

	tests := []struct {
		name      string
		operation string
		err       error
		expected  string
	}{
		{
			name:      "Validation error",
			operation: "add task",
			err:       apperrors.NewValidationError("title is required", nil),
			expected:  "failed to add task: title is required",
		},
		{
			name:      "Not found error",
			operation: "toggle task",
			err:       apperrors.NewNotFoundError("task", "1a2b"),
			expected:  "failed to toggle task: task not found: 1a2b",
		},
		{
			name:      "Save failed error",
			operation: "add task",
			err:       apperrors.NewSaveFailedError(errors.New("database is locked")),
			expected:  "failed to add task: Could not save your changes. Please try again.",
		},
		{
			name:      "Regular error",
			operation: "list tasks",
			err:       errors.New("regular error"),
			expected:  "failed to list tasks: regular error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := eh.Handle(tt.operation, tt.err)
			if result.Error() != tt.expected {
				t.Errorf("ErrorHandler.Handle() = %v, want %v", result.Error(), tt.expected)
			}
		})
	}
}

func TestErrorHandler_HandleValidationError(t *testing.T) {
	eh := NewErrorHandler(nil)

	ve := validation.NewValidationError()
	ve.Required("title")

	if got := eh.HandleSimple(ve).Error(); got != "title is required" {
		t.Errorf("ErrorHandler.HandleSimple() = %v", got)
	}
	if got := eh.HandleSimple(ve.ToAppError()).Error(); got != "title is required" {
		t.Errorf("ErrorHandler.HandleSimple() = %v", got)
	}
}

func TestErrorHandler_HandleNil(t *testing.T) {
	eh := NewErrorHandler(nil)

	if eh.Handle("anything", nil) != nil {
		t.Errorf("ErrorHandler.Handle(nil) should return nil")
	}
	if eh.HandleSimple(nil) != nil {
		t.Errorf("ErrorHandler.HandleSimple(nil) should return nil")
	}
}

func TestErrorHandler_LogsFaultsOnly(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	eh := NewErrorHandler(logger)

	eh.Handle("add task", apperrors.NewValidationError("title is required", nil))
	if buf.Len() != 0 {
		t.Errorf("validation errors should not be logged, got %q", buf.String())
	}

	eh.Handle("add task", apperrors.NewSaveFailedError(errors.New("disk full")))
	if !strings.Contains(buf.String(), "SAVE_FAILED") {
		t.Errorf("save failures should be logged with their code, got %q", buf.String())
	}
}

func TestErrorHandler_ExitCode(t *testing.T) {
	eh := NewErrorHandler(nil)

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"No error", nil, ExitOK},
		{"Validation error", apperrors.NewValidationError("bad", nil), ExitUserError},
		{"Field errors", validation.NewValidationError(), ExitUserError},
		{"Invalid input", apperrors.NewInvalidInputError("id", "a", "ambiguous"), ExitUserError},
		{"Not found", apperrors.NewNotFoundError("task", "a"), ExitUserError},
		{"Save failed", apperrors.NewSaveFailedError(errors.New("x")), ExitFailure},
		{"Fetch failed", apperrors.NewFetchFailedError("task", errors.New("x")), ExitFailure},
		{"Regular error", errors.New("boom"), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := eh.ExitCode(tt.err); got != tt.expected {
				t.Errorf("ErrorHandler.ExitCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestErrorHandler_HandleKeepsCause(t *testing.T) {
	eh := NewErrorHandler(nil)
	cause := apperrors.NewNotFoundError("task", "1a2b")

	err := eh.Handle("delete task", cause)
	if !apperrors.IsNotFound(err) {
		t.Errorf("handled error should still unwrap to not found")
	}
	if eh.ExitCode(err) != ExitUserError {
		t.Errorf("ExitCode() = %d, want %d", eh.ExitCode(err), ExitUserError)
	}
}
