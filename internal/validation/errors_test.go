package validation

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	apperrors "todo-list/internal/errors"
)

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		errors   []FieldError
		expected string
	}{
		{"No errors", nil, "invalid input"},
		{"Single error", []FieldError{{Field: "title", Message: "title is required"}}, "invalid input: title: title is required"},
		{"Multiple errors", []FieldError{
			{Field: "id", Message: "id is required"},
			{Field: "title", Message: "title is required"},
		}, "invalid input: id: id is required; title: title is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (&ValidationError{Errors: tt.errors}).Error(); got != tt.expected {
				t.Errorf("ValidationError.Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestValidationError_Rules(t *testing.T) {
	tests := []struct {
		name     string
		add      func(*ValidationError)
		rule     Rule
		contains string
	}{
		{"Required", func(ve *ValidationError) { ve.Required("title") }, RuleRequired, "title is required"},
		{"Format", func(ve *ValidationError) { ve.Format("due_date", "13/01", "YYYY-MM-DD") }, RuleFormat, `"13/01" is not a valid due date, use YYYY-MM-DD`},
		{"Length", func(ve *ValidationError) { ve.Length("title", "café", 5, 50) }, RuleLength, "between 5 and 50 characters, got 4"},
		{"Characters", func(ve *ValidationError) { ve.Characters("title", "ab\tc") }, RuleCharacters, "control character at position 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ve := NewValidationError()
			tt.add(ve)

			if len(ve.Errors) != 1 {
				t.Fatalf("Expected 1 error, got %d", len(ve.Errors))
			}
			if ve.Errors[0].Rule != tt.rule {
				t.Errorf("Expected rule %v, got %v", tt.rule, ve.Errors[0].Rule)
			}
			if !strings.Contains(ve.Errors[0].Message, tt.contains) {
				t.Errorf("Expected message to contain %q, got %q", tt.contains, ve.Errors[0].Message)
			}
		})
	}
}

func TestValidationError_Err(t *testing.T) {
	ve := NewValidationError()
	if ve.Err() != nil {
		t.Errorf("Err() on an empty collection should be nil")
	}
	ve.Required("title")
	if ve.Err() == nil {
		t.Errorf("Err() should return the collection once it has a failure")
	}
}

func TestValidationError_Merge(t *testing.T) {
	other := NewValidationError()
	other.Required("title")
	other.Characters("title", "a\nb")

	ve := NewValidationError()
	ve.Merge("id", nil)
	ve.Merge("title", other)
	ve.Merge("due_date", stderrors.New("not a date"))

	if len(ve.Errors) != 3 {
		t.Fatalf("Merge() got %d errors, want 3", len(ve.Errors))
	}
	if ve.Errors[2].Field != "due_date" || ve.Errors[2].Rule != RuleFormat {
		t.Errorf("plain errors should be recorded against the field, got %+v", ve.Errors[2])
	}
}

func TestValidationError_Fields(t *testing.T) {
	ve := NewValidationError()
	ve.Required("title")
	ve.Characters("title", "\t")
	ve.Required("id")

	got := ve.Fields()
	if strings.Join(got, ",") != "title,id" {
		t.Errorf("Fields() = %v, want [title id]", got)
	}
}

func TestValidationError_Summary(t *testing.T) {
	single := NewValidationError()
	single.Required("title")
	if got := single.Summary(); got != "title is required" {
		t.Errorf("Summary() = %q", got)
	}

	multi := NewValidationError()
	multi.Required("id")
	multi.Required("title")
	if got := multi.Summary(); !strings.Contains(got, "- id is required\n- title is required") {
		t.Errorf("Summary() = %q, expected bullet list", got)
	}

	if got := NewValidationError().Summary(); got != "Input validation failed" {
		t.Errorf("Summary() = %q", got)
	}
}

func TestIsValidationError(t *testing.T) {
	ve := NewValidationError()
	ve.Required("title")

	if !IsValidationError(ve) {
		t.Errorf("IsValidationError() = false for ValidationError")
	}
	if !IsValidationError(fmt.Errorf("wrapped: %w", ve)) {
		t.Errorf("IsValidationError() = false for wrapped ValidationError")
	}
	if IsValidationError(FieldError{Field: "title"}) {
		t.Errorf("IsValidationError() = true for FieldError")
	}
}

func TestValidationError_ToAppError(t *testing.T) {
	ve := NewValidationError()
	ve.Required("title")

	appErr := ve.ToAppError()
	if !apperrors.IsErrorType(appErr, apperrors.ErrorTypeValidation) {
		t.Errorf("ToAppError() type = %v, want validation", appErr.Type)
	}
	if apperrors.GetUserMessage(appErr) != "title is required" {
		t.Errorf("GetUserMessage() = %q", apperrors.GetUserMessage(appErr))
	}
	if !IsValidationError(appErr) {
		t.Errorf("ToAppError() should keep the field errors reachable")
	}
	fields, ok := appErr.GetContext("fields")
	if !ok || strings.Join(fields.([]string), ",") != "title" {
		t.Errorf("ToAppError() context fields = %v", fields)
	}
}
