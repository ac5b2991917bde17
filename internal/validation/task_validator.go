package validation

import (
	"github.com/google/uuid"

	"todo-list/internal/config"
	"todo-list/internal/domain"
)

// TaskValidator provides validation for Task-related operations.
// Priority is free-form and never rejected.
type TaskValidator struct {
	validator *Validator
}

// NewTaskValidator creates a new task validator with default limits
func NewTaskValidator() *TaskValidator {
	return &TaskValidator{validator: NewValidator()}
}

// NewTaskValidatorWithConfig creates a task validator using configured limits
func NewTaskValidatorWithConfig(cfg *config.Config) *TaskValidator {
	return &TaskValidator{validator: NewValidatorWithConfig(cfg)}
}

// Validator exposes the underlying field validator.
func (tv *TaskValidator) Validator() *Validator {
	return tv.validator
}

// ValidateTitle validates a title for creation or rename
func (tv *TaskValidator) ValidateTitle(title string) error {
	ve := NewValidationError()

	trimmed := tv.validator.TrimAndValidateString(title)
	if !tv.validator.IsNonEmptyString(trimmed) {
		ve.Required("title")
		return ve
	}

	if !tv.validator.IsValidTitleLength(trimmed) {
		ve.Length("title", trimmed, tv.validator.TitleMinLength(), tv.validator.TitleMaxLength())
	}
	if tv.validator.HasControlCharacters(trimmed) {
		ve.Characters("title", trimmed)
	}
	return ve.Err()
}

// GetValidTitle returns the trimmed title if it is valid
func (tv *TaskValidator) GetValidTitle(title string) (string, error) {
	if err := tv.ValidateTitle(title); err != nil {
		return "", err
	}
	return tv.validator.TrimAndValidateString(title), nil
}

// ValidateTaskID rejects the nil identifier
func (tv *TaskValidator) ValidateTaskID(id uuid.UUID) error {
	if id == uuid.Nil {
		ve := NewValidationError()
		ve.Required("id")
		return ve
	}
	return nil
}

// ValidateTask validates a domain.Task before it is written
func (tv *TaskValidator) ValidateTask(task domain.Task) error {
	ve := NewValidationError()
	ve.Merge("id", tv.ValidateTaskID(task.ID))
	ve.Merge("title", tv.ValidateTitle(task.Title))
	return ve.Err()
}
