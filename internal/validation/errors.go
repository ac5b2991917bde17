package validation

import (
	stderrors "errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	apperrors "todo-list/internal/errors"
)

// Rule names the check an input failed.
type Rule string

const (
	RuleRequired   Rule = "required"
	RuleFormat     Rule = "format"
	RuleLength     Rule = "length"
	RuleCharacters Rule = "characters"
)

// FieldError is one failed check on one field.
type FieldError struct {
	Field   string
	Rule    Rule
	Message string
	Value   interface{}
}

func (fe FieldError) Error() string {
	return fmt.Sprintf("%s: %s", fe.Field, fe.Message)
}

// ValidationError collects every check an input failed, in the order they
// were made.
type ValidationError struct {
	Errors []FieldError
}

// NewValidationError returns an empty collection.
func NewValidationError() *ValidationError {
	return &ValidationError{}
}

func (ve *ValidationError) Error() string {
	if len(ve.Errors) == 0 {
		return "invalid input"
	}
	parts := make([]string, len(ve.Errors))
	for i, fe := range ve.Errors {
		parts[i] = fe.Error()
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// IsValidationError reports whether err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return stderrors.As(err, &ve)
}

// Err returns ve when it holds at least one failure and nil otherwise.
func (ve *ValidationError) Err() error {
	if len(ve.Errors) == 0 {
		return nil
	}
	return ve
}

// Merge appends the failures carried by err, if it is a ValidationError.
// Any other non-nil error is recorded against field.
func (ve *ValidationError) Merge(field string, err error) {
	if err == nil {
		return
	}
	var other *ValidationError
	if stderrors.As(err, &other) {
		ve.Errors = append(ve.Errors, other.Errors...)
		return
	}
	ve.Errors = append(ve.Errors, FieldError{Field: field, Rule: RuleFormat, Message: err.Error()})
}

// Required records a missing value.
func (ve *ValidationError) Required(field string) {
	ve.Errors = append(ve.Errors, FieldError{
		Field:   field,
		Rule:    RuleRequired,
		Message: field + " is required",
	})
}

// Format records a value that could not be parsed. want lists what would
// have been accepted.
func (ve *ValidationError) Format(field, value, want string) {
	ve.Errors = append(ve.Errors, FieldError{
		Field:   field,
		Rule:    RuleFormat,
		Message: fmt.Sprintf("%q is not a valid %s, use %s", value, strings.ReplaceAll(field, "_", " "), want),
		Value:   value,
	})
}

// Length records a value whose length in characters is outside [min, max].
func (ve *ValidationError) Length(field, value string, min, max int) {
	msg := fmt.Sprintf("%s must be between %d and %d characters, got %d",
		field, min, max, utf8.RuneCountInString(value))
	ve.Errors = append(ve.Errors, FieldError{Field: field, Rule: RuleLength, Message: msg, Value: value})
}

// Characters records a value containing a control character, pointing at
// the first one.
func (ve *ValidationError) Characters(field, value string) {
	pos := 0
	for i, r := range []rune(value) {
		if unicode.IsControl(r) {
			pos = i + 1
			break
		}
	}
	ve.Errors = append(ve.Errors, FieldError{
		Field:   field,
		Rule:    RuleCharacters,
		Message: fmt.Sprintf("%s must fit on one line (control character at position %d)", field, pos),
		Value:   value,
	})
}

// Fields lists the fields that failed, each once, in first-failure order.
func (ve *ValidationError) Fields() []string {
	var fields []string
	seen := make(map[string]bool)
	for _, fe := range ve.Errors {
		if !seen[fe.Field] {
			seen[fe.Field] = true
			fields = append(fields, fe.Field)
		}
	}
	return fields
}

// Summary is the message shown to the user.
func (ve *ValidationError) Summary() string {
	switch len(ve.Errors) {
	case 0:
		return "Input validation failed"
	case 1:
		return ve.Errors[0].Message
	}
	lines := make([]string, len(ve.Errors))
	for i, fe := range ve.Errors {
		lines[i] = "- " + fe.Message
	}
	return "Please fix the following:\n" + strings.Join(lines, "\n")
}

// ToAppError wraps ve in a validation AppError carrying the failed fields.
func (ve *ValidationError) ToAppError() *apperrors.AppError {
	return apperrors.NewValidationError(ve.Summary(), ve).WithContext("fields", ve.Fields())
}
