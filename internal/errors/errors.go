package errors

import (
	"errors"
	"fmt"
)

// Sentinels for use with errors.Is. Matching is by type and code only.
var (
	ErrNotFound          = &AppError{Type: ErrorTypeNotFound, Code: "NOT_FOUND"}
	ErrFetchFailed       = &AppError{Type: ErrorTypeFetchFailed, Code: "FETCH_FAILED"}
	ErrSaveFailed        = &AppError{Type: ErrorTypeSaveFailed, Code: "SAVE_FAILED"}
	ErrBatchUpdateFailed = &AppError{Type: ErrorTypeBatchUpdateFailed, Code: "BATCH_UPDATE_FAILED"}
	ErrStoreClosed       = &AppError{Type: ErrorTypeStoreClosed, Code: "STORE_CLOSED"}
)

// NewValidationError creates a new validation error
func NewValidationError(message string, cause error) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
		Code:    "VALIDATION_FAILED",
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewNotFoundError creates a new not found error for an entity and identifier
func NewNotFoundError(entity string, identifier string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: fmt.Sprintf("%s not found: %s", entity, identifier),
		Code:    "NOT_FOUND",
		Context: map[string]interface{}{
			"entity":     entity,
			"identifier": identifier,
		},
	}
}

// NewFetchFailedError reports a store-level fault while querying an entity.
func NewFetchFailedError(entity string, cause error) *AppError {
	return &AppError{
		Type:    ErrorTypeFetchFailed,
		Message: fmt.Sprintf("failed to fetch %s", entity),
		Code:    "FETCH_FAILED",
		Cause:   cause,
		Context: map[string]interface{}{
			"entity": entity,
		},
	}
}

// NewSaveFailedError reports that pending changes could not be persisted.
func NewSaveFailedError(cause error) *AppError {
	return &AppError{
		Type:    ErrorTypeSaveFailed,
		Message: "failed to save changes",
		Code:    "SAVE_FAILED",
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewBatchUpdateFailedError reports a failed bulk mutation.
func NewBatchUpdateFailedError(entity string, cause error) *AppError {
	return &AppError{
		Type:    ErrorTypeBatchUpdateFailed,
		Message: fmt.Sprintf("batch update of %s failed", entity),
		Code:    "BATCH_UPDATE_FAILED",
		Cause:   cause,
		Context: map[string]interface{}{
			"entity": entity,
		},
	}
}

// NewDatabaseError creates a new database error
func NewDatabaseError(operation string, cause error) *AppError {
	return &AppError{
		Type:    ErrorTypeDatabase,
		Message: fmt.Sprintf("database operation failed: %s", operation),
		Code:    "DATABASE_ERROR",
		Cause:   cause,
		Context: map[string]interface{}{
			"operation": operation,
		},
	}
}

// NewInvalidInputError creates a new invalid input error
func NewInvalidInputError(field string, value interface{}, reason string) *AppError {
	return &AppError{
		Type:    ErrorTypeInvalidInput,
		Message: fmt.Sprintf("invalid input for %s: %s", field, reason),
		Code:    "INVALID_INPUT",
		Context: map[string]interface{}{
			"field":  field,
			"value":  value,
			"reason": reason,
		},
	}
}

// NewStoreClosedError is returned for work submitted to a closed context.
func NewStoreClosedError(operation string) *AppError {
	return &AppError{
		Type:    ErrorTypeStoreClosed,
		Message: fmt.Sprintf("store is closed: %s", operation),
		Code:    "STORE_CLOSED",
		Context: map[string]interface{}{
			"operation": operation,
		},
	}
}

// WrapError wraps an existing error with additional context
func WrapError(err error, errorType ErrorType, message string) *AppError {
	return &AppError{
		Type:    errorType,
		Message: message,
		Code:    errorType.String(),
		Cause:   err,
		Context: make(map[string]interface{}),
	}
}

// IsAppError checks if the error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsErrorType checks if the error is of the specified type
func IsErrorType(err error, errorType ErrorType) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.IsType(errorType)
	}
	return false
}

// IsNotFound is shorthand for IsErrorType(err, ErrorTypeNotFound).
func IsNotFound(err error) bool {
	return IsErrorType(err, ErrorTypeNotFound)
}

// GetUserMessage returns a user-friendly error message
func GetUserMessage(err error) string {
	if appErr, ok := AsAppError(err); ok {
		switch appErr.Type {
		case ErrorTypeValidation, ErrorTypeNotFound, ErrorTypeInvalidInput:
			return appErr.Message
		case ErrorTypeFetchFailed:
			return "Could not load tasks. Please try again."
		case ErrorTypeSaveFailed:
			return "Could not save your changes. Please try again."
		case ErrorTypeBatchUpdateFailed:
			return "Could not update the selected tasks. Please try again."
		case ErrorTypeDatabase:
			return "A database error occurred. Please try again."
		case ErrorTypeStoreClosed:
			return "The task store is no longer available."
		default:
			return "An unexpected error occurred. Please try again."
		}
	}
	return err.Error()
}

// GetErrorCode returns the error code for the error
func GetErrorCode(err error) string {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return "UNKNOWN_ERROR"
}

// ShouldLogError determines if an error should be logged based on its type
func ShouldLogError(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		switch appErr.Type {
		case ErrorTypeValidation, ErrorTypeNotFound, ErrorTypeInvalidInput:
			return false // user errors
		default:
			return true
		}
	}
	return true
}
