package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"todo-list/internal/errors"
	"todo-list/internal/logging"
	"todo-list/internal/validation"
)

// Exit codes returned by the todo binary
const (
	ExitOK        = 0
	ExitFailure   = 1
	ExitUserError = 2
)

// ErrorHandler turns command errors into the message shown to the user and
// logs the ones that point at a fault rather than bad input.
type ErrorHandler struct {
	logger logrus.FieldLogger
}

// NewErrorHandler creates a new error handler. logger may be nil.
func NewErrorHandler(logger logrus.FieldLogger) *ErrorHandler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &ErrorHandler{logger: logger}
}

// CommandError is a failed command as shown to the user. It unwraps to the
// underlying error so callers can still classify it.
type CommandError struct {
	Operation string
	Message   string
	Err       error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("failed to %s: %s", e.Operation, e.Message)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Handle returns a user-facing error for a failed operation, or nil
func (eh *ErrorHandler) Handle(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.ShouldLogError(err) {
		eh.logger.WithFields(logrus.Fields{
			"operation": operation,
			"code":      errors.GetErrorCode(err),
		}).WithError(err).Error("Command failed")
	}
	return &CommandError{Operation: operation, Message: eh.message(err), Err: err}
}

// HandleSimple returns the user-facing message without operation context
func (eh *ErrorHandler) HandleSimple(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s", eh.message(err))
}

func (eh *ErrorHandler) message(err error) string {
	if ve, ok := err.(*validation.ValidationError); ok {
		return ve.Summary()
	}
	return errors.GetUserMessage(err)
}

// IsUserError reports errors caused by bad input rather than by the store
func (eh *ErrorHandler) IsUserError(err error) bool {
	return validation.IsValidationError(err) ||
		errors.IsErrorType(err, errors.ErrorTypeValidation) ||
		errors.IsErrorType(err, errors.ErrorTypeInvalidInput) ||
		errors.IsErrorType(err, errors.ErrorTypeNotFound)
}

// ExitCode maps an error to the process exit status
func (eh *ErrorHandler) ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case eh.IsUserError(err):
		return ExitUserError
	default:
		return ExitFailure
	}
}
