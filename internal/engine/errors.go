package engine

import (
	"errors"
	"fmt"
)

// EntityValidation is the entity of errors raised by inter-field
// validators.
const EntityValidation = "validation"

// GenericInternalMessage replaces the details of a fault recovered at the
// Calculate boundary.
const GenericInternalMessage = "Calculation Engine encountered an internal error. Our support team is looking at it. Please retry after some time"

// CalcError is one problem reported by a failed run.
//
// Entity is the variable the problem belongs to, EntityValidation for an
// inter-field validator, or empty for a problem with the run as a whole.
type CalcError struct {
	Entity  string `json:"name"`
	Message string `json:"message"`
}

func (e CalcError) Error() string {
	if e.Entity == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Entity, e.Message)
}

// InternalError represents a state a successfully built program should
// never reach at run time.
//
// Internal errors include:
//   - Circular dependency: a variable was requested while being computed
//   - Undefined variable: a rule references a name with no definition
//   - Missing rule: a computed variable has no rule
//   - Panic: a fault recovered at the Calculate boundary
type InternalError struct {
	// Code identifies the error category.
	Code InternalErrorCode

	// Variable is the variable being determined, if any.
	Variable string

	// Message is a human-readable description.
	Message string
}

// InternalErrorCode categorizes internal errors.
type InternalErrorCode string

const (
	// ErrCodeCircular indicates a variable was requested while in progress.
	ErrCodeCircular InternalErrorCode = "CIRCULAR_DEPENDENCY"

	// ErrCodeUndefined indicates a reference to an undefined variable.
	ErrCodeUndefined InternalErrorCode = "UNDEFINED_VARIABLE"

	// ErrCodeMissingRule indicates a computed variable without a rule.
	ErrCodeMissingRule InternalErrorCode = "MISSING_RULE"

	// ErrCodePanic indicates a recovered panic.
	ErrCodePanic InternalErrorCode = "PANIC"
)

// Error implements the error interface.
func (e *InternalError) Error() string {
	if e.Variable != "" {
		return fmt.Sprintf("%s: %s (variable=%s)", e.Code, e.Message, e.Variable)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsInternalError returns true if the error is an InternalError.
// Uses errors.As to handle wrapped errors.
func IsInternalError(err error) bool {
	var ie *InternalError
	return errors.As(err, &ie)
}

// IsCircularError returns true if the error is a run-time circular
// dependency. Uses errors.As to handle wrapped errors.
func IsCircularError(err error) bool {
	var ie *InternalError
	if errors.As(err, &ie) {
		return ie.Code == ErrCodeCircular
	}
	return false
}

// NewCircularError creates an InternalError for a variable requested while
// it was being computed.
func NewCircularError(name string) *InternalError {
	return &InternalError{
		Code:     ErrCodeCircular,
		Variable: name,
		Message:  "variable requested while its own value is being determined",
	}
}

// NewUndefinedError creates an InternalError for an undefined variable.
func NewUndefinedError(name string) *InternalError {
	return &InternalError{
		Code:     ErrCodeUndefined,
		Variable: name,
		Message:  "variable is not defined",
	}
}
