// Package errors defines error types and utilities for CosmORM
package errors

import (
	"errors"
	"fmt"
)

// Condition compiler errors. These are caller-input failures and are never retried.
var (
	// ErrInvalidField is returned when a field name fails the identifier pattern
	ErrInvalidField = errors.New("invalid field name")

	// ErrInvalidOperator is returned when an operator is not in the allow-list
	ErrInvalidOperator = errors.New("invalid query operator")

	// ErrValueTooLong is returned when a textual literal exceeds the maximum length
	ErrValueTooLong = errors.New("value too long")

	// ErrInvalidMembershipValue is returned when IN / NOT IN receives neither a list nor a subquery
	ErrInvalidMembershipValue = errors.New("membership value must be a list or subquery")

	// ErrEmptyFilter is returned when a plain filter has no entries
	ErrEmptyFilter = errors.New("empty filter")

	// ErrEmptyGroup is returned when a compound condition has no children
	ErrEmptyGroup = errors.New("empty condition group")

	// ErrDuplicateParameter is returned when subqueries supply the same parameter name twice
	ErrDuplicateParameter = errors.New("duplicate query parameter")

	// ErrInvalidOptions is returned when paging or ordering options are invalid
	ErrInvalidOptions = errors.New("invalid query options")
)

// Repository errors
var (
	// ErrItemNotFound is returned when an item is not found in the database
	ErrItemNotFound = errors.New("item not found")

	// ErrItemExists is returned when a create finds an existing item with the same keys
	ErrItemExists = errors.New("item already exists")

	// ErrInvalidModel is returned when an item cannot be converted to a document
	ErrInvalidModel = errors.New("invalid model")

	// ErrDeadlineExceeded is returned when too little time is left on the context to start a request
	ErrDeadlineExceeded = errors.New("deadline exceeded")
)

var badRequest = []error{
	ErrInvalidField,
	ErrInvalidOperator,
	ErrValueTooLong,
	ErrInvalidMembershipValue,
	ErrEmptyFilter,
	ErrEmptyGroup,
	ErrDuplicateParameter,
	ErrInvalidOptions,
}

// CosmORMError represents a detailed error with context
type CosmORMError struct {
	Err     error          // Underlying error
	Context map[string]any // Additional context
	Op      string         // Operation that failed
	Model   string         // Model type name
}

// Error implements the error interface
func (e *CosmORMError) Error() string {
	// Model names and context stay out of the message; they are for structured logs only.
	return fmt.Sprintf("cosmorm: %s operation failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *CosmORMError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches the target error
func (e *CosmORMError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewError creates a new CosmORMError
func NewError(op, model string, err error) *CosmORMError {
	return &CosmORMError{
		Op:    op,
		Model: model,
		Err:   err,
	}
}

// NewErrorWithContext creates a new CosmORMError with context
func NewErrorWithContext(op, model string, err error, context map[string]any) *CosmORMError {
	return &CosmORMError{
		Op:      op,
		Model:   model,
		Err:     err,
		Context: context,
	}
}

// IsNotFound checks if an error indicates an item was not found
func IsNotFound(err error) bool {
	return errors.Is(err, ErrItemNotFound)
}

// IsExists checks if an error indicates a duplicate item
func IsExists(err error) bool {
	return errors.Is(err, ErrItemExists)
}

// IsBadRequest reports whether err is a caller-input failure from filter
// compilation or option validation.
func IsBadRequest(err error) bool {
	for _, target := range badRequest {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
