// Package errors holds the sentinel and typed errors shared by repositories, services and handlers.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates that a requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate indicates a uniqueness conflict.
	ErrDuplicate = errors.New("already exists")

	// ErrCategoryInUse indicates a category still referenced by partners or embeds.
	ErrCategoryInUse = errors.New("category in use")

	// ErrNotSetUp indicates an organization that has no settings yet.
	ErrNotSetUp = errors.New("organization not set up")

	// ErrInvalidInput indicates that provided input was invalid.
	ErrInvalidInput = errors.New("invalid input")
)

// NotFoundError names the missing resource.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// Is implements errors.Is support.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(resource, key string) *NotFoundError {
	return &NotFoundError{Resource: resource, Key: key}
}

// DuplicateError names the unique constraint that rejected a write.
type DuplicateError struct {
	Resource   string
	Constraint string
}

func (e *DuplicateError) Error() string {
	if e.Constraint == "" {
		return fmt.Sprintf("%s already exists", e.Resource)
	}
	return fmt.Sprintf("%s already exists (%s)", e.Resource, e.Constraint)
}

// Is implements errors.Is support.
func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

// NewDuplicateError creates a DuplicateError.
func NewDuplicateError(resource, constraint string) *DuplicateError {
	return &DuplicateError{Resource: resource, Constraint: constraint}
}

// ValidationError represents a rejected field value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is implements errors.Is support.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
