package services

import (
	"errors"

	"github.com/localnerve/enrol-pipeline/internal/repository"
)

var (
	// ErrNotFound is returned when the addressed entity does not exist or is
	// outside the caller's workspace
	ErrNotFound = repository.ErrNotFound
	// ErrValidation is returned for input rejected before any write
	ErrValidation = errors.New("validation failed")
	// ErrCrossFormStage is returned when a transition targets a stage of
	// another form
	ErrCrossFormStage = errors.New("target stage belongs to a different form")
	// ErrDuplicateTag is returned when a tag name is already taken in the workspace
	ErrDuplicateTag = errors.New("tag name already exists")
)

// ValidationError carries a user-facing message and matches ErrValidation
type ValidationError struct {
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

func invalid(message string) error {
	return &ValidationError{Message: message}
}

// Actor is the authenticated identity performing a write
type Actor struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// actorID returns a pointer suitable for nullable changed_by/created_by columns
func actorID(a *Actor) *string {
	if a == nil || a.ID == "" {
		return nil
	}
	id := a.ID
	return &id
}
