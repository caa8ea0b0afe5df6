package usecase

import (
	"errors"

	"yamdb/internal/data/repository"
	"yamdb/pkg/utils"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrForbidden     = errors.New("you do not have permission to perform this action")
	ErrUnauthorized  = errors.New("authentication credentials were not provided")
	ErrInvalidCode   = errors.New("invalid confirmation code")
)

// ValidationError carries per-field messages back to the client.
type ValidationError struct {
	Fields map[string]string
	// Err optionally classifies the failure, e.g. ErrAlreadyExists.
	Err error
}

func (e *ValidationError) Error() string {
	return "validation failed: " + utils.FormatValidationErrors(e.Fields)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func fieldError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// validate runs the struct validator and returns a *ValidationError on failure.
func validate(req any) error {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// duplicateError converts a repository unique violation into a field error.
// constraints maps constraint names to the offending field.
func duplicateError(err error, constraints map[string]string, fallback string) error {
	var dup *repository.DuplicateError
	if !errors.As(err, &dup) {
		return nil
	}

	field, ok := constraints[dup.Constraint]
	if !ok {
		field = fallback
	}
	return &ValidationError{
		Fields: map[string]string{field: "An object with this " + field + " already exists"},
		Err:    ErrAlreadyExists,
	}
}
