package service

import (
	"errors"
	"strings"

	"github.com/submission-ticker-api/internal/models"
	"github.com/submission-ticker-api/internal/repository"
)

var (
	// ErrValidation marks missing or malformed client input
	ErrValidation = errors.New("validation failed")
	// ErrInvalidID marks an id that is not a canonical UUID
	ErrInvalidID = errors.New("invalid id")
	// ErrNotFound marks an unknown id
	ErrNotFound = repository.ErrNotFound
	// ErrInvalidTransition marks a status change the moderation rules forbid
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrUnknownResource marks a resource root other than announcements/testimonials
	ErrUnknownResource = errors.New("unknown resource")
)

// ValidationFailure carries the field errors behind ErrValidation
type ValidationFailure struct {
	Errors []models.ValidationError
}

func (e *ValidationFailure) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fe.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationFailure) Unwrap() error {
	return ErrValidation
}
