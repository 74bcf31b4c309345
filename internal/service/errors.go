package service

import (
	"errors"
	"fmt"

	"github.com/fluentwork/coach/internal/domain"
)

var (
	// ErrEmptyInput indicates a review or practice attempt without text.
	ErrEmptyInput = fmt.Errorf("%w: input cannot be empty", domain.ErrValidation)

	// ErrNotOnboarded indicates the user has no profile yet.
	// API layer should map this to HTTP 409 Conflict.
	ErrNotOnboarded = errors.New("user has not completed onboarding")
)

// ServiceError records which operation failed.
type ServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("coach service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("coach service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{Operation: operation, Message: message, Err: err}
}
