// Package services provides the graph generation service and its error types.
package services

import (
	"errors"
	"fmt"

	"github.com/dukex/flowgen/pkg/generator"
	"github.com/dukex/flowgen/pkg/n8n"
	"github.com/dukex/flowgen/pkg/persistence"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest = errors.New("invalid request")
	ErrGraphRequired  = errors.New("graph is required")
	ErrInvalidMaxAge  = errors.New("retention must be positive")

	// ErrGraphNotFound is returned when a stored graph does not exist.
	ErrGraphNotFound = persistence.ErrGraphNotFound
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrGraphRequired) ||
		errors.Is(err, ErrInvalidMaxAge) ||
		errors.Is(err, generator.ErrEmptyWorkflow) ||
		errors.Is(err, generator.ErrDuplicateStep) ||
		errors.Is(err, generator.ErrInvalidOptions) ||
		errors.Is(err, n8n.ErrNilGraph)
}

// IsNotFound checks if an error means the requested graph does not exist.
func IsNotFound(err error) bool {
	return persistence.IsGraphNotFound(err)
}

// IsExportError checks if a stored graph could not be turned into a valid n8n import.
func IsExportError(err error) bool {
	return errors.Is(err, n8n.ErrInvalidWorkflow)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// errorCode maps an error to the stable code reported to API clients.
func errorCode(err error) string {
	switch {
	case errors.Is(err, generator.ErrEmptyWorkflow):
		return "EMPTY_WORKFLOW"
	case errors.Is(err, generator.ErrDuplicateStep):
		return "DUPLICATE_STEP"
	case errors.Is(err, generator.ErrInvalidOptions):
		return "INVALID_OPTIONS"
	default:
		return "INVALID_REQUEST"
	}
}
