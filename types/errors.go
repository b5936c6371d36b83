package types

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of an error
type ErrorType string

const (
	ErrorTypeUnauthorized   ErrorType = "unauthorized"
	ErrorTypeValidation     ErrorType = "validation"
	ErrorTypeDispatch       ErrorType = "dispatch"
	ErrorTypeNotFound       ErrorType = "not_found"
	ErrorTypeBootstrapLoad  ErrorType = "bootstrap_load"
	ErrorTypeBootstrapBuild ErrorType = "bootstrap_build"
	ErrorTypeConfiguration  ErrorType = "configuration"
	ErrorTypeInternal       ErrorType = "internal"
)

// DomainError represents a structured error with additional context.
// Error returns Message only, so the text handed to clients is exactly
// the message it was created with.
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]string
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError of the same type.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key, value string) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

var (
	ErrUnauthorized        = NewDomainError(ErrorTypeUnauthorized, "Invalid authentication token", nil)
	ErrNotAuthenticated    = NewDomainError(ErrorTypeUnauthorized, "Not authenticated", nil)
	ErrKnowledgeBaseAbsent = NewDomainError(ErrorTypeNotFound, "knowledge base not found", nil)
)

// NewDispatchError keeps the engine's error text as the client-facing message.
func NewDispatchError(index int, err error) *DomainError {
	return NewDomainError(ErrorTypeDispatch, err.Error(), err).
		WithDetail("question_index", fmt.Sprintf("%d", index))
}

func NewValidationError(message string, fields map[string]string) *DomainError {
	e := NewDomainError(ErrorTypeValidation, message, nil)
	e.Details = fields
	return e
}

func NewConfigurationError(format string, args ...any) *DomainError {
	return NewDomainError(ErrorTypeConfiguration, fmt.Sprintf(format, args...), nil)
}

func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ErrorTypeInternal
}

func isType(err error, t ErrorType) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Type == t
}

func IsUnauthorizedError(err error) bool  { return isType(err, ErrorTypeUnauthorized) }
func IsValidationError(err error) bool    { return isType(err, ErrorTypeValidation) }
func IsDispatchError(err error) bool      { return isType(err, ErrorTypeDispatch) }
func IsNotFoundError(err error) bool      { return isType(err, ErrorTypeNotFound) }
func IsConfigurationError(err error) bool { return isType(err, ErrorTypeConfiguration) }

// GetErrorDetails returns the details of a DomainError, or nil.
func GetErrorDetails(err error) map[string]string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}
