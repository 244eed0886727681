package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error types for different domains
type ErrorType string

const (
	ErrorTypeValidation            ErrorType = "VALIDATION_ERROR"
	ErrorTypeInfrastructure        ErrorType = "INFRASTRUCTURE_ERROR"
	ErrorTypeAuthorization         ErrorType = "AUTHORIZATION_ERROR"
	ErrorTypeNotFound              ErrorType = "NOT_FOUND_ERROR"
	ErrorTypeConflict              ErrorType = "CONFLICT_ERROR"
	ErrorTypeInternal              ErrorType = "INTERNAL_ERROR"
	ErrorTypeDuplicatePrincipal    ErrorType = "DUPLICATE_PRINCIPAL"
	ErrorTypeDuplicateCollection   ErrorType = "DUPLICATE_COLLECTION"
	ErrorTypeConnectionUnavailable ErrorType = "CONNECTION_UNAVAILABLE"
)

// Common application errors
var (
	ErrNotFound  = errors.New("resource not found")
	ErrForbidden = errors.New("forbidden")
	ErrConflict  = errors.New("resource conflict")
)

// Bootstrap-specific errors
var (
	ErrDuplicatePrincipal    = errors.New("principal already exists")
	ErrDuplicateCollection   = errors.New("collection already exists")
	ErrConnectionUnavailable = errors.New("administrative endpoint unavailable")
	ErrBootstrapInProgress   = errors.New("bootstrap already in progress")
)

// AppError represents a custom application error with context
type AppError struct {
	Type      ErrorType              `json:"type"`
	Message   string                 `json:"message"`
	Code      string                 `json:"code,omitempty"`
	HTTPCode  int                    `json:"-"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Cause     error                  `json:"-"`
	Component string                 `json:"component,omitempty"`

	// kind is the package sentinel for Type; it stays matchable after WithCause
	kind error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the sentinel for the error's type and the wrapped cause
func (e *AppError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.kind != nil {
		errs = append(errs, e.kind)
	}
	if e.Cause != nil && e.Cause != e.kind {
		errs = append(errs, e.Cause)
	}
	return errs
}

// NewAppError creates a new application error
func NewAppError(errorType ErrorType, message string, httpCode int) *AppError {
	return &AppError{
		Type:     errorType,
		Message:  message,
		HTTPCode: httpCode,
		Details:  make(map[string]interface{}),
	}
}

// WithCode adds an error code
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithCause adds the underlying cause
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// withKind records the sentinel matched by errors.Is
func (e *AppError) withKind(kind error) *AppError {
	e.kind = kind
	return e
}

// WithComponent adds the component name
func (e *AppError) WithComponent(component string) *AppError {
	e.Component = component
	return e
}

// WithDetail adds a detail field
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Common error constructors

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return NewAppError(ErrorTypeValidation, message, http.StatusBadRequest)
}

// NewInfrastructureError creates an infrastructure error
func NewInfrastructureError(message string) *AppError {
	return NewAppError(ErrorTypeInfrastructure, message, http.StatusInternalServerError)
}

// NewAuthorizationError creates an authorization error
func NewAuthorizationError(message string) *AppError {
	return NewAppError(ErrorTypeAuthorization, message, http.StatusForbidden).withKind(ErrForbidden)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrorTypeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound).withKind(ErrNotFound)
}

// NewConflictError creates a conflict error
func NewConflictError(message string) *AppError {
	return NewAppError(ErrorTypeConflict, message, http.StatusConflict).withKind(ErrConflict)
}

// NewInternalError creates an internal server error
func NewInternalError(message string) *AppError {
	return NewAppError(ErrorTypeInternal, message, http.StatusInternalServerError)
}

// NewDuplicatePrincipalError reports a principal that already exists on the target database
func NewDuplicatePrincipalError(username, database string) *AppError {
	return NewAppError(ErrorTypeDuplicatePrincipal,
		fmt.Sprintf("user %q already exists on database %q", username, database), http.StatusConflict).
		withKind(ErrDuplicatePrincipal).
		WithDetail("username", username).
		WithDetail("database", database)
}

// NewDuplicateCollectionError reports a collection that already exists
func NewDuplicateCollectionError(collection, database string) *AppError {
	return NewAppError(ErrorTypeDuplicateCollection,
		fmt.Sprintf("collection %q already exists on database %q", collection, database), http.StatusConflict).
		withKind(ErrDuplicateCollection).
		WithDetail("collection", collection).
		WithDetail("database", database)
}

// NewConnectionUnavailableError reports an unreachable administrative endpoint
func NewConnectionUnavailableError(message string) *AppError {
	return NewAppError(ErrorTypeConnectionUnavailable, message, http.StatusServiceUnavailable).
		withKind(ErrConnectionUnavailable)
}

// ValidationError represents validation errors for multiple fields
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// ValidationErrors represents a collection of validation errors
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// Error implements the error interface
func (ve *ValidationErrors) Error() string {
	if len(ve.Errors) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", ve.Errors[0].Message)
}

// NewValidationErrors creates a new validation errors instance
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors: make([]ValidationError, 0),
	}
}

// Add adds a validation error
func (ve *ValidationErrors) Add(field, message string, value interface{}) *ValidationErrors {
	ve.Errors = append(ve.Errors, ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	})
	return ve
}

// HasErrors returns true if there are validation errors
func (ve *ValidationErrors) HasErrors() bool {
	return len(ve.Errors) > 0
}

// ToAppError converts validation errors to an AppError
func (ve *ValidationErrors) ToAppError() *AppError {
	if !ve.HasErrors() {
		return nil
	}

	appErr := NewValidationError(ve.Error())
	appErr.Details["validation_errors"] = ve.Errors
	return appErr
}

// Helper functions for common error scenarios

// WrapError wraps an error with context
func WrapError(err error, message string) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError(message).WithCause(err)
}

// TypeOf returns the ErrorType of err, or ErrorTypeInternal for foreign errors
func TypeOf(err error) ErrorType {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	switch {
	case errors.Is(err, ErrDuplicatePrincipal):
		return ErrorTypeDuplicatePrincipal
	case errors.Is(err, ErrDuplicateCollection):
		return ErrorTypeDuplicateCollection
	case errors.Is(err, ErrConnectionUnavailable):
		return ErrorTypeConnectionUnavailable
	case errors.Is(err, ErrBootstrapInProgress), errors.Is(err, ErrConflict):
		return ErrorTypeConflict
	}
	return ErrorTypeInternal
}

// HTTPStatus returns the HTTP status carried by err
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.HTTPCode != 0 {
		return appErr.HTTPCode
	}
	return http.StatusInternalServerError
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return TypeOf(err) == ErrorTypeNotFound || errors.Is(err, ErrNotFound)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return TypeOf(err) == ErrorTypeValidation
}

// IsAuthorization checks if an error is an authorization error
func IsAuthorization(err error) bool {
	return TypeOf(err) == ErrorTypeAuthorization || errors.Is(err, ErrForbidden)
}

// IsConflict checks if an error is a conflict error
func IsConflict(err error) bool {
	return TypeOf(err) == ErrorTypeConflict || errors.Is(err, ErrConflict)
}

// IsConnectionUnavailable checks if an error means the server could not be reached
func IsConnectionUnavailable(err error) bool {
	return TypeOf(err) == ErrorTypeConnectionUnavailable || errors.Is(err, ErrConnectionUnavailable)
}
