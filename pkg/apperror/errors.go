package apperror

import (
	"errors"
	"net/http"
)

// ErrorType classifies an error so clients can tell "nothing happened" apart from partial effects
type ErrorType string

const (
	TypeValidation    ErrorType = "validation"
	TypeAuthorization ErrorType = "authorization"
	TypeNotFound      ErrorType = "not_found"
	TypeTransition    ErrorType = "transition"
	TypeDispatch      ErrorType = "dispatch"
	TypeConflict      ErrorType = "conflict"
	TypeRateLimited   ErrorType = "rate_limited"
	TypeInternal      ErrorType = "internal"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int          `json:"code"`
	Type    ErrorType    `json:"type"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
	Err     error        `json:"-"`
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common errors
var (
	ErrNotFound           = &AppError{Code: http.StatusNotFound, Type: TypeNotFound, Message: "Resource not found"}
	ErrUnauthorized       = &AppError{Code: http.StatusUnauthorized, Type: TypeAuthorization, Message: "Unauthorized"}
	ErrInvalidCredentials = &AppError{Code: http.StatusUnauthorized, Type: TypeAuthorization, Message: "Invalid email or password"}
	ErrInvalidToken       = &AppError{Code: http.StatusUnauthorized, Type: TypeAuthorization, Message: "Invalid token"}
)

// NewAppError creates a new application error
func NewAppError(code int, errType ErrorType, message string) *AppError {
	return &AppError{
		Code:    code,
		Type:    errType,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(fieldErrors []FieldError) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Type:    TypeValidation,
		Message: "Validation failed",
		Errors:  fieldErrors,
	}
}

// NewFieldError creates a validation error for a single field
func NewFieldError(field, message string) *AppError {
	return NewValidationError([]FieldError{{Field: field, Message: message}})
}

// NewAuthorizationError is returned when the caller does not own the resource
func NewAuthorizationError(message string) *AppError {
	return &AppError{
		Code:    http.StatusUnauthorized,
		Type:    TypeAuthorization,
		Message: message,
	}
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Type:    TypeNotFound,
		Message: resource + " not found",
	}
}

// NewTransitionError is returned when a status change is not allowed from the current status
func NewTransitionError(message string, err error) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Type:    TypeTransition,
		Message: message,
		Err:     err,
	}
}

// NewDispatchError is returned when an email could not be confirmed as delivered
func NewDispatchError(message string, err error) *AppError {
	return &AppError{
		Code:    http.StatusBadGateway,
		Type:    TypeDispatch,
		Message: message,
		Err:     err,
	}
}

// NewConflictError creates a conflict error with a custom message
func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Type:    TypeConflict,
		Message: message,
	}
}

// NewBadRequestError creates a bad request error with a custom message
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Type:    TypeValidation,
		Message: message,
	}
}

// NewInternalError wraps an unexpected failure
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Code:    http.StatusInternalServerError,
		Type:    TypeInternal,
		Message: message,
		Err:     err,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// IsType reports whether err is an AppError of the given type
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == errType
}

// GetAppError converts an error to AppError if possible
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Code:    http.StatusInternalServerError,
		Type:    TypeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}
