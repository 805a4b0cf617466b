package shared

import (
	"errors"
	"net/http"
)

// AppError carries an HTTP status alongside the underlying cause so the
// Fiber error handler can translate service failures without the handlers
// switching on error strings.
type AppError struct {
	StatusCode int
	Message    string
	Data       interface{}
	Err        error
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

func NewAppError(statusCode int, message string, err error) *AppError {
	return &AppError{StatusCode: statusCode, Message: message, Err: err}
}

func NewBadRequestError(err error, message string) *AppError {
	return NewAppError(http.StatusBadRequest, message, err)
}

// NewAuthorizationError covers role/capability denials. Authentication
// failures are not represented here: the routes that 401 owe their clients
// a flat {error} body, which cannot flow through the envelope the error
// handler renders.
func NewAuthorizationError(message string) *AppError {
	return NewAppError(http.StatusForbidden, message, nil)
}

func NewConflictError(err error, message string) *AppError {
	return NewAppError(http.StatusConflict, message, err)
}

// NewConfigurationError is reserved for startup failures (missing secrets,
// invalid policy files). It is fatal: services return it from Start.
func NewConfigurationError(err error, message string) *AppError {
	return NewAppError(http.StatusInternalServerError, message, err)
}

func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
