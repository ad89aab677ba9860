// Package apperrors defines the error kinds surfaced to API clients. Every
// handler forwards errors to the responder in middleware.ErrorHandler, which
// uses Status and Message to build the response.
package apperrors

import (
	"errors"
	"net/http"
)

type Error struct {
	Status  int
	Message string
	Err     error // underlying cause, logged but never sent to clients
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

func Validation(message string) *Error {
	return New(http.StatusUnprocessableEntity, message)
}

func AlreadyExist(message string) *Error {
	return New(http.StatusConflict, message)
}

func WrongCredentials(message string) *Error {
	if message == "" {
		message = "Username or password is wrong!"
	}
	return New(http.StatusUnauthorized, message)
}

func Unauthorized(message string) *Error {
	if message == "" {
		message = "unAuthorized"
	}
	return New(http.StatusUnauthorized, message)
}

func Forbidden(message string) *Error {
	if message == "" {
		message = "Permission denied"
	}
	return New(http.StatusForbidden, message)
}

func NotFound(message string) *Error {
	if message == "" {
		message = "404 Not Found"
	}
	return New(http.StatusNotFound, message)
}

func TooManyRequests() *Error {
	return New(http.StatusTooManyRequests, "Too many requests")
}

// ServerError wraps an unexpected failure. The cause is kept for logging.
func ServerError(cause error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: "Internal server error", Err: cause}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
