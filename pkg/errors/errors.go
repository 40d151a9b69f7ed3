// Package errors defines the application error type shared by services and
// the HTTP layer. Every AppError wraps one of the sentinels below, so callers
// branch with errors.Is and the HTTP layer maps either form to a status.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound       = errors.New("resource not found")
	ErrAlreadyExists  = errors.New("resource already exists")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrServiceUnavail = errors.New("service unavailable")
	ErrRateLimited    = errors.New("rate limited")
)

// Codes carried in error responses.
const (
	CodeNotFound           = "NOT_FOUND"
	CodeAlreadyExists      = "ALREADY_EXISTS"
	CodeConflict           = "CONFLICT"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeEmptyBody          = "EMPTY_BODY"
	CodeInvalidParent      = "INVALID_PARENT"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeRateLimited        = "RATE_LIMITED"
	CodeInternal           = "INTERNAL_ERROR"
)

// AppError is an error with a client-facing code and message.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func newError(code string, status int, sentinel error, message string) *AppError {
	return &AppError{Code: code, Message: message, Status: status, Err: sentinel}
}

// NotFound reports a missing resource, e.g. NotFound("review", id).
func NotFound(resource, id string) *AppError {
	return newError(CodeNotFound, http.StatusNotFound, ErrNotFound,
		fmt.Sprintf("%s with id %s not found", resource, id))
}

// Duplicate reports a uniqueness conflict such as a second review of an album.
func Duplicate(message string) *AppError {
	return newError(CodeAlreadyExists, http.StatusConflict, ErrAlreadyExists, message)
}

// Conflict reports a state conflict that is not a duplicate.
func Conflict(message string) *AppError {
	return newError(CodeConflict, http.StatusConflict, ErrConflict, message)
}

func InvalidInput(message string) *AppError {
	return newError(CodeInvalidInput, http.StatusBadRequest, ErrInvalidInput, message)
}

// EmptyBody reports a review or comment body that is blank once trimmed.
func EmptyBody(message string) *AppError {
	return newError(CodeEmptyBody, http.StatusBadRequest, ErrInvalidInput, message)
}

// InvalidParent reports a reply whose parent is missing, on another review,
// or itself a reply.
func InvalidParent(message string) *AppError {
	return newError(CodeInvalidParent, http.StatusBadRequest, ErrInvalidInput, message)
}

func Unauthorized(message string) *AppError {
	return newError(CodeUnauthorized, http.StatusUnauthorized, ErrUnauthorized, message)
}

func Forbidden(message string) *AppError {
	return newError(CodeForbidden, http.StatusForbidden, ErrForbidden, message)
}

// ServiceUnavailable reports an unreachable dependency such as the remote
// identity directory.
func ServiceUnavailable(message string) *AppError {
	return newError(CodeServiceUnavailable, http.StatusServiceUnavailable, ErrServiceUnavail, message)
}

// RateLimited reports a caller that exceeded its request budget.
func RateLimited(message string) *AppError {
	return newError(CodeRateLimited, http.StatusTooManyRequests, ErrRateLimited, message)
}

// Classification is how an arbitrary error is presented to a client.
type Classification struct {
	Status  int
	Code    string
	Message string
}

var classes = []struct {
	sentinel error
	class    Classification
}{
	{ErrNotFound, Classification{http.StatusNotFound, CodeNotFound, "resource not found"}},
	{ErrAlreadyExists, Classification{http.StatusConflict, CodeAlreadyExists, "resource already exists"}},
	{ErrConflict, Classification{http.StatusConflict, CodeConflict, "conflicting state"}},
	{ErrInvalidInput, Classification{http.StatusBadRequest, CodeInvalidInput, ""}},
	{ErrUnauthorized, Classification{http.StatusUnauthorized, CodeUnauthorized, "authentication required"}},
	{ErrForbidden, Classification{http.StatusForbidden, CodeForbidden, "insufficient permissions"}},
	{ErrServiceUnavail, Classification{http.StatusServiceUnavailable, CodeServiceUnavailable, "a dependency is unavailable"}},
	{ErrRateLimited, Classification{http.StatusTooManyRequests, CodeRateLimited, "too many requests"}},
}

// Classify maps err to a status, code and message. AppErrors keep their own
// values; bare or wrapped sentinels get a generic message, except invalid
// input which echoes err. Anything else is an internal error.
func Classify(err error) Classification {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return Classification{appErr.Status, appErr.Code, appErr.Message}
	}
	for _, c := range classes {
		if errors.Is(err, c.sentinel) {
			out := c.class
			if out.Message == "" {
				out.Message = err.Error()
			}
			return out
		}
	}
	return Classification{http.StatusInternalServerError, CodeInternal, "an internal error occurred"}
}

// HTTPStatus returns the status Classify would assign.
func HTTPStatus(err error) int {
	return Classify(err).Status
}
