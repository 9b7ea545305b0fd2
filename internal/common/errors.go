// Package common provides shared utilities used across all features
package common

import (
	"errors"
	"fmt"
	"net/http"
)

// Engine error taxonomy. Every one of these is fatal to the call that raised
// it: the router never retries internally and never partially commits.
var (
	// Input validation
	ErrZeroAmount   = errors.New("amount must be greater than zero")
	ErrSameToken    = errors.New("input token equals the target asset")
	ErrPathTooShort = errors.New("path must contain at least one hop")

	// Configuration
	ErrUnsetAddress = errors.New("required address not configured")

	// Liveness
	ErrNoPoolFound = errors.New("no pool found")
	ErrNoRoute     = errors.New("no viable route")
	ErrInvalidPath = errors.New("invalid path")

	// Economic
	ErrOutputBelowMinimum = errors.New("output below caller minimum")
	ErrInsufficientFee    = errors.New("insufficient value for bridge fee")
	ErrPermitInvalid      = errors.New("invalid or expired permit")

	// Security
	ErrUnauthorizedCallback = errors.New("settlement callback from unauthorized caller")
	ErrReentrancy           = errors.New("reentrant call rejected")
)

// HttpError represents an HTTP error with status code and message
type HttpError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *HttpError) Error() string {
	return fmt.Sprintf("HTTP error: %d %s %s", e.StatusCode, e.Code, e.Message)
}

func messageOrDefault(msg string, defaultMsg string) string {
	if msg != "" {
		return msg
	}
	return defaultMsg
}

func HTTPErrorBadRequest(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusBadRequest,
		Code:       "BAD_REQUEST",
		Message:    messageOrDefault(msg, "Bad request"),
	}
}

func HTTPErrorNotFound(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusNotFound,
		Code:       "NOT_FOUND",
		Message:    messageOrDefault(msg, "Not found"),
	}
}

func HTTPErrorUnauthorized(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusUnauthorized,
		Code:       "UNAUTHORIZED",
		Message:    messageOrDefault(msg, "Unauthorized"),
	}
}

func HTTPErrorConflict(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusConflict,
		Code:       "CONFLICT",
		Message:    messageOrDefault(msg, "Conflict"),
	}
}

func HTTPErrorUnprocessable(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusUnprocessableEntity,
		Code:       "UNPROCESSABLE_ENTITY",
		Message:    messageOrDefault(msg, "Unprocessable entity"),
	}
}

func HTTPErrorInternalError(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusInternalServerError,
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    messageOrDefault(msg, "Internal server error"),
	}
}

// HTTPErrorFor maps an engine error to its HTTP representation. Anything
// outside the sentinel taxonomy is a server-side failure.
func HTTPErrorFor(err error) *HttpError {
	msg := err.Error()
	switch {
	case errors.Is(err, ErrZeroAmount),
		errors.Is(err, ErrSameToken),
		errors.Is(err, ErrPathTooShort),
		errors.Is(err, ErrPermitInvalid),
		errors.Is(err, ErrUnsetAddress):
		return HTTPErrorBadRequest(msg)
	case errors.Is(err, ErrNoRoute), errors.Is(err, ErrNoPoolFound):
		return HTTPErrorNotFound(msg)
	case errors.Is(err, ErrReentrancy):
		return HTTPErrorConflict(msg)
	case errors.Is(err, ErrInvalidPath),
		errors.Is(err, ErrOutputBelowMinimum),
		errors.Is(err, ErrInsufficientFee),
		errors.Is(err, ErrUnauthorizedCallback):
		return HTTPErrorUnprocessable(msg)
	default:
		return HTTPErrorInternalError(msg)
	}
}
