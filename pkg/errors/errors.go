// Package errors defines the sentinel errors shared across the decomposition
// pipeline and an AppError wrapper that carries an HTTP status for the query
// API.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidCorpus        = errors.New("invalid corpus")
	ErrMissingTranslation   = errors.New("missing translation")
	ErrDuplicateInsert      = errors.New("word already present in result store")
	ErrIncompatibleSnapshot = errors.New("snapshot produced by a different policy")
	ErrWordNotFound         = errors.New("word not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInternal             = errors.New("internal error")
	ErrTimeout              = errors.New("operation timed out")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrWordNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicateInsert):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrMissingTranslation):
		return http.StatusBadRequest
	case errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
