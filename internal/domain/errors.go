package domain

import (
	"errors"
	"net/http"
)

// Domain errors
var (
	ErrInvalidCredential = errors.New("invalid credential")
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("resource not found")
	ErrConflict          = errors.New("resource conflict")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrValidation        = errors.New("validation failed")
	ErrTooManyRequests   = errors.New("too many requests")
)

// AppError carries the HTTP status and the client-facing detail of a domain failure
type AppError struct {
	Status int
	Detail string
	Err    error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Detail + ": " + e.Err.Error()
	}
	return e.Detail
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new app error
func NewAppError(status int, detail string, err error) *AppError {
	return &AppError{Status: status, Detail: detail, Err: err}
}

func InvalidCredential(detail string) *AppError {
	return NewAppError(http.StatusUnauthorized, detail, ErrInvalidCredential)
}

func Unauthenticated(detail string) *AppError {
	return NewAppError(http.StatusUnauthorized, detail, ErrUnauthenticated)
}

func Forbidden(detail string) *AppError {
	return NewAppError(http.StatusForbidden, detail, ErrForbidden)
}

func NotFound(detail string) *AppError {
	return NewAppError(http.StatusNotFound, detail, ErrNotFound)
}

func Conflict(detail string) *AppError {
	return NewAppError(http.StatusConflict, detail, ErrConflict)
}

func InsufficientFunds() *AppError {
	return NewAppError(http.StatusBadRequest, "Insufficient funds", ErrInsufficientFunds)
}

func Validation(detail string) *AppError {
	return NewAppError(http.StatusUnprocessableEntity, detail, ErrValidation)
}

func TooManyRequests(detail string) *AppError {
	return NewAppError(http.StatusTooManyRequests, detail, ErrTooManyRequests)
}
