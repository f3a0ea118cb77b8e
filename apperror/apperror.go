// Package apperror defines the error codes surfaced to API clients and the
// classification of store errors into them.
package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type Code string

const (
	CodeValidationFailed   Code = "VALIDATION_FAILED"
	CodeBadRequest         Code = "BAD_REQUEST"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeSessionExpired     Code = "SESSION_EXPIRED"
	CodeForbidden          Code = "FORBIDDEN"
	CodeNotFound           Code = "NOT_FOUND"
	CodeConflict           Code = "CONFLICT"
	CodeDatabase           Code = "DATABASE_ERROR"
	CodeInternal           Code = "INTERNAL_ERROR"
)

var statusByCode = map[Code]int{
	CodeValidationFailed:   http.StatusBadRequest,
	CodeBadRequest:         http.StatusBadRequest,
	CodeInvalidCredentials: http.StatusUnauthorized,
	CodeSessionExpired:     http.StatusUnauthorized,
	CodeForbidden:          http.StatusForbidden,
	CodeNotFound:           http.StatusNotFound,
	CodeConflict:           http.StatusConflict,
	CodeDatabase:           http.StatusInternalServerError,
	CodeInternal:           http.StatusInternalServerError,
}

// HTTPStatus maps a code to its response status; unknown codes are 500.
func (c Code) HTTPStatus() int {
	if s, ok := statusByCode[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

type Error struct {
	Code    Code
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetail returns e with key set in its details.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func NotFound(message string) *Error {
	return New(CodeNotFound, message)
}

func Forbidden(message string) *Error {
	return New(CodeForbidden, message)
}

func Conflict(message string) *Error {
	return New(CodeConflict, message)
}

func BadRequest(message string) *Error {
	return New(CodeBadRequest, message)
}

func Database(message string, err error) *Error {
	return Wrap(CodeDatabase, message, err)
}

// Validation builds a VALIDATION_FAILED error with per-field messages.
func Validation(fields map[string]string) *Error {
	e := New(CodeValidationFailed, "validation failed")
	for k, v := range fields {
		e.WithDetail(k, v)
	}
	return e
}

// CodeOf returns the code carried by err, INTERNAL_ERROR when there is none.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

func IsCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// PostgreSQL SQLSTATE codes.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// FromDB classifies an error returned by gorm. resource names the record for
// the NOT_FOUND message. A nil err stays nil and *Error values pass through.
func FromDB(err error, resource string) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}

	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return Wrap(CodeNotFound, resource+" not found", err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return Wrap(CodeConflict, "duplicate "+resource, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return Wrap(CodeConflict, resource+" references a missing record", err)
	case errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation:
		return Wrap(CodeConflict, "duplicate "+resource, err)
	case errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation:
		return Wrap(CodeConflict, resource+" references a missing record", err)
	}
	return Wrap(CodeDatabase, "database error", err)
}
