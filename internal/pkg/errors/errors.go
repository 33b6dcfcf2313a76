// Package errors provides the closed set of error kinds used by tutorhub.
//
// Every failure that crosses a package boundary is an *AppError carrying one
// Kind. Kinds map 1:1 to HTTP statuses at the transport edge, and
// errors.Is(err, ErrNotFound) style checks match by kind.
//
// Import Path: tutorhub.io/tutorhub/internal/pkg/errors
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the closed classification of an AppError.
type Kind uint8

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindPersistence
	KindUnauthorized
)

var kindNames = [...]string{
	KindInternal:     "internal",
	KindValidation:   "validation",
	KindNotFound:     "not_found",
	KindConflict:     "conflict",
	KindPersistence:  "persistence",
	KindUnauthorized: "unauthorized",
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// HTTPStatus returns the status code a kind is rendered with.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Sentinel errors, one per kind. An *AppError matches the sentinel of its
// kind under errors.Is.
var (
	ErrInternal     = errors.New("internal error")
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrPersistence  = errors.New("persistence failure")
	ErrUnauthorized = errors.New("unauthorized")
)

var sentinels = map[Kind]error{
	KindInternal:     ErrInternal,
	KindValidation:   ErrValidation,
	KindNotFound:     ErrNotFound,
	KindConflict:     ErrConflict,
	KindPersistence:  ErrPersistence,
	KindUnauthorized: ErrUnauthorized,
}

// AppError is a structured application error.
type AppError struct {
	// Kind classifies the failure.
	Kind Kind `json:"-"`

	// Code is a machine-readable error code (e.g., "CUSTOMER_NOT_FOUND").
	Code string `json:"code"`

	// Message is a human-readable error message.
	Message string `json:"message"`

	// HTTPStatus is the corresponding HTTP status code.
	HTTPStatus int `json:"-"`

	// Params carries diagnostic context (entity, id, partition).
	Params map[string]interface{} `json:"params,omitempty"`

	// FieldErrors carries field-level validation details.
	FieldErrors []FieldError `json:"field_errors,omitempty"`

	// Err is the wrapped underlying error.
	Err error `json:"-"`
}

// FieldError describes a field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinel.
func (e *AppError) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

// New creates a new AppError of the given kind.
func New(kind Kind, code, message string) *AppError {
	return &AppError{
		Kind:       kind,
		Code:       code,
		Message:    message,
		HTTPStatus: kind.HTTPStatus(),
	}
}

// Wrap wraps an existing error into an AppError.
func Wrap(err error, kind Kind, code, message string) *AppError {
	e := New(kind, code, message)
	e.Err = err
	return e
}

// WithParams attaches structured parameters to the error.
func (e *AppError) WithParams(params map[string]interface{}) *AppError {
	if e == nil || len(params) == 0 {
		return e
	}
	if e.Params == nil {
		e.Params = make(map[string]interface{}, len(params))
	}
	for k, v := range params {
		e.Params[k] = v
	}
	return e
}

// WithFieldErrors attaches field-level errors to the AppError.
func (e *AppError) WithFieldErrors(fieldErrors []FieldError) *AppError {
	if e == nil || len(fieldErrors) == 0 {
		return e
	}
	e.FieldErrors = append(e.FieldErrors, fieldErrors...)
	return e
}

// Common error constructors.

// Validation creates a 400 error.
func Validation(code, message string) *AppError {
	return New(KindValidation, code, message)
}

// NotFound creates a 404 error.
func NotFound(code, message string) *AppError {
	return New(KindNotFound, code, message)
}

// Conflict creates a 409 error.
func Conflict(code, message string) *AppError {
	return New(KindConflict, code, message)
}

// Unauthorized creates a 401 error.
func Unauthorized(code, message string) *AppError {
	return New(KindUnauthorized, code, message)
}

// Persistence wraps a storage fault.
func Persistence(err error, message string) *AppError {
	return Wrap(err, KindPersistence, CodePersistence, message)
}

// Internal creates a 500 error.
func Internal(code, message string) *AppError {
	return New(KindInternal, code, message)
}

// IsAppError checks if an error is an AppError and returns it.
func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the kind of the outermost AppError in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	if appErr, ok := IsAppError(err); ok {
		return appErr.Kind
	}
	return KindInternal
}
