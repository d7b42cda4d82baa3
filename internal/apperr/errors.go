// Package apperr holds the error kinds shared by services, repositories and handlers.
// Every failure surfaced to a caller is exactly one of these kinds.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// Kinds. Match with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrValidation         = errors.New("validation error")
	ErrDuplicateValue     = errors.New("duplicate value")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrTransactionFailure = errors.New("transaction failure")

	// ErrProductNotFound is a referenced product that does not exist. It is a bad
	// request rather than a missing target resource.
	ErrProductNotFound = fmt.Errorf("%w: product not found", ErrValidation)
	ErrInvalidRange    = fmt.Errorf("%w: invalid range", ErrValidation)
)

const internalMessage = "internal server error"

// Error is a categorized failure with a caller-facing message.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.Error()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newf(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error  { return newf(ErrNotFound, format, args...) }
func Forbidden(format string, args ...any) *Error { return newf(ErrForbidden, format, args...) }
func Unauthorized(format string, args ...any) *Error {
	return newf(ErrUnauthorized, format, args...)
}
func Validation(format string, args ...any) *Error { return newf(ErrValidation, format, args...) }
func Duplicate(format string, args ...any) *Error  { return newf(ErrDuplicateValue, format, args...) }
func InvalidRange(format string, args ...any) *Error {
	return newf(ErrInvalidRange, format, args...)
}

func ProductNotFound(id uuid.UUID) *Error {
	return newf(ErrProductNotFound, "Product with ID %s not found", id)
}

// TransactionFailure wraps an unexpected storage error. The cause is kept for
// logging but never rendered to the caller.
func TransactionFailure(err error) *Error {
	return &Error{Kind: ErrTransactionFailure, Message: internalMessage, Err: err}
}

// StockError reports a failed stock check for one product.
type StockError struct {
	ProductID   uuid.UUID
	ProductName string
	Available   int
	Requested   int
}

func (e *StockError) Error() string {
	name := e.ProductName
	if name == "" {
		name = e.ProductID.String()
	}
	return fmt.Sprintf("Insufficient stock for product %s. Available: %d, Requested: %d", name, e.Available, e.Requested)
}

func (e *StockError) Is(target error) bool { return target == ErrInsufficientStock }

// Expected reports whether err is a business outcome that should be shown to
// the caller verbatim.
func Expected(err error) bool {
	switch {
	case errors.Is(err, ErrTransactionFailure):
		return false
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrDuplicateValue),
		errors.Is(err, ErrInsufficientStock):
		return true
	}
	return false
}

// HTTPStatus maps an error to the status code the API answers with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrTransactionFailure):
		return http.StatusInternalServerError
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrDuplicateValue):
		return http.StatusConflict
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInsufficientStock):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Public returns the message safe to render for err.
func Public(err error) string {
	if !Expected(err) {
		return internalMessage
	}
	return err.Error()
}

// Cause returns the underlying error kept by an *Error, or err itself.
func Cause(err error) error {
	var e *Error
	if errors.As(err, &e) && e.Err != nil {
		return e.Err
	}
	return err
}
