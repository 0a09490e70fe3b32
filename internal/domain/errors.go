package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrValidation             = errors.New("validation failed")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrDuplicateOrderNumber   = errors.New("order number already exists")
	ErrConflict               = errors.New("record already exists")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrInvalidQuantity        = errors.New("invalid quantity")
	ErrTerminalOrderImmutable = errors.New("order is completed or cancelled and cannot be modified")
	ErrReferentialConflict    = errors.New("record is referenced by other data")
	ErrForbidden              = errors.New("forbidden")
)

var clientErrors = []error{
	ErrNotFound,
	ErrForbidden,
	ErrValidation,
	ErrInvalidTransition,
	ErrDuplicateOrderNumber,
	ErrConflict,
	ErrInsufficientStock,
	ErrInvalidQuantity,
	ErrTerminalOrderImmutable,
	ErrReferentialConflict,
}

// IsClientError reports whether err wraps one of the sentinel errors above.
// Anything else is an infrastructure failure whose text stays in the logs.
func IsClientError(err error) bool {
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ValidationError lists the request fields that are missing or malformed.
type ValidationError struct {
	Fields []string
	Reason string
}

func NewValidationError(reason string, fields ...string) *ValidationError {
	return &ValidationError{Fields: fields, Reason: reason}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Reason
	}
	if e.Reason == "" {
		return "missing or invalid fields: " + strings.Join(e.Fields, ", ")
	}
	return e.Reason + ": " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// RequiredFields collects missing field names in a fixed order.
type RequiredFields struct {
	missing []string
}

func (r *RequiredFields) Check(ok bool, field string) {
	if !ok {
		r.missing = append(r.missing, field)
	}
}

func (r *RequiredFields) Err() error {
	if len(r.missing) == 0 {
		return nil
	}
	return NewValidationError("missing or invalid fields", r.missing...)
}

func invalidTransition(from, to string) error {
	return fmt.Errorf("%w: current status %s cannot change to %s", ErrInvalidTransition, from, to)
}
