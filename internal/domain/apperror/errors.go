// Package apperror defines the typed failures surfaced by ledger operations.
// Every failure carries a stable Kind so adapters can map it to a transport
// status without string matching.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	KindNotFound              Kind = "not_found"
	KindInvalidState          Kind = "invalid_state"
	KindValidation            Kind = "validation"
	KindInvalidSchedule       Kind = "invalid_schedule"
	KindNegativeAmortization  Kind = "negative_amortization"
	KindMissingRate           Kind = "missing_rate"
	KindUnsupportedModel      Kind = "unsupported_model"
	KindNoPendingInstallments Kind = "no_pending_installments"
	KindDuplicatePayment      Kind = "duplicate_payment"
	KindConflict              Kind = "conflict"
	KindPersistence           Kind = "persistence"
)

// Error is a classified failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same Kind, so the Err* sentinels below work
// with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound              = &Error{Kind: KindNotFound}
	ErrInvalidState          = &Error{Kind: KindInvalidState}
	ErrValidation            = &Error{Kind: KindValidation}
	ErrInvalidSchedule       = &Error{Kind: KindInvalidSchedule}
	ErrNegativeAmortization  = &Error{Kind: KindNegativeAmortization}
	ErrMissingRate           = &Error{Kind: KindMissingRate}
	ErrUnsupportedModel      = &Error{Kind: KindUnsupportedModel}
	ErrNoPendingInstallments = &Error{Kind: KindNoPendingInstallments}
	ErrDuplicatePayment      = &Error{Kind: KindDuplicatePayment}
	ErrConflict              = &Error{Kind: KindConflict}
	ErrPersistence           = &Error{Kind: KindPersistence}
)

// New builds a classified error with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// NotFound reports a missing (or foreign-owned) entity.
func NotFound(entity, id string) *Error {
	return New(KindNotFound, "%s %s not found", entity, id)
}

// InvalidState reports an operation not allowed in the entity's current state.
func InvalidState(format string, args ...any) *Error {
	return New(KindInvalidState, format, args...)
}

// Validation reports malformed input.
func Validation(format string, args ...any) *Error {
	return New(KindValidation, format, args...)
}

// KindOf returns the Kind of the first *Error in err's chain, or "" when the
// chain holds none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// MessageOf returns the message of the first *Error in err's chain, falling
// back to err.Error().
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}
