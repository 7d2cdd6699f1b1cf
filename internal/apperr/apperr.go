// Package apperr defines the error kinds shared by the services and the
// HTTP boundary. Kinds are sentinel errors matched with errors.Is; causes are
// attached with %w and never leave the process.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation     = errors.New("validation failed")
	ErrInvalidInput   = fmt.Errorf("%w: invalid input", ErrValidation)
	ErrEmptyCart      = errors.New("cart is empty")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
	ErrTransientStore = errors.New("store temporarily unavailable")
	ErrCheckoutFailed = errors.New("checkout failed")
)

// Validation returns an ErrValidation carrying a caller-facing detail.
func Validation(format string, args ...any) error {
	return &detailed{kind: ErrValidation, msg: fmt.Sprintf(format, args...)}
}

// InvalidInput is Validation for malformed identifiers.
func InvalidInput(format string, args ...any) error {
	return &detailed{kind: ErrInvalidInput, msg: fmt.Sprintf(format, args...)}
}

// CheckoutFailed wraps a failure from the checkout write sequence. Callers must
// only construct it after the transaction has been rolled back.
func CheckoutFailed(cause error) error {
	return fmt.Errorf("%w: %w", ErrCheckoutFailed, cause)
}

type detailed struct {
	kind error
	msg  string
}

func (e *detailed) Error() string { return e.kind.Error() + ": " + e.msg }
func (e *detailed) Unwrap() error { return e.kind }

// Status maps an error to the HTTP status the boundary should answer with.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation), errors.Is(err, ErrEmptyCart):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrTransientStore):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the stable text shown to callers. Validation details are
// safe to echo; everything else collapses to the kind.
func Message(err error) string {
	var d *detailed
	switch {
	case errors.As(err, &d):
		return d.msg
	case errors.Is(err, ErrEmptyCart):
		return "cart is empty"
	case errors.Is(err, ErrValidation):
		return "invalid request"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "not found"
	case errors.Is(err, ErrTransientStore):
		return "service temporarily unavailable, try again"
	case errors.Is(err, ErrCheckoutFailed):
		return "failed to process checkout"
	default:
		return "internal error"
	}
}
