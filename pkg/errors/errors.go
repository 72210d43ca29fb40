package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Code is the stable, machine readable error identifier sent to clients.
type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeIdempotency   Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit     Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"

	CodeTenantMismatch      Code = "TENANT_MISMATCH"
	CodeTenantInactive      Code = "TENANT_INACTIVE"
	CodeInvalidTransition   Code = "INVALID_TRANSITION"
	CodeOverpaymentRejected Code = "OVERPAYMENT_REJECTED"
	CodeOrderCancelled      Code = "ORDER_CANCELLED"
	CodeNoPendingItems      Code = "NO_PENDING_ITEMS"
)

// Metadata controls how a code is rendered to API clients.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

const (
	noDetails   = false
	withDetails = true
)

func meta(status int, retryable bool, public string, details bool) Metadata {
	return Metadata{HTTPStatus: status, Retryable: retryable, PublicMessage: public, DetailsAllowed: details}
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:    meta(http.StatusBadRequest, false, "validation failed", withDetails),
	CodeUnauthorized:  meta(http.StatusUnauthorized, false, "authentication required", noDetails),
	CodeForbidden:     meta(http.StatusForbidden, false, "access denied", noDetails),
	CodeNotFound:      meta(http.StatusNotFound, false, "resource not found", noDetails),
	CodeConflict:      meta(http.StatusConflict, false, "conflict detected", noDetails),
	CodeStateConflict: meta(http.StatusUnprocessableEntity, false, "state transition disallowed", withDetails),
	CodeIdempotency:   meta(http.StatusConflict, false, "idempotency key reused", withDetails),
	CodeRateLimit:     meta(http.StatusTooManyRequests, false, "rate limit exceeded", noDetails),
	CodeInternal:      meta(http.StatusInternalServerError, true, "internal server error", noDetails),
	CodeDependency:    meta(http.StatusServiceUnavailable, true, "dependency unavailable", withDetails),

	// Order domain.
	CodeTenantMismatch:      meta(http.StatusForbidden, false, "resource belongs to another tenant", noDetails),
	CodeTenantInactive:      meta(http.StatusForbidden, false, "tenant is inactive", noDetails),
	CodeInvalidTransition:   meta(http.StatusUnprocessableEntity, false, "order status transition not allowed", withDetails),
	CodeOverpaymentRejected: meta(http.StatusUnprocessableEntity, false, "payment exceeds remaining balance", withDetails),
	CodeOrderCancelled:      meta(http.StatusUnprocessableEntity, false, "order is cancelled", noDetails),
	CodeNoPendingItems:      meta(http.StatusUnprocessableEntity, false, "order has no items awaiting preparation", noDetails),
}

// MetadataFor falls back to the internal error rendering for unknown codes.
func MetadataFor(code Code) Metadata {
	if m, ok := metadataByCode[code]; ok {
		return m
	}
	return metadataByCode[CodeInternal]
}

// Error carries a Code, a message safe to log, optional client details and
// the underlying cause.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

// New builds a typed error without a cause.
func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Wrap attaches code and message to err. A nil err yields a plain New.
func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails sets client-facing details and returns e for chaining.
func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As extracts the first *Error in err's chain, or nil.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}
