// Package apierror provides standardized error response structures for the API
// plus the typed domain errors raised by the closing and reconciliation
// services. All errors returned to clients go through this package to ensure
// consistency and to prevent leaking internal details (stack traces, DB
// errors, etc.).
package apierror

import (
	"fmt"
	"strings"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// FieldErrors wraps multiple field-level validation errors.
type FieldErrors struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewFields(fields map[string]string) *FieldErrors {
	return &FieldErrors{Detail: "validation failed", Fields: fields}
}

// ── Domain errors ────────────────────────────────────────────────────────────
// Mutating operations fail fast and atomically; each rejection names the
// specific conflicting identifiers so an operator can resolve it manually.

// ValidationError reports malformed input. Always raised before any mutation.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Validationf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ConflictError reports a seal attempt over records already linked to an
// envelope, or a sequence collision under concurrent sealing. Codes carries
// the offending external codes.
type ConflictError struct {
	Msg   string
	Codes []string
}

func (e *ConflictError) Error() string {
	if len(e.Codes) == 0 {
		return e.Msg
	}
	return e.Msg + ": " + strings.Join(e.Codes, ", ")
}

// AlreadyIssuedError reports a duplicate label-issuance attempt. The label is
// a physical one-shot guarantee, so this is never a silent no-op.
type AlreadyIssuedError struct {
	EnvelopeCode string
}

func (e *AlreadyIssuedError) Error() string {
	return "label already issued for envelope " + e.EnvelopeCode
}

// IntegrityFault flags a violated storage invariant (envelope with zero
// linked records, or a record pointing at a missing envelope). It indicates a
// transaction-boundary bug and is logged as alerting, never user-recoverable.
type IntegrityFault struct {
	Msg string
}

func (e *IntegrityFault) Error() string { return "integrity fault: " + e.Msg }
