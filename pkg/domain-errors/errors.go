// Package domainerrors defines the coded error type shared by all modules.
// Services return these so transports can map a stable machine-readable code
// to a status while keeping the human-readable reason intact. Infrastructure
// facts (row missing, conditional write hit zero rows) travel as sentinels
// from pkg/platform/sentinel and are translated into these codes at the
// service layer.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code enumerates the failure kinds the registration lifecycle can surface.
type Code string

const (
	// CodeNotFound: the referenced registration (or related record) does not exist.
	CodeNotFound Code = "not_found"
	// CodeUnauthorized: the actor's role is not permitted for this transition.
	CodeUnauthorized Code = "unauthorized"
	// CodeValidation: a required payload field is missing, empty, or malformed.
	CodeValidation Code = "validation_failed"
	// CodePrecondition: payload is well-formed but logically inconsistent with
	// the record's state (e.g. approving an infeasible survey).
	CodePrecondition Code = "precondition_failed"
	// CodeInvalidTransition: the (source, target) pair is not in the transition table.
	CodeInvalidTransition Code = "invalid_transition"
	// CodeConflict: the record moved under the caller's feet; re-fetch and retry.
	CodeConflict Code = "conflict"
	// CodeAlreadyProvisioned: the registration already carries a customer id.
	CodeAlreadyProvisioned Code = "already_provisioned"
	// CodeProvisioningFailed: the atomic provisioning write failed; safe to retry.
	CodeProvisioningFailed Code = "provisioning_failed"
	// CodeBadRequest: the request itself is malformed (bad id, bad JSON).
	CodeBadRequest Code = "bad_request"
	// CodeTimeout: the operation was abandoned because its context expired.
	CodeTimeout Code = "timeout"
	// CodeInternal: unexpected infrastructure failure.
	CodeInternal Code = "internal"
)

// Error carries a code alongside the message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a coded error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf builds a coded error from a format string.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code == code
	}
	return false
}

// Is is an alias of HasCode kept for call-site readability in tests.
func Is(err error, code Code) bool { return HasCode(err, code) }

// CodeOf extracts the code from err, defaulting to CodeInternal for uncoded
// errors so transports never leak raw infrastructure failures.
func CodeOf(err error) Code {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return CodeInternal
}

// MessageOf extracts the human-readable message from err. Uncoded errors get
// a generic message; the detail stays in logs, not in API responses.
func MessageOf(err error) string {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Message
	}
	return "internal error"
}
