package auth

import (
	"fmt"

	"github.com/ggoodman/magic-auth-go/didt"
)

// FailureKind classifies why authentication failed.
type FailureKind int

const (
	// FailureRejected means the verify callback declined the user.
	FailureRejected FailureKind = iota
	// FailureMissingHeader means no Authorization header was sent.
	FailureMissingHeader
	// FailureMalformedHeader means the Authorization header is not a Bearer credential.
	FailureMalformedHeader
	// FailureSDKValidation means the identity client rejected the token with a code.
	FailureSDKValidation
	// FailureInvalidToken means validation failed for a reason the client did not classify.
	FailureInvalidToken
)

func (k FailureKind) String() string {
	switch k {
	case FailureRejected:
		return "rejected"
	case FailureMissingHeader:
		return "missing_header"
	case FailureMalformedHeader:
		return "malformed_header"
	case FailureSDKValidation:
		return "sdk_validation"
	case FailureInvalidToken:
		return "invalid_token"
	}
	return fmt.Sprintf("FailureKind(%d)", int(k))
}

// Info describes a failure, or carries optional detail on success.
type Info struct {
	Kind    FailureKind `json:"-"`
	Message string      `json:"message"`
	// ErrorCode is set for FailureSDKValidation.
	ErrorCode didt.ErrorCode `json:"error_code,omitempty"`
}

// Outcome is the terminal result of an authentication attempt: one of
// Success, Failure or Fault.
type Outcome interface {
	isOutcome()
}

// Success carries the application user produced by the verify callback.
type Success struct {
	User any
	Info *Info
}

// Failure carries the reason credentials were rejected and an HTTP status
// hint (zero when the verify callback rejected the user).
type Failure struct {
	Info   Info
	Status int
}

// Fault carries an unexpected error.
type Fault struct {
	Err error
}

func (Success) isOutcome() {}
func (Failure) isOutcome() {}
func (Fault) isOutcome()   {}

// PanicError wraps a non-error value recovered from a panicking verify callback.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("auth: verify callback panicked: %v", e.Value)
}
