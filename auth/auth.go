package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/ggoodman/magic-auth-go/didt"
)

// ErrInvalidConfiguration indicates a Strategy could not be constructed.
var ErrInvalidConfiguration = errors.New("auth: invalid configuration")

// IdentityClient validates DID tokens and exposes their identity claims.
// *didt.Client is the default implementation. Token-level rejections should
// be reported as *didt.Error so that their code reaches the caller.
type IdentityClient interface {
	Validate(ctx context.Context, tok string, attachment string) error
	Issuer(tok string) (string, error)
	PublicAddress(tok string) (string, error)
	Decode(tok string) (didt.Token, error)
}

var _ IdentityClient = (*didt.Client)(nil)

// UserIdentity is the normalized identity handed to verify callbacks. It
// is built fresh from the validated token on every request.
type UserIdentity struct {
	Issuer        string     `json:"issuer"`
	PublicAddress string     `json:"publicAddress"`
	Claim         didt.Claim `json:"claim"`
}

// Sink receives the terminal signal of an authentication attempt. Exactly one
// of its methods is called per Authenticate call.
type Sink interface {
	// Success reports an authenticated user with optional info.
	Success(user any, info *Info)
	// Fail reports rejected credentials. Status is an HTTP status hint; zero
	// means the strategy did not choose one.
	Fail(info Info, status int)
	// Error reports an unexpected fault.
	Error(err error)
}

// DoneFunc completes verification. A non-nil err raises an error signal
// regardless of the other arguments; a nil or false user raises a failure
// carrying info as given; anything else succeeds. A nil info, or one whose
// Kind is left at its zero value, reports FailureRejected.
type DoneFunc func(user any, info *Info, err error)

// VerifyFunc resolves an application user for a validated identity.
type VerifyFunc func(ctx context.Context, user UserIdentity, done DoneFunc)

// VerifyWithRequestFunc is like VerifyFunc but also receives the request.
type VerifyWithRequestFunc func(r *http.Request, user UserIdentity, done DoneFunc)
