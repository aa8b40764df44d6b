// Package authtest provides test doubles for the auth package.
package authtest

import (
	"context"
	"sync"

	"github.com/ggoodman/magic-auth-go/auth"
	"github.com/ggoodman/magic-auth-go/didt"
)

// Signal is one call recorded by a Recorder.
type Signal struct {
	Method string // "success", "fail" or "error"
	User   any
	Info   *auth.Info
	Status int
	Err    error
}

// Recorder is an auth.Sink that remembers every call it receives.
type Recorder struct {
	mu      sync.Mutex
	signals []Signal
}

var _ auth.Sink = (*Recorder)(nil)

func (r *Recorder) Success(user any, info *auth.Info) {
	r.record(Signal{Method: "success", User: user, Info: info})
}

func (r *Recorder) Fail(info auth.Info, status int) {
	r.record(Signal{Method: "fail", Info: &info, Status: status})
}

func (r *Recorder) Error(err error) {
	r.record(Signal{Method: "error", Err: err})
}

func (r *Recorder) record(s Signal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = append(r.signals, s)
}

// Signals returns a copy of the recorded calls.
func (r *Recorder) Signals() []Signal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Signal(nil), r.signals...)
}

// IdentityClient is a scripted auth.IdentityClient. Zero-valued fields fall
// back to decoding the token with the didt package.
type IdentityClient struct {
	ValidateFunc func(ctx context.Context, tok, attachment string) error
	IssuerFunc   func(tok string) (string, error)

	mu    sync.Mutex
	calls []ValidateCall
}

// ValidateCall records the arguments of one Validate call.
type ValidateCall struct {
	Token      string
	Attachment string
}

var _ auth.IdentityClient = (*IdentityClient)(nil)

func (c *IdentityClient) Validate(ctx context.Context, tok, attachment string) error {
	c.mu.Lock()
	c.calls = append(c.calls, ValidateCall{Token: tok, Attachment: attachment})
	c.mu.Unlock()
	if c.ValidateFunc != nil {
		return c.ValidateFunc(ctx, tok, attachment)
	}
	return nil
}

func (c *IdentityClient) Issuer(tok string) (string, error) {
	if c.IssuerFunc != nil {
		return c.IssuerFunc(tok)
	}
	t, err := didt.Decode(tok)
	if err != nil {
		return "", err
	}
	return t.Claim.Issuer, nil
}

func (c *IdentityClient) PublicAddress(tok string) (string, error) {
	iss, err := c.Issuer(tok)
	if err != nil {
		return "", err
	}
	return didt.PublicAddressFromIssuer(iss)
}

func (c *IdentityClient) Decode(tok string) (didt.Token, error) {
	return didt.Decode(tok)
}

// ValidateCalls returns the recorded Validate calls.
func (c *IdentityClient) ValidateCalls() []ValidateCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ValidateCall(nil), c.calls...)
}
