package didt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
)

// NoAttachment is the attachment value that disables attachment verification.
const NoAttachment = "none"

// DefaultNotBeforeLeeway is the clock skew tolerated on the nbf claim.
const DefaultNotBeforeLeeway = 300 * time.Second

// Config holds the ambient settings of a Client. Defaults can be loaded via
// envdecode or DefaultConfig; the zero Config enforces nbf without leeway.
type Config struct {
	// ClientID, when set, must equal the token's aud claim. ENV: MAGIC_CLIENT_ID
	ClientID string `env:"MAGIC_CLIENT_ID"`
	// NotBeforeLeeway is subtracted from nbf before comparing with now. Negative
	// values are treated as zero. ENV: MAGIC_DIDT_NBF_LEEWAY
	NotBeforeLeeway time.Duration `env:"MAGIC_DIDT_NBF_LEEWAY,default=300s"`
}

// DefaultConfig returns the settings NewFromEnv uses when no MAGIC_*
// variables are set.
func DefaultConfig() Config {
	return Config{NotBeforeLeeway: DefaultNotBeforeLeeway}
}

// Option customizes a Client.
type Option func(*Client)

// WithClock overrides the time source used for ext/nbf checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// Client validates DID tokens offline. It holds no mutable state and is safe
// for concurrent use.
type Client struct {
	clientID string
	leeway   time.Duration
	now      func() time.Time
}

// New builds a Client from cfg.
func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		clientID: cfg.ClientID,
		leeway:   cfg.NotBeforeLeeway,
		now:      time.Now,
	}
	if c.leeway < 0 {
		c.leeway = 0
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromEnv builds a Client using envdecode to populate Config. An
// environment without any MAGIC_* variables yields the defaults.
func NewFromEnv(opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("didt: load config: %w", err)
	}
	return New(cfg, opts...), nil
}

// ClientID returns the audience this client enforces, if any.
func (c *Client) ClientID() string { return c.clientID }

// Decode parses tok without verifying it.
func (c *Client) Decode(tok string) (Token, error) {
	return Decode(tok)
}

// Issuer returns the iss claim of tok.
func (c *Client) Issuer(tok string) (string, error) {
	t, err := Decode(tok)
	if err != nil {
		return "", err
	}
	return t.Claim.Issuer, nil
}

// PublicAddress returns the signing address embedded in the issuer of tok.
func (c *Client) PublicAddress(tok string) (string, error) {
	t, err := Decode(tok)
	if err != nil {
		return "", err
	}
	return PublicAddressFromIssuer(t.Claim.Issuer)
}

// Validate verifies the proof, the optional attachment signature, the
// validity window and the audience of tok. Token problems are reported as
// *Error; a done context is reported as the context's error.
func (c *Client) Validate(ctx context.Context, tok string, attachment string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t, err := Decode(tok)
	if err != nil {
		return err
	}

	claimed, err := PublicAddressFromIssuer(t.Claim.Issuer)
	if err != nil {
		return err
	}

	signer, err := recoverSigner(t.RawClaim, t.Proof)
	if err != nil {
		return err
	}
	if !sameAddress(signer, claimed) {
		return newError(ErrCodeIncorrectSignerAddress, "signature does not match the claimed issuer")
	}

	if attachment != "" && attachment != NoAttachment {
		addSigner, err := recoverSigner(attachment, t.Claim.Attachment)
		if err != nil {
			return err
		}
		if !sameAddress(addSigner, claimed) {
			return newError(ErrCodeIncorrectSignerAddress, "attachment signature does not match the claimed issuer")
		}
	}

	now := c.now().Unix()
	if t.Claim.Expiry < now {
		return newError(ErrCodeTokenExpired, "given DID token has expired; please generate a new one")
	}
	if t.Claim.NotBefore-int64(c.leeway/time.Second) > now {
		return newError(ErrCodeTokenCannotBeUsedYet, "given DID token cannot be used at this time; please check the nbf field")
	}
	if c.clientID != "" && t.Claim.Audience != c.clientID {
		return newError(ErrCodeAudienceMismatch, "audience does not match the configured client ID")
	}
	return nil
}
