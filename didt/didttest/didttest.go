// Package didttest mints real, signed DID tokens for tests.
package didttest

import (
	"crypto/ecdsa"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ggoodman/magic-auth-go/didt"
	"github.com/google/uuid"
)

// Signer owns a throwaway secp256k1 key and mints tokens issued by it.
type Signer struct {
	key *ecdsa.PrivateKey
}

// NewSigner generates a fresh signing key.
func NewSigner(t testing.TB) *Signer {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return &Signer{key: key}
}

// PublicAddress returns the checksummed address of the signer.
func (s *Signer) PublicAddress() string {
	return crypto.PubkeyToAddress(s.key.PublicKey).Hex()
}

// Issuer returns the did:ethr identifier of the signer.
func (s *Signer) Issuer() string {
	return "did:ethr:" + s.PublicAddress()
}

// Sign produces a personal_sign signature over msg with v in {27, 28}.
func (s *Signer) Sign(t testing.TB, msg string) string {
	t.Helper()
	sig, err := crypto.Sign(accounts.TextHash([]byte(msg)), s.key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig)
}

// Claim returns a claim valid for an hour from now, issued by s.
func (s *Signer) Claim() didt.Claim {
	now := time.Now()
	return didt.Claim{
		IssuedAt:  now.Unix(),
		Expiry:    now.Add(time.Hour).Unix(),
		Issuer:    s.Issuer(),
		Subject:   "sub-" + s.PublicAddress()[2:10],
		Audience:  "test-client",
		NotBefore: now.Unix(),
		TokenID:   uuid.NewString(),
	}
}

// Mint signs claim and encodes it as a DID token. If attachment is not
// empty, its signature is written into the add claim first.
func (s *Signer) Mint(t testing.TB, claim didt.Claim, attachment string) string {
	t.Helper()
	if attachment != "" {
		claim.Attachment = s.Sign(t, attachment)
	}
	rawClaim, err := json.Marshal(claim)
	if err != nil {
		t.Fatalf("marshal claim: %v", err)
	}
	return Encode(t, s.Sign(t, string(rawClaim)), string(rawClaim))
}

// MintDefault mints a token from Claim with no attachment.
func (s *Signer) MintDefault(t testing.TB) string {
	t.Helper()
	return s.Mint(t, s.Claim(), "")
}

// Encode wraps an arbitrary proof and claim string using the DID token
// envelope. It is useful for crafting tampered tokens.
func Encode(t testing.TB, proof string, rawClaim string) string {
	t.Helper()
	b, err := json.Marshal([]string{proof, rawClaim})
	if err != nil {
		t.Fatalf("marshal token: %v", err)
	}
	return base64.StdEncoding.EncodeToString(b)
}
