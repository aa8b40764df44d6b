package didt

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

// Claim is the signed payload of a DID token.
type Claim struct {
	IssuedAt   int64  `json:"iat"`
	Expiry     int64  `json:"ext"`
	Issuer     string `json:"iss"`
	Subject    string `json:"sub"`
	Audience   string `json:"aud"`
	NotBefore  int64  `json:"nbf"`
	TokenID    string `json:"tid"`
	Attachment string `json:"add"`
}

// Token is a decoded, not yet validated, DID token.
type Token struct {
	// Proof is the hex encoded personal_sign signature over RawClaim.
	Proof string
	Claim Claim
	// RawClaim is the exact claim string that was signed.
	RawClaim string
}

var requiredClaimFields = []string{"iat", "ext", "iss", "sub", "aud", "nbf", "tid", "add"}

var encodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.RawStdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

// Decode parses a DID token without verifying it.
func Decode(tok string) (Token, error) {
	raw, ok := decodeBase64(strings.TrimSpace(tok))
	if !ok {
		return Token{}, newError(ErrCodeMalformedToken, "token is not valid base64")
	}

	var tuple []string
	if err := json.Unmarshal(raw, &tuple); err != nil || len(tuple) != 2 {
		return Token{}, newError(ErrCodeMalformedToken, "token must be a JSON [proof, claim] tuple")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(tuple[1]), &fields); err != nil {
		return Token{}, newError(ErrCodeMalformedToken, "claim is not a JSON object")
	}
	for _, name := range requiredClaimFields {
		if _, ok := fields[name]; !ok {
			return Token{}, newError(ErrCodeMalformedToken, "claim is missing %q", name)
		}
	}

	var claim Claim
	if err := json.Unmarshal([]byte(tuple[1]), &claim); err != nil {
		return Token{}, newError(ErrCodeMalformedToken, "claim has invalid field types: %v", err)
	}

	return Token{Proof: tuple[0], Claim: claim, RawClaim: tuple[1]}, nil
}

func decodeBase64(s string) ([]byte, bool) {
	for _, enc := range encodings {
		if b, err := enc.DecodeString(s); err == nil {
			return b, true
		}
	}
	return nil, false
}

// PublicAddressFromIssuer extracts the address from a "did:ethr:<address>" issuer.
func PublicAddressFromIssuer(iss string) (string, error) {
	parts := strings.Split(iss, ":")
	if len(parts) != 3 || parts[0] != "did" || parts[2] == "" {
		return "", newError(ErrCodeMalformedToken, "issuer %q is not a did:<method>:<address> identifier", iss)
	}
	return parts[2], nil
}
