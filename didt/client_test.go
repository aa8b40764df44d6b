package didt_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ggoodman/magic-auth-go/didt"
	"github.com/ggoodman/magic-auth-go/didt/didttest"
)

func wantCode(t *testing.T, err error, want didt.ErrorCode) {
	t.Helper()
	var derr *didt.Error
	if !errors.As(err, &derr) {
		t.Fatalf("want *didt.Error with code %s, got %v", want, err)
	}
	if derr.Code != want {
		t.Fatalf("want code %s, got %s (%s)", want, derr.Code, derr.Message)
	}
}

func TestClient_ValidateHappyPath(t *testing.T) {
	s := didttest.NewSigner(t)
	tok := s.MintDefault(t)

	c := didt.New(didt.Config{})
	if err := c.Validate(context.Background(), tok, didt.NoAttachment); err != nil {
		t.Fatalf("validate: %v", err)
	}

	iss, err := c.Issuer(tok)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	if want, got := s.Issuer(), iss; want != got {
		t.Fatalf("issuer: want %s got %s", want, got)
	}

	addr, err := c.PublicAddress(tok)
	if err != nil {
		t.Fatalf("public address: %v", err)
	}
	if want, got := s.PublicAddress(), addr; want != got {
		t.Fatalf("public address: want %s got %s", want, got)
	}
}

func TestClient_ValidateRejections(t *testing.T) {
	s := didttest.NewSigner(t)
	other := didttest.NewSigner(t)
	now := time.Now()

	tests := []struct {
		name       string
		tok        func(t *testing.T) string
		attachment string
		cfg        didt.Config
		want       didt.ErrorCode
	}{
		{
			name: "expired",
			tok: func(t *testing.T) string {
				c := s.Claim()
				c.Expiry = now.Add(-time.Minute).Unix()
				return s.Mint(t, c, "")
			},
			want: didt.ErrCodeTokenExpired,
		},
		{
			name: "not yet valid beyond leeway",
			tok: func(t *testing.T) string {
				c := s.Claim()
				c.NotBefore = now.Add(10 * time.Minute).Unix()
				return s.Mint(t, c, "")
			},
			want: didt.ErrCodeTokenCannotBeUsedYet,
		},
		{
			name: "issuer claims another address",
			tok: func(t *testing.T) string {
				c := s.Claim()
				c.Issuer = other.Issuer()
				return s.Mint(t, c, "")
			},
			want: didt.ErrCodeIncorrectSignerAddress,
		},
		{
			name: "claim tampered after signing",
			tok: func(t *testing.T) string {
				c := s.Claim()
				raw, _ := json.Marshal(c)
				proof := s.Sign(t, string(raw))
				c.Subject = "someone-else"
				tampered, _ := json.Marshal(c)
				return didttest.Encode(t, proof, string(tampered))
			},
			want: didt.ErrCodeIncorrectSignerAddress,
		},
		{
			name: "proof is not hex",
			tok: func(t *testing.T) string {
				raw, _ := json.Marshal(s.Claim())
				return didttest.Encode(t, "not-a-signature", string(raw))
			},
			want: didt.ErrCodeFailedRecoveringProof,
		},
		{
			name: "audience mismatch",
			tok: func(t *testing.T) string {
				return s.MintDefault(t)
			},
			cfg:  didt.Config{ClientID: "another-client"},
			want: didt.ErrCodeAudienceMismatch,
		},
		{
			name: "attachment signed by someone else",
			tok: func(t *testing.T) string {
				c := s.Claim()
				c.Attachment = other.Sign(t, "payload")
				return s.Mint(t, c, "")
			},
			attachment: "payload",
			want:       didt.ErrCodeIncorrectSignerAddress,
		},
		{
			name: "attachment differs from signed value",
			tok: func(t *testing.T) string {
				return s.Mint(t, s.Claim(), "payload")
			},
			attachment: "other-payload",
			want:       didt.ErrCodeIncorrectSignerAddress,
		},
		{
			name: "not base64",
			tok: func(t *testing.T) string {
				return "%%%"
			},
			want: didt.ErrCodeMalformedToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attachment := tt.attachment
			if attachment == "" {
				attachment = didt.NoAttachment
			}
			c := didt.New(tt.cfg)
			wantCode(t, c.Validate(context.Background(), tt.tok(t), attachment), tt.want)
		})
	}
}

func TestClient_ValidateNotBeforeLeeway(t *testing.T) {
	s := didttest.NewSigner(t)
	c := s.Claim()
	c.NotBefore = time.Now().Add(2 * time.Minute).Unix()
	tok := s.Mint(t, c, "")

	if err := didt.New(didt.DefaultConfig()).Validate(context.Background(), tok, didt.NoAttachment); err != nil {
		t.Fatalf("nbf within default leeway should pass: %v", err)
	}

	strict := didt.New(didt.Config{NotBeforeLeeway: time.Second})
	wantCode(t, strict.Validate(context.Background(), tok, didt.NoAttachment), didt.ErrCodeTokenCannotBeUsedYet)

	none := didt.New(didt.Config{})
	wantCode(t, none.Validate(context.Background(), tok, didt.NoAttachment), didt.ErrCodeTokenCannotBeUsedYet)
}

func TestNewFromEnv_ZeroLeeway(t *testing.T) {
	t.Setenv("MAGIC_DIDT_NBF_LEEWAY", "0s")
	s := didttest.NewSigner(t)
	c := s.Claim()
	c.NotBefore = time.Now().Add(2 * time.Minute).Unix()
	tok := s.Mint(t, c, "")

	client, err := didt.NewFromEnv()
	if err != nil {
		t.Fatalf("new from env: %v", err)
	}
	wantCode(t, client.Validate(context.Background(), tok, didt.NoAttachment), didt.ErrCodeTokenCannotBeUsedYet)
}

func TestNewFromEnv_DefaultLeeway(t *testing.T) {
	s := didttest.NewSigner(t)
	c := s.Claim()
	c.NotBefore = time.Now().Add(2 * time.Minute).Unix()
	tok := s.Mint(t, c, "")

	client, err := didt.NewFromEnv()
	if err != nil {
		t.Fatalf("new from env: %v", err)
	}
	if err := client.Validate(context.Background(), tok, didt.NoAttachment); err != nil {
		t.Fatalf("nbf within default leeway should pass: %v", err)
	}
}

func TestClient_ValidateAttachment(t *testing.T) {
	s := didttest.NewSigner(t)
	tok := s.Mint(t, s.Claim(), "asdf")

	c := didt.New(didt.Config{ClientID: "test-client"})
	if err := c.Validate(context.Background(), tok, "asdf"); err != nil {
		t.Fatalf("validate with attachment: %v", err)
	}
	if err := c.Validate(context.Background(), tok, didt.NoAttachment); err != nil {
		t.Fatalf("attachment check should be skipped for %q: %v", didt.NoAttachment, err)
	}
}

func TestClient_ValidateClock(t *testing.T) {
	s := didttest.NewSigner(t)
	tok := s.MintDefault(t)

	later := func() time.Time { return time.Now().Add(2 * time.Hour) }
	c := didt.New(didt.Config{}, didt.WithClock(later))
	wantCode(t, c.Validate(context.Background(), tok, didt.NoAttachment), didt.ErrCodeTokenExpired)
}

func TestClient_ValidateCanceledContext(t *testing.T) {
	s := didttest.NewSigner(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := didt.New(didt.Config{}).Validate(ctx, s.MintDefault(t), didt.NoAttachment)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	var derr *didt.Error
	if errors.As(err, &derr) {
		t.Fatalf("context errors must not be reported as *didt.Error")
	}
}

func TestDecode(t *testing.T) {
	s := didttest.NewSigner(t)
	claim := s.Claim()
	tok := s.Mint(t, claim, "")

	got, err := didt.Decode(tok)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Claim != claim {
		t.Fatalf("claim mismatch: want %+v got %+v", claim, got.Claim)
	}
	if !strings.HasPrefix(got.Proof, "0x") {
		t.Fatalf("proof should be 0x-prefixed hex, got %q", got.Proof)
	}
}

func TestDecode_MissingClaimField(t *testing.T) {
	raw := `{"iat":1,"ext":2,"iss":"did:ethr:0xabc","sub":"s","aud":"a","nbf":1,"tid":"t"}`
	tok := didttest.Encode(t, "0x00", raw)

	_, err := didt.Decode(tok)
	wantCode(t, err, didt.ErrCodeMalformedToken)
	if !strings.Contains(err.Error(), `"add"`) {
		t.Fatalf("error should name the missing field, got %v", err)
	}
}

func TestPublicAddressFromIssuer(t *testing.T) {
	tests := []struct {
		iss     string
		want    string
		wantErr bool
	}{
		{iss: "did:ethr:0xAbC", want: "0xAbC"},
		{iss: "did:ethr", wantErr: true},
		{iss: "ethr:0xabc:extra", wantErr: true},
		{iss: "did:ethr:", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.iss, func(t *testing.T) {
			got, err := didt.PublicAddressFromIssuer(tt.iss)
			if tt.wantErr {
				wantCode(t, err, didt.ErrCodeMalformedToken)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("want %s got %s", tt.want, got)
			}
		})
	}
}

func TestNewFromEnv(t *testing.T) {
	t.Setenv("MAGIC_CLIENT_ID", "env-client")
	t.Setenv("MAGIC_DIDT_NBF_LEEWAY", "30s")

	c, err := didt.NewFromEnv()
	if err != nil {
		t.Fatalf("new from env: %v", err)
	}
	if want, got := "env-client", c.ClientID(); want != got {
		t.Fatalf("client id: want %s got %s", want, got)
	}
}
