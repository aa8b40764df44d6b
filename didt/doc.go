// Package didt decodes and validates Decentralized ID Tokens (DIDTs) as issued
// by Magic.
//
// A DIDT is the base64 encoding of a JSON tuple [proof, claim]. The claim is a
// JSON object whose iss field is a did:ethr identifier naming the signer's
// public address, and the proof is an Ethereum personal_sign signature over
// the claim string. Validation is performed entirely offline: the signer is
// recovered from the proof and compared with the issuer, then the validity
// window (ext, nbf) and optionally the audience are checked.
//
// Example:
//
//	c, err := didt.NewFromEnv()
//	if err != nil { log.Fatal(err) }
//
//	if err := c.Validate(ctx, tok, didt.NoAttachment); err != nil {
//	    var derr *didt.Error
//	    if errors.As(err, &derr) { /* derr.Code is one of didt.ErrorCodes */ }
//	}
//	addr, _ := c.PublicAddress(tok)
//
// # Attachments
//
// Clients may sign an extra piece of data, the attachment, when minting a
// token. Its signature travels in the add claim. Passing a value other than
// NoAttachment to Validate requires that signature to recover to the issuer.
//
// # Configuration
//
// NewFromEnv reads MAGIC_CLIENT_ID (enforced against aud when set) and
// MAGIC_DIDT_NBF_LEEWAY (default 300s, "0s" disables the leeway). A Config
// built by hand has no leeway unless it sets one; see DefaultConfig.
package didt
