package didt

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// recoverSigner returns the address that produced an Ethereum personal_sign
// signature over msg.
func recoverSigner(msg string, signature string) (string, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return "", newError(ErrCodeFailedRecoveringProof, "signature is not 0x-prefixed hex: %v", err)
	}
	if len(sig) != crypto.SignatureLength {
		return "", newError(ErrCodeFailedRecoveringProof, "signature must be %d bytes, got %d", crypto.SignatureLength, len(sig))
	}

	// Wallets emit v as 27/28; recovery expects 0/1.
	sig = append([]byte(nil), sig...)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(msg)), sig)
	if err != nil {
		return "", newError(ErrCodeFailedRecoveringProof, "unable to recover signer: %v", err)
	}
	return crypto.PubkeyToAddress(*pub).Hex(), nil
}

func sameAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}
