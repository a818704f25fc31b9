package wallet

import (
	"crypto/ed25519"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/degenlabs/flipgate/core"
)

// Ed25519Verifier checks detached ed25519 signatures against base58-encoded
// Solana wallet keys.
type Ed25519Verifier struct{}

// NewEd25519Verifier creates a new verifier.
func NewEd25519Verifier() *Ed25519Verifier {
	return &Ed25519Verifier{}
}

// Verify checks that signature is a valid detached signature of message by
// the key behind wallet. Malformed inputs are verification failures, never
// panics.
func (v *Ed25519Verifier) Verify(walletAddr string, message, signature []byte) error {
	pub, err := solana.PublicKeyFromBase58(walletAddr)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrBadKey, err)
	}

	if len(signature) != ed25519.SignatureSize {
		return fmt.Errorf("%w: signature must be %d bytes, got %d",
			core.ErrBadSignature, ed25519.SignatureSize, len(signature))
	}

	if !ed25519.Verify(ed25519.PublicKey(pub.Bytes()), message, signature) {
		return core.ErrBadSignature
	}
	return nil
}
