package wallet

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/degenlabs/flipgate/core"
)

func TestVerifyRoundTrip(t *testing.T) {
	w := solana.NewWallet()
	msg := core.PlayMessage("some-nonce")

	sig, err := w.PrivateKey.Sign(msg)
	require.NoError(t, err)

	v := NewEd25519Verifier()
	assert.NoError(t, v.Verify(w.PublicKey().String(), msg, sig[:]))
}

func TestVerifyRejectsOtherMessage(t *testing.T) {
	w := solana.NewWallet()

	sig, err := w.PrivateKey.Sign(core.PlayMessage("nonce-x"))
	require.NoError(t, err)

	v := NewEd25519Verifier()
	err = v.Verify(w.PublicKey().String(), core.PlayMessage("nonce-y"), sig[:])
	assert.ErrorIs(t, err, core.ErrBadSignature)
}

func TestVerifyRejectsOtherKey(t *testing.T) {
	signer := solana.NewWallet()
	imposter := solana.NewWallet()
	msg := core.PlayMessage("some-nonce")

	sig, err := signer.PrivateKey.Sign(msg)
	require.NoError(t, err)

	v := NewEd25519Verifier()
	err = v.Verify(imposter.PublicKey().String(), msg, sig[:])
	assert.ErrorIs(t, err, core.ErrBadSignature)
}

func TestVerifyMalformedKey(t *testing.T) {
	v := NewEd25519Verifier()

	err := v.Verify("not-a-base58-key!!!", core.PlayMessage("n"), make([]byte, 64))
	assert.ErrorIs(t, err, core.ErrBadKey)
}

func TestVerifyMalformedSignature(t *testing.T) {
	w := solana.NewWallet()

	v := NewEd25519Verifier()
	err := v.Verify(w.PublicKey().String(), core.PlayMessage("n"), []byte("too short"))
	assert.ErrorIs(t, err, core.ErrBadSignature)
}
