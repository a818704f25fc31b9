package ports

// SignatureVerifier checks a detached wallet signature over a message.
type SignatureVerifier interface {
	// Verify returns nil when signature is a valid detached signature of
	// message by the key behind wallet. A key that cannot be parsed yields
	// core.ErrBadKey; anything else wrong with the signature yields
	// core.ErrBadSignature.
	Verify(wallet string, message, signature []byte) error
}
