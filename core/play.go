package core

import "time"

// Challenge is one pending authentication attempt: a single-use nonce bound
// to the wallet it was issued to.
type Challenge struct {
	Nonce     string    `json:"nonce"`
	Wallet    string    `json:"wallet"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the challenge can no longer be consumed.
func (c Challenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Message returns the exact byte sequence the wallet must sign.
func (c Challenge) Message() []byte {
	return PlayMessage(c.Nonce)
}

// PlayMessage builds the signed payload for a nonce. The "play:" prefix ties
// the signature to this protocol so it cannot be reused elsewhere.
func PlayMessage(nonce string) []byte {
	return []byte("play:" + nonce)
}

// Result kinds for a gated play attempt.
const (
	ResultLose = "lose"
	ResultWin  = "win"
	ResultPaid = "paid"
)

// PlayOutcome is the terminal state of one admitted play attempt.
type PlayOutcome struct {
	Result         string
	AmountLamports uint64
	// TxSignature is the settlement reference, set only for ResultPaid.
	TxSignature string
}

// Settlement identifies a confirmed treasury transfer.
type Settlement struct {
	Wallet         string
	AmountLamports uint64
	TxSignature    string
	ConfirmedAt    time.Time
}
