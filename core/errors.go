package core

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidInput is returned when a request is malformed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRateLimited is returned when a source address exhausted its window.
	ErrRateLimited = errors.New("rate limited")

	// ErrInvalidNonce is returned when a nonce is unknown, already consumed,
	// expired, or bound to a different wallet.
	ErrInvalidNonce = errors.New("invalid or expired nonce")

	// ErrBadKey is returned when the wallet public key cannot be parsed.
	ErrBadKey = errors.New("bad public key")

	// ErrBadSignature is returned when the signature is malformed or does not
	// match the challenge message.
	ErrBadSignature = errors.New("bad signature")

	// ErrPayoutFailed is returned when a determined win could not be settled.
	ErrPayoutFailed = errors.New("payout failed")

	// ErrStoreFailed is returned when a backing store operation fails.
	ErrStoreFailed = errors.New("store operation failed")
)

// CooldownError rejects a play attempted before the wallet's cooldown elapsed.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("cooling down for another %ds", e.RemainingSeconds())
}

// RemainingSeconds is the remaining wait rounded up to whole seconds.
func (e *CooldownError) RemainingSeconds() int {
	return int((e.Remaining + time.Second - 1) / time.Second)
}
