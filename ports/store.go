package ports

import (
	"context"
	"time"

	"github.com/degenlabs/flipgate/core"
)

// NonceStore holds pending challenges keyed by nonce.
type NonceStore interface {
	// Put stores a challenge under its nonce for at most ttl.
	Put(ctx context.Context, ch core.Challenge, ttl time.Duration) error

	// Take removes and returns the challenge for a nonce. A missing or
	// already-expired nonce yields ok=false. The record is gone afterwards
	// either way; a nonce is never handed out twice.
	Take(ctx context.Context, nonce string) (ch core.Challenge, ok bool, err error)
}

// CooldownStore tracks the earliest next allowed play per wallet.
type CooldownStore interface {
	// Reserve admits the wallet and starts a new cooldown, or reports the
	// remaining wait. Check and set are a single atomic step: of any number
	// of concurrent calls for one wallet, at most one is admitted per
	// cooldown period.
	Reserve(ctx context.Context, wallet string, cooldown time.Duration) (remaining time.Duration, admitted bool, err error)
}

// RateLimitStore counts requests per source key in fixed windows.
type RateLimitStore interface {
	// Admit increments the source's counter, opening a fresh window if none
	// is active, and reports whether the count stayed within ceiling. The
	// first request of a fresh window is always admitted.
	Admit(ctx context.Context, source string, ceiling int, window time.Duration) (bool, error)
}

// Store aggregates the gate's three registries. Both backends implement all
// of them so a deployment swaps storage in one place.
type Store interface {
	NonceStore
	CooldownStore
	RateLimitStore
}
