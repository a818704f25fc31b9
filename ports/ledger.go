package ports

import (
	"context"

	"github.com/shopspring/decimal"
)

// PayoutDispatcher submits a treasury transfer and waits for confirmation.
type PayoutDispatcher interface {
	// Dispatch transfers lamports from the treasury to the wallet and
	// returns the confirmed transaction signature.
	Dispatch(ctx context.Context, wallet string, lamports uint64) (string, error)
}

// BalanceReader reads a wallet's balance of the configured mint.
type BalanceReader interface {
	TokenBalance(ctx context.Context, wallet string) (decimal.Decimal, error)
}
