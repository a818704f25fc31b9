package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"

	"github.com/degenlabs/flipgate/core"
)

// SolanaLedger dispatches treasury payouts and reads token balances against
// a Solana RPC node.
type SolanaLedger struct {
	client   *rpc.Client
	treasury solana.PrivateKey
	mint     solana.PublicKey

	confirmTimeout time.Duration
	pollInterval   time.Duration
}

// Option configures a SolanaLedger.
type Option func(*SolanaLedger)

// WithConfirmTimeout bounds how long Dispatch waits for confirmation.
func WithConfirmTimeout(d time.Duration) Option {
	return func(l *SolanaLedger) { l.confirmTimeout = d }
}

// WithPollInterval sets how often Dispatch polls signature statuses.
func WithPollInterval(d time.Duration) Option {
	return func(l *SolanaLedger) { l.pollInterval = d }
}

// NewSolanaLedger creates a ledger adapter over an RPC client and the
// custodial treasury key.
func NewSolanaLedger(client *rpc.Client, treasury solana.PrivateKey, mint solana.PublicKey, opts ...Option) *SolanaLedger {
	l := &SolanaLedger{
		client:         client,
		treasury:       treasury,
		mint:           mint,
		confirmTimeout: 60 * time.Second,
		pollInterval:   2 * time.Second,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Dispatch builds a system transfer from the treasury, submits it and polls
// until the cluster reports at least confirmed commitment. Every failure
// surfaces as core.ErrPayoutFailed; the transfer is never retried here.
func (l *SolanaLedger) Dispatch(ctx context.Context, wallet string, lamports uint64) (string, error) {
	recipient, err := solana.PublicKeyFromBase58(wallet)
	if err != nil {
		return "", fmt.Errorf("%w: bad recipient: %v", core.ErrPayoutFailed, err)
	}

	recent, err := l.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return "", fmt.Errorf("%w: blockhash: %v", core.ErrPayoutFailed, err)
	}

	from := l.treasury.PublicKey()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(lamports, from, recipient).Build(),
		},
		recent.Value.Blockhash,
		solana.TransactionPayer(from),
	)
	if err != nil {
		return "", fmt.Errorf("%w: build transaction: %v", core.ErrPayoutFailed, err)
	}

	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(from) {
			return &l.treasury
		}
		return nil
	}); err != nil {
		return "", fmt.Errorf("%w: sign: %v", core.ErrPayoutFailed, err)
	}

	sig, err := l.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return "", fmt.Errorf("%w: submit: %v", core.ErrPayoutFailed, err)
	}

	if err := l.awaitConfirmation(ctx, sig); err != nil {
		return "", err
	}
	return sig.String(), nil
}

func (l *SolanaLedger) awaitConfirmation(ctx context.Context, sig solana.Signature) error {
	ctx, cancel := context.WithTimeout(ctx, l.confirmTimeout)
	defer cancel()

	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	for {
		out, err := l.client.GetSignatureStatuses(ctx, false, sig)
		if err == nil && len(out.Value) > 0 && out.Value[0] != nil {
			st := out.Value[0]
			if st.Err != nil {
				return fmt.Errorf("%w: transaction failed on chain: %v", core.ErrPayoutFailed, st.Err)
			}
			switch st.ConfirmationStatus {
			case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: confirmation timed out for %s", core.ErrPayoutFailed, sig)
		case <-ticker.C:
		}
	}
}

// TokenBalance reads the wallet's associated token account for the mint.
// A wallet with no token account reads as zero.
func (l *SolanaLedger) TokenBalance(ctx context.Context, wallet string) (decimal.Decimal, error) {
	owner, err := solana.PublicKeyFromBase58(wallet)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", core.ErrBadKey, err)
	}

	ata, _, err := solana.FindAssociatedTokenAddress(owner, l.mint)
	if err != nil {
		return decimal.Zero, fmt.Errorf("derive token account: %w", err)
	}

	out, err := l.client.GetTokenAccountBalance(ctx, ata, rpc.CommitmentConfirmed)
	if err != nil {
		// The RPC errors on accounts that do not exist yet.
		return decimal.Zero, nil
	}
	if out == nil || out.Value == nil {
		return decimal.Zero, nil
	}

	amount := out.Value.UiAmountString
	if amount == "" {
		amount = out.Value.Amount
	}
	bal, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse balance %q: %w", amount, err)
	}
	return bal, nil
}
