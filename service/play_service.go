package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/degenlabs/flipgate/core"
	"github.com/degenlabs/flipgate/ports"
)

// Defaults for the gate tunables.
const (
	DefaultChallengeTTL   = 5 * time.Minute
	DefaultCooldown       = time.Minute
	DefaultRateCeiling    = 20
	DefaultRateWindow     = time.Minute
	DefaultWinLamports    = 10_000_000
	DefaultWinProbability = 0.45
)

// Minimum request field lengths.
const (
	minWalletLen = 32
	minNonceLen  = 8
)

// Deps carries the collaborators of a PlayService. Store, Verifier and
// Drawer are required; Payouts, Balances and Events are optional.
type Deps struct {
	Store    ports.Store
	Verifier ports.SignatureVerifier
	Drawer   Drawer
	Payouts  ports.PayoutDispatcher
	Balances ports.BalanceReader
	Events   ports.EventPublisher
}

// Params carries the gate tunables. Zero values fall back to the defaults.
type Params struct {
	ChallengeTTL time.Duration
	Cooldown     time.Duration
	RateCeiling  int
	RateWindow   time.Duration
	WinLamports  uint64
}

// PlayService gates play attempts behind rate limiting, nonce
// challenge-response authentication and per-wallet cooldowns, then draws an
// outcome and settles wins through the payout dispatcher.
type PlayService struct {
	store    ports.Store
	verifier ports.SignatureVerifier
	drawer   Drawer
	payouts  ports.PayoutDispatcher
	balances ports.BalanceReader
	events   ports.EventPublisher

	challengeTTL time.Duration
	cooldown     time.Duration
	rateCeiling  int
	rateWindow   time.Duration
	winLamports  uint64
}

// NewPlayService creates a new play service.
func NewPlayService(deps Deps, params Params) *PlayService {
	if params.ChallengeTTL <= 0 {
		params.ChallengeTTL = DefaultChallengeTTL
	}
	if params.Cooldown <= 0 {
		params.Cooldown = DefaultCooldown
	}
	if params.RateCeiling <= 0 {
		params.RateCeiling = DefaultRateCeiling
	}
	if params.RateWindow <= 0 {
		params.RateWindow = DefaultRateWindow
	}
	if params.WinLamports == 0 {
		params.WinLamports = DefaultWinLamports
	}
	if deps.Drawer == nil {
		deps.Drawer = NewBernoulliDrawer(DefaultWinProbability)
	}

	return &PlayService{
		store:        deps.Store,
		verifier:     deps.Verifier,
		drawer:       deps.Drawer,
		payouts:      deps.Payouts,
		balances:     deps.Balances,
		events:       deps.Events,
		challengeTTL: params.ChallengeTTL,
		cooldown:     params.Cooldown,
		rateCeiling:  params.RateCeiling,
		rateWindow:   params.RateWindow,
		winLamports:  params.WinLamports,
	}
}

// RequestChallenge issues a fresh single-use nonce bound to the wallet.
func (s *PlayService) RequestChallenge(ctx context.Context, wallet string) (string, error) {
	if len(wallet) < minWalletLen {
		return "", fmt.Errorf("%w: wallet identity too short", core.ErrInvalidInput)
	}

	now := time.Now()
	ch := core.Challenge{
		Nonce:     uuid.NewString(),
		Wallet:    wallet,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.challengeTTL),
	}

	if err := s.store.Put(ctx, ch, s.challengeTTL); err != nil {
		return "", fmt.Errorf("store challenge: %w", err)
	}
	return ch.Nonce, nil
}

// PlayRequest is one gated play attempt.
type PlayRequest struct {
	// Source is the rate-limit key, usually the client IP.
	Source    string
	Wallet    string
	Nonce     string
	Signature []byte
}

// Play runs the full gate: rate limit, nonce consumption, signature
// verification, cooldown reservation, outcome draw and, on a win, payout
// dispatch. The order is load-bearing: the nonce burns before the signature
// is checked, and the cooldown is reserved only once the caller has proven
// control of the wallet.
func (s *PlayService) Play(ctx context.Context, req PlayRequest) (core.PlayOutcome, error) {
	if err := validatePlayRequest(req); err != nil {
		return core.PlayOutcome{}, err
	}

	admitted, err := s.store.Admit(ctx, req.Source, s.rateCeiling, s.rateWindow)
	if err != nil {
		return core.PlayOutcome{}, fmt.Errorf("rate limit check: %w", err)
	}
	if !admitted {
		return core.PlayOutcome{}, core.ErrRateLimited
	}

	// Take burns the nonce whatever happens next; an attacker holding a
	// valid nonce gets exactly one verification attempt.
	ch, found, err := s.store.Take(ctx, req.Nonce)
	if err != nil {
		return core.PlayOutcome{}, fmt.Errorf("consume nonce: %w", err)
	}
	if !found || ch.Wallet != req.Wallet {
		return core.PlayOutcome{}, core.ErrInvalidNonce
	}

	if err := s.verifier.Verify(req.Wallet, ch.Message(), req.Signature); err != nil {
		return core.PlayOutcome{}, err
	}

	remaining, reserved, err := s.store.Reserve(ctx, req.Wallet, s.cooldown)
	if err != nil {
		return core.PlayOutcome{}, fmt.Errorf("reserve cooldown: %w", err)
	}
	if !reserved {
		return core.PlayOutcome{}, &core.CooldownError{Remaining: remaining}
	}

	if !s.drawer.Win() {
		return core.PlayOutcome{Result: core.ResultLose}, nil
	}

	if s.payouts == nil {
		// Deferred settlement deployments report the win and settle
		// out-of-band.
		return core.PlayOutcome{Result: core.ResultWin, AmountLamports: s.winLamports}, nil
	}

	// Settlement must survive the caller hanging up: detach from the
	// request's cancellation but keep its values.
	dispatchCtx := context.WithoutCancel(ctx)
	sig, err := s.payouts.Dispatch(dispatchCtx, req.Wallet, s.winLamports)
	if err != nil {
		if errors.Is(err, core.ErrPayoutFailed) {
			return core.PlayOutcome{}, err
		}
		return core.PlayOutcome{}, fmt.Errorf("%w: %v", core.ErrPayoutFailed, err)
	}

	if s.events != nil {
		settlement := core.Settlement{
			Wallet:         req.Wallet,
			AmountLamports: s.winLamports,
			TxSignature:    sig,
			ConfirmedAt:    time.Now(),
		}
		if err := s.events.PublishSettlement(dispatchCtx, settlement); err != nil {
			// The payout is confirmed on chain; a lost event must not fail
			// the request.
			log.Printf("[WARN] settlement event not published for %s: %v", sig, err)
		}
	}

	return core.PlayOutcome{
		Result:         core.ResultPaid,
		AmountLamports: s.winLamports,
		TxSignature:    sig,
	}, nil
}

func validatePlayRequest(req PlayRequest) error {
	if len(req.Wallet) < minWalletLen {
		return fmt.Errorf("%w: wallet identity too short", core.ErrInvalidInput)
	}
	if len(req.Nonce) < minNonceLen {
		return fmt.Errorf("%w: nonce too short", core.ErrInvalidInput)
	}
	if len(req.Signature) == 0 {
		return fmt.Errorf("%w: signature missing", core.ErrInvalidInput)
	}
	return nil
}

// Eligibility reports whether a wallet holds any of the configured mint.
type Eligibility struct {
	Eligible bool
	Balance  decimal.Decimal
}

// CheckEligibility reads the wallet's token balance, behind the same
// per-source rate limit as play attempts.
func (s *PlayService) CheckEligibility(ctx context.Context, source, wallet string) (Eligibility, error) {
	if len(wallet) < minWalletLen {
		return Eligibility{}, fmt.Errorf("%w: wallet identity too short", core.ErrInvalidInput)
	}

	admitted, err := s.store.Admit(ctx, source, s.rateCeiling, s.rateWindow)
	if err != nil {
		return Eligibility{}, fmt.Errorf("rate limit check: %w", err)
	}
	if !admitted {
		return Eligibility{}, core.ErrRateLimited
	}

	if s.balances == nil {
		return Eligibility{}, errors.New("eligibility lookup not configured")
	}

	balance, err := s.balances.TokenBalance(ctx, wallet)
	if err != nil {
		return Eligibility{}, err
	}
	return Eligibility{
		Eligible: balance.IsPositive(),
		Balance:  balance,
	}, nil
}
