package http

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/degenlabs/flipgate/core"
	"github.com/degenlabs/flipgate/service"
)

// Machine-readable rejection reasons.
const (
	ReasonInvalidInput = "invalid-input"
	ReasonRateLimited  = "rate-limited"
	ReasonInvalidNonce = "invalid-or-expired-nonce"
	ReasonBadKey       = "bad-key"
	ReasonBadSignature = "bad-signature"
	ReasonCoolingDown  = "still-cooling-down"
	ReasonPayoutFailed = "payout-failed"
)

// PlayHandlers contains HTTP handlers for the play gate endpoints.
type PlayHandlers struct {
	playService *service.PlayService
}

// NewPlayHandlers creates new play handlers.
func NewPlayHandlers(playService *service.PlayService) *PlayHandlers {
	return &PlayHandlers{
		playService: playService,
	}
}

// Challenge issues a single-use nonce for a wallet.
func (h *PlayHandlers) Challenge(c *gin.Context) {
	wallet := c.Query("wallet")
	if len(wallet) < 32 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query", "reason": ReasonInvalidInput})
		return
	}

	nonce, err := h.playService.RequestChallenge(c.Request.Context(), wallet)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"nonce": nonce})
}

// Play runs one gated play attempt.
func (h *PlayHandlers) Play(c *gin.Context) {
	var req struct {
		Wallet          string `json:"wallet" binding:"required,min=32"`
		Nonce           string `json:"nonce" binding:"required,min=8"`
		SignatureBase64 string `json:"signatureBase64" binding:"required,min=10"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid body", "reason": ReasonInvalidInput})
		return
	}

	signature, err := base64.StdEncoding.DecodeString(req.SignatureBase64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature", "reason": ReasonBadSignature})
		return
	}

	outcome, err := h.playService.Play(c.Request.Context(), service.PlayRequest{
		Source:    c.ClientIP(),
		Wallet:    req.Wallet,
		Nonce:     req.Nonce,
		Signature: signature,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	switch outcome.Result {
	case core.ResultLose:
		c.JSON(http.StatusOK, gin.H{"result": core.ResultLose})
	case core.ResultWin:
		c.JSON(http.StatusOK, gin.H{
			"result":         core.ResultWin,
			"amountLamports": outcome.AmountLamports,
		})
	default:
		c.JSON(http.StatusOK, gin.H{
			"result":         core.ResultPaid,
			"signature":      outcome.TxSignature,
			"amountLamports": outcome.AmountLamports,
		})
	}
}

// Whitelist reports token-holding eligibility for a wallet.
func (h *PlayHandlers) Whitelist(c *gin.Context) {
	wallet := c.Query("wallet")
	if len(wallet) < 32 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query", "reason": ReasonInvalidInput})
		return
	}

	eligibility, err := h.playService.CheckEligibility(c.Request.Context(), c.ClientIP(), wallet)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"eligible": eligibility.Eligible,
		"balance":  eligibility.Balance.InexactFloat64(),
	})
}

// respondError maps domain errors onto HTTP statuses. Bad keys and bad
// signatures share one user-visible message so callers cannot probe which
// half failed.
func respondError(c *gin.Context, err error) {
	var cooldown *core.CooldownError

	switch {
	case errors.As(err, &cooldown):
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":            fmt.Sprintf("Cooldown %ds", cooldown.RemainingSeconds()),
			"reason":           ReasonCoolingDown,
			"remainingSeconds": cooldown.RemainingSeconds(),
		})
	case errors.Is(err, core.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "reason": ReasonInvalidInput})
	case errors.Is(err, core.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests", "reason": ReasonRateLimited})
	case errors.Is(err, core.ErrInvalidNonce):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired nonce", "reason": ReasonInvalidNonce})
	case errors.Is(err, core.ErrBadKey):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature", "reason": ReasonBadKey})
	case errors.Is(err, core.ErrBadSignature):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature", "reason": ReasonBadSignature})
	case errors.Is(err, core.ErrPayoutFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Payout failed", "reason": ReasonPayoutFailed})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}
