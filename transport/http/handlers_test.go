package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/degenlabs/flipgate/adapters/store"
	"github.com/degenlabs/flipgate/adapters/wallet"
	"github.com/degenlabs/flipgate/service"
)

type winDrawer struct{ win bool }

func (d winDrawer) Win() bool { return d.win }

type fakeDispatcher struct {
	sig string
	err error
}

func (d fakeDispatcher) Dispatch(ctx context.Context, wallet string, lamports uint64) (string, error) {
	return d.sig, d.err
}

type fakeBalances struct {
	balance decimal.Decimal
}

func (b fakeBalances) TokenBalance(ctx context.Context, wallet string) (decimal.Decimal, error) {
	return b.balance, nil
}

func newTestRouter(t *testing.T, deps service.Deps, params service.Params) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	if deps.Store == nil {
		deps.Store = store.NewMemoryStore()
	}
	if deps.Verifier == nil {
		deps.Verifier = wallet.NewEd25519Verifier()
	}
	return SetupRouter(service.NewPlayService(deps, params), ThrottleConfig{RPS: 10000, Burst: 10000})
}

func getJSON(t *testing.T, router *gin.Engine, url string) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	router.ServeHTTP(rec, req)
	return rec.Code, decodeBody(t, rec)
}

func postJSON(t *testing.T, router *gin.Engine, url string, body any) (int, map[string]any) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	return rec.Code, decodeBody(t, rec)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func playBody(t *testing.T, router *gin.Engine, w *solana.Wallet) map[string]string {
	t.Helper()

	status, body := getJSON(t, router, "/api/challenge?wallet="+w.PublicKey().String())
	require.Equal(t, http.StatusOK, status)
	nonce, _ := body["nonce"].(string)
	require.NotEmpty(t, nonce)

	sig, err := w.PrivateKey.Sign([]byte("play:" + nonce))
	require.NoError(t, err)

	return map[string]string{
		"wallet":          w.PublicKey().String(),
		"nonce":           nonce,
		"signatureBase64": base64.StdEncoding.EncodeToString(sig[:]),
	}
}

func TestChallengeEndpoint(t *testing.T) {
	router := newTestRouter(t, service.Deps{Drawer: winDrawer{}}, service.Params{})
	w := solana.NewWallet()

	status, body := getJSON(t, router, "/api/challenge?wallet="+w.PublicKey().String())
	assert.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["nonce"])
}

func TestChallengeRejectsShortWallet(t *testing.T) {
	router := newTestRouter(t, service.Deps{Drawer: winDrawer{}}, service.Params{})

	status, body := getJSON(t, router, "/api/challenge?wallet=short")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, ReasonInvalidInput, body["reason"])
}

func TestPlayPaidFlow(t *testing.T) {
	router := newTestRouter(t, service.Deps{
		Drawer:  winDrawer{win: true},
		Payouts: fakeDispatcher{sig: "settlement-sig"},
	}, service.Params{WinLamports: 10_000_000})
	w := solana.NewWallet()

	status, body := postJSON(t, router, "/api/play", playBody(t, router, w))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "paid", body["result"])
	assert.Equal(t, "settlement-sig", body["signature"])
	assert.Equal(t, float64(10_000_000), body["amountLamports"])
}

func TestPlayLoseFlow(t *testing.T) {
	router := newTestRouter(t, service.Deps{Drawer: winDrawer{win: false}}, service.Params{})
	w := solana.NewWallet()

	status, body := postJSON(t, router, "/api/play", playBody(t, router, w))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "lose", body["result"])
}

func TestPlayDispatchFailure(t *testing.T) {
	router := newTestRouter(t, service.Deps{
		Drawer:  winDrawer{win: true},
		Payouts: fakeDispatcher{err: errors.New("cluster unreachable")},
	}, service.Params{})
	w := solana.NewWallet()

	status, body := postJSON(t, router, "/api/play", playBody(t, router, w))
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, ReasonPayoutFailed, body["reason"])
}

func TestPlayInvalidBody(t *testing.T) {
	router := newTestRouter(t, service.Deps{Drawer: winDrawer{}}, service.Params{})

	status, body := postJSON(t, router, "/api/play", map[string]string{"wallet": "x"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, ReasonInvalidInput, body["reason"])
}

func TestPlayBadBase64Signature(t *testing.T) {
	router := newTestRouter(t, service.Deps{Drawer: winDrawer{}}, service.Params{})
	w := solana.NewWallet()

	body := playBody(t, router, w)
	body["signatureBase64"] = "%%%not-base64%%%"

	status, resp := postJSON(t, router, "/api/play", body)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, ReasonBadSignature, resp["reason"])
}

func TestPlayUnknownNonce(t *testing.T) {
	router := newTestRouter(t, service.Deps{Drawer: winDrawer{}}, service.Params{})
	w := solana.NewWallet()

	status, body := postJSON(t, router, "/api/play", map[string]string{
		"wallet":          w.PublicKey().String(),
		"nonce":           "nonce-that-was-never-issued",
		"signatureBase64": base64.StdEncoding.EncodeToString(make([]byte, 64)),
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, ReasonInvalidNonce, body["reason"])
}

func TestPlayCooldownResponse(t *testing.T) {
	router := newTestRouter(t, service.Deps{Drawer: winDrawer{win: false}}, service.Params{Cooldown: time.Minute})
	w := solana.NewWallet()

	status, _ := postJSON(t, router, "/api/play", playBody(t, router, w))
	require.Equal(t, http.StatusOK, status)

	status, body := postJSON(t, router, "/api/play", playBody(t, router, w))
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, ReasonCoolingDown, body["reason"])
	assert.Greater(t, body["remainingSeconds"], float64(0))
}

func TestWhitelistEndpoint(t *testing.T) {
	router := newTestRouter(t, service.Deps{
		Drawer:   winDrawer{},
		Balances: fakeBalances{balance: decimal.NewFromFloat(2.5)},
	}, service.Params{})
	w := solana.NewWallet()

	status, body := getJSON(t, router, "/api/whitelist?wallet="+w.PublicKey().String())
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["eligible"])
	assert.Equal(t, 2.5, body["balance"])
}

func TestWhitelistEmptyBalance(t *testing.T) {
	router := newTestRouter(t, service.Deps{
		Drawer:   winDrawer{},
		Balances: fakeBalances{balance: decimal.Zero},
	}, service.Params{})
	w := solana.NewWallet()

	status, body := getJSON(t, router, "/api/whitelist?wallet="+w.PublicKey().String())
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["eligible"])
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t, service.Deps{Drawer: winDrawer{}}, service.Params{})

	status, body := getJSON(t, router, "/healthz")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}
