package config

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTreasuryBase58(t *testing.T) {
	w := solana.NewWallet()

	key, err := LoadTreasury(w.PrivateKey.String(), "")
	require.NoError(t, err)
	assert.Equal(t, w.PublicKey(), key.PublicKey())
}

func TestLoadTreasuryJSONArray(t *testing.T) {
	w := solana.NewWallet()

	nums := make([]int, len(w.PrivateKey))
	for i, b := range w.PrivateKey {
		nums[i] = int(b)
	}
	raw, err := json.Marshal(nums)
	require.NoError(t, err)

	key, err := LoadTreasury("", string(raw))
	require.NoError(t, err)
	assert.Equal(t, w.PublicKey(), key.PublicKey())
}

func TestLoadTreasuryExactlyOne(t *testing.T) {
	w := solana.NewWallet()

	_, err := LoadTreasury(w.PrivateKey.String(), "[1,2,3]")
	assert.Error(t, err, "both encodings present must fail")

	_, err = LoadTreasury("", "")
	assert.Error(t, err, "missing treasury must fail")
}

func TestLoadTreasuryRejectsBadInput(t *testing.T) {
	_, err := LoadTreasury("", "[1,2,3]")
	assert.Error(t, err, "short key must fail")

	_, err = LoadTreasury("", "not json at all")
	assert.Error(t, err)

	_, err = LoadTreasury("0IOl-not-base58", "")
	assert.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	w := solana.NewWallet()
	t.Setenv("TREASURY_SECRET_KEY_BASE58", w.PrivateKey.String())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, uint64(10_000_000), cfg.WinLamports)
	assert.Equal(t, 0.45, cfg.WinProbability)
	assert.Equal(t, time.Minute, cfg.Cooldown)
	assert.Equal(t, 20, cfg.RateCeiling)
	assert.Equal(t, time.Minute, cfg.RateWindow)
	assert.Equal(t, 5*time.Minute, cfg.ChallengeTTL)
}

func TestLoadOverrides(t *testing.T) {
	w := solana.NewWallet()
	t.Setenv("TREASURY_SECRET_KEY_BASE58", w.PrivateKey.String())
	t.Setenv("WIN_LAMPORTS", "5000")
	t.Setenv("WIN_PROBABILITY", "0.25")
	t.Setenv("COOLDOWN_SECONDS", "120")
	t.Setenv("RATE_LIMIT_CEILING", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, uint64(5000), cfg.WinLamports)
	assert.Equal(t, 0.25, cfg.WinProbability)
	assert.Equal(t, 2*time.Minute, cfg.Cooldown)
	assert.Equal(t, 5, cfg.RateCeiling)
}

func TestLoadRejectsBadProbability(t *testing.T) {
	w := solana.NewWallet()
	t.Setenv("TREASURY_SECRET_KEY_BASE58", w.PrivateKey.String())
	t.Setenv("WIN_PROBABILITY", "1.5")

	_, err := Load()
	assert.Error(t, err)
}
