package config

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Config is the environment-driven configuration for the service.
type Config struct {
	Port string

	RPCURL string
	Mint   string

	WinLamports    uint64
	WinProbability float64
	Cooldown       time.Duration
	RateCeiling    int
	RateWindow     time.Duration
	ChallengeTTL   time.Duration

	ThrottleRPS   float64
	ThrottleBurst int

	// RedisURL switches the gate to Redis-backed stores when set.
	RedisURL string

	Treasury solana.PrivateKey
}

// Load reads the configuration from the environment. Exactly one of
// TREASURY_SECRET_KEY_BASE58 and TREASURY_SECRET_KEY_JSON must be set.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		RPCURL:         getEnv("RPC_URL", rpc.DevNet_RPC),
		Mint:           os.Getenv("MINT"),
		WinLamports:    getEnvUint("WIN_LAMPORTS", 10_000_000),
		WinProbability: getEnvFloat("WIN_PROBABILITY", 0.45),
		Cooldown:       getEnvSeconds("COOLDOWN_SECONDS", 60),
		RateCeiling:    getEnvInt("RATE_LIMIT_CEILING", 20),
		RateWindow:     getEnvSeconds("RATE_LIMIT_WINDOW_SECONDS", 60),
		ChallengeTTL:   getEnvSeconds("CHALLENGE_TTL_SECONDS", 300),
		ThrottleRPS:    getEnvFloat("THROTTLE_RPS", 50),
		ThrottleBurst:  getEnvInt("THROTTLE_BURST", 100),
		RedisURL:       os.Getenv("REDIS_URL"),
	}

	if cfg.WinProbability < 0 || cfg.WinProbability > 1 {
		return nil, fmt.Errorf("WIN_PROBABILITY must be within [0,1], got %v", cfg.WinProbability)
	}

	treasury, err := LoadTreasury(
		os.Getenv("TREASURY_SECRET_KEY_BASE58"),
		os.Getenv("TREASURY_SECRET_KEY_JSON"),
	)
	if err != nil {
		return nil, err
	}
	cfg.Treasury = treasury

	return cfg, nil
}

// LoadTreasury accepts the custodial signing key either base58-encoded or
// as a raw JSON byte array (the solana-keygen file format). Exactly one
// encoding must be supplied.
func LoadTreasury(b58, rawJSON string) (solana.PrivateKey, error) {
	switch {
	case b58 != "" && rawJSON != "":
		return nil, fmt.Errorf("treasury secret: set exactly one of TREASURY_SECRET_KEY_BASE58 and TREASURY_SECRET_KEY_JSON, not both")
	case b58 != "":
		key, err := solana.PrivateKeyFromBase58(b58)
		if err != nil {
			return nil, fmt.Errorf("treasury secret: %w", err)
		}
		if len(key) != ed25519.PrivateKeySize {
			return nil, fmt.Errorf("treasury secret: want %d bytes, got %d", ed25519.PrivateKeySize, len(key))
		}
		return key, nil
	case rawJSON != "":
		var nums []int
		if err := json.Unmarshal([]byte(rawJSON), &nums); err != nil {
			return nil, fmt.Errorf("treasury secret: %w", err)
		}
		if len(nums) != ed25519.PrivateKeySize {
			return nil, fmt.Errorf("treasury secret: want %d bytes, got %d", ed25519.PrivateKeySize, len(nums))
		}
		raw := make([]byte, len(nums))
		for i, n := range nums {
			if n < 0 || n > 255 {
				return nil, fmt.Errorf("treasury secret: byte %d out of range", i)
			}
			raw[i] = byte(n)
		}
		return solana.PrivateKey(raw), nil
	default:
		return nil, fmt.Errorf("treasury secret missing: set TREASURY_SECRET_KEY_BASE58 or TREASURY_SECRET_KEY_JSON")
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		log.Printf("[WARN] Invalid int for %s: %v, using default %d", key, err, fallback)
		return fallback
	}
	return i
}

func getEnvUint(key string, fallback uint64) uint64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	u, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		log.Printf("[WARN] Invalid uint for %s: %v, using default %d", key, err, fallback)
		return fallback
	}
	return u
}

func getEnvFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		log.Printf("[WARN] Invalid float for %s: %v, using default %v", key, err, fallback)
		return fallback
	}
	return f
}

func getEnvSeconds(key string, fallback int) time.Duration {
	return time.Duration(getEnvInt(key, fallback)) * time.Second
}
