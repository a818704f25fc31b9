package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/degenlabs/flipgate/core"
)

// RedisStore backs the nonce, cooldown and rate-limit stores with Redis so
// several instances can share gate state. Eviction is delegated to key TTLs.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new Redis-backed store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "flipgate:",
	}
}

func (s *RedisStore) nonceKey(nonce string) string { return s.prefix + "nonce:" + nonce }

func (s *RedisStore) cooldownKey(wallet string) string { return s.prefix + "cooldown:" + wallet }

func (s *RedisStore) rateKey(source string) string { return s.prefix + "rate:" + source }

// Put stores the challenge JSON under the nonce key with the challenge TTL.
func (s *RedisStore) Put(ctx context.Context, ch core.Challenge, ttl time.Duration) error {
	payload, err := json.Marshal(ch)
	if err != nil {
		return fmt.Errorf("marshal challenge: %w", err)
	}
	if err := s.client.Set(ctx, s.nonceKey(ch.Nonce), payload, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreFailed, err)
	}
	return nil
}

// Take removes and returns the challenge for a nonce. GETDEL makes lookup
// and burn one atomic step, so two racing consumers cannot both see it.
func (s *RedisStore) Take(ctx context.Context, nonce string) (core.Challenge, bool, error) {
	payload, err := s.client.GetDel(ctx, s.nonceKey(nonce)).Result()
	if err == redis.Nil {
		return core.Challenge{}, false, nil
	}
	if err != nil {
		return core.Challenge{}, false, fmt.Errorf("%w: %v", core.ErrStoreFailed, err)
	}

	var ch core.Challenge
	if err := json.Unmarshal([]byte(payload), &ch); err != nil {
		return core.Challenge{}, false, fmt.Errorf("unmarshal challenge: %w", err)
	}
	if ch.Expired(time.Now()) {
		return core.Challenge{}, false, nil
	}
	return ch, true, nil
}

// Reserve relies on SET NX PX: the first writer in a cooldown period wins,
// later callers read the remaining TTL.
func (s *RedisStore) Reserve(ctx context.Context, wallet string, cooldown time.Duration) (time.Duration, bool, error) {
	key := s.cooldownKey(wallet)

	set, err := s.client.SetNX(ctx, key, "1", cooldown).Result()
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", core.ErrStoreFailed, err)
	}
	if set {
		return 0, true, nil
	}

	remaining, err := s.client.PTTL(ctx, key).Result()
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", core.ErrStoreFailed, err)
	}
	if remaining <= 0 {
		// Key expired between SETNX and PTTL; take the fresh period.
		return s.Reserve(ctx, wallet, cooldown)
	}
	return remaining, false, nil
}

// Admit counts with INCR; the first increment of a window arms its expiry.
func (s *RedisStore) Admit(ctx context.Context, source string, ceiling int, window time.Duration) (bool, error) {
	key := s.rateKey(source)

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", core.ErrStoreFailed, err)
	}
	if count == 1 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return false, fmt.Errorf("%w: %v", core.ErrStoreFailed, err)
		}
	}
	return count <= int64(ceiling), nil
}

// Close closes the underlying Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
