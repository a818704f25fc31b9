package store

import (
	"context"
	"sync"
	"time"

	"github.com/degenlabs/flipgate/core"
)

// MemoryStore is an in-memory implementation of the nonce, cooldown and
// rate-limit stores. Single process only; state is lost on restart.
type MemoryStore struct {
	mu        sync.Mutex
	nonces    map[string]core.Challenge
	cooldowns map[string]time.Time
	windows   map[string]*rateWindow

	now func() time.Time
}

type rateWindow struct {
	count   int
	resetAt time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nonces:    make(map[string]core.Challenge),
		cooldowns: make(map[string]time.Time),
		windows:   make(map[string]*rateWindow),
		now:       time.Now,
	}
}

// Put stores a challenge under its nonce. The challenge carries its own
// expiry, so the ttl is only enforced lazily here; the sweeper evicts.
func (s *MemoryStore) Put(ctx context.Context, ch core.Challenge, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nonces[ch.Nonce] = ch
	return nil
}

// Take removes and returns the challenge for a nonce. The delete happens
// before the expiry check so an expired record is burned by the lookup that
// found it.
func (s *MemoryStore) Take(ctx context.Context, nonce string) (core.Challenge, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.nonces[nonce]
	if !ok {
		return core.Challenge{}, false, nil
	}
	delete(s.nonces, nonce)

	if ch.Expired(s.now()) {
		return core.Challenge{}, false, nil
	}
	return ch, true, nil
}

// Reserve admits the wallet and starts a new cooldown, or reports the
// remaining wait. Runs under the store mutex, so concurrent attempts for
// one wallet serialize and at most one is admitted per period.
func (s *MemoryStore) Reserve(ctx context.Context, wallet string, cooldown time.Duration) (time.Duration, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if next, ok := s.cooldowns[wallet]; ok && now.Before(next) {
		return next.Sub(now), false, nil
	}
	s.cooldowns[wallet] = now.Add(cooldown)
	return 0, true, nil
}

// Admit counts the request against the source's current fixed window.
func (s *MemoryStore) Admit(ctx context.Context, source string, ceiling int, window time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w, ok := s.windows[source]
	if !ok || now.After(w.resetAt) {
		s.windows[source] = &rateWindow{count: 1, resetAt: now.Add(window)}
		return true, nil
	}
	w.count++
	return w.count <= ceiling, nil
}

// Sweep drops expired nonces, elapsed cooldowns and closed rate windows.
// Returns the number of entries removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for nonce, ch := range s.nonces {
		if ch.Expired(now) {
			delete(s.nonces, nonce)
			removed++
		}
	}
	for wallet, next := range s.cooldowns {
		if now.After(next) {
			delete(s.cooldowns, wallet)
			removed++
		}
	}
	for source, w := range s.windows {
		if now.After(w.resetAt) {
			delete(s.windows, source)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep every interval until ctx is cancelled.
func (s *MemoryStore) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}
