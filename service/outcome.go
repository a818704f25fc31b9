package service

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	mathrand "math/rand/v2"
	"sync"
)

// Drawer decides whether a single admitted play wins.
type Drawer interface {
	Win() bool
}

// BernoulliDrawer draws independently with a fixed win probability. The
// generator is seeded from the OS entropy pool, so outcomes cannot be
// derived from anything the client supplies.
type BernoulliDrawer struct {
	p   float64
	mu  sync.Mutex
	rng *mathrand.Rand
}

// NewBernoulliDrawer creates a drawer with win probability p in [0, 1].
func NewBernoulliDrawer(p float64) *BernoulliDrawer {
	var seed [16]byte
	if _, err := cryptorand.Read(seed[:]); err != nil {
		panic("outcome drawer: cannot read entropy: " + err.Error())
	}
	rng := mathrand.New(mathrand.NewPCG(
		binary.LittleEndian.Uint64(seed[0:8]),
		binary.LittleEndian.Uint64(seed[8:16]),
	))
	return &BernoulliDrawer{p: p, rng: rng}
}

func (d *BernoulliDrawer) Win() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rng.Float64() < d.p
}
