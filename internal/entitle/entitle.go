// Package entitle defines the usage gate the dialogue engine consults
// before accepting a turn. The engine only consumes the yes/no decision;
// purchase flows, receipts, and upsell screens belong to the caller.
package entitle

import (
	"context"
	"sync"
)

// Gate decides whether the player may spend another turn. AllowTurn is
// called once per submitted turn and may consume quota as a side effect.
// Implementations must be fast: the engine calls it on its mutation path.
type Gate interface {
	AllowTurn(ctx context.Context) bool
}

// AllowAll permits every turn. The default gate.
type AllowAll struct{}

// AllowTurn implements [Gate].
func (AllowAll) AllowTurn(context.Context) bool { return true }

// FreeTurns permits a fixed number of turns, then denies until Reset.
// Safe for concurrent use.
type FreeTurns struct {
	mu    sync.Mutex
	limit int
	used  int
}

// NewFreeTurns returns a gate allowing limit turns. A non-positive limit
// denies everything.
func NewFreeTurns(limit int) *FreeTurns {
	return &FreeTurns{limit: limit}
}

// AllowTurn implements [Gate], consuming one turn when permitted.
func (g *FreeTurns) AllowTurn(context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.used >= g.limit {
		return false
	}
	g.used++
	return true
}

// Remaining returns how many free turns are left.
func (g *FreeTurns) Remaining() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if n := g.limit - g.used; n > 0 {
		return n
	}
	return 0
}

// Reset restores the full allowance, e.g. after a purchase.
func (g *FreeTurns) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.used = 0
}
