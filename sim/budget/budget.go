// Package budget provides counted, tick-scoped implementations of sim.Budget.
//
// All implementations are deterministic: they count abstract units, never
// wall-clock time, and TryConsume either deducts the full amount or changes
// nothing.
package budget

import (
	"fmt"
	"sort"

	"github.com/tickforge/lodsim/sim"
)

// Unlimited accepts every request. Useful for draining a queue completely.
type Unlimited struct{}

func (Unlimited) TryConsume(sim.ScopeKey, uint32) bool { return true }

// Pool is a single pool of units shared by every scope.
type Pool struct {
	remaining uint64
	consumed  uint64
	denied    uint64
}

// NewPool creates a pool holding units.
func NewPool(units uint64) *Pool {
	return &Pool{remaining: units}
}

func (p *Pool) TryConsume(_ sim.ScopeKey, units uint32) bool {
	if uint64(units) > p.remaining {
		p.denied++
		return false
	}
	p.remaining -= uint64(units)
	p.consumed += uint64(units)
	return true
}

// Remaining returns the units left.
func (p *Pool) Remaining() uint64 { return p.remaining }

// Consumed returns the units granted so far.
func (p *Pool) Consumed() uint64 { return p.consumed }

// Denied returns how many requests were refused.
func (p *Pool) Denied() uint64 { return p.denied }

// Refill sets the remaining units, typically at the start of a tick.
func (p *Pool) Refill(units uint64) { p.remaining = units }

// Scoped gives every scope its own allowance per tick, optionally capped by a
// shared total. A request must fit both the scope's allowance and the total.
type Scoped struct {
	perScope  uint64
	total     *Pool
	used      map[sim.ScopeKey]uint64
	overrides map[sim.ScopeKey]uint64
}

// NewScoped creates a per-scope budget. total of zero means no shared cap.
func NewScoped(perScope, total uint64) (*Scoped, error) {
	if perScope == 0 {
		return nil, fmt.Errorf("%w: per-scope allowance must be > 0", sim.ErrInvalidArgument)
	}
	s := &Scoped{
		perScope:  perScope,
		used:      make(map[sim.ScopeKey]uint64),
		overrides: make(map[sim.ScopeKey]uint64),
	}
	if total > 0 {
		s.total = NewPool(total)
	}
	return s, nil
}

// SetAllowance overrides the per-tick allowance of one scope.
func (s *Scoped) SetAllowance(scope sim.ScopeKey, units uint64) {
	s.overrides[scope] = units
}

func (s *Scoped) allowance(scope sim.ScopeKey) uint64 {
	if v, ok := s.overrides[scope]; ok {
		return v
	}
	return s.perScope
}

func (s *Scoped) TryConsume(scope sim.ScopeKey, units uint32) bool {
	used := s.used[scope]
	if used+uint64(units) > s.allowance(scope) {
		return false
	}
	if s.total != nil && !s.total.TryConsume(scope, units) {
		return false
	}
	s.used[scope] = used + uint64(units)
	return true
}

// Used returns the units consumed by scope this tick.
func (s *Scoped) Used(scope sim.ScopeKey) uint64 { return s.used[scope] }

// Scopes returns the scopes that consumed anything this tick, in key order.
func (s *Scoped) Scopes() []sim.ScopeKey {
	keys := make([]sim.ScopeKey, 0, len(s.used))
	for k := range s.used {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Domain != keys[j].Domain {
			return keys[i].Domain < keys[j].Domain
		}
		return keys[i].Chunk < keys[j].Chunk
	})
	return keys
}

// Reset starts a new tick: usage is forgotten and the shared total refilled.
func (s *Scoped) Reset(total uint64) {
	clear(s.used)
	if s.total != nil {
		s.total.Refill(total)
	}
}
