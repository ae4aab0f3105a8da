// Package interest turns spatial regions of attention into deterministic
// importance scores.
//
// Sources register with a priority and emit volumes into a List every planning
// pass. The List is then put into canonical order, so only the multiset of
// emitted volumes matters, never which source ran first. Scoring uses integer
// fixed-point math only.
package interest

import (
	"errors"
	"fmt"
	"sort"

	"github.com/tickforge/lodsim/sim"
)

// ErrRegistryFull reports a source registration refused for capacity.
var ErrRegistryFull = fmt.Errorf("interest source registry full: %w", sim.ErrCapacity)

// ErrNilSource reports a registration without a source.
var ErrNilSource = errors.New("nil interest source")

// Source emits interest volumes for a tick. Implementations push into out and
// must not retain it.
type Source interface {
	Emit(tick uint64, out *List)
}

// SourceFunc adapts a function to the Source interface. Any user context is
// carried by the closure.
type SourceFunc func(tick uint64, out *List)

func (f SourceFunc) Emit(tick uint64, out *List) { f(tick, out) }

type registration struct {
	priority int32
	seq      uint64
	src      Source
}

// Model holds the ordered source registry.
type Model struct {
	sources  []registration
	nextSeq  uint64
	refusals uint64
}

// NewModel creates a registry for up to maxSources sources.
func NewModel(maxSources int) (*Model, error) {
	if maxSources <= 0 {
		return nil, fmt.Errorf("%w: maxSources must be > 0, got %d", sim.ErrInvalidArgument, maxSources)
	}
	return &Model{sources: make([]registration, 0, maxSources)}, nil
}

// Register adds src. Sources run in ascending priority, ties in registration order.
func (m *Model) Register(priority int32, src Source) error {
	if src == nil {
		return fmt.Errorf("%w: %w", sim.ErrInvalidArgument, ErrNilSource)
	}
	if len(m.sources) == cap(m.sources) {
		m.refusals++
		return ErrRegistryFull
	}
	r := registration{priority: priority, seq: m.nextSeq, src: src}
	m.nextSeq++
	i := sort.Search(len(m.sources), func(i int) bool {
		s := m.sources[i]
		return s.priority > r.priority || (s.priority == r.priority && s.seq > r.seq)
	})
	m.sources = append(m.sources, registration{})
	copy(m.sources[i+1:], m.sources[i:])
	m.sources[i] = r
	return nil
}

// NumSources returns the number of registered sources.
func (m *Model) NumSources() int { return len(m.sources) }

// RegistryRefusals returns how many registrations were refused.
func (m *Model) RegistryRefusals() uint64 { return m.refusals }

// Collect resets out, runs every source in order and canonicalizes the result.
// With no sources the list is simply empty.
func (m *Model) Collect(tick uint64, out *List) {
	out.Reset()
	for _, r := range m.sources {
		r.src.Emit(tick, out)
	}
	out.Canonicalize()
}
