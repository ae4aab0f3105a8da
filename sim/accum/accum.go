// Package accum implements a lossless ledger of deferred work.
//
// An Accumulator holds an "owed" amount of one fixed kind. Producers Add deltas
// whenever work is skipped (for example while an object runs at a coarse tier)
// and consumers Apply the owed amount later, either all at once or in unit-sized
// slices across many ticks. However the work is chunked, the total delivered
// equals the total added.
package accum

import (
	"errors"
	"fmt"

	"github.com/tickforge/lodsim/sim"
)

// ErrKindMismatch reports a delta or unit whose kind differs from the accumulator's.
var ErrKindMismatch = errors.New("accumulator kind mismatch")

// Accumulator is a single-owner deferred-work ledger. Not safe for concurrent use.
type Accumulator struct {
	kind Kind
	unit Value
	owed Value

	added     Value // total ever added since the last Clear
	delivered Value // total ever passed to Apply callbacks since the last Clear

	lastAddTick uint64
}

// New creates an empty accumulator. A unit of zero in every component makes
// Apply deliver the whole owed amount in one call.
func New(kind Kind, unit Value) (*Accumulator, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: accumulator kind %d", sim.ErrInvalidArgument, kind)
	}
	if unit.Kind != kind {
		return nil, fmt.Errorf("%w: unit is %v, accumulator is %v", ErrKindMismatch, unit.Kind, kind)
	}
	zero := Zero(kind)
	return &Accumulator{kind: kind, unit: unit, owed: zero, added: zero, delivered: zero}, nil
}

// Kind returns the value kind this accumulator holds.
func (a *Accumulator) Kind() Kind { return a.kind }

// Unit returns the per-call delivery cap.
func (a *Accumulator) Unit() Value { return a.unit }

// Owed returns the amount not yet delivered.
func (a *Accumulator) Owed() Value { return a.owed }

// Empty reports whether nothing is owed.
func (a *Accumulator) Empty() bool { return a.owed.IsZero() }

// LastAddTick returns the tick passed to the most recent Add.
func (a *Accumulator) LastAddTick() uint64 { return a.lastAddTick }

// Totals returns the amounts added and delivered since the last Clear.
// While no component saturated, added == delivered + owed.
func (a *Accumulator) Totals() (added, delivered Value) {
	return a.added, a.delivered
}

// Add merges delta into the owed amount using the value kind's arithmetic.
func (a *Accumulator) Add(delta Value, tick uint64) error {
	if delta.Kind != a.kind {
		return fmt.Errorf("%w: delta is %v, accumulator is %v", ErrKindMismatch, delta.Kind, a.kind)
	}
	a.owed = a.owed.add(delta)
	a.added = a.added.add(delta)
	a.lastAddTick = tick
	return nil
}

// ApplyFunc receives each delivered slice of owed work.
type ApplyFunc func(delta Value)

// Apply delivers owed work to fn. Each call to fn costs one unit of *budget.
// Delivery stops when the budget reaches zero, nothing is owed, or maxUnits
// calls have been made. With an all-zero unit the whole owed amount goes out
// in a single call and Apply returns immediately. Returns the number of calls.
func (a *Accumulator) Apply(fn ApplyFunc, maxUnits int, budget *uint32) (int, error) {
	if fn == nil || budget == nil {
		return 0, fmt.Errorf("%w: nil callback or budget", sim.ErrInvalidArgument)
	}
	calls := 0
	for *budget > 0 && !a.owed.IsZero() && calls < maxUnits {
		if a.unit.IsZero() {
			delta := a.owed
			a.owed = Zero(a.kind)
			a.delivered = a.delivered.add(delta)
			fn(delta)
			*budget--
			calls++
			break
		}
		delta := a.owed.clampTo(a.unit)
		a.owed = a.owed.sub(delta)
		a.delivered = a.delivered.add(delta)
		fn(delta)
		*budget--
		calls++
	}
	return calls, nil
}

// Clear drops the owed amount and the running totals. Used on structural reset.
func (a *Accumulator) Clear() {
	zero := Zero(a.kind)
	a.owed = zero
	a.added = zero
	a.delivered = zero
	a.lastAddTick = 0
}
