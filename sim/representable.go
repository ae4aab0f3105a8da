package sim

import (
	"fmt"
	"reflect"
)

// Phase identifies the sub-step of a tick an object is being stepped in.
type Phase uint8

const (
	PhaseSense Phase = iota
	PhaseDecide
	PhaseAct
	PhaseCommit
)

// Representable is the capability every scheduled object implements.
//
// SetState is the only authoritative mutator of the tier and is invoked only by
// the planner's drain step, never mid-phase. Step consumes work from the
// caller-owned budget counter and must not touch anything else the caller owns.
// SerializeState writes an opaque payload into dst and returns its length.
// CheckInvariants is called after SetState only when the planner is configured
// to check invariants; objects with nothing to check return nil.
type Representable interface {
	State() RepresentationState
	SetState(s RepresentationState) error
	Step(phase Phase, budget *uint32)
	SerializeState(dst []byte) (int, error)
	CheckInvariants() error
}

// Resolver maps a key to its live Representable. A miss means the object no
// longer exists (or never did).
type Resolver interface {
	Resolve(key ObjectKey, class ClassID) (Representable, bool)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(key ObjectKey, class ClassID) (Representable, bool)

func (f ResolverFunc) Resolve(key ObjectKey, class ClassID) (Representable, bool) {
	return f(key, class)
}

// Budget bounds per-tick work. TryConsume is atomic: it either deducts units
// from the scope and returns true, or returns false and changes nothing.
type Budget interface {
	TryConsume(scope ScopeKey, units uint32) bool
}

// Validate rejects objects that cannot take part in scheduling: a nil
// Representable, or one that reports a state outside the ladder.
func Validate(r Representable) error {
	if isNil(r) {
		return fmt.Errorf("%w: nil", ErrInvalidRepresentable)
	}
	if s := r.State(); !s.IsValid() {
		return fmt.Errorf("%w: reports %v", ErrInvalidRepresentable, s)
	}
	return nil
}

// isNil also catches typed nils, e.g. a (*T)(nil) stored in the interface.
func isNil(r Representable) bool {
	if r == nil {
		return true
	}
	v := reflect.ValueOf(r)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Func, reflect.Interface, reflect.Slice, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// SerializeBounded serializes r into a fresh buffer of the given capacity.
// The payload is opaque; any length up to capacity is accepted.
func SerializeBounded(r Representable, capacity int) ([]byte, error) {
	if err := Validate(r); err != nil {
		return nil, err
	}
	if capacity < 0 {
		return nil, fmt.Errorf("%w: negative capacity %d", ErrInvalidArgument, capacity)
	}
	buf := make([]byte, capacity)
	n, err := r.SerializeState(buf)
	if err != nil {
		return nil, fmt.Errorf("serialize state: %w", err)
	}
	if n < 0 || n > capacity {
		return nil, fmt.Errorf("%w: serialized %d bytes into capacity %d", ErrCapacity, n, capacity)
	}
	return buf[:n], nil
}
