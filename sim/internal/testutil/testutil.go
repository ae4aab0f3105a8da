// Package testutil provides shared test infrastructure for the scheduling
// packages: an in-memory Representable, a keyed registry that resolves it,
// and a budget that records what it was asked for.
package testutil

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/tickforge/lodsim/sim"
)

// Object is a minimal Representable that records every SetState.
type Object struct {
	state   sim.RepresentationState
	History []sim.RepresentationState

	// FailSetState, when set, is returned by SetState and the state is kept.
	FailSetState error
	// Invariant, when set, is returned by CheckInvariants.
	Invariant error
	// InvariantChecks counts CheckInvariants calls.
	InvariantChecks int

	onSet func()
}

// NewObject creates an object at state s.
func NewObject(s sim.RepresentationState) *Object {
	return &Object{state: s}
}

func (o *Object) State() sim.RepresentationState { return o.state }

func (o *Object) SetState(s sim.RepresentationState) error {
	if o.FailSetState != nil {
		return o.FailSetState
	}
	if !s.IsValid() {
		return fmt.Errorf("set %v: %w", s, sim.ErrInvalidState)
	}
	o.state = s
	o.History = append(o.History, s)
	if o.onSet != nil {
		o.onSet()
	}
	return nil
}

func (o *Object) Step(_ sim.Phase, budget *uint32) {
	if budget != nil && *budget > 0 {
		*budget--
	}
}

func (o *Object) SerializeState(dst []byte) (int, error) {
	if len(dst) < 1 {
		return 0, errors.New("buffer too small")
	}
	dst[0] = byte(o.state)
	return 1, nil
}

func (o *Object) CheckInvariants() error {
	o.InvariantChecks++
	return o.Invariant
}

// Registry resolves keys to Objects. It ignores the class.
type Registry struct {
	objects map[sim.ObjectKey]*Object

	// SetOrder lists the keys of registered objects in the order their
	// SetState calls succeeded.
	SetOrder []sim.ObjectKey
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{objects: make(map[sim.ObjectKey]*Object)}
}

// Put registers o under k and journals its successful SetState calls.
func (r *Registry) Put(k sim.ObjectKey, o *Object) {
	r.objects[k] = o
	o.onSet = func() { r.SetOrder = append(r.SetOrder, k) }
}

// Delete forgets k, simulating a destroyed object.
func (r *Registry) Delete(k sim.ObjectKey) { delete(r.objects, k) }

// Get returns the object registered under k.
func (r *Registry) Get(k sim.ObjectKey) *Object { return r.objects[k] }

func (r *Registry) Resolve(k sim.ObjectKey, _ sim.ClassID) (sim.Representable, bool) {
	o, ok := r.objects[k]
	if !ok {
		return nil, false
	}
	return o, true
}

// StateBytes encodes every object's key and state in key order. Two
// registries with equal bytes hold identical states.
func (r *Registry) StateBytes() []byte {
	keys := make([]sim.ObjectKey, 0, len(r.objects))
	for k := range r.objects {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return sim.CompareKeys(keys[i], keys[j]) < 0 })
	var out []byte
	for _, k := range keys {
		out = binary.LittleEndian.AppendUint64(out, uint64(k.Domain))
		out = binary.LittleEndian.AppendUint64(out, uint64(k.Chunk))
		out = binary.LittleEndian.AppendUint64(out, uint64(k.Entity))
		out = binary.LittleEndian.AppendUint32(out, k.Sub)
		out = append(out, byte(r.objects[k].state))
	}
	return out
}

// Consumption is one granted TryConsume call.
type Consumption struct {
	Scope sim.ScopeKey
	Units uint32
}

// RecordingBudget grants requests from a single pool and records every call.
type RecordingBudget struct {
	Remaining uint64
	Granted   []Consumption
	Denied    []Consumption
}

func (b *RecordingBudget) TryConsume(scope sim.ScopeKey, units uint32) bool {
	c := Consumption{Scope: scope, Units: units}
	if uint64(units) > b.Remaining {
		b.Denied = append(b.Denied, c)
		return false
	}
	b.Remaining -= uint64(units)
	b.Granted = append(b.Granted, c)
	return true
}

// Key builds an ObjectKey in tests.
func Key(domain, chunk, entity uint64, sub uint32) sim.ObjectKey {
	return sim.ObjectKey{Domain: sim.DomainID(domain), Chunk: sim.ChunkID(chunk), Entity: sim.EntityID(entity), Sub: sub}
}

// AssertStates fails t unless every listed key resolves to the wanted state.
func AssertStates(t *testing.T, r *Registry, want map[sim.ObjectKey]sim.RepresentationState) {
	t.Helper()
	for k, s := range want {
		o := r.Get(k)
		if o == nil {
			t.Errorf("%v: not registered", k)
			continue
		}
		if o.State() != s {
			t.Errorf("%v: state %v, want %v", k, o.State(), s)
		}
	}
}
