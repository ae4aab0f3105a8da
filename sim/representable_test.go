package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stub is a Representable with a fixed payload.
type stub struct {
	state   RepresentationState
	payload []byte
	n       int // overrides the returned length when non-zero
	err     error
}

func (s *stub) State() RepresentationState { return s.state }

func (s *stub) SetState(r RepresentationState) error {
	s.state = r
	return nil
}

func (s *stub) Step(Phase, *uint32) {}

func (s *stub) SerializeState(dst []byte) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	if s.n != 0 {
		return s.n, nil
	}
	if len(dst) < len(s.payload) {
		return 0, errors.New("short buffer")
	}
	return copy(dst, s.payload), nil
}

func (s *stub) CheckInvariants() error { return nil }

func TestValidate(t *testing.T) {
	assert.ErrorIs(t, Validate(nil), ErrInvalidRepresentable)
	assert.ErrorIs(t, Validate((*stub)(nil)), ErrInvalidRepresentable, "typed nil")
	assert.ErrorIs(t, Validate(&stub{state: 7}), ErrInvalidRepresentable)
	assert.NoError(t, Validate(&stub{state: R2Agg}))
}

func TestSerializeBounded(t *testing.T) {
	// GIVEN a well-behaved object with a 3-byte payload
	s := &stub{payload: []byte{1, 2, 3}}

	// THEN the payload comes back trimmed to its length
	out, err := SerializeBounded(s, 8)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, out)

	// AND an empty payload is valid
	out, err = SerializeBounded(&stub{}, 0)
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = SerializeBounded(s, 2)
	assert.Error(t, err, "object error is propagated")

	_, err = SerializeBounded(&stub{n: 9}, 4)
	assert.ErrorIs(t, err, ErrCapacity, "reported length beyond capacity")

	_, err = SerializeBounded(s, -1)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = SerializeBounded(nil, 4)
	assert.ErrorIs(t, err, ErrInvalidRepresentable)
}

func TestResolverFunc(t *testing.T) {
	obj := &stub{state: R1Lite}
	var r Resolver = ResolverFunc(func(k ObjectKey, _ ClassID) (Representable, bool) {
		if k.Entity == 1 {
			return obj, true
		}
		return nil, false
	})

	got, ok := r.Resolve(ObjectKey{Entity: 1}, 0)
	assert.True(t, ok)
	assert.Same(t, obj, got)
	_, ok = r.Resolve(ObjectKey{Entity: 2}, 0)
	assert.False(t, ok)
}
