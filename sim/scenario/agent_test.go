package scenario

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickforge/lodsim/sim"
	"github.com/tickforge/lodsim/sim/accum"
)

func newTestAgent(t *testing.T, clock *uint64) *Agent {
	t.Helper()
	a, err := newAgent(sim.ObjectKey{Domain: 1, Chunk: 0, Entity: 1}, ClassWorker,
		sim.V3(5, 0, 5), sim.Vec3{X: sim.FixedOne}, sim.V3(0, 0, 0), sim.V3(32, 0, 32), 3, clock,
		BudgetConfig{CatchUpUnit: 4, CatchUpCalls: 2})
	require.NoError(t, err)
	return a
}

func stepAll(a *Agent, budget *uint32) {
	for _, ph := range []sim.Phase{sim.PhaseSense, sim.PhaseDecide, sim.PhaseAct, sim.PhaseCommit} {
		a.Step(ph, budget)
	}
}

func TestAgent_DormantDefersThenReplays(t *testing.T) {
	var clock uint64
	a := newTestAgent(t, &clock)

	// GIVEN five dormant ticks
	for i := 0; i < 5; i++ {
		clock++
		b := uint32(100)
		stepAll(a, &b)
		assert.Equal(t, uint32(100), b, "dormant agents cost nothing")
	}

	// THEN everything was deferred
	assert.Zero(t, a.Output())
	assert.Equal(t, int64(15), a.Backlog())
	assert.Equal(t, sim.Vec3{X: 5 * sim.FixedOne}, a.PendingDrift())
	assert.Equal(t, sim.V3(5, 0, 5), a.Position())

	// WHEN promoted to full and stepped once
	require.NoError(t, a.SetState(sim.R0Full))
	clock++
	b := uint32(100)
	stepAll(a, &b)

	// THEN it works live, replays two backlog slices and the whole drift
	assert.Equal(t, int64(3+4+4), a.Output())
	assert.Equal(t, int64(7), a.Backlog())
	assert.True(t, a.PendingDrift().IsZero())
	assert.Equal(t, sim.V3(11, 0, 5), a.Position())
	assert.Equal(t, uint32(100-4-2-1), b)
	assert.Equal(t, int64(3*6), a.Produced())
	assert.NoError(t, a.CheckInvariants())
}

func TestAgent_ShortStepBudgetDefers(t *testing.T) {
	var clock uint64 = 1
	a := newTestAgent(t, &clock)
	require.NoError(t, a.SetState(sim.R0Full))

	b := uint32(3)
	stepAll(a, &b)

	assert.Equal(t, uint32(3), b)
	assert.Zero(t, a.Output())
	assert.Equal(t, int64(3), a.Backlog())
	assert.Equal(t, sim.V3(5, 0, 5), a.Position())
}

func TestAgent_LiteProducesButDoesNotMove(t *testing.T) {
	var clock uint64 = 1
	a := newTestAgent(t, &clock)
	require.NoError(t, a.SetState(sim.R1Lite))

	b := uint32(10)
	stepAll(a, &b)

	assert.Equal(t, int64(3), a.Output())
	assert.Equal(t, sim.V3(5, 0, 5), a.Position())
	assert.Equal(t, sim.Vec3{X: sim.FixedOne}, a.PendingDrift())
	assert.Equal(t, uint32(8), b)
}

func TestAgent_BouncesInsideHomeChunk(t *testing.T) {
	var clock uint64 = 1
	a := newTestAgent(t, &clock)
	require.NoError(t, a.SetState(sim.R0Full))
	a.vel = sim.Vec3{X: sim.FixedFromInt(40)}

	b := uint32(10)
	stepAll(a, &b)

	assert.Less(t, a.Position().X, sim.FixedFromInt(32))
	assert.Negative(t, int32(a.vel.X), "velocity reversed at the wall")
	assert.NoError(t, a.CheckInvariants())
}

func TestAgent_SetStateAndSerialize(t *testing.T) {
	var clock uint64
	a := newTestAgent(t, &clock)

	assert.ErrorIs(t, a.SetState(sim.RepresentationState(9)), sim.ErrInvalidState)
	assert.Equal(t, sim.R3Dormant, a.State())

	payload, err := sim.SerializeBounded(a, agentPayloadSize)
	require.NoError(t, err)
	assert.Len(t, payload, agentPayloadSize)
	assert.Equal(t, byte(sim.R3Dormant), payload[0])

	_, err = a.SerializeState(make([]byte, agentPayloadSize-1))
	assert.ErrorIs(t, err, sim.ErrCapacity)
}

func TestAgent_LedgerFailureIsCountedNotSwallowed(t *testing.T) {
	// GIVEN an agent whose backlog ledger holds the wrong kind of value
	var clock uint64 = 1
	a := newTestAgent(t, &clock)
	wrong, err := accum.New(accum.KindScalar, accum.Scalar(0))
	require.NoError(t, err)
	a.backlog = wrong

	// WHEN it defers production while dormant
	b := uint32(10)
	stepAll(a, &b)

	// THEN the failure is counted and reported by the invariant check
	assert.Equal(t, uint64(1), a.Faults())
	assert.Error(t, a.CheckInvariants())
}

func TestHashPayload_ShortBufferWritesNothing(t *testing.T) {
	var clock uint64
	a := newTestAgent(t, &clock)
	var h bytes.Buffer

	err := hashPayload(&h, a, make([]byte, agentPayloadSize-1))

	assert.ErrorIs(t, err, sim.ErrCapacity)
	assert.Zero(t, h.Len())

	require.NoError(t, hashPayload(&h, a, make([]byte, agentPayloadSize)))
	assert.Equal(t, agentPayloadSize, h.Len())
}
