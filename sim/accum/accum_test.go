package accum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickforge/lodsim/sim"
)

func TestNew_RejectsMismatchedUnit(t *testing.T) {
	_, err := New(KindScalar, Count(1))
	assert.ErrorIs(t, err, ErrKindMismatch)

	_, err = New(Kind(9), Value{Kind: Kind(9)})
	assert.ErrorIs(t, err, sim.ErrInvalidArgument)
}

func TestAdd_KindMismatch_LeavesOwedUnchanged(t *testing.T) {
	a, err := New(KindCount, Count(1))
	require.NoError(t, err)
	require.NoError(t, a.Add(Count(5), 1))

	err = a.Add(Scalar(sim.FixedOne), 2)

	assert.ErrorIs(t, err, ErrKindMismatch)
	assert.Equal(t, int64(5), a.Owed().Count)
	assert.Equal(t, uint64(1), a.LastAddTick())
}

func TestAdd_ScalarSaturates(t *testing.T) {
	a, err := New(KindScalar, Scalar(0))
	require.NoError(t, err)

	require.NoError(t, a.Add(Scalar(sim.FixedMax), 1))
	require.NoError(t, a.Add(Scalar(sim.FixedOne), 2))

	assert.Equal(t, sim.FixedMax, a.Owed().Scalar)
}

func TestApply_UnitClampsEachCallAndKeepsSign(t *testing.T) {
	// GIVEN owed (-5, 3, 0) and unit (2, 2, 2)
	a, err := New(KindVec3, Vector(sim.V3(2, 2, 2)))
	require.NoError(t, err)
	require.NoError(t, a.Add(Vector(sim.V3(-5, 3, 0)), 0))

	// WHEN applying with an ample budget
	var got []sim.Vec3
	budget := uint32(100)
	calls, err := a.Apply(func(d Value) { got = append(got, d.Vec) }, 10, &budget)

	// THEN deltas are clamped per component with the owed sign preserved
	require.NoError(t, err)
	want := []sim.Vec3{sim.V3(-2, 2, 0), sim.V3(-2, 1, 0), sim.V3(-1, 0, 0)}
	assert.Equal(t, want, got)
	assert.Equal(t, 3, calls)
	assert.Equal(t, uint32(97), budget)
	assert.True(t, a.Empty())
}

func TestApply_StopsOnBudgetAndMaxUnits(t *testing.T) {
	a, err := New(KindCount, Count(1))
	require.NoError(t, err)
	require.NoError(t, a.Add(Count(10), 0))

	budget := uint32(3)
	calls, err := a.Apply(func(Value) {}, 100, &budget)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, uint32(0), budget)
	assert.Equal(t, int64(7), a.Owed().Count)

	budget = 100
	calls, err = a.Apply(func(Value) {}, 2, &budget)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, int64(5), a.Owed().Count)
}

func TestApply_ZeroUnitDeliversEverythingInOneCall(t *testing.T) {
	// GIVEN an all-zero unit and plenty of budget and max units
	a, err := New(KindVec3, Vector(sim.Vec3{}))
	require.NoError(t, err)
	require.NoError(t, a.Add(Vector(sim.V3(4, -4, 9)), 3))

	var got []sim.Vec3
	budget := uint32(50)
	calls, err := a.Apply(func(d Value) { got = append(got, d.Vec) }, 50, &budget)

	// THEN exactly one call carries the entire owed value
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, []sim.Vec3{sim.V3(4, -4, 9)}, got)
	assert.Equal(t, uint32(49), budget)
	assert.True(t, a.Empty())
}

func TestApply_NilArguments(t *testing.T) {
	a, err := New(KindCount, Count(1))
	require.NoError(t, err)
	require.NoError(t, a.Add(Count(2), 0))

	budget := uint32(1)
	_, err = a.Apply(nil, 1, &budget)
	assert.ErrorIs(t, err, sim.ErrInvalidArgument)
	_, err = a.Apply(func(Value) {}, 1, nil)
	assert.ErrorIs(t, err, sim.ErrInvalidArgument)
	assert.Equal(t, int64(2), a.Owed().Count, "failed apply must not consume owed work")
}

func TestApply_EmptyOrZeroBudget_NoCalls(t *testing.T) {
	a, err := New(KindScalar, Scalar(sim.FixedOne))
	require.NoError(t, err)

	budget := uint32(5)
	calls, err := a.Apply(func(Value) { t.Fatal("callback on empty accumulator") }, 5, &budget)
	require.NoError(t, err)
	assert.Zero(t, calls)

	require.NoError(t, a.Add(Scalar(sim.FixedOne), 1))
	budget = 0
	calls, err = a.Apply(func(Value) { t.Fatal("callback with zero budget") }, 5, &budget)
	require.NoError(t, err)
	assert.Zero(t, calls)
}

// runSchedule adds n deltas of d, applying after every add with the given
// per-tick budget, then drains with an ample budget. Returns the delivered total.
func runSchedule(t *testing.T, unit, d Value, n int, perTick uint32, deferAll bool) (Value, *Accumulator) {
	t.Helper()
	a, err := New(d.Kind, unit)
	require.NoError(t, err)
	total := Zero(d.Kind)
	sink := func(delta Value) { total = total.add(delta) }
	for i := 0; i < n; i++ {
		require.NoError(t, a.Add(d, uint64(i)))
		if deferAll {
			continue
		}
		budget := perTick
		_, err := a.Apply(sink, int(perTick), &budget)
		require.NoError(t, err)
	}
	for !a.Empty() {
		budget := uint32(1 << 20)
		_, err := a.Apply(sink, 1<<20, &budget)
		require.NoError(t, err)
	}
	return total, a
}

func TestConservation_BurstVersusTrickle(t *testing.T) {
	cases := []struct {
		name  string
		unit  Value
		delta Value
	}{
		{"scalar unit", Scalar(sim.FixedFromFloat(0.25)), Scalar(sim.FixedFromFloat(1.5))},
		{"scalar zero unit", Scalar(0), Scalar(sim.FixedFromFloat(1.5))},
		{"vec3 unit", Vector(sim.V3(1, 1, 1)), Vector(sim.V3(3, -2, 1))},
		{"vec3 zero unit", Vector(sim.Vec3{}), Vector(sim.V3(3, -2, 1))},
		{"count unit", Count(2), Count(7)},
		{"count zero unit", Count(0), Count(7)},
	}
	const n = 40
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			burst, a1 := runSchedule(t, tc.unit, tc.delta, n, 0, true)
			trickle, a2 := runSchedule(t, tc.unit, tc.delta, n, 1, false)

			want := Zero(tc.delta.Kind)
			for i := 0; i < n; i++ {
				want = want.add(tc.delta)
			}
			assert.Equal(t, want, burst, "fully deferred schedule")
			assert.Equal(t, want, trickle, "trickled schedule")
			for _, a := range []*Accumulator{a1, a2} {
				added, delivered := a.Totals()
				assert.Equal(t, added, delivered.add(a.Owed()), "added == delivered + owed")
				assert.True(t, a.Empty())
			}
		})
	}
}

func TestClear_ResetsOwedAndTotals(t *testing.T) {
	a, err := New(KindCount, Count(1))
	require.NoError(t, err)
	require.NoError(t, a.Add(Count(3), 9))

	a.Clear()

	added, delivered := a.Totals()
	assert.True(t, a.Empty())
	assert.True(t, added.IsZero())
	assert.True(t, delivered.IsZero())
	assert.Zero(t, a.LastAddTick())
}
