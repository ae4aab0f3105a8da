package interest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickforge/lodsim/sim"
)

func TestQuantize_Idempotent(t *testing.T) {
	points := []sim.Vec3{
		{X: 1, Y: -1, Z: 255},
		{X: sim.FixedMax, Y: sim.FixedMin, Z: 0},
		{X: sim.FixedFromFloat(3.14159), Y: sim.FixedFromFloat(-2.71828), Z: sim.FixedFromFloat(0.001)},
	}
	for _, p := range points {
		q := sim.Quantize(p)
		assert.Equal(t, q, sim.Quantize(q), "quantize(quantize(%v))", p)
	}
}

func TestList_PushAppliesDefaultWeightsAndQuantizes(t *testing.T) {
	l := NewList(4)
	require.True(t, l.Push(SphereVolume(Hazard, sim.Vec3{X: sim.FixedOne + 3}, sim.FixedOne+0x80, 0)))
	require.True(t, l.Push(SphereVolume(Player, sim.Vec3{}, sim.FixedOne, sim.FixedHalf)))

	v := l.Volumes()
	assert.Equal(t, DefaultHazardWeight, v[0].Weight)
	assert.Equal(t, sim.Vec3{X: sim.FixedOne}, v[0].Center)
	assert.Equal(t, sim.FixedOne, v[0].Radius)
	assert.Equal(t, sim.FixedHalf, v[1].Weight, "explicit weights are kept")
}

func TestDefaultWeights_DistinctPerType(t *testing.T) {
	seen := map[sim.Fixed]VolumeType{}
	for _, vt := range []VolumeType{Player, Command, Hazard, Logistics} {
		w := DefaultWeight(vt)
		assert.NotZero(t, w)
		if prev, dup := seen[w]; dup {
			t.Errorf("types %v and %v share default weight %v", prev, vt, w)
		}
		seen[w] = vt
	}
}

func TestList_FullIsCountedTruncation(t *testing.T) {
	l := NewList(1)
	assert.True(t, l.Push(SphereVolume(Player, sim.Vec3{}, sim.FixedOne, 0)))
	assert.False(t, l.Push(SphereVolume(Player, sim.Vec3{}, sim.FixedOne, 0)))
	assert.Equal(t, 1, l.Len())
	assert.Equal(t, uint64(1), l.Truncations())
}

func TestModel_SourcesRunByPriorityThenInsertion(t *testing.T) {
	m, err := NewModel(8)
	require.NoError(t, err)

	var order []string
	mk := func(name string) Source {
		return SourceFunc(func(uint64, *List) { order = append(order, name) })
	}
	require.NoError(t, m.Register(5, mk("a")))
	require.NoError(t, m.Register(1, mk("b")))
	require.NoError(t, m.Register(5, mk("c")))
	require.NoError(t, m.Register(-3, mk("d")))

	m.Collect(0, NewList(0))

	assert.Equal(t, []string{"d", "b", "a", "c"}, order)
}

func TestModel_RegistryBounds(t *testing.T) {
	m, err := NewModel(1)
	require.NoError(t, err)
	noop := SourceFunc(func(uint64, *List) {})

	require.NoError(t, m.Register(0, noop))
	assert.ErrorIs(t, m.Register(0, noop), ErrRegistryFull)
	assert.ErrorIs(t, m.Register(0, nil), sim.ErrInvalidArgument)
	assert.Equal(t, uint64(1), m.RegistryRefusals())
	assert.Equal(t, 1, m.NumSources())

	_, err = NewModel(0)
	assert.ErrorIs(t, err, sim.ErrInvalidArgument)
}

func TestCollect_CanonicalRegardlessOfSourceOrder(t *testing.T) {
	vols := []Volume{
		SphereVolume(Hazard, sim.V3(4, 0, 0), sim.FixedFromInt(3), 0),
		BoxVolume(Logistics, sim.V3(0, 0, 0), sim.V3(1, 1, 1), 0),
		SphereVolume(Player, sim.V3(9, 9, 9), sim.FixedFromInt(2), 0),
		SphereVolume(Player, sim.V3(1, 9, 9), sim.FixedFromInt(2), 0),
	}
	build := func(reverse bool) *List {
		m, err := NewModel(len(vols))
		require.NoError(t, err)
		for i := range vols {
			v := vols[i]
			if reverse {
				v = vols[len(vols)-1-i]
			}
			require.NoError(t, m.Register(0, SourceFunc(func(_ uint64, out *List) { out.Push(v) })))
		}
		l := NewList(8)
		m.Collect(1, l)
		return l
	}

	fwd, rev := build(false), build(true)

	assert.Equal(t, fwd.Volumes(), rev.Volumes())
	assert.Equal(t, Player, fwd.Volumes()[0].Type)
	assert.Equal(t, sim.V3(1, 9, 9), fwd.Volumes()[0].Center)
}

func TestCollect_NoSourcesYieldsEmptyList(t *testing.T) {
	m, err := NewModel(2)
	require.NoError(t, err)
	l := NewList(2)
	l.Push(SphereVolume(Player, sim.Vec3{}, sim.FixedOne, 0))

	m.Collect(3, l)

	assert.Zero(t, l.Len())
}

func TestScore_SphereTwoTierFalloff(t *testing.T) {
	// GIVEN a sphere of radius 8 and weight 1.0 at the origin
	l := NewList(1)
	l.Push(SphereVolume(Player, sim.Vec3{}, sim.FixedFromInt(8), sim.FixedOne))

	// THEN the center scores full weight, the ring between r/2 and r scores
	// half weight, and beyond r scores nothing
	assert.Equal(t, sim.FixedOne, Score(l, sim.Vec3{}))
	assert.Equal(t, sim.FixedOne, Score(l, sim.V3(4, 0, 0)), "exactly r/2 is inside the full tier")
	assert.Equal(t, sim.FixedHalf, Score(l, sim.V3(0, 6, 0)))
	assert.Equal(t, sim.FixedHalf, Score(l, sim.V3(0, 0, -8)), "exactly r is inside the half tier")
	assert.Equal(t, sim.Fixed(0), Score(l, sim.V3(9, 0, 0)))
	assert.Equal(t, sim.Fixed(0), Score(l, sim.V3(6, 6, 0)))
}

func TestScore_BoxAndSum(t *testing.T) {
	l := NewList(4)
	l.Push(BoxVolume(Command, sim.V3(0, 0, 0), sim.V3(2, 2, 2), sim.FixedOne))
	l.Push(SphereVolume(Player, sim.V3(0, 0, 0), sim.FixedFromInt(10), sim.FixedOne))

	assert.Equal(t, 2*sim.FixedOne, Score(l, sim.V3(2, -2, 2)))
	assert.Equal(t, sim.FixedHalf, Score(l, sim.V3(7, 0, 0)), "outside the box, in the sphere's outer ring")
	assert.True(t, Contains(l.Volumes()[0], sim.V3(-2, 2, 0)))
	assert.False(t, Contains(l.Volumes()[0], sim.V3(3, 0, 0)))
}

func TestScore_SaturatesToFixedRange(t *testing.T) {
	l := NewList(4)
	for i := 0; i < 4; i++ {
		l.Push(SphereVolume(Player, sim.Vec3{}, sim.FixedOne, sim.FixedMax))
	}
	assert.Equal(t, sim.FixedMax, Score(l, sim.Vec3{}))
}

func TestContains_FarPointsDoNotOverflow(t *testing.T) {
	v := SphereVolume(Hazard, sim.Vec3{X: sim.FixedMin, Y: sim.FixedMin, Z: sim.FixedMin}, sim.FixedMax, 0)
	far := sim.Vec3{X: sim.FixedMax, Y: sim.FixedMax, Z: sim.FixedMax}
	assert.False(t, Contains(v, far))
	assert.True(t, Contains(v, v.Center))
}
