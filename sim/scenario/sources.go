package scenario

import (
	"math/rand"

	"github.com/tickforge/lodsim/sim"
	"github.com/tickforge/lodsim/sim/interest"
)

// Source priorities. Lower runs first.
const (
	priorityPlayers int32 = 0
	priorityHazards int32 = 10
)

// player is a moving region of interest that bounces off the world bounds.
type player struct {
	id  sim.EntityID
	pos sim.Vec3
	vel sim.Vec3
}

// playerSource emits one sphere per player and advances them once per tick.
type playerSource struct {
	players []player
	radius  sim.Fixed
	lo, hi  sim.Vec3
}

func newPlayerSource(cfg PlayerConfig, lo, hi sim.Vec3, rng *rand.Rand) *playerSource {
	s := &playerSource{radius: sim.FixedFromFloat(cfg.Radius), lo: lo, hi: hi}
	for i := 0; i < cfg.Count; i++ {
		s.players = append(s.players, player{
			id:  sim.EntityID(i + 1),
			pos: randomPoint(rng, lo, hi),
			vel: randomVelocity(rng, cfg.MaxSpeed),
		})
	}
	return s
}

func (s *playerSource) Emit(_ uint64, out *interest.List) {
	for _, p := range s.players {
		v := interest.SphereVolume(interest.Player, p.pos, s.radius, 0)
		v.Source = p.id
		out.Push(v)
	}
}

// advance moves every player one tick.
func (s *playerSource) advance() {
	for i := range s.players {
		p := &s.players[i]
		next := p.pos.AddSat(p.vel)
		next.X, p.vel.X = bounce(next.X, s.lo.X, s.hi.X, p.vel.X)
		next.Z, p.vel.Z = bounce(next.Z, s.lo.Z, s.hi.Z, p.vel.Z)
		p.pos = sim.Quantize(next)
	}
}

// hazard is a sphere active during [start, start+duration).
type hazard struct {
	id     sim.EntityID
	center sim.Vec3
	start  uint64
	end    uint64
}

type hazardSource struct {
	hazards []hazard
	radius  sim.Fixed
}

func newHazardSource(cfg HazardConfig, ticks int, lo, hi sim.Vec3, rng *rand.Rand) *hazardSource {
	s := &hazardSource{radius: sim.FixedFromFloat(cfg.Radius)}
	span := ticks
	if span <= 0 {
		span = 1
	}
	for i := 0; i < cfg.Count; i++ {
		start := uint64(rng.Intn(span)) + 1
		s.hazards = append(s.hazards, hazard{
			id:     sim.EntityID(i + 1),
			center: randomPoint(rng, lo, hi),
			start:  start,
			end:    start + uint64(cfg.Duration),
		})
	}
	return s
}

func (s *hazardSource) Emit(tick uint64, out *interest.List) {
	for _, h := range s.hazards {
		if tick < h.start || tick >= h.end {
			continue
		}
		v := interest.SphereVolume(interest.Hazard, h.center, s.radius, 0)
		v.Source = h.id
		out.Push(v)
	}
}

// randomPoint draws a whole-unit point on the y=0 plane inside [lo, hi).
func randomPoint(rng *rand.Rand, lo, hi sim.Vec3) sim.Vec3 {
	w := int64((hi.X - lo.X) >> sim.FixedShift)
	d := int64((hi.Z - lo.Z) >> sim.FixedShift)
	x := int64(lo.X>>sim.FixedShift) + rng.Int63n(max(w, 1))
	z := int64(lo.Z>>sim.FixedShift) + rng.Int63n(max(d, 1))
	return sim.V3(x, 0, z)
}

// randomVelocity draws X and Z components in [-maxSpeed, maxSpeed] quarter units.
func randomVelocity(rng *rand.Rand, maxSpeed int) sim.Vec3 {
	if maxSpeed <= 0 {
		return sim.Vec3{}
	}
	quarter := sim.FixedOne / 4
	vx := sim.Fixed(rng.Intn(2*maxSpeed+1)-maxSpeed) * quarter
	vz := sim.Fixed(rng.Intn(2*maxSpeed+1)-maxSpeed) * quarter
	return sim.Vec3{X: vx, Z: vz}
}
