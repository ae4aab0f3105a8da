package interest

import "github.com/tickforge/lodsim/sim"

// dist2 returns the squared distance between a and b in raw Q16.16 units
// squared, saturating instead of overflowing.
func dist2(a, b sim.Vec3) int64 {
	dx := int64(a.X) - int64(b.X)
	dy := int64(a.Y) - int64(b.Y)
	dz := int64(a.Z) - int64(b.Z)
	return sim.AddSat64(sim.AddSat64(sim.SquareSat64(dx), sim.SquareSat64(dy)), sim.SquareSat64(dz))
}

func absDelta(a, b sim.Fixed) int64 {
	d := int64(a) - int64(b)
	if d < 0 {
		return -d
	}
	return d
}

func withinBox(v *Volume, p sim.Vec3) bool {
	return absDelta(p.X, v.Center.X) <= int64(v.HalfExtents.X) &&
		absDelta(p.Y, v.Center.Y) <= int64(v.HalfExtents.Y) &&
		absDelta(p.Z, v.Center.Z) <= int64(v.HalfExtents.Z)
}

func withinRadius(center, p sim.Vec3, r sim.Fixed) bool {
	if r < 0 {
		return false
	}
	return dist2(center, p) <= sim.SquareSat64(int64(r))
}

// Contains reports whether p lies inside v. p is quantized first, the same
// way indexed positions are.
func Contains(v Volume, p sim.Vec3) bool {
	p = sim.Quantize(p)
	switch v.Shape {
	case Sphere:
		return withinRadius(v.Center, p, v.Radius)
	case AABB:
		return withinBox(&v, p)
	default:
		return false
	}
}

// contribution is the score a single volume adds for p.
//
// Spheres fall off in two steps: full weight inside half the radius, half
// weight inside the full radius, nothing beyond. Boxes give full weight when
// they contain p.
func contribution(v *Volume, p sim.Vec3) int64 {
	switch v.Shape {
	case Sphere:
		if withinRadius(v.Center, p, v.Radius>>1) {
			return int64(v.Weight)
		}
		if withinRadius(v.Center, p, v.Radius) {
			return int64(v.Weight >> 1)
		}
	case AABB:
		if withinBox(v, p) {
			return int64(v.Weight)
		}
	}
	return 0
}

// Score sums the contributions of every volume in l for position p. The sum
// saturates and is clamped to the Fixed range.
func Score(l *List, p sim.Vec3) sim.Fixed {
	p = sim.Quantize(p)
	var total int64
	for i := range l.volumes {
		total = sim.AddSat64(total, contribution(&l.volumes[i], p))
	}
	return sim.ClampFixed(total)
}
