package accum

import (
	"fmt"

	"github.com/tickforge/lodsim/sim"
)

// Kind selects the representation of an accumulated Value.
type Kind uint8

const (
	// KindScalar holds a Q16.16 scalar with saturating arithmetic.
	KindScalar Kind = iota + 1
	// KindVec3 holds a Q16.16 3-vector with per-component saturating arithmetic.
	KindVec3
	// KindCount holds an int64 count with wrapping arithmetic.
	KindCount
)

func (k Kind) IsValid() bool {
	return k >= KindScalar && k <= KindCount
}

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindVec3:
		return "vec3"
	case KindCount:
		return "count"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a tagged amount. Only the field matching Kind is meaningful.
type Value struct {
	Kind   Kind
	Scalar sim.Fixed
	Vec    sim.Vec3
	Count  int64
}

// Scalar wraps a fixed-point scalar.
func Scalar(f sim.Fixed) Value { return Value{Kind: KindScalar, Scalar: f} }

// Vector wraps a fixed-point 3-vector.
func Vector(v sim.Vec3) Value { return Value{Kind: KindVec3, Vec: v} }

// Count wraps an integer count.
func Count(n int64) Value { return Value{Kind: KindCount, Count: n} }

// Zero returns the zero value of a kind.
func Zero(k Kind) Value { return Value{Kind: k} }

// IsZero reports whether every component of the active field is zero.
func (v Value) IsZero() bool {
	switch v.Kind {
	case KindScalar:
		return v.Scalar == 0
	case KindVec3:
		return v.Vec.IsZero()
	case KindCount:
		return v.Count == 0
	default:
		return true
	}
}

func (v Value) String() string {
	switch v.Kind {
	case KindScalar:
		return fmt.Sprintf("%.4f", v.Scalar.Float())
	case KindVec3:
		return v.Vec.String()
	case KindCount:
		return fmt.Sprintf("%d", v.Count)
	default:
		return "<invalid>"
	}
}

func (v Value) add(o Value) Value {
	switch v.Kind {
	case KindScalar:
		v.Scalar = sim.AddSat(v.Scalar, o.Scalar)
	case KindVec3:
		v.Vec = v.Vec.AddSat(o.Vec)
	case KindCount:
		v.Count += o.Count
	}
	return v
}

func (v Value) sub(o Value) Value {
	switch v.Kind {
	case KindScalar:
		v.Scalar = sim.SubSat(v.Scalar, o.Scalar)
	case KindVec3:
		v.Vec = v.Vec.SubSat(o.Vec)
	case KindCount:
		v.Count -= o.Count
	}
	return v
}

// clampTo limits each component to the unit's absolute magnitude, keeping its sign.
func (v Value) clampTo(unit Value) Value {
	switch v.Kind {
	case KindScalar:
		v.Scalar = clampFixed(v.Scalar, unit.Scalar)
	case KindVec3:
		v.Vec = sim.Vec3{
			X: clampFixed(v.Vec.X, unit.Vec.X),
			Y: clampFixed(v.Vec.Y, unit.Vec.Y),
			Z: clampFixed(v.Vec.Z, unit.Vec.Z),
		}
	case KindCount:
		v.Count = clampCount(v.Count, unit.Count)
	}
	return v
}

func clampFixed(v, unit sim.Fixed) sim.Fixed {
	limit := sim.AbsFixed(unit)
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}

func clampCount(v, unit int64) int64 {
	limit := unit
	if limit < 0 {
		limit = -limit
		if limit < 0 { // MinInt64
			return v
		}
	}
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}
