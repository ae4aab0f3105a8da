package sim

import "fmt"

// QuantumShift is log2 of the quantization grid, in raw Q16.16 units.
// Positions and interest regions snap to multiples of 1/256 world units.
const QuantumShift = 8

// quantumMask selects the bits cleared by Quantize.
const quantumMask = Fixed(1)<<QuantumShift - 1

// Vec3 is a fixed-point 3-vector.
type Vec3 struct {
	X, Y, Z Fixed
}

// V3 builds a Vec3 from whole-unit integer coordinates.
func V3(x, y, z int64) Vec3 {
	return Vec3{X: FixedFromInt(x), Y: FixedFromInt(y), Z: FixedFromInt(z)}
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%.4f, %.4f, %.4f)", v.X.Float(), v.Y.Float(), v.Z.Float())
}

// IsZero reports whether all components are zero.
func (v Vec3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// AddSat returns the component-wise saturating sum.
func (v Vec3) AddSat(o Vec3) Vec3 {
	return Vec3{X: AddSat(v.X, o.X), Y: AddSat(v.Y, o.Y), Z: AddSat(v.Z, o.Z)}
}

// SubSat returns the component-wise saturating difference.
func (v Vec3) SubSat(o Vec3) Vec3 {
	return Vec3{X: SubSat(v.X, o.X), Y: SubSat(v.Y, o.Y), Z: SubSat(v.Z, o.Z)}
}

// QuantizeFixed snaps a value down to the quantization grid (floor toward -inf).
func QuantizeFixed(f Fixed) Fixed {
	return f &^ quantumMask
}

// Quantize snaps every component to the quantization grid. It is idempotent,
// and is applied before any position or region is stored, compared or scored.
func Quantize(v Vec3) Vec3 {
	return Vec3{X: QuantizeFixed(v.X), Y: QuantizeFixed(v.Y), Z: QuantizeFixed(v.Z)}
}

// CompareVec3 orders vectors lexicographically by X, Y, Z.
func CompareVec3(a, b Vec3) int {
	if c := cmpOrdered(a.X, b.X); c != 0 {
		return c
	}
	if c := cmpOrdered(a.Y, b.Y); c != 0 {
		return c
	}
	return cmpOrdered(a.Z, b.Z)
}
