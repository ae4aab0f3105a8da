// Fixed-point arithmetic shared by the index, the interest model and the accumulator.
// All positions, radii, weights and scores are Q16.16 values so that every
// comparison is integer-exact across platforms.

package sim

import "math"

// Fixed is a signed Q16.16 fixed-point number.
type Fixed int32

const (
	// FixedShift is the number of fractional bits in a Fixed.
	FixedShift = 16
	// FixedOne is 1.0 in Q16.16.
	FixedOne Fixed = 1 << FixedShift
	// FixedHalf is 0.5 in Q16.16.
	FixedHalf Fixed = FixedOne >> 1

	FixedMax Fixed = math.MaxInt32
	FixedMin Fixed = math.MinInt32
)

// FixedFromInt converts an integer to Q16.16, saturating out-of-range values.
func FixedFromInt(v int64) Fixed {
	// Anything beyond ±2^16 is already out of range; clamping first keeps the
	// shift from overflowing int64.
	const limit = int64(1) << (32 - FixedShift)
	v = min(max(v, -limit), limit)
	return ClampFixed(v << FixedShift)
}

// FixedFromFloat converts a float to Q16.16 by truncation toward zero.
// Only meant for configuration and tooling; the scheduling path never uses floats.
func FixedFromFloat(f float64) Fixed {
	v := f * float64(FixedOne)
	if v >= float64(FixedMax) {
		return FixedMax
	}
	if v <= float64(FixedMin) {
		return FixedMin
	}
	return Fixed(int32(v))
}

// Float returns the value as a float64, for display only.
func (f Fixed) Float() float64 {
	return float64(f) / float64(FixedOne)
}

// ClampFixed narrows a 64-bit raw Q16.16 value into the Fixed range.
func ClampFixed(v int64) Fixed {
	if v > int64(FixedMax) {
		return FixedMax
	}
	if v < int64(FixedMin) {
		return FixedMin
	}
	return Fixed(v)
}

// AddSat adds two Fixed values, saturating at the int32 bounds.
func AddSat(a, b Fixed) Fixed {
	return ClampFixed(int64(a) + int64(b))
}

// SubSat subtracts b from a, saturating at the int32 bounds.
func SubSat(a, b Fixed) Fixed {
	return ClampFixed(int64(a) - int64(b))
}

// AbsFixed returns |f|; the absolute value of FixedMin saturates to FixedMax.
func AbsFixed(f Fixed) Fixed {
	if f >= 0 {
		return f
	}
	if f == FixedMin {
		return FixedMax
	}
	return -f
}

// AddSat64 adds two int64 values, saturating instead of wrapping.
func AddSat64(a, b int64) int64 {
	s := a + b
	// Overflow iff both operands share a sign that the sum does not.
	if (a >= 0) == (b >= 0) && (s >= 0) != (a >= 0) {
		if a >= 0 {
			return math.MaxInt64
		}
		return math.MinInt64
	}
	return s
}

// MulSat64 multiplies two int64 values, saturating instead of wrapping.
func MulSat64(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	p := a * b
	if p/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		if (a < 0) != (b < 0) {
			return math.MinInt64
		}
		return math.MaxInt64
	}
	return p
}

// SquareSat64 returns v*v saturated to int64.
func SquareSat64(v int64) int64 {
	return MulSat64(v, v)
}
