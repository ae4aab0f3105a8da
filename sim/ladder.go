package sim

import (
	"fmt"
	"strings"
)

// RepresentationState is the tier an object currently simulates at.
// Lower values carry more detail: R0Full < R1Lite < R2Agg < R3Dormant.
type RepresentationState uint8

const (
	R0Full RepresentationState = iota
	R1Lite
	R2Agg
	R3Dormant

	// NumRepresentationStates is the number of tiers on the ladder.
	NumRepresentationStates = 4
)

var representationNames = [NumRepresentationStates]string{"R0_FULL", "R1_LITE", "R2_AGG", "R3_DORMANT"}

// IsValid checks the range only.
func (s RepresentationState) IsValid() bool {
	return s < NumRepresentationStates
}

func (s RepresentationState) String() string {
	if !s.IsValid() {
		return fmt.Sprintf("R?(%d)", uint8(s))
	}
	return representationNames[s]
}

// StepsBetween returns the number of ladder rungs separating a and b.
func StepsBetween(a, b RepresentationState) uint32 {
	if a > b {
		return uint32(a - b)
	}
	return uint32(b - a)
}

// IsPromotion reports whether moving from -> to increases detail.
func IsPromotion(from, to RepresentationState) bool {
	return to < from
}

// ParseRepresentationState accepts the canonical names ("R0_FULL") as well as
// the short forms "r0".."r3", case-insensitively.
func ParseRepresentationState(s string) (RepresentationState, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	for i, name := range representationNames {
		if norm == name || norm == name[:2] {
			return RepresentationState(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown representation state %q", ErrInvalidState, s)
}
