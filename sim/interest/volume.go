package interest

import (
	"fmt"

	"github.com/tickforge/lodsim/sim"
)

// VolumeType is the category of an interest region.
type VolumeType uint8

const (
	Player VolumeType = iota + 1
	Command
	Hazard
	Logistics
)

func (t VolumeType) String() string {
	switch t {
	case Player:
		return "player"
	case Command:
		return "command"
	case Hazard:
		return "hazard"
	case Logistics:
		return "logistics"
	default:
		return fmt.Sprintf("type(%d)", uint8(t))
	}
}

// ParseVolumeType maps a config name to a VolumeType.
func ParseVolumeType(s string) (VolumeType, error) {
	for _, t := range []VolumeType{Player, Command, Hazard, Logistics} {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown interest type %q", sim.ErrInvalidArgument, s)
}

// Default weights applied when a volume is pushed with weight exactly zero.
const (
	DefaultPlayerWeight    = sim.FixedOne
	DefaultHazardWeight    = sim.FixedOne - sim.FixedOne/8  // 0.875
	DefaultCommandWeight   = sim.FixedHalf + sim.FixedOne/8 // 0.625
	DefaultLogisticsWeight = sim.FixedHalf - sim.FixedOne/8 // 0.375
)

// DefaultWeight returns the weight a zero-weight volume of type t receives.
// Unknown types have no default and stay at zero.
func DefaultWeight(t VolumeType) sim.Fixed {
	switch t {
	case Player:
		return DefaultPlayerWeight
	case Hazard:
		return DefaultHazardWeight
	case Command:
		return DefaultCommandWeight
	case Logistics:
		return DefaultLogisticsWeight
	default:
		return 0
	}
}

// Shape is the geometry of a volume.
type Shape uint8

const (
	Sphere Shape = iota + 1
	AABB
)

func (s Shape) String() string {
	switch s {
	case Sphere:
		return "sphere"
	case AABB:
		return "aabb"
	default:
		return fmt.Sprintf("shape(%d)", uint8(s))
	}
}

// Volume is a weighted region used to score candidate importance.
// Radius applies to spheres, HalfExtents to boxes.
type Volume struct {
	Type        VolumeType
	Shape       Shape
	Domain      sim.DomainID
	Source      sim.EntityID
	Center      sim.Vec3
	Radius      sim.Fixed
	HalfExtents sim.Vec3
	Weight      sim.Fixed
}

// SphereVolume is a convenience constructor.
func SphereVolume(t VolumeType, center sim.Vec3, radius, weight sim.Fixed) Volume {
	return Volume{Type: t, Shape: Sphere, Center: center, Radius: radius, Weight: weight}
}

// BoxVolume is a convenience constructor.
func BoxVolume(t VolumeType, center, halfExtents sim.Vec3, weight sim.Fixed) Volume {
	return Volume{Type: t, Shape: AABB, Center: center, HalfExtents: halfExtents, Weight: weight}
}

// normalize quantizes the geometry with the index quantum and fills in the
// default weight.
func (v Volume) normalize() Volume {
	v.Center = sim.Quantize(v.Center)
	v.Radius = sim.QuantizeFixed(v.Radius)
	v.HalfExtents = sim.Quantize(v.HalfExtents)
	if v.Weight == 0 {
		v.Weight = DefaultWeight(v.Type)
	}
	return v
}

// compareVolumes is the canonical order: type, shape, domain, source, center,
// radius, extents, weight.
func compareVolumes(a, b *Volume) int {
	switch {
	case a.Type != b.Type:
		return cmp(a.Type, b.Type)
	case a.Shape != b.Shape:
		return cmp(a.Shape, b.Shape)
	case a.Domain != b.Domain:
		return cmp(a.Domain, b.Domain)
	case a.Source != b.Source:
		return cmp(a.Source, b.Source)
	}
	if c := sim.CompareVec3(a.Center, b.Center); c != 0 {
		return c
	}
	if a.Radius != b.Radius {
		return cmp(a.Radius, b.Radius)
	}
	if c := sim.CompareVec3(a.HalfExtents, b.HalfExtents); c != 0 {
		return c
	}
	return cmp(a.Weight, b.Weight)
}

func cmp[T ~uint8 | ~uint64 | ~int32](a, b T) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
