package interest

import "sort"

// List is a bounded, reusable sequence of volumes. The planner rebuilds one
// every pass; its backing array is reserved once.
type List struct {
	volumes   []Volume
	truncated uint64
}

// NewList reserves room for capacity volumes.
func NewList(capacity int) *List {
	if capacity < 0 {
		capacity = 0
	}
	return &List{volumes: make([]Volume, 0, capacity)}
}

// Push normalizes v (quantized geometry, default weight) and appends it.
// Returns false, and counts a truncation, when the list is full.
func (l *List) Push(v Volume) bool {
	if len(l.volumes) == cap(l.volumes) {
		l.truncated++
		return false
	}
	l.volumes = append(l.volumes, v.normalize())
	return true
}

// Len returns the number of volumes.
func (l *List) Len() int { return len(l.volumes) }

// Cap returns the fixed capacity.
func (l *List) Cap() int { return cap(l.volumes) }

// Volumes returns the list contents. Callers MUST NOT modify the slice.
func (l *List) Volumes() []Volume { return l.volumes }

// Truncations returns how many pushes were refused since creation.
func (l *List) Truncations() uint64 { return l.truncated }

// Reset empties the list, keeping capacity and probe counts.
func (l *List) Reset() {
	clear(l.volumes)
	l.volumes = l.volumes[:0]
}

// Canonicalize sorts the volumes by the full composite key so that the order
// sources ran in has no effect on anything downstream.
func (l *List) Canonicalize() {
	sort.SliceStable(l.volumes, func(i, j int) bool {
		return compareVolumes(&l.volumes[i], &l.volumes[j]) < 0
	})
}
