// Package spatial implements the chunk-aligned candidate index the planner
// pulls objects from.
//
// The index is a fixed-capacity sorted array. Entries are ordered by
// (Chunk, Class, Key.Domain, Key.Entity, Key.Sub, Key.Chunk) so that a chunk,
// or a chunk and class, is always one contiguous run that binary search can
// find. The capacity is reserved up front and never grows; a full index
// refuses inserts and counts the refusal.
package spatial

import (
	"fmt"
	"sort"

	"github.com/tickforge/lodsim/sim"
)

// ErrIndexFull reports an insert refused because the index is at capacity.
var ErrIndexFull = fmt.Errorf("spatial index full: %w", sim.ErrCapacity)

// Entry is a single indexed object.
type Entry struct {
	Chunk sim.ChunkID
	Class sim.ClassID
	Key   sim.ObjectKey
	Pos   sim.Vec3 // quantized
}

// AddResult distinguishes a fresh insert from an in-place position update.
type AddResult uint8

const (
	Inserted AddResult = iota + 1
	Updated
)

func (r AddResult) String() string {
	switch r {
	case Inserted:
		return "inserted"
	case Updated:
		return "updated"
	default:
		return "refused"
	}
}

// RemoveResult distinguishes a removal from a no-op on an absent key.
type RemoveResult uint8

const (
	Removed RemoveResult = iota + 1
	NotFound
)

// Probes counts capacity refusals and truncations since creation.
type Probes struct {
	AddRefusals      uint64
	QueryTruncations uint64
	ChunkTruncations uint64
}

// Index is a sorted, bounded store of Entries. Not safe for concurrent use.
type Index struct {
	entries []Entry
	probes  Probes
}

// NewIndex reserves room for capacity entries.
func NewIndex(capacity int) (*Index, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: index capacity must be > 0, got %d", sim.ErrInvalidArgument, capacity)
	}
	return &Index{entries: make([]Entry, 0, capacity)}, nil
}

// Len returns the number of stored entries.
func (ix *Index) Len() int { return len(ix.entries) }

// Cap returns the fixed capacity.
func (ix *Index) Cap() int { return cap(ix.entries) }

// Probes returns a copy of the probe counters.
func (ix *Index) Probes() Probes { return ix.probes }

// Entries returns the index contents in sorted order. The returned slice is
// the index's internal storage; callers MUST NOT modify it.
func (ix *Index) Entries() []Entry { return ix.entries }

// compareEntry orders e against the tuple (chunk, class, key).
func compareEntry(e *Entry, chunk sim.ChunkID, class sim.ClassID, key sim.ObjectKey) int {
	switch {
	case e.Chunk != chunk:
		return cmp(e.Chunk, chunk)
	case e.Class != class:
		return cmp(e.Class, class)
	case e.Key.Domain != key.Domain:
		return cmp(e.Key.Domain, key.Domain)
	case e.Key.Entity != key.Entity:
		return cmp(e.Key.Entity, key.Entity)
	case e.Key.Sub != key.Sub:
		return cmp(e.Key.Sub, key.Sub)
	default:
		return cmp(e.Key.Chunk, key.Chunk)
	}
}

// search returns the first position whose entry is >= (chunk, class, key),
// and whether that entry is an exact match.
func (ix *Index) search(chunk sim.ChunkID, class sim.ClassID, key sim.ObjectKey) (int, bool) {
	i := sort.Search(len(ix.entries), func(i int) bool {
		return compareEntry(&ix.entries[i], chunk, class, key) >= 0
	})
	return i, i < len(ix.entries) && compareEntry(&ix.entries[i], chunk, class, key) == 0
}

// Add indexes key in chunk under class. If the entry already exists only its
// position changes. A full index leaves the contents untouched and returns
// ErrIndexFull.
func (ix *Index) Add(chunk sim.ChunkID, key sim.ObjectKey, pos sim.Vec3, class sim.ClassID) (AddResult, error) {
	if class == sim.AnyClass {
		return 0, fmt.Errorf("%w: class %d is reserved for queries", sim.ErrInvalidArgument, class)
	}
	q := sim.Quantize(pos)
	i, found := ix.search(chunk, class, key)
	if found {
		ix.entries[i].Pos = q
		return Updated, nil
	}
	if len(ix.entries) == cap(ix.entries) {
		ix.probes.AddRefusals++
		return 0, ErrIndexFull
	}
	ix.entries = append(ix.entries, Entry{})
	copy(ix.entries[i+1:], ix.entries[i:])
	ix.entries[i] = Entry{Chunk: chunk, Class: class, Key: key, Pos: q}
	return Inserted, nil
}

// Remove deletes the entry if present, preserving order. Removing an absent
// entry is a successful no-op reported as NotFound.
func (ix *Index) Remove(chunk sim.ChunkID, key sim.ObjectKey, class sim.ClassID) RemoveResult {
	i, found := ix.search(chunk, class, key)
	if !found {
		return NotFound
	}
	copy(ix.entries[i:], ix.entries[i+1:])
	ix.entries[len(ix.entries)-1] = Entry{}
	ix.entries = ix.entries[:len(ix.entries)-1]
	return Removed
}

// Lookup returns the entry for (chunk, key, class).
func (ix *Index) Lookup(chunk sim.ChunkID, key sim.ObjectKey, class sim.ClassID) (Entry, bool) {
	i, found := ix.search(chunk, class, key)
	if !found {
		return Entry{}, false
	}
	return ix.entries[i], true
}

// Query copies the entries of chunk (restricted to class unless class is
// sim.AnyClass) into dst, in index order. It copies at most len(dst) entries;
// if more matched, truncated is true and the truncation is counted.
func (ix *Index) Query(chunk sim.ChunkID, class sim.ClassID, dst []Entry) (n int, truncated bool) {
	var start int
	if class == sim.AnyClass {
		start = sort.Search(len(ix.entries), func(i int) bool {
			return ix.entries[i].Chunk >= chunk
		})
	} else {
		start = sort.Search(len(ix.entries), func(i int) bool {
			e := &ix.entries[i]
			if e.Chunk != chunk {
				return e.Chunk > chunk
			}
			return e.Class >= class
		})
	}
	for i := start; i < len(ix.entries); i++ {
		e := &ix.entries[i]
		if e.Chunk != chunk || (class != sim.AnyClass && e.Class != class) {
			break
		}
		if n == len(dst) {
			ix.probes.QueryTruncations++
			return n, true
		}
		dst[n] = *e
		n++
	}
	return n, false
}

// CollectChunks writes the distinct chunk ids present, ascending, into dst.
// Overflow is reported and counted as a truncation.
func (ix *Index) CollectChunks(dst []sim.ChunkID) (n int, truncated bool) {
	for i := range ix.entries {
		c := ix.entries[i].Chunk
		if n > 0 && dst[n-1] == c {
			continue
		}
		if n == len(dst) {
			ix.probes.ChunkTruncations++
			return n, true
		}
		dst[n] = c
		n++
	}
	return n, false
}

// Clear drops every entry, keeping the reserved capacity. Probe counters survive.
func (ix *Index) Clear() {
	clear(ix.entries)
	ix.entries = ix.entries[:0]
}

// Move relocates key from one chunk to another, keeping class. If the target
// insert would be refused the source entry is left in place.
func (ix *Index) Move(from, to sim.ChunkID, key sim.ObjectKey, pos sim.Vec3, class sim.ClassID) (AddResult, error) {
	if from == to {
		return ix.Add(to, key, pos, class)
	}
	_, targetExists := ix.search(to, class, key)
	_, sourceExists := ix.search(from, class, key)
	if !targetExists && !sourceExists && len(ix.entries) == cap(ix.entries) {
		ix.probes.AddRefusals++
		return 0, ErrIndexFull
	}
	ix.Remove(from, key, class)
	return ix.Add(to, key, pos, class)
}

func cmp[T ~uint32 | ~uint64](a, b T) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
