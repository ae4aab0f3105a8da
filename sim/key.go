package sim

import "fmt"

// DomainID identifies the simulation domain that owns an object.
type DomainID uint64

// ChunkID is the coarse spatial partition key bounding index and query scope.
type ChunkID uint64

// EntityID identifies an object within its domain.
type EntityID uint64

// ClassID groups objects that share planning and resolution rules.
type ClassID uint32

// AnyClass is the query wildcard. It is never a valid stored class.
const AnyClass ClassID = ^ClassID(0)

// ObjectKey uniquely identifies a simulated object. Keys are never reused
// ambiguously: a destroyed object's key may only return for the same object.
type ObjectKey struct {
	Domain DomainID
	Chunk  ChunkID
	Entity EntityID
	Sub    uint32
}

func (k ObjectKey) String() string {
	return fmt.Sprintf("%d/%d/%d.%d", k.Domain, k.Chunk, k.Entity, k.Sub)
}

// CompareKeys orders keys by (Domain, Chunk, Entity, Sub).
// This is the stable key order used for transition tie-breaking.
func CompareKeys(a, b ObjectKey) int {
	switch {
	case a.Domain != b.Domain:
		return cmpOrdered(a.Domain, b.Domain)
	case a.Chunk != b.Chunk:
		return cmpOrdered(a.Chunk, b.Chunk)
	case a.Entity != b.Entity:
		return cmpOrdered(a.Entity, b.Entity)
	default:
		return cmpOrdered(a.Sub, b.Sub)
	}
}

// ScopeKey addresses a budget scope. Independent chunks can be budgeted
// independently by callers that key their pools on it.
type ScopeKey struct {
	Domain DomainID
	Chunk  ChunkID
}

// ScopeOf returns the budget scope of an object key.
func ScopeOf(k ObjectKey) ScopeKey {
	return ScopeKey{Domain: k.Domain, Chunk: k.Chunk}
}

func cmpOrdered[T ~uint32 | ~uint64 | ~int32 | ~int64 | ~uint8](a, b T) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
