package planner

import (
	"fmt"
	"sort"

	"github.com/tickforge/lodsim/sim"
)

// Transition is one planned tier change.
type Transition struct {
	Key   sim.ObjectKey
	Class sim.ClassID
	From  sim.RepresentationState
	To    sim.RepresentationState
	Score sim.Fixed
	Cost  uint32
}

func (t Transition) String() string {
	return fmt.Sprintf("%v[%d] %v->%v score=%.4f cost=%d", t.Key, t.Class, t.From, t.To, t.Score.Float(), t.Cost)
}

// lessTransition is the strict total order transitions drain in: target tier
// ascending, then score descending, then key (Domain, Chunk, Entity, Sub,
// Class) ascending.
func lessTransition(a, b *Transition) bool {
	if a.To != b.To {
		return a.To < b.To
	}
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if c := sim.CompareKeys(a.Key, b.Key); c != 0 {
		return c < 0
	}
	return a.Class < b.Class
}

// SortTransitions orders ts in place. The sort is stable so equal elements
// keep their gathered order.
func SortTransitions(ts []Transition) {
	sort.SliceStable(ts, func(i, j int) bool {
		return lessTransition(&ts[i], &ts[j])
	})
}

// TransitionCost is the cost of moving between two tiers: the number of rungs
// crossed times the per-step cost for the direction of travel. It saturates
// at the uint32 range.
func TransitionCost(from, to sim.RepresentationState, promotePerStep, demotePerStep uint32) uint32 {
	per := demotePerStep
	if sim.IsPromotion(from, to) {
		per = promotePerStep
	}
	c := uint64(sim.StepsBetween(from, to)) * uint64(per)
	if c > uint64(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(c)
}

// Queue is a fixed-capacity ordered sequence of transitions with a drain cursor.
type Queue struct {
	items  []Transition
	cursor int
}

func newQueue(capacity int) Queue {
	return Queue{items: make([]Transition, 0, capacity)}
}

// Len returns the number of queued transitions, drained or not.
func (q *Queue) Len() int { return len(q.items) }

// Cap returns the queue capacity.
func (q *Queue) Cap() int { return cap(q.items) }

// Cursor returns the index of the next transition to drain.
func (q *Queue) Cursor() int { return q.cursor }

// Pending returns the number of undrained transitions.
func (q *Queue) Pending() int { return len(q.items) - q.cursor }

// Items returns every queued transition in drain order. The returned slice is
// the queue's internal storage; callers MUST NOT modify it.
func (q *Queue) Items() []Transition { return q.items }

// Remaining returns the undrained transitions. Same aliasing rules as Items.
func (q *Queue) Remaining() []Transition { return q.items[q.cursor:] }

func (q *Queue) reset() {
	clear(q.items)
	q.items = q.items[:0]
	q.cursor = 0
}
