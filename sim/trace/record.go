// Package trace provides decision-trace recording for LOD scheduling analysis.
// The package has no dependencies on sim/ or its sub-packages; it stores plain data.
package trace

// PlanRecord captures a single planning pass.
type PlanRecord struct {
	Tick        uint64
	Refused     bool // a previous queue was still draining
	Volumes     int
	Chunks      int
	Candidates  int
	Transitions int
	Enqueued    int
	Truncated   bool // some scratch buffer overflowed during the pass
}

// ApplyOutcome describes what happened to one queued transition.
type ApplyOutcome string

const (
	OutcomeApplied       ApplyOutcome = "applied"
	OutcomeResolverMiss  ApplyOutcome = "resolver-miss"
	OutcomeSetStateError ApplyOutcome = "set-state-error"
)

// ApplyRecord captures a single drained transition.
type ApplyRecord struct {
	PlanTick uint64 // tick of the pass that produced the transition
	Domain   uint64
	Chunk    uint64
	Entity   uint64
	Sub      uint32
	Class    uint32
	From     uint8
	To       uint8
	Score    int32 // Q16.16
	Cost     uint32
	Outcome  ApplyOutcome
}
