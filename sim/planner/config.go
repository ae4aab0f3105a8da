package planner

import (
	"fmt"

	"github.com/tickforge/lodsim/sim"
	"github.com/tickforge/lodsim/sim/trace"
)

// Config groups planner thresholds, costs and scratch capacities.
// Every capacity is reserved at construction and never grows.
type Config struct {
	// Thresholds are the minimum scores for R0, R1 and R2, strictly descending.
	// Scores below Thresholds[2] map to R3.
	Thresholds [3]sim.Fixed

	PromoteCostPerStep uint32 // cost per rung when gaining detail
	DemoteCostPerStep  uint32 // cost per rung when shedding detail

	MaxVolumes     int // interest list capacity per pass
	MaxChunks      int // distinct chunks gathered per pass
	MaxCandidates  int // index entries gathered per pass
	MaxTransitions int // transitions collected per pass, before queueing
	QueueCapacity  int // transitions accepted into the drain queue

	// CheckInvariants runs Representable.CheckInvariants after each SetState.
	CheckInvariants bool

	// Trace receives plan and apply records when non-nil.
	Trace *trace.SimulationTrace
}

// DefaultConfig returns thresholds of 0.75 / 0.40 / 0.10, promotions costing
// twice as much per rung as demotions, and scratch room for 4096 candidates.
func DefaultConfig() Config {
	return Config{
		Thresholds:         [3]sim.Fixed{sim.FixedOne * 3 / 4, sim.FixedOne * 2 / 5, sim.FixedOne / 10},
		PromoteCostPerStep: 2,
		DemoteCostPerStep:  1,
		MaxVolumes:         256,
		MaxChunks:          1024,
		MaxCandidates:      4096,
		MaxTransitions:     4096,
		QueueCapacity:      4096,
	}
}

// Validate checks that thresholds are ordered and capacities are positive.
func (c *Config) Validate() error {
	t := c.Thresholds
	if !(t[0] > t[1] && t[1] > t[2]) {
		return fmt.Errorf("%w: thresholds must be strictly descending, got %v %v %v",
			sim.ErrInvalidArgument, t[0].Float(), t[1].Float(), t[2].Float())
	}
	caps := []struct {
		name string
		v    int
	}{
		{"max_volumes", c.MaxVolumes},
		{"max_chunks", c.MaxChunks},
		{"max_candidates", c.MaxCandidates},
		{"max_transitions", c.MaxTransitions},
		{"queue_capacity", c.QueueCapacity},
	}
	for _, cp := range caps {
		if cp.v <= 0 {
			return fmt.Errorf("%w: %s must be > 0, got %d", sim.ErrInvalidArgument, cp.name, cp.v)
		}
	}
	return nil
}

// DesiredState maps a score onto the ladder using the configured thresholds.
func (c *Config) DesiredState(score sim.Fixed) sim.RepresentationState {
	switch {
	case score >= c.Thresholds[0]:
		return sim.R0Full
	case score >= c.Thresholds[1]:
		return sim.R1Lite
	case score >= c.Thresholds[2]:
		return sim.R2Agg
	default:
		return sim.R3Dormant
	}
}
