// Package planner decides which representation tier every indexed object
// should run at and applies those decisions under a budget.
//
// A planning pass gathers candidates from the spatial index, scores them
// against the canonical interest list, and sorts the resulting transitions
// into one strict total order. The queue is then drained across as many
// ticks as the budget requires. Draining never skips an expensive transition
// to reach a cheaper one, and no new pass is accepted until the queue is empty,
// so two runs with the same inputs apply the same transitions in the same order.
//
// Life of a queue:
//
//	Idle --PlanAndEnqueue--> Planned --ApplyUnderBudget--> Draining --...--> Idle
package planner

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/tickforge/lodsim/sim"
	"github.com/tickforge/lodsim/sim/interest"
	"github.com/tickforge/lodsim/sim/spatial"
	"github.com/tickforge/lodsim/sim/trace"
)

// ErrAlreadyPending is returned by PlanAndEnqueue while the previous queue
// still has undrained transitions. Nothing is modified.
var ErrAlreadyPending = errors.New("transition queue still pending")

// Phase is the planner's position in its state machine.
type Phase uint8

const (
	Idle Phase = iota
	Planned
	Draining
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Planned:
		return "planned"
	case Draining:
		return "draining"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

// Probes counts refusals, truncations and drain outcomes since creation.
type Probes struct {
	PlansRefused          uint64
	ChunkTruncations      uint64
	CandidateTruncations  uint64
	TransitionTruncations uint64
	QueueRefusals         uint64 // transitions refused by the queue capacity
	PlanUnresolved        uint64 // candidates skipped at plan time for lack of a live object
	ResolverMisses        uint64 // transitions dropped at drain time
	SetStateFailures      uint64
	InvariantFailures     uint64
	BudgetStops           uint64
	Applied               uint64
}

// PlanStats describes one planning pass.
type PlanStats struct {
	Tick        uint64
	Volumes     int
	Chunks      int
	Candidates  int
	Transitions int // collected before the queue cap
	Enqueued    int
	Truncated   bool
}

// Planner owns the scratch buffers and the drain queue. It holds references
// to the index, interest model and resolver but does not own them.
// Not safe for concurrent use.
type Planner struct {
	index    *spatial.Index
	model    *interest.Model
	resolver sim.Resolver
	cfg      Config

	volumes    *interest.List
	chunks     []sim.ChunkID
	candidates []spatial.Entry
	scratch    []Transition

	queue    Queue
	phase    Phase
	planTick uint64
	probes   Probes
}

// New creates a planner. model may be nil, in which case every pass scores
// against an empty interest list.
func New(index *spatial.Index, model *interest.Model, resolver sim.Resolver, cfg Config) (*Planner, error) {
	if index == nil {
		return nil, fmt.Errorf("%w: nil spatial index", sim.ErrInvalidArgument)
	}
	if resolver == nil {
		return nil, fmt.Errorf("%w: nil resolver", sim.ErrInvalidArgument)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("planner config: %w", err)
	}
	return &Planner{
		index:      index,
		model:      model,
		resolver:   resolver,
		cfg:        cfg,
		volumes:    interest.NewList(cfg.MaxVolumes),
		chunks:     make([]sim.ChunkID, cfg.MaxChunks),
		candidates: make([]spatial.Entry, cfg.MaxCandidates),
		scratch:    make([]Transition, 0, cfg.MaxTransitions),
		queue:      newQueue(cfg.QueueCapacity),
	}, nil
}

// Phase returns the current state machine phase.
func (p *Planner) Phase() Phase { return p.phase }

// Pending returns the number of undrained transitions.
func (p *Planner) Pending() int { return p.queue.Pending() }

// Queue exposes the drain queue read-only.
func (p *Planner) Queue() *Queue { return &p.queue }

// Probes returns a copy of the probe counters.
func (p *Planner) Probes() Probes { return p.probes }

// Config returns the planner configuration.
func (p *Planner) Config() Config { return p.cfg }

// Volumes returns the interest list built by the most recent pass.
func (p *Planner) Volumes() *interest.List { return p.volumes }

// DesiredState maps a score onto the ladder with the planner's thresholds.
func (p *Planner) DesiredState(score sim.Fixed) sim.RepresentationState {
	return p.cfg.DesiredState(score)
}

// PlanAndEnqueue runs one planning pass for tick and queues its transitions.
// It returns ErrAlreadyPending, without touching any state, while the
// previous queue is still draining.
func (p *Planner) PlanAndEnqueue(tick uint64) (PlanStats, error) {
	stats := PlanStats{Tick: tick}
	if p.queue.Pending() > 0 {
		p.probes.PlansRefused++
		p.cfg.Trace.RecordPlan(trace.PlanRecord{Tick: tick, Refused: true})
		return stats, fmt.Errorf("plan at tick %d: %d transitions from tick %d undrained: %w",
			tick, p.queue.Pending(), p.planTick, ErrAlreadyPending)
	}

	// Interest regions, canonical order.
	if p.model != nil {
		p.model.Collect(tick, p.volumes)
	} else {
		p.volumes.Reset()
	}
	stats.Volumes = p.volumes.Len()

	// Candidates, chunk by chunk, already in index order.
	nChunks, truncated := p.index.CollectChunks(p.chunks)
	if truncated {
		p.probes.ChunkTruncations++
		stats.Truncated = true
		logrus.Warnf("[tick %07d] chunk scratch full (%d), later chunks not planned", tick, len(p.chunks))
	}
	stats.Chunks = nChunks
	nCand := 0
	for _, chunk := range p.chunks[:nChunks] {
		n, truncated := p.index.Query(chunk, sim.AnyClass, p.candidates[nCand:])
		nCand += n
		if truncated {
			p.probes.CandidateTruncations++
			stats.Truncated = true
			logrus.Warnf("[tick %07d] candidate scratch full (%d) at chunk %d, remaining candidates not planned",
				tick, len(p.candidates), chunk)
			break
		}
	}
	stats.Candidates = nCand

	// Score, map to a tier, keep only real changes.
	p.scratch = p.scratch[:0]
	for i := range p.candidates[:nCand] {
		e := &p.candidates[i]
		score := interest.Score(p.volumes, e.Pos)
		desired := p.cfg.DesiredState(score)
		rep, ok := p.resolver.Resolve(e.Key, e.Class)
		if !ok || sim.Validate(rep) != nil {
			p.probes.PlanUnresolved++
			continue
		}
		current := rep.State()
		if desired == current {
			continue
		}
		if len(p.scratch) == cap(p.scratch) {
			p.probes.TransitionTruncations++
			stats.Truncated = true
			logrus.Warnf("[tick %07d] transition scratch full (%d), remaining candidates not planned", tick, cap(p.scratch))
			break
		}
		p.scratch = append(p.scratch, Transition{
			Key:   e.Key,
			Class: e.Class,
			From:  current,
			To:    desired,
			Score: score,
			Cost:  TransitionCost(current, desired, p.cfg.PromoteCostPerStep, p.cfg.DemoteCostPerStep),
		})
	}
	stats.Transitions = len(p.scratch)

	SortTransitions(p.scratch)

	n := len(p.scratch)
	if n > p.queue.Cap() {
		p.probes.QueueRefusals += uint64(n - p.queue.Cap())
		stats.Truncated = true
		logrus.Warnf("[tick %07d] queue capacity %d refused %d transitions", tick, p.queue.Cap(), n-p.queue.Cap())
		n = p.queue.Cap()
	}
	p.queue.reset()
	p.queue.items = append(p.queue.items, p.scratch[:n]...)
	stats.Enqueued = n
	p.planTick = tick
	if n > 0 {
		p.phase = Planned
	} else {
		p.phase = Idle
	}

	logrus.Debugf("[tick %07d] planned: volumes=%d chunks=%d candidates=%d transitions=%d enqueued=%d",
		tick, stats.Volumes, stats.Chunks, stats.Candidates, stats.Transitions, stats.Enqueued)
	p.cfg.Trace.RecordPlan(trace.PlanRecord{
		Tick:        tick,
		Volumes:     stats.Volumes,
		Chunks:      stats.Chunks,
		Candidates:  stats.Candidates,
		Transitions: stats.Transitions,
		Enqueued:    stats.Enqueued,
		Truncated:   stats.Truncated,
	})
	return stats, nil
}

// ApplyUnderBudget drains queued transitions in order, charging each one's
// cost to its (domain, chunk) scope. It stops at the first transition the
// budget cannot cover and leaves it, and everything after it, for the next
// call. Returns the number of transitions applied by this call.
func (p *Planner) ApplyUnderBudget(b sim.Budget) (int, error) {
	if b == nil {
		return 0, fmt.Errorf("%w: nil budget", sim.ErrInvalidArgument)
	}
	applied := 0
	for p.queue.cursor < len(p.queue.items) {
		t := &p.queue.items[p.queue.cursor]
		if !b.TryConsume(sim.ScopeOf(t.Key), t.Cost) {
			p.probes.BudgetStops++
			logrus.Debugf("[tick %07d] budget exhausted at %v, deferring %d transitions",
				p.planTick, t.Key, p.queue.Pending())
			break
		}
		outcome := p.applyOne(t)
		p.cfg.Trace.RecordApply(applyRecord(p.planTick, t, outcome))
		if outcome == trace.OutcomeApplied {
			applied++
		}
		p.queue.cursor++
	}

	if p.queue.cursor == len(p.queue.items) {
		p.queue.reset()
		p.phase = Idle
	} else if p.queue.cursor > 0 {
		p.phase = Draining
	}
	return applied, nil
}

// applyOne resolves t's object and moves it to the target tier. A resolver
// miss drops only this transition; the object was likely destroyed after
// planning.
func (p *Planner) applyOne(t *Transition) trace.ApplyOutcome {
	rep, ok := p.resolver.Resolve(t.Key, t.Class)
	if !ok || sim.Validate(rep) != nil {
		p.probes.ResolverMisses++
		return trace.OutcomeResolverMiss
	}
	if err := rep.SetState(t.To); err != nil {
		p.probes.SetStateFailures++
		logrus.Warnf("[tick %07d] set state %v on %v: %v", p.planTick, t.To, t.Key, err)
		return trace.OutcomeSetStateError
	}
	if p.cfg.CheckInvariants {
		if err := rep.CheckInvariants(); err != nil {
			p.probes.InvariantFailures++
			logrus.Warnf("[tick %07d] invariants of %v after %v->%v: %v", p.planTick, t.Key, t.From, t.To, err)
		}
	}
	p.probes.Applied++
	return trace.OutcomeApplied
}

// Reset discards any queued transitions and returns to Idle. Used on
// structural reset of the owning simulation; probe counters survive.
func (p *Planner) Reset() {
	p.queue.reset()
	p.volumes.Reset()
	p.scratch = p.scratch[:0]
	p.phase = Idle
}

func applyRecord(planTick uint64, t *Transition, outcome trace.ApplyOutcome) trace.ApplyRecord {
	return trace.ApplyRecord{
		PlanTick: planTick,
		Domain:   uint64(t.Key.Domain),
		Chunk:    uint64(t.Key.Chunk),
		Entity:   uint64(t.Key.Entity),
		Sub:      t.Key.Sub,
		Class:    uint32(t.Class),
		From:     uint8(t.From),
		To:       uint8(t.To),
		Score:    int32(t.Score),
		Cost:     t.Cost,
		Outcome:  outcome,
	}
}
