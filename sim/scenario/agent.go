package scenario

import (
	"encoding/binary"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/tickforge/lodsim/sim"
	"github.com/tickforge/lodsim/sim/accum"
)

// Agent classes.
const (
	ClassWorker sim.ClassID = iota
	ClassHauler
)

// stepCost is the share of the tick's step budget an agent needs at each tier.
var stepCost = [sim.NumRepresentationStates]uint32{4, 2, 1, 0}

// agentPayloadSize is the length of Agent.SerializeState's output.
const agentPayloadSize = 1 + 3*4 + 8 + 8 + 3*4 + 3*4

// Agent is a worker that produces Rate units of output per tick and wanders
// inside its home chunk.
//
// Only R0 moves live and only R0 and R1 produce live. Everything skipped at a
// coarser tier, or for lack of step budget, is recorded in two ledgers and
// replayed once the agent runs live again: production in bounded slices,
// movement in one jump.
type Agent struct {
	key   sim.ObjectKey
	class sim.ClassID
	state sim.RepresentationState

	pos    sim.Vec3
	vel    sim.Vec3
	lo, hi sim.Vec3 // home chunk bounds, hi exclusive

	rate   int64
	output int64

	backlog *accum.Accumulator // count of deferred production
	drift   *accum.Accumulator // deferred displacement

	clock        *uint64
	catchUpCalls int
	faults       uint64 // ledger operations that failed
}

func newAgent(key sim.ObjectKey, class sim.ClassID, pos, vel, lo, hi sim.Vec3, rate int64,
	clock *uint64, budget BudgetConfig) (*Agent, error) {
	backlog, err := accum.New(accum.KindCount, accum.Count(budget.CatchUpUnit))
	if err != nil {
		return nil, err
	}
	drift, err := accum.New(accum.KindVec3, accum.Vector(sim.Vec3{}))
	if err != nil {
		return nil, err
	}
	return &Agent{
		key:          key,
		class:        class,
		state:        sim.R3Dormant,
		pos:          sim.Quantize(pos),
		vel:          vel,
		lo:           lo,
		hi:           hi,
		rate:         rate,
		backlog:      backlog,
		drift:        drift,
		clock:        clock,
		catchUpCalls: budget.CatchUpCalls,
	}, nil
}

func (a *Agent) Key() sim.ObjectKey     { return a.key }
func (a *Agent) Class() sim.ClassID     { return a.class }
func (a *Agent) Position() sim.Vec3     { return a.pos }
func (a *Agent) Output() int64          { return a.output }
func (a *Agent) Backlog() int64         { return a.backlog.Owed().Count }
func (a *Agent) PendingDrift() sim.Vec3 { return a.drift.Owed().Vec }

// Produced returns all work the agent has generated, live or deferred.
func (a *Agent) Produced() int64 { return a.output + a.backlog.Owed().Count }

func (a *Agent) State() sim.RepresentationState { return a.state }

func (a *Agent) SetState(s sim.RepresentationState) error {
	if !s.IsValid() {
		return fmt.Errorf("agent %v: %w: %v", a.key, sim.ErrInvalidState, s)
	}
	a.state = s
	return nil
}

// Step does all of its work in PhaseAct.
func (a *Agent) Step(phase sim.Phase, budget *uint32) {
	if phase != sim.PhaseAct || budget == nil {
		return
	}
	tick := *a.clock
	live := a.state
	if cost := stepCost[a.state]; *budget < cost {
		live = sim.R3Dormant
	} else {
		*budget -= cost
	}

	if live <= sim.R1Lite {
		a.output += a.rate
	} else {
		a.check(a.backlog.Add(accum.Count(a.rate), tick), "defer production")
	}
	if live == sim.R0Full {
		a.move(a.vel)
	} else {
		a.check(a.drift.Add(accum.Vector(a.vel), tick), "defer movement")
	}

	if live > sim.R1Lite {
		return
	}
	_, err := a.backlog.Apply(func(d accum.Value) { a.output += d.Count }, a.catchUpCalls, budget)
	a.check(err, "replay production")
	if live == sim.R0Full {
		_, err := a.drift.Apply(func(d accum.Value) { a.move(d.Vec) }, 1, budget)
		a.check(err, "replay movement")
	}
}

// check counts and logs a failed ledger operation. A fault means work was
// lost, which CheckInvariants then reports.
func (a *Agent) check(err error, op string) {
	if err == nil {
		return
	}
	a.faults++
	logrus.Warnf("[tick %07d] agent %v: %s: %v", *a.clock, a.key, op, err)
}

// Faults returns the number of failed ledger operations.
func (a *Agent) Faults() uint64 { return a.faults }

// move displaces the agent, clamping into its home chunk and reversing the
// velocity on any axis that hit a wall.
func (a *Agent) move(d sim.Vec3) {
	p := a.pos.AddSat(d)
	p.X, a.vel.X = bounce(p.X, a.lo.X, a.hi.X, a.vel.X)
	p.Y, a.vel.Y = bounce(p.Y, a.lo.Y, a.hi.Y, a.vel.Y)
	p.Z, a.vel.Z = bounce(p.Z, a.lo.Z, a.hi.Z, a.vel.Z)
	a.pos = sim.Quantize(p)
}

func bounce(v, lo, hi, vel sim.Fixed) (sim.Fixed, sim.Fixed) {
	last := hi - 1
	if last < lo {
		last = lo
	}
	switch {
	case v < lo:
		return lo, sim.AbsFixed(vel)
	case v > last:
		return last, -sim.AbsFixed(vel)
	}
	return v, vel
}

// SerializeState writes the tier, position, output, backlog and pending drift
// in little-endian order.
func (a *Agent) SerializeState(dst []byte) (int, error) {
	if len(dst) < agentPayloadSize {
		return 0, fmt.Errorf("%w: agent payload needs %d bytes, have %d", sim.ErrCapacity, agentPayloadSize, len(dst))
	}
	b := dst[:0]
	b = append(b, byte(a.state))
	b = appendVec(b, a.pos)
	b = binary.LittleEndian.AppendUint64(b, uint64(a.output))
	b = binary.LittleEndian.AppendUint64(b, uint64(a.backlog.Owed().Count))
	b = appendVec(b, a.drift.Owed().Vec)
	b = appendVec(b, a.vel)
	return len(b), nil
}

func appendVec(b []byte, v sim.Vec3) []byte {
	b = binary.LittleEndian.AppendUint32(b, uint32(v.X))
	b = binary.LittleEndian.AppendUint32(b, uint32(v.Y))
	return binary.LittleEndian.AppendUint32(b, uint32(v.Z))
}

// CheckInvariants verifies that no deferred work was lost and that the agent
// is inside its home chunk.
func (a *Agent) CheckInvariants() error {
	if a.faults > 0 {
		return fmt.Errorf("agent %v: %d ledger operations failed", a.key, a.faults)
	}
	added, delivered := a.backlog.Totals()
	if added.Count != delivered.Count+a.backlog.Owed().Count {
		return fmt.Errorf("agent %v: backlog added %d != delivered %d + owed %d",
			a.key, added.Count, delivered.Count, a.backlog.Owed().Count)
	}
	if a.Backlog() < 0 || a.output < 0 {
		return fmt.Errorf("agent %v: negative output %d or backlog %d", a.key, a.output, a.Backlog())
	}
	if a.pos.X < a.lo.X || a.pos.X >= a.hi.X || a.pos.Z < a.lo.Z || a.pos.Z >= a.hi.Z {
		return fmt.Errorf("agent %v: position %v outside home chunk", a.key, a.pos)
	}
	return nil
}
