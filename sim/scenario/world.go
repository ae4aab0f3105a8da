// Package scenario is a reference world that drives the scheduling core end
// to end: a seeded population of agents, moving players and timed hazards
// as interest sources, and a tick loop that plans, drains and steps.
package scenario

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/tickforge/lodsim/sim"
	"github.com/tickforge/lodsim/sim/budget"
	"github.com/tickforge/lodsim/sim/interest"
	"github.com/tickforge/lodsim/sim/metrics"
	"github.com/tickforge/lodsim/sim/planner"
	"github.com/tickforge/lodsim/sim/spatial"
	"github.com/tickforge/lodsim/sim/trace"
)

// Options carries per-run wiring that is not part of the scenario itself.
type Options struct {
	// ReversePopulation inserts agents into the index in reverse order.
	// Results must not change; verify runs use it to prove that.
	ReversePopulation bool
	Trace             *trace.SimulationTrace
	Collector         *metrics.Collector
}

// World owns every component of a run. Not safe for concurrent use.
type World struct {
	cfg   Config
	clock uint64
	rng   *PartitionedRNG

	index   *spatial.Index
	model   *interest.Model
	planner *planner.Planner
	budget  *budget.Scoped

	agents  []*Agent // key order
	byKey   map[sim.ObjectKey]*Agent
	players *playerSource
	hazards *hazardSource

	collector    *metrics.Collector
	digestFaults uint64
}

// NewWorld builds and populates a world. cfg is validated first.
func NewWorld(cfg Config, opts Options) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	index, err := spatial.NewIndex(cfg.NumAgents())
	if err != nil {
		return nil, err
	}
	model, err := interest.NewModel(2)
	if err != nil {
		return nil, err
	}
	scoped, err := budget.NewScoped(cfg.Budget.PerScope, cfg.Budget.Total)
	if err != nil {
		return nil, err
	}
	w := &World{
		cfg:       cfg,
		rng:       NewPartitionedRNG(cfg.Seed),
		index:     index,
		model:     model,
		budget:    scoped,
		byKey:     make(map[sim.ObjectKey]*Agent, cfg.NumAgents()),
		collector: opts.Collector,
	}

	pc := cfg.PlannerConfig()
	pc.Trace = opts.Trace
	w.planner, err = planner.New(index, model, sim.ResolverFunc(w.resolve), pc)
	if err != nil {
		return nil, err
	}

	if err := w.populate(opts.ReversePopulation); err != nil {
		return nil, err
	}

	lo, hi := w.bounds()
	w.players = newPlayerSource(cfg.Players, lo, hi, w.rng.ForSubsystem(SubsystemPlayers))
	w.hazards = newHazardSource(cfg.Hazards, cfg.Ticks, lo, hi, w.rng.ForSubsystem(SubsystemHazards))
	if err := model.Register(priorityPlayers, w.players); err != nil {
		return nil, err
	}
	if err := model.Register(priorityHazards, w.hazards); err != nil {
		return nil, err
	}

	logrus.Infof("scenario: seed=%d agents=%d chunks=%d players=%d hazards=%d",
		cfg.Seed, len(w.agents), cfg.Population.Chunks, cfg.Players.Count, cfg.Hazards.Count)
	return w, nil
}

// bounds returns the world's extent on the y=0 plane, hi exclusive.
func (w *World) bounds() (lo, hi sim.Vec3) {
	p := w.cfg.Population
	return sim.Vec3{}, sim.V3(int64(p.Chunks*p.ChunkSize), 0, int64(p.ChunkSize))
}

// populate draws every agent from the population stream in chunk/entity
// order, then inserts them into the index in forward or reverse order.
func (w *World) populate(reverse bool) error {
	p := w.cfg.Population
	rng := w.rng.ForSubsystem(SubsystemPopulation)
	size := int64(p.ChunkSize)
	for c := 0; c < p.Chunks; c++ {
		lo := sim.V3(int64(c)*size, 0, 0)
		hi := sim.V3(int64(c+1)*size, 0, size)
		for e := 0; e < p.AgentsPerChunk; e++ {
			key := sim.ObjectKey{
				Domain: sim.DomainID(c%p.Domains + 1),
				Chunk:  sim.ChunkID(c),
				Entity: sim.EntityID(e + 1),
			}
			class := ClassWorker
			if e%3 == 2 {
				class = ClassHauler
			}
			pos := randomPoint(rng, lo, hi)
			vel := randomVelocity(rng, p.MaxSpeed)
			rate := int64(rng.Intn(p.MaxRate) + 1)
			a, err := newAgent(key, class, pos, vel, lo, hi, rate, &w.clock, w.cfg.Budget)
			if err != nil {
				return err
			}
			w.agents = append(w.agents, a)
			w.byKey[key] = a
		}
	}
	sort.Slice(w.agents, func(i, j int) bool {
		return sim.CompareKeys(w.agents[i].key, w.agents[j].key) < 0
	})

	for i := range w.agents {
		a := w.agents[i]
		if reverse {
			a = w.agents[len(w.agents)-1-i]
		}
		if _, err := w.index.Add(a.key.Chunk, a.key, a.pos, a.class); err != nil {
			return fmt.Errorf("populate %v: %w", a.key, err)
		}
	}
	return nil
}

func (w *World) resolve(key sim.ObjectKey, class sim.ClassID) (sim.Representable, bool) {
	a, ok := w.byKey[key]
	if !ok || a.class != class {
		return nil, false
	}
	return a, true
}

// Tick advances the world by one tick: plan when idle, drain under the
// per-tick budget, step every agent through every phase, then re-index
// positions and move the players.
func (w *World) Tick() error {
	w.clock++
	tick := w.clock

	if w.planner.Pending() == 0 {
		if _, err := w.planner.PlanAndEnqueue(tick); err != nil && !errors.Is(err, planner.ErrAlreadyPending) {
			return fmt.Errorf("tick %d: %w", tick, err)
		}
	}
	w.budget.Reset(w.cfg.Budget.Total)
	applied, err := w.planner.ApplyUnderBudget(w.budget)
	if err != nil {
		return fmt.Errorf("tick %d: %w", tick, err)
	}

	stepBudget := w.cfg.Budget.StepUnits
	for _, phase := range []sim.Phase{sim.PhaseSense, sim.PhaseDecide, sim.PhaseAct, sim.PhaseCommit} {
		for _, a := range w.agents {
			a.Step(phase, &stepBudget)
		}
	}

	for _, a := range w.agents {
		if _, err := w.index.Add(a.key.Chunk, a.key, a.pos, a.class); err != nil {
			return fmt.Errorf("tick %d: reindex %v: %w", tick, a.key, err)
		}
	}
	w.players.advance()

	logrus.Debugf("[tick %07d] applied=%d pending=%d step budget left=%d",
		tick, applied, w.planner.Pending(), stepBudget)
	if w.collector != nil {
		w.collector.Observe(w.Probes())
	}
	return nil
}

// Run advances the world n ticks, stopping at the first error.
func (w *World) Run(n int) error {
	for i := 0; i < n; i++ {
		if err := w.Tick(); err != nil {
			return err
		}
	}
	return nil
}

// Clock returns the last completed tick.
func (w *World) Clock() uint64 { return w.clock }

// Config returns the scenario configuration.
func (w *World) Config() Config { return w.cfg }

// Agents returns every agent in key order. Callers MUST NOT modify the slice.
func (w *World) Agents() []*Agent { return w.agents }

// Agent returns the agent with the given key.
func (w *World) Agent(key sim.ObjectKey) (*Agent, bool) {
	a, ok := w.byKey[key]
	return a, ok
}

// Planner exposes the planner for inspection.
func (w *World) Planner() *planner.Planner { return w.planner }

// Index exposes the spatial index for inspection.
func (w *World) Index() *spatial.Index { return w.index }

// Probes captures the probes of every component and the tier census.
func (w *World) Probes() metrics.Snapshot {
	s := metrics.Capture(w.clock, w.index, w.model, w.planner)
	for _, a := range w.agents {
		s.States[a.state]++
	}
	return s
}

// Summary aggregates the world's agents.
type Summary struct {
	Tick     uint64
	States   [sim.NumRepresentationStates]int
	Output   int64 // work done live or replayed
	Backlog  int64 // work still deferred
	Pending  int
	Probes   planner.Probes
	Digest   string
	Agents   int
	Sources  int
	Refusals uint64
	Faults   uint64 // failed agent ledger operations
}

// Summary returns the aggregate state of the world.
func (w *World) Summary() Summary {
	s := Summary{
		Tick:     w.clock,
		Pending:  w.planner.Pending(),
		Probes:   w.planner.Probes(),
		Digest:   w.Digest(),
		Agents:   len(w.agents),
		Sources:  w.model.NumSources(),
		Refusals: w.index.Probes().AddRefusals,
	}
	for _, a := range w.agents {
		s.States[a.state]++
		s.Output += a.output
		s.Backlog += a.Backlog()
		s.Faults += a.faults
	}
	return s
}

// Digest returns a hex sha256 over the clock, the queue and every agent's key
// and serialized state in key order. Two worlds with equal digests are in
// identical states.
func (w *World) Digest() string {
	h := sha256.New()
	var tmp [8]byte
	writeU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(tmp[:], v)
		h.Write(tmp[:])
	}

	writeU64(w.clock)
	writeU64(uint64(w.planner.Pending()))
	for _, t := range w.planner.Queue().Remaining() {
		writeKey(writeU64, t.Key)
		writeU64(uint64(t.To))
	}

	buf := make([]byte, agentPayloadSize)
	for _, a := range w.agents {
		writeKey(writeU64, a.key)
		writeU64(uint64(a.class))
		if err := hashPayload(h, a, buf); err != nil {
			w.digestFaults++
			logrus.Warnf("[tick %07d] digest: %v", w.clock, err)
			writeU64(^uint64(0))
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// hashPayload serializes r into buf and writes the payload to h. On error
// nothing is written.
func hashPayload(h io.Writer, r sim.Representable, buf []byte) error {
	n, err := r.SerializeState(buf)
	if err != nil {
		return fmt.Errorf("serialize: %w", err)
	}
	if n < 0 || n > len(buf) {
		return fmt.Errorf("%w: serialized %d bytes into %d", sim.ErrCapacity, n, len(buf))
	}
	_, err = h.Write(buf[:n])
	return err
}

// DigestFaults returns the number of objects Digest could not serialize.
func (w *World) DigestFaults() uint64 { return w.digestFaults }

func writeKey(writeU64 func(uint64), k sim.ObjectKey) {
	writeU64(uint64(k.Domain))
	writeU64(uint64(k.Chunk))
	writeU64(uint64(k.Entity))
	writeU64(uint64(k.Sub))
}
