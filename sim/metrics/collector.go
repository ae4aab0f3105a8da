// Package metrics exports scheduler probe counters as Prometheus metrics.
//
// The simulation loop is single-threaded and its components are not safe for
// concurrent use, so the exporter never reads them directly. The loop calls
// Observe with a Snapshot after each tick and scrapes read the last snapshot.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tickforge/lodsim/sim"
	"github.com/tickforge/lodsim/sim/interest"
	"github.com/tickforge/lodsim/sim/planner"
	"github.com/tickforge/lodsim/sim/spatial"
)

// Snapshot is a point-in-time copy of every probe.
type Snapshot struct {
	Tick uint64

	IndexLen      int
	IndexCap      int
	IndexProbes   spatial.Probes
	Sources       int
	SourceRefused uint64
	VolumesCut    uint64 // interest list truncations
	Phase         planner.Phase
	Pending       int
	Planner       planner.Probes
	States        [sim.NumRepresentationStates]int
}

// Capture copies the probes of the given components. model may be nil.
func Capture(tick uint64, ix *spatial.Index, model *interest.Model, p *planner.Planner) Snapshot {
	s := Snapshot{
		Tick:        tick,
		IndexLen:    ix.Len(),
		IndexCap:    ix.Cap(),
		IndexProbes: ix.Probes(),
		Phase:       p.Phase(),
		Pending:     p.Pending(),
		Planner:     p.Probes(),
		VolumesCut:  p.Volumes().Truncations(),
	}
	if model != nil {
		s.Sources = model.NumSources()
		s.SourceRefused = model.RegistryRefusals()
	}
	return s
}

// Collector implements prometheus.Collector over the most recent Snapshot.
type Collector struct {
	mu   sync.RWMutex
	snap Snapshot

	tick        *prometheus.Desc
	indexSize   *prometheus.Desc
	indexCap    *prometheus.Desc
	sources     *prometheus.Desc
	pending     *prometheus.Desc
	phase       *prometheus.Desc
	states      *prometheus.Desc
	refusals    *prometheus.Desc
	truncations *prometheus.Desc
	drain       *prometheus.Desc
}

// NewCollector creates a collector whose metric names start with namespace.
func NewCollector(namespace string) *Collector {
	name := func(n string) string { return prometheus.BuildFQName(namespace, "scheduler", n) }
	return &Collector{
		tick:        prometheus.NewDesc(name("tick"), "Tick of the last observed snapshot.", nil, nil),
		indexSize:   prometheus.NewDesc(name("index_entries"), "Entries held by the spatial index.", nil, nil),
		indexCap:    prometheus.NewDesc(name("index_capacity"), "Fixed capacity of the spatial index.", nil, nil),
		sources:     prometheus.NewDesc(name("interest_sources"), "Registered interest sources.", nil, nil),
		pending:     prometheus.NewDesc(name("queue_pending"), "Undrained transitions.", nil, nil),
		phase:       prometheus.NewDesc(name("planner_phase"), "1 for the planner's current phase.", []string{"phase"}, nil),
		states:      prometheus.NewDesc(name("objects"), "Objects per representation state.", []string{"state"}, nil),
		refusals:    prometheus.NewDesc(name("refusals_total"), "Inputs refused for lack of capacity.", []string{"stage"}, nil),
		truncations: prometheus.NewDesc(name("truncations_total"), "Passes cut short by a full buffer.", []string{"stage"}, nil),
		drain:       prometheus.NewDesc(name("drain_total"), "Drain outcomes.", []string{"outcome"}, nil),
	}
}

// Observe replaces the snapshot served to scrapes.
func (c *Collector) Observe(s Snapshot) {
	c.mu.Lock()
	c.snap = s
	c.mu.Unlock()
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.tick, c.indexSize, c.indexCap, c.sources, c.pending,
		c.phase, c.states, c.refusals, c.truncations, c.drain,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	s := c.snap
	c.mu.RUnlock()

	gauge := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, labels...)
	}
	counter := func(d *prometheus.Desc, v uint64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), labels...)
	}

	gauge(c.tick, float64(s.Tick))
	gauge(c.indexSize, float64(s.IndexLen))
	gauge(c.indexCap, float64(s.IndexCap))
	gauge(c.sources, float64(s.Sources))
	gauge(c.pending, float64(s.Pending))
	for _, ph := range []planner.Phase{planner.Idle, planner.Planned, planner.Draining} {
		v := 0.0
		if s.Phase == ph {
			v = 1
		}
		gauge(c.phase, v, ph.String())
	}
	for i, n := range s.States {
		gauge(c.states, float64(n), sim.RepresentationState(i).String())
	}

	counter(c.refusals, s.IndexProbes.AddRefusals, "index")
	counter(c.refusals, s.SourceRefused, "source")
	counter(c.refusals, s.Planner.QueueRefusals, "queue")
	counter(c.refusals, s.Planner.PlansRefused, "plan")

	counter(c.truncations, s.IndexProbes.QueryTruncations, "query")
	counter(c.truncations, s.Planner.ChunkTruncations, "chunks")
	counter(c.truncations, s.Planner.CandidateTruncations, "candidates")
	counter(c.truncations, s.Planner.TransitionTruncations, "transitions")
	counter(c.truncations, s.VolumesCut, "volumes")

	counter(c.drain, s.Planner.Applied, "applied")
	counter(c.drain, s.Planner.ResolverMisses, "resolver_miss")
	counter(c.drain, s.Planner.SetStateFailures, "set_state_error")
	counter(c.drain, s.Planner.InvariantFailures, "invariant_failure")
	counter(c.drain, s.Planner.BudgetStops, "budget_stop")
}
