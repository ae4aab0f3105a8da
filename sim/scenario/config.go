package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tickforge/lodsim/sim"
	"github.com/tickforge/lodsim/sim/planner"
)

// Config describes a reference scenario, loadable from a YAML file.
// Fields absent from the file keep their DefaultConfig values.
type Config struct {
	Seed       int64            `yaml:"seed"`
	Ticks      int              `yaml:"ticks"`
	Population PopulationConfig `yaml:"population"`
	Players    PlayerConfig     `yaml:"players"`
	Hazards    HazardConfig     `yaml:"hazards"`
	Planner    PlannerConfig    `yaml:"planner"`
	Budget     BudgetConfig     `yaml:"budget"`
}

// PopulationConfig lays chunks out in a row along X. Chunk c covers
// x in [c*ChunkSize, (c+1)*ChunkSize) and z in [0, ChunkSize).
type PopulationConfig struct {
	Domains        int `yaml:"domains"`
	Chunks         int `yaml:"chunks"`
	AgentsPerChunk int `yaml:"agents_per_chunk"`
	ChunkSize      int `yaml:"chunk_size"` // world units
	MaxRate        int `yaml:"max_rate"`   // work produced per tick, drawn from [1, MaxRate]
	MaxSpeed       int `yaml:"max_speed"`  // quarter units per tick, drawn from [0, MaxSpeed]
}

// PlayerConfig places moving player regions.
type PlayerConfig struct {
	Count    int     `yaml:"count"`
	Radius   float64 `yaml:"radius"`
	MaxSpeed int     `yaml:"max_speed"` // quarter units per tick
}

// HazardConfig schedules temporary hazard regions at seeded places and times.
type HazardConfig struct {
	Count    int     `yaml:"count"`
	Radius   float64 `yaml:"radius"`
	Duration int     `yaml:"duration"` // ticks
}

// PlannerConfig holds the tier thresholds and transition costs.
type PlannerConfig struct {
	Thresholds      []float64 `yaml:"thresholds"`
	PromoteCost     uint32    `yaml:"promote_cost"`
	DemoteCost      uint32    `yaml:"demote_cost"`
	QueueCapacity   int       `yaml:"queue_capacity"`
	CheckInvariants bool      `yaml:"check_invariants"`
}

// BudgetConfig bounds the work done per tick.
type BudgetConfig struct {
	// PerScope and Total bound transition costs per (domain, chunk) and overall.
	// A Total of zero leaves only the per-scope allowance.
	PerScope uint64 `yaml:"per_scope"`
	Total    uint64 `yaml:"total"`
	// StepUnits is shared by every agent's Step in one tick.
	StepUnits uint32 `yaml:"step_units"`
	// CatchUpUnit and CatchUpCalls bound how much deferred work one agent
	// replays per tick once it runs live again.
	CatchUpUnit  int64 `yaml:"catch_up_unit"`
	CatchUpCalls int   `yaml:"catch_up_calls"`
}

// DefaultConfig returns a small scenario with enough pressure on every budget
// that transitions drain over several ticks.
func DefaultConfig() Config {
	return Config{
		Seed:  42,
		Ticks: 200,
		Population: PopulationConfig{
			Domains:        2,
			Chunks:         8,
			AgentsPerChunk: 24,
			ChunkSize:      32,
			MaxRate:        5,
			MaxSpeed:       2,
		},
		Players: PlayerConfig{Count: 2, Radius: 20, MaxSpeed: 3},
		Hazards: HazardConfig{Count: 6, Radius: 12, Duration: 40},
		Planner: PlannerConfig{
			Thresholds:      []float64{0.75, 0.40, 0.10},
			PromoteCost:     2,
			DemoteCost:      1,
			QueueCapacity:   1024,
			CheckInvariants: true,
		},
		Budget: BudgetConfig{
			PerScope:     12,
			Total:        64,
			StepUnits:    256,
			CatchUpUnit:  8,
			CatchUpCalls: 2,
		},
	}
}

// LoadConfig reads a YAML scenario over DefaultConfig and validates it.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing scenario config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scenario config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks counts and ranges. The planner config is validated as a
// whole so threshold ordering is reported the same way the planner would.
func (c *Config) Validate() error {
	if c.Ticks < 0 {
		return fmt.Errorf("%w: ticks must be >= 0, got %d", sim.ErrInvalidArgument, c.Ticks)
	}
	p := c.Population
	if p.Domains <= 0 || p.Chunks <= 0 || p.AgentsPerChunk <= 0 {
		return fmt.Errorf("%w: domains, chunks and agents_per_chunk must be > 0", sim.ErrInvalidArgument)
	}
	if p.ChunkSize <= 0 || p.ChunkSize > 1<<12 {
		return fmt.Errorf("%w: chunk_size must be in (0, 4096], got %d", sim.ErrInvalidArgument, p.ChunkSize)
	}
	if p.Chunks*p.ChunkSize > 1<<14 {
		return fmt.Errorf("%w: world too wide for Q16.16 coordinates (%d chunks of %d)",
			sim.ErrInvalidArgument, p.Chunks, p.ChunkSize)
	}
	if p.MaxRate <= 0 || p.MaxSpeed < 0 {
		return fmt.Errorf("%w: max_rate must be > 0 and max_speed >= 0", sim.ErrInvalidArgument)
	}
	if c.Players.Count < 0 || c.Players.Radius < 0 || c.Players.MaxSpeed < 0 {
		return fmt.Errorf("%w: players fields must be >= 0", sim.ErrInvalidArgument)
	}
	if c.Hazards.Count < 0 || c.Hazards.Radius < 0 || c.Hazards.Duration < 0 {
		return fmt.Errorf("%w: hazards fields must be >= 0", sim.ErrInvalidArgument)
	}
	if len(c.Planner.Thresholds) != 3 {
		return fmt.Errorf("%w: planner.thresholds needs 3 values, got %d", sim.ErrInvalidArgument, len(c.Planner.Thresholds))
	}
	if c.Budget.PerScope == 0 {
		return fmt.Errorf("%w: budget.per_scope must be > 0", sim.ErrInvalidArgument)
	}
	if c.Budget.CatchUpUnit < 0 || c.Budget.CatchUpCalls <= 0 {
		return fmt.Errorf("%w: budget.catch_up_unit must be >= 0 and catch_up_calls > 0", sim.ErrInvalidArgument)
	}
	// The drain never skips its head, so a budget that cannot cover the
	// costliest single transition would stall the queue forever.
	need := uint64(c.MaxTransitionCost())
	if c.Budget.PerScope < need {
		return fmt.Errorf("%w: budget.per_scope %d is below the costliest transition (%d)",
			sim.ErrInvalidArgument, c.Budget.PerScope, need)
	}
	if c.Budget.Total != 0 && c.Budget.Total < need {
		return fmt.Errorf("%w: budget.total %d is below the costliest transition (%d)",
			sim.ErrInvalidArgument, c.Budget.Total, need)
	}
	pc := c.PlannerConfig()
	return pc.Validate()
}

// MaxTransitionCost is the cost of crossing the whole ladder in the more
// expensive direction.
func (c *Config) MaxTransitionCost() uint32 {
	return max(
		planner.TransitionCost(sim.R3Dormant, sim.R0Full, c.Planner.PromoteCost, c.Planner.DemoteCost),
		planner.TransitionCost(sim.R0Full, sim.R3Dormant, c.Planner.PromoteCost, c.Planner.DemoteCost),
	)
}

// NumAgents returns the population size.
func (c *Config) NumAgents() int {
	return c.Population.Chunks * c.Population.AgentsPerChunk
}

// PlannerConfig converts the scenario's planner section. Scratch capacities
// are sized to the population so no pass is truncated by them.
func (c *Config) PlannerConfig() planner.Config {
	pc := planner.DefaultConfig()
	for i := 0; i < 3 && i < len(c.Planner.Thresholds); i++ {
		pc.Thresholds[i] = sim.FixedFromFloat(c.Planner.Thresholds[i])
	}
	pc.PromoteCostPerStep = c.Planner.PromoteCost
	pc.DemoteCostPerStep = c.Planner.DemoteCost
	pc.QueueCapacity = c.Planner.QueueCapacity
	pc.CheckInvariants = c.Planner.CheckInvariants
	pc.MaxChunks = c.Population.Chunks
	pc.MaxCandidates = c.NumAgents()
	pc.MaxTransitions = c.NumAgents()
	pc.MaxVolumes = c.Players.Count + c.Hazards.Count + 1
	return pc
}
