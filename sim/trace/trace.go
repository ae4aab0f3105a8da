package trace

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelPlans captures one record per planning pass.
	TraceLevelPlans TraceLevel = "plans"
	// TraceLevelDecisions captures planning passes and every applied or dropped transition.
	TraceLevelDecisions TraceLevel = "decisions"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelPlans:     true,
	TraceLevelDecisions: true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
	RunID string // copied onto the trace so exported records can be correlated with logs
}

// SimulationTrace collects scheduling decision records during a run.
type SimulationTrace struct {
	Config  TraceConfig
	Plans   []PlanRecord
	Applies []ApplyRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:  config,
		Plans:   make([]PlanRecord, 0),
		Applies: make([]ApplyRecord, 0),
	}
}

// RecordPlan appends a planning pass record. No-op for nil traces or level none.
func (st *SimulationTrace) RecordPlan(record PlanRecord) {
	if st == nil || !st.wants(TraceLevelPlans) {
		return
	}
	st.Plans = append(st.Plans, record)
}

// RecordApply appends a drain decision record. Only kept at level decisions.
func (st *SimulationTrace) RecordApply(record ApplyRecord) {
	if st == nil || !st.wants(TraceLevelDecisions) {
		return
	}
	st.Applies = append(st.Applies, record)
}

func (st *SimulationTrace) wants(level TraceLevel) bool {
	switch st.Config.Level {
	case TraceLevelDecisions:
		return true
	case TraceLevelPlans:
		return level == TraceLevelPlans
	default:
		return false
	}
}
