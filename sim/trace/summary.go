package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalPlans         int
	RefusedPlans       int
	TruncatedPlans     int
	TotalEnqueued      int
	AppliedCount       int
	DroppedCount       int
	Promotions         int
	Demotions          int
	TotalCost          uint64
	TargetDistribution map[uint8]int // target tier → count of applied transitions
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		TargetDistribution: make(map[uint8]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalPlans = len(st.Plans)
	for _, p := range st.Plans {
		if p.Refused {
			summary.RefusedPlans++
		}
		if p.Truncated {
			summary.TruncatedPlans++
		}
		summary.TotalEnqueued += p.Enqueued
	}

	for _, a := range st.Applies {
		if a.Outcome != OutcomeApplied {
			summary.DroppedCount++
			continue
		}
		summary.AppliedCount++
		summary.TotalCost += uint64(a.Cost)
		summary.TargetDistribution[a.To]++
		if a.To < a.From {
			summary.Promotions++
		} else {
			summary.Demotions++
		}
	}

	return summary
}
