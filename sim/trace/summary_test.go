package trace

import "testing"

func TestSummarize_EmptyTrace_ZeroValues(t *testing.T) {
	// GIVEN an empty trace
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})

	// WHEN summarized
	summary := Summarize(st)

	// THEN all counts are zero
	if summary.TotalPlans != 0 || summary.AppliedCount != 0 || summary.DroppedCount != 0 {
		t.Errorf("expected zero counts, got %+v", summary)
	}
	if len(summary.TargetDistribution) != 0 {
		t.Error("expected empty target distribution")
	}
}

func TestSummarize_NilTrace_ZeroValues(t *testing.T) {
	summary := Summarize(nil)
	if summary == nil || summary.TotalPlans != 0 {
		t.Fatalf("expected zero summary, got %+v", summary)
	}
}

func TestSummarize_PopulatedTrace_CorrectCounts(t *testing.T) {
	// GIVEN a trace with mixed plan and apply records
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})
	st.RecordPlan(PlanRecord{Tick: 1, Enqueued: 3})
	st.RecordPlan(PlanRecord{Tick: 2, Refused: true})
	st.RecordPlan(PlanRecord{Tick: 5, Enqueued: 1, Truncated: true})
	st.RecordApply(ApplyRecord{From: 3, To: 0, Cost: 6, Outcome: OutcomeApplied})
	st.RecordApply(ApplyRecord{From: 0, To: 2, Cost: 2, Outcome: OutcomeApplied})
	st.RecordApply(ApplyRecord{From: 3, To: 0, Cost: 6, Outcome: OutcomeResolverMiss})

	// WHEN summarized
	summary := Summarize(st)

	// THEN counts match
	if summary.TotalPlans != 3 || summary.RefusedPlans != 1 || summary.TruncatedPlans != 1 {
		t.Errorf("plan counts wrong: %+v", summary)
	}
	if summary.TotalEnqueued != 4 {
		t.Errorf("expected 4 enqueued, got %d", summary.TotalEnqueued)
	}
	if summary.AppliedCount != 2 || summary.DroppedCount != 1 {
		t.Errorf("expected 2 applied and 1 dropped, got %d and %d", summary.AppliedCount, summary.DroppedCount)
	}
	if summary.Promotions != 1 || summary.Demotions != 1 {
		t.Errorf("expected 1 promotion and 1 demotion, got %d and %d", summary.Promotions, summary.Demotions)
	}
	if summary.TotalCost != 8 {
		t.Errorf("expected total cost 8 (dropped transitions excluded), got %d", summary.TotalCost)
	}
	if summary.TargetDistribution[0] != 1 || summary.TargetDistribution[2] != 1 {
		t.Errorf("unexpected target distribution %v", summary.TargetDistribution)
	}
}
