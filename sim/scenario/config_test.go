package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickforge/lodsim/sim"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 192, cfg.NumAgents())
}

func TestLoadConfig_OverridesOnlyGivenFields(t *testing.T) {
	path := writeYAML(t, `
seed: 7
ticks: 50
population:
  chunks: 3
planner:
  thresholds: [0.9, 0.5, 0.2]
  check_invariants: false
budget:
  per_scope: 8
`)

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, 50, cfg.Ticks)
	assert.Equal(t, 3, cfg.Population.Chunks)
	assert.Equal(t, DefaultConfig().Population.AgentsPerChunk, cfg.Population.AgentsPerChunk)
	assert.Equal(t, uint64(8), cfg.Budget.PerScope)
	assert.False(t, cfg.Planner.CheckInvariants)

	pc := cfg.PlannerConfig()
	assert.Equal(t, sim.FixedFromFloat(0.9), pc.Thresholds[0])
	assert.Equal(t, 3, pc.MaxChunks)
	assert.Equal(t, cfg.NumAgents(), pc.MaxCandidates)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed yaml", "seed: [1"},
		{"thresholds not descending", "planner:\n  thresholds: [0.1, 0.4, 0.75]\n"},
		{"too few thresholds", "planner:\n  thresholds: [0.5]\n"},
		{"zero chunks", "population:\n  chunks: 0\n"},
		{"zero scope budget", "budget:\n  per_scope: 0\n"},
		{"world too wide", "population:\n  chunks: 1000\n  chunk_size: 4096\n"},
		{"zero queue", "planner:\n  queue_capacity: 0\n"},
		{"scope budget below costliest transition", "budget:\n  per_scope: 4\n"},
		{"total budget below costliest transition", "budget:\n  total: 5\n"},
		{"demotions dearer than scope budget", "planner:\n  demote_cost: 5\nbudget:\n  per_scope: 12\n  total: 0\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeYAML(t, tc.body))
			assert.Error(t, err)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	// exactly the costliest transition is enough
	cfg, err := LoadConfig(writeYAML(t, "budget:\n  per_scope: 6\n  total: 6\n"))
	require.NoError(t, err)
	assert.Equal(t, uint32(6), cfg.MaxTransitionCost())
	_, err = LoadConfig(writeYAML(t, "budget:\n  per_scope: 5\n"))
	assert.ErrorIs(t, err, sim.ErrInvalidArgument)
}

func TestPartitionedRNG_IsolatedAndRepeatable(t *testing.T) {
	a := NewPartitionedRNG(42)
	b := NewPartitionedRNG(42)

	assert.Same(t, a.ForSubsystem(SubsystemPlayers), a.ForSubsystem(SubsystemPlayers))
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.ForSubsystem(SubsystemPopulation).Int63(), b.ForSubsystem(SubsystemPopulation).Int63())
	}
	assert.NotEqual(t,
		NewPartitionedRNG(42).ForSubsystem(SubsystemPlayers).Int63(),
		NewPartitionedRNG(42).ForSubsystem(SubsystemHazards).Int63())
	assert.Equal(t, int64(42), a.Seed())
}
