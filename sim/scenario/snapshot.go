package scenario

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/tickforge/lodsim/sim"
)

// SnapshotVersion is bumped whenever SnapshotV1's layout changes.
const SnapshotVersion = 1

// SnapshotV1 is a point-in-time record of a world, for offline inspection and
// for comparing runs. Coordinates are raw Q16.16 values.
type SnapshotV1 struct {
	Version int             `json:"version"`
	RunID   string          `json:"run_id,omitempty"`
	Seed    int64           `json:"seed"`
	Tick    uint64          `json:"tick"`
	Digest  string          `json:"digest"`
	Pending int             `json:"pending"`
	Agents  []AgentSnapshot `json:"agents"`
}

// AgentSnapshot is one agent's entry in a snapshot.
type AgentSnapshot struct {
	Domain  uint64   `json:"domain"`
	Chunk   uint64   `json:"chunk"`
	Entity  uint64   `json:"entity"`
	Sub     uint32   `json:"sub"`
	Class   uint32   `json:"class"`
	State   string   `json:"state"`
	Pos     [3]int32 `json:"pos"`
	Output  int64    `json:"output"`
	Backlog int64    `json:"backlog"`
}

// Key rebuilds the agent's object key.
func (a AgentSnapshot) Key() sim.ObjectKey {
	return sim.ObjectKey{Domain: sim.DomainID(a.Domain), Chunk: sim.ChunkID(a.Chunk), Entity: sim.EntityID(a.Entity), Sub: a.Sub}
}

// Capture records the world's current state.
func (w *World) Capture(runID string) SnapshotV1 {
	snap := SnapshotV1{
		Version: SnapshotVersion,
		RunID:   runID,
		Seed:    w.cfg.Seed,
		Tick:    w.clock,
		Digest:  w.Digest(),
		Pending: w.planner.Pending(),
		Agents:  make([]AgentSnapshot, 0, len(w.agents)),
	}
	for _, a := range w.agents {
		snap.Agents = append(snap.Agents, AgentSnapshot{
			Domain:  uint64(a.key.Domain),
			Chunk:   uint64(a.key.Chunk),
			Entity:  uint64(a.key.Entity),
			Sub:     a.key.Sub,
			Class:   uint32(a.class),
			State:   a.state.String(),
			Pos:     [3]int32{int32(a.pos.X), int32(a.pos.Y), int32(a.pos.Z)},
			Output:  a.output,
			Backlog: a.Backlog(),
		})
	}
	return snap
}

// WriteSnapshot writes snap as zstd-compressed JSON, creating parent
// directories as needed.
func WriteSnapshot(path string, snap SnapshotV1) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)
	if err := json.NewEncoder(bw).Encode(&snap); err != nil {
		enc.Close()
		return fmt.Errorf("json encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// ReadSnapshot reads a snapshot written by WriteSnapshot.
func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	if err := json.NewDecoder(bufio.NewReaderSize(dec, 256*1024)).Decode(&snap); err != nil {
		return snap, fmt.Errorf("json decode: %w", err)
	}
	if snap.Version != SnapshotVersion {
		return snap, fmt.Errorf("%w: snapshot version %d, want %d", sim.ErrInvalidArgument, snap.Version, SnapshotVersion)
	}
	return snap, nil
}
