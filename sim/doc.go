// Package sim provides the shared types of the level-of-detail scheduler.
//
// # Reading Guide
//
// Start with these files to understand the core vocabulary:
//   - fixed.go, position.go: Q16.16 arithmetic and quantized positions
//   - ladder.go: the representation ladder (R0_FULL → R1_LITE → R2_AGG → R3_DORMANT)
//   - representable.go: the capability every scheduled object implements
//
// # Architecture
//
// The sim package defines value types and interfaces; the machinery lives in
// sub-packages:
//   - sim/spatial/: bounded sorted index of object positions by chunk and class
//   - sim/interest/: interest sources, the canonical region list, and scoring
//   - sim/planner/: plan transitions, then drain them under a budget
//   - sim/budget/: Budget implementations (unlimited, pooled, per scope)
//   - sim/accum/: lossless ledger of deferred work
//   - sim/trace/: plan and drain decision records
//   - sim/metrics/: Prometheus export of probe counters
//   - sim/scenario/: reference world driving everything end to end
//
// # Determinism
//
// Every value on the scheduling path is an integer. Positions and regions are
// quantized before they are stored or compared, every buffer has a fixed
// capacity reserved up front, and every ordering is a strict total order over
// keys. The same inputs produce the same transitions in the same order,
// whatever order objects were registered in.
//
// # Key Interfaces
//
//   - Representable: tier get/set, budgeted stepping, opaque serialization, invariants
//   - Resolver: key → live Representable
//   - Budget: atomic per-scope TryConsume
package sim
