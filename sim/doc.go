// Package sim provides the core tick-driven simulation of the Kongo fleet:
// warehouses, trucks and the goods moved between them, plus the synthetic
// sensor readings every location emits each simulated hour.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - entity.go: Goods, Truck and Warehouse records and the category vocabulary
//   - world.go: World, the single owner of every location assignment
//   - movement.go: the unload, load and relocate phases of a tick
//   - simulator.go: the tick loop, snapshot publication and reading fan-out
//
// # Architecture
//
// The sim package defines the model and the Publisher bridge interface;
// collaborators live in sub-packages:
//   - sim/stream/: per-location reading queues, consumer lag and violation checkers
//   - sim/fleet/: seeded construction of a world from a Config
//   - sim/trace/: load-admission and relocation decision records
//
// # Determinism
//
// All randomness flows through PartitionedRNG. Each phase draws from its own
// subsystem stream and every iteration over entities is in sorted id order, so
// a seed fully determines the event and reading sequence.
package sim
