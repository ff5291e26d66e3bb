// Package harness runs crate scenarios against the real engine on a
// simulated host.
//
// A scenario is a YAML file describing the crate catalog, the connected
// players and crate entities, a list of steps (open, give keys, spawn,
// quit, rejoin, destroy, advance ticks) and assertions over the final state and
// the recorded trace.
//
// Execution is deterministic: ticks are advanced explicitly (or by a
// wall-clock tick loop that yields the same trace), queue ids are
// sequential ("reveal-1", "reveal-2", ...), and reward draws come from the
// scenario's scripted random values. Every host call (messages, tips,
// titles, items, sounds, particles, spawns) and every stage run lands in
// one ordered trace, which is compared against a golden file.
//
// Each run journals into a fresh in-memory SQLite store by default; the merged
// history is part of the result and of the golden snapshot.
package harness
