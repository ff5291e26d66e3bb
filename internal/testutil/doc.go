// Package testutil provides in-memory doubles for the engine's host
// collaborators: players, inventories, entities, a registry, an effects
// recorder, a placeholder-echoing localizer, an item table, a spawner and
// a scripted random source.
//
// The doubles record everything they are asked to do so tests can assert
// on the exact sequence of host calls.
package testutil
