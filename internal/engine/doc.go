// Package engine runs calculations against a compiled program.
//
// The engine is the run phase of the calculator: Build (package compiler)
// has already parsed every rule and proved the dependency graph acyclic, so
// a run only parses raw inputs and resolves values on demand.
//
// ARCHITECTURE:
//
// Demand-Driven Evaluation:
// Outputs are evaluated in name order. Each output asks the run's
// EvaluationContext for its value, which applies the variable's rule and
// recursively asks for every variable the rule references. Values are
// memoized, so every variable is computed at most once per run.
//
// Run Flow:
// 1. Raw inputs are trimmed, parsed by their schema and cached
// 2. Inter-field validators are evaluated
// 3. Every output is determined
// 4. Any logged error fails the whole run; outputs are all-or-nothing
//
// CONCURRENCY:
//
// An Engine is immutable after New. Every Calculate call owns a fresh
// EvaluationContext, so runs never share mutable state and need no locking.
//
// There is no cancellation: a run is a bounded, synchronous computation
// whose recursion depth is at most the number of variables.
package engine
