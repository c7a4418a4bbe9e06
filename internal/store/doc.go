// Package store provides SQLite-backed durable storage for compiled
// dictionaries and the calculation run audit log.
//
// The store holds:
//   - Dictionaries: canonical JSON of every dictionary an engine was built
//     from, keyed by its content hash
//   - Runs: one record per Calculate call with its raw inputs, rendered
//     outputs and errors
//
// No engine state crosses runs through the store: runs are written after
// they complete and are never read back by the engine.
//
// # Critical Patterns
//
// Content Addressing:
//   - dictionaries.hash is ir.DictionaryHash of the dictionary
//   - Saving the same dictionary twice is a no-op
//
// Deterministic Query Results:
//   - Runs are listed by seq (insertion order), never by timestamp
//   - Dictionaries are listed by engine_id, then hash
//
// Canonical Payloads:
//   - JSON columns are written with ir.MarshalCanonical
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Every run references a stored dictionary
package store
