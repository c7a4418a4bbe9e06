// Package ir provides the foundational types of the calculation engine.
//
// This package contains the typed value model (Value, ValueType), the
// declarative Dictionary that describes an engine, its canonical JSON form
// and content hash, and the audit records written by the store. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Numbers are arbitrary-precision decimals, never float64
//   - Values are immutable once constructed
//   - Dictionary JSON tags use the camelCase names of the configuration format
//   - Map iteration is always done in sorted key order by consumers
package ir
