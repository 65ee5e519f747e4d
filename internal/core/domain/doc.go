// Package domain defines the core business entities for searchsync.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Action: The closed set of index and document operations
//   - Predicate: A parsed lookup=value filter with a coerced value
//   - Registry: The registration table of indices and their models
//   - Record / Batch: Rows read from the store and their windows
//   - ExecutionResult: Per-target success count and document errors
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
