// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - StoreOpener: Opens a RecordStore for a configured database alias
//   - RecordStore: Relational source of truth, read through Querysets
//   - Queryset: Filterable, countable, paginated record reads
//   - SearchEngine: Index lifecycle, bulk writes and id scans
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
