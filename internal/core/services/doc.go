// Package services implements the core business logic of searchsync.
//
// Services implement the driving port interfaces and depend on driven
// port interfaces. They orchestrate the flow from the relational store
// to the search engine:
//
//   - Resolver: Validates index and object names against the registry
//   - querysetBuilder: Composes filters, excludes and the missing filter
//   - BatchEngine: Windows records into batches and submits them
//   - DocumentService: Plans, confirms and executes document commands
//   - IndexService: Lists, creates, deletes, rebuilds and updates indices
//
// # Import Rules
//
//   - Can Import: domain, ports/driven, ports/driving, logger
//   - Cannot Import: Any adapter package
package services
