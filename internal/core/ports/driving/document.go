package driving

import (
	"context"

	"github.com/custodia-labs/searchsync/internal/core/domain"
)

// DocumentManager pushes store records into the search engine.
type DocumentManager interface {
	// Run resolves targets, validates every queryset, asks confirm to
	// approve the plan, then executes it target by target. Results of
	// completed targets are returned even when a later target fails.
	// A declined confirmation returns domain.ErrAborted.
	Run(ctx context.Context, req DocumentRequest, confirm Confirmer, progress ProgressFunc) ([]TargetResult, error)
}

// DocumentRequest holds the options of a document command.
type DocumentRequest struct {
	// Action is index, update or delete.
	Action domain.Action

	// Database is the store alias; empty selects the default.
	Database string

	// Filters and Excludes are combined as Filters AND NOT Excludes.
	Filters  domain.PredicateSet
	Excludes domain.PredicateSet

	// Indices and Objects restrict the targets; empty means all.
	Indices []string
	Objects []string

	// Count caps the records processed per target; 0 means no cap.
	Count int

	// Parallel submits batches concurrently.
	Parallel bool

	// Refresh makes writes visible immediately.
	Refresh bool

	// Missing restricts the index action to records absent from the index.
	Missing bool

	// BatchSize is the number of records per batch; 0 uses the default.
	BatchSize int

	// BatchType selects offset or primary-key windows.
	BatchType domain.BatchType

	// RaiseOnError stops a target after the first batch with rejections.
	RaiseOnError bool
}

// TargetResult is the outcome of one (index, model) target.
type TargetResult struct {
	Index  string
	Model  string
	Result domain.ExecutionResult
}

// ProgressFunc receives progress updates during execution. May be nil.
type ProgressFunc func(domain.BatchProgress)
