package driving

import (
	"context"

	"github.com/custodia-labs/searchsync/internal/core/domain"
)

// IndexManager manages the lifecycle of search-engine indices.
type IndexManager interface {
	// List returns every registered index with its state.
	List(ctx context.Context) ([]IndexStatus, error)

	// Apply runs an index action on the named indices (all when empty).
	// Unknown names fail before any engine call. Each outcome is passed
	// to report as it completes.
	Apply(ctx context.Context, req IndexRequest, confirm Confirmer, report func(IndexOutcome)) error
}

// IndexStatus is the state of one registered index.
type IndexStatus struct {
	Name   string
	App    string
	Exists bool
	Count  int
}

// IndexRequest holds the options of an index command.
type IndexRequest struct {
	// Action is create, delete, rebuild or update.
	Action domain.Action

	// Names restricts the indices; empty means all.
	Names []string

	// IgnoreError continues past failing indices.
	IgnoreError bool
}

// IndexOutcome is the result of applying an action to one index.
type IndexOutcome struct {
	Index  string
	Action domain.Action
	Err    error
}
