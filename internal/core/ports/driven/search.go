package driven

import (
	"context"

	"github.com/custodia-labs/searchsync/internal/core/domain"
)

// SearchEngine manages indices and documents in a search engine.
// Backed by Bleve, Elasticsearch or an in-memory engine.
type SearchEngine interface {
	// IndexExists reports whether the index is created.
	IndexExists(ctx context.Context, name string) (bool, error)

	// CreateIndex creates the index with the mapping derived from def.
	// Returns domain.ErrAlreadyExists if the index exists.
	CreateIndex(ctx context.Context, def domain.IndexDefinition) error

	// DeleteIndex removes the index and all its documents.
	// Returns domain.ErrNotFound if the index does not exist.
	DeleteIndex(ctx context.Context, name string) error

	// UpdateIndex applies def's field mapping to an existing index.
	UpdateIndex(ctx context.Context, def domain.IndexDefinition) error

	// Count returns the number of documents in the index.
	Count(ctx context.Context, name string) (int, error)

	// ScanIDs returns the IDs of every document in the index without
	// fetching document bodies.
	ScanIDs(ctx context.Context, name string) ([]string, error)

	// Bulk submits operations to the index. Per-document rejections are
	// reported in the returned items, one per operation in order; the
	// error is reserved for failures of the request as a whole.
	Bulk(ctx context.Context, index string, ops []BulkOperation, refresh bool) ([]BulkItemResult, error)

	// Refresh makes recent writes visible to searches.
	Refresh(ctx context.Context, name string) error

	// Close releases resources.
	Close() error
}

// BulkOperation is one document operation within a bulk request.
type BulkOperation struct {
	// Action is index (upsert), update (partial update) or delete.
	Action domain.Action

	// ID is the document ID.
	ID string

	// Document is the document body; nil for deletes.
	Document map[string]any
}

// BulkItemResult is the engine's answer for one operation.
type BulkItemResult struct {
	ID     string
	Action domain.Action

	// Status is an HTTP-style status code (200, 201, 404...).
	Status int

	// Result is the engine's result word, e.g. "created", "updated", "not_found".
	Result string

	// Error is the engine's error type when the operation was rejected.
	Error string
}

// Failed reports whether the engine rejected the operation.
func (r BulkItemResult) Failed() bool {
	return r.Error != "" || r.Status < 200 || r.Status >= 300
}

// Reason returns the reason used to group failures in reports.
func (r BulkItemResult) Reason() string {
	switch {
	case r.Result != "" && r.Result != "created" && r.Result != "updated" && r.Result != "deleted":
		return r.Result
	case r.Error != "":
		return r.Error
	default:
		return domain.UnknownReason
	}
}
