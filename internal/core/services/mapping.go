package services

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/custodia-labs/searchsync/internal/core/domain"
	"github.com/custodia-labs/searchsync/internal/core/ports/driven"
)

// BatchSeq is a lazy sequence of batches. Iteration stops at the first error.
type BatchSeq = iter.Seq2[domain.Batch, error]

// QueryOptions select the records of a mapping.
type QueryOptions struct {
	Filter  domain.PredicateSet
	Exclude domain.PredicateSet

	// MissingIDs are document IDs already in the index; matching
	// records are excluded.
	MissingIDs []string
}

// IndexingOptions shape the batch sequence.
type IndexingOptions struct {
	BatchSize int
	BatchType domain.BatchType

	// Count caps the records produced; 0 means no cap.
	Count int
}

// UpdateOptions control how batches are submitted.
type UpdateOptions struct {
	Action       domain.Action
	Parallel     bool
	Refresh      bool
	RaiseOnError bool
	Progress     func(domain.BatchProgress)
	Total        int
}

// DocumentMapping projects store records of one model into documents of
// its index.
type DocumentMapping interface {
	// Model returns the mapped model.
	Model() domain.ModelDefinition

	// GetQueryset returns the records selected by opts.
	GetQueryset(opts QueryOptions) driven.Queryset

	// GetIndexingQueryset returns qs as a lazy batch sequence.
	GetIndexingQueryset(ctx context.Context, qs driven.Queryset, opts IndexingOptions) BatchSeq

	// Update submits batches to the search engine and aggregates the outcome.
	Update(ctx context.Context, batches BatchSeq, opts UpdateOptions) (domain.ExecutionResult, error)

	// Prepare converts a record into a document body.
	Prepare(rec domain.Record) map[string]any
}

// modelMapping implements DocumentMapping for a registered model.
type modelMapping struct {
	model  domain.ModelDefinition
	store  driven.RecordStore
	engine *BatchEngine
}

var _ DocumentMapping = (*modelMapping)(nil)

// NewDocumentMapping maps model records read from store through engine.
func NewDocumentMapping(model domain.ModelDefinition, store driven.RecordStore, engine *BatchEngine) DocumentMapping {
	return &modelMapping{model: model, store: store, engine: engine}
}

func (m *modelMapping) Model() domain.ModelDefinition {
	return m.model
}

func (m *modelMapping) GetQueryset(opts QueryOptions) driven.Queryset {
	qs := m.store.Queryset(m.model)
	if !opts.Filter.Empty() {
		qs = qs.Filter(opts.Filter)
	}
	if !opts.Exclude.Empty() {
		qs = qs.Exclude(opts.Exclude)
	}
	if len(opts.MissingIDs) > 0 {
		ids := make([]any, len(opts.MissingIDs))
		for i, id := range opts.MissingIDs {
			ids[i] = id
		}
		qs = qs.Exclude(domain.PredicateSet{{Lookup: m.model.PrimaryKey + "__in", Value: ids}})
	}
	return qs
}

func (m *modelMapping) GetIndexingQueryset(ctx context.Context, qs driven.Queryset, opts IndexingOptions) BatchSeq {
	size := opts.BatchSize
	if size <= 0 {
		size = domain.DefaultBatchSize
	}
	if opts.BatchType == domain.BatchPKFilters {
		return keyWindowBatches(ctx, qs, size, opts.Count)
	}
	return offsetBatches(ctx, qs, size, opts.Count)
}

func (m *modelMapping) Update(ctx context.Context, batches BatchSeq, opts UpdateOptions) (domain.ExecutionResult, error) {
	return m.engine.Submit(ctx, m, batches, opts)
}

func (m *modelMapping) Prepare(rec domain.Record) map[string]any {
	doc := make(map[string]any)
	if len(m.model.Fields) == 0 {
		for k, v := range rec.Fields {
			doc[k] = documentValue(v)
		}
		return doc
	}
	for _, f := range m.model.Fields {
		doc[f.Name] = documentValue(rec.Fields[f.Name])
	}
	return doc
}

// documentValue normalises driver values into JSON-friendly ones.
func documentValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case domain.Date:
		return val.String()
	case fmt.Stringer:
		return val.String()
	default:
		return val
	}
}
