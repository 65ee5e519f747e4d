package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/searchsync/internal/core/domain"
	"github.com/custodia-labs/searchsync/internal/core/ports/driven"
	"github.com/custodia-labs/searchsync/internal/core/ports/driving"
	"github.com/custodia-labs/searchsync/internal/logger"
)

// preparedTarget is a validated target ready for execution.
type preparedTarget struct {
	Target
	mapping  DocumentMapping
	queryset driven.Queryset
	count    int
}

// querysetBuilder composes per-target querysets and validates them
// before anything is written.
type querysetBuilder struct {
	search     driven.SearchEngine
	indexedIDs map[string][]string
}

func newQuerysetBuilder(search driven.SearchEngine) *querysetBuilder {
	return &querysetBuilder{search: search, indexedIDs: make(map[string][]string)}
}

// build returns the queryset of mapping for req along with its count,
// capped by req.Count.
func (b *querysetBuilder) build(ctx context.Context, mapping DocumentMapping, req driving.DocumentRequest) (driven.Queryset, int, error) {
	opts := QueryOptions{Filter: req.Filters, Exclude: req.Excludes}

	if req.Missing && req.Action == domain.ActionIndex {
		ids, err := b.scanIDs(ctx, mapping.Model().Index)
		if err != nil {
			return nil, 0, err
		}
		opts.MissingIDs = ids
	}

	qs := mapping.GetQueryset(opts)
	count, err := qs.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	if req.Count > 0 {
		count = min(count, req.Count)
	}
	return qs, count, nil
}

// scanIDs lists the document IDs of index once per invocation.
func (b *querysetBuilder) scanIDs(ctx context.Context, index string) ([]string, error) {
	if ids, ok := b.indexedIDs[index]; ok {
		return ids, nil
	}
	// Writes not yet refreshed are invisible to the scan and would be
	// indexed again.
	if err := b.search.Refresh(ctx, index); err != nil {
		return nil, fmt.Errorf("refresh %s: %w", index, err)
	}
	ids, err := b.search.ScanIDs(ctx, index)
	if err != nil {
		return nil, fmt.Errorf("scan ids of %s: %w", index, err)
	}
	logger.Debug("Index %s holds %d documents", index, len(ids))
	b.indexedIDs[index] = ids
	return ids, nil
}

// prepareAll builds every target's queryset. Filter errors of all targets
// are collected and returned together; any other error stops immediately.
func (b *querysetBuilder) prepareAll(
	ctx context.Context,
	targets []Target,
	mappingFor func(Target) DocumentMapping,
	req driving.DocumentRequest,
) ([]preparedTarget, error) {
	prepared := make([]preparedTarget, 0, len(targets))
	var filterErrs []error

	for _, t := range targets {
		mapping := mappingFor(t)
		qs, count, err := b.build(ctx, mapping, req)
		if err != nil {
			var fieldErr *domain.FieldError
			if errors.As(err, &fieldErr) {
				verr := &domain.FilterValidationError{Model: t.Model.Name, Err: fieldErr}
				if len(req.Objects) == 0 {
					verr.Index = t.Index.Name
				}
				filterErrs = append(filterErrs, verr)
				continue
			}
			return nil, fmt.Errorf("prepare %s: %w", t.Model.Name, err)
		}
		prepared = append(prepared, preparedTarget{Target: t, mapping: mapping, queryset: qs, count: count})
	}

	if len(filterErrs) > 0 {
		return nil, errors.Join(filterErrs...)
	}
	return prepared, nil
}
