package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/searchsync/internal/core/domain"
	"github.com/custodia-labs/searchsync/internal/core/ports/driven"
	"github.com/custodia-labs/searchsync/internal/core/ports/driving"
	"github.com/custodia-labs/searchsync/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentManager = (*DocumentService)(nil)

// DocumentService pushes store records into the search engine.
type DocumentService struct {
	registry *domain.Registry
	search   driven.SearchEngine
	stores   driven.StoreOpener
	engine   *BatchEngine
	defaults DocumentDefaults
}

// DocumentDefaults are configured values used when a request leaves them unset.
type DocumentDefaults struct {
	BatchSize    int
	BatchType    domain.BatchType
	RaiseOnError bool
}

// NewDocumentService creates a new document service.
func NewDocumentService(
	registry *domain.Registry,
	search driven.SearchEngine,
	stores driven.StoreOpener,
	engine *BatchEngine,
	defaults DocumentDefaults,
) *DocumentService {
	return &DocumentService{
		registry: registry,
		search:   search,
		stores:   stores,
		engine:   engine,
		defaults: defaults,
	}
}

// Run resolves, validates, confirms and executes a document request.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (s *DocumentService) Run(
	ctx context.Context,
	req driving.DocumentRequest,
	confirm driving.Confirmer,
	progress driving.ProgressFunc,
) ([]driving.TargetResult, error) {
	// 1. Validate the action
	action, err := domain.ParseAction(string(req.Action), domain.DocumentActions)
	if err != nil {
		return nil, err
	}
	req.Action = action
	req = s.applyDefaults(req)

	// 2. Resolve targets; unknown names and missing indices fail here
	targets, err := NewResolver(s.registry, s.search).Resolve(ctx, req.Indices, req.Objects)
	if err != nil {
		return nil, err
	}

	// 3. Pin the store for the whole invocation
	store, err := s.stores.Open(ctx, req.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	// 4. Build and validate every queryset before any write
	builder := newQuerysetBuilder(s.search)
	prepared, err := builder.prepareAll(ctx, targets, func(t Target) DocumentMapping {
		return NewDocumentMapping(t.Model, store, s.engine)
	}, req)
	if err != nil {
		return nil, err
	}

	// 5. Ask for confirmation
	plan := driving.Plan{Kind: driving.PlanDocuments, Action: req.Action}
	for _, p := range prepared {
		plan.Items = append(plan.Items, driving.PlanItem{Index: p.Index.Name, Model: p.Model.Name, Count: p.count})
	}
	if confirm == nil {
		confirm = driving.AlwaysConfirm
	}
	ok, err := confirm.Confirm(ctx, plan)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrAborted
	}

	// 6. Execute target by target
	results := make([]driving.TargetResult, 0, len(prepared))
	for _, p := range prepared {
		logger.Section(p.Model.Name + " into " + p.Index.Name)
		logger.Info("Processing %s into %s (%d expected)", p.Model.Name, p.Index.Name, p.count)

		batches := p.mapping.GetIndexingQueryset(ctx, p.queryset, IndexingOptions{
			BatchSize: req.BatchSize,
			BatchType: req.BatchType,
			Count:     req.Count,
		})
		result, err := p.mapping.Update(ctx, batches, UpdateOptions{
			Action:       req.Action,
			Parallel:     req.Parallel,
			Refresh:      req.Refresh,
			RaiseOnError: req.RaiseOnError,
			Progress:     progress,
			Total:        p.count,
		})
		results = append(results, driving.TargetResult{Index: p.Index.Name, Model: p.Model.Name, Result: result})
		if err != nil {
			return results, fmt.Errorf("%s %s: %w", req.Action, p.Model.Name, err)
		}
		logger.Info("%s: %d %s, %d errors", p.Model.Name, result.Success, req.Action.Past(), len(result.Errors))
	}

	return results, nil
}

func (s *DocumentService) applyDefaults(req driving.DocumentRequest) driving.DocumentRequest {
	if req.BatchSize <= 0 {
		req.BatchSize = s.defaults.BatchSize
	}
	if req.BatchSize <= 0 {
		req.BatchSize = domain.DefaultBatchSize
	}
	if req.BatchType == "" {
		req.BatchType = s.defaults.BatchType
	}
	if req.BatchType == "" {
		req.BatchType = domain.BatchOffset
	}
	if s.defaults.RaiseOnError {
		req.RaiseOnError = true
	}
	return req
}
