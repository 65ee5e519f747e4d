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

// Ensure IndexService implements the interface.
var _ driving.IndexManager = (*IndexService)(nil)

// IndexService manages the lifecycle of registered indices.
type IndexService struct {
	registry *domain.Registry
	search   driven.SearchEngine
}

// NewIndexService creates a new index service.
func NewIndexService(registry *domain.Registry, search driven.SearchEngine) *IndexService {
	return &IndexService{registry: registry, search: search}
}

// List returns every registered index with its existence and document count.
// Existence is queried on each call and never cached.
func (s *IndexService) List(ctx context.Context) ([]driving.IndexStatus, error) {
	indices := s.registry.Indices()
	statuses := make([]driving.IndexStatus, 0, len(indices))
	for _, idx := range indices {
		status := driving.IndexStatus{Name: idx.Name, App: idx.App}
		exists, err := s.search.IndexExists(ctx, idx.Name)
		if err != nil {
			return nil, fmt.Errorf("check index %s: %w", idx.Name, err)
		}
		status.Exists = exists
		if exists {
			count, err := s.search.Count(ctx, idx.Name)
			if err != nil {
				return nil, fmt.Errorf("count index %s: %w", idx.Name, err)
			}
			status.Count = count
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// Apply runs req.Action on the selected indices.
func (s *IndexService) Apply(
	ctx context.Context,
	req driving.IndexRequest,
	confirm driving.Confirmer,
	report func(driving.IndexOutcome),
) error {
	action, err := domain.ParseAction(string(req.Action), domain.IndexActions)
	if err != nil {
		return err
	}

	indices, err := NewResolver(s.registry, s.search).ResolveIndices(req.Names)
	if err != nil {
		return err
	}

	plan := driving.Plan{Kind: driving.PlanIndices, Action: action}
	for _, idx := range indices {
		plan.Items = append(plan.Items, driving.PlanItem{Index: idx.Name})
	}
	if confirm == nil {
		confirm = driving.AlwaysConfirm
	}
	ok, err := confirm.Confirm(ctx, plan)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrAborted
	}

	var errs []error
	for _, idx := range indices {
		err := s.apply(ctx, action, idx)
		if report != nil {
			report(driving.IndexOutcome{Index: idx.Name, Action: action, Err: err})
		}
		if err == nil {
			continue
		}
		err = fmt.Errorf("%s index %s: %w", action, idx.Name, err)
		if !req.IgnoreError {
			return err
		}
		logger.Warn("%v", err)
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		logger.Info("%d of %d indices failed, ignored", len(errs), len(indices))
	}
	return nil
}

func (s *IndexService) apply(ctx context.Context, action domain.Action, idx domain.IndexDefinition) error {
	switch action {
	case domain.ActionCreate:
		return s.search.CreateIndex(ctx, idx)

	case domain.ActionDelete:
		return s.search.DeleteIndex(ctx, idx.Name)

	case domain.ActionUpdate:
		return s.search.UpdateIndex(ctx, idx)

	case domain.ActionRebuild:
		// The index stays absent if the delete succeeds and the create fails.
		if err := s.search.DeleteIndex(ctx, idx.Name); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("delete: %w", err)
		}
		if err := s.search.CreateIndex(ctx, idx); err != nil {
			return fmt.Errorf("create: %w", err)
		}
		return nil

	default:
		return fmt.Errorf("%w: action %s", domain.ErrNotSupported, action)
	}
}
