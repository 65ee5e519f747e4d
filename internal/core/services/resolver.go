package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/searchsync/internal/core/domain"
	"github.com/custodia-labs/searchsync/internal/core/ports/driven"
)

// Target is one (index, model) pair to process.
type Target struct {
	Index domain.IndexDefinition
	Model domain.ModelDefinition
}

// Resolver narrows the registry to the requested indices and objects.
type Resolver struct {
	registry *domain.Registry
	engine   driven.SearchEngine
}

// NewResolver creates a resolver over registry, checking index
// existence against engine.
func NewResolver(registry *domain.Registry, engine driven.SearchEngine) *Resolver {
	return &Resolver{registry: registry, engine: engine}
}

// ResolveIndices validates index names and returns the selected indices
// in registry order. Empty names select every index.
func (r *Resolver) ResolveIndices(names []string) ([]domain.IndexDefinition, error) {
	known := r.registry.Indices()
	if len(names) == 0 {
		return known, nil
	}

	wanted := make(map[string]bool, len(names))
	var unknown []string
	for _, name := range names {
		if _, ok := r.registry.Index(name); !ok {
			unknown = append(unknown, name)
			continue
		}
		wanted[name] = true
	}
	if len(unknown) > 0 {
		return nil, &domain.UnknownTargetError{
			Kind:    domain.TargetIndex,
			Names:   unknown,
			Choices: r.registry.IndexNames(),
		}
	}

	selected := make([]domain.IndexDefinition, 0, len(wanted))
	for _, idx := range known {
		if wanted[idx.Name] {
			selected = append(selected, idx)
		}
	}
	return selected, nil
}

// ResolveObjects validates model names case-insensitively.
func (r *Resolver) ResolveObjects(names []string) (map[string]bool, error) {
	if len(names) == 0 {
		return nil, nil
	}
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		if _, ok := r.registry.Model(name); !ok {
			return nil, &domain.UnknownTargetError{
				Kind:    domain.TargetObject,
				Names:   []string{name},
				Choices: r.registry.ModelNames(),
			}
		}
		wanted[strings.ToLower(name)] = true
	}
	return wanted, nil
}

// Resolve returns the targets selected by indices and objects. Every
// resolved index must already exist in the engine; nothing is written
// before this check passes.
func (r *Resolver) Resolve(ctx context.Context, indices, objects []string) ([]Target, error) {
	models, err := r.ResolveObjects(objects)
	if err != nil {
		return nil, err
	}
	selected, err := r.ResolveIndices(indices)
	if err != nil {
		return nil, err
	}

	var targets []Target
	var used []domain.IndexDefinition
	for _, idx := range selected {
		n := len(targets)
		for _, m := range idx.Models {
			if models != nil && !models[strings.ToLower(m.Name)] {
				continue
			}
			targets = append(targets, Target{Index: idx, Model: m})
		}
		if len(targets) > n {
			used = append(used, idx)
		}
	}

	var notCreated []string
	for _, idx := range used {
		exists, err := r.engine.IndexExists(ctx, idx.Name)
		if err != nil {
			return nil, fmt.Errorf("check index %s: %w", idx.Name, err)
		}
		if !exists {
			notCreated = append(notCreated, idx.Name)
		}
	}
	if len(notCreated) > 0 {
		return nil, &domain.IndexNotCreatedError{Names: notCreated}
	}

	return targets, nil
}
