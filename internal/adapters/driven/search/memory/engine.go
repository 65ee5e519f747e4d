package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/searchsync/internal/core/domain"
	"github.com/custodia-labs/searchsync/internal/core/ports/driven"
)

// Ensure Engine implements the interface.
var _ driven.SearchEngine = (*Engine)(nil)

// RejectFunc decides whether an operation is rejected. A non-empty
// return value is used as the item's error type.
type RejectFunc func(index string, op driven.BulkOperation) string

// Engine is an in-memory implementation of driven.SearchEngine.
// Writes are visible immediately.
type Engine struct {
	mu      sync.RWMutex
	indices map[string]*memoryIndex

	// Reject, when set, lets tests reject individual operations.
	Reject RejectFunc

	// FailBulk, when set, fails whole bulk requests.
	FailBulk error

	bulkCalls int
}

type memoryIndex struct {
	def  domain.IndexDefinition
	docs map[string]map[string]any
}

// New creates an empty in-memory engine.
func New() *Engine {
	return &Engine{indices: make(map[string]*memoryIndex)}
}

// IndexExists reports whether the index is created.
func (e *Engine) IndexExists(_ context.Context, name string) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.indices[name]
	return ok, nil
}

// CreateIndex creates an empty index.
func (e *Engine) CreateIndex(_ context.Context, def domain.IndexDefinition) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.indices[def.Name]; ok {
		return fmt.Errorf("%w: index %s", domain.ErrAlreadyExists, def.Name)
	}
	e.indices[def.Name] = &memoryIndex{def: def, docs: make(map[string]map[string]any)}
	return nil
}

// DeleteIndex removes an index and its documents.
func (e *Engine) DeleteIndex(_ context.Context, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.indices[name]; !ok {
		return fmt.Errorf("%w: index %s", domain.ErrNotFound, name)
	}
	delete(e.indices, name)
	return nil
}

// UpdateIndex replaces the stored definition of an index.
func (e *Engine) UpdateIndex(_ context.Context, def domain.IndexDefinition) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	idx, ok := e.indices[def.Name]
	if !ok {
		return fmt.Errorf("%w: index %s", domain.ErrNotFound, def.Name)
	}
	idx.def = def
	return nil
}

// Count returns the number of documents in an index.
func (e *Engine) Count(_ context.Context, name string) (int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	idx, ok := e.indices[name]
	if !ok {
		return 0, fmt.Errorf("%w: index %s", domain.ErrNotFound, name)
	}
	return len(idx.docs), nil
}

// ScanIDs returns every document ID, sorted.
func (e *Engine) ScanIDs(_ context.Context, name string) ([]string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	idx, ok := e.indices[name]
	if !ok {
		return nil, fmt.Errorf("%w: index %s", domain.ErrNotFound, name)
	}
	ids := make([]string, 0, len(idx.docs))
	for id := range idx.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Bulk applies operations with Elasticsearch-like item results.
func (e *Engine) Bulk(ctx context.Context, name string, ops []driven.BulkOperation, _ bool) ([]driven.BulkItemResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.bulkCalls++

	if e.FailBulk != nil {
		return nil, e.FailBulk
	}
	idx, ok := e.indices[name]
	if !ok {
		return nil, fmt.Errorf("%w: index %s", domain.ErrNotFound, name)
	}

	items := make([]driven.BulkItemResult, 0, len(ops))
	for _, op := range ops {
		item := driven.BulkItemResult{ID: op.ID, Action: op.Action}
		if e.Reject != nil {
			if reason := e.Reject(name, op); reason != "" {
				item.Status, item.Error = 400, reason
				items = append(items, item)
				continue
			}
		}

		current, found := idx.docs[op.ID]
		switch op.Action {
		case domain.ActionIndex:
			item.Status, item.Result = 201, "created"
			if found {
				item.Status, item.Result = 200, "updated"
			}
			idx.docs[op.ID] = copyDoc(op.Document)
		case domain.ActionUpdate:
			if !found {
				item.Status, item.Error = 404, "document_missing_exception"
				break
			}
			for k, v := range op.Document {
				current[k] = v
			}
			item.Status, item.Result = 200, "updated"
		case domain.ActionDelete:
			if !found {
				item.Status, item.Result = 404, "not_found"
				break
			}
			delete(idx.docs, op.ID)
			item.Status, item.Result = 200, "deleted"
		default:
			item.Status, item.Error = 400, "action_request_validation_exception"
		}
		items = append(items, item)
	}
	return items, nil
}

// Refresh is a no-op.
func (e *Engine) Refresh(_ context.Context, name string) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if _, ok := e.indices[name]; !ok {
		return fmt.Errorf("%w: index %s", domain.ErrNotFound, name)
	}
	return nil
}

// Close is a no-op.
func (e *Engine) Close() error {
	return nil
}

// Document returns a copy of a stored document.
func (e *Engine) Document(index, id string) (map[string]any, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	idx, ok := e.indices[index]
	if !ok {
		return nil, false
	}
	doc, ok := idx.docs[id]
	if !ok {
		return nil, false
	}
	return copyDoc(doc), true
}

// BulkCalls returns the number of bulk requests received.
func (e *Engine) BulkCalls() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.bulkCalls
}

func copyDoc(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
