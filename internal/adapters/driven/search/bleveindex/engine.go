package bleveindex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/custodia-labs/searchsync/internal/core/domain"
	"github.com/custodia-labs/searchsync/internal/core/ports/driven"
	"github.com/custodia-labs/searchsync/internal/logger"
)

// sourceField stores the original document as JSON so partial updates
// can be merged. It is stored but not indexed.
const sourceField = "_source"

// scanPageSize is the number of IDs fetched per ScanIDs request.
const scanPageSize = 1000

// Engine is a search engine backed by one Bleve index per directory
// under a root path.
type Engine struct {
	root string

	mu      sync.Mutex
	indices map[string]bleve.Index
}

var _ driven.SearchEngine = (*Engine)(nil)

// New creates an engine storing indices under root.
func New(root string) (*Engine, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: bleve index path is required", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create bleve root: %w", err)
	}
	return &Engine{root: root, indices: make(map[string]bleve.Index)}, nil
}

func (e *Engine) path(name string) string {
	return filepath.Join(e.root, name)
}

func (e *Engine) exists(name string) bool {
	_, err := os.Stat(e.path(name))
	return err == nil
}

// open returns the cached handle of an existing index, opening it once.
func (e *Engine) open(name string) (bleve.Index, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if idx, ok := e.indices[name]; ok {
		return idx, nil
	}
	if !e.exists(name) {
		return nil, fmt.Errorf("%w: index %s", domain.ErrNotFound, name)
	}
	idx, err := bleve.Open(e.path(name))
	if err != nil {
		return nil, fmt.Errorf("open bleve index %s: %w", name, err)
	}
	e.indices[name] = idx
	return idx, nil
}

func (e *Engine) IndexExists(_ context.Context, name string) (bool, error) {
	return e.exists(name), nil
}

func (e *Engine) CreateIndex(_ context.Context, def domain.IndexDefinition) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.exists(def.Name) {
		return fmt.Errorf("%w: index %s", domain.ErrAlreadyExists, def.Name)
	}
	idx, err := bleve.New(e.path(def.Name), buildIndexMapping(def))
	if err != nil {
		return fmt.Errorf("create bleve index %s: %w", def.Name, err)
	}
	e.indices[def.Name] = idx
	logger.Debug("bleve: created index %s at %s", def.Name, e.path(def.Name))
	return nil
}

func (e *Engine) DeleteIndex(_ context.Context, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.exists(name) {
		return fmt.Errorf("%w: index %s", domain.ErrNotFound, name)
	}
	if idx, ok := e.indices[name]; ok {
		if err := idx.Close(); err != nil {
			logger.Warn("bleve: closing index %s: %v", name, err)
		}
		delete(e.indices, name)
	}
	if err := os.RemoveAll(e.path(name)); err != nil {
		return fmt.Errorf("delete bleve index %s: %w", name, err)
	}
	logger.Debug("bleve: deleted index %s", name)
	return nil
}

// UpdateIndex is not supported: Bleve mappings are fixed at creation.
// Rebuild the index to change its mapping.
func (e *Engine) UpdateIndex(_ context.Context, def domain.IndexDefinition) error {
	if !e.exists(def.Name) {
		return fmt.Errorf("%w: index %s", domain.ErrNotFound, def.Name)
	}
	return fmt.Errorf("%w: bleve cannot change the mapping of %s, rebuild it instead",
		domain.ErrNotSupported, def.Name)
}

func (e *Engine) Count(_ context.Context, name string) (int, error) {
	idx, err := e.open(name)
	if err != nil {
		return 0, err
	}
	n, err := idx.DocCount()
	if err != nil {
		return 0, fmt.Errorf("count bleve index %s: %w", name, err)
	}
	return int(n), nil
}

func (e *Engine) ScanIDs(ctx context.Context, name string) ([]string, error) {
	idx, err := e.open(name)
	if err != nil {
		return nil, err
	}

	var ids []string
	for from := 0; ; from += scanPageSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), scanPageSize, from, false)
		req.SortBy([]string{"_id"})
		res, err := idx.SearchInContext(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("scan bleve index %s: %w", name, err)
		}
		for _, hit := range res.Hits {
			ids = append(ids, hit.ID)
		}
		if len(res.Hits) < scanPageSize {
			return ids, nil
		}
	}
}

// Bulk applies ops as one Bleve batch. Refresh is implied: Bleve writes
// are searchable once the batch returns.
func (e *Engine) Bulk(ctx context.Context, name string, ops []driven.BulkOperation, _ bool) ([]driven.BulkItemResult, error) {
	idx, err := e.open(name)
	if err != nil {
		return nil, err
	}

	sources, err := e.sources(ctx, idx, ops)
	if err != nil {
		return nil, err
	}

	batch := idx.NewBatch()
	items := make([]driven.BulkItemResult, 0, len(ops))
	for _, op := range ops {
		item := driven.BulkItemResult{ID: op.ID, Action: op.Action}
		current, found := sources[op.ID]

		switch op.Action {
		case domain.ActionIndex:
			item.Status, item.Result = 201, "created"
			if found {
				item.Status, item.Result = 200, "updated"
			}
			if err := e.stage(batch, op.ID, op.Document); err != nil {
				item.Status, item.Result, item.Error = 400, "", "mapper_parsing_exception"
				break
			}
			sources[op.ID] = op.Document

		case domain.ActionUpdate:
			if !found {
				item.Status, item.Error = 404, "document_missing_exception"
				break
			}
			merged := make(map[string]any, len(current)+len(op.Document))
			for k, v := range current {
				merged[k] = v
			}
			for k, v := range op.Document {
				merged[k] = v
			}
			if err := e.stage(batch, op.ID, merged); err != nil {
				item.Status, item.Error = 400, "mapper_parsing_exception"
				break
			}
			item.Status, item.Result = 200, "updated"
			sources[op.ID] = merged

		case domain.ActionDelete:
			if !found {
				item.Status, item.Result = 404, "not_found"
				break
			}
			batch.Delete(op.ID)
			item.Status, item.Result = 200, "deleted"
			delete(sources, op.ID)

		default:
			item.Status, item.Error = 400, "action_request_validation_exception"
		}
		items = append(items, item)
	}

	if err := idx.Batch(batch); err != nil {
		return nil, fmt.Errorf("bleve batch on %s: %w", name, err)
	}
	return items, nil
}

// stage adds doc to batch together with its JSON source.
func (e *Engine) stage(batch *bleve.Batch, id string, doc map[string]any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	body := make(map[string]any, len(doc)+1)
	for k, v := range doc {
		body[k] = v
	}
	body[sourceField] = string(raw)
	return batch.Index(id, body)
}

// sources returns the stored source of every existing document among ops.
func (e *Engine) sources(ctx context.Context, idx bleve.Index, ops []driven.BulkOperation) (map[string]map[string]any, error) {
	ids := make([]string, 0, len(ops))
	for _, op := range ops {
		ids = append(ids, op.ID)
	}
	found := make(map[string]map[string]any, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDocIDQuery(ids), len(ids), 0, false)
	req.Fields = []string{sourceField}
	res, err := idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bleve lookup: %w", err)
	}
	for _, hit := range res.Hits {
		doc := map[string]any{}
		if raw, ok := hit.Fields[sourceField].(string); ok {
			if err := json.Unmarshal([]byte(raw), &doc); err != nil {
				logger.Warn("bleve: unreadable source for %s: %v", hit.ID, err)
			}
		}
		found[hit.ID] = doc
	}
	return found, nil
}

func (e *Engine) Refresh(_ context.Context, name string) error {
	if !e.exists(name) {
		return fmt.Errorf("%w: index %s", domain.ErrNotFound, name)
	}
	return nil
}

// Close closes every open index.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var errs []error
	for name, idx := range e.indices {
		if err := idx.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close bleve index %s: %w", name, err))
		}
		delete(e.indices, name)
	}
	return errors.Join(errs...)
}

// buildIndexMapping maps each declared field to a Bleve field type.
// Undeclared fields are indexed dynamically.
func buildIndexMapping(def domain.IndexDefinition) *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	source := bleve.NewTextFieldMapping()
	source.Index = false
	source.Store = true
	source.IncludeInAll = false
	docMapping.AddFieldMappingsAt(sourceField, source)

	for _, f := range def.Fields() {
		docMapping.AddFieldMappingsAt(f.Name, fieldMapping(f.Type))
	}

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

func fieldMapping(t domain.FieldType) *mapping.FieldMapping {
	var fm *mapping.FieldMapping
	switch t {
	case domain.FieldKeyword:
		fm = bleve.NewKeywordFieldMapping()
	case domain.FieldInteger, domain.FieldFloat:
		fm = bleve.NewNumericFieldMapping()
	case domain.FieldDate:
		fm = bleve.NewDateTimeFieldMapping()
	case domain.FieldBoolean:
		fm = bleve.NewBooleanFieldMapping()
	default:
		fm = bleve.NewTextFieldMapping()
	}
	fm.Store = false
	return fm
}
