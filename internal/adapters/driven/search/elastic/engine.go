package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"

	"github.com/custodia-labs/searchsync/internal/core/domain"
	"github.com/custodia-labs/searchsync/internal/core/ports/driven"
	"github.com/custodia-labs/searchsync/internal/logger"
)

const (
	scrollKeepAlive = time.Minute
	scrollPageSize  = 1000
)

// Config holds the connection settings of a cluster.
type Config struct {
	Addresses []string
	Username  string
	Password  string
}

// Engine is a search engine backed by an Elasticsearch cluster.
type Engine struct {
	client *elasticsearch.Client
}

var _ driven.SearchEngine = (*Engine)(nil)

// New creates an engine connected to the cluster described by cfg.
func New(cfg Config) (*Engine, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return &Engine{client: client}, nil
}

func (e *Engine) IndexExists(ctx context.Context, name string) (bool, error) {
	res, err := e.client.Indices.Exists([]string{name}, e.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", name, err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case 200:
		return true, nil
	case 404:
		return false, nil
	default:
		return false, responseError("check index "+name, res)
	}
}

func (e *Engine) CreateIndex(ctx context.Context, def domain.IndexDefinition) error {
	body, err := json.Marshal(indexBody(def))
	if err != nil {
		return err
	}
	res, err := e.client.Indices.Create(def.Name,
		e.client.Indices.Create.WithContext(ctx),
		e.client.Indices.Create.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", def.Name, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		re := decodeError(res)
		if re.Type == "resource_already_exists_exception" {
			return fmt.Errorf("%w: index %s", domain.ErrAlreadyExists, def.Name)
		}
		return fmt.Errorf("create index %s: %s", def.Name, re)
	}
	logger.Debug("elasticsearch: created index %s", def.Name)
	return nil
}

func (e *Engine) DeleteIndex(ctx context.Context, name string) error {
	res, err := e.client.Indices.Delete([]string{name}, e.client.Indices.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete index %s: %w", name, err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return fmt.Errorf("%w: index %s", domain.ErrNotFound, name)
	}
	if res.IsError() {
		return responseError("delete index "+name, res)
	}
	logger.Debug("elasticsearch: deleted index %s", name)
	return nil
}

func (e *Engine) UpdateIndex(ctx context.Context, def domain.IndexDefinition) error {
	body, err := json.Marshal(mappingBody(def))
	if err != nil {
		return err
	}
	res, err := e.client.Indices.PutMapping([]string{def.Name}, bytes.NewReader(body),
		e.client.Indices.PutMapping.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("update index %s: %w", def.Name, err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return fmt.Errorf("%w: index %s", domain.ErrNotFound, def.Name)
	}
	if res.IsError() {
		return responseError("update index "+def.Name, res)
	}
	return nil
}

func (e *Engine) Count(ctx context.Context, name string) (int, error) {
	res, err := e.client.Count(e.client.Count.WithContext(ctx), e.client.Count.WithIndex(name))
	if err != nil {
		return 0, fmt.Errorf("count index %s: %w", name, err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return 0, fmt.Errorf("%w: index %s", domain.ErrNotFound, name)
	}
	if res.IsError() {
		return 0, responseError("count index "+name, res)
	}

	var body struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode count of %s: %w", name, err)
	}
	return body.Count, nil
}

type scrollPage struct {
	ScrollID string `json:"_scroll_id"`
	Hits     struct {
		Hits []struct {
			ID string `json:"_id"`
		} `json:"hits"`
	} `json:"hits"`
}

// ScanIDs scrolls through the index without fetching sources.
func (e *Engine) ScanIDs(ctx context.Context, name string) ([]string, error) {
	query := `{"query":{"match_all":{}},"_source":false,"sort":["_doc"]}`
	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(name),
		e.client.Search.WithScroll(scrollKeepAlive),
		e.client.Search.WithSize(scrollPageSize),
		e.client.Search.WithBody(strings.NewReader(query)),
	)
	if err != nil {
		return nil, fmt.Errorf("scan index %s: %w", name, err)
	}

	var ids []string
	scrollID := ""
	defer func() {
		if scrollID != "" {
			e.clearScroll(scrollID)
		}
	}()

	for {
		page, err := decodePage(name, res)
		if err != nil {
			return nil, err
		}
		scrollID = page.ScrollID
		for _, hit := range page.Hits.Hits {
			ids = append(ids, hit.ID)
		}
		if len(page.Hits.Hits) == 0 || scrollID == "" {
			return ids, nil
		}

		res, err = e.client.Scroll(
			e.client.Scroll.WithContext(ctx),
			e.client.Scroll.WithScrollID(scrollID),
			e.client.Scroll.WithScroll(scrollKeepAlive),
		)
		if err != nil {
			return nil, fmt.Errorf("scroll index %s: %w", name, err)
		}
	}
}

func decodePage(name string, res *esapi.Response) (scrollPage, error) {
	defer res.Body.Close()

	var page scrollPage
	if res.StatusCode == 404 {
		return page, fmt.Errorf("%w: index %s", domain.ErrNotFound, name)
	}
	if res.IsError() {
		return page, responseError("scan index "+name, res)
	}
	if err := json.NewDecoder(res.Body).Decode(&page); err != nil {
		return page, fmt.Errorf("decode scroll of %s: %w", name, err)
	}
	return page, nil
}

func (e *Engine) clearScroll(id string) {
	res, err := e.client.ClearScroll(e.client.ClearScroll.WithScrollID(id))
	if err != nil {
		logger.Warn("elasticsearch: clear scroll: %v", err)
		return
	}
	res.Body.Close()
}

type bulkResponse struct {
	Errors bool                         `json:"errors"`
	Items  []map[string]bulkItemPayload `json:"items"`
}

type bulkItemPayload struct {
	ID     string `json:"_id"`
	Status int    `json:"status"`
	Result string `json:"result"`
	Error  *struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

// Bulk sends ops as one NDJSON bulk request.
func (e *Engine) Bulk(ctx context.Context, name string, ops []driven.BulkOperation, refresh bool) ([]driven.BulkItemResult, error) {
	if len(ops) == 0 {
		return nil, nil
	}
	body, err := bulkBody(ops)
	if err != nil {
		return nil, err
	}

	opts := []func(*esapi.BulkRequest){
		e.client.Bulk.WithContext(ctx),
		e.client.Bulk.WithIndex(name),
	}
	if refresh {
		opts = append(opts, e.client.Bulk.WithRefresh("true"))
	}
	res, err := e.client.Bulk(bytes.NewReader(body), opts...)
	if err != nil {
		return nil, fmt.Errorf("bulk %s: %w", name, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, responseError("bulk "+name, res)
	}

	var payload bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode bulk response: %w", err)
	}

	items := make([]driven.BulkItemResult, 0, len(payload.Items))
	for i, entry := range payload.Items {
		for action, item := range entry {
			result := driven.BulkItemResult{
				ID:     item.ID,
				Action: domain.Action(action),
				Status: item.Status,
				Result: item.Result,
			}
			if i < len(ops) {
				result.Action = ops[i].Action
			}
			if item.Error != nil {
				result.Error = item.Error.Type
			}
			items = append(items, result)
		}
	}
	return items, nil
}

// bulkBody renders ops as action and source lines. Updates send the
// document as a partial "doc".
func bulkBody(ops []driven.BulkOperation) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, op := range ops {
		meta := map[string]map[string]string{string(op.Action): {"_id": op.ID}}
		if err := enc.Encode(meta); err != nil {
			return nil, err
		}
		switch op.Action {
		case domain.ActionDelete:
		case domain.ActionUpdate:
			if err := enc.Encode(map[string]any{"doc": op.Document}); err != nil {
				return nil, fmt.Errorf("encode document %s: %w", op.ID, err)
			}
		default:
			if err := enc.Encode(op.Document); err != nil {
				return nil, fmt.Errorf("encode document %s: %w", op.ID, err)
			}
		}
	}
	return buf.Bytes(), nil
}

func (e *Engine) Refresh(ctx context.Context, name string) error {
	res, err := e.client.Indices.Refresh(
		e.client.Indices.Refresh.WithContext(ctx),
		e.client.Indices.Refresh.WithIndex(name),
	)
	if err != nil {
		return fmt.Errorf("refresh index %s: %w", name, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return responseError("refresh index "+name, res)
	}
	return nil
}

// Close is a no-op; the HTTP transport holds no dedicated resources.
func (e *Engine) Close() error {
	return nil
}

var fieldTypes = map[domain.FieldType]string{
	domain.FieldText:    "text",
	domain.FieldKeyword: "keyword",
	domain.FieldInteger: "long",
	domain.FieldFloat:   "double",
	domain.FieldDate:    "date",
	domain.FieldBoolean: "boolean",
}

func mappingBody(def domain.IndexDefinition) map[string]any {
	properties := make(map[string]any)
	for _, f := range def.Fields() {
		t, ok := fieldTypes[f.Type]
		if !ok {
			t = "text"
		}
		properties[f.Name] = map[string]string{"type": t}
	}
	return map[string]any{"properties": properties}
}

func indexBody(def domain.IndexDefinition) map[string]any {
	body := map[string]any{"mappings": mappingBody(def)}
	settings := map[string]int{"number_of_replicas": def.Replicas}
	if def.Shards > 0 {
		settings["number_of_shards"] = def.Shards
	}
	body["settings"] = settings
	return body
}

// remoteError is the "error" object of an Elasticsearch error response.
type remoteError struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
	Status int    `json:"-"`
}

func (r remoteError) String() string {
	if r.Type == "" {
		return fmt.Sprintf("status %d", r.Status)
	}
	return fmt.Sprintf("%s: %s (status %d)", r.Type, r.Reason, r.Status)
}

func decodeError(res *esapi.Response) remoteError {
	var body struct {
		Error json.RawMessage `json:"error"`
	}
	re := remoteError{Status: res.StatusCode}
	raw, err := io.ReadAll(res.Body)
	if err != nil || json.Unmarshal(raw, &body) != nil || len(body.Error) == 0 {
		return re
	}
	if json.Unmarshal(body.Error, &re) != nil {
		var reason string
		if json.Unmarshal(body.Error, &reason) == nil {
			re.Reason = reason
		}
	}
	return re
}

func responseError(op string, res *esapi.Response) error {
	return fmt.Errorf("%s: %s", op, decodeError(res))
}
