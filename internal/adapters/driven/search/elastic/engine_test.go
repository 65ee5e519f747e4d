package elastic

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/searchsync/internal/core/domain"
	"github.com/custodia-labs/searchsync/internal/core/ports/driven"
)

// fakeCluster records requests and answers with canned responses.
type fakeCluster struct {
	mu       sync.Mutex
	requests []string
	bodies   map[string]string
	handle   func(w http.ResponseWriter, r *http.Request, body string)
}

func newFakeCluster(t *testing.T, handle func(w http.ResponseWriter, r *http.Request, body string)) (*Engine, *fakeCluster) {
	t.Helper()
	fc := &fakeCluster{bodies: map[string]string{}, handle: handle}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		key := r.Method + " " + r.URL.Path
		fc.mu.Lock()
		fc.requests = append(fc.requests, key)
		fc.bodies[key] = string(raw)
		fc.mu.Unlock()

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		fc.handle(w, r, string(raw))
	}))
	t.Cleanup(srv.Close)

	engine, err := New(Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return engine, fc
}

func (fc *fakeCluster) body(key string) string {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.bodies[key]
}

var newsIndex = domain.IndexDefinition{
	Name:     "news",
	Shards:   2,
	Replicas: 1,
	Models: []domain.ModelDefinition{{
		Name: "Article",
		Fields: []domain.FieldDefinition{
			{Name: "title", Type: domain.FieldText},
			{Name: "views", Type: domain.FieldInteger},
			{Name: "score", Type: domain.FieldFloat},
		},
	}},
}

func TestEngine_IndexExists(t *testing.T) {
	engine, _ := newFakeCluster(t, func(w http.ResponseWriter, r *http.Request, _ string) {
		if r.URL.Path == "/news" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	ctx := context.Background()

	exists, err := engine.IndexExists(ctx, "news")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = engine.IndexExists(ctx, "other")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestEngine_CreateIndexSendsMapping(t *testing.T) {
	engine, fc := newFakeCluster(t, func(w http.ResponseWriter, _ *http.Request, _ string) {
		_, _ = io.WriteString(w, `{"acknowledged":true}`)
	})

	require.NoError(t, engine.CreateIndex(context.Background(), newsIndex))

	var body struct {
		Settings map[string]int `json:"settings"`
		Mappings struct {
			Properties map[string]map[string]string `json:"properties"`
		} `json:"mappings"`
	}
	require.NoError(t, json.Unmarshal([]byte(fc.body("PUT /news")), &body))
	assert.Equal(t, 2, body.Settings["number_of_shards"])
	assert.Equal(t, 1, body.Settings["number_of_replicas"])
	assert.Equal(t, "text", body.Mappings.Properties["title"]["type"])
	assert.Equal(t, "long", body.Mappings.Properties["views"]["type"])
	assert.Equal(t, "double", body.Mappings.Properties["score"]["type"])
}

func TestEngine_CreateIndexAlreadyExists(t *testing.T) {
	engine, _ := newFakeCluster(t, func(w http.ResponseWriter, _ *http.Request, _ string) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"type":"resource_already_exists_exception","reason":"index [news] already exists"},"status":400}`)
	})

	err := engine.CreateIndex(context.Background(), newsIndex)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestEngine_DeleteMissingIndex(t *testing.T) {
	engine, _ := newFakeCluster(t, func(w http.ResponseWriter, _ *http.Request, _ string) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"type":"index_not_found_exception","reason":"no such index"},"status":404}`)
	})

	err := engine.DeleteIndex(context.Background(), "news")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEngine_Count(t *testing.T) {
	engine, _ := newFakeCluster(t, func(w http.ResponseWriter, _ *http.Request, _ string) {
		_, _ = io.WriteString(w, `{"count":42}`)
	})

	n, err := engine.Count(context.Background(), "news")
	require.NoError(t, err)
	assert.Equal(t, 42, n)
}

func TestEngine_BulkParsesItems(t *testing.T) {
	engine, fc := newFakeCluster(t, func(w http.ResponseWriter, _ *http.Request, _ string) {
		_, _ = io.WriteString(w, `{"errors":true,"items":[
			{"index":{"_id":"1","status":201,"result":"created"}},
			{"update":{"_id":"2","status":404,"error":{"type":"document_missing_exception","reason":"[2]: document missing"}}},
			{"delete":{"_id":"3","status":404,"result":"not_found"}}
		]}`)
	})

	ops := []driven.BulkOperation{
		{Action: domain.ActionIndex, ID: "1", Document: map[string]any{"title": "a"}},
		{Action: domain.ActionUpdate, ID: "2", Document: map[string]any{"title": "b"}},
		{Action: domain.ActionDelete, ID: "3"},
	}
	items, err := engine.Bulk(context.Background(), "news", ops, true)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.False(t, items[0].Failed())
	assert.True(t, items[1].Failed())
	assert.Equal(t, "document_missing_exception", items[1].Reason())
	assert.True(t, items[2].Failed())
	assert.Equal(t, "not_found", items[2].Reason())

	lines := readLines(t, fc.body("POST /news/_bulk"))
	require.Len(t, lines, 5)
	assert.JSONEq(t, `{"index":{"_id":"1"}}`, lines[0])
	assert.JSONEq(t, `{"title":"a"}`, lines[1])
	assert.JSONEq(t, `{"update":{"_id":"2"}}`, lines[2])
	assert.JSONEq(t, `{"doc":{"title":"b"}}`, lines[3])
	assert.JSONEq(t, `{"delete":{"_id":"3"}}`, lines[4])
}

func TestEngine_BulkRequestFailure(t *testing.T) {
	engine, _ := newFakeCluster(t, func(w http.ResponseWriter, _ *http.Request, _ string) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"type":"illegal_argument_exception","reason":"bad"},"status":400}`)
	})

	_, err := engine.Bulk(context.Background(), "news", []driven.BulkOperation{{Action: domain.ActionDelete, ID: "1"}}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "illegal_argument_exception")
}

func TestEngine_ScanIDsScrolls(t *testing.T) {
	var calls int
	engine, fc := newFakeCluster(t, func(w http.ResponseWriter, r *http.Request, _ string) {
		switch {
		case r.Method == http.MethodDelete:
			_, _ = io.WriteString(w, `{"succeeded":true}`)
		case strings.HasSuffix(r.URL.Path, "/_search"):
			_, _ = io.WriteString(w, `{"_scroll_id":"s1","hits":{"hits":[{"_id":"1"},{"_id":"2"}]}}`)
		default:
			calls++
			if calls == 1 {
				_, _ = io.WriteString(w, `{"_scroll_id":"s1","hits":{"hits":[{"_id":"3"}]}}`)
				return
			}
			_, _ = io.WriteString(w, `{"_scroll_id":"s1","hits":{"hits":[]}}`)
		}
	})

	ids, err := engine.ScanIDs(context.Background(), "news")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, ids)

	fc.mu.Lock()
	defer fc.mu.Unlock()
	cleared := false
	for _, req := range fc.requests {
		if strings.HasPrefix(req, "DELETE /_search/scroll") {
			cleared = true
		}
	}
	assert.True(t, cleared, "scroll context should be cleared")
}

func readLines(t *testing.T, body string) []string {
	t.Helper()
	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	require.NoError(t, scanner.Err())
	return lines
}
