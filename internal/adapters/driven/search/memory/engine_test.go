package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/searchsync/internal/core/domain"
	"github.com/custodia-labs/searchsync/internal/core/ports/driven"
)

func newEngineWithIndex(t *testing.T) *Engine {
	t.Helper()
	engine := New()
	require.NoError(t, engine.CreateIndex(context.Background(), domain.IndexDefinition{Name: "news"}))
	return engine
}

func TestNew(t *testing.T) {
	engine := New()
	require.NotNil(t, engine)
	assert.NotNil(t, engine.indices)
}

func TestEngine_CreateIndex_AlreadyExists(t *testing.T) {
	engine := newEngineWithIndex(t)

	err := engine.CreateIndex(context.Background(), domain.IndexDefinition{Name: "news"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestEngine_DeleteIndex_NotFound(t *testing.T) {
	engine := New()

	err := engine.DeleteIndex(context.Background(), "news")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEngine_Bulk_IndexUpdateDelete(t *testing.T) {
	engine := newEngineWithIndex(t)
	ctx := context.Background()

	items, err := engine.Bulk(ctx, "news", []driven.BulkOperation{
		{Action: domain.ActionIndex, ID: "1", Document: map[string]any{"title": "a", "views": 1}},
		{Action: domain.ActionUpdate, ID: "1", Document: map[string]any{"title": "b"}},
		{Action: domain.ActionUpdate, ID: "2", Document: map[string]any{"title": "c"}},
		{Action: domain.ActionDelete, ID: "3"},
	}, true)
	require.NoError(t, err)
	require.Len(t, items, 4)

	assert.Equal(t, "created", items[0].Result)
	assert.Equal(t, "updated", items[1].Result)
	assert.Equal(t, "document_missing_exception", items[2].Reason())
	assert.Equal(t, "not_found", items[3].Reason())

	doc, ok := engine.Document("news", "1")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"title": "b", "views": 1}, doc)
}

func TestEngine_Bulk_Reject(t *testing.T) {
	engine := newEngineWithIndex(t)
	engine.Reject = func(_ string, op driven.BulkOperation) string {
		if op.ID == "2" {
			return "mapper_parsing_exception"
		}
		return ""
	}

	items, err := engine.Bulk(context.Background(), "news", []driven.BulkOperation{
		{Action: domain.ActionIndex, ID: "1", Document: map[string]any{}},
		{Action: domain.ActionIndex, ID: "2", Document: map[string]any{}},
	}, false)
	require.NoError(t, err)
	assert.False(t, items[0].Failed())
	assert.True(t, items[1].Failed())
	assert.Equal(t, "mapper_parsing_exception", items[1].Reason())

	n, err := engine.Count(context.Background(), "news")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestEngine_Bulk_FailBulk(t *testing.T) {
	engine := newEngineWithIndex(t)
	engine.FailBulk = errors.New("connection refused")

	_, err := engine.Bulk(context.Background(), "news", []driven.BulkOperation{{Action: domain.ActionDelete, ID: "1"}}, false)
	assert.EqualError(t, err, "connection refused")
	assert.Equal(t, 1, engine.BulkCalls())
}

func TestEngine_ScanIDs_Sorted(t *testing.T) {
	engine := newEngineWithIndex(t)
	ctx := context.Background()

	_, err := engine.Bulk(ctx, "news", []driven.BulkOperation{
		{Action: domain.ActionIndex, ID: "b", Document: map[string]any{}},
		{Action: domain.ActionIndex, ID: "a", Document: map[string]any{}},
	}, false)
	require.NoError(t, err)

	ids, err := engine.ScanIDs(ctx, "news")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestEngine_ConcurrentBulk(t *testing.T) {
	engine := newEngineWithIndex(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, _ = engine.Bulk(ctx, "news", []driven.BulkOperation{
				{Action: domain.ActionIndex, ID: domain.FormatID(int64(n)), Document: map[string]any{}},
			}, false)
		}(i)
	}
	wg.Wait()

	n, err := engine.Count(ctx, "news")
	require.NoError(t, err)
	assert.Equal(t, 50, n)
	assert.Equal(t, 50, engine.BulkCalls())
}
