package services

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/searchsync/internal/adapters/driven/search/memory"
	"github.com/custodia-labs/searchsync/internal/adapters/driven/storage/sqlstore"
	"github.com/custodia-labs/searchsync/internal/core/domain"
	"github.com/custodia-labs/searchsync/internal/core/ports/driven"
	"github.com/custodia-labs/searchsync/internal/core/ports/driving"
)

var testIndices = []domain.IndexDefinition{
	{
		Name: "articles",
		App:  "blog",
		Models: []domain.ModelDefinition{{
			Name:  "Article",
			Table: "article",
			Fields: []domain.FieldDefinition{
				{Name: "title", Type: domain.FieldText},
				{Name: "views", Type: domain.FieldInteger},
			},
		}},
	},
	{
		Name: "comments",
		App:  "blog",
		Models: []domain.ModelDefinition{{
			Name:  "Comment",
			Table: "comment",
			Fields: []domain.FieldDefinition{
				{Name: "body", Type: domain.FieldText},
			},
		}},
	},
}

// testEnv bundles a sqlite database and an in-memory search engine.
type testEnv struct {
	registry *domain.Registry
	search   *memory.Engine
	opener   *sqlstore.Opener
	dsn      string
}

func newTestEnv(t *testing.T, articles, comments int) *testEnv {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "records.db")
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE article (id INTEGER PRIMARY KEY, title TEXT, views INTEGER)`)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE comment (id INTEGER PRIMARY KEY, body TEXT)`)
	require.NoError(t, err)
	for i := 1; i <= articles; i++ {
		_, err = db.Exec(`INSERT INTO article (id, title, views) VALUES (?, ?, ?)`, i, fmt.Sprintf("Article %d", i), i*10)
		require.NoError(t, err)
	}
	for i := 1; i <= comments; i++ {
		_, err = db.Exec(`INSERT INTO comment (id, body) VALUES (?, ?)`, i, fmt.Sprintf("Comment %d", i))
		require.NoError(t, err)
	}

	registry, err := domain.NewRegistry(testIndices)
	require.NoError(t, err)

	return &testEnv{
		registry: registry,
		search:   memory.New(),
		opener:   sqlstore.NewOpener(map[string]sqlstore.Database{"default": {Driver: "sqlite", DSN: dsn}}),
		dsn:      dsn,
	}
}

func (e *testEnv) createIndices(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		idx, ok := e.registry.Index(name)
		require.True(t, ok, name)
		require.NoError(t, e.search.CreateIndex(context.Background(), idx))
	}
}

func (e *testEnv) exec(t *testing.T, query string, args ...any) {
	t.Helper()
	db, err := sql.Open("sqlite", e.dsn)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(query, args...)
	require.NoError(t, err)
}

func (e *testEnv) documents(cfg EngineConfig, defaults DocumentDefaults) *DocumentService {
	return NewDocumentService(e.registry, e.search, e.opener, NewBatchEngine(e.search, cfg), defaults)
}

func (e *testEnv) count(t *testing.T, index string) int {
	t.Helper()
	n, err := e.search.Count(context.Background(), index)
	require.NoError(t, err)
	return n
}

// recordingConfirmer remembers the plans it was asked to approve.
type recordingConfirmer struct {
	answer bool
	plans  []driving.Plan
}

func (c *recordingConfirmer) Confirm(_ context.Context, plan driving.Plan) (bool, error) {
	c.plans = append(c.plans, plan)
	return c.answer, nil
}

// hookQueryset runs a callback after every fetch, letting tests write
// to the table between batches.
type hookQueryset struct {
	driven.Queryset
	afterFetch func()
}

func (q hookQueryset) Filter(set domain.PredicateSet) driven.Queryset {
	return hookQueryset{Queryset: q.Queryset.Filter(set), afterFetch: q.afterFetch}
}

func (q hookQueryset) Exclude(set domain.PredicateSet) driven.Queryset {
	return hookQueryset{Queryset: q.Queryset.Exclude(set), afterFetch: q.afterFetch}
}

func (q hookQueryset) Fetch(ctx context.Context, offset, limit int) ([]domain.Record, error) {
	records, err := q.Queryset.Fetch(ctx, offset, limit)
	q.afterFetch()
	return records, err
}

func (q hookQueryset) FetchAfter(ctx context.Context, after any, limit int) ([]domain.Record, error) {
	records, err := q.Queryset.FetchAfter(ctx, after, limit)
	q.afterFetch()
	return records, err
}

// countingSearch counts concurrent bulk calls.
type countingSearch struct {
	driven.SearchEngine

	mu      sync.Mutex
	active  int
	maxSeen int
	gate    chan struct{}
}

func (s *countingSearch) Bulk(ctx context.Context, index string, ops []driven.BulkOperation, refresh bool) ([]driven.BulkItemResult, error) {
	s.mu.Lock()
	s.active++
	s.maxSeen = max(s.maxSeen, s.active)
	s.mu.Unlock()

	if s.gate != nil {
		<-s.gate
	}
	defer func() {
		s.mu.Lock()
		s.active--
		s.mu.Unlock()
	}()
	return s.SearchEngine.Bulk(ctx, index, ops, refresh)
}

func openStore(t *testing.T, env *testEnv) driven.RecordStore {
	t.Helper()
	store, err := env.opener.Open(context.Background(), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func articleModel(t *testing.T, env *testEnv) domain.ModelDefinition {
	t.Helper()
	m, ok := env.registry.Model("article")
	require.True(t, ok)
	return m
}

func collect(t *testing.T, batches BatchSeq) []domain.Batch {
	t.Helper()
	var out []domain.Batch
	for b, err := range batches {
		require.NoError(t, err)
		out = append(out, b)
	}
	return out
}

func pks(batch domain.Batch) []string {
	ids := make([]string, len(batch.Records))
	for i, r := range batch.Records {
		ids[i] = r.DocumentID()
	}
	return ids
}
