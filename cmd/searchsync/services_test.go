package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/searchsync/internal/core/domain"
	"github.com/custodia-labs/searchsync/internal/core/ports/driving"
)

const wiringConfig = `
[search]
engine = "bleve"
path = "indices"

[databases.default]
driver = "sqlite"
dsn = "%s"

[[indices]]
name = "articles"
app = "blog"

  [[indices.models]]
  name = "Article"
  fields = [{ name = "title" }, { name = "views", type = "integer" }]
`

func setupWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dsn := filepath.Join(dir, "app.db")

	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(`CREATE TABLE article (id INTEGER PRIMARY KEY, title TEXT, views INTEGER)`)
	require.NoError(t, err)
	for i := 1; i <= 5; i++ {
		_, err = db.Exec(`INSERT INTO article (id, title, views) VALUES (?, ?, ?)`, i, fmt.Sprintf("post %d", i), i*10)
		require.NoError(t, err)
	}

	path := filepath.Join(dir, "searchsync.toml")
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(wiringConfig, dsn)), 0o600))
	return path
}

func TestBuildServices_EndToEnd(t *testing.T) {
	ctx := context.Background()
	path := setupWorkspace(t)

	svc, err := buildServices(ctx, path)
	require.NoError(t, err)
	defer func() { assert.NoError(t, svc.Close()) }()

	var outcomes []driving.IndexOutcome
	err = svc.Indices.Apply(ctx, driving.IndexRequest{Action: domain.ActionCreate}, driving.AlwaysConfirm,
		func(o driving.IndexOutcome) { outcomes = append(outcomes, o) })
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.NoError(t, outcomes[0].Err)

	results, err := svc.Documents.Run(ctx, driving.DocumentRequest{
		Action:    domain.ActionIndex,
		Filters:   domain.PredicateSet{{Lookup: "views__gte", Value: int64(20)}},
		BatchSize: 2,
		Refresh:   true,
	}, driving.AlwaysConfirm, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 4, results[0].Result.Success)
	assert.Empty(t, results[0].Result.Errors)

	statuses, err := svc.Indices.List(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, driving.IndexStatus{Name: "articles", App: "blog", Exists: true, Count: 4}, statuses[0])
}

func TestBuildServices_MissingConfig(t *testing.T) {
	_, err := buildServices(context.Background(), filepath.Join(t.TempDir(), "absent.toml"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNewSearchEngine_Memory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "searchsync.toml")
	require.NoError(t, os.WriteFile(path, []byte("[search]\nengine = \"memory\"\n"), 0o600))

	svc, err := buildServices(context.Background(), path)
	require.NoError(t, err)

	statuses, err := svc.Indices.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, statuses)
	assert.NoError(t, svc.Close())
}
