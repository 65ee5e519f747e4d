//go:build integration

package elastic

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/custodia-labs/searchsync/internal/core/domain"
	"github.com/custodia-labs/searchsync/internal/core/ports/driven"
)

func startCluster(t *testing.T) *Engine {
	t.Helper()
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "docker.elastic.co/elasticsearch/elasticsearch:9.1.0",
			ExposedPorts: []string{"9200/tcp"},
			Env: map[string]string{
				"discovery.type":         "single-node",
				"xpack.security.enabled": "false",
				"ES_JAVA_OPTS":           "-Xms512m -Xmx512m",
			},
			WaitingFor: wait.ForHTTP("/").WithPort("9200/tcp").WithStartupTimeout(3 * time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	if host == "" || host == "null" {
		host = "localhost"
	}
	port, err := container.MappedPort(ctx, "9200")
	require.NoError(t, err)

	engine, err := New(Config{Addresses: []string{fmt.Sprintf("http://%s:%s", host, port.Port())}})
	require.NoError(t, err)
	return engine
}

func TestIntegration_IndexAndScan(t *testing.T) {
	engine := startCluster(t)
	ctx := context.Background()

	def := newsIndex
	def.Shards, def.Replicas = 1, 0
	require.NoError(t, engine.CreateIndex(ctx, def))
	assert.ErrorIs(t, engine.CreateIndex(ctx, def), domain.ErrAlreadyExists)

	ops := []driven.BulkOperation{
		{Action: domain.ActionIndex, ID: "1", Document: map[string]any{"title": "a", "views": 1}},
		{Action: domain.ActionIndex, ID: "2", Document: map[string]any{"title": "b", "views": 2}},
		{Action: domain.ActionUpdate, ID: "3", Document: map[string]any{"title": "c"}},
	}
	items, err := engine.Bulk(ctx, def.Name, ops, true)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.False(t, items[0].Failed())
	assert.Equal(t, "document_missing_exception", items[2].Reason())

	n, err := engine.Count(ctx, def.Name)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ids, err := engine.ScanIDs(ctx, def.Name)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1", "2"}, ids)

	require.NoError(t, engine.UpdateIndex(ctx, def))
	require.NoError(t, engine.DeleteIndex(ctx, def.Name))
	assert.ErrorIs(t, engine.DeleteIndex(ctx, def.Name), domain.ErrNotFound)
}
