package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/searchsync/internal/core/domain"
	"github.com/custodia-labs/searchsync/internal/core/ports/driving"
)

func TestIndexCmd_Use(t *testing.T) {
	assert.Equal(t, "index {create,delete,rebuild,update} [INDEX...]", indexCmd.Use)
}

func TestIndexCmd_HasFlags(t *testing.T) {
	assert.NotNil(t, indexCmd.Flags().Lookup("force"))
	assert.NotNil(t, indexCmd.Flags().Lookup("ignore-error"))
}

func TestIndexCmd_CreateWithForce(t *testing.T) {
	indices, _, cleanup := setupTestServices()
	defer cleanup()
	indices.outcomes = []driving.IndexOutcome{
		{Index: "articles", Action: domain.ActionCreate},
	}

	out, err := execute("index", "create", "articles", "--force")

	require.NoError(t, err)
	require.Len(t, indices.requests, 1)
	assert.Equal(t, domain.ActionCreate, indices.requests[0].Action)
	assert.Equal(t, []string{"articles"}, indices.requests[0].Names)
	assert.Contains(t, out, "The following indices will be created:\n\t- articles.\n\n")
	assert.Contains(t, out, "Creating index 'articles'... OK")
	assert.NotContains(t, out, "Continue ?")
}

func TestIndexCmd_AllIndicesWhenNoneNamed(t *testing.T) {
	indices, _, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("index", "delete", "--force")

	require.NoError(t, err)
	require.Len(t, indices.requests, 1)
	assert.Empty(t, indices.requests[0].Names)
}

func TestIndexCmd_PromptAccepted(t *testing.T) {
	indices, _, cleanup := setupTestServices()
	defer cleanup()
	input = strings.NewReader("maybe\nyes\n")
	indices.outcomes = []driving.IndexOutcome{
		{Index: "articles", Action: domain.ActionRebuild},
	}

	out, err := execute("index", "rebuild", "articles")

	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "Continue ? [y]es [n]o : "))
	assert.Contains(t, out, "Rebuilding index 'articles'... OK")
}

func TestIndexCmd_PromptDeclined(t *testing.T) {
	indices, _, cleanup := setupTestServices()
	defer cleanup()
	input = strings.NewReader("n\n")
	indices.outcomes = []driving.IndexOutcome{
		{Index: "articles", Action: domain.ActionDelete},
	}

	out, err := execute("index", "delete", "articles")

	assert.ErrorIs(t, err, domain.ErrAborted)
	assert.NotContains(t, out, "Deleting index")
}

func TestIndexCmd_IgnoreErrorPassedThrough(t *testing.T) {
	indices, _, cleanup := setupTestServices()
	defer cleanup()
	indices.outcomes = []driving.IndexOutcome{
		{Index: "a", Action: domain.ActionCreate, Err: domain.ErrAlreadyExists},
		{Index: "b", Action: domain.ActionCreate},
	}

	out, err := execute("index", "create", "--force", "--ignore-error")

	require.NoError(t, err)
	assert.True(t, indices.requests[0].IgnoreError)
	assert.Contains(t, out, "Creating index 'a'... Error\n    already exists\n")
	assert.Contains(t, out, "Creating index 'b'... OK")
}

func TestIndexCmd_InvalidAction(t *testing.T) {
	indices, _, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("index", "index", "--force")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, indices.requests)
}

func TestIndexCmd_ServiceError(t *testing.T) {
	indices, _, cleanup := setupTestServices()
	defer cleanup()
	indices.err = errors.New("engine down")

	_, err := execute("index", "update", "--force")

	assert.EqualError(t, err, "engine down")
}
