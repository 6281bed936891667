package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dukex/flowgen/pkg/models"
	"github.com/dukex/flowgen/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storedGraph(id string, createdAt time.Time) *models.StoredGraph {
	return &models.StoredGraph{
		ID:          id,
		Explanation: "1. Review (Human)",
		Options:     models.GenerationOptions{Platform: models.PlatformMS365},
		Graph: &models.GeneratedGraph{
			Name: "MS365 Automated Workflow",
			Nodes: []*models.GraphNode{
				{ID: models.TriggerNodeID, Name: models.TriggerNodeName, Type: "n8n-nodes-base.webhook", Role: models.RoleTrigger},
				{ID: models.ResponseNodeID, Name: models.ResponseNodeName, Type: "n8n-nodes-base.respondToWebhook", Role: models.RoleResponse},
			},
			Connections: models.Connections{models.TriggerNodeID: {{Node: models.ResponseNodeID}}},
		},
		CreatedAt: createdAt,
	}
}

func TestNewPersistence(t *testing.T) {
	p := NewPersistence("/tmp/test")
	fp := p.(*Persistence)
	assert.Equal(t, "/tmp/test", fp.root)

	p = NewPersistence("file:///tmp/test")
	fp = p.(*Persistence)
	assert.Equal(t, "/tmp/test", fp.root)
}

func TestPersistence_Close(t *testing.T) {
	p := NewPersistence("./test-data")
	assert.NoError(t, p.Close(t.Context()))
}

func TestPersistence_HealthCheck(t *testing.T) {
	assert.NoError(t, NewPersistence(t.TempDir()).HealthCheck(t.Context()))
	assert.ErrorIs(t, NewPersistence(filepath.Join(t.TempDir(), "missing")).HealthCheck(t.Context()), os.ErrNotExist)
}

func TestPersistence_SaveAndGet(t *testing.T) {
	testDir := t.TempDir()
	p := NewPersistence(testDir)

	graph := storedGraph("graph-1", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, p.SaveGraph(t.Context(), graph))

	_, err := os.Stat(filepath.Join(testDir, "graphs", "graph-1.json"))
	require.NoError(t, err)

	loaded, err := p.GraphByID(t.Context(), "graph-1")
	require.NoError(t, err)
	assert.Equal(t, graph, loaded)
}

func TestPersistence_SaveSetsCreatedAt(t *testing.T) {
	p := NewPersistence(t.TempDir())

	graph := storedGraph("graph-1", time.Time{})
	require.NoError(t, p.SaveGraph(t.Context(), graph))
	assert.False(t, graph.CreatedAt.IsZero())
}

func TestPersistence_InvalidIDs(t *testing.T) {
	p := NewPersistence(t.TempDir())

	require.ErrorIs(t, p.SaveGraph(t.Context(), storedGraph("../escape", time.Now())), persistence.ErrInvalidGraph)
	require.ErrorIs(t, p.SaveGraph(t.Context(), nil), persistence.ErrInvalidGraph)

	_, err := p.GraphByID(t.Context(), "../escape")
	require.ErrorIs(t, err, persistence.ErrGraphNotFound)
}

func TestPersistence_NotFound(t *testing.T) {
	p := NewPersistence(t.TempDir())

	_, err := p.GraphByID(t.Context(), "missing")
	assert.True(t, persistence.IsGraphNotFound(err))

	err = p.DeleteGraph(t.Context(), "missing")
	assert.True(t, persistence.IsGraphNotFound(err))
}

func TestPersistence_ListNewestFirst(t *testing.T) {
	p := NewPersistence(t.TempDir())
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	empty, err := p.Graphs(t.Context(), persistence.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, empty.Graphs)

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, p.SaveGraph(t.Context(), storedGraph(id, base.Add(time.Duration(i)*time.Hour))))
	}

	result, err := p.Graphs(t.Context(), persistence.ListOptions{Limit: 2})
	require.NoError(t, err)
	require.Len(t, result.Graphs, 2)
	assert.Equal(t, "c", result.Graphs[0].ID)
	assert.Equal(t, "b", result.Graphs[1].ID)
	assert.Equal(t, int64(3), result.TotalCount)
	assert.True(t, result.HasNextPage)
}

func TestPersistence_DeleteOlderThan(t *testing.T) {
	p := NewPersistence(t.TempDir())
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, p.SaveGraph(t.Context(), storedGraph("old", base)))
	require.NoError(t, p.SaveGraph(t.Context(), storedGraph("new", base.Add(48*time.Hour))))

	removed, err := p.DeleteOlderThan(t.Context(), base.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = p.GraphByID(t.Context(), "old")
	assert.True(t, persistence.IsGraphNotFound(err))

	_, err = p.GraphByID(t.Context(), "new")
	assert.NoError(t, err)

	require.NoError(t, p.DeleteGraph(t.Context(), "new"))
}

func TestPersistence_DeleteOlderThanCountsOnlyRemovedFiles(t *testing.T) {
	root := t.TempDir()
	p := NewPersistence(root)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, p.SaveGraph(t.Context(), storedGraph("old", base)))

	data, err := os.ReadFile(filepath.Join(root, graphsDir, "old.json"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, graphsDir, "old-copy.json"), data, 0600))

	removed, err := p.DeleteOlderThan(t.Context(), base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}
