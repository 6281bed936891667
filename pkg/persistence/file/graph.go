package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dukex/flowgen/pkg/models"
	"github.com/dukex/flowgen/pkg/persistence"
)

const graphsDir = "graphs"

// GraphRepository handles graph-related file operations.
type GraphRepository struct {
	root string // File system root for storing graphs
}

// NewGraphRepository creates a new graph repository.
func NewGraphRepository(root string) *GraphRepository {
	return &GraphRepository{root: root}
}

// GetAll loads every stored graph, newest first.
func (gr *GraphRepository) GetAll(ctx context.Context) ([]*models.StoredGraph, error) {
	root := os.DirFS(path.Join(gr.root, graphsDir))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list graph files: %w", err)
	}

	graphs := make([]*models.StoredGraph, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		graph, err := gr.GetByID(ctx, strings.TrimSuffix(file, ".json"))
		if err != nil {
			if persistence.IsGraphNotFound(err) {
				continue
			}

			return nil, err
		}

		graphs = append(graphs, graph)
	}

	sort.SliceStable(graphs, func(i, j int) bool {
		if graphs[i].CreatedAt.Equal(graphs[j].CreatedAt) {
			return graphs[i].ID < graphs[j].ID
		}

		return graphs[i].CreatedAt.After(graphs[j].CreatedAt)
	})

	return graphs, nil
}

// GetByID retrieves a graph by its ID from the file system.
func (gr *GraphRepository) GetByID(_ context.Context, graphID string) (*models.StoredGraph, error) {
	if !validID(graphID) {
		return nil, persistence.NewGraphError("GraphByID", graphID, persistence.ErrGraphNotFound)
	}

	body, err := os.ReadFile(gr.filePath(graphID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewGraphError("GraphByID", graphID, persistence.ErrGraphNotFound)
		}

		return nil, fmt.Errorf("failed to fetch graph %s: %w", graphID, err)
	}

	var graph models.StoredGraph

	err = json.Unmarshal(body, &graph)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal graph %s: %w", graphID, err)
	}

	return &graph, nil
}

// Save writes a graph to the file system.
func (gr *GraphRepository) Save(_ context.Context, graph *models.StoredGraph) error {
	if graph == nil || !validID(graph.ID) {
		return persistence.NewGraphError("SaveGraph", "", persistence.ErrInvalidGraph)
	}

	err := os.MkdirAll(path.Join(gr.root, graphsDir), 0750)
	if err != nil {
		return fmt.Errorf("failed to create graphs directory: %w", err)
	}

	if graph.CreatedAt.IsZero() {
		graph.CreatedAt = time.Now().UTC()
	}

	data, err := json.MarshalIndent(graph, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal graph %s: %w", graph.ID, err)
	}

	return os.WriteFile(gr.filePath(graph.ID), data, 0600)
}

// Delete removes a graph by its ID.
func (gr *GraphRepository) Delete(_ context.Context, id string) error {
	if !validID(id) {
		return persistence.NewGraphError("DeleteGraph", id, persistence.ErrGraphNotFound)
	}

	err := os.Remove(gr.filePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return persistence.NewGraphError("DeleteGraph", id, persistence.ErrGraphNotFound)
		}

		return fmt.Errorf("failed to delete graph %s: %w", id, err)
	}

	return nil
}

// DeleteOlderThan removes graphs created before cutoff.
func (gr *GraphRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	graphs, err := gr.GetAll(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0

	for _, graph := range graphs {
		if !graph.CreatedAt.Before(cutoff) {
			continue
		}

		err := gr.Delete(ctx, graph.ID)
		if persistence.IsGraphNotFound(err) {
			continue
		}

		if err != nil {
			return removed, err
		}

		removed++
	}

	return removed, nil
}

func (gr *GraphRepository) filePath(id string) string {
	return filepath.Clean(path.Join(gr.root, graphsDir, id+".json"))
}

// validID rejects ids that could escape the graphs directory.
func validID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\`) && id != "." && id != ".."
}
