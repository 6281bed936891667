// Package file provides file-based persistence for generated graphs.
package file

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/dukex/flowgen/pkg/models"
	"github.com/dukex/flowgen/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root      string
	graphRepo *GraphRepository
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) persistence.Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:      cleanRoot,
		graphRepo: NewGraphRepository(cleanRoot),
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) SaveGraph(ctx context.Context, graph *models.StoredGraph) error {
	return fp.graphRepo.Save(ctx, graph)
}

func (fp *Persistence) GraphByID(ctx context.Context, id string) (*models.StoredGraph, error) {
	return fp.graphRepo.GetByID(ctx, id)
}

func (fp *Persistence) Graphs(ctx context.Context, opts persistence.ListOptions) (*persistence.ListResult, error) {
	all, err := fp.graphRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	return persistence.Page(all, opts), nil
}

func (fp *Persistence) DeleteGraph(ctx context.Context, id string) error {
	return fp.graphRepo.Delete(ctx, id)
}

func (fp *Persistence) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	return fp.graphRepo.DeleteOlderThan(ctx, cutoff)
}
