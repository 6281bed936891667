// Package memory provides an in-process persistence implementation for generated graphs.
package memory

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/dukex/flowgen/pkg/models"
	"github.com/dukex/flowgen/pkg/persistence"
)

// Persistence keeps graphs in a map guarded by a mutex. Graphs are copied on
// the way in and out, so callers never share memory with the store.
type Persistence struct {
	mu     sync.RWMutex
	graphs map[string]*models.StoredGraph
}

// NewPersistence creates an empty in-memory store.
func NewPersistence() *Persistence {
	return &Persistence{graphs: make(map[string]*models.StoredGraph)}
}

func (p *Persistence) SaveGraph(_ context.Context, graph *models.StoredGraph) error {
	if graph == nil || graph.ID == "" {
		return persistence.NewGraphError("SaveGraph", "", persistence.ErrInvalidGraph)
	}

	stored, err := clone(graph)
	if err != nil {
		return persistence.NewGraphError("SaveGraph", graph.ID, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.graphs[graph.ID] = stored

	return nil
}

func (p *Persistence) GraphByID(_ context.Context, id string) (*models.StoredGraph, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	graph, ok := p.graphs[id]
	if !ok {
		return nil, persistence.NewGraphError("GraphByID", id, persistence.ErrGraphNotFound)
	}

	return clone(graph)
}

func (p *Persistence) Graphs(_ context.Context, opts persistence.ListOptions) (*persistence.ListResult, error) {
	p.mu.RLock()
	all := make([]*models.StoredGraph, 0, len(p.graphs))
	for _, graph := range p.graphs {
		all = append(all, graph)
	}
	p.mu.RUnlock()

	slices.SortFunc(all, newestFirst)

	result := persistence.Page(all, opts)
	for i, graph := range result.Graphs {
		copied, err := clone(graph)
		if err != nil {
			return nil, err
		}

		result.Graphs[i] = copied
	}

	return result, nil
}

func (p *Persistence) DeleteGraph(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.graphs[id]; !ok {
		return persistence.NewGraphError("DeleteGraph", id, persistence.ErrGraphNotFound)
	}

	delete(p.graphs, id)

	return nil
}

func (p *Persistence) DeleteOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	removed := 0

	for id, graph := range p.graphs {
		if graph.CreatedAt.Before(cutoff) {
			delete(p.graphs, id)
			removed++
		}
	}

	return removed, nil
}

func (p *Persistence) HealthCheck(_ context.Context) error {
	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	return nil
}

func newestFirst(a, b *models.StoredGraph) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}

	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	default:
		return 0
	}
}

// clone deep-copies graph through its JSON form, matching what the file and
// redis stores hand back.
func clone(graph *models.StoredGraph) (*models.StoredGraph, error) {
	data, err := json.Marshal(graph)
	if err != nil {
		return nil, err
	}

	var out models.StoredGraph
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}

	return &out, nil
}
