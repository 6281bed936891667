// Package persistence provides the storage abstraction for generated graphs.
package persistence

import (
	"context"
	"time"

	"github.com/dukex/flowgen/pkg/models"
)

// ListOptions controls pagination when listing stored graphs.
type ListOptions struct {
	Limit  int
	Offset int
}

// Normalize applies the default page size and clamps invalid values.
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 || o.Limit > MaxListLimit {
		o.Limit = DefaultListLimit
	}

	if o.Offset < 0 {
		o.Offset = 0
	}

	return o
}

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// ListResult is one page of stored graphs, newest first.
type ListResult struct {
	Graphs      []*models.StoredGraph `json:"graphs"`
	TotalCount  int64                 `json:"total_count"`
	HasNextPage bool                  `json:"has_next_page"`
}

type Persistence interface {
	SaveGraph(ctx context.Context, graph *models.StoredGraph) error
	GraphByID(ctx context.Context, id string) (*models.StoredGraph, error)
	Graphs(ctx context.Context, opts ListOptions) (*ListResult, error)
	DeleteGraph(ctx context.Context, id string) error
	// DeleteOlderThan removes graphs created before cutoff and returns how many were removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}

// Page slices graphs (already sorted newest first) according to opts.
func Page(graphs []*models.StoredGraph, opts ListOptions) *ListResult {
	opts = opts.Normalize()
	total := len(graphs)

	start := min(opts.Offset, total)
	end := min(start+opts.Limit, total)

	page := make([]*models.StoredGraph, end-start)
	copy(page, graphs[start:end])

	return &ListResult{
		Graphs:      page,
		TotalCount:  int64(total),
		HasNextPage: end < total,
	}
}
