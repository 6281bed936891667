package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/flowgen/pkg/models"
	"github.com/dukex/flowgen/pkg/persistence"
	"github.com/google/uuid"
)

// GraphRepository handles graph-related database operations.
type GraphRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewGraphRepository creates a new graph repository.
func NewGraphRepository(db *sql.DB, logger *slog.Logger) *GraphRepository {
	return &GraphRepository{db: db, logger: logger}
}

// Save inserts or replaces a graph.
func (r *GraphRepository) Save(ctx context.Context, graph *models.StoredGraph) error {
	if graph == nil || graph.Graph == nil {
		return persistence.NewGraphError("SaveGraph", "", persistence.ErrInvalidGraph)
	}

	if _, err := uuid.Parse(graph.ID); err != nil {
		return persistence.NewGraphError("SaveGraph", graph.ID, persistence.ErrInvalidGraph)
	}

	if graph.CreatedAt.IsZero() {
		graph.CreatedAt = time.Now().UTC()
	}

	body, err := json.Marshal(graph.Graph)
	if err != nil {
		return fmt.Errorf("failed to marshal graph %s: %w", graph.ID, err)
	}

	query := `
		INSERT INTO generated_graphs (id, name, explanation, platform, approach, graph, node_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name
		  , explanation = EXCLUDED.explanation
		  , platform = EXCLUDED.platform
		  , approach = EXCLUDED.approach
		  , graph = EXCLUDED.graph
		  , node_count = EXCLUDED.node_count
	`

	_, err = r.db.ExecContext(ctx, query,
		graph.ID,
		graph.Graph.Name,
		graph.Explanation,
		string(graph.Options.Platform),
		string(graph.Options.Approach),
		body,
		len(graph.Graph.Nodes),
		graph.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save graph %s: %w", graph.ID, err)
	}

	return nil
}

// GetByID returns a graph by its ID.
func (r *GraphRepository) GetByID(ctx context.Context, id string) (*models.StoredGraph, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, persistence.NewGraphError("GraphByID", id, persistence.ErrGraphNotFound)
	}

	query := `
		SELECT
			id
		  , explanation
		  , platform
		  , approach
		  , graph
		  , created_at
		FROM generated_graphs
		WHERE id = $1
	`

	graph, err := scanGraph(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewGraphError("GraphByID", id, persistence.ErrGraphNotFound)
		}

		return nil, fmt.Errorf("failed to get graph %s: %w", id, err)
	}

	return graph, nil
}

// List returns one page of graphs, newest first.
func (r *GraphRepository) List(ctx context.Context, opts persistence.ListOptions) (*persistence.ListResult, error) {
	opts = opts.Normalize()

	var total int64

	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM generated_graphs").Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("failed to count graphs: %w", err)
	}

	query := `
		SELECT
			id
		  , explanation
		  , platform
		  , approach
		  , graph
		  , created_at
		FROM generated_graphs
		ORDER BY created_at DESC, id ASC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query graphs: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	graphs := make([]*models.StoredGraph, 0, opts.Limit)

	for rows.Next() {
		graph, err := scanGraph(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan graph: %w", err)
		}

		graphs = append(graphs, graph)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate graphs: %w", err)
	}

	return &persistence.ListResult{
		Graphs:      graphs,
		TotalCount:  total,
		HasNextPage: int64(opts.Offset+len(graphs)) < total,
	}, nil
}

// Delete removes a graph by its ID.
func (r *GraphRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return persistence.NewGraphError("DeleteGraph", id, persistence.ErrGraphNotFound)
	}

	result, err := r.db.ExecContext(ctx, "DELETE FROM generated_graphs WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete graph %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if affected == 0 {
		return persistence.NewGraphError("DeleteGraph", id, persistence.ErrGraphNotFound)
	}

	return nil
}

// DeleteOlderThan removes graphs created before cutoff.
func (r *GraphRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM generated_graphs WHERE created_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune graphs: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(affected), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGraph(row scanner) (*models.StoredGraph, error) {
	var (
		stored   models.StoredGraph
		platform string
		approach string
		body     []byte
	)

	err := row.Scan(&stored.ID, &stored.Explanation, &platform, &approach, &body, &stored.CreatedAt)
	if err != nil {
		return nil, err
	}

	stored.Options = models.GenerationOptions{
		Platform: models.Platform(platform),
		Approach: models.Approach(approach),
	}

	stored.Graph = &models.GeneratedGraph{}

	err = json.Unmarshal(body, stored.Graph)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal graph %s: %w", stored.ID, err)
	}

	return &stored, nil
}
