// Package redis provides Redis persistence for generated graphs.
//
// Each graph is stored as a JSON string under "<prefix>graph:<id>"; a sorted
// set "<prefix>graphs" scored by creation time (unix milliseconds) drives
// listing and pruning.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/dukex/flowgen/pkg/models"
	"github.com/dukex/flowgen/pkg/persistence"
	goredis "github.com/redis/go-redis/v9"
)

const defaultPrefix = "flowgen:"

// Persistence implements persistence.Persistence on top of a Redis client.
type Persistence struct {
	client goredis.UniversalClient
	logger *slog.Logger
	prefix string
}

// NewPersistence connects to the Redis server at redisURL (redis://host:port/db).
func NewPersistence(ctx context.Context, logger *slog.Logger, redisURL string) (*Persistence, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := goredis.NewClient(opts)

	err = client.Ping(ctx).Err()
	if err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return NewPersistenceWithClient(client, logger, defaultPrefix), nil
}

// NewPersistenceWithClient wraps an existing client using the given key prefix.
func NewPersistenceWithClient(client goredis.UniversalClient, logger *slog.Logger, prefix string) *Persistence {
	return &Persistence{
		client: client,
		logger: logger,
		prefix: prefix,
	}
}

func (p *Persistence) graphKey(id string) string {
	return p.prefix + "graph:" + id
}

func (p *Persistence) indexKey() string {
	return p.prefix + "graphs"
}

func (p *Persistence) SaveGraph(ctx context.Context, graph *models.StoredGraph) error {
	if graph == nil || graph.ID == "" {
		return persistence.NewGraphError("SaveGraph", "", persistence.ErrInvalidGraph)
	}

	if graph.CreatedAt.IsZero() {
		graph.CreatedAt = time.Now().UTC()
	}

	body, err := json.Marshal(graph)
	if err != nil {
		return fmt.Errorf("failed to marshal graph %s: %w", graph.ID, err)
	}

	_, err = p.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, p.graphKey(graph.ID), body, 0)
		pipe.ZAdd(ctx, p.indexKey(), goredis.Z{
			Score:  float64(graph.CreatedAt.UnixMilli()),
			Member: graph.ID,
		})

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save graph %s: %w", graph.ID, err)
	}

	return nil
}

func (p *Persistence) GraphByID(ctx context.Context, id string) (*models.StoredGraph, error) {
	body, err := p.client.Get(ctx, p.graphKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, persistence.NewGraphError("GraphByID", id, persistence.ErrGraphNotFound)
		}

		return nil, fmt.Errorf("failed to get graph %s: %w", id, err)
	}

	var graph models.StoredGraph

	err = json.Unmarshal(body, &graph)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal graph %s: %w", id, err)
	}

	return &graph, nil
}

func (p *Persistence) Graphs(ctx context.Context, opts persistence.ListOptions) (*persistence.ListResult, error) {
	opts = opts.Normalize()

	total, err := p.client.ZCard(ctx, p.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to count graphs: %w", err)
	}

	start := int64(opts.Offset)
	stop := start + int64(opts.Limit) - 1

	ids, err := p.client.ZRevRange(ctx, p.indexKey(), start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list graphs: %w", err)
	}

	graphs := make([]*models.StoredGraph, 0, len(ids))

	for _, id := range ids {
		graph, err := p.GraphByID(ctx, id)
		if err != nil {
			if persistence.IsGraphNotFound(err) {
				p.logger.WarnContext(ctx, "Graph index references missing graph", "graph_id", id)

				continue
			}

			return nil, err
		}

		graphs = append(graphs, graph)
	}

	return &persistence.ListResult{
		Graphs:      graphs,
		TotalCount:  total,
		HasNextPage: stop+1 < total,
	}, nil
}

func (p *Persistence) DeleteGraph(ctx context.Context, id string) error {
	var deleted *goredis.IntCmd

	_, err := p.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		deleted = pipe.Del(ctx, p.graphKey(id))
		pipe.ZRem(ctx, p.indexKey(), id)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete graph %s: %w", id, err)
	}

	if deleted.Val() == 0 {
		return persistence.NewGraphError("DeleteGraph", id, persistence.ErrGraphNotFound)
	}

	return nil
}

func (p *Persistence) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	maxScore := "(" + strconv.FormatInt(cutoff.UnixMilli(), 10)

	ids, err := p.client.ZRangeByScore(ctx, p.indexKey(), &goredis.ZRangeBy{
		Min: "-inf",
		Max: maxScore,
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to find expired graphs: %w", err)
	}

	if len(ids) == 0 {
		return 0, nil
	}

	keys := make([]string, len(ids))
	members := make([]any, len(ids))

	for i, id := range ids {
		keys[i] = p.graphKey(id)
		members[i] = id
	}

	_, err = p.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		pipe.ZRem(ctx, p.indexKey(), members...)

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to prune graphs: %w", err)
	}

	return len(ids), nil
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	return p.client.Close()
}
