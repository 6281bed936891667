// Package generator assembles automation graphs from parsed workflow steps.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dukex/flowgen/pkg/models"
	"github.com/dukex/flowgen/pkg/steps"
	"github.com/dukex/flowgen/pkg/templates"
	"github.com/go-playground/validator/v10"
)

const (
	// StageSpacing is the horizontal distance between consecutive stages.
	StageSpacing = 350
	originX      = 250
	baseY        = 300
	errorOffsetY = 200
)

// Option configures a Generator.
type Option func(*Generator)

// WithClock sets the time source used for the transform timestamp.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// WithCatalog replaces the template catalog.
func WithCatalog(catalog *templates.Catalog) Option {
	return func(g *Generator) {
		g.catalog = catalog
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// Generator turns workflow explanations into linear automation graphs.
// It holds no per-call state and is safe for concurrent use.
type Generator struct {
	catalog  *templates.Catalog
	validate *validator.Validate
	now      func() time.Time
	logger   *slog.Logger
}

// New creates a Generator with the built-in template catalog.
func New(opts ...Option) *Generator {
	g := &Generator{
		catalog:  templates.NewCatalog(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Catalog returns the template catalog nodes are built from.
func (g *Generator) Catalog() *templates.Catalog {
	return g.catalog
}

// Generate parses explanation and builds the graph for the given options.
func (g *Generator) Generate(ctx context.Context, explanation string, opts models.GenerationOptions) (*models.GeneratedGraph, error) {
	return g.Assemble(ctx, steps.Parse(explanation), opts)
}

// Assemble builds the graph for already parsed steps. Steps are chained by
// ascending index regardless of the order they are passed in.
func (g *Generator) Assemble(ctx context.Context, parsed []models.WorkflowStep, opts models.GenerationOptions) (*models.GeneratedGraph, error) {
	if err := g.validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}

	parsed = slices.Clone(parsed)
	slices.SortStableFunc(parsed, func(a, b models.WorkflowStep) int {
		return a.Index - b.Index
	})

	if len(parsed) == 0 {
		return nil, ErrEmptyWorkflow
	}

	if duplicated := steps.Duplicates(parsed); len(duplicated) > 0 {
		numbers := make([]int, len(duplicated))
		for i, index := range duplicated {
			numbers[i] = index + 1
		}

		return nil, &DuplicateStepError{Numbers: numbers}
	}

	b := &builder{
		catalog:     g.catalog,
		opts:        opts,
		timestamp:   g.now(),
		connections: make(models.Connections),
	}

	if err := b.add(models.TriggerNodeID, models.TriggerNodeName, models.RoleTrigger, ""); err != nil {
		return nil, err
	}

	for _, step := range parsed {
		if err := b.addStep(step); err != nil {
			return nil, err
		}
	}

	if err := b.add(models.ResponseNodeID, models.ResponseNodeName, models.RoleResponse, ""); err != nil {
		return nil, err
	}

	if err := b.addErrorHandler(); err != nil {
		return nil, err
	}

	graph := &models.GeneratedGraph{
		Name:        graphName(opts),
		Nodes:       b.nodes,
		Connections: b.connections,
		Settings: map[string]any{
			"executionOrder":       "v1",
			"saveManualExecutions": true,
			"callerPolicy":         "workflowsFromSameOwner",
		},
		Tags: []string{
			"generated",
			strings.ToLower(opts.PlatformLabel()),
			strings.ToLower(string(opts.EffectiveApproach())),
		},
	}

	g.logger.DebugContext(ctx, "Assembled workflow graph",
		"name", graph.Name,
		"steps", len(parsed),
		"nodes", len(graph.Nodes),
		"edges", graph.EdgeCount(),
	)

	return graph, nil
}

func graphName(opts models.GenerationOptions) string {
	return fmt.Sprintf("%s %s Workflow", opts.PlatformLabel(), opts.EffectiveApproach())
}

// builder accumulates the chain for one Assemble call.
type builder struct {
	catalog     *templates.Catalog
	opts        models.GenerationOptions
	timestamp   time.Time
	nodes       []*models.GraphNode
	connections models.Connections
	last        string
	stage       int
}

func (b *builder) addStep(step models.WorkflowStep) error {
	suffix := fmt.Sprintf("%s (%s)", step.Label, b.opts.PlatformLabel())

	if step.IsHuman() {
		err := b.add(step.ID+"_notify", "Notify Human: "+suffix, models.RoleHuman, step.Label)
		if err != nil {
			return err
		}

		if b.opts.RequiresApproval() {
			return b.add(step.ID+"_approval", "Human Approval: "+suffix, models.RoleApproval, step.Label)
		}

		return nil
	}

	err := b.add(step.ID+"_ai", "AI Analysis: "+suffix, models.RoleAI, step.Label)
	if err != nil {
		return err
	}

	return b.add(step.ID+"_transform", "Process AI Response: "+suffix, models.RoleTransform, step.Label)
}

// add appends a chained node at the next stage and links it to the previous one.
func (b *builder) add(id, name string, role models.NodeRole, label string) error {
	node, err := b.node(id, name, role, label)
	if err != nil {
		return err
	}

	node.Position = models.Position{originX + b.stage*StageSpacing, baseY}
	b.stage++

	if b.last != "" {
		b.connections.Add(b.last, id)
	}

	b.last = id
	b.nodes = append(b.nodes, node)

	return nil
}

// addErrorHandler appends the error node without any edge.
func (b *builder) addErrorHandler() error {
	node, err := b.node(models.ErrorNodeID, models.ErrorNodeName, models.RoleError, "")
	if err != nil {
		return err
	}

	node.Position = models.Position{originX + (b.stage-1)*StageSpacing, baseY + errorOffsetY}
	b.nodes = append(b.nodes, node)

	return nil
}

func (b *builder) node(id, name string, role models.NodeRole, label string) (*models.GraphNode, error) {
	tpl, err := b.catalog.Build(role, templates.Context{
		StepLabel: label,
		Options:   b.opts,
		Timestamp: b.timestamp,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build node %s: %w", id, err)
	}

	return &models.GraphNode{
		ID:          id,
		Name:        name,
		Type:        tpl.Type,
		TypeVersion: tpl.TypeVersion,
		Parameters:  tpl.Parameters,
		Role:        role,
		Step:        label,
	}, nil
}
