package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukex/flowgen/pkg/eventbus"
	"github.com/dukex/flowgen/pkg/events"
	"github.com/dukex/flowgen/pkg/generator"
	"github.com/dukex/flowgen/pkg/log"
	"github.com/dukex/flowgen/pkg/metrics"
	"github.com/dukex/flowgen/pkg/models"
	"github.com/dukex/flowgen/pkg/n8n"
	"github.com/dukex/flowgen/pkg/otelhelper"
	"github.com/dukex/flowgen/pkg/persistence"
	"github.com/dukex/flowgen/pkg/render"
	"github.com/dukex/flowgen/pkg/steps"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/dukex/flowgen/pkg/services"

// GraphsOption configures a Graphs service.
type GraphsOption func(*Graphs)

// WithEventBus publishes lifecycle events to publisher.
func WithEventBus(publisher eventbus.EventPublisher) GraphsOption {
	return func(g *Graphs) {
		g.events = publisher
	}
}

func WithMetrics(m *metrics.Metrics) GraphsOption {
	return func(g *Graphs) {
		g.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) GraphsOption {
	return func(g *Graphs) {
		g.tracer = tracer
	}
}

func WithLogger(logger *slog.Logger) GraphsOption {
	return func(g *Graphs) {
		g.logger = logger
	}
}

// WithClock overrides the clock used for creation times and retention.
func WithClock(now func() time.Time) GraphsOption {
	return func(g *Graphs) {
		g.now = now
	}
}

// Graphs generates automation graphs and manages the stored ones.
type Graphs struct {
	generator   *generator.Generator
	persistence persistence.Persistence
	events      eventbus.EventPublisher
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	logger      *slog.Logger
	now         func() time.Time
}

// NewGraphs creates a new graph service.
func NewGraphs(gen *generator.Generator, persistence persistence.Persistence, opts ...GraphsOption) *Graphs {
	g := &Graphs{
		generator:   gen,
		persistence: persistence,
		tracer:      otelhelper.Tracer(tracerName),
		logger:      slog.Default(),
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// GenerateRequest is the input of a generation call.
type GenerateRequest struct {
	Explanation string
	Options     models.GenerationOptions
	// Persist stores the generated graph and assigns it an ID.
	Persist bool
}

// GenerateResult is the outcome of a generation call.
type GenerateResult struct {
	ID    string                 `json:"id,omitempty"`
	Steps []models.WorkflowStep  `json:"steps"`
	Graph *models.GeneratedGraph `json:"graph"`
}

// HealthCheck checks the health of the persistence layer.
func (g *Graphs) HealthCheck(ctx context.Context) (string, bool) {
	if g.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := g.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// Parse splits an explanation into ordered workflow steps.
func (g *Graphs) Parse(ctx context.Context, explanation string) []models.WorkflowStep {
	_, span := otelhelper.StartSpan(ctx, g.tracer, "graphs.parse")
	defer span.End()

	parsed := steps.Parse(explanation)
	span.SetAttributes(attribute.Int(otelhelper.StepCountKey, len(parsed)))
	g.record("parse", nil)

	return parsed
}

// Generate builds a graph from req.Explanation and optionally stores it.
func (g *Graphs) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	ctx, span := otelhelper.StartSpan(ctx, g.tracer, "graphs.generate",
		attribute.String(otelhelper.PlatformKey, req.Options.PlatformLabel()),
		attribute.String(otelhelper.ApproachKey, string(req.Options.EffectiveApproach())),
	)
	defer span.End()

	started := time.Now()
	parsed := steps.Parse(req.Explanation)

	graph, err := g.generator.Generate(ctx, req.Explanation, req.Options)
	if err != nil {
		otelhelper.SetError(span, err)
		g.recordGeneration(req.Options, err, started, 0)
		g.publish(ctx, "", events.GraphGenerationFailed{
			BaseEvent: events.NewBaseEvent(events.GraphGenerationFailedEvent, ""),
			Reason:    err.Error(),
			Platform:  req.Options.Platform,
			Approach:  req.Options.EffectiveApproach(),
		})

		return nil, NewValidationError("Generate", errorCode(err), err.Error(), err)
	}

	result := &GenerateResult{Steps: parsed, Graph: graph}

	if req.Persist {
		stored := &models.StoredGraph{
			ID:          uuid.New().String(),
			Explanation: req.Explanation,
			Options:     req.Options,
			Graph:       graph,
			CreatedAt:   g.now().UTC(),
		}

		err = g.persistence.SaveGraph(ctx, stored)
		if err != nil {
			otelhelper.SetError(span, err)
			g.recordGeneration(req.Options, err, started, 0)

			return nil, fmt.Errorf("failed to save graph: %w", err)
		}

		result.ID = stored.ID
	}

	span.SetAttributes(
		attribute.String(otelhelper.GraphIDKey, result.ID),
		attribute.String(otelhelper.GraphNameKey, graph.Name),
		attribute.Int(otelhelper.StepCountKey, len(parsed)),
		attribute.Int(otelhelper.NodeCountKey, len(graph.Nodes)),
	)
	g.recordGeneration(req.Options, nil, started, len(graph.Nodes))
	g.loggerFor(ctx).InfoContext(ctx, "Generated workflow graph",
		"graph_id", result.ID,
		"name", graph.Name,
		"steps", len(parsed),
		"nodes", len(graph.Nodes),
	)
	g.publish(ctx, result.ID, events.GraphGenerated{
		BaseEvent: events.NewBaseEvent(events.GraphGeneratedEvent, result.ID),
		Name:      graph.Name,
		NodeCount: len(graph.Nodes),
		StepCount: len(parsed),
		Platform:  req.Options.Platform,
		Approach:  req.Options.EffectiveApproach(),
		Persisted: req.Persist,
	})

	return result, nil
}

// Get returns the stored graph with the given id.
func (g *Graphs) Get(ctx context.Context, id string) (*models.StoredGraph, error) {
	ctx, span := otelhelper.StartSpan(ctx, g.tracer, "graphs.get", attribute.String(otelhelper.GraphIDKey, id))
	defer span.End()

	stored, err := g.get(ctx, "get", id)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	return stored, nil
}

// List returns one page of stored graphs, newest first.
func (g *Graphs) List(ctx context.Context, opts persistence.ListOptions) (*persistence.ListResult, error) {
	ctx, span := otelhelper.StartSpan(ctx, g.tracer, "graphs.list")
	defer span.End()

	result, err := g.persistence.Graphs(ctx, opts)
	g.record("list", err)

	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to list graphs: %w", err)
	}

	return result, nil
}

// Delete removes the stored graph with the given id.
func (g *Graphs) Delete(ctx context.Context, id string) error {
	ctx, span := otelhelper.StartSpan(ctx, g.tracer, "graphs.delete", attribute.String(otelhelper.GraphIDKey, id))
	defer span.End()

	err := g.persistence.DeleteGraph(ctx, id)
	g.record("delete", err)

	if err != nil {
		otelhelper.SetError(span, err)

		return fmt.Errorf("failed to delete graph: %w", err)
	}

	g.publish(ctx, id, events.GraphDeleted{
		BaseEvent: events.NewBaseEvent(events.GraphDeletedEvent, id),
	})

	return nil
}

// Diagram renders the stored graph as Mermaid flowchart text.
func (g *Graphs) Diagram(ctx context.Context, id string) (string, error) {
	ctx, span := otelhelper.StartSpan(ctx, g.tracer, "graphs.diagram", attribute.String(otelhelper.GraphIDKey, id))
	defer span.End()

	stored, err := g.get(ctx, "diagram", id)
	if err != nil {
		otelhelper.SetError(span, err)

		return "", err
	}

	return render.Mermaid(stored.Graph), nil
}

// StepText renders the stored graph back into numbered step text.
func (g *Graphs) StepText(ctx context.Context, id string) (string, error) {
	ctx, span := otelhelper.StartSpan(ctx, g.tracer, "graphs.steps", attribute.String(otelhelper.GraphIDKey, id))
	defer span.End()

	stored, err := g.get(ctx, "steps", id)
	if err != nil {
		otelhelper.SetError(span, err)

		return "", err
	}

	return render.StepText(stored.Graph), nil
}

// Export converts the stored graph into a validated n8n import document.
func (g *Graphs) Export(ctx context.Context, id string) (*n8n.Workflow, error) {
	ctx, span := otelhelper.StartSpan(ctx, g.tracer, "graphs.export", attribute.String(otelhelper.GraphIDKey, id))
	defer span.End()

	stored, err := g.get(ctx, "export", id)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	workflow, err := ExportGraph(stored.Graph)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	return workflow, nil
}

// ExportGraph converts and validates an in-memory graph.
func ExportGraph(graph *models.GeneratedGraph) (*n8n.Workflow, error) {
	workflow, err := n8n.Export(graph)
	if err != nil {
		return nil, fmt.Errorf("failed to export graph: %w", err)
	}

	err = n8n.Validate(workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to validate export: %w", err)
	}

	return workflow, nil
}

// RenderDiagram renders a caller-supplied graph as Mermaid text.
func (g *Graphs) RenderDiagram(ctx context.Context, graph *models.GeneratedGraph) (string, error) {
	_, span := otelhelper.StartSpan(ctx, g.tracer, "graphs.render_diagram")
	defer span.End()

	if graph == nil {
		otelhelper.SetError(span, ErrGraphRequired)
		g.record("render_diagram", ErrGraphRequired)

		return "", NewValidationError("RenderDiagram", "GRAPH_REQUIRED", "graph is required", ErrGraphRequired)
	}

	g.record("render_diagram", nil)

	return render.Mermaid(graph), nil
}

// RenderSteps renders a caller-supplied graph back into step text.
func (g *Graphs) RenderSteps(ctx context.Context, graph *models.GeneratedGraph) (string, error) {
	_, span := otelhelper.StartSpan(ctx, g.tracer, "graphs.render_steps")
	defer span.End()

	if graph == nil {
		otelhelper.SetError(span, ErrGraphRequired)
		g.record("render_steps", ErrGraphRequired)

		return "", NewValidationError("RenderSteps", "GRAPH_REQUIRED", "graph is required", ErrGraphRequired)
	}

	g.record("render_steps", nil)

	return render.StepText(graph), nil
}

// Prune deletes stored graphs older than maxAge and returns how many were removed.
func (g *Graphs) Prune(ctx context.Context, maxAge time.Duration) (int, error) {
	ctx, span := otelhelper.StartSpan(ctx, g.tracer, "graphs.prune")
	defer span.End()

	if maxAge <= 0 {
		return 0, NewValidationError("Prune", "INVALID_RETENTION", "retention must be positive", ErrInvalidMaxAge)
	}

	cutoff := g.now().UTC().Add(-maxAge)

	removed, err := g.persistence.DeleteOlderThan(ctx, cutoff)
	g.record("prune", err)

	if err != nil {
		otelhelper.SetError(span, err)

		return 0, fmt.Errorf("failed to prune graphs: %w", err)
	}

	if g.metrics != nil {
		g.metrics.RecordPruned(removed)
	}

	g.loggerFor(ctx).InfoContext(ctx, "Pruned stored graphs", "removed", removed, "cutoff", cutoff)

	if removed > 0 {
		g.publish(ctx, "", events.GraphsPruned{
			BaseEvent: events.NewBaseEvent(events.GraphsPrunedEvent, ""),
			Cutoff:    cutoff,
			Removed:   removed,
		})
	}

	return removed, nil
}

func (g *Graphs) get(ctx context.Context, op, id string) (*models.StoredGraph, error) {
	if strings.TrimSpace(id) == "" {
		g.record(op, ErrInvalidRequest)

		return nil, NewValidationError(op, "INVALID_REQUEST", "graph id is required", ErrInvalidRequest)
	}

	stored, err := g.persistence.GraphByID(ctx, id)
	g.record(op, err)

	if err != nil {
		return nil, fmt.Errorf("failed to get graph: %w", err)
	}

	return stored, nil
}

func (g *Graphs) publish(ctx context.Context, key string, event eventbus.Event) {
	if g.events == nil {
		return
	}

	err := g.events.Publish(ctx, key, event)
	if err != nil {
		g.loggerFor(ctx).WarnContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}

// loggerFor prefers the request-scoped logger carried by ctx.
func (g *Graphs) loggerFor(ctx context.Context) *slog.Logger {
	return log.FromContext(ctx, g.logger)
}

func (g *Graphs) record(op string, err error) {
	if g.metrics != nil {
		g.metrics.RecordOperation(op, err)
	}
}

func (g *Graphs) recordGeneration(opts models.GenerationOptions, err error, started time.Time, nodes int) {
	if g.metrics == nil {
		return
	}

	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
	}

	g.metrics.RecordGeneration(opts.PlatformLabel(), string(opts.EffectiveApproach()), status, time.Since(started).Seconds(), nodes)
	g.metrics.RecordOperation("generate", err)
}

// TemplateInfo describes one node template of the catalog.
type TemplateInfo struct {
	Role        models.NodeRole `json:"role"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
}

// Templates lists the node templates graphs are built from, sorted by role.
func (g *Graphs) Templates(ctx context.Context) []TemplateInfo {
	_, span := otelhelper.StartSpan(ctx, g.tracer, "graphs.templates")
	defer span.End()

	catalog := g.generator.Catalog()
	roles := catalog.Roles()
	infos := make([]TemplateInfo, 0, len(roles))

	for _, role := range roles {
		factory, ok := catalog.Factory(role)
		if !ok {
			continue
		}

		infos = append(infos, TemplateInfo{
			Role:        role,
			Name:        factory.Name(),
			Description: factory.Description(),
		})
	}

	return infos
}

// CatalogHealthCheck checks that every role the generator emits has a template.
func (g *Graphs) CatalogHealthCheck() (string, bool) {
	return g.generator.Catalog().HealthCheck()
}
