// Package activity consumes graph lifecycle events and turns them into
// structured log lines and Prometheus counters.
package activity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/flowgen/pkg/eventbus"
	"github.com/dukex/flowgen/pkg/events"
	"github.com/dukex/flowgen/pkg/metrics"
)

// Recorder counts consumed events by type.
type Recorder interface {
	RecordEvent(eventType string)
}

type Listener struct {
	logger   *slog.Logger
	recorder Recorder
}

// NewListener creates a listener. m may be nil.
func NewListener(logger *slog.Logger, m *metrics.Metrics) *Listener {
	l := &Listener{logger: logger.With("module", "activity")}
	if m != nil {
		l.recorder = m
	}

	return l
}

// Register installs the handlers on bus and starts consuming.
func (l *Listener) Register(ctx context.Context, bus eventbus.EventSubscriber) error {
	handlers := map[events.EventType]eventbus.EventHandler{
		events.GraphGeneratedEvent:        l.handleGenerated,
		events.GraphGenerationFailedEvent: l.handleGenerationFailed,
		events.GraphDeletedEvent:          l.handleDeleted,
		events.GraphsPrunedEvent:          l.handlePruned,
	}

	for eventType, handler := range handlers {
		if err := bus.Handle(eventType, handler); err != nil {
			return fmt.Errorf("failed to subscribe to %s events: %w", eventType, err)
		}
	}

	if err := bus.Subscribe(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to graph events: %w", err)
	}

	l.logger.InfoContext(ctx, "Event subscriptions configured successfully")

	return nil
}

func (l *Listener) handleGenerated(ctx context.Context, eventData any) error {
	event, ok := eventData.(*events.GraphGenerated)
	if !ok {
		return fmt.Errorf("invalid event type for %s: %T", events.GraphGeneratedEvent, eventData)
	}

	l.record(event.Type)
	l.logger.InfoContext(ctx, "Graph generated",
		"graph_id", event.GraphID,
		"name", event.Name,
		"nodes", event.NodeCount,
		"steps", event.StepCount,
		"persisted", event.Persisted)

	return nil
}

func (l *Listener) handleGenerationFailed(ctx context.Context, eventData any) error {
	event, ok := eventData.(*events.GraphGenerationFailed)
	if !ok {
		return fmt.Errorf("invalid event type for %s: %T", events.GraphGenerationFailedEvent, eventData)
	}

	l.record(event.Type)
	l.logger.WarnContext(ctx, "Graph generation failed",
		"reason", event.Reason,
		"platform", event.Platform,
		"approach", event.Approach)

	return nil
}

func (l *Listener) handleDeleted(ctx context.Context, eventData any) error {
	event, ok := eventData.(*events.GraphDeleted)
	if !ok {
		return fmt.Errorf("invalid event type for %s: %T", events.GraphDeletedEvent, eventData)
	}

	l.record(event.Type)
	l.logger.InfoContext(ctx, "Graph deleted", "graph_id", event.GraphID)

	return nil
}

func (l *Listener) handlePruned(ctx context.Context, eventData any) error {
	event, ok := eventData.(*events.GraphsPruned)
	if !ok {
		return fmt.Errorf("invalid event type for %s: %T", events.GraphsPrunedEvent, eventData)
	}

	l.record(event.Type)
	l.logger.InfoContext(ctx, "Graphs pruned", "removed", event.Removed, "cutoff", event.Cutoff)

	return nil
}

func (l *Listener) record(eventType events.EventType) {
	if l.recorder != nil {
		l.recorder.RecordEvent(string(eventType))
	}
}
