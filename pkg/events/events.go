// Package events defines event types and structures for graph lifecycle notifications.
package events

import (
	"time"

	"github.com/dukex/flowgen/pkg/models"
	"github.com/google/uuid"
)

type EventType string

// Topic is the single topic graph lifecycle events are published on.
const Topic = "flowgen.graphs"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	GraphGeneratedEvent        EventType = "graph.generated"
	GraphGenerationFailedEvent EventType = "graph.generation_failed"
	GraphDeletedEvent          EventType = "graph.deleted"
	GraphsPrunedEvent          EventType = "graphs.pruned"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	GraphID   string         `json:"graph_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewBaseEvent stamps a new event of the given type.
func NewBaseEvent(eventType EventType, graphID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		GraphID:   graphID,
	}
}

type GraphGenerated struct {
	BaseEvent

	Name      string          `json:"name"`
	NodeCount int             `json:"node_count"`
	StepCount int             `json:"step_count"`
	Platform  models.Platform `json:"platform"`
	Approach  models.Approach `json:"approach"`
	Persisted bool            `json:"persisted"`
}

func (e GraphGenerated) GetType() EventType {
	return GraphGeneratedEvent
}

type GraphGenerationFailed struct {
	BaseEvent

	Reason   string          `json:"reason"`
	Platform models.Platform `json:"platform,omitempty"`
	Approach models.Approach `json:"approach,omitempty"`
}

func (e GraphGenerationFailed) GetType() EventType {
	return GraphGenerationFailedEvent
}

type GraphDeleted struct {
	BaseEvent
}

func (e GraphDeleted) GetType() EventType {
	return GraphDeletedEvent
}

// GraphsPruned reports a retention sweep.
type GraphsPruned struct {
	BaseEvent

	Cutoff  time.Time `json:"cutoff"`
	Removed int       `json:"removed"`
}

func (e GraphsPruned) GetType() EventType {
	return GraphsPrunedEvent
}
