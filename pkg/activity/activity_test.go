package activity_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/flowgen/pkg/activity"
	"github.com/dukex/flowgen/pkg/channels/gochannel"
	"github.com/dukex/flowgen/pkg/eventbus"
	"github.com/dukex/flowgen/pkg/events"
	"github.com/dukex/flowgen/pkg/metrics"
	"github.com/dukex/flowgen/pkg/mocks"
	"github.com/dukex/flowgen/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func scrape(m *metrics.Metrics) string {
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)

	return string(body)
}

func TestListener_CountsConsumedEvents(t *testing.T) {
	t.Parallel()

	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	t.Cleanup(func() {
		_ = bus.Close()
	})

	m := metrics.New()
	listener := activity.NewListener(slog.New(slog.DiscardHandler), m)
	require.NoError(t, listener.Register(t.Context(), bus))

	ctx := t.Context()
	require.NoError(t, bus.Publish(ctx, "g1", events.GraphGenerated{
		BaseEvent: events.NewBaseEvent(events.GraphGeneratedEvent, "g1"),
		Name:      "Generic Automated Workflow",
		NodeCount: 5,
		StepCount: 2,
		Approach:  models.ApproachAutomated,
	}))
	require.NoError(t, bus.Publish(ctx, "g1", events.GraphDeleted{
		BaseEvent: events.NewBaseEvent(events.GraphDeletedEvent, "g1"),
	}))
	require.NoError(t, bus.Publish(ctx, "", events.GraphsPruned{
		BaseEvent: events.NewBaseEvent(events.GraphsPrunedEvent, ""),
		Cutoff:    time.Now().UTC(),
		Removed:   3,
	}))
	require.NoError(t, bus.Publish(ctx, "", events.GraphGenerationFailed{
		BaseEvent: events.NewBaseEvent(events.GraphGenerationFailedEvent, ""),
		Reason:    "empty workflow",
	}))

	assert.Eventually(t, func() bool {
		return contains(scrape(m),
			`flowgen_events_consumed_total{event_type="graph.generated"} 1`,
			`flowgen_events_consumed_total{event_type="graph.deleted"} 1`,
			`flowgen_events_consumed_total{event_type="graphs.pruned"} 1`,
			`flowgen_events_consumed_total{event_type="graph.generation_failed"} 1`,
		)
	}, 5*time.Second, 20*time.Millisecond)
}

func TestListener_RegisterFailures(t *testing.T) {
	t.Parallel()

	bus := &mocks.MockEventBus{}
	bus.On("Handle", mock.Anything, mock.Anything).Return(errors.New("closed"))

	listener := activity.NewListener(slog.New(slog.DiscardHandler), nil)
	require.ErrorContains(t, listener.Register(t.Context(), bus), "closed")

	bus = &mocks.MockEventBus{}
	bus.On("Handle", mock.Anything, mock.Anything).Return(nil)
	bus.On("Subscribe", mock.Anything).Return(errors.New("no broker"))

	require.ErrorContains(t, listener.Register(context.Background(), bus), "no broker")
	bus.AssertNumberOfCalls(t, "Handle", 4)
}

func contains(body string, lines ...string) bool {
	for _, line := range lines {
		if !strings.Contains(body, line) {
			return false
		}
	}

	return true
}
