package eventbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/flowgen/pkg/channels/gochannel"
	"github.com/dukex/flowgen/pkg/eventbus"
	"github.com/dukex/flowgen/pkg/events"
	"github.com/dukex/flowgen/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBus(t *testing.T) eventbus.EventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)

	t.Cleanup(func() {
		_ = bus.Close()
	})

	return bus
}

func TestWatermillEventBus_PublishAndHandle(t *testing.T) {
	t.Parallel()

	bus := newBus(t)
	ctx := t.Context()
	received := make(chan *events.GraphGenerated, 1)

	require.NoError(t, bus.Handle(events.GraphGeneratedEvent, func(_ context.Context, event any) error {
		received <- event.(*events.GraphGenerated)

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	sent := events.GraphGenerated{
		BaseEvent: events.NewBaseEvent(events.GraphGeneratedEvent, "g1"),
		Name:      "Google Hybrid Workflow",
		NodeCount: 6,
		StepCount: 2,
		Platform:  models.PlatformGoogle,
		Approach:  models.ApproachHybrid,
	}
	require.NoError(t, bus.Publish(ctx, "g1", sent))

	select {
	case got := <-received:
		assert.Equal(t, "g1", got.GraphID)
		assert.Equal(t, "Google Hybrid Workflow", got.Name)
		assert.Equal(t, 6, got.NodeCount)
		assert.Equal(t, models.PlatformGoogle, got.Platform)
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestWatermillEventBus_UnhandledTypesAreAcked(t *testing.T) {
	t.Parallel()

	bus := newBus(t)
	ctx := t.Context()
	received := make(chan *events.GraphDeleted, 1)

	require.NoError(t, bus.Handle(events.GraphDeletedEvent, func(_ context.Context, event any) error {
		received <- event.(*events.GraphDeleted)

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	require.NoError(t, bus.Publish(ctx, "g1", events.GraphGenerationFailed{
		BaseEvent: events.NewBaseEvent(events.GraphGenerationFailedEvent, ""),
		Reason:    "empty workflow",
	}))
	require.NoError(t, bus.Publish(ctx, "g2", events.GraphDeleted{
		BaseEvent: events.NewBaseEvent(events.GraphDeletedEvent, "g2"),
	}))

	select {
	case got := <-received:
		assert.Equal(t, "g2", got.GraphID)
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestWatermillEventBus_GenerateID(t *testing.T) {
	t.Parallel()

	bus := newBus(t)
	assert.NotEqual(t, bus.GenerateID(), bus.GenerateID())
}
