package infrastructure

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"project_amharicAI/internal/entities"
)

func TestLocalEventBusFanOut(t *testing.T) {
	bus := NewLocalEventBus(zap.NewNop())

	var first, second []entities.Event
	bus.Subscribe(func(_ context.Context, e entities.Event) { first = append(first, e) })
	bus.Subscribe(func(_ context.Context, e entities.Event) { panic("broken subscriber") })
	bus.Subscribe(func(_ context.Context, e entities.Event) { second = append(second, e) })

	event := entities.Event{
		Type:      entities.EventDocumentDeleted,
		CompanyID: "c1",
		Data:      entities.DocumentDeletedPayload{ID: "d1"},
	}
	bus.Publish(context.Background(), event)

	assert.Equal(t, []entities.Event{event}, first)
	assert.Equal(t, []entities.Event{event}, second)
}
