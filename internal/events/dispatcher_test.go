package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk/it-helpdesk/internal/events"
)

func TestPublishRunsEveryHandlerDespiteFailures(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher(nil)

	var calls []string
	dispatcher.Subscribe(events.EventTicketCreated, func(context.Context, events.Event) error {
		calls = append(calls, "first")
		return errors.New("smtp down")
	})
	dispatcher.Subscribe(events.EventTicketCreated, func(context.Context, events.Event) error {
		calls = append(calls, "second")
		panic("boom")
	})
	dispatcher.Subscribe(events.EventTicketCreated, func(context.Context, events.Event) error {
		calls = append(calls, "third")
		return nil
	})
	dispatcher.Subscribe(events.EventTicketAssigned, func(context.Context, events.Event) error {
		calls = append(calls, "other")
		return nil
	})

	require.NotPanics(t, func() {
		dispatcher.Publish(context.Background(), events.New(events.EventTicketCreated, "u1", nil))
	})
	assert.Equal(t, []string{"first", "second", "third"}, calls)
}

func TestNewStampsIdentity(t *testing.T) {
	event := events.New(events.EventUserApproved, "admin", events.UserApprovedPayload{})
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "admin", event.ActorID)
	assert.False(t, event.Timestamp.IsZero())
}
