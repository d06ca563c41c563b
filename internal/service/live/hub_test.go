package live

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/lumi-hq/lumi-inbox/backend/internal/model/inbox"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func sampleEvent() Event {
	return NewEvent(EventConversationUpdated, inbox.Conversation{ID: "c1", State: inbox.StateInProgress}, nil, time.Unix(0, 0))
}

func TestHubDeliversToAllSubscribers(t *testing.T) {
	hub := NewHub(4)
	a, cancelA := hub.Subscribe()
	b, cancelB := hub.Subscribe()
	defer cancelA()
	defer cancelB()

	hub.Publish(sampleEvent())

	for _, ch := range []<-chan Event{a, b} {
		select {
		case ev := <-ch:
			assert.Equal(t, EventConversationUpdated, ev.Type)
			assert.Equal(t, "c1", ev.ConversationID)
			assert.NotEmpty(t, ev.ID)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestHubDropsForFullSubscriber(t *testing.T) {
	hub := NewHub(1)
	ch, cancel := hub.Subscribe()
	defer cancel()

	hub.Publish(sampleEvent())
	hub.Publish(sampleEvent())

	assert.Equal(t, uint64(1), hub.Dropped())
	<-ch
}

func TestHubCancelIsIdempotent(t *testing.T) {
	hub := NewHub(1)
	ch, cancel := hub.Subscribe()
	require.Equal(t, 1, hub.Subscribers())

	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, hub.Subscribers())
}

func TestHubRunClosesSubscriptionsOnShutdown(t *testing.T) {
	hub := NewHub(1)
	ch, cancel := hub.Subscribe()
	defer cancel()

	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.Run(ctx)
		close(done)
	}()

	stop()
	<-done

	_, open := <-ch
	assert.False(t, open)

	late, lateCancel := hub.Subscribe()
	defer lateCancel()
	_, open = <-late
	assert.False(t, open, "subscriptions after close start closed")
	hub.Publish(sampleEvent())
}
