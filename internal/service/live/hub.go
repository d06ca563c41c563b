package live

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/lumi-hq/lumi-inbox/backend/internal/model/inbox"
)

// EventType names what changed in the inbox.
type EventType string

const (
	EventConversationUpdated EventType = "conversation.updated"
	EventMessageAppended     EventType = "message.appended"
)

// Event is pushed to every live subscriber after a successful command.
type Event struct {
	ID             string              `json:"id"`
	Type           EventType           `json:"type"`
	ConversationID string              `json:"conversationId"`
	Conversation   *inbox.Conversation `json:"conversation,omitempty"`
	Message        *inbox.Message      `json:"message,omitempty"`
	At             time.Time           `json:"at"`
}

// NewEvent stamps an event with a fresh identifier.
func NewEvent(kind EventType, conversation inbox.Conversation, message *inbox.Message, at time.Time) Event {
	c := conversation.Clone()
	return Event{
		ID:             uuid.NewString(),
		Type:           kind,
		ConversationID: conversation.ID,
		Conversation:   &c,
		Message:        message,
		At:             at,
	}
}

// Hub fans events out to subscribers. Slow subscribers lose events instead
// of blocking publishers.
type Hub struct {
	mu      sync.RWMutex
	subs    map[uint64]chan Event
	nextID  uint64
	buffer  int
	closed  bool
	dropped atomic.Uint64
}

// NewHub creates a hub whose subscriber channels hold buffer events.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 32
	}
	return &Hub{subs: make(map[uint64]chan Event), buffer: buffer}
}

// Subscribe registers a listener. The returned cancel func is idempotent and
// closes the channel.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, h.buffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if sub, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(sub)
			}
		})
	}
}

// Publish delivers ev to every subscriber without blocking.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.dropped.Add(1)
		}
	}
}

// Subscribers reports the number of active listeners.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped reports how many deliveries were skipped for full subscribers.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// Run blocks until ctx is done, then closes every subscription.
func (h *Hub) Run(ctx context.Context) error {
	<-ctx.Done()
	h.Close()
	return nil
}

// Close ends all subscriptions; later publishes are discarded.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
