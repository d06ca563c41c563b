package inbox

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Store owns conversations and their messages. All writes go through
// UpsertConversation, PatchConversation and AppendMessage.
type Store interface {
	GetConversation(ctx context.Context, id string) (Conversation, error)
	ListConversations(ctx context.Context) ([]Conversation, error)
	ListMessages(ctx context.Context, conversationID string) ([]Message, error)
	UpsertConversation(ctx context.Context, conversation Conversation) error
	PatchConversation(ctx context.Context, id string, patch ConversationPatch) (Conversation, error)
	AppendMessage(ctx context.Context, message Message) (Message, Conversation, error)
}

// MemoryStore implements Store in process memory.
type MemoryStore struct {
	mu            sync.RWMutex
	order         []string
	conversations map[string]Conversation
	messages      map[string][]Message
	messageIDs    map[string]struct{}
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied records.
// Conversations keep their input order; messages referencing unknown
// conversations are rejected.
func NewMemoryStore(conversations []Conversation, messages []Message) (*MemoryStore, error) {
	s := &MemoryStore{
		conversations: make(map[string]Conversation, len(conversations)),
		messages:      make(map[string][]Message, len(conversations)),
		messageIDs:    make(map[string]struct{}, len(messages)),
	}

	for _, c := range conversations {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		if _, dup := s.conversations[c.ID]; dup {
			return nil, fmt.Errorf("duplicate conversation %s: %w", c.ID, ErrInvalidArgument)
		}
		s.order = append(s.order, c.ID)
		s.conversations[c.ID] = c.Clone()
		s.messages[c.ID] = make([]Message, 0, 16)
	}

	for _, m := range messages {
		if _, ok := s.conversations[m.ConversationID]; !ok {
			return nil, fmt.Errorf("message %s references conversation %s: %w", m.ID, m.ConversationID, ErrNotFound)
		}
		if _, dup := s.messageIDs[m.ID]; dup || m.ID == "" {
			return nil, fmt.Errorf("message id %q is empty or duplicated: %w", m.ID, ErrInvalidArgument)
		}
		s.messageIDs[m.ID] = struct{}{}
		s.messages[m.ConversationID] = append(s.messages[m.ConversationID], m)
	}

	for id, list := range s.messages {
		sort.SliceStable(list, func(i, j int) bool { return list[i].At.Before(list[j].At) })
		s.conversations[id] = fillSummary(s.conversations[id], list)
	}

	return s, nil
}

// fillSummary backfills the summary fields a seed record left empty.
func fillSummary(c Conversation, list []Message) Conversation {
	if len(list) == 0 {
		if c.LastAt.IsZero() {
			c.LastAt = c.CreatedAt
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = c.LastAt
		}
		return c
	}

	first, last := list[0], list[len(list)-1]
	if c.CreatedAt.IsZero() {
		c.CreatedAt = first.At
	}
	if c.LastAt.IsZero() {
		c.LastAt = last.At
	}
	if c.LastText == "" {
		c.LastText = last.Text
	}
	return c
}

// GetConversation looks up a conversation by identifier.
func (s *MemoryStore) GetConversation(_ context.Context, id string) (Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.conversations[id]
	if !ok {
		return Conversation{}, fmt.Errorf("conversation %s: %w", id, ErrNotFound)
	}
	return c.Clone(), nil
}

// ListConversations returns a consistent snapshot in insertion order.
func (s *MemoryStore) ListConversations(_ context.Context) ([]Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Conversation, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.conversations[id].Clone())
	}
	return out, nil
}

// ListMessages returns the transcript ascending by time.
func (s *MemoryStore) ListMessages(_ context.Context, conversationID string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, ok := s.messages[conversationID]
	if !ok {
		return nil, fmt.Errorf("conversation %s: %w", conversationID, ErrNotFound)
	}

	copied := make([]Message, len(messages))
	copy(copied, messages)
	return copied, nil
}

// UpsertConversation inserts or replaces a conversation record. Replacing
// keeps the stored createdAt, lastText and lastAt; those only move through
// AppendMessage. A done conversation cannot be moved back to another state.
func (s *MemoryStore) UpsertConversation(_ context.Context, conversation Conversation) error {
	if err := conversation.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.conversations[conversation.ID]
	if !ok {
		s.order = append(s.order, conversation.ID)
		s.messages[conversation.ID] = make([]Message, 0, 16)
		if conversation.LastAt.IsZero() {
			conversation.LastAt = conversation.CreatedAt
		}
		s.conversations[conversation.ID] = conversation.Clone()
		return nil
	}

	if err := checkStateChange(current, conversation); err != nil {
		return err
	}
	conversation.CreatedAt = current.CreatedAt
	conversation.LastText = current.LastText
	conversation.LastAt = current.LastAt
	s.conversations[conversation.ID] = conversation.Clone()
	return nil
}

// checkStateChange rejects leaving done.
func checkStateChange(current, next Conversation) error {
	if current.State == StateDone && next.State != StateDone {
		return fmt.Errorf("conversation %s is done, cannot move to %s: %w", current.ID, next.State, ErrInvalidTransition)
	}
	return nil
}

// PatchConversation applies patch to an existing conversation. Leaving done
// is rejected with ErrInvalidTransition.
func (s *MemoryStore) PatchConversation(_ context.Context, id string, patch ConversationPatch) (Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.conversations[id]
	if !ok {
		return Conversation{}, fmt.Errorf("conversation %s: %w", id, ErrNotFound)
	}

	updated := patch.Apply(current)
	if err := updated.Validate(); err != nil {
		return Conversation{}, err
	}
	if err := checkStateChange(current, updated); err != nil {
		return Conversation{}, err
	}

	s.conversations[id] = updated
	return updated.Clone(), nil
}

// AppendMessage stores message and refreshes the owner's summary under the
// same lock. A timestamp earlier than the conversation's lastAt is raised to
// it so transcript time never goes backwards.
func (s *MemoryStore) AppendMessage(_ context.Context, message Message) (Message, Conversation, error) {
	if strings.TrimSpace(message.Text) == "" {
		return Message{}, Conversation{}, fmt.Errorf("message text is empty: %w", ErrInvalidArgument)
	}
	if message.ID == "" {
		return Message{}, Conversation{}, fmt.Errorf("message id is required: %w", ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conversation, ok := s.conversations[message.ConversationID]
	if !ok {
		return Message{}, Conversation{}, fmt.Errorf("conversation %s: %w", message.ConversationID, ErrNotFound)
	}
	if _, dup := s.messageIDs[message.ID]; dup {
		return Message{}, Conversation{}, fmt.Errorf("message id %s already used: %w", message.ID, ErrInvalidArgument)
	}

	history := s.messages[message.ConversationID]
	if n := len(history); n > 0 && message.At.Before(history[n-1].At) {
		message.At = history[n-1].At
	}
	if message.At.Before(conversation.LastAt) {
		message.At = conversation.LastAt
	}

	s.messageIDs[message.ID] = struct{}{}
	s.messages[message.ConversationID] = append(history, message)

	conversation.LastText = message.Text
	conversation.LastAt = message.At
	s.conversations[message.ConversationID] = conversation

	return message, conversation.Clone(), nil
}
