package inbox

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/lumi-hq/lumi-inbox/backend/internal/analysis/triage"
	model "github.com/lumi-hq/lumi-inbox/backend/internal/model/inbox"
	"github.com/lumi-hq/lumi-inbox/backend/internal/service/live"
)

// Publisher receives an event after every command that changed the store.
type Publisher interface {
	Publish(ev live.Event)
}

// Service exposes the triage queries and commands over a record store.
type Service struct {
	store     model.Store
	clock     Clock
	newID     func() (string, error)
	publisher Publisher
	locks     keyedMutex
}

// Option customises a Service.
type Option func(*Service)

// WithClock replaces the wall clock used to stamp messages.
func WithClock(clock Clock) Option {
	return func(s *Service) { s.clock = clock }
}

// WithPublisher sends change events to p.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithIDGenerator replaces the message id source.
func WithIDGenerator(fn func() (string, error)) Option {
	return func(s *Service) { s.newID = fn }
}

// NewService wires the triage service around store.
func NewService(store model.Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		clock: SystemClock{},
		newID: newMessageID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newMessageID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate message id: %w", err)
	}
	return id.String(), nil
}

// Visible lists the conversations for a parsed view.
func (s *Service) Visible(ctx context.Context, view triage.View) ([]model.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snapshot, err := s.store.ListConversations(ctx)
	if err != nil {
		return nil, err
	}
	return triage.ComputeVisible(snapshot, view.Tab, view.Query, view.RiskOnly)
}

// Counts tallies the whole inbox.
func (s *Service) Counts(ctx context.Context) (triage.Counts, error) {
	if err := ctx.Err(); err != nil {
		return triage.Counts{}, err
	}
	snapshot, err := s.store.ListConversations(ctx)
	if err != nil {
		return triage.Counts{}, err
	}
	return triage.Count(snapshot), nil
}

// GetConversation retrieves a conversation by identifier.
func (s *Service) GetConversation(ctx context.Context, id string) (model.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return model.Conversation{}, err
	}
	return s.store.GetConversation(ctx, id)
}

// ListMessages returns the transcript of a conversation, oldest first.
func (s *Service) ListMessages(ctx context.Context, id string) ([]model.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.ListMessages(ctx, id)
}

// Accept takes a conversation into in_progress.
func (s *Service) Accept(ctx context.Context, id string) (model.Conversation, error) {
	return s.transition(ctx, id, triage.Accept)
}

// Finish closes a conversation.
func (s *Service) Finish(ctx context.Context, id string) (model.Conversation, error) {
	return s.transition(ctx, id, triage.Finish)
}

// Open clears the unread counter.
func (s *Service) Open(ctx context.Context, id string) (model.Conversation, error) {
	return s.transition(ctx, id, func(c model.Conversation) (model.Conversation, error) {
		return triage.Open(c), nil
	})
}

func (s *Service) transition(ctx context.Context, id string, step func(model.Conversation) (model.Conversation, error)) (model.Conversation, error) {
	// Unknown ids never get a lock entry.
	if _, err := s.store.GetConversation(ctx, id); err != nil {
		return model.Conversation{}, err
	}

	unlock := s.locks.lock(id)
	defer unlock()

	current, err := s.store.GetConversation(ctx, id)
	if err != nil {
		return model.Conversation{}, err
	}

	next, err := step(current)
	if err != nil {
		return current, err
	}
	if next.State == current.State && next.UnreadCount == current.UnreadCount {
		return current, nil
	}

	state, unread := next.State, next.UnreadCount
	updated, err := s.store.PatchConversation(ctx, id, model.ConversationPatch{State: &state, UnreadCount: &unread})
	if err != nil {
		return model.Conversation{}, err
	}

	s.publish(live.NewEvent(live.EventConversationUpdated, updated, nil, s.clock.Now()))
	return updated, nil
}

// AppendMessage records a new message on a conversation and refreshes its
// lastText/lastAt. Blank text leaves the store untouched.
func (s *Service) AppendMessage(ctx context.Context, id string, role model.Role, text string) (model.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Message{}, fmt.Errorf("message text is empty: %w", model.ErrInvalidArgument)
	}
	role, err := model.ParseRole(string(role))
	if err != nil {
		return model.Message{}, err
	}
	if _, err := s.store.GetConversation(ctx, id); err != nil {
		return model.Message{}, err
	}

	unlock := s.locks.lock(id)
	defer unlock()

	msgID, err := s.newID()
	if err != nil {
		return model.Message{}, err
	}

	message, conversation, err := s.store.AppendMessage(ctx, model.Message{
		ID:             msgID,
		ConversationID: id,
		Role:           role,
		Text:           text,
		At:             s.clock.Now(),
	})
	if err != nil {
		return model.Message{}, err
	}

	appended := message
	s.publish(live.NewEvent(live.EventMessageAppended, conversation, &appended, message.At))
	return message, nil
}

func (s *Service) publish(ev live.Event) {
	if s.publisher != nil {
		s.publisher.Publish(ev)
	}
}
