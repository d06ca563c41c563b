package triage

import (
	"fmt"

	"github.com/lumi-hq/lumi-inbox/backend/internal/model/inbox"
)

// Accept moves a conversation into in_progress. Accepting an in_progress
// conversation is a no-op; a done conversation cannot be reopened.
func Accept(c inbox.Conversation) (inbox.Conversation, error) {
	switch c.State {
	case inbox.StateWaiting, inbox.StateInProgress:
		c.State = inbox.StateInProgress
		return c, nil
	case inbox.StateDone:
		return c, fmt.Errorf("accept conversation %s in state %s: %w", c.ID, c.State, inbox.ErrInvalidTransition)
	default:
		return c, fmt.Errorf("conversation %s has unknown state %q: %w", c.ID, c.State, inbox.ErrInvalidArgument)
	}
}

// Finish closes a conversation. Finishing twice is a no-op.
func Finish(c inbox.Conversation) (inbox.Conversation, error) {
	if !c.State.Valid() {
		return c, fmt.Errorf("conversation %s has unknown state %q: %w", c.ID, c.State, inbox.ErrInvalidArgument)
	}
	c.State = inbox.StateDone
	return c, nil
}

// Open marks the conversation as read without touching its state.
func Open(c inbox.Conversation) inbox.Conversation {
	c.UnreadCount = 0
	return c
}
