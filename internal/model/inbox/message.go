package inbox

import (
	"fmt"
	"strings"
	"time"
)

// Role tells who authored a message.
type Role string

const (
	RoleClient Role = "client"
	RoleAgent  Role = "agent"
	RoleSystem Role = "system"
)

// ParseRole validates a role value coming from a caller.
func ParseRole(raw string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(raw))); r {
	case RoleClient, RoleAgent, RoleSystem:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q: %w", raw, ErrInvalidArgument)
	}
}

// Message is one entry of a conversation transcript.
type Message struct {
	ID             string    `json:"id" yaml:"id"`
	ConversationID string    `json:"conversationId" yaml:"conversationId"`
	Role           Role      `json:"role" yaml:"role"`
	Text           string    `json:"text" yaml:"text"`
	At             time.Time `json:"at" yaml:"at"`
}
