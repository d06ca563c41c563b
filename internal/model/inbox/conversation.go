package inbox

import (
	"fmt"
	"strings"
	"time"
)

// State is the triage bucket a conversation sits in.
type State string

const (
	StateWaiting    State = "waiting"
	StateInProgress State = "in_progress"
	StateDone       State = "done"
)

// States lists the triage buckets in display order.
var States = []State{StateWaiting, StateInProgress, StateDone}

// ParseState validates a tab value coming from a caller.
func ParseState(raw string) (State, error) {
	switch s := State(strings.ToLower(strings.TrimSpace(raw))); s {
	case StateWaiting, StateInProgress, StateDone:
		return s, nil
	default:
		return "", fmt.Errorf("unknown tab %q: %w", raw, ErrInvalidArgument)
	}
}

// Valid reports whether s is one of the known triage states.
func (s State) Valid() bool {
	return s == StateWaiting || s == StateInProgress || s == StateDone
}

// Channel identifies where the conversation came from.
type Channel string

const ChannelWhatsApp Channel = "whatsapp"

// Priority drives the ordering of the inbox list.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Weight maps a priority onto its sort weight. Unknown values rank as low.
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	default:
		return 1
	}
}

// RiskThreshold is the score from which a conversation is flagged at risk.
const RiskThreshold = 75

// Conversation is a customer thread under triage.
type Conversation struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Phone       string    `json:"phone" yaml:"phone"`
	Channel     Channel   `json:"channel" yaml:"channel"`
	State       State     `json:"state" yaml:"state"`
	UnreadCount int       `json:"unreadCount" yaml:"unreadCount"`
	LastText    string    `json:"lastText" yaml:"lastText"`
	LastAt      time.Time `json:"lastAt" yaml:"lastAt"`
	Priority    Priority  `json:"priority" yaml:"priority"`
	Tags        []string  `json:"tags" yaml:"tags"`
	RiskScore   int       `json:"riskScore" yaml:"riskScore"`
	CreatedAt   time.Time `json:"createdAt" yaml:"createdAt"`
}

// AtRisk reports whether the conversation crossed the risk threshold.
func (c Conversation) AtRisk() bool {
	return c.RiskScore >= RiskThreshold
}

// Clone returns a copy that shares no slices with c.
func (c Conversation) Clone() Conversation {
	if c.Tags != nil {
		c.Tags = append([]string(nil), c.Tags...)
	}
	return c
}

// Validate checks the fields a stored conversation must always carry.
func (c Conversation) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("conversation id is required: %w", ErrInvalidArgument)
	}
	if !c.State.Valid() {
		return fmt.Errorf("conversation %s: unknown state %q: %w", c.ID, c.State, ErrInvalidArgument)
	}
	if c.UnreadCount < 0 {
		return fmt.Errorf("conversation %s: negative unread count: %w", c.ID, ErrInvalidArgument)
	}
	if c.RiskScore < 0 || c.RiskScore > 100 {
		return fmt.Errorf("conversation %s: risk score %d out of range: %w", c.ID, c.RiskScore, ErrInvalidArgument)
	}
	switch c.Priority {
	case PriorityHigh, PriorityMedium, PriorityLow:
	default:
		return fmt.Errorf("conversation %s: unknown priority %q: %w", c.ID, c.Priority, ErrInvalidArgument)
	}
	return nil
}

// ConversationPatch carries the fields to change on an existing conversation.
// Nil fields are left untouched.
type ConversationPatch struct {
	Name        *string
	Phone       *string
	State       *State
	UnreadCount *int
	Priority    *Priority
	Tags        []string
	RiskScore   *int
}

// Apply returns c with the patch applied.
func (p ConversationPatch) Apply(c Conversation) Conversation {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.State != nil {
		c.State = *p.State
	}
	if p.UnreadCount != nil {
		c.UnreadCount = *p.UnreadCount
	}
	if p.Priority != nil {
		c.Priority = *p.Priority
	}
	if p.Tags != nil {
		c.Tags = append([]string(nil), p.Tags...)
	}
	if p.RiskScore != nil {
		c.RiskScore = *p.RiskScore
	}
	return c
}
