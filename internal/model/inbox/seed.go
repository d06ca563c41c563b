package inbox

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Seed provides the demo inbox shown on a fresh start. Timestamps are placed
// relative to now.
func Seed(now time.Time) ([]Conversation, []Message) {
	ago := func(min int) time.Time { return now.Add(-time.Duration(min) * time.Minute) }

	conversations := []Conversation{
		{
			ID:          "c1",
			Name:        "Edna Cunha",
			Phone:       "+55 11 9XXXX-1111",
			Channel:     ChannelWhatsApp,
			State:       StateWaiting,
			UnreadCount: 2,
			LastText:    "Boa noite! Quero saber valores.",
			LastAt:      ago(8),
			Priority:    PriorityHigh,
			Tags:        []string{"Novo lead", "Orçamento"},
			RiskScore:   78,
		},
		{
			ID:          "c2",
			Name:        "Tecnologia da Informação",
			Phone:       "+55 19 9XXXX-4444",
			Channel:     ChannelWhatsApp,
			State:       StateWaiting,
			UnreadCount: 1,
			LastText:    "Tem horário amanhã?",
			LastAt:      ago(63),
			Priority:    PriorityHigh,
			Tags:        []string{"Agendamento"},
			RiskScore:   82,
		},
		{
			ID:          "c3",
			Name:        "Cliente 2272554438",
			Phone:       "+55 11 9XXXX-5555",
			Channel:     ChannelWhatsApp,
			State:       StateWaiting,
			LastText:    "Quero saber como funciona.",
			LastAt:      ago(12),
			Priority:    PriorityMedium,
			Tags:        []string{"Dúvida"},
			RiskScore:   55,
		},
	}

	messages := []Message{
		{ID: "m1", ConversationID: "c1", Role: RoleClient, Text: "Boa noite! Quero saber valores.", At: ago(8)},
		{ID: "m2", ConversationID: "c1", Role: RoleSystem, Text: "Cliente aguardando atendimento.", At: ago(8)},
		{ID: "m3", ConversationID: "c2", Role: RoleClient, Text: "Preciso de ajuda com agendamento.", At: ago(65)},
		{ID: "m4", ConversationID: "c2", Role: RoleClient, Text: "Tem horário amanhã?", At: ago(63)},
		{ID: "m10", ConversationID: "c3", Role: RoleClient, Text: "Quero saber como funciona.", At: ago(12)},
	}

	return conversations, messages
}

// SeedDocument is the YAML layout accepted by LoadSeedFile.
type SeedDocument struct {
	Conversations []SeedConversation `yaml:"conversations"`
	Messages      []SeedMessage      `yaml:"messages"`
}

// SeedConversation mirrors Conversation with relative time support.
type SeedConversation struct {
	Conversation `yaml:",inline"`
	MinutesAgo   *int `yaml:"minutesAgo"`
}

// SeedMessage mirrors Message with relative time support.
type SeedMessage struct {
	Message    `yaml:",inline"`
	MinutesAgo *int `yaml:"minutesAgo"`
}

// LoadSeedFile reads a YAML fixture. Entries carrying minutesAgo are placed
// relative to now; missing channel defaults to whatsapp.
func LoadSeedFile(path string, now time.Time) ([]Conversation, []Message, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(raw, now)
}

// ParseSeed decodes a YAML fixture document.
func ParseSeed(raw []byte, now time.Time) ([]Conversation, []Message, error) {
	var doc SeedDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("decode seed: %w", err)
	}

	conversations := make([]Conversation, 0, len(doc.Conversations))
	for _, sc := range doc.Conversations {
		c := sc.Conversation
		if sc.MinutesAgo != nil {
			c.LastAt = now.Add(-time.Duration(*sc.MinutesAgo) * time.Minute)
		}
		if c.Channel == "" {
			c.Channel = ChannelWhatsApp
		}
		if c.State == "" {
			c.State = StateWaiting
		}
		if c.Priority == "" {
			c.Priority = PriorityLow
		}
		conversations = append(conversations, c)
	}

	messages := make([]Message, 0, len(doc.Messages))
	for _, sm := range doc.Messages {
		m := sm.Message
		if sm.MinutesAgo != nil {
			m.At = now.Add(-time.Duration(*sm.MinutesAgo) * time.Minute)
		}
		messages = append(messages, m)
	}

	return conversations, messages, nil
}
