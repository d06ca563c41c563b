package conversation

import (
	"time"

	"github.com/lumi-hq/lumi-inbox/backend/internal/display"
	"github.com/lumi-hq/lumi-inbox/backend/internal/model/inbox"
)

type avatarView struct {
	Background string `json:"background"`
	Foreground string `json:"foreground"`
	Initials   string `json:"initials"`
}

// conversationView 是列表与详情接口返回的会话，附带展示字段。
type conversationView struct {
	inbox.Conversation
	AtRisk        bool       `json:"atRisk"`
	RelativeTime  string     `json:"relativeTime"`
	PriorityLabel string     `json:"priorityLabel"`
	StateLabel    string     `json:"stateLabel"`
	Avatar        avatarView `json:"avatar"`
}

type messageView struct {
	inbox.Message
	Time string `json:"time"`
}

type dayGroupView struct {
	Day   string        `json:"day"`
	Date  string        `json:"date"`
	Items []messageView `json:"items"`
}

type presenter struct {
	locale display.Locale
	tz     *time.Location
	now    time.Time
}

func (p presenter) conversation(c inbox.Conversation) conversationView {
	colors := display.AvatarColor(c.Name)
	return conversationView{
		Conversation:  c,
		AtRisk:        c.AtRisk(),
		RelativeTime:  display.RelativeTime(c.LastAt, p.now, p.locale),
		PriorityLabel: p.locale.PriorityLabel(c.Priority),
		StateLabel:    p.locale.StateLabel(c.State),
		Avatar: avatarView{
			Background: colors[0],
			Foreground: colors[1],
			Initials:   display.Initials(c.Name),
		},
	}
}

func (p presenter) conversations(list []inbox.Conversation) []conversationView {
	out := make([]conversationView, 0, len(list))
	for _, c := range list {
		out = append(out, p.conversation(c))
	}
	return out
}

func (p presenter) message(m inbox.Message) messageView {
	return messageView{Message: m, Time: display.FormatTime(m.At, p.tz)}
}

func (p presenter) messages(list []inbox.Message) []messageView {
	out := make([]messageView, 0, len(list))
	for _, m := range list {
		out = append(out, p.message(m))
	}
	return out
}

func (p presenter) dayGroups(list []inbox.Message) []dayGroupView {
	groups := make([]dayGroupView, 0)
	for g := range display.GroupByDay(list, p.now, p.tz, p.locale) {
		groups = append(groups, dayGroupView{Day: g.Label, Date: g.Date, Items: p.messages(g.Messages)})
	}
	return groups
}
