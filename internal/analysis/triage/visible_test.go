package triage

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/lumi-hq/lumi-inbox/backend/internal/model/inbox"
)

var base = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func conv(id string, state inbox.State, priority inbox.Priority, risk int, minutesAgo int) inbox.Conversation {
	return inbox.Conversation{
		ID:        id,
		Name:      "Contact " + id,
		Phone:     "+55 11 9000-" + id,
		Channel:   inbox.ChannelWhatsApp,
		State:     state,
		Priority:  priority,
		RiskScore: risk,
		LastAt:    base.Add(-time.Duration(minutesAgo) * time.Minute),
	}
}

func ids(list []inbox.Conversation) []string {
	out := make([]string, 0, len(list))
	for _, c := range list {
		out = append(out, c.ID)
	}
	return out
}

func TestComputeVisiblePriorityBeatsRecency(t *testing.T) {
	c1 := conv("c1", inbox.StateWaiting, inbox.PriorityHigh, 78, 30)
	c2 := conv("c2", inbox.StateWaiting, inbox.PriorityMedium, 60, 1)

	got, err := ComputeVisible([]inbox.Conversation{c1, c2}, inbox.StateWaiting, "", false)
	if err != nil {
		t.Fatalf("ComputeVisible err: %v", err)
	}
	if diff := cmp.Diff([]string{"c1", "c2"}, ids(got)); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}

	got, err = ComputeVisible([]inbox.Conversation{c1, c2}, inbox.StateWaiting, "", true)
	if err != nil {
		t.Fatalf("ComputeVisible err: %v", err)
	}
	if diff := cmp.Diff([]string{"c1"}, ids(got)); diff != "" {
		t.Fatalf("unexpected risk-only result (-want +got):\n%s", diff)
	}
}

func TestComputeVisibleRecencyWithinPriority(t *testing.T) {
	list := []inbox.Conversation{
		conv("old", inbox.StateWaiting, inbox.PriorityLow, 10, 90),
		conv("new", inbox.StateWaiting, inbox.PriorityLow, 10, 5),
		conv("mid", inbox.StateWaiting, inbox.PriorityLow, 10, 30),
	}

	got, err := ComputeVisible(list, inbox.StateWaiting, "", false)
	if err != nil {
		t.Fatalf("ComputeVisible err: %v", err)
	}
	if diff := cmp.Diff([]string{"new", "mid", "old"}, ids(got)); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
}

func TestComputeVisibleStableOnTies(t *testing.T) {
	list := []inbox.Conversation{
		conv("b", inbox.StateWaiting, inbox.PriorityMedium, 0, 10),
		conv("a", inbox.StateWaiting, inbox.PriorityMedium, 0, 10),
		conv("c", inbox.StateWaiting, inbox.PriorityMedium, 0, 10),
	}

	got, err := ComputeVisible(list, inbox.StateWaiting, "", false)
	if err != nil {
		t.Fatalf("ComputeVisible err: %v", err)
	}
	if diff := cmp.Diff([]string{"b", "a", "c"}, ids(got)); diff != "" {
		t.Fatalf("ties must keep input order (-want +got):\n%s", diff)
	}
}

func TestComputeVisibleOnlyReturnsTab(t *testing.T) {
	list := []inbox.Conversation{
		conv("w", inbox.StateWaiting, inbox.PriorityHigh, 90, 1),
		conv("p", inbox.StateInProgress, inbox.PriorityHigh, 90, 1),
		conv("d", inbox.StateDone, inbox.PriorityHigh, 90, 1),
		conv("w2", inbox.StateWaiting, inbox.PriorityLow, 20, 1),
	}

	for _, tab := range inbox.States {
		for _, riskOnly := range []bool{false, true} {
			got, err := ComputeVisible(list, tab, "", riskOnly)
			if err != nil {
				t.Fatalf("ComputeVisible(%s) err: %v", tab, err)
			}
			for _, c := range got {
				if c.State != tab {
					t.Fatalf("tab %s returned %s in state %s", tab, c.ID, c.State)
				}
				if riskOnly && c.RiskScore < inbox.RiskThreshold {
					t.Fatalf("risk-only returned %s with score %d", c.ID, c.RiskScore)
				}
			}
		}
	}
}

func TestComputeVisibleQueryMatchesFields(t *testing.T) {
	a := conv("a", inbox.StateWaiting, inbox.PriorityLow, 0, 1)
	a.Name = "Edna Cunha"
	b := conv("b", inbox.StateWaiting, inbox.PriorityLow, 0, 2)
	b.LastText = "Preciso de AJUDA com agendamento."
	c := conv("c", inbox.StateWaiting, inbox.PriorityLow, 0, 3)
	c.Tags = []string{"Orçamento", "Novo lead"}
	d := conv("d", inbox.StateWaiting, inbox.PriorityLow, 0, 4)
	d.Phone = "+55 19 9XXXX-4444"
	list := []inbox.Conversation{a, b, c, d}

	tests := []struct {
		query string
		want  []string
	}{
		{query: "  EDNA ", want: []string{"a"}},
		{query: "ajuda", want: []string{"b"}},
		{query: "orçamento", want: []string{"c"}},
		{query: "ORÇAMENTO", want: []string{"c"}},
		{query: "4444", want: []string{"d"}},
		{query: "   ", want: []string{"a", "b", "c", "d"}},
		{query: "nothing-matches", want: []string{}},
	}

	for _, tt := range tests {
		got, err := ComputeVisible(list, inbox.StateWaiting, tt.query, false)
		if err != nil {
			t.Fatalf("query %q err: %v", tt.query, err)
		}
		if diff := cmp.Diff(tt.want, ids(got)); diff != "" {
			t.Fatalf("query %q (-want +got):\n%s", tt.query, diff)
		}
	}
}

func TestComputeVisibleEmptyInput(t *testing.T) {
	got, err := ComputeVisible(nil, inbox.StateDone, "x", true)
	if err != nil {
		t.Fatalf("ComputeVisible err: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", got)
	}
}

func TestComputeVisibleUnknownTab(t *testing.T) {
	_, err := ComputeVisible([]inbox.Conversation{conv("a", inbox.StateWaiting, inbox.PriorityLow, 0, 1)}, inbox.State("archived"), "", false)
	if !errors.Is(err, inbox.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestComputeVisibleDoesNotReorderInput(t *testing.T) {
	list := []inbox.Conversation{
		conv("low", inbox.StateWaiting, inbox.PriorityLow, 0, 1),
		conv("high", inbox.StateWaiting, inbox.PriorityHigh, 0, 1),
	}
	if _, err := ComputeVisible(list, inbox.StateWaiting, "", false); err != nil {
		t.Fatalf("ComputeVisible err: %v", err)
	}
	if list[0].ID != "low" {
		t.Fatalf("input slice was reordered: %v", ids(list))
	}
}
