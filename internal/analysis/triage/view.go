package triage

import (
	"fmt"
	"strings"

	"github.com/lumi-hq/lumi-inbox/backend/internal/model/inbox"
)

// FilterRisk is the only extra filter the inbox knows.
const FilterRisk = "risk"

// View is a parsed list request.
type View struct {
	Tab      inbox.State `json:"tab"`
	Query    string      `json:"query"`
	RiskOnly bool        `json:"riskOnly"`
}

// ParseView turns raw tab/query/filter parameters into a View. An empty tab
// selects waiting. The risk filter always lands on waiting; a tab sent with
// it is still validated.
func ParseView(tab, query, filter string) (View, error) {
	view := View{Tab: inbox.StateWaiting, Query: strings.TrimSpace(query)}

	switch f := strings.ToLower(strings.TrimSpace(filter)); f {
	case "", "none":
	case FilterRisk:
		view.RiskOnly = true
	default:
		return View{}, fmt.Errorf("unknown filter %q: %w", filter, inbox.ErrInvalidArgument)
	}

	if strings.TrimSpace(tab) != "" {
		state, err := inbox.ParseState(tab)
		if err != nil {
			return View{}, err
		}
		view.Tab = state
	}
	if view.RiskOnly {
		view.Tab = inbox.StateWaiting
	}

	return view, nil
}

// Counts summarises the inbox for the tab pills.
type Counts struct {
	Waiting    int `json:"waiting"`
	InProgress int `json:"inProgress"`
	Done       int `json:"done"`
	RiskHigh   int `json:"riskHigh"`
}

// Count tallies conversations per state and at risk.
func Count(conversations []inbox.Conversation) Counts {
	var counts Counts
	for _, c := range conversations {
		switch c.State {
		case inbox.StateWaiting:
			counts.Waiting++
		case inbox.StateInProgress:
			counts.InProgress++
		case inbox.StateDone:
			counts.Done++
		}
		if c.AtRisk() {
			counts.RiskHigh++
		}
	}
	return counts
}
