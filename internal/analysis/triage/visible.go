package triage

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/lumi-hq/lumi-inbox/backend/internal/model/inbox"
)

// ComputeVisible returns the conversations shown for a tab, optionally
// narrowed to at-risk ones and to a search query. The input slice is not
// modified. Ordering is priority weight desc, then lastAt desc, then input
// order.
func ComputeVisible(conversations []inbox.Conversation, tab inbox.State, query string, riskOnly bool) ([]inbox.Conversation, error) {
	if !tab.Valid() {
		return nil, fmt.Errorf("unknown tab %q: %w", tab, inbox.ErrInvalidArgument)
	}

	folder := cases.Fold()
	needle := folder.String(strings.TrimSpace(query))

	visible := make([]inbox.Conversation, 0, len(conversations))
	for _, c := range conversations {
		if c.State != tab {
			continue
		}
		if riskOnly && !c.AtRisk() {
			continue
		}
		if needle != "" && !matches(folder, c, needle) {
			continue
		}
		visible = append(visible, c)
	}

	sort.SliceStable(visible, func(i, j int) bool {
		wi, wj := visible[i].Priority.Weight(), visible[j].Priority.Weight()
		if wi != wj {
			return wi > wj
		}
		return visible[i].LastAt.After(visible[j].LastAt)
	})

	return visible, nil
}

func matches(folder cases.Caser, c inbox.Conversation, needle string) bool {
	for _, field := range []string{c.Name, c.Phone, c.LastText} {
		if strings.Contains(folder.String(field), needle) {
			return true
		}
	}
	for _, tag := range c.Tags {
		if strings.Contains(folder.String(tag), needle) {
			return true
		}
	}
	return false
}
