// Package display holds the pure formatting helpers the inbox views render
// with: day grouping, relative times, labels and avatar colours. Nothing here
// touches the store.
package display

import (
	"golang.org/x/text/language"

	"github.com/lumi-hq/lumi-inbox/backend/internal/model/inbox"
)

// Locale carries the labels and date layout for one UI language.
type Locale struct {
	Tag        language.Tag
	Today      string
	Yesterday  string
	Now        string
	DateLayout string
	Priority   map[inbox.Priority]string
	State      map[inbox.State]string
}

var (
	portuguese = Locale{
		Tag:        language.BrazilianPortuguese,
		Today:      "Hoje",
		Yesterday:  "Ontem",
		Now:        "agora",
		DateLayout: "02/01/2006",
		Priority: map[inbox.Priority]string{
			inbox.PriorityHigh:   "Alta",
			inbox.PriorityMedium: "Média",
			inbox.PriorityLow:    "Baixa",
		},
		State: map[inbox.State]string{
			inbox.StateWaiting:    "Aguardando",
			inbox.StateInProgress: "Em atendimento",
			inbox.StateDone:       "Finalizados",
		},
	}
	english = Locale{
		Tag:        language.AmericanEnglish,
		Today:      "Today",
		Yesterday:  "Yesterday",
		Now:        "now",
		DateLayout: "01/02/2006",
		Priority: map[inbox.Priority]string{
			inbox.PriorityHigh:   "High",
			inbox.PriorityMedium: "Medium",
			inbox.PriorityLow:    "Low",
		},
		State: map[inbox.State]string{
			inbox.StateWaiting:    "Waiting",
			inbox.StateInProgress: "In progress",
			inbox.StateDone:       "Done",
		},
	}
	spanish = Locale{
		Tag:        language.Spanish,
		Today:      "Hoy",
		Yesterday:  "Ayer",
		Now:        "ahora",
		DateLayout: "02/01/2006",
		Priority: map[inbox.Priority]string{
			inbox.PriorityHigh:   "Alta",
			inbox.PriorityMedium: "Media",
			inbox.PriorityLow:    "Baja",
		},
		State: map[inbox.State]string{
			inbox.StateWaiting:    "En espera",
			inbox.StateInProgress: "En atención",
			inbox.StateDone:       "Finalizados",
		},
	}

	// Portuguese is first so it wins when nothing matches.
	supported = []Locale{portuguese, english, spanish}
	matcher   = language.NewMatcher([]language.Tag{portuguese.Tag, english.Tag, spanish.Tag})
)

// LookupLocale picks the closest supported locale for an Accept-Language
// style string. Unknown or empty input falls back to Portuguese.
func LookupLocale(preferences ...string) Locale {
	var tags []language.Tag
	for _, p := range preferences {
		parsed, _, err := language.ParseAcceptLanguage(p)
		if err != nil {
			continue
		}
		tags = append(tags, parsed...)
	}
	if len(tags) == 0 {
		return portuguese
	}

	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return portuguese
	}
	return supported[index]
}

// PriorityLabel names a priority in the locale.
func (l Locale) PriorityLabel(p inbox.Priority) string {
	if label, ok := l.Priority[p]; ok {
		return label
	}
	return l.Priority[inbox.PriorityLow]
}

// StateLabel names a triage tab in the locale.
func (l Locale) StateLabel(s inbox.State) string {
	if label, ok := l.State[s]; ok {
		return label
	}
	return string(s)
}
