package display

import (
	"fmt"
	"iter"
	"math"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf16"

	"github.com/lumi-hq/lumi-inbox/backend/internal/model/inbox"
)

// DayGroup is a run of messages sharing a calendar day.
type DayGroup struct {
	Label    string          `json:"day"`
	Date     string          `json:"date"`
	Messages []inbox.Message `json:"items"`
}

// GroupByDay yields messages grouped by calendar day in tz, oldest day first.
// The sequence can be ranged over any number of times; the caller's slice is
// never reordered.
func GroupByDay(messages []inbox.Message, now time.Time, tz *time.Location, l Locale) iter.Seq[DayGroup] {
	if tz == nil {
		tz = time.UTC
	}
	return func(yield func(DayGroup) bool) {
		sorted := make([]inbox.Message, len(messages))
		copy(sorted, messages)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].At.Before(sorted[j].At) })

		var current *DayGroup
		for _, m := range sorted {
			key := m.At.In(tz).Format(time.DateOnly)
			if current != nil && current.Date == key {
				current.Messages = append(current.Messages, m)
				continue
			}
			if current != nil && !yield(*current) {
				return
			}
			current = &DayGroup{
				Label:    DayLabel(m.At, now, tz, l),
				Date:     key,
				Messages: []inbox.Message{m},
			}
		}
		if current != nil {
			yield(*current)
		}
	}
}

// DayLabel renders "today", "yesterday" or the calendar date of at.
func DayLabel(at, now time.Time, tz *time.Location, l Locale) string {
	if tz == nil {
		tz = time.UTC
	}
	day := at.In(tz).Format(time.DateOnly)
	today := now.In(tz)
	switch day {
	case today.Format(time.DateOnly):
		return l.Today
	case today.AddDate(0, 0, -1).Format(time.DateOnly):
		return l.Yesterday
	default:
		return at.In(tz).Format(l.DateLayout)
	}
}

// RelativeTime renders the age of at as now, Nmin, Nh or Nd.
func RelativeTime(at, now time.Time, l Locale) string {
	minutes := roundHalfUp(now.Sub(at).Minutes())
	if minutes < 1 {
		return l.Now
	}
	if minutes < 60 {
		return fmt.Sprintf("%dmin", minutes)
	}
	hours := roundHalfUp(float64(minutes) / 60)
	if hours < 24 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dd", roundHalfUp(float64(hours)/24))
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// FormatTime renders the wall clock time of at in tz as HH:MM.
func FormatTime(at time.Time, tz *time.Location) string {
	if tz == nil {
		tz = time.UTC
	}
	return at.In(tz).Format("15:04")
}

// AvatarColors is the background/foreground palette for contact avatars.
var AvatarColors = [][2]string{
	{"#dbeafe", "#1d4ed8"},
	{"#dcfce7", "#15803d"},
	{"#fce7f3", "#be185d"},
	{"#fef3c7", "#b45309"},
	{"#ede9fe", "#6d28d9"},
	{"#ffedd5", "#c2410c"},
}

// AvatarColor picks a stable palette entry for a name. The hash runs over the
// first UTF-16 unit of each character so browsers compute the same colour.
func AvatarColor(name string) [2]string {
	h := 0
	for _, r := range name {
		unit := r
		if hi, _ := utf16.EncodeRune(r); hi != unicode.ReplacementChar {
			unit = hi
		}
		h = (h*31 + int(unit)) & 0xffffff
	}
	return AvatarColors[h%len(AvatarColors)]
}

// Initials takes the first letter of the first two words, upper-cased.
func Initials(name string) string {
	parts := strings.Fields(name)
	var b strings.Builder
	for i := 0; i < len(parts) && i < 2; i++ {
		for _, r := range parts[i] {
			b.WriteRune(unicode.ToUpper(r))
			break
		}
	}
	if b.Len() == 0 {
		return "?"
	}
	return b.String()
}
