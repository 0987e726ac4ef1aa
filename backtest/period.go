package backtest

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/propfirm/market"
)

// DefaultWindow is the number of trailing daily bars replayed when no usable
// period is given.
const DefaultWindow = 260

const defaultLabel = "Last 260 Daily candles"

// Period is a closed date interval. A zero Start or End means the series
// bound on that side.
type Period struct {
	Start time.Time
	End   time.Time
}

// IsZero reports whether neither bound was parsed.
func (p Period) IsZero() bool {
	return p.Start.IsZero() && p.End.IsZero()
}

var dayLayouts = []string{"2 Jan 2006", "2 January 2006", "2006-01-02", "2006/01/02"}

var monthLayouts = []string{"Jan 2006", "January 2006"}

var yearRe = regexp.MustCompile(`^\d{4}$`)

// IsYear reports whether s is a bare four digit year, which asks for a
// month by month breakdown.
func IsYear(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if !yearRe.MatchString(s) {
		return 0, false
	}
	y, _ := strconv.Atoi(s)
	return y, true
}

// ParsePeriod parses strings like "Jan 2024 - Sep 2024", "2024-01-01 -
// 2024-03-31", "15 Mar 2024 - now" or "now". A single date runs until now.
// Month names expand to the first day on the left and the last day on the
// right. Reversed bounds are swapped. An empty or unparseable side leaves
// that bound open, so "foo - Sep 2024" runs from the first bar. Nothing
// parseable gives a zero Period.
func ParsePeriod(s string, now time.Time) Period {
	s = strings.TrimSpace(s)
	if s == "" {
		return Period{}
	}

	left, right, ok := splitPeriod(s)
	if !ok {
		left, right = s, "now"
	}

	start := parseDate(left, true, now)
	end := parseDate(right, false, now)
	if !ok && start.IsZero() {
		return Period{}
	}
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		start, end = end, start
	}
	return Period{Start: start, End: end}
}

// splitPeriod splits on " - " or " to " first so ISO dates stay intact, then
// on a bare hyphen when the whole string is not a date by itself.
func splitPeriod(s string) (string, string, bool) {
	for _, sep := range []string{" - ", " to "} {
		if l, r, ok := strings.Cut(s, sep); ok {
			return l, r, true
		}
	}
	if !parseDate(s, true, time.Time{}).IsZero() {
		return "", "", false
	}
	return strings.Cut(s, "-")
}

func parseDate(s string, forStart bool, now time.Time) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	switch strings.ToLower(s) {
	case "now", "today":
		if now.IsZero() {
			return time.Time{}
		}
		return truncateDay(now)
	}

	for _, layout := range dayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	for _, layout := range monthLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if forStart {
			return t
		}
		return t.AddDate(0, 1, -1)
	}
	return time.Time{}
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MonthPeriod covers every day of month in year.
func MonthPeriod(year int, month time.Month) Period {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(0, 1, -1)}
}

// Indices returns the daily bar indices whose UTC date falls inside p, and
// a label for the covered range. It returns nil when no bar matches.
func (p Period) Indices(daily []market.Bar) ([]int, string) {
	if len(daily) == 0 || p.IsZero() {
		return nil, ""
	}

	start, end := p.Start, p.End
	if start.IsZero() {
		start = truncateDay(daily[0].Time)
	}
	if end.IsZero() {
		end = truncateDay(daily[len(daily)-1].Time)
	}
	from, to := market.DateKey(start), market.DateKey(end)

	var idx []int
	for i, b := range daily {
		d := market.DateKey(b.Time)
		if d >= from && d <= to {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return nil, ""
	}
	label := market.DateKey(daily[idx[0]].Time) + " - " + market.DateKey(daily[idx[len(idx)-1]].Time)
	return idx, label
}

// Window resolves p against the daily series, falling back to the trailing
// DefaultWindow bars when p is empty or matches nothing.
func Window(p Period, daily []market.Bar) ([]int, string) {
	if idx, label := p.Indices(daily); len(idx) > 0 {
		return idx, label
	}
	start := max(0, len(daily)-DefaultWindow)
	idx := make([]int, 0, len(daily)-start)
	for i := start; i < len(daily); i++ {
		idx = append(idx, i)
	}
	return idx, defaultLabel
}
