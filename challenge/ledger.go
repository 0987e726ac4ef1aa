package challenge

import (
	"sort"

	"github.com/rustyeddy/propfirm/market"
	"github.com/rustyeddy/propfirm/trade"
)

// dayLedger accumulates realized P&L per UTC calendar day.
type dayLedger struct {
	order []string
	pnl   map[string]float64
}

func newDayLedger() *dayLedger {
	return &dayLedger{pnl: make(map[string]float64)}
}

// add books v on day and returns that day's running total.
func (l *dayLedger) add(day string, v float64) float64 {
	if _, ok := l.pnl[day]; !ok {
		l.order = append(l.order, day)
	}
	l.pnl[day] += v
	return l.pnl[day]
}

// days is the number of distinct days with activity.
func (l *dayLedger) days() int { return len(l.order) }

// profitable counts days whose P&L is at least min.
func (l *dayLedger) profitable(min float64) int {
	n := 0
	for _, v := range l.pnl {
		if v >= min {
			n++
		}
	}
	return n
}

// chronological returns a copy of trades sorted by settlement time. The sort
// is stable so same-time trades keep their input order.
func chronological(trades []trade.Closed) []trade.Closed {
	out := make([]trade.Closed, len(trades))
	copy(out, trades)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SettledAt().Before(out[j].SettledAt())
	})
	return out
}

func dayOf(t trade.Closed) string {
	return market.DateKey(t.SettledAt())
}
