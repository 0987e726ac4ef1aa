package market

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Bar represents one OHLC price bar. Time is the bar open, normalized to UTC.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

var ErrUnordered = errors.New("bars out of order")

// Valid reports whether the bar's prices are self consistent.
func (b Bar) Valid() bool {
	if b.Time.IsZero() || b.High < b.Low {
		return false
	}
	return b.Open >= b.Low && b.Open <= b.High && b.Close >= b.Low && b.Close <= b.High
}

// CheckOrdered returns an error when a bar's time is before the bar
// preceding it. Equal timestamps are allowed.
func CheckOrdered(bars []Bar) error {
	for i := 1; i < len(bars); i++ {
		if bars[i].Time.Before(bars[i-1].Time) {
			return fmt.Errorf("%w: bar %d (%s) before bar %d (%s)", ErrUnordered,
				i, bars[i].Time.Format(time.RFC3339), i-1, bars[i-1].Time.Format(time.RFC3339))
		}
	}
	return nil
}

// UpTo returns the prefix of an ordered series whose bars open at or before
// cutoff. The returned slice has its capacity clipped so appending to it can
// never expose later bars.
func UpTo(bars []Bar, cutoff time.Time) []Bar {
	n := sort.Search(len(bars), func(i int) bool {
		return bars[i].Time.After(cutoff)
	})
	return bars[:n:n]
}

// Last returns the trailing count bars, or all of them when count <= 0.
func Last(bars []Bar, count int) []Bar {
	if count <= 0 || count >= len(bars) {
		return bars
	}
	return bars[len(bars)-count:]
}

// DateKey is the UTC calendar day of t, used to bucket bars and trades.
func DateKey(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}
