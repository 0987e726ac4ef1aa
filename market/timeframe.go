package market

import (
	"fmt"
	"strings"
	"time"
)

// Timeframe is a bar granularity using the OANDA naming.
type Timeframe string

const (
	Monthly Timeframe = "M"
	Weekly  Timeframe = "W"
	Daily   Timeframe = "D"
	H4      Timeframe = "H4"
)

// Timeframes lists the granularities the backtest consults, highest first.
var Timeframes = []Timeframe{Monthly, Weekly, Daily, H4}

func ParseTimeframe(s string) (Timeframe, error) {
	switch tf := Timeframe(strings.ToUpper(strings.TrimSpace(s))); tf {
	case Monthly, Weekly, Daily, H4:
		return tf, nil
	}
	return "", fmt.Errorf("unknown timeframe %q (use M, W, D or H4)", s)
}

// Duration is the nominal bar length. Months are treated as 30 days.
func (tf Timeframe) Duration() time.Duration {
	switch tf {
	case Monthly:
		return 30 * 24 * time.Hour
	case Weekly:
		return 7 * 24 * time.Hour
	case Daily:
		return 24 * time.Hour
	case H4:
		return 4 * time.Hour
	}
	return 0
}

func (tf Timeframe) String() string { return string(tf) }
