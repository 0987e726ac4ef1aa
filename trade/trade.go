// Package trade holds the trade vocabulary shared by the simulators, the
// risk manager and the journal.
package trade

import (
	"fmt"
	"strings"
	"time"
)

type Direction string

const (
	Bullish Direction = "bullish"
	Bearish Direction = "bearish"
)

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bullish", "long", "buy":
		return Bullish, nil
	case "bearish", "short", "sell":
		return Bearish, nil
	}
	return "", fmt.Errorf("unknown direction %q", s)
}

// Sign is +1 for bullish and -1 for bearish.
func (d Direction) Sign() float64 {
	if d == Bearish {
		return -1
	}
	return 1
}

type ExitReason string

const (
	ExitStopLoss ExitReason = "SL"
	ExitTP1Trail ExitReason = "TP1+Trail"
	ExitTP2      ExitReason = "TP2"
	ExitTP3      ExitReason = "TP3"
)

// ExitReasons in report order.
var ExitReasons = []ExitReason{ExitTP1Trail, ExitTP2, ExitTP3, ExitStopLoss}

// Closed is an immutable record of a finished simulated trade.
type Closed struct {
	Asset      string     `json:"asset"`
	Direction  Direction  `json:"direction"`
	EntryTime  time.Time  `json:"entry_time"`
	ExitTime   time.Time  `json:"exit_time"`
	Entry      float64    `json:"entry"`
	Exit       float64    `json:"exit"`
	StopLoss   float64    `json:"sl"`
	TP1        float64    `json:"tp1"`
	TP2        float64    `json:"tp2,omitempty"`
	TP3        float64    `json:"tp3,omitempty"`
	Reason     ExitReason `json:"exit_reason"`
	R          float64    `json:"rr"`
	Confluence int        `json:"confluence"`
}

// SettledAt is the exit time, or the entry time when the exit is unknown.
func (c Closed) SettledAt() time.Time {
	if c.ExitTime.IsZero() {
		return c.EntryTime
	}
	return c.ExitTime
}

func (c Closed) Win() bool { return c.R > 0 }
