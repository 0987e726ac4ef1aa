// Package strategy defines the candidate supply contract the backtest consumes
// and ships a reference confluence supplier.
package strategy

import (
	"fmt"
	"os"
	"strings"

	"github.com/rustyeddy/propfirm/market"
	"github.com/rustyeddy/propfirm/trade"
)

// Input is everything a supplier may look at. Every slice ends at or before
// the bar currently being replayed.
type Input struct {
	Instrument string
	Monthly    []market.Bar
	Weekly     []market.Bar
	Daily      []market.Bar
	H4         []market.Bar
	Direction  trade.Direction
}

// Flags are the independent confluence factors.
type Flags struct {
	HTFBias      bool `json:"htf_bias"`
	Location     bool `json:"location"`
	Fib          bool `json:"fib"`
	Liquidity    bool `json:"liquidity"`
	Structure    bool `json:"structure"`
	Confirmation bool `json:"confirmation"`
	RR           bool `json:"rr"`
}

// Score is the number of factors that agree.
func (f Flags) Score() int {
	n := 0
	for _, v := range []bool{f.HTFBias, f.Location, f.Fib, f.Liquidity, f.Structure, f.Confirmation, f.RR} {
		if v {
			n++
		}
	}
	return n
}

// QualityFactors counts the price-location factors, excluding confirmation
// and risk/reward.
func (f Flags) QualityFactors() int {
	n := 0
	for _, v := range []bool{f.Location, f.Fib, f.Liquidity, f.Structure, f.HTFBias} {
		if v {
			n++
		}
	}
	return n
}

// Levels are proposed prices. A zero value means the level is absent.
type Levels struct {
	Entry    float64 `json:"entry"`
	StopLoss float64 `json:"sl"`
	TP1      float64 `json:"tp1"`
	TP2      float64 `json:"tp2"`
	TP3      float64 `json:"tp3"`
}

// Complete reports whether entry, stop and first target are all present.
func (l Levels) Complete() bool {
	return l.Entry != 0 && l.StopLoss != 0 && l.TP1 != 0
}

type Candidate struct {
	Direction trade.Direction `json:"direction"`
	Flags     Flags           `json:"flags"`
	Levels    Levels          `json:"levels"`
	Notes     []string        `json:"notes,omitempty"`
}

func (c Candidate) Score() int { return c.Flags.Score() }

// Supplier evaluates one point in time. It must be pure: the same Input
// always yields the same Candidate.
type Supplier interface {
	Evaluate(in Input) Candidate
}

type SupplierFunc func(in Input) Candidate

func (f SupplierFunc) Evaluate(in Input) Candidate { return f(in) }

// Noop never proposes levels.
type Noop struct{}

func (Noop) Evaluate(in Input) Candidate { return Candidate{Direction: in.Direction} }

func SupplierByName(name string) (Supplier, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "blueprint":
		return NewBlueprint(DefaultBlueprintConfig()), nil
	case "noop", "none":
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: blueprint, noop)", name)
	}
}

// SignalModeEnv selects how many confluence factors a setup needs.
const SignalModeEnv = "SIGNAL_MODE"

// MinConfluence is 2 for the "standard" mode (also the default) and 1 for
// any other mode.
func MinConfluence(mode string) int {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "standard":
		return 2
	}
	return 1
}

func MinConfluenceFromEnv() int {
	return MinConfluence(os.Getenv(SignalModeEnv))
}
