package journal

import (
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/propfirm/backtest"
	"github.com/rustyeddy/propfirm/challenge"
	"github.com/rustyeddy/propfirm/pkg/id"
)

type Kind string

const (
	KindBacktest  Kind = "backtest"
	KindChallenge Kind = "challenge"
)

// Run mirrors the runs table: one backtest or challenge simulation.
type Run struct {
	RunID   string
	Created time.Time
	Kind    Kind

	// Asset is empty for multi-asset challenge runs.
	Asset   string
	Period  string
	Profile string

	Trades       int
	Wins         int
	WinRate      float64
	NetReturnPct float64
	ProfitUSD    float64
	MaxDDPct     float64
	AvgR         float64

	// Challenge outcome; for a backtest it is the embedded phase 1 result.
	Passed bool
	Reason string

	Notes string
}

// RunFromReport summarises a backtest report.
func RunFromReport(r backtest.Report, created time.Time) Run {
	return Run{
		RunID:        id.At(created),
		Created:      created.UTC(),
		Kind:         KindBacktest,
		Asset:        r.Asset,
		Period:       r.Period,
		Profile:      r.Profile,
		Trades:       r.TotalTrades,
		Wins:         r.Wins,
		WinRate:      r.WinRate,
		NetReturnPct: r.NetReturnPct,
		ProfitUSD:    r.TotalProfitUSD,
		MaxDDPct:     r.MaxDrawdownPct,
		AvgR:         r.AvgR,
		Passed:       r.Phase1.Passed,
		Reason:       r.Phase1.Reason,
		Notes:        r.Notes,
	}
}

// RunFromChallenge summarises a multi-asset challenge simulation.
func RunFromChallenge(res challenge.Result, created time.Time) Run {
	wins := 0
	var sumR float64
	for _, t := range res.Trades {
		if t.Win() {
			wins++
		}
		sumR += t.R
	}
	run := Run{
		RunID:        id.At(created),
		Created:      created.UTC(),
		Kind:         KindChallenge,
		Period:       res.Label,
		Profile:      res.Profile,
		Trades:       res.TotalTrades,
		Wins:         wins,
		NetReturnPct: res.TotalProfitPct,
		ProfitUSD:    res.TotalProfitUSD,
		MaxDDPct:     res.MaxTotalDrawdownPct,
		Passed:       res.Passed,
		Reason:       res.FailureReason,
	}
	if n := len(res.Trades); n > 0 {
		run.WinRate = float64(wins) / float64(n) * 100
		run.AvgR = sumR / float64(n)
	}
	if len(res.FailedAssets) > 0 {
		run.Notes = fmt.Sprintf("Skipped: %s", strings.Join(res.FailedAssets, ", "))
	}
	return run
}
