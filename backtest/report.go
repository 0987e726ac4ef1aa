package backtest

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/propfirm/challenge"
	"github.com/rustyeddy/propfirm/profile"
	"github.com/rustyeddy/propfirm/trade"
)

// Report is the result of one backtest. Every renderer works from this
// shape, so fields are only ever added.
type Report struct {
	Asset           string                `json:"asset"`
	Period          string                `json:"period"`
	Profile         string                `json:"profile"`
	AccountSize     float64               `json:"account_size"`
	RiskPerTradePct float64               `json:"risk_per_trade_pct"`
	TotalTrades     int                   `json:"total_trades"`
	Wins            int                   `json:"wins"`
	WinRate         float64               `json:"win_rate"`
	NetReturnPct    float64               `json:"net_return_pct"`
	TotalProfitUSD  float64               `json:"total_profit_usd"`
	MaxDrawdownPct  float64               `json:"max_drawdown_pct"`
	AvgR            float64               `json:"avg_rr"`
	TP1TrailHits    int                   `json:"tp1_trail_hits"`
	TP2Hits         int                   `json:"tp2_hits"`
	TP3Hits         int                   `json:"tp3_hits"`
	SLHits          int                   `json:"sl_hits"`
	Trades          []trade.Closed        `json:"trades"`
	Phase1          challenge.PhaseResult `json:"phase1_simulation"`
	Notes           string                `json:"notes,omitempty"`
}

// NewReport computes the summary statistics for trades, which must be in the
// order they closed.
func NewReport(asset, period string, p profile.AccountProfile, trades []trade.Closed) Report {
	r := Report{
		Asset:           asset,
		Period:          period,
		Profile:         p.DisplayName,
		AccountSize:     p.StartingBalance,
		RiskPerTradePct: p.RiskPerTradePct,
		TotalTrades:     len(trades),
		Trades:          trades,
	}
	if r.Trades == nil {
		r.Trades = []trade.Closed{}
	}

	riskUSD := p.MaxRiskPerTradeUSD()
	var totalR, running, peak, maxDD float64
	for _, t := range trades {
		totalR += t.R
		if t.Win() {
			r.Wins++
		}
		switch t.Reason {
		case trade.ExitTP1Trail:
			r.TP1TrailHits++
		case trade.ExitTP2:
			r.TP2Hits++
		case trade.ExitTP3:
			r.TP3Hits++
		case trade.ExitStopLoss:
			r.SLHits++
		}

		running += t.R * riskUSD
		peak = max(peak, running)
		maxDD = max(maxDD, peak-running)
	}

	if r.TotalTrades > 0 {
		r.WinRate = float64(r.Wins) / float64(r.TotalTrades) * 100
		r.AvgR = totalR / float64(r.TotalTrades)
	}
	r.NetReturnPct = totalR * p.RiskPerTradePct * 100
	r.TotalProfitUSD = totalR * riskUSD
	if p.StartingBalance > 0 {
		r.MaxDrawdownPct = maxDD / p.StartingBalance * 100
	}

	r.Phase1 = challenge.SimulatePhase(trades, p, 1)
	r.Notes = r.summary()
	return r
}

// ExitCount returns the number of trades that closed for reason.
func (r Report) ExitCount(reason trade.ExitReason) int {
	switch reason {
	case trade.ExitTP1Trail:
		return r.TP1TrailHits
	case trade.ExitTP2:
		return r.TP2Hits
	case trade.ExitTP3:
		return r.TP3Hits
	case trade.ExitStopLoss:
		return r.SLHits
	}
	return 0
}

func (r Report) summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Backtest Summary - %s (%s, %s)\n", r.Asset, r.Period, r.Profile)
	fmt.Fprintf(&b, "Trades: %d\n", r.TotalTrades)
	fmt.Fprintf(&b, "Win rate: %.1f%%\n", r.WinRate)
	fmt.Fprintf(&b, "Total profit: $%.0f (%+.1f%%)\n", r.TotalProfitUSD, r.NetReturnPct)
	fmt.Fprintf(&b, "Max drawdown: -%.1f%%\n", r.MaxDrawdownPct)
	fmt.Fprintf(&b, "Expectancy: %+.2fR / trade\n", r.AvgR)
	fmt.Fprintf(&b, "TP1+Trail (%d), TP2 (%d), TP3 (%d), SL (%d)\n", r.TP1TrailHits, r.TP2Hits, r.TP3Hits, r.SLHits)

	ph := r.Phase1
	verdict := "FAIL"
	if ph.Passed {
		verdict = "PASS"
	}
	fmt.Fprintf(&b, "\nPhase 1 Simulation (%.0f%% target):\n", ph.TargetPnLPct)
	fmt.Fprintf(&b, "  %s: %s\n", verdict, ph.Reason)
	fmt.Fprintf(&b, "  Profitable days: %d/%d\n", ph.ProfitableDays, ph.MinProfitableDays)
	fmt.Fprintf(&b, "  Rule violations: Daily=%d, Total=%d", ph.DailyLossViolations, ph.TotalLossViolations)
	return b.String()
}

// emptyReport is returned when no replay could run.
func emptyReport(asset, period string, p profile.AccountProfile, note string) Report {
	r := NewReport(asset, period, p, nil)
	r.Notes = note
	return r
}
