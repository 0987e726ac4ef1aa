package report

import (
	"strings"
	"testing"
	"time"

	"github.com/rustyeddy/propfirm/backtest"
	"github.com/rustyeddy/propfirm/challenge"
	"github.com/rustyeddy/propfirm/portfolio"
	"github.com/rustyeddy/propfirm/profile"
	"github.com/rustyeddy/propfirm/risk"
	"github.com/rustyeddy/propfirm/trade"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func trades() []trade.Closed {
	return []trade.Closed{
		{Asset: "GBP_USD", Direction: trade.Bullish, EntryTime: t0, ExitTime: t0.AddDate(0, 0, 2),
			Entry: 1.27, Exit: 1.285, StopLoss: 1.265, TP1: 1.275, TP2: 1.28, TP3: 1.285, Reason: trade.ExitTP3, R: 3},
		{Asset: "EUR_USD", Direction: trade.Bearish, EntryTime: t0.AddDate(0, 0, 1), ExitTime: t0.AddDate(0, 0, 3),
			Entry: 1.09, Exit: 1.095, StopLoss: 1.095, TP1: 1.085, Reason: trade.ExitStopLoss, R: -1},
		{Asset: "EUR_USD", Direction: trade.Bullish, EntryTime: t0.AddDate(0, 0, 4), ExitTime: t0.AddDate(0, 0, 5),
			Entry: 1.09, Exit: 1.09, StopLoss: 1.085, TP1: 1.095, Reason: trade.ExitTP1Trail, R: 0},
	}
}

func TestBacktest(t *testing.T) {
	t.Parallel()

	rep := backtest.NewReport("EUR_USD", "2024-03-04 - 2024-03-29", profile.The5ers10KHighStakes(), trades())
	out := Backtest(rep)

	for _, want := range []string{
		"Backtest: EUR_USD",
		"Profile:  The5ers High Stakes 10K ($10,000, 1.0% risk/trade)",
		"Trades:       3 (1 wins)",
		"Win rate:     33.3%",
		"Return:       +2.0% ($200)",
		"Exits:        TP1+Trail (1) TP2 (0) TP3 (1) SL (1)",
		"Phase 1 (8% target): Fail",
	} {
		assert.Contains(t, out, want)
	}

	empty := backtest.NewReport("EUR_USD", "x", profile.The5ers10KHighStakes(), nil)
	empty.Notes = backtest.NoDailyNote
	out = Backtest(empty)
	assert.Contains(t, out, "No trades.\nNo daily data available.")
}

func TestYearly(t *testing.T) {
	t.Parallel()

	y := backtest.YearlyReport{
		Asset: "EUR_USD", Year: 2024, Profile: "The5ers High Stakes 10K",
		TotalTrades: 60, WinRate: 75, NetReturnPct: 12.5, TotalProfitUSD: 1250, AvgR: 0.21,
		Validation: backtest.Validate(60, 75, 12.5, 0.21),
		Months: []backtest.Report{
			{Period: "January 2024", TotalTrades: 5, WinRate: 80, NetReturnPct: 2},
		},
	}
	out := Yearly(y)

	assert.Contains(t, out, "Yearly Backtest: EUR_USD / 2024")
	assert.Contains(t, out, "Return: +12.5% ($1,250)")
	assert.Contains(t, out, "Validation (50+ trades, 70-100% WR):")
	assert.Contains(t, out, "Status: ✓ APPROVED")
	assert.Contains(t, out, "  January 2024: 5 trades, 80.0% WR, +2.0%")
}

func TestChallenge(t *testing.T) {
	t.Parallel()

	res := challenge.Simulate(trades(), profile.The5ers10KHighStakes())
	res.Label = "March 2024"
	res.FailedAssets = []string{"XAU_USD"}
	out := Challenge(res)

	assert.Contains(t, out, "Challenge Simulation: March 2024")
	assert.Contains(t, out, "Phase 1: FAILED")
	assert.Contains(t, out, "Result: FAILED")
	assert.Contains(t, out, "Reason: Phase 1 target (8%) not reached")
	assert.Contains(t, out, "Final P&L: +2.0% ($200)")
	assert.Contains(t, out, "Total Trades: 3")
	assert.Contains(t, out, "Skipped assets: XAU_USD")
}

func TestYearlyChallenge(t *testing.T) {
	t.Parallel()

	a := portfolio.YearlyAnalysis{Year: 2024, Months: make([]challenge.Result, 12), PassedMonths: 1}
	a.Months[1] = challenge.Result{Passed: true, TotalProfitPct: 13.4, TotalTrades: 20, TradingDays: 9}
	out := YearlyChallenge(a)

	assert.Contains(t, out, "Jan 2024: FAIL | P&L: +0.0% | Trades: 0 | Days: 0")
	assert.Contains(t, out, "Feb 2024: PASS | P&L: +13.4% | Trades: 20 | Days: 9")
	assert.Contains(t, out, "SUMMARY: 1/12 months would pass the challenge")
}

func TestTradeExport(t *testing.T) {
	t.Parallel()

	out := TradeExport(challenge.Result{Label: "March 2024", Trades: trades(), TradingDays: 3})

	eur := strings.Index(out, "EUR_USD (2 trades)")
	gbp := strings.Index(out, "GBP_USD (1 trades)")
	require.NotEqual(t, -1, eur)
	require.NotEqual(t, -1, gbp)
	assert.Less(t, eur, gbp)

	assert.Contains(t, out, "1. [2024-03-05] BEARISH")
	assert.Contains(t, out, "2. [2024-03-08] BULLISH")
	assert.Contains(t, out, "   Exit: SL @ 2024-03-07 | R/R: -1.00R")
	assert.Contains(t, out, "   TP1: 1.27500 | TP2: 1.28000 | TP3: 1.28500")
}

func TestProgressBar(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pct  float64
		want string
	}{
		{0, "[░░░░░░░░░░] 0.0%"},
		{55, "[▓▓▓▓▓░░░░░] 55.0%"},
		{100, "[▓▓▓▓▓▓▓▓▓▓] 100.0%"},
		{150, "[▓▓▓▓▓▓▓▓▓▓] 150.0%"},
		{-20, "[░░░░░░░░░░] -20.0%"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ProgressBar(tt.pct, 10))
	}
}

func TestRiskSummary(t *testing.T) {
	t.Parallel()

	wed := time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)
	m := risk.NewManager(profile.The5ers10KHighStakes(), risk.WithClock(func() time.Time { return wed }))
	rec, _, err := m.Admit(risk.TradeRecord{Symbol: "EUR_USD", RiskUSD: 100}, wed)
	require.NoError(t, err)
	m.CloseTrade(rec.ID, 1.1, 350, wed)

	out := RiskSummary(m.Summary())
	assert.Contains(t, out, "The5ers High Stakes 10K")
	assert.Contains(t, out, "Balance:      $10,350.00 (start $10,000, peak $10,350.00)")
	assert.Contains(t, out, "Open trades:  0/3")
	assert.Contains(t, out, "Phase 1 progress")
	assert.Contains(t, out, "Profitable Days: 1/3")

	assert.Equal(t, "Phase 3: not configured\n", PhaseProgress(risk.PhaseProgress{Phase: 3}))
}

func TestProfile(t *testing.T) {
	t.Parallel()

	out := Profile(profile.The5ers100KHighStakes())
	assert.Contains(t, out, "The5ers High Stakes 100K (the5ers_100k_high_stakes)")
	assert.Contains(t, out, "Starting balance: $100,000 USD")
	assert.Contains(t, out, "Max open risk:    3.0% ($3,000), 5 concurrent trades")
	assert.Contains(t, out, "Phase 2: 5% target, 3 profitable days")
	assert.Contains(t, out, "No new trades after 20:00 UTC Friday")
}

func TestBacktestOrg(t *testing.T) {
	t.Parallel()

	rep := backtest.NewReport("EUR_USD", "March 2024", profile.The5ers10KHighStakes(), trades())
	out, err := BacktestOrg(rep, "RUN1", t0)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "* BACKTEST: EUR_USD March 2024\n"))
	assert.Contains(t, out, ":RUN_ID:      RUN1")
	assert.Contains(t, out, ":RISK_PCT:    1.00")
	assert.Contains(t, out, ":CREATED:     [2024-03-04 Mon 00:00]")
	assert.Contains(t, out, "| TP3       | 1 |")
	assert.Contains(t, out, "| 2024-03-05 | 2024-03-07 | bearish | SL | -1.00 |")

	out, err = BacktestOrg(backtest.NewReport("EUR_USD", "x", profile.The5ers10KHighStakes(), nil), "", t0)
	require.NoError(t, err)
	assert.Contains(t, out, ":RUN_ID:      (run-id?)")
	assert.NotContains(t, out, "** Trades")
}

func TestTradeOrg(t *testing.T) {
	t.Parallel()

	out := TradeOrg(trades()[0])
	assert.True(t, strings.HasPrefix(out, "** Trade: GBP_USD bullish (2024-03-04)\n"))
	assert.Contains(t, out, ":EXIT_REASON: TP3\n")
	assert.Contains(t, out, ":R: +3.00\n")
	assert.Contains(t, out, "*** Review\n")
}
