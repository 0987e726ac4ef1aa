// Package report renders backtests, challenge runs and the risk manager's
// state as plain text and Org blocks for the terminal and journal notes.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rustyeddy/propfirm/backtest"
	"github.com/rustyeddy/propfirm/challenge"
	"github.com/rustyeddy/propfirm/internal/money"
	"github.com/rustyeddy/propfirm/portfolio"
	"github.com/rustyeddy/propfirm/profile"
	"github.com/rustyeddy/propfirm/risk"
	"github.com/rustyeddy/propfirm/trade"
)

const rule = "=================================================="

// Backtest renders a single period backtest.
func Backtest(r backtest.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Backtest: %s\n", r.Asset)
	fmt.Fprintf(&b, "Period:   %s\n", r.Period)
	fmt.Fprintf(&b, "Profile:  %s (%s, %.1f%% risk/trade)\n\n", r.Profile, money.USD(r.AccountSize), r.RiskPerTradePct*100)

	if r.TotalTrades == 0 {
		b.WriteString("No trades.\n")
		if r.Notes == backtest.NoDailyNote {
			fmt.Fprintf(&b, "%s\n", r.Notes)
		}
		return b.String()
	}

	fmt.Fprintf(&b, "Trades:       %d (%d wins)\n", r.TotalTrades, r.Wins)
	fmt.Fprintf(&b, "Win rate:     %.1f%%\n", r.WinRate)
	fmt.Fprintf(&b, "Return:       %+.1f%% (%s)\n", r.NetReturnPct, money.USD(r.TotalProfitUSD))
	fmt.Fprintf(&b, "Max drawdown: -%.1f%%\n", r.MaxDrawdownPct)
	fmt.Fprintf(&b, "Expectancy:   %+.2fR / trade\n", r.AvgR)
	b.WriteString("Exits:       ")
	for _, reason := range trade.ExitReasons {
		fmt.Fprintf(&b, " %s (%d)", reason, r.ExitCount(reason))
	}
	b.WriteString("\n\n")

	ph := r.Phase1
	fmt.Fprintf(&b, "Phase 1 (%.0f%% target): %s\n", ph.TargetPnLPct, passFail(ph.Passed))
	fmt.Fprintf(&b, "  %s\n", ph.Reason)
	fmt.Fprintf(&b, "  Profitable days: %d/%d\n", ph.ProfitableDays, ph.MinProfitableDays)
	fmt.Fprintf(&b, "  Rule violations: daily=%d total=%d\n", ph.DailyLossViolations, ph.TotalLossViolations)
	return b.String()
}

// Yearly renders a month by month backtest with its validation.
func Yearly(y backtest.YearlyReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Yearly Backtest: %s / %d\n", y.Asset, y.Year)
	fmt.Fprintf(&b, "Profile: %s\n\n", y.Profile)

	b.WriteString("Yearly Performance:\n")
	fmt.Fprintf(&b, "  Trades: %d\n", y.TotalTrades)
	fmt.Fprintf(&b, "  Win Rate: %.1f%%\n", y.WinRate)
	fmt.Fprintf(&b, "  Return: %+.1f%% (%s)\n", y.NetReturnPct, money.USD(y.TotalProfitUSD))
	fmt.Fprintf(&b, "  Avg Expectancy: %+.2fR/trade\n\n", y.AvgR)

	fmt.Fprintf(&b, "Validation (%d+ trades, %.0f-%.0f%% WR):\n",
		backtest.MinYearlyTrades, backtest.MinYearlyWinRate, backtest.MaxYearlyWinRate)
	for _, c := range y.Validation.Checks() {
		fmt.Fprintf(&b, "  %s\n", c.Reason)
	}
	status := "✗ NEEDS WORK"
	if y.Validation.AllPass {
		status = "✓ APPROVED"
	}
	fmt.Fprintf(&b, "\nStatus: %s\n\nMonthly Breakdown:\n", status)
	for _, m := range y.Months {
		fmt.Fprintf(&b, "  %s: %d trades, %.1f%% WR, %+.1f%%\n", m.Period, m.TotalTrades, m.WinRate, m.NetReturnPct)
	}
	return b.String()
}

// Challenge renders a sequential challenge run.
func Challenge(res challenge.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Challenge Simulation: %s\n", orDash(res.Label))
	fmt.Fprintf(&b, "Profile: %s\n\n", res.Profile)

	for _, ph := range res.Phases {
		if ph.Passed {
			fmt.Fprintf(&b, "%s: PASSED (%+.1f%% in %d days)\n", ph.Name, ph.FinalPnLPct, ph.DaysToComplete)
			continue
		}
		fmt.Fprintf(&b, "%s: FAILED\n", ph.Name)
	}
	b.WriteString("\n")

	if res.Passed {
		fmt.Fprintf(&b, "Passed in: %d trading days\n", res.DaysToPass)
		fmt.Fprintf(&b, "Total Profit: %+.1f%% (%s)\n", res.TotalProfitPct, money.USD(res.TotalProfitUSD))
	} else {
		b.WriteString("Result: FAILED\n")
		fmt.Fprintf(&b, "Reason: %s\n", res.FailureReason)
		fmt.Fprintf(&b, "Final P&L: %+.1f%% (%s)\n", res.TotalProfitPct, money.USD(res.TotalProfitUSD))
	}
	fmt.Fprintf(&b, "Total Trades: %d\n\n", res.TotalTrades)

	b.WriteString("Risk Metrics:\n")
	fmt.Fprintf(&b, "  Max Daily Drawdown: -%.1f%%\n", res.MaxDailyDrawdownPct)
	fmt.Fprintf(&b, "  Max Total Drawdown: -%.1f%%\n", res.MaxTotalDrawdownPct)
	fmt.Fprintf(&b, "  Daily Loss Violations: %d\n", res.DailyLossViolations)
	fmt.Fprintf(&b, "  Total Loss Violations: %d\n", res.TotalLossViolations)
	fmt.Fprintf(&b, "  Trading Days: %d\n", res.TradingDays)
	fmt.Fprintf(&b, "  Profitable Days: %d\n", res.ProfitableDays)
	if len(res.FailedAssets) > 0 {
		fmt.Fprintf(&b, "\nSkipped assets: %s\n", strings.Join(res.FailedAssets, ", "))
	}
	return b.String()
}

// YearlyChallenge renders one line per month and the pass count.
func YearlyChallenge(a portfolio.YearlyAnalysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\nYEARLY CHALLENGE ANALYSIS: %d\n%s\n", rule, a.Year, rule)
	for i, m := range a.Months {
		fmt.Fprintf(&b, "%s %d: %s | P&L: %+.1f%% | Trades: %d | Days: %d\n",
			time.Month(i+1).String()[:3], a.Year, strings.ToUpper(passFail(m.Passed)),
			m.TotalProfitPct, m.TotalTrades, m.TradingDays)
	}
	fmt.Fprintf(&b, "\n%s\nSUMMARY: %d/%d months would pass the challenge\n%s\n", rule, a.PassedMonths, len(a.Months), rule)
	return b.String()
}

// TradeExport lists the trades of a challenge run grouped by asset.
func TradeExport(res challenge.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Trade Export: %s\n", orDash(res.Label))
	fmt.Fprintf(&b, "Total Trades: %d | Period: %d trading days\n", len(res.Trades), res.TradingDays)
	fmt.Fprintf(&b, "%s\n", rule)

	var (
		asset string
		n     int
	)
	counts := make(map[string]int)
	for _, t := range res.Trades {
		counts[t.Asset]++
	}
	for _, t := range groupByAsset(res.Trades) {
		if t.Asset != asset {
			asset, n = t.Asset, 0
			fmt.Fprintf(&b, "\n%s (%d trades)\n", asset, counts[asset])
		}
		n++
		fmt.Fprintf(&b, "%d. [%s] %s\n", n, t.EntryTime.Format(time.DateOnly), strings.ToUpper(string(t.Direction)))
		fmt.Fprintf(&b, "   Entry: %.5f | SL: %.5f\n", t.Entry, t.StopLoss)
		fmt.Fprintf(&b, "   TP1: %.5f | TP2: %.5f | TP3: %.5f\n", t.TP1, t.TP2, t.TP3)
		fmt.Fprintf(&b, "   Exit: %s @ %s | R/R: %+.2fR\n", t.Reason, t.ExitTime.Format(time.DateOnly), t.R)
	}
	return b.String()
}

// RiskSummary renders the live manager's exposure and phase progress.
func RiskSummary(s risk.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", s.Profile)
	fmt.Fprintf(&b, "  Balance:      %s (start %s, peak %s)\n", money.Cents(s.Balance), money.USD(s.StartingBalance), money.Cents(s.PeakBalance))
	fmt.Fprintf(&b, "  Open trades:  %d/%d\n", s.OpenTrades, s.MaxConcurrent)
	fmt.Fprintf(&b, "  Open risk:    %s (%.2f%% / %.1f%%)\n", money.Cents(s.OpenRiskUSD), s.OpenRiskPct, s.MaxOpenRiskPct)
	fmt.Fprintf(&b, "  Daily P/L:    %s (%+.2f%%, limit -%.0f%%)\n", money.Cents(s.DailyPnLUSD), s.DailyPnLPct, s.MaxDailyLossPct)
	fmt.Fprintf(&b, "  Total DD:     %s (%.2f%%, limit %.0f%%)\n", money.Cents(s.DrawdownUSD), s.DrawdownPct, s.MaxTotalLossPct)
	fmt.Fprintf(&b, "  Projected:    daily %.2f%%, total %.2f%%\n\n", s.ProjDailyPct, s.ProjTotalPct)
	b.WriteString(PhaseProgress(s.Phase))
	return b.String()
}

// PhaseProgress renders profit and profitable-day progress bars.
func PhaseProgress(p risk.PhaseProgress) string {
	if !p.Known {
		return fmt.Sprintf("Phase %d: not configured\n", p.Phase)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s progress\n", p.Name)
	fmt.Fprintf(&b, "  Profit: %s\n", ProgressBar(p.ProgressPct, 10))
	fmt.Fprintf(&b, "    Current: %+.2f%% | Target: %.0f%%\n", p.ProfitPct, p.TargetPct)
	var days float64
	if p.MinProfitableDays > 0 {
		days = float64(p.ProfitableDays) / float64(p.MinProfitableDays) * 100
	}
	fmt.Fprintf(&b, "  Days:   %s\n", ProgressBar(days, 10))
	fmt.Fprintf(&b, "    Profitable Days: %d/%d\n", p.ProfitableDays, p.MinProfitableDays)
	if p.Complete {
		b.WriteString("  Phase complete\n")
	}
	return b.String()
}

// ProgressBar draws pct as length cells, clamped to the bar.
func ProgressBar(pct float64, length int) string {
	filled := int(pct / 100 * float64(length))
	filled = max(0, min(filled, length))
	return fmt.Sprintf("[%s%s] %.1f%%", strings.Repeat("▓", filled), strings.Repeat("░", length-filled), pct)
}

// Profile renders every rule of p.
func Profile(p profile.AccountProfile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", p.DisplayName, p.Name)
	fmt.Fprintf(&b, "  Starting balance: %s %s\n", money.USD(p.StartingBalance), p.Currency)
	fmt.Fprintf(&b, "  Risk per trade:   %.1f%% (%s)\n", p.RiskPerTradePct*100, money.USD(p.MaxRiskPerTradeUSD()))
	fmt.Fprintf(&b, "  Max open risk:    %.1f%% (%s), %d concurrent trades\n", p.MaxOpenRiskPct*100, money.USD(p.MaxOpenRiskUSD()), p.MaxConcurrentTrades)
	fmt.Fprintf(&b, "  Max daily loss:   %.1f%% (%s), safe %.1f%%\n", p.MaxDailyLossPct*100, money.USD(p.DailyLossLimitUSD()), p.SafeDailyLossLimit()*100)
	fmt.Fprintf(&b, "  Max total loss:   %.1f%% (%s), safe %.1f%%\n", p.MaxTotalLossPct*100, money.USD(p.TotalLossLimitUSD()), p.SafeTotalLossLimit()*100)
	for _, ph := range p.Phases {
		fmt.Fprintf(&b, "  %s: %.0f%% target, %d profitable days (>= %.1f%%/day)\n",
			ph.Name, ph.ProfitTargetPct*100, ph.MinProfitableDays, ph.MinProfitPerDayPct*100)
	}
	fmt.Fprintf(&b, "  No new trades after %d:00 UTC %s, %dh cooldown after %s open, %d min news blackout\n",
		p.WeeklyCutoffHourUTC, p.WeeklyCutoffDay, p.OpenCooldownHours, p.MarketOpenDay, p.NewsBlackoutMinutes)
	return b.String()
}

func groupByAsset(trades []trade.Closed) []trade.Closed {
	out := append([]trade.Closed(nil), trades...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Asset < out[j].Asset })
	return out
}

func passFail(ok bool) string {
	if ok {
		return "Pass"
	}
	return "Fail"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
