// Package challenge replays closed trades against prop-firm challenge rules.
package challenge

import (
	"fmt"

	"github.com/rustyeddy/propfirm/profile"
	"github.com/rustyeddy/propfirm/trade"
)

// PhaseResult is the verdict for one challenge phase.
type PhaseResult struct {
	Phase               int     `json:"phase"`
	Name                string  `json:"name"`
	Passed              bool    `json:"passed"`
	TargetReached       bool    `json:"target_reached"`
	Reason              string  `json:"reason"`
	DaysToComplete      int     `json:"days_to_complete"`
	TradingDays         int     `json:"trading_days"`
	ProfitableDays      int     `json:"profitable_days"`
	MinProfitableDays   int     `json:"min_profitable_days"`
	DailyLossViolations int     `json:"daily_loss_violations"`
	TotalLossViolations int     `json:"total_loss_violations"`
	StartBalance        float64 `json:"start_balance"`
	FinalBalance        float64 `json:"final_balance"`
	FinalPnLPct         float64 `json:"final_pnl_pct"`
	TargetPnLPct        float64 `json:"target_pnl_pct"`
}

// Violations is the total number of loss-limit breaches.
func (r PhaseResult) Violations() int {
	return r.DailyLossViolations + r.TotalLossViolations
}

// SimulatePhase evaluates a single phase in isolation, starting from the
// profile's starting balance. Trades are ordered by exit time first.
//
// Profitable days are counted over every trading day in the list, after the
// replay. Violations are counted after every trade, so a day that stays past
// the daily limit for several trades counts once per trade.
func SimulatePhase(trades []trade.Closed, p profile.AccountProfile, phase int) PhaseResult {
	ph, ok := p.Phase(phase)
	if !ok {
		return PhaseResult{
			Phase:        phase,
			Reason:       fmt.Sprintf("Profile %s has no phase %d", p.Name, phase),
			StartBalance: p.StartingBalance,
			FinalBalance: p.StartingBalance,
		}
	}

	res := PhaseResult{
		Phase:             phase,
		Name:              ph.Name,
		MinProfitableDays: ph.MinProfitableDays,
		StartBalance:      p.StartingBalance,
		FinalBalance:      p.StartingBalance,
		TargetPnLPct:      ph.ProfitTargetPct * 100,
	}
	if len(trades) == 0 {
		res.Reason = "No trades"
		return res
	}

	start := p.StartingBalance
	riskUSD := p.MaxRiskPerTradeUSD()
	target := start * (1 + ph.ProfitTargetPct)
	dailyLimit := p.DailyLossLimitUSD()
	totalLimit := p.TotalLossLimitUSD()

	balance := start
	days := newDayLedger()

	for _, t := range chronological(trades) {
		pnl := t.R * riskUSD
		day := days.add(dayOf(t), pnl)
		balance += pnl

		if day < 0 && -day > dailyLimit {
			res.DailyLossViolations++
		}
		if start-balance > totalLimit {
			res.TotalLossViolations++
		}
		if balance >= target && !res.TargetReached {
			res.TargetReached = true
			res.DaysToComplete = days.days()
		}
	}

	res.TradingDays = days.days()
	res.ProfitableDays = days.profitable(start * ph.MinProfitPerDayPct)
	res.FinalBalance = balance
	res.FinalPnLPct = (balance - start) / start * 100

	res.Passed = res.TargetReached &&
		res.ProfitableDays >= ph.MinProfitableDays &&
		res.Violations() == 0
	if !res.Passed {
		res.DaysToComplete = res.TradingDays
	}
	res.Reason = phaseReason(res)
	return res
}

// phaseReason picks exactly one explanation: loss violations, then
// profitable days, then the target.
func phaseReason(r PhaseResult) string {
	switch {
	case r.Passed:
		return fmt.Sprintf("Passed in %d trading days", r.DaysToComplete)
	case r.DailyLossViolations > 0:
		return fmt.Sprintf("Failed: %d daily loss violations", r.DailyLossViolations)
	case r.TotalLossViolations > 0:
		return fmt.Sprintf("Failed: %d total loss violations", r.TotalLossViolations)
	case r.ProfitableDays < r.MinProfitableDays:
		return fmt.Sprintf("Failed: Only %d/%d profitable days", r.ProfitableDays, r.MinProfitableDays)
	default:
		return fmt.Sprintf("Did not reach target (%.1f%% vs %.1f%%)", r.FinalPnLPct, r.TargetPnLPct)
	}
}
