package challenge

import (
	"fmt"

	"github.com/rustyeddy/propfirm/profile"
	"github.com/rustyeddy/propfirm/trade"
)

// Result is the outcome of a full, sequential challenge run.
type Result struct {
	Profile             string         `json:"profile"`
	Label               string         `json:"label,omitempty"`
	Passed              bool           `json:"passed"`
	Phases              []PhaseResult  `json:"phases"`
	FailureReason       string         `json:"failure_reason,omitempty"`
	DaysToPass          int            `json:"days_to_pass"`
	TradingDays         int            `json:"trading_days"`
	ProfitableDays      int            `json:"profitable_days"`
	DailyLossViolations int            `json:"daily_loss_violations"`
	TotalLossViolations int            `json:"total_loss_violations"`
	MaxDailyDrawdownPct float64        `json:"max_daily_drawdown_pct"`
	MaxTotalDrawdownPct float64        `json:"max_total_drawdown_pct"`
	StartBalance        float64        `json:"start_balance"`
	FinalBalance        float64        `json:"final_balance"`
	TotalProfitUSD      float64        `json:"total_profit_usd"`
	TotalProfitPct      float64        `json:"total_profit_pct"`
	TotalTrades         int            `json:"total_trades"`
	Trades              []trade.Closed `json:"trades"`
	FailedAssets        []string       `json:"failed_assets,omitempty"`
}

// phaseRun tracks one phase while trades are replayed.
type phaseRun struct {
	cfg     profile.ChallengePhase
	res     PhaseResult
	days    *dayLedger
	minDay  float64
	target  float64
	started bool
}

func newPhaseRun(n int, cfg profile.ChallengePhase) *phaseRun {
	return &phaseRun{
		cfg:  cfg,
		days: newDayLedger(),
		res: PhaseResult{
			Phase:             n,
			Name:              cfg.Name,
			MinProfitableDays: cfg.MinProfitableDays,
			TargetPnLPct:      cfg.ProfitTargetPct * 100,
		},
	}
}

func (ph *phaseRun) start(balance float64) {
	ph.started = true
	ph.res.StartBalance = balance
	ph.res.FinalBalance = balance
	ph.target = balance * (1 + ph.cfg.ProfitTargetPct)
	ph.minDay = balance * ph.cfg.MinProfitPerDayPct
}

func (ph *phaseRun) book(day string, pnl, balance float64) {
	ph.days.add(day, pnl)
	ph.res.FinalBalance = balance
	ph.res.TradingDays = ph.days.days()
	ph.res.ProfitableDays = ph.days.profitable(ph.minDay)
	if balance >= ph.target {
		ph.res.TargetReached = true
	}
}

// finish settles the verdict once the replay is over.
func (ph *phaseRun) finish(violated bool) {
	ph.res.Passed = ph.res.TargetReached &&
		ph.res.ProfitableDays >= ph.cfg.MinProfitableDays &&
		!violated
	if !ph.res.Passed {
		ph.res.DaysToComplete = ph.res.TradingDays
	}
	ph.res.FinalPnLPct = pct(ph.res.FinalBalance, ph.res.StartBalance)
	ph.res.Reason = phaseReason(ph.res)
	if !ph.started {
		ph.res.Reason = "Not started"
	}
}

// Simulate replays trades across every phase of the profile in order.
//
// Each phase starts at the balance the previous one finished with and keeps
// its own day count. The next phase takes over as soon as the current target
// is reached. Profitable days and loss limits only decide the verdict after
// the replay; loss limits are account wide, so any violation fails every
// phase. Trades after the final target is reached are ignored.
func Simulate(trades []trade.Closed, p profile.AccountProfile) Result {
	res := Result{
		Profile:      p.DisplayName,
		StartBalance: p.StartingBalance,
		FinalBalance: p.StartingBalance,
		TotalTrades:  len(trades),
	}

	phases := make([]*phaseRun, len(p.Phases))
	for i, cfg := range p.Phases {
		phases[i] = newPhaseRun(i+1, cfg)
	}
	if len(trades) == 0 {
		res.FailureReason = "No trades generated during this period"
		res.Phases = results(phases)
		return res
	}

	ordered := chronological(trades)
	res.Trades = ordered

	start := p.StartingBalance
	riskUSD := p.MaxRiskPerTradeUSD()
	dailyLimit := p.DailyLossLimitUSD()
	totalLimit := p.TotalLossLimitUSD()

	balance := start
	days := newDayLedger()
	cur := 0
	handover := 0
	if len(phases) > 0 {
		phases[0].start(balance)
	}

	for _, t := range ordered {
		if cur >= len(phases) {
			break
		}
		key := dayOf(t)
		pnl := t.R * riskUSD
		day := days.add(key, pnl)
		balance += pnl

		if day < 0 && -day > dailyLimit {
			res.DailyLossViolations++
		}
		dd := start - balance
		if dd > totalLimit {
			res.TotalLossViolations++
		}
		if day < 0 {
			res.MaxDailyDrawdownPct = max(res.MaxDailyDrawdownPct, -day/start*100)
		}
		if dd > 0 {
			res.MaxTotalDrawdownPct = max(res.MaxTotalDrawdownPct, dd/start*100)
		}

		ph := phases[cur]
		ph.book(key, pnl, balance)
		if ph.res.TargetReached {
			ph.res.DaysToComplete = days.days() - handover
			handover = days.days()
			res.DaysToPass = handover
			cur++
			if cur < len(phases) {
				phases[cur].start(balance)
			}
		}
	}

	res.FinalBalance = balance
	res.TotalProfitUSD = balance - start
	res.TotalProfitPct = (balance - start) / start * 100
	res.TradingDays = days.days()
	res.ProfitableDays = days.profitable(start * firstMinDay(p))

	violated := res.DailyLossViolations > 0 || res.TotalLossViolations > 0
	for _, ph := range phases {
		ph.res.DailyLossViolations = res.DailyLossViolations
		ph.res.TotalLossViolations = res.TotalLossViolations
		ph.finish(violated)
	}
	res.Phases = results(phases)

	res.Passed = len(phases) > 0 && !violated
	for _, ph := range res.Phases {
		res.Passed = res.Passed && ph.Passed
	}
	if !res.Passed {
		res.DaysToPass = 0
	}
	res.FailureReason = failureReason(res)
	return res
}

// failureReason follows the same priority as a single phase and reports
// the first phase that did not pass.
func failureReason(r Result) string {
	switch {
	case r.Passed:
		return ""
	case r.DailyLossViolations > 0:
		return fmt.Sprintf("Daily loss limit breached %d time(s)", r.DailyLossViolations)
	case r.TotalLossViolations > 0:
		return fmt.Sprintf("Total loss limit breached %d time(s)", r.TotalLossViolations)
	}
	for i, ph := range r.Phases {
		if ph.Passed {
			continue
		}
		if ph.TargetReached {
			return fmt.Sprintf("Phase %d: only %d/%d profitable days", ph.Phase, ph.ProfitableDays, ph.MinProfitableDays)
		}
		if i == 0 {
			return fmt.Sprintf("Phase %d target (%.0f%%) not reached", ph.Phase, ph.TargetPnLPct)
		}
		return fmt.Sprintf("Phase %d target (%.0f%%) not reached after Phase %d", ph.Phase, ph.TargetPnLPct, i)
	}
	return "No phases configured"
}

func results(phases []*phaseRun) []PhaseResult {
	out := make([]PhaseResult, len(phases))
	for i, ph := range phases {
		out[i] = ph.res
	}
	return out
}

func firstMinDay(p profile.AccountProfile) float64 {
	if ph, ok := p.Phase(1); ok {
		return ph.MinProfitPerDayPct
	}
	return 0
}

func pct(v, base float64) float64 {
	if base == 0 {
		return 0
	}
	return (v - base) / base * 100
}
