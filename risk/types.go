// Package risk is the live counterpart of the challenge simulator: a
// stateful gate that admits or rejects proposed trades against an account
// profile's loss, exposure and timing rules.
package risk

import (
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/propfirm/trade"
)

type Verdict string

const (
	Allowed             Verdict = "ALLOWED"
	WarningNearLimit    Verdict = "WARNING_NEAR_LIMIT"
	BlockedWeeklyCutoff Verdict = "BLOCKED_WEEKLY_CUTOFF"
	BlockedOpenCooldown Verdict = "BLOCKED_OPEN_COOLDOWN"
	BlockedNewsEvent    Verdict = "BLOCKED_NEWS_EVENT"
	BlockedConcurrent   Verdict = "BLOCKED_CONCURRENT"
	BlockedOpenRisk     Verdict = "BLOCKED_OPEN_RISK"
	BlockedDailyLoss    Verdict = "BLOCKED_DAILY_LOSS"
	BlockedTotalLoss    Verdict = "BLOCKED_TOTAL_LOSS"
)

// warnUsage is the share of a safe limit above which an admitted trade
// carries a warning.
const warnUsage = 0.7

// Admits reports whether a trade may be opened. A warning admits the trade;
// the caller is expected to surface the message.
func (v Verdict) Admits() bool {
	return v == Allowed || v == WarningNearLimit
}

// Decision is the outcome of a risk check. Rule violations are decisions,
// never errors.
type Decision struct {
	Verdict Verdict `json:"verdict"`
	Message string  `json:"message"`
}

func (d Decision) String() string {
	return fmt.Sprintf("%s: %s", d.Verdict, d.Message)
}

var (
	ErrDuplicateTrade = errors.New("trade already open")
	ErrInvalidTrade   = errors.New("invalid trade record")
)

// TradeRecord is a live trade as tracked by the Manager. Exit fields are
// zero while the trade is open.
type TradeRecord struct {
	ID         string          `json:"trade_id"`
	Symbol     string          `json:"symbol"`
	Direction  trade.Direction `json:"direction"`
	EntryPrice float64         `json:"entry_price"`
	StopLoss   float64         `json:"stop_loss"`
	LotSize    float64         `json:"lot_size"`
	RiskUSD    float64         `json:"risk_usd"`
	RiskPct    float64         `json:"risk_pct"`
	EntryTime  time.Time       `json:"entry_datetime"`
	ExitTime   time.Time       `json:"exit_datetime,omitzero"`
	ExitPrice  float64         `json:"exit_price,omitempty"`
	PnLUSD     float64         `json:"pnl_usd,omitempty"`
	Open       bool            `json:"is_open"`
}

func (t TradeRecord) validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidTrade)
	}
	if t.RiskUSD < 0 {
		return fmt.Errorf("%w: %s risk %v is negative", ErrInvalidTrade, t.ID, t.RiskUSD)
	}
	return nil
}

// DailyPnL is one UTC day of activity.
type DailyPnL struct {
	Date          string  `json:"date"`
	RealizedUSD   float64 `json:"realized_pnl_usd"`
	UnrealizedUSD float64 `json:"unrealized_pnl_usd"`
	TradesOpened  int     `json:"trades_opened"`
	TradesClosed  int     `json:"trades_closed"`
}

func (d DailyPnL) TotalUSD() float64 { return d.RealizedUSD + d.UnrealizedUSD }

// Profitable reports whether realized P&L reached minProfitUSD.
func (d DailyPnL) Profitable(minProfitUSD float64) bool {
	return d.RealizedUSD >= minProfitUSD
}

// NewsEvent is a high impact release that blocks new trades around it.
type NewsEvent struct {
	Time time.Time `json:"time"`
	Name string    `json:"name"`
}

// PhaseProgress reports how far the account is through its current phase.
type PhaseProgress struct {
	Phase             int     `json:"phase"`
	Name              string  `json:"phase_name"`
	Known             bool    `json:"-"`
	ProfitUSD         float64 `json:"current_profit_usd"`
	ProfitPct         float64 `json:"current_profit_pct"`
	TargetUSD         float64 `json:"target_profit_usd"`
	TargetPct         float64 `json:"target_profit_pct"`
	ProgressPct       float64 `json:"progress_pct"`
	ProfitableDays    int     `json:"profitable_days"`
	MinProfitableDays int     `json:"min_profitable_days"`
	DaysRemaining     int     `json:"days_remaining"`
	Complete          bool    `json:"phase_complete"`
}

// Summary is a point in time view of the Manager's exposure. Percentages
// are expressed in percent, not fractions.
type Summary struct {
	Profile         string        `json:"profile"`
	StartingBalance float64       `json:"starting_balance"`
	Balance         float64       `json:"current_balance"`
	PeakBalance     float64       `json:"peak_balance"`
	OpenTrades      int           `json:"open_trades"`
	MaxConcurrent   int           `json:"max_concurrent"`
	OpenRiskUSD     float64       `json:"open_risk_usd"`
	OpenRiskPct     float64       `json:"open_risk_pct"`
	MaxOpenRiskPct  float64       `json:"max_open_risk_pct"`
	DailyPnLUSD     float64       `json:"daily_pnl_usd"`
	DailyPnLPct     float64       `json:"daily_pnl_pct"`
	MaxDailyLossPct float64       `json:"max_daily_loss_pct"`
	DrawdownUSD     float64       `json:"total_drawdown_usd"`
	DrawdownPct     float64       `json:"total_drawdown_pct"`
	MaxTotalLossPct float64       `json:"max_total_loss_pct"`
	ProjDailyPct    float64       `json:"projected_daily_loss_pct"`
	ProjTotalPct    float64       `json:"projected_total_loss_pct"`
	Phase           PhaseProgress `json:"phase_progress"`
}
