// Package profile holds the prop-firm account profiles shared by the
// backtest, the challenge simulator and the live risk manager.
package profile

import (
	"fmt"
	"time"
)

// ChallengePhase is one sequential profit milestone of a challenge.
type ChallengePhase struct {
	Name               string  `json:"name" yaml:"name"`
	ProfitTargetPct    float64 `json:"profit_target_pct" yaml:"profit_target_pct"`
	MinProfitableDays  int     `json:"min_profitable_days" yaml:"min_profitable_days"`
	MinProfitPerDayPct float64 `json:"min_profit_per_day_pct" yaml:"min_profit_per_day_pct"`
}

// AccountProfile is the complete rule set for a prop-firm account. All
// percentages are fractions (0.05 == 5%).
type AccountProfile struct {
	Name            string  `json:"name" yaml:"name"`
	DisplayName     string  `json:"display_name" yaml:"display_name"`
	StartingBalance float64 `json:"starting_balance" yaml:"starting_balance"`
	Currency        string  `json:"currency" yaml:"currency"`

	MaxDailyLossPct float64 `json:"max_daily_loss_pct" yaml:"max_daily_loss_pct"`
	MaxTotalLossPct float64 `json:"max_total_loss_pct" yaml:"max_total_loss_pct"`

	RiskPerTradePct     float64 `json:"risk_per_trade_pct" yaml:"risk_per_trade_pct"`
	MaxOpenRiskPct      float64 `json:"max_open_risk_pct" yaml:"max_open_risk_pct"`
	MaxConcurrentTrades int     `json:"max_concurrent_trades" yaml:"max_concurrent_trades"`

	Phases []ChallengePhase `json:"phases" yaml:"phases"`

	DailyLossBufferPct float64 `json:"daily_loss_buffer_pct" yaml:"daily_loss_buffer_pct"`
	TotalLossBufferPct float64 `json:"total_loss_buffer_pct" yaml:"total_loss_buffer_pct"`

	// Time restrictions, all evaluated in UTC.
	WeeklyCutoffDay     time.Weekday `json:"weekly_cutoff_day" yaml:"weekly_cutoff_day"`
	WeeklyCutoffHourUTC int          `json:"weekly_cutoff_hour_utc" yaml:"weekly_cutoff_hour_utc"`
	MarketOpenDay       time.Weekday `json:"market_open_day" yaml:"market_open_day"`
	OpenCooldownHours   int          `json:"open_cooldown_hours" yaml:"open_cooldown_hours"`
	NewsBlackoutMinutes int          `json:"news_blackout_minutes" yaml:"news_blackout_minutes"`

	AllowWeekendHolding   bool   `json:"allow_weekend_holding" yaml:"allow_weekend_holding"`
	AllowOvernightHolding bool   `json:"allow_overnight_holding" yaml:"allow_overnight_holding"`
	Platform              string `json:"platform" yaml:"platform"`
	HedgeMode             bool   `json:"hedge_mode" yaml:"hedge_mode"`
}

// SafeDailyLossLimit is the daily loss limit minus its safety buffer.
func (p AccountProfile) SafeDailyLossLimit() float64 {
	return p.MaxDailyLossPct - p.DailyLossBufferPct
}

// SafeTotalLossLimit is the total loss limit minus its safety buffer.
func (p AccountProfile) SafeTotalLossLimit() float64 {
	return p.MaxTotalLossPct - p.TotalLossBufferPct
}

// Phase returns the 1-indexed phase.
func (p AccountProfile) Phase(n int) (ChallengePhase, bool) {
	if n < 1 || n > len(p.Phases) {
		return ChallengePhase{}, false
	}
	return p.Phases[n-1], true
}

func (p AccountProfile) MaxRiskPerTradeUSD() float64 {
	return p.StartingBalance * p.RiskPerTradePct
}

func (p AccountProfile) MaxOpenRiskUSD() float64 {
	return p.StartingBalance * p.MaxOpenRiskPct
}

func (p AccountProfile) DailyLossLimitUSD() float64 {
	return p.StartingBalance * p.MaxDailyLossPct
}

func (p AccountProfile) TotalLossLimitUSD() float64 {
	return p.StartingBalance * p.MaxTotalLossPct
}

// Validate checks that the profile can drive the simulators and the risk
// manager. It is the only profile error that reaches a caller.
func (p AccountProfile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile.name is required")
	}
	if p.StartingBalance <= 0 {
		return fmt.Errorf("profile.starting_balance must be positive")
	}
	if p.Currency == "" {
		return fmt.Errorf("profile.currency is required")
	}
	for name, v := range map[string]float64{
		"max_daily_loss_pct": p.MaxDailyLossPct,
		"max_total_loss_pct": p.MaxTotalLossPct,
		"risk_per_trade_pct": p.RiskPerTradePct,
		"max_open_risk_pct":  p.MaxOpenRiskPct,
	} {
		if v <= 0 || v > 1 {
			return fmt.Errorf("profile.%s must be between 0 and 1", name)
		}
	}
	if p.SafeDailyLossLimit() <= 0 {
		return fmt.Errorf("profile.daily_loss_buffer_pct leaves no safe daily limit")
	}
	if p.SafeTotalLossLimit() <= 0 {
		return fmt.Errorf("profile.total_loss_buffer_pct leaves no safe total limit")
	}
	if p.MaxConcurrentTrades <= 0 {
		return fmt.Errorf("profile.max_concurrent_trades must be positive")
	}
	if len(p.Phases) == 0 {
		return fmt.Errorf("profile.phases must not be empty")
	}
	for i, ph := range p.Phases {
		if ph.ProfitTargetPct <= 0 {
			return fmt.Errorf("profile.phases[%d].profit_target_pct must be positive", i)
		}
		if ph.MinProfitableDays < 0 {
			return fmt.Errorf("profile.phases[%d].min_profitable_days must not be negative", i)
		}
	}
	if p.WeeklyCutoffHourUTC < 0 || p.WeeklyCutoffHourUTC > 24 {
		return fmt.Errorf("profile.weekly_cutoff_hour_utc must be between 0 and 24")
	}
	if p.OpenCooldownHours < 0 || p.NewsBlackoutMinutes < 0 {
		return fmt.Errorf("profile time restrictions must not be negative")
	}
	return nil
}

// Info is the one line banner used by the CLI.
func (p AccountProfile) Info() string {
	return fmt.Sprintf("%s | $%.0f | Risk: %.1f%%/trade | Max DD: %.0f%%",
		p.DisplayName, p.StartingBalance, p.RiskPerTradePct*100, p.MaxTotalLossPct*100)
}
