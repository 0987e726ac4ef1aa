package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/rustyeddy/propfirm/trade"
)

// Thresholds an asset must meet over a year.
const (
	MinYearlyTrades  = 50
	MinYearlyWinRate = 70.0
	MaxYearlyWinRate = 100.0
)

// Check is one pass/fail line of a Validation.
type Check struct {
	Pass   bool    `json:"pass"`
	Value  float64 `json:"value"`
	Reason string  `json:"reason"`
}

// Validation grades a year of results for one asset.
type Validation struct {
	TradeCount    Check `json:"trade_count"`
	WinRate       Check `json:"win_rate"`
	Profitability Check `json:"profitability"`
	Expectancy    Check `json:"expectancy"`
	AllPass       bool  `json:"all_pass"`
}

func mark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}

// Validate grades trade count, win rate, return and expectancy.
func Validate(totalTrades int, winRate, netReturnPct, avgR float64) Validation {
	var v Validation

	ok := totalTrades >= MinYearlyTrades
	v.TradeCount = Check{ok, float64(totalTrades), fmt.Sprintf("%s %d/%d+ trades", mark(ok), totalTrades, MinYearlyTrades)}

	ok = winRate >= MinYearlyWinRate && winRate <= MaxYearlyWinRate
	v.WinRate = Check{ok, winRate, fmt.Sprintf("%s %.1f%% (target: %.0f-%.0f%%)", mark(ok), winRate, MinYearlyWinRate, MaxYearlyWinRate)}

	ok = netReturnPct > 0
	v.Profitability = Check{ok, netReturnPct, fmt.Sprintf("%s %+.1f%% return", mark(ok), netReturnPct)}

	ok = avgR > 0
	v.Expectancy = Check{ok, avgR, fmt.Sprintf("%s %+.2fR expectancy", mark(ok), avgR)}

	v.AllPass = v.TradeCount.Pass && v.WinRate.Pass && v.Profitability.Pass && v.Expectancy.Pass
	return v
}

// Checks returns the validation lines in display order.
func (v Validation) Checks() []Check {
	return []Check{v.TradeCount, v.WinRate, v.Profitability, v.Expectancy}
}

// YearlyReport is a month by month backtest of one asset.
type YearlyReport struct {
	Asset          string         `json:"asset"`
	Year           int            `json:"year"`
	Profile        string         `json:"profile"`
	TotalTrades    int            `json:"total_trades"`
	WinRate        float64        `json:"win_rate"`
	NetReturnPct   float64        `json:"net_return_pct"`
	TotalProfitUSD float64        `json:"total_profit_usd"`
	AvgR           float64        `json:"avg_rr"`
	Months         []Report       `json:"monthly_results"`
	Trades         []trade.Closed `json:"trades"`
	Validation     Validation     `json:"validation"`
}

// Yearly loads asset once and backtests each calendar month of year on it.
// Months without bars report zero trades.
func (r *Runner) Yearly(ctx context.Context, asset string, year int) (YearlyReport, error) {
	s, err := r.Load(ctx, asset)
	if err != nil {
		return YearlyReport{}, err
	}
	return r.YearlySeries(asset, s, year), nil
}

// YearlySeries is Yearly over already loaded bars.
func (r *Runner) YearlySeries(asset string, s Series, year int) YearlyReport {
	y := YearlyReport{
		Asset:   asset,
		Year:    year,
		Profile: r.Profile.DisplayName,
		Trades:  []trade.Closed{},
	}

	for m := time.January; m <= time.December; m++ {
		trades := r.Trades(asset, s, MonthPeriod(year, m))
		rep := NewReport(asset, fmt.Sprintf("%s %d", m, year), r.Profile, trades)

		y.Months = append(y.Months, rep)
		y.Trades = append(y.Trades, trades...)
		y.TotalProfitUSD += rep.TotalProfitUSD
		y.NetReturnPct += rep.NetReturnPct
	}

	y.TotalTrades = len(y.Trades)
	if y.TotalTrades > 0 {
		var wins int
		var totalR float64
		for _, t := range y.Trades {
			if t.Win() {
				wins++
			}
			totalR += t.R
		}
		y.WinRate = float64(wins) / float64(y.TotalTrades) * 100
		y.AvgR = totalR / float64(y.TotalTrades)
	}

	y.Validation = Validate(y.TotalTrades, y.WinRate, y.NetReturnPct, y.AvgR)
	r.logger().Info("yearly backtest complete", "asset", asset, "year", year,
		"trades", y.TotalTrades, "all_pass", y.Validation.AllPass)
	return y
}
