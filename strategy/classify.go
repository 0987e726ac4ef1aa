package strategy

import (
	"github.com/rustyeddy/propfirm/market"
	"github.com/rustyeddy/propfirm/market/indicators"
	"github.com/rustyeddy/propfirm/trade"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusWatching Status = "watching"
	StatusScanOnly Status = "scan_only"
)

// Classify decides whether a setup may be traded. Only active setups are
// opened by the simulator.
func Classify(f Flags, minConfluence int) Status {
	score := f.Score()
	switch {
	case f.RR && score >= minConfluence && f.QualityFactors() >= 1:
		return StatusActive
	case score >= minConfluence:
		return StatusWatching
	default:
		return StatusScanOnly
	}
}

type Trend string

const (
	TrendBullish Trend = "bullish"
	TrendBearish Trend = "bearish"
	TrendMixed   Trend = "mixed"
)

// InferTrend compares a fast and slow EMA of closes with the last close.
// Series too short for a comparison are mixed.
func InferTrend(bars []market.Bar) Trend {
	if len(bars) < 3 {
		return TrendMixed
	}
	fast, _ := indicators.Run(indicators.NewEMA(min(8, len(bars))), bars)
	slow, _ := indicators.Run(indicators.NewEMA(min(21, len(bars))), bars)
	last := bars[len(bars)-1].Close

	switch {
	case fast > slow && last > slow:
		return TrendBullish
	case fast < slow && last < slow:
		return TrendBearish
	}
	return TrendMixed
}

// PickDirection takes the majority of the monthly, weekly and daily trends.
// Ties go to the weekly trend, then the daily one, then bullish. The second
// return value is how many timeframes agree with the chosen direction.
func PickDirection(monthly, weekly, daily Trend) (trade.Direction, int) {
	bull, bear := 0, 0
	for _, t := range []Trend{monthly, weekly, daily} {
		switch t {
		case TrendBullish:
			bull++
		case TrendBearish:
			bear++
		}
	}

	switch {
	case bull > bear:
		return trade.Bullish, bull
	case bear > bull:
		return trade.Bearish, bear
	}
	for _, t := range []Trend{weekly, daily} {
		if t == TrendBullish {
			return trade.Bullish, bull
		}
		if t == TrendBearish {
			return trade.Bearish, bear
		}
	}
	return trade.Bullish, bull
}

// TrendOf returns the trend of bars, or mixed when there are none.
func TrendOf(bars []market.Bar) Trend {
	if len(bars) == 0 {
		return TrendMixed
	}
	return InferTrend(bars)
}
