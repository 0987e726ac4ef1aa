package strategy

import (
	"fmt"
	"math"

	"github.com/rustyeddy/propfirm/market"
	"github.com/rustyeddy/propfirm/market/indicators"
	"github.com/rustyeddy/propfirm/trade"
)

type BlueprintConfig struct {
	ATRPeriod     int
	StopATR       float64    // stop distance in ATRs
	TargetsR      [3]float64 // TP1..TP3 as multiples of risk
	MinRR         float64    // TP3 reward/risk needed for the rr flag
	SwingLookback int
	FastEMA       int
	SlowEMA       int
	ADXPeriod     int
	MinADX        float64
	H4EMA         int
}

func DefaultBlueprintConfig() BlueprintConfig {
	return BlueprintConfig{
		ATRPeriod:     14,
		StopATR:       1.5,
		TargetsR:      [3]float64{1, 2, 3},
		MinRR:         2,
		SwingLookback: 20,
		FastEMA:       20,
		SlowEMA:       50,
		ADXPeriod:     14,
		MinADX:        20,
		H4EMA:         20,
	}
}

// Blueprint is a reference confluence supplier built on EMA, ATR and ADX.
// Entries are at the last daily close with an ATR based stop.
type Blueprint struct {
	cfg BlueprintConfig
}

func NewBlueprint(cfg BlueprintConfig) *Blueprint {
	return &Blueprint{cfg: cfg}
}

func (b *Blueprint) Evaluate(in Input) Candidate {
	c := Candidate{Direction: in.Direction}
	daily := in.Daily
	if len(daily) < b.cfg.ATRPeriod+1 {
		c.Notes = append(c.Notes, "not enough daily bars")
		return c
	}

	atr, ok := indicators.Run(indicators.NewATR(b.cfg.ATRPeriod), daily)
	if !ok || atr <= 0 {
		c.Notes = append(c.Notes, "ATR unavailable")
		return c
	}

	sign := in.Direction.Sign()
	last := daily[len(daily)-1]
	entry := last.Close
	risk := atr * b.cfg.StopATR
	c.Levels = Levels{
		Entry:    entry,
		StopLoss: entry - sign*risk,
		TP1:      entry + sign*risk*b.cfg.TargetsR[0],
		TP2:      entry + sign*risk*b.cfg.TargetsR[1],
		TP3:      entry + sign*risk*b.cfg.TargetsR[2],
	}

	want := TrendBullish
	if in.Direction == trade.Bearish {
		want = TrendBearish
	}

	c.Flags.HTFBias = TrendOf(in.Monthly) == want || TrendOf(in.Weekly) == want
	if c.Flags.HTFBias {
		c.Notes = append(c.Notes, "higher timeframe agrees")
	}

	lo, hi := swing(market.Last(daily, b.cfg.SwingLookback))
	if hi > lo {
		pos := (entry - lo) / (hi - lo)
		retrace := 1 - pos
		if in.Direction == trade.Bearish {
			retrace = pos
		}
		c.Flags.Location = retrace >= 0.5
		c.Flags.Fib = retrace >= 0.382 && retrace <= 0.786
		if c.Flags.Fib {
			c.Notes = append(c.Notes, fmt.Sprintf("retracement %.1f%%", retrace*100))
		}
	}

	c.Flags.Liquidity = swept(daily, in.Direction)
	c.Flags.Structure = b.structure(daily, in.Direction)
	c.Flags.Confirmation = b.confirmed(in.H4, in.Direction)
	c.Flags.RR = risk > 0 && b.cfg.TargetsR[2] >= b.cfg.MinRR

	return c
}

func (b *Blueprint) structure(daily []market.Bar, dir trade.Direction) bool {
	if len(daily) < b.cfg.SlowEMA {
		return false
	}
	fast, _ := indicators.Run(indicators.NewEMA(b.cfg.FastEMA), daily)
	slow, _ := indicators.Run(indicators.NewEMA(b.cfg.SlowEMA), daily)
	if (fast-slow)*dir.Sign() <= 0 {
		return false
	}
	adx := indicators.NewADX(b.cfg.ADXPeriod)
	if v, ready := indicators.Run(adx, daily); ready {
		return v >= b.cfg.MinADX
	}
	return true
}

func (b *Blueprint) confirmed(h4 []market.Bar, dir trade.Direction) bool {
	if len(h4) < b.cfg.H4EMA {
		return false
	}
	ema, _ := indicators.Run(indicators.NewEMA(b.cfg.H4EMA), h4)
	return (h4[len(h4)-1].Close-ema)*dir.Sign() > 0
}

// swept reports whether the last bar ran the prior five bars' extreme and
// closed back inside it.
func swept(daily []market.Bar, dir trade.Direction) bool {
	if len(daily) < 6 {
		return false
	}
	last := daily[len(daily)-1]
	lo, hi := swing(daily[len(daily)-6 : len(daily)-1])
	if dir == trade.Bearish {
		return last.High > hi && last.Close < hi
	}
	return last.Low < lo && last.Close > lo
}

func swing(bars []market.Bar) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, b := range bars {
		lo = math.Min(lo, b.Low)
		hi = math.Max(hi, b.High)
	}
	return lo, hi
}
