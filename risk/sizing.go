package risk

import (
	"fmt"
	"math"

	"github.com/rustyeddy/propfirm/market"
	"github.com/rustyeddy/propfirm/profile"
)

// PlannedRiskUSD is the account currency loss if the stop is hit.
func PlannedRiskUSD(units, entry, stop, quoteToAccountRate float64) float64 {
	return units * math.Abs(entry-stop) * quoteToAccountRate
}

// RR is reward over risk, or 0 when the stop sits on the entry.
func RR(entry, stop, takeProfit float64) float64 {
	risk := math.Abs(entry - stop)
	if risk == 0 {
		return 0
	}
	return math.Abs(takeProfit-entry) / risk
}

type Inputs struct {
	Equity         float64
	RiskPct        float64
	EntryPrice     float64
	StopPrice      float64
	PipSize        float64
	QuoteToAccount float64 // 1.0 for USD quoted pairs, 1/USDJPY for JPY quoted
}

type Result struct {
	Units      float64
	StopPips   float64
	RiskAmount float64
}

// Calculate sizes a position so a stop out loses Equity*RiskPct.
func Calculate(in Inputs) Result {
	stopPips := math.Abs(in.EntryPrice-in.StopPrice) / in.PipSize
	riskAmt := in.Equity * in.RiskPct
	units := riskAmt / (stopPips * in.PipSize * in.QuoteToAccount)

	return Result{
		Units:      math.Floor(units),
		StopPips:   stopPips,
		RiskAmount: riskAmt,
	}
}

// Sizing is a position sized against a profile's per trade risk.
type Sizing struct {
	Instrument string  `json:"instrument"`
	Lots       float64 `json:"lot_size"`
	Units      float64 `json:"units"`
	StopPips   float64 `json:"stop_pips"`
	RiskUSD    float64 `json:"risk_usd"`
	RiskPct    float64 `json:"risk_pct"`
}

const (
	minLot = 0.01

	// lotEpsilon absorbs float noise before flooring to whole micro lots.
	lotEpsilon = 1e-6
)

// Size converts the profile's per trade risk into lots for instrument. Lots
// are floored to 0.01 with a floor of one micro lot, so RiskUSD reports the
// risk actually taken.
func Size(p profile.AccountProfile, instrument string, entry, stop, quoteToAccount float64) (Sizing, error) {
	if entry <= 0 || stop <= 0 || entry == stop {
		return Sizing{}, fmt.Errorf("size %s: entry %v and stop %v must be positive and distinct", instrument, entry, stop)
	}
	if quoteToAccount <= 0 {
		quoteToAccount = 1
	}
	spec := market.Spec(instrument)

	res := Calculate(Inputs{
		Equity:         p.StartingBalance,
		RiskPct:        p.RiskPerTradePct,
		EntryPrice:     entry,
		StopPrice:      stop,
		PipSize:        spec.PipValue,
		QuoteToAccount: quoteToAccount,
	})

	raw := res.RiskAmount / (math.Abs(entry-stop) * quoteToAccount * spec.ContractSize)
	lots := math.Floor(raw/minLot+lotEpsilon) * minLot
	lots = math.Max(lots, minLot)

	units := lots * spec.ContractSize
	riskUSD := PlannedRiskUSD(units, entry, stop, quoteToAccount)
	return Sizing{
		Instrument: instrument,
		Lots:       lots,
		Units:      units,
		StopPips:   res.StopPips,
		RiskUSD:    riskUSD,
		RiskPct:    riskUSD / p.StartingBalance,
	}, nil
}
