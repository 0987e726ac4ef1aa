// Package indicators provides streaming technical indicators over market bars.
package indicators

import "github.com/rustyeddy/propfirm/market"

// Indicator computes a single streaming value from bars.
// It is deterministic and safe to use in replay and live scans.
type Indicator interface {
	// Name returns a stable identifier like "EMA(20)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	Reset()

	// Update consumes the next closed bar.
	Update(b market.Bar)

	Ready() bool

	// Float64 is the current value, 0 until Ready.
	Float64() float64
}

// Run feeds every bar to ind and returns its final value and readiness.
func Run(ind Indicator, bars []market.Bar) (float64, bool) {
	ind.Reset()
	for _, b := range bars {
		ind.Update(b)
	}
	return ind.Float64(), ind.Ready()
}
