package market

import (
	"sort"
	"strings"
)

// ContractSpec describes how price moves convert to account currency.
type ContractSpec struct {
	Name         string
	PipValue     float64
	PipLocation  int
	ContractSize float64
}

var ContractSpecs = map[string]ContractSpec{
	"USD_JPY":    {"USD_JPY", 0.01, 2, 100_000},
	"GBP_USD":    {"GBP_USD", 0.0001, 4, 100_000},
	"EUR_USD":    {"EUR_USD", 0.0001, 4, 100_000},
	"NZD_USD":    {"NZD_USD", 0.0001, 4, 100_000},
	"AUD_USD":    {"AUD_USD", 0.0001, 4, 100_000},
	"USD_CHF":    {"USD_CHF", 0.0001, 4, 100_000},
	"USD_CAD":    {"USD_CAD", 0.0001, 4, 100_000},
	"EUR_GBP":    {"EUR_GBP", 0.0001, 4, 100_000},
	"EUR_JPY":    {"EUR_JPY", 0.01, 2, 100_000},
	"GBP_JPY":    {"GBP_JPY", 0.01, 2, 100_000},
	"AUD_JPY":    {"AUD_JPY", 0.01, 2, 100_000},
	"XAU_USD":    {"XAU_USD", 0.01, 2, 100},
	"XAG_USD":    {"XAG_USD", 0.001, 3, 5000},
	"NAS100_USD": {"NAS100_USD", 1.0, 0, 1},
	"SPX500_USD": {"SPX500_USD", 1.0, 0, 1},
	"US30_USD":   {"US30_USD", 1.0, 0, 1},
	"WTICO_USD":  {"WTICO_USD", 0.01, 2, 1000},
	"BCO_USD":    {"BCO_USD", 0.01, 2, 1000},
	"BTC_USD":    {"BTC_USD", 1.0, 0, 1},
	"ETH_USD":    {"ETH_USD", 0.01, 2, 1},
}

// Spec returns the contract spec for instrument. Unknown forex style symbols
// get a standard lot spec, JPY quoted pairs a 0.01 pip.
func Spec(instrument string) ContractSpec {
	if s, ok := ContractSpecs[instrument]; ok {
		return s
	}
	if strings.HasSuffix(instrument, "_JPY") {
		return ContractSpec{Name: instrument, PipValue: 0.01, PipLocation: 2, ContractSize: 100_000}
	}
	return ContractSpec{Name: instrument, PipValue: 0.0001, PipLocation: 4, ContractSize: 100_000}
}

var (
	ForexPairs = []string{
		"EUR_USD", "GBP_USD", "USD_JPY", "USD_CHF",
		"USD_CAD", "AUD_USD", "NZD_USD",
		"EUR_GBP", "EUR_JPY", "EUR_CHF", "EUR_AUD",
		"EUR_CAD", "EUR_NZD",
		"GBP_JPY", "GBP_CHF", "GBP_AUD", "GBP_CAD",
		"GBP_NZD",
		"AUD_JPY", "AUD_CHF", "AUD_CAD", "AUD_NZD",
		"NZD_JPY", "NZD_CHF", "NZD_CAD",
		"CAD_JPY", "CAD_CHF", "CHF_JPY",
	}
	Metals   = []string{"XAU_USD", "XAG_USD", "XAU_EUR", "XAG_EUR"}
	Indices  = []string{"US30_USD", "SPX500_USD", "NAS100_USD"}
	Energies = []string{"WTICO_USD", "BCO_USD"}
	Crypto   = []string{"BTC_USD", "ETH_USD", "LTC_USD", "BCH_USD"}

	// RemovedAssets are excluded from backtests and live trading.
	RemovedAssets = []string{
		"NATGAS",
		"XPTUSD", "XPT_USD",
		"XPDUSD", "XPD_USD",
		"XAUGBP", "XAU_GBP",
		"XAUAUD", "XAU_AUD",
		"XCUUSD", "XCU_USD",
	}
)

func normalize(asset string) string {
	return strings.ReplaceAll(strings.ToUpper(asset), "_", "")
}

// IsRemoved reports whether asset is on the removed list, ignoring case and
// underscores.
func IsRemoved(asset string) bool {
	n := normalize(asset)
	for _, r := range RemovedAssets {
		if n == normalize(r) {
			return true
		}
	}
	return false
}

// AllInstruments is the sorted, de-duplicated scan universe.
func AllInstruments() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, group := range [][]string{ForexPairs, Metals, Indices, Energies, Crypto} {
		for _, s := range group {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// FilterRemoved drops removed assets, keeping order.
func FilterRemoved(assets []string) []string {
	out := make([]string, 0, len(assets))
	for _, a := range assets {
		if !IsRemoved(a) {
			out = append(out, a)
		}
	}
	return out
}
