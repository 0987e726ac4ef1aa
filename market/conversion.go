package market

import (
	"fmt"
	"strings"
)

// Currencies splits an OANDA style symbol into base and quote.
func Currencies(instrument string) (base, quote string, ok bool) {
	base, quote, ok = strings.Cut(strings.ToUpper(instrument), "_")
	return base, quote, ok && base != "" && quote != ""
}

// QuoteToAccountRate converts one unit of instrument's quote currency into
// the account currency, given the instrument's mid price.
func QuoteToAccountRate(instrument, accountCurrency string, mid float64) (float64, error) {
	base, quote, ok := Currencies(instrument)
	if !ok {
		return 0, fmt.Errorf("unknown instrument %s", instrument)
	}

	// EUR_USD, XAU_USD, NAS100_USD for a USD account
	if quote == accountCurrency {
		return 1.0, nil
	}

	// USD_JPY: mid is JPY per USD, we want USD per JPY
	if base == accountCurrency {
		if mid <= 0 {
			return 0, fmt.Errorf("%s: price %v must be positive", instrument, mid)
		}
		return 1.0 / mid, nil
	}

	return 0, fmt.Errorf("cross conversion not implemented for %s → %s", quote, accountCurrency)
}
