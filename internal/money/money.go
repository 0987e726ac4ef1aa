// Package money formats and rounds account currency amounts.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// USD formats v rounded to whole units with thousands separators, as in
// "$10,000" or "$-300".
func USD(v float64) string {
	return "$" + group(decimal.NewFromFloat(v).StringFixed(0))
}

// Cents formats v with two decimals, as in "$1,234.50".
func Cents(v float64) string {
	return "$" + group(decimal.NewFromFloat(v).StringFixed(2))
}

// Round rounds v half away from zero to places decimals.
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// Fixed renders v with exactly places decimals and no grouping, for CSV.
func Fixed(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}

// group inserts commas into the integer part of a plain decimal string.
func group(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := sign + b.String()
	if hasFrac {
		out += "." + frac
	}
	return out
}
