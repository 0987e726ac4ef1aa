package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUSD(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0"},
		{300, "$300"},
		{-300, "$-300"},
		{10_000, "$10,000"},
		{100_000, "$100,000"},
		{1_234_567.5, "$1,234,568"},
		{-2_500.4, "$-2,500"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, USD(tt.in), tt.in)
	}
}

func TestCents(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "$1,234.50", Cents(1234.5))
	assert.Equal(t, "$-0.25", Cents(-0.25))
	assert.Equal(t, "$999.00", Cents(999))
}

func TestRoundAndFixed(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 2.35, Round(2.345, 2))
	assert.Equal(t, -2.35, Round(-2.345, 2))
	assert.Equal(t, "1.10000", Fixed(1.1, 5))
	assert.Equal(t, "-100.00", Fixed(-100, 2))
}
