package indicators

import (
	"testing"

	"github.com/rustyeddy/propfirm/market"
	"github.com/stretchr/testify/require"
)

func mkBar(o, h, l, c float64) market.Bar {
	return market.Bar{Open: o, High: h, Low: l, Close: c}
}

func feedFlat(ind Indicator, n int, price float64) {
	for i := 0; i < n; i++ {
		ind.Update(mkBar(price, price, price, price))
	}
}

func feedUptrend(ind Indicator, n int, start, step, halfRange float64) {
	p := start
	for i := 0; i < n; i++ {
		o := p
		c := p + step
		ind.Update(mkBar(o, c+halfRange, o-halfRange, c))
		p = c
	}
}

func TestADX_WarmupAndReady(t *testing.T) {
	n := 14
	adx := NewADX(n)

	require.False(t, adx.Ready())
	require.Equal(t, 2*n, adx.Warmup())
	require.Equal(t, 0.0, adx.Float64())

	feedUptrend(adx, 3*n, 1.0000, 0.0001, 0.00005)

	require.True(t, adx.Ready(), "ADX should be ready after sufficient bars")
	require.GreaterOrEqual(t, adx.Float64(), 0.0)
	require.LessOrEqual(t, adx.Float64(), 100.0)
}

func TestADX_FlatMarketGoesToZero(t *testing.T) {
	n := 14
	adx := NewADX(n)

	feedFlat(adx, 3*n, 1.2345)

	require.True(t, adx.Ready())
	require.InDelta(t, 0.0, adx.PlusDI(), 1e-12)
	require.InDelta(t, 0.0, adx.MinusDI(), 1e-12)
	require.InDelta(t, 0.0, adx.DX(), 1e-12)
	require.InDelta(t, 0.0, adx.Float64(), 1e-12)
}

func TestADX_UptrendHasPlusDIOverMinusDI(t *testing.T) {
	adx := NewADX(14)

	feedUptrend(adx, 42, 1.0000, 0.0001, 0.00005)

	require.True(t, adx.Ready())
	require.Greater(t, adx.PlusDI(), adx.MinusDI(), "+DI should exceed -DI in an uptrend")
	require.Greater(t, adx.Float64(), 0.0)
}

func TestADX_Reset(t *testing.T) {
	adx := NewADX(14)

	feedUptrend(adx, 42, 1.0000, 0.0001, 0.00005)
	require.True(t, adx.Ready())

	adx.Reset()
	require.False(t, adx.Ready())
	require.Equal(t, 0.0, adx.Float64())
	require.Equal(t, 0.0, adx.PlusDI())
}

func TestATR(t *testing.T) {
	atr := NewATR(3)
	require.Equal(t, 4, atr.Warmup())

	// Constant 0.01 range with no gaps gives TR = 0.01 every bar.
	feedUptrend(atr, 3, 1.0, 0, 0.005)
	require.False(t, atr.Ready())
	require.Equal(t, 0.0, atr.Float64())

	feedUptrend(atr, 5, 1.0, 0, 0.005)
	require.True(t, atr.Ready())
	require.InDelta(t, 0.01, atr.Float64(), 1e-12)

	atr.Reset()
	require.False(t, atr.Ready())
}

func TestATR_GapUsesPreviousClose(t *testing.T) {
	atr := NewATR(1)

	atr.Update(mkBar(1.0, 1.0, 1.0, 1.0))
	atr.Update(mkBar(1.2, 1.25, 1.2, 1.22))

	require.True(t, atr.Ready())
	require.InDelta(t, 0.25, atr.Float64(), 1e-12)
}
