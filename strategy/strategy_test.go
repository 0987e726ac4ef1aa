package strategy

import (
	"testing"
	"time"

	"github.com/rustyeddy/propfirm/market"
	"github.com/rustyeddy/propfirm/trade"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trending(n int, start, step float64) []market.Bar {
	bars := make([]market.Bar, n)
	t0 := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	p := start
	for i := range bars {
		c := p + step
		bars[i] = market.Bar{
			Time:  t0.AddDate(0, 0, i),
			Open:  p,
			High:  max(p, c) + 0.0005,
			Low:   min(p, c) - 0.0005,
			Close: c,
		}
		p = c
	}
	return bars
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		flags Flags
		min   int
		want  Status
	}{
		{"rr plus quality", Flags{RR: true, Location: true}, 2, StatusActive},
		{"rr plus confirmation only", Flags{RR: true, Confirmation: true}, 2, StatusWatching},
		{"no rr", Flags{Location: true, Fib: true}, 2, StatusWatching},
		{"below min", Flags{RR: true}, 2, StatusScanOnly},
		{"loose mode", Flags{RR: true, HTFBias: true}, 1, StatusActive},
		{"nothing", Flags{}, 1, StatusScanOnly},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Classify(tt.flags, tt.min))
		})
	}
}

func TestFlagsScore(t *testing.T) {
	t.Parallel()

	f := Flags{HTFBias: true, Location: true, Fib: true, Liquidity: true, Structure: true, Confirmation: true, RR: true}
	assert.Equal(t, 7, f.Score())
	assert.Equal(t, 5, f.QualityFactors())
	assert.Equal(t, 0, Flags{}.Score())
}

func TestMinConfluence(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 2, MinConfluence(""))
	assert.Equal(t, 2, MinConfluence("standard"))
	assert.Equal(t, 1, MinConfluence("aggressive"))
}

func TestMinConfluenceFromEnv(t *testing.T) {
	t.Setenv(SignalModeEnv, "aggressive")
	assert.Equal(t, 1, MinConfluenceFromEnv())
}

func TestInferTrend(t *testing.T) {
	t.Parallel()

	assert.Equal(t, TrendBullish, InferTrend(trending(40, 1.0, 0.001)))
	assert.Equal(t, TrendBearish, InferTrend(trending(40, 1.0, -0.001)))
	assert.Equal(t, TrendMixed, InferTrend(trending(2, 1.0, 0.001)))
	assert.Equal(t, TrendMixed, TrendOf(nil))
}

func TestPickDirection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		m, w, d Trend
		want    trade.Direction
		votes   int
	}{
		{TrendBullish, TrendBullish, TrendBearish, trade.Bullish, 2},
		{TrendBearish, TrendMixed, TrendBearish, trade.Bearish, 2},
		{TrendBullish, TrendBearish, TrendMixed, trade.Bearish, 1},
		{TrendMixed, TrendMixed, TrendBearish, trade.Bearish, 1},
		{TrendMixed, TrendMixed, TrendMixed, trade.Bullish, 0},
	}
	for _, tt := range tests {
		dir, votes := PickDirection(tt.m, tt.w, tt.d)
		assert.Equal(t, tt.want, dir, "%s/%s/%s", tt.m, tt.w, tt.d)
		assert.Equal(t, tt.votes, votes)
	}
}

func TestBlueprintLevels(t *testing.T) {
	t.Parallel()

	daily := trending(60, 1.0, 0.001)
	bp := NewBlueprint(DefaultBlueprintConfig())

	for _, dir := range []trade.Direction{trade.Bullish, trade.Bearish} {
		c := bp.Evaluate(Input{Instrument: "EUR_USD", Daily: daily, Weekly: trending(10, 1.0, 0.005), Direction: dir})
		require.True(t, c.Levels.Complete())

		risk := (c.Levels.Entry - c.Levels.StopLoss) * dir.Sign()
		require.Greater(t, risk, 0.0)
		assert.InDelta(t, risk, (c.Levels.TP1-c.Levels.Entry)*dir.Sign(), 1e-12)
		assert.InDelta(t, 3*risk, (c.Levels.TP3-c.Levels.Entry)*dir.Sign(), 1e-12)
		assert.True(t, c.Flags.RR)
	}
}

func TestBlueprintStructureFollowsTrend(t *testing.T) {
	t.Parallel()

	daily := trending(80, 1.0, 0.002)
	bp := NewBlueprint(DefaultBlueprintConfig())

	bull := bp.Evaluate(Input{Daily: daily, Direction: trade.Bullish})
	bear := bp.Evaluate(Input{Daily: daily, Direction: trade.Bearish})
	assert.True(t, bull.Flags.Structure)
	assert.False(t, bear.Flags.Structure)
}

func TestBlueprintShortSeries(t *testing.T) {
	t.Parallel()

	c := NewBlueprint(DefaultBlueprintConfig()).Evaluate(Input{Daily: trending(5, 1, 0.001), Direction: trade.Bullish})
	assert.False(t, c.Levels.Complete())
	assert.Equal(t, 0, c.Score())
}

func TestBlueprintIsPure(t *testing.T) {
	t.Parallel()

	in := Input{Daily: trending(60, 1.0, 0.001), H4: trending(30, 1.0, 0.0002), Direction: trade.Bullish}
	bp := NewBlueprint(DefaultBlueprintConfig())
	assert.Equal(t, bp.Evaluate(in), bp.Evaluate(in))
}

func TestSwept(t *testing.T) {
	t.Parallel()

	bars := trending(6, 1.0, 0)
	last := &bars[5]
	last.Low = 0.99
	last.Close = 1.0
	assert.True(t, swept(bars, trade.Bullish))
	assert.False(t, swept(bars, trade.Bearish))
}

func TestSupplierByName(t *testing.T) {
	t.Parallel()

	s, err := SupplierByName("blueprint")
	require.NoError(t, err)
	assert.IsType(t, &Blueprint{}, s)

	s, err = SupplierByName("none")
	require.NoError(t, err)
	assert.False(t, s.Evaluate(Input{}).Levels.Complete())

	_, err = SupplierByName("martingale")
	assert.Error(t, err)
}
