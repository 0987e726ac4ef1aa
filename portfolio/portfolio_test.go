package portfolio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rustyeddy/propfirm/backtest"
	"github.com/rustyeddy/propfirm/market"
	"github.com/rustyeddy/propfirm/metrics"
	"github.com/rustyeddy/propfirm/profile"
	"github.com/rustyeddy/propfirm/strategy"
	"github.com/rustyeddy/propfirm/trade"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func flat(n int) []market.Bar {
	bars := make([]market.Bar, n)
	for i := range bars {
		bars[i] = market.Bar{Time: day0.AddDate(0, 0, i), Open: 1.1000, High: 1.1010, Low: 1.0990, Close: 1.1000}
	}
	return bars
}

func weekly(n int) []market.Bar {
	bars := make([]market.Bar, n)
	for i := range bars {
		bars[i] = market.Bar{Time: day0.AddDate(0, 0, -7*(n-i)), Open: 1.1, High: 1.11, Low: 1.09, Close: 1.1}
	}
	return bars
}

// longs proposes the same active long setup on every bar.
var longs = strategy.SupplierFunc(func(strategy.Input) strategy.Candidate {
	return strategy.Candidate{
		Direction: trade.Bullish,
		Flags:     strategy.Flags{HTFBias: true, RR: true},
		Levels:    strategy.Levels{Entry: 1.1000, StopLoss: 1.0950, TP1: 1.1050, TP2: 1.1100, TP3: 1.1150},
	}
})

// source has a February 2024 loss on EUR_USD (exit Feb 5) and a February
// win of 3R on GBP_USD (exit Feb 4). Both trades open on Feb 1.
func source(t *testing.T) *market.MemorySource {
	t.Helper()

	loss := flat(60)
	loss[35].High, loss[35].Low = 1.1060, 1.0940

	win := flat(60)
	win[33].High, win[33].Low = 1.1060, 1.1001
	win[34].High, win[34].Low = 1.1160, 1.1001

	src := market.NewMemorySource()
	for asset, daily := range map[string][]market.Bar{"EUR_USD": loss, "GBP_USD": win} {
		require.NoError(t, src.Set(asset, market.Daily, daily))
		require.NoError(t, src.Set(asset, market.Weekly, weekly(10)))
	}
	return src
}

// brokenSource fails every request for one instrument.
type brokenSource struct {
	market.BarSource
	broken string
}

var errFeed = errors.New("feed down")

func (b brokenSource) Bars(ctx context.Context, instrument string, tf market.Timeframe, count int) ([]market.Bar, error) {
	if instrument == b.broken {
		return nil, errFeed
	}
	return b.BarSource.Bars(ctx, instrument, tf, count)
}

func newRunner(t *testing.T, mx *metrics.Metrics) *Runner {
	return &Runner{
		Backtest: &backtest.Runner{
			Source:   brokenSource{BarSource: source(t), broken: "XAU_USD"},
			Supplier: longs,
			Profile:  profile.The5ers10KHighStakes(),
		},
		Assets:      []string{"XAU_USD", "EUR_USD", "GBP_USD"},
		Concurrency: 2,
		Metrics:     mx,
	}
}

func TestMonth(t *testing.T) {
	t.Parallel()

	res, err := newRunner(t, nil).Month(context.Background(), 2024, time.February)
	require.NoError(t, err)

	assert.Equal(t, "February 2024", res.Label)
	assert.Equal(t, "The5ers High Stakes 10K", res.Profile)
	assert.Equal(t, []string{"XAU_USD"}, res.FailedAssets)

	require.Equal(t, 2, res.TotalTrades)
	assert.Equal(t, "GBP_USD", res.Trades[0].Asset)
	assert.Equal(t, trade.ExitTP3, res.Trades[0].Reason)
	assert.Equal(t, "EUR_USD", res.Trades[1].Asset)
	assert.Equal(t, trade.ExitStopLoss, res.Trades[1].Reason)

	assert.InDelta(t, 10_200.0, res.FinalBalance, 1e-6)
	assert.False(t, res.Passed)
	assert.Equal(t, "Phase 1 target (8%) not reached", res.FailureReason)
}

func TestMonthWithoutTrades(t *testing.T) {
	t.Parallel()

	// Both January trades are still open on Jan 31 and are dropped.
	res, err := newRunner(t, nil).Month(context.Background(), 2024, time.January)
	require.NoError(t, err)
	assert.Zero(t, res.TotalTrades)
	assert.Equal(t, "No trades generated during this period", res.FailureReason)
}

func TestYear(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	mx := metrics.New(reg)
	y, err := newRunner(t, mx).Year(context.Background(), 2024)
	require.NoError(t, err)

	require.Len(t, y.Months, 12)
	assert.Equal(t, 2024, y.Year)
	assert.Zero(t, y.PassedMonths)
	assert.Equal(t, []string{"XAU_USD"}, y.FailedAssets)
	assert.Equal(t, "January 2024", y.Months[0].Label)
	assert.Equal(t, 2, y.Months[1].TotalTrades)
	assert.Zero(t, y.Months[2].TotalTrades)

	assert.Equal(t, 12.0, testutil.ToFloat64(mx.ChallengeRuns.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mx.AssetFailures.WithLabelValues("XAU_USD")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mx.TradesSimulated.WithLabelValues("EUR_USD")))
}

func TestPanickingAssetIsSkipped(t *testing.T) {
	t.Parallel()

	r := newRunner(t, nil)
	r.Backtest.Supplier = strategy.SupplierFunc(func(in strategy.Input) strategy.Candidate {
		if in.Instrument == "GBP_USD" {
			panic("bad levels")
		}
		return longs(in)
	})

	res, err := r.Month(context.Background(), 2024, time.February)
	require.NoError(t, err)
	assert.Equal(t, []string{"XAU_USD", "GBP_USD"}, res.FailedAssets)
	require.Equal(t, 1, res.TotalTrades)
	assert.Equal(t, "EUR_USD", res.Trades[0].Asset)
}

func TestCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newRunner(t, nil).Month(ctx, 2024, time.February)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRequiresBacktestRunner(t *testing.T) {
	t.Parallel()

	_, err := (&Runner{}).Month(context.Background(), 2024, time.March)
	assert.Error(t, err)
}

func TestSortTrades(t *testing.T) {
	t.Parallel()

	d := func(day int) time.Time { return day0.AddDate(0, 0, day) }
	trades := []trade.Closed{
		{Asset: "XAU_USD", EntryTime: d(1), ExitTime: d(5)},
		{Asset: "EUR_USD", EntryTime: d(2), ExitTime: d(5)},
		{Asset: "EUR_USD", EntryTime: d(1), ExitTime: d(5)},
		{Asset: "GBP_USD", EntryTime: d(3)},
	}
	sortTrades(trades)

	assert.Equal(t, "GBP_USD", trades[0].Asset)
	assert.Equal(t, d(1), trades[1].EntryTime)
	assert.Equal(t, "EUR_USD", trades[2].Asset)
	assert.Equal(t, "XAU_USD", trades[3].Asset)
}
