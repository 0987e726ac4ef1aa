package backtest

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rustyeddy/propfirm/market"
	"github.com/rustyeddy/propfirm/trade"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var entryTime = time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)

func longSetup() Setup {
	return Setup{
		Asset:     "EUR_USD",
		Direction: trade.Bullish,
		Entry:     1.1000,
		StopLoss:  1.0950,
		TP1:       1.1050,
		TP2:       1.1100,
		TP3:       1.1150,
		EntryTime: entryTime,
	}
}

func shortSetup() Setup {
	return Setup{
		Asset:     "EUR_USD",
		Direction: trade.Bearish,
		Entry:     1.1000,
		StopLoss:  1.1050,
		TP1:       1.0950,
		TP2:       1.0900,
		TP3:       1.0850,
		EntryTime: entryTime,
	}
}

func hl(day int, high, low float64) market.Bar {
	return market.Bar{
		Time:  entryTime.AddDate(0, 0, day),
		Open:  (high + low) / 2,
		High:  high,
		Low:   low,
		Close: (high + low) / 2,
	}
}

func newTrade(t *testing.T, s Setup) *SimTrade {
	t.Helper()
	st, err := NewSimTrade(s)
	require.NoError(t, err)
	return st
}

func TestSimTradeStopWinsTieBreak(t *testing.T) {
	t.Parallel()

	st := newTrade(t, longSetup())
	c, ok := st.OnBar(hl(1, 1.1060, 1.0940))
	require.True(t, ok)

	assert.Equal(t, trade.ExitStopLoss, c.Reason)
	assert.Equal(t, -1.0, c.R)
	assert.Equal(t, 1.0950, c.Exit)
	assert.Equal(t, Closed, st.State())
	assert.Equal(t, c, st.Result())
}

func TestSimTradeBreakEvenTrail(t *testing.T) {
	t.Parallel()

	st := newTrade(t, longSetup())

	_, ok := st.OnBar(hl(1, 1.1060, 1.1005))
	require.False(t, ok)
	assert.Equal(t, FirstTargetReached, st.State())
	assert.Equal(t, 1.1000, st.ActiveStop())

	c, ok := st.OnBar(hl(2, 1.1020, 1.0995))
	require.True(t, ok)
	assert.Equal(t, trade.ExitTP1Trail, c.Reason)
	assert.Equal(t, 0.0, c.R)
	assert.Equal(t, 1.1000, c.Exit)
	assert.Equal(t, entryTime.AddDate(0, 0, 2), c.ExitTime)
}

func TestSimTradeFirstTargetAndEntrySameBar(t *testing.T) {
	t.Parallel()

	st := newTrade(t, longSetup())
	c, ok := st.OnBar(hl(1, 1.1060, 1.0990))
	require.True(t, ok)
	assert.Equal(t, trade.ExitTP1Trail, c.Reason)
	assert.Equal(t, 0.0, c.R)
}

func TestSimTradeTargets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		setup  Setup
		bars   []market.Bar
		reason trade.ExitReason
		r      float64
	}{
		{
			name:   "long tp2",
			setup:  longSetup(),
			bars:   []market.Bar{hl(1, 1.1055, 1.1010), hl(2, 1.1110, 1.1010)},
			reason: trade.ExitTP2,
			r:      2,
		},
		{
			name:   "long tp3 checked before tp2",
			setup:  longSetup(),
			bars:   []market.Bar{hl(1, 1.1055, 1.1010), hl(2, 1.1160, 1.1010)},
			reason: trade.ExitTP3,
			r:      3,
		},
		{
			name:   "short stop first",
			setup:  shortSetup(),
			bars:   []market.Bar{hl(1, 1.1060, 1.0940)},
			reason: trade.ExitStopLoss,
			r:      -1,
		},
		{
			name:   "short tp2",
			setup:  shortSetup(),
			bars:   []market.Bar{hl(1, 1.0990, 1.0940), hl(2, 1.0980, 1.0890)},
			reason: trade.ExitTP2,
			r:      2,
		},
		{
			name:   "short break-even trail",
			setup:  shortSetup(),
			bars:   []market.Bar{hl(1, 1.0990, 1.0940), hl(2, 1.1005, 1.0960)},
			reason: trade.ExitTP1Trail,
			r:      0,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			st := newTrade(t, tt.setup)
			var (
				c  trade.Closed
				ok bool
			)
			for _, b := range tt.bars {
				c, ok = st.OnBar(b)
			}
			require.True(t, ok)
			assert.Equal(t, tt.reason, c.Reason)
			assert.InDelta(t, tt.r, c.R, 1e-9)
		})
	}
}

func TestSimTradeMissingTargetsStayOpen(t *testing.T) {
	t.Parallel()

	s := longSetup()
	s.TP2, s.TP3 = 0, 0
	st := newTrade(t, s)

	_, ok := st.OnBar(hl(1, 1.1055, 1.1010))
	require.False(t, ok)
	_, ok = st.OnBar(hl(2, 1.2000, 1.1010))
	assert.False(t, ok)
	assert.Equal(t, FirstTargetReached, st.State())
}

func TestSimTradeClosedIgnoresBars(t *testing.T) {
	t.Parallel()

	st := newTrade(t, longSetup())
	_, ok := st.OnBar(hl(1, 1.1000, 1.0900))
	require.True(t, ok)

	_, ok = st.OnBar(hl(2, 1.2000, 1.0000))
	assert.False(t, ok)
	assert.Equal(t, trade.ExitStopLoss, st.Result().Reason)
}

func TestNewSimTradeRejectsBadGeometry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(s *Setup)
	}{
		{"stop at entry", func(s *Setup) { s.StopLoss = s.Entry }},
		{"stop above long entry", func(s *Setup) { s.StopLoss = 1.1050 }},
		{"nan stop", func(s *Setup) { s.StopLoss = math.NaN() }},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := longSetup()
			tt.modify(&s)
			_, err := NewSimTrade(s)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidRisk))
		})
	}

	s := longSetup()
	s.Direction = "sideways"
	_, err := NewSimTrade(s)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidRisk))
}

func TestSimTradeAcceptsAnyTargetSide(t *testing.T) {
	t.Parallel()

	s := longSetup()
	s.TP1 = 1.0990
	st := newTrade(t, s)

	// The first target is touched right away; the stop moves to entry and
	// the same bar trades back through it.
	c, ok := st.OnBar(hl(1, 1.1005, 1.0995))
	require.True(t, ok)
	assert.Equal(t, trade.ExitTP1Trail, c.Reason)
	assert.Equal(t, 0.0, c.R)
}

func TestSimTradeRisk(t *testing.T) {
	t.Parallel()

	st := newTrade(t, shortSetup())
	assert.InDelta(t, 0.005, st.Risk(), 1e-12)
	assert.Equal(t, Open, st.State())
	assert.Equal(t, "OPEN", st.State().String())
	assert.Equal(t, "FIRST_TARGET_REACHED", FirstTargetReached.String())
	assert.Equal(t, "State(9)", State(9).String())
}
