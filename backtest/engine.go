package backtest

import (
	"errors"
	"log/slog"
	"time"

	"github.com/rustyeddy/propfirm/market"
	"github.com/rustyeddy/propfirm/strategy"
	"github.com/rustyeddy/propfirm/trade"
)

const (
	MinDailyBars  = 30
	MinWeeklyBars = 8
)

// Series holds one instrument's bars at every timeframe the simulator
// consults. Each series must be ordered by time.
type Series struct {
	Monthly []market.Bar
	Weekly  []market.Bar
	Daily   []market.Bar
	H4      []market.Bar
}

// Check verifies every timeframe is in time order.
func (s Series) Check() error {
	for _, bars := range [][]market.Bar{s.Monthly, s.Weekly, s.Daily, s.H4} {
		if err := market.CheckOrdered(bars); err != nil {
			return err
		}
	}
	return nil
}

type Config struct {
	Asset string

	// CooldownBars is the number of daily bars to wait after a close before
	// a new candidate is considered.
	CooldownBars int

	// MinConfluence is the score a candidate needs to be active.
	MinConfluence int
}

// Engine replays daily bars for one instrument into closed trades. It keeps
// no state between runs.
type Engine struct {
	cfg      Config
	supplier strategy.Supplier
	log      *slog.Logger
}

func NewEngine(cfg Config, supplier strategy.Supplier, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	if cfg.MinConfluence <= 0 {
		cfg.MinConfluence = strategy.MinConfluence("")
	}
	return &Engine{cfg: cfg, supplier: supplier, log: log}
}

// Run walks the daily bars at indices, which must be increasing. At most one
// trade is open at a time. A trade still open after the last index is
// dropped.
//
// Exits only look at the current bar's high and low and start on the bar
// after entry. Candidates are built from series sliced with market.UpTo at
// the current bar's time, so no later bar is ever visible.
func (e *Engine) Run(s Series, indices []int) []trade.Closed {
	var (
		trades    []trade.Closed
		open      *SimTrade
		lastClose = -1
	)

	for _, idx := range indices {
		if idx < 0 || idx >= len(s.Daily) {
			continue
		}
		bar := s.Daily[idx]

		if open != nil && idx > open.Setup().EntryIndex {
			if c, ok := open.OnBar(bar); ok {
				e.log.Debug("trade closed",
					"asset", c.Asset, "reason", c.Reason, "r", c.R, "exit", c.ExitTime.Format(time.DateOnly))
				trades = append(trades, c)
				open = nil
				lastClose = idx
				continue
			}
		}
		if open != nil {
			continue
		}
		if lastClose >= 0 && idx-lastClose < e.cfg.CooldownBars {
			continue
		}

		t, err := e.consider(s, idx)
		if err != nil {
			if errors.Is(err, ErrInvalidRisk) {
				e.log.Debug("candidate discarded", "asset", e.cfg.Asset, "index", idx, "err", err)
			}
			continue
		}
		if t != nil {
			e.log.Debug("trade opened", "asset", e.cfg.Asset, "direction", t.setup.Direction,
				"entry", t.setup.Entry, "stop", t.setup.StopLoss, "time", bar.Time.Format(time.DateOnly))
			open = t
		}
	}

	if open != nil {
		e.log.Debug("open trade dropped at end of data", "asset", e.cfg.Asset,
			"entry_time", open.Setup().EntryTime.Format(time.DateOnly))
	}
	return trades
}

// consider asks the supplier for a candidate at daily bar idx. It returns a
// nil trade when there is not enough context or the setup is not active.
func (e *Engine) consider(s Series, idx int) (*SimTrade, error) {
	cutoff := s.Daily[idx].Time

	daily := market.UpTo(s.Daily, cutoff)
	if len(daily) < MinDailyBars {
		return nil, nil
	}
	weekly := market.UpTo(s.Weekly, cutoff)
	if len(weekly) < MinWeeklyBars {
		return nil, nil
	}
	monthly := market.UpTo(s.Monthly, cutoff)
	h4 := market.UpTo(s.H4, cutoff)

	dir, _ := strategy.PickDirection(strategy.TrendOf(monthly), strategy.TrendOf(weekly), strategy.TrendOf(daily))

	c := e.supplier.Evaluate(strategy.Input{
		Instrument: e.cfg.Asset,
		Monthly:    monthly,
		Weekly:     weekly,
		Daily:      daily,
		H4:         h4,
		Direction:  dir,
	})
	if strategy.Classify(c.Flags, e.cfg.MinConfluence) != strategy.StatusActive {
		return nil, nil
	}
	if !c.Levels.Complete() {
		return nil, nil
	}

	direction := c.Direction
	if direction == "" {
		direction = dir
	}
	return NewSimTrade(Setup{
		Asset:      e.cfg.Asset,
		Direction:  direction,
		Entry:      c.Levels.Entry,
		StopLoss:   c.Levels.StopLoss,
		TP1:        c.Levels.TP1,
		TP2:        c.Levels.TP2,
		TP3:        c.Levels.TP3,
		EntryTime:  cutoff,
		EntryIndex: idx,
		Confluence: c.Score(),
	})
}
