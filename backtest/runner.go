package backtest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rustyeddy/propfirm/market"
	"github.com/rustyeddy/propfirm/profile"
	"github.com/rustyeddy/propfirm/strategy"
	"github.com/rustyeddy/propfirm/trade"
)

// Bar counts requested per timeframe when loading an instrument.
var LoadCounts = map[market.Timeframe]int{
	market.Daily:   2000,
	market.Weekly:  500,
	market.Monthly: 240,
	market.H4:      2000,
}

// NoDailyNote is the report note when an asset has no daily bars.
const NoDailyNote = "No daily data available."

// Runner loads an instrument's series from a BarSource and replays it
// through an Engine.
type Runner struct {
	Source        market.BarSource
	Supplier      strategy.Supplier
	Profile       profile.AccountProfile
	CooldownBars  int
	MinConfluence int
	Logger        *slog.Logger

	// Now is used to resolve "now" in period strings. Defaults to time.Now.
	Now func() time.Time
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r *Runner) check() error {
	if r.Source == nil {
		return fmt.Errorf("backtest: Source is required")
	}
	if r.Supplier == nil {
		return fmt.Errorf("backtest: Supplier is required")
	}
	return nil
}

// Load fetches every timeframe for asset. A timeframe with no data comes
// back empty; any other source error is returned.
func (r *Runner) Load(ctx context.Context, asset string) (Series, error) {
	if err := r.check(); err != nil {
		return Series{}, err
	}

	var s Series
	for _, tf := range market.Timeframes {
		bars, err := r.Source.Bars(ctx, asset, tf, LoadCounts[tf])
		if err != nil && !errors.Is(err, market.ErrNoData) {
			return Series{}, fmt.Errorf("load %s %s: %w", asset, tf, err)
		}
		switch tf {
		case market.Monthly:
			s.Monthly = bars
		case market.Weekly:
			s.Weekly = bars
		case market.Daily:
			s.Daily = bars
		case market.H4:
			s.H4 = bars
		}
	}
	if err := s.Check(); err != nil {
		return Series{}, fmt.Errorf("load %s: %w", asset, err)
	}
	return s, nil
}

func (r *Runner) engine(asset string) *Engine {
	return NewEngine(Config{
		Asset:         asset,
		CooldownBars:  r.CooldownBars,
		MinConfluence: r.MinConfluence,
	}, r.Supplier, r.logger())
}

// Run loads asset and backtests it over the period string. An empty or
// unparseable period replays the trailing DefaultWindow daily bars.
func (r *Runner) Run(ctx context.Context, asset, period string) (Report, error) {
	s, err := r.Load(ctx, asset)
	if err != nil {
		return Report{}, err
	}
	if len(s.Daily) == 0 {
		return emptyReport(asset, period, r.Profile, NoDailyNote), nil
	}
	return r.RunSeries(asset, s, ParsePeriod(period, r.now())), nil
}

// RunSeries backtests already loaded bars over p.
func (r *Runner) RunSeries(asset string, s Series, p Period) Report {
	if len(s.Daily) == 0 {
		return emptyReport(asset, "", r.Profile, NoDailyNote)
	}
	idx, label := Window(p, s.Daily)
	trades := r.engine(asset).Run(s, idx)
	r.logger().Info("backtest complete", "asset", asset, "period", label, "trades", len(trades))
	return NewReport(asset, label, r.Profile, trades)
}

// Trades replays exactly the daily bars inside p, with no fallback window.
// It returns nil when p matches no bars.
func (r *Runner) Trades(asset string, s Series, p Period) []trade.Closed {
	idx, _ := p.Indices(s.Daily)
	if len(idx) == 0 {
		return nil
	}
	return r.engine(asset).Run(s, idx)
}
