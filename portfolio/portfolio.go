// Package portfolio runs the challenge simulator over the combined trades of
// many instruments.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/propfirm/backtest"
	"github.com/rustyeddy/propfirm/challenge"
	"github.com/rustyeddy/propfirm/market"
	"github.com/rustyeddy/propfirm/metrics"
	"github.com/rustyeddy/propfirm/trade"
)

// DefaultConcurrency bounds how many instruments are loaded at once.
const DefaultConcurrency = 4

// Runner fans a backtest out over Assets and feeds the merged trades to the
// challenge simulator. Instruments that fail to load or simulate are logged
// and skipped; they never fail the run.
type Runner struct {
	Backtest    *backtest.Runner
	Assets      []string
	Concurrency int
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// YearlyAnalysis is a challenge run for every month of a year.
type YearlyAnalysis struct {
	Year         int                `json:"year"`
	Profile      string             `json:"profile"`
	Months       []challenge.Result `json:"months"`
	PassedMonths int                `json:"passed_months"`
	FailedAssets []string           `json:"failed_assets,omitempty"`
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r *Runner) assets() []string {
	if len(r.Assets) > 0 {
		return r.Assets
	}
	return market.FilterRemoved(market.AllInstruments())
}

// Month simulates a challenge over the given calendar month.
func (r *Runner) Month(ctx context.Context, year int, month time.Month) (challenge.Result, error) {
	per, failed, err := r.collect(ctx, []backtest.Period{backtest.MonthPeriod(year, month)})
	if err != nil {
		return challenge.Result{}, err
	}
	return r.simulate(monthLabel(year, month), per[0], failed), nil
}

// Year simulates a challenge for each month of year. Every instrument is
// loaded once and replayed month by month.
func (r *Runner) Year(ctx context.Context, year int) (YearlyAnalysis, error) {
	periods := make([]backtest.Period, 12)
	for i := range periods {
		periods[i] = backtest.MonthPeriod(year, time.Month(i+1))
	}
	per, failed, err := r.collect(ctx, periods)
	if err != nil {
		return YearlyAnalysis{}, err
	}

	out := YearlyAnalysis{
		Year:         year,
		Profile:      r.Backtest.Profile.DisplayName,
		Months:       make([]challenge.Result, 12),
		FailedAssets: failed,
	}
	for i, trades := range per {
		res := r.simulate(monthLabel(year, time.Month(i+1)), trades, failed)
		if res.Passed {
			out.PassedMonths++
		}
		out.Months[i] = res
	}
	r.logger().Info("yearly challenge analysis", "year", year, "passed", out.PassedMonths)
	return out, nil
}

func (r *Runner) simulate(label string, trades []trade.Closed, failed []string) challenge.Result {
	res := challenge.Simulate(trades, r.Backtest.Profile)
	res.Label = label
	res.FailedAssets = failed
	r.Metrics.ObserveChallenge(res.Passed)
	r.logger().Info("challenge simulated", "period", label, "trades", res.TotalTrades,
		"passed", res.Passed, "reason", res.FailureReason)
	return res
}

// collect loads every asset and replays each period, returning the merged
// trades per period and the assets that failed. Cancellation
// is checked before each instrument starts.
func (r *Runner) collect(ctx context.Context, periods []backtest.Period) ([][]trade.Closed, []string, error) {
	if r.Backtest == nil {
		return nil, nil, errors.New("portfolio: Backtest runner is required")
	}
	assets := r.assets()
	limit := r.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	// results[i][p] belongs to assets[i] and periods[p]; no slot is shared.
	results := make([][][]trade.Closed, len(assets))
	errs := make([]error, len(assets))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, asset := range assets {
		i, asset := i, asset
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i], errs[i] = r.replay(ctx, asset, periods)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("portfolio: %w", err)
	}

	var failed []string
	for i, err := range errs {
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, nil, fmt.Errorf("portfolio: %w", err)
		}
		r.logger().Warn("skipping asset", "asset", assets[i], "err", err)
		r.Metrics.IncAssetFailure(assets[i])
		failed = append(failed, assets[i])
	}

	merged := make([][]trade.Closed, len(periods))
	for p := range periods {
		for i := range assets {
			if results[i] != nil {
				merged[p] = append(merged[p], results[i][p]...)
			}
		}
		sortTrades(merged[p])
	}
	return merged, failed, nil
}

// replay loads one asset and backtests it over every period. A panic in
// the supplier fails only this asset.
func (r *Runner) replay(ctx context.Context, asset string, periods []backtest.Period) (out [][]trade.Closed, err error) {
	defer func() {
		if v := recover(); v != nil {
			out, err = nil, fmt.Errorf("%s: simulation panic: %v", asset, v)
		}
	}()

	started := time.Now()
	s, err := r.Backtest.Load(ctx, asset)
	if err != nil {
		return nil, err
	}
	n := 0
	out = make([][]trade.Closed, len(periods))
	for p, per := range periods {
		out[p] = r.Backtest.Trades(asset, s, per)
		n += len(out[p])
	}
	r.Metrics.ObserveBacktest(asset, n, time.Since(started))
	return out, nil
}

// sortTrades orders by settlement, then asset and entry time, so the merge
// does not depend on which instrument finished first.
func sortTrades(trades []trade.Closed) {
	sort.SliceStable(trades, func(i, j int) bool {
		a, b := trades[i], trades[j]
		if !a.SettledAt().Equal(b.SettledAt()) {
			return a.SettledAt().Before(b.SettledAt())
		}
		if a.Asset != b.Asset {
			return a.Asset < b.Asset
		}
		return a.EntryTime.Before(b.EntryTime)
	})
}

func monthLabel(year int, month time.Month) string {
	return fmt.Sprintf("%s %d", month, year)
}
