package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rustyeddy/propfirm/risk"
	"github.com/rustyeddy/propfirm/trade"
)

var ErrNotFound = errors.New("not found")

const runColumns = `run_id, created, kind, asset, period, profile, trades, wins, win_rate,
	net_return_pct, profit_usd, max_dd_pct, avg_r, passed, reason, notes`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var (
		r    Run
		kind string
	)
	err := s.Scan(&r.RunID, &r.Created, &kind, &r.Asset, &r.Period, &r.Profile, &r.Trades,
		&r.Wins, &r.WinRate, &r.NetReturnPct, &r.ProfitUSD, &r.MaxDDPct, &r.AvgR, &r.Passed,
		&r.Reason, &r.Notes)
	r.Kind = Kind(kind)
	r.Created = r.Created.UTC()
	return r, err
}

// GetRun returns a single run by ID.
func (j *SQLite) GetRun(ctx context.Context, runID string) (Run, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %q: %w", runID, ErrNotFound)
	}
	return r, err
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run.
func (j *SQLite) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY created DESC, run_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListRunTrades returns a run's simulated trades in the order recorded.
func (j *SQLite) ListRunTrades(ctx context.Context, runID string) ([]trade.Closed, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT asset, direction, entry_time, exit_time, entry_price, exit_price,
		       stop_loss, tp1, tp2, tp3, exit_reason, r, confluence
		FROM sim_trades
		WHERE run_id = ?
		ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []trade.Closed
	for rows.Next() {
		var (
			t           trade.Closed
			dir, reason string
		)
		if err := rows.Scan(&t.Asset, &dir, &t.EntryTime, &t.ExitTime, &t.Entry, &t.Exit,
			&t.StopLoss, &t.TP1, &t.TP2, &t.TP3, &reason, &t.R, &t.Confluence); err != nil {
			return nil, err
		}
		t.Direction = trade.Direction(dir)
		t.Reason = trade.ExitReason(reason)
		t.EntryTime, t.ExitTime = t.EntryTime.UTC(), t.ExitTime.UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}

const riskColumns = `trade_id, symbol, direction, entry_price, stop_loss, lot_size, risk_usd,
	risk_pct, entry_time, exit_time, exit_price, pnl_usd, is_open`

func scanRiskTrade(s scanner) (risk.TradeRecord, error) {
	var (
		r    risk.TradeRecord
		dir  string
		exit sql.NullTime
	)
	err := s.Scan(&r.ID, &r.Symbol, &dir, &r.EntryPrice, &r.StopLoss, &r.LotSize, &r.RiskUSD,
		&r.RiskPct, &r.EntryTime, &exit, &r.ExitPrice, &r.PnLUSD, &r.Open)
	r.Direction = trade.Direction(dir)
	r.EntryTime = r.EntryTime.UTC()
	if exit.Valid {
		r.ExitTime = exit.Time.UTC()
	}
	return r, err
}

// RiskTrade returns one live trade record by ID.
func (j *SQLite) RiskTrade(ctx context.Context, tradeID string) (risk.TradeRecord, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+riskColumns+` FROM risk_trades WHERE trade_id = ?`, tradeID)
	r, err := scanRiskTrade(row)
	if errors.Is(err, sql.ErrNoRows) {
		return risk.TradeRecord{}, fmt.Errorf("trade %q: %w", tradeID, ErrNotFound)
	}
	return r, err
}

// RiskTrades returns every live trade record ordered by entry time, ready
// for risk.Manager.Restore.
func (j *SQLite) RiskTrades(ctx context.Context) ([]risk.TradeRecord, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT `+riskColumns+` FROM risk_trades ORDER BY entry_time ASC, trade_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []risk.TradeRecord
	for rows.Next() {
		r, err := scanRiskTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
