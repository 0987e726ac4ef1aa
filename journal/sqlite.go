package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/propfirm/risk"
	"github.com/rustyeddy/propfirm/trade"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	// One writer; the risk manager saves from under its own lock.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema %s: %w", path, err)
	}
	return &SQLite{db: db}, nil
}

// RecordRun stores run and its trades in one transaction.
func (j *SQLite) RecordRun(ctx context.Context, run Run, trades []trade.Closed) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(run_id, created, kind, asset, period, profile, trades, wins, win_rate,
		 net_return_pct, profit_usd, max_dd_pct, avg_r, passed, reason, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Created.UTC(), string(run.Kind), run.Asset, run.Period, run.Profile,
		run.Trades, run.Wins, run.WinRate, run.NetReturnPct, run.ProfitUSD, run.MaxDDPct,
		run.AvgR, run.Passed, run.Reason, run.Notes,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.RunID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sim_trades
		(run_id, seq, asset, direction, entry_time, exit_time, entry_price, exit_price,
		 stop_loss, tp1, tp2, tp3, exit_reason, r, confluence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, t := range trades {
		_, err := stmt.ExecContext(ctx,
			run.RunID, i, t.Asset, string(t.Direction), t.EntryTime.UTC(), t.ExitTime.UTC(),
			t.Entry, t.Exit, t.StopLoss, t.TP1, t.TP2, t.TP3, string(t.Reason), t.R, t.Confluence,
		)
		if err != nil {
			return fmt.Errorf("insert trade %d of run %s: %w", i, run.RunID, err)
		}
	}
	return tx.Commit()
}

// SaveRiskTrade inserts rec or replaces the stored copy with the same ID.
func (j *SQLite) SaveRiskTrade(rec risk.TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO risk_trades
		(trade_id, symbol, direction, entry_price, stop_loss, lot_size, risk_usd, risk_pct,
		 entry_time, exit_time, exit_price, pnl_usd, is_open)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(trade_id) DO UPDATE SET
			symbol = excluded.symbol,
			direction = excluded.direction,
			entry_price = excluded.entry_price,
			stop_loss = excluded.stop_loss,
			lot_size = excluded.lot_size,
			risk_usd = excluded.risk_usd,
			risk_pct = excluded.risk_pct,
			entry_time = excluded.entry_time,
			exit_time = excluded.exit_time,
			exit_price = excluded.exit_price,
			pnl_usd = excluded.pnl_usd,
			is_open = excluded.is_open`,
		rec.ID, rec.Symbol, string(rec.Direction), rec.EntryPrice, rec.StopLoss, rec.LotSize,
		rec.RiskUSD, rec.RiskPct, rec.EntryTime.UTC(), nullTime(rec.ExitTime), rec.ExitPrice,
		rec.PnLUSD, rec.Open,
	)
	if err != nil {
		return fmt.Errorf("save risk trade %s: %w", rec.ID, err)
	}
	return nil
}

// ClearRiskTrades deletes every risk trade, for starting a fresh account.
func (j *SQLite) ClearRiskTrades(ctx context.Context) error {
	_, err := j.db.ExecContext(ctx, `DELETE FROM risk_trades`)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
