// Package journal persists backtest runs, their simulated trades and the
// live risk manager's trade records in SQLite.
package journal

import (
	"context"

	"github.com/rustyeddy/propfirm/risk"
	"github.com/rustyeddy/propfirm/trade"
)

type Journal interface {
	RecordRun(ctx context.Context, run Run, trades []trade.Closed) error
	SaveRiskTrade(rec risk.TradeRecord) error
	Close() error
}

var (
	_ Journal       = (*SQLite)(nil)
	_ risk.Recorder = (*SQLite)(nil)
)
