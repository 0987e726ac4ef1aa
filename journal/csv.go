package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/rustyeddy/propfirm/internal/money"
	"github.com/rustyeddy/propfirm/risk"
	"github.com/rustyeddy/propfirm/trade"
)

var (
	TradeHeader = []string{"asset", "direction", "entry_time", "exit_time", "entry", "exit",
		"sl", "tp1", "tp2", "tp3", "exit_reason", "rr", "pnl_usd", "confluence"}
	RiskHeader = []string{"trade_id", "symbol", "direction", "entry_price", "stop_loss", "lot_size",
		"risk_usd", "risk_pct", "entry_time", "exit_time", "exit_price", "pnl_usd", "is_open"}
)

// GroupByAsset orders trades by asset, then by entry time within an asset.
func GroupByAsset(trades []trade.Closed) []trade.Closed {
	out := append([]trade.Closed(nil), trades...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Asset != out[j].Asset {
			return out[i].Asset < out[j].Asset
		}
		return out[i].EntryTime.Before(out[j].EntryTime)
	})
	return out
}

// WriteTradesCSV writes simulated trades grouped by asset. P&L is the R
// multiple times riskUSD.
func WriteTradesCSV(w io.Writer, trades []trade.Closed, riskUSD float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TradeHeader); err != nil {
		return err
	}
	for _, t := range GroupByAsset(trades) {
		err := cw.Write([]string{
			t.Asset,
			string(t.Direction),
			t.EntryTime.UTC().Format(time.RFC3339),
			t.ExitTime.UTC().Format(time.RFC3339),
			f(t.Entry),
			f(t.Exit),
			f(t.StopLoss),
			f(t.TP1),
			f(t.TP2),
			f(t.TP3),
			string(t.Reason),
			money.Fixed(t.R, 2),
			money.Fixed(t.R*riskUSD, 2),
			strconv.Itoa(t.Confluence),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRiskCSV writes live trade records in the order given.
func WriteRiskCSV(w io.Writer, recs []risk.TradeRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(RiskHeader); err != nil {
		return err
	}
	for _, r := range recs {
		exit := ""
		if !r.ExitTime.IsZero() {
			exit = r.ExitTime.UTC().Format(time.RFC3339)
		}
		err := cw.Write([]string{
			r.ID,
			r.Symbol,
			string(r.Direction),
			f(r.EntryPrice),
			f(r.StopLoss),
			money.Fixed(r.LotSize, 2),
			money.Fixed(r.RiskUSD, 2),
			money.Fixed(r.RiskPct*100, 2),
			r.EntryTime.UTC().Format(time.RFC3339),
			exit,
			f(r.ExitPrice),
			money.Fixed(r.PnLUSD, 2),
			strconv.FormatBool(r.Open),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportTrades writes a run's trades to path as CSV.
func ExportTrades(path string, trades []trade.Closed, riskUSD float64) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteTradesCSV(fh, trades, riskUSD); err != nil {
		fh.Close()
		return fmt.Errorf("export %s: %w", path, err)
	}
	return fh.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 5, 64)
}
