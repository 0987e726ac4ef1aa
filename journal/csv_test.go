package journal

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rustyeddy/propfirm/risk"
	"github.com/rustyeddy/propfirm/trade"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupByAsset(t *testing.T) {
	t.Parallel()

	trades := append(sampleTrades(), trade.Closed{Asset: "EUR_USD", EntryTime: t0})
	got := GroupByAsset(trades)

	require.Len(t, got, 3)
	assert.Equal(t, "EUR_USD", got[0].Asset)
	assert.Equal(t, t0, got[0].EntryTime)
	assert.Equal(t, "EUR_USD", got[1].Asset)
	assert.Equal(t, "GBP_USD", got[2].Asset)
	assert.Equal(t, "GBP_USD", trades[0].Asset, "input is not reordered")
}

func TestWriteTradesCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteTradesCSV(&buf, sampleTrades(), 100))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, TradeHeader, rows[0])
	assert.Equal(t, []string{
		"EUR_USD", "bearish", "2024-03-05T00:00:00Z", "2024-03-07T00:00:00Z",
		"1.09000", "1.09500", "1.09500", "1.08500", "0.00000", "0.00000",
		"SL", "-1.00", "-100.00", "2",
	}, rows[1])
	assert.Equal(t, "GBP_USD", rows[2][0])
	assert.Equal(t, "300.00", rows[2][12])
}

func TestWriteRiskCSV(t *testing.T) {
	t.Parallel()

	recs := []risk.TradeRecord{
		{ID: "A", Symbol: "EUR_USD", Direction: trade.Bullish, LotSize: 0.2, RiskUSD: 100, RiskPct: 0.01,
			EntryTime: t0, ExitTime: t0.Add(time.Hour), PnLUSD: -100},
		{ID: "B", Symbol: "XAU_USD", Direction: trade.Bearish, RiskUSD: 50, RiskPct: 0.005, EntryTime: t0, Open: true},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRiskCSV(&buf, recs))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, RiskHeader, rows[0])
	assert.Equal(t, "1.00", rows[1][7])
	assert.Equal(t, "2024-03-04T01:00:00Z", rows[1][9])
	assert.Equal(t, "-100.00", rows[1][11])
	assert.Equal(t, "", rows[2][9])
	assert.Equal(t, "true", rows[2][12])
}

func TestExportTrades(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "trades.csv")
	require.NoError(t, ExportTrades(path, sampleTrades(), 100))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "asset,direction,entry_time")

	assert.Error(t, ExportTrades(filepath.Join(t.TempDir(), "missing", "x.csv"), nil, 100))
}
