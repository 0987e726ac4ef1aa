package report

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/rustyeddy/propfirm/backtest"
	"github.com/rustyeddy/propfirm/trade"
)

var orgFuncs = template.FuncMap{
	"mul100": func(x float64) float64 { return x * 100.0 },
	"date":   func(t time.Time) string { return t.UTC().Format(time.DateOnly) },
	"stamp":  func(t time.Time) string { return t.UTC().Format("2006-01-02 Mon 15:04") },
}

var backtestOrg = template.Must(template.New("backtest").Funcs(orgFuncs).Parse(backtestOrgTemplate))

type orgRun struct {
	backtest.Report
	RunID   string
	Created time.Time
}

// BacktestOrg renders r as an Org heading with a property drawer, for
// pasting into a research journal.
func BacktestOrg(r backtest.Report, runID string, created time.Time) (string, error) {
	var buf bytes.Buffer
	if err := backtestOrg.Execute(&buf, orgRun{Report: r, RunID: runID, Created: created}); err != nil {
		return "", fmt.Errorf("render org %s: %w", r.Asset, err)
	}
	return buf.String(), nil
}

const backtestOrgTemplate = `* BACKTEST: {{.Asset}} {{.Period}}
:PROPERTIES:
:RUN_ID:      {{if .RunID}}{{.RunID}}{{else}}(run-id?){{end}}
:ASSET:       {{.Asset}}
:PERIOD:      {{.Period}}
:PROFILE:     {{.Profile}}
:ACCOUNT:     {{printf "%.2f" .AccountSize}}
:RISK_PCT:    {{printf "%.2f" (mul100 .RiskPerTradePct)}}
:TRADES:      {{.TotalTrades}}
:WINS:        {{.Wins}}
:WIN_RATE:    {{printf "%.2f" .WinRate}}
:RETURN_PCT:  {{printf "%.2f" .NetReturnPct}}
:NET_PL:      {{printf "%.2f" .TotalProfitUSD}}
:MAX_DD_PCT:  {{printf "%.2f" .MaxDrawdownPct}}
:AVG_R:       {{printf "%.2f" .AvgR}}
:PHASE1:      {{if .Phase1.Passed}}PASS{{else}}FAIL{{end}}
:CREATED:     [{{stamp .Created}}]
:END:

** Performance Summary
- Net P/L:        *{{printf "%.2f" .TotalProfitUSD}}*
- Return:         *{{printf "%.2f" .NetReturnPct}}%*
- Max Drawdown:   *{{printf "%.2f" .MaxDrawdownPct}}%*
- Win Rate:       *{{printf "%.2f" .WinRate}}%*
- Expectancy:     *{{printf "%+.2f" .AvgR}}R*

** Exit Distribution
| Exit      | Count |
|-----------+-------|
| TP1+Trail | {{.TP1TrailHits}} |
| TP2       | {{.TP2Hits}} |
| TP3       | {{.TP3Hits}} |
| SL        | {{.SLHits}} |
| Total     | {{.TotalTrades}} |

** Phase 1 Simulation
- {{.Phase1.Reason}}
- Profitable days: {{.Phase1.ProfitableDays}}/{{.Phase1.MinProfitableDays}}
- Violations: daily {{.Phase1.DailyLossViolations}}, total {{.Phase1.TotalLossViolations}}
{{- if .Trades}}

** Trades
| Entry | Exit | Dir | Reason | R |
|-------+------+-----+--------+---|
{{- range .Trades}}
| {{date .EntryTime}} | {{date .ExitTime}} | {{.Direction}} | {{.Reason}} | {{printf "%+.2f" .R}} |
{{- end}}
{{- end}}
`

// TradeOrg renders one simulated trade with structured facts in a property
// drawer and empty review headings.
func TradeOrg(t trade.Closed) string {
	var b strings.Builder
	fmt.Fprintf(&b, "** Trade: %s %s (%s)\n", t.Asset, t.Direction, t.EntryTime.UTC().Format(time.DateOnly))
	b.WriteString(":PROPERTIES:\n")
	fmt.Fprintf(&b, ":ASSET: %s\n", t.Asset)
	fmt.Fprintf(&b, ":DIRECTION: %s\n", t.Direction)
	fmt.Fprintf(&b, ":ENTRY: %.5f\n", t.Entry)
	fmt.Fprintf(&b, ":STOP_LOSS: %.5f\n", t.StopLoss)
	fmt.Fprintf(&b, ":EXIT: %.5f\n", t.Exit)
	fmt.Fprintf(&b, ":OPEN_TIME: %s\n", t.EntryTime.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, ":CLOSE_TIME: %s\n", t.ExitTime.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, ":EXIT_REASON: %s\n", t.Reason)
	fmt.Fprintf(&b, ":R: %+.2f\n", t.R)
	fmt.Fprintf(&b, ":CONFLUENCE: %d\n", t.Confluence)
	b.WriteString(":END:\n\n")
	b.WriteString("*** Thesis\n- \n\n")
	b.WriteString("*** Review\n- \n")
	return b.String()
}
