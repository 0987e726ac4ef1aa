package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/propfirm/journal"
	"github.com/rustyeddy/propfirm/market"
	"github.com/rustyeddy/propfirm/report"
	"github.com/rustyeddy/propfirm/risk"
	"github.com/rustyeddy/propfirm/trade"
)

var riskCmd = &cobra.Command{
	Use:   "risk",
	Short: "Gate live trades against the account's risk rules",
	Long: `Risk keeps the live trade book in the SQLite journal and checks new
trades against the profile's loss limits, exposure limits and trading hours.

Subcommands:
  status  - Balance, exposure and phase progress
  check   - Would a trade risking <usd> be allowed now?
  open    - Check and open a trade
  close   - Close an open trade with its realized P/L
  size    - Lot size for an entry and stop at the profile's risk per trade
  export  - Write the trade book as CSV
  reset   - Forget every recorded live trade

Examples:
  propfirm risk check 100 --news "2024-03-06T12:30:00Z=US NFP"
  propfirm risk open EUR_USD --direction bullish --entry 1.0850 --sl 1.0800
  propfirm risk close 01HZX... --exit 1.0900 --pnl 200`,
}

var riskStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show balance, exposure and phase progress",
	Args:  cobra.NoArgs,
	RunE:  runRiskStatus,
}

var riskCheckCmd = &cobra.Command{
	Use:   "check <risk-usd>",
	Short: "Check whether a new trade would be allowed",
	Args:  cobra.ExactArgs(1),
	RunE:  runRiskCheck,
}

var riskOpenCmd = &cobra.Command{
	Use:   "open <symbol>",
	Short: "Check and open a trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runRiskOpen,
}

var riskCloseCmd = &cobra.Command{
	Use:   "close <trade-id>",
	Short: "Close an open trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runRiskClose,
}

var riskSizeCmd = &cobra.Command{
	Use:   "size <instrument> <entry> <stop>",
	Short: "Size a position at the profile's risk per trade",
	Args:  cobra.ExactArgs(3),
	RunE:  runRiskSize,
}

var riskExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every live trade as CSV",
	Args:  cobra.NoArgs,
	RunE:  runRiskExport,
}

var riskResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every recorded live trade",
	Args:  cobra.NoArgs,
	RunE:  runRiskReset,
}

var (
	riskAt        string
	riskNews      []string
	riskID        string
	riskDirection string
	riskEntry     float64
	riskSL        float64
	riskLots      float64
	riskUSD       float64
	riskForce     bool
	riskExit      float64
	riskPnL       float64
	riskRate      float64
	riskOut       string
)

func init() {
	rootCmd.AddCommand(riskCmd)
	riskCmd.AddCommand(riskStatusCmd, riskCheckCmd, riskOpenCmd, riskCloseCmd, riskSizeCmd, riskExportCmd, riskResetCmd)

	riskCmd.PersistentFlags().StringVar(&riskAt, "at", "", "evaluate at this UTC time (RFC3339 or \"2006-01-02 15:04\", default now)")

	for _, c := range []*cobra.Command{riskCheckCmd, riskOpenCmd} {
		c.Flags().StringArrayVar(&riskNews, "news", nil, "high impact release as TIME=NAME (repeatable)")
	}

	riskOpenCmd.Flags().StringVar(&riskID, "id", "", "trade ID (default: generated)")
	riskOpenCmd.Flags().StringVar(&riskDirection, "direction", "bullish", "bullish or bearish")
	riskOpenCmd.Flags().Float64Var(&riskEntry, "entry", 0, "entry price")
	riskOpenCmd.Flags().Float64Var(&riskSL, "sl", 0, "stop loss price")
	riskOpenCmd.Flags().Float64Var(&riskLots, "lots", 0, "lot size (default: sized from entry and stop)")
	riskOpenCmd.Flags().Float64Var(&riskUSD, "risk", 0, "risk in USD (default: sized from entry and stop)")
	riskOpenCmd.Flags().BoolVar(&riskForce, "force", false, "record the trade without checking the rules")

	riskCloseCmd.Flags().Float64Var(&riskExit, "exit", 0, "exit price")
	riskCloseCmd.Flags().Float64Var(&riskPnL, "pnl", 0, "realized P/L in USD")
	riskCloseCmd.MarkFlagRequired("pnl")

	for _, c := range []*cobra.Command{riskOpenCmd, riskSizeCmd} {
		c.Flags().Float64Var(&riskRate, "rate", 0, "quote to account currency rate (default: derived from the entry price)")
	}
	riskExportCmd.Flags().StringVarP(&riskOut, "output", "o", "", "output file (default stdout)")
}

var atLayouts = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04", time.DateOnly}

func parseAt(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range atLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

// parseNews reads a TIME=NAME news flag.
func parseNews(s string) (risk.NewsEvent, error) {
	when, name, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(name) == "" {
		return risk.NewsEvent{}, fmt.Errorf("news %q: want TIME=NAME", s)
	}
	t, err := parseAt(when)
	if err != nil {
		return risk.NewsEvent{}, fmt.Errorf("news %q: %w", s, err)
	}
	return risk.NewsEvent{Time: t, Name: strings.TrimSpace(name)}, nil
}

// quoteRate is --rate, or the conversion implied by price for USD quoted
// and USD based symbols.
func quoteRate(instrument string, price float64) (float64, error) {
	if riskRate > 0 {
		return riskRate, nil
	}
	ccy := acct.Currency
	if ccy == "" {
		ccy = "USD"
	}
	rate, err := market.QuoteToAccountRate(instrument, ccy, price)
	if err != nil {
		return 0, fmt.Errorf("%w (pass --rate)", err)
	}
	return rate, nil
}

// evalTime is --at, or now.
func evalTime() (time.Time, error) {
	if riskAt == "" {
		return time.Now().UTC(), nil
	}
	return parseAt(riskAt)
}

// openBook opens the journal and rebuilds the risk manager from the trades
// recorded there. The caller closes the journal.
func openBook(cmd *cobra.Command) (*risk.Manager, *journal.SQLite, time.Time, error) {
	at, err := evalTime()
	if err != nil {
		return nil, nil, at, err
	}
	j, err := openJournal()
	if err != nil {
		return nil, nil, at, err
	}

	m := risk.NewManager(acct,
		risk.WithClock(func() time.Time { return at }),
		risk.WithRecorder(j),
		risk.WithMetrics(mx),
		risk.WithLogger(log),
	)
	recs, err := j.RiskTrades(cmd.Context())
	if err == nil {
		err = m.Restore(recs)
	}
	if err != nil {
		j.Close()
		return nil, nil, at, fmt.Errorf("restore trades: %w", err)
	}

	for _, s := range riskNews {
		ev, err := parseNews(s)
		if err != nil {
			j.Close()
			return nil, nil, at, err
		}
		m.AddNewsEvent(ev.Time, ev.Name)
	}
	return m, j, at, nil
}

func runRiskStatus(cmd *cobra.Command, args []string) error {
	m, j, _, err := openBook(cmd)
	if err != nil {
		return err
	}
	defer j.Close()

	fmt.Print(report.RiskSummary(m.Summary()))

	open := m.OpenTrades()
	if len(open) == 0 {
		return nil
	}
	fmt.Println("\nOpen trades:")
	for _, t := range open {
		fmt.Printf("  %s  %-8s %-8s entry %.5f  sl %.5f  lots %.2f  risk $%.2f  since %s\n",
			t.ID, t.Symbol, t.Direction, t.EntryPrice, t.StopLoss, t.LotSize, t.RiskUSD,
			t.EntryTime.Format("2006-01-02 15:04"))
	}
	return nil
}

func runRiskCheck(cmd *cobra.Command, args []string) error {
	usd, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("risk amount %q: %w", args[0], err)
	}
	m, j, at, err := openBook(cmd)
	if err != nil {
		return err
	}
	defer j.Close()

	d := m.CanAddTrade(usd, at)
	fmt.Println(d)
	return nil
}

func runRiskOpen(cmd *cobra.Command, args []string) error {
	dir, err := trade.ParseDirection(riskDirection)
	if err != nil {
		return err
	}
	symbol := strings.ToUpper(args[0])

	rec := risk.TradeRecord{
		ID:         riskID,
		Symbol:     symbol,
		Direction:  dir,
		EntryPrice: riskEntry,
		StopLoss:   riskSL,
		LotSize:    riskLots,
		RiskUSD:    riskUSD,
	}
	if rec.RiskUSD == 0 && rec.EntryPrice > 0 && rec.StopLoss > 0 {
		rate, err := quoteRate(symbol, rec.EntryPrice)
		if err != nil {
			return err
		}
		sz, err := risk.Size(acct, symbol, rec.EntryPrice, rec.StopLoss, rate)
		if err != nil {
			return err
		}
		rec.RiskUSD = sz.RiskUSD
		if rec.LotSize == 0 {
			rec.LotSize = sz.Lots
		}
	}

	m, j, at, err := openBook(cmd)
	if err != nil {
		return err
	}
	defer j.Close()
	rec.EntryTime = at

	if riskForce {
		rec, err = m.OpenTrade(rec)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Opened %s %s without checks (risk $%.2f)\n", rec.ID, rec.Symbol, rec.RiskUSD)
		return nil
	}

	rec, d, err := m.Admit(rec, at)
	if err != nil {
		return err
	}
	fmt.Println(d)
	if !d.Verdict.Admits() {
		return nil
	}
	fmt.Printf("✓ Opened %s %s %s, %.2f lots, risk $%.2f\n", rec.ID, rec.Symbol, rec.Direction, rec.LotSize, rec.RiskUSD)
	return nil
}

func runRiskClose(cmd *cobra.Command, args []string) error {
	m, j, at, err := openBook(cmd)
	if err != nil {
		return err
	}
	defer j.Close()

	rec, ok := m.CloseTrade(args[0], riskExit, riskPnL, at)
	if !ok {
		return fmt.Errorf("no open trade %q", args[0])
	}
	fmt.Printf("✓ Closed %s %s, P/L $%+.2f, balance $%.2f\n", rec.ID, rec.Symbol, rec.PnLUSD, m.Balance())
	return nil
}

func runRiskSize(cmd *cobra.Command, args []string) error {
	var prices [2]float64
	for i, s := range args[1:] {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("price %q: %w", s, err)
		}
		prices[i] = v
	}
	inst := strings.ToUpper(args[0])
	rate, err := quoteRate(inst, prices[0])
	if err != nil {
		return err
	}
	sz, err := risk.Size(acct, inst, prices[0], prices[1], rate)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %.2f lots (%.0f units), stop %.1f pips, risk $%.2f (%.2f%%)\n",
		sz.Instrument, sz.Lots, sz.Units, sz.StopPips, sz.RiskUSD, sz.RiskPct*100)
	return nil
}

func runRiskExport(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	recs, err := j.RiskTrades(cmd.Context())
	if err != nil {
		return err
	}
	if riskOut == "" {
		return journal.WriteRiskCSV(os.Stdout, recs)
	}
	f, err := os.Create(riskOut)
	if err != nil {
		return err
	}
	if err := journal.WriteRiskCSV(f, recs); err != nil {
		f.Close()
		return err
	}
	fmt.Fprintf(os.Stderr, "✓ %d trades written to %s\n", len(recs), riskOut)
	return f.Close()
}

func runRiskReset(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	if err := j.ClearRiskTrades(cmd.Context()); err != nil {
		return err
	}
	fmt.Println("✓ Risk book cleared")
	return nil
}
