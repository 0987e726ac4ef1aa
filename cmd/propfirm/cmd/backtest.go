package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/propfirm/backtest"
	"github.com/rustyeddy/propfirm/journal"
	"github.com/rustyeddy/propfirm/report"
	"github.com/rustyeddy/propfirm/trade"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest <asset> [period]",
	Short: "Backtest one instrument over a period or a year",
	Long: `Backtest replays an instrument's daily bars through the trade simulator
and grades the result against Phase 1 of the account profile.

Period formats:
  "Jan 2024 - Sep 2024"
  "2024-01-01 - 2024-03-31"
  "15 Mar 2024 - now"
  "2024"          a month by month breakdown with yearly validation

An empty or unreadable period replays the last 260 daily bars.

Example:
  propfirm backtest EUR_USD "Jan 2024 - Jun 2024" --record --csv eurusd.csv`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runBacktest,
}

var (
	btRecord bool
	btCSV    string
	btOrg    bool
	btJSON   bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().BoolVar(&btRecord, "record", false, "record the run and its trades in the journal")
	backtestCmd.Flags().StringVar(&btCSV, "csv", "", "export the trades to this CSV file")
	backtestCmd.Flags().BoolVar(&btOrg, "org", false, "print the report as an Org heading")
	backtestCmd.Flags().BoolVar(&btJSON, "json", false, "print the report as JSON")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	asset := strings.ToUpper(args[0])
	period := ""
	if len(args) > 1 {
		period = args[1]
	}

	runner, err := newBacktestRunner()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	start := time.Now()

	if year, ok := backtest.IsYear(period); ok {
		y, err := runner.Yearly(ctx, asset, year)
		if err != nil {
			return fmt.Errorf("backtest %s: %w", asset, err)
		}
		mx.ObserveBacktest(asset, y.TotalTrades, time.Since(start))

		if err := exportTrades(btCSV, y.Trades); err != nil {
			return err
		}
		if btRecord {
			if err := recordReports(cmd, y.Months); err != nil {
				return err
			}
		}
		if btJSON {
			return printJSON(y)
		}
		fmt.Print(report.Yearly(y))
		return nil
	}

	rep, err := runner.Run(ctx, asset, period)
	if err != nil {
		return fmt.Errorf("backtest %s: %w", asset, err)
	}
	mx.ObserveBacktest(asset, rep.TotalTrades, time.Since(start))

	if err := exportTrades(btCSV, rep.Trades); err != nil {
		return err
	}
	runID := ""
	if btRecord {
		run := journal.RunFromReport(rep, time.Now())
		if err := recordRun(cmd, run, rep); err != nil {
			return err
		}
		runID = run.RunID
	}

	switch {
	case btJSON:
		return printJSON(rep)
	case btOrg:
		out, err := report.BacktestOrg(rep, runID, time.Now())
		if err != nil {
			return err
		}
		fmt.Print(out)
	default:
		fmt.Print(report.Backtest(rep))
		if runID != "" {
			fmt.Printf("\nRecorded run %s in %s\n", runID, cfg.Journal.DBPath)
		}
	}
	return nil
}

// exportTrades writes trades to path as CSV. An empty path does nothing.
func exportTrades(path string, trades []trade.Closed) error {
	if path == "" {
		return nil
	}
	if err := journal.ExportTrades(path, trades, acct.MaxRiskPerTradeUSD()); err != nil {
		return fmt.Errorf("export trades: %w", err)
	}
	fmt.Fprintf(os.Stderr, "✓ Trades written to %s\n", path)
	return nil
}

func recordRun(cmd *cobra.Command, run journal.Run, rep backtest.Report) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()
	if err := j.RecordRun(cmd.Context(), run, rep.Trades); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// recordReports stores every report that produced trades.
func recordReports(cmd *cobra.Command, reps []backtest.Report) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	for _, rep := range reps {
		if rep.TotalTrades == 0 {
			continue
		}
		if err := j.RecordRun(cmd.Context(), journal.RunFromReport(rep, time.Now()), rep.Trades); err != nil {
			return fmt.Errorf("record %s: %w", rep.Period, err)
		}
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
