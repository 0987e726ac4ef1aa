package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/propfirm/backtest"
	"github.com/rustyeddy/propfirm/challenge"
	"github.com/rustyeddy/propfirm/journal"
	"github.com/rustyeddy/propfirm/portfolio"
	"github.com/rustyeddy/propfirm/report"
)

var challengeCmd = &cobra.Command{
	Use:   "challenge <month|year>",
	Short: "Simulate a challenge across many instruments",
	Long: `Challenge backtests every instrument for a calendar month, merges the
trades in the order they settled and runs them through the phases of the
account profile. A bare year runs all twelve months.

Months may be written "Feb 2024", "February 2024" or "2024-02".

Examples:
  propfirm challenge "Feb 2024" --export
  propfirm challenge 2024 --assets EUR_USD,GBP_USD,XAU_USD`,
	Args: cobra.ExactArgs(1),
	RunE: runChallenge,
}

var (
	chAssets      []string
	chConcurrency int
	chExport      bool
	chCSV         string
	chRecord      bool
	chJSON        bool
)

func init() {
	rootCmd.AddCommand(challengeCmd)

	challengeCmd.Flags().StringSliceVarP(&chAssets, "assets", "a", nil, "instruments to include (default: every active instrument)")
	challengeCmd.Flags().IntVar(&chConcurrency, "concurrency", 0, "instruments loaded at once (default from config)")
	challengeCmd.Flags().BoolVar(&chExport, "export", false, "list the trades grouped by asset")
	challengeCmd.Flags().StringVar(&chCSV, "csv", "", "export the trades to this CSV file")
	challengeCmd.Flags().BoolVar(&chRecord, "record", false, "record the simulation in the journal")
	challengeCmd.Flags().BoolVar(&chJSON, "json", false, "print the result as JSON")
}

var monthLayouts = []string{"Jan 2006", "January 2006", "2006-01"}

// parseMonth reads a calendar month in any of monthLayouts.
func parseMonth(s string) (int, time.Month, error) {
	s = strings.TrimSpace(s)
	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Year(), t.Month(), nil
		}
	}
	return 0, 0, fmt.Errorf("unrecognized month %q (use \"Feb 2024\" or \"2024-02\")", s)
}

func newPortfolioRunner() (*portfolio.Runner, error) {
	bt, err := newBacktestRunner()
	if err != nil {
		return nil, err
	}
	n := chConcurrency
	if n <= 0 {
		n = cfg.Backtest.Concurrency
	}
	assets := make([]string, 0, len(chAssets))
	for _, a := range chAssets {
		assets = append(assets, strings.ToUpper(strings.TrimSpace(a)))
	}
	return &portfolio.Runner{
		Backtest:    bt,
		Assets:      assets,
		Concurrency: n,
		Metrics:     mx,
		Logger:      log,
	}, nil
}

func runChallenge(cmd *cobra.Command, args []string) error {
	runner, err := newPortfolioRunner()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	if year, ok := backtest.IsYear(args[0]); ok {
		a, err := runner.Year(ctx, year)
		if err != nil {
			return err
		}
		var traded []challenge.Result
		for _, m := range a.Months {
			if m.TotalTrades > 0 {
				traded = append(traded, m)
			}
		}
		if err := recordChallenges(cmd, traded); err != nil {
			return err
		}
		if chJSON {
			return printJSON(a)
		}
		fmt.Print(report.YearlyChallenge(a))
		return nil
	}

	year, month, err := parseMonth(args[0])
	if err != nil {
		return err
	}
	res, err := runner.Month(ctx, year, month)
	if err != nil {
		return err
	}

	if err := exportTrades(chCSV, res.Trades); err != nil {
		return err
	}
	if err := recordChallenges(cmd, []challenge.Result{res}); err != nil {
		return err
	}
	if chJSON {
		return printJSON(res)
	}
	fmt.Print(report.Challenge(res))
	if chExport {
		fmt.Println()
		fmt.Print(report.TradeExport(res))
	}
	return nil
}

func recordChallenges(cmd *cobra.Command, results []challenge.Result) error {
	if !chRecord || len(results) == 0 {
		return nil
	}
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	for _, res := range results {
		run := journal.RunFromChallenge(res, time.Now())
		if err := j.RecordRun(cmd.Context(), run, res.Trades); err != nil {
			return fmt.Errorf("record %s: %w", res.Label, err)
		}
		log.Info("challenge recorded", "run_id", run.RunID, "period", res.Label)
	}
	return nil
}
