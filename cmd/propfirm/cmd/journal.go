package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/propfirm/report"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query recorded backtest and challenge runs",
	Long: `Query runs recorded with --record.

Subcommands:
  runs  - List recorded runs, newest first
  show  - Show one run and its trades

Examples:
  propfirm journal runs --limit 10
  propfirm journal show <run-id> --org`,
}

var journalRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded runs",
	Args:  cobra.NoArgs,
	RunE:  runJournalRuns,
}

var journalShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a run and its trades",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalShow,
}

var (
	journalLimit int
	journalOrg   bool
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalRunsCmd, journalShowCmd)

	journalRunsCmd.Flags().IntVarP(&journalLimit, "limit", "n", 20, "maximum runs to list (0 for all)")
	journalShowCmd.Flags().BoolVar(&journalOrg, "org", false, "print each trade as an Org heading")
}

func runJournalRuns(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	runs, err := j.ListRuns(cmd.Context(), journalLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}
	for _, r := range runs {
		fmt.Printf("%s  %-9s %-8s %-24s %3d trades  %+6.1f%%  %s\n",
			r.RunID, r.Kind, orAll(r.Asset), r.Period, r.Trades, r.NetReturnPct, passFail(r.Passed))
	}
	return nil
}

func runJournalShow(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	r, err := j.GetRun(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("get run: %w", err)
	}
	trades, err := j.ListRunTrades(cmd.Context(), r.RunID)
	if err != nil {
		return fmt.Errorf("list trades: %w", err)
	}

	fmt.Printf("Run %s (%s)\n", r.RunID, r.Kind)
	fmt.Printf("  Created:  %s\n", r.Created.Format("2006-01-02 15:04"))
	fmt.Printf("  Asset:    %s\n", orAll(r.Asset))
	fmt.Printf("  Period:   %s\n", r.Period)
	fmt.Printf("  Profile:  %s\n", r.Profile)
	fmt.Printf("  Trades:   %d (%d wins, %.1f%%)\n", r.Trades, r.Wins, r.WinRate)
	fmt.Printf("  Return:   %+.2f%% ($%.2f), max DD %.2f%%, avg R %+.2f\n", r.NetReturnPct, r.ProfitUSD, r.MaxDDPct, r.AvgR)
	fmt.Printf("  Result:   %s %s\n", passFail(r.Passed), r.Reason)
	if r.Notes != "" {
		fmt.Printf("  Notes:    %s\n", r.Notes)
	}

	if len(trades) == 0 {
		return nil
	}
	fmt.Println()
	for _, t := range trades {
		if journalOrg {
			fmt.Println(report.TradeOrg(t))
			continue
		}
		fmt.Printf("  %s  %-8s %-8s %-9s %+.2fR\n", t.EntryTime.Format("2006-01-02"), t.Asset, t.Direction, t.Reason, t.R)
	}
	return nil
}

func orAll(asset string) string {
	if asset == "" {
		return "ALL"
	}
	return asset
}

func passFail(ok bool) string {
	if ok {
		return "PASS"
	}
	return "FAIL"
}
