package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/propfirm/backtest"
	"github.com/rustyeddy/propfirm/market"
	"github.com/rustyeddy/propfirm/oanda"
)

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Manage historical bar data",
}

var dataFetchCmd = &cobra.Command{
	Use:   "fetch <instrument>...",
	Short: "Download OANDA candles into the CSV data directory",
	Long: `Fetch downloads complete mid candles from OANDA and writes them as
<dir>/<INSTRUMENT>_<TF>.csv, the layout the csv data source reads.

Requires an OANDA API token (data.token in the config, --token, or the
OANDA_API_KEY environment variable).

Example:
  propfirm data fetch EUR_USD GBP_USD XAU_USD --tf D,W`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDataFetch,
}

var (
	fetchTFs     []string
	fetchCount   int
	fetchDir     string
	fetchToken   string
	fetchBaseURL string
)

func init() {
	rootCmd.AddCommand(dataCmd)
	dataCmd.AddCommand(dataFetchCmd)

	dataFetchCmd.Flags().StringSliceVar(&fetchTFs, "tf", []string{"M", "W", "D", "H4"}, "timeframes to fetch")
	dataFetchCmd.Flags().IntVar(&fetchCount, "count", 0, "candles per timeframe (default: what a backtest loads, max 5000)")
	dataFetchCmd.Flags().StringVar(&fetchDir, "dir", "", "output directory (default data.dir)")
	dataFetchCmd.Flags().StringVar(&fetchToken, "token", "", "OANDA API token (default data.token or $OANDA_API_KEY)")
	dataFetchCmd.Flags().StringVar(&fetchBaseURL, "base-url", "", "OANDA API URL (default data.base_url)")
}

func parseTimeframes(names []string) ([]market.Timeframe, error) {
	tfs := make([]market.Timeframe, 0, len(names))
	for _, n := range names {
		tf := market.Timeframe(strings.ToUpper(strings.TrimSpace(n)))
		if _, ok := backtest.LoadCounts[tf]; !ok {
			return nil, fmt.Errorf("unsupported timeframe %q (use M, W, D or H4)", n)
		}
		tfs = append(tfs, tf)
	}
	return tfs, nil
}

func runDataFetch(cmd *cobra.Command, args []string) error {
	tfs, err := parseTimeframes(fetchTFs)
	if err != nil {
		return err
	}

	token := fetchToken
	if token == "" {
		token = cfg.Data.ResolveToken()
	}
	if token == "" {
		return fmt.Errorf("missing OANDA token (use --token or OANDA_API_KEY)")
	}
	baseURL := fetchBaseURL
	if baseURL == "" {
		baseURL = cfg.Data.BaseURL
	}
	dir := fetchDir
	if dir == "" {
		dir = cfg.Data.Dir
	}

	client := oanda.New(baseURL, token, nil)
	out := market.NewCSVSource(dir)

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(max(cfg.Backtest.Concurrency, 1))
	for _, arg := range args {
		inst := strings.ToUpper(arg)
		for _, tf := range tfs {
			tf := tf
			g.Go(func() error {
				count := fetchCount
				if count <= 0 {
					count = backtest.LoadCounts[tf]
				}
				bars, err := client.Bars(ctx, inst, tf, count)
				if err != nil {
					return fmt.Errorf("fetch %s %s: %w", inst, tf, err)
				}
				if err := out.WriteFile(inst, tf, bars); err != nil {
					return fmt.Errorf("write %s %s: %w", inst, tf, err)
				}
				log.Info("bars written", "instrument", inst, "tf", tf, "bars", len(bars))
				fmt.Printf("✓ %s: %d bars\n", out.Path(inst, tf), len(bars))
				return nil
			})
		}
	}
	return g.Wait()
}
