package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/propfirm/backtest"
	"github.com/rustyeddy/propfirm/config"
	"github.com/rustyeddy/propfirm/journal"
	"github.com/rustyeddy/propfirm/metrics"
	"github.com/rustyeddy/propfirm/profile"
	"github.com/rustyeddy/propfirm/strategy"
)

var rootCmd = &cobra.Command{
	Use:   "propfirm",
	Short: "Prop-firm challenge simulator and risk gate",
	Long: `Propfirm replays historical bars through a multi-target trade simulator,
grades the results against prop-firm challenge rules and gates live trades
against the account's loss, exposure and time limits.

It provides tools for:
  - Backtesting an instrument over a period or a whole year
  - Simulating monthly and yearly challenges across many instruments
  - Checking, opening and closing live trades against the risk rules
  - Downloading daily, weekly, monthly and H4 bars from OANDA

Complete documentation is available at https://github.com/rustyeddy/propfirm`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

var (
	cfgFile     string
	profileName string
	profileFile string
	logLevel    string
	dbPath      string
	metricsOut  string
)

// Resolved by setup before any command runs.
var (
	cfg      *config.Config
	acct     profile.AccountProfile
	log      *slog.Logger
	registry *prometheus.Registry
	mx       *metrics.Metrics
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON)")
	pf.StringVarP(&profileName, "profile", "p", "", "account profile name (default $"+profile.EnvVar+" or the config profile)")
	pf.StringVar(&profileFile, "profile-file", "", "load the account profile from a YAML or JSON file")
	pf.StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVarP(&dbPath, "db", "d", "", "path to SQLite journal DB (default from config)")
	pf.StringVar(&metricsOut, "metrics-out", "", "write Prometheus metrics to this file when the command ends")
}

func setup(cmd *cobra.Command, args []string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(log)

	cfg = config.Default()
	if cfgFile != "" {
		loaded, err := config.LoadFromFile(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if dbPath != "" {
		cfg.Journal.DBPath = dbPath
	}

	p, err := resolveProfile()
	if err != nil {
		return err
	}
	acct = p

	registry = prometheus.NewRegistry()
	mx = metrics.New(registry)

	log.Debug("setup complete", "profile", acct.Name, "source", cfg.Data.Source, "db", cfg.Journal.DBPath)
	return nil
}

// resolveProfile picks, in order: --profile-file, --profile,
// $ACCOUNT_PROFILE, the config profile and the default.
func resolveProfile() (profile.AccountProfile, error) {
	if profileFile != "" {
		return profile.LoadFromFile(profileFile)
	}
	name := profileName
	if name == "" {
		name = strings.TrimSpace(os.Getenv(profile.EnvVar))
	}
	if name == "" {
		name = cfg.Profile
	}
	if name == "" {
		return profile.The5ers10KHighStakes(), nil
	}
	return profile.Lookup(name)
}

func teardown(cmd *cobra.Command, args []string) error {
	if metricsOut == "" {
		return nil
	}
	return metrics.WriteFile(metricsOut, registry)
}

func newBacktestRunner() (*backtest.Runner, error) {
	src, err := cfg.BarSource()
	if err != nil {
		return nil, err
	}
	sup, err := strategy.SupplierByName(cfg.Strategy)
	if err != nil {
		return nil, err
	}
	return &backtest.Runner{
		Source:        src,
		Supplier:      sup,
		Profile:       acct,
		CooldownBars:  cfg.Backtest.CooldownBars,
		MinConfluence: cfg.Backtest.Confluence(),
		Logger:        log,
	}, nil
}

func openJournal() (*journal.SQLite, error) {
	j, err := journal.NewSQLite(cfg.Journal.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return j, nil
}
