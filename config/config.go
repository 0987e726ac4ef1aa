// Package config holds the application settings shared by the propfirm
// commands: where bars come from, where the journal lives and the backtest
// tunables.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rustyeddy/propfirm/market"
	"github.com/rustyeddy/propfirm/oanda"
	"github.com/rustyeddy/propfirm/profile"
	"github.com/rustyeddy/propfirm/strategy"
	"gopkg.in/yaml.v3"
)

// TokenEnv is read when data.token is empty.
const TokenEnv = "OANDA_API_KEY"

const (
	SourceCSV   = "csv"
	SourceOANDA = "oanda"
)

type Config struct {
	Profile  string         `json:"profile" yaml:"profile"`
	Strategy string         `json:"strategy" yaml:"strategy"`
	Data     DataConfig     `json:"data" yaml:"data"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
	Backtest BacktestConfig `json:"backtest" yaml:"backtest"`
}

// DataConfig selects the bar source.
type DataConfig struct {
	Source  string `json:"source" yaml:"source"` // "csv" or "oanda"
	Dir     string `json:"dir,omitempty" yaml:"dir,omitempty"`
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Token   string `json:"token,omitempty" yaml:"token,omitempty"`
}

type JournalConfig struct {
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

type BacktestConfig struct {
	CooldownBars int `json:"cooldown_bars" yaml:"cooldown_bars"`
	// MinConfluence of 0 defers to SIGNAL_MODE.
	MinConfluence int `json:"min_confluence" yaml:"min_confluence"`
	Concurrency   int `json:"concurrency" yaml:"concurrency"`
}

// Default returns a configuration that reads CSV bars from ./data.
func Default() *Config {
	return &Config{
		Profile:  profile.DefaultName,
		Strategy: "blueprint",
		Data: DataConfig{
			Source:  SourceCSV,
			Dir:     "./data",
			BaseURL: oanda.PracticeURL,
		},
		Journal: JournalConfig{
			DBPath: "./propfirm.db",
		},
		Backtest: BacktestConfig{
			CooldownBars: 3,
			Concurrency:  4,
		},
	}
}

// LoadFromFile loads configuration from a YAML or JSON file. Fields absent
// from the file keep their Default values.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes YAML for .yaml/.yml paths and JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Profile != "" {
		if _, err := profile.Lookup(c.Profile); err != nil {
			return err
		}
	}
	if _, err := strategy.SupplierByName(c.Strategy); err != nil {
		return err
	}

	switch c.Data.Source {
	case SourceCSV:
		if c.Data.Dir == "" {
			return fmt.Errorf("data.dir is required for the csv source")
		}
	case SourceOANDA:
		if c.Data.BaseURL == "" {
			return fmt.Errorf("data.base_url is required for the oanda source")
		}
	default:
		return fmt.Errorf("data.source must be 'csv' or 'oanda'")
	}

	if c.Backtest.CooldownBars < 0 {
		return fmt.Errorf("backtest.cooldown_bars cannot be negative")
	}
	if c.Backtest.MinConfluence < 0 {
		return fmt.Errorf("backtest.min_confluence cannot be negative")
	}
	if c.Backtest.Concurrency < 0 {
		return fmt.Errorf("backtest.concurrency cannot be negative")
	}
	return nil
}

// ResolveToken returns data.token, or OANDA_API_KEY when it is empty.
func (d DataConfig) ResolveToken() string {
	if d.Token != "" {
		return d.Token
	}
	return strings.TrimSpace(os.Getenv(TokenEnv))
}

// BarSource builds the configured source.
func (c *Config) BarSource() (market.BarSource, error) {
	switch c.Data.Source {
	case SourceCSV:
		return market.NewCSVSource(c.Data.Dir), nil
	case SourceOANDA:
		token := c.Data.ResolveToken()
		if token == "" {
			return nil, fmt.Errorf("oanda source needs data.token or %s", TokenEnv)
		}
		return oanda.New(c.Data.BaseURL, token, nil), nil
	}
	return nil, fmt.Errorf("unknown data source %q", c.Data.Source)
}

// Confluence returns the minimum confluence score, falling back to
// SIGNAL_MODE when none is configured.
func (b BacktestConfig) Confluence() int {
	if b.MinConfluence > 0 {
		return b.MinConfluence
	}
	return strategy.MinConfluenceFromEnv()
}
