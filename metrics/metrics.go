// Package metrics holds the Prometheus collectors for risk decisions and
// simulation runs. A nil *Metrics is valid and records nothing.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "propfirm"

type Metrics struct {
	RiskDecisions *prometheus.CounterVec
	OpenTrades    prometheus.Gauge
	OpenRiskUSD   prometheus.Gauge
	Balance       prometheus.Gauge

	TradesSimulated  *prometheus.CounterVec
	BacktestDuration *prometheus.HistogramVec
	AssetFailures    *prometheus.CounterVec
	ChallengeRuns    *prometheus.CounterVec
}

// New registers every collector with reg. A nil reg uses a fresh registry
// so repeated calls never collide.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Metrics{
		RiskDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "risk",
			Name:      "decisions_total",
			Help:      "Risk gate decisions by verdict",
		}, []string{"verdict"}),
		OpenTrades: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "risk",
			Name:      "open_trades",
			Help:      "Trades currently open in the risk manager",
		}),
		OpenRiskUSD: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "risk",
			Name:      "open_risk_usd",
			Help:      "Sum of risk of all open trades in account currency",
		}),
		Balance: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "risk",
			Name:      "balance_usd",
			Help:      "Current account balance tracked by the risk manager",
		}),

		TradesSimulated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "trades_simulated_total",
			Help:      "Closed simulated trades by asset",
		}, []string{"asset"}),
		BacktestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "duration_seconds",
			Help:      "Wall time of one instrument backtest",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"asset"}),
		AssetFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "portfolio",
			Name:      "asset_failures_total",
			Help:      "Instruments skipped during a portfolio run",
		}, []string{"asset"}),
		ChallengeRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "challenge",
			Name:      "runs_total",
			Help:      "Challenge simulations by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) ObserveDecision(verdict string) {
	if m == nil {
		return
	}
	m.RiskDecisions.WithLabelValues(verdict).Inc()
}

// SetExposure publishes the risk manager's current state.
func (m *Metrics) SetExposure(open int, openRiskUSD, balance float64) {
	if m == nil {
		return
	}
	m.OpenTrades.Set(float64(open))
	m.OpenRiskUSD.Set(openRiskUSD)
	m.Balance.Set(balance)
}

func (m *Metrics) ObserveBacktest(asset string, trades int, took time.Duration) {
	if m == nil {
		return
	}
	m.TradesSimulated.WithLabelValues(asset).Add(float64(trades))
	m.BacktestDuration.WithLabelValues(asset).Observe(took.Seconds())
}

func (m *Metrics) IncAssetFailure(asset string) {
	if m == nil {
		return
	}
	m.AssetFailures.WithLabelValues(asset).Inc()
}

func (m *Metrics) ObserveChallenge(passed bool) {
	if m == nil {
		return
	}
	outcome := "failed"
	if passed {
		outcome = "passed"
	}
	m.ChallengeRuns.WithLabelValues(outcome).Inc()
}

// WriteFile dumps everything gathered by g in the text exposition format,
// for the node exporter textfile collector.
func WriteFile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
