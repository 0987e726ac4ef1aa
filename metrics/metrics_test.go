package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveDecision("ALLOWED")
		m.SetExposure(1, 100, 10_000)
		m.ObserveBacktest("EUR_USD", 3, time.Second)
		m.IncAssetFailure("EUR_USD")
		m.ObserveChallenge(true)
	})
}

func TestMetricsRecord(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveDecision("ALLOWED")
	m.ObserveDecision("ALLOWED")
	m.ObserveDecision("BLOCKED_CONCURRENT")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RiskDecisions.WithLabelValues("ALLOWED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RiskDecisions.WithLabelValues("BLOCKED_CONCURRENT")))

	m.SetExposure(2, 200, 9_800)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.OpenTrades))
	assert.Equal(t, 200.0, testutil.ToFloat64(m.OpenRiskUSD))
	assert.Equal(t, 9_800.0, testutil.ToFloat64(m.Balance))

	m.ObserveBacktest("EUR_USD", 4, 10*time.Millisecond)
	assert.Equal(t, 4.0, testutil.ToFloat64(m.TradesSimulated.WithLabelValues("EUR_USD")))

	m.IncAssetFailure("XAU_USD")
	m.ObserveChallenge(false)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AssetFailures.WithLabelValues("XAU_USD")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChallengeRuns.WithLabelValues("failed")))

	n, err := testutil.GatherAndCount(reg, "propfirm_risk_decisions_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestNewWithoutRegistry(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		New(nil)
		New(nil)
	})
}

func TestWriteFile(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	New(reg).ObserveChallenge(true)

	path := filepath.Join(t.TempDir(), "propfirm.prom")
	require.NoError(t, WriteFile(path, reg))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `propfirm_challenge_runs_total{outcome="passed"} 1`)
}
