package risk

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rustyeddy/propfirm/internal/money"
	"github.com/rustyeddy/propfirm/market"
	"github.com/rustyeddy/propfirm/metrics"
	"github.com/rustyeddy/propfirm/pkg/id"
	"github.com/rustyeddy/propfirm/profile"
)

// Recorder persists trade records as they open and close. The journal
// implements it.
type Recorder interface {
	SaveRiskTrade(TradeRecord) error
}

type Option func(*Manager)

// WithClock overrides the time source used when a call passes a zero time.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func WithMetrics(mx *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mx }
}

func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// Manager tracks open trades, realized P&L per UTC day and drawdown for one
// account. All methods are safe for concurrent use. Admit is the only way
// to check and open a trade atomically.
type Manager struct {
	mu sync.Mutex

	profile    profile.AccountProfile
	balance    float64
	peak       float64
	open       map[string]TradeRecord
	closed     []TradeRecord
	daily      map[string]*DailyPnL
	phase      int
	phaseStart float64
	news       []NewsEvent

	now      func() time.Time
	metrics  *metrics.Metrics
	recorder Recorder
	log      *slog.Logger
}

func NewManager(p profile.AccountProfile, opts ...Option) *Manager {
	m := &Manager{
		profile: p,
		now:     time.Now,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.resetLocked()
	return m
}

func (m *Manager) Profile() profile.AccountProfile { return m.profile }

func (m *Manager) at(t time.Time) time.Time {
	if t.IsZero() {
		t = m.now()
	}
	return t.UTC()
}

func (m *Manager) dayLocked(t time.Time) *DailyPnL {
	key := market.DateKey(t)
	d, ok := m.daily[key]
	if !ok {
		d = &DailyPnL{Date: key}
		m.daily[key] = d
	}
	return d
}

// peekLocked reads a day without creating it.
func (m *Manager) peekLocked(t time.Time) DailyPnL {
	key := market.DateKey(t)
	if d, ok := m.daily[key]; ok {
		return *d
	}
	return DailyPnL{Date: key}
}

func (m *Manager) openRiskLocked() float64 {
	var sum float64
	for _, t := range m.open {
		sum += t.RiskUSD
	}
	return sum
}

// CanAddTrade checks whether a trade risking riskUSD may open at t. A zero
// t means now. It does not change any state.
func (m *Manager) CanAddTrade(riskUSD float64, t time.Time) Decision {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := m.checkLocked(riskUSD, m.at(t))
	m.metrics.ObserveDecision(string(d.Verdict))
	return d
}

func (m *Manager) checkLocked(riskUSD float64, now time.Time) Decision {
	if d, ok := m.timeCheckLocked(now); !ok {
		return d
	}

	p := m.profile
	start := p.StartingBalance

	if len(m.open) >= p.MaxConcurrentTrades {
		return Decision{BlockedConcurrent, fmt.Sprintf(
			"Max %d concurrent trades allowed. Currently have %d open.",
			p.MaxConcurrentTrades, len(m.open))}
	}

	openRisk := m.openRiskLocked()
	newOpenRisk := openRisk + riskUSD
	maxOpenRisk := p.MaxOpenRiskUSD()
	if newOpenRisk > maxOpenRisk {
		return Decision{BlockedOpenRisk, fmt.Sprintf(
			"Adding this trade would exceed max open risk of %s (%.1f%%). Current open risk: %s.",
			money.USD(maxOpenRisk), p.MaxOpenRiskPct*100, money.USD(openRisk))}
	}

	realized := m.peekLocked(now).RealizedUSD
	projDaily := realized - newOpenRisk
	safeDaily := start * p.SafeDailyLossLimit()
	if math.Abs(projDaily) > safeDaily {
		return Decision{BlockedDailyLoss, fmt.Sprintf(
			"Adding this trade risks breaching daily loss limit. Daily P&L: %s, Projected loss: %s, Safe limit: %s.",
			money.USD(realized), money.USD(projDaily), money.USD(safeDaily))}
	}

	drawdown := start - m.balance
	projTotal := drawdown + newOpenRisk
	safeTotal := start * p.SafeTotalLossLimit()
	if projTotal > safeTotal {
		return Decision{BlockedTotalLoss, fmt.Sprintf(
			"Adding this trade risks breaching total loss limit. Current DD: %s, Projected: %s, Safe limit: %s.",
			money.USD(drawdown), money.USD(projTotal), money.USD(safeTotal))}
	}

	dailyUse := math.Abs(projDaily) / safeDaily
	totalUse := projTotal / safeTotal
	if dailyUse > warnUsage || totalUse > warnUsage {
		return Decision{WarningNearLimit, fmt.Sprintf(
			"Trade allowed but approaching limits. Daily: %.0f%% of limit, Total: %.0f%% of limit.",
			dailyUse*100, totalUse*100)}
	}

	return Decision{Allowed, fmt.Sprintf("Trade approved. Open risk: %s / %s.",
		money.USD(newOpenRisk), money.USD(maxOpenRisk))}
}

func (m *Manager) timeCheckLocked(now time.Time) (Decision, bool) {
	p := m.profile

	if now.Weekday() == p.WeeklyCutoffDay && now.Hour() >= p.WeeklyCutoffHourUTC {
		return Decision{BlockedWeeklyCutoff, fmt.Sprintf(
			"No new trades after %d:00 UTC on %s. Current time: %s UTC.",
			p.WeeklyCutoffHourUTC, p.WeeklyCutoffDay, now.Format("15:04"))}, false
	}

	if now.Weekday() == p.MarketOpenDay {
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		since := now.Sub(midnight).Hours()
		if since < float64(p.OpenCooldownHours) {
			return Decision{BlockedOpenCooldown, fmt.Sprintf(
				"%s cooldown in effect. Wait %dh after market open. Time remaining: %.1fh.",
				p.MarketOpenDay, p.OpenCooldownHours, float64(p.OpenCooldownHours)-since)}, false
		}
	}

	blackout := time.Duration(p.NewsBlackoutMinutes) * time.Minute
	for _, ev := range m.news {
		from, until := ev.Time.Add(-blackout), ev.Time.Add(blackout)
		if !now.Before(from) && !now.After(until) {
			return Decision{BlockedNewsEvent, fmt.Sprintf(
				"News blackout in effect for: %s. Wait until %s UTC.",
				ev.Name, until.UTC().Format("15:04"))}, false
		}
	}
	return Decision{Allowed, "Trading time OK."}, true
}

// Admit checks rec and opens it in one step when the verdict admits it. A
// record without an ID is given one. Entry time defaults to t.
func (m *Manager) Admit(rec TradeRecord, t time.Time) (TradeRecord, Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.at(t)
	if rec.EntryTime.IsZero() {
		rec.EntryTime = now
	}
	rec, err := m.prepareLocked(rec)
	if err != nil {
		return rec, Decision{}, err
	}

	d := m.checkLocked(rec.RiskUSD, now)
	m.metrics.ObserveDecision(string(d.Verdict))
	if !d.Verdict.Admits() {
		m.log.Info("trade blocked", "symbol", rec.Symbol, "risk_usd", rec.RiskUSD, "verdict", d.Verdict)
		return rec, d, nil
	}
	m.openLocked(rec)
	return rec, d, nil
}

// OpenTrade records rec as open without any rule check.
func (m *Manager) OpenTrade(rec TradeRecord) (TradeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rec.EntryTime.IsZero() {
		rec.EntryTime = m.at(time.Time{})
	}
	rec, err := m.prepareLocked(rec)
	if err != nil {
		return rec, err
	}
	m.openLocked(rec)
	return rec, nil
}

func (m *Manager) prepareLocked(rec TradeRecord) (TradeRecord, error) {
	rec.EntryTime = rec.EntryTime.UTC()
	if rec.ID == "" {
		rec.ID = id.At(rec.EntryTime)
	}
	if err := rec.validate(); err != nil {
		return rec, err
	}
	if _, dup := m.open[rec.ID]; dup {
		return rec, fmt.Errorf("%w: %s", ErrDuplicateTrade, rec.ID)
	}
	if rec.RiskPct == 0 && m.profile.StartingBalance > 0 {
		rec.RiskPct = rec.RiskUSD / m.profile.StartingBalance
	}
	rec.Open = true
	rec.ExitTime, rec.ExitPrice, rec.PnLUSD = time.Time{}, 0, 0
	return rec, nil
}

func (m *Manager) openLocked(rec TradeRecord) {
	m.open[rec.ID] = rec
	m.dayLocked(rec.EntryTime).TradesOpened++

	m.log.Info("trade opened", "id", rec.ID, "symbol", rec.Symbol, "risk_usd", rec.RiskUSD)
	m.saveLocked(rec)
	m.publishLocked()
}

// CloseTrade settles an open trade. It returns false when id is not open.
// A zero t means now.
func (m *Manager) CloseTrade(tradeID string, exitPrice, pnlUSD float64, t time.Time) (TradeRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.open[tradeID]
	if !ok {
		return TradeRecord{}, false
	}
	delete(m.open, tradeID)

	rec.Open = false
	rec.ExitPrice = exitPrice
	rec.ExitTime = m.at(t)
	rec.PnLUSD = pnlUSD
	m.settleLocked(rec)

	m.log.Info("trade closed", "id", rec.ID, "symbol", rec.Symbol, "pnl_usd", pnlUSD, "balance", m.balance)
	m.saveLocked(rec)
	m.publishLocked()
	return rec, true
}

func (m *Manager) settleLocked(rec TradeRecord) {
	m.closed = append(m.closed, rec)
	m.balance += rec.PnLUSD
	if m.balance > m.peak {
		m.peak = m.balance
	}
	d := m.dayLocked(rec.ExitTime)
	d.RealizedUSD += rec.PnLUSD
	d.TradesClosed++
}

func (m *Manager) saveLocked(rec TradeRecord) {
	if m.recorder == nil {
		return
	}
	if err := m.recorder.SaveRiskTrade(rec); err != nil {
		m.log.Warn("journal write failed", "id", rec.ID, "err", err)
	}
}

func (m *Manager) publishLocked() {
	m.metrics.SetExposure(len(m.open), m.openRiskLocked(), m.balance)
}

// UpdateUnrealized sets today's unrealized P&L across all open positions.
func (m *Manager) UpdateUnrealized(totalUSD float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dayLocked(m.at(time.Time{})).UnrealizedUSD = totalUSD
}

// AddNewsEvent registers a release to block trading around. Events older
// than a day are dropped.
func (m *Manager) AddNewsEvent(at time.Time, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.news = append(m.news, NewsEvent{Time: at.UTC(), Name: name})
	cutoff := m.now().Add(-24 * time.Hour)
	kept := m.news[:0]
	for _, ev := range m.news {
		if ev.Time.After(cutoff) {
			kept = append(kept, ev)
		}
	}
	m.news = kept
}

func (m *Manager) NewsEvents() []NewsEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]NewsEvent(nil), m.news...)
}

func (m *Manager) Balance() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balance
}

func (m *Manager) PeakBalance() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.peak
}

func (m *Manager) OpenRiskUSD() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.openRiskLocked()
}

// OpenTrades returns the open trades ordered by entry time.
func (m *Manager) OpenTrades() []TradeRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]TradeRecord, 0, len(m.open))
	for _, t := range m.open {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EntryTime.Equal(out[j].EntryTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].EntryTime.Before(out[j].EntryTime)
	})
	return out
}

// ClosedTrades returns the closed trades in the order they closed.
func (m *Manager) ClosedTrades() []TradeRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]TradeRecord(nil), m.closed...)
}

// Day returns the P&L record for the UTC day of t.
func (m *Manager) Day(t time.Time) DailyPnL {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.peekLocked(m.at(t))
}

func (m *Manager) PhaseProgress() PhaseProgress {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.progressLocked()
}

func (m *Manager) progressLocked() PhaseProgress {
	ph, ok := m.profile.Phase(m.phase)
	if !ok {
		return PhaseProgress{Phase: m.phase}
	}

	profit := m.balance - m.phaseStart
	profitPct := profit / m.phaseStart
	target := ph.ProfitTargetPct

	var progress float64
	if target > 0 {
		progress = profitPct / target * 100
	}

	minDay := m.phaseStart * ph.MinProfitPerDayPct
	days := 0
	for _, d := range m.daily {
		if d.Profitable(minDay) {
			days++
		}
	}

	return PhaseProgress{
		Phase:             m.phase,
		Name:              ph.Name,
		Known:             true,
		ProfitUSD:         profit,
		ProfitPct:         profitPct * 100,
		TargetUSD:         m.phaseStart * target,
		TargetPct:         target * 100,
		ProgressPct:       math.Min(progress, 100),
		ProfitableDays:    days,
		MinProfitableDays: ph.MinProfitableDays,
		DaysRemaining:     max(0, ph.MinProfitableDays-days),
		Complete:          profitPct >= target && days >= ph.MinProfitableDays,
	}
}

// Summary reports exposure against every limit as of now.
func (m *Manager) Summary() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.profile
	start := p.StartingBalance
	today := m.peekLocked(m.at(time.Time{}))
	openRisk := m.openRiskLocked()
	drawdown := start - m.balance

	return Summary{
		Profile:         p.DisplayName,
		StartingBalance: start,
		Balance:         m.balance,
		PeakBalance:     m.peak,
		OpenTrades:      len(m.open),
		MaxConcurrent:   p.MaxConcurrentTrades,
		OpenRiskUSD:     openRisk,
		OpenRiskPct:     openRisk / start * 100,
		MaxOpenRiskPct:  p.MaxOpenRiskPct * 100,
		DailyPnLUSD:     today.TotalUSD(),
		DailyPnLPct:     today.TotalUSD() / start * 100,
		MaxDailyLossPct: p.MaxDailyLossPct * 100,
		DrawdownUSD:     drawdown,
		DrawdownPct:     drawdown / start * 100,
		MaxTotalLossPct: p.MaxTotalLossPct * 100,
		ProjDailyPct:    math.Abs(today.RealizedUSD-openRisk) / start * 100,
		ProjTotalPct:    (drawdown + openRisk) / start * 100,
		Phase:           m.progressLocked(),
	}
}

// Reset returns the manager to the profile's starting state. It is meant
// for tests.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
}

func (m *Manager) resetLocked() {
	m.balance = m.profile.StartingBalance
	m.peak = m.profile.StartingBalance
	m.open = make(map[string]TradeRecord)
	m.closed = nil
	m.daily = make(map[string]*DailyPnL)
	m.phase = 1
	m.phaseStart = m.profile.StartingBalance
	m.news = nil
	m.publishLocked()
}

// Restore rebuilds state from previously recorded trades, replaying closes
// in exit order. It does not write to the recorder.
func (m *Manager) Restore(trades []TradeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resetLocked()

	sorted := append([]TradeRecord(nil), trades...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return settleTime(sorted[i]).Before(settleTime(sorted[j]))
	})

	for _, rec := range sorted {
		if err := rec.validate(); err != nil {
			return fmt.Errorf("restore: %w", err)
		}
		rec.EntryTime = rec.EntryTime.UTC()
		m.dayLocked(rec.EntryTime).TradesOpened++

		if rec.Open {
			if _, dup := m.open[rec.ID]; dup {
				return fmt.Errorf("restore: %w: %s", ErrDuplicateTrade, rec.ID)
			}
			m.open[rec.ID] = rec
			continue
		}
		rec.ExitTime = rec.ExitTime.UTC()
		m.settleLocked(rec)
	}

	m.publishLocked()
	return nil
}

func settleTime(t TradeRecord) time.Time {
	if t.Open || t.ExitTime.IsZero() {
		return t.EntryTime
	}
	return t.ExitTime
}
