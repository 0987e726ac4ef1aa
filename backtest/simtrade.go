package backtest

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rustyeddy/propfirm/market"
	"github.com/rustyeddy/propfirm/trade"
)

// State is the lifecycle state of a simulated trade.
type State int

const (
	Open State = iota
	FirstTargetReached
	Closed
)

func (s State) String() string {
	switch s {
	case Open:
		return "OPEN"
	case FirstTargetReached:
		return "FIRST_TARGET_REACHED"
	case Closed:
		return "CLOSED"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var ErrInvalidRisk = errors.New("invalid trade geometry: risk distance must be positive")

// Setup is the geometry of a trade at entry. TP2 and TP3 may be zero.
type Setup struct {
	Asset      string
	Direction  trade.Direction
	Entry      float64
	StopLoss   float64
	TP1        float64
	TP2        float64
	TP3        float64
	EntryTime  time.Time
	EntryIndex int
	Confluence int
}

// SimTrade is a simulated trade driven one bar at a time.
//
//	Open --TP1--> FirstTargetReached --TP2/TP3/BE stop--> Closed
//	Open --SL--> Closed
//	Open --TP1 and back through entry on the same bar--> Closed
type SimTrade struct {
	setup  Setup
	risk   float64
	stop   float64
	state  State
	closed trade.Closed
}

// NewSimTrade validates the setup. The stop must sit on the losing side of
// the entry; target placement is left to the supplier.
func NewSimTrade(s Setup) (*SimTrade, error) {
	if s.Direction != trade.Bullish && s.Direction != trade.Bearish {
		return nil, fmt.Errorf("unknown direction %q", s.Direction)
	}
	sign := s.Direction.Sign()
	risk := (s.Entry - s.StopLoss) * sign
	if math.IsNaN(risk) || risk <= 0 {
		return nil, fmt.Errorf("%w: entry %v stop %v", ErrInvalidRisk, s.Entry, s.StopLoss)
	}
	return &SimTrade{
		setup: s,
		risk:  risk,
		stop:  s.StopLoss,
		state: Open,
	}, nil
}

func (t *SimTrade) State() State        { return t.state }
func (t *SimTrade) Setup() Setup        { return t.setup }
func (t *SimTrade) Risk() float64       { return t.risk }
func (t *SimTrade) ActiveStop() float64 { return t.stop }

// Result is the closed record. It is only meaningful once State is Closed.
func (t *SimTrade) Result() trade.Closed { return t.closed }

// OnBar applies one bar's high and low. It returns the closed record and true
// when the bar closes the trade.
//
// The stop is checked before any target on every bar. Before the first
// target a stop hit is a full loss; afterwards the stop sits at break-even
// and exits at zero or better. After the first target TP3 is checked before
// TP2. A bar that reaches TP1 only moves the stop, unless it also trades back
// through the entry, which closes the trade at break-even.
func (t *SimTrade) OnBar(b market.Bar) (trade.Closed, bool) {
	switch t.state {
	case Open:
		if t.stopHit(b) {
			return t.close(b.Time, trade.ExitStopLoss, t.stop, -1.0), true
		}
		if t.reached(b, t.setup.TP1) {
			t.state = FirstTargetReached
			t.stop = t.setup.Entry
			if t.stopHit(b) {
				return t.close(b.Time, trade.ExitTP1Trail, t.stop, 0), true
			}
		}
	case FirstTargetReached:
		if t.stopHit(b) {
			return t.close(b.Time, trade.ExitTP1Trail, t.stop, math.Max(t.rMultiple(t.stop), 0)), true
		}
		if t.reached(b, t.setup.TP3) {
			return t.close(b.Time, trade.ExitTP3, t.setup.TP3, t.rMultiple(t.setup.TP3)), true
		}
		if t.reached(b, t.setup.TP2) {
			return t.close(b.Time, trade.ExitTP2, t.setup.TP2, t.rMultiple(t.setup.TP2)), true
		}
	}
	return trade.Closed{}, false
}

func (t *SimTrade) stopHit(b market.Bar) bool {
	if t.setup.Direction == trade.Bearish {
		return b.High >= t.stop
	}
	return b.Low <= t.stop
}

// reached reports whether b touched level. Absent levels are never reached.
func (t *SimTrade) reached(b market.Bar, level float64) bool {
	if level == 0 {
		return false
	}
	if t.setup.Direction == trade.Bearish {
		return b.Low <= level
	}
	return b.High >= level
}

func (t *SimTrade) rMultiple(price float64) float64 {
	return (price - t.setup.Entry) * t.setup.Direction.Sign() / t.risk
}

func (t *SimTrade) close(at time.Time, reason trade.ExitReason, price, r float64) trade.Closed {
	s := t.setup
	t.state = Closed
	t.closed = trade.Closed{
		Asset:      s.Asset,
		Direction:  s.Direction,
		EntryTime:  s.EntryTime,
		ExitTime:   at,
		Entry:      s.Entry,
		Exit:       price,
		StopLoss:   s.StopLoss,
		TP1:        s.TP1,
		TP2:        s.TP2,
		TP3:        s.TP3,
		Reason:     reason,
		R:          r,
		Confluence: s.Confluence,
	}
	return t.closed
}
