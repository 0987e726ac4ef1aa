package market

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// BarSource supplies ordered, UTC normalized bars. count limits the result to
// the most recent bars; count <= 0 returns everything available.
type BarSource interface {
	Bars(ctx context.Context, instrument string, tf Timeframe, count int) ([]Bar, error)
}

var ErrNoData = errors.New("no bar data")

type seriesKey struct {
	instrument string
	tf         Timeframe
}

// MemorySource serves bars held in memory. It is safe for concurrent use.
type MemorySource struct {
	mu     sync.RWMutex
	series map[seriesKey][]Bar
}

func NewMemorySource() *MemorySource {
	return &MemorySource{series: make(map[seriesKey][]Bar)}
}

// Set stores a copy of bars for instrument and tf.
func (m *MemorySource) Set(instrument string, tf Timeframe, bars []Bar) error {
	if err := CheckOrdered(bars); err != nil {
		return fmt.Errorf("%s %s: %w", instrument, tf, err)
	}
	cp := make([]Bar, len(bars))
	copy(cp, bars)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.series[seriesKey{instrument, tf}] = cp
	return nil
}

func (m *MemorySource) Bars(ctx context.Context, instrument string, tf Timeframe, count int) ([]Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	bars, ok := m.series[seriesKey{instrument, tf}]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", instrument, tf, ErrNoData)
	}
	bars = Last(bars, count)
	out := make([]Bar, len(bars))
	copy(out, bars)
	return out, nil
}
