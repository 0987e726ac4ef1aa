package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParsePeriod(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 10, 16, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		in    string
		start time.Time
		end   time.Time
	}{
		{"Jan 2024 - Sep 2024", date(2024, 1, 1), date(2024, 9, 30)},
		{"2024-01-01 - 2024-03-31", date(2024, 1, 1), date(2024, 3, 31)},
		{"15 Mar 2024 - now", date(2024, 3, 15), date(2024, 10, 16)},
		{"now", date(2024, 10, 16), date(2024, 10, 16)},
		{"2024-03-01", date(2024, 3, 1), date(2024, 10, 16)},
		{"Jan 2024-Feb 2024", date(2024, 1, 1), date(2024, 2, 29)},
		{"March 2024 to May 2024", date(2024, 3, 1), date(2024, 5, 31)},
		{"1 February 2024 - 2024/02/10", date(2024, 2, 1), date(2024, 2, 10)},
		{"Dec 2023 - Dec 2023", date(2023, 12, 1), date(2023, 12, 31)},
		{"Sep 2024 - Jan 2024", date(2024, 1, 31), date(2024, 9, 1)},
		{" - Sep 2024", time.Time{}, date(2024, 9, 30)},
		{"", time.Time{}, time.Time{}},
		{"garbage", time.Time{}, time.Time{}},
		{"Jan 2024 - whenever", date(2024, 1, 1), time.Time{}},
		{"foo - Sep 2024", time.Time{}, date(2024, 9, 30)},
		{"foo - bar", time.Time{}, time.Time{}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			p := ParsePeriod(tt.in, now)
			assert.Equal(t, tt.start, p.Start)
			assert.Equal(t, tt.end, p.End)
		})
	}
}

func TestIsYear(t *testing.T) {
	t.Parallel()

	y, ok := IsYear(" 2024 ")
	assert.True(t, ok)
	assert.Equal(t, 2024, y)

	for _, s := range []string{"24", "2024-01", "Jan 2024", "", "20245"} {
		_, ok := IsYear(s)
		assert.False(t, ok, s)
	}
}

func TestMonthPeriod(t *testing.T) {
	t.Parallel()

	p := MonthPeriod(2024, time.February)
	assert.Equal(t, date(2024, 2, 1), p.Start)
	assert.Equal(t, date(2024, 2, 29), p.End)

	p = MonthPeriod(2023, time.December)
	assert.Equal(t, date(2023, 12, 31), p.End)
}

func TestPeriodIndices(t *testing.T) {
	t.Parallel()

	daily := flatDaily(60) // 2024-01-01 .. 2024-02-29

	idx, label := Period{Start: date(2024, 1, 10), End: date(2024, 1, 12)}.Indices(daily)
	assert.Equal(t, []int{9, 10, 11}, idx)
	assert.Equal(t, "2024-01-10 - 2024-01-12", label)

	idx, label = Period{End: date(2024, 1, 2)}.Indices(daily)
	assert.Equal(t, []int{0, 1}, idx)
	assert.Equal(t, "2024-01-01 - 2024-01-02", label)

	idx, _ = MonthPeriod(2025, time.March).Indices(daily)
	assert.Nil(t, idx)

	idx, _ = Period{}.Indices(daily)
	assert.Nil(t, idx)

	idx, label = ParsePeriod("foo - Jan 2024", date(2024, 10, 16)).Indices(daily)
	assert.Equal(t, allIndices(31), idx)
	assert.Equal(t, "2024-01-01 - 2024-01-31", label)
}

func TestWindowFallsBackToTrailingBars(t *testing.T) {
	t.Parallel()

	daily := flatDaily(300)

	idx, label := Window(Period{}, daily)
	require.Len(t, idx, DefaultWindow)
	assert.Equal(t, 40, idx[0])
	assert.Equal(t, 299, idx[len(idx)-1])
	assert.Equal(t, "Last 260 Daily candles", label)

	idx, label = Window(MonthPeriod(2030, time.January), daily)
	assert.Len(t, idx, DefaultWindow)
	assert.Equal(t, "Last 260 Daily candles", label)

	idx, _ = Window(Period{}, flatDaily(10))
	assert.Equal(t, allIndices(10), idx)
}
