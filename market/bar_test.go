package market

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func series(n int) []Bar {
	bars := make([]Bar, n)
	for i := range bars {
		p := 1.1 + float64(i)*0.001
		bars[i] = Bar{Time: day(i + 1), Open: p, High: p + 0.002, Low: p - 0.002, Close: p + 0.001}
	}
	return bars
}

func TestUpTo(t *testing.T) {
	t.Parallel()

	bars := series(10)

	tests := []struct {
		name   string
		cutoff time.Time
		want   int
	}{
		{"before first", day(1).Add(-time.Second), 0},
		{"exactly first", day(1), 1},
		{"mid day", day(5).Add(12 * time.Hour), 5},
		{"exactly last", day(10), 10},
		{"after last", day(20), 10},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := UpTo(bars, tt.cutoff)
			assert.Len(t, got, tt.want)
			assert.Equal(t, tt.want, cap(got))
			for _, b := range got {
				assert.False(t, b.Time.After(tt.cutoff))
			}
		})
	}
}

func TestUpToAppendDoesNotLeak(t *testing.T) {
	t.Parallel()

	bars := series(5)
	prefix := UpTo(bars, day(2))
	_ = append(prefix, Bar{Time: day(30)})

	assert.Equal(t, day(3), bars[2].Time)
}

func TestCheckOrdered(t *testing.T) {
	t.Parallel()

	bars := series(3)
	require.NoError(t, CheckOrdered(bars))

	dup := append(series(2), series(2)[1])
	require.NoError(t, CheckOrdered(dup))

	bars[1], bars[2] = bars[2], bars[1]
	assert.ErrorIs(t, CheckOrdered(bars), ErrUnordered)
}

func TestBarValid(t *testing.T) {
	t.Parallel()

	assert.True(t, series(1)[0].Valid())
	assert.False(t, Bar{Time: day(1), Open: 1, High: 0.9, Low: 1.1, Close: 1}.Valid())
	assert.False(t, Bar{Open: 1, High: 1, Low: 1, Close: 1}.Valid())
}

func TestLast(t *testing.T) {
	t.Parallel()

	bars := series(5)
	assert.Len(t, Last(bars, 2), 2)
	assert.Equal(t, day(5), Last(bars, 2)[1].Time)
	assert.Len(t, Last(bars, 0), 5)
	assert.Len(t, Last(bars, 50), 5)
}

func TestParseTimeframe(t *testing.T) {
	t.Parallel()

	tf, err := ParseTimeframe("h4")
	require.NoError(t, err)
	assert.Equal(t, H4, tf)
	assert.Equal(t, 4*time.Hour, tf.Duration())

	_, err = ParseTimeframe("M15")
	assert.Error(t, err)
}

func TestMemorySource(t *testing.T) {
	t.Parallel()

	src := NewMemorySource()
	require.NoError(t, src.Set("EUR_USD", Daily, series(10)))

	bars, err := src.Bars(context.Background(), "EUR_USD", Daily, 3)
	require.NoError(t, err)
	require.Len(t, bars, 3)
	assert.Equal(t, day(8), bars[0].Time)

	bars[0].Close = 99
	again, err := src.Bars(context.Background(), "EUR_USD", Daily, 3)
	require.NoError(t, err)
	assert.NotEqual(t, 99.0, again[0].Close)

	_, err = src.Bars(context.Background(), "EUR_USD", Weekly, 3)
	assert.ErrorIs(t, err, ErrNoData)

	unordered := series(3)
	unordered[0], unordered[2] = unordered[2], unordered[0]
	assert.ErrorIs(t, src.Set("GBP_USD", Daily, unordered), ErrUnordered)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Bars(ctx, "EUR_USD", Daily, 3)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCSVRoundTrip(t *testing.T) {
	t.Parallel()

	src := NewCSVSource(filepath.Join(t.TempDir(), "data"))
	want := series(40)
	require.NoError(t, src.WriteFile("XAU_USD", Daily, want))

	got, err := src.Bars(context.Background(), "XAU_USD", Daily, 0)
	require.NoError(t, err)
	require.Len(t, got, 40)
	for i := range want {
		assert.True(t, want[i].Time.Equal(got[i].Time))
		assert.InDelta(t, want[i].Close, got[i].Close, 1e-12)
	}

	tail, err := src.Bars(context.Background(), "XAU_USD", Daily, 5)
	require.NoError(t, err)
	assert.Len(t, tail, 5)

	_, err = src.Bars(context.Background(), "XAU_USD", Weekly, 5)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestReadCSVFormats(t *testing.T) {
	t.Parallel()

	in := strings.Join([]string{
		"2024-01-01,1.1,1.2,1.0,1.15",
		"2024-01-02 00:00:00,1.15,1.25,1.1,1.2,300",
		"2024-01-03T00:00:00Z,1.2,1.3,1.1,1.25,10",
	}, "\n")

	bars, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, bars, 3)
	assert.Equal(t, day(2), bars[1].Time)
	assert.Equal(t, 300.0, bars[1].Volume)
	assert.Equal(t, 0.0, bars[0].Volume)
}

func TestReadCSVErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
	}{
		{"short row", "2024-01-01,1.1,1.2\n"},
		{"bad time", "yesterday,1,1,1,1\n"},
		{"bad price", "2024-01-01,x,1,1,1\n"},
		{"unordered", "2024-01-02,1,1,1,1\n2024-01-01,1,1,1,1\n"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ReadCSV(strings.NewReader(tt.in))
			assert.Error(t, err)
		})
	}
}

func TestWriteCSVHeader(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, series(1)))
	assert.True(t, strings.HasPrefix(buf.String(), "time,open,high,low,close,volume\n"))
}

func TestCSVSourceBadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := NewCSVSource(dir)
	require.NoError(t, os.WriteFile(src.Path("EUR_USD", H4), []byte("time,open\nnope,1,1,1,1\n"), 0644))

	_, err := src.Bars(context.Background(), "EUR_USD", H4, 0)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoData)
}

func TestInstruments(t *testing.T) {
	t.Parallel()

	assert.True(t, IsRemoved("XPT_USD"))
	assert.True(t, IsRemoved("xptusd"))
	assert.True(t, IsRemoved("NATGAS"))
	assert.False(t, IsRemoved("XAU_USD"))

	all := AllInstruments()
	assert.Len(t, all, 41)
	assert.Contains(t, all, "BTC_USD")
	assert.IsIncreasing(t, all)

	assert.Equal(t, []string{"EUR_USD"}, FilterRemoved([]string{"XAU_GBP", "EUR_USD"}))

	assert.Equal(t, 100.0, Spec("XAU_USD").ContractSize)
	assert.Equal(t, 0.01, Spec("CAD_JPY").PipValue)
	assert.Equal(t, 0.0001, Spec("EUR_NZD").PipValue)
}

func TestDateKey(t *testing.T) {
	t.Parallel()

	ny := time.FixedZone("EST", -5*60*60)
	assert.Equal(t, "2024-01-02", DateKey(time.Date(2024, 1, 1, 20, 0, 0, 0, ny)))
}
