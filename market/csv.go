package market

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var csvHeader = []string{"time", "open", "high", "low", "close", "volume"}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// CSVSource reads bars from <Dir>/<INSTRUMENT>_<TF>.csv files with a
// time,open,high,low,close[,volume] layout.
type CSVSource struct {
	Dir string
}

func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{Dir: dir}
}

// Path is the file holding instrument's bars at tf.
func (s *CSVSource) Path(instrument string, tf Timeframe) string {
	return filepath.Join(s.Dir, fmt.Sprintf("%s_%s.csv", instrument, tf))
}

func (s *CSVSource) Bars(ctx context.Context, instrument string, tf Timeframe, count int) ([]Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.Path(instrument, tf))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s %s: %w", instrument, tf, ErrNoData)
		}
		return nil, err
	}
	defer f.Close()

	bars, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path(instrument, tf), err)
	}
	return Last(bars, count), nil
}

// ReadCSV parses bars and checks they are in time order. A header row is
// detected by "time" in the first column.
func ReadCSV(r io.Reader) ([]Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var bars []Bar
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "time") {
			continue
		}
		if len(rec) < 5 {
			return nil, fmt.Errorf("line %d: expected at least 5 fields, got %d", line, len(rec))
		}

		b, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bars = append(bars, b)
	}

	if err := CheckOrdered(bars); err != nil {
		return nil, err
	}
	return bars, nil
}

func parseRecord(rec []string) (Bar, error) {
	t, err := parseTime(rec[0])
	if err != nil {
		return Bar{}, err
	}

	var v [5]float64
	for i := 1; i < len(rec) && i <= 5; i++ {
		v[i-1], err = strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
		if err != nil {
			return Bar{}, fmt.Errorf("bad number %q: %w", rec[i], err)
		}
	}
	return Bar{Time: t, Open: v[0], High: v[1], Low: v[2], Close: v[3], Volume: v[4]}, nil
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

// WriteCSV writes bars in the layout ReadCSV accepts.
func WriteCSV(w io.Writer, bars []Bar) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, b := range bars {
		err := cw.Write([]string{
			b.Time.UTC().Format(time.RFC3339),
			f(b.Open),
			f(b.High),
			f(b.Low),
			f(b.Close),
			strconv.FormatFloat(b.Volume, 'f', -1, 64),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes bars to s.Path(instrument, tf), creating Dir if needed.
func (s *CSVSource) WriteFile(instrument string, tf Timeframe, bars []Bar) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	out, err := os.Create(s.Path(instrument, tf))
	if err != nil {
		return err
	}
	if err := WriteCSV(out, bars); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
