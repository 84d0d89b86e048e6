// Package csvfile serves bars from per-symbol CSV files, mainly for backtests.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/trendbot/internal/collector"
	"github.com/newthinker/trendbot/internal/core"
)

var columns = []string{"time", "open", "high", "low", "close", "volume"}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Collector reads <dir>/<SYMBOL>.csv with header time,open,high,low,close,volume.
// The whole file is returned regardless of period and interval.
type Collector struct {
	dir string
}

func New(dir string) *Collector {
	return &Collector{dir: dir}
}

func (c *Collector) Name() string {
	return "csv"
}

func (c *Collector) Fetch(ctx context.Context, symbol, period, interval string) ([]core.Bar, error) {
	if symbol == "" || strings.ContainsAny(symbol, `/\`) {
		return nil, core.Rejectf(core.ErrCollectorFailed, "invalid symbol %q", symbol)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(c.dir, symbol+".csv")
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, core.Rejectf(core.ErrNoData, "no csv file for %s", symbol)
	}
	if err != nil {
		return nil, core.WrapError(core.ErrCollectorFailed, err)
	}
	defer f.Close()

	bars, err := Read(f)
	if err != nil {
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("%s: %w", path, err))
	}
	if len(bars) == 0 {
		return nil, core.Rejectf(core.ErrNoData, "%s has no rows", path)
	}
	return bars, nil
}

// Read parses bars from CSV. Columns are located by header name, so extra
// columns (e.g. "adj close") are ignored.
func Read(r io.Reader) ([]core.Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	// "date" is accepted as an alias for daily exports
	if _, ok := idx["time"]; !ok {
		if i, ok := idx["date"]; ok {
			idx["time"] = i
		}
	}
	for _, col := range columns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	var bars []core.Bar
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, err
		}
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}

		bar, err := parseRow(row, idx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bars = append(bars, bar)
	}
	return collector.Normalize(bars), nil
}

func parseRow(row []string, idx map[string]int) (core.Bar, error) {
	field := func(col string) (string, error) {
		i := idx[col]
		if i >= len(row) {
			return "", fmt.Errorf("missing %s", col)
		}
		return strings.TrimSpace(row[i]), nil
	}

	raw, err := field("time")
	if err != nil {
		return core.Bar{}, err
	}
	ts, err := parseTime(raw)
	if err != nil {
		return core.Bar{}, err
	}

	vals := make(map[string]float64, 5)
	for _, col := range columns[1:] {
		s, err := field(col)
		if err != nil {
			return core.Bar{}, err
		}
		if s == "" && col == "volume" {
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return core.Bar{}, fmt.Errorf("%s: %w", col, err)
		}
		// ParseFloat accepts "NaN" and "Inf"
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return core.Bar{}, fmt.Errorf("%s: non-finite value %q", col, s)
		}
		vals[col] = v
	}

	return core.Bar{
		Time:   ts,
		Open:   vals["open"],
		High:   vals["high"],
		Low:    vals["low"],
		Close:  vals["close"],
		Volume: vals["volume"],
	}, nil
}

// parseTime accepts RFC3339, common datetime layouts, or unix seconds
func parseTime(s string) (time.Time, error) {
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}
