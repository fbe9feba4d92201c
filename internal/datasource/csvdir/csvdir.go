// Package csvdir reads daily bars from <dir>/<SYMBOL>.csv files with a
// Date,Open,High,Low,Close,Volume header.
package csvdir

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/newthinker/swingbot/internal/core"
)

var columns = []string{"date", "open", "high", "low", "close", "volume"}

var dateLayouts = []string{time.DateOnly, "2006-01-02 15:04:05", time.RFC3339}

// Dir implements datasource.Source over a directory of CSV files
type Dir struct {
	dir string
}

// New creates a CSV source rooted at dir
func New(dir string) *Dir {
	return &Dir{dir: dir}
}

func (d *Dir) Name() string {
	return "csv"
}

// Path returns the file read for symbol
func (d *Dir) Path(symbol string) string {
	return filepath.Join(d.dir, symbol+".csv")
}

// FetchHistory reads the file of symbol. Rows holding "null" values are
// skipped; ordering is left for Series.Validate to check.
func (d *Dir) FetchHistory(ctx context.Context, symbol string, start, end time.Time) (core.Series, error) {
	if err := ctx.Err(); err != nil {
		return core.Series{}, err
	}
	if symbol == "" || strings.ContainsAny(symbol, `/\`) {
		return core.Series{}, core.Errorf(core.ErrSymbolNotFound, "invalid symbol %q", symbol)
	}

	f, err := os.Open(d.Path(symbol))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return core.Series{}, core.Errorf(core.ErrSymbolNotFound, "%s: no file %s", symbol, d.Path(symbol))
		}
		return core.Series{}, core.WrapError(core.ErrSourceFailed, err)
	}
	defer f.Close()

	series, err := Parse(symbol, f)
	if err != nil {
		return core.Series{}, err
	}
	series = series.Between(start, end)
	if series.Len() == 0 {
		return core.Series{}, core.Errorf(core.ErrNoData, "%s: no bars in range", symbol)
	}
	return series, nil
}

// Parse decodes CSV bars for symbol from r
func Parse(symbol string, r io.Reader) (core.Series, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return core.Series{}, core.Errorf(core.ErrNoData, "%s: reading header: %v", symbol, err)
	}
	idx, err := columnIndex(header)
	if err != nil {
		return core.Series{}, core.Errorf(core.ErrInvalidData, "%s: %v", symbol, err)
	}

	series := core.Series{Symbol: symbol}
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return core.Series{}, core.Errorf(core.ErrInvalidData, "%s line %d: %v", symbol, line, err)
		}
		bar, ok, err := parseRow(rec, idx)
		if err != nil {
			return core.Series{}, core.Errorf(core.ErrInvalidData, "%s line %d: %v", symbol, line, err)
		}
		if ok {
			series.Bars = append(series.Bars, bar)
		}
	}
	return series, nil
}

func columnIndex(header []string) ([]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	idx := make([]int, len(columns))
	for i, c := range columns {
		p, ok := pos[c]
		if !ok {
			return nil, fmt.Errorf("missing column %q", c)
		}
		idx[i] = p
	}
	return idx, nil
}

func parseRow(rec []string, idx []int) (core.Bar, bool, error) {
	field := func(i int) string {
		if idx[i] >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[idx[i]])
	}

	t, err := parseDate(field(0))
	if err != nil {
		return core.Bar{}, false, err
	}

	var vals [5]float64
	for i := range vals {
		raw := field(i + 1)
		if raw == "" || strings.EqualFold(raw, "null") {
			return core.Bar{}, false, nil
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return core.Bar{}, false, fmt.Errorf("column %s: %w", columns[i+1], err)
		}
		vals[i] = d.InexactFloat64()
	}

	return core.Bar{
		Time:   t,
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, true, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}
