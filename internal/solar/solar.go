// Package solar provides the yearly sunspot observation table and the
// loaders that build it from CSV, Parquet and ClickHouse sources.
package solar

import (
	"math"
	"time"

	"github.com/go-faster/errors"
)

// Column names of the yearly sunspot dataset.
const (
	YearColumn    = "YEAR"
	DefaultColumn = "SUNACTIVITY"
)

// Year bounds accepted for the derived date index (four-digit calendar years).
const (
	MinYear = 1
	MaxYear = 9999
)

// MissingCount is the number of missing cells found in one source column.
type MissingCount struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
}

// Table is an ordered, read-only set of yearly observations indexed by the
// date derived from YEAR. Value columns hold NaN for missing cells until
// DropMissing is applied.
type Table struct {
	source  string
	years   []int
	dates   []time.Time
	names   []string
	values  map[string][]float64
	missing []MissingCount
}

// YearDate returns January 1 of year in UTC, the index value of a row.
func YearDate(year int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
}

// Source returns the locator the table was loaded from.
func (t *Table) Source() string { return t.source }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.years) }

// Columns returns the loaded value column names.
func (t *Table) Columns() []string {
	return append([]string(nil), t.names...)
}

// HasColumn reports whether name was loaded as a value column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.values[name]
	return ok
}

// Years returns a copy of the whole-year index.
func (t *Table) Years() []int {
	out := make([]int, len(t.years))
	copy(out, t.years)
	return out
}

// Dates returns a copy of the date index.
func (t *Table) Dates() []time.Time {
	out := make([]time.Time, len(t.dates))
	copy(out, t.dates)
	return out
}

// Values returns a copy of a value column, NaN marking missing cells.
func (t *Table) Values(column string) ([]float64, error) {
	v, ok := t.values[column]
	if !ok {
		return nil, errors.Wrapf(ErrDataFormat, "column %q not loaded", column)
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out, nil
}

// Missing returns per-column missing-cell counts measured on the raw
// source, in header order. Counts survive DropMissing.
func (t *Table) Missing() []MissingCount {
	return append([]MissingCount(nil), t.missing...)
}

// DropMissing returns a new table without the rows that have a missing
// value in any loaded column. Row order is preserved.
func (t *Table) DropMissing() *Table {
	return t.filter(func(i int) bool {
		for _, name := range t.names {
			if math.IsNaN(t.values[name][i]) {
				return false
			}
		}
		return true
	})
}

// Between returns the rows whose year lies in [from, to].
func (t *Table) Between(from, to int) *Table {
	return t.filter(func(i int) bool {
		return t.years[i] >= from && t.years[i] <= to
	})
}

func (t *Table) filter(keep func(i int) bool) *Table {
	out := &Table{
		source:  t.source,
		names:   t.names,
		values:  make(map[string][]float64, len(t.names)),
		missing: t.missing,
	}
	for i := range t.years {
		if !keep(i) {
			continue
		}
		out.years = append(out.years, t.years[i])
		out.dates = append(out.dates, t.dates[i])
		for _, name := range t.names {
			out.values[name] = append(out.values[name], t.values[name][i])
		}
	}
	for _, name := range t.names {
		if out.values[name] == nil {
			out.values[name] = []float64{}
		}
	}
	return out
}
