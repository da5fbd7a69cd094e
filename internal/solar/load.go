package solar

import (
	"context"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

// Format identifies how a source locator is read.
type Format string

const (
	FormatUnknown    Format = "unknown"
	FormatCSV        Format = "csv"
	FormatCSVGzip    Format = "csv.gz"
	FormatCSVZstd    Format = "csv.zst"
	FormatParquet    Format = "parquet"
	FormatClickHouse Format = "clickhouse"
)

// Options controls how a source is turned into a Table.
type Options struct {
	// Columns are the value columns to load. Empty means DefaultColumn.
	Columns []string

	// Logger receives load diagnostics. Nil disables them.
	Logger *zap.Logger
}

func (o Options) columns() []string {
	if len(o.Columns) == 0 {
		return []string{DefaultColumn}
	}
	return o.Columns
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// DetectFormat determines the source format from the locator.
func DetectFormat(source string) Format {
	if strings.HasPrefix(strings.ToLower(source), "clickhouse://") {
		return FormatClickHouse
	}

	base := strings.ToLower(filepath.Base(source))
	switch {
	case strings.HasSuffix(base, ".csv.gz"):
		return FormatCSVGzip
	case strings.HasSuffix(base, ".csv.zst"):
		return FormatCSVZstd
	case strings.HasSuffix(base, ".parquet"):
		return FormatParquet
	case strings.HasSuffix(base, ".csv"):
		return FormatCSV
	}
	return FormatUnknown
}

// Load reads every row of source into a Table. Rows with a missing value
// are kept (as NaN) so that missing-value diagnostics see the raw input;
// use Prepare or DropMissing for the analysis table.
func Load(ctx context.Context, source string, opts Options) (*Table, error) {
	var (
		t   *Table
		err error
	)

	format := DetectFormat(source)
	switch format {
	case FormatCSV, FormatCSVGzip, FormatCSVZstd:
		t, err = loadCSVFile(ctx, source, format, opts)
	case FormatParquet:
		t, err = loadParquet(ctx, source, opts)
	case FormatClickHouse:
		t, err = loadClickHouse(ctx, source, opts)
	default:
		return nil, errors.Wrapf(ErrDataFormat, "unsupported source %q", source)
	}
	if err != nil {
		return nil, err
	}

	opts.logger().Debug("Table loaded",
		zap.String("source", source),
		zap.String("format", string(format)),
		zap.Int("rows", t.Len()),
		zap.Any("missing", t.Missing()),
	)
	return t, nil
}

// Prepare loads source and drops every row with a missing value. Both the
// batch report and the dashboard go through this contract.
func Prepare(ctx context.Context, source string, opts Options) (*Table, error) {
	t, err := Load(ctx, source, opts)
	if err != nil {
		return nil, err
	}
	return t.DropMissing(), nil
}

// =============================================================================
// Table Builder
// =============================================================================

// tableBuilder turns string records with a header into a Table. Every
// source format funnels through it so that parsing rules are identical.
type tableBuilder struct {
	source   string
	header   []string
	yearIdx  int
	valueIdx []int
	missing  []int
	row      int
	t        *Table
}

func newTableBuilder(source string, header []string, columns []string) (*tableBuilder, error) {
	b := &tableBuilder{
		source:  source,
		header:  make([]string, len(header)),
		missing: make([]int, len(header)),
		t: &Table{
			source: source,
			names:  append([]string(nil), columns...),
			values: make(map[string][]float64, len(columns)),
		},
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		h = strings.TrimSpace(strings.Trim(h, "\""))
		b.header[i] = h
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}

	yi, ok := index[YearColumn]
	if !ok {
		return nil, errors.Wrapf(ErrDataFormat, "%s: column %q not found", source, YearColumn)
	}
	b.yearIdx = yi

	for _, c := range columns {
		i, ok := index[c]
		if !ok {
			return nil, errors.Wrapf(ErrDataFormat, "%s: column %q not found", source, c)
		}
		if i == yi {
			return nil, errors.Wrapf(ErrDataFormat, "%s: %q is the index column", source, c)
		}
		b.valueIdx = append(b.valueIdx, i)
		b.t.values[c] = []float64{}
	}

	return b, nil
}

func (b *tableBuilder) add(record []string) error {
	b.row++

	for i := range b.header {
		if isMissing(cellAt(record, i)) {
			b.missing[i]++
		}
	}

	// A row without a year cannot be indexed.
	yearCell := cellAt(record, b.yearIdx)
	if isMissing(yearCell) {
		return nil
	}
	year, err := ParseYear(yearCell)
	if err != nil {
		return errors.Wrapf(err, "%s: row %d", b.source, b.row)
	}

	values := make([]float64, len(b.valueIdx))
	for j, idx := range b.valueIdx {
		cell := cellAt(record, idx)
		if isMissing(cell) {
			values[j] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
		if err != nil || math.IsInf(v, 0) {
			return errors.Wrapf(ErrDataFormat, "%s: row %d: column %q: %q is not a finite number",
				b.source, b.row, b.t.names[j], cell)
		}
		values[j] = v
	}

	b.t.years = append(b.t.years, year)
	b.t.dates = append(b.t.dates, YearDate(year))
	for j, name := range b.t.names {
		b.t.values[name] = append(b.t.values[name], values[j])
	}
	return nil
}

func (b *tableBuilder) build() *Table {
	b.t.missing = make([]MissingCount, len(b.header))
	for i, h := range b.header {
		b.t.missing[i] = MissingCount{Column: h, Count: b.missing[i]}
	}
	return b.t
}

// ParseYear converts a YEAR cell such as "1749" or "1749.0" into a whole
// calendar year, truncating toward zero.
func ParseYear(cell string) (int, error) {
	s := strings.TrimSpace(cell)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrDataFormat, "%s %q is not numeric", YearColumn, s)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.Wrapf(ErrDataFormat, "%s %q is not finite", YearColumn, s)
	}
	f = math.Trunc(f)
	if f < MinYear || f > MaxYear {
		return 0, errors.Wrapf(ErrDataFormat, "%s %q outside %d..%d", YearColumn, s, MinYear, MaxYear)
	}
	return int(f), nil
}

func cellAt(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}

func isMissing(cell string) bool {
	switch strings.ToLower(strings.TrimSpace(strings.Trim(cell, "\""))) {
	case "", "na", "nan", "null", "none":
		return true
	}
	return false
}
