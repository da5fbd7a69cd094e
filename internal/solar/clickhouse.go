package solar

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/ClickHouse/ch-go"
	"github.com/ClickHouse/ch-go/proto"
	"github.com/go-faster/errors"
)

const defaultClickHousePort = "9000"

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ClickHouseSource locates a daily solar index table whose ssn column is
// averaged per calendar year.
type ClickHouseSource struct {
	Address  string
	Database string
	Table    string
	User     string
	Password string
}

// ParseClickHouseSource parses clickhouse://[user[:pass]@]host[:port]/db.table.
func ParseClickHouseSource(locator string) (ClickHouseSource, error) {
	var src ClickHouseSource

	u, err := url.Parse(locator)
	if err != nil || u.Scheme != "clickhouse" || u.Host == "" {
		return src, errors.Wrapf(ErrDataFormat, "invalid clickhouse locator %q", locator)
	}

	src.Address = u.Host
	if _, _, err := net.SplitHostPort(u.Host); err != nil {
		src.Address = net.JoinHostPort(u.Host, defaultClickHousePort)
	}

	db, table, ok := strings.Cut(strings.TrimPrefix(u.Path, "/"), ".")
	if !ok || !identifier.MatchString(db) || !identifier.MatchString(table) {
		return src, errors.Wrapf(ErrDataFormat, "clickhouse locator %q: expected /database.table", locator)
	}
	src.Database, src.Table = db, table

	if u.User != nil {
		src.User = u.User.Username()
		src.Password, _ = u.User.Password()
	}
	return src, nil
}

// String returns the locator without credentials.
func (s ClickHouseSource) String() string {
	return fmt.Sprintf("clickhouse://%s/%s.%s", s.Address, s.Database, s.Table)
}

// Query returns the yearly aggregation statement.
func (s ClickHouseSource) Query() string {
	return fmt.Sprintf(
		"SELECT toYear(date) AS year, avg(ssn) AS value FROM %s.%s GROUP BY year ORDER BY year",
		s.Database, s.Table,
	)
}

func loadClickHouse(ctx context.Context, locator string, opts Options) (*Table, error) {
	src, err := ParseClickHouseSource(locator)
	if err != nil {
		return nil, err
	}

	cols := opts.columns()
	if len(cols) != 1 {
		return nil, errors.Wrapf(ErrDataFormat, "%s: clickhouse sources carry a single value column", src)
	}

	conn, err := ch.Dial(ctx, ch.Options{
		Address:     src.Address,
		Database:    src.Database,
		User:        src.User,
		Password:    src.Password,
		Compression: ch.CompressionLZ4,
		Logger:      opts.logger().Named("clickhouse"),
	})
	if err != nil {
		return nil, fileAccessError("dial", src.String(), err)
	}
	defer conn.Close()

	b, err := newTableBuilder(src.String(), []string{YearColumn, cols[0]}, cols)
	if err != nil {
		return nil, err
	}

	var (
		years  proto.ColUInt16
		values proto.ColFloat64
	)
	err = conn.Do(ctx, ch.Query{
		Body: src.Query(),
		Result: proto.Results{
			{Name: "year", Data: &years},
			{Name: "value", Data: &values},
		},
		OnResult: func(ctx context.Context, block proto.Block) error {
			return addYearlyBlock(b, &years, &values)
		},
	})
	if err != nil {
		if errors.Is(err, ErrDataFormat) {
			return nil, err
		}
		return nil, fileAccessError("query", src.String(), err)
	}

	return b.build(), nil
}

// addYearlyBlock feeds one result block to b. A NaN average (a year with
// no ssn readings) becomes a missing cell.
func addYearlyBlock(b *tableBuilder, years *proto.ColUInt16, values *proto.ColFloat64) error {
	if years.Rows() != values.Rows() {
		return errors.Wrapf(ErrDataFormat, "%s: block has %d years and %d values",
			b.source, years.Rows(), values.Rows())
	}
	record := make([]string, 2)
	for i := 0; i < years.Rows(); i++ {
		record[0] = strconv.Itoa(int(years.Row(i)))
		record[1] = strconv.FormatFloat(values.Row(i), 'g', -1, 64)
		if err := b.add(record); err != nil {
			return err
		}
	}
	return nil
}
