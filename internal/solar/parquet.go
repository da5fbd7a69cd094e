package solar

import (
	"context"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/parquet-go/parquet-go"
)

// ParquetRow is the Parquet layout of the yearly dataset. Both columns are
// optional doubles; a null cell counts as missing.
type ParquetRow struct {
	Year        *float64 `parquet:"YEAR,optional"`
	SunActivity *float64 `parquet:"SUNACTIVITY,optional"`
}

const parquetBatchSize = 1024

func loadParquet(ctx context.Context, path string, opts Options) (*Table, error) {
	cols := opts.columns()
	if len(cols) != 1 || cols[0] != DefaultColumn {
		return nil, errors.Wrapf(ErrDataFormat, "%s: parquet sources carry only %s", path, DefaultColumn)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fileAccessError("open", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fileAccessError("stat", path, err)
	}

	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, errors.Wrapf(ErrDataFormat, "%s: %v", path, err)
	}
	for _, c := range []string{YearColumn, DefaultColumn} {
		if _, ok := pf.Schema().Lookup(c); !ok {
			return nil, errors.Wrapf(ErrDataFormat, "%s: column %q not found", path, c)
		}
	}

	b, err := newTableBuilder(path, []string{YearColumn, DefaultColumn}, cols)
	if err != nil {
		return nil, err
	}

	reader := parquet.NewGenericReader[ParquetRow](pf)
	defer reader.Close()

	rows := make([]ParquetRow, parquetBatchSize)
	record := make([]string, 2)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, readErr := reader.Read(rows)
		for i := 0; i < n; i++ {
			record[0] = formatCell(rows[i].Year)
			record[1] = formatCell(rows[i].SunActivity)
			if err := b.add(record); err != nil {
				return nil, err
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, errors.Wrapf(ErrDataFormat, "%s: %v", path, readErr)
		}
		if n == 0 {
			break
		}
	}

	return b.build(), nil
}

func formatCell(v *float64) string {
	if v == nil || math.IsNaN(*v) {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}
