package solar

import (
	"bufio"
	"context"
	"encoding/csv"
	"io"
	"os"

	"github.com/go-faster/errors"
	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
)

const (
	readBufferSize = 256 * 1024
	ctxCheckRows   = 1024
)

func loadCSVFile(ctx context.Context, path string, format Format, opts Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fileAccessError("open", path, err)
	}
	defer f.Close()

	var r io.Reader = bufio.NewReaderSize(f, readBufferSize)

	switch format {
	case FormatCSVGzip:
		gz, err := pgzip.NewReader(r)
		if err != nil {
			return nil, errors.Wrapf(ErrDataFormat, "%s: gzip header: %v", path, err)
		}
		defer gz.Close()
		r = gz
	case FormatCSVZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, errors.Wrapf(ErrDataFormat, "%s: zstd: %v", path, err)
		}
		defer zr.Close()
		r = zr
	}

	return ReadCSV(ctx, r, path, opts)
}

// ReadCSV builds a Table from comma-separated text whose first record is
// the header. Short records are treated as having missing trailing cells.
func ReadCSV(ctx context.Context, r io.Reader, source string, opts Options) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.Wrapf(ErrDataFormat, "%s: no header row", source)
	}
	if err != nil {
		return nil, csvError(source, err)
	}

	b, err := newTableBuilder(source, header, opts.columns())
	if err != nil {
		return nil, err
	}

	for n := 0; ; n++ {
		if n%ctxCheckRows == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, csvError(source, err)
		}
		if err := b.add(record); err != nil {
			return nil, err
		}
	}

	return b.build(), nil
}

// csvError separates malformed text from failures of the underlying reader.
func csvError(source string, err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return errors.Wrapf(ErrDataFormat, "%s: %v", source, perr)
	}
	return fileAccessError("read", source, err)
}
