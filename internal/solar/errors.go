package solar

import (
	"github.com/go-faster/errors"
)

// Error classes returned by the loaders and consumers of a Table.
var (
	// ErrFileAccess marks a source that does not exist or cannot be read.
	ErrFileAccess = errors.New("file access failed")

	// ErrDataFormat marks a missing required column, an unparseable or
	// out-of-range YEAR, a non-numeric value or an unsupported format.
	ErrDataFormat = errors.New("invalid data format")

	// ErrEmptyData marks a computation that has no usable rows.
	ErrEmptyData = errors.New("no usable data")
)

// accessError keeps both ErrFileAccess and the underlying OS error in the chain.
type accessError struct {
	op   string
	path string
	err  error
}

func (e *accessError) Error() string {
	return e.op + " " + e.path + ": " + e.err.Error()
}

func (e *accessError) Unwrap() []error {
	return []error{ErrFileAccess, e.err}
}

func fileAccessError(op, path string, err error) error {
	return &accessError{op: op, path: path, err: err}
}
