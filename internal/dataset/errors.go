package dataset

import "errors"

var (
	// ErrUnsupportedFormat is returned for file extensions that cannot be read.
	ErrUnsupportedFormat = errors.New("unsupported file type")
	// ErrEmpty is returned when a file has no header line.
	ErrEmpty = errors.New("file has no columns")
	// ErrUnknownColumn is returned when a column name is not in the table.
	ErrUnknownColumn = errors.New("unknown column")
)
