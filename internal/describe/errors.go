package describe

import "errors"

var (
	// ErrUnknownColumn is returned when a requested column is not in the
	// schema of the first row.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrNonNumericColumn is returned when a numeric statistic is requested
	// on a column holding a non-numeric, non-absent value.
	ErrNonNumericColumn = errors.New("non-numeric column")

	// ErrEmptyColumn is returned when a column has no non-absent values.
	ErrEmptyColumn = errors.New("empty column")

	// ErrInvalidArgument is returned for a percentile outside [1,100].
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrEmptyDataset is returned when describing a dataset with no rows.
	ErrEmptyDataset = errors.New("empty dataset")
)
