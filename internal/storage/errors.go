package storage

import "errors"

var (
	// ErrStorageUnavailable is returned when an operation is attempted
	// before the database has been opened.
	ErrStorageUnavailable = errors.New("storage not initialized")

	// ErrDuplicateStock is returned when a registry row already exists for
	// the name. Uniqueness is enforced by the database, not by a pre-check.
	ErrDuplicateStock = errors.New("stock already exists")

	// ErrDuplicateSeries is returned when a history series already exists
	// for the name.
	ErrDuplicateSeries = errors.New("price series already exists")

	// ErrUnknownSeries is returned when an operation targets a series that
	// was never created.
	ErrUnknownSeries = errors.New("unknown price series")

	// ErrValidationFailed is returned when rows read back from the database
	// do not match the expected shape. The whole read is rejected.
	ErrValidationFailed = errors.New("stored data failed validation")

	// ErrInvalidInput is returned when a caller-supplied value violates a
	// constraint, such as a negative volatility or an unsafe stock name.
	ErrInvalidInput = errors.New("invalid input")
)
