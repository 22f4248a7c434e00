// Package errs defines the sentinel errors shared across trako packages.
//
// All fallible binary decoding paths return one of these sentinels (possibly
// wrapped with file/offset context via fmt.Errorf and %w) so that callers can
// classify failures with errors.Is.
package errs

import "errors"

var (
	// ErrInvalidMagic is returned when a file's magic bytes do not match the
	// sentinel expected for its format.
	ErrInvalidMagic = errors.New("invalid magic bytes")

	// ErrInvalidHeaderSize is returned when a byte region is too small to
	// contain a complete fixed-size header.
	ErrInvalidHeaderSize = errors.New("invalid header size")

	// ErrInvalidMetaSize is returned when dataset-meta.bin is not exactly the
	// fixed record size.
	ErrInvalidMetaSize = errors.New("invalid dataset meta size")

	// ErrInvalidEntrySize is returned when a shard's entry stride disagrees
	// with the dataset metadata.
	ErrInvalidEntrySize = errors.New("invalid entry size")

	// ErrInvalidVersion is returned when a file declares an unsupported
	// format version.
	ErrInvalidVersion = errors.New("unsupported format version")

	// ErrInvalidEndianness is returned when the endianness flag holds a value
	// other than little or big.
	ErrInvalidEndianness = errors.New("invalid endianness flag")

	// ErrInvalidPrecision is returned when the precision flag declares a
	// sample type the reader does not support.
	ErrInvalidPrecision = errors.New("unsupported sample precision")

	// ErrInvalidTimeRange is returned when a requested or stored time range
	// has start after end.
	ErrInvalidTimeRange = errors.New("invalid time range")

	// ErrInvalidStride is returned when a sample stride is less than 1.
	ErrInvalidStride = errors.New("sample stride must be >= 1")

	// ErrEmptySelection is returned when trajectory selection produces no
	// trajectories to load.
	ErrEmptySelection = errors.New("empty trajectory selection")

	// ErrDataOutOfBounds is returned when an offset recorded in a header or
	// metadata record points outside the containing file.
	ErrDataOutOfBounds = errors.New("data offset out of bounds")

	// ErrLoadInFlight is returned when an async load is requested while a
	// previous one has not completed.
	ErrLoadInFlight = errors.New("async load already in flight")

	// ErrBudgetExceeded is returned when a load's estimated memory exceeds the
	// remaining capacity budget.
	ErrBudgetExceeded = errors.New("memory budget exceeded")

	// ErrLoadCancelled is returned when an in-flight load is cancelled before
	// completion. No partial result is delivered.
	ErrLoadCancelled = errors.New("load cancelled")
)
