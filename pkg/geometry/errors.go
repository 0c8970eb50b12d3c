package geometry

import "errors"

// Sentinel errors for the engine. Specific failures wrap these with
// fmt.Errorf so callers can match with errors.Is while still seeing the
// offending kind or row in the message.
var (
	// ErrInvalidGeometry marks a malformed collection: a row pointer on a
	// point collection, a missing row pointer on a CSR collection, or a
	// row pointer that is non-monotonic or disagrees with the coordinate
	// count.
	ErrInvalidGeometry = errors.New("invalid geometry")

	// ErrUnsupportedKind marks an unknown geometry kind identifier.
	ErrUnsupportedKind = errors.New("unsupported geometry kind")

	// ErrDimensionMismatch marks coordinate rows with fewer than two
	// columns.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrInvalidDistance marks a negative or non-finite search radius.
	ErrInvalidDistance = errors.New("invalid distance")

	// ErrInternal marks an invariant violation inside the index.
	ErrInternal = errors.New("internal error")
)
