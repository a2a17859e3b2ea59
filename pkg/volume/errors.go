package volume

import "errors"

// Sentinel errors returned by the volume, metrics and visualization packages.
// Callers match them with errors.Is; context is added with %w wrapping.
var (
	// ErrInvalidAxis is returned when an axis index is outside [0, rank) or
	// an axis label is not present in the volume's label mapping.
	ErrInvalidAxis = errors.New("volume: invalid axis")

	// ErrIndexOutOfRange is returned when a slice index is outside [0, extent).
	ErrIndexOutOfRange = errors.New("volume: index out of range")

	// ErrInvalidRange is returned for a display range with Min > Max, a
	// missing explicit override, or NaN bounds.
	ErrInvalidRange = errors.New("volume: invalid display range")

	// ErrLengthMismatch is returned when two parallel sequences differ in length.
	ErrLengthMismatch = errors.New("volume: length mismatch")

	// ErrShapeMismatch is returned when two volumes must share a shape and do not.
	ErrShapeMismatch = errors.New("volume: shape mismatch")

	// ErrBadShape is returned when a shape is empty, has a non-positive
	// extent, or does not match the number of samples supplied.
	ErrBadShape = errors.New("volume: invalid shape")
)
