package volume

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// RangeMode selects where a display range comes from.
type RangeMode string

const (
	// RangeGlobal uses the extrema of the whole volume. It is the default.
	RangeGlobal RangeMode = "global"
	// RangeSlice uses the extrema of the displayed cross-section only.
	RangeSlice RangeMode = "slice"
	// RangeExplicit uses a caller supplied range verbatim.
	RangeExplicit RangeMode = "explicit"
)

// ParseRangeMode converts a configuration string to a RangeMode. The empty
// string selects RangeGlobal.
func ParseRangeMode(s string) (RangeMode, error) {
	switch RangeMode(s) {
	case "", RangeGlobal:
		return RangeGlobal, nil
	case RangeSlice, RangeExplicit:
		return RangeMode(s), nil
	}
	return "", fmt.Errorf("%w: unknown range mode %q", ErrInvalidRange, s)
}

// Range is a colour normalisation interval.
type Range struct {
	Min, Max float64
}

// Validate checks Min <= Max and that neither bound is NaN.
func (r Range) Validate() error {
	if math.IsNaN(r.Min) || math.IsNaN(r.Max) {
		return fmt.Errorf("%w: NaN bound in [%g, %g]", ErrInvalidRange, r.Min, r.Max)
	}
	if r.Min > r.Max {
		return fmt.Errorf("%w: min %g > max %g", ErrInvalidRange, r.Min, r.Max)
	}
	return nil
}

// Degenerate reports a zero-width range.
func (r Range) Degenerate() bool { return r.Min == r.Max }

// Padded returns r widened by eps on both sides when it is degenerate, so
// that a colour map can always be normalised.
func (r Range) Padded(eps float64) Range {
	if !r.Degenerate() {
		return r
	}
	return Range{Min: r.Min - eps, Max: r.Max + eps}
}

// Union returns the smallest range covering both r and o.
func (r Range) Union(o Range) Range {
	return Range{Min: math.Min(r.Min, o.Min), Max: math.Max(r.Max, o.Max)}
}

func (r Range) String() string { return fmt.Sprintf("[%g, %g]", r.Min, r.Max) }

// MinMax returns the extrema of values, skipping NaN samples. A slice with no
// finite samples yields the zero Range.
func MinMax(values []float64) Range {
	if len(values) == 0 {
		return Range{}
	}
	if !floats.HasNaN(values) {
		return Range{Min: floats.Min(values), Max: floats.Max(values)}
	}

	r := Range{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		r.Min = math.Min(r.Min, v)
		r.Max = math.Max(r.Max, v)
	}
	if r.Min > r.Max {
		return Range{}
	}
	return r
}

// ComputeRange derives a display range. vol is used for RangeGlobal, slice
// for RangeSlice and override for RangeExplicit; the arguments a mode does not
// need may be nil. An empty mode selects RangeGlobal.
func ComputeRange(vol, slice Volume, mode RangeMode, override *Range) (Range, error) {
	switch mode {
	case "", RangeGlobal:
		if vol == nil {
			return Range{}, fmt.Errorf("%w: global mode needs a volume", ErrInvalidRange)
		}
		return MinMax(vol.Values()), nil

	case RangeSlice:
		if slice == nil {
			return Range{}, fmt.Errorf("%w: slice mode needs a slice", ErrInvalidRange)
		}
		return MinMax(slice.Values()), nil

	case RangeExplicit:
		if override == nil {
			return Range{}, fmt.Errorf("%w: explicit mode needs an override", ErrInvalidRange)
		}
		if err := override.Validate(); err != nil {
			return Range{}, err
		}
		return *override, nil
	}
	return Range{}, fmt.Errorf("%w: unknown range mode %q", ErrInvalidRange, mode)
}
