package volume

import (
	"fmt"
	"strconv"
)

// Axis selects a dimension either by position or by semantic label.
type Axis struct {
	index   int
	label   string
	byLabel bool
}

// AxisIndex selects an axis by position.
func AxisIndex(i int) Axis { return Axis{index: i} }

// AxisLabel selects an axis by its label in the volume's label mapping.
func AxisLabel(name string) Axis { return Axis{label: name, byLabel: true} }

// ParseAxis treats s as an index when it is an integer and as a label otherwise.
func ParseAxis(s string) Axis {
	if i, err := strconv.Atoi(s); err == nil {
		return AxisIndex(i)
	}
	return AxisLabel(s)
}

func (a Axis) String() string {
	if a.byLabel {
		return strconv.Quote(a.label)
	}
	return strconv.Itoa(a.index)
}

// Resolve returns the integer axis of v selected by a.
func (a Axis) Resolve(v Volume) (int, error) {
	rank := len(v.Shape())
	if a.byLabel {
		idx, ok := v.Labels()[a.label]
		if !ok {
			return 0, fmt.Errorf("%w: unknown label %q", ErrInvalidAxis, a.label)
		}
		if idx < 0 || idx >= rank {
			return 0, fmt.Errorf("%w: label %q maps to %d for rank %d", ErrInvalidAxis, a.label, idx, rank)
		}
		return idx, nil
	}
	if a.index < 0 || a.index >= rank {
		return 0, fmt.Errorf("%w: %d for rank %d", ErrInvalidAxis, a.index, rank)
	}
	return a.index, nil
}

// Extract returns the cross-section of v obtained by fixing axis to index.
// The remaining axes keep their relative order, and labels of the remaining
// axes are carried over with renumbered indices.
func Extract(v Volume, axis Axis, index int) (*Dense, error) {
	ax, err := axis.Resolve(v)
	if err != nil {
		return nil, err
	}

	shape := v.Shape()
	if len(shape) < 2 {
		return nil, fmt.Errorf("%w: cannot slice rank %d", ErrBadShape, len(shape))
	}
	extent := shape[ax]
	if index < 0 || index >= extent {
		return nil, fmt.Errorf("%w: index %d on axis %d with extent %d", ErrIndexOutOfRange, index, ax, extent)
	}

	outer, inner := 1, 1
	for i := 0; i < ax; i++ {
		outer *= shape[i]
	}
	for i := ax + 1; i < len(shape); i++ {
		inner *= shape[i]
	}

	src := v.Values()
	data := make([]float64, outer*inner)
	for o := 0; o < outer; o++ {
		start := (o*extent + index) * inner
		copy(data[o*inner:(o+1)*inner], src[start:start+inner])
	}

	outShape := make([]int, 0, len(shape)-1)
	outShape = append(outShape, shape[:ax]...)
	outShape = append(outShape, shape[ax+1:]...)

	out := &Dense{shape: outShape, data: data}
	if labels := v.Labels(); len(labels) > 0 {
		out.labels = make(map[string]int, len(labels))
		for name, i := range labels {
			switch {
			case i < ax:
				out.labels[name] = i
			case i > ax:
				out.labels[name] = i - 1
			}
		}
	}
	return out, nil
}

// Middle returns the centre index of an extent, matching integer division.
func Middle(extent int) int { return extent / 2 }
