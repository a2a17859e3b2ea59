// Package volume provides the N-dimensional sample container used by the
// viewer, together with cross-section extraction and display-range helpers.
//
// Any container that satisfies the Volume interface can be displayed.
// External array types are adapted at the boundary (see FromMatrix).
package volume

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Volume is the capability every displayable container must expose.
type Volume interface {
	// Shape returns the extent of every axis. Callers must not modify it.
	Shape() []int

	// Labels maps semantic axis names (for example "vertical") to axis
	// indices. It may be nil when the volume carries no labels.
	Labels() map[string]int

	// Values returns all samples in row-major order (last axis fastest).
	// Callers must treat the result as read-only.
	Values() []float64
}

// Dense is a row-major N-dimensional array of float64 samples.
type Dense struct {
	shape  []int
	data   []float64
	labels map[string]int
}

// NewDense creates a volume with the given shape. When data is nil a zeroed
// buffer is allocated; otherwise data is used directly and must hold exactly
// the product of the extents.
func NewDense(shape []int, data []float64) (*Dense, error) {
	n, err := numel(shape)
	if err != nil {
		return nil, err
	}

	if data == nil {
		data = make([]float64, n)
	} else if len(data) != n {
		return nil, fmt.Errorf("%w: shape %v needs %d samples, got %d", ErrBadShape, shape, n, len(data))
	}

	return &Dense{
		shape: append([]int(nil), shape...),
		data:  data,
	}, nil
}

// FromMatrix copies a gonum matrix into a rank-2 volume with shape (rows, cols).
func FromMatrix(m mat.Matrix) *Dense {
	r, c := m.Dims()
	data := make([]float64, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			data[i*c+j] = m.At(i, j)
		}
	}
	return &Dense{shape: []int{r, c}, data: data}
}

// Clone returns a deep copy of any Volume as a Dense.
func Clone(v Volume) *Dense {
	d := &Dense{
		shape: append([]int(nil), v.Shape()...),
		data:  append([]float64(nil), v.Values()...),
	}
	if l := v.Labels(); l != nil {
		d.labels = make(map[string]int, len(l))
		for k, idx := range l {
			d.labels[k] = idx
		}
	}
	return d
}

func (d *Dense) Shape() []int           { return d.shape }
func (d *Dense) Labels() map[string]int { return d.labels }
func (d *Dense) Values() []float64      { return d.data }

// Rank returns the number of axes.
func (d *Dense) Rank() int { return len(d.shape) }

// SetLabels names the axes in order; names[i] labels axis i.
func (d *Dense) SetLabels(names ...string) error {
	if len(names) != len(d.shape) {
		return fmt.Errorf("%w: %d labels for rank %d", ErrLengthMismatch, len(names), len(d.shape))
	}

	labels := make(map[string]int, len(names))
	for i, name := range names {
		if _, dup := labels[name]; dup {
			return fmt.Errorf("%w: duplicate label %q", ErrInvalidAxis, name)
		}
		labels[name] = i
	}
	d.labels = labels
	return nil
}

// LabelOrder returns the labels sorted by axis index, or nil when unlabelled.
func (d *Dense) LabelOrder() []string {
	if d.labels == nil {
		return nil
	}
	names := make([]string, 0, len(d.labels))
	for name := range d.labels {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return d.labels[names[i]] < d.labels[names[j]] })
	return names
}

// At returns the sample at the given multi-index.
func (d *Dense) At(idx ...int) (float64, error) {
	off, err := d.offset(idx)
	if err != nil {
		return 0, err
	}
	return d.data[off], nil
}

// Set stores a sample at the given multi-index.
func (d *Dense) Set(v float64, idx ...int) error {
	off, err := d.offset(idx)
	if err != nil {
		return err
	}
	d.data[off] = v
	return nil
}

// Matrix returns a rank-2 volume as a gonum matrix sharing no memory with d.
func (d *Dense) Matrix() (*mat.Dense, error) {
	if len(d.shape) != 2 {
		return nil, fmt.Errorf("%w: matrix view needs rank 2, got shape %v", ErrBadShape, d.shape)
	}
	return mat.NewDense(d.shape[0], d.shape[1], append([]float64(nil), d.data...)), nil
}

func (d *Dense) String() string {
	dims := make([]string, len(d.shape))
	for i, n := range d.shape {
		dims[i] = fmt.Sprint(n)
	}
	return fmt.Sprintf("Dense(%s)", strings.Join(dims, "x"))
}

func (d *Dense) offset(idx []int) (int, error) {
	if len(idx) != len(d.shape) {
		return 0, fmt.Errorf("%w: %d indices for rank %d", ErrInvalidAxis, len(idx), len(d.shape))
	}
	off := 0
	for axis, i := range idx {
		if i < 0 || i >= d.shape[axis] {
			return 0, fmt.Errorf("%w: index %d on axis %d with extent %d", ErrIndexOutOfRange, i, axis, d.shape[axis])
		}
		off = off*d.shape[axis] + i
	}
	return off, nil
}

// SameShape reports whether two volumes have identical extents.
func SameShape(a, b Volume) bool {
	sa, sb := a.Shape(), b.Shape()
	if len(sa) != len(sb) {
		return false
	}
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}

func numel(shape []int) (int, error) {
	if len(shape) == 0 {
		return 0, fmt.Errorf("%w: empty shape", ErrBadShape)
	}
	n := 1
	for _, s := range shape {
		if s <= 0 {
			return 0, fmt.Errorf("%w: non-positive extent in %v", ErrBadShape, shape)
		}
		n *= s
	}
	return n, nil
}
