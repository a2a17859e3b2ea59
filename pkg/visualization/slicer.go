package visualization

import (
	"fmt"
	"strings"

	"volslicer/pkg/volume"
)

// Initial slider position policies used when SlicerParams.InitialIndex is nil.
const (
	IndexMiddle = "middle"
	IndexZero   = "zero"
)

// slicerColorbarFraction matches a 1:0.05 image to colour bar width ratio.
const slicerColorbarFraction = 0.05

// SlicerParams configures an interactive slicer.
type SlicerParams struct {
	// Axis is the dimension the slider moves along.
	Axis volume.Axis

	// Title prefixes the slice index in the panel title.
	Title string

	// Colormap names the colour map; empty selects DefaultColormap.
	Colormap string

	// RangeMode selects the colour range source; empty selects global.
	RangeMode volume.RangeMode

	// Range is required with volume.RangeExplicit and ignored otherwise.
	Range *volume.Range

	// InitialIndex positions the slider; nil applies DefaultIndex.
	InitialIndex *int

	// DefaultIndex is IndexMiddle (the default when empty) or IndexZero.
	DefaultIndex string
}

// Slicer binds a slider to a rendered cross-section of a rank-3 volume.
// Each slider change extracts the slice, normalises its colour range and
// redraws the slicer's own surface before Set returns.
type Slicer struct {
	renderer *sliceRenderer
	surface  Surface
	panel    Panel
	slider   *Slider

	stop func()
}

// NewSlicer validates params against v, draws the initial slice on surface
// and returns the slicer. Nothing is drawn when validation fails.
func NewSlicer(v volume.Volume, surface Surface, params SlicerParams) (*Slicer, error) {
	renderer, err := newSliceRenderer(v, params)
	if err != nil {
		return nil, err
	}

	extent := v.Shape()[renderer.axis]
	index, err := initialIndex(params, extent)
	if err != nil {
		return nil, err
	}

	slider, err := NewSlider(0, extent-1, index)
	if err != nil {
		return nil, err
	}

	s := &Slicer{
		renderer: renderer,
		surface:  surface,
		slider:   slider,
	}
	s.panel = surface.Layout(1, 1)[0]
	if err := s.render(index); err != nil {
		return nil, err
	}
	s.stop = s.slider.Observe(s.render)
	return s, nil
}

func initialIndex(params SlicerParams, extent int) (int, error) {
	if params.InitialIndex != nil {
		i := *params.InitialIndex
		if i < 0 || i >= extent {
			return 0, fmt.Errorf("%w: initial index %d with extent %d", volume.ErrIndexOutOfRange, i, extent)
		}
		return i, nil
	}

	switch params.DefaultIndex {
	case "", IndexMiddle:
		return volume.Middle(extent), nil
	case IndexZero:
		return 0, nil
	}
	return 0, fmt.Errorf("unknown default index policy %q", params.DefaultIndex)
}

func (s *Slicer) render(index int) error {
	return s.renderer.draw(s.surface, s.panel, index)
}

// Slider returns the control driving this slicer, for linking.
func (s *Slicer) Slider() *Slider { return s.slider }

// Index returns the displayed slice index.
func (s *Slicer) Index() int { return s.slider.Value() }

// Axis returns the resolved slicing axis.
func (s *Slicer) Axis() int { return s.renderer.axis }

// Range returns the colour range of the displayed slice.
func (s *Slicer) Range() (volume.Range, error) {
	slice, err := volume.Extract(s.renderer.vol, volume.AxisIndex(s.renderer.axis), s.Index())
	if err != nil {
		return volume.Range{}, err
	}
	return s.renderer.rangeOf(slice)
}

// Close detaches the slicer from its slider and disposes the slider. The
// surface keeps its last image.
func (s *Slicer) Close() {
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
	s.slider.Close()
}

// sliceRenderer draws one cross-section with title and colour bar.
type sliceRenderer struct {
	vol      volume.Volume
	axis     int
	title    string
	colormap string

	// fixed is the creation-time range for global and explicit modes
	fixed   volume.Range
	perView bool
}

func newSliceRenderer(v volume.Volume, params SlicerParams) (*sliceRenderer, error) {
	if rank := len(v.Shape()); rank != 3 {
		return nil, fmt.Errorf("%w: slicer needs a rank 3 volume, got rank %d", volume.ErrBadShape, rank)
	}

	axis, err := params.Axis.Resolve(v)
	if err != nil {
		return nil, err
	}
	if _, err := Colormap(params.Colormap); err != nil {
		return nil, err
	}

	r := &sliceRenderer{
		vol:      v,
		axis:     axis,
		title:    params.Title,
		colormap: params.Colormap,
	}
	if params.RangeMode == volume.RangeSlice {
		r.perView = true
		return r, nil
	}

	r.fixed, err = volume.ComputeRange(v, nil, params.RangeMode, params.Range)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *sliceRenderer) rangeOf(slice volume.Volume) (volume.Range, error) {
	if !r.perView {
		return r.fixed, nil
	}
	return volume.ComputeRange(nil, slice, volume.RangeSlice, nil)
}

func (r *sliceRenderer) draw(surface Surface, panel Panel, index int) error {
	slice, err := volume.Extract(r.vol, volume.AxisIndex(r.axis), index)
	if err != nil {
		return err
	}
	rng, err := r.rangeOf(slice)
	if err != nil {
		return err
	}
	m, err := slice.Matrix()
	if err != nil {
		return err
	}

	if err := panel.Image(m, r.colormap, rng); err != nil {
		return err
	}
	panel.SetTitle(strings.TrimSpace(fmt.Sprintf("%s %d", r.title, index)))
	panel.Colorbar(rng, slicerColorbarFraction)
	return surface.Flush()
}
