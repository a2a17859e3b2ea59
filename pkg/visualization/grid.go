package visualization

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"volslicer/pkg/volume"
)

// gridColumns is fixed regardless of the number of images.
const gridColumns = 2

// colorbarFraction is the colour bar width fraction for a square image.
const colorbarFraction = 0.0467

// GridOptions configures PlotGrid.
type GridOptions struct {
	// FixRange applies one colour range, spanning every image, to all panels.
	FixRange bool

	// StretchY displays every image in a 1:1 box whatever its shape.
	StretchY bool

	// Colormap names the colour map; empty selects DefaultColormap.
	Colormap string
}

// PanelSpec is the resolved drawing state of one grid panel.
type PanelSpec struct {
	Title    string
	Range    volume.Range
	Aspect   float64
	Fraction float64
}

// GridLayout returns the grid shape for n images: two columns and
// ceil((n+0.5)/2) rows.
func GridLayout(n int) (rows, cols int) {
	return int(math.Ceil((float64(n) + 0.5) / 2)), gridColumns
}

// PlanGrid validates the inputs and computes every panel's range, aspect
// and colour bar fraction without drawing.
func PlanGrid(images []mat.Matrix, titles []string, opts GridOptions) ([]PanelSpec, error) {
	if len(titles) != len(images) {
		return nil, fmt.Errorf("%w: %d images, %d titles", volume.ErrLengthMismatch, len(images), len(titles))
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("%w: no images to plot", volume.ErrBadShape)
	}
	if _, err := Colormap(opts.Colormap); err != nil {
		return nil, err
	}

	specs := make([]PanelSpec, len(images))
	var shared volume.Range
	for i, img := range images {
		rows, cols := img.Dims()
		if rows == 0 || cols == 0 {
			return nil, fmt.Errorf("%w: image %d is empty", volume.ErrBadShape, i)
		}

		r := matrixRange(img)
		if i == 0 {
			shared = r
		} else {
			shared = shared.Union(r)
		}

		ratio := float64(rows) / float64(cols)
		spec := PanelSpec{
			Title:    titles[i],
			Range:    r,
			Aspect:   ratio,
			Fraction: colorbarFraction * ratio,
		}
		if opts.StretchY {
			spec.Aspect = 1
			spec.Fraction = colorbarFraction
		}
		specs[i] = spec
	}

	if opts.FixRange {
		for i := range specs {
			specs[i].Range = shared
		}
	}
	return specs, nil
}

// PlotGrid lays images out on surface in a two-column grid with a title and
// colour bar per panel; surplus panels are hidden. Inputs are validated and
// every range computed before the first drawing call.
func PlotGrid(surface Surface, images []mat.Matrix, titles []string, opts GridOptions) error {
	specs, err := PlanGrid(images, titles, opts)
	if err != nil {
		return err
	}

	rows, cols := GridLayout(len(images))
	panels := surface.Layout(rows, cols)
	for i, p := range panels {
		if i >= len(specs) {
			p.SetVisible(false)
			continue
		}
		spec := specs[i]
		if err := p.Image(images[i], opts.Colormap, spec.Range); err != nil {
			return err
		}
		p.SetTitle(spec.Title)
		p.SetAspect(spec.Aspect)
		p.Colorbar(spec.Range, spec.Fraction)
	}
	return surface.Flush()
}

// VolumeImages extracts the same index along axis from each volume, for
// side-by-side comparison with PlotGrid.
func VolumeImages(axis volume.Axis, index int, vols ...volume.Volume) ([]mat.Matrix, error) {
	images := make([]mat.Matrix, len(vols))
	for i, v := range vols {
		slice, err := volume.Extract(v, axis, index)
		if err != nil {
			return nil, fmt.Errorf("volume %d: %w", i, err)
		}
		m, err := slice.Matrix()
		if err != nil {
			return nil, fmt.Errorf("volume %d: %w", i, err)
		}
		images[i] = m
	}
	return images, nil
}

func matrixRange(m mat.Matrix) volume.Range {
	if d, ok := m.(*mat.Dense); ok {
		raw := d.RawMatrix()
		if raw.Stride == raw.Cols {
			return volume.MinMax(raw.Data[:raw.Rows*raw.Cols])
		}
	}
	return volume.MinMax(volume.FromMatrix(m).Values())
}
