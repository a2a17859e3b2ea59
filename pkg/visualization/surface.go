package visualization

import (
	"errors"

	"gonum.org/v1/gonum/mat"

	"volslicer/pkg/volume"
)

// ErrClosed is returned when a disposed slider, slicer or event loop is used.
var ErrClosed = errors.New("visualization: closed")

// Panel is one drawing area of a Surface. Calls only record state; nothing
// becomes visible until the owning Surface is flushed.
type Panel interface {
	// Image draws a 2D array using the named colour map normalised to r.
	Image(img mat.Matrix, colormap string, r volume.Range) error

	// Curve draws a line plot of ys against xs.
	Curve(xs, ys []float64, xLabel, yLabel string) error

	SetTitle(title string)

	// Colorbar attaches a colour bar for r taking fraction of the panel width.
	Colorbar(r volume.Range, fraction float64)

	// SetAspect fixes the displayed height/width ratio of the image box.
	// Zero keeps square pixels.
	SetAspect(aspect float64)

	SetVisible(visible bool)
}

// Surface is a figure that can be split into a grid of panels.
type Surface interface {
	// Layout discards previous panels and returns rows*cols fresh ones in
	// row-major order. New panels are visible and empty.
	Layout(rows, cols int) []Panel

	// Flush commits all recorded drawing.
	Flush() error
}
