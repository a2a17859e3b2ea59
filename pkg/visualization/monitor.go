package visualization

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"volslicer/pkg/volume"
)

// Monitor plots the progress of an iterative algorithm: the residual
// history on the left and the current estimate on the right.
type Monitor struct {
	surface  Surface
	colormap string

	iterations []float64
	residuals  []float64
}

// NewMonitor creates a monitor drawing on surface.
func NewMonitor(surface Surface, colormap string) (*Monitor, error) {
	if _, err := Colormap(colormap); err != nil {
		return nil, err
	}
	return &Monitor{surface: surface, colormap: colormap}, nil
}

// Record appends one iteration and redraws. current may be nil to skip
// the image panel.
func (m *Monitor) Record(iteration int, residual float64, current mat.Matrix) error {
	var r volume.Range
	if current != nil {
		r = matrixRange(current)
		if err := r.Validate(); err != nil {
			return err
		}
	}

	m.iterations = append(m.iterations, float64(iteration))
	m.residuals = append(m.residuals, residual)

	panels := m.surface.Layout(1, 2)
	if err := panels[0].Curve(m.iterations, m.residuals, "iteration", "residual"); err != nil {
		return err
	}
	panels[0].SetTitle("Residual")

	if current == nil {
		panels[1].SetVisible(false)
	} else {
		if err := panels[1].Image(current, m.colormap, r); err != nil {
			return err
		}
		panels[1].SetTitle(fmt.Sprintf("Iteration %d", iteration))
		panels[1].Colorbar(r, colorbarFraction)
	}
	return m.surface.Flush()
}

// History returns copies of the recorded iterations and residuals.
func (m *Monitor) History() (iterations, residuals []float64) {
	return append([]float64(nil), m.iterations...), append([]float64(nil), m.residuals...)
}
