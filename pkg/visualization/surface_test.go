package visualization

import (
	"gonum.org/v1/gonum/mat"

	"volslicer/pkg/volume"
)

// recordingSurface captures everything drawn on it for inspection
type recordingSurface struct {
	rows, cols int
	panels     []*recordingPanel
	flushes    int
	flushErr   error
}

func (s *recordingSurface) Layout(rows, cols int) []Panel {
	s.rows, s.cols = rows, cols
	s.panels = make([]*recordingPanel, rows*cols)
	out := make([]Panel, rows*cols)
	for i := range s.panels {
		s.panels[i] = &recordingPanel{visible: true}
		out[i] = s.panels[i]
	}
	return out
}

func (s *recordingSurface) Flush() error {
	if s.flushErr != nil {
		return s.flushErr
	}
	s.flushes++
	return nil
}

type recordingPanel struct {
	visible bool
	title   string
	aspect  float64

	img      mat.Matrix
	colormap string
	clim     volume.Range

	xs, ys []float64

	colorbar   bool
	cbRange    volume.Range
	cbFraction float64
}

func (p *recordingPanel) Image(img mat.Matrix, colormap string, r volume.Range) error {
	if err := r.Validate(); err != nil {
		return err
	}
	p.img, p.colormap, p.clim = img, colormap, r
	return nil
}

func (p *recordingPanel) Curve(xs, ys []float64, xLabel, yLabel string) error {
	p.xs = append([]float64(nil), xs...)
	p.ys = append([]float64(nil), ys...)
	return nil
}

func (p *recordingPanel) SetTitle(title string) { p.title = title }

func (p *recordingPanel) Colorbar(r volume.Range, fraction float64) {
	p.colorbar = true
	p.cbRange = r
	p.cbFraction = fraction
}

func (p *recordingPanel) SetAspect(aspect float64) { p.aspect = aspect }
func (p *recordingPanel) SetVisible(visible bool)  { p.visible = visible }
