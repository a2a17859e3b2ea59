package visualization

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	// Liberation fonts register automatically on import
	_ "gonum.org/v1/plot/font/liberation"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"volslicer/pkg/volume"
)

// rangePad widens zero-width colour ranges before normalisation.
const rangePad = 1e-6

// PlotSurface renders panels with gonum/plot into an in-memory image.
type PlotSurface struct {
	width, height vg.Length
	dpi           int

	rows, cols int
	panels     []*plotPanel

	canvas  *vgimg.Canvas
	img     image.Image
	onFlush func(image.Image)
}

// NewPlotSurface creates a surface of wPx by hPx pixels at the given DPI.
func NewPlotSurface(wPx, hPx, dpi int) *PlotSurface {
	if dpi <= 0 {
		dpi = 96
	}
	return &PlotSurface{
		width:  vg.Length(wPx) * vg.Inch / vg.Length(dpi),
		height: vg.Length(hPx) * vg.Inch / vg.Length(dpi),
		dpi:    dpi,
	}
}

// OnFlush registers a function receiving every committed image.
func (s *PlotSurface) OnFlush(fn func(image.Image)) { s.onFlush = fn }

func (s *PlotSurface) Layout(rows, cols int) []Panel {
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}
	s.rows, s.cols = rows, cols
	s.panels = make([]*plotPanel, rows*cols)
	out := make([]Panel, rows*cols)
	for i := range s.panels {
		s.panels[i] = &plotPanel{visible: true}
		out[i] = s.panels[i]
	}
	return out
}

// Image returns the last flushed image, or nil before the first flush.
func (s *PlotSurface) Image() image.Image { return s.img }

func (s *PlotSurface) Flush() error {
	c := vgimg.NewWith(vgimg.UseWH(s.width, s.height), vgimg.UseDPI(s.dpi))
	dc := draw.New(c)

	if len(s.panels) > 0 {
		tiles := draw.Tiles{
			Rows: s.rows,
			Cols: s.cols,
			PadX: vg.Millimeter * 2,
			PadY: vg.Millimeter * 2,
		}
		for i, p := range s.panels {
			if !p.visible {
				continue
			}
			if err := p.draw(tiles.At(dc, i%s.cols, i/s.cols)); err != nil {
				return fmt.Errorf("panel %d: %w", i, err)
			}
		}
	}

	s.canvas = c
	s.img = c.Image()
	if s.onFlush != nil {
		s.onFlush(s.img)
	}
	return nil
}

// WriteTo encodes the last flushed image as PNG or JPEG.
func (s *PlotSurface) WriteTo(w io.Writer, format string) error {
	if s.canvas == nil {
		return fmt.Errorf("surface has not been flushed")
	}
	c := s.canvas

	var err error
	switch strings.ToLower(format) {
	case "", "png":
		_, err = vgimg.PngCanvas{Canvas: c}.WriteTo(w)
	case "jpg", "jpeg":
		_, err = vgimg.JpegCanvas{Canvas: c}.WriteTo(w)
	default:
		return fmt.Errorf("unknown image format %q", format)
	}
	return err
}

// Save writes the last flushed image to path; the format follows the extension.
func (s *PlotSurface) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := s.WriteTo(file, strings.TrimPrefix(filepath.Ext(path), ".")); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

type plotPanel struct {
	visible bool
	title   string
	aspect  float64

	img      mat.Matrix
	colormap palette.ColorMap
	clim     volume.Range

	curve          bool
	xs, ys         []float64
	xLabel, yLabel string

	hasColorbar bool
	cbRange     volume.Range
	cbFraction  float64
	cbColormap  palette.ColorMap
}

func (p *plotPanel) Image(img mat.Matrix, colormap string, r volume.Range) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if rows, cols := img.Dims(); rows == 0 || cols == 0 {
		return fmt.Errorf("%w: empty image", volume.ErrBadShape)
	}
	cm, err := Colormap(colormap)
	if err != nil {
		return err
	}
	r = r.Padded(rangePad)
	cm.SetMin(r.Min)
	cm.SetMax(r.Max)

	cb, err := Colormap(colormap)
	if err != nil {
		return err
	}
	p.img, p.colormap, p.clim, p.cbColormap = img, cm, r, cb
	p.curve = false
	return nil
}

func (p *plotPanel) Curve(xs, ys []float64, xLabel, yLabel string) error {
	if len(xs) != len(ys) {
		return fmt.Errorf("%w: %d x values, %d y values", volume.ErrLengthMismatch, len(xs), len(ys))
	}
	p.xs = append([]float64(nil), xs...)
	p.ys = append([]float64(nil), ys...)
	p.xLabel, p.yLabel = xLabel, yLabel
	p.curve = true
	p.img = nil
	return nil
}

func (p *plotPanel) SetTitle(title string) { p.title = title }

func (p *plotPanel) Colorbar(r volume.Range, fraction float64) {
	p.hasColorbar = true
	p.cbRange = r.Padded(rangePad)
	p.cbFraction = fraction
}

func (p *plotPanel) SetAspect(aspect float64) { p.aspect = aspect }
func (p *plotPanel) SetVisible(visible bool)  { p.visible = visible }

func (p *plotPanel) draw(c draw.Canvas) error {
	switch {
	case p.img != nil:
		return p.drawImage(c)
	case p.curve:
		return p.drawCurve(c)
	}
	if p.title != "" {
		pl := newPlot(p.title)
		pl.HideAxes()
		pl.Draw(c)
	}
	return nil
}

func (p *plotPanel) drawImage(c draw.Canvas) error {
	rows, cols := p.img.Dims()

	imgArea := c
	var cbArea draw.Canvas
	if p.hasColorbar {
		w := c.Max.X - c.Min.X
		cbw := vg.Length(p.cbFraction) * w
		if cbw < vg.Millimeter*4 {
			cbw = vg.Millimeter * 4
		}
		// label room to the right of the bar
		cbw += vg.Millimeter * 12
		imgArea.Max.X -= cbw
		cbArea = draw.Canvas{Canvas: c.Canvas, Rectangle: vg.Rectangle{
			Min: vg.Point{X: imgArea.Max.X, Y: c.Min.Y},
			Max: c.Max,
		}}
	}

	aspect := p.aspect
	if aspect <= 0 {
		aspect = float64(rows) / float64(cols)
	}
	imgArea = fitAspect(imgArea, aspect)

	pal := p.colormap.Palette(paletteSize)
	colors := pal.Colors()
	hm := plotter.NewHeatMap(matrixGrid{m: p.img, rows: rows}, pal)
	hm.Min, hm.Max = p.clim.Min, p.clim.Max
	hm.Underflow = colors[0]
	hm.Overflow = colors[len(colors)-1]
	hm.NaN = color.Transparent

	pl := newPlot(p.title)
	pl.Add(hm)
	pl.Y.Tick.Marker = flippedTicks{rows: rows}
	pl.Draw(imgArea)

	if p.hasColorbar {
		p.cbColormap.SetMin(p.cbRange.Min)
		p.cbColormap.SetMax(p.cbRange.Max)
		cbp := plot.New()
		cbp.HideX()
		cbp.Add(&plotter.ColorBar{ColorMap: p.cbColormap, Vertical: true, Colors: paletteSize})
		cbArea.Min.Y, cbArea.Max.Y = imgArea.Min.Y, imgArea.Max.Y
		cbp.Draw(cbArea)
	}
	return nil
}

func (p *plotPanel) drawCurve(c draw.Canvas) error {
	pts := make(plotter.XYs, len(p.xs))
	for i := range p.xs {
		pts[i].X = p.xs[i]
		pts[i].Y = p.ys[i]
	}

	pl := newPlot(p.title)
	pl.X.Label.Text = p.xLabel
	pl.Y.Label.Text = p.yLabel
	pl.Add(plotter.NewGrid())

	if len(pts) > 0 {
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = color.RGBA{R: 0, G: 0, B: 255, A: 255}
		pl.Add(line)
	}
	pl.Draw(c)
	return nil
}

func newPlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Typeface = "Liberation"
	p.Title.TextStyle.Font.Variant = "Sans"
	p.Title.TextStyle.Font.Size = vg.Points(12)
	p.X.Tick.Label.Font.Size = vg.Points(9)
	p.Y.Tick.Label.Font.Size = vg.Points(9)
	return p
}

// fitAspect returns the largest centred sub-canvas of c with height/width
// equal to aspect.
func fitAspect(c draw.Canvas, aspect float64) draw.Canvas {
	w := c.Max.X - c.Min.X
	h := c.Max.Y - c.Min.Y
	if w <= 0 || h <= 0 {
		return c
	}
	if vg.Length(aspect)*w <= h {
		nh := vg.Length(aspect) * w
		c.Min.Y += (h - nh) / 2
		c.Max.Y = c.Min.Y + nh
	} else {
		nw := h / vg.Length(aspect)
		c.Min.X += (w - nw) / 2
		c.Max.X = c.Min.X + nw
	}
	return c
}

// matrixGrid presents a matrix to plotter.HeatMap with row 0 at the top.
type matrixGrid struct {
	m    mat.Matrix
	rows int
}

func (g matrixGrid) Dims() (c, r int) {
	rows, cols := g.m.Dims()
	return cols, rows
}
func (g matrixGrid) Z(c, r int) float64 { return g.m.At(g.rows-1-r, c) }
func (g matrixGrid) X(c int) float64    { return float64(c) }
func (g matrixGrid) Y(r int) float64    { return float64(r) }

// flippedTicks labels the y axis with matrix row numbers.
type flippedTicks struct {
	rows int
}

func (t flippedTicks) Ticks(min, max float64) []plot.Tick {
	ticks := plot.DefaultTicks{}.Ticks(min, max)
	for i := range ticks {
		if ticks[i].Label == "" {
			continue
		}
		ticks[i].Label = strconv.FormatFloat(float64(t.rows-1)-ticks[i].Value, 'g', -1, 64)
	}
	return ticks
}
