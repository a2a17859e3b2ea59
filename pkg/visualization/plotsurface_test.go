package visualization

import (
	"bytes"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	"volslicer/pkg/volume"
)

// hasInk reports whether img contains any pixel that is not white
func hasInk(img image.Image) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			if r < 0xf000 || g < 0xf000 || bl < 0xf000 {
				return true
			}
		}
	}
	return false
}

// TestPlotSurfaceRender verifies an image panel renders at the requested size
func TestPlotSurfaceRender(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping rendering test in short mode")
	}

	s := NewPlotSurface(200, 150, 96)

	var flushed image.Image
	s.OnFlush(func(img image.Image) { flushed = img })

	panels := s.Layout(1, 1)
	img := mat.NewDense(3, 4, []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11})
	if err := panels[0].Image(img, "viridis", volume.Range{Min: 0, Max: 11}); err != nil {
		t.Fatalf("Failed to set image: %v", err)
	}
	panels[0].SetTitle("test")
	panels[0].Colorbar(volume.Range{Min: 0, Max: 11}, slicerColorbarFraction)

	if err := s.Flush(); err != nil {
		t.Fatalf("Failed to flush: %v", err)
	}

	if flushed == nil {
		t.Fatal("Expected OnFlush to receive the image")
	}
	// allow for rounding of the canvas size
	if b := flushed.Bounds(); math.Abs(float64(b.Dx()-200)) > 1 || math.Abs(float64(b.Dy()-150)) > 1 {
		t.Errorf("Expected ~200x150 image, got %dx%d", b.Dx(), b.Dy())
	}
	if !hasInk(flushed) {
		t.Error("Expected rendered pixels, got a blank image")
	}

	var buf bytes.Buffer
	if err := s.WriteTo(&buf, "png"); err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	if _, err := png.Decode(&buf); err != nil {
		t.Errorf("Failed to decode written PNG: %v", err)
	}
}

// TestPlotSurfaceGridAndCurve verifies a mixed layout renders and saves
func TestPlotSurfaceGridAndCurve(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping rendering test in short mode")
	}

	s := NewPlotSurface(320, 240, 96)
	m, err := NewMonitor(s, "gray")
	if err != nil {
		t.Fatalf("Failed to create monitor: %v", err)
	}
	if err := m.Record(1, 0.5, mat.NewDense(2, 2, []float64{1, 1, 1, 1})); err != nil {
		t.Fatalf("Failed to record: %v", err)
	}
	if err := m.Record(2, 0.25, nil); err != nil {
		t.Fatalf("Failed to record: %v", err)
	}

	images := []mat.Matrix{
		mat.NewDense(4, 2, []float64{0, 1, 2, 3, 4, 5, 6, 7}),
		mat.NewDense(4, 2, []float64{7, 6, 5, 4, 3, 2, 1, 0}),
		mat.NewDense(4, 2, nil),
	}
	if err := PlotGrid(s, images, []string{"a", "b", "c"}, GridOptions{FixRange: true}); err != nil {
		t.Fatalf("Failed to plot grid: %v", err)
	}

	path := filepath.Join(t.TempDir(), "grid.jpg")
	if err := s.Save(path); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected saved file: %v", err)
	}

	if err := s.WriteTo(&bytes.Buffer{}, "tiff"); err == nil {
		t.Error("Expected error for unknown format, got nil")
	}
}

// TestPlotSurfaceUnflushed verifies writing before a flush fails
func TestPlotSurfaceUnflushed(t *testing.T) {
	s := NewPlotSurface(100, 100, 0)
	if s.Image() != nil {
		t.Error("Expected no image before flush")
	}
	if err := s.WriteTo(&bytes.Buffer{}, "png"); err == nil {
		t.Error("Expected error before flush, got nil")
	}
}

// TestColormap verifies name resolution
func TestColormap(t *testing.T) {
	for _, name := range Colormaps() {
		if _, err := Colormap(name); err != nil {
			t.Errorf("Colormap(%q): %v", name, err)
		}
	}

	if _, err := Colormap(""); err != nil {
		t.Errorf("Expected default colormap, got %v", err)
	}
	if _, err := Colormap("grey"); err != nil {
		t.Errorf("Expected grey alias, got %v", err)
	}
	if _, err := Colormap("nope"); err == nil {
		t.Error("Expected error for unknown colormap, got nil")
	}
}
