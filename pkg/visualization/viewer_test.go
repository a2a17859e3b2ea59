package visualization

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"testing"

	"volslicer/internal/models"
	"volslicer/pkg/volume"
)

// newTestVolume builds a (depth, height, width) volume filled by fn
func newTestVolume(t *testing.T, depth, height, width int, fn func(z, y, x int) float64) *volume.Dense {
	t.Helper()

	data := make([]float64, depth*height*width)
	for z := 0; z < depth; z++ {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				data[z*width*height+y*width+x] = fn(z, y, x)
			}
		}
	}

	v, err := volume.NewDense([]int{depth, height, width}, data)
	if err != nil {
		t.Fatalf("Failed to create volume: %v", err)
	}
	if err := v.SetLabels(models.StackLabels...); err != nil {
		t.Fatalf("Failed to set labels: %v", err)
	}
	return v
}

// TestNewViewer verifies that defaults are applied to missing options
func TestNewViewer(t *testing.T) {
	vol := newTestVolume(t, 5, 10, 10, func(z, y, x int) float64 { return float64(x + y + z) })

	viewer := NewViewer(vol, ExportOptions{})

	if viewer.opts.Width != 480 || viewer.opts.Height != 400 {
		t.Errorf("Expected default size 480x400, got %dx%d", viewer.opts.Width, viewer.opts.Height)
	}

	if viewer.opts.Format != "png" {
		t.Errorf("Expected default format png, got %q", viewer.opts.Format)
	}

	if viewer.opts.NumCores != 1 {
		t.Errorf("Expected one core by default, got %d", viewer.opts.NumCores)
	}
}

// TestExtractSlice verifies that slices are correctly extracted from the volume
func TestExtractSlice(t *testing.T) {
	width, height, depth := 10, 8, 5

	// Each slice along the vertical axis has a unique value
	vol := newTestVolume(t, depth, height, width, func(z, y, x int) float64 {
		return float64(z) / float64(depth)
	})

	viewer := NewViewer(vol, ExportOptions{})

	for z := 0; z < depth; z++ {
		img, err := viewer.ExtractSlice(volume.AxisLabel(models.LabelVertical), z)
		if err != nil {
			t.Fatalf("Failed to extract slice at position %d: %v", z, err)
		}

		bounds := img.Bounds()
		if bounds.Dx() != width || bounds.Dy() != height {
			t.Errorf("Expected slice dimensions %dx%d, got %dx%d",
				width, height, bounds.Dx(), bounds.Dy())
		}

		gray16Img, ok := img.(*image.Gray16)
		if !ok {
			t.Fatalf("Expected *image.Gray16, got %T", img)
		}

		// The global range is [0, (depth-1)/depth]
		expectedValue := float64(z) / float64(depth-1) * 65535
		centerValue := float64(gray16Img.Gray16At(width/2, height/2).Y)
		if math.Abs(centerValue-expectedValue) > 1.0 {
			t.Errorf("Expected slice value ~%.0f at center, got %.0f", expectedValue, centerValue)
		}
	}

	// Slicing along x leaves (depth, height)
	imgX, err := viewer.ExtractSlice(volume.AxisIndex(2), width/2)
	if err != nil {
		t.Fatalf("Failed to extract x slice: %v", err)
	}
	if b := imgX.Bounds(); b.Dx() != height || b.Dy() != depth {
		t.Errorf("Expected x slice dimensions %dx%d, got %dx%d", height, depth, b.Dx(), b.Dy())
	}

	// Slicing along y leaves (depth, width)
	imgY, err := viewer.ExtractSlice(volume.AxisLabel(models.LabelHorizontalY), height/2)
	if err != nil {
		t.Fatalf("Failed to extract y slice: %v", err)
	}
	if b := imgY.Bounds(); b.Dx() != width || b.Dy() != depth {
		t.Errorf("Expected y slice dimensions %dx%d, got %dx%d", width, depth, b.Dx(), b.Dy())
	}

	if _, err := viewer.ExtractSlice(volume.AxisLabel("invalid"), 0); !errors.Is(err, volume.ErrInvalidAxis) {
		t.Errorf("Expected ErrInvalidAxis for unknown label, got %v", err)
	}

	if _, err := viewer.ExtractSlice(volume.AxisIndex(0), depth+1); !errors.Is(err, volume.ErrIndexOutOfRange) {
		t.Errorf("Expected ErrIndexOutOfRange for out of bounds position, got %v", err)
	}
}

// TestExtractSliceRangeModes verifies normalisation per range mode
func TestExtractSliceRangeModes(t *testing.T) {
	vol := newTestVolume(t, 3, 4, 4, func(z, y, x int) float64 {
		return float64(10*z + x)
	})

	// slice mode stretches every slice to the full scale
	viewer := NewViewer(vol, ExportOptions{SlicerParams: SlicerParams{RangeMode: volume.RangeSlice}})
	img, err := viewer.ExtractSlice(volume.AxisIndex(0), 1)
	if err != nil {
		t.Fatalf("Failed to extract slice: %v", err)
	}
	g := img.(*image.Gray16)
	if got := g.Gray16At(0, 0).Y; got != 0 {
		t.Errorf("Expected slice minimum to map to 0, got %d", got)
	}
	if got := g.Gray16At(3, 0).Y; got != 65535 {
		t.Errorf("Expected slice maximum to map to 65535, got %d", got)
	}

	// explicit mode clips values above the range
	viewer = NewViewer(vol, ExportOptions{SlicerParams: SlicerParams{
		RangeMode: volume.RangeExplicit,
		Range:     &volume.Range{Min: 0, Max: 10},
	}})
	img, err = viewer.ExtractSlice(volume.AxisIndex(0), 2)
	if err != nil {
		t.Fatalf("Failed to extract slice: %v", err)
	}
	if got := img.(*image.Gray16).Gray16At(0, 0).Y; got != 65535 {
		t.Errorf("Expected clipped value 65535, got %d", got)
	}

	// explicit mode without a range is rejected
	viewer = NewViewer(vol, ExportOptions{SlicerParams: SlicerParams{RangeMode: volume.RangeExplicit}})
	if _, err := viewer.ExtractSlice(volume.AxisIndex(0), 0); err == nil {
		t.Error("Expected error for explicit mode without range, got nil")
	}
}

// TestExtractRegion verifies that regions are correctly extracted
func TestExtractRegion(t *testing.T) {
	width, height, depth := 10, 10, 5

	vol := newTestVolume(t, depth, height, width, func(z, y, x int) float64 {
		return float64(x)/float64(width) + float64(y)/float64(height) + float64(z)/float64(depth)
	})

	viewer := NewViewer(vol, ExportOptions{})

	start := []int{1, 3, 2}
	size := []int{2, 3, 4}

	region, err := viewer.ExtractRegion(start, size)
	if err != nil {
		t.Fatalf("Failed to extract region: %v", err)
	}

	if got := len(region.Values()); got != 2*3*4 {
		t.Errorf("Expected region size %d, got %d", 2*3*4, got)
	}

	for z := 0; z < size[0]; z++ {
		for y := 0; y < size[1]; y++ {
			for x := 0; x < size[2]; x++ {
				got, err := region.At(z, y, x)
				if err != nil {
					t.Fatalf("Failed to read region: %v", err)
				}
				want, _ := vol.At(start[0]+z, start[1]+y, start[2]+x)
				if got != want {
					t.Errorf("Region value mismatch at (%d,%d,%d): expected %f, got %f",
						z, y, x, want, got)
				}
			}
		}
	}

	if _, err := viewer.ExtractRegion([]int{-1, 0, 0}, []int{1, 1, 1}); err == nil {
		t.Error("Expected error for negative start coordinate, got nil")
	}

	if _, err := viewer.ExtractRegion([]int{0, 0, 0}, []int{0, 1, 1}); err == nil {
		t.Error("Expected error for zero size, got nil")
	}

	if _, err := viewer.ExtractRegion([]int{0, 0, width - 1}, []int{1, 1, 2}); err == nil {
		t.Error("Expected error for region extending beyond volume, got nil")
	}

	if _, err := viewer.ExtractRegion([]int{0, 0}, []int{1, 1}); !errors.Is(err, volume.ErrLengthMismatch) {
		t.Errorf("Expected ErrLengthMismatch for rank mismatch, got %v", err)
	}
}

// TestSaveSlice verifies that slices can be saved to disk
func TestSaveSlice(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping file I/O test in short mode")
	}

	tempDir := t.TempDir()

	vol := newTestVolume(t, 5, 10, 10, func(z, y, x int) float64 { return 0.5 })
	viewer := NewViewer(vol, ExportOptions{})

	img, err := viewer.ExtractSlice(volume.AxisIndex(0), 0)
	if err != nil {
		t.Fatalf("Failed to extract slice: %v", err)
	}

	for _, name := range []string{"test_slice.jpg", "test_slice.png"} {
		filename := filepath.Join(tempDir, name)
		if err := viewer.SaveSlice(img, filename); err != nil {
			t.Fatalf("Failed to save slice: %v", err)
		}
		if _, err := os.Stat(filename); os.IsNotExist(err) {
			t.Errorf("Saved file does not exist: %s", filename)
		}
	}
}

// TestSaveSliceSequence verifies that a sequence of rendered slices can be saved
func TestSaveSliceSequence(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping file I/O test in short mode")
	}

	tempDir := t.TempDir()

	depth := 3
	vol := newTestVolume(t, depth, 5, 5, func(z, y, x int) float64 { return float64(z + x) })

	viewer := NewViewer(vol, ExportOptions{
		SlicerParams: SlicerParams{Title: "Slice"},
		Width:        160,
		Height:       120,
		NumCores:     2,
	})

	outputDir := filepath.Join(tempDir, "slices")
	paths, err := viewer.SaveSliceSequence(context.Background(), volume.AxisLabel(models.LabelVertical), outputDir)
	if err != nil {
		t.Fatalf("Failed to save slice sequence: %v", err)
	}

	if len(paths) != depth {
		t.Fatalf("Expected %d paths, got %d", depth, len(paths))
	}

	for z := 0; z < depth; z++ {
		filename := filepath.Join(outputDir, fmt.Sprintf("slice_0_%03d.png", z))
		if paths[z] != filename {
			t.Errorf("Expected path %s, got %s", filename, paths[z])
		}
		if _, err := os.Stat(filename); os.IsNotExist(err) {
			t.Errorf("Expected slice file does not exist: %s", filename)
		}
	}

	if _, err := viewer.SaveSliceSequence(context.Background(), volume.AxisLabel("invalid"), outputDir); err == nil {
		t.Error("Expected error for invalid axis, got nil")
	}
}

// TestSaveSliceSequenceCancelled verifies a cancelled context stops the export
func TestSaveSliceSequenceCancelled(t *testing.T) {
	vol := newTestVolume(t, 4, 3, 3, func(z, y, x int) float64 { return float64(z) })
	viewer := NewViewer(vol, ExportOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := viewer.SaveSliceSequence(ctx, volume.AxisIndex(0), t.TempDir())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
