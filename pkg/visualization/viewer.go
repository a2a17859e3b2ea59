package visualization

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"volslicer/pkg/volume"
)

// ExportOptions configures the batch operations of a Viewer.
type ExportOptions struct {
	SlicerParams

	// Width, Height and DPI size each rendered image in pixels.
	Width, Height, DPI int

	// Format is png or jpeg.
	Format string

	// NumCores bounds the number of slices rendered concurrently.
	NumCores int
}

// Viewer exports cross-sections of a volume as grayscale or rendered images.
type Viewer struct {
	vol  volume.Volume
	opts ExportOptions
}

// NewViewer creates a viewer over v.
func NewViewer(v volume.Volume, opts ExportOptions) *Viewer {
	if opts.Width <= 0 {
		opts.Width = 480
	}
	if opts.Height <= 0 {
		opts.Height = 400
	}
	if opts.Format == "" {
		opts.Format = "png"
	}
	if opts.NumCores < 1 {
		opts.NumCores = 1
	}
	return &Viewer{vol: v, opts: opts}
}

// ExtractSlice returns the cross-section at position as a 16-bit grayscale
// image normalised to the viewer's colour range.
func (v *Viewer) ExtractSlice(axis volume.Axis, position int) (image.Image, error) {
	slice, err := volume.Extract(v.vol, axis, position)
	if err != nil {
		return nil, err
	}
	shape := slice.Shape()
	if len(shape) != 2 {
		return nil, fmt.Errorf("%w: slice of rank %d is not an image", volume.ErrBadShape, len(shape))
	}

	var r volume.Range
	switch v.opts.RangeMode {
	case volume.RangeSlice:
		r, err = volume.ComputeRange(nil, slice, volume.RangeSlice, nil)
	default:
		r, err = volume.ComputeRange(v.vol, nil, v.opts.RangeMode, v.opts.Range)
	}
	if err != nil {
		return nil, err
	}
	r = r.Padded(rangePad)

	height, width := shape[0], shape[1]
	img := image.NewGray16(image.Rect(0, 0, width, height))
	data := slice.Values()
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			t := (data[y*width+x] - r.Min) / (r.Max - r.Min)
			if math.IsNaN(t) {
				t = 0
			}
			value := uint16(math.Max(0, math.Min(65535, t*65535)))
			img.SetGray16(x, y, color.Gray16{Y: value})
		}
	}
	return img, nil
}

// ExtractRegion copies the hyper-rectangle starting at start with the given
// size out of the volume.
func (v *Viewer) ExtractRegion(start, size []int) (*volume.Dense, error) {
	shape := v.vol.Shape()
	rank := len(shape)
	if len(start) != rank || len(size) != rank {
		return nil, fmt.Errorf("%w: region of rank %d/%d for volume of rank %d",
			volume.ErrLengthMismatch, len(start), len(size), rank)
	}

	for d := 0; d < rank; d++ {
		if start[d] < 0 {
			return nil, fmt.Errorf("%w: start coordinates must be non-negative", volume.ErrIndexOutOfRange)
		}
		if size[d] <= 0 {
			return nil, fmt.Errorf("%w: size dimensions must be positive", volume.ErrBadShape)
		}
		if start[d]+size[d] > shape[d] {
			return nil, fmt.Errorf("%w: region extends beyond volume boundaries on axis %d", volume.ErrIndexOutOfRange, d)
		}
	}

	region, err := volume.NewDense(size, nil)
	if err != nil {
		return nil, err
	}

	src := v.vol.Values()
	dst := region.Values()
	inner := size[rank-1]
	idx := make([]int, rank-1)
	for dstOff := 0; dstOff < len(dst); dstOff += inner {
		off := 0
		for d := 0; d < rank-1; d++ {
			off = off*shape[d] + start[d] + idx[d]
		}
		off = off*shape[rank-1] + start[rank-1]
		copy(dst[dstOff:dstOff+inner], src[off:off+inner])

		for d := rank - 2; d >= 0; d-- {
			idx[d]++
			if idx[d] < size[d] {
				break
			}
			idx[d] = 0
		}
	}
	return region, nil
}

// SaveSlice saves an extracted slice as a PNG or JPEG image, chosen by the
// filename extension.
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
	default:
		return png.Encode(file, img)
	}
}

// SaveSliceSequence renders every slice along axis with title and colour bar
// and writes them to outputDir as slice_<axis>_NNN.<format>. Slices are
// rendered concurrently on up to NumCores private surfaces. The returned
// paths are in index order.
func (v *Viewer) SaveSliceSequence(ctx context.Context, axis volume.Axis, outputDir string) ([]string, error) {
	params := v.opts.SlicerParams
	params.Axis = axis
	renderer, err := newSliceRenderer(v.vol, params)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, err
	}

	ext := strings.ToLower(v.opts.Format)
	if ext == "jpeg" {
		ext = "jpg"
	}

	extent := v.vol.Shape()[renderer.axis]
	paths := make([]string, extent)
	for pos := range paths {
		paths[pos] = filepath.Join(outputDir, fmt.Sprintf("slice_%d_%03d.%s", renderer.axis, pos, ext))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)
	errs := make(chan error, extent)

	workers := min(v.opts.NumCores, extent)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			surface := NewPlotSurface(v.opts.Width, v.opts.Height, v.opts.DPI)
			panel := surface.Layout(1, 1)[0]
			for pos := range jobs {
				if err := renderer.draw(surface, panel, pos); err != nil {
					errs <- fmt.Errorf("slice %d: %w", pos, err)
					cancel()
					continue
				}
				if err := surface.Save(paths[pos]); err != nil {
					errs <- fmt.Errorf("slice %d: %w", pos, err)
					cancel()
				}
			}
		}()
	}

feed:
	for pos := 0; pos < extent; pos++ {
		select {
		case jobs <- pos:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	close(errs)

	if err := <-errs; err != nil {
		return nil, err
	}
	// Workers only cancel after reporting an error, so a done context here
	// was cancelled by the caller.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return paths, nil
}
