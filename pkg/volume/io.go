package volume

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"image"
	_ "image/jpeg" // registers JPEG for image.Decode
	_ "image/png"  // registers PNG for image.Decode
	"io"
	"os"
	"path/filepath"
	"strings"

	"volslicer/internal/models"
)

// ReadRaw reads little-endian float64 samples for the given shape.
func ReadRaw(r io.Reader, shape []int) (*Dense, error) {
	n, err := numel(shape)
	if err != nil {
		return nil, err
	}

	data := make([]float64, n)
	if err := binary.Read(bufio.NewReader(r), binary.LittleEndian, data); err != nil {
		return nil, fmt.Errorf("failed to read %d samples: %w", n, err)
	}
	return NewDense(shape, data)
}

// WriteRaw writes the samples of v as little-endian float64 values.
func WriteRaw(w io.Writer, v Volume) error {
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, v.Values()); err != nil {
		return fmt.Errorf("failed to write samples: %w", err)
	}
	return bw.Flush()
}

// ReadRawFile opens path and reads a volume of the given shape from it.
func ReadRawFile(path string, shape []int) (*Dense, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ReadRaw(file, shape)
}

// WriteRawFile creates path and writes v to it.
func WriteRawFile(path string, v Volume) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteRaw(file, v); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// LoadImageStack reads every JPEG and PNG file in dir, orders them by the
// number embedded in their names and stacks them into a (depth, height,
// width) volume with intensities in [0, 1]. The axes are labelled
// vertical, horizontal_y and horizontal_x.
func LoadImageStack(dir string) (*Dense, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var slices []models.SliceFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".jpg", ".jpeg", ".png":
		default:
			continue
		}

		img, err := loadImage(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to load image %s: %w", entry.Name(), err)
		}
		slices = append(slices, models.SliceFile{
			Image:    img,
			Filename: entry.Name(),
			Number:   models.FileNumber(entry.Name()),
		})
	}

	if len(slices) == 0 {
		return nil, fmt.Errorf("no JPEG or PNG images found in %s", dir)
	}
	models.SortByNumber(slices)

	bounds := slices[0].Image.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	size := width * height
	data := make([]float64, size*len(slices))

	for i, s := range slices {
		b := s.Image.Bounds()
		if b.Dx() != width || b.Dy() != height {
			return nil, fmt.Errorf("%w: %s is %dx%d, expected %dx%d",
				ErrShapeMismatch, s.Filename, b.Dx(), b.Dy(), width, height)
		}
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				r, _, _, _ := s.Image.At(b.Min.X+x, b.Min.Y+y).RGBA()
				// 16-bit channel to [0, 1]
				data[i*size+y*width+x] = float64(r) / 65535.0
			}
		}
	}

	vol, err := NewDense([]int{len(slices), height, width}, data)
	if err != nil {
		return nil, err
	}
	if err := vol.SetLabels(models.StackLabels...); err != nil {
		return nil, err
	}
	return vol, nil
}

func loadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, err
	}
	return img, nil
}
