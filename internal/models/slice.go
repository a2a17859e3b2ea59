package models

import (
	"image"
	"path/filepath"
	"sort"
	"strconv"
)

// SliceFile is a single 2D image of a stack read from disk
type SliceFile struct {
	// Image is the decoded slice
	Image image.Image

	// Filename is the base name of the source file
	Filename string

	// Number is the integer embedded in the filename, used for ordering
	Number int
}

// Stack axis labels, outermost first
const (
	LabelVertical    = "vertical"
	LabelHorizontalY = "horizontal_y"
	LabelHorizontalX = "horizontal_x"
)

// StackLabels is the label order of a volume built from a slice stack
var StackLabels = []string{LabelVertical, LabelHorizontalY, LabelHorizontalX}

// FileNumber extracts the digits of a filename as an integer.
// Names without digits yield 0.
func FileNumber(filename string) int {
	base := filepath.Base(filename)
	numStr := ""
	for _, c := range base {
		if c >= '0' && c <= '9' {
			numStr += string(c)
		}
	}

	if numStr != "" {
		num, err := strconv.Atoi(numStr)
		if err == nil {
			return num
		}
	}
	return 0
}

// SortByNumber orders slices by their filename number, ties by name
func SortByNumber(slices []SliceFile) {
	sort.SliceStable(slices, func(i, j int) bool {
		if slices[i].Number != slices[j].Number {
			return slices[i].Number < slices[j].Number
		}
		return slices[i].Filename < slices[j].Filename
	})
}
