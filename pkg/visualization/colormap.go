package visualization

import (
	"fmt"
	"image/color"
	"sort"

	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
)

// DefaultColormap is used when no colour map is named.
const DefaultColormap = "viridis"

// paletteSize is the number of discrete colours sampled for heat maps.
const paletteSize = 256

var viridisControls = []color.Color{
	color.NRGBA{R: 0x44, G: 0x01, B: 0x54, A: 0xff},
	color.NRGBA{R: 0x3b, G: 0x52, B: 0x8b, A: 0xff},
	color.NRGBA{R: 0x21, G: 0x91, B: 0x8c, A: 0xff},
	color.NRGBA{R: 0x5e, G: 0xc9, B: 0x62, A: 0xff},
	color.NRGBA{R: 0xfd, G: 0xe7, B: 0x25, A: 0xff},
}

var grayControls = []color.Color{
	color.NRGBA{A: 0xff},
	color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
}

var colormaps = map[string]func() (palette.ColorMap, error){
	"viridis":            func() (palette.ColorMap, error) { return moreland.NewLuminance(viridisControls) },
	"gray":               func() (palette.ColorMap, error) { return moreland.NewLuminance(grayControls) },
	"kindlmann":          func() (palette.ColorMap, error) { return moreland.Kindlmann(), nil },
	"blackbody":          func() (palette.ColorMap, error) { return moreland.BlackBody(), nil },
	"extended-blackbody": func() (palette.ColorMap, error) { return moreland.ExtendedBlackBody(), nil },
	"coolwarm":           func() (palette.ColorMap, error) { return moreland.SmoothBlueRed(), nil },
	"bluetan":            func() (palette.ColorMap, error) { return moreland.SmoothBlueTan(), nil },
}

// Colormap returns a fresh colour map by name, normalised to r's bounds by
// the caller. The empty name selects DefaultColormap; "grey" is accepted as
// an alias of "gray".
func Colormap(name string) (palette.ColorMap, error) {
	switch name {
	case "":
		name = DefaultColormap
	case "grey":
		name = "gray"
	}
	build, ok := colormaps[name]
	if !ok {
		return nil, fmt.Errorf("unknown colormap %q (available: %v)", name, Colormaps())
	}
	return build()
}

// Colormaps lists the accepted colour map names.
func Colormaps() []string {
	names := make([]string, 0, len(colormaps))
	for name := range colormaps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
