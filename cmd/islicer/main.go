package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"volslicer/pkg/config"
	"volslicer/pkg/phantom"
	"volslicer/pkg/visualization"
	"volslicer/pkg/volume"
)

// view is one slicer with its on-screen image and slider widget
type view struct {
	slicer *visualization.Slicer
	image  *canvas.Image
	slider *widget.Slider
}

func main() {
	configPath := flag.String("config", "volslicer.yaml", "Path to the YAML configuration file")
	inputDir := flag.String("input", "", "Directory of 2D slice images (default: Shepp-Logan phantom)")
	axisFlag := flag.String("axis", "0", "Slicing axis as an index or label")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	rangeMode, err := volume.ParseRangeMode(cfg.Display.RangeMode)
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	var clean *volume.Dense
	if *inputDir != "" {
		clean, err = volume.LoadImageStack(*inputDir)
	} else {
		clean, err = phantom.SheppLogan3D(cfg.Data.PhantomSize)
	}
	if err != nil {
		log.Fatalf("Failed to load volume: %v", err)
	}

	kind, err := phantom.ParseNoiseKind(cfg.Data.Noise)
	if err != nil {
		log.Fatalf("Invalid noise: %v", err)
	}
	level := cfg.Data.NoiseLevel
	if level == 0 {
		level = phantom.DefaultLevel(kind)
	}
	noisy, err := phantom.AddNoise(clean, phantom.Noise{Kind: kind, Level: level, Seed: cfg.Data.Seed, Clip: true})
	if err != nil {
		log.Fatalf("Failed to add noise: %v", err)
	}
	if cfg.Output.Verbose {
		log.Printf("Volume %v with %s noise (level %g)", clean, kind, level)
	}

	myApp := app.New()
	w := myApp.NewWindow("Volume slicer")
	w.Resize(fyne.NewSize(float32(2*cfg.Display.PanelWidth), float32(cfg.Display.PanelHeight+60)))

	// Renders run on the loop so the UI stays responsive; results are
	// handed back to the UI goroutine with fyne.Do.
	loop := visualization.NewEventLoop(16)
	defer loop.Close()
	ctx := context.Background()

	params := visualization.SlicerParams{
		Axis:         volume.ParseAxis(*axisFlag),
		Colormap:     cfg.Display.Colormap,
		RangeMode:    rangeMode,
		DefaultIndex: cfg.Display.DefaultIndex,
	}
	if rangeMode == volume.RangeExplicit {
		params.Range = &volume.Range{Min: cfg.Display.RangeMin, Max: cfg.Display.RangeMax}
	}

	var views []*view
	err = loop.Do(ctx, func() error {
		for _, src := range []struct {
			title string
			vol   volume.Volume
		}{
			{"Clean", clean},
			{"Noisy", noisy},
		} {
			v, err := newView(src.vol, src.title, params, cfg)
			if err != nil {
				return fmt.Errorf("%s: %w", src.title, err)
			}
			views = append(views, v)
		}

		sliders := make([]*visualization.Slider, len(views))
		for i, v := range views {
			sliders[i] = v.slicer.Slider()
		}
		return visualization.Link(sliders...)
	})
	if err != nil {
		log.Fatalf("Failed to create slicers: %v", err)
	}

	columns := make([]fyne.CanvasObject, len(views))
	for i, v := range views {
		v.slider.OnChanged = func(value float64) {
			if err := loop.Post(ctx, func() {
				if err := v.slicer.Slider().Set(int(value)); err != nil {
					log.Printf("Warning: %v", err)
				}
			}); err != nil {
				log.Printf("Warning: %v", err)
			}
		}
		columns[i] = container.NewBorder(nil, v.slider, nil, nil, v.image)
	}

	w.SetContent(container.NewGridWithColumns(len(columns), columns...))
	w.SetOnClosed(func() {
		_ = loop.Do(ctx, func() error {
			for _, v := range views {
				v.slicer.Close()
			}
			return nil
		})
	})
	w.ShowAndRun()
}

// newView creates a slicer drawing into a canvas image. It must run on the
// event loop.
func newView(vol volume.Volume, title string, params visualization.SlicerParams, cfg *config.Config) (*view, error) {
	surface := visualization.NewPlotSurface(cfg.Display.PanelWidth, cfg.Display.PanelHeight, cfg.Display.DPI)

	v := &view{image: canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1)))}
	v.image.FillMode = canvas.ImageFillContain
	v.image.SetMinSize(fyne.NewSize(float32(cfg.Display.PanelWidth), float32(cfg.Display.PanelHeight)))

	surface.OnFlush(func(img image.Image) {
		fyne.Do(func() {
			v.image.Image = img
			v.image.Refresh()
		})
	})

	params.Title = title
	slicer, err := visualization.NewSlicer(vol, surface, params)
	if err != nil {
		return nil, err
	}
	v.slicer = slicer

	s := slicer.Slider()
	v.slider = widget.NewSlider(float64(s.Min()), float64(s.Max()))
	v.slider.Step = 1
	v.slider.Value = float64(s.Value())

	// linked changes move the widget too; the resulting OnChanged is a no-op
	s.Observe(func(value int) error {
		fyne.Do(func() { v.slider.SetValue(float64(value)) })
		return nil
	})
	return v, nil
}
