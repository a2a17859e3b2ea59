package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"volslicer/internal/models"
	"volslicer/pkg/config"
	"volslicer/pkg/denoise"
	"volslicer/pkg/metrics"
	"volslicer/pkg/phantom"
	"volslicer/pkg/visualization"
	"volslicer/pkg/volume"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "volslicer.yaml", "Path to the YAML configuration file")
	initConfig := flag.Bool("init-config", false, "Write the default configuration to -config and exit")
	inputDir := flag.String("input", "", "Directory of 2D slice images to stack into a volume")
	rawFile := flag.String("raw", "", "Raw little-endian float64 volume file")
	rawShape := flag.String("shape", "", "Shape of the raw volume, e.g. 64x64x64")
	noiseKind := flag.String("noise", "", "Noise kind or index: gaussian (0), poisson (1), s&p (2), none")
	axisFlag := flag.String("axis", models.LabelVertical, "Slicing axis as an index or label")
	indexFlag := flag.Int("index", -1, "Slice index for the comparison grid (default: config policy)")
	denoiseIters := flag.Int("denoise", 0, "Run this many smoothing iterations on the noisy volume and plot their progress")
	extractSlices := flag.Bool("extract-slices", false, "Render every slice along -axis to the output directory")
	outputDir := flag.String("output", "", "Output directory (default: from config)")
	verbose := flag.Bool("verbose", false, "Enable verbose logging")
	flag.Parse()

	if *initConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	if *noiseKind != "" {
		cfg.Data.Noise = *noiseKind
	}
	cfg.Output.Verbose = cfg.Output.Verbose || *verbose

	logf := func(format string, args ...interface{}) {
		if cfg.Output.Verbose {
			log.Printf(format, args...)
		}
	}

	if _, err := visualization.Colormap(cfg.Display.Colormap); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	rangeMode, err := volume.ParseRangeMode(cfg.Display.RangeMode)
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	fmt.Println("================================")
	fmt.Println("VOLUME SLICE VIEWER")
	fmt.Println("================================")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	startTime := time.Now()
	clean, err := loadVolume(*inputDir, *rawFile, *rawShape, cfg.Data.PhantomSize)
	if err != nil {
		log.Fatalf("Failed to load volume: %v", err)
	}
	fmt.Printf("Loaded volume %v in %.2f seconds\n", clean, time.Since(startTime).Seconds())

	kind, err := phantom.ParseNoiseKind(cfg.Data.Noise)
	if err != nil {
		log.Fatalf("Invalid noise: %v", err)
	}
	level := cfg.Data.NoiseLevel
	if level == 0 {
		level = phantom.DefaultLevel(kind)
	}
	logf("Adding %s noise (level %g, seed %d)", kind, level, cfg.Data.Seed)

	noisy, err := phantom.AddNoise(clean, phantom.Noise{Kind: kind, Level: level, Seed: cfg.Data.Seed, Clip: true})
	if err != nil {
		log.Fatalf("Failed to add noise: %v", err)
	}

	report, err := metrics.Compare(clean, noisy, metrics.DefaultDataRange)
	if err != nil {
		log.Fatalf("Failed to compare volumes: %v", err)
	}
	fmt.Printf("\nNoisy vs clean: %s\n", report)

	axis := volume.ParseAxis(*axisFlag)
	ax, err := axis.Resolve(clean)
	if err != nil {
		log.Fatalf("Invalid axis: %v", err)
	}
	index := *indexFlag
	if index < 0 {
		index = 0
		if cfg.Display.DefaultIndex == config.IndexMiddle {
			index = volume.Middle(clean.Shape()[ax])
		}
	}

	// Side-by-side grid of the chosen slice
	images, err := visualization.VolumeImages(axis, index, clean, noisy)
	if err != nil {
		log.Fatalf("Failed to extract slices: %v", err)
	}
	rows, cols := visualization.GridLayout(len(images))
	surface := visualization.NewPlotSurface(cols*cfg.Display.PanelWidth, rows*cfg.Display.PanelHeight, cfg.Display.DPI)
	titles := []string{
		fmt.Sprintf("Clean %d", index),
		fmt.Sprintf("Noisy %d (%.2f dB)", index, report.PSNR),
	}
	opts := visualization.GridOptions{
		FixRange: cfg.Display.FixRange,
		StretchY: cfg.Display.StretchY,
		Colormap: cfg.Display.Colormap,
	}
	if err := visualization.PlotGrid(surface, images, titles, opts); err != nil {
		log.Fatalf("Failed to plot grid: %v", err)
	}
	gridPath := filepath.Join(cfg.Output.Dir, "compare."+cfg.Output.Format)
	if err := surface.Save(gridPath); err != nil {
		log.Fatalf("Failed to save grid: %v", err)
	}
	fmt.Printf("Comparison grid saved to: %s\n", gridPath)

	if *denoiseIters > 0 {
		monitorSurface := visualization.NewPlotSurface(2*cfg.Display.PanelWidth, cfg.Display.PanelHeight, cfg.Display.DPI)
		monitor, err := visualization.NewMonitor(monitorSurface, cfg.Display.Colormap)
		if err != nil {
			log.Fatalf("Failed to create monitor: %v", err)
		}

		params := denoise.DefaultParams()
		params.Iterations = *denoiseIters
		params.NumCores = cfg.Processing.NumCores

		fmt.Printf("\nSmoothing noisy volume (%d iterations)...\n", params.Iterations)
		smoothed, err := denoise.Tikhonov(ctx, noisy, params, func(it int, residual float64, current *volume.Dense) error {
			logf("Iteration %d: relative update %.3e", it, residual)
			slice, err := volume.Extract(current, axis, index)
			if err != nil {
				return err
			}
			m, err := slice.Matrix()
			if err != nil {
				return err
			}
			return monitor.Record(it, residual, m)
		})
		if err != nil {
			log.Fatalf("Smoothing failed: %v", err)
		}

		smoothReport, err := metrics.Compare(clean, smoothed, metrics.DefaultDataRange)
		if err != nil {
			log.Fatalf("Failed to compare volumes: %v", err)
		}
		fmt.Printf("Smoothed vs clean: %s\n", smoothReport)

		monitorPath := filepath.Join(cfg.Output.Dir, "progress."+cfg.Output.Format)
		if err := monitorSurface.Save(monitorPath); err != nil {
			log.Fatalf("Failed to save progress plot: %v", err)
		}
		fmt.Printf("Progress plot saved to: %s\n", monitorPath)
	}

	if *extractSlices {
		fmt.Println("\nExtracting slices...")

		params := visualization.SlicerParams{
			Colormap:     cfg.Display.Colormap,
			RangeMode:    rangeMode,
			DefaultIndex: cfg.Display.DefaultIndex,
		}
		if rangeMode == volume.RangeExplicit {
			params.Range = &volume.Range{Min: cfg.Display.RangeMin, Max: cfg.Display.RangeMax}
		}

		for name, vol := range map[string]volume.Volume{"clean": clean, "noisy": noisy} {
			params.Title = strings.ToUpper(name[:1]) + name[1:]
			viewer := visualization.NewViewer(vol, visualization.ExportOptions{
				SlicerParams: params,
				Width:        cfg.Display.PanelWidth,
				Height:       cfg.Display.PanelHeight,
				DPI:          cfg.Display.DPI,
				Format:       cfg.Output.Format,
				NumCores:     cfg.Processing.NumCores,
			})

			dir := filepath.Join(cfg.Output.Dir, name)
			start := time.Now()
			paths, err := viewer.SaveSliceSequence(ctx, axis, dir)
			if err != nil {
				log.Printf("Warning: Failed to save %s slices: %v", name, err)
				continue
			}
			logf("Saved %d %s slices to %s in %.2f seconds using %d cores",
				len(paths), name, dir, time.Since(start).Seconds(), cfg.Processing.NumCores)
		}

		fmt.Println("Slice extraction completed!")
	}
}

// loadVolume reads the volume from an image stack, a raw file or, when
// neither is given, generates a Shepp-Logan phantom.
func loadVolume(inputDir, rawFile, rawShape string, phantomSize int) (*volume.Dense, error) {
	switch {
	case inputDir != "":
		return volume.LoadImageStack(inputDir)

	case rawFile != "":
		shape, err := parseShape(rawShape)
		if err != nil {
			return nil, err
		}
		v, err := volume.ReadRawFile(rawFile, shape)
		if err != nil {
			return nil, err
		}
		if len(shape) == len(models.StackLabels) {
			if err := v.SetLabels(models.StackLabels...); err != nil {
				return nil, err
			}
		}
		return v, nil
	}
	return phantom.SheppLogan3D(phantomSize)
}

func parseShape(s string) ([]int, error) {
	if s == "" {
		return nil, fmt.Errorf("-shape is required with -raw")
	}
	parts := strings.Split(s, "x")
	shape := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid shape %q", s)
		}
		shape[i] = n
	}
	return shape, nil
}
