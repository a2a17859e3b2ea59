package phantom

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"volslicer/pkg/volume"
)

// NoiseKind names a corruption model.
type NoiseKind string

const (
	NoiseNone       NoiseKind = "none"
	NoiseGaussian   NoiseKind = "gaussian"
	NoisePoisson    NoiseKind = "poisson"
	NoiseSaltPepper NoiseKind = "s&p"
)

// NoiseKinds lists the accepted kinds in the order used for numeric selection
// on the command line.
var NoiseKinds = []NoiseKind{NoiseGaussian, NoisePoisson, NoiseSaltPepper}

// Noise configures AddNoise.
type Noise struct {
	Kind NoiseKind

	// Level is the variance for gaussian noise, the peak photon count for
	// poisson noise and the corrupted fraction for salt-and-pepper noise.
	Level float64

	// Seed makes the corruption reproducible.
	Seed uint64

	// Clip limits the result to [0, 1].
	Clip bool
}

// DefaultLevel returns the level used when none is configured.
func DefaultLevel(kind NoiseKind) float64 {
	switch kind {
	case NoiseGaussian:
		return 0.001
	case NoisePoisson:
		return 255
	case NoiseSaltPepper:
		return 0.05
	}
	return 0
}

// ParseNoiseKind accepts a kind name or its index into NoiseKinds.
func ParseNoiseKind(s string) (NoiseKind, error) {
	switch NoiseKind(s) {
	case "", NoiseNone:
		return NoiseNone, nil
	case NoiseGaussian, NoisePoisson, NoiseSaltPepper:
		return NoiseKind(s), nil
	case "salt_pepper", "saltpepper":
		return NoiseSaltPepper, nil
	}
	for i, k := range NoiseKinds {
		if s == fmt.Sprint(i) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown noise kind %q", s)
}

// AddNoise returns a corrupted copy of v. The input is never modified.
func AddNoise(v volume.Volume, n Noise) (*volume.Dense, error) {
	out := volume.Clone(v)
	data := out.Values()
	src := rand.NewPCG(n.Seed, n.Seed^0x9e3779b97f4a7c15)

	switch n.Kind {
	case "", NoiseNone:
		return out, nil

	case NoiseGaussian:
		if n.Level < 0 {
			return nil, fmt.Errorf("gaussian variance must be non-negative, got %g", n.Level)
		}
		dist := distuv.Normal{Mu: 0, Sigma: math.Sqrt(n.Level), Src: src}
		for i := range data {
			data[i] += dist.Rand()
		}

	case NoisePoisson:
		if n.Level <= 0 {
			return nil, fmt.Errorf("poisson peak must be positive, got %g", n.Level)
		}
		for i, x := range data {
			lambda := x * n.Level
			if lambda <= 0 {
				data[i] = 0
				continue
			}
			data[i] = distuv.Poisson{Lambda: lambda, Src: src}.Rand() / n.Level
		}

	case NoiseSaltPepper:
		if n.Level < 0 || n.Level > 1 {
			return nil, fmt.Errorf("salt-and-pepper amount must be in [0, 1], got %g", n.Level)
		}
		r := volume.MinMax(data)
		rng := rand.New(src)
		for i := range data {
			if rng.Float64() >= n.Level {
				continue
			}
			if rng.IntN(2) == 0 {
				data[i] = r.Min
			} else {
				data[i] = r.Max
			}
		}

	default:
		return nil, fmt.Errorf("unknown noise kind %q", n.Kind)
	}

	if n.Clip {
		for i, x := range data {
			data[i] = math.Max(0, math.Min(1, x))
		}
	}
	return out, nil
}
