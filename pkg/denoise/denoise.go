// Package denoise provides an iterative smoothing filter for volumes, used to
// demonstrate progress monitoring of iterative algorithms.
package denoise

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/floats"

	"volslicer/pkg/volume"
)

// Params configures Tikhonov smoothing.
type Params struct {
	// Lambda weights the smoothness term against fidelity to the input.
	Lambda float64

	// Step is the gradient descent step size. It must stay below
	// 2/(1+4*rank*Lambda) for the iteration to converge.
	Step float64

	// Iterations is the maximum number of updates.
	Iterations int

	// Tolerance stops the iteration once the relative update falls below it.
	Tolerance float64

	// NumCores bounds the goroutines used per update.
	NumCores int
}

// DefaultParams returns parameters suited to data in [0, 1].
func DefaultParams() Params {
	return Params{
		Lambda:     0.5,
		Step:       0.1,
		Iterations: 20,
		Tolerance:  1e-4,
		NumCores:   runtime.NumCPU(),
	}
}

// Callback receives every iteration's relative update and current estimate.
// Returning an error stops the iteration.
type Callback func(iteration int, residual float64, current *volume.Dense) error

// Tikhonov minimises 0.5*||x-y||^2 + 0.5*Lambda*||grad x||^2 by gradient
// descent starting from y, with reflecting boundaries. The input is never
// modified.
func Tikhonov(ctx context.Context, y volume.Volume, p Params, cb Callback) (*volume.Dense, error) {
	if p.Lambda < 0 {
		return nil, fmt.Errorf("lambda must be non-negative, got %g", p.Lambda)
	}
	if p.Step <= 0 {
		return nil, fmt.Errorf("step must be positive, got %g", p.Step)
	}
	if p.Iterations < 1 {
		return nil, fmt.Errorf("iterations must be positive, got %d", p.Iterations)
	}
	if p.NumCores < 1 {
		p.NumCores = 1
	}

	x := volume.Clone(y)
	obs := y.Values()
	shape := x.Shape()
	next := make([]float64, len(obs))

	for it := 1; it <= p.Iterations; it++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cur := x.Values()
		parallelRanges(len(cur), p.NumCores, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				grad := cur[i] - obs[i] - p.Lambda*laplacian(cur, shape, i)
				next[i] = cur[i] - p.Step*grad
			}
		})

		residual := floats.Distance(next, cur, 2)
		if norm := floats.Norm(cur, 2); norm > 0 {
			residual /= norm
		}
		copy(cur, next)

		if cb != nil {
			if err := cb(it, residual, x); err != nil {
				return nil, err
			}
		}
		if residual < p.Tolerance {
			break
		}
	}
	return x, nil
}

// laplacian is the discrete Laplacian of data at flat index i with
// reflecting boundaries on every axis.
func laplacian(data []float64, shape []int, i int) float64 {
	sum := 0.0
	stride := 1
	for d := len(shape) - 1; d >= 0; d-- {
		coord := (i / stride) % shape[d]
		if coord > 0 {
			sum += data[i-stride] - data[i]
		}
		if coord < shape[d]-1 {
			sum += data[i+stride] - data[i]
		}
		stride *= shape[d]
	}
	return sum
}

// parallelRanges splits [0, n) into contiguous chunks processed by up to
// workers goroutines and waits for all of them.
func parallelRanges(n, workers int, fn func(lo, hi int)) {
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		fn(0, n)
		return
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			fn(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}
