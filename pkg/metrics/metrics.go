// Package metrics compares a reconstructed or denoised volume against a
// reference.
package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"volslicer/pkg/volume"
)

// DefaultDataRange is the peak value assumed for intensities in [0, 1].
const DefaultDataRange = 1.0

// IdenticalPSNR is returned by PSNR when the inputs are equal. The true
// value is infinite.
const IdenticalPSNR = 1000.0

// Report holds the fidelity metrics of one comparison.
type Report struct {
	// PSNR in decibels, IdenticalPSNR for equal inputs
	PSNR float64

	// MSE is the mean squared error
	MSE float64

	// RMSE is the root mean square error
	RMSE float64

	// SSIM is the global structural similarity index in [-1, 1]
	SSIM float64
}

func (r Report) String() string {
	return fmt.Sprintf("PSNR %.2f dB, RMSE %.6f, SSIM %.4f", r.PSNR, r.RMSE, r.SSIM)
}

// MSE computes the mean squared error between two volumes of the same shape.
func MSE(a, b volume.Volume) (float64, error) {
	if !volume.SameShape(a, b) {
		return 0, fmt.Errorf("%w: %v vs %v", volume.ErrShapeMismatch, a.Shape(), b.Shape())
	}
	x, y := a.Values(), b.Values()
	if len(x) == 0 {
		return 0, nil
	}
	d := floats.Distance(x, y, 2)
	return d * d / float64(len(x)), nil
}

// PSNR computes the peak signal-to-noise ratio of b against a:
// 20*log10(dataRange/sqrt(MSE)). Identical inputs give IdenticalPSNR.
func PSNR(a, b volume.Volume, dataRange float64) (float64, error) {
	mse, err := MSE(a, b)
	if err != nil {
		return 0, err
	}
	return psnrFromMSE(mse, dataRange), nil
}

func psnrFromMSE(mse, dataRange float64) float64 {
	if mse == 0 {
		return IdenticalPSNR
	}
	return 20 * math.Log10(dataRange/math.Sqrt(mse))
}

// RMSE computes the root mean square error
func RMSE(a, b volume.Volume) (float64, error) {
	mse, err := MSE(a, b)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// SSIM computes a single-window structural similarity index over all samples.
func SSIM(a, b volume.Volume, dataRange float64) (float64, error) {
	if !volume.SameShape(a, b) {
		return 0, fmt.Errorf("%w: %v vs %v", volume.ErrShapeMismatch, a.Shape(), b.Shape())
	}
	return ssim(a.Values(), b.Values(), dataRange), nil
}

func ssim(x, y []float64, dataRange float64) float64 {
	const k1 = 0.01
	const k2 = 0.03

	if len(x) < 2 {
		return 0
	}

	c1 := (k1 * dataRange) * (k1 * dataRange)
	c2 := (k2 * dataRange) * (k2 * dataRange)

	muX := stat.Mean(x, nil)
	muY := stat.Mean(y, nil)
	sigmaX := stat.Variance(x, nil)
	sigmaY := stat.Variance(y, nil)
	sigmaXY := stat.Covariance(x, y, nil)

	num := (2*muX*muY + c1) * (2*sigmaXY + c2)
	den := (muX*muX + muY*muY + c1) * (sigmaX + sigmaY + c2)
	if den > 0 {
		return num / den
	}
	return 0
}

// Compare computes every metric of b against the reference a.
func Compare(reference, test volume.Volume, dataRange float64) (Report, error) {
	mse, err := MSE(reference, test)
	if err != nil {
		return Report{}, err
	}
	return Report{
		PSNR: psnrFromMSE(mse, dataRange),
		MSE:  mse,
		RMSE: math.Sqrt(mse),
		SSIM: ssim(reference.Values(), test.Values(), dataRange),
	}, nil
}
