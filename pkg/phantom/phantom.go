// Package phantom generates synthetic test volumes and corrupts them with
// reproducible noise, for exercising the viewer and the fidelity metrics.
package phantom

import (
	"fmt"
	"math"

	"volslicer/internal/models"
	"volslicer/pkg/volume"
)

// Ellipsoid is one additive component of a phantom. Centres and semi-axes
// are in normalised coordinates where the volume spans [-1, 1] on each axis.
type Ellipsoid struct {
	Intensity  float64
	A, B, C    float64 // semi-axes along x, y, z
	X0, Y0, Z0 float64
	Phi        float64 // rotation about z in degrees
}

// SheppLoganEllipsoids is the modified 3D Shepp-Logan head phantom with
// intensities in [0, 1]. Out-of-plane tilts are omitted.
var SheppLoganEllipsoids = []Ellipsoid{
	{Intensity: 1, A: .6900, B: .920, C: .810},
	{Intensity: -.8, A: .6624, B: .874, C: .780, Y0: -.0184},
	{Intensity: -.2, A: .1100, B: .310, C: .220, X0: .22, Phi: -18},
	{Intensity: -.2, A: .1600, B: .410, C: .280, X0: -.22, Phi: 18},
	{Intensity: .1, A: .2100, B: .250, C: .410, Y0: .35, Z0: -.15},
	{Intensity: .1, A: .0460, B: .046, C: .050, Y0: .1, Z0: .25},
	{Intensity: .1, A: .0460, B: .046, C: .050, Y0: -.1, Z0: .25},
	{Intensity: .1, A: .0460, B: .023, C: .050, X0: -.08, Y0: -.605},
	{Intensity: .1, A: .0230, B: .023, C: .020, Y0: -.606},
	{Intensity: .1, A: .0230, B: .046, C: .020, X0: .06, Y0: -.605},
}

// SheppLogan3D renders the modified Shepp-Logan phantom on an n^3 grid.
func SheppLogan3D(n int) (*volume.Dense, error) {
	return Ellipsoids(n, SheppLoganEllipsoids)
}

// Sphere renders a centred ball of the given radius (fraction of the half
// width) with value 1 inside and 0 outside.
func Sphere(n int, radius float64) (*volume.Dense, error) {
	return Ellipsoids(n, []Ellipsoid{{Intensity: 1, A: radius, B: radius, C: radius}})
}

// Ellipsoids sums the given components on an n^3 grid with shape
// (z, y, x) labelled vertical, horizontal_y, horizontal_x.
func Ellipsoids(n int, parts []Ellipsoid) (*volume.Dense, error) {
	if n < 2 {
		return nil, fmt.Errorf("%w: phantom size %d", volume.ErrBadShape, n)
	}

	vol, err := volume.NewDense([]int{n, n, n}, nil)
	if err != nil {
		return nil, err
	}
	if err := vol.SetLabels(models.StackLabels...); err != nil {
		return nil, err
	}

	data := vol.Values()
	coord := func(i int) float64 { return 2*(float64(i)+0.5)/float64(n) - 1 }

	for _, e := range parts {
		sin, cos := math.Sincos(e.Phi * math.Pi / 180)
		for z := 0; z < n; z++ {
			dz := (coord(z) - e.Z0) / e.C
			for y := 0; y < n; y++ {
				py := coord(y) - e.Y0
				for x := 0; x < n; x++ {
					px := coord(x) - e.X0
					// rotate into the ellipsoid frame
					rx := (px*cos + py*sin) / e.A
					ry := (-px*sin + py*cos) / e.B
					if rx*rx+ry*ry+dz*dz <= 1 {
						data[(z*n+y)*n+x] += e.Intensity
					}
				}
			}
		}
	}
	return vol, nil
}
