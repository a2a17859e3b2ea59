package phantom_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volslicer/pkg/metrics"
	"volslicer/pkg/phantom"
	"volslicer/pkg/volume"
)

func TestSheppLogan3D(t *testing.T) {
	v, err := phantom.SheppLogan3D(32)
	require.NoError(t, err)
	assert.Equal(t, []int{32, 32, 32}, v.Shape())
	assert.Equal(t, 2, v.Labels()["horizontal_x"])

	r := volume.MinMax(v.Values())
	assert.InDelta(t, 0.0, r.Min, 1e-9)
	assert.LessOrEqual(t, r.Max, 1.0+1e-9)

	// The corner is outside the skull, the centre is brain tissue.
	corner, err := v.At(0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, corner)
	centre, err := v.At(16, 16, 16)
	require.NoError(t, err)
	assert.Greater(t, centre, 0.0)

	_, err = phantom.SheppLogan3D(1)
	assert.ErrorIs(t, err, volume.ErrBadShape)
}

func TestSphere(t *testing.T) {
	v, err := phantom.Sphere(16, 0.5)
	require.NoError(t, err)

	inside, err := v.At(8, 8, 8)
	require.NoError(t, err)
	assert.Equal(t, 1.0, inside)

	outside, err := v.At(0, 8, 8)
	require.NoError(t, err)
	assert.Equal(t, 0.0, outside)
}

func TestAddNoiseReproducible(t *testing.T) {
	v, err := phantom.Sphere(12, 0.5)
	require.NoError(t, err)

	for _, kind := range phantom.NoiseKinds {
		t.Run(string(kind), func(t *testing.T) {
			n := phantom.Noise{Kind: kind, Level: phantom.DefaultLevel(kind), Seed: 10}
			a, err := phantom.AddNoise(v, n)
			require.NoError(t, err)
			b, err := phantom.AddNoise(v, n)
			require.NoError(t, err)
			assert.Equal(t, a.Values(), b.Values())

			psnr, err := metrics.PSNR(v, a, 1)
			require.NoError(t, err)
			assert.Less(t, psnr, metrics.IdenticalPSNR)
		})
	}
}

func TestAddNoiseLeavesInput(t *testing.T) {
	v, err := phantom.Sphere(8, 0.5)
	require.NoError(t, err)
	before := append([]float64(nil), v.Values()...)

	_, err = phantom.AddNoise(v, phantom.Noise{Kind: phantom.NoiseGaussian, Level: 0.1, Seed: 1})
	require.NoError(t, err)
	assert.Equal(t, before, v.Values())
}

func TestAddNoiseClip(t *testing.T) {
	v, err := phantom.Sphere(8, 0.5)
	require.NoError(t, err)

	noisy, err := phantom.AddNoise(v, phantom.Noise{Kind: phantom.NoiseGaussian, Level: 1, Seed: 3, Clip: true})
	require.NoError(t, err)
	r := volume.MinMax(noisy.Values())
	assert.GreaterOrEqual(t, r.Min, 0.0)
	assert.LessOrEqual(t, r.Max, 1.0)
}

func TestAddNoiseErrors(t *testing.T) {
	v, err := phantom.Sphere(4, 0.5)
	require.NoError(t, err)

	_, err = phantom.AddNoise(v, phantom.Noise{Kind: phantom.NoiseSaltPepper, Level: 2})
	assert.Error(t, err)
	_, err = phantom.AddNoise(v, phantom.Noise{Kind: phantom.NoisePoisson, Level: 0})
	assert.Error(t, err)
	_, err = phantom.AddNoise(v, phantom.Noise{Kind: "speckle"})
	assert.Error(t, err)
}

func TestParseNoiseKind(t *testing.T) {
	k, err := phantom.ParseNoiseKind("1")
	require.NoError(t, err)
	assert.Equal(t, phantom.NoisePoisson, k)

	k, err = phantom.ParseNoiseKind("gaussian")
	require.NoError(t, err)
	assert.Equal(t, phantom.NoiseGaussian, k)

	k, err = phantom.ParseNoiseKind("")
	require.NoError(t, err)
	assert.Equal(t, phantom.NoiseNone, k)

	_, err = phantom.ParseNoiseKind("7")
	assert.Error(t, err)
}
