// Package worldgen is deterministic world generation from three seeded
// noise bundles sampled over a rectangular region/tile grid, with each
// bundle's octave/frequency/persistence parameters stored per-world
// instead of hardcoded.
package worldgen

import (
	opensimplex "github.com/ojrac/opensimplex-go"

	"terraforming-mars-backend/internal/model"
)

// fractal evaluates a persistence-weighted sum of octaves doubling in
// frequency each step, scaled by bundle.Scale.
//
//	Σ_{k=0..octaves-1} amplitude·persistence^k · noise(x·frequency·2^k, y·frequency·2^k)
func fractal(noise opensimplex.Noise, x, y float64, bundle model.NoiseBundle) float64 {
	total := 0.0
	amplitude := bundle.Amplitude
	frequency := bundle.Frequency
	for k := 0; k < bundle.Octaves; k++ {
		total += amplitude * noise.Eval2(x*frequency, y*frequency)
		amplitude *= bundle.Persistence
		frequency *= 2
	}
	return total * bundle.Scale
}

// noiseSet is the three independent generators a world's seed derives, one
// per climate axis, each offset so the three layers are not simple
// translations of each other.
type noiseSet struct {
	elevation     opensimplex.Noise
	precipitation opensimplex.Noise
	temperature   opensimplex.Noise
}

func newNoiseSet(seed int64) noiseSet {
	return noiseSet{
		elevation:     opensimplex.New(seed),
		precipitation: opensimplex.New(seed + 1),
		temperature:   opensimplex.New(seed + 2),
	}
}

// sample evaluates all three climate axes at one tile coordinate.
func (n noiseSet) sample(x, y int, world model.World) (elevation, precipitation, temperature float64) {
	fx, fy := float64(x), float64(y)
	elevation = fractal(n.elevation, fx, fy, world.Elevation)
	precipitation = fractal(n.precipitation, fx, fy, world.Precipitation)
	temperature = fractal(n.temperature, fx, fy, world.Temperature)
	return
}

// perturb draws a small, deterministic [-spread, spread] offset for a
// per-resource quality perturbation, reusing the elevation generator at a
// resource-specific offset coordinate so no extra noise instance or RNG is
// needed.
func perturb(n opensimplex.Noise, x, y int, resourceIndex, spread float64) float64 {
	v := n.Eval2(float64(x)*0.37+resourceIndex*131.0, float64(y)*0.37+resourceIndex*57.0)
	return v * spread
}
