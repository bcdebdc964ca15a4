// Package noise wraps github.com/aquilax/go-perlin the way the teacher's
// geography.PerlinGenerator does, and adds the fractal compositions
// (fBm, ridged fBm, domain warp) the elevation and climate stages layer
// on top of raw Perlin noise.
package noise

import (
	"github.com/aquilax/go-perlin"
)

// Generator produces 3D Perlin noise and fractal compositions of it.
// The 3D form (rather than the teacher's 2D Noise2D) is used throughout
// this pipeline because regions are points on a sphere, not cells on a
// grid; sampling noise at (x, y, z) avoids the seams a 2D lat/lon
// parameterization would introduce at the poles and the date line.
type Generator struct {
	p *perlin.Perlin
}

// NewGenerator creates a noise generator seeded for reproducibility.
// alpha/beta/n follow the teacher's NewPerlinGenerator defaults
// (amplitude weight 2, lacunarity 2, 3 base octaves); fBm and ridged
// fBm add further octaves on top of this base generator.
func NewGenerator(seed int64) *Generator {
	return &Generator{p: perlin.NewPerlin(2, 2, 3, seed)}
}

// Noise3D returns a value in [-1, 1].
func (g *Generator) Noise3D(x, y, z float64) float64 {
	return g.p.Noise3D(x, y, z)
}

// FBm computes fractional Brownian motion: octaves of noise at
// doubling frequency and halving amplitude (by default), summed and
// renormalized to [-1, 1].
func (g *Generator) FBm(x, y, z float64, octaves int, lacunarity, gain float64) float64 {
	sum := 0.0
	amplitude := 1.0
	frequency := 1.0
	max := 0.0
	for o := 0; o < octaves; o++ {
		sum += g.p.Noise3D(x*frequency, y*frequency, z*frequency) * amplitude
		max += amplitude
		amplitude *= gain
		frequency *= lacunarity
	}
	if max == 0 {
		return 0
	}
	return sum / max
}

// RidgedFBm computes ridged fractal noise: each octave is folded around
// zero (1 - |noise|) before being summed, producing sharp ridge lines
// rather than smooth hills. Used for mountain-range and mid-ocean-ridge
// elevation layers. Returns a value in roughly [0, 1].
func (g *Generator) RidgedFBm(x, y, z float64, octaves int, lacunarity, gain float64) float64 {
	sum := 0.0
	amplitude := 0.5
	frequency := 1.0
	max := 0.0
	for o := 0; o < octaves; o++ {
		n := g.p.Noise3D(x*frequency, y*frequency, z*frequency)
		ridge := 1 - abs(n)
		ridge *= ridge
		sum += ridge * amplitude
		max += amplitude
		amplitude *= gain
		frequency *= lacunarity
	}
	if max == 0 {
		return 0
	}
	return sum / max
}

// DomainWarp perturbs the sample point with a second noise field before
// evaluating fn, breaking up the axis-aligned regularity a single
// fractal layer can show.
func (g *Generator) DomainWarp(x, y, z, strength float64, fn func(x, y, z float64) float64) float64 {
	wx := x + g.p.Noise3D(x+37.2, y-11.7, z+5.1)*strength
	wy := y + g.p.Noise3D(x-5.4, y+91.3, z-3.2)*strength
	wz := z + g.p.Noise3D(x+13.8, y+2.6, z+71.9)*strength
	return fn(wx, wy, wz)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
