package climate

import (
	"math"

	"planetgen/internal/noise"
	"planetgen/internal/spatial"
)

// buildPressure assembles E5's additive pressure field: an ITCZ low
// riding the season's real ITCZ curve, subtropical/subpolar/polar
// centers at fixed latitude bands, a continental thermal modifier, a
// barometric elevation term, and a noise texture, each centered the way
// the teacher's GeneratePressureMap composes one baseline plus
// modifiers rather than solving a PDE.
func buildPressure(mesh *spatial.Mesh, isLand []bool, elev []float64, grid *geoGrid, itcz []float64, contLand []float64, avgEdgeKm float64, nz *noise.Generator, season Season) []float64 {
	n := mesh.N
	seasonSign := float64(season)
	pressure := make([]float64, n)

	for r := 0; r < n; r++ {
		lat := mesh.Latitude(r)
		lon := mesh.Longitude(r)
		p := 1013.0

		itczLat := itczAt(itcz, lon)
		p += -15 * gaussian(lat-itczLat, 8)

		landFrac, _ := grid.sample(lat, lon, 10)
		for _, sign := range []float64{1, -1} {
			center := sign * (30 + 5*seasonSign)
			p += 12 * (1 - 0.3*landFrac) * gaussian(lat-center, 10)
		}
		for _, sign := range []float64{1, -1} {
			center := sign * 60.0
			p += -10 * gaussian(lat-center, 10)
		}
		for _, sign := range []float64{1, -1} {
			center := sign * 85.0
			p += 8 * gaussian(lat-center, 8)
		}

		latShape := continentalLatShape(math.Abs(lat))
		contStrength := smoothstep(0.2, 0.5, contLand[r]) * latShape
		if season == Summer {
			p += -10 * contStrength
		} else {
			p += 14 * contStrength
		}

		p += -3 * elevKm(elev[r])

		pos := mesh.Positions[r]
		p += 2 * nz.FBm(pos.X*2, pos.Y*2, pos.Z*2, 3, 2, 0.5)

		pressure[r] = p
	}

	passes := int(math.Round(75 / avgEdgeKm))
	if passes < 1 {
		passes = 1
	}
	if passes > 12 {
		passes = 12
	}
	laplacianSmooth(mesh, pressure, nil, passes)
	return pressure
}

// continentalLatShape is zero below 15 degrees, rises to 1 across
// 45-60 degrees, and falls back to zero at the pole.
func continentalLatShape(absLat float64) float64 {
	rising := smoothstep(15, 45, absLat)
	falling := 1 - smoothstep(60, 90, absLat)
	return rising * falling
}
