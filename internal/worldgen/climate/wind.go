package climate

import (
	"math"

	"planetgen/internal/spatial"
)

// buildWind solves E6's per-cell pressure gradient via a one-dimensional
// least-squares fit against each tangent direction, then E7's
// geostrophic approximation: rotate the (negated) pressure-gradient
// force by a latitude-dependent angle standing in for the Coriolis
// deflection the teacher's CalculateWind hard-codes as fixed per-band
// offsets.
func buildWind(mesh *spatial.Mesh, pressure []float64, season Season) (windE, windN, windSpeed []float64) {
	n := mesh.N
	windE = make([]float64, n)
	windN = make([]float64, n)
	windSpeed = make([]float64, n)

	sin5 := math.Sin(5 * math.Pi / 180)

	for r := 0; r < n; r++ {
		east, north := tangentFrame(mesh.Positions[r])
		pos := mesh.Positions[r]

		sumDE2, sumDEDPE := 0.0, 0.0
		sumDN2, sumDEDPN := 0.0, 0.0
		for _, nb := range mesh.Neighbors(r) {
			delta := mesh.Positions[nb].Sub(pos)
			dpE := delta.Dot(east)
			dpN := delta.Dot(north)
			de := pressure[nb] - pressure[r]

			sumDEDPE += de * dpE
			sumDE2 += dpE * dpE
			sumDEDPN += de * dpN
			sumDN2 += dpN * dpN
		}
		gradE, gradN := 0.0, 0.0
		if sumDE2 > 1e-9 {
			gradE = sumDEDPE / sumDE2
		}
		if sumDN2 > 1e-9 {
			gradN = sumDEDPN / sumDN2
		}

		pgfE, pgfN := -gradE, -gradN

		lat := mesh.Latitude(r)
		sinLat := math.Sin(lat * math.Pi / 180)
		theta := 70*smoothstep(0, sin5, math.Abs(sinLat)) - 20
		if theta < 0 {
			theta = 0
		}
		sign := 1.0
		if lat >= 0 {
			sign = -1.0
		}
		angle := theta * sign * math.Pi / 180

		cosA, sinA := math.Cos(angle), math.Sin(angle)
		rotE := pgfE*cosA - pgfN*sinA
		rotN := pgfE*sinA + pgfN*cosA

		windE[r] = rotE * 0.6
		windN[r] = rotN * 0.6
		windSpeed[r] = math.Hypot(windE[r], windN[r])
	}

	p95 := percentile95(windSpeed)
	if p95 > 1e-9 {
		for r := range windSpeed {
			windE[r] /= p95
			windN[r] /= p95
			windSpeed[r] = clamp01(windSpeed[r] / p95)
		}
	}
	_ = season
	return windE, windN, windSpeed
}
