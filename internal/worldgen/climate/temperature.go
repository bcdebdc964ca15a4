package climate

import (
	"math"

	"planetgen/internal/spatial"
)

// buildTemperature assembles H's ITCZ-anchored baseline, lapse rate,
// ocean-warmth influence, cloud moderation, and a maritime damping
// factor before a final smoothing and normalization pass.
func buildTemperature(mesh *spatial.Mesh, isLand []bool, elev []float64, itcz []float64, warmth, currentSpeed, precip, contLand, contPlate []float64) []float64 {
	n := mesh.N
	temp := make([]float64, n)
	baseline := make([]float64, n)

	for r := 0; r < n; r++ {
		lat := mesh.Latitude(r)
		lon := mesh.Longitude(r)

		itczLat := itczAt(itcz, lon)
		tItcz := itczCurve(lat - itczLat)
		tFlat := itczCurve(lat - 5)

		blend := smoothstep(45, 90, math.Abs(lat))
		t := tItcz*(1-blend) + tFlat*blend
		t += -6.5 * elevKm(elev[r])

		baseline[r] = itczCurve(lat) - 6.5*elevKm(elev[r])
		temp[r] = t
	}

	for r := 0; r < n; r++ {
		if !isLand[r] {
			temp[r] += warmth[r] * math.Min(1, 2*currentSpeed[r]) * 10
		}
	}

	coastalWarmth := make([]float64, n)
	coastalMask := make([]bool, n)
	for r := 0; r < n; r++ {
		if !isLand[r] {
			coastalWarmth[r] = warmth[r]
			coastalMask[r] = true
			continue
		}
		if contPlate[r] < 0.8 {
			coastalMask[r] = true
		}
	}
	laplacianSmooth(mesh, coastalWarmth, coastalMask, 8)
	for r := 0; r < n; r++ {
		if !isLand[r] {
			continue
		}
		weight := (1 - smoothstep(0, 0.8, contPlate[r])) * 12
		temp[r] += coastalWarmth[r] * weight
	}

	for r := 0; r < n; r++ {
		p := precip[r]
		if p > 0.5 {
			temp[r] *= 1 - smoothstep(0.5, 1, p)*0.15
		} else if p < 0.3 {
			temp[r] *= 1 + smoothstep(0.3, 0, p)*0.15
		}
	}

	for r := 0; r < n; r++ {
		deviation := temp[r] - baseline[r]
		maritime := 0.35 + 0.85*contLand[r]
		temp[r] = baseline[r] + deviation*maritime
	}

	laplacianSmooth(mesh, temp, nil, 1)

	out := make([]float64, n)
	for r := 0; r < n; r++ {
		out[r] = clamp01((temp[r] - (-45)) / 90)
	}
	return out
}

// itczCurve is H1's formula, reused for both the real and fixed-ITCZ
// baselines: a 27 degree peak decaying toward the poles.
func itczCurve(distFromItczDeg float64) float64 {
	d := math.Abs(distFromItczDeg)
	return 27 - 55*math.Pow(math.Max(0, (d-11)/79), 1.5)
}
