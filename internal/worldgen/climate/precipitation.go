package climate

import (
	"math"

	"planetgen/internal/spatial"
)

// buildPrecipitation blends G's physical wind-convergence/moisture-
// advection model with a zonal heuristic, 50/50, then normalizes by the
// 95th percentile the same way wind speed and current speed are.
func buildPrecipitation(mesh *spatial.Mesh, isLand []bool, elev []float64, windE, windN []float64, pressure, warmth, contLand, itcz []float64, avgEdgeKm float64) []float64 {
	n := mesh.N

	convergence := windConvergence(mesh, windE, windN, avgEdgeKm)
	moisture := moistureAdvection(mesh, isLand, elev, windE, windN, warmth, avgEdgeKm)

	physical := make([]float64, n)
	for r := 0; r < n; r++ {
		lat := mesh.Latitude(r)
		lon := mesh.Longitude(r)
		itczLat := itczAt(itcz, lon)

		p := 0.0
		if math.Abs(lat-itczLat) < 15 {
			p += 0.5 * (1 - math.Abs(lat-itczLat)/15)
		}
		p += 0.4 * clamp01(convergence[r]*0.5+0.5)
		p += 0.35 * moisture[r]

		if isLand[r] {
			windSpeed := math.Hypot(windE[r], windN[r])
			if windSpeed > 0.05 {
				// Positive on windward slopes (orographic boost),
				// negative in the lee (rain shadow).
				facing := windward(mesh, r, windE, windN, elev)
				p += 0.3 * facing * windSpeed
			}
			subtropicalSuppression := smoothstep(20, 32, math.Abs(lat)) * (1 - smoothstep(32, 40, math.Abs(lat)))
			p -= 0.25 * subtropicalSuppression * clamp01((pressure[r]-1013)/15)

			if math.Abs(lat) > 40 {
				p += 0.15
			}
			p -= 0.3 * contLand[r]
		} else {
			p += 0.15 * (1 - clamp01((pressure[r]-1013)/15))
		}

		physical[r] = clamp01(p)
	}
	laplacianSmooth(mesh, physical, nil, maxInt(1, int(math.Round(100/avgEdgeKm))))

	heuristic := make([]float64, n)
	for r := 0; r < n; r++ {
		lat := mesh.Latitude(r)
		lon := mesh.Longitude(r)
		itczLat := itczAt(itcz, lon)
		dist := math.Abs(lat - itczLat)

		base := zonalPrecipBase(dist)
		seasonal := 1.0
		continental := 1 - 0.5*contLand[r]
		heuristic[r] = clamp01(base * seasonal * continental)
	}

	out := make([]float64, n)
	for r := 0; r < n; r++ {
		out[r] = clamp01(0.5*physical[r] + 0.5*heuristic[r])
	}
	return normalizeByPercentile(out)
}

func zonalPrecipBase(distFromItczDeg float64) float64 {
	switch {
	case distFromItczDeg < 10:
		return 1.0
	case distFromItczDeg < 30:
		return lerpClamp(1.0, 0.02, (distFromItczDeg-10)/20)
	case distFromItczDeg < 55:
		return lerpClamp(0.02, 0.5, (distFromItczDeg-30)/25)
	default:
		return 0.1
	}
}

func windConvergence(mesh *spatial.Mesh, windE, windN []float64, avgEdgeKm float64) []float64 {
	n := mesh.N
	out := make([]float64, n)
	for r := 0; r < n; r++ {
		pos := mesh.Positions[r]
		sum, count := 0.0, 0
		for _, nb := range mesh.Neighbors(r) {
			dir := mesh.Positions[nb].Sub(pos).Normalize()
			east, north := tangentFrame(pos)
			dirE, dirN := dir.Dot(east), dir.Dot(north)
			nbProj := windE[nb]*dirE + windN[nb]*dirN
			selfProj := windE[r]*dirE + windN[r]*dirN
			sum += nbProj - selfProj
			count++
		}
		if count > 0 {
			out[r] = sum / float64(count)
		}
	}
	passes := maxInt(1, int(math.Round(600/avgEdgeKm)))
	laplacianSmooth(mesh, out, nil, passes)
	return out
}

func moistureAdvection(mesh *spatial.Mesh, isLand []bool, elev []float64, windE, windN []float64, warmth []float64, avgEdgeKm float64) []float64 {
	n := mesh.N
	moisture := make([]float64, n)
	for r := 0; r < n; r++ {
		if isLand[r] {
			coastal := false
			for _, nb := range mesh.Neighbors(r) {
				if !isLand[nb] {
					coastal = true
					break
				}
			}
			if coastal {
				onshore := 0.25
				if windward(mesh, r, windE, windN, elev) > 0 {
					onshore = 1
				}
				avgWarmth := 0.0
				count := 0
				for _, nb := range mesh.Neighbors(r) {
					if !isLand[nb] {
						avgWarmth += warmth[nb]
						count++
					}
				}
				if count > 0 {
					avgWarmth /= float64(count)
				}
				moisture[r] = onshore * (0.5 + 0.5*avgWarmth)
			}
		} else {
			moisture[r] = 0.4 + 0.35*math.Max(0, warmth[r])
		}
	}

	maxHops := int(clampf(math.Round(2000/avgEdgeKm), 8, 20))
	depletionBase := 1 - math.Pow(0.78, 1/float64(maxHops))

	for hop := 0; hop < maxHops; hop++ {
		next := append([]float64(nil), moisture...)
		for r := 0; r < n; r++ {
			if !isLand[r] {
				continue
			}
			pos := mesh.Positions[r]
			weightedSum, weightTotal := 0.0, 0.0
			for _, nb := range mesh.Neighbors(r) {
				dirFromNb := pos.Sub(mesh.Positions[nb]).Normalize()
				east, north := tangentFrame(mesh.Positions[nb])
				weight := windE[nb]*dirFromNb.Dot(east) + windN[nb]*dirFromNb.Dot(north)
				if weight <= 0 {
					continue
				}
				weightedSum += weight * moisture[nb]
				weightTotal += weight
			}
			if weightTotal <= 0 {
				continue
			}
			received := weightedSum / weightTotal
			heightGain := math.Max(0, elev[r]-avgNeighborElev(mesh, r, elev))
			depletion := depletionBase + math.Min(0.8, 0.55*heightGain*float64(maxHops))
			next[r] = math.Max(0, received*(1-depletion)+moisture[r]*depletion*0.2)
		}
		copy(moisture, next)
	}
	return moisture
}

func avgNeighborElev(mesh *spatial.Mesh, r int, elev []float64) float64 {
	sum, count := 0.0, 0
	for _, nb := range mesh.Neighbors(r) {
		sum += elev[nb]
		count++
	}
	if count == 0 {
		return elev[r]
	}
	return sum / float64(count)
}

// windward returns a signed measure of how directly the local wind
// blows into rising terrain: positive on windward slopes, negative in
// the lee.
func windward(mesh *spatial.Mesh, r int, windE, windN []float64, elev []float64) float64 {
	pos := mesh.Positions[r]
	best := 0.0
	for _, nb := range mesh.Neighbors(r) {
		dirToNb := mesh.Positions[nb].Sub(pos).Normalize()
		east, north := tangentFrame(pos)
		dirE, dirN := dirToNb.Dot(east), dirToNb.Dot(north)
		windTowardNb := windE[r]*dirE + windN[r]*dirN
		if windTowardNb <= 0 {
			continue
		}
		slope := elev[nb] - elev[r]
		score := windTowardNb * slope
		if math.Abs(score) > math.Abs(best) {
			best = score
		}
	}
	return best
}
