// Package elevation builds r_elevation as a sum of independently
// computed layers: plate-boundary collision detection and stress
// propagation generalize the teacher's tectonics.go
// CalculateBoundaryType/calculateEquilibriumElevationChange and
// applyBoundaryEffectSpherical BFS-with-falloff; hotspot chains
// generalize volcanism.go's ApplyHotspots/ApplyVolcanoSpherical; the
// noise layers reuse the teacher's Perlin composition style
// (heightmap.go) through internal/noise's fBm/ridged-fBm additions.
package elevation

import (
	"math"
	"math/rand"
	"sort"

	"planetgen/internal/apperr"
	"planetgen/internal/debug"
	"planetgen/internal/noise"
	"planetgen/internal/rng"
	"planetgen/internal/spatial"
	"planetgen/internal/worldgen/continents"
	"planetgen/internal/worldgen/plates"
)

// BoundaryType classifies the interaction at a plate boundary cell.
type BoundaryType int

const (
	BoundaryNone BoundaryType = iota
	BoundaryConvergent
	BoundaryDivergent
	BoundaryTransform
)

// BoundaryReport is additive telemetry adapting the teacher's
// seismology.go CalculateSeismicActivity into a per-boundary-cell
// magnitude estimate derived from the same convergent/divergent/
// transform classification this stage already computes; it does not
// add a new simulated field, only an observational summary of one.
type BoundaryReport struct {
	Region    int
	Type      BoundaryType
	Magnitude float64 // 0-1, derived from stress and subduction factor
}

// DebugLayers exposes each additive elevation sub-contribution for
// visualization, per the spec's output contract.
type DebugLayers struct {
	Base          []float64
	Stress        []float64
	Noise         []float64
	CoastalRough  []float64
	IslandArcs    []float64
	Hotspots      []float64
}

// Result holds stage C's outputs.
type Result struct {
	RElevation      []float64
	RStress         []float64
	RBoundaryType   []BoundaryType
	RSubductFactor  []float64
	MountainR       map[int]bool
	CoastlineR      map[int]bool
	OceanR          map[int]bool
	PlateDensity    map[int]float64
	BoundaryReports []BoundaryReport
	Debug           DebugLayers
}

// Params controls the noise-driven layers.
type Params struct {
	Seed  int64
	NMag  float64 // noise amplitude for elevation layers

	// DensityOverride, if non-nil, replaces the random per-plate crustal
	// density sample for the given plate indices. editRecompute uses
	// this to apply caller-supplied densities without needing a new
	// seed draw.
	DensityOverride map[int]float64
}

// Generate computes signed per-region elevation from plate collisions,
// stress propagation, randomized-order distance fields, and a layered
// additive composition of tectonic and noise contributions.
func Generate(mesh *spatial.Mesh, plateResult *plates.Result, continentResult *continents.Result, params Params) (*Result, error) {
	if mesh == nil || mesh.N == 0 {
		return nil, apperr.NewInvalidInput("elevation: empty mesh")
	}
	if plateResult == nil || continentResult == nil {
		return nil, apperr.NewInvalidInput("elevation: missing plate or continent state")
	}
	defer debug.Time(debug.Elevation, "elevation.Generate")()

	r := rng.Stream(params.Seed, "elevation")
	n := mesh.N

	plateDensity := assignPlateDensity(plateResult, continentResult, r)
	for plateIdx, density := range params.DensityOverride {
		plateDensity[plateIdx] = density
	}

	result := &Result{
		RElevation:     make([]float64, n),
		RStress:        make([]float64, n),
		RBoundaryType:  make([]BoundaryType, n),
		RSubductFactor: make([]float64, n),
		MountainR:      make(map[int]bool),
		CoastlineR:     make(map[int]bool),
		OceanR:         make(map[int]bool),
		PlateDensity:   plateDensity,
	}

	dt := 0.01 / math.Max(1, math.Sqrt(float64(n)/10000))
	detectCollisions(mesh, plateResult, plateDensity, result, dt, r)
	propagateStress(mesh, plateResult, result)

	fields := computeDistanceFields(mesh, result)

	nz := noise.NewGenerator(params.Seed)
	composeBaseElevation(mesh, result, fields)
	addLandOceanLayers(mesh, plateResult, plateDensity, result, fields, nz, params.NMag)
	roughenCoastline(mesh, result, fields, nz)
	addIslandArcs(mesh, result, fields, nz)
	addHotspots(mesh, plateResult, result, nz, r)
	compressPeaks(result)

	classifyCells(mesh, plateResult, plateDensity, result)
	buildBoundaryReports(result)

	return result, nil
}

// assignPlateDensity samples each plate's crustal density within the
// ranges the spec fixes for collision weighting: ocean 3.0-3.5, land
// 2.4-2.9.
func assignPlateDensity(plateResult *plates.Result, continentResult *continents.Result, r *rand.Rand) map[int]float64 {
	density := make(map[int]float64, len(plateResult.Plates))
	for i := range plateResult.Plates {
		if continentResult.PlateIsOcean[i] {
			density[i] = 3.0 + r.Float64()*0.5
		} else {
			density[i] = 2.4 + r.Float64()*0.5
		}
	}
	return density
}

// detectCollisions picks, for each region, the cross-plate neighbor
// that maximizes compression under a small displacement along each
// plate's drift vector, recording stress and classifying the boundary
// type from the relative-velocity/boundary-normal projection.
func detectCollisions(mesh *spatial.Mesh, plateResult *plates.Result, density map[int]float64, result *Result, dt float64, r *rand.Rand) {
	for region := 0; region < mesh.N; region++ {
		myPlate := int(plateResult.RPlate[region])
		myPos := mesh.Positions[region]
		bestNb, bestCompression := -1, -math.MaxFloat64

		for _, nb := range mesh.Neighbors(region) {
			nbPlate := int(plateResult.RPlate[nb])
			if nbPlate == myPlate {
				continue
			}
			nbPos := mesh.Positions[nb]
			dBefore := myPos.Distance(nbPos)

			myVel := plateResult.Plates[myPlate].DriftVec
			nbVel := plateResult.Plates[nbPlate].DriftVec
			myAfter := myPos.Add(myVel.Scale(dt)).Normalize()
			nbAfter := nbPos.Add(nbVel.Scale(dt)).Normalize()
			dAfter := myAfter.Distance(nbAfter)

			compression := dBefore - dAfter
			if compression > bestCompression {
				bestCompression = compression
				bestNb = nb
			}
		}
		if bestNb == -1 {
			continue
		}
		if bestCompression <= 0.75*dt {
			continue
		}

		nbPlate := int(plateResult.RPlate[bestNb])
		intensity := 0.5 + 1.0*hashUnit(region, bestNb)
		result.RStress[region] = compression01(bestCompression, dt) * intensity

		boundaryNormal := mesh.Positions[bestNb].Sub(mesh.Positions[region]).Normalize()
		relVel := plateResult.Plates[myPlate].DriftVec.Sub(plateResult.Plates[nbPlate].DriftVec)
		normalComp := -relVel.Dot(boundaryNormal)

		switch {
		case normalComp > 0.3*dt:
			result.RBoundaryType[region] = BoundaryConvergent
		case normalComp < -0.3*dt:
			result.RBoundaryType[region] = BoundaryDivergent
		default:
			result.RBoundaryType[region] = BoundaryTransform
		}

		myDensity := density[myPlate]
		nbDensity := density[nbPlate]
		delta := myDensity - nbDensity
		subduct := 0.5 + 0.5*math.Tanh(8*delta) + hashUnit(bestNb, region)*0.4*math.Exp(-12*math.Abs(delta))
		result.RSubductFactor[region] = clamp01(subduct)
	}
	_ = r
}

func compression01(compression, dt float64) float64 {
	if dt == 0 {
		return 0
	}
	return compression / dt
}

// hashUnit derives a deterministic, pair-dependent value in [0, 1] from
// two region indices, used where the spec calls for a stable
// pair-dependent intensity without consuming the stage RNG stream.
func hashUnit(a, b int) float64 {
	h := uint64(a)*2654435761 + uint64(b)*40503 + 1
	h ^= h >> 33
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	return float64(h%1000000) / 1000000.0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// propagateStress runs frontier BFS from stressed cells, same-plate
// only, decaying geometrically per step, stopping below a small
// threshold. This generalizes the teacher's applyBoundaryEffectSpherical
// BFS-with-falloff to the spec's spread/decay formula.
func propagateStress(mesh *spatial.Mesh, plateResult *plates.Result, result *Result) {
	n := mesh.N
	spread := 1.0
	decay := math.Pow(0.5+0.04*spread, 1/math.Max(1e-6, math.Sqrt(float64(n)/10000)))
	passes := int(math.Round(3 * spread * math.Sqrt(float64(n)/10000)))
	if passes < 1 {
		passes = 1
	}

	current := make([]float64, n)
	copy(current, result.RStress)

	for pass := 0; pass < passes; pass++ {
		next := make([]float64, n)
		copy(next, current)
		for r := 0; r < n; r++ {
			if current[r] < 0.005 {
				continue
			}
			plate := plateResult.RPlate[r]
			d := decay
			if result.RSubductFactor[r] > 0.5 {
				d *= 0.45
			}
			propagated := current[r] * d
			if propagated < 0.005 {
				continue
			}
			for _, nb := range mesh.Neighbors(r) {
				if plateResult.RPlate[nb] != plate {
					continue
				}
				if propagated > next[nb] {
					next[nb] = propagated
				}
			}
		}
		current = next
	}
	result.RStress = current
}

// distanceFields collects the randomized-order BFS distance fields
// stage C4-C7 consume.
type distanceFields struct {
	mountain    []float64
	ocean       []float64
	coastline   []float64
	openCoast   []float64
	landCoast   []float64
	rift        []float64
	ridge       []float64
	backArc     []float64
	islandArc   []float64
	isOceanCell []bool
}

func computeDistanceFields(mesh *spatial.Mesh, result *Result) *distanceFields {
	n := mesh.N
	isOcean := make([]bool, n)
	for r := 0; r < n; r++ {
		// Before base elevation exists, approximate ocean/land from
		// subduction-aware boundary classification: regions with no
		// detected boundary default to land, refined once elevation's
		// sign is known later in the pipeline (see classifyCells).
		isOcean[r] = result.RBoundaryType[r] == BoundaryConvergent && result.RSubductFactor[r] > 0.6
	}

	var mountainSeeds, oceanSeeds, riftSeeds, ridgeSeeds, backArcSeeds, islandArcSeeds []int
	for r := 0; r < n; r++ {
		switch result.RBoundaryType[r] {
		case BoundaryConvergent:
			if result.RStress[r] > 0.3 {
				mountainSeeds = append(mountainSeeds, r)
			}
			islandArcSeeds = append(islandArcSeeds, r)
			backArcSeeds = append(backArcSeeds, r)
		case BoundaryDivergent:
			riftSeeds = append(riftSeeds, r)
			ridgeSeeds = append(ridgeSeeds, r)
		}
		if isOcean[r] {
			oceanSeeds = append(oceanSeeds, r)
		}
	}
	if len(mountainSeeds) == 0 {
		mountainSeeds = []int{0}
	}
	if len(oceanSeeds) == 0 {
		oceanSeeds = []int{n - 1}
	}

	f := &distanceFields{isOceanCell: isOcean}
	f.mountain = randomFillBFS(mesh, mountainSeeds, nil)
	f.ocean = randomFillBFS(mesh, oceanSeeds, nil)
	stopSet := unionSeeds(mountainSeeds, oceanSeeds)
	f.coastline = randomFillBFS(mesh, stopSet, nil)
	f.rift = randomFillBFS(mesh, riftSeeds, nil)
	f.ridge = randomFillBFS(mesh, ridgeSeeds, nil)
	f.backArc = randomFillBFS(mesh, backArcSeeds, nil)
	f.islandArc = randomFillBFS(mesh, islandArcSeeds, nil)

	f.openCoast = make([]float64, n)
	f.landCoast = make([]float64, n)
	for r := 0; r < n; r++ {
		if isOcean[r] {
			for _, nb := range mesh.Neighbors(r) {
				if !isOcean[nb] {
					f.openCoast[r] = 1
					break
				}
			}
		} else {
			for _, nb := range mesh.Neighbors(r) {
				if isOcean[nb] {
					f.landCoast[r] = 1
					break
				}
			}
		}
	}
	return f
}

func unionSeeds(a, b []int) []int {
	set := make(map[int]bool, len(a)+len(b))
	for _, x := range a {
		set[x] = true
	}
	for _, x := range b {
		set[x] = true
	}
	out := make([]int, 0, len(set))
	for x := range set {
		out = append(out, x)
	}
	sort.Ints(out)
	return out
}

// randomFillBFS computes a hop-distance field via BFS, but pops the
// frontier at a uniformly random remaining position rather than FIFO
// order, producing organic (non-perfectly-circular) distance contours.
// An explicit Open Question in the spec notes this ordering is not
// required to be bit-reproducible across implementations; this one is
// reproducible because it draws from the given stream or, when r is nil
// (as at every call in this package), from a stream derived from the
// seed count, and its callers pass seeds in a fixed order.
func randomFillBFS(mesh *spatial.Mesh, seeds []int, r *rand.Rand) []float64 {
	if r == nil {
		r = rng.Stream(int64(len(seeds))+1, "randomfill")
	}
	n := mesh.N
	dist := make([]float64, n)
	visited := make([]bool, n)
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	queue := make([]int, 0, len(seeds))
	for _, s := range seeds {
		if !visited[s] {
			visited[s] = true
			dist[s] = 0
			queue = append(queue, s)
		}
	}
	for len(queue) > 0 {
		idx := r.Intn(len(queue))
		cur := queue[idx]
		queue[idx] = queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		for _, nb := range mesh.Neighbors(cur) {
			if !visited[nb] {
				visited[nb] = true
				dist[nb] = dist[cur] + 1
				queue = append(queue, nb)
			}
		}
	}
	return dist
}

func composeBaseElevation(mesh *spatial.Mesh, result *Result, fields *distanceFields) {
	eps := 1e-6
	for r := 0; r < mesh.N; r++ {
		asymmetry := 1 + 0.8*(result.RSubductFactor[r]-0.5)
		a := fields.mountain[r]*asymmetry + eps
		b := fields.ocean[r] + eps
		c := fields.coastline[r] + eps
		base := (1/a - 1/b) / (1/a + 1/b + 1/c) * 0.6
		result.RElevation[r] = base
	}
	result.Debug.Base = append([]float64(nil), result.RElevation...)
}

func addLandOceanLayers(mesh *spatial.Mesh, plateResult *plates.Result, density map[int]float64, result *Result, fields *distanceFields, nz *noise.Generator, nMag float64) {
	if nMag <= 0 {
		nMag = 1
	}
	noiseLayer := make([]float64, mesh.N)
	for r := 0; r < mesh.N; r++ {
		p := mesh.Positions[r]
		sf := result.RSubductFactor[r]
		stress := result.RStress[r]

		if result.RElevation[r] >= 0 { // tentative land cell
			e := result.RElevation[r]
			if sf > 0.5 {
				e *= 1 - 0.42*(sf-0.5)*2
			}
			heightVarNoise := nz.FBm(p.X*3, p.Y*3, p.Z*3, 3, 2, 0.5)
			e += stress * heightVarNoise * 0.3
			if stress < 0.1 {
				e -= 0.03 * (0.1 - stress)
			}

			if fields.rift[r] <= 0.5 {
				e += -0.15 + nz.RidgedFBm(p.X*6, p.Y*6, p.Z*6, 3, 2, 0.5)*0.1
			} else if fields.rift[r] <= 3 {
				shoulder := 3.0
				e += lerp(-0.15, 0.03, fields.rift[r]/shoulder)
			}

			if fields.backArc[r] <= 4 {
				bell := math.Exp(-0.5 * math.Pow(fields.backArc[r]/2, 2))
				e -= 0.05 * bell
			}

			warped := nz.DomainWarp(p.X*4, p.Y*4, p.Z*4, 0.6, func(x, y, z float64) float64 {
				return nz.FBm(x, y, z, 4, 2, 0.5)
			})
			ridged := nz.RidgedFBm(p.X*5, p.Y*5, p.Z*5, 4, 2, 0.5)
			blend := math.Min(1, 3*stress)
			e += nMag * 0.15 * (warped*(1-blend) + ridged*blend)

			coastDist := fields.landCoastDist(r)
			interiorUplift := smoothstep(0, 8, coastDist)
			e += lerp(-0.08, 0.22, interiorUplift) * clamp01(stress*2)

			result.RElevation[r] = e
			noiseLayer[r] = warped
		} else { // tentative ocean cell
			cd := fields.openCoast[r]
			oceanCoastDist := fields.ocean[r]
			depth := oceanDepthProfile(oceanCoastDist)

			ridgeFalloff := 1.0 / (1.0 + fields.ridge[r]*fields.ridge[r])
			ridgeUplift := ridgeFalloff * (0.3 + 0.2*nz.RidgedFBm(p.X*8, p.Y*8, p.Z*8, 3, 2, 0.5))

			fractureDepression := -0.02 * math.Max(0, 6-fields.ridge[r])

			trench := 0.0
			if result.RBoundaryType[r] == BoundaryConvergent {
				trench = -0.15 - 0.15*stress
			}

			backArc := 0.0
			if fields.backArc[r] <= 4 {
				backArc = -0.04 * math.Exp(-0.5*math.Pow(fields.backArc[r]/2, 2))
			}

			lowFreq := nz.FBm(p.X*1.5, p.Y*1.5, p.Z*1.5, 3, 2, 0.5) * 0.03

			e := depth + ridgeUplift + fractureDepression + trench + backArc + lowFreq
			result.RElevation[r] = e
			noiseLayer[r] = lowFreq
			_ = cd
		}
	}
	result.Debug.Noise = noiseLayer
}

// landCoastDist exposes the land-only coast distance field for the
// tectonic-aware interior-uplift term.
func (f *distanceFields) landCoastDist(r int) float64 {
	if f.landCoast[r] == 1 {
		return 0
	}
	return f.coastline[r]
}

func oceanDepthProfile(coastDist float64) float64 {
	switch {
	case coastDist <= 5:
		return lerp(-0.04, -0.10, coastDist/5)
	case coastDist <= 12:
		return lerp(-0.10, -0.35, (coastDist-5)/7)
	default:
		return -0.35
	}
}

func lerp(a, b, t float64) float64 {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return a + (b-a)*t
}

func smoothstep(edge0, edge1, x float64) float64 {
	t := clamp01((x - edge0) / (edge1 - edge0))
	return t * t * (3 - 2*t)
}

func roughenCoastline(mesh *spatial.Mesh, result *Result, fields *distanceFields, nz *noise.Generator) {
	band := make([]float64, mesh.N)
	for r := 0; r < mesh.N; r++ {
		d := fields.coastline[r]
		if d > 8 {
			continue
		}
		falloff := 1 - d/8
		active := result.RBoundaryType[r] == BoundaryConvergent
		freq := 12.0
		amp := 0.08
		if active {
			freq = 18.0
			amp = 0.12
		}
		p := mesh.Positions[r]
		rough := nz.FBm(p.X*freq, p.Y*freq, p.Z*freq, 3, 2, 0.5) * amp * falloff * falloff
		result.RElevation[r] += rough
		band[r] = rough

		if result.RElevation[r] < 0 && !activeSubductionNearby(result, mesh, r) {
			island := nz.RidgedFBm(p.X*10, p.Y*10, p.Z*10, 3, 2, 0.5)
			if island > 0.75 {
				result.RElevation[r] += (island - 0.75) * 0.4
			}
		}
	}
	result.Debug.CoastalRough = band
}

func activeSubductionNearby(result *Result, mesh *spatial.Mesh, r int) bool {
	for _, nb := range mesh.Neighbors(r) {
		if result.RBoundaryType[nb] == BoundaryConvergent && result.RSubductFactor[nb] > 0.6 {
			return true
		}
	}
	return false
}

func addIslandArcs(mesh *spatial.Mesh, result *Result, fields *distanceFields, nz *noise.Generator) {
	layer := make([]float64, mesh.N)
	for r := 0; r < mesh.N; r++ {
		d := fields.islandArc[r]
		if d > 5 {
			continue
		}
		p := mesh.Positions[r]
		ridge := nz.RidgedFBm(p.X*9, p.Y*9, p.Z*9, 3, 2, 0.5)
		if ridge < 0.6 {
			continue
		}
		gauss := math.Exp(-0.5 * math.Pow((d-1.5)/1.0, 2))
		uplift := (ridge - 0.6) * 0.5 * gauss
		result.RElevation[r] += uplift
		layer[r] = uplift
	}
	result.Debug.IslandArcs = layer
}

func addHotspots(mesh *spatial.Mesh, plateResult *plates.Result, result *Result, nz *noise.Generator, r *rand.Rand) {
	layer := make([]float64, mesh.N)
	hotspotCount := 5
	for h := 0; h < hotspotCount; h++ {
		center := r.Intn(mesh.N)
		plate := int(plateResult.RPlate[center])
		drift := plateResult.Plates[plate].DriftVec
		chainLen := 4 + r.Intn(5)

		pos := mesh.Positions[center]
		east, north := mesh.TangentFrame(center)
		axis := pos.Cross(drift.Scale(-1)).Normalize()
		if axis.Length() < 1e-6 {
			axis = east
		}
		_ = north

		isOceanCenter := result.RElevation[center] < 0
		strengthMul := 1.0
		if isOceanCenter {
			strengthMul = 1.8
		}

		domeCenter := pos
		for d := 0; d < chainLen; d++ {
			strength := (0.12 + 0.06*r.Float64()) * strengthMul
			sigma := 0.08 + 0.04*r.Float64()
			decay := math.Pow(0.85, float64(d))

			wobble := (r.Float64()*2 - 1) * 0.4
			rotAxis := domeCenter.Cross(axis).Normalize()
			wobbled := domeCenter.RotateAround(rotAxis, wobble)
			domeCenter = wobbled.RotateAround(axis, 0.06).Normalize()

			cos5sigma := math.Cos(5 * sigma)
			for cell := 0; cell < mesh.N; cell++ {
				cosAngle := mesh.Positions[cell].Dot(domeCenter)
				if cosAngle < cos5sigma {
					continue
				}
				angle := math.Acos(clamp(cosAngle, -1, 1))
				uplift := strength * decay * math.Exp(-0.5*math.Pow(angle/sigma, 2))
				result.RElevation[cell] += uplift
				layer[cell] += uplift
			}
		}
	}
	result.Debug.Hotspots = layer
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func compressPeaks(result *Result) {
	for i, e := range result.RElevation {
		if e > 0 {
			result.RElevation[i] = math.Pow(e, 0.9)
		}
	}
}

func classifyCells(mesh *spatial.Mesh, plateResult *plates.Result, density map[int]float64, result *Result) {
	for r := 0; r < mesh.N; r++ {
		isOcean := result.RElevation[r] < 0
		result.OceanR[r] = isOcean
		if !isOcean {
			hasOceanNeighbor := false
			for _, nb := range mesh.Neighbors(r) {
				if result.RElevation[nb] < 0 {
					hasOceanNeighbor = true
					break
				}
			}
			if hasOceanNeighbor {
				result.CoastlineR[r] = true
			}
		}
		if result.RStress[r] > 0.4 && !isOcean {
			result.MountainR[r] = true
		}
	}
}

func buildBoundaryReports(result *Result) {
	for r, bt := range result.RBoundaryType {
		if bt == BoundaryNone {
			continue
		}
		magnitude := clamp01(result.RStress[r]*0.7 + result.RSubductFactor[r]*0.3)
		result.BoundaryReports = append(result.BoundaryReports, BoundaryReport{
			Region:    r,
			Type:      bt,
			Magnitude: magnitude,
		})
	}
}
