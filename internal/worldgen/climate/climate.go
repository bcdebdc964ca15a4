// Package climate builds the seasonal wind, ocean-current,
// precipitation, and temperature fields (stages E-H). The band-driven
// wind/pressure shape generalizes the teacher's weather.wind.go
// Hadley/Ferrel/polar-cell banding and weather.pressure.go ITCZ-centered
// pressure synthesis from a flat lat/lon sample to the mesh's per-region
// geometry; everything here is computed twice, once per season, the
// way climate_generator_spherical.go iterates a fixed season set.
package climate

import (
	"math"
	"sort"

	"planetgen/internal/apperr"
	"planetgen/internal/debug"
	"planetgen/internal/noise"
	"planetgen/internal/spatial"
	"planetgen/internal/worldgen/continents"
	"planetgen/internal/worldgen/elevation"
	"planetgen/internal/worldgen/plates"
	"planetgen/internal/worldgen/terrain"
)

// Season is the signed hemisphere-shift used throughout stage E-H:
// +1 for northern-hemisphere summer, -1 for northern-hemisphere winter.
type Season int

const (
	Summer Season = 1
	Winter Season = -1
)

// SeasonalField holds every per-region array computed once per season.
type SeasonalField struct {
	Pressure        []float64
	WindE, WindN    []float64
	WindSpeed       []float64
	CurrentE        []float64
	CurrentN        []float64
	CurrentSpeed    []float64
	Warmth          []float64
	Precipitation   []float64
	Temperature     []float64
}

// Result holds stage E-H's outputs.
type Result struct {
	ITCZSummer             []float64 // 72 longitude samples, signed latitude degrees
	ITCZWinter             []float64
	ContinentalityLand     []float64
	ContinentalityPlate    []float64
	Summer                 SeasonalField
	Winter                 SeasonalField
}

// Params controls the noise seed shared across the climate stages.
type Params struct {
	Seed int64
}

const (
	geoLatBins = 36
	geoLonBins = 72
)

// Generate computes the full E-H seasonal climate pair from the
// post-terrain elevation field.
func Generate(mesh *spatial.Mesh, plateResult *plates.Result, continentResult *continents.Result, elevationResult *elevation.Result, terrainResult *terrain.Result, params Params) (*Result, error) {
	if mesh == nil || mesh.N == 0 {
		return nil, apperr.NewInvalidInput("climate: empty mesh")
	}
	if plateResult == nil || continentResult == nil || elevationResult == nil || terrainResult == nil {
		return nil, apperr.NewInvalidInput("climate: missing upstream pipeline state")
	}
	defer debug.Time(debug.Climate, "climate.Generate")()

	n := mesh.N
	elev := terrainResult.RElevation
	isLand := make([]bool, n)
	for r := 0; r < n; r++ {
		isLand[r] = !elevationResult.OceanR[r]
	}

	avgEdgeKm := math.Pi * 6371 / math.Sqrt(float64(n))
	nz := noise.NewGenerator(params.Seed)

	grid := buildGeoGrid(mesh, isLand, elev)
	itczSummer := buildITCZ(mesh, Summer, grid)
	itczWinter := buildITCZ(mesh, Winter, grid)

	contLand := buildLandContinentality(mesh, isLand, avgEdgeKm)
	contPlate := buildPlateContinentality(mesh, plateResult, continentResult, avgEdgeKm)

	result := &Result{
		ITCZSummer:          itczSummer,
		ITCZWinter:          itczWinter,
		ContinentalityLand:  contLand,
		ContinentalityPlate: contPlate,
	}

	result.Summer = generateSeason(mesh, isLand, elev, grid, itczSummer, contLand, contPlate, avgEdgeKm, nz, Summer)
	result.Winter = generateSeason(mesh, isLand, elev, grid, itczWinter, contLand, contPlate, avgEdgeKm, nz, Winter)

	return result, nil
}

func generateSeason(mesh *spatial.Mesh, isLand []bool, elev []float64, grid *geoGrid, itcz []float64, contLand, contPlate []float64, avgEdgeKm float64, nz *noise.Generator, season Season) SeasonalField {
	pressure := buildPressure(mesh, isLand, elev, grid, itcz, contLand, avgEdgeKm, nz, season)
	windE, windN, windSpeed := buildWind(mesh, pressure, season)
	currentE, currentN, currentSpeed, warmth := buildOceanCurrents(mesh, isLand, windE, windN, avgEdgeKm, season)
	precip := buildPrecipitation(mesh, isLand, elev, windE, windN, pressure, warmth, contLand, itcz, avgEdgeKm)
	temp := buildTemperature(mesh, isLand, elev, itcz, warmth, currentSpeed, precip, contLand, contPlate)

	return SeasonalField{
		Pressure:      pressure,
		WindE:         windE,
		WindN:         windN,
		WindSpeed:     windSpeed,
		CurrentE:      currentE,
		CurrentN:      currentN,
		CurrentSpeed:  currentSpeed,
		Warmth:        warmth,
		Precipitation: precip,
		Temperature:   temp,
	}
}

// elevKm is the single pure elevation-to-kilometers mapping shared by
// the pressure barometric term and the temperature lapse-rate term, so
// the two stages never drift apart on what "one unit of elevation"
// means physically.
func elevKm(e float64) float64 {
	if e >= 0 {
		return math.Pow(e, 1.3) * 9
	}
	return e * 6
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

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func smoothstep(edge0, edge1, x float64) float64 {
	if edge0 == edge1 {
		if x < edge0 {
			return 0
		}
		return 1
	}
	t := clamp01((x - edge0) / (edge1 - edge0))
	return t * t * (3 - 2*t)
}

func gaussian(x, sigma float64) float64 {
	return math.Exp(-0.5 * (x / sigma) * (x / sigma))
}

// tangentFrame is E3's literal basis: east = normalize(z, 0, -x) with a
// pole fallback, north = position x east. This differs intentionally
// from spatial.Mesh.TangentFrame (used by the elevation stage's hotspot
// chains), which the spec does not constrain the same way.
func tangentFrame(p spatial.Vector3D) (east, north spatial.Vector3D) {
	east = spatial.Vector3D{X: p.Z, Y: 0, Z: -p.X}
	if east.Length() < 1e-9 {
		east = spatial.Vector3D{X: 1, Y: 0, Z: 0}
	} else {
		east = east.Normalize()
	}
	north = p.Cross(east).Normalize()
	return east, north
}

func percentile95(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	idx := int(0.95 * float64(len(sorted)-1))
	return sorted[idx]
}

func normalizeByPercentile(values []float64) []float64 {
	p95 := percentile95(values)
	out := make([]float64, len(values))
	if p95 <= 1e-9 {
		return out
	}
	for i, v := range values {
		out[i] = clamp01(v / p95)
	}
	return out
}

// laplacianSmooth averages each masked cell with its masked neighbors,
// `passes` times, leaving unmasked cells untouched and not contributing
// to their neighbors' averages.
func laplacianSmooth(mesh *spatial.Mesh, field []float64, mask []bool, passes int) {
	n := mesh.N
	for pass := 0; pass < passes; pass++ {
		next := append([]float64(nil), field...)
		for r := 0; r < n; r++ {
			if mask != nil && !mask[r] {
				continue
			}
			sum, count := 0.0, 0
			for _, nb := range mesh.Neighbors(r) {
				if mask != nil && !mask[nb] {
					continue
				}
				sum += field[nb]
				count++
			}
			if count == 0 {
				continue
			}
			next[r] = 0.5*field[r] + 0.5*(sum/float64(count))
		}
		copy(field, next)
	}
}

func largestOceanComponent(mesh *spatial.Mesh, isLand []bool) []bool {
	n := mesh.N
	visited := make([]bool, n)
	var components [][]int
	for r := 0; r < n; r++ {
		if isLand[r] || visited[r] {
			continue
		}
		queue := []int{r}
		visited[r] = true
		var comp []int
		for head := 0; head < len(queue); head++ {
			cur := queue[head]
			comp = append(comp, cur)
			for _, nb := range mesh.Neighbors(cur) {
				if !isLand[nb] && !visited[nb] {
					visited[nb] = true
					queue = append(queue, nb)
				}
			}
		}
		components = append(components, comp)
	}
	openOcean := make([]bool, n)
	if len(components) == 0 {
		return openOcean
	}
	largest, largestLen := 0, -1
	for i, comp := range components {
		if len(comp) > largestLen {
			largestLen = len(comp)
			largest = i
		}
	}
	for _, r := range components[largest] {
		openOcean[r] = true
	}
	return openOcean
}
