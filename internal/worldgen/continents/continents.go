// Package continents assigns ocean/land status to whole plates. It
// builds a plate-adjacency graph the way the teacher's
// orchestrator.generateMinerals walks plate.Region membership with
// topology.GetNeighbor to enumerate boundary cells between plates, then
// grows continents across that graph with an area budget in the style
// of geography.ocean.go's AssignOceanLand percentile-budget sea level,
// retargeted from a cell-elevation percentile to a plate-area budget.
package continents

import (
	"math"
	"math/rand"

	"planetgen/internal/apperr"
	"planetgen/internal/debug"
	"planetgen/internal/rng"
	"planetgen/internal/spatial"
	"planetgen/internal/worldgen/plates"
)

// PlateFeatures holds the per-plate geometric summary stage B derives
// from the plate assignment before growing continents.
type PlateFeatures struct {
	Area         int
	Centroid     spatial.Vector3D
	Perimeter    int
	Compactness  float64 // normalized to [0, 1] by the global max
}

// Result holds stage B's outputs.
type Result struct {
	PlateIsOcean map[int]bool // keyed by plate index
	Adjacency    [][]int      // plate-adjacency graph, keyed by plate index
	Features     []PlateFeatures
}

// Assign selects numContinents plates as continent seeds and grows land
// across the plate-adjacency graph up to an area budget of
// 0.3*numRegions, then absorbs trapped inland seas.
func Assign(mesh *spatial.Mesh, plateResult *plates.Result, seed int64, numContinents int) (*Result, error) {
	if plateResult == nil || len(plateResult.Plates) == 0 {
		return nil, apperr.NewInvalidInput("continents: no plates to assign")
	}
	if numContinents <= 0 {
		return nil, apperr.NewInvalidInput("continents: numContinents must be positive, got %d", numContinents)
	}
	defer debug.Time(debug.Plates, "continents.Assign")()

	r := rng.Stream(seed, "continents")
	numPlates := len(plateResult.Plates)

	adjacency := buildPlateAdjacency(mesh, plateResult, numPlates)
	features := computePlateFeatures(mesh, plateResult, adjacency, numPlates)

	targetArea := 0.3 * float64(mesh.N)
	growthTarget := 0.9 * targetArea

	seeds := continentSeeds(features, numContinents, targetArea, r)

	assignment := make([]int, numPlates) // -1 = unassigned, else continent index
	for i := range assignment {
		assignment[i] = -1
	}
	for ci, s := range seeds {
		assignment[s] = ci
	}

	growContinents(adjacency, features, assignment, len(seeds), growthTarget, r)
	absorbTrappedSeas(adjacency, features, assignment, targetArea)

	result := &Result{
		PlateIsOcean: make(map[int]bool, numPlates),
		Adjacency:    adjacency,
		Features:     features,
	}
	for i := 0; i < numPlates; i++ {
		result.PlateIsOcean[i] = assignment[i] == -1
	}
	return result, nil
}

func buildPlateAdjacency(mesh *spatial.Mesh, plateResult *plates.Result, numPlates int) [][]int {
	seen := make([]map[int]bool, numPlates)
	for i := range seen {
		seen[i] = make(map[int]bool)
	}
	for r := 0; r < mesh.N; r++ {
		pr := int(plateResult.RPlate[r])
		for _, nb := range mesh.Neighbors(r) {
			pn := int(plateResult.RPlate[nb])
			if pn != pr {
				seen[pr][pn] = true
			}
		}
	}
	adjacency := make([][]int, numPlates)
	for i := range adjacency {
		for other := range seen[i] {
			adjacency[i] = append(adjacency[i], other)
		}
	}
	return adjacency
}

func computePlateFeatures(mesh *spatial.Mesh, plateResult *plates.Result, adjacency [][]int, numPlates int) []PlateFeatures {
	features := make([]PlateFeatures, numPlates)
	sums := make([]spatial.Vector3D, numPlates)
	boundary := make([]map[int]bool, numPlates)
	for i := range boundary {
		boundary[i] = make(map[int]bool)
	}

	for r := 0; r < mesh.N; r++ {
		pr := int(plateResult.RPlate[r])
		features[pr].Area++
		sums[pr] = sums[pr].Add(mesh.Positions[r])
		for _, nb := range mesh.Neighbors(r) {
			if int(plateResult.RPlate[nb]) != pr {
				boundary[pr][r] = true
			}
		}
	}

	maxCompact := 0.0
	for i := 0; i < numPlates; i++ {
		if features[i].Area > 0 {
			features[i].Centroid = sums[i].Scale(1 / float64(features[i].Area)).Normalize()
		}
		features[i].Perimeter = len(boundary[i])
		if features[i].Perimeter > 0 {
			raw := math.Sqrt(float64(features[i].Area)) / float64(features[i].Perimeter)
			features[i].Compactness = raw
			if raw > maxCompact {
				maxCompact = raw
			}
		}
	}
	if maxCompact > 0 {
		for i := range features {
			features[i].Compactness /= maxCompact
		}
	}
	_ = adjacency
	return features
}

func continentSeeds(features []PlateFeatures, numContinents int, targetArea float64, r *rand.Rand) []int {
	n := len(features)
	if numContinents > n {
		numContinents = n
	}
	minCentroidDist := make([]float64, n)
	for i := range minCentroidDist {
		minCentroidDist[i] = math.Inf(1)
	}

	numRegions := 0.0
	numPlatesFloat := float64(n)
	for _, f := range features {
		numRegions += float64(f.Area)
	}

	first := r.Intn(n)
	seeds := []int{first}
	updateMinCentroidDist(features, minCentroidDist, first)

	for len(seeds) < numContinents {
		type cand struct {
			idx   int
			score float64
		}
		top := make([]cand, 0, 3)
		for i := 0; i < n; i++ {
			if features[i].Area == 0 || contains(seeds, i) {
				continue
			}
			areaFactor := math.Sqrt(numRegions/numPlatesFloat) / math.Sqrt(math.Max(1, float64(features[i].Area)))
			score := minCentroidDist[i] * minCentroidDist[i] * areaFactor * math.Max(0.01, features[i].Compactness)
			c := cand{i, score}
			inserted := false
			for j := 0; j < len(top); j++ {
				if c.score > top[j].score {
					top = append(top, cand{})
					copy(top[j+1:], top[j:len(top)-1])
					top[j] = c
					inserted = true
					break
				}
			}
			if !inserted && len(top) < 3 {
				top = append(top, c)
			}
			if len(top) > 3 {
				top = top[:3]
			}
		}
		if len(top) == 0 {
			break
		}
		pick := top[r.Intn(len(top))]
		seeds = append(seeds, pick.idx)
		updateMinCentroidDist(features, minCentroidDist, pick.idx)
	}

	// Drop the largest seed while combined area exceeds 0.3*numRegions.
	for {
		total := 0
		for _, s := range seeds {
			total += features[s].Area
		}
		if float64(total) <= targetArea || len(seeds) <= 1 {
			break
		}
		largestIdx, largestArea := 0, -1
		for i, s := range seeds {
			if features[s].Area > largestArea {
				largestArea = features[s].Area
				largestIdx = i
			}
		}
		seeds = append(seeds[:largestIdx], seeds[largestIdx+1:]...)
	}
	return seeds
}

func updateMinCentroidDist(features []PlateFeatures, minDist []float64, seed int) {
	sc := features[seed].Centroid
	for i := range minDist {
		if features[i].Area == 0 {
			continue
		}
		d := sc.Distance(features[i].Centroid)
		if d < minDist[i] {
			minDist[i] = d
		}
	}
}

func contains(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func growContinents(adjacency [][]int, features []PlateFeatures, assignment []int, numContinents int, growthTarget float64, r *rand.Rand) {
	landArea := func() float64 {
		total := 0
		for i, a := range assignment {
			if a != -1 {
				total += features[i].Area
			}
		}
		return float64(total)
	}

	for landArea() < growthTarget {
		progress := false
		for c := 0; c < numContinents; c++ {
			type cand struct {
				plate int
				score float64
			}
			top := make([]cand, 0, 3)
			for p := range assignment {
				if assignment[p] != -1 {
					continue
				}
				touchesOther := false
				sameTouch := 0
				for _, nb := range adjacency[p] {
					if assignment[nb] == c {
						sameTouch++
					} else if assignment[nb] != -1 {
						touchesOther = true
					}
				}
				if sameTouch == 0 || touchesOther {
					continue
				}
				score := float64(sameTouch) + 3*features[p].Compactness + 0.5*r.Float64()
				cd := cand{p, score}
				inserted := false
				for j := 0; j < len(top); j++ {
					if cd.score > top[j].score {
						top = append(top, cand{})
						copy(top[j+1:], top[j:len(top)-1])
						top[j] = cd
						inserted = true
						break
					}
				}
				if !inserted && len(top) < 3 {
					top = append(top, cd)
				}
				if len(top) > 3 {
					top = top[:3]
				}
			}
			if len(top) == 0 {
				continue
			}
			pick := top[r.Intn(len(top))]
			assignment[pick.plate] = c
			progress = true
			if landArea() >= growthTarget {
				break
			}
		}
		if !progress {
			break
		}
	}
}

func absorbTrappedSeas(adjacency [][]int, features []PlateFeatures, assignment []int, targetArea float64) {
	n := len(assignment)
	visited := make([]bool, n)
	var components [][]int
	for i := 0; i < n; i++ {
		if assignment[i] != -1 || visited[i] || features[i].Area == 0 {
			continue
		}
		queue := []int{i}
		visited[i] = true
		var comp []int
		for head := 0; head < len(queue); head++ {
			cur := queue[head]
			comp = append(comp, cur)
			for _, nb := range adjacency[cur] {
				if assignment[nb] == -1 && !visited[nb] {
					visited[nb] = true
					queue = append(queue, nb)
				}
			}
		}
		components = append(components, comp)
	}
	if len(components) == 0 {
		return
	}

	largest := 0
	largestArea := -1
	for ci, comp := range components {
		area := 0
		for _, p := range comp {
			area += features[p].Area
		}
		if area > largestArea {
			largestArea = area
			largest = ci
		}
	}

	landArea := func() float64 {
		total := 0
		for i, a := range assignment {
			if a != -1 {
				total += features[i].Area
			}
		}
		return float64(total)
	}

	for ci, comp := range components {
		if ci == largest {
			continue
		}
		borderingContinents := make(map[int]bool)
		for _, p := range comp {
			for _, nb := range adjacency[p] {
				if assignment[nb] != -1 {
					borderingContinents[assignment[nb]] = true
				}
			}
		}
		if len(borderingContinents) != 1 {
			continue
		}
		var only int
		for c := range borderingContinents {
			only = c
		}
		compArea := 0
		for _, p := range comp {
			compArea += features[p].Area
		}
		if landArea()+float64(compArea) <= 1.1*targetArea {
			for _, p := range comp {
				assignment[p] = only
			}
		}
	}
}
