// Package plates grows tectonic plates over a spherical mesh's neighbor
// graph. It generalizes the teacher's geography.GeneratePlates (a
// Multi-Source BFS Voronoi assignment over a fixed cube-sphere grid) to
// farthest-point-sampled seeds with per-plate growth rate, direction
// bias and compactness control, rather than pure nearest-seed Voronoi.
package plates

import (
	"math"
	"math/rand"

	"planetgen/internal/apperr"
	"planetgen/internal/debug"
	"planetgen/internal/rng"
	"planetgen/internal/spatial"
)

// Plate is identified by its index in Result.Plates; Seed holds the
// region id of the plate's seed cell.
type Plate struct {
	Seed          int
	GrowthRate    float64
	GrowthDir     spatial.Vector3D
	DirAdherence  float64
	DriftVec      spatial.Vector3D
	RegionCount   int
}

// Result holds stage A's outputs.
type Result struct {
	RPlate []int32 // owning plate's index into Plates, per region
	Plates []Plate
}

// Generate grows P plates over mesh using farthest-point sampled seeds,
// round-robin biased-direction growth, an orphan sweep, boundary
// smoothing, and a BFS reconnect pass that repairs isthmuses severed by
// smoothing.
func Generate(mesh *spatial.Mesh, seed int64, p int) (*Result, error) {
	if mesh == nil || mesh.N == 0 {
		return nil, apperr.NewInvalidInput("plates: empty mesh")
	}
	if p <= 0 || p > mesh.N {
		return nil, apperr.NewInvalidInput("plates: plate count %d out of range for %d regions", p, mesh.N)
	}
	defer debug.Time(debug.Plates, "plates.Generate")()

	r := rng.Stream(seed, "plates")

	seeds := farthestPointSeeds(mesh, p, r)
	result := &Result{
		RPlate: make([]int32, mesh.N),
		Plates: make([]Plate, p),
	}
	for i := range result.RPlate {
		result.RPlate[i] = -1
	}

	expectedArea := float64(mesh.N) / float64(p)
	frontiers := make([][]int, p)
	for i, s := range seeds {
		rate := 0.7 + 2.3*r.Float64()*r.Float64() // squared-random biased low
		dirAdherence := 0.15 + r.Float64()*(0.4/rate-0.15)
		east, north := mesh.TangentFrame(s)
		theta := r.Float64() * 2 * math.Pi
		growthDir := east.Scale(math.Cos(theta)).Add(north.Scale(math.Sin(theta))).Normalize()

		result.Plates[i] = Plate{
			Seed:         s,
			GrowthRate:   rate,
			GrowthDir:    growthDir,
			DirAdherence: dirAdherence,
		}
		result.RPlate[s] = int32(i)
		frontiers[i] = []int{s}
	}

	growPlates(mesh, result, frontiers, expectedArea, r)
	orphanSweep(mesh, result)
	smoothBoundaries(mesh, result, seedSet(seeds))
	reconnect(mesh, result, seeds)
	computeDrift(mesh, result, r)
	computeAreas(result)

	if err := validate(result); err != nil {
		return nil, err
	}
	return result, nil
}

func seedSet(seeds []int) map[int]bool {
	m := make(map[int]bool, len(seeds))
	for _, s := range seeds {
		m[s] = true
	}
	return m
}

// farthestPointSeeds picks the first seed uniformly at random, then each
// subsequent seed from the top-3 candidates by minimum cosine distance
// to all existing seeds, chosen uniformly among the three for diversity.
func farthestPointSeeds(mesh *spatial.Mesh, p int, r *rand.Rand) []int {
	minDist := make([]float64, mesh.N)
	for i := range minDist {
		minDist[i] = math.Inf(1)
	}
	first := r.Intn(mesh.N)
	seeds := []int{first}
	updateMinDist(mesh, minDist, first)

	for len(seeds) < p {
		type cand struct {
			idx  int
			dist float64
		}
		top := make([]cand, 0, 3)
		for i := 0; i < mesh.N; i++ {
			c := cand{i, minDist[i]}
			inserted := false
			for j := 0; j < len(top); j++ {
				if c.dist > top[j].dist {
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
		pick := top[r.Intn(len(top))]
		seeds = append(seeds, pick.idx)
		updateMinDist(mesh, minDist, pick.idx)
	}
	return seeds
}

func updateMinDist(mesh *spatial.Mesh, minDist []float64, seed int) {
	sp := mesh.Positions[seed]
	for i := 0; i < mesh.N; i++ {
		cosDist := 1 - sp.Dot(mesh.Positions[i])
		if cosDist < minDist[i] {
			minDist[i] = cosDist
		}
	}
}

// expectedChordDist returns the expected chord distance for a plate
// covering the given region-count share of the mesh.
func expectedChordDist(mesh *spatial.Mesh, area float64) float64 {
	fraction := area / float64(mesh.N)
	// Unit-sphere cap area = 2*pi*(1-cos(theta)); invert for a rough radius.
	theta := math.Acos(1 - fraction*2)
	return 2 * math.Sin(theta/2)
}

func growPlates(mesh *spatial.Mesh, result *Result, frontiers [][]int, expectedArea float64, r *rand.Rand) {
	progress := true
	for progress {
		progress = false
		for pi := range result.Plates {
			plate := &result.Plates[pi]
			frontier := frontiers[pi]
			if len(frontier) == 0 {
				continue
			}
			area := float64(regionCount(result, pi))
			steps := int(math.Ceil(plate.GrowthRate * (0.5 + r.Float64())))
			if area > 2*expectedArea {
				steps = steps / 2
			}
			for s := 0; s < steps && len(frontier) > 0; s++ {
				sampleCount := 3 + int(plate.DirAdherence*5)
				bestIdx, bestScore := -1, math.Inf(-1)
				tries := sampleCount
				if tries > len(frontier) {
					tries = len(frontier)
				}
				seedPos := mesh.Positions[plate.Seed]
				for t := 0; t < tries; t++ {
					fi := r.Intn(len(frontier))
					cell := frontier[fi]
					cellPos := mesh.Positions[cell]
					toCell := cellPos.Sub(seedPos)
					cos := 0.0
					if toCell.Length() > 1e-9 {
						cos = toCell.Normalize().Dot(plate.GrowthDir)
					}
					dist := seedPos.Distance(cellPos)
					expected := expectedChordDist(mesh, expectedArea)
					compactPenalty := 0.0
					if dist > 1.8*expected {
						over := dist - 1.8*expected
						compactPenalty = over * over
					}
					score := plate.DirAdherence*cos + r.Float64()*(1-plate.DirAdherence/2) - compactPenalty
					if score > bestScore {
						bestScore = score
						bestIdx = fi
					}
				}
				if bestIdx == -1 {
					break
				}
				cell := frontier[bestIdx]
				frontier[bestIdx] = frontier[len(frontier)-1]
				frontier = frontier[:len(frontier)-1]

				claimedAny := false
				for _, nb := range mesh.Neighbors(cell) {
					if result.RPlate[nb] == -1 {
						result.RPlate[nb] = int32(pi)
						frontier = append(frontier, nb)
						claimedAny = true
					}
				}
				if claimedAny {
					progress = true
				}
			}
			frontiers[pi] = frontier
		}
	}
}

func regionCount(result *Result, plateIdx int) int {
	count := 0
	for _, p := range result.RPlate {
		if int(p) == plateIdx {
			count++
		}
	}
	return count
}

func orphanSweep(mesh *spatial.Mesh, result *Result) {
	for changed := true; changed; {
		changed = false
		for i := 0; i < mesh.N; i++ {
			if result.RPlate[i] != -1 {
				continue
			}
			for _, nb := range mesh.Neighbors(i) {
				if result.RPlate[nb] != -1 {
					result.RPlate[i] = result.RPlate[nb]
					changed = true
					break
				}
			}
		}
	}
}

func smoothBoundaries(mesh *spatial.Mesh, result *Result, seeds map[int]bool) {
	for pass := 0; pass < 3; pass++ {
		threshold := 0.5
		if pass == 0 {
			threshold = 0.4
		}
		next := make([]int32, len(result.RPlate))
		copy(next, result.RPlate)
		for i := 0; i < mesh.N; i++ {
			if seeds[i] {
				continue
			}
			neighbors := mesh.Neighbors(i)
			if len(neighbors) == 0 {
				continue
			}
			counts := make(map[int32]int)
			for _, nb := range neighbors {
				counts[result.RPlate[nb]]++
			}
			var majorityPlate int32 = -1
			majorityCount := 0
			for plate, c := range counts {
				if c > majorityCount || (c == majorityCount && plate < majorityPlate) {
					majorityCount = c
					majorityPlate = plate
				}
			}
			if majorityPlate != -1 && majorityPlate != result.RPlate[i] &&
				float64(majorityCount) >= threshold*float64(len(neighbors)) {
				next[i] = majorityPlate
			}
		}
		result.RPlate = next
	}
}

// reconnect runs a BFS from each seed through same-plate cells; any
// same-plate cell not reached is relabeled to a reached neighbor's
// plate, repairing isthmuses severed by boundary smoothing.
func reconnect(mesh *spatial.Mesh, result *Result, seeds []int) {
	for pi, seed := range seeds {
		plateID := int32(pi)
		reached := make([]bool, mesh.N)
		queue := []int{seed}
		reached[seed] = true
		for head := 0; head < len(queue); head++ {
			cur := queue[head]
			for _, nb := range mesh.Neighbors(cur) {
				if result.RPlate[nb] == plateID && !reached[nb] {
					reached[nb] = true
					queue = append(queue, nb)
				}
			}
		}
		for changed := true; changed; {
			changed = false
			for i := 0; i < mesh.N; i++ {
				if result.RPlate[i] == plateID && !reached[i] {
					for _, nb := range mesh.Neighbors(i) {
						if reached[nb] || result.RPlate[nb] != plateID {
							result.RPlate[i] = result.RPlate[nb]
							changed = true
							break
						}
					}
				}
			}
		}
	}
}

func computeDrift(mesh *spatial.Mesh, result *Result, r *rand.Rand) {
	for i := range result.Plates {
		seed := result.Plates[i].Seed
		neighbors := mesh.Neighbors(seed)
		if len(neighbors) == 0 {
			result.Plates[i].DriftVec = result.Plates[i].GrowthDir
			continue
		}
		target := neighbors[r.Intn(len(neighbors))]
		dir := mesh.Positions[target].Sub(mesh.Positions[seed])
		result.Plates[i].DriftVec = dir.Normalize()
	}
}

func computeAreas(result *Result) {
	for i := range result.Plates {
		result.Plates[i].RegionCount = 0
	}
	for _, plate := range result.RPlate {
		result.Plates[plate].RegionCount++
	}
}

func validate(result *Result) error {
	for i, p := range result.RPlate {
		if p < 0 {
			return apperr.NewInternalInvariant(nil, "region %d has no owning plate after orphan sweep", i)
		}
	}
	return nil
}
