// Package terrain post-processes stage C's signed elevation: bilateral
// smoothing, priority-flood pit resolution with canyon carving, a
// composite glacial/hydraulic/thermal erosion sweep interleaved in
// descending-elevation order, ridge sharpening, and soil creep. The
// per-cell loop shapes (steepest-descent neighbor search, excess-slope
// redistribution) generalize the teacher's erosion.go
// ApplyThermalErosion/ApplyHydraulicErosion from a fixed-grid Heightmap
// to the mesh's CSR adjacency.
package terrain

import (
	"container/heap"
	"math"

	"planetgen/internal/apperr"
	"planetgen/internal/debug"
	"planetgen/internal/spatial"
	"planetgen/internal/worldgen/elevation"
	"planetgen/internal/worldgen/plates"
)

// Params controls the strength of each post-processing pass, each in
// [0, 1]; a zero strength skips that pass entirely.
type Params struct {
	Seed         int64
	Smoothing    float64
	Glacial      float64
	Hydraulic    float64
	Thermal      float64
	RidgeSharpen float64
}

// DebugLayers exposes the elevation snapshot after each major pass.
type DebugLayers struct {
	Smoothed  []float64
	Flooded   []float64
	Eroded    []float64
	Sharpened []float64
}

// Result holds stage D's outputs.
type Result struct {
	RElevation []float64
	MoraineR   map[int]bool
	FjordR     map[int]bool
	Debug      DebugLayers
}

const (
	talusSlope    = 0.6
	streamPowerK  = 0.08
	streamPowerM  = 0.5
	thermalK      = 0.3
)

// Generate runs the D1-D5 post-processing pipeline over stage C's
// elevation and returns the eroded field plus glacial landform markers.
func Generate(mesh *spatial.Mesh, plateResult *plates.Result, elevationResult *elevation.Result, params Params) (*Result, error) {
	if mesh == nil || mesh.N == 0 {
		return nil, apperr.NewInvalidInput("terrain: empty mesh")
	}
	if elevationResult == nil || plateResult == nil {
		return nil, apperr.NewInvalidInput("terrain: missing elevation or plate state")
	}
	defer debug.Time(debug.Terrain, "terrain.Generate")()

	n := mesh.N
	elev := append([]float64(nil), elevationResult.RElevation...)
	isLand := make([]bool, n)
	for r := 0; r < n; r++ {
		isLand[r] = !elevationResult.OceanR[r]
	}
	coastlineLand := elevationResult.CoastlineR

	postStrength := maxFloat(params.Smoothing, maxFloat(params.Glacial, maxFloat(params.Hydraulic, maxFloat(params.Thermal, params.RidgeSharpen))))
	avgErosion := (params.Glacial + params.Hydraulic + params.Thermal) / 3

	bilateralSmooth(mesh, elev, isLand, coastlineLand, params.Smoothing)
	smoothedSnapshot := append([]float64(nil), elev...)

	openOcean := largestOceanComponent(mesh, isLand)
	if postStrength > 0 {
		carveStrength := 0.3 + 0.4*avgErosion
		floodPits(mesh, elev, isLand, openOcean, params.Seed, carveStrength)
	}
	floodedSnapshot := append([]float64(nil), elev...)

	result := &Result{
		MoraineR: make(map[int]bool),
		FjordR:   make(map[int]bool),
	}

	hIters := roundPositive(20 * params.Hydraulic)
	tIters := roundPositive(10 * params.Thermal)
	gIters := roundPositive(10 * params.Glacial)
	totalIters := maxInt(hIters, maxInt(tIters, gIters))
	midpoint := totalIters * 3 / 4

	for iter := 0; iter < totalIters; iter++ {
		order := descendingLand(elev, isLand)

		if iter < gIters {
			runGlacialPass(mesh, plateResult, elev, isLand, coastlineLand, order, params.Glacial, gIters, result)
		}
		if iter < hIters {
			runHydraulicPass(mesh, elev, isLand, order)
		}
		if iter < tIters {
			runThermalPass(mesh, plateResult, elev, isLand, order)
		}

		if totalIters > 0 && iter == midpoint {
			floodPits(mesh, elev, isLand, openOcean, params.Seed, 0.85)
		}
	}
	erodedSnapshot := append([]float64(nil), elev...)

	ridgeSharpen(mesh, elev, isLand, params.RidgeSharpen)
	sharpenedSnapshot := append([]float64(nil), elev...)

	soilCreep(mesh, elev, isLand, coastlineLand, postStrength)

	result.RElevation = elev
	result.Debug = DebugLayers{
		Smoothed:  smoothedSnapshot,
		Flooded:   floodedSnapshot,
		Eroded:    erodedSnapshot,
		Sharpened: sharpenedSnapshot,
	}
	return result, nil
}

func roundPositive(v float64) int {
	return int(math.Round(v))
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// bilateralSmooth moves each non-coastline land cell a fraction str
// toward a neighbor-weighted mean, weighting neighbors down when their
// elevation differs sharply so ridgelines are not washed out.
func bilateralSmooth(mesh *spatial.Mesh, elev []float64, isLand []bool, coastline map[int]bool, s float64) {
	if s <= 0 {
		return
	}
	iters := roundPositive(1 + 4*s)
	str := 0.2 + 0.5*s

	for iter := 0; iter < iters; iter++ {
		next := append([]float64(nil), elev...)
		for r := 0; r < mesh.N; r++ {
			if !isLand[r] || coastline[r] {
				continue
			}
			weightSum, valueSum := 0.0, 0.0
			for _, nb := range mesh.Neighbors(r) {
				w := 1 / (1 + 8*math.Abs(elev[r]-elev[nb]))
				weightSum += w
				valueSum += w * elev[nb]
			}
			if weightSum == 0 {
				continue
			}
			mean := valueSum / weightSum
			next[r] = elev[r] + str*(mean-elev[r])
		}
		copy(elev, next)
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

type floodEntry struct {
	region int
	key    float64
}

type floodHeap []floodEntry

func (h floodHeap) Len() int            { return len(h) }
func (h floodHeap) Less(i, j int) bool  { return h[i].key < h[j].key }
func (h floodHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *floodHeap) Push(x interface{}) { *h = append(*h, x.(floodEntry)) }
func (h *floodHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// floodPits fills basins inland of the open ocean via the Barnes-style
// priority flood: a land cell's surface never settles below the lowest
// path that reaches open water. The carving pass then pushes most of
// that fill back out as a canyon around the path's peak, so inland
// basins drain rather than staying flat lakes.
func floodPits(mesh *spatial.Mesh, elev []float64, isLand, openOcean []bool, seed int64, carveStrength float64) []int {
	n := mesh.N
	visited := make([]bool, n)
	drainTo := make([]int, n)
	for i := range drainTo {
		drainTo[i] = -1
	}
	surface := append([]float64(nil), elev...)

	h := &floodHeap{}
	heap.Init(h)
	for r := 0; r < n; r++ {
		if !isLand[r] {
			continue
		}
		adjacentToOcean := false
		for _, nb := range mesh.Neighbors(r) {
			if openOcean[nb] {
				adjacentToOcean = true
				break
			}
		}
		if adjacentToOcean {
			visited[r] = true
			drainTo[r] = -2
			heap.Push(h, floodEntry{r, surface[r] + hashNoise(r, seed)*1e-4})
		}
	}

	const eps = 1e-5
	for h.Len() > 0 {
		entry := heap.Pop(h).(floodEntry)
		cur := entry.region
		for _, nb := range mesh.Neighbors(cur) {
			if !isLand[nb] || visited[nb] {
				continue
			}
			visited[nb] = true
			drainTo[nb] = cur
			if elev[nb] < surface[cur]+eps {
				surface[nb] = surface[cur] + eps
			} else {
				surface[nb] = elev[nb]
			}
			heap.Push(h, floodEntry{nb, surface[nb] + hashNoise(nb, seed)*1e-4})
		}
	}

	carvePits(mesh, elev, surface, drainTo, isLand, carveStrength)
	enforceMonotone(mesh, elev, drainTo, isLand)
	return drainTo
}

func hashNoise(region int, seed int64) float64 {
	h := uint64(region)*2654435761 + uint64(seed)*40503 + 1
	h ^= h >> 33
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	return float64(h%1000000)/1000000.0 - 0.5
}

func carvePits(mesh *spatial.Mesh, elev, surface []float64, drainTo []int, isLand []bool, carveStrength float64) {
	for r := 0; r < mesh.N; r++ {
		if !isLand[r] {
			continue
		}
		deficit := surface[r] - elev[r]
		if deficit <= 1e-6 {
			continue
		}

		path := []int{r}
		cur := drainTo[r]
		for cur >= 0 {
			path = append(path, cur)
			cur = drainTo[cur]
		}
		peak, peakElev := path[0], elev[path[0]]
		for _, p := range path {
			if elev[p] > peakElev {
				peakElev = elev[p]
				peak = p
			}
		}

		radius := maxInt(3, int(math.Ceil(0.3*float64(len(path)))))
		carveAroundPeak(mesh, elev, peak, radius, deficit*carveStrength)
		elev[r] += deficit * (1 - carveStrength)
	}
}

// carveAroundPeak distributes a carve amount over the cells within
// radius hops of peak using a triangular (linear falloff) kernel.
func carveAroundPeak(mesh *spatial.Mesh, elev []float64, peak, radius int, amount float64) {
	_, dist := mesh.BFSOrder([]int{peak})
	type weighted struct {
		region int
		weight float64
	}
	var cells []weighted
	totalWeight := 0.0
	for r, d := range dist {
		if d < 0 || d > radius {
			continue
		}
		w := 1 - float64(d)/float64(radius+1)
		cells = append(cells, weighted{r, w})
		totalWeight += w
	}
	if totalWeight == 0 {
		return
	}
	for _, c := range cells {
		elev[c.region] -= amount * c.weight / totalWeight
	}
}

func enforceMonotone(mesh *spatial.Mesh, elev []float64, drainTo []int, isLand []bool) {
	const eps = 1e-5
	order := spatial.SortByElevationDescending(elev)
	for i := len(order) - 1; i >= 0; i-- {
		r := order[i]
		if !isLand[r] || drainTo[r] < 0 {
			continue
		}
		target := elev[drainTo[r]]
		if elev[r] <= target {
			elev[r] = target + eps
		}
	}
}

func descendingLand(elev []float64, isLand []bool) []int {
	order := spatial.SortByElevationDescending(elev)
	out := order[:0:0]
	for _, r := range order {
		if isLand[r] {
			out = append(out, r)
		}
	}
	return out
}

// runGlacialPass carves ice-flow valleys on cold, high cells: a
// glaciation index gates which land cells participate, ice flow
// accumulates downhill the same way stream flow does in the hydraulic
// pass, and termini (where the downstream glaciation index falls below
// 30% of the source's) get a moraine marker and give back part of
// their carve as deposit.
func runGlacialPass(mesh *spatial.Mesh, plateResult *plates.Result, elev []float64, isLand []bool, coastline map[int]bool, order []int, strength float64, gIters int, result *Result) {
	n := mesh.N
	threshold := 75 - 25*strength
	glaciation := make([]float64, n)
	for _, r := range order {
		lat := math.Abs(mesh.Latitude(r))
		latTerm := smoothstep(threshold, 90, lat)
		elevTerm := clamp01(elev[r])
		glaciation[r] = latTerm * (0.4 + 0.6*elevTerm)
	}

	receiver := make([]int, n)
	for i := range receiver {
		receiver[i] = -1
	}
	for _, r := range order {
		if glaciation[r] <= 0 {
			continue
		}
		best, bestDrop := -1, 0.0
		for _, nb := range mesh.Neighbors(r) {
			if !isLand[nb] {
				continue
			}
			drop := elev[r] - elev[nb]
			if drop > bestDrop {
				bestDrop = drop
				best = nb
			}
		}
		receiver[r] = best
	}

	flow := append([]float64(nil), glaciation...)
	upstreamCount := make([]int, n)
	for _, r := range order {
		if receiver[r] < 0 || flow[r] <= 0 {
			continue
		}
		flow[receiver[r]] += flow[r]
		upstreamCount[receiver[r]]++
	}

	delta := make([]float64, n)
	for _, r := range order {
		if receiver[r] < 0 || flow[r] <= 0 {
			continue
		}
		carve := 0.02 * math.Pow(flow[r], 0.6) * strength / float64(maxInt(1, gIters))
		delta[r] -= carve

		slope := (elev[r] - elev[receiver[r]])
		for _, nb := range mesh.Neighbors(r) {
			if nb == receiver[r] || !isLand[nb] {
				continue
			}
			delta[nb] -= carve * 0.4 * (1 - clamp01(slope))
		}
		if upstreamCount[r] >= 2 {
			delta[r] -= carve * 0.5
		}

		if glaciation[receiver[r]] < 0.3*glaciation[r] {
			result.MoraineR[r] = true
			delta[r] += carve * 0.3
		}
		if coastline[r] && glaciation[r] > 0.3 {
			result.FjordR[r] = true
			delta[r] -= 0.02
		}
	}
	for r := 0; r < n; r++ {
		elev[r] += delta[r]
	}
}

// runHydraulicPass is the Braun-Willett implicit stream-power solve:
// flow accumulates downhill, then each cell's new height is solved
// jointly with its receiver's, guaranteeing the source never ends up
// lower than its receiver after one step.
func runHydraulicPass(mesh *spatial.Mesh, elev []float64, isLand []bool, order []int) {
	n := mesh.N
	receiver := make([]int, n)
	for i := range receiver {
		receiver[i] = -1
	}
	for _, r := range order {
		best, bestDrop := -1, 0.0
		for _, nb := range mesh.Neighbors(r) {
			if !isLand[nb] {
				continue
			}
			drop := elev[r] - elev[nb]
			if drop > bestDrop {
				bestDrop = drop
				best = nb
			}
		}
		receiver[r] = best
	}

	flow := make([]float64, n)
	for _, r := range order {
		flow[r] += 1.0
	}
	for _, r := range order {
		if receiver[r] >= 0 {
			flow[receiver[r]] += flow[r]
		}
	}

	const dt = 1.0
	for i := len(order) - 1; i >= 0; i-- {
		r := order[i]
		if receiver[r] < 0 {
			continue
		}
		dist := mesh.Distance(r, receiver[r])
		if dist <= 0 {
			continue
		}
		factor := streamPowerK * math.Pow(flow[r], streamPowerM) * dt / dist
		hNew := (elev[r] + factor*elev[receiver[r]]) / (1 + factor)
		if hNew < elev[receiver[r]] {
			hNew = elev[receiver[r]]
		}
		if hNew < 0 && elev[r] >= 0 {
			hNew = 0
		}
		eroded := elev[r] - hNew
		elev[r] = hNew
		if eroded > 0 {
			receiverSlope := math.Max(0, eroded/dist)
			depositFrac := 0.3 / (1 + 50*receiverSlope)
			deposit := eroded * depositFrac
			if elev[receiver[r]]+deposit > elev[r] {
				deposit = math.Max(0, elev[r]-elev[receiver[r]])
			}
			elev[receiver[r]] += deposit
		}
	}
}

// runThermalPass redistributes material from cells steeper than the
// talus angle to their lower same-plate neighbors, accumulating into a
// delta buffer so the sweep order does not bias the result.
func runThermalPass(mesh *spatial.Mesh, plateResult *plates.Result, elev []float64, isLand []bool, order []int) {
	n := mesh.N
	delta := make([]float64, n)
	for _, r := range order {
		plate := plateResult.RPlate[r]
		type excessNb struct {
			region int
			excess float64
		}
		var excesses []excessNb
		totalExcess := 0.0
		for _, nb := range mesh.Neighbors(r) {
			if !isLand[nb] || plateResult.RPlate[nb] != plate || elev[nb] >= elev[r] {
				continue
			}
			dist := mesh.Distance(r, nb)
			if dist <= 0 {
				continue
			}
			slope := (elev[r] - elev[nb]) / dist
			if slope <= talusSlope {
				continue
			}
			excess := (slope - talusSlope) * dist
			excesses = append(excesses, excessNb{nb, excess})
			totalExcess += excess
		}
		if totalExcess <= 0 {
			continue
		}
		moved := thermalK * totalExcess * 0.5
		delta[r] -= moved
		for _, e := range excesses {
			delta[e.region] += moved * (e.excess / totalExcess)
		}
	}
	for r := 0; r < n; r++ {
		elev[r] += delta[r]
	}
}

func ridgeSharpen(mesh *spatial.Mesh, elev []float64, isLand []bool, s float64) {
	if s <= 0 {
		return
	}
	iters := roundPositive(1 + 3*s)
	str := 0.08 * s

	for iter := 0; iter < iters; iter++ {
		next := append([]float64(nil), elev...)
		for r := 0; r < mesh.N; r++ {
			if !isLand[r] {
				continue
			}
			sum, count := 0.0, 0
			for _, nb := range mesh.Neighbors(r) {
				sum += elev[nb]
				count++
			}
			if count == 0 {
				continue
			}
			avg := sum / float64(count)
			if elev[r] <= avg {
				continue
			}
			pre := elev[r]
			sharpened := elev[r] + str*(elev[r]-avg)
			ceiling := 1.5 * pre
			if sharpened > ceiling {
				sharpened = ceiling
			}
			next[r] = sharpened
		}
		copy(elev, next)
	}
}

func soilCreep(mesh *spatial.Mesh, elev []float64, isLand []bool, coastline map[int]bool, s float64) {
	if s <= 0 {
		return
	}
	strength := 0.1125 * s
	iters := roundPositive(1 + 2*s)
	for iter := 0; iter < iters; iter++ {
		next := append([]float64(nil), elev...)
		for r := 0; r < mesh.N; r++ {
			if !isLand[r] || coastline[r] {
				continue
			}
			sum, count := 0.0, 0
			for _, nb := range mesh.Neighbors(r) {
				sum += elev[nb]
				count++
			}
			if count == 0 {
				continue
			}
			avg := sum / float64(count)
			next[r] = elev[r] + strength*(avg-elev[r])
		}
		copy(elev, next)
	}
}

func smoothstep(edge0, edge1, x float64) float64 {
	t := clamp01((x - edge0) / (edge1 - edge0))
	return t * t * (3 - 2*t)
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
