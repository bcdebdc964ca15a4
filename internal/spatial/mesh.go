package spatial

import (
	"math"
	"sort"
)

// Mesh is the external spherical-grid collaborator the pipeline consumes.
// It holds N regions in CSR (compressed sparse row) adjacency form:
// region i's neighbors are AdjList[AdjOffset[i]:AdjOffset[i+1]]. This
// generalizes CubeSphereTopology's fixed six-face neighbor lookup to an
// arbitrary mesh (e.g. a Fibonacci sphere or a subdivided geodesic grid),
// so the pipeline is not tied to any one tessellation.
type Mesh struct {
	N         int
	Positions []Vector3D // unit-sphere position per region
	AdjOffset []int      // length N+1
	AdjList   []int      // length AdjOffset[N]
}

// NewMesh builds a Mesh from region positions and a neighbor list per
// region. Positions need not already be unit length; they are
// normalized on construction.
func NewMesh(positions []Vector3D, neighbors [][]int) *Mesh {
	n := len(positions)
	m := &Mesh{
		N:         n,
		Positions: make([]Vector3D, n),
		AdjOffset: make([]int, n+1),
	}
	for i, p := range positions {
		m.Positions[i] = p.Normalize()
	}
	total := 0
	for i := 0; i < n; i++ {
		m.AdjOffset[i] = total
		total += len(neighbors[i])
	}
	m.AdjOffset[n] = total
	m.AdjList = make([]int, 0, total)
	for i := 0; i < n; i++ {
		m.AdjList = append(m.AdjList, neighbors[i]...)
	}
	return m
}

// Neighbors returns the region indices adjacent to region i.
func (m *Mesh) Neighbors(i int) []int {
	return m.AdjList[m.AdjOffset[i]:m.AdjOffset[i+1]]
}

// Distance returns the great-circle (angular) distance between
// regions a and b on the unit sphere.
func (m *Mesh) Distance(a, b int) float64 {
	dot := m.Positions[a].Dot(m.Positions[b])
	if dot > 1 {
		dot = 1
	} else if dot < -1 {
		dot = -1
	}
	return math.Acos(dot)
}

// Latitude returns the latitude of region i in degrees, [-90, 90].
func (m *Mesh) Latitude(i int) float64 {
	lat, _ := m.LatLon(i)
	return lat
}

// Longitude returns the longitude of region i in degrees, (-180, 180].
func (m *Mesh) Longitude(i int) float64 {
	_, lon := m.LatLon(i)
	return lon
}

// LatLon returns the latitude/longitude of region i in degrees,
// delegating to the general Cartesian-to-spherical conversion so the
// mesh doesn't carry its own copy of that math.
func (m *Mesh) LatLon(i int) (lat, lon float64) {
	p := m.Positions[i]
	return ToLatLon(p.X, p.Y, p.Z, 1)
}

// TangentFrame returns an orthonormal (east, north) basis tangent to
// the sphere at region i, used to resolve vector quantities (wind,
// currents) defined in the local east/north frame into Vector3D.
func (m *Mesh) TangentFrame(i int) (east, north Vector3D) {
	p := m.Positions[i]
	up := Vector3D{X: 0, Y: 0, Z: 1}
	east = up.Cross(p)
	if east.Length() < 1e-9 {
		// Region sits at a pole; any tangent direction is valid.
		east = Vector3D{X: 1, Y: 0, Z: 0}
	}
	east = east.Normalize()
	north = p.Cross(east).Normalize()
	return east, north
}

// BFSOrder performs a breadth-first traversal of the mesh starting
// from the given seed regions, returning region indices in visitation
// order together with their hop distance from the nearest seed. This
// is the generalized form of the teacher's Multi-Source BFS region
// assignment, lifted from the fixed cube-sphere grid to arbitrary
// mesh adjacency.
func (m *Mesh) BFSOrder(seeds []int) (order []int, dist []int) {
	dist = make([]int, m.N)
	for i := range dist {
		dist[i] = -1
	}
	queue := make([]int, 0, len(seeds))
	for _, s := range seeds {
		if dist[s] == -1 {
			dist[s] = 0
			queue = append(queue, s)
		}
	}
	order = make([]int, 0, m.N)
	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		order = append(order, cur)
		for _, nb := range m.Neighbors(cur) {
			if dist[nb] == -1 {
				dist[nb] = dist[cur] + 1
				queue = append(queue, nb)
			}
		}
	}
	return order, dist
}

// FarthestPointSample greedily selects k region indices such that each
// new pick maximizes the minimum great-circle distance to all
// previously picked points. The first pick is region index `start`.
func (m *Mesh) FarthestPointSample(k int, start int) []int {
	if k <= 0 {
		return nil
	}
	picked := make([]int, 0, k)
	picked = append(picked, start)
	minDist := make([]float64, m.N)
	for i := range minDist {
		minDist[i] = math.Inf(1)
	}
	updateMinDist := func(p int) {
		for i := 0; i < m.N; i++ {
			d := m.Distance(p, i)
			if d < minDist[i] {
				minDist[i] = d
			}
		}
	}
	updateMinDist(start)
	for len(picked) < k {
		best := -1
		bestDist := -1.0
		for i := 0; i < m.N; i++ {
			if minDist[i] > bestDist {
				bestDist = minDist[i]
				best = i
			}
		}
		if best == -1 {
			break
		}
		picked = append(picked, best)
		updateMinDist(best)
	}
	return picked
}

// SortByElevationDescending returns region indices sorted by the given
// elevation slice, highest first; used to interleave erosion passes in
// descending-elevation order.
func SortByElevationDescending(elevation []float64) []int {
	order := make([]int, len(elevation))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return elevation[order[a]] > elevation[order[b]]
	})
	return order
}
