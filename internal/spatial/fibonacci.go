package spatial

import (
	"math"
	"sort"
)

// NewFibonacciMesh builds a Mesh over n points placed with a Fibonacci
// spiral (a standard low-discrepancy sphere sampling) and connects each
// point to its k nearest neighbors by angular distance. The real mesh
// construction (Fibonacci sphere + Delaunay triangulation) is an
// explicit external collaborator the pipeline spec leaves out of scope;
// this is a minimal, dependency-free stand-in used by tests and local
// exploratory runs, not a replacement for that collaborator.
func NewFibonacciMesh(n, k int) *Mesh {
	if n <= 0 {
		n = 1
	}
	if k >= n {
		k = n - 1
	}
	positions := make([]Vector3D, n)
	goldenAngle := math.Pi * (3 - math.Sqrt(5))
	for i := 0; i < n; i++ {
		z := 1 - 2*float64(i)/float64(n-1+boolToInt(n == 1))
		radius := math.Sqrt(math.Max(0, 1-z*z))
		theta := goldenAngle * float64(i)
		positions[i] = Vector3D{X: math.Cos(theta) * radius, Y: math.Sin(theta) * radius, Z: z}
	}

	neighbors := make([][]int, n)
	for i := 0; i < n; i++ {
		type cand struct {
			idx  int
			dist float64
		}
		cands := make([]cand, 0, n-1)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			cands = append(cands, cand{j, positions[i].Distance(positions[j])})
		}
		sort.Slice(cands, func(a, b int) bool { return cands[a].dist < cands[b].dist })
		if k > len(cands) {
			k = len(cands)
		}
		nb := make([]int, k)
		for idx := 0; idx < k; idx++ {
			nb[idx] = cands[idx].idx
		}
		neighbors[i] = nb
	}

	return NewMesh(positions, neighbors)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
