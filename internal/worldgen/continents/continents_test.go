package continents

import (
	"testing"

	"planetgen/internal/spatial"
	"planetgen/internal/worldgen/plates"
)

func generatePlates(t *testing.T, n, p int, seed int64) (*spatial.Mesh, *plates.Result) {
	t.Helper()
	mesh := spatial.NewFibonacciMesh(n, 6)
	result, err := plates.Generate(mesh, seed, p)
	if err != nil {
		t.Fatalf("plates.Generate() error = %v", err)
	}
	return mesh, result
}

func TestAssign_EveryPlateClassified(t *testing.T) {
	mesh, plateResult := generatePlates(t, 400, 10, 1)

	result, err := Assign(mesh, plateResult, 5, 3)
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	for i := range plateResult.Plates {
		if _, ok := result.PlateIsOcean[i]; !ok {
			t.Errorf("plate %d missing from PlateIsOcean", i)
		}
	}
}

func TestAssign_LandBudgetWithinRange(t *testing.T) {
	mesh, plateResult := generatePlates(t, 1000, 16, 7)

	result, err := Assign(mesh, plateResult, 11, 4)
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	land := 0
	for i, isOcean := range result.PlateIsOcean {
		if !isOcean {
			land += plateResult.Plates[i].RegionCount
		}
	}
	landFrac := float64(land) / float64(mesh.N)
	// Spec targets an 0.3N budget (grown to at most 1.1x after trapped-sea
	// absorption); this check allows 0.15N-0.5N, looser than the
	// testable-property band of 0.2N-0.45N.
	if landFrac < 0.15 || landFrac > 0.5 {
		t.Errorf("land fraction = %.3f, want roughly within [0.15, 0.5]", landFrac)
	}
}

func TestAssign_RejectsZeroContinents(t *testing.T) {
	mesh, plateResult := generatePlates(t, 200, 6, 2)
	if _, err := Assign(mesh, plateResult, 1, 0); err == nil {
		t.Error("expected error for zero continents")
	}
}
