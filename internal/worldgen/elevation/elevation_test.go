package elevation

import (
	"testing"

	"planetgen/internal/spatial"
	"planetgen/internal/worldgen/continents"
	"planetgen/internal/worldgen/plates"
)

func setupWorld(t *testing.T, n, p, continentCount int, seed int64) (*spatial.Mesh, *plates.Result, *continents.Result) {
	t.Helper()
	mesh := spatial.NewFibonacciMesh(n, 6)
	plateResult, err := plates.Generate(mesh, seed, p)
	if err != nil {
		t.Fatalf("plates.Generate() error = %v", err)
	}
	continentResult, err := continents.Assign(mesh, plateResult, seed+1, continentCount)
	if err != nil {
		t.Fatalf("continents.Assign() error = %v", err)
	}
	return mesh, plateResult, continentResult
}

func TestGenerate_ProducesElevationForEveryRegion(t *testing.T) {
	mesh, plateResult, continentResult := setupWorld(t, 600, 10, 3, 11)

	result, err := Generate(mesh, plateResult, continentResult, Params{Seed: 11, NMag: 1})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(result.RElevation) != mesh.N {
		t.Fatalf("len(RElevation) = %d, want %d", len(result.RElevation), mesh.N)
	}
}

func TestGenerate_OceanClassificationMatchesElevationSign(t *testing.T) {
	mesh, plateResult, continentResult := setupWorld(t, 600, 10, 3, 21)

	result, err := Generate(mesh, plateResult, continentResult, Params{Seed: 21, NMag: 1})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	for r := 0; r < mesh.N; r++ {
		wantOcean := result.RElevation[r] < 0
		if result.OceanR[r] != wantOcean {
			t.Errorf("region %d: OceanR=%v but elevation=%.4f", r, result.OceanR[r], result.RElevation[r])
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	mesh, plateResult, continentResult := setupWorld(t, 400, 8, 3, 5)

	a, err := Generate(mesh, plateResult, continentResult, Params{Seed: 5, NMag: 1})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	b, err := Generate(mesh, plateResult, continentResult, Params{Seed: 5, NMag: 1})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	for i := range a.RElevation {
		if a.RElevation[i] != b.RElevation[i] {
			t.Fatalf("region %d elevation differs between identical-seed runs: %.6f vs %.6f", i, a.RElevation[i], b.RElevation[i])
		}
	}
}

func TestGenerate_RejectsMissingPlateState(t *testing.T) {
	mesh := spatial.NewFibonacciMesh(50, 6)
	if _, err := Generate(mesh, nil, nil, Params{Seed: 1, NMag: 1}); err == nil {
		t.Error("expected error for missing plate/continent state")
	}
}
