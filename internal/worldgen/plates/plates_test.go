package plates

import (
	"testing"

	"planetgen/internal/spatial"
)

func TestGenerate_AssignsEveryRegion(t *testing.T) {
	mesh := spatial.NewFibonacciMesh(500, 6)

	result, err := Generate(mesh, 42, 8)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	for i, plate := range result.RPlate {
		if plate < 0 {
			t.Fatalf("region %d has no owning plate", i)
		}
	}
}

func TestGenerate_PlateCountMatchesRequest(t *testing.T) {
	mesh := spatial.NewFibonacciMesh(300, 6)

	result, err := Generate(mesh, 1, 5)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(result.Plates) != 5 {
		t.Fatalf("len(Plates) = %d, want 5", len(result.Plates))
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	mesh := spatial.NewFibonacciMesh(300, 6)

	a, err := Generate(mesh, 99, 6)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	b, err := Generate(mesh, 99, 6)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	for i := range a.RPlate {
		if a.RPlate[i] != b.RPlate[i] {
			t.Fatalf("region %d differs between identical-seed runs: %d vs %d", i, a.RPlate[i], b.RPlate[i])
		}
	}
}

func TestGenerate_RegionCountsSumToMeshSize(t *testing.T) {
	mesh := spatial.NewFibonacciMesh(400, 6)

	result, err := Generate(mesh, 7, 4)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	sum := 0
	for _, plate := range result.Plates {
		sum += plate.RegionCount
	}
	if sum != mesh.N {
		t.Errorf("sum of plate region counts = %d, want %d", sum, mesh.N)
	}
}

func TestGenerate_RejectsEmptyMesh(t *testing.T) {
	mesh := &spatial.Mesh{}
	if _, err := Generate(mesh, 1, 3); err == nil {
		t.Error("expected error for empty mesh")
	}
}

func TestGenerate_RejectsTooManyPlates(t *testing.T) {
	mesh := spatial.NewFibonacciMesh(10, 4)
	if _, err := Generate(mesh, 1, 20); err == nil {
		t.Error("expected error when plate count exceeds region count")
	}
}
