package terrain

import (
	"testing"

	"planetgen/internal/spatial"
	"planetgen/internal/worldgen/continents"
	"planetgen/internal/worldgen/elevation"
	"planetgen/internal/worldgen/plates"
)

func setupElevation(t *testing.T, n, p, continentCount int, seed int64) (*spatial.Mesh, *plates.Result, *elevation.Result) {
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
	elevationResult, err := elevation.Generate(mesh, plateResult, continentResult, elevation.Params{Seed: seed + 2, NMag: 1})
	if err != nil {
		t.Fatalf("elevation.Generate() error = %v", err)
	}
	return mesh, plateResult, elevationResult
}

func TestGenerate_PreservesRegionCount(t *testing.T) {
	mesh, plateResult, elevationResult := setupElevation(t, 500, 8, 3, 3)

	result, err := Generate(mesh, plateResult, elevationResult, Params{
		Seed: 3, Smoothing: 0.5, Glacial: 0.3, Hydraulic: 0.5, Thermal: 0.3, RidgeSharpen: 0.4,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(result.RElevation) != mesh.N {
		t.Fatalf("len(RElevation) = %d, want %d", len(result.RElevation), mesh.N)
	}
}

func TestGenerate_ZeroStrengthsLeaveElevationUnchanged(t *testing.T) {
	mesh, plateResult, elevationResult := setupElevation(t, 300, 6, 2, 9)

	result, err := Generate(mesh, plateResult, elevationResult, Params{Seed: 9})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	for r := 0; r < mesh.N; r++ {
		if result.RElevation[r] != elevationResult.RElevation[r] {
			t.Fatalf("region %d elevation changed with all strengths at zero: %.6f vs %.6f", r, result.RElevation[r], elevationResult.RElevation[r])
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	mesh, plateResult, elevationResult := setupElevation(t, 400, 8, 3, 12)
	params := Params{Seed: 12, Smoothing: 0.4, Glacial: 0.2, Hydraulic: 0.4, Thermal: 0.2, RidgeSharpen: 0.3}

	a, err := Generate(mesh, plateResult, elevationResult, params)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	b, err := Generate(mesh, plateResult, elevationResult, params)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	for i := range a.RElevation {
		if a.RElevation[i] != b.RElevation[i] {
			t.Fatalf("region %d differs between identical-param runs: %.6f vs %.6f", i, a.RElevation[i], b.RElevation[i])
		}
	}
}

func TestGenerate_OpenOceanCoastalLandStaysShallow(t *testing.T) {
	mesh, plateResult, elevationResult := setupElevation(t, 600, 10, 3, 17)

	result, err := Generate(mesh, plateResult, elevationResult, Params{
		Seed: 17, Smoothing: 0.3, Hydraulic: 0.6, Thermal: 0.3,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	isLand := make([]bool, mesh.N)
	for r := 0; r < mesh.N; r++ {
		isLand[r] = !elevationResult.OceanR[r]
	}
	openOcean := largestOceanComponent(mesh, isLand)

	// Canyon carving and fjord enhancement may lower coastal outlets a
	// little below sea level, but no land cell adjacent to the open
	// ocean may end up deeper than -0.5.
	for r := 0; r < mesh.N; r++ {
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
		if adjacentToOcean && result.RElevation[r] < -0.5 {
			t.Errorf("coastal land region %d unexpectedly deep after terrain post-processing: %.4f", r, result.RElevation[r])
		}
	}
}

func TestGenerate_RejectsMissingElevationState(t *testing.T) {
	mesh := spatial.NewFibonacciMesh(50, 6)
	if _, err := Generate(mesh, nil, nil, Params{Seed: 1}); err == nil {
		t.Error("expected error for missing plate/elevation state")
	}
}
