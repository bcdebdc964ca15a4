package climate

import (
	"testing"

	"planetgen/internal/spatial"
	"planetgen/internal/worldgen/continents"
	"planetgen/internal/worldgen/elevation"
	"planetgen/internal/worldgen/plates"
	"planetgen/internal/worldgen/terrain"
)

func setupTerrain(t *testing.T, n, p, continentCount int, seed int64) (*spatial.Mesh, *plates.Result, *continents.Result, *elevation.Result, *terrain.Result) {
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
	terrainResult, err := terrain.Generate(mesh, plateResult, elevationResult, terrain.Params{Seed: seed + 3, Smoothing: 0.3})
	if err != nil {
		t.Fatalf("terrain.Generate() error = %v", err)
	}
	return mesh, plateResult, continentResult, elevationResult, terrainResult
}

func TestGenerate_ProducesBothSeasons(t *testing.T) {
	mesh, plateResult, continentResult, elevationResult, terrainResult := setupTerrain(t, 800, 10, 3, 4)

	result, err := Generate(mesh, plateResult, continentResult, elevationResult, terrainResult, Params{Seed: 4})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	for name, field := range map[string][]float64{
		"summer.pressure":      result.Summer.Pressure,
		"summer.windSpeed":     result.Summer.WindSpeed,
		"summer.precipitation": result.Summer.Precipitation,
		"summer.temperature":   result.Summer.Temperature,
		"winter.pressure":      result.Winter.Pressure,
		"winter.windSpeed":     result.Winter.WindSpeed,
		"winter.precipitation": result.Winter.Precipitation,
		"winter.temperature":   result.Winter.Temperature,
	} {
		if len(field) != mesh.N {
			t.Errorf("%s: len = %d, want %d", name, len(field), mesh.N)
		}
	}
}

func TestGenerate_NormalizedFieldsWithinUnitRange(t *testing.T) {
	mesh, plateResult, continentResult, elevationResult, terrainResult := setupTerrain(t, 800, 10, 3, 8)

	result, err := Generate(mesh, plateResult, continentResult, elevationResult, terrainResult, Params{Seed: 8})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	for r := 0; r < mesh.N; r++ {
		if result.Summer.WindSpeed[r] < 0 || result.Summer.WindSpeed[r] > 1 {
			t.Fatalf("region %d wind speed out of [0,1]: %.4f", r, result.Summer.WindSpeed[r])
		}
		if result.Summer.Precipitation[r] < 0 || result.Summer.Precipitation[r] > 1 {
			t.Fatalf("region %d precipitation out of [0,1]: %.4f", r, result.Summer.Precipitation[r])
		}
		if result.Summer.Temperature[r] < 0 || result.Summer.Temperature[r] > 1 {
			t.Fatalf("region %d temperature out of [0,1]: %.4f", r, result.Summer.Temperature[r])
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	mesh, plateResult, continentResult, elevationResult, terrainResult := setupTerrain(t, 500, 8, 3, 15)

	a, err := Generate(mesh, plateResult, continentResult, elevationResult, terrainResult, Params{Seed: 15})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	b, err := Generate(mesh, plateResult, continentResult, elevationResult, terrainResult, Params{Seed: 15})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	for i := range a.Summer.Temperature {
		if a.Summer.Temperature[i] != b.Summer.Temperature[i] {
			t.Fatalf("region %d summer temperature differs between identical-seed runs", i)
		}
	}
}

func TestGenerate_RejectsMissingUpstreamState(t *testing.T) {
	mesh := spatial.NewFibonacciMesh(50, 6)
	if _, err := Generate(mesh, nil, nil, nil, nil, Params{Seed: 1}); err == nil {
		t.Error("expected error for missing upstream pipeline state")
	}
}
