package session

import (
	"context"
	"time"

	"planetgen/internal/apperr"
	"planetgen/internal/spatial"
	"planetgen/internal/worldgen/climate"
	"planetgen/internal/worldgen/continents"
	"planetgen/internal/worldgen/elevation"
	"planetgen/internal/worldgen/plates"
	"planetgen/internal/worldgen/terrain"
)

// Generate runs the full A-H pipeline from scratch and retains every
// stage's output for later reapply/editRecompute calls. It returns
// InvalidInput for a malformed Inputs value and InternalInvariant if a
// stage's own postcondition check fails; no stage is retried.
func (s *Session) Generate(ctx context.Context, in Inputs) (*Output, error) {
	if in.N <= 0 || in.P <= 0 || in.NumContinents <= 0 {
		return nil, apperr.NewInvalidInput("session: N, P, and numContinents must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	elapsed := map[string]time.Duration{}
	timeStage := func(label string) func() {
		start := time.Now()
		return func() { elapsed[label] = time.Since(start) }
	}

	s.report(0, "mesh")
	mesh := spatial.NewFibonacciMesh(in.N, meshNeighborCount)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.report(0.1, "plates")
	stop := timeStage("plates")
	plateResult, err := plates.Generate(mesh, in.Seed, in.P)
	stop()
	s.metrics.observe("plates", elapsed["plates"])
	if err != nil {
		s.reportError(err)
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.report(0.25, "continents")
	stop = timeStage("continents")
	continentResult, err := continents.Assign(mesh, plateResult, in.Seed+1, in.NumContinents)
	stop()
	s.metrics.observe("continents", elapsed["continents"])
	if err != nil {
		s.reportError(err)
		return nil, err
	}
	if err := applyToggles(continentResult, in.ToggledIndices); err != nil {
		s.reportError(err)
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.report(0.4, "elevation")
	stop = timeStage("elevation")
	elevationResult, err := elevation.Generate(mesh, plateResult, continentResult, elevation.Params{Seed: in.Seed + 2, NMag: in.NMag})
	stop()
	s.metrics.observe("elevation", elapsed["elevation"])
	if err != nil {
		s.reportError(err)
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.report(0.6, "terrain")
	terrainParams := PostParams{
		Smoothing:        in.Smoothing,
		GlacialErosion:   in.GlacialErosion,
		HydraulicErosion: in.HydraulicErosion,
		ThermalErosion:   in.ThermalErosion,
		RidgeSharpening:  in.RidgeSharpening,
	}.terrainParams(in.Seed + 3)
	stop = timeStage("terrain")
	terrainResult, err := terrain.Generate(mesh, plateResult, elevationResult, terrainParams)
	stop()
	s.metrics.observe("terrain", elapsed["terrain"])
	if err != nil {
		s.reportError(err)
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.report(0.8, "climate")
	stop = timeStage("climate")
	climateResult, err := climate.Generate(mesh, plateResult, continentResult, elevationResult, terrainResult, climate.Params{Seed: in.Seed + 4})
	stop()
	s.metrics.observe("climate", elapsed["climate"])
	if err != nil {
		s.reportError(err)
		return nil, err
	}

	if s.state == nil {
		activeSessions.Inc()
	}
	s.state = &state{
		inputs:     in,
		mesh:       mesh,
		plates:     plateResult,
		continents: continentResult,
		elevation:  elevationResult,
		terrain:    terrainResult,
		climate:    climateResult,
	}
	s.report(1, "done")

	return &Output{
		Mesh:           mesh,
		Plates:         plateResult,
		Continents:     continentResult,
		Elevation:      elevationResult,
		Terrain:        terrainResult,
		Climate:        climateResult,
		ElapsedByStage: elapsed,
	}, nil
}

// Reapply reruns D-H (terrain and climate) on the retained elevation
// from the last generate, with new post-elevation parameters. It does
// not touch plates, continents, or elevation. Issuing reapply before a
// successful generate returns NoRetainedState.
func (s *Session) Reapply(ctx context.Context, post PostParams) (*Output, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.requireState()
	if err != nil {
		return nil, err
	}

	elapsed := map[string]time.Duration{}
	timeStage := func(label string) func() {
		start := time.Now()
		return func() { elapsed[label] = time.Since(start) }
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.report(0.2, "terrain")
	stop := timeStage("terrain")
	terrainResult, err := terrain.Generate(st.mesh, st.plates, st.elevation, post.terrainParams(st.inputs.Seed+3))
	stop()
	s.metrics.observe("terrain", elapsed["terrain"])
	if err != nil {
		s.reportError(err)
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.report(0.6, "climate")
	stop = timeStage("climate")
	climateResult, err := climate.Generate(st.mesh, st.plates, st.continents, st.elevation, terrainResult, climate.Params{Seed: st.inputs.Seed + 4})
	stop()
	s.metrics.observe("climate", elapsed["climate"])
	if err != nil {
		s.reportError(err)
		return nil, err
	}

	st.terrain = terrainResult
	st.climate = climateResult
	s.report(1, "reapplyDone")

	return &Output{
		Mesh:           st.mesh,
		Plates:         st.plates,
		Continents:     st.continents,
		Elevation:      st.elevation,
		Terrain:        terrainResult,
		Climate:        climateResult,
		ElapsedByStage: elapsed,
	}, nil
}

// EditRecompute reruns C-H from the retained plate state after an
// editor overrides some plates' ocean/land status and crustal density.
// plateIsOcean and plateDensity are sparse: only keys present override
// the cached continents.Assign / elevation.assignPlateDensity result,
// matching L3 (passing the original plateIsOcean back reproduces the
// original C output). Issuing this before a successful generate
// returns NoRetainedState.
func (s *Session) EditRecompute(ctx context.Context, plateIsOcean map[int]bool, plateDensity map[int]float64, post PostParams) (*Output, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.requireState()
	if err != nil {
		return nil, err
	}

	elapsed := map[string]time.Duration{}
	timeStage := func(label string) func() {
		start := time.Now()
		return func() { elapsed[label] = time.Since(start) }
	}

	editedContinents := &continents.Result{
		PlateIsOcean: make(map[int]bool, len(st.continents.PlateIsOcean)),
		Adjacency:    st.continents.Adjacency,
		Features:     st.continents.Features,
	}
	for k, v := range st.continents.PlateIsOcean {
		editedContinents.PlateIsOcean[k] = v
	}
	for plateIdx, ocean := range plateIsOcean {
		editedContinents.PlateIsOcean[plateIdx] = ocean
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.report(0.2, "elevation")
	stop := timeStage("elevation")
	elevationResult, err := elevation.Generate(st.mesh, st.plates, editedContinents, elevation.Params{
		Seed:            st.inputs.Seed + 2,
		NMag:            st.inputs.NMag,
		DensityOverride: plateDensity,
	})
	stop()
	s.metrics.observe("elevation", elapsed["elevation"])
	if err != nil {
		s.reportError(err)
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.report(0.45, "terrain")
	stop = timeStage("terrain")
	terrainResult, err := terrain.Generate(st.mesh, st.plates, elevationResult, post.terrainParams(st.inputs.Seed+3))
	stop()
	s.metrics.observe("terrain", elapsed["terrain"])
	if err != nil {
		s.reportError(err)
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.report(0.7, "climate")
	stop = timeStage("climate")
	climateResult, err := climate.Generate(st.mesh, st.plates, editedContinents, elevationResult, terrainResult, climate.Params{Seed: st.inputs.Seed + 4})
	stop()
	s.metrics.observe("climate", elapsed["climate"])
	if err != nil {
		s.reportError(err)
		return nil, err
	}

	st.continents = editedContinents
	st.elevation = elevationResult
	st.terrain = terrainResult
	st.climate = climateResult
	s.report(1, "editDone")

	return &Output{
		Mesh:           st.mesh,
		Plates:         st.plates,
		Continents:     editedContinents,
		Elevation:      elevationResult,
		Terrain:        terrainResult,
		Climate:        climateResult,
		ElapsedByStage: elapsed,
	}, nil
}

// applyToggles flips ocean<->land for the given plate indices in
// place, the way the spec's toggledIndices input acts right after
// stage B and before C ever samples PlateIsOcean.
func applyToggles(continentResult *continents.Result, toggled []int) error {
	for _, idx := range toggled {
		if _, ok := continentResult.PlateIsOcean[idx]; !ok {
			return apperr.NewInvalidInput("session: toggledIndices contains out-of-range plate index %d", idx)
		}
		continentResult.PlateIsOcean[idx] = !continentResult.PlateIsOcean[idx]
	}
	return nil
}

func (s *Session) reportError(err error) {
	if s.store != nil {
		s.store.SetStatus(s.id, Status{Stage: "error", Progress: -1, Err: err.Error(), UpdatedAt: time.Now()})
	}
	if s.events != nil {
		s.events.Error(s.id, err)
	}
}
