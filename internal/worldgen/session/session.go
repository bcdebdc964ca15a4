// Package session holds the retained-state bundle and the three
// worker-boundary commands (generate, reapply, editRecompute) that
// drive the staged plate/elevation/terrain/climate pipeline. The
// command shape and the repeated between-phase cancellation checks
// generalize the teacher's orchestrator.GeneratorService.GenerateWorld,
// which runs astronomy, geography, weather, minerals, and species
// phases in sequence behind a single ctx.Err() guard between each one;
// here the phases are the pipeline stages and the guard is the spec's
// "cancellation between stages only" rule.
package session

import (
	"sync"
	"time"

	"planetgen/internal/apperr"
	"planetgen/internal/spatial"
	"planetgen/internal/worldgen/climate"
	"planetgen/internal/worldgen/continents"
	"planetgen/internal/worldgen/elevation"
	"planetgen/internal/worldgen/plates"
	"planetgen/internal/worldgen/terrain"
)

// meshNeighborCount is the fixed neighbor fan-out handed to the
// Fibonacci mesh stand-in. The spec's actual mesh builder is an
// external collaborator out of scope here (see spatial.NewFibonacciMesh).
const meshNeighborCount = 6

// Inputs is the single input struct external callers populate for
// generate.
type Inputs struct {
	Seed            int64
	N               int
	P               int
	Jitter          float64 // accepted for interface parity; the in-repo mesh stand-in ignores it
	NMag            float64
	NumContinents   int
	Smoothing       float64
	GlacialErosion  float64
	HydraulicErosion float64
	ThermalErosion  float64
	RidgeSharpening float64
	ToggledIndices  []int // plate indices to flip ocean<->land after stage B
}

// PostParams is the subset of Inputs that reapply and editRecompute
// are allowed to change; everything upstream of D (mesh, plates, and
// for reapply, elevation) comes from retained state instead.
type PostParams struct {
	Smoothing        float64
	GlacialErosion   float64
	HydraulicErosion float64
	ThermalErosion   float64
	RidgeSharpening  float64
}

func (p PostParams) terrainParams(seed int64) terrain.Params {
	return terrain.Params{
		Seed:         seed,
		Smoothing:    p.Smoothing,
		Glacial:      p.GlacialErosion,
		Hydraulic:    p.HydraulicErosion,
		Thermal:      p.ThermalErosion,
		RidgeSharpen: p.RidgeSharpening,
	}
}

// Output is the single output struct handed back across the worker
// boundary for every command: the full set of per-region arrays, the
// feature sets folded into the stage results, and the debug layers the
// spec requires for visualization.
type Output struct {
	Mesh      *spatial.Mesh
	Plates    *plates.Result
	Continents *continents.Result
	Elevation *elevation.Result
	Terrain   *terrain.Result
	Climate   *climate.Result

	ElapsedByStage map[string]time.Duration
}

// state is the retained-state bundle: every immutable earlier-stage
// output a running session keeps between commands. It is never a
// process global; it lives on the Session value the caller holds.
type state struct {
	inputs     Inputs
	mesh       *spatial.Mesh
	plates     *plates.Result
	continents *continents.Result
	elevation  *elevation.Result
	terrain    *terrain.Result
	climate    *climate.Result
}

// Session is a single worker-style retained-state holder. One Session
// corresponds to one in-progress world: generate seeds it, reapply and
// editRecompute act on what it's holding. A Session is safe for
// concurrent use; commands serialize on an internal mutex the same way
// a single-threaded staged pipeline would.
type Session struct {
	id string

	mu    sync.Mutex
	state *state

	progress ProgressFunc
	events   *EventPublisher
	metrics  *stageMetrics
	store    Store
}

// ProgressFunc receives a {pct, label} progress event between stages.
// A nil ProgressFunc is valid and simply means no one is listening.
type ProgressFunc func(pct float64, label string)

// Option configures a Session at construction time.
type Option func(*Session)

// WithProgress attaches a progress callback invoked between stages.
func WithProgress(fn ProgressFunc) Option {
	return func(s *Session) { s.progress = fn }
}

// WithEvents attaches an EventPublisher used to report the single
// error event a failed stage produces.
func WithEvents(pub *EventPublisher) Option {
	return func(s *Session) { s.events = pub }
}

// WithStore attaches a Store used to mirror session status/metadata
// (not the bulk arrays) to a shared backend, so another instance can
// answer "is session X alive and what stage is it on" without holding
// the retained state itself.
func WithStore(store Store) Option {
	return func(s *Session) { s.store = store }
}

// New creates a Session identified by id, with no retained state yet.
// Only generate can be issued until it succeeds.
func New(id string, opts ...Option) *Session {
	s := &Session{id: id, metrics: newStageMetrics()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) report(pct float64, label string) {
	if s.progress != nil {
		s.progress(pct, label)
	}
	if s.store != nil {
		s.store.SetStatus(s.id, Status{Stage: label, Progress: pct, UpdatedAt: time.Now()})
	}
}

func (s *Session) requireState() (*state, error) {
	if s.state == nil {
		return nil, apperr.NewNoRetainedState("session %s: reapply/editRecompute issued before generate", s.id)
	}
	return s.state, nil
}
