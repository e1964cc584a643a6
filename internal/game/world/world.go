// Package world assembles ground, water and decorations into one scene and
// drives it with explicit Regenerate and Advance calls.
package world

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/terragen/internal/assets"
	"github.com/Faultbox/terragen/internal/config"
	"github.com/Faultbox/terragen/internal/engine/collision"
	"github.com/Faultbox/terragen/internal/engine/noise"
	"github.com/Faultbox/terragen/internal/engine/spawn"
	"github.com/Faultbox/terragen/internal/engine/terrain"
	"github.com/Faultbox/terragen/internal/engine/water"
	"github.com/Faultbox/terragen/internal/logger"
	"github.com/Faultbox/terragen/pkg/raster"
)

var (
	ErrNotGenerated = errors.New("world has not been generated")
	ErrNegativeStep = errors.New("negative time step")
)

// World owns the generated surfaces of one scene. It is not safe for
// concurrent mutation; the collision surface and registry may be queried
// from other goroutines.
type World struct {
	cfg    *config.Config
	assets *assets.Manager
	log    *zap.Logger

	ground       *terrain.Mesh
	groundBase   *terrain.Snapshot
	groundSource terrain.HeightSource
	heightmap    *terrain.HeightmapHeightSource
	displacer    *terrain.Displacer
	collider     *collision.Surface

	water    *terrain.Mesh
	animator *water.Animator

	decorations *Registry
	spawnErr    error

	observer mgl32.Vec3
	elapsed  float32
	ticks    int
}

// New creates an empty world. Call Regenerate before using it. A nil
// logger uses the global one.
func New(cfg *config.Config, am *assets.Manager, log *zap.Logger) *World {
	if log == nil {
		log = logger.Named("world")
	}
	if am == nil {
		am = assets.NewManager(cfg.Assets.SearchPaths...)
	}
	return &World{
		cfg:         cfg,
		assets:      am,
		log:         log,
		collider:    collision.NewSurface(),
		decorations: NewRegistry(8 * cfg.Ground.CellSize),
		observer:    mgl32.Vec3(cfg.Simulation.Observer),
	}
}

func (w *World) workers() int {
	if n := w.cfg.Simulation.Workers; n > 0 {
		return n
	}
	return runtime.GOMAXPROCS(0)
}

// Regenerate rebuilds every surface from the current config and resets the
// clock. A missing heightmap falls back to flat ground with a warning. A
// failed spawn pass is logged and kept in SpawnErr; the terrain stays.
func (w *World) Regenerate() error {
	if err := w.buildGround(); err != nil {
		return fmt.Errorf("building ground: %w", err)
	}
	if err := w.buildWater(); err != nil {
		return fmt.Errorf("building water: %w", err)
	}
	w.scatter()

	w.elapsed = 0
	w.ticks = 0
	return nil
}

func (w *World) buildGround() error {
	gc := w.cfg.Ground

	m, err := terrain.BuildGrid(gc.Width, gc.Height, gc.CellSize, gc.YLevel)
	if err != nil {
		return err
	}
	m.Origin = mgl32.Vec3(gc.Position)
	base := m.Snapshot()

	w.heightmap = terrain.NewHeightmapHeightSource(w.loadHeightmap(gc.Heightmap), m.Bounds, gc.Amplitude, gc.YLevel)

	d := &terrain.Displacer{
		Collider: w.collider,
		Workers:  w.workers(),
	}
	switch gc.Mode {
	case config.ModeNoise:
		field, err := noise.New(gc.Noise, gc.Seed)
		if err != nil {
			return err
		}
		src, err := terrain.NewNoiseHeightSource(field, gc.Amplitude, gc.Frequency, gc.Octaves)
		if err != nil {
			return err
		}
		d.Source = src
		d.Policy = terrain.Additive
	default:
		d.Source = w.heightmap
		d.Policy = terrain.Replace
	}

	if err := d.Apply(m, base); err != nil {
		return err
	}

	w.ground = m
	w.groundBase = base
	w.groundSource = d.Source
	w.displacer = d

	w.log.Info("ground generated",
		zap.String("mode", gc.Mode),
		zap.Stringer("policy", d.Policy),
		zap.Int("vertices", len(m.Vertices)),
		zap.Int("triangles", m.TriangleCount()),
		zap.Float32("min_y", m.Bounds.Min[1]),
		zap.Float32("max_y", m.Bounds.Max[1]),
	)
	return nil
}

// loadHeightmap returns nil, after one warning, when the raster cannot be used.
func (w *World) loadHeightmap(name string) *raster.Raster {
	if name == "" {
		if w.cfg.Ground.Mode == config.ModeHeightmap {
			w.log.Warn("no heightmap configured, using flat ground")
		}
		return nil
	}
	r, err := w.assets.Raster(name)
	if err != nil {
		w.log.Warn("heightmap unavailable, using flat ground",
			zap.String("heightmap", name),
			zap.Error(err),
		)
		return nil
	}
	w.log.Debug("heightmap loaded",
		zap.String("heightmap", name),
		zap.Int("width", r.Width),
		zap.Int("height", r.Height),
	)
	return r
}

func (w *World) buildWater() error {
	wc := w.cfg.Water
	w.water, w.animator = nil, nil
	if !wc.Enabled {
		return nil
	}

	m, err := terrain.BuildGrid(wc.Width, wc.Height, wc.CellSize, wc.YLevel)
	if err != nil {
		return err
	}
	m.Origin = mgl32.Vec3(wc.Position)

	field, err := noise.New(wc.Noise, wc.Seed)
	if err != nil {
		return err
	}
	waves, err := water.NewField(water.Config{
		Amplitude: wc.Amplitude,
		Frequency: wc.Frequency,
		Speed:     wc.Speed,
	}, field, nil)
	if err != nil {
		return err
	}

	opts := []water.Option{water.WithWorkers(w.workers())}
	if wc.Gate {
		opts = append(opts, water.WithTracker(observerTracker{w}))
	}
	a, err := water.NewAnimator(m, m.Snapshot(), waves, opts...)
	if err != nil {
		return err
	}
	if _, err := a.Animate(0); err != nil {
		return err
	}

	w.water = m
	w.animator = a
	w.log.Info("water generated",
		zap.Int("vertices", len(m.Vertices)),
		zap.Bool("gated", wc.Gate),
		zap.Float32("range", a.Range()),
	)
	return nil
}

func (w *World) scatter() {
	w.decorations.Clear()
	w.spawnErr = nil

	sc := w.cfg.Spawn
	if !sc.Enabled {
		return
	}

	prefabs := make([]spawn.Prefab, 0, len(sc.Prefabs))
	for _, name := range sc.Prefabs {
		prefabs = append(prefabs, spawn.Prefab{Name: name})
	}

	s, err := spawn.New(spawn.Config{
		Prefabs:         prefabs,
		Chance:          sc.Chance,
		HeightThreshold: sc.HeightThreshold,
		Seed:            sc.Seed,
		Workers:         w.workers(),
	}, w.heightmap)
	if err == nil {
		var out []spawn.Instance
		out, err = s.Spawn(w.ground)
		if err == nil {
			w.decorations.Replace(out)
			w.log.Info("decorations spawned",
				zap.Int("count", len(out)),
				zap.Bool("heightmap_bound", w.heightmap.Bound()),
			)
			return
		}
	}

	w.spawnErr = err
	w.log.Error("decoration pass failed, keeping terrain", zap.Error(err))
}

// Advance moves the clock forward by dt seconds, animates the water and,
// when enabled, re-displaces a noise ground.
func (w *World) Advance(dt float32) error {
	if w.ground == nil {
		return ErrNotGenerated
	}
	if dt < 0 {
		return fmt.Errorf("%w: %v", ErrNegativeStep, dt)
	}
	w.elapsed += dt
	w.ticks++

	if w.cfg.Ground.Animate && w.cfg.Ground.Mode == config.ModeNoise {
		if err := w.displacer.Apply(w.ground, w.groundBase); err != nil {
			return fmt.Errorf("re-displacing ground: %w", err)
		}
	}
	if w.animator != nil {
		if _, err := w.animator.Animate(w.elapsed); err != nil {
			return err
		}
	}
	return nil
}

// Ground returns the live ground mesh.
func (w *World) Ground() *terrain.Mesh { return w.ground }

// Water returns the live water mesh, or nil when water is disabled.
func (w *World) Water() *terrain.Mesh { return w.water }

// Collider returns the ground's collision surface.
func (w *World) Collider() *collision.Surface { return w.collider }

// Decorations returns the registry of placed decorations.
func (w *World) Decorations() *Registry { return w.decorations }

// Heightmap returns the raster height source, bound or not.
func (w *World) Heightmap() *terrain.HeightmapHeightSource { return w.heightmap }

// GroundSource returns the height source used for the ground.
func (w *World) GroundSource() terrain.HeightSource { return w.groundSource }

// SpawnErr returns the error of the last decoration pass, if it failed.
func (w *World) SpawnErr() error { return w.spawnErr }

// Elapsed returns simulated seconds since the last Regenerate.
func (w *World) Elapsed() float32 { return w.elapsed }

// Ticks returns the number of Advance calls since the last Regenerate.
func (w *World) Ticks() int { return w.ticks }

// SetObserver moves the reference point used to gate water animation.
func (w *World) SetObserver(pos mgl32.Vec3) { w.observer = pos }

// WaterActive reports whether the next Advance will animate the water.
func (w *World) WaterActive() bool {
	return w.animator != nil && w.animator.InRange()
}

type observerTracker struct {
	w *World
}

func (t observerTracker) Position() mgl32.Vec3 {
	return t.w.observer
}
