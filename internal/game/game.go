// Package game runs a headless generation session: build the world, step it
// through the configured number of ticks, then optionally export it.
package game

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/terragen/internal/assets"
	"github.com/Faultbox/terragen/internal/config"
	"github.com/Faultbox/terragen/internal/engine/export"
	"github.com/Faultbox/terragen/internal/game/world"
	"github.com/Faultbox/terragen/internal/logger"
)

// Game is one generation session.
type Game struct {
	cfg      *config.Config
	assets   *assets.Manager
	world    *world.World
	exporter *export.Exporter // nil when export is off
	log      *zap.Logger
}

// New creates a session. exportDir may be empty to skip export.
func New(cfg *config.Config, exportDir string) (*Game, error) {
	log := logger.Named("game")
	log.Info("initializing session",
		zap.Int("ground_width", cfg.Ground.Width),
		zap.Int("ground_height", cfg.Ground.Height),
		zap.String("mode", cfg.Ground.Mode),
		zap.Strings("search_paths", cfg.Assets.SearchPaths),
	)

	g := &Game{
		cfg:    cfg,
		assets: assets.NewManager(cfg.Assets.SearchPaths...),
		log:    log,
	}
	g.world = world.New(cfg, g.assets, logger.Named("world"))
	if exportDir != "" {
		g.exporter = export.NewExporter(exportDir)
	}

	start := time.Now()
	if err := g.world.Regenerate(); err != nil {
		return nil, fmt.Errorf("generating world: %w", err)
	}
	log.Info("world generated",
		zap.Duration("took", time.Since(start)),
		zap.Int("decorations", g.world.Decorations().Len()),
	)
	return g, nil
}

// World returns the session's world.
func (g *Game) World() *world.World {
	return g.world
}

// Run advances the world by the configured number of fixed ticks, stopping
// early if ctx is cancelled, then exports when requested.
func (g *Game) Run(ctx context.Context) error {
	dt := 1 / float32(g.cfg.Simulation.TickRate)
	ticks := g.cfg.Simulation.Ticks

	g.log.Info("starting tick loop", zap.Int("ticks", ticks), zap.Float32("dt", dt))

	start := time.Now()
	report := time.Now()
	done := 0
	for done < ticks {
		if err := ctx.Err(); err != nil {
			g.log.Warn("tick loop interrupted", zap.Int("completed", done))
			break
		}
		if err := g.world.Advance(dt); err != nil {
			return fmt.Errorf("tick %d: %w", done, err)
		}
		done++

		if time.Since(report) >= time.Second {
			g.log.Debug("progress",
				zap.Int("tick", done),
				zap.Float32("elapsed", g.world.Elapsed()),
				zap.Bool("water_active", g.world.WaterActive()),
			)
			report = time.Now()
		}
	}
	if done > 0 {
		took := time.Since(start)
		g.log.Info("tick loop finished",
			zap.Int("ticks", done),
			zap.Float32("simulated", g.world.Elapsed()),
			zap.Duration("took", took),
			zap.Duration("per_tick", took/time.Duration(done)),
		)
	}

	if g.exporter != nil {
		return g.Export()
	}
	return nil
}

// Export writes the ground, water and decorations into the export directory.
func (g *Game) Export() error {
	if g.exporter == nil {
		return nil
	}

	var written []string
	path, err := g.exporter.Mesh("ground", g.world.Ground())
	if err != nil {
		return fmt.Errorf("exporting ground: %w", err)
	}
	written = append(written, path)

	if path, err = g.exporter.HeightPreview("ground", g.world.Ground()); err != nil {
		return fmt.Errorf("exporting height preview: %w", err)
	}
	written = append(written, path)

	if m := g.world.Water(); m != nil {
		if path, err = g.exporter.Mesh("water", m); err != nil {
			return fmt.Errorf("exporting water: %w", err)
		}
		written = append(written, path)
	}

	if path, err = g.exporter.Decorations("decorations", g.world.Decorations().All()); err != nil {
		return fmt.Errorf("exporting decorations: %w", err)
	}
	written = append(written, path)

	g.log.Info("export complete", zap.Strings("files", written))
	return nil
}

// Close releases cached assets.
func (g *Game) Close() {
	g.log.Info("closing session")
	g.assets.Close()
}
