package game

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/terragen/internal/config"
	"github.com/Faultbox/terragen/internal/engine/terrain"
)

func smallConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Ground.Width, cfg.Ground.Height = 8, 8
	cfg.Ground.Mode = config.ModeNoise
	cfg.Ground.Heightmap = ""
	cfg.Ground.Amplitude = 2
	cfg.Water.Width, cfg.Water.Height = 8, 8
	cfg.Water.Gate = false
	cfg.Assets.SearchPaths = []string{t.TempDir()}
	cfg.Simulation.Ticks = 12
	return cfg
}

func TestRunAndExport(t *testing.T) {
	out := filepath.Join(t.TempDir(), "export")
	g, err := New(smallConfig(t), out)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer g.Close()

	if err := g.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if g.World().Ticks() != 12 {
		t.Errorf("ticks = %d, want 12", g.World().Ticks())
	}

	for _, name := range []string{"ground.obj", "ground_height.png", "water.obj", "decorations.yaml"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("missing export %s: %v", name, err)
		}
	}
}

func TestRunCancelled(t *testing.T) {
	g, err := New(smallConfig(t), "")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer g.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := g.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if g.World().Ticks() != 0 {
		t.Errorf("ticks = %d after cancelled run, want 0", g.World().Ticks())
	}
	if err := g.Export(); err != nil {
		t.Errorf("Export() without exporter = %v, want nil", err)
	}
}

func TestNewInvalidConfig(t *testing.T) {
	cfg := smallConfig(t)
	cfg.Water.CellSize = 0
	if _, err := New(cfg, ""); !errors.Is(err, terrain.ErrInvalidGridDimension) {
		t.Errorf("New() error = %v, want ErrInvalidGridDimension", err)
	}
}
