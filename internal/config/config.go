// Package config handles generator configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Faultbox/terragen/internal/engine/noise"
	"github.com/Faultbox/terragen/internal/engine/terrain"
)

// Ground displacement modes.
const (
	ModeHeightmap = "heightmap"
	ModeNoise     = "noise"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config holds all generator settings.
type Config struct {
	Ground     GroundConfig     `yaml:"ground"`
	Water      WaterConfig      `yaml:"water"`
	Spawn      SpawnConfig      `yaml:"spawn"`
	Assets     AssetsConfig     `yaml:"assets"`
	Simulation SimulationConfig `yaml:"simulation"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// GroundConfig describes the solid terrain surface.
type GroundConfig struct {
	Width     int        `yaml:"width"`     // Cells along X
	Height    int        `yaml:"height"`    // Cells along Z
	CellSize  float32    `yaml:"cell_size"` // World units per cell
	YLevel    float32    `yaml:"y_level"`
	Position  [3]float32 `yaml:"position"`
	Mode      string     `yaml:"mode"`      // heightmap | noise
	Heightmap string     `yaml:"heightmap"` // Asset name, resolved through assets.search_paths
	Amplitude float32    `yaml:"amplitude"`
	Frequency float32    `yaml:"frequency"`
	Octaves   int        `yaml:"octaves"`
	Noise     string     `yaml:"noise"` // perlin | simplex
	Seed      int64      `yaml:"seed"`
	Animate   bool       `yaml:"animate"` // Re-displace noise ground every tick
}

// WaterConfig describes the animated water surface.
type WaterConfig struct {
	Enabled   bool       `yaml:"enabled"`
	Width     int        `yaml:"width"`
	Height    int        `yaml:"height"`
	CellSize  float32    `yaml:"cell_size"`
	YLevel    float32    `yaml:"y_level"`
	Position  [3]float32 `yaml:"position"`
	Amplitude float32    `yaml:"amplitude"`
	Frequency float32    `yaml:"frequency"`
	Speed     float32    `yaml:"speed"`
	Noise     string     `yaml:"noise"`
	Seed      int64      `yaml:"seed"`
	Gate      bool       `yaml:"gate"` // Only animate while the observer is over the water
}

// SpawnConfig holds decoration scattering settings.
type SpawnConfig struct {
	Enabled         bool     `yaml:"enabled"`
	Prefabs         []string `yaml:"prefabs"`
	Chance          float32  `yaml:"chance"`
	HeightThreshold float32  `yaml:"height_threshold"`
	Seed            uint64   `yaml:"seed"`
}

// AssetsConfig holds raster lookup paths.
type AssetsConfig struct {
	SearchPaths []string `yaml:"search_paths"`
}

// SimulationConfig drives the headless tick loop.
type SimulationConfig struct {
	TickRate int        `yaml:"tick_rate"` // Ticks per simulated second
	Ticks    int        `yaml:"ticks"`
	Workers  int        `yaml:"workers"` // 0 = GOMAXPROCS
	Observer [3]float32 `yaml:"observer"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Ground: GroundConfig{
			Width:     128,
			Height:    128,
			CellSize:  1,
			Mode:      ModeHeightmap,
			Heightmap: "heightmap.png",
			Amplitude: 20,
			Frequency: 0.05,
			Octaves:   3,
			Noise:     noise.KindPerlin,
			Seed:      1,
		},
		Water: WaterConfig{
			Enabled:   true,
			Width:     128,
			Height:    128,
			CellSize:  1,
			YLevel:    4,
			Amplitude: 0.4,
			Frequency: 0.15,
			Speed:     0.6,
			Noise:     noise.KindPerlin,
			Seed:      2,
			Gate:      true,
		},
		Spawn: SpawnConfig{
			Enabled:         true,
			Prefabs:         []string{"tree", "rock", "bush"},
			Chance:          0.1,
			HeightThreshold: 0.5,
			Seed:            1,
		},
		Assets: AssetsConfig{
			SearchPaths: []string{"assets"},
		},
		Simulation: SimulationConfig{
			TickRate: 30,
			Ticks:    0,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error

	if err := terrain.ValidateGrid(c.Ground.Width, c.Ground.Height, c.Ground.CellSize); err != nil {
		errs = append(errs, fmt.Errorf("ground: %w", err))
	}
	switch c.Ground.Mode {
	case ModeHeightmap, ModeNoise:
	default:
		errs = append(errs, fmt.Errorf("%w: ground.mode %q (want %s or %s)", ErrInvalidConfig, c.Ground.Mode, ModeHeightmap, ModeNoise))
	}
	if c.Ground.Mode == ModeNoise && c.Ground.Octaves < 1 {
		errs = append(errs, fmt.Errorf("ground: %w: got %d", terrain.ErrInvalidOctaves, c.Ground.Octaves))
	}
	if err := checkNoise("ground.noise", c.Ground.Noise); err != nil {
		errs = append(errs, err)
	}
	if !finite(c.Ground.Amplitude, c.Ground.Frequency, c.Ground.YLevel) {
		errs = append(errs, fmt.Errorf("%w: ground amplitude, frequency and y_level must be finite", ErrInvalidConfig))
	}

	if c.Water.Enabled {
		if err := terrain.ValidateGrid(c.Water.Width, c.Water.Height, c.Water.CellSize); err != nil {
			errs = append(errs, fmt.Errorf("water: %w", err))
		}
		if err := checkNoise("water.noise", c.Water.Noise); err != nil {
			errs = append(errs, err)
		}
		if !finite(c.Water.Amplitude, c.Water.Frequency, c.Water.Speed, c.Water.YLevel) {
			errs = append(errs, fmt.Errorf("%w: water amplitude, frequency, speed and y_level must be finite", ErrInvalidConfig))
		}
	}

	if c.Spawn.Enabled {
		ch := float64(c.Spawn.Chance)
		if math.IsNaN(ch) || ch < 0 || ch > 1 {
			errs = append(errs, fmt.Errorf("%w: spawn.chance %v outside [0,1]", ErrInvalidConfig, c.Spawn.Chance))
		}
	}

	if c.Simulation.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("%w: simulation.tick_rate must be positive, got %d", ErrInvalidConfig, c.Simulation.TickRate))
	}
	if c.Simulation.Ticks < 0 || c.Simulation.Workers < 0 {
		errs = append(errs, fmt.Errorf("%w: simulation.ticks and simulation.workers must not be negative", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

func checkNoise(field, kind string) error {
	switch strings.ToLower(kind) {
	case "", noise.KindPerlin, noise.KindSimplex:
		return nil
	}
	return fmt.Errorf("%s: %w: %q", field, noise.ErrUnknownNoise, kind)
}

func finite(vs ...float32) bool {
	for _, v := range vs {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
