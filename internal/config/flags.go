package config

import "flag"

var (
	flagConfig    = flag.String("config", "", "Path to config file")
	flagDebug     = flag.Bool("debug", false, "Enable debug logging")
	flagSeed      = flag.Int64("seed", 0, "Seed for ground, water and spawn randomness (0 keeps config)")
	flagHeightmap = flag.String("heightmap", "", "Heightmap asset name or path (switches ground to heightmap mode)")
	flagTicks     = flag.Int("ticks", -1, "Number of simulation ticks to run")
	flagWorkers   = flag.Int("workers", -1, "Goroutines per vertex pass (0 = GOMAXPROCS)")
	flagExport    = flag.String("export", "", "Directory to write OBJ meshes and height preview into")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via -config.
func ConfigPath() string {
	return *flagConfig
}

// ExportDir returns the -export directory, or "" when export is off.
func ExportDir() string {
	return *flagExport
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagSeed != 0 {
		cfg.Ground.Seed = *flagSeed
		cfg.Water.Seed = *flagSeed + 1
		cfg.Spawn.Seed = uint64(*flagSeed)
	}
	if *flagHeightmap != "" {
		cfg.Ground.Mode = ModeHeightmap
		cfg.Ground.Heightmap = *flagHeightmap
	}
	if *flagTicks >= 0 {
		cfg.Simulation.Ticks = *flagTicks
	}
	if *flagWorkers >= 0 {
		cfg.Simulation.Workers = *flagWorkers
	}
}
