package evolve

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// RunConfig holds the [Run] section of the configuration file.
type RunConfig struct {
	MaxRounds         int    `ini:"max_rounds"`
	StatsPath         string `ini:"stats_path"` // SQLite file; empty keeps statistics in memory.
	Audio             bool   `ini:"audio"`
	Display           bool   `ini:"display"`
	Seed              int64  `ini:"seed"` // 0 seeds obstacle placement from the clock.
	ShowSpeciesDetail bool   `ini:"show_species_detail"`
}

// DefaultRunConfig returns the settings used when [Run] is absent.
func DefaultRunConfig() *RunConfig {
	return &RunConfig{
		MaxRounds:         50,
		Display:           true,
		Audio:             true,
		ShowSpeciesDetail: true,
	}
}

// LoadRunConfig reads the [Run] section of an INI file on top of DefaultRunConfig.
func LoadRunConfig(filePath string) (*RunConfig, error) {
	file, err := ini.Load(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}
	config := DefaultRunConfig()
	if err := file.Section("Run").MapTo(config); err != nil {
		return nil, fmt.Errorf("failed to map [Run] section: %w", err)
	}
	if config.MaxRounds <= 0 {
		return nil, fmt.Errorf("config error: max_rounds must be positive")
	}
	return config, nil
}
