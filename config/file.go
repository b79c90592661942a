package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the top-level structure of a dieselsync YAML config file.
type File struct {
	DieselSync Settings `yaml:"dieselsync"`
}

// Settings is the body of the dieselsync key.
type Settings struct {
	ConnectionType string                  `yaml:"connection_type"`
	Defaults       TableOptions            `yaml:"defaults"`
	Tables         map[string]TableOptions `yaml:"tables"`
}

// Load reads a YAML config file into a GenerationConfig. Missing values keep
// the values of Default().
func Load(path string) (GenerationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return GenerationConfig{}, fmt.Errorf("reading config %q: %w", path, err)
	}
	return Decode(data)
}

// Decode parses YAML config content.
func Decode(data []byte) (GenerationConfig, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return GenerationConfig{}, fmt.Errorf("parsing config: %w", err)
	}

	cfg := Default()
	if f.DieselSync.ConnectionType != "" {
		cfg.ConnectionType = f.DieselSync.ConnectionType
	}
	cfg.Defaults = f.DieselSync.Defaults
	for name, opts := range f.DieselSync.Tables {
		cfg.Tables[name] = opts
	}
	return cfg, nil
}
