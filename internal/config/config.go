// Package config loads optional project-level defaults for the cupl CLI
// from a .cuplrc.yaml file. CLI flags always win over the file, and the
// file always wins over these built-in defaults.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the settings a .cuplrc.yaml may override.
type Config struct {
	// MiniproDevice names the minipro -p device for `cupl burn` when no
	// device can be read from the JED file and -p was not given.
	MiniproDevice string `yaml:"minipro_device"`

	// OutputDir, when set, is used as the default directory for `cupl
	// build` output when -o is not given.
	OutputDir string `yaml:"output_dir"`
}

// Load reads .cuplrc.yaml from the current directory. A missing file is
// not an error: it returns the zero Config.
func Load() (Config, error) {
	data, err := os.ReadFile(".cuplrc.yaml")
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
