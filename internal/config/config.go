package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/ThomasCrouzet/domainforge/internal/loader"
	"github.com/spf13/viper"
)

// Defaults for the tool configuration.
const (
	DefaultInput        = "infra.yml"
	DefaultInputDir     = "infra"
	DefaultOutputDir    = "."
	DefaultContextDir   = "/etc/domainforge"
	DefaultProbeTimeout = 5 * time.Second
	DefaultLogLevel     = "info"
)

// Config is the domainforge tool configuration (domainforge.yml), not the
// infrastructure specification it compiles.
type Config struct {
	Input        string        `mapstructure:"input"`
	OutputDir    string        `mapstructure:"output_dir"`
	ContextDir   string        `mapstructure:"context_dir"`
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
	LogLevel     string        `mapstructure:"log_level"`
	CleanOrphans bool          `mapstructure:"clean_orphans"`
	// Offline disables host probes.
	Offline bool `mapstructure:"offline"`
}

// Load unmarshals viper settings over the defaults.
func Load() (*Config, error) {
	cfg := &Config{
		OutputDir:    DefaultOutputDir,
		ContextDir:   DefaultContextDir,
		ProbeTimeout: DefaultProbeTimeout,
		LogLevel:     DefaultLogLevel,
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if cfg.Input == "" {
		cfg.Input = DefaultInputPath(".")
	}
	return cfg, nil
}

// DefaultInputPath returns infra.yml when it exists, else the infra/
// directory when it holds a base file, else infra.yml.
func DefaultInputPath(dir string) string {
	file := filepath.Join(dir, DefaultInput)
	if _, err := os.Stat(file); err == nil {
		return file
	}
	split := filepath.Join(dir, DefaultInputDir)
	if _, err := os.Stat(filepath.Join(split, loader.BaseFile)); err == nil {
		return split
	}
	return file
}
