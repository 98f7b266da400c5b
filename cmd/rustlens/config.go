package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rustlens/rustlens/pkg/hints"
	"github.com/rustlens/rustlens/pkg/lints"
	"github.com/rustlens/rustlens/pkg/util"
)

// ProjectConfig holds the contents of .rustlens/config.yaml.
type ProjectConfig struct {
	Version string `yaml:"version"`
	// Unit is the analyzed crate's own name, used to localize
	// crate-rooted paths.
	Unit string `yaml:"unit"`
	// MetadataDirs lists directories of compiled crate metadata JSON.
	MetadataDirs []string `yaml:"metadata_dirs"`
	// Lints maps lint ID to a level name (allow, warn, deny).
	Lints map[string]string `yaml:"lints"`
	Hints *hints.Config     `yaml:"hints"`
	Log   LogSettings       `yaml:"log"`
}

// LogSettings configures the process logger.
type LogSettings struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// loadProjectConfig reads .rustlens/config.yaml from the current
// directory. Returns nil (no error) if the file does not exist.
func loadProjectConfig() (*ProjectConfig, error) {
	data, err := os.ReadFile(".rustlens/config.yaml")
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse .rustlens/config.yaml: %w", err)
	}
	return &cfg, nil
}

// loggerConfig maps the config's log settings onto the logger defaults.
func loggerConfig(cfg *ProjectConfig) util.LoggerConfig {
	lc := util.DefaultLoggerConfig()
	if cfg == nil {
		return lc
	}
	if cfg.Log.Level != "" {
		lc.Level = util.LogLevel(cfg.Log.Level)
	}
	if cfg.Log.Format != "" {
		lc.Format = util.LogFormat(cfg.Log.Format)
	}
	return lc
}

// applyLintOverrides pins configured lint levels on the registry.
func applyLintOverrides(registry *lints.Registry, cfg *ProjectConfig) error {
	if cfg == nil {
		return nil
	}
	for id, name := range cfg.Lints {
		level, ok := lints.ParseLevel(name)
		if !ok {
			return fmt.Errorf("invalid level %q for lint %q", name, id)
		}
		registry.Override(id, level)
	}
	return nil
}
