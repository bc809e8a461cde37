package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type ProjectConfig struct {
	Project  string         `yaml:"project"`
	Version  int            `yaml:"version"`
	Database DatabaseConfig `yaml:"database"`
	Engine   EngineConfig   `yaml:"engine"`
	Sources  []Source       `yaml:"sources"`
	Exclude  []string       `yaml:"exclude"`
}

type DatabaseConfig struct {
	Backend string `yaml:"backend"`
	DSN     string `yaml:"dsn"`
}

type EngineConfig struct {
	SemanticThreshold float64 `yaml:"semantic_threshold"`
	MaxResults        int     `yaml:"max_results"`
}

// Source binds a directory tree of authored entry files to the
// scenario its entries belong to.
type Source struct {
	Name     string   `yaml:"name"`
	Scenario string   `yaml:"scenario"`
	Paths    []string `yaml:"paths"`
}

func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	if err := validateProjectConfig(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	return &cfg, nil
}

func validateProjectConfig(cfg *ProjectConfig) error {
	if strings.TrimSpace(cfg.Project) == "" {
		return fmt.Errorf("project name is required")
	}
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}

	switch cfg.Database.Backend {
	case "sqlite", "postgres":
	case "":
		return fmt.Errorf("database backend is required")
	default:
		return fmt.Errorf("unsupported database backend: %s", cfg.Database.Backend)
	}
	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return fmt.Errorf("database dsn is required")
	}

	if cfg.Engine.SemanticThreshold < 0 || cfg.Engine.SemanticThreshold > 1 {
		return fmt.Errorf("semantic_threshold must be within [0,1]")
	}
	if cfg.Engine.MaxResults < 0 {
		return fmt.Errorf("max_results must not be negative")
	}

	if len(cfg.Sources) == 0 {
		return fmt.Errorf("at least one source is required")
	}
	seen := make(map[string]struct{})
	for i, source := range cfg.Sources {
		if strings.TrimSpace(source.Name) == "" {
			return fmt.Errorf("source %d name is required", i)
		}
		if strings.TrimSpace(source.Scenario) == "" {
			return fmt.Errorf("source %s scenario is required", source.Name)
		}
		if len(source.Paths) == 0 {
			return fmt.Errorf("source %s paths are required", source.Name)
		}
		key := strings.ToLower(source.Name)
		if _, exists := seen[key]; exists {
			return fmt.Errorf("duplicate source name: %s", source.Name)
		}
		seen[key] = struct{}{}
	}

	return nil
}
