package config

import (
	"os"
	"path/filepath"
	"testing"
)

const validConfig = `project: test-project
version: 1

database:
  backend: sqlite
  dsn: sqlite://lorebook.db

engine:
  semantic_threshold: 0.8
  max_results: 5

sources:
  - name: main
    scenario: scenario-1
    paths:
      - ./lore/
`

func TestLoadProjectConfig(t *testing.T) {
	t.Run("valid config loads", func(t *testing.T) {
		path := writeTempConfig(t, validConfig)
		cfg, err := LoadProjectConfig(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.Project != "test-project" {
			t.Fatalf("expected project name, got %q", cfg.Project)
		}
		if cfg.Database.Backend != "sqlite" {
			t.Fatalf("expected sqlite backend, got %q", cfg.Database.Backend)
		}
		if cfg.Engine.SemanticThreshold != 0.8 {
			t.Fatalf("expected threshold 0.8, got %v", cfg.Engine.SemanticThreshold)
		}
		if len(cfg.Sources) != 1 || cfg.Sources[0].Scenario != "scenario-1" {
			t.Fatalf("unexpected sources: %+v", cfg.Sources)
		}
	})

	t.Run("missing project name", func(t *testing.T) {
		path := writeTempConfig(t, "version: 1\ndatabase:\n  backend: sqlite\n  dsn: sqlite://x.db\nsources:\n  - name: main\n    scenario: s1\n    paths: [./lore]\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("unsupported version", func(t *testing.T) {
		path := writeTempConfig(t, "project: test\nversion: 2\ndatabase:\n  backend: sqlite\n  dsn: sqlite://x.db\nsources:\n  - name: main\n    scenario: s1\n    paths: [./lore]\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("missing database backend", func(t *testing.T) {
		path := writeTempConfig(t, "project: test\nversion: 1\ndatabase:\n  dsn: sqlite://x.db\nsources:\n  - name: main\n    scenario: s1\n    paths: [./lore]\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("unknown database backend", func(t *testing.T) {
		path := writeTempConfig(t, "project: test\nversion: 1\ndatabase:\n  backend: oracle\n  dsn: x\nsources:\n  - name: main\n    scenario: s1\n    paths: [./lore]\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("threshold out of range", func(t *testing.T) {
		path := writeTempConfig(t, "project: test\nversion: 1\ndatabase:\n  backend: sqlite\n  dsn: sqlite://x.db\nengine:\n  semantic_threshold: 1.5\nsources:\n  - name: main\n    scenario: s1\n    paths: [./lore]\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("no sources", func(t *testing.T) {
		path := writeTempConfig(t, "project: test\nversion: 1\ndatabase:\n  backend: sqlite\n  dsn: sqlite://x.db\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("source missing scenario", func(t *testing.T) {
		path := writeTempConfig(t, "project: test\nversion: 1\ndatabase:\n  backend: sqlite\n  dsn: sqlite://x.db\nsources:\n  - name: main\n    paths: [./lore]\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("duplicate source names", func(t *testing.T) {
		path := writeTempConfig(t, "project: test\nversion: 1\ndatabase:\n  backend: sqlite\n  dsn: sqlite://x.db\nsources:\n  - name: main\n    scenario: s1\n    paths: [./lore]\n  - name: Main\n    scenario: s2\n    paths: [./more]\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("file not found", func(t *testing.T) {
		if _, err := LoadProjectConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := writeTempConfig(t, "project: [\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lorebook.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}
