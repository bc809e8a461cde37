package main

import (
	"context"
	"fmt"

	"lorebook/internal/config"
	"lorebook/internal/store"
	"lorebook/internal/store/postgres"
	"lorebook/internal/store/sqlite"
)

const (
	configPath = "lorebook.yaml"
	schemaPath = "conditions.yaml"
)

func openDB(ctx context.Context, cfg *config.ProjectConfig) (store.Store, error) {
	switch cfg.Database.Backend {
	case "sqlite":
		return sqlite.New(ctx, cfg.Database.DSN, cfg)
	case "postgres":
		return postgres.New(ctx, cfg.Database.DSN, cfg)
	default:
		return nil, fmt.Errorf("unsupported database backend: %s", cfg.Database.Backend)
	}
}
