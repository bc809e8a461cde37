package postgres

import (
	"context"
	"fmt"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	// All DDL runs in a single call, which PostgreSQL executes inside an
	// implicit transaction. "IF NOT EXISTS" keeps this idempotent; once the
	// schema needs destructive migrations, switch to a migration tool with a
	// version table.
	ddl := `
CREATE TABLE IF NOT EXISTS entries (
    id                TEXT PRIMARY KEY,
    scenario_id       TEXT NOT NULL,
    title             TEXT NOT NULL,
    content           TEXT NOT NULL DEFAULT '',
    category          TEXT NOT NULL DEFAULT '',
    entry_type        TEXT NOT NULL DEFAULT 'knowledge',
    keywords          JSONB NOT NULL DEFAULT '[]',
    match_type        TEXT NOT NULL DEFAULT 'exact',
    case_sensitive    BOOLEAN NOT NULL DEFAULT FALSE,
    priority          INTEGER NOT NULL DEFAULT 0,
    insert_depth      INTEGER NOT NULL DEFAULT 0,
    probability       DOUBLE PRECISION NOT NULL DEFAULT 1.0,
    display_order     INTEGER NOT NULL DEFAULT 0,
    is_active         BOOLEAN NOT NULL DEFAULT TRUE,
    trigger_once      BOOLEAN NOT NULL DEFAULT FALSE,
    visibility        TEXT NOT NULL DEFAULT 'public',
    conditions        JSONB NOT NULL DEFAULT '[]',
    related_entities  TEXT[] NOT NULL DEFAULT '{}',
    source_type       TEXT NOT NULL DEFAULT 'manual',
    metadata          JSONB NOT NULL DEFAULT '{}',
    trigger_count     INTEGER NOT NULL DEFAULT 0,
    last_triggered_at TIMESTAMPTZ,
    source_file       TEXT,
    source_hash       TEXT,
    last_ingested     TIMESTAMPTZ DEFAULT now()
);

ALTER TABLE entries ADD COLUMN IF NOT EXISTS search_vector TSVECTOR;

CREATE INDEX IF NOT EXISTS idx_entries_scenario ON entries (scenario_id);
CREATE INDEX IF NOT EXISTS idx_entries_type ON entries (entry_type);
CREATE INDEX IF NOT EXISTS idx_entries_category ON entries (category);
CREATE INDEX IF NOT EXISTS idx_entries_scenario_order ON entries (scenario_id, display_order, id);
CREATE INDEX IF NOT EXISTS idx_entries_source_file ON entries (source_file);
CREATE INDEX IF NOT EXISTS idx_entries_related ON entries USING GIN (related_entities);
CREATE INDEX IF NOT EXISTS idx_entries_search ON entries USING GIN (search_vector);
`
	_, err := c.pool.Exec(ctx, ddl)
	if err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
