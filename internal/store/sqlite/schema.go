package sqlite

import (
	"context"
	"fmt"
	"strings"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS entries (
		id                TEXT PRIMARY KEY,
		scenario_id       TEXT NOT NULL,
		title             TEXT NOT NULL,
		content           TEXT NOT NULL DEFAULT '',
		category          TEXT DEFAULT '',
		entry_type        TEXT NOT NULL DEFAULT 'knowledge',
		keywords          TEXT DEFAULT '[]',
		match_type        TEXT NOT NULL DEFAULT 'partial',
		case_sensitive    INTEGER DEFAULT 0,
		priority          INTEGER DEFAULT 0,
		insert_depth      INTEGER DEFAULT 0,
		probability       REAL DEFAULT 1.0,
		display_order     INTEGER DEFAULT 0,
		is_active         INTEGER DEFAULT 1,
		trigger_once      INTEGER DEFAULT 0,
		visibility        TEXT NOT NULL DEFAULT 'public',
		conditions        TEXT DEFAULT '[]',
		related_entities  TEXT DEFAULT '[]',
		source_type       TEXT DEFAULT 'manual',
		metadata          TEXT DEFAULT '{}',
		trigger_count     INTEGER DEFAULT 0,
		last_triggered_at TEXT,
		source_file       TEXT,
		source_hash       TEXT,
		last_ingested     TEXT DEFAULT (datetime('now'))
	);

	CREATE INDEX IF NOT EXISTS idx_entries_scenario ON entries (scenario_id);
	CREATE INDEX IF NOT EXISTS idx_entries_scenario_active ON entries (scenario_id, is_active);
	CREATE INDEX IF NOT EXISTS idx_entries_type ON entries (entry_type);
	CREATE INDEX IF NOT EXISTS idx_entries_source_file ON entries (source_file);

	CREATE VIRTUAL TABLE IF NOT EXISTS entries_fts USING fts5(
		title,
		keywords,
		content,
		content=entries,
		content_rowid=rowid
	);

	CREATE TRIGGER IF NOT EXISTS entries_ai AFTER INSERT ON entries BEGIN
		INSERT INTO entries_fts(rowid, title, keywords, content)
		VALUES (new.rowid, new.title, new.keywords, new.content);
	END;

	CREATE TRIGGER IF NOT EXISTS entries_ad AFTER DELETE ON entries BEGIN
		INSERT INTO entries_fts(entries_fts, rowid, title, keywords, content)
		VALUES ('delete', old.rowid, old.title, old.keywords, old.content);
	END;

	CREATE TRIGGER IF NOT EXISTS entries_au AFTER UPDATE ON entries BEGIN
		INSERT INTO entries_fts(entries_fts, rowid, title, keywords, content)
		VALUES ('delete', old.rowid, old.title, old.keywords, old.content);
		INSERT INTO entries_fts(rowid, title, keywords, content)
		VALUES (new.rowid, new.title, new.keywords, new.content);
	END;
	`

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	statements := splitStatements(ddl)
	for _, stmt := range statements {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema transaction: %w", err)
	}

	return nil
}

// splitStatements cuts the DDL into single statements on trailing
// semicolons, keeping trigger BEGIN...END bodies in one piece.
func splitStatements(ddl string) []string {
	var statements []string
	var current strings.Builder
	var inTrigger bool

	for _, line := range strings.Split(ddl, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")

		upper := strings.ToUpper(stripped)
		if strings.HasPrefix(upper, "CREATE TRIGGER") {
			inTrigger = true
		}
		if inTrigger && upper == "END;" {
			inTrigger = false
		}

		if !inTrigger && strings.HasSuffix(stripped, ";") {
			statements = append(statements, current.String())
			current.Reset()
		}
	}

	if current.Len() > 0 && strings.TrimSpace(current.String()) != "" {
		statements = append(statements, current.String())
	}

	return statements
}
