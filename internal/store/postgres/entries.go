package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"lorebook/internal/entry"
)

const entryColumns = `id, scenario_id, title, content, category, entry_type,
	keywords, match_type, case_sensitive, priority, insert_depth, probability,
	display_order, is_active, trigger_once, visibility, conditions,
	related_entities, source_type, metadata, trigger_count, last_triggered_at,
	source_file, source_hash`

func (c *Client) UpsertEntry(ctx context.Context, e entry.Entry) error {
	keywordsJSON, err := json.Marshal(emptyIfNil(e.Keywords))
	if err != nil {
		return fmt.Errorf("marshaling keywords: %w", err)
	}
	conditions := e.Conditions
	if conditions == nil {
		conditions = []entry.Condition{}
	}
	conditionsJSON, err := json.Marshal(conditions)
	if err != nil {
		return fmt.Errorf("marshaling conditions: %w", err)
	}
	metadata := e.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}

	related := e.RelatedEntities
	if len(related) == 0 {
		related = nil
	}

	query := `
INSERT INTO entries (id, scenario_id, title, content, category, entry_type,
	keywords, match_type, case_sensitive, priority, insert_depth, probability,
	display_order, is_active, trigger_once, visibility, conditions,
	related_entities, source_type, metadata, source_file, source_hash, last_ingested, search_vector)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
	COALESCE($18, '{}'::text[]), $19, $20, $21, $22, now(),
	setweight(to_tsvector('simple', coalesce($3, '')), 'A') ||
	setweight(to_tsvector('simple', coalesce($23, '')), 'B') ||
	setweight(to_tsvector('simple', coalesce($4, '')), 'C')
)
ON CONFLICT (id) DO UPDATE SET
	scenario_id = EXCLUDED.scenario_id,
	title = EXCLUDED.title,
	content = EXCLUDED.content,
	category = EXCLUDED.category,
	entry_type = EXCLUDED.entry_type,
	keywords = EXCLUDED.keywords,
	match_type = EXCLUDED.match_type,
	case_sensitive = EXCLUDED.case_sensitive,
	priority = EXCLUDED.priority,
	insert_depth = EXCLUDED.insert_depth,
	probability = EXCLUDED.probability,
	display_order = EXCLUDED.display_order,
	is_active = EXCLUDED.is_active,
	trigger_once = EXCLUDED.trigger_once,
	visibility = EXCLUDED.visibility,
	conditions = EXCLUDED.conditions,
	related_entities = EXCLUDED.related_entities,
	source_type = EXCLUDED.source_type,
	metadata = EXCLUDED.metadata,
	source_file = EXCLUDED.source_file,
	source_hash = EXCLUDED.source_hash,
	last_ingested = now(),
	search_vector = EXCLUDED.search_vector
`

	_, err = c.pool.Exec(ctx, query,
		e.ID,
		e.ScenarioID,
		e.Title,
		e.Content,
		e.Category,
		string(e.Type),
		keywordsJSON,
		string(e.MatchType),
		e.CaseSensitive,
		e.Priority,
		e.InsertDepth,
		e.Probability,
		e.DisplayOrder,
		e.IsActive,
		e.TriggerOnce,
		string(e.Visibility),
		conditionsJSON,
		related,
		string(e.SourceType),
		metadataJSON,
		e.SourceFile,
		e.SourceHash,
		strings.Join(e.Keywords, " "),
	)
	if err != nil {
		return fmt.Errorf("upserting entry: %w", err)
	}
	return nil
}

func (c *Client) GetEntry(ctx context.Context, id string) (*entry.Entry, error) {
	query := fmt.Sprintf(`SELECT %s FROM entries WHERE id = $1`, entryColumns)

	rows, err := c.pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("getting entry: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("iterating entry rows: %w", err)
		}
		return nil, nil
	}

	e, err := scanEntry(rows)
	if err != nil {
		return nil, err
	}
	return e, rows.Err()
}

func (c *Client) ScenarioEntries(ctx context.Context, scenarioID string) ([]entry.Entry, error) {
	query := fmt.Sprintf(`
SELECT %s FROM entries
WHERE scenario_id = $1
ORDER BY display_order, id
`, entryColumns)

	return c.queryEntries(ctx, query, scenarioID)
}

func (c *Client) AllEntries(ctx context.Context) ([]entry.Entry, error) {
	query := fmt.Sprintf(`SELECT %s FROM entries ORDER BY scenario_id, display_order, id`, entryColumns)
	return c.queryEntries(ctx, query)
}

func (c *Client) queryEntries(ctx context.Context, query string, args ...any) ([]entry.Entry, error) {
	rows, err := c.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	entries := make([]entry.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}

	return entries, nil
}

func (c *Client) ListEntries(ctx context.Context, scenarioID, entryType, category string) ([]entry.Summary, error) {
	query := `
SELECT id, scenario_id, title, entry_type, category, priority, is_active
FROM entries
WHERE ($1 = '' OR scenario_id = $1)
  AND ($2 = '' OR entry_type = $2)
  AND ($3 = '' OR category = $3)
ORDER BY scenario_id, display_order, id
`

	rows, err := c.pool.Query(ctx, query, scenarioID, entryType, category)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

func (c *Client) ListRelated(ctx context.Context, entityID string) ([]entry.Summary, error) {
	query := `
SELECT id, scenario_id, title, entry_type, category, priority, is_active
FROM entries
WHERE $1 = ANY(related_entities)
ORDER BY scenario_id, display_order, id
`

	rows, err := c.pool.Query(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("listing related entries: %w", err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

func scanSummaries(rows pgx.Rows) ([]entry.Summary, error) {
	summaries := make([]entry.Summary, 0)
	for rows.Next() {
		var s entry.Summary
		var entryType string
		if err := rows.Scan(&s.ID, &s.ScenarioID, &s.Title, &entryType, &s.Category, &s.Priority, &s.IsActive); err != nil {
			return nil, fmt.Errorf("scanning entry summary: %w", err)
		}
		s.Type = entry.EntryType(entryType)
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entry summaries: %w", err)
	}

	return summaries, nil
}

func scanEntry(rows pgx.Rows) (*entry.Entry, error) {
	var e entry.Entry
	var entryType, matchType, visibility, sourceType string
	var keywordsBytes, conditionsBytes, metadataBytes []byte
	var sourceFile, sourceHash *string

	err := rows.Scan(
		&e.ID,
		&e.ScenarioID,
		&e.Title,
		&e.Content,
		&e.Category,
		&entryType,
		&keywordsBytes,
		&matchType,
		&e.CaseSensitive,
		&e.Priority,
		&e.InsertDepth,
		&e.Probability,
		&e.DisplayOrder,
		&e.IsActive,
		&e.TriggerOnce,
		&visibility,
		&conditionsBytes,
		&e.RelatedEntities,
		&sourceType,
		&metadataBytes,
		&e.TriggerCount,
		&e.LastTriggeredAt,
		&sourceFile,
		&sourceHash,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning entry: %w", err)
	}

	e.Type = entry.EntryType(entryType)
	e.MatchType = entry.MatchType(matchType)
	e.Visibility = entry.Visibility(visibility)
	e.SourceType = entry.SourceType(sourceType)
	if sourceFile != nil {
		e.SourceFile = *sourceFile
	}
	if sourceHash != nil {
		e.SourceHash = *sourceHash
	}

	if len(keywordsBytes) > 0 {
		if err := json.Unmarshal(keywordsBytes, &e.Keywords); err != nil {
			return nil, fmt.Errorf("unmarshaling keywords: %w", err)
		}
	}
	if e.Keywords == nil {
		e.Keywords = []string{}
	}
	if len(conditionsBytes) > 0 {
		if err := json.Unmarshal(conditionsBytes, &e.Conditions); err != nil {
			return nil, fmt.Errorf("unmarshaling conditions: %w", err)
		}
	}
	if e.Conditions == nil {
		e.Conditions = []entry.Condition{}
	}
	if len(metadataBytes) > 0 {
		if err := json.Unmarshal(metadataBytes, &e.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata: %w", err)
		}
	}
	if e.Metadata == nil {
		e.Metadata = map[string]any{}
	}
	if e.RelatedEntities == nil {
		e.RelatedEntities = []string{}
	}

	return &e, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
