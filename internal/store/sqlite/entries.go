package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"lorebook/internal/entry"
)

const entryColumns = `id, scenario_id, title, content, category, entry_type,
	keywords, match_type, case_sensitive, priority, insert_depth, probability,
	display_order, is_active, trigger_once, visibility, conditions,
	related_entities, source_type, metadata, trigger_count, last_triggered_at,
	source_file, source_hash`

func (c *Client) UpsertEntry(ctx context.Context, e entry.Entry) error {
	keywordsJSON, err := encodeKeywords(e.Keywords)
	if err != nil {
		return err
	}
	conditionsJSON, err := encodeConditions(e.Conditions)
	if err != nil {
		return err
	}
	relatedJSON, err := encodeStrings(e.RelatedEntities)
	if err != nil {
		return err
	}
	metadataJSON, err := encodeMetadata(e.Metadata)
	if err != nil {
		return err
	}

	query := `
	INSERT INTO entries (id, scenario_id, title, content, category, entry_type,
		keywords, match_type, case_sensitive, priority, insert_depth, probability,
		display_order, is_active, trigger_once, visibility, conditions,
		related_entities, source_type, metadata, source_file, source_hash, last_ingested)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
	ON CONFLICT (id) DO UPDATE SET
		scenario_id = excluded.scenario_id,
		title = excluded.title,
		content = excluded.content,
		category = excluded.category,
		entry_type = excluded.entry_type,
		keywords = excluded.keywords,
		match_type = excluded.match_type,
		case_sensitive = excluded.case_sensitive,
		priority = excluded.priority,
		insert_depth = excluded.insert_depth,
		probability = excluded.probability,
		display_order = excluded.display_order,
		is_active = excluded.is_active,
		trigger_once = excluded.trigger_once,
		visibility = excluded.visibility,
		conditions = excluded.conditions,
		related_entities = excluded.related_entities,
		source_type = excluded.source_type,
		metadata = excluded.metadata,
		source_file = excluded.source_file,
		source_hash = excluded.source_hash,
		last_ingested = datetime('now')
	`

	_, err = c.db.ExecContext(ctx, query,
		e.ID,
		e.ScenarioID,
		e.Title,
		e.Content,
		e.Category,
		string(e.Type),
		keywordsJSON,
		string(e.MatchType),
		boolToInt(e.CaseSensitive),
		e.Priority,
		e.InsertDepth,
		e.Probability,
		e.DisplayOrder,
		boolToInt(e.IsActive),
		boolToInt(e.TriggerOnce),
		string(e.Visibility),
		conditionsJSON,
		relatedJSON,
		string(e.SourceType),
		metadataJSON,
		e.SourceFile,
		e.SourceHash,
	)
	if err != nil {
		return fmt.Errorf("upserting entry: %w", err)
	}
	return nil
}

func (c *Client) GetEntry(ctx context.Context, id string) (*entry.Entry, error) {
	query := fmt.Sprintf(`SELECT %s FROM entries WHERE id = ?`, entryColumns)

	rows, err := c.db.QueryContext(ctx, query, id)
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
	WHERE scenario_id = ?
	ORDER BY display_order, id
	`, entryColumns)

	return c.queryEntries(ctx, query, scenarioID)
}

func (c *Client) AllEntries(ctx context.Context) ([]entry.Entry, error) {
	query := fmt.Sprintf(`SELECT %s FROM entries ORDER BY scenario_id, display_order, id`, entryColumns)
	return c.queryEntries(ctx, query)
}

func (c *Client) queryEntries(ctx context.Context, query string, args ...any) ([]entry.Entry, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
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
	WHERE (? = '' OR scenario_id = ?)
	  AND (? = '' OR entry_type = ?)
	  AND (? = '' OR category = ?)
	ORDER BY scenario_id, display_order, id
	`

	rows, err := c.db.QueryContext(ctx, query, scenarioID, scenarioID, entryType, entryType, category, category)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

func (c *Client) ListRelated(ctx context.Context, entityID string) ([]entry.Summary, error) {
	// related_entities is a JSON array column; membership via the
	// json_each table-valued function.
	query := `
	SELECT e.id, e.scenario_id, e.title, e.entry_type, e.category, e.priority, e.is_active
	FROM entries e, json_each(e.related_entities) related
	WHERE related.value = ?
	ORDER BY e.scenario_id, e.display_order, e.id
	`

	rows, err := c.db.QueryContext(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("listing related entries: %w", err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

func scanSummaries(rows *sql.Rows) ([]entry.Summary, error) {
	summaries := make([]entry.Summary, 0)
	for rows.Next() {
		var s entry.Summary
		var entryType string
		var active int
		if err := rows.Scan(&s.ID, &s.ScenarioID, &s.Title, &entryType, &s.Category, &s.Priority, &active); err != nil {
			return nil, fmt.Errorf("scanning entry summary: %w", err)
		}
		s.Type = entry.EntryType(entryType)
		s.IsActive = active != 0
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entry summaries: %w", err)
	}

	return summaries, nil
}

func scanEntry(rows *sql.Rows) (*entry.Entry, error) {
	var e entry.Entry
	var entryType, matchType, visibility, sourceType string
	var caseSensitive, active, triggerOnce int
	var keywordsBytes, conditionsBytes, relatedBytes, metadataBytes []byte
	var lastTriggered, sourceFile, sourceHash sql.NullString

	err := rows.Scan(
		&e.ID,
		&e.ScenarioID,
		&e.Title,
		&e.Content,
		&e.Category,
		&entryType,
		&keywordsBytes,
		&matchType,
		&caseSensitive,
		&e.Priority,
		&e.InsertDepth,
		&e.Probability,
		&e.DisplayOrder,
		&active,
		&triggerOnce,
		&visibility,
		&conditionsBytes,
		&relatedBytes,
		&sourceType,
		&metadataBytes,
		&e.TriggerCount,
		&lastTriggered,
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
	e.CaseSensitive = caseSensitive != 0
	e.IsActive = active != 0
	e.TriggerOnce = triggerOnce != 0
	e.SourceFile = sourceFile.String
	e.SourceHash = sourceHash.String

	if e.Keywords, err = decodeKeywords(keywordsBytes); err != nil {
		return nil, err
	}
	if e.Conditions, err = decodeConditions(conditionsBytes); err != nil {
		return nil, err
	}
	if e.RelatedEntities, err = decodeStrings(relatedBytes); err != nil {
		return nil, err
	}
	if e.Metadata, err = decodeMetadata(metadataBytes); err != nil {
		return nil, err
	}
	if e.LastTriggeredAt, err = decodeTimestamp(lastTriggered.String); err != nil {
		return nil, err
	}

	return &e, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
