package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"lorebook/internal/entry"
	"lorebook/internal/store"
)

func (c *Client) RecordTrigger(ctx context.Context, entryID string) error {
	result, err := c.db.ExecContext(ctx, `
	UPDATE entries
	SET trigger_count = trigger_count + 1,
	    last_triggered_at = datetime('now')
	WHERE id = ?
	`, entryID)
	if err != nil {
		return fmt.Errorf("recording trigger: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("recording trigger for %s: %w", entryID, store.ErrEntryNotFound)
	}
	return nil
}

func (c *Client) ResetTriggers(ctx context.Context, scenarioID string) (int64, error) {
	result, err := c.db.ExecContext(ctx, `
	UPDATE entries
	SET trigger_count = 0,
	    last_triggered_at = NULL
	WHERE scenario_id = ?
	  AND (trigger_count > 0 OR last_triggered_at IS NOT NULL)
	`, scenarioID)
	if err != nil {
		return 0, fmt.Errorf("resetting triggers: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}
	return affected, nil
}

func (c *Client) TriggerStats(ctx context.Context, scenarioID string) ([]entry.TriggerStat, error) {
	query := `
	SELECT id, title, trigger_once, trigger_count, last_triggered_at
	FROM entries
	WHERE scenario_id = ?
	ORDER BY trigger_count DESC, id
	`

	rows, err := c.db.QueryContext(ctx, query, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("querying trigger stats: %w", err)
	}
	defer rows.Close()

	stats := make([]entry.TriggerStat, 0)
	for rows.Next() {
		var s entry.TriggerStat
		var triggerOnce int
		var lastTriggered sql.NullString
		if err := rows.Scan(&s.EntryID, &s.Title, &triggerOnce, &s.TriggerCount, &lastTriggered); err != nil {
			return nil, fmt.Errorf("scanning trigger stat: %w", err)
		}
		s.TriggerOnce = triggerOnce != 0
		if s.LastTriggeredAt, err = decodeTimestamp(lastTriggered.String); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating trigger stats: %w", err)
	}

	return stats, nil
}
