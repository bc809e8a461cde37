package postgres

import (
	"context"
	"fmt"

	"lorebook/internal/entry"
	"lorebook/internal/store"
)

func (c *Client) RecordTrigger(ctx context.Context, entryID string) error {
	tag, err := c.pool.Exec(ctx, `
UPDATE entries
SET trigger_count = trigger_count + 1,
    last_triggered_at = now()
WHERE id = $1
`, entryID)
	if err != nil {
		return fmt.Errorf("recording trigger: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("recording trigger for %s: %w", entryID, store.ErrEntryNotFound)
	}
	return nil
}

func (c *Client) ResetTriggers(ctx context.Context, scenarioID string) (int64, error) {
	tag, err := c.pool.Exec(ctx, `
UPDATE entries
SET trigger_count = 0,
    last_triggered_at = NULL
WHERE scenario_id = $1
  AND (trigger_count > 0 OR last_triggered_at IS NOT NULL)
`, scenarioID)
	if err != nil {
		return 0, fmt.Errorf("resetting triggers: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (c *Client) TriggerStats(ctx context.Context, scenarioID string) ([]entry.TriggerStat, error) {
	query := `
SELECT id, title, trigger_once, trigger_count, last_triggered_at
FROM entries
WHERE scenario_id = $1
ORDER BY trigger_count DESC, id
`

	rows, err := c.pool.Query(ctx, query, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("querying trigger stats: %w", err)
	}
	defer rows.Close()

	stats := make([]entry.TriggerStat, 0)
	for rows.Next() {
		var s entry.TriggerStat
		if err := rows.Scan(&s.EntryID, &s.Title, &s.TriggerOnce, &s.TriggerCount, &s.LastTriggeredAt); err != nil {
			return nil, fmt.Errorf("scanning trigger stat: %w", err)
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating trigger stats: %w", err)
	}

	return stats, nil
}
