package postgres

import (
	"context"
	"fmt"
	"strings"

	"lorebook/internal/entry"
	"lorebook/internal/store"
)

func (c *Client) Search(ctx context.Context, query, scenarioID, entryType string) ([]store.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}

	sql := `
SELECT id, scenario_id, title, entry_type,
    ts_rank(search_vector, websearch_to_tsquery('simple', $1)) AS score,
    CASE WHEN content <> '' THEN
        ts_headline('simple', content, websearch_to_tsquery('simple', $1),
            'MaxFragments=2, MaxWords=40, MinWords=20, StartSel=**, StopSel=**')
    ELSE '' END AS snippet
FROM entries
WHERE search_vector @@ websearch_to_tsquery('simple', $1)
  AND ($2 = '' OR scenario_id = $2)
  AND ($3 = '' OR entry_type = $3)
ORDER BY score DESC, id ASC
LIMIT 50
`

	rows, err := c.pool.Query(ctx, sql, query, scenarioID, entryType)
	if err != nil {
		return nil, fmt.Errorf("searching entries: %w", err)
	}
	defer rows.Close()

	results := make([]store.SearchResult, 0)
	for rows.Next() {
		var r store.SearchResult
		var entryType string
		if err := rows.Scan(&r.ID, &r.ScenarioID, &r.Title, &entryType, &r.Score, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		r.Type = entry.EntryType(entryType)
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}

	return results, nil
}
