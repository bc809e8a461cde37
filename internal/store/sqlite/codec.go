package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"lorebook/internal/entry"
)

// The store is the serialization boundary: keyword, condition,
// related-entity, and metadata payloads live as JSON text columns and
// are decoded here, never inside the engine.

const sqliteTimeLayout = "2006-01-02 15:04:05"

type conditionJSON struct {
	Type        string `json:"type"`
	Requirement string `json:"requirement"`
	Description string `json:"description,omitempty"`
}

func encodeKeywords(keywords []string) ([]byte, error) {
	if keywords == nil {
		keywords = []string{}
	}
	data, err := json.Marshal(keywords)
	if err != nil {
		return nil, fmt.Errorf("marshaling keywords: %w", err)
	}
	return data, nil
}

func encodeConditions(conditions []entry.Condition) ([]byte, error) {
	out := make([]conditionJSON, 0, len(conditions))
	for _, c := range conditions {
		out = append(out, conditionJSON{
			Type:        string(c.Type),
			Requirement: c.Requirement,
			Description: c.Description,
		})
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshaling conditions: %w", err)
	}
	return data, nil
}

func encodeStrings(values []string) ([]byte, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("marshaling string list: %w", err)
	}
	return data, nil
}

func encodeMetadata(metadata map[string]any) ([]byte, error) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("marshaling metadata: %w", err)
	}
	return data, nil
}

func decodeKeywords(data []byte) ([]string, error) {
	if len(data) == 0 {
		return []string{}, nil
	}
	var keywords []string
	if err := json.Unmarshal(data, &keywords); err != nil {
		return nil, fmt.Errorf("unmarshaling keywords: %w", err)
	}
	if keywords == nil {
		keywords = []string{}
	}
	return keywords, nil
}

func decodeConditions(data []byte) ([]entry.Condition, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var raw []conditionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshaling conditions: %w", err)
	}
	conditions := make([]entry.Condition, 0, len(raw))
	for _, c := range raw {
		conditions = append(conditions, entry.Condition{
			Type:        entry.ConditionType(c.Type),
			Requirement: c.Requirement,
			Description: c.Description,
		})
	}
	return conditions, nil
}

func decodeStrings(data []byte) ([]string, error) {
	if len(data) == 0 {
		return []string{}, nil
	}
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("unmarshaling string list: %w", err)
	}
	if values == nil {
		values = []string{}
	}
	return values, nil
}

func decodeMetadata(data []byte) (map[string]any, error) {
	if len(data) == 0 {
		return map[string]any{}, nil
	}
	var metadata map[string]any
	if err := json.Unmarshal(data, &metadata); err != nil {
		return nil, fmt.Errorf("unmarshaling metadata: %w", err)
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	return metadata, nil
}

func decodeTimestamp(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{sqliteTimeLayout, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unparseable timestamp: %q", value)
}
