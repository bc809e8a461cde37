package store

import (
	"context"
	"errors"

	"lorebook/internal/entry"
)

// ErrEntryNotFound is returned by trigger operations when the entry id
// does not exist in the store.
var ErrEntryNotFound = errors.New("entry not found")

type SearchResult struct {
	ID         string
	ScenarioID string
	Title      string
	Type       entry.EntryType
	Score      float64
	Snippet    string
}

type Store interface {
	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	UpsertEntry(ctx context.Context, e entry.Entry) error
	GetEntry(ctx context.Context, id string) (*entry.Entry, error)
	ListEntries(ctx context.Context, scenarioID, entryType, category string) ([]entry.Summary, error)
	ListRelated(ctx context.Context, entityID string) ([]entry.Summary, error)
	AllEntries(ctx context.Context) ([]entry.Entry, error)

	// ScenarioEntries returns the snapshot one match pass operates on:
	// every entry of the scenario, read once, never mutated by the
	// engine.
	ScenarioEntries(ctx context.Context, scenarioID string) ([]entry.Entry, error)

	GetSourceHashes(ctx context.Context, scenarioID string) (map[string]string, error)
	RemoveStaleEntries(ctx context.Context, scenarioID string, currentSourceFiles []string) (int64, error)

	// RecordTrigger atomically increments the entry's trigger count and
	// stamps last_triggered_at. The increment happens in SQL so racing
	// recorders serialize in the database, and nothing is advanced in
	// memory when persistence fails.
	RecordTrigger(ctx context.Context, entryID string) error
	ResetTriggers(ctx context.Context, scenarioID string) (int64, error)
	TriggerStats(ctx context.Context, scenarioID string) ([]entry.TriggerStat, error)

	Search(ctx context.Context, query, scenarioID, entryType string) ([]SearchResult, error)
	RunSQL(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
}
