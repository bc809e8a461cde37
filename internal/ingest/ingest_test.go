package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"lorebook/internal/config"
	"lorebook/internal/entry"
)

type mockStore struct {
	entries      []entry.Entry
	removeCalls  []struct {
		scenario string
		files    []string
	}
	ensureCalled bool
	failUpsert   string
	sourceHashes map[string]map[string]string
	removed      int64
}

func (m *mockStore) EnsureSchema(ctx context.Context) error {
	m.ensureCalled = true
	return nil
}

func (m *mockStore) UpsertEntry(ctx context.Context, e entry.Entry) error {
	if m.failUpsert != "" && e.Title == m.failUpsert {
		return errors.New("forced error")
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockStore) GetSourceHashes(ctx context.Context, scenarioID string) (map[string]string, error) {
	if hashes, ok := m.sourceHashes[scenarioID]; ok {
		return hashes, nil
	}
	return map[string]string{}, nil
}

func (m *mockStore) RemoveStaleEntries(ctx context.Context, scenarioID string, currentSourceFiles []string) (int64, error) {
	m.removeCalls = append(m.removeCalls, struct {
		scenario string
		files    []string
	}{scenario: scenarioID, files: currentSourceFiles})
	return m.removed, nil
}

func writeEntryFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func testProjectConfig(t *testing.T, dir string) *config.ProjectConfig {
	t.Helper()
	return &config.ProjectConfig{
		Project:  "test",
		Version:  1,
		Database: config.DatabaseConfig{Backend: "sqlite", DSN: "sqlite://:memory:"},
		Sources: []config.Source{{
			Name:     "main",
			Scenario: "xianxia-academy",
			Paths:    []string{dir},
		}},
	}
}

const validEntry = `---
id: ancient-magic
title: Ancient Magic
keywords: [魔法]
priority: 90
---
The old magic predates the academy.
`

const noIDEntry = `---
title: Sword Lore
keywords: [长剑]
---
Swords are sharp.
`

func TestRun_BasicIngestion(t *testing.T) {
	dir := t.TempDir()
	writeEntryFile(t, dir, "magic.md", validEntry)
	writeEntryFile(t, dir, "sword.md", noIDEntry)
	cfg := testProjectConfig(t, dir)
	db := &mockStore{}

	result, err := Run(context.Background(), cfg, db, Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if !db.ensureCalled {
		t.Fatalf("expected ensure schema")
	}
	if result.EntriesUpserted != 2 {
		t.Fatalf("expected 2 entries upserted, got %d", result.EntriesUpserted)
	}
	for _, e := range db.entries {
		if e.ScenarioID != "xianxia-academy" {
			t.Fatalf("expected scenario from source config, got %q", e.ScenarioID)
		}
		if e.SourceHash == "" {
			t.Fatalf("expected source hash set")
		}
	}
}

func TestRun_MintsStableIDs(t *testing.T) {
	dir := t.TempDir()
	writeEntryFile(t, dir, "sword.md", noIDEntry)
	cfg := testProjectConfig(t, dir)

	first := &mockStore{}
	if _, err := Run(context.Background(), cfg, first, Options{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	second := &mockStore{}
	if _, err := Run(context.Background(), cfg, second, Options{Full: true}); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(first.entries) != 1 || len(second.entries) != 1 {
		t.Fatalf("expected one entry per run")
	}
	if first.entries[0].ID == "" {
		t.Fatalf("expected minted id")
	}
	if first.entries[0].ID != second.entries[0].ID {
		t.Fatalf("minted ids must be stable across runs: %q != %q", first.entries[0].ID, second.entries[0].ID)
	}
}

func TestRun_SkipsNoFrontmatter(t *testing.T) {
	dir := t.TempDir()
	writeEntryFile(t, dir, "notes.md", "just some notes, no frontmatter")
	cfg := testProjectConfig(t, dir)
	db := &mockStore{}

	result, err := Run(context.Background(), cfg, db, Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if result.FilesSkipped != 1 {
		t.Fatalf("expected 1 file skipped, got %d", result.FilesSkipped)
	}
	if result.EntriesUpserted != 0 {
		t.Fatalf("expected no upserts")
	}
}

func TestRun_CollectsParseErrors(t *testing.T) {
	dir := t.TempDir()
	writeEntryFile(t, dir, "bad.md", "---\ntype: lore\n---\nno title\n")
	writeEntryFile(t, dir, "good.md", validEntry)
	cfg := testProjectConfig(t, dir)
	db := &mockStore{}

	result, err := Run(context.Background(), cfg, db, Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error, got %d", len(result.Errors))
	}
	if result.EntriesUpserted != 1 {
		t.Fatalf("expected good file still ingested, got %d", result.EntriesUpserted)
	}
}

func TestRun_ContinuesOnUpsertError(t *testing.T) {
	dir := t.TempDir()
	writeEntryFile(t, dir, "magic.md", validEntry)
	writeEntryFile(t, dir, "sword.md", noIDEntry)
	cfg := testProjectConfig(t, dir)
	db := &mockStore{failUpsert: "Ancient Magic"}

	result, err := Run(context.Background(), cfg, db, Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error, got %d", len(result.Errors))
	}
	if result.EntriesUpserted != 1 {
		t.Fatalf("expected the other entry upserted, got %d", result.EntriesUpserted)
	}
}

func TestRun_IncrementalSkip(t *testing.T) {
	dir := t.TempDir()
	path := writeEntryFile(t, dir, "magic.md", validEntry)
	hash, err := computeHash(path)
	if err != nil {
		t.Fatalf("compute hash: %v", err)
	}
	cfg := testProjectConfig(t, dir)
	db := &mockStore{
		sourceHashes: map[string]map[string]string{
			"xianxia-academy": {path: hash},
		},
	}

	result, err := Run(context.Background(), cfg, db, Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if result.FilesSkipped != 1 {
		t.Fatalf("expected unchanged file skipped, got %d", result.FilesSkipped)
	}
	if len(db.entries) != 0 {
		t.Fatalf("expected no upserts")
	}
}

func TestRun_FullIngestionOverridesHashes(t *testing.T) {
	dir := t.TempDir()
	path := writeEntryFile(t, dir, "magic.md", validEntry)
	hash, err := computeHash(path)
	if err != nil {
		t.Fatalf("compute hash: %v", err)
	}
	cfg := testProjectConfig(t, dir)
	db := &mockStore{
		sourceHashes: map[string]map[string]string{
			"xianxia-academy": {path: hash},
		},
	}

	result, err := Run(context.Background(), cfg, db, Options{Full: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.EntriesUpserted != 1 {
		t.Fatalf("expected entry re-ingested in full mode, got %d", result.EntriesUpserted)
	}
}

func TestRun_RemovesStaleEntries(t *testing.T) {
	dir := t.TempDir()
	writeEntryFile(t, dir, "magic.md", validEntry)
	cfg := testProjectConfig(t, dir)
	db := &mockStore{removed: 3}

	result, err := Run(context.Background(), cfg, db, Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(db.removeCalls) != 1 {
		t.Fatalf("expected one remove call, got %d", len(db.removeCalls))
	}
	if db.removeCalls[0].scenario != "xianxia-academy" {
		t.Fatalf("unexpected scenario: %q", db.removeCalls[0].scenario)
	}
	if len(db.removeCalls[0].files) != 1 {
		t.Fatalf("expected current file list, got %#v", db.removeCalls[0].files)
	}
	if result.EntriesRemoved != 3 {
		t.Fatalf("expected 3 removed, got %d", result.EntriesRemoved)
	}
}

func TestRun_ExcludedPaths(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "drafts")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeEntryFile(t, dir, "magic.md", validEntry)
	writeEntryFile(t, sub, "wip.md", noIDEntry)
	cfg := testProjectConfig(t, dir)
	cfg.Exclude = []string{sub}
	db := &mockStore{}

	result, err := Run(context.Background(), cfg, db, Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.EntriesUpserted != 1 {
		t.Fatalf("expected excluded dir skipped, got %d upserts", result.EntriesUpserted)
	}
}

func TestBuildEntry_FrontmatterScenarioWins(t *testing.T) {
	dir := t.TempDir()
	content := "---\ntitle: Override\nscenario: other-world\nkeywords: [x]\n---\nBody.\n"
	writeEntryFile(t, dir, "override.md", content)
	cfg := testProjectConfig(t, dir)
	db := &mockStore{}

	if _, err := Run(context.Background(), cfg, db, Options{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(db.entries) != 1 {
		t.Fatalf("expected one entry")
	}
	if db.entries[0].ScenarioID != "other-world" {
		t.Fatalf("expected frontmatter scenario to win, got %q", db.entries[0].ScenarioID)
	}
}
