package validate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"lorebook/internal/config"
	"lorebook/internal/entry"
)

type mockLister struct {
	entries []entry.Entry
	err     error
}

func (m *mockLister) AllEntries(ctx context.Context) ([]entry.Entry, error) {
	return m.entries, m.err
}

func goodEntry() entry.Entry {
	return entry.Entry{
		ID:          "ancient-magic",
		ScenarioID:  "xianxia-academy",
		Title:       "Ancient Magic",
		Content:     "The old magic predates the academy.",
		Type:        entry.TypeKnowledge,
		Keywords:    []string{"魔法"},
		MatchType:   entry.MatchExact,
		Probability: 1.0,
		Visibility:  entry.VisibilityPublic,
		SourceType:  entry.SourceManual,
		IsActive:    true,
	}
}

func TestRun_CleanEntries(t *testing.T) {
	db := &mockLister{entries: []entry.Entry{goodEntry()}}

	report, err := Run(context.Background(), nil, db)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Issues) != 0 {
		t.Fatalf("expected no issues, got %#v", report.Issues)
	}
}

func TestRun_StoreError(t *testing.T) {
	db := &mockLister{err: errors.New("boom")}
	if _, err := Run(context.Background(), nil, db); err == nil {
		t.Fatalf("expected error")
	}
}

func findIssue(report *Report, code string) *Issue {
	for i := range report.Issues {
		if report.Issues[i].Code == code {
			return &report.Issues[i]
		}
	}
	return nil
}

func TestRun_InvalidRegexKeyword(t *testing.T) {
	e := goodEntry()
	e.MatchType = entry.MatchRegex
	e.Keywords = []string{"[unclosed"}
	db := &mockLister{entries: []entry.Entry{e}}

	report, err := Run(context.Background(), nil, db)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	issue := findIssue(report, "regex_invalid")
	if issue == nil {
		t.Fatalf("expected regex issue, got %#v", report.Issues)
	}
	if issue.Severity != SeverityError {
		t.Fatalf("expected error severity")
	}
	if issue.EntryID != "ancient-magic" {
		t.Fatalf("expected entry id on issue")
	}
}

func TestRun_ProbabilityOutOfRange(t *testing.T) {
	e := goodEntry()
	e.Probability = 1.5
	db := &mockLister{entries: []entry.Entry{e}}

	report, err := Run(context.Background(), nil, db)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if findIssue(report, "probability_out_of_range") == nil {
		t.Fatalf("expected probability issue, got %#v", report.Issues)
	}
}

func TestRun_InvalidEnums(t *testing.T) {
	e := goodEntry()
	e.MatchType = "fuzzy"
	e.Visibility = "hidden"
	e.Type = "weapon"
	e.SourceType = "scraped"
	db := &mockLister{entries: []entry.Entry{e}}

	report, err := Run(context.Background(), nil, db)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	count := 0
	for _, issue := range report.Issues {
		if issue.Code == "enum_value_invalid" {
			count++
		}
	}
	if count != 4 {
		t.Fatalf("expected 4 enum issues, got %d: %#v", count, report.Issues)
	}
}

func TestRun_UnknownConditionType(t *testing.T) {
	e := goodEntry()
	e.Conditions = []entry.Condition{{Type: "moon_phase", Requirement: "full"}}
	db := &mockLister{entries: []entry.Entry{e}}

	report, err := Run(context.Background(), nil, db)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if findIssue(report, "condition_type_unknown") == nil {
		t.Fatalf("expected condition issue, got %#v", report.Issues)
	}
}

func TestRun_SchemaAliasAccepted(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conditions.yaml")
	content := "version: 1\ncondition_types:\n  - name: faction_present\n    field: present_characters\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing schema: %v", err)
	}
	schema, err := config.LoadSchema(path)
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}

	e := goodEntry()
	e.Conditions = []entry.Condition{{Type: "faction_present", Requirement: "影阁"}}
	db := &mockLister{entries: []entry.Entry{e}}

	report, err := Run(context.Background(), schema, db)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Issues) != 0 {
		t.Fatalf("expected alias to be accepted, got %#v", report.Issues)
	}
}

func TestRun_Warnings(t *testing.T) {
	e := goodEntry()
	e.Keywords = nil
	e.Content = "  "
	db := &mockLister{entries: []entry.Entry{e}}

	report, err := Run(context.Background(), nil, db)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, code := range []string{"no_keywords", "blank_content"} {
		issue := findIssue(report, code)
		if issue == nil {
			t.Fatalf("expected %s warning, got %#v", code, report.Issues)
		}
		if issue.Severity != SeverityWarn {
			t.Fatalf("expected %s to be a warning", code)
		}
	}
	if report.Errors() != 0 {
		t.Fatalf("warnings must not count as errors")
	}
}

func TestRun_NegativeInsertDepth(t *testing.T) {
	e := goodEntry()
	e.InsertDepth = -2
	db := &mockLister{entries: []entry.Entry{e}}

	report, err := Run(context.Background(), nil, db)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if findIssue(report, "insert_depth_negative") == nil {
		t.Fatalf("expected insert depth issue, got %#v", report.Issues)
	}
	if report.Errors() == 0 {
		t.Fatalf("expected error count")
	}
}
