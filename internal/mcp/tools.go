package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"lorebook/internal/engine"
	"lorebook/internal/entry"
	"lorebook/internal/store"
	"lorebook/internal/validate"
)

type MatchWorldInfoInput struct {
	Scenario      string            `json:"scenario" jsonschema:"scenario whose entries are matched"`
	Text          string            `json:"text" jsonschema:"conversation text to scan"`
	Location      string            `json:"location,omitempty" jsonschema:"current location"`
	Role          string            `json:"role,omitempty" jsonschema:"actor role, e.g. player or gm"`
	IsOwner       bool              `json:"is_owner,omitempty" jsonschema:"actor owns the scenario"`
	Characters    []string          `json:"characters,omitempty" jsonschema:"characters present in the scene"`
	Events        []string          `json:"events,omitempty" jsonschema:"currently active events"`
	Items         []string          `json:"items,omitempty" jsonschema:"items the actor owns"`
	Relationships map[string]string `json:"relationships,omitempty" jsonschema:"character name to relationship standing"`
	Secrets       []string          `json:"secrets,omitempty" jsonschema:"secret ids the actor knows"`
	Reputation    *int              `json:"reputation,omitempty" jsonschema:"actor reputation score"`
	MaxResults    int               `json:"max_results,omitempty" jsonschema:"cap on returned entries, 0 uses the project default"`
}

type MatchResultOutput struct {
	EntryID         string   `json:"entry_id"`
	Title           string   `json:"title"`
	Content         string   `json:"content"`
	MatchedKeywords []string `json:"matched_keywords"`
	Confidence      float64  `json:"confidence"`
	InsertDepth     int      `json:"insert_depth"`
	Excerpt         string   `json:"excerpt"`
}

type DiagnosticOutput struct {
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	EntryID  string `json:"entry_id,omitempty"`
	Keyword  string `json:"keyword,omitempty"`
}

type MatchWorldInfoOutput struct {
	Results     []MatchResultOutput `json:"results"`
	Diagnostics []DiagnosticOutput  `json:"diagnostics"`
}

type RecordTriggerInput struct {
	EntryID string `json:"entry_id" jsonschema:"entry whose trigger is recorded"`
}

type RecordTriggerOutput struct {
	Recorded bool `json:"recorded"`
}

type GetEntryInput struct {
	ID string `json:"id" jsonschema:"entry id"`
}

type EntryOutput struct {
	ID              string         `json:"id"`
	Scenario        string         `json:"scenario"`
	Title           string         `json:"title"`
	Content         string         `json:"content"`
	Category        string         `json:"category"`
	Type            string         `json:"type"`
	Keywords        []string       `json:"keywords"`
	MatchType       string         `json:"match_type"`
	Priority        int            `json:"priority"`
	InsertDepth     int            `json:"insert_depth"`
	Probability     float64        `json:"probability"`
	Visibility      string         `json:"visibility"`
	Conditions      []ConditionOut `json:"conditions"`
	RelatedEntities []string       `json:"related_entities"`
	TriggerOnce     bool           `json:"trigger_once"`
	TriggerCount    int            `json:"trigger_count"`
	LastTriggeredAt string         `json:"last_triggered_at,omitempty"`
	IsActive        bool           `json:"is_active"`
}

type ConditionOut struct {
	Type        string `json:"type"`
	Requirement string `json:"requirement"`
	Description string `json:"description,omitempty"`
}

type ListEntriesInput struct {
	Scenario string `json:"scenario,omitempty" jsonschema:"scenario filter"`
	Type     string `json:"type,omitempty" jsonschema:"entry type filter"`
	Category string `json:"category,omitempty" jsonschema:"category filter"`
}

type EntrySummaryOutput struct {
	ID       string `json:"id"`
	Scenario string `json:"scenario"`
	Title    string `json:"title"`
	Type     string `json:"type"`
	Category string `json:"category"`
	Priority int    `json:"priority"`
	IsActive bool   `json:"is_active"`
}

type ListEntriesOutput struct {
	Entries []EntrySummaryOutput `json:"entries"`
}

type SearchEntriesInput struct {
	Query    string `json:"query" jsonschema:"search terms"`
	Scenario string `json:"scenario,omitempty" jsonschema:"restrict to a scenario"`
	Type     string `json:"type,omitempty" jsonschema:"restrict to an entry type"`
}

type SearchResultOutput struct {
	ID       string  `json:"id"`
	Scenario string  `json:"scenario"`
	Title    string  `json:"title"`
	Type     string  `json:"type"`
	Score    float64 `json:"score"`
	Snippet  string  `json:"snippet"`
}

type SearchEntriesOutput struct {
	Results []SearchResultOutput `json:"results"`
}

type ValidateEntriesInput struct{}

type IssueOutput struct {
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	EntryID  string `json:"entry_id,omitempty"`
	FilePath string `json:"file_path,omitempty"`
}

type ValidateEntriesOutput struct {
	Issues []IssueOutput `json:"issues"`
	Errors int           `json:"errors"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "match_world_info",
		Description: "Match scenario entries against conversation text and return the injectable results",
	}, s.handleMatchWorldInfo)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "record_trigger",
		Description: "Record that an entry's content was injected",
	}, s.handleRecordTrigger)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_entry",
		Description: "Retrieve a specific entry with its full matching configuration",
	}, s.handleGetEntry)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_entries",
		Description: "List entries with optional filters",
	}, s.handleListEntries)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "search_entries",
		Description: "Full-text search over entry titles, keywords, and content",
	}, s.handleSearchEntries)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "validate_entries",
		Description: "Lint all stored entries for configuration problems",
	}, s.handleValidateEntries)
}

func (s *Server) handleMatchWorldInfo(ctx context.Context, req *sdk.CallToolRequest, input MatchWorldInfoInput) (*sdk.CallToolResult, MatchWorldInfoOutput, error) {
	if input.Scenario == "" {
		return nil, MatchWorldInfoOutput{}, fmt.Errorf("scenario is required")
	}

	entries, err := s.db.ScenarioEntries(ctx, input.Scenario)
	if err != nil {
		return nil, MatchWorldInfoOutput{}, err
	}

	rc := engine.Context{
		ActorRole:         input.Role,
		IsOwner:           input.IsOwner,
		CurrentLocation:   input.Location,
		PresentCharacters: input.Characters,
		CurrentEvents:     input.Events,
		OwnedItems:        input.Items,
		Relationships:     input.Relationships,
		SecretsKnown:      input.Secrets,
		Reputation:        input.Reputation,
	}

	maxResults := input.MaxResults
	if maxResults == 0 {
		maxResults = s.cfg.Engine.MaxResults
	}

	results, diagnostics, err := s.engine.Select(entries, input.Text, rc, maxResults)
	if err != nil {
		return nil, MatchWorldInfoOutput{}, err
	}

	byID := make(map[string]*entry.Entry, len(entries))
	for i := range entries {
		byID[entries[i].ID] = &entries[i]
	}

	output := MatchWorldInfoOutput{
		Results:     make([]MatchResultOutput, 0, len(results)),
		Diagnostics: make([]DiagnosticOutput, 0, len(diagnostics)),
	}
	for _, result := range results {
		out := MatchResultOutput{
			EntryID:         result.EntryID,
			MatchedKeywords: result.MatchedKeywords,
			Confidence:      result.Confidence,
			InsertDepth:     result.InsertDepth,
			Excerpt:         result.Excerpt,
		}
		if e, ok := byID[result.EntryID]; ok {
			out.Title = e.Title
			out.Content = e.Content
		}
		output.Results = append(output.Results, out)
	}
	for _, d := range diagnostics {
		output.Diagnostics = append(output.Diagnostics, DiagnosticOutput{
			Severity: string(d.Severity),
			Code:     d.Code,
			Message:  d.Message,
			EntryID:  d.EntryID,
			Keyword:  d.Keyword,
		})
	}

	return nil, output, nil
}

func (s *Server) handleRecordTrigger(ctx context.Context, req *sdk.CallToolRequest, input RecordTriggerInput) (*sdk.CallToolResult, RecordTriggerOutput, error) {
	if input.EntryID == "" {
		return nil, RecordTriggerOutput{}, fmt.Errorf("entry_id is required")
	}
	if err := s.db.RecordTrigger(ctx, input.EntryID); err != nil {
		if errors.Is(err, store.ErrEntryNotFound) {
			return nil, RecordTriggerOutput{}, fmt.Errorf("entry %s not found", input.EntryID)
		}
		return nil, RecordTriggerOutput{}, err
	}
	return nil, RecordTriggerOutput{Recorded: true}, nil
}

func (s *Server) handleGetEntry(ctx context.Context, req *sdk.CallToolRequest, input GetEntryInput) (*sdk.CallToolResult, EntryOutput, error) {
	if input.ID == "" {
		return nil, EntryOutput{}, fmt.Errorf("id is required")
	}
	e, err := s.db.GetEntry(ctx, input.ID)
	if err != nil {
		return nil, EntryOutput{}, err
	}
	if e == nil {
		return nil, EntryOutput{}, fmt.Errorf("entry not found")
	}
	return nil, entryOutput(e), nil
}

func (s *Server) handleListEntries(ctx context.Context, req *sdk.CallToolRequest, input ListEntriesInput) (*sdk.CallToolResult, ListEntriesOutput, error) {
	items, err := s.db.ListEntries(ctx, input.Scenario, input.Type, input.Category)
	if err != nil {
		return nil, ListEntriesOutput{}, err
	}

	output := make([]EntrySummaryOutput, 0, len(items))
	for _, item := range items {
		output = append(output, EntrySummaryOutput{
			ID:       item.ID,
			Scenario: item.ScenarioID,
			Title:    item.Title,
			Type:     string(item.Type),
			Category: item.Category,
			Priority: item.Priority,
			IsActive: item.IsActive,
		})
	}
	return nil, ListEntriesOutput{Entries: output}, nil
}

func (s *Server) handleSearchEntries(ctx context.Context, req *sdk.CallToolRequest, input SearchEntriesInput) (*sdk.CallToolResult, SearchEntriesOutput, error) {
	if input.Query == "" {
		return nil, SearchEntriesOutput{}, fmt.Errorf("query is required")
	}
	results, err := s.db.Search(ctx, input.Query, input.Scenario, input.Type)
	if err != nil {
		return nil, SearchEntriesOutput{}, err
	}

	output := make([]SearchResultOutput, 0, len(results))
	for _, result := range results {
		output = append(output, SearchResultOutput{
			ID:       result.ID,
			Scenario: result.ScenarioID,
			Title:    result.Title,
			Type:     string(result.Type),
			Score:    result.Score,
			Snippet:  result.Snippet,
		})
	}
	return nil, SearchEntriesOutput{Results: output}, nil
}

func (s *Server) handleValidateEntries(ctx context.Context, req *sdk.CallToolRequest, input ValidateEntriesInput) (*sdk.CallToolResult, ValidateEntriesOutput, error) {
	report, err := validate.Run(ctx, s.schema, s.db)
	if err != nil {
		return nil, ValidateEntriesOutput{}, err
	}

	output := ValidateEntriesOutput{
		Issues: make([]IssueOutput, 0, len(report.Issues)),
		Errors: report.Errors(),
	}
	for _, issue := range report.Issues {
		output.Issues = append(output.Issues, IssueOutput{
			Severity: string(issue.Severity),
			Code:     issue.Code,
			Message:  issue.Message,
			EntryID:  issue.EntryID,
			FilePath: issue.FilePath,
		})
	}
	return nil, output, nil
}

func entryOutput(e *entry.Entry) EntryOutput {
	conditions := make([]ConditionOut, 0, len(e.Conditions))
	for _, c := range e.Conditions {
		conditions = append(conditions, ConditionOut{
			Type:        string(c.Type),
			Requirement: c.Requirement,
			Description: c.Description,
		})
	}

	out := EntryOutput{
		ID:              e.ID,
		Scenario:        e.ScenarioID,
		Title:           e.Title,
		Content:         e.Content,
		Category:        e.Category,
		Type:            string(e.Type),
		Keywords:        append([]string{}, e.Keywords...),
		MatchType:       string(e.MatchType),
		Priority:        e.Priority,
		InsertDepth:     e.InsertDepth,
		Probability:     e.Probability,
		Visibility:      string(e.Visibility),
		Conditions:      conditions,
		RelatedEntities: append([]string{}, e.RelatedEntities...),
		TriggerOnce:     e.TriggerOnce,
		TriggerCount:    e.TriggerCount,
		IsActive:        e.IsActive,
	}
	if e.LastTriggeredAt != nil {
		out.LastTriggeredAt = e.LastTriggeredAt.UTC().Format(time.RFC3339)
	}
	return out
}
