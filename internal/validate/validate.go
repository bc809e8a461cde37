package validate

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"lorebook/internal/config"
	"lorebook/internal/entry"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeEnumInvalid      = "enum_value_invalid"
	codeRegexInvalid     = "regex_invalid"
	codeProbabilityRange = "probability_out_of_range"
	codeConditionUnknown = "condition_type_unknown"
	codeNoKeywords       = "no_keywords"
	codeBlankContent     = "blank_content"
	codeNegativeDepth    = "insert_depth_negative"
)

type Issue struct {
	Severity Severity
	Code     string
	Message  string
	EntryID  string
	FilePath string
}

type Report struct {
	Issues []Issue
}

func (r *Report) Errors() int {
	count := 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			count++
		}
	}
	return count
}

// Lister is the slice of the storage API validation needs.
type Lister interface {
	AllEntries(ctx context.Context) ([]entry.Entry, error)
}

func Run(ctx context.Context, schema *config.Schema, db Lister) (*Report, error) {
	if db == nil {
		return nil, fmt.Errorf("store is required")
	}

	entries, err := db.AllEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}

	issues := make([]Issue, 0)
	for i := range entries {
		issues = append(issues, validateEntry(&entries[i], schema)...)
	}

	return &Report{Issues: issues}, nil
}

func validateEntry(e *entry.Entry, schema *config.Schema) []Issue {
	var issues []Issue

	add := func(severity Severity, code, message string) {
		issues = append(issues, Issue{
			Severity: severity,
			Code:     code,
			Message:  message,
			EntryID:  e.ID,
			FilePath: e.SourceFile,
		})
	}

	if !entry.ValidMatchType(e.MatchType) {
		add(SeverityError, codeEnumInvalid, fmt.Sprintf("invalid match type: %s", e.MatchType))
	}
	if !entry.ValidVisibility(e.Visibility) {
		add(SeverityError, codeEnumInvalid, fmt.Sprintf("invalid visibility: %s", e.Visibility))
	}
	if !entry.ValidEntryType(e.Type) {
		add(SeverityError, codeEnumInvalid, fmt.Sprintf("invalid entry type: %s", e.Type))
	}
	if !entry.ValidSourceType(e.SourceType) {
		add(SeverityError, codeEnumInvalid, fmt.Sprintf("invalid source type: %s", e.SourceType))
	}

	if e.MatchType == entry.MatchRegex {
		for _, keyword := range e.Keywords {
			if _, err := regexp.Compile(keyword); err != nil {
				add(SeverityError, codeRegexInvalid, fmt.Sprintf("keyword %q is not a valid regex: %v", keyword, err))
			}
		}
	}

	if e.Probability < 0 || e.Probability > 1 {
		add(SeverityError, codeProbabilityRange, fmt.Sprintf("probability %v outside [0,1]", e.Probability))
	}

	if e.InsertDepth < 0 {
		add(SeverityError, codeNegativeDepth, fmt.Sprintf("insert depth %d is negative", e.InsertDepth))
	}

	for _, condition := range e.Conditions {
		if knownConditionType(condition.Type, schema) {
			continue
		}
		add(SeverityError, codeConditionUnknown, fmt.Sprintf("unknown condition type: %s", condition.Type))
	}

	if !e.HasKeywords() {
		add(SeverityWarn, codeNoKeywords, "entry has no keywords and can never match")
	}
	if strings.TrimSpace(e.Content) == "" {
		add(SeverityWarn, codeBlankContent, "entry has no content to inject")
	}

	return issues
}

func knownConditionType(t entry.ConditionType, schema *config.Schema) bool {
	switch t {
	case entry.ConditionLocation, entry.ConditionCharacterPresent, entry.ConditionEvent,
		entry.ConditionItemOwned, entry.ConditionRelationship, entry.ConditionReputation,
		entry.ConditionSecretKnown, entry.ConditionRole:
		return true
	}
	if schema == nil {
		return false
	}
	_, ok := schema.ConditionTypeByName(string(t))
	return ok
}
