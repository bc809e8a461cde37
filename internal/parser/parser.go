package parser

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is one parsed lorebook entry file: YAML frontmatter describing
// the matching behavior, markdown body as the injectable content.
type Document struct {
	Frontmatter map[string]any
	ID          string
	Scenario    string
	Title       string
	EntryType   string
	Category    string
	Keywords    []string
	MatchType   string
	CaseSens    bool
	Priority    int
	InsertDepth int
	Probability float64
	Order       int
	Active      bool
	TriggerOnce bool
	Visibility  string
	Conditions  []ConditionDoc
	Related     []string
	SourceType  string
	Metadata    map[string]any
	Body        string
	SourceFile  string
}

type ConditionDoc struct {
	Type        string `yaml:"type"`
	Requirement string `yaml:"requirement"`
	Description string `yaml:"description"`
}

var (
	ErrNoFrontmatter = errors.New("no frontmatter found")
	ErrInvalidYAML   = errors.New("invalid YAML in frontmatter")
	ErrMissingTitle  = errors.New("frontmatter missing required 'title' field")
)

// front mirrors the frontmatter schema for typed decoding. Fields absent
// from the file keep the defaults set in Parse.
type front struct {
	ID            string         `yaml:"id"`
	Scenario      string         `yaml:"scenario"`
	Title         string         `yaml:"title"`
	Type          string         `yaml:"type"`
	Category      string         `yaml:"category"`
	Keywords      any            `yaml:"keywords"`
	Match         string         `yaml:"match"`
	CaseSensitive bool           `yaml:"case_sensitive"`
	Priority      int            `yaml:"priority"`
	InsertDepth   int            `yaml:"insert_depth"`
	Probability   *float64       `yaml:"probability"`
	DisplayOrder  int            `yaml:"display_order"`
	Active        *bool          `yaml:"active"`
	TriggerOnce   bool           `yaml:"trigger_once"`
	Visibility    string         `yaml:"visibility"`
	Conditions    []ConditionDoc `yaml:"conditions"`
	Related       []string       `yaml:"related"`
	Source        string         `yaml:"source"`
	Metadata      map[string]any `yaml:"metadata"`
}

func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	doc.SourceFile = path
	return doc, nil
}

func Parse(content []byte) (*Document, error) {
	trimmed := bytes.TrimLeft(content, "\ufeff\n\r\t ")
	if !bytes.HasPrefix(trimmed, []byte("---\n")) {
		return nil, ErrNoFrontmatter
	}

	rest := trimmed[len("---\n"):]
	end := bytes.Index(rest, []byte("---\n"))
	if end == -1 {
		return nil, ErrNoFrontmatter
	}

	yamlBytes := rest[:end]
	body := string(rest[end+len("---\n"):])

	var frontmatter map[string]any
	if err := yaml.Unmarshal(yamlBytes, &frontmatter); err != nil {
		return nil, ErrInvalidYAML
	}

	var f front
	if err := yaml.Unmarshal(yamlBytes, &f); err != nil {
		return nil, ErrInvalidYAML
	}

	if strings.TrimSpace(f.Title) == "" {
		return nil, ErrMissingTitle
	}

	keywords, err := parseKeywords(f.Keywords)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Frontmatter: frontmatter,
		ID:          f.ID,
		Scenario:    f.Scenario,
		Title:       f.Title,
		EntryType:   defaultString(f.Type, "knowledge"),
		Category:    f.Category,
		Keywords:    keywords,
		MatchType:   defaultString(f.Match, "exact"),
		CaseSens:    f.CaseSensitive,
		Priority:    f.Priority,
		InsertDepth: f.InsertDepth,
		Probability: 1.0,
		Order:       f.DisplayOrder,
		Active:      true,
		TriggerOnce: f.TriggerOnce,
		Visibility:  defaultString(f.Visibility, "public"),
		Conditions:  f.Conditions,
		Related:     f.Related,
		SourceType:  defaultString(f.Source, "manual"),
		Metadata:    f.Metadata,
		Body:        strings.TrimSpace(body),
	}
	if f.Probability != nil {
		doc.Probability = *f.Probability
	}
	if f.Active != nil {
		doc.Active = *f.Active
	}

	return doc, nil
}

func parseKeywords(value any) ([]string, error) {
	if value == nil {
		return nil, nil
	}
	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		return []string{v}, nil
	case []any:
		keywords := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("keywords must be strings")
			}
			if strings.TrimSpace(s) == "" {
				continue
			}
			keywords = append(keywords, s)
		}
		if len(keywords) == 0 {
			return nil, nil
		}
		return keywords, nil
	default:
		return nil, fmt.Errorf("keywords must be string or list of strings")
	}
}

func defaultString(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
