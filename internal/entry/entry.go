package entry

import (
	"strings"
	"time"
)

type MatchType string

const (
	MatchExact    MatchType = "exact"
	MatchPartial  MatchType = "partial"
	MatchRegex    MatchType = "regex"
	MatchSemantic MatchType = "semantic"
)

type Visibility string

const (
	VisibilityPublic      Visibility = "public"
	VisibilityPrivate     Visibility = "private"
	VisibilityConditional Visibility = "conditional"
	VisibilitySecret      Visibility = "secret"
	VisibilityGMOnly      Visibility = "gm_only"
)

type EntryType string

const (
	TypeKnowledge    EntryType = "knowledge"
	TypeDescription  EntryType = "description"
	TypeRule         EntryType = "rule"
	TypeSecret       EntryType = "secret"
	TypeRelationship EntryType = "relationship"
	TypeHistory      EntryType = "history"
	TypeProphecy     EntryType = "prophecy"
)

type SourceType string

const (
	SourceManual        SourceType = "manual"
	SourceAIGenerated   SourceType = "ai_generated"
	SourceImported      SourceType = "imported"
	SourceCollaborative SourceType = "collaborative"
	SourceTemplate      SourceType = "template"
)

type ConditionType string

const (
	ConditionLocation         ConditionType = "location"
	ConditionCharacterPresent ConditionType = "character_present"
	ConditionEvent            ConditionType = "event"
	ConditionItemOwned        ConditionType = "item_owned"
	ConditionRelationship     ConditionType = "relationship"
	ConditionReputation       ConditionType = "reputation_threshold"
	ConditionSecretKnown      ConditionType = "secret_known"
	ConditionRole             ConditionType = "role"
)

type Condition struct {
	Type        ConditionType
	Requirement string
	Description string
}

// Entry is one unit of injectable world knowledge. The engine treats
// entries as an immutable snapshot for the duration of a match pass;
// only TriggerCount and LastTriggeredAt change at runtime, and only
// through the store.
type Entry struct {
	ID         string
	ScenarioID string

	Title    string
	Content  string
	Category string
	Type     EntryType

	Keywords      []string
	MatchType     MatchType
	CaseSensitive bool

	Priority     int
	InsertDepth  int
	Probability  float64
	DisplayOrder int

	IsActive    bool
	TriggerOnce bool

	Visibility Visibility
	Conditions []Condition

	RelatedEntities []string
	SourceType      SourceType
	Metadata        map[string]any

	TriggerCount    int
	LastTriggeredAt *time.Time

	SourceFile string
	SourceHash string
}

// MatchResult is produced per select call and never persisted.
type MatchResult struct {
	EntryID         string
	MatchedKeywords []string
	Confidence      float64
	InsertDepth     int
	Excerpt         string
}

// Summary carries the fields listings need without decoding the full
// configuration payload.
type Summary struct {
	ID         string
	ScenarioID string
	Title      string
	Type       EntryType
	Category   string
	Priority   int
	IsActive   bool
}

// TriggerStat reports runtime trigger state for one entry.
type TriggerStat struct {
	EntryID         string
	Title           string
	TriggerOnce     bool
	TriggerCount    int
	LastTriggeredAt *time.Time
}

func ValidMatchType(m MatchType) bool {
	switch m {
	case MatchExact, MatchPartial, MatchRegex, MatchSemantic:
		return true
	}
	return false
}

func ValidVisibility(v Visibility) bool {
	switch v {
	case VisibilityPublic, VisibilityPrivate, VisibilityConditional, VisibilitySecret, VisibilityGMOnly:
		return true
	}
	return false
}

func ValidEntryType(t EntryType) bool {
	switch t {
	case TypeKnowledge, TypeDescription, TypeRule, TypeSecret, TypeRelationship, TypeHistory, TypeProphecy:
		return true
	}
	return false
}

func ValidSourceType(s SourceType) bool {
	switch s {
	case SourceManual, SourceAIGenerated, SourceImported, SourceCollaborative, SourceTemplate:
		return true
	}
	return false
}

// HasKeywords reports whether the entry is eligible for text matching
// at all. Entries whose keywords are all blank never match.
func (e *Entry) HasKeywords() bool {
	for _, k := range e.Keywords {
		if strings.TrimSpace(k) != "" {
			return true
		}
	}
	return false
}

// Exhausted reports whether a trigger-once entry has already fired in
// its owning scenario.
func (e *Entry) Exhausted() bool {
	return e.TriggerOnce && e.TriggerCount > 0
}
