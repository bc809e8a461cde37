package engine

import (
	"testing"

	"lorebook/internal/entry"
)

func gatedEntry(visibility entry.Visibility, conditions ...entry.Condition) *entry.Entry {
	return &entry.Entry{
		ID:          "e1",
		ScenarioID:  "s1",
		Keywords:    []string{"key"},
		MatchType:   entry.MatchPartial,
		IsActive:    true,
		Probability: 1.0,
		Visibility:  visibility,
		Conditions:  conditions,
	}
}

func TestEligible_Inactive(t *testing.T) {
	g := New(Options{})

	e := gatedEntry(entry.VisibilityPublic)
	e.IsActive = false
	ok, _ := g.Eligible(e, Context{ActorRole: "gm", IsOwner: true})
	if ok {
		t.Fatalf("inactive entry must never be eligible")
	}
}

func TestEligible_Visibility(t *testing.T) {
	g := New(Options{})

	tests := []struct {
		name     string
		entry    *entry.Entry
		context  Context
		eligible bool
	}{
		{
			name:     "public always",
			entry:    gatedEntry(entry.VisibilityPublic),
			context:  Context{},
			eligible: true,
		},
		{
			name:     "private requires ownership",
			entry:    gatedEntry(entry.VisibilityPrivate),
			context:  Context{},
			eligible: false,
		},
		{
			name:     "private with ownership",
			entry:    gatedEntry(entry.VisibilityPrivate),
			context:  Context{IsOwner: true},
			eligible: true,
		},
		{
			name:     "gm_only rejects players",
			entry:    gatedEntry(entry.VisibilityGMOnly),
			context:  Context{ActorRole: "player"},
			eligible: false,
		},
		{
			name:     "gm_only admits the gm",
			entry:    gatedEntry(entry.VisibilityGMOnly),
			context:  Context{ActorRole: "gm"},
			eligible: true,
		},
		{
			name:     "secret locked without known secret",
			entry:    gatedEntry(entry.VisibilitySecret),
			context:  Context{},
			eligible: false,
		},
		{
			name:     "secret unlocked by entry id",
			entry:    gatedEntry(entry.VisibilitySecret),
			context:  Context{SecretsKnown: []string{"e1"}},
			eligible: true,
		},
		{
			name: "secret unlocked by named secret condition",
			entry: gatedEntry(entry.VisibilitySecret,
				entry.Condition{Type: entry.ConditionSecretKnown, Requirement: "kings-lineage"}),
			context:  Context{SecretsKnown: []string{"kings-lineage"}},
			eligible: true,
		},
		{
			name: "secret condition not yet known",
			entry: gatedEntry(entry.VisibilitySecret,
				entry.Condition{Type: entry.ConditionSecretKnown, Requirement: "kings-lineage"}),
			context:  Context{SecretsKnown: []string{"another-secret"}},
			eligible: false,
		},
		{
			name:     "unknown visibility fails closed",
			entry:    gatedEntry(entry.Visibility("archived")),
			context:  Context{ActorRole: "gm", IsOwner: true},
			eligible: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, _ := g.Eligible(tt.entry, tt.context)
			if ok != tt.eligible {
				t.Fatalf("Eligible = %v, want %v", ok, tt.eligible)
			}
		})
	}
}

func TestEligible_Conditions(t *testing.T) {
	g := New(Options{})
	rep := 40

	tests := []struct {
		name      string
		condition entry.Condition
		context   Context
		eligible  bool
	}{
		{
			name:      "location matches",
			condition: entry.Condition{Type: entry.ConditionLocation, Requirement: "王城"},
			context:   Context{CurrentLocation: "王城"},
			eligible:  true,
		},
		{
			name:      "location differs",
			condition: entry.Condition{Type: entry.ConditionLocation, Requirement: "王城"},
			context:   Context{CurrentLocation: "港口"},
			eligible:  false,
		},
		{
			name:      "location missing from context",
			condition: entry.Condition{Type: entry.ConditionLocation, Requirement: "王城"},
			context:   Context{},
			eligible:  false,
		},
		{
			name:      "character present",
			condition: entry.Condition{Type: entry.ConditionCharacterPresent, Requirement: "苏晚"},
			context:   Context{PresentCharacters: []string{"苏晚", "林风"}},
			eligible:  true,
		},
		{
			name:      "item owned",
			condition: entry.Condition{Type: entry.ConditionItemOwned, Requirement: "silver key"},
			context:   Context{OwnedItems: []string{"Silver Key"}},
			eligible:  true,
		},
		{
			name:      "event active",
			condition: entry.Condition{Type: entry.ConditionEvent, Requirement: "festival"},
			context:   Context{CurrentEvents: []string{"festival"}},
			eligible:  true,
		},
		{
			name:      "reputation above threshold",
			condition: entry.Condition{Type: entry.ConditionReputation, Requirement: "25"},
			context:   Context{Reputation: &rep},
			eligible:  true,
		},
		{
			name:      "reputation unknown",
			condition: entry.Condition{Type: entry.ConditionReputation, Requirement: "25"},
			context:   Context{},
			eligible:  false,
		},
		{
			name:      "relationship any standing",
			condition: entry.Condition{Type: entry.ConditionRelationship, Requirement: "苏晚"},
			context:   Context{Relationships: map[string]string{"苏晚": "ally"}},
			eligible:  true,
		},
		{
			name:      "relationship exact standing",
			condition: entry.Condition{Type: entry.ConditionRelationship, Requirement: "苏晚:ally"},
			context:   Context{Relationships: map[string]string{"苏晚": "rival"}},
			eligible:  false,
		},
		{
			name:      "role condition",
			condition: entry.Condition{Type: entry.ConditionRole, Requirement: "gm"},
			context:   Context{ActorRole: "GM"},
			eligible:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := gatedEntry(entry.VisibilityConditional, tt.condition)
			ok, _ := g.Eligible(e, tt.context)
			if ok != tt.eligible {
				t.Fatalf("Eligible = %v, want %v", ok, tt.eligible)
			}
		})
	}
}

func TestEligible_ConjunctiveConditions(t *testing.T) {
	g := New(Options{})

	e := gatedEntry(entry.VisibilityConditional,
		entry.Condition{Type: entry.ConditionLocation, Requirement: "王城"},
		entry.Condition{Type: entry.ConditionCharacterPresent, Requirement: "苏晚"},
	)

	ok, _ := g.Eligible(e, Context{CurrentLocation: "王城", PresentCharacters: []string{"苏晚"}})
	if !ok {
		t.Fatalf("all conditions hold, expected eligible")
	}

	ok, _ = g.Eligible(e, Context{CurrentLocation: "王城"})
	if ok {
		t.Fatalf("one failing condition must reject the entry")
	}

	empty := gatedEntry(entry.VisibilityConditional)
	ok, _ = g.Eligible(empty, Context{})
	if !ok {
		t.Fatalf("empty condition list is vacuously true")
	}
}

func TestEligible_UnknownConditionType(t *testing.T) {
	g := New(Options{})

	e := gatedEntry(entry.VisibilityConditional,
		entry.Condition{Type: entry.ConditionType("moon_phase"), Requirement: "full"})

	ok, diags := g.Eligible(e, Context{})
	if ok {
		t.Fatalf("unknown condition type must fail closed")
	}
	if len(diags) != 1 || diags[0].Code != codeConditionUnknown {
		t.Fatalf("expected unknown-condition diagnostic, got %+v", diags)
	}
}

func TestEligible_ConditionAlias(t *testing.T) {
	g := New(Options{ConditionAliases: map[string]string{"faction_present": "present_characters"}})

	e := gatedEntry(entry.VisibilityConditional,
		entry.Condition{Type: entry.ConditionType("faction_present"), Requirement: "The Watch"})

	ok, diags := g.Eligible(e, Context{PresentCharacters: []string{"the watch"}})
	if !ok {
		t.Fatalf("aliased condition should evaluate against the mapped field")
	}
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", diags)
	}
}

func TestEligible_InvalidReputationRequirement(t *testing.T) {
	g := New(Options{})

	e := gatedEntry(entry.VisibilityConditional,
		entry.Condition{Type: entry.ConditionReputation, Requirement: "high"})

	ok, diags := g.Eligible(e, Context{})
	if ok {
		t.Fatalf("unparseable threshold must fail closed")
	}
	if len(diags) != 1 || diags[0].Code != codeRequirementInvalid {
		t.Fatalf("expected requirement diagnostic, got %+v", diags)
	}
}
