package engine

import (
	"fmt"
	"strconv"
	"strings"

	"lorebook/internal/entry"
)

const (
	fieldLocation   = "location"
	fieldCharacters = "present_characters"
	fieldEvents     = "current_events"
	fieldItems      = "owned_items"
	fieldSecrets    = "secrets_known"
	fieldRole       = "role"
)

// Eligible decides whether an entry may fire at all, independent of
// text matching: visibility against the actor, then the entry's
// condition list. Unknown condition types fail closed so entries
// authored for newer engine versions degrade to invisible instead of
// breaking the pass.
func (g *Engine) Eligible(e *entry.Entry, rc Context) (bool, []Diagnostic) {
	if !e.IsActive {
		return false, nil
	}

	switch e.Visibility {
	case entry.VisibilityPublic, "":
		return true, nil
	case entry.VisibilityPrivate:
		return rc.IsOwner, nil
	case entry.VisibilityGMOnly:
		if !isGameMaster(rc.ActorRole) {
			return false, nil
		}
		return g.conditionsHold(e, rc)
	case entry.VisibilitySecret:
		if !g.secretUnlocked(e, rc) {
			return false, nil
		}
		return g.conditionsHold(e, rc)
	case entry.VisibilityConditional:
		return g.conditionsHold(e, rc)
	default:
		return false, nil
	}
}

// secretUnlocked checks the secret gate proper. Entries naming their
// secret through a secret_known condition defer to the condition list;
// entries without one require their own id among the known secrets.
func (g *Engine) secretUnlocked(e *entry.Entry, rc Context) bool {
	for _, c := range e.Conditions {
		if c.Type == entry.ConditionSecretKnown {
			return true
		}
	}
	return containsFold(rc.SecretsKnown, e.ID)
}

func (g *Engine) conditionsHold(e *entry.Entry, rc Context) (bool, []Diagnostic) {
	var diags []Diagnostic
	for _, c := range e.Conditions {
		ok, diag := g.evalCondition(e.ID, c, rc)
		if diag != nil {
			diags = append(diags, *diag)
		}
		if !ok {
			return false, diags
		}
	}
	return true, diags
}

func (g *Engine) evalCondition(entryID string, c entry.Condition, rc Context) (bool, *Diagnostic) {
	req := strings.TrimSpace(c.Requirement)

	switch c.Type {
	case entry.ConditionLocation:
		return rc.CurrentLocation != "" && strings.EqualFold(rc.CurrentLocation, req), nil
	case entry.ConditionCharacterPresent:
		return containsFold(rc.PresentCharacters, req), nil
	case entry.ConditionEvent:
		return containsFold(rc.CurrentEvents, req), nil
	case entry.ConditionItemOwned:
		return containsFold(rc.OwnedItems, req), nil
	case entry.ConditionSecretKnown:
		return containsFold(rc.SecretsKnown, req), nil
	case entry.ConditionRole:
		return rc.ActorRole != "" && strings.EqualFold(rc.ActorRole, req), nil
	case entry.ConditionRelationship:
		return relationshipHolds(rc.Relationships, req), nil
	case entry.ConditionReputation:
		threshold, err := strconv.Atoi(req)
		if err != nil {
			return false, &Diagnostic{
				Severity: SeverityWarn,
				Code:     codeRequirementInvalid,
				Message:  fmt.Sprintf("reputation threshold is not a number: %q", req),
				EntryID:  entryID,
			}
		}
		return rc.Reputation != nil && *rc.Reputation >= threshold, nil
	}

	if field, ok := g.aliases[string(c.Type)]; ok {
		return evalAliasField(field, req, rc, entryID)
	}

	return false, &Diagnostic{
		Severity: SeverityWarn,
		Code:     codeConditionUnknown,
		Message:  fmt.Sprintf("unknown condition type: %s", c.Type),
		EntryID:  entryID,
	}
}

func evalAliasField(field, req string, rc Context, entryID string) (bool, *Diagnostic) {
	switch field {
	case fieldLocation:
		return rc.CurrentLocation != "" && strings.EqualFold(rc.CurrentLocation, req), nil
	case fieldCharacters:
		return containsFold(rc.PresentCharacters, req), nil
	case fieldEvents:
		return containsFold(rc.CurrentEvents, req), nil
	case fieldItems:
		return containsFold(rc.OwnedItems, req), nil
	case fieldSecrets:
		return containsFold(rc.SecretsKnown, req), nil
	case fieldRole:
		return rc.ActorRole != "" && strings.EqualFold(rc.ActorRole, req), nil
	}
	return false, &Diagnostic{
		Severity: SeverityWarn,
		Code:     codeConditionFieldBroken,
		Message:  fmt.Sprintf("condition alias maps to unknown context field: %s", field),
		EntryID:  entryID,
	}
}

// relationshipHolds accepts either "character" (any standing recorded)
// or "character:standing" (exact standing required).
func relationshipHolds(relationships map[string]string, req string) bool {
	if len(relationships) == 0 || req == "" {
		return false
	}

	name, standing, exact := strings.Cut(req, ":")
	name = strings.TrimSpace(name)
	for character, current := range relationships {
		if !strings.EqualFold(character, name) {
			continue
		}
		if !exact {
			return true
		}
		return strings.EqualFold(current, strings.TrimSpace(standing))
	}
	return false
}

func isGameMaster(role string) bool {
	return strings.EqualFold(role, "gm") || strings.EqualFold(role, "game_master") || strings.EqualFold(role, "admin")
}

func containsFold(values []string, target string) bool {
	if target == "" {
		return false
	}
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}
