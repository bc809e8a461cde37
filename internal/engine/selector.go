package engine

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"

	"lorebook/internal/entry"
)

// Select is the engine's entry point: one match pass over a snapshot
// of a scenario's entries. The returned order is fully deterministic
// for identical inputs: priority descending, confidence descending,
// display order ascending, entry id ascending. maxResults <= 0 returns
// every match. Entries are never mutated; trigger bookkeeping is the
// store's job once the caller commits to using a result.
func (g *Engine) Select(entries []entry.Entry, text string, rc Context, maxResults int) ([]entry.MatchResult, []Diagnostic, error) {
	if entries == nil {
		return nil, nil, fmt.Errorf("entries snapshot is required")
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil, fmt.Errorf("text is required")
	}

	type scored struct {
		result       entry.MatchResult
		priority     int
		displayOrder int
	}

	var matches []scored
	var diags []Diagnostic

	for i := range entries {
		e := &entries[i]

		if !e.IsActive || e.Exhausted() || !e.HasKeywords() {
			continue
		}

		eligible, gateDiags := g.Eligible(e, rc)
		diags = append(diags, gateDiags...)
		if !eligible {
			continue
		}

		match, matchDiags := g.MatchEntry(e, text)
		diags = append(diags, matchDiags...)
		if !match.Matched {
			continue
		}

		if !g.passesProbability(e, text) {
			continue
		}

		matches = append(matches, scored{
			result: entry.MatchResult{
				EntryID:         e.ID,
				MatchedKeywords: match.MatchedKeywords,
				Confidence:      match.Confidence,
				InsertDepth:     e.InsertDepth,
				Excerpt:         match.Excerpt,
			},
			priority:     e.Priority,
			displayOrder: e.DisplayOrder,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].priority != matches[j].priority {
			return matches[i].priority > matches[j].priority
		}
		if matches[i].result.Confidence != matches[j].result.Confidence {
			return matches[i].result.Confidence > matches[j].result.Confidence
		}
		if matches[i].displayOrder != matches[j].displayOrder {
			return matches[i].displayOrder < matches[j].displayOrder
		}
		return matches[i].result.EntryID < matches[j].result.EntryID
	})

	if maxResults > 0 && len(matches) > maxResults {
		matches = matches[:maxResults]
	}

	results := make([]entry.MatchResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, m.result)
	}
	return results, diags, nil
}

// passesProbability applies the entry's weighted inclusion gate. The
// draw is a deterministic hash of entry id and text so identical
// inputs always select identically; out-of-range probabilities are
// clamped, the authoring validator reports them.
func (g *Engine) passesProbability(e *entry.Entry, text string) bool {
	p := e.Probability
	if p >= 1.0 {
		return true
	}
	if p <= 0.0 {
		return false
	}
	return probabilityDraw(e.ID, text) < p
}

func probabilityDraw(entryID, text string) float64 {
	h := fnv.New64a()
	h.Write([]byte(entryID))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return float64(h.Sum64()>>11) / float64(uint64(1)<<53)
}
