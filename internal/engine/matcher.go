package engine

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"lorebook/internal/entry"
)

// Match is the outcome of testing one entry's keywords against a text
// window. MatchedKeywords collects every keyword that hit, not just
// the first, so callers can highlight all of them.
type Match struct {
	Matched         bool
	MatchedKeywords []string
	Confidence      float64
	Excerpt         string
}

// MatchEntry tests the entry's keywords against the text under the
// entry's configured match type. It is pure: no side effects, no I/O,
// deterministic for identical inputs. Configuration problems (an
// uncompilable regex keyword) come back as diagnostics and the keyword
// is treated as non-matching.
func (g *Engine) MatchEntry(e *entry.Entry, text string) (Match, []Diagnostic) {
	if !e.HasKeywords() {
		return Match{}, nil
	}

	haystack := text
	if !e.CaseSensitive {
		haystack = strings.ToLower(text)
	}

	var result Match
	var diags []Diagnostic
	excerptAt := -1
	excerptEnd := -1

	for _, keyword := range e.Keywords {
		if strings.TrimSpace(keyword) == "" {
			continue
		}

		needle := keyword
		if !e.CaseSensitive && e.MatchType != entry.MatchRegex {
			needle = strings.ToLower(keyword)
		}

		var hit bool
		var confidence float64
		var at, end int

		switch e.MatchType {
		case entry.MatchExact:
			at, end, hit = findToken(haystack, needle)
			confidence = 1.0
		case entry.MatchPartial:
			at = strings.Index(haystack, needle)
			hit = at >= 0
			end = at + len(needle)
			confidence = 1.0
		case entry.MatchRegex:
			loc, err := matchRegex(keyword, e.CaseSensitive, text)
			if err != nil {
				diags = append(diags, Diagnostic{
					Severity: SeverityWarn,
					Code:     codeRegexInvalid,
					Message:  fmt.Sprintf("keyword does not compile as a regular expression: %v", err),
					EntryID:  e.ID,
					Keyword:  keyword,
				})
				continue
			}
			hit = loc != nil
			if hit {
				at, end = loc[0], loc[1]
			}
			confidence = 1.0
		case entry.MatchSemantic:
			var score float64
			at, end, score = bestWindow(haystack, needle)
			hit = score >= g.threshold
			confidence = score
		default:
			// Unknown match types never match; the authoring validator
			// reports them.
			continue
		}

		if !hit {
			continue
		}

		result.Matched = true
		result.MatchedKeywords = append(result.MatchedKeywords, keyword)
		if confidence > result.Confidence {
			result.Confidence = confidence
		}
		if excerptAt == -1 || at < excerptAt {
			excerptAt, excerptEnd = at, end
		}
	}

	if result.Matched {
		result.Excerpt = excerpt(text, excerptAt, excerptEnd, g.excerptRadius)
	}

	return result, diags
}

// findToken locates needle in haystack as a delimited token. A
// boundary is only required between two ASCII word runes: CJK and
// other unspaced scripts have no delimiters, so a Han keyword counts
// as a token even when letters of the same script surround it.
func findToken(haystack, needle string) (int, int, bool) {
	if needle == "" {
		return 0, 0, false
	}
	offset := 0
	for {
		idx := strings.Index(haystack[offset:], needle)
		if idx < 0 {
			return 0, 0, false
		}
		start := offset + idx
		end := start + len(needle)
		if tokenBoundary(haystack, needle, start, end) {
			return start, end, true
		}
		offset = start + 1
	}
}

func tokenBoundary(haystack, needle string, start, end int) bool {
	firstRune, _ := utf8.DecodeRuneInString(needle)
	lastRune, _ := utf8.DecodeLastRuneInString(needle)

	if start > 0 {
		before, _ := utf8.DecodeLastRuneInString(haystack[:start])
		if isWordRune(before) && isWordRune(firstRune) {
			return false
		}
	}
	if end < len(haystack) {
		after, _ := utf8.DecodeRuneInString(haystack[end:])
		if isWordRune(after) && isWordRune(lastRune) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_'
}

func matchRegex(pattern string, caseSensitive bool, text string) ([]int, error) {
	if !caseSensitive {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return re.FindStringIndex(text), nil
}

// bestWindow slides a keyword-sized rune window over the text and
// returns the byte range and similarity of the closest window.
func bestWindow(text, keyword string) (int, int, float64) {
	kw := []rune(keyword)
	runes := []rune(text)
	if len(kw) == 0 || len(runes) == 0 {
		return 0, 0, 0
	}

	if len(runes) <= len(kw) {
		return 0, len(text), similarity(runes, kw)
	}

	// Byte offset of each rune, plus the end sentinel.
	offsets := make([]int, len(runes)+1)
	pos := 0
	for i, r := range runes {
		offsets[i] = pos
		pos += utf8.RuneLen(r)
	}
	offsets[len(runes)] = pos

	best := 0.0
	bestAt, bestEnd := 0, 0
	for i := 0; i+len(kw) <= len(runes); i++ {
		score := similarity(runes[i:i+len(kw)], kw)
		if score > best {
			best = score
			bestAt = offsets[i]
			bestEnd = offsets[i+len(kw)]
		}
	}
	return bestAt, bestEnd, best
}

func excerpt(text string, start, end, radius int) string {
	if start < 0 || end > len(text) || start > end {
		return ""
	}

	prefix := text[:start]
	suffix := text[end:]
	leadTrimmed := false
	tailTrimmed := false

	lead := []rune(prefix)
	if len(lead) > radius {
		lead = lead[len(lead)-radius:]
		leadTrimmed = true
	}
	tail := []rune(suffix)
	if len(tail) > radius {
		tail = tail[:radius]
		tailTrimmed = true
	}

	var b strings.Builder
	if leadTrimmed {
		b.WriteString("...")
	}
	b.WriteString(string(lead))
	b.WriteString(text[start:end])
	b.WriteString(string(tail))
	if tailTrimmed {
		b.WriteString("...")
	}
	return b.String()
}
