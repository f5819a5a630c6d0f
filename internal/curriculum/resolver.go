package curriculum

import (
	"strings"
	"unicode"
)

// Match is a successful deterministic resolution.
type Match struct {
	// School is the catalog entry that matched, or the cleaned input for
	// brand-rule matches with no catalog row.
	School     string
	Curriculum string
}

func defaultStopWords() map[string]struct{} {
	words := []string{
		"school", "academy", "college", "university", "international",
		"private", "public", "high", "elementary", "primary", "secondary",
		"the", "and", "of", "for", "in", "at", "on", "a", "an", "to",
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[w] = struct{}{}
	}
	return out
}

// Normalize lowercases, strips punctuation, and drops stop-words and words of
// length <= 2, leaving the significant words of a school name.
func (c *Catalog) Normalize(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	var kept []string
	for _, w := range strings.Fields(b.String()) {
		if len(w) <= 2 {
			continue
		}
		if _, stop := c.stopWords[w]; stop {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

// Resolve deterministically maps a free-text school name to a curriculum.
// Steps, returning on first success: exact normalized match, substring
// containment either direction, >= 2 shared significant words, then brand
// rules on the raw lowercased input. Brand rules win over catalog steps when
// the input names a known operator family. The second return is false when
// nothing matched; the caller owns the fallback to inference.
func (c *Catalog) Resolve(schoolName string) (Match, bool) {
	raw := strings.ToLower(strings.TrimSpace(schoolName))
	if raw == "" {
		return Match{}, false
	}

	// Operator families take priority over per-campus catalog rows.
	for _, rule := range c.brandRules {
		if strings.Contains(raw, rule.Substring) {
			return Match{School: strings.TrimSpace(schoolName), Curriculum: rule.Curriculum}, true
		}
	}

	cleaned := c.Normalize(schoolName)
	if cleaned == "" {
		return Match{}, false
	}

	if curriculum, ok := c.entries[raw]; ok {
		return Match{School: raw, Curriculum: curriculum}, true
	}

	// c.cleaned is precomputed at load, so each pass is a straight scan.
	for i, cn := range c.cleaned {
		if cn != "" && cn == cleaned {
			return Match{School: c.names[i], Curriculum: c.entries[c.names[i]]}, true
		}
	}

	for i, cn := range c.cleaned {
		if cn == "" {
			continue
		}
		if strings.Contains(cn, cleaned) || strings.Contains(cleaned, cn) {
			return Match{School: c.names[i], Curriculum: c.entries[c.names[i]]}, true
		}
	}

	inputWords := wordSet(cleaned)
	for i, cn := range c.cleaned {
		if cn == "" {
			continue
		}
		if sharedWords(inputWords, wordSet(cn)) >= 2 {
			return Match{School: c.names[i], Curriculum: c.entries[c.names[i]]}, true
		}
	}

	return Match{}, false
}

func wordSet(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		out[w] = struct{}{}
	}
	return out
}

func sharedWords(a, b map[string]struct{}) int {
	n := 0
	for w := range a {
		if _, ok := b[w]; ok {
			n++
		}
	}
	return n
}
