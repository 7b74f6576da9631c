package places

import (
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Cutoff is the minimum similarity ratio accepted for a nearest-neighbour match.
const Cutoff = 0.78

// Normalize lowercases s, strips diacritics, turns anything that is not a
// letter or digit into a space and collapses whitespace.
func Normalize(s string) string {
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, strings.ToLower(s))
	if err != nil {
		folded = strings.ToLower(s)
	}
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, folded)
	return strings.Join(strings.Fields(mapped), " ")
}

// Resolve maps name to an id: exact key first, then normalized key, then the
// most similar normalized key at or above Cutoff. Ties keep table order.
func (t *Table) Resolve(name string) (int, bool) {
	if t == nil || strings.TrimSpace(name) == "" {
		return 0, false
	}
	if id, ok := t.byName[name]; ok {
		return id, true
	}
	n := Normalize(name)
	if n == "" {
		return 0, false
	}
	if id, ok := t.byNorm[n]; ok {
		return id, true
	}

	target := splitRunes(n)
	best, bestScore := -1, 0.0
	for i, candidate := range t.norms {
		m := difflib.NewMatcher(splitRunes(candidate), target)
		if m.RealQuickRatio() < Cutoff || m.QuickRatio() < Cutoff {
			continue
		}
		if score := m.Ratio(); score >= Cutoff && score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return 0, false
	}
	return t.byNorm[t.norms[best]], true
}

// Lookup is Resolve for optional names; a miss yields nil.
func (t *Table) Lookup(name *string) *int {
	if t == nil || name == nil {
		return nil
	}
	id, ok := t.Resolve(*name)
	if !ok {
		return nil
	}
	return &id
}

func splitRunes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
