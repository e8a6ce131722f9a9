package textnorm

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// homoglyphTable maps a canonical rune to the variant runes attackers
// substitute for it. Matches the table in spec §4.2. 'l' and 'i' render
// near-identically in most attack fonts (both collapse toward a vertical
// stroke), so they share one canonical group rather than being separate
// canonicals that also list each other as variants — a cycle that made
// the inverse index's tie-break depend on map iteration order. Every
// variant rune here is disjoint from the set of canonical keys, so the
// inverse index below has no cycles and substitution is a single
// deterministic pass.
var homoglyphTable = map[rune][]rune{
	'o': {'0'},
	'l': {'1', 'I', 'i', '|'},
	'a': {'@'},
	'e': {'3'},
}

// variantToCanonical is the inverse of homoglyphTable, built once so
// NormaliseHomoglyphs runs in a single pass over the input.
var variantToCanonical = buildVariantIndex()

func buildVariantIndex() map[rune]rune {
	idx := make(map[rune]rune)
	for canonical, variants := range homoglyphTable {
		for _, v := range variants {
			idx[v] = canonical
		}
	}
	return idx
}

// NormaliseHomoglyphs lower-cases s, applies NFKC normalisation (matching
// the teacher's UnicodeScanner use of golang.org/x/text/unicode/norm), and
// then greedily substitutes each homoglyph variant with its canonical
// rune. The result is for comparison only — never store it as the
// identifier of record (spec §4.2).
func NormaliseHomoglyphs(s string) string {
	lowered := strings.ToLower(s)
	normalized := norm.NFKC.String(lowered)

	var b strings.Builder
	b.Grow(len(normalized))
	for _, r := range normalized {
		if canonical, ok := variantToCanonical[r]; ok {
			b.WriteRune(canonical)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
