package pii

import (
	"sort"
	"strings"
)

// scanString runs every enabled recogniser over s and returns spans
// clearing minScore, with overlaps resolved per spec §4.7: the longer
// match wins, ties broken by higher score, then by earlier start.
func scanString(recognisers []recogniser, minScore float64, s string) []Span {
	var all []Span
	for _, r := range recognisers {
		for _, span := range r.find(s) {
			if span.Score >= minScore {
				all = append(all, span)
			}
		}
	}
	return resolveOverlaps(all)
}

func resolveOverlaps(spans []Span) []Span {
	sort.Slice(spans, func(i, j int) bool {
		li, lj := spans[i].End-spans[i].Start, spans[j].End-spans[j].Start
		if li != lj {
			return li > lj
		}
		if spans[i].Score != spans[j].Score {
			return spans[i].Score > spans[j].Score
		}
		return spans[i].Start < spans[j].Start
	})

	var kept []Span
	overlaps := func(a, b Span) bool { return a.Start < b.End && b.Start < a.End }

	for _, s := range spans {
		conflict := false
		for _, k := range kept {
			if overlaps(s, k) {
				conflict = true
				break
			}
		}
		if !conflict {
			kept = append(kept, s)
		}
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].Start < kept[j].Start })
	return kept
}

// maskString rewrites every span in s with the config's mask template.
func maskString(cfg Config, s string, spans []Span) string {
	if len(spans) == 0 {
		return s
	}

	var b strings.Builder
	cursor := 0
	for _, span := range spans {
		b.WriteString(s[cursor:span.Start])
		b.WriteString(renderMask(cfg.maskTemplate(), span.EntityType))
		cursor = span.End
	}
	b.WriteString(s[cursor:])
	return b.String()
}

func renderMask(template string, entity EntityType) string {
	return strings.ReplaceAll(template, "{ENTITY_TYPE}", string(entity))
}

// walk traverses a decoded JSON value (as produced by
// encoding/json-style Unmarshal into any), applying fn to every string
// leaf. Object keys are never scanned, per spec §4.7 "Traversal". walk
// returns a new value with fn's replacements applied and the total
// span count found, without mutating v's underlying maps/slices in place.
func walk(v any, fn func(string) (string, int)) (any, int) {
	switch val := v.(type) {
	case string:
		rewritten, count := fn(val)
		return rewritten, count
	case map[string]any:
		out := make(map[string]any, len(val))
		total := 0
		for k, child := range val {
			rewrittenChild, count := walk(child, fn)
			out[k] = rewrittenChild
			total += count
		}
		return out, total
	case []any:
		out := make([]any, len(val))
		total := 0
		for i, child := range val {
			rewrittenChild, count := walk(child, fn)
			out[i] = rewrittenChild
			total += count
		}
		return out, total
	default:
		return v, 0
	}
}
