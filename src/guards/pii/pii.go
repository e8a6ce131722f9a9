// Package pii implements the PII guard (spec §4.7): recognisers for the
// built-in entity types, a tree-walking scan of a tool response payload,
// and two action modes (mask-in-place, reject-whole-response). Grounded
// on spec §4.7 directly (no original_source implementation exists for
// this guard) and on the teacher's sanitizer scanner idiom for regex
// catalogues.
package pii

import (
	"context"
	"fmt"

	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/decision"
	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/guardapi"
	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/schema"

	segjson "github.com/segmentio/encoding/json"
)

const guardType = "pii"

// Guard is the PII guard. It is stateless across calls — every payload is
// scanned fresh.
type Guard struct {
	guardapi.NoopGuard

	config Config
}

// New constructs a PII guard from config.
func New(config Config) *Guard {
	return &Guard{config: config}
}

func (g *Guard) Type() string { return guardType }

type entityCount struct {
	EntityType EntityType `json:"entity_type"`
	SpanCount  int        `json:"span_count"`
}

// EvaluateToolResponse implements spec §4.7's algorithm. payload is
// rewritten in place (via the pointer indirection the caller passed) only
// in mask mode, when the payload is a pointer to an any-typed tree the
// caller owns; reject mode never mutates and always denies on a hit, per
// §7's "PII guard in mask mode... fails closed".
func (g *Guard) EvaluateToolResponse(_ context.Context, _ string, payload any, _ guardapi.GuardContext) decision.Decision {
	tree, ok := extractTree(payload)
	if !ok {
		return decision.Allow()
	}

	recognisers := g.config.recognisers()
	minScore := g.config.minScore()

	counts := make(map[EntityType]int)
	var total int

	rewritten, _ := walk(tree, func(s string) (string, int) {
		spans := scanString(recognisers, minScore, s)
		if len(spans) == 0 {
			return s, 0
		}
		for _, span := range spans {
			counts[span.EntityType]++
		}
		total += len(spans)

		if g.config.mode() == ModeReject {
			return s, len(spans)
		}
		return maskString(g.config, s, spans), len(spans)
	})

	if total == 0 {
		return decision.Allow()
	}

	if g.config.mode() == ModeReject {
		var entities []entityCount
		for entity, count := range counts {
			entities = append(entities, entityCount{EntityType: entity, SpanCount: count})
		}
		return decision.Deny(decision.CodePIIDetected,
			fmt.Sprintf("response contains %d recognised sensitive span(s)", total),
			map[string]any{"entities": entities})
	}

	writeBack(payload, rewritten)
	return decision.Allow()
}

// extractTree reads the payload the pipeline passed. Callers are expected
// to hand EvaluateToolResponse a *any so mask mode can write the rewritten
// tree back; a bare (non-pointer) any is scanned but never rewritten.
func extractTree(payload any) (any, bool) {
	switch p := payload.(type) {
	case *any:
		if p == nil {
			return nil, false
		}
		return *p, true
	case nil:
		return nil, false
	default:
		return p, true
	}
}

func writeBack(payload any, rewritten any) {
	if p, ok := payload.(*any); ok {
		*p = rewritten
	}
}

// SettingsSchema implements guardapi.Guard.
func (g *Guard) SettingsSchema() (string, error) {
	entityNames := make([]string, len(allEntities))
	for i, e := range allEntities {
		entityNames[i] = string(e)
	}

	return schema.NewBuilder("PII Guard", "Detects sensitive strings in tool responses and either masks or rejects them.",
		schema.Meta{GuardType: guardType, Version: "1.0.0", Category: "mitigation", DefaultRun: "tool_response"}).
		String("mode", "action on a positive match", string(ModeMask), string(ModeMask), string(ModeReject)).
		StringArray("recognisersEnabled", "entity types to scan for", entityNames).
		Number("minScore", "minimum confidence score to count as a match", defaultMinScore, floatPtr(0), floatPtr(1)).
		String("maskTemplate", "replacement template for masked spans", defaultMaskTemplate).
		Build()
}

// DefaultConfig implements guardapi.Guard. Every property SettingsSchema
// describes is populated here, and vice versa (spec §4.8, §8 property 6).
func (g *Guard) DefaultConfig() (string, error) {
	out, err := segjson.Marshal(Config{
		Mode:               ModeMask,
		RecognisersEnabled: allEntities,
		MinScore:           floatPtr(defaultMinScore),
		MaskTemplate:       defaultMaskTemplate,
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}
