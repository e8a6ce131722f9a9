// Package rugpull implements the Rug Pull guard (spec §4.6): per-target
// baseline capture of a server's advertised tool catalogue, a diff engine
// against later advertisements, and weighted risk scoring that decides
// when a mid-session change is hostile. Grounded on spec §4.6 directly
// (no original_source implementation exists for this guard) and on the
// teacher's store-behind-an-explicit-object pattern from
// src/gateway/registry.go.
package rugpull

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/decision"
	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/fingerprint"
	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/guardapi"
	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/schema"
	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/store"

	segjson "github.com/segmentio/encoding/json"
)

const guardType = "rug_pull"

// Guard is the Rug Pull guard. Baselines live in the shared
// store.Baselines so a gateway can expose a uniform reset hook across
// guards (spec §4.6 "State").
type Guard struct {
	guardapi.NoopGuard

	config    Config
	baselines *store.Baselines
	now       func() uint64
}

// New constructs a Rug Pull guard sharing baselines across its callers.
// The capture clock defaults to a fixed zero; call WithClock to wire a
// real one (gateway.go wires it to the shared Host's GetTime).
func New(config Config, baselines *store.Baselines) *Guard {
	return &Guard{config: config, baselines: baselines, now: func() uint64 { return 0 }}
}

// WithClock overrides the clock used to timestamp newly captured
// baselines. Returns g for chaining.
func (g *Guard) WithClock(now func() uint64) *Guard {
	g.now = now
	return g
}

func (g *Guard) Type() string { return guardType }

// ResetTarget clears the baseline for target (spec §4.6's reset hook).
func (g *Guard) ResetTarget(target string) {
	g.baselines.Reset(target)
}

// target resolves the gateway's logical target identifier: metadata["target"]
// if the gateway supplied one (a server exposed under multiple routes),
// otherwise the server name itself.
func target(gctx guardapi.GuardContext) string {
	if gctx.Metadata != nil {
		if t, ok := gctx.Metadata["target"]; ok && t != "" {
			return t
		}
	}
	return gctx.ServerName
}

type change struct {
	Name             string     `json:"name"`
	Kind             ChangeKind `json:"kind"`
	BeforeFingerprint string    `json:"before_fingerprint,omitempty"`
	AfterFingerprint  string    `json:"after_fingerprint,omitempty"`
}

// EvaluateToolsList implements spec §4.6's algorithm: capture on first
// advertisement, otherwise diff tool-by-tool against the immutable
// baseline and deny once the weighted score clears the threshold.
func (g *Guard) EvaluateToolsList(_ context.Context, tools []guardapi.Tool, gctx guardapi.GuardContext) decision.Decision {
	tgt := target(gctx)

	baseline, captured := g.baselines.GetOrCapture(tgt, func() store.Baseline {
		return store.Baseline{Tools: tools, CapturedAt: g.now(), CaptureID: uuid.NewString()}
	})
	if captured {
		return decision.Allow()
	}

	if identicalAdvertisement(baseline.Tools, tools) {
		return decision.Allow()
	}

	changes, score := diff(g.config, baseline.Tools, tools)
	if score < g.config.riskThreshold() {
		return decision.Allow()
	}

	sort.Slice(changes, func(i, j int) bool {
		if changes[i].Name != changes[j].Name {
			return changes[i].Name < changes[j].Name
		}
		return changes[i].Kind < changes[j].Kind
	})

	return decision.Deny(decision.CodeRugPullDetected,
		fmt.Sprintf("tool catalogue for %q drifted from its captured baseline (score %d >= threshold %d)", tgt, score, g.config.riskThreshold()),
		map[string]any{
			"changes":     changes,
			"score":       score,
			"threshold":   g.config.riskThreshold(),
			"baseline_id": baseline.CaptureID,
		})
}

// identicalAdvertisement is the corner-case-2 short-circuit: every tool's
// fingerprint matches the baseline's, so no diff work is needed.
func identicalAdvertisement(baseline, current []guardapi.Tool) bool {
	if len(baseline) != len(current) {
		return false
	}
	byName := make(map[string]guardapi.Tool, len(baseline))
	for _, t := range baseline {
		byName[t.Name] = t
	}
	for _, t := range current {
		prior, ok := byName[t.Name]
		if !ok || fingerprint.Compute(prior) != fingerprint.Compute(t) {
			return false
		}
	}
	return true
}

func diff(cfg Config, baseline, current []guardapi.Tool) ([]change, int) {
	baseByName := make(map[string]guardapi.Tool, len(baseline))
	for _, t := range baseline {
		baseByName[t.Name] = t
	}
	currByName := make(map[string]guardapi.Tool, len(current))
	for _, t := range current {
		currByName[t.Name] = t
	}

	var changes []change
	score := 0

	record := func(kind ChangeKind, name, before, after string) {
		if !cfg.enabled(kind) {
			return
		}
		changes = append(changes, change{Name: name, Kind: kind, BeforeFingerprint: before, AfterFingerprint: after})
		score += cfg.weightFor(kind)
	}

	for name, before := range baseByName {
		after, stillPresent := currByName[name]
		if !stillPresent {
			record(ChangeRemove, name, string(fingerprint.Compute(before)), "")
			continue
		}
		if before.Description != after.Description {
			record(ChangeDescription, name, string(fingerprint.Compute(before)), string(fingerprint.Compute(after)))
		}
		if fingerprint.CanonicalizeSchema(before.InputSchema) != fingerprint.CanonicalizeSchema(after.InputSchema) {
			record(ChangeSchema, name, string(fingerprint.Compute(before)), string(fingerprint.Compute(after)))
		}
	}

	for name, after := range currByName {
		if _, existedBefore := baseByName[name]; !existedBefore {
			record(ChangeAdd, name, "", string(fingerprint.Compute(after)))
		}
	}

	return changes, score
}

// SettingsSchema implements guardapi.Guard.
func (g *Guard) SettingsSchema() (string, error) {
	return schema.NewBuilder("Rug Pull Guard", "Detects mid-session changes to an upstream server's advertised tool catalogue against its captured baseline.",
		schema.Meta{GuardType: guardType, Version: "1.0.0", Category: "detection", DefaultRun: "tools_list"}).
		Number("riskThreshold", "minimum weighted score to deny", float64(defaultRiskThreshold), floatPtr(0), nil).
		Build()
}

// DefaultConfig implements guardapi.Guard.
func (g *Guard) DefaultConfig() (string, error) {
	out, err := segjson.Marshal(Config{RiskThreshold: intPtr(defaultRiskThreshold)})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func floatPtr(f float64) *float64 { return &f }
