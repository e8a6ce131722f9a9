// Package poisoning implements the Tool Poisoning guard (spec §4.5):
// weighted regex scanning of a tool's name/description/schema for embedded
// instructions that attempt to subvert the calling agent. Grounded on the
// teacher's sanitizer.InjectionScanner pattern-compilation idiom
// (case-insensitive regex catalogue, "matched pattern %q" messaging),
// generalised to a multi-category, weighted risk score.
package poisoning

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/decision"
	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/guardapi"
	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/schema"

	segjson "github.com/segmentio/encoding/json"
)

const guardType = "tool_poisoning"

type compiledPattern struct {
	category Category
	weight   int
	re       *regexp.Regexp
}

// Guard is the Tool Poisoning guard. It is stateless across calls — every
// invocation reconsiders the full advertised tool catalogue it is given.
type Guard struct {
	guardapi.NoopGuard

	config   Config
	patterns []compiledPattern
}

// New compiles config's pattern catalogue and returns a ready Guard.
// Patterns that fail to compile are skipped; a guard should never panic
// on operator-supplied regex at construction time.
func New(config Config) *Guard {
	g := &Guard{config: config}
	for _, cat := range config.enabledCategories() {
		weight := config.weightFor(cat)
		for _, pattern := range config.patternsFor(cat) {
			p := pattern
			if !strings.HasPrefix(p, "(?i)") {
				p = "(?i)" + p
			}
			re, err := regexp.Compile(p)
			if err != nil {
				continue
			}
			g.patterns = append(g.patterns, compiledPattern{category: cat, weight: weight, re: re})
		}
	}
	return g
}

func (g *Guard) Type() string { return guardType }

type matchedCategory struct {
	Category Category `json:"category"`
	Count    int      `json:"count"`
}

// EvaluateToolsList implements spec §4.5's algorithm: scan each tool's
// name+description+input_schema with every enabled pattern, accumulate a
// risk score over distinct (tool, pattern) matches, and deny once the
// score clears the threshold.
func (g *Guard) EvaluateToolsList(_ context.Context, tools []guardapi.Tool, _ guardapi.GuardContext) decision.Decision {
	score := 0
	categoryHits := make(map[Category]int)
	offendingTools := make(map[string]bool)

	for _, t := range tools {
		content := t.Name + "\n" + t.Description + "\n" + t.InputSchema

		for _, p := range g.patterns {
			if p.re.MatchString(content) {
				score += p.weight
				categoryHits[p.category]++
				offendingTools[t.Name] = true
			}
		}
	}

	if score < g.config.riskThreshold() {
		return decision.Allow()
	}

	var categories []matchedCategory
	for cat, count := range categoryHits {
		categories = append(categories, matchedCategory{Category: cat, Count: count})
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Category < categories[j].Category })

	return decision.Deny(decision.CodeToolPoisoningDetected,
		fmt.Sprintf("tool catalogue scored %d against a threshold of %d for embedded instructions", score, g.config.riskThreshold()),
		map[string]any{
			"score":           score,
			"threshold":       g.config.riskThreshold(),
			"categories":      categories,
			"offending_tools": len(offendingTools),
		})
}

// SettingsSchema implements guardapi.Guard.
func (g *Guard) SettingsSchema() (string, error) {
	categoryNames := make([]string, len(allCategories))
	for i, c := range allCategories {
		categoryNames[i] = string(c)
	}

	return schema.NewBuilder("Tool Poisoning Guard", "Weighted regex scan of tool metadata for embedded instructions that attempt to subvert the agent.",
		schema.Meta{GuardType: guardType, Version: "1.0.0", Category: "detection", DefaultRun: "tools_list"}).
		StringArray("enabledCategories", "pattern categories to scan", categoryNames).
		Number("riskThreshold", "minimum accumulated score to deny", float64(defaultRiskThreshold), floatPtr(0), nil).
		Build()
}

// DefaultConfig implements guardapi.Guard. Every property SettingsSchema
// describes is populated here, and vice versa (spec §4.8, §8 property 6).
func (g *Guard) DefaultConfig() (string, error) {
	out, err := segjson.Marshal(Config{
		EnabledCategories: allCategories,
		RiskThreshold:     intPtr(defaultRiskThreshold),
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func floatPtr(f float64) *float64 { return &f }
