package sanitizer

import (
	"context"
	"strings"

	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/config"
	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/decision"
	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/guardapi"
	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/schema"

	segjson "github.com/segmentio/encoding/json"
)

const guardType = "text_sanitizer"

// Guard adapts a Pipeline to the guardapi.Guard contract, so the scanner
// pipeline's verdicts are expressed in the same decision.Decision
// vocabulary as every other guard rather than as a private Verdict type
// only gateway.proxyHandler understands.
type Guard struct {
	guardapi.NoopGuard

	pipeline *Pipeline
}

// NewGuard wraps pipeline as a guardapi.Guard. pipeline is typically
// rebuilt per downstream server by BuildTextPipeline, since scanner
// configuration can be overridden per server (spec §3's per-server
// override shape) — unlike the other four guards, which share one
// process-wide instance.
func NewGuard(pipeline *Pipeline) *Guard {
	return &Guard{pipeline: pipeline}
}

func (g *Guard) Type() string { return guardType }

// EvaluateToolResponse runs payload's text through the wrapped pipeline,
// rewriting payload in place on VerdictModify. payload must be a *any
// holding a string, matching the pii guard's in-place rewrite convention;
// any other shape is left untouched.
func (g *Guard) EvaluateToolResponse(ctx context.Context, toolName string, payload any, _ guardapi.GuardContext) decision.Decision {
	p, ok := payload.(*any)
	if !ok {
		return decision.Allow()
	}
	text, ok := (*p).(string)
	if !ok {
		return decision.Allow()
	}

	pr, err := g.pipeline.Process(ctx, text)
	if err != nil {
		return decision.InternalError(err)
	}

	switch pr.FinalVerdict {
	case VerdictBlock:
		reason := "blocked by sanitization"
		if len(pr.AllThreats) > 0 {
			reason = strings.Join(pr.AllThreats, "; ")
		}
		return decision.Deny(decision.CodeResponseBlocked, reason, map[string]any{
			"tool_name": toolName,
			"threats":   pr.AllThreats,
		})

	case VerdictModify:
		*p = pr.FinalContent
		if len(pr.AllThreats) == 0 {
			return decision.Allow()
		}
		return decision.Warn(pr.AllThreats...)

	default:
		return decision.Allow()
	}
}

// SettingsSchema implements guardapi.Guard. DisableBuiltInPatterns and
// CustomInjectionPatterns are operator overrides of the injection
// scanner's catalogue, not schematized here, mirroring how the poisoning
// guard leaves its PatternsOverride/WeightsOverride maps out of its
// schema too.
func (g *Guard) SettingsSchema() (string, error) {
	return schema.NewBuilder("Text Sanitization Guard", "Scans tool response text for invisible characters, prompt injection, system override markers, and malicious URLs, trimming or blocking the response.",
		schema.Meta{GuardType: guardType, Version: "1.0.0", Category: "mitigation", DefaultRun: "tool_response"}).
		Number("maxResponseChars", "truncate responses beyond this length", float64(config.DefaultMaxResponseChars), floatPtr(0), nil).
		Bool("enableInvisibleTextRemoval", "strip zero-width and other invisible Unicode characters", true).
		Bool("enablePromptInjectionDetection", "scan for embedded prompt injection phrases", true).
		Bool("enableSystemOverrideDetection", "scan for system-role override markers", true).
		Bool("enableURLValidation", "scan for malicious or unexpected URLs", true).
		Bool("enableBoundaryInjection", "wrap content in a boundary marker to isolate it from surrounding instructions", true).
		Build()
}

// DefaultConfig implements guardapi.Guard, mirroring the gateway's own
// SanitizationConfig defaults (src/config/config.go's applyDefaults) so a
// settings UI driven off this guard sees the same defaults the gateway
// applies when no config is supplied.
func (g *Guard) DefaultConfig() (string, error) {
	out, err := segjson.Marshal(config.SanitizationConfig{
		MaxResponseChars:               intPtr(config.DefaultMaxResponseChars),
		EnableInvisibleTextRemoval:     boolPtr(true),
		EnablePromptInjectionDetection: boolPtr(true),
		EnableSystemOverrideDetection:  boolPtr(true),
		EnableURLValidation:            boolPtr(true),
		EnableBoundaryInjection:        boolPtr(true),
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func boolPtr(b bool) *bool        { return &b }
func intPtr(i int) *int           { return &i }
func floatPtr(f float64) *float64 { return &f }
