// Package pipeline implements the control flow described in spec §2: at
// each phase, invoke every registered guard with an immutable GuardContext.
// A deny from any guard short-circuits the phase; warnings accumulate into
// a single allow-with-warnings result. This generalizes the teacher's
// sanitizer.Pipeline (content scanners threaded verdict-by-verdict) to the
// guard contract's three-phase, multi-guard model.
package pipeline

import (
	"context"
	"time"

	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/decision"
	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/guardapi"
)

// Pipeline runs an ordered set of guards across the three MCP phases.
// Guards are independent of each other within a phase; order only affects
// which guard's deny reason surfaces first when more than one would deny.
type Pipeline struct {
	guards  []guardapi.Guard
	metrics *metrics
}

// New creates a Pipeline from the given guards, in invocation order.
func New(guards ...guardapi.Guard) *Pipeline {
	return &Pipeline{guards: guards, metrics: defaultMetrics}
}

// Connection runs every guard's EvaluateServerConnection.
func (p *Pipeline) Connection(ctx context.Context, gctx guardapi.GuardContext) decision.Decision {
	return p.run(ctx, guardapi.PhaseConnection, func(g guardapi.Guard) decision.Decision {
		return guardapi.Safe(func() decision.Decision {
			return g.EvaluateServerConnection(ctx, gctx)
		})
	})
}

// ToolsList runs every guard's EvaluateToolsList.
func (p *Pipeline) ToolsList(ctx context.Context, tools []guardapi.Tool, gctx guardapi.GuardContext) decision.Decision {
	return p.run(ctx, guardapi.PhaseToolsList, func(g guardapi.Guard) decision.Decision {
		return guardapi.Safe(func() decision.Decision {
			return g.EvaluateToolsList(ctx, tools, gctx)
		})
	})
}

// ToolResponse runs every guard's EvaluateToolResponse. payload is mutated
// in place by mask-mode guards (e.g. PII) that rewrite string leaves; the
// final decision and any rewritten payload are both the caller's
// responsibility to read back from the guard that performed the rewrite —
// the pipeline itself only aggregates verdicts.
func (p *Pipeline) ToolResponse(ctx context.Context, toolName string, payload any, gctx guardapi.GuardContext) decision.Decision {
	return p.run(ctx, guardapi.PhaseToolResponse, func(g guardapi.Guard) decision.Decision {
		return guardapi.Safe(func() decision.Decision {
			return g.EvaluateToolResponse(ctx, toolName, payload, gctx)
		})
	})
}

// run executes evaluate for each guard in order, short-circuiting on the
// first Deny and otherwise merging warnings (spec §2 control flow).
func (p *Pipeline) run(ctx context.Context, phase guardapi.Phase, evaluate func(guardapi.Guard) decision.Decision) decision.Decision {
	var accumulated []decision.Decision

	for _, g := range p.guards {
		start := time.Now()
		d := evaluate(g)
		p.metrics.record(ctx, g.Type(), string(phase), d.Verdict.String(), float64(time.Since(start).Microseconds())/1000)

		if d.IsDeny() {
			return d
		}
		accumulated = append(accumulated, d)
	}

	return decision.Merge(accumulated...)
}
