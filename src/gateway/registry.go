// Package gateway wires upstream and downstream transports together,
// running downstream connections and advertised tools through the guard
// pipeline, and proxied tool responses through the guard pipeline's
// tool_response phase (the PII guard) and then through a per-server
// sanitizer guard, which adapts the sanitizer's text-scanning pipeline to
// the same guardapi.Guard contract (src/sanitizer/guard.go).
package gateway

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	segjson "github.com/segmentio/encoding/json"

	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/config"
	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/decision"
	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/guardapi"
	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/pipeline"
	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/sanitizer"
	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/transport"
)

const namespaceSep = "__"

// Registry discovers tools from downstream servers, runs the guard
// pipeline's tools_list phase over the catalogue, namespaces surviving
// tools, and registers proxy handlers on the upstream server.
type Registry struct {
	upstream   *transport.Upstream
	downstream *transport.DownstreamManager
	globalSan  config.SanitizationConfig
	guards     *pipeline.Pipeline
	logger     *slog.Logger
}

// NewRegistry creates a registry wired to the given upstream/downstream
// pair and guard pipeline.
func NewRegistry(
	upstream *transport.Upstream,
	downstream *transport.DownstreamManager,
	globalSan config.SanitizationConfig,
	guards *pipeline.Pipeline,
	logger *slog.Logger,
) *Registry {
	return &Registry{
		upstream:   upstream,
		downstream: downstream,
		globalSan:  globalSan,
		guards:     guards,
		logger:     logger.With("area", "registry"),
	}
}

// DiscoverAndRegister iterates all downstream connections, runs the guard
// pipeline's tools_list phase, discovers surviving tools, and registers
// namespaced proxy handlers on the upstream server. Returns the total
// number of tools registered.
func (r *Registry) DiscoverAndRegister(ctx context.Context) (int, error) {
	total := 0

	for name, conn := range r.downstream.Conns() {
		gctx := guardapi.GuardContext{ServerName: name, ServerURL: conn.Config.URL}

		if d := r.guards.Connection(ctx, gctx); d.IsDeny() {
			r.logger.Warn("connection rejected by guards", "server", name, "reason", d.Reason)
			continue
		} else if d.IsWarn() {
			r.logger.Warn("connection warning from guards", "server", name, "warnings", d.Warnings)
		}

		mergedSan := config.Merge(&r.globalSan, conn.Config.Sanitization)

		textPipeline, err := BuildTextPipeline(mergedSan, name)
		if err != nil {
			return total, fmt.Errorf("building sanitization pipeline for %s: %w", name, err)
		}
		sanitizerGuard := sanitizer.NewGuard(textPipeline)

		tools, err := r.listTools(ctx, conn.Session)
		if err != nil {
			return total, fmt.Errorf("listing tools for %s: %w", name, err)
		}

		guardTools := toGuardTools(tools)

		if d := r.guards.ToolsList(ctx, guardTools, gctx); d.IsDeny() {
			r.logger.Warn("tools_list rejected by guards", "server", name, "reason", d.Reason)
			continue
		} else if d.IsWarn() {
			r.logger.Warn("tools_list warning from guards", "server", name, "warnings", d.Warnings)
		}

		count, err := r.registerServer(name, tools, sanitizerGuard)
		if err != nil {
			return total, fmt.Errorf("registering tools for %s: %w", name, err)
		}

		r.logger.Info("registered tools", "server", name, "count", count)
		total += count
	}

	if total == 0 {
		return 0, fmt.Errorf("no tools discovered from any downstream server")
	}
	return total, nil
}

func (r *Registry) listTools(ctx context.Context, session *mcp.ClientSession) ([]*mcp.Tool, error) {
	var tools []*mcp.Tool
	for tool, err := range session.Tools(ctx, nil) {
		if err != nil {
			return nil, fmt.Errorf("listing tools: %w", err)
		}
		tools = append(tools, tool)
	}
	return tools, nil
}

func (r *Registry) registerServer(
	serverName string,
	tools []*mcp.Tool,
	sanitizerGuard guardapi.Guard,
) (int, error) {
	count := 0
	for _, tool := range tools {
		namespacedName := serverName + namespaceSep + tool.Name

		proxied := proxyTool(tool, namespacedName)
		handler := proxyHandler(r.downstream, r.guards, serverName, tool.Name, namespacedName, sanitizerGuard, r.logger)
		r.upstream.Server.AddTool(proxied, handler)

		count++
	}
	return count, nil
}

// toGuardTools converts MCP tool records into the guard contract's Tool
// type: the input schema is re-serialised to its JSON Schema string form
// since fingerprinting and mimicry detection operate over text content.
func toGuardTools(tools []*mcp.Tool) []guardapi.Tool {
	out := make([]guardapi.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, guardapi.Tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: schemaToString(t.InputSchema),
		})
	}
	return out
}

// schemaToString renders a tool's raw input schema (an untyped
// map[string]any / nil as stored on mcp.Tool) to its JSON text form, since
// fingerprinting and mimicry detection operate over text content.
func schemaToString(s any) string {
	if s == nil {
		return ""
	}
	out, err := segjson.Marshal(s)
	if err != nil {
		return ""
	}
	return string(out)
}

// proxyTool creates a copy of the downstream tool with a namespaced name.
func proxyTool(original *mcp.Tool, namespacedName string) *mcp.Tool {
	return &mcp.Tool{
		Name:        namespacedName,
		Description: original.Description,
		InputSchema: original.InputSchema,
		Annotations: original.Annotations,
		Title:       original.Title,
	}
}

// proxyHandler returns a ToolHandler that forwards calls to the downstream
// session, then runs the result through the shared guard pipeline's
// tool_response phase (PII) and the per-server sanitizer guard, in that
// order, on the same payload. It looks up the session at call time so that
// reconnected sessions are used automatically.
func proxyHandler(
	dm *transport.DownstreamManager,
	guards *pipeline.Pipeline,
	serverName string,
	downstreamName string,
	namespacedName string,
	sanitizerGuard guardapi.Guard,
	logger *slog.Logger,
) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		session := dm.Session(serverName)
		if session == nil {
			return nil, fmt.Errorf("downstream %s not connected", serverName)
		}

		result, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name:      downstreamName,
			Arguments: req.Params.Arguments,
		})
		if err != nil {
			return nil, fmt.Errorf("downstream call %s: %w", namespacedName, err)
		}

		gctx := guardapi.GuardContext{ServerName: serverName}
		if d := guardResponse(ctx, guards, sanitizerGuard, downstreamName, result, gctx); d.IsDeny() {
			logger.Warn("tool response rejected by guards", "tool", namespacedName, "reason", d.Reason)
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: d.Reason.Message}},
				IsError: true,
			}, nil
		}

		return result, nil
	}
}

// guardResponse runs each TextContent item's text through the shared guard
// pipeline's tool_response phase (PII) and then the sanitizer guard,
// writing any rewrite back into result's content. The first Deny from
// either stops evaluation and is returned for the whole response.
func guardResponse(ctx context.Context, guards *pipeline.Pipeline, sanitizerGuard guardapi.Guard, toolName string, result *mcp.CallToolResult, gctx guardapi.GuardContext) decision.Decision {
	for i, content := range result.Content {
		tc, ok := content.(*mcp.TextContent)
		if !ok {
			continue
		}

		var payload any = tc.Text
		if d := guards.ToolResponse(ctx, toolName, &payload, gctx); d.IsDeny() {
			return d
		}
		if d := sanitizerGuard.EvaluateToolResponse(ctx, toolName, &payload, gctx); d.IsDeny() {
			return d
		}
		if rewritten, ok := payload.(string); ok {
			result.Content[i] = &mcp.TextContent{Text: rewritten, Annotations: tc.Annotations}
		}
	}
	return decision.Allow()
}

// BuildTextPipeline constructs a sanitizer.Pipeline from a (merged) config.
// Scanner order: unicode -> length -> injection -> override -> url -> boundary.
func BuildTextPipeline(cfg config.SanitizationConfig, source string) (*sanitizer.Pipeline, error) {
	var scanners []sanitizer.Scanner

	if deref(cfg.EnableInvisibleTextRemoval) {
		scanners = append(scanners, &sanitizer.UnicodeScanner{})
	}

	if cfg.MaxResponseChars != nil && *cfg.MaxResponseChars > 0 {
		scanners = append(scanners, sanitizer.NewLengthScanner(*cfg.MaxResponseChars))
	}

	if deref(cfg.EnablePromptInjectionDetection) {
		s, err := sanitizer.NewInjectionScanner(
			deref(cfg.DisableBuiltInPatterns),
			cfg.CustomInjectionPatterns,
		)
		if err != nil {
			return nil, fmt.Errorf("injection scanner: %w", err)
		}
		scanners = append(scanners, s)
	}

	if deref(cfg.EnableSystemOverrideDetection) {
		scanners = append(scanners, &sanitizer.OverrideScanner{})
	}

	if deref(cfg.EnableURLValidation) {
		scanners = append(scanners, &sanitizer.URLScanner{})
	}

	if deref(cfg.EnableBoundaryInjection) {
		scanners = append(scanners, sanitizer.NewBoundaryScanner(source))
	}

	return sanitizer.NewPipeline(scanners...), nil
}

func deref(b *bool) bool {
	if b == nil {
		return false
	}
	return *b
}
