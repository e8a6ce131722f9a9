// Package spoofing implements the Server Spoofing & Whitelisting guard
// (spec §4.4): whitelist enforcement, typosquat detection, tool-mimicry
// fingerprinting, and cross-server tool namespace collisions. Grounded on
// original_source/guards/python-guards/server-spoofing-guard's guard.py,
// generalised to the decision/guardapi contract.
package spoofing

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/yosida95/uritemplate/v3"

	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/decision"
	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/fingerprint"
	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/guardapi"
	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/schema"
	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/store"
	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/textnorm"

	segjson "github.com/segmentio/encoding/json"
)

const guardType = "server_spoofing"

// Guard is the Server Spoofing guard. Its cross-server state lives in the
// shared store.ToolRegistry rather than a private map, so a gateway can
// expose reset_server across guards uniformly (spec §4.4 "State").
type Guard struct {
	guardapi.NoopGuard

	config   Config
	registry *store.ToolRegistry
}

// New constructs a spoofing Guard sharing registry across its callers —
// the registry is process-wide per spec §3.
func New(config Config, registry *store.ToolRegistry) *Guard {
	return &Guard{config: config.applyDefaults(), registry: registry}
}

func (g *Guard) Type() string { return guardType }

// ResetServer clears this server's entries from the shared registry (spec
// §4.4's reset_server operation).
func (g *Guard) ResetServer(serverName string) {
	g.registry.Reset(serverName)
}

// EvaluateServerConnection implements the connection-phase algorithm of
// spec §4.4.
func (g *Guard) EvaluateServerConnection(_ context.Context, gctx guardapi.GuardContext) decision.Decision {
	if !g.config.whitelistEnabled() {
		return decision.Allow()
	}

	if entry, ok := g.findWhitelistEntry(gctx.ServerName, gctx.ServerURL); ok {
		if d, deny := g.checkEntryRequirements(entry, gctx); deny {
			return d
		}
		return decision.Allow()
	}

	if g.config.typosquatDetectionEnabled() {
		if match, ok := g.detectTyposquat(gctx.ServerName); ok {
			return decision.Deny(decision.CodeTyposquatDetected,
				fmt.Sprintf("server %q appears to be typosquatting approved server %q", gctx.ServerName, match),
				map[string]any{
					"detected_name": gctx.ServerName,
					"similar_to":    match,
					"attack_type":   "typosquatting",
				})
		}
	}

	if g.config.blockUnknownServers() {
		return decision.Deny(decision.CodeServerNotWhitelisted,
			fmt.Sprintf("server %q is not in the approved server registry", gctx.ServerName),
			map[string]any{
				"server_name": gctx.ServerName,
				"server_url":  gctx.ServerURL,
				"action":      "add server to whitelist if this is a legitimate server",
			})
	}

	if g.config.alertOnWarnings() {
		return decision.Warn(fmt.Sprintf("server %q is not in whitelist", gctx.ServerName))
	}
	return decision.Allow()
}

// EvaluateToolsList implements the tools-list-phase algorithm of spec
// §4.4: mimicry detection, then namespace collision, then registry update.
func (g *Guard) EvaluateToolsList(_ context.Context, tools []guardapi.Tool, gctx guardapi.GuardContext) decision.Decision {
	fingerprints := make(map[string]fingerprint.Fingerprint, len(tools))
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		fingerprints[t.Name] = fingerprint.Compute(t)
		names = append(names, t.Name)
	}

	if g.config.toolMimicryDetectionEnabled() {
		mimicked := g.detectToolMimicry(gctx.ServerName, tools, fingerprints)
		mimicked = append(mimicked, g.detectUntrustedToolNames(gctx.ServerName, tools)...)
		if len(mimicked) > 0 {
			return decision.Deny(decision.CodeToolMimicryDetected,
				fmt.Sprintf("server %q contains tools that mimic trusted server tools", gctx.ServerName),
				map[string]any{
					"server_name":    gctx.ServerName,
					"mimicked_tools": mimicked,
					"attack_type":    "tool_mimicry",
				})
		}
	}

	if collisions := g.registry.Collisions(gctx.ServerName, names); len(collisions) > 0 {
		return decision.Deny(decision.CodeToolNamespaceCollision,
			fmt.Sprintf("server %q has tools that collide with other servers", gctx.ServerName),
			map[string]any{
				"collisions":     collisions,
				"recommendation": "use namespaced tool names (e.g. server_name.tool_name)",
			})
	}

	g.registry.Put(gctx.ServerName, fingerprints)
	return decision.Allow()
}

func (g *Guard) findWhitelistEntry(serverName, serverURL string) (WhitelistEntry, bool) {
	for _, entry := range g.config.Whitelist {
		if strings.EqualFold(entry.Name, serverName) {
			return entry, true
		}
		if serverURL != "" && entry.URLPattern != "" && matchesURLPattern(entry.URLPattern, serverName, serverURL) {
			return entry, true
		}
	}
	return WhitelistEntry{}, false
}

// matchesURLPattern accepts either a plain regexp or an RFC 6570 URI
// template. A template whose only variable is "tenant" is expanded with
// the candidate server name and compared case-insensitively against
// serverURL — this covers whitelist entries describing a family of
// per-tenant URLs (e.g. "https://{tenant}.trusted-corp.com/mcp") without
// the guard needing to parse serverURL itself.
func matchesURLPattern(pattern, serverName, serverURL string) bool {
	if strings.Contains(pattern, "{") {
		tmpl, err := uritemplate.New(pattern)
		if err != nil {
			return false
		}
		values := uritemplate.Values{}
		values.Set("tenant", uritemplate.String(strings.ToLower(serverName)))
		return strings.EqualFold(tmpl.Expand(values), serverURL)
	}

	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return false
	}
	return re.MatchString(serverURL)
}

// checkEntryRequirements enforces a matched whitelist entry's TLS and
// auth-shape requirements (spec.md §9 Open Questions defers full TLS/auth
// probing to the host; this only inspects the shapes the gateway already
// has in hand — URL scheme and configured OAuth2 client — never dialing
// out).
func (g *Guard) checkEntryRequirements(entry WhitelistEntry, gctx guardapi.GuardContext) (decision.Decision, bool) {
	if g.config.requireValidTLS() && entry.RequiredTLS && !strings.HasPrefix(strings.ToLower(gctx.ServerURL), "https://") {
		return decision.Deny(decision.CodeTLSRequired,
			fmt.Sprintf("server %q requires TLS but connected over a non-https URL", gctx.ServerName),
			map[string]any{"server_name": gctx.ServerName, "server_url": gctx.ServerURL}), true
	}

	if g.config.requireAuthEndpoints() && entry.RequiredAuth {
		if entry.AuthConfig == nil || entry.AuthConfig.ClientID == "" || gctx.Identity == "" {
			return decision.Deny(decision.CodeAuthRequired,
				fmt.Sprintf("server %q requires an authenticated connection", gctx.ServerName),
				map[string]any{"server_name": gctx.ServerName}), true
		}
	}

	return decision.Decision{}, false
}

// detectTyposquat follows spec §4.2/§4.4: a candidate typosquats an
// approved name when its normalised form differs in exactly one
// substitution, or collapses to the same homoglyph-normalised form, AND
// the Levenshtein ratio clears the threshold.
func (g *Guard) detectTyposquat(serverName string) (string, bool) {
	threshold := g.config.typosquatSimilarityThreshold()
	test := strings.ToLower(serverName)

	for _, entry := range g.config.Whitelist {
		approved := strings.ToLower(entry.Name)
		if approved == test {
			continue
		}

		similarity := textnorm.LevenshteinRatio(approved, test)
		if similarity < threshold {
			continue
		}

		if isTyposquatPattern(approved, test) {
			return entry.Name, true
		}
	}
	return "", false
}

// isTyposquatPattern checks the two common patterns from the original
// guard: a same-length single-character substitution, or a homoglyph
// collapse to an identical canonical form from differing raw strings.
func isTyposquatPattern(approved, suspect string) bool {
	ar, sr := []rune(approved), []rune(suspect)
	if len(ar) == len(sr) {
		diffs := 0
		for i := range ar {
			if ar[i] != sr[i] {
				diffs++
			}
		}
		if diffs == 1 {
			return true
		}
	}

	if approved != suspect && textnorm.NormaliseHomoglyphs(approved) == textnorm.NormaliseHomoglyphs(suspect) {
		return true
	}
	return false
}

type mimicryMatch struct {
	ToolName     string `json:"tool_name"`
	MimicsServer string `json:"mimics_server"`
	MimicsTool   string `json:"mimics_tool"`
	MatchType    string `json:"match_type"`
}

func (g *Guard) detectToolMimicry(serverName string, tools []guardapi.Tool, fingerprints map[string]fingerprint.Fingerprint) []mimicryMatch {
	type trustedTool struct{ server, tool string }
	trustedByFingerprint := make(map[string]trustedTool)
	for _, entry := range g.config.Whitelist {
		for toolName, fp := range entry.ToolFingerprints {
			trustedByFingerprint[fp] = trustedTool{server: entry.Name, tool: toolName}
		}
	}

	var mimicked []mimicryMatch
	for _, t := range tools {
		fp := string(fingerprints[t.Name])

		if trusted, ok := trustedByFingerprint[fp]; ok && !strings.EqualFold(trusted.server, serverName) {
			mimicked = append(mimicked, mimicryMatch{
				ToolName:     t.Name,
				MimicsServer: trusted.server,
				MimicsTool:   trusted.tool,
				MatchType:    "exact_fingerprint",
			})
		}

		for _, entry := range g.config.Whitelist {
			if strings.EqualFold(entry.Name, serverName) {
				continue
			}
			for trustedName := range entry.ToolFingerprints {
				if strings.EqualFold(t.Name, trustedName) {
					mimicked = append(mimicked, mimicryMatch{
						ToolName:     t.Name,
						MimicsServer: entry.Name,
						MimicsTool:   trustedName,
						MatchType:    "name_collision",
					})
				}
			}
		}
	}
	return mimicked
}

// detectUntrustedToolNames implements the TrustedToolNames restriction: if
// serverName is itself a whitelisted entry with a non-empty
// TrustedToolNames set, any advertised tool outside that set is reported
// as a mimicry candidate even without an exact fingerprint match.
func (g *Guard) detectUntrustedToolNames(serverName string, tools []guardapi.Tool) []mimicryMatch {
	entry, ok := g.findWhitelistEntry(serverName, "")
	if !ok || len(entry.TrustedToolNames) == 0 {
		return nil
	}

	trusted := make(map[string]bool, len(entry.TrustedToolNames))
	for _, name := range entry.TrustedToolNames {
		trusted[strings.ToLower(name)] = true
	}

	var out []mimicryMatch
	for _, t := range tools {
		if !trusted[strings.ToLower(t.Name)] {
			out = append(out, mimicryMatch{
				ToolName:     t.Name,
				MimicsServer: entry.Name,
				MatchType:    "untrusted_tool_name",
			})
		}
	}
	return out
}

// SettingsSchema implements guardapi.Guard.
func (g *Guard) SettingsSchema() (string, error) {
	return schema.NewBuilder("Server Spoofing Guard", "Whitelist, typosquat, and tool-mimicry detection for upstream MCP servers.",
		schema.Meta{GuardType: guardType, Version: "1.0.0", Category: "detection", DefaultRun: "connection"}).
		Bool("whitelistEnabled", "enforce the server whitelist", true).
		Bool("blockUnknownServers", "deny servers absent from the whitelist instead of warning", true).
		Bool("typosquatDetectionEnabled", "detect names similar to whitelisted servers", true).
		Number("typosquatSimilarityThreshold", "minimum Levenshtein ratio to flag a typosquat", 0.85, floatPtr(0), floatPtr(1)).
		Bool("toolMimicryDetectionEnabled", "detect tools that mimic trusted servers' tools", true).
		Bool("alertOnWarnings", "surface a warning decision for unknown servers when not blocking", true).
		Bool("requireValidTLS", "enforce a whitelist entry's requiredTLS flag", true).
		Bool("requireAuthEndpoints", "enforce a whitelist entry's requiredAuth flag", true).
		Build()
}

// DefaultConfig implements guardapi.Guard.
func (g *Guard) DefaultConfig() (string, error) {
	out, err := segjson.Marshal(Config{}.applyDefaults())
	if err != nil {
		return "", err
	}
	return string(out), nil
}
