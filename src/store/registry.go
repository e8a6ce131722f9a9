// Package store holds the process-wide mutable state guards need across
// calls: the cross-server ToolRegistry (spoofing) and per-target rug-pull
// baselines. Each is an object (ToolRegistry, Baselines) constructed
// explicitly by the host, rather than a package-level global, so tests can
// stand up fresh stores per case (spec §9 "Global mutable state").
package store

import (
	"strings"
	"sync"

	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/fingerprint"
)

// ToolRegistry is the process-wide mapping server_name -> (tool_name ->
// fingerprint), written by the Server Spoofing guard on every successful
// tools_list and read to detect cross-server name collisions (spec §3).
type ToolRegistry struct {
	mu       sync.RWMutex
	byServer map[string]map[string]fingerprint.Fingerprint
}

// NewToolRegistry returns an empty registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{byServer: make(map[string]map[string]fingerprint.Fingerprint)}
}

// Put overwrites the registry entry for serverName with tools. Last writer
// wins under concurrent writes for the same server — acceptable per spec
// §5 because writers agree on the structurally computed fingerprints.
func (r *ToolRegistry) Put(serverName string, tools map[string]fingerprint.Fingerprint) {
	snapshot := make(map[string]fingerprint.Fingerprint, len(tools))
	for k, v := range tools {
		snapshot[k] = v
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byServer[serverName] = snapshot
}

// Collisions returns, for each tool name in names, the set of OTHER
// servers (case-insensitive different from excludeServer) that already
// advertise a tool with that name.
func (r *ToolRegistry) Collisions(excludeServer string, names []string) map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	excl := strings.ToLower(excludeServer)
	result := make(map[string][]string)

	for _, name := range names {
		var owners []string
		for server, tools := range r.byServer {
			if strings.ToLower(server) == excl {
				continue
			}
			if _, ok := tools[name]; ok {
				owners = append(owners, server)
			}
		}
		if len(owners) > 0 {
			result[name] = owners
		}
	}
	return result
}

// Reset removes the registry entry for serverName, if any (spec §4.4
// "reset_server" operation).
func (r *ToolRegistry) Reset(serverName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byServer, serverName)
}
