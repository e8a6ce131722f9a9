package spoofing

import "golang.org/x/oauth2"

// WhitelistEntry is one approved server record (spec §3, §4.4). Grounded on
// the Python guard's WhitelistEntry dataclass.
type WhitelistEntry struct {
	Name        string `json:"name"`
	URLPattern  string `json:"urlPattern,omitempty"` // plain regexp, or a RFC6570 template (e.g. "https://{tenant}.trusted-corp.com/mcp")
	Description string `json:"description,omitempty"`
	RequiredTLS bool   `json:"requiredTLS"`

	// RequiredAuth gates the auth-shape check: when true, AuthConfig must
	// describe a real client and the connection must carry an identity.
	RequiredAuth bool `json:"requiredAuth"`
	// AuthConfig describes the OAuth2 client a control plane expects this
	// server to authenticate through. The guard only inspects its shape
	// (ClientID set) — it never dials out to validate it.
	AuthConfig *oauth2.Config `json:"authConfig,omitempty"`

	// TrustedToolNames, when non-empty, is the exhaustive set of tool
	// names this server is allowed to advertise. A tool outside this set
	// is reported as a mimicry candidate even without an exact
	// fingerprint match against another whitelist entry.
	TrustedToolNames []string          `json:"trustedToolNames,omitempty"`
	ToolFingerprints map[string]string `json:"toolFingerprints,omitempty"`
}

// Config is the Server Spoofing guard's configuration (spec §4.4).
type Config struct {
	WhitelistEnabled             *bool            `json:"whitelistEnabled,omitempty"`
	Whitelist                    []WhitelistEntry `json:"whitelist,omitempty"`
	BlockUnknownServers          *bool            `json:"blockUnknownServers,omitempty"`
	TyposquatDetectionEnabled    *bool            `json:"typosquatDetectionEnabled,omitempty"`
	TyposquatSimilarityThreshold *float64         `json:"typosquatSimilarityThreshold,omitempty"`
	ToolMimicryDetectionEnabled  *bool            `json:"toolMimicryDetectionEnabled,omitempty"`
	AlertOnWarnings              *bool            `json:"alertOnWarnings,omitempty"`

	// RequireValidTLS and RequireAuthEndpoints are the master switches for
	// the per-entry RequiredTLS/RequiredAuth checks below; a whitelist
	// entry can still opt out by leaving its own flag false.
	RequireValidTLS      *bool `json:"requireValidTLS,omitempty"`
	RequireAuthEndpoints *bool `json:"requireAuthEndpoints,omitempty"`
}

func boolPtr(b bool) *bool        { return &b }
func floatPtr(f float64) *float64 { return &f }

// applyDefaults mirrors the teacher's config.applyDefaults pattern: pointer
// fields distinguish "unset" from an explicit false/zero.
func (c Config) applyDefaults() Config {
	if c.WhitelistEnabled == nil {
		c.WhitelistEnabled = boolPtr(true)
	}
	if c.BlockUnknownServers == nil {
		c.BlockUnknownServers = boolPtr(true)
	}
	if c.TyposquatDetectionEnabled == nil {
		c.TyposquatDetectionEnabled = boolPtr(true)
	}
	if c.TyposquatSimilarityThreshold == nil {
		c.TyposquatSimilarityThreshold = floatPtr(0.85)
	}
	if c.ToolMimicryDetectionEnabled == nil {
		c.ToolMimicryDetectionEnabled = boolPtr(true)
	}
	if c.AlertOnWarnings == nil {
		c.AlertOnWarnings = boolPtr(true)
	}
	if c.RequireValidTLS == nil {
		c.RequireValidTLS = boolPtr(true)
	}
	if c.RequireAuthEndpoints == nil {
		c.RequireAuthEndpoints = boolPtr(true)
	}
	return c
}

func (c Config) whitelistEnabled() bool          { return c.WhitelistEnabled == nil || *c.WhitelistEnabled }
func (c Config) blockUnknownServers() bool       { return c.BlockUnknownServers == nil || *c.BlockUnknownServers }
func (c Config) typosquatDetectionEnabled() bool { return c.TyposquatDetectionEnabled == nil || *c.TyposquatDetectionEnabled }
func (c Config) toolMimicryDetectionEnabled() bool {
	return c.ToolMimicryDetectionEnabled == nil || *c.ToolMimicryDetectionEnabled
}
func (c Config) alertOnWarnings() bool      { return c.AlertOnWarnings == nil || *c.AlertOnWarnings }
func (c Config) requireValidTLS() bool      { return c.RequireValidTLS == nil || *c.RequireValidTLS }
func (c Config) requireAuthEndpoints() bool { return c.RequireAuthEndpoints == nil || *c.RequireAuthEndpoints }

func (c Config) typosquatSimilarityThreshold() float64 {
	if c.TyposquatSimilarityThreshold == nil {
		return 0.85
	}
	return *c.TyposquatSimilarityThreshold
}
