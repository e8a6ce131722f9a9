package config

import (
	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/guards/pii"
	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/guards/poisoning"
	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/guards/rugpull"
	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/guards/spoofing"
)

// GuardsConfig holds each guard's configuration section. It follows the
// same global-default/per-server-override shape as SanitizationConfig:
// used at the root level it supplies defaults, used per-downstream-server
// non-zero sections override the global ones.
type GuardsConfig struct {
	Spoofing  spoofing.Config  `json:"spoofing,omitempty"`
	Poisoning poisoning.Config `json:"poisoning,omitempty"`
	RugPull   rugpull.Config   `json:"rugPull,omitempty"`
	PII       pii.Config       `json:"pii,omitempty"`
}

// MergeGuards applies non-zero fields from override on top of global,
// section by section. A downstream server's guards config is typically
// empty (use the gateway-wide defaults); this only matters once an
// operator opts a server into a stricter or looser policy.
func MergeGuards(global GuardsConfig, override *GuardsConfig) GuardsConfig {
	if override == nil {
		return global
	}

	merged := global

	if len(override.Spoofing.Whitelist) > 0 {
		merged.Spoofing.Whitelist = override.Spoofing.Whitelist
	}
	if override.Spoofing.WhitelistEnabled != nil {
		merged.Spoofing.WhitelistEnabled = override.Spoofing.WhitelistEnabled
	}
	if override.Spoofing.BlockUnknownServers != nil {
		merged.Spoofing.BlockUnknownServers = override.Spoofing.BlockUnknownServers
	}
	if override.Spoofing.TyposquatDetectionEnabled != nil {
		merged.Spoofing.TyposquatDetectionEnabled = override.Spoofing.TyposquatDetectionEnabled
	}
	if override.Spoofing.TyposquatSimilarityThreshold != nil {
		merged.Spoofing.TyposquatSimilarityThreshold = override.Spoofing.TyposquatSimilarityThreshold
	}
	if override.Spoofing.ToolMimicryDetectionEnabled != nil {
		merged.Spoofing.ToolMimicryDetectionEnabled = override.Spoofing.ToolMimicryDetectionEnabled
	}
	if override.Spoofing.AlertOnWarnings != nil {
		merged.Spoofing.AlertOnWarnings = override.Spoofing.AlertOnWarnings
	}
	if override.Spoofing.RequireValidTLS != nil {
		merged.Spoofing.RequireValidTLS = override.Spoofing.RequireValidTLS
	}
	if override.Spoofing.RequireAuthEndpoints != nil {
		merged.Spoofing.RequireAuthEndpoints = override.Spoofing.RequireAuthEndpoints
	}

	if len(override.Poisoning.EnabledCategories) > 0 {
		merged.Poisoning.EnabledCategories = override.Poisoning.EnabledCategories
	}
	if len(override.Poisoning.PatternsOverride) > 0 {
		merged.Poisoning.PatternsOverride = override.Poisoning.PatternsOverride
	}
	if len(override.Poisoning.WeightsOverride) > 0 {
		merged.Poisoning.WeightsOverride = override.Poisoning.WeightsOverride
	}
	if override.Poisoning.RiskThreshold != nil {
		merged.Poisoning.RiskThreshold = override.Poisoning.RiskThreshold
	}

	if override.RugPull.RiskThreshold != nil {
		merged.RugPull.RiskThreshold = override.RugPull.RiskThreshold
	}
	if override.RugPull.Weights.Description != nil {
		merged.RugPull.Weights.Description = override.RugPull.Weights.Description
	}
	if override.RugPull.Weights.Schema != nil {
		merged.RugPull.Weights.Schema = override.RugPull.Weights.Schema
	}
	if override.RugPull.Weights.Remove != nil {
		merged.RugPull.Weights.Remove = override.RugPull.Weights.Remove
	}
	if override.RugPull.Weights.Add != nil {
		merged.RugPull.Weights.Add = override.RugPull.Weights.Add
	}
	if len(override.RugPull.ModeFilter) > 0 {
		merged.RugPull.ModeFilter = override.RugPull.ModeFilter
	}

	if override.PII.Mode != "" {
		merged.PII.Mode = override.PII.Mode
	}
	if len(override.PII.RecognisersEnabled) > 0 {
		merged.PII.RecognisersEnabled = override.PII.RecognisersEnabled
	}
	if override.PII.MinScore != nil {
		merged.PII.MinScore = override.PII.MinScore
	}
	if override.PII.MaskTemplate != "" {
		merged.PII.MaskTemplate = override.PII.MaskTemplate
	}

	return merged
}
