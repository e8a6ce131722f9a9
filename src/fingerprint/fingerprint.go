// Package fingerprint computes the canonical, structural fingerprint of a
// Tool (spec §3, §4.3): a 16-byte prefix of SHA-256 over
// name | '' | description | '' | canonical_schema. Two tools
// with identical canonicalised content fingerprint identically regardless
// of which server advertised them.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/segmentio/encoding/json"

	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/guardapi"
)

const unitSeparator = ""

// Fingerprint is the 16-byte (32 hex char) fingerprint of a Tool's
// structural content.
type Fingerprint string

// Compute returns the fingerprint of t. Schemas are canonicalised (key-sorted,
// whitespace-normalised) before hashing so that structurally identical
// schemas with differing formatting fingerprint identically.
func Compute(t guardapi.Tool) Fingerprint {
	canonical := CanonicalizeSchema(t.InputSchema)
	content := t.Name + unitSeparator + t.Description + unitSeparator + canonical

	sum := sha256.Sum256([]byte(content))
	return Fingerprint(hex.EncodeToString(sum[:16]))
}

// CanonicalizeSchema re-encodes a JSON Schema fragment with object keys
// sorted and whitespace stripped. If raw does not parse as JSON, it is
// returned trimmed but otherwise unchanged — an unparseable schema still
// fingerprints deterministically, it just does not benefit from structural
// canonicalisation.
func CanonicalizeSchema(raw string) string {
	if raw == "" {
		return ""
	}

	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}

	canonical := canonicalizeValue(v)
	out, err := json.Marshal(canonical)
	if err != nil {
		return raw
	}
	return string(out)
}

// canonicalizeValue recursively rebuilds maps as sorted-key structures.
// segmentio/encoding/json marshals Go maps with sorted keys already, so
// this step is mostly about normalizing nested map[string]any values that
// arrived via json.Unmarshal into any.
func canonicalizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = canonicalizeValue(child)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = canonicalizeValue(child)
		}
		return out
	default:
		return val
	}
}

// StructurallyEqual reports whether two tools are structurally equal per
// spec §3: name, description, and canonicalised schema all match.
func StructurallyEqual(a, b guardapi.Tool) bool {
	return a.Name == b.Name &&
		a.Description == b.Description &&
		CanonicalizeSchema(a.InputSchema) == CanonicalizeSchema(b.InputSchema)
}
