// Package schema emits JSON Schema 2020-12 documents describing a guard's
// settings, using the same jsonschema.Schema type the teacher already
// depends on transitively through modelcontextprotocol/go-sdk/mcp's tool
// input schemas (see go.mod: github.com/google/jsonschema-go). A guard's
// SettingsSchema() builds one of these with Builder and marshals it with
// the teacher's JSON library, github.com/segmentio/encoding/json.
package schema

import (
	"github.com/google/jsonschema-go/jsonschema"
	segjson "github.com/segmentio/encoding/json"
)

// Meta is the x-guard-meta extension block every guard's settings schema
// carries (spec §4.8): machine-readable identity for a settings UI or
// control plane that doesn't want to parse free text out of Description.
type Meta struct {
	GuardType  string `json:"guardType"`
	Version    string `json:"version"`
	Category   string `json:"category"`
	DefaultRun string `json:"defaultRunsOn"`
}

// Builder accumulates a JSON Schema 2020-12 object schema for a guard's
// configuration. Properties are emitted sorted by name, whatever the order
// of the calls to Bool/String/Number/StringArray.
type Builder struct {
	schema *jsonschema.Schema
	meta   Meta
	order  []string
}

// NewBuilder starts an object-typed schema with the given title/description
// and x-guard-meta block.
func NewBuilder(title, description string, meta Meta) *Builder {
	return &Builder{
		schema: &jsonschema.Schema{
			Schema:      "https://json-schema.org/draft/2020-12/schema",
			Type:        "object",
			Title:       title,
			Description: description,
			Properties:  map[string]*jsonschema.Schema{},
		},
		meta: meta,
	}
}

// Bool declares a boolean property with a default value.
func (b *Builder) Bool(name, description string, def bool) *Builder {
	b.schema.Properties[name] = &jsonschema.Schema{
		Type:        "boolean",
		Description: description,
		Default:     def,
	}
	b.order = append(b.order, name)
	return b
}

// Number declares a numeric property with a default and an inclusive range.
// min and max are both optional; pass nil to leave a bound unset.
func (b *Builder) Number(name, description string, def float64, min, max *float64) *Builder {
	prop := &jsonschema.Schema{
		Type:        "number",
		Description: description,
		Default:     def,
	}
	if min != nil {
		prop.Minimum = min
	}
	if max != nil {
		prop.Maximum = max
	}
	b.schema.Properties[name] = prop
	b.order = append(b.order, name)
	return b
}

// String declares a string property, optionally constrained to enum.
func (b *Builder) String(name, description, def string, enum ...string) *Builder {
	prop := &jsonschema.Schema{
		Type:        "string",
		Description: description,
		Default:     def,
	}
	for _, e := range enum {
		prop.Enum = append(prop.Enum, e)
	}
	b.schema.Properties[name] = prop
	b.order = append(b.order, name)
	return b
}

// StringArray declares an array-of-strings property.
func (b *Builder) StringArray(name, description string, def []string) *Builder {
	defAny := make([]any, len(def))
	for i, v := range def {
		defAny[i] = v
	}
	b.schema.Properties[name] = &jsonschema.Schema{
		Type:        "array",
		Description: description,
		Items:       &jsonschema.Schema{Type: "string"},
		Default:     defAny,
	}
	b.order = append(b.order, name)
	return b
}

// Required marks the given property names as required.
func (b *Builder) Required(names ...string) *Builder {
	b.schema.Required = append(b.schema.Required, names...)
	return b
}

// Build marshals the accumulated schema plus x-guard-meta extension to a
// JSON string. The x-guard-meta block is merged in after marshaling the
// base schema since jsonschema.Schema has no generic extension map.
func (b *Builder) Build() (string, error) {
	base, err := segjson.Marshal(b.schema)
	if err != nil {
		return "", err
	}

	var doc map[string]any
	if err := segjson.Unmarshal(base, &doc); err != nil {
		return "", err
	}
	doc["x-guard-meta"] = b.meta

	out, err := segjson.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
