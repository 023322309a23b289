// Package config loads and validates the YAML description of a cluster to
// simulate: node count, timing constants, seed, and the fault parameters
// applied to the simulated transport. The introducer address is not
// configurable here: it is always id=1, port=0.
package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"swimcore"
)

// LinkFault mirrors transport/sim's LinkConfig in YAML-friendly form.
type LinkFault struct {
	Latency int32   `yaml:"latency,omitempty"`
	Drop    float64 `yaml:"drop,omitempty"`
}

// ClusterSpec is the full description of a simulated run.
type ClusterSpec struct {
	// Nodes is how many peers to create, addressed (id=1..Nodes, port=0).
	// id=1 is always the introducer.
	Nodes int `yaml:"nodes"`

	TPing   int32 `yaml:"tping"`
	TFail   int32 `yaml:"tfail"`
	TRemove int32 `yaml:"tremove"`

	// Seed controls the simulated transport's randomness, for a
	// reproducible run.
	Seed int64 `yaml:"seed"`

	// DefaultLink is applied to every pair with no entry in Links.
	DefaultLink LinkFault            `yaml:"default_link,omitempty"`
	Links       map[string]LinkFault `yaml:"links,omitempty"`
}

// Params extracts the swimcore.Params every node in this spec is
// constructed with.
func (s ClusterSpec) Params() swimcore.Params {
	return swimcore.Params{TPing: s.TPing, TFail: s.TFail, TRemove: s.TRemove}
}

// schemaSource is the JSON Schema every loaded ClusterSpec is validated
// against before being unmarshaled into Go types, so a malformed field
// name or an out-of-range value fails with a precise path instead of a
// silently zero-valued struct.
const schemaSource = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["nodes", "tping", "tfail", "tremove"],
  "properties": {
    "nodes": {"type": "integer", "minimum": 1},
    "tping": {"type": "integer", "minimum": 1},
    "tfail": {"type": "integer", "minimum": 1},
    "tremove": {"type": "integer", "minimum": 1},
    "seed": {"type": "integer"},
    "default_link": {"$ref": "#/$defs/linkFault"},
    "links": {
      "type": "object",
      "additionalProperties": {"$ref": "#/$defs/linkFault"}
    }
  },
  "$defs": {
    "linkFault": {
      "type": "object",
      "properties": {
        "latency": {"type": "integer", "minimum": 0},
        "drop": {"type": "number", "minimum": 0, "maximum": 1}
      }
    }
  }
}`

func compiledSchema() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader([]byte(schemaSource)))
	if err != nil {
		return nil, fmt.Errorf("parse cluster spec schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("cluster-spec.json", doc); err != nil {
		return nil, fmt.Errorf("add cluster spec schema resource: %w", err)
	}
	return compiler.Compile("cluster-spec.json")
}

// Load reads and validates a ClusterSpec from a YAML file at path.
func Load(path string) (ClusterSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ClusterSpec{}, fmt.Errorf("read cluster spec: %w", err)
	}
	return Parse(data)
}

// Parse validates and decodes YAML cluster spec bytes. Validation runs
// against the JSON Schema above, which means the YAML is first decoded
// into a generic map so the schema library can walk it.
func Parse(data []byte) (ClusterSpec, error) {
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return ClusterSpec{}, fmt.Errorf("parse cluster spec yaml: %w", err)
	}
	generic = normalizeForSchema(generic)

	schema, err := compiledSchema()
	if err != nil {
		return ClusterSpec{}, err
	}
	if err := schema.Validate(generic); err != nil {
		return ClusterSpec{}, fmt.Errorf("cluster spec failed validation: %w", err)
	}

	var spec ClusterSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return ClusterSpec{}, fmt.Errorf("decode cluster spec: %w", err)
	}
	if spec.TFail >= spec.TRemove {
		return ClusterSpec{}, fmt.Errorf("cluster spec: tfail (%d) must be less than tremove (%d)", spec.TFail, spec.TRemove)
	}
	return spec, nil
}

// normalizeForSchema converts yaml.v3's map[string]any (and nested
// map[string]any) into the map[string]interface{} / []interface{} shape
// jsonschema expects; yaml.Unmarshal into `any` already produces
// map[string]interface{} for mapping nodes so this is effectively a
// type-level no-op today, kept as an explicit step because the two
// decoders' numeric types (int vs float64) differ and schema validation
// is numeric-type-sensitive.
func normalizeForSchema(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = normalizeForSchema(e)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = normalizeForSchema(e)
		}
		return out
	case int:
		return float64(val)
	default:
		return v
	}
}
