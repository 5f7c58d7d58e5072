package gemini

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"google.golang.org/genai"
)

// interventionSchemaDef is the strict contract for examiner policy responses.
// Responses that do not satisfy it are discarded in favor of the
// deterministic fallback, so malformed model output can never reach the
// session state machine.
var interventionSchemaDef = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"action": map[string]any{
			"type": "string",
			"enum": []any{
				"MAINTAIN", "ESCALATE_PRESSURE", "DEESCALATE_PRESSURE",
				"FORCE_RETRY", "DRILL_SPECIFIC", "FAIL",
			},
		},
		"next_prompt":    map[string]any{"type": "string", "minLength": float64(1)},
		"feedback":       map[string]any{"type": "string"},
		"ideal_response": map[string]any{"type": "string"},
		"target_vocabulary": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
		"scores": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"fluency":       bandScoreSchema(),
				"coherence":     bandScoreSchema(),
				"lexical":       bandScoreSchema(),
				"grammar":       bandScoreSchema(),
				"pronunciation": bandScoreSchema(),
			},
			"required": []any{"fluency", "coherence", "lexical", "grammar", "pronunciation"},
		},
	},
	"required": []any{"action", "next_prompt", "feedback", "scores"},
}

// drillSetSchemaDef is the strict contract for drill generation responses.
var drillSetSchemaDef = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"focus_area": map[string]any{"type": "string", "minLength": float64(1)},
		"drills": map[string]any{
			"type":     "array",
			"minItems": float64(1),
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"error_type":          map[string]any{"type": "string"},
					"sentence_with_error": map[string]any{"type": "string", "minLength": float64(1)},
					"correct_sentence":    map[string]any{"type": "string", "minLength": float64(1)},
					"explanation":         map[string]any{"type": "string"},
				},
				"required": []any{"error_type", "sentence_with_error", "correct_sentence", "explanation"},
			},
		},
	},
	"required": []any{"focus_area", "drills"},
}

func bandScoreSchema() map[string]any {
	return map[string]any{
		"type":    "number",
		"minimum": float64(0),
		"maximum": float64(9),
	}
}

// schemaCache caches compiled JSON schemas by name.
var schemaCache sync.Map // map[string]*jsonschema.Schema

// validateAgainstSchema checks raw JSON against a named schema definition,
// compiling and caching the schema on first use.
func validateAgainstSchema(name string, def map[string]any, raw []byte) error {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	compiled, err := getCompiledSchema(name, def)
	if err != nil {
		return fmt.Errorf("compile schema %q: %w", name, err)
	}

	if err := compiled.Validate(parsed); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	return nil
}

// getCompiledSchema returns a cached compiled schema or compiles and caches it.
func getCompiledSchema(name string, def map[string]any) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	// The jsonschema library expects a parsed JSON value (any), not raw
	// bytes. Round-trip the definition to get a clean representation.
	defBytes, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("marshal schema definition: %w", err)
	}
	var defParsed any
	if err := json.Unmarshal(defBytes, &defParsed); err != nil {
		return nil, fmt.Errorf("parse schema definition: %w", err)
	}

	c := jsonschema.NewCompiler()
	schemaURL := fmt.Sprintf("schema://%s.json", name)
	if err := c.AddResource(schemaURL, defParsed); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}

	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	schemaCache.Store(name, compiled)
	return compiled, nil
}

// buildGenaiSchema converts a JSON Schema definition map into the genai
// structured-output schema so the model is constrained at generation time as
// well as validated afterwards.
func buildGenaiSchema(def map[string]any) *genai.Schema {
	schema := &genai.Schema{}

	if t, ok := def["type"].(string); ok {
		schema.Type = mapGenaiType(t)
	}

	if props, ok := def["properties"].(map[string]any); ok {
		schema.Properties = make(map[string]*genai.Schema)
		for k, v := range props {
			if propDef, ok := v.(map[string]any); ok {
				schema.Properties[k] = buildGenaiSchema(propDef)
			}
		}
	}

	if req, ok := def["required"].([]any); ok {
		for _, r := range req {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}

	if enums, ok := def["enum"].([]any); ok {
		for _, e := range enums {
			if s, ok := e.(string); ok {
				schema.Enum = append(schema.Enum, s)
			}
		}
	}

	if items, ok := def["items"].(map[string]any); ok {
		schema.Items = buildGenaiSchema(items)
	}

	return schema
}

func mapGenaiType(t string) genai.Type {
	switch t {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}
