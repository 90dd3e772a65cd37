package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const resultSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["overall", "breakdown", "recommendations"],
  "properties": {
    "schema_version": {"type": "string"},
    "generated_at": {"type": "string"},
    "overall": {
      "type": "object",
      "required": ["score_0_to_100"],
      "properties": {
        "score_0_to_100": {"type": "number", "minimum": 0, "maximum": 100},
        "label": {"type": "string"},
        "summary": {"type": ["string", "null"]}
      }
    },
    "breakdown": {
      "type": "object",
      "properties": {
        "keyword_coverage": {"$ref": "#/definitions/subscore"},
        "ats_compliance": {"$ref": "#/definitions/subscore"},
        "job_match": {"$ref": "#/definitions/subscore"},
        "structure": {"$ref": "#/definitions/subscore"},
        "ranking": {"$ref": "#/definitions/subscore"},
        "readability": {"$ref": "#/definitions/subscore"},
        "ghosted_risk_subscore_0_to_10": {"$ref": "#/definitions/subscore"}
      }
    },
    "recommendations": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["title", "description", "priority"],
        "properties": {
          "title": {"type": "string", "minLength": 1},
          "description": {"type": "string"},
          "priority": {"enum": ["high", "medium", "low"]}
        }
      }
    }
  },
  "definitions": {
    "subscore": {"type": ["number", "null"], "minimum": 0, "maximum": 10}
  }
}`

var (
	resultSchemaOnce sync.Once
	resultSchema     *jsonschema.Schema
	resultSchemaErr  error
)

func compiledResultSchema() (*jsonschema.Schema, error) {
	resultSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("result.json", strings.NewReader(resultSchemaJSON)); err != nil {
			resultSchemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		resultSchema, resultSchemaErr = compiler.Compile("result.json")
		if resultSchemaErr != nil {
			resultSchemaErr = fmt.Errorf("compile schema: %w", resultSchemaErr)
		}
	})
	return resultSchema, resultSchemaErr
}

// decodeResult validates raw against the result schema and decodes it.
func decodeResult(raw string) (*Result, error) {
	schema, err := compiledResultSchema()
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	normalizePriorities(doc)
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("result does not match schema: %w", err)
	}
	clean, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("re-encode result: %w", err)
	}
	var out Result
	if err := json.Unmarshal(clean, &out); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return &out, nil
}

// normalizePriorities lower-cases recommendation priorities so "High" and
// "high" validate alike.
func normalizePriorities(doc any) {
	root, ok := doc.(map[string]any)
	if !ok {
		return
	}
	recs, ok := root["recommendations"].([]any)
	if !ok {
		return
	}
	for _, rec := range recs {
		m, ok := rec.(map[string]any)
		if !ok {
			continue
		}
		if p, ok := m["priority"].(string); ok {
			m["priority"] = strings.ToLower(strings.TrimSpace(p))
		}
	}
}
