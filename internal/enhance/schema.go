package enhance

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"rubricon/internal/rubric"
)

// externalResultSchema constrains what an external service may hand back.
// Anything outside this shape is rejected before the merge ever sees it, so
// a misbehaving model cannot corrupt the local analysis.
const externalResultSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["sections"],
  "properties": {
    "sections": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "items"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "maxPoints": {"type": "integer", "minimum": 0},
          "items": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["description"],
              "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "description": {"type": "string", "minLength": 1},
                "points": {"type": "integer", "minimum": 0},
                "examples": {"type": "array", "items": {"type": "string"}}
              }
            }
          }
        }
      }
    },
    "totalPoints": {"type": "integer", "minimum": 0},
    "metadata": {"type": "object"}
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("external_result.json", strings.NewReader(externalResultSchema)); err != nil {
			schemaErr = fmt.Errorf("registering schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile("external_result.json")
	})
	return compiledSchema, schemaErr
}

// decodeExternalResult validates and decodes the raw model output into an
// analysis result. Validation runs against the schema first so decode errors
// surface as schema violations rather than silent zero values.
func decodeExternalResult(raw string) (*rubric.AnalysisResult, error) {
	schema, err := loadSchema()
	if err != nil {
		return nil, err
	}

	var generic any
	if err := json.Unmarshal([]byte(raw), &generic); err != nil {
		return nil, fmt.Errorf("response is not valid JSON: %w", err)
	}
	if err := schema.Validate(generic); err != nil {
		return nil, fmt.Errorf("response violates result schema: %w", err)
	}

	var result rubric.AnalysisResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &result, nil
}
