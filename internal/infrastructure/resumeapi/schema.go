package resumeapi

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const analyzeResponseSchemaJSON = `{
  "type": "object",
  "required": ["ats_score", "matched_keywords", "missing_keywords", "suggestions", "resume_text"],
  "properties": {
    "ats_score": {"type": "integer"},
    "matched_keywords": {"type": "array", "items": {"type": "string"}},
    "missing_keywords": {"type": "array", "items": {"type": "string"}},
    "suggestions": {"type": "array", "items": {"type": "string"}},
    "resume_text": {"type": "string"},
    "resume_html": {"type": ["string", "null"]},
    "job_title": {"type": ["string", "null"]},
    "source_type": {"type": ["string", "null"]}
  }
}`

var analyzeResponseSchema = mustSchema(analyzeResponseSchemaJSON)

func mustSchema(raw string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
	if err != nil {
		panic(fmt.Sprintf("compile schema: %v", err))
	}
	return schema
}

// validateAgainst reports every schema violation in one error.
func validateAgainst(schema *gojsonschema.Schema, raw []byte) error {
	if schema == nil {
		return nil
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}
	if result.Valid() {
		return nil
	}
	parts := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		parts = append(parts, field+": "+desc.Description())
	}
	return fmt.Errorf("unexpected response shape: %s", strings.Join(parts, "; "))
}
