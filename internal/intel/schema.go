package intel

import (
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/docuvault/docintel/constants"
	"github.com/docuvault/docintel/internal/llm"
)

// buildIntelligenceJSONSchema returns the canonical summary/insights shape as
// a JSON-Schema map. Normalized output is validated against it before a stage
// is allowed to win.
func buildIntelligenceJSONSchema() map[string]any {
	stringList := func(maxItems int) map[string]any {
		return map[string]any{
			"type":     "array",
			"items":    map[string]any{"type": "string", "minLength": 1},
			"maxItems": maxItems,
		}
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"summary", "insights"},
		"properties": map[string]any{
			"summary": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"required":             []string{"title", "category", "importance"},
				"properties": map[string]any{
					"title":          map[string]any{"type": "string", "minLength": 1},
					"description":    map[string]any{"type": "string"},
					"category":       map[string]any{"type": "string", "enum": constants.CategoriesAsStrings()},
					"importance":     map[string]any{"type": "string", "enum": constants.ImportancesAsStrings()},
					"processingTips": stringList(constants.MaxProcessingTips),
				},
			},
			"insights": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"required":             []string{"documentType", "completeness"},
				"properties": map[string]any{
					"documentType": map[string]any{"type": "string", "minLength": 1},
					"completeness": map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
					"keyInsights":  stringList(constants.MaxKeyInsights),
					"nextActions":  stringList(constants.MaxNextActions),
					"warnings":     stringList(constants.MaxWarnings),
				},
			},
		},
	}
}

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func intelligenceSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = llm.CompileSchema(buildIntelligenceJSONSchema())
	})
	return compiledSchema, schemaErr
}
