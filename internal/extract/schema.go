package extract

import (
	"encoding/json"

	"github.com/jackzampolin/toccata/internal/providers"
)

// ExtractionSchema is the JSON schema for book metadata + ToC extraction.
// The shape is fixed: a metadata object with four nullable fields and a
// toc_entries array.
var ExtractionSchema = map[string]any{
	"type": "json_schema",
	"json_schema": map[string]any{
		"name":   "book_extraction",
		"strict": true,
		"schema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"metadata": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"book_title": map[string]any{
							"type":        []string{"string", "null"},
							"description": "Full title of the book, null if not visible",
						},
						"authors": map[string]any{
							"type":        []string{"array", "null"},
							"items":       map[string]any{"type": "string"},
							"description": "All author names, null if not visible",
						},
						"publishing_house": map[string]any{
							"type":        []string{"string", "null"},
							"description": "Publisher name, null if not visible",
						},
						"publishing_year": map[string]any{
							"type":        []string{"integer", "null"},
							"description": "Year of publication, null if not visible",
						},
					},
					"required":             []string{"book_title", "authors", "publishing_house", "publishing_year"},
					"additionalProperties": false,
				},
				"toc_entries": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"chapter_title": map[string]any{
								"type":        "string",
								"description": "Chapter title as printed",
							},
							"page_number": map[string]any{
								"type":        "integer",
								"minimum":     1,
								"description": "Starting page number",
							},
							"reference_boolean": map[string]any{
								"type":        "boolean",
								"description": "true only for Bibliography or References sections",
							},
						},
						"required":             []string{"chapter_title", "page_number", "reference_boolean"},
						"additionalProperties": false,
					},
					"description": "Main top-level chapters only, empty if no ToC visible",
				},
			},
			"required":             []string{"metadata", "toc_entries"},
			"additionalProperties": false,
		},
	},
}

// ResponseFormat returns the provider response format for extraction calls.
func ResponseFormat() *providers.ResponseFormat {
	jsonSchema, _ := json.Marshal(ExtractionSchema["json_schema"])
	return &providers.ResponseFormat{
		Type:       "json_schema",
		JSONSchema: jsonSchema,
	}
}
