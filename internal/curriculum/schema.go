package curriculum

import "github.com/abhisek/tutorchat/internal/llm"

// CurriculumSchema is the structured-output shape for curriculum generation.
var CurriculumSchema = &llm.Schema{
	Name:        "curriculum",
	Description: "An ordered list of topics, each with ordered subtopics",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"topics": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name": map[string]any{
							"type":        "string",
							"description": "Topic title",
						},
						"subtopics": map[string]any{
							"type":     "array",
							"minItems": 1,
							"items": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"title":   map[string]any{"type": "string"},
									"content": map[string]any{"type": "string"},
								},
								"required":             []any{"title", "content"},
								"additionalProperties": false,
							},
						},
					},
					"required":             []any{"name", "subtopics"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"topics"},
		"additionalProperties": false,
	},
}
