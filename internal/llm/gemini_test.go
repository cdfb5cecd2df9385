package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiModelMapping(t *testing.T) {
	assert.Equal(t, "gemini-2.5-flash", resolveModel("gemini-flash", geminiModels))
	assert.Equal(t, "gemini-2.5-flash-lite", resolveModel("gemini-flash-lite", geminiModels))
	assert.Equal(t, "gemini-2.5-pro", resolveModel("gemini-pro", geminiModels))
	assert.Equal(t, "gemini-3-pro-preview", resolveModel("gemini-3-pro-preview", geminiModels))
}

func TestBuildGeminiSchema(t *testing.T) {
	def := map[string]any{
		"type":        "object",
		"description": "A quiz",
		"properties": map[string]any{
			"questions": map[string]any{
				"type":     "array",
				"minItems": 1,
				"maxItems": 10,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question": map[string]any{"type": "string"},
						"options":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "minItems": 4, "maxItems": 4},
						"answer":   map[string]any{"type": "string", "enum": []any{"a", "b", "c", "d"}},
					},
					"required": []any{"question", "options", "answer"},
				},
			},
		},
		"required": []any{"questions"},
	}

	schema := buildGeminiSchema(def)

	assert.EqualValues(t, "OBJECT", schema.Type)
	assert.Equal(t, "A quiz", schema.Description)
	assert.Equal(t, []string{"questions"}, schema.Required)

	qs := schema.Properties["questions"]
	require.NotNil(t, qs)
	assert.EqualValues(t, "ARRAY", qs.Type)
	require.NotNil(t, qs.MinItems)
	require.NotNil(t, qs.MaxItems)
	assert.EqualValues(t, 1, *qs.MinItems)
	assert.EqualValues(t, 10, *qs.MaxItems)

	item := qs.Items
	require.NotNil(t, item)
	assert.Len(t, item.Properties, 3)
	assert.Len(t, item.Required, 3)
	assert.Equal(t, []string{"a", "b", "c", "d"}, item.Properties["answer"].Enum)
	assert.EqualValues(t, 4, *item.Properties["options"].MinItems)
	assert.EqualValues(t, "STRING", item.Properties["options"].Items.Type)
}
