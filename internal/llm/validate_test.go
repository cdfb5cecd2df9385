package llm

import (
	"encoding/json"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func planSchema() *Schema {
	return &Schema{
		Name: "test-plan",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title": map[string]any{"type": "string", "minLength": 1},
				"topics": map[string]any{
					"type":     "array",
					"minItems": 1,
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"name":      map[string]any{"type": "string"},
							"subtopics": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
						},
						"required": []any{"name", "subtopics"},
					},
				},
				"level": map[string]any{"type": "string", "enum": []any{"beginner", "intermediate", "advanced"}},
				"hours": map[string]any{"type": "integer", "minimum": 1},
			},
			"required": []any{"title", "topics"},
		},
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"title":"Go","topics":[{"name":"Basics","subtopics":["vars"]}],"level":"beginner","hours":4}`, false},
		{"optional fields omitted", `{"title":"Go","topics":[{"name":"Basics","subtopics":[]}]}`, false},
		{"missing required", `{"title":"Go"}`, true},
		{"empty topics", `{"title":"Go","topics":[]}`, true},
		{"nested required", `{"title":"Go","topics":[{"name":"Basics"}]}`, true},
		{"wrong item type", `{"title":"Go","topics":[{"name":"Basics","subtopics":[1,2]}]}`, true},
		{"bad enum", `{"title":"Go","topics":[{"name":"B","subtopics":[]}],"level":"expert"}`, true},
		{"fractional integer", `{"title":"Go","topics":[{"name":"B","subtopics":[]}],"hours":1.5}`, true},
		{"malformed", `{not json}`, true},
		{"empty", ``, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(planSchema(), json.RawMessage(tt.raw))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var inv *ErrInvalidResponse
			assert.ErrorAs(t, err, &inv)
		})
	}
}

func TestValidateResponse_NilSchema(t *testing.T) {
	assert.NoError(t, validateResponse(nil, json.RawMessage(`{"anything":"goes"}`)))
}

func TestSchemaSet_CachesByName(t *testing.T) {
	set := &schemaSet{byName: make(map[string]*jsonschema.Schema)}
	a, err := set.get(planSchema())
	require.NoError(t, err)
	b, err := set.get(planSchema())
	require.NoError(t, err)
	assert.Same(t, a, b)
}
