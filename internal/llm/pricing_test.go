package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupCost(t *testing.T) {
	tests := []struct {
		model string
		want  *ModelCost
	}{
		{"claude-haiku-4-5-20251001", &ModelCost{1, 5}},
		{"claude-opus-4-1-20250805", &ModelCost{15, 75}},
		{"claude-opus-4-5", &ModelCost{5, 25}},
		{"gpt-4o-mini", &ModelCost{0.15, 0.6}},
		{"gpt-4o-2024-08-06", &ModelCost{2.5, 10}},
		{"google/gemini-2.0-flash-exp", &ModelCost{0.1, 0.4}},
		{"gemini-2.0-flash-lite", &ModelCost{0.075, 0.3}},
		{"o3", &ModelCost{2, 8}},
		{"o30", nil},
		{"llama-3-8b", nil},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, LookupCost(tt.model))
		})
	}
}

func TestModelCost_Cost(t *testing.T) {
	c := LookupCost("claude-sonnet-4-5")
	require.NotNil(t, c)
	assert.InDelta(t, 0.003+0.015, c.Cost(1000, 1000), 1e-9)
}
