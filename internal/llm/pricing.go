package llm

import "strings"

// ModelCost is USD per million tokens.
type ModelCost struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// Cost returns the USD cost of a call with the given token counts.
func (c ModelCost) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)*c.InputPerMTok/1_000_000 +
		float64(outputTokens)*c.OutputPerMTok/1_000_000
}

type familyCost struct {
	prefix string
	cost   ModelCost
}

// familyCosts is matched by longest prefix, so dated snapshots
// ("claude-sonnet-4-5-20250929") resolve to their family.
var familyCosts = []familyCost{
	{"claude-3-haiku", ModelCost{0.25, 1.25}},
	{"claude-3-5-haiku", ModelCost{0.8, 4}},
	{"claude-haiku-4", ModelCost{1, 5}},
	{"claude-3-5-sonnet", ModelCost{3, 15}},
	{"claude-3-7-sonnet", ModelCost{3, 15}},
	{"claude-sonnet-4", ModelCost{3, 15}},
	{"claude-3-opus", ModelCost{15, 75}},
	{"claude-opus-4", ModelCost{15, 75}},
	{"claude-opus-4-5", ModelCost{5, 25}},
	{"claude-opus-4-6", ModelCost{5, 25}},

	{"gpt-4o", ModelCost{2.5, 10}},
	{"gpt-4o-mini", ModelCost{0.15, 0.6}},
	{"gpt-4.1", ModelCost{2, 8}},
	{"gpt-4.1-mini", ModelCost{0.4, 1.6}},
	{"gpt-4.1-nano", ModelCost{0.1, 0.4}},
	{"gpt-5", ModelCost{1.25, 10}},
	{"gpt-5-mini", ModelCost{0.25, 2}},
	{"gpt-5-nano", ModelCost{0.05, 0.4}},
	{"gpt-5.2", ModelCost{1.75, 14}},
	{"o3", ModelCost{2, 8}},
	{"o3-mini", ModelCost{1.1, 4.4}},
	{"o4-mini", ModelCost{1.1, 4.4}},

	{"gemini-1.5-flash", ModelCost{0.075, 0.3}},
	{"gemini-1.5-pro", ModelCost{1.25, 5}},
	{"gemini-2.0-flash", ModelCost{0.1, 0.4}},
	{"gemini-2.0-flash-lite", ModelCost{0.075, 0.3}},
	{"gemini-2.5-flash", ModelCost{0.3, 2.5}},
	{"gemini-2.5-flash-lite", ModelCost{0.1, 0.4}},
	{"gemini-2.5-pro", ModelCost{1.25, 10}},
	{"gemini-3-flash", ModelCost{0.5, 3}},
	{"gemini-3-pro", ModelCost{2, 12}},
}

// LookupCost returns pricing for a model ID, or nil if no family matches.
// OpenRouter-style vendor prefixes ("google/...") are ignored.
func LookupCost(modelID string) *ModelCost {
	id := strings.ToLower(modelID)
	if i := strings.LastIndexByte(id, '/'); i >= 0 {
		id = id[i+1:]
	}

	var best *familyCost
	for i := range familyCosts {
		f := &familyCosts[i]
		if !strings.HasPrefix(id, f.prefix) {
			continue
		}
		// Prefix must end on a segment boundary: "o3" must not match "o30".
		if rest := id[len(f.prefix):]; rest != "" && rest[0] != '-' && rest[0] != ':' {
			continue
		}
		if best == nil || len(f.prefix) > len(best.prefix) {
			best = f
		}
	}
	if best == nil {
		return nil
	}
	c := best.cost
	return &c
}
