package assessment

import "github.com/abhisek/tutorchat/internal/llm"

func stringArray() map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
}

// QuizSchema is the structured-output shape of a quiz.
var QuizSchema = &llm.Schema{
	Name:        "quiz",
	Description: "A multiple choice quiz",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question": map[string]any{"type": "string"},
						"options":  stringArray(),
						"correct": map[string]any{
							"type":        "string",
							"enum":        []any{"a", "b", "c", "d"},
							"description": "Letter of the correct option",
						},
						"explanation": map[string]any{"type": "string"},
					},
					"required":             []any{"question", "options", "correct", "explanation"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"questions"},
		"additionalProperties": false,
	},
}

// ExerciseSchema is the structured-output shape of a set of exercises.
var ExerciseSchema = &llm.Schema{
	Name:        "exercises",
	Description: "Practical exercises with hints, test cases and a sample solution",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"exercises": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title":          map[string]any{"type": "string"},
						"description":    map[string]any{"type": "string"},
						"hints":          stringArray(),
						"testCases":      stringArray(),
						"sampleSolution": map[string]any{"type": "string"},
					},
					"required":             []any{"title", "description", "hints", "testCases", "sampleSolution"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"exercises"},
		"additionalProperties": false,
	},
}

// ProjectSchema is the structured-output shape of a project brief.
var ProjectSchema = &llm.Schema{
	Name:        "project",
	Description: "A practical project brief",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"project": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title":        map[string]any{"type": "string"},
					"description":  map[string]any{"type": "string"},
					"requirements": stringArray(),
					"steps":        stringArray(),
					"deliverables": stringArray(),
					"resources":    stringArray(),
				},
				"required":             []any{"title", "description", "requirements", "steps", "deliverables", "resources"},
				"additionalProperties": false,
			},
		},
		"required":             []any{"project"},
		"additionalProperties": false,
	},
}

func schemaFor(t Type) *llm.Schema {
	switch t {
	case TypeQuiz:
		return QuizSchema
	case TypeExercise:
		return ExerciseSchema
	}
	return ProjectSchema
}
