// Package assessment decides when quizzes, exercises and projects
// interrupt a curriculum, generates their content and grades attempts.
package assessment

import (
	"fmt"
	"time"
)

// Type is an assessment kind.
type Type string

const (
	TypeQuiz     Type = "quiz"
	TypeExercise Type = "exercise"
	TypeProject  Type = "project"
)

// Types lists every kind in trigger priority order.
var Types = []Type{TypeQuiz, TypeExercise, TypeProject}

// ParseType validates s as a Type.
func ParseType(s string) (Type, error) {
	for _, t := range Types {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown assessment type %q", s)
}

// Question is one multiple choice quiz question. Options carry their
// letter prefix ("a) ..."); Correct is the letter of the right option.
type Question struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Correct     string   `json:"correct"`
	Explanation string   `json:"explanation"`
}

// Exercise is one practical exercise.
type Exercise struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Hints          []string `json:"hints"`
	TestCases      []string `json:"testCases"`
	SampleSolution string   `json:"sampleSolution"`
}

// Project is a capstone project brief.
type Project struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Requirements []string `json:"requirements"`
	Steps        []string `json:"steps"`
	Deliverables []string `json:"deliverables"`
	Resources    []string `json:"resources"`
}

// Assessment is generated content for one trigger. It is never stored
// inside the curriculum.
type Assessment struct {
	Type      Type       `json:"type"`
	N         int        `json:"n"`
	Topics    []string   `json:"coveredTopics"`
	Subtopics []string   `json:"coveredSubtopics"`
	Questions []Question `json:"questions,omitempty"`
	Exercises []Exercise `json:"exercises,omitempty"`
	Project   *Project   `json:"project,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Empty reports whether the content has nothing to attempt.
func (a *Assessment) Empty() bool {
	switch a.Type {
	case TypeQuiz:
		return len(a.Questions) == 0
	case TypeExercise:
		return len(a.Exercises) == 0
	case TypeProject:
		return a.Project == nil || (a.Project.Title == "" && a.Project.Description == "")
	}
	return true
}

// EmptyMessage is shown in place of empty content.
func (a *Assessment) EmptyMessage() string {
	switch a.Type {
	case TypeExercise:
		return "No exercises available, please try again."
	case TypeProject:
		return "No project available, please try again."
	}
	return "No questions available, please try again."
}
