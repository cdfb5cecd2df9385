package assessment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmission_Apply(t *testing.T) {
	at := NewAttempt(&Assessment{
		Type:      TypeQuiz,
		Questions: []Question{{Question: "q1", Correct: "a"}, {Question: "q2", Correct: "b"}},
	})
	require.NoError(t, Submission{Answers: map[int]string{0: " A ", 1: "c"}}.Apply(at))
	assert.Equal(t, map[int]string{0: "a", 1: "c"}, at.Answers)
}

func TestSubmission_ApplyRejectsUnknownItems(t *testing.T) {
	at := NewAttempt(&Assessment{Type: TypeExercise, Exercises: []Exercise{{Title: "E1"}}})

	err := Submission{Solutions: map[int]string{0: "ok", 3: "nope"}}.Apply(at)
	assert.ErrorIs(t, err, ErrNoSuchItem)
	assert.Empty(t, at.Solutions, "nothing recorded when any item is invalid")

	assert.ErrorIs(t, Submission{Answers: map[int]string{0: "a"}}.Apply(at), ErrNoSuchItem)
	assert.ErrorIs(t, Submission{ProjectSolution: "repo"}.Apply(at), ErrNoSuchItem)
}

func TestSubmission_ApplyAfterSubmit(t *testing.T) {
	at := NewAttempt(&Assessment{Type: TypeProject, Project: &Project{Title: "P"}})
	require.NoError(t, Submission{ProjectSolution: "first"}.Apply(at))
	at.Submitted = true

	assert.ErrorIs(t, Submission{ProjectSolution: "second"}.Apply(at), ErrSubmitted)
	assert.Equal(t, "first", at.ProjectSolution)
}
