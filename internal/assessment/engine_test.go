package assessment

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/tutorchat/internal/llm"
)

func textEngine(mock *llm.MockProvider) *Engine {
	return NewEngine(mock, Config{MaxTokens: 2000, GradingMaxTokens: 2000}, nil)
}

func TestGenerate_QuizTextPrompt(t *testing.T) {
	mock := llm.NewMockProvider(llm.TextResponse(quizText))
	a, err := textEngine(mock).Generate(context.Background(), TypeQuiz, []string{"Basics"}, []string{"Goroutines", "Channels"})
	require.NoError(t, err)

	assert.Len(t, a.Questions, 2)
	assert.Equal(t, []string{"Goroutines", "Channels"}, a.Subtopics)
	assert.True(t, strings.HasPrefix(mock.LastPrompt(),
		"Create a multiple choice quiz with 5 questions covering these subtopics: Goroutines, Channels."))
	assert.Equal(t, 2000, mock.Calls[0].MaxTokens)
}

func TestGenerate_ExerciseAndProjectUseTopics(t *testing.T) {
	mock := llm.NewMockProvider(llm.TextResponse(exerciseText), llm.TextResponse("Title: P\nDescription: D"))
	e := textEngine(mock)

	_, err := e.Generate(context.Background(), TypeExercise, []string{"Basics", "Concurrency"}, []string{"x"})
	require.NoError(t, err)
	assert.Contains(t, mock.LastPrompt(), "exercises based on Basics, Concurrency.")

	p, err := e.Generate(context.Background(), TypeProject, []string{"Basics"}, nil)
	require.NoError(t, err)
	assert.Contains(t, mock.LastPrompt(), "covering these topics: Basics.")
	assert.Equal(t, "P", p.Project.Title)
}

func TestGenerate_StructuredFirstThenFallback(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Err: &llm.ErrRejected{StatusCode: 400, Err: errors.New("schema unsupported")}},
		llm.TextResponse(quizText),
	)
	e := NewEngine(mock, DefaultConfig(), nil)

	a, err := e.Generate(context.Background(), TypeQuiz, nil, []string{"Goroutines"})
	require.NoError(t, err)
	require.Equal(t, 2, mock.CallCount())
	assert.Same(t, QuizSchema, mock.Calls[0].Schema)
	assert.Nil(t, mock.Calls[1].Schema)
	assert.Len(t, a.Questions, 2)
}

func TestGenerate_AuthErrorDoesNotFallBack(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrAuth{StatusCode: 401}})
	_, err := NewEngine(mock, DefaultConfig(), nil).Generate(context.Background(), TypeQuiz, nil, []string{"x"})
	require.Error(t, err)
	assert.True(t, llm.IsAuth(err))
	assert.Equal(t, 1, mock.CallCount())
}

func TestGenerate_UnparseableContentIsEmpty(t *testing.T) {
	mock := llm.NewMockProvider(llm.TextResponse("Sorry, no."))
	a, err := textEngine(mock).Generate(context.Background(), TypeExercise, []string{"x"}, nil)
	require.NoError(t, err)
	assert.True(t, a.Empty())
	assert.Equal(t, "No exercises available, please try again.", a.EmptyMessage())
}

func quizAttempt() *Attempt {
	a := &Assessment{Type: TypeQuiz, N: 4}
	for _, c := range []string{"a", "b", "c", "d", "a"} {
		a.Questions = append(a.Questions, Question{Question: "q", Options: []string{"a) 1", "b) 2", "c) 3", "d) 4"}, Correct: c})
	}
	return NewAttempt(a)
}

func TestSubmit_QuizScoredLocally(t *testing.T) {
	mock := llm.NewMockProvider()
	at := quizAttempt()
	for i, l := range []string{"a", "b", "c", "a", "b"} {
		require.NoError(t, at.Answer(i, l))
	}

	require.NoError(t, textEngine(mock).Submit(context.Background(), at))
	assert.True(t, at.Submitted)
	assert.Equal(t, 3, at.Correct)
	assert.InDelta(t, 60.0, at.Score, 1e-9)
	assert.Zero(t, mock.CallCount())
	assert.ErrorIs(t, at.Answer(0, "d"), ErrSubmitted)
}

func TestSubmit_ExercisePerItemFeedback(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.Handler = func(req llm.Request) llm.MockResponse {
		if strings.Contains(req.Messages[0].Content, "Exercise Title: Broken") {
			return llm.MockResponse{Err: &llm.ErrProviderUnavailable{}}
		}
		return llm.TextResponse("Mark: 90/100")
	}
	at := NewAttempt(&Assessment{Type: TypeExercise, N: 8, Exercises: []Exercise{
		{Title: "Fine", TestCases: []string{"a", "b"}},
		{Title: "Broken"},
	}})
	require.NoError(t, at.SetSolution(0, "print(1)"))

	e := textEngine(mock)
	require.NoError(t, e.Submit(context.Background(), at))
	assert.Equal(t, "Mark: 90/100", at.Feedback[0])
	assert.Equal(t, GradingFailed, at.Feedback[1])
	assert.Equal(t, 2, mock.CallCount())

	for _, c := range mock.Calls {
		if strings.Contains(c.Messages[0].Content, "Exercise Title: Fine") {
			assert.Contains(t, c.Messages[0].Content, "Test Cases: a, b\nStudent's Solution:\nprint(1)")
			assert.Contains(t, c.Messages[0].Content, "mark out of 100")
		}
	}

	// Idempotent: a second submit makes no oracle calls.
	require.NoError(t, e.Submit(context.Background(), at))
	assert.Equal(t, 2, mock.CallCount())
}

func TestSubmit_ProjectGradedOnce(t *testing.T) {
	mock := llm.NewMockProvider(llm.TextResponse("Solid work. 85/100"))
	at := NewAttempt(&Assessment{Type: TypeProject, N: 16, Project: &Project{Title: "P", Requirements: []string{"r1", "r2"}}})
	require.NoError(t, at.SetProjectSolution("my repo"))

	e := textEngine(mock)
	require.NoError(t, e.Submit(context.Background(), at))
	require.NoError(t, e.Submit(context.Background(), at))

	assert.Equal(t, 1, mock.CallCount())
	assert.Equal(t, "Solid work. 85/100", at.ProjectFeedback)
	assert.Contains(t, mock.LastPrompt(), "Requirements: r1, r2")
}

func TestSubmit_AuthErrorLeavesAttemptOpen(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrAuth{StatusCode: 403}})
	at := NewAttempt(&Assessment{Type: TypeProject, Project: &Project{Title: "P"}})

	err := textEngine(mock).Submit(context.Background(), at)
	assert.True(t, llm.IsAuth(err))
	assert.False(t, at.Submitted)
}

func TestGrade_QuizIsLocal(t *testing.T) {
	_, err := textEngine(llm.NewMockProvider()).Grade(context.Background(), TypeQuiz, Question{}, "a")
	assert.Error(t, err)
}

func TestRetry_RegeneratesSameCoverage(t *testing.T) {
	mock := llm.NewMockProvider(llm.TextResponse(quizText))
	at := quizAttempt()
	at.Assessment.Subtopics = []string{"Goroutines"}
	require.NoError(t, at.Answer(0, "a"))

	next, err := textEngine(mock).Retry(context.Background(), at)
	require.NoError(t, err)
	assert.NotEqual(t, at.ID, next.ID)
	assert.Equal(t, 4, next.Assessment.N)
	assert.Empty(t, next.Answers)
	assert.False(t, next.Submitted)
	assert.Contains(t, mock.LastPrompt(), "covering these subtopics: Goroutines.")
}
