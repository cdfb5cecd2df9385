package attempt

import (
	"context"
	"strings"
	"testing"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/tutorchat/internal/assessment"
	"github.com/abhisek/tutorchat/internal/chat"
	"github.com/abhisek/tutorchat/internal/curriculum"
	"github.com/abhisek/tutorchat/internal/lessons"
	"github.com/abhisek/tutorchat/internal/llm"
	"github.com/abhisek/tutorchat/internal/store"
	"github.com/abhisek/tutorchat/internal/tutor"
)

func newTutor(t *testing.T) *tutor.Tutor {
	t.Helper()
	chats := chat.NewStore(store.NewMemoryKV(), nil)
	require.NoError(t, chats.Load(context.Background()))

	mock := llm.NewMockProvider()
	mock.Handler = func(llm.Request) llm.MockResponse { return llm.TextResponse("Solid work. 90/100") }
	gen := curriculum.NewGenerator(mock, curriculum.Config{Topics: 2, Subtopics: 2, MaxTokens: 3000}, nil)
	engine := assessment.NewEngine(mock, assessment.Config{MaxTokens: 2000, GradingMaxTokens: 2000}, nil)
	return tutor.New(chats, gen, lessons.NewService(mock, lessons.DefaultConfig()), engine, tutor.Config{}, nil)
}

func quizAttempt() *assessment.Attempt {
	return assessment.NewAttempt(&assessment.Assessment{
		Type:   assessment.TypeQuiz,
		N:      2,
		Topics: []string{"Basics"},
		Questions: []assessment.Question{
			{Question: "What is :=?", Options: []string{"a) declaration", "b) comparison"}, Correct: "a"},
			{Question: "Zero int?", Options: []string{"a) nil", "b) 0"}, Correct: "b"},
		},
	})
}

func exerciseAttempt() *assessment.Attempt {
	return assessment.NewAttempt(&assessment.Assessment{
		Type:   assessment.TypeExercise,
		N:      3,
		Topics: []string{"Basics"},
		Exercises: []assessment.Exercise{
			{Title: "Sum", Description: "Add two ints", Hints: []string{"use +"}},
			{Title: "Loop", Description: "Print 1..10"},
		},
	})
}

func press(r rune) tea.KeyPressMsg { return tea.KeyPressMsg{Code: r, Text: string(r)} }

// finish runs cmd, dropping spinner ticks, and delivers the result to s.
func finish(t *testing.T, s *Screen, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case nil, spinner.TickMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			_, next := s.Update(msg)
			queue = append(queue, next)
		}
	}
}

func TestQuiz_AnswerAdvancesAndSubmits(t *testing.T) {
	tu := newTutor(t)
	at := quizAttempt()
	s := New(tu, tu.Chats().Current(), at)
	assert.Equal(t, "Quiz", s.Title())

	s.Update(press('a'))
	assert.Equal(t, 1, s.item, "answering moves to the next question")
	s.Update(press('a'))
	assert.Equal(t, 1, s.item, "last question stays put")
	assert.Equal(t, map[int]string{0: "a", 1: "a"}, s.work.Answers)
	assert.Empty(t, at.Answers, "drafts stay on the screen until submit")

	_, cmd := s.Update(tea.KeyPressMsg{Code: 's', Mod: tea.ModCtrl})
	assert.True(t, s.busy)
	finish(t, s, cmd)

	assert.False(t, s.busy)
	assert.True(t, at.Submitted)
	assert.Equal(t, 1, at.Correct)
	assert.Equal(t, map[int]string{0: "a", 1: "a"}, at.Answers)
	assert.Contains(t, s.result, "1/2 correct")
	assert.Equal(t, 0, s.item)
	assert.Equal(t, 0, s.choice.Correct, "answers are revealed after submit")
}

func TestQuiz_ArrowsNavigateQuestions(t *testing.T) {
	tu := newTutor(t)
	s := New(tu, tu.Chats().Current(), quizAttempt())

	s.Update(tea.KeyPressMsg{Code: tea.KeyRight})
	assert.Equal(t, 1, s.item)
	s.Update(tea.KeyPressMsg{Code: tea.KeyRight})
	assert.Equal(t, 0, s.item, "navigation wraps")
	s.Update(tea.KeyPressMsg{Code: tea.KeyLeft})
	assert.Equal(t, 1, s.item)
}

func TestQuiz_AnswerKeyHiddenBeforeSubmit(t *testing.T) {
	tu := newTutor(t)
	s := New(tu, tu.Chats().Current(), quizAttempt())
	assert.Equal(t, -1, s.choice.Correct)
	assert.False(t, strings.Contains(s.View(80, 30), "correct"))
}

func TestExercise_EditorKeepsSolutions(t *testing.T) {
	tu := newTutor(t)
	at := exerciseAttempt()
	s := New(tu, tu.Chats().Current(), at)
	s.Init()
	assert.Equal(t, "Exercises", s.Title())

	s.editor.SetValue("return a + b")
	s.Update(tea.KeyPressMsg{Code: tea.KeyTab})
	assert.Equal(t, 1, s.item)
	assert.Equal(t, "return a + b", s.work.Solutions[0])
	assert.Empty(t, at.Solutions)
	assert.Empty(t, s.editor.Value())

	s.Update(tea.KeyPressMsg{Code: tea.KeyTab, Mod: tea.ModShift})
	assert.Equal(t, 0, s.item)
	assert.Equal(t, "return a + b", s.editor.Value())
}

func TestSubmitted_IgnoresSecondSubmit(t *testing.T) {
	tu := newTutor(t)
	at := quizAttempt()
	at.Submitted = true
	s := New(tu, tu.Chats().Current(), at)

	_, cmd := s.Update(tea.KeyPressMsg{Code: 's', Mod: tea.ModCtrl})
	assert.Nil(t, cmd)
	assert.False(t, s.busy)

	hints := s.KeyHints()
	require.Len(t, hints, 2)
	assert.Equal(t, "^R", hints[0].Key)
}

func TestDescribe(t *testing.T) {
	assert.Contains(t, describe(tutor.ErrReauth), "API key")
	assert.Contains(t, describe(tutor.ErrStale), "no longer active")
	assert.Contains(t, describe(tutor.ErrBusy), "Already submitting")
	assert.Contains(t, describe(assessment.ErrSubmitted), "try again")
}
