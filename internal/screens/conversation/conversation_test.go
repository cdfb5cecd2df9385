package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/tutorchat/internal/assessment"
	"github.com/abhisek/tutorchat/internal/chat"
	"github.com/abhisek/tutorchat/internal/curriculum"
	"github.com/abhisek/tutorchat/internal/lessons"
	"github.com/abhisek/tutorchat/internal/llm"
	"github.com/abhisek/tutorchat/internal/progression"
	"github.com/abhisek/tutorchat/internal/router"
	attemptscreen "github.com/abhisek/tutorchat/internal/screens/attempt"
	"github.com/abhisek/tutorchat/internal/store"
	"github.com/abhisek/tutorchat/internal/tutor"
)

func oracle(req llm.Request) llm.MockResponse {
	p := req.Messages[len(req.Messages)-1].Content
	switch {
	case strings.HasPrefix(p, "Generate a comprehensive curriculum"):
		return llm.TextResponse("1. Basics\na. Variables\nb. Loops\n2. Types\na. Structs\nb. Interfaces")
	case strings.HasPrefix(p, "Create a multiple choice quiz"):
		return llm.TextResponse("Q1. What is :=?\na) short declaration (correct)\nb) comparison\nExplanation: it declares\nQ2. Zero value of int?\na) nil\nb) 0 (correct)")
	}
	return llm.TextResponse("Lesson text. Second sentence.")
}

func newTutor(t *testing.T, cfg tutor.Config) *tutor.Tutor {
	t.Helper()
	chats := chat.NewStore(store.NewMemoryKV(), nil)
	require.NoError(t, chats.Load(context.Background()))

	mock := llm.NewMockProvider()
	mock.Handler = oracle
	gen := curriculum.NewGenerator(mock, curriculum.Config{Topics: 2, Subtopics: 2, MaxTokens: 3000}, nil)
	ls := lessons.NewService(mock, lessons.DefaultConfig())
	engine := assessment.NewEngine(mock, assessment.Config{MaxTokens: 2000, GradingMaxTokens: 2000}, nil)
	return tutor.New(chats, gen, ls, engine, cfg, nil)
}

// pump runs cmd and feeds every message it produces back into s until
// nothing is left. Spinner ticks are dropped.
func pump(s *Screen, cmd tea.Cmd) []tea.Msg {
	var seen []tea.Msg
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
			seen = append(seen, msg)
			_, next := s.Update(msg)
			queue = append(queue, next)
		}
	}
	return seen
}

func ctrl(r rune) tea.KeyPressMsg { return tea.KeyPressMsg{Code: r, Mod: tea.ModCtrl} }

func send(s *Screen, text string) []tea.Msg {
	s.input.Model.SetValue(text)
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	return pump(s, cmd)
}

func TestConversation_LoadShowsIntro(t *testing.T) {
	tu := newTutor(t, tutor.Config{})
	s := New(tu, tu.Chats().Current(), Options{})
	pump(s, s.load())

	require.True(t, s.loaded)
	require.Len(t, s.messages, 1)
	assert.Equal(t, chat.RoleBot, s.messages[0].Role)
	assert.Empty(t, s.Status())
	assert.Equal(t, chat.DefaultTitle, s.Title())
}

func TestConversation_SubjectStartsCurriculum(t *testing.T) {
	tu := newTutor(t, tutor.Config{})
	s := New(tu, tu.Chats().Current(), Options{})
	pump(s, s.load())

	send(s, "I want to learn Go")

	require.NotNil(t, s.cur)
	assert.Equal(t, 4, s.cur.TotalSubtopics())
	assert.Empty(t, s.input.Value())
	assert.Empty(t, s.working)
	assert.Equal(t, chat.RoleBot, s.messages[len(s.messages)-1].Role)
	assert.Contains(t, s.Status(), "0/4")

	var keys []string
	for _, h := range s.KeyHints() {
		keys = append(keys, h.Key)
	}
	assert.Contains(t, keys, "^N")
}

func TestConversation_BlankInputIgnored(t *testing.T) {
	tu := newTutor(t, tutor.Config{})
	s := New(tu, tu.Chats().Current(), Options{})
	pump(s, s.load())

	assert.Empty(t, send(s, "   "))
	assert.Len(t, s.messages, 1)
}

func TestConversation_DueQuizOpensAttempt(t *testing.T) {
	tu := newTutor(t, tutor.Config{QuizAt: []int{1}})
	s := New(tu, tu.Chats().Current(), Options{})
	pump(s, s.load())
	send(s, "I want to learn Go")

	for i := 0; i < 4 && s.pending == nil; i++ {
		_, cmd := s.Update(ctrl('n'))
		pump(s, cmd)
	}
	require.NotNil(t, s.pending, "a quiz should fall due")
	assert.Equal(t, assessment.TypeQuiz, s.pending.Type)
	count := s.cur.Count()

	// Next stays blocked while the quiz is pending.
	_, cmd := s.Update(ctrl('n'))
	pump(s, cmd)
	assert.Equal(t, count, s.cur.Count())
	assert.Contains(t, s.notice, "Finish the quiz")

	_, cmd = s.Update(ctrl('a'))
	var pushed *router.PushScreenMsg
	for _, msg := range pump(s, cmd) {
		if p, ok := msg.(router.PushScreenMsg); ok {
			pushed = &p
		}
	}
	require.NotNil(t, pushed)
	assert.IsType(t, &attemptscreen.Screen{}, pushed.Screen)
}

func TestConversation_LaterClearsPending(t *testing.T) {
	tu := newTutor(t, tutor.Config{QuizAt: []int{1}})
	s := New(tu, tu.Chats().Current(), Options{})
	pump(s, s.load())
	send(s, "I want to learn Go")
	for i := 0; i < 4 && s.pending == nil; i++ {
		_, cmd := s.Update(ctrl('n'))
		pump(s, cmd)
	}
	require.NotNil(t, s.pending)

	_, cmd := s.Update(ctrl('l'))
	pump(s, cmd)
	assert.Nil(t, s.pending)
	assert.Contains(t, s.notice, "skipped")
}

func TestConversation_OneActionAtATime(t *testing.T) {
	tu := newTutor(t, tutor.Config{})
	s := New(tu, tu.Chats().Current(), Options{})
	s.working = tutor.ActionNext

	cmd := s.run(tutor.ActionRedo, func(context.Context) (*tutor.Reply, error) {
		t.Fatal("must not run while busy")
		return nil, nil
	})
	assert.Nil(t, cmd)
	assert.Contains(t, s.notice, "Still working")
}

func TestConversation_TypingAnimation(t *testing.T) {
	tu := newTutor(t, tutor.Config{})
	s := New(tu, tu.Chats().Current(), Options{TypingDelay: time.Millisecond})

	bot := chat.NewMessage(chat.RoleBot, "One two. Three four five six seven eight nine ten eleven twelve thirteen fourteen fifteen sixteen seventeen eighteen nineteen twenty.")
	s.Update(replyMsg{Action: tutor.ActionNext, Reply: &tutor.Reply{Messages: []chat.Message{bot}}})
	require.NotNil(t, s.typing)

	steps := len(s.typing.steps)
	for i := 0; i < steps; i++ {
		s.Update(typeTickMsg{ID: bot.ID})
	}
	assert.Equal(t, tutor.Display(bot.Content), s.typing.shown.String())

	s.Update(typeTickMsg{ID: bot.ID})
	assert.Nil(t, s.typing)
}

func TestConversation_StaleTickIgnored(t *testing.T) {
	tu := newTutor(t, tutor.Config{})
	s := New(tu, tu.Chats().Current(), Options{TypingDelay: time.Millisecond})
	s.typing = &typing{id: "a", steps: tutor.Steps("hello world")}

	_, cmd := s.Update(typeTickMsg{ID: "b"})
	assert.Nil(t, cmd)
	assert.Zero(t, s.typing.n)
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("wrap: %w", tutor.ErrReauth), "API key"},
		{tutor.ErrBusy, "Still working"},
		{tutor.ErrNoCurriculum, "what you would like to learn"},
		{tutor.ErrNoPending, "No assessment"},
		{progression.ErrNotStarted, "Ctrl+N"},
		{errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		assert.Contains(t, describe(tt.err), tt.want)
	}
}
