package tutor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/tutorchat/internal/assessment"
	"github.com/abhisek/tutorchat/internal/chat"
	"github.com/abhisek/tutorchat/internal/curriculum"
	"github.com/abhisek/tutorchat/internal/lessons"
	"github.com/abhisek/tutorchat/internal/llm"
	"github.com/abhisek/tutorchat/internal/progression"
	"github.com/abhisek/tutorchat/internal/store"
)

const outline2x2 = "1. Alpha\na. A1\nb. A2\n2. Beta\na. B1\nb. B2"

const quiz = `Q1. First?
a) yes (correct)
b) no
Explanation: because
Q2. Second?
a) yes
b) no (correct)`

func lastPrompt(req llm.Request) string {
	return req.Messages[len(req.Messages)-1].Content
}

// oracle answers by prompt kind.
func oracle(req llm.Request) llm.MockResponse {
	p := lastPrompt(req)
	switch {
	case strings.HasPrefix(p, "Generate a comprehensive curriculum"):
		return llm.TextResponse(outline2x2)
	case strings.HasPrefix(p, "Create a multiple choice quiz"):
		return llm.TextResponse(quiz)
	case strings.HasPrefix(p, "Create a real world problem-practical project"):
		return llm.TextResponse("Title: Capstone\nDescription: Build it\nRequirements:\n- works")
	case strings.HasPrefix(p, "Evaluate"):
		return llm.TextResponse("Good job. 80/100")
	}
	return llm.TextResponse("lesson body")
}

type fixture struct {
	tutor *Tutor
	mock  *llm.MockProvider
	chats *chat.Store
	kv    *store.MemoryKV
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	kv := store.NewMemoryKV()
	chats := chat.NewStore(kv, nil)
	require.NoError(t, chats.Load(context.Background()))

	mock := llm.NewMockProvider()
	mock.Handler = oracle
	gen := curriculum.NewGenerator(mock, curriculum.Config{Topics: 2, Subtopics: 2, MaxTokens: 3000}, nil)
	ls := lessons.NewService(mock, lessons.DefaultConfig())
	engine := assessment.NewEngine(mock, assessment.Config{MaxTokens: 2000, GradingMaxTokens: 2000}, nil)

	tu := New(chats, gen, ls, engine, cfg, nil)
	tu.Now = func() time.Time { return time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC) }
	return &fixture{tutor: tu, mock: mock, chats: chats, kv: kv}
}

// smallSchedule fires a quiz after 2 subtopics and a project after 4.
var smallSchedule = Config{QuizAt: []int{2}, ProjectAt: []int{4}}

func TestSend_GreetingMakesNoOracleCall(t *testing.T) {
	f := newFixture(t, Config{})
	id := f.chats.Current()

	r, err := f.tutor.Send(context.Background(), id, "  Hello there ")
	require.NoError(t, err)
	require.Len(t, r.Messages, 1)
	assert.True(t, strings.HasPrefix(r.Messages[0].Content, "Good morning!"))
	assert.False(t, r.Messages[0].ShowControls)
	assert.Zero(t, f.mock.CallCount())

	th, _ := f.chats.Thread(id)
	assert.Equal(t, chat.DefaultTitle, th.Title)
}

func TestSend_FirstSubjectGeneratesCurriculum(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	id := f.chats.Current()

	r, err := f.tutor.Send(ctx, id, "Distributed systems for beginners")
	require.NoError(t, err)
	require.NotNil(t, r.Curriculum)
	assert.Equal(t, curriculum.NotStarted, r.Curriculum.State())
	assert.True(t, r.Messages[0].ShowControls)
	assert.Contains(t, r.Messages[0].Content, "1. Alpha")

	c, err := f.chats.Curriculum(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "Beta"}, c.Topics)

	th, _ := f.chats.Thread(id)
	assert.Equal(t, "Distributed systems for beginn...", th.Title)

	// Later input is answered in context, not as a new subject.
	r, err = f.tutor.Send(ctx, id, "what is a quorum?")
	require.NoError(t, err)
	assert.Equal(t, "lesson body", r.Messages[0].Content)
	assert.True(t, strings.HasPrefix(f.mock.LastPrompt(), "Context: We are discussing Alpha, specifically A1."))
}

func TestSend_ParseFailureShowsErrorMessage(t *testing.T) {
	f := newFixture(t, Config{})
	f.mock.Handler = func(llm.Request) llm.MockResponse { return llm.TextResponse("I'd rather not.") }
	ctx := context.Background()
	id := f.chats.Current()

	r, err := f.tutor.Send(ctx, id, "Rust")
	require.NoError(t, err)
	assert.Equal(t, ErrorMessage, r.Messages[0].Content)
	c, err := f.chats.Curriculum(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestSend_AuthErrorAsksForReauth(t *testing.T) {
	f := newFixture(t, Config{})
	f.mock.Handler = func(llm.Request) llm.MockResponse {
		return llm.MockResponse{Err: &llm.ErrAuth{StatusCode: 401, Err: errors.New("bad key")}}
	}
	_, err := f.tutor.Send(context.Background(), f.chats.Current(), "Rust")
	assert.ErrorIs(t, err, ErrReauth)
	assert.True(t, llm.IsAuth(err))
}

func TestNext_FullWalkWithAssessments(t *testing.T) {
	f := newFixture(t, smallSchedule)
	ctx := context.Background()
	id := f.chats.Current()

	_, err := f.tutor.Send(ctx, id, "Go")
	require.NoError(t, err)

	next := func() *Reply {
		t.Helper()
		r, err := f.tutor.Next(ctx, id)
		require.NoError(t, err)
		return r
	}

	r := next()
	assert.Equal(t, 1, r.Curriculum.Count())
	assert.Contains(t, r.Messages[0].Content, "Topic: Alpha\nSubtopic: A1")
	r = next()
	assert.Equal(t, 2, r.Curriculum.Count())

	// Quiz due at 2: progression blocks.
	r = next()
	require.NotNil(t, r.Pending)
	assert.Equal(t, assessment.Trigger{Type: assessment.TypeQuiz, N: 2}, *r.Pending)
	assert.Equal(t, 2, r.Curriculum.Count())
	assert.Contains(t, r.Messages[0].Content, "Time for a quiz!")

	r = next()
	require.NotNil(t, r.Pending)
	assert.Empty(t, r.Messages, "a repeated Next does not repeat the notice")

	at, err := f.tutor.StartAssessment(ctx, id)
	require.NoError(t, err)
	require.Len(t, at.Assessment.Questions, 2)
	assert.Equal(t, 2, at.Assessment.N)
	assert.Contains(t, f.mock.LastPrompt(), "covering these subtopics: A1, A2.")
	r, err = f.tutor.SubmitAssessment(ctx, id, at, assessment.Submission{Answers: map[int]string{0: "a", 1: "a"}})
	require.NoError(t, err)
	assert.Equal(t, "Quiz submitted: 1/2 correct (50%). Press Next to continue.", r.Messages[0].Content)

	taken, err := f.chats.Taken(ctx, id)
	require.NoError(t, err)
	assert.True(t, taken["quiz-2"])
	pending, err := f.chats.Pending(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, pending)

	r = next()
	assert.Equal(t, 3, r.Curriculum.Count())
	r = next()
	assert.Equal(t, 4, r.Curriculum.Count())

	// Project due at the end; defer it.
	r = next()
	require.NotNil(t, r.Pending)
	assert.Equal(t, assessment.TypeProject, r.Pending.Type)
	require.NoError(t, f.tutor.DeferAssessment(ctx, id))
	assert.ErrorIs(t, f.tutor.DeferAssessment(ctx, id), ErrNoPending)

	r = next()
	assert.Equal(t, progression.CompletionMessage, r.Messages[0].Content)
	assert.False(t, r.Messages[0].ShowControls)
	assert.Equal(t, curriculum.Complete, r.Curriculum.State())

	// 4 subtopics + 1 step to completion, and the project never re-fires.
	taken, err = f.chats.Taken(ctx, id)
	require.NoError(t, err)
	assert.True(t, taken["project-4"])
}

func TestNext_SubmitIsIdempotent(t *testing.T) {
	f := newFixture(t, smallSchedule)
	ctx := context.Background()
	id := f.chats.Current()
	_, err := f.tutor.Send(ctx, id, "Go")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := f.tutor.Next(ctx, id)
		require.NoError(t, err)
	}

	at, err := f.tutor.StartAssessment(ctx, id)
	require.NoError(t, err)
	_, err = f.tutor.SubmitAssessment(ctx, id, at, assessment.Submission{})
	require.NoError(t, err)
	calls := f.mock.CallCount()
	msgs, _ := f.chats.Messages(ctx, id)

	r, err := f.tutor.SubmitAssessment(ctx, id, at, assessment.Submission{})
	require.NoError(t, err)
	assert.Empty(t, r.Messages)
	assert.Equal(t, calls, f.mock.CallCount())
	again, _ := f.chats.Messages(ctx, id)
	assert.Len(t, again, len(msgs))
}

func TestNext_LessonFailureCommitsCursor(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	id := f.chats.Current()
	_, err := f.tutor.Send(ctx, id, "Go")
	require.NoError(t, err)

	f.mock.Handler = func(llm.Request) llm.MockResponse {
		return llm.MockResponse{Err: &llm.ErrProviderUnavailable{}}
	}
	r, err := f.tutor.Next(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, ErrorMessage, r.Messages[0].Content)

	c, err := f.chats.Curriculum(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, curriculum.InProgress, c.State())
	assert.Equal(t, 1, c.Count())
}

func TestNext_WithoutCurriculum(t *testing.T) {
	f := newFixture(t, Config{})
	_, err := f.tutor.Next(context.Background(), f.chats.Current())
	assert.ErrorIs(t, err, ErrNoCurriculum)
}

func TestRedo_DoesNotMoveCursor(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	id := f.chats.Current()
	_, err := f.tutor.Send(ctx, id, "Go")
	require.NoError(t, err)

	_, err = f.tutor.Redo(ctx, id)
	assert.ErrorIs(t, err, progression.ErrNotStarted)

	_, err = f.tutor.Next(ctx, id)
	require.NoError(t, err)
	before, _ := f.chats.Curriculum(ctx, id)

	r, err := f.tutor.Redo(ctx, id)
	require.NoError(t, err)
	assert.Contains(t, r.Messages[0].Content, "Let's review with different examples")

	after, _ := f.chats.Curriculum(ctx, id)
	assert.Equal(t, before.Count(), after.Count())
	assert.Equal(t, before.Completed, after.Completed)
}

func TestSend_BusyGate(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	id := f.chats.Current()

	entered := make(chan struct{})
	proceed := make(chan struct{})
	f.mock.Handler = func(req llm.Request) llm.MockResponse {
		close(entered)
		<-proceed
		return oracle(req)
	}

	done := make(chan error, 1)
	go func() {
		_, err := f.tutor.Send(ctx, id, "Go")
		done <- err
	}()
	<-entered

	assert.True(t, f.tutor.Busy(id, ActionSend))
	_, err := f.tutor.Send(ctx, id, "Python")
	assert.ErrorIs(t, err, ErrBusy)

	close(proceed)
	require.NoError(t, <-done)
	assert.False(t, f.tutor.Busy(id, ActionSend))
	assert.Equal(t, 1, f.mock.CallCount())
}

func TestSend_StaleResponseDiscarded(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	id := f.chats.Current()

	f.mock.Handler = func(req llm.Request) llm.MockResponse {
		// The learner opens another thread while the oracle is working.
		_, err := f.chats.Create(ctx)
		require.NoError(t, err)
		return oracle(req)
	}

	_, err := f.tutor.Send(ctx, id, "Go")
	assert.ErrorIs(t, err, ErrStale)

	c, err := f.chats.Curriculum(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, c)
	msgs, err := f.chats.Messages(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, chat.RoleUser, msgs[len(msgs)-1].Role)
}

func TestRequirementsFor(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	id := f.chats.Current()

	req, err := f.tutor.RequirementsFor(ctx, id, 16, 32)
	require.NoError(t, err)
	assert.Equal(t, map[assessment.Type]bool{
		assessment.TypeQuiz: false, assessment.TypeExercise: true, assessment.TypeProject: true,
	}, req)

	require.NoError(t, f.chats.SaveTaken(ctx, id, assessment.TakenLog{"exercise-16": true}))
	req, err = f.tutor.RequirementsFor(ctx, id, 16, 32)
	require.NoError(t, err)
	assert.False(t, req[assessment.TypeExercise])
	assert.True(t, req[assessment.TypeProject])
}

// blockedOnAssessment walks a fresh thread until its first assessment is
// due and starts it.
func blockedOnAssessment(t *testing.T, f *fixture) (string, *assessment.Attempt) {
	t.Helper()
	ctx := context.Background()
	id := f.chats.Current()
	_, err := f.tutor.Send(ctx, id, "Go")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := f.tutor.Next(ctx, id)
		require.NoError(t, err)
	}
	at, err := f.tutor.StartAssessment(ctx, id)
	require.NoError(t, err)
	return id, at
}

func TestSubmitAssessment_EmptyContentKeepsPending(t *testing.T) {
	f := newFixture(t, smallSchedule)
	ctx := context.Background()
	f.mock.Handler = func(req llm.Request) llm.MockResponse {
		if strings.HasPrefix(lastPrompt(req), "Create a multiple choice quiz") {
			return llm.TextResponse("Sorry, I cannot produce a quiz right now.")
		}
		return oracle(req)
	}
	id, at := blockedOnAssessment(t, f)
	require.True(t, at.Assessment.Empty())

	_, err := f.tutor.SubmitAssessment(ctx, id, at, assessment.Submission{})
	assert.ErrorIs(t, err, ErrEmptyAssessment)
	assert.False(t, at.Submitted)

	pending, err := f.chats.Pending(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, assessment.Trigger{Type: assessment.TypeQuiz, N: 2}, *pending)
	taken, err := f.chats.Taken(ctx, id)
	require.NoError(t, err)
	assert.False(t, taken["quiz-2"])
}

func TestSubmitAssessment_InvalidWorkRecordsNothing(t *testing.T) {
	f := newFixture(t, smallSchedule)
	id, at := blockedOnAssessment(t, f)

	_, err := f.tutor.SubmitAssessment(context.Background(), id, at, assessment.Submission{Answers: map[int]string{7: "a"}})
	assert.ErrorIs(t, err, assessment.ErrNoSuchItem)
	assert.False(t, at.Submitted)
	assert.Empty(t, at.Answers)
}

func TestSubmitAssessment_GateCoversWorkAndDefer(t *testing.T) {
	f := newFixture(t, Config{ProjectAt: []int{2}})
	ctx := context.Background()
	id, at := blockedOnAssessment(t, f)
	require.Equal(t, assessment.TypeProject, at.Assessment.Type)

	entered := make(chan struct{})
	proceed := make(chan struct{})
	f.mock.Handler = func(req llm.Request) llm.MockResponse {
		if strings.HasPrefix(lastPrompt(req), "Evaluate") {
			close(entered)
			<-proceed
		}
		return oracle(req)
	}

	done := make(chan error, 1)
	go func() {
		_, err := f.tutor.SubmitAssessment(ctx, id, at, assessment.Submission{ProjectSolution: "first"})
		done <- err
	}()
	<-entered

	_, err := f.tutor.SubmitAssessment(ctx, id, at, assessment.Submission{ProjectSolution: "second"})
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, f.tutor.DeferAssessment(ctx, id), ErrBusy)

	close(proceed)
	require.NoError(t, <-done)
	assert.True(t, at.Submitted)
	assert.Equal(t, "first", at.ProjectSolution)
	assert.Equal(t, "Good job. 80/100", at.ProjectFeedback)

	r, err := f.tutor.SubmitAssessment(ctx, id, at, assessment.Submission{ProjectSolution: "third"})
	require.NoError(t, err)
	assert.Empty(t, r.Messages)
	assert.Equal(t, "first", at.ProjectSolution)
}
