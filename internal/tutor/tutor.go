// Package tutor drives a conversation: it turns learner input and the
// Next, Redo and Later controls into curriculum, lesson and assessment
// work, and records the outcome in the chat store.
package tutor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/tutorchat/internal/assessment"
	"github.com/abhisek/tutorchat/internal/chat"
	"github.com/abhisek/tutorchat/internal/curriculum"
	"github.com/abhisek/tutorchat/internal/greeting"
	"github.com/abhisek/tutorchat/internal/lessons"
	"github.com/abhisek/tutorchat/internal/llm"
	"github.com/abhisek/tutorchat/internal/progression"
)

var (
	// ErrBusy is returned when the same action is already running for a thread.
	ErrBusy = errors.New("tutor: action already in progress")
	// ErrStale is returned when a thread stopped being current while its
	// oracle call was in flight. The result was discarded.
	ErrStale = errors.New("tutor: thread is no longer current")
	// ErrReauth is returned when the provider rejected the credentials.
	ErrReauth = errors.New("tutor: provider credentials rejected, re-authenticate")
	// ErrNoCurriculum is returned by controls used before a subject was chosen.
	ErrNoCurriculum = errors.New("tutor: no curriculum yet")
	// ErrNoPending is returned when no assessment is due.
	ErrNoPending = errors.New("tutor: no pending assessment")
	// ErrEmptyInput is returned for blank messages.
	ErrEmptyInput = errors.New("tutor: empty message")
	// ErrEmptyAssessment is returned when submitting content that has
	// nothing to attempt. The trigger stays pending.
	ErrEmptyAssessment = errors.New("tutor: assessment has no content")
)

// ErrorMessage is the bot message shown when an oracle call fails.
const ErrorMessage = "Sorry, I encountered an error. Please try again."

// Action names an operation guarded by a busy gate.
type Action string

const (
	ActionSend       Action = "send"
	ActionNext       Action = "next"
	ActionRedo       Action = "redo"
	ActionAssessment Action = "assessment"
	ActionSubmit     Action = "submit"
)

// Config holds the assessment thresholds. Empty thresholds use the
// default schedule.
type Config struct {
	QuizAt     []int
	ExerciseAt []int
	ProjectAt  []int
}

// Reply is what an operation added to the transcript.
type Reply struct {
	Messages []chat.Message `json:"messages"`
	// Pending is set when progression is blocked on an assessment.
	Pending    *assessment.Trigger    `json:"pending,omitempty"`
	Curriculum *curriculum.Curriculum `json:"curriculum,omitempty"`
}

type gateKey struct {
	thread string
	action Action
}

// Tutor orchestrates one learner's threads.
type Tutor struct {
	chats     *chat.Store
	curricula *curriculum.Generator
	lessons   *lessons.Service
	machine   *progression.Machine
	engine    *assessment.Engine
	cfg       Config
	logger    *zap.Logger

	// Now is the clock used for greetings.
	Now func() time.Time

	mu   sync.Mutex
	busy map[gateKey]bool
}

// New creates a Tutor. logger may be nil.
func New(chats *chat.Store, gen *curriculum.Generator, ls *lessons.Service, engine *assessment.Engine, cfg Config, logger *zap.Logger) *Tutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tutor{
		chats:     chats,
		curricula: gen,
		lessons:   ls,
		machine:   progression.NewMachine(ls),
		engine:    engine,
		cfg:       cfg,
		logger:    logger.Named("tutor"),
		Now:       time.Now,
		busy:      make(map[gateKey]bool),
	}
}

// Chats returns the underlying chat store.
func (t *Tutor) Chats() *chat.Store { return t.chats }

// acquire claims the (thread, action) gate. The returned func releases it.
func (t *Tutor) acquire(thread string, a Action) (func(), error) {
	k := gateKey{thread, a}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.busy[k] {
		return nil, ErrBusy
	}
	t.busy[k] = true
	return func() {
		t.mu.Lock()
		delete(t.busy, k)
		t.mu.Unlock()
	}, nil
}

// Busy reports whether action is running for thread.
func (t *Tutor) Busy(thread string, a Action) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.busy[gateKey{thread, a}]
}

// Policy is the assessment schedule for a curriculum of total subtopics.
func (t *Tutor) Policy(total int) assessment.Policy {
	if len(t.cfg.QuizAt) == 0 && len(t.cfg.ExerciseAt) == 0 && len(t.cfg.ProjectAt) == 0 {
		return assessment.DefaultPolicy(total)
	}
	return assessment.NewPolicy(t.cfg.QuizAt, t.cfg.ExerciseAt, t.cfg.ProjectAt, total)
}

// Send handles learner input: a greeting gets a canned reply, the first
// other message becomes the subject of a new curriculum, and later
// messages are answered in the context of the current lesson.
func (t *Tutor) Send(ctx context.Context, threadID, text string) (*Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}
	release, err := t.acquire(threadID, ActionSend)
	if err != nil {
		return nil, err
	}
	defer release()
	ctx = llm.WithThread(ctx, threadID)

	if err := t.chats.Append(ctx, threadID, chat.NewMessage(chat.RoleUser, text)); err != nil {
		return nil, err
	}

	if greeting.Is(text) {
		return t.reply(ctx, threadID, &Reply{}, chat.NewMessage(chat.RoleBot, greeting.Reply(t.Now())))
	}
	if _, err := t.chats.RefreshTitle(ctx, threadID); err != nil {
		return nil, err
	}

	c, err := t.chats.Curriculum(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		c, err = t.curricula.Generate(ctx, text)
		if err != nil {
			return t.failure(ctx, threadID, "curriculum", err)
		}
		if !t.chats.IsCurrent(threadID) {
			return nil, ErrStale
		}
		if err := t.chats.SaveCurriculum(ctx, threadID, c); err != nil {
			return nil, err
		}
		msg := chat.NewMessage(chat.RoleBot, curriculum.Introduction(c))
		msg.ShowControls = true
		return t.reply(ctx, threadID, &Reply{Curriculum: c}, msg)
	}

	answer, err := t.lessons.Answer(ctx, c.CurrentTopic(), c.CurrentSubtopic(), text)
	if err != nil {
		return t.failure(ctx, threadID, "answer", err)
	}
	if !t.chats.IsCurrent(threadID) {
		return nil, ErrStale
	}
	msg := chat.NewMessage(chat.RoleBot, answer)
	msg.ShowControls = true
	return t.reply(ctx, threadID, &Reply{Curriculum: c}, msg)
}

// Next moves to the next lesson. A due assessment is recorded as pending
// and blocks the move until it is submitted or deferred.
func (t *Tutor) Next(ctx context.Context, threadID string) (*Reply, error) {
	release, err := t.acquire(threadID, ActionNext)
	if err != nil {
		return nil, err
	}
	defer release()
	ctx = llm.WithThread(ctx, threadID)

	c, err := t.requireCurriculum(ctx, threadID)
	if err != nil {
		return nil, err
	}
	pending, err := t.chats.Pending(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return &Reply{Pending: pending, Curriculum: c}, nil
	}

	if c.State() == curriculum.InProgress {
		taken, err := t.chats.Taken(ctx, threadID)
		if err != nil {
			return nil, err
		}
		if tr, ok := t.Policy(c.TotalSubtopics()).Decide(c.Count(), taken); ok {
			if err := t.chats.SavePending(ctx, threadID, &tr); err != nil {
				return nil, err
			}
			t.logger.Info("assessment due", zap.String("chat", threadID), zap.String("trigger", tr.Key()))
			return t.reply(ctx, threadID, &Reply{Pending: &tr, Curriculum: c},
				chat.NewMessage(chat.RoleBot, dueMessage(tr)))
		}
	}

	commit := func(ctx context.Context, c *curriculum.Curriculum) error {
		return t.chats.SaveCurriculum(ctx, threadID, c)
	}
	res, err := t.machine.AdvanceAndCommit(ctx, c, commit)
	if err != nil {
		return t.failure(ctx, threadID, "lesson", err)
	}
	if !t.chats.IsCurrent(threadID) {
		return nil, ErrStale
	}
	msg := chat.NewMessage(chat.RoleBot, res.Message)
	msg.ShowControls = res.Lesson
	return t.reply(ctx, threadID, &Reply{Curriculum: c}, msg)
}

// Redo re-teaches the current lesson with different examples.
func (t *Tutor) Redo(ctx context.Context, threadID string) (*Reply, error) {
	release, err := t.acquire(threadID, ActionRedo)
	if err != nil {
		return nil, err
	}
	defer release()
	ctx = llm.WithThread(ctx, threadID)

	c, err := t.requireCurriculum(ctx, threadID)
	if err != nil {
		return nil, err
	}
	text, err := t.machine.Redo(ctx, c)
	if errors.Is(err, progression.ErrNotStarted) {
		return nil, err
	}
	if err != nil {
		return t.failure(ctx, threadID, "review", err)
	}
	if !t.chats.IsCurrent(threadID) {
		return nil, ErrStale
	}
	msg := chat.NewMessage(chat.RoleBot, text)
	msg.ShowControls = true
	return t.reply(ctx, threadID, &Reply{Curriculum: c}, msg)
}

// Pending returns the assessment the thread is blocked on, or nil.
func (t *Tutor) Pending(ctx context.Context, threadID string) (*assessment.Trigger, error) {
	return t.chats.Pending(ctx, threadID)
}

// Curriculum returns the thread's curriculum, or nil.
func (t *Tutor) Curriculum(ctx context.Context, threadID string) (*curriculum.Curriculum, error) {
	return t.chats.Curriculum(ctx, threadID)
}

// StartAssessment generates content for the pending assessment, covering
// every topic and subtopic reached so far.
func (t *Tutor) StartAssessment(ctx context.Context, threadID string) (*assessment.Attempt, error) {
	release, err := t.acquire(threadID, ActionAssessment)
	if err != nil {
		return nil, err
	}
	defer release()
	ctx = llm.WithThread(ctx, threadID)

	tr, c, err := t.pendingWithCurriculum(ctx, threadID)
	if err != nil {
		return nil, err
	}
	topics, subtopics := c.Covered()
	a, err := t.engine.Generate(ctx, tr.Type, topics, subtopics)
	if err != nil {
		return nil, t.oracleError(err)
	}
	if !t.chats.IsCurrent(threadID) {
		return nil, ErrStale
	}
	a.N = tr.N
	return assessment.NewAttempt(a), nil
}

// RetryAssessment discards an unsubmitted or submitted attempt and
// generates fresh content for the same trigger.
func (t *Tutor) RetryAssessment(ctx context.Context, threadID string, at *assessment.Attempt) (*assessment.Attempt, error) {
	release, err := t.acquire(threadID, ActionAssessment)
	if err != nil {
		return nil, err
	}
	defer release()
	ctx = llm.WithThread(ctx, threadID)

	next, err := t.engine.Retry(ctx, at)
	if err != nil {
		return nil, t.oracleError(err)
	}
	if !t.chats.IsCurrent(threadID) {
		return nil, ErrStale
	}
	return next, nil
}

// SubmitAssessment records work on at, grades it, marks its trigger taken
// and unblocks progression. Resubmitting a submitted attempt changes
// nothing. Work is only recorded while the submit gate is held, so a
// concurrent submission cannot change an attempt being graded.
func (t *Tutor) SubmitAssessment(ctx context.Context, threadID string, at *assessment.Attempt, work assessment.Submission) (*Reply, error) {
	release, err := t.acquire(threadID, ActionSubmit)
	if err != nil {
		return nil, err
	}
	defer release()
	ctx = llm.WithThread(ctx, threadID)

	if at.Submitted {
		return &Reply{}, nil
	}
	if at.Assessment == nil || at.Assessment.Empty() {
		return nil, ErrEmptyAssessment
	}
	if err := work.Apply(at); err != nil {
		return nil, err
	}
	if err := t.engine.Submit(ctx, at); err != nil {
		return nil, t.oracleError(err)
	}
	if err := t.resolve(ctx, threadID, at.Trigger()); err != nil {
		return nil, err
	}
	return t.reply(ctx, threadID, &Reply{}, chat.NewMessage(chat.RoleBot, submittedMessage(at)))
}

// DeferAssessment ("Later") dismisses the pending assessment. The trigger
// is consumed and will not fire again. It shares the submit gate so a
// dismissal cannot interleave with grading.
func (t *Tutor) DeferAssessment(ctx context.Context, threadID string) error {
	release, err := t.acquire(threadID, ActionSubmit)
	if err != nil {
		return err
	}
	defer release()

	pending, err := t.chats.Pending(ctx, threadID)
	if err != nil {
		return err
	}
	if pending == nil {
		return ErrNoPending
	}
	t.logger.Info("assessment deferred", zap.String("chat", threadID), zap.String("trigger", pending.Key()))
	return t.resolve(ctx, threadID, *pending)
}

// RequirementsFor reports which assessment types are due after count
// completed subtopics in threadID, given what has been taken there.
func (t *Tutor) RequirementsFor(ctx context.Context, threadID string, count int, fallbackTotal int) (map[assessment.Type]bool, error) {
	total := fallbackTotal
	c, err := t.chats.Curriculum(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if c != nil {
		total = c.TotalSubtopics()
	}
	taken, err := t.chats.Taken(ctx, threadID)
	if err != nil {
		return nil, err
	}
	return t.Policy(total).Requirements(count, taken), nil
}

func (t *Tutor) resolve(ctx context.Context, threadID string, tr assessment.Trigger) error {
	taken, err := t.chats.Taken(ctx, threadID)
	if err != nil {
		return err
	}
	taken.Mark(tr)
	if err := t.chats.SaveTaken(ctx, threadID, taken); err != nil {
		return err
	}
	pending, err := t.chats.Pending(ctx, threadID)
	if err != nil {
		return err
	}
	if pending != nil && *pending == tr {
		return t.chats.SavePending(ctx, threadID, nil)
	}
	return nil
}

func (t *Tutor) requireCurriculum(ctx context.Context, threadID string) (*curriculum.Curriculum, error) {
	c, err := t.chats.Curriculum(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrNoCurriculum
	}
	return c, nil
}

func (t *Tutor) pendingWithCurriculum(ctx context.Context, threadID string) (assessment.Trigger, *curriculum.Curriculum, error) {
	c, err := t.requireCurriculum(ctx, threadID)
	if err != nil {
		return assessment.Trigger{}, nil, err
	}
	tr, err := t.chats.Pending(ctx, threadID)
	if err != nil {
		return assessment.Trigger{}, nil, err
	}
	if tr == nil {
		return assessment.Trigger{}, nil, ErrNoPending
	}
	return *tr, c, nil
}

// reply appends msgs to the thread and returns r carrying them.
func (t *Tutor) reply(ctx context.Context, threadID string, r *Reply, msgs ...chat.Message) (*Reply, error) {
	if err := t.chats.Append(ctx, threadID, msgs...); err != nil {
		return nil, err
	}
	r.Messages = append(r.Messages, msgs...)
	return r, nil
}

// failure turns an oracle error into the error bot message. Auth errors,
// cancellation and stale threads are returned instead.
func (t *Tutor) failure(ctx context.Context, threadID, what string, err error) (*Reply, error) {
	if llm.IsAuth(err) {
		return nil, t.oracleError(err)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if !t.chats.IsCurrent(threadID) {
		return nil, ErrStale
	}
	t.logger.Warn("oracle call failed", zap.String("chat", threadID), zap.String("step", what), zap.Error(err))
	return t.reply(ctx, threadID, &Reply{}, chat.NewMessage(chat.RoleBot, ErrorMessage))
}

func (t *Tutor) oracleError(err error) error {
	if llm.IsAuth(err) {
		return fmt.Errorf("%w: %w", ErrReauth, err)
	}
	return err
}

func dueMessage(tr assessment.Trigger) string {
	article := "a"
	if tr.Type == assessment.TypeExercise {
		article = "an"
	}
	return fmt.Sprintf("Time for %s %s! You've covered %d subtopics. Start it now, or choose Later to keep going.",
		article, tr.Type, tr.N)
}

func submittedMessage(at *assessment.Attempt) string {
	a := at.Assessment
	switch a.Type {
	case assessment.TypeQuiz:
		return fmt.Sprintf("Quiz submitted: %d/%d correct (%.0f%%). Press Next to continue.", at.Correct, len(a.Questions), at.Score)
	case assessment.TypeExercise:
		return fmt.Sprintf("Exercises submitted. Feedback is ready for %d exercises. Press Next to continue.", len(a.Exercises))
	default:
		return "Project submitted. Feedback is ready. Press Next to continue."
	}
}
