// Package conversation is the chat screen: the transcript of one thread,
// the input line and the lesson controls.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/tutorchat/internal/assessment"
	"github.com/abhisek/tutorchat/internal/chat"
	"github.com/abhisek/tutorchat/internal/curriculum"
	"github.com/abhisek/tutorchat/internal/progression"
	"github.com/abhisek/tutorchat/internal/router"
	"github.com/abhisek/tutorchat/internal/screen"
	attemptscreen "github.com/abhisek/tutorchat/internal/screens/attempt"
	"github.com/abhisek/tutorchat/internal/tutor"
	"github.com/abhisek/tutorchat/internal/ui/components"
	"github.com/abhisek/tutorchat/internal/ui/layout"
	"github.com/abhisek/tutorchat/internal/ui/theme"
)

// Options configures the chat screen.
type Options struct {
	// TypingDelay is the pause between words of a bot reply. Zero shows
	// replies at once.
	TypingDelay time.Duration
}

// typing is the animation state of one bot message.
type typing struct {
	id    string
	steps []tutor.Step
	n     int
	shown strings.Builder
}

// Screen implements screen.Screen for one chat thread.
type Screen struct {
	tutor    *tutor.Tutor
	opts     Options
	threadID string

	messages []chat.Message
	cur      *curriculum.Curriculum
	pending  *assessment.Trigger

	input   components.TextInput
	vp      viewport.Model
	spin    spinner.Model
	working tutor.Action
	typing  *typing
	notice  string
	loaded  bool

	width, height int
	dirty         bool
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)
var _ screen.StatusProvider = (*Screen)(nil)

// New creates the chat screen for threadID.
func New(t *tutor.Tutor, threadID string, opts Options) *Screen {
	return &Screen{
		tutor:    t,
		opts:     opts,
		threadID: threadID,
		input:    components.NewTextInput("Ask a question or name a subject to learn...", 0),
		vp:       viewport.New(),
		spin:     spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(lipgloss.NewStyle().Foreground(theme.Secondary))),
	}
}

func (s *Screen) Init() tea.Cmd {
	return tea.Batch(s.load(), s.input.Init())
}

func (s *Screen) Title() string {
	if th, ok := s.tutor.Chats().Thread(s.threadID); ok {
		return th.Title
	}
	return chat.DefaultTitle
}

func (s *Screen) Status() string {
	if s.cur == nil {
		return ""
	}
	return fmt.Sprintf("%s  %d/%d", s.cur.Subject, s.cur.Count(), s.cur.TotalSubtopics())
}

func (s *Screen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{{Key: "Enter", Description: "Send"}}
	if s.cur != nil {
		hints = append(hints,
			layout.KeyHint{Key: "^N", Description: "Next"},
			layout.KeyHint{Key: "^R", Description: "Redo"},
		)
	}
	if s.pending != nil {
		hints = append(hints,
			layout.KeyHint{Key: "^A", Description: "Take " + string(s.pending.Type)},
			layout.KeyHint{Key: "^L", Description: "Later"},
		)
	}
	return append(hints, layout.KeyHint{Key: "Esc", Description: "Back"})
}

// load reads the thread's transcript, curriculum and pending assessment.
func (s *Screen) load() tea.Cmd {
	t, id := s.tutor, s.threadID
	return func() tea.Msg {
		ctx := context.Background()
		msgs, err := t.Chats().Messages(ctx, id)
		if err != nil {
			return loadedMsg{Err: err}
		}
		c, err := t.Curriculum(ctx, id)
		if err != nil {
			return loadedMsg{Err: err}
		}
		p, err := t.Pending(ctx, id)
		if err != nil {
			return loadedMsg{Err: err}
		}
		return loadedMsg{Messages: msgs, Curriculum: c, Pending: p}
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		s.loaded = true
		if msg.Err != nil {
			s.notice = msg.Err.Error()
			return s, nil
		}
		s.messages, s.cur, s.pending = msg.Messages, msg.Curriculum, msg.Pending
		s.dirty = true
		return s, nil

	case replyMsg:
		return s.handleReply(msg)

	case deferredMsg:
		s.working = ""
		if msg.Err != nil {
			s.notice = describe(msg.Err)
			return s, nil
		}
		s.notice = "Assessment skipped. Press Ctrl+N to continue."
		return s, s.load()

	case attemptReadyMsg:
		s.working = ""
		if msg.Err != nil {
			s.notice = describe(msg.Err)
			return s, nil
		}
		next := attemptscreen.New(s.tutor, s.threadID, msg.Attempt)
		return s, func() tea.Msg { return router.PushScreenMsg{Screen: next} }

	case screen.FocusMsg:
		return s, s.load()

	case typeTickMsg:
		return s, s.advanceTyping(msg.ID)

	case spinner.TickMsg:
		if s.working == "" {
			return s, nil
		}
		var cmd tea.Cmd
		s.spin, cmd = s.spin.Update(msg)
		return s, cmd

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *Screen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "enter":
		text := strings.TrimSpace(s.input.Value())
		if text == "" {
			return s, nil
		}
		s.input.Reset()
		// Shown before the reply arrives; the reload replaces it.
		s.messages = append(s.messages, chat.NewMessage(chat.RoleUser, text))
		s.dirty = true
		return s, s.run(tutor.ActionSend, func(ctx context.Context) (*tutor.Reply, error) {
			return s.tutor.Send(ctx, s.threadID, text)
		})
	case "ctrl+n":
		return s, s.run(tutor.ActionNext, func(ctx context.Context) (*tutor.Reply, error) {
			return s.tutor.Next(ctx, s.threadID)
		})
	case "ctrl+r":
		return s, s.run(tutor.ActionRedo, func(ctx context.Context) (*tutor.Reply, error) {
			return s.tutor.Redo(ctx, s.threadID)
		})
	case "ctrl+l":
		t, id := s.tutor, s.threadID
		return s, func() tea.Msg {
			return deferredMsg{Err: t.DeferAssessment(context.Background(), id)}
		}
	case "ctrl+a":
		if s.working != "" {
			return s, nil
		}
		s.working = tutor.ActionAssessment
		s.notice = ""
		t, id := s.tutor, s.threadID
		return s, tea.Batch(s.spin.Tick, func() tea.Msg {
			at, err := t.StartAssessment(context.Background(), id)
			return attemptReadyMsg{Attempt: at, Err: err}
		})
	case "pgup", "pgdown", "up", "down":
		var cmd tea.Cmd
		s.vp, cmd = s.vp.Update(msg)
		return s, cmd
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

// run starts a tutor action in the background. Only one action runs
// from this screen at a time.
func (s *Screen) run(a tutor.Action, fn func(ctx context.Context) (*tutor.Reply, error)) tea.Cmd {
	if s.working != "" {
		s.notice = "Still working on the last request..."
		return nil
	}
	s.working = a
	s.notice = ""
	return tea.Batch(s.spin.Tick, func() tea.Msg {
		reply, err := fn(context.Background())
		return replyMsg{Action: a, Reply: reply, Err: err}
	})
}

func (s *Screen) handleReply(msg replyMsg) (screen.Screen, tea.Cmd) {
	s.working = ""
	if msg.Err != nil {
		if !errors.Is(msg.Err, tutor.ErrStale) {
			s.notice = describe(msg.Err)
		}
		return s, s.load()
	}
	if msg.Reply.Pending != nil && len(msg.Reply.Messages) == 0 {
		s.notice = fmt.Sprintf("Finish the %s first (Ctrl+A), or choose Later (Ctrl+L).", msg.Reply.Pending.Type)
	}
	var cmds []tea.Cmd
	cmds = append(cmds, s.load())
	for i := len(msg.Reply.Messages) - 1; i >= 0; i-- {
		if m := msg.Reply.Messages[i]; m.Role == chat.RoleBot {
			cmds = append(cmds, s.startTyping(m))
			break
		}
	}
	return s, tea.Batch(cmds...)
}

func (s *Screen) startTyping(m chat.Message) tea.Cmd {
	if s.opts.TypingDelay <= 0 {
		return nil
	}
	s.typing = &typing{id: m.ID, steps: tutor.Steps(m.Content)}
	return s.tickTyping(m.ID, 0)
}

func (s *Screen) tickTyping(id string, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return typeTickMsg{ID: id} })
}

func (s *Screen) advanceTyping(id string) tea.Cmd {
	ty := s.typing
	if ty == nil || ty.id != id {
		return nil
	}
	if ty.n >= len(ty.steps) {
		s.typing = nil
		s.dirty = true
		return nil
	}
	ty.shown.WriteString(ty.steps[ty.n].Text)
	ty.n++
	s.dirty = true

	d := s.opts.TypingDelay
	if ty.n < len(ty.steps) && ty.steps[ty.n].Pause {
		d *= 50
	}
	return s.tickTyping(id, d)
}

// describe turns a tutor error into a notice line.
func describe(err error) string {
	switch {
	case errors.Is(err, tutor.ErrReauth):
		return "The LLM provider rejected the API key. Set a valid key and restart."
	case errors.Is(err, tutor.ErrBusy):
		return "Still working on the last request..."
	case errors.Is(err, tutor.ErrNoCurriculum):
		return "Tell me what you would like to learn first."
	case errors.Is(err, tutor.ErrNoPending):
		return "No assessment is due right now."
	case errors.Is(err, progression.ErrNotStarted):
		return "Press Ctrl+N to start the first lesson."
	}
	return err.Error()
}
