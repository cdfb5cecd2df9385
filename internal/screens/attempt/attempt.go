// Package attempt is the assessment screen: it shows a quiz, exercise set
// or project, collects the learner's work and shows the grading.
package attempt

import (
	"context"
	"errors"
	"maps"
	"strings"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textarea"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/tutorchat/internal/assessment"
	"github.com/abhisek/tutorchat/internal/screen"
	"github.com/abhisek/tutorchat/internal/tutor"
	"github.com/abhisek/tutorchat/internal/ui/components"
	"github.com/abhisek/tutorchat/internal/ui/layout"
	"github.com/abhisek/tutorchat/internal/ui/theme"
)

type submittedMsg struct {
	Reply *tutor.Reply
	Err   error
}

type retriedMsg struct {
	Attempt *assessment.Attempt
	Err     error
}

// Screen implements screen.Screen for one assessment attempt.
type Screen struct {
	tutor    *tutor.Tutor
	threadID string
	at       *assessment.Attempt
	// work holds drafts until they are submitted with the attempt.
	work assessment.Submission

	// item is the question or exercise on display.
	item   int
	choice components.MultiChoice
	editor textarea.Model
	spin   spinner.Model

	busy   bool
	result string
	errMsg string
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

// New creates the screen for at in threadID.
func New(t *tutor.Tutor, threadID string, at *assessment.Attempt) *Screen {
	s := &Screen{
		tutor:    t,
		threadID: threadID,
		spin:     spinner.New(spinner.WithSpinner(spinner.MiniDot)),
	}
	s.reset(at)
	return s
}

func (s *Screen) reset(at *assessment.Attempt) {
	s.at = at
	s.work = assessment.Submission{
		Answers:         cloneOrEmpty(at.Answers),
		Solutions:       cloneOrEmpty(at.Solutions),
		ProjectSolution: at.ProjectSolution,
	}
	s.item = 0
	s.result = ""
	s.errMsg = ""
	s.editor = textarea.New()
	s.editor.Placeholder = "Write your solution here..."
	s.editor.ShowLineNumbers = false
	s.editor.SetHeight(8)
	s.showItem()
}

func (s *Screen) Init() tea.Cmd {
	if s.at.Assessment.Type == assessment.TypeQuiz {
		return nil
	}
	return s.editor.Focus()
}

func (s *Screen) Title() string {
	a := s.at.Assessment
	switch a.Type {
	case assessment.TypeExercise:
		return "Exercises"
	case assessment.TypeProject:
		return "Project"
	}
	return "Quiz"
}

func (s *Screen) KeyHints() []layout.KeyHint {
	if s.at.Submitted || s.at.Assessment.Empty() {
		return []layout.KeyHint{
			{Key: "^R", Description: "Retry"},
			{Key: "Esc", Description: "Back to chat"},
		}
	}
	hints := []layout.KeyHint{}
	switch s.at.Assessment.Type {
	case assessment.TypeQuiz:
		hints = append(hints,
			layout.KeyHint{Key: "↑↓", Description: "Choose"},
			layout.KeyHint{Key: "Enter", Description: "Answer"},
			layout.KeyHint{Key: "←→", Description: "Question"},
		)
	case assessment.TypeExercise:
		hints = append(hints, layout.KeyHint{Key: "Tab", Description: "Next exercise"})
	}
	return append(hints,
		layout.KeyHint{Key: "^S", Description: "Submit"},
		layout.KeyHint{Key: "Esc", Description: "Later"},
	)
}

// items is the number of navigable questions or exercises.
func (s *Screen) items() int {
	a := s.at.Assessment
	switch a.Type {
	case assessment.TypeQuiz:
		return len(a.Questions)
	case assessment.TypeExercise:
		return len(a.Exercises)
	}
	return 1
}

// showItem loads the widgets for the current item from the attempt.
func (s *Screen) showItem() {
	a := s.at.Assessment
	switch a.Type {
	case assessment.TypeQuiz:
		if s.item >= len(a.Questions) {
			return
		}
		q := a.Questions[s.item]
		s.choice = components.NewMultiChoice(q.Question, q.Options)
		if letter, ok := s.recorded().Answers[s.item]; ok {
			s.choice.Select(letter)
		}
		if s.at.Submitted {
			s.choice.Reveal(q.Correct)
		}
	case assessment.TypeExercise:
		s.editor.SetValue(s.recorded().Solutions[s.item])
	case assessment.TypeProject:
		s.editor.SetValue(s.recorded().ProjectSolution)
	}
}

// recorded is the work on display: drafts until submission, then what
// was graded.
func (s *Screen) recorded() assessment.Submission {
	if s.at.Submitted {
		return assessment.Submission{Answers: s.at.Answers, Solutions: s.at.Solutions, ProjectSolution: s.at.ProjectSolution}
	}
	return s.work
}

// keep copies the editor into the drafts.
func (s *Screen) keep() {
	if s.at.Submitted {
		return
	}
	switch s.at.Assessment.Type {
	case assessment.TypeExercise:
		s.work.Solutions[s.item] = s.editor.Value()
	case assessment.TypeProject:
		s.work.ProjectSolution = s.editor.Value()
	}
}

func cloneOrEmpty(m map[int]string) map[int]string {
	if m == nil {
		return map[int]string{}
	}
	return maps.Clone(m)
}

func (s *Screen) move(delta int) {
	n := s.items()
	if n == 0 {
		return
	}
	s.keep()
	s.item = (s.item + delta + n) % n
	s.showItem()
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case submittedMsg:
		s.busy = false
		if msg.Err != nil {
			s.errMsg = describe(msg.Err)
			return s, nil
		}
		if n := len(msg.Reply.Messages); n > 0 {
			s.result = msg.Reply.Messages[n-1].Content
		}
		s.item = 0
		s.showItem()
		return s, nil

	case retriedMsg:
		s.busy = false
		if msg.Err != nil {
			s.errMsg = describe(msg.Err)
			return s, nil
		}
		s.reset(msg.Attempt)
		return s, s.Init()

	case spinner.TickMsg:
		if !s.busy {
			return s, nil
		}
		var cmd tea.Cmd
		s.spin, cmd = s.spin.Update(msg)
		return s, cmd

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if s.editing() {
		var cmd tea.Cmd
		s.editor, cmd = s.editor.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *Screen) editing() bool {
	return !s.at.Submitted && s.at.Assessment.Type != assessment.TypeQuiz
}

func (s *Screen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	if s.busy {
		return s, nil
	}
	key := msg.String()
	switch key {
	case "ctrl+s":
		return s, s.submit()
	case "ctrl+r":
		return s, s.retry()
	case "tab", "right":
		if key == "tab" || s.at.Assessment.Type == assessment.TypeQuiz || s.at.Submitted {
			s.move(1)
			return s, nil
		}
	case "shift+tab", "left":
		if key == "shift+tab" || s.at.Assessment.Type == assessment.TypeQuiz || s.at.Submitted {
			s.move(-1)
			return s, nil
		}
	}

	if s.at.Assessment.Type == assessment.TypeQuiz {
		if s.at.Submitted {
			return s, nil
		}
		var picked bool
		s.choice, picked = s.choice.Update(msg)
		if picked {
			s.work.Answers[s.item] = s.choice.Letter()
			if s.item < s.items()-1 {
				s.move(1)
			}
		}
		return s, nil
	}

	if s.editing() {
		var cmd tea.Cmd
		s.editor, cmd = s.editor.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *Screen) submit() tea.Cmd {
	if s.at.Submitted || s.at.Assessment.Empty() {
		return nil
	}
	s.keep()
	s.busy = true
	s.errMsg = ""
	t, id, at := s.tutor, s.threadID, s.at
	work := assessment.Submission{
		Answers:         maps.Clone(s.work.Answers),
		Solutions:       maps.Clone(s.work.Solutions),
		ProjectSolution: s.work.ProjectSolution,
	}
	return tea.Batch(s.spin.Tick, func() tea.Msg {
		reply, err := t.SubmitAssessment(context.Background(), id, at, work)
		return submittedMsg{Reply: reply, Err: err}
	})
}

func (s *Screen) retry() tea.Cmd {
	s.busy = true
	s.errMsg = ""
	t, id, at := s.tutor, s.threadID, s.at
	return tea.Batch(s.spin.Tick, func() tea.Msg {
		next, err := t.RetryAssessment(context.Background(), id, at)
		return retriedMsg{Attempt: next, Err: err}
	})
}

func describe(err error) string {
	switch {
	case errors.Is(err, tutor.ErrReauth):
		return "The LLM provider rejected the API key. Set a valid key and restart."
	case errors.Is(err, tutor.ErrStale):
		return "This chat is no longer active."
	case errors.Is(err, tutor.ErrBusy):
		return "Already submitting, please wait."
	}
	return "Sorry, I encountered an error. Please try again."
}

func (s *Screen) View(width, height int) string {
	a := s.at.Assessment
	s.editor.SetWidth(min(width-4, 90))

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).
		Render("  Covers: " + strings.Join(a.Topics, ", ")))
	b.WriteString("\n\n")

	switch {
	case a.Empty():
		b.WriteString(theme.Notice.Render("  " + a.EmptyMessage()))
	case a.Type == assessment.TypeQuiz:
		b.WriteString(s.renderQuiz(width))
	case a.Type == assessment.TypeExercise:
		b.WriteString(s.renderExercise(width))
	default:
		b.WriteString(s.renderProject(width))
	}

	b.WriteString("\n\n")
	switch {
	case s.busy:
		b.WriteString("  " + s.spin.View() + " Working...")
	case s.errMsg != "":
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Error).Render("  " + s.errMsg))
	case s.result != "":
		b.WriteString(theme.Correct.Render("  " + s.result))
	}
	return b.String()
}
