// Package welcome is the splash screen: the tagline types itself out
// under the banner, then a card shows where the learner left off.
package welcome

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/tutorchat/internal/chat"
	"github.com/abhisek/tutorchat/internal/router"
	"github.com/abhisek/tutorchat/internal/screen"
	"github.com/abhisek/tutorchat/internal/ui/components"
	"github.com/abhisek/tutorchat/internal/ui/theme"
)

const (
	tickInterval = 60 * time.Millisecond
	// cardDelay is how many ticks the card waits after the tagline.
	cardDelay = 5
)

// Tagline is typed out under the banner.
const Tagline = "Learn anything, one lesson at a time."

// Resume is where the learner left off in the current chat.
type Resume struct {
	Subject  string
	Count    int
	Total    int
	Progress float64
	Finished bool
	Chats    int
}

// ResumeOf summarizes the current chat in chats.
func ResumeOf(ctx context.Context, chats *chat.Store) (Resume, error) {
	r := Resume{Chats: len(chats.Threads())}
	c, err := chats.Curriculum(ctx, chats.Current())
	if err != nil || c == nil {
		return r, err
	}
	r.Subject, r.Count, r.Total = c.Subject, c.Count(), c.TotalSubtopics()
	r.Progress, r.Finished = c.Progress(), c.Finished
	return r, nil
}

type tickMsg time.Time

type resumeMsg struct {
	Resume Resume
	Err    error
}

// Screen types the tagline, shows the resume card and moves on to the
// next screen on any key.
type Screen struct {
	next   func() screen.Screen
	lookup func() (Resume, error)

	ticks  int
	resume *Resume
	done   bool
}

var _ screen.Screen = (*Screen)(nil)

// New creates the splash. lookup runs once in the background; next builds
// the screen that replaces the splash.
func New(next func() screen.Screen, lookup func() (Resume, error)) *Screen {
	return &Screen{next: next, lookup: lookup}
}

func (s *Screen) Title() string { return "" }

func (s *Screen) Init() tea.Cmd {
	lookup := s.lookup
	return tea.Batch(tick(), func() tea.Msg {
		r, err := lookup()
		return resumeMsg{Resume: r, Err: err}
	})
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// typed is how many runes of the tagline are visible.
func (s *Screen) typed() int {
	return min(s.ticks, len([]rune(Tagline)))
}

// settled reports whether the typing and the card delay are over.
func (s *Screen) settled() bool {
	return s.ticks >= len([]rune(Tagline))+cardDelay
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if s.settled() {
			return s, nil
		}
		s.ticks++
		return s, tick()

	case resumeMsg:
		// A failed lookup only hides the card.
		if msg.Err == nil {
			r := msg.Resume
			s.resume = &r
		}
		return s, nil

	case tea.KeyPressMsg:
		return s, s.leave()
	}
	return s, nil
}

func (s *Screen) leave() tea.Cmd {
	if s.done {
		return nil
	}
	s.done = true
	next := s.next()
	return func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
}

func (s *Screen) View(width, height int) string {
	sections := []string{RenderBanner(width), ""}

	line := string([]rune(Tagline)[:s.typed()])
	if !s.settled() {
		line += "▌"
	}
	sections = append(sections, lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(line))

	if s.settled() {
		if s.resume != nil {
			sections = append(sections, "", s.renderCard(min(width-4, 56)))
		}
		sections = append(sections, "", lipgloss.NewStyle().
			Foreground(theme.TextDim).
			Italic(true).
			Render("press any key to continue"))
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, strings.Join(sections, "\n"))
}

func (s *Screen) renderCard(width int) string {
	r := s.resume
	var body string
	switch {
	case r.Subject == "":
		body = lipgloss.NewStyle().Foreground(theme.TextDim).Render("Start by telling me what you want to learn.")
	case r.Finished:
		body = fmt.Sprintf("%s\n%s", theme.Correct.Render("Finished: "+r.Subject),
			components.Progress(fmt.Sprintf("%d/%d", r.Total, r.Total), 1, width-4))
	default:
		body = fmt.Sprintf("Continue %s\n%s", lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(r.Subject),
			components.Progress(fmt.Sprintf("%d/%d", r.Count, r.Total), r.Progress, width-4))
	}
	if r.Chats > 1 {
		body += "\n" + theme.Hint.Render(fmt.Sprintf("%d chats in history", r.Chats))
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Padding(0, 1).
		Width(width).
		Render(body)
}
