// Package home is the start menu.
package home

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/tutorchat/internal/assessment"
	"github.com/abhisek/tutorchat/internal/router"
	"github.com/abhisek/tutorchat/internal/screen"
	"github.com/abhisek/tutorchat/internal/screens/conversation"
	"github.com/abhisek/tutorchat/internal/screens/threads"
	"github.com/abhisek/tutorchat/internal/tutor"
	"github.com/abhisek/tutorchat/internal/ui/components"
	"github.com/abhisek/tutorchat/internal/ui/theme"
)

// overview is what the home screen shows about the current chat.
type overview struct {
	Title    string
	Subject  string
	Count    int
	Total    int
	Progress float64
	Pending  *assessment.Trigger
	Chats    int
	Err      error
}

type newChatMsg struct {
	ID  string
	Err error
}

// Screen is the home menu: Continue, New chat, Chats, Quit.
type Screen struct {
	tutor    *tutor.Tutor
	opts     conversation.Options
	menu     components.Menu
	overview overview
}

var _ screen.Screen = (*Screen)(nil)

// New creates the home screen.
func New(t *tutor.Tutor, opts conversation.Options) *Screen {
	s := &Screen{tutor: t, opts: opts}
	s.menu = components.NewMenu([]components.MenuItem{
		{Label: "Continue", Action: func() tea.Cmd {
			return s.push(s.chatScreen(t.Chats().Current()))
		}},
		{Label: "New chat", Action: func() tea.Cmd {
			return func() tea.Msg {
				th, err := t.Chats().Create(context.Background())
				return newChatMsg{ID: th.ID, Err: err}
			}
		}},
		{Label: "Chats", Action: func() tea.Cmd {
			return s.push(threads.New(t.Chats(), s.chatScreen))
		}},
		{Label: "Quit", Action: func() tea.Cmd {
			return tea.Quit
		}},
	})
	return s
}

func (s *Screen) chatScreen(threadID string) screen.Screen {
	return conversation.New(s.tutor, threadID, s.opts)
}

func (s *Screen) push(next screen.Screen) tea.Cmd {
	return func() tea.Msg { return router.PushScreenMsg{Screen: next} }
}

func (s *Screen) Init() tea.Cmd {
	return s.load()
}

func (s *Screen) load() tea.Cmd {
	t := s.tutor
	return func() tea.Msg {
		ctx := context.Background()
		id := t.Chats().Current()
		ov := overview{Chats: len(t.Chats().Threads())}
		if th, ok := t.Chats().Thread(id); ok {
			ov.Title = th.Title
		}
		c, err := t.Curriculum(ctx, id)
		if err != nil {
			return overview{Err: err}
		}
		if c != nil {
			ov.Subject, ov.Count, ov.Total, ov.Progress = c.Subject, c.Count(), c.TotalSubtopics(), c.Progress()
		}
		if ov.Pending, err = t.Pending(ctx, id); err != nil {
			return overview{Err: err}
		}
		return ov
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case overview:
		s.overview = msg
		return s, nil
	case newChatMsg:
		if msg.Err != nil {
			s.overview.Err = msg.Err
			return s, nil
		}
		return s, s.push(s.chatScreen(msg.ID))
	case screen.FocusMsg:
		return s, s.load()
	}
	var cmd tea.Cmd
	s.menu, cmd = s.menu.Update(msg)
	return s, cmd
}

func (s *Screen) View(width, height int) string {
	cw := components.ContentWidth(width)

	var sections []string
	sections = append(sections, components.Card(s.renderOverview(cw), cw))
	sections = append(sections, renderMenu(s.menu, cw))

	return components.Frame(strings.Join(sections, "\n\n"), width, height)
}

func (s *Screen) renderOverview(cw int) string {
	ov := s.overview
	if ov.Err != nil {
		return lipgloss.NewStyle().Foreground(theme.Error).Render(ov.Err.Error())
	}
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)
	lines := []string{
		lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(ov.Title),
	}
	if ov.Subject == "" {
		lines = append(lines, dim.Render("No subject yet. Continue and tell me what to learn."))
	} else {
		lines = append(lines,
			lipgloss.NewStyle().Foreground(theme.Secondary).Render(ov.Subject),
			components.Progress(fmt.Sprintf("%d/%d", ov.Count, ov.Total), ov.Progress, cw-8),
		)
	}
	if ov.Pending != nil {
		lines = append(lines, theme.Notice.Render(fmt.Sprintf("A %s is waiting for you.", ov.Pending.Type)))
	}
	lines = append(lines, dim.Render(fmt.Sprintf("%d chat(s)", ov.Chats)))
	return strings.Join(lines, "\n")
}

func renderMenu(m components.Menu, cw int) string {
	var buttons []string
	for i, item := range m.Items {
		buttons = append(buttons, components.MenuButton(item.Label, i == m.Selected, 22))
	}
	return lipgloss.NewStyle().Width(cw).Align(lipgloss.Center).Render(strings.Join(buttons, "\n"))
}

func (s *Screen) Title() string {
	return "Home"
}
