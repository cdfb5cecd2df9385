// Package threads lists the learner's chats and lets them switch to,
// create or delete one.
package threads

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/tutorchat/internal/chat"
	"github.com/abhisek/tutorchat/internal/router"
	"github.com/abhisek/tutorchat/internal/screen"
	"github.com/abhisek/tutorchat/internal/ui/layout"
	"github.com/abhisek/tutorchat/internal/ui/theme"
)

// OpenFunc builds the screen shown for a thread after switching to it.
type OpenFunc func(threadID string) screen.Screen

type changedMsg struct {
	Open string
	Err  error
}

// Screen implements screen.Screen for the chat list.
type Screen struct {
	chats    *chat.Store
	open     OpenFunc
	threads  []chat.Thread
	selected int
	confirm  bool
	errMsg   string
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

// New creates the chat list over chats.
func New(chats *chat.Store, open OpenFunc) *Screen {
	s := &Screen{chats: chats, open: open}
	s.refresh()
	return s
}

func (s *Screen) refresh() {
	s.threads = s.chats.Threads()
	for i, th := range s.threads {
		if th.ID == s.chats.Current() {
			s.selected = i
		}
	}
	if s.selected >= len(s.threads) {
		s.selected = len(s.threads) - 1
	}
}

func (s *Screen) Init() tea.Cmd { return nil }

func (s *Screen) Title() string { return "Chats" }

func (s *Screen) KeyHints() []layout.KeyHint {
	if s.confirm {
		return []layout.KeyHint{
			{Key: "Y", Description: "Delete"},
			{Key: "N", Description: "Keep"},
		}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Open"},
		{Key: "N", Description: "New chat"},
		{Key: "D", Description: "Delete"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case changedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.refresh()
		if msg.Open != "" {
			next := s.open(msg.Open)
			return s, func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
		}
		return s, nil

	case screen.FocusMsg:
		s.refresh()
		return s, nil

	case tea.KeyMsg:
		return s.handleKey(msg.String())
	}
	return s, nil
}

func (s *Screen) handleKey(key string) (screen.Screen, tea.Cmd) {
	if s.confirm {
		s.confirm = false
		if key != "y" && key != "Y" {
			return s, nil
		}
		id := s.threads[s.selected].ID
		return s, s.change(func(ctx context.Context) (string, error) {
			return "", s.chats.Delete(ctx, id)
		})
	}

	switch key {
	case "up", "k":
		if s.selected > 0 {
			s.selected--
		}
	case "down", "j":
		if s.selected < len(s.threads)-1 {
			s.selected++
		}
	case "enter":
		if len(s.threads) == 0 {
			return s, nil
		}
		id := s.threads[s.selected].ID
		return s, s.change(func(ctx context.Context) (string, error) {
			return id, s.chats.Switch(ctx, id)
		})
	case "n":
		return s, s.change(func(ctx context.Context) (string, error) {
			th, err := s.chats.Create(ctx)
			return th.ID, err
		})
	case "d", "delete":
		if len(s.threads) > 0 {
			s.confirm = true
		}
	}
	return s, nil
}

func (s *Screen) change(fn func(ctx context.Context) (string, error)) tea.Cmd {
	return func() tea.Msg {
		open, err := fn(context.Background())
		return changedMsg{Open: open, Err: err}
	}
}

func (s *Screen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
	}

	var b strings.Builder
	b.WriteString("\n")
	for i, th := range s.threads {
		prefix := "  "
		if i == s.selected {
			prefix = "> "
		}
		marker := " "
		if th.ID == s.chats.Current() {
			marker = "●"
		}
		line := fmt.Sprintf("%s%s %-40s %s", prefix, marker, truncate(th.Title, 40),
			th.CreatedAt.Local().Format("Jan 02 15:04"))

		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.selected {
			style = style.Foreground(theme.Primary).Bold(true)
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)))
		b.WriteString("\n")
	}

	if s.confirm {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.Accent).Bold(true).
			Render(fmt.Sprintf("Delete %q and its progress?", s.threads[s.selected].Title)))
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
