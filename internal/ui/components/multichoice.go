package components

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/tutorchat/internal/ui/theme"
)

// MultiChoice is a multiple-choice selector. Options carry their own
// letter prefix, as in "b) a slice".
type MultiChoice struct {
	Question string
	Options  []string
	Selected int
	// Chosen is the index of the recorded answer, or -1.
	Chosen int
	// Correct is the index of the right option once revealed, or -1.
	Correct int
}

// NewMultiChoice creates a new multiple-choice component.
func NewMultiChoice(question string, options []string) MultiChoice {
	return MultiChoice{
		Question: question,
		Options:  options,
		Chosen:   -1,
		Correct:  -1,
	}
}

// Init returns nil.
func (m MultiChoice) Init() tea.Cmd {
	return nil
}

// Update handles arrows, Enter and the option letters. picked reports
// whether an answer was recorded by this key.
func (m MultiChoice) Update(msg tea.Msg) (mc MultiChoice, picked bool) {
	if m.Correct >= 0 {
		return m, false
	}
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, false
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if m.Selected > 0 {
			m.Selected--
		}
	case "down", "j":
		if m.Selected < len(m.Options)-1 {
			m.Selected++
		}
	case "enter":
		m.Chosen = m.Selected
		return m, true
	default:
		if i := m.index(key); i >= 0 {
			m.Selected, m.Chosen = i, i
			return m, true
		}
	}
	return m, false
}

// index maps "a".."d" or "1".."4" to an option index, or -1.
func (m MultiChoice) index(key string) int {
	if len(key) != 1 {
		return -1
	}
	i := -1
	switch c := key[0]; {
	case c >= 'a' && c <= 'd':
		i = int(c - 'a')
	case c >= '1' && c <= '4':
		i = int(c - '1')
	}
	if i >= len(m.Options) {
		return -1
	}
	return i
}

// Select marks the option with letter as chosen.
func (m *MultiChoice) Select(letter string) {
	if i := m.index(strings.ToLower(letter)); i >= 0 {
		m.Selected, m.Chosen = i, i
	}
}

// Reveal locks the component and highlights the correct letter.
func (m *MultiChoice) Reveal(letter string) {
	m.Correct = m.index(strings.ToLower(letter))
	if m.Correct < 0 {
		m.Correct = len(m.Options)
	}
}

// Letter is the chosen option letter, or "".
func (m MultiChoice) Letter() string {
	if m.Chosen < 0 {
		return ""
	}
	return string(rune('a' + m.Chosen))
}

// View renders the multiple-choice component.
func (m MultiChoice) View() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(m.Question))
	b.WriteString("\n\n")

	for i, opt := range m.Options {
		prefix := "  "
		if i == m.Selected && m.Correct < 0 {
			prefix = "▸ "
		}
		line := prefix + opt
		if i == m.Chosen {
			line += "  ●"
		}

		style := lipgloss.NewStyle().Foreground(theme.Text)
		switch {
		case m.Correct >= 0 && i == m.Correct:
			style = theme.Correct
		case m.Correct >= 0 && i == m.Chosen:
			style = theme.Incorrect
		case m.Correct >= 0:
			style = lipgloss.NewStyle().Foreground(theme.TextDim)
		case i == m.Selected:
			style = theme.Selected
		}
		b.WriteString(style.Render(line) + "\n")
	}
	return b.String()
}

// IsCorrect reports whether the chosen option is the revealed answer.
func (m MultiChoice) IsCorrect() bool {
	return m.Correct >= 0 && m.Chosen == m.Correct
}
