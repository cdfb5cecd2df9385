package components

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/stretchr/testify/assert"
)

func key(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func special(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func quizQuestion() MultiChoice {
	return NewMultiChoice("What does := do?", []string{
		"a) declares and assigns",
		"b) compares",
		"c) dereferences",
		"d) nothing",
	})
}

func TestMultiChoice_ArrowsThenEnter(t *testing.T) {
	m := quizQuestion()
	var picked bool

	m, picked = m.Update(special(tea.KeyDown))
	assert.False(t, picked)
	m, _ = m.Update(special(tea.KeyDown))
	m, _ = m.Update(special(tea.KeyUp))
	assert.Equal(t, 1, m.Selected)
	assert.Equal(t, "", m.Letter())

	m, picked = m.Update(special(tea.KeyEnter))
	assert.True(t, picked)
	assert.Equal(t, "b", m.Letter())
}

func TestMultiChoice_LetterAndDigitKeys(t *testing.T) {
	m := quizQuestion()
	m, picked := m.Update(key('c'))
	assert.True(t, picked)
	assert.Equal(t, "c", m.Letter())

	m, picked = m.Update(key('4'))
	assert.True(t, picked)
	assert.Equal(t, "d", m.Letter())

	_, picked = m.Update(key('e'))
	assert.False(t, picked)
}

func TestMultiChoice_StaysInBounds(t *testing.T) {
	m := quizQuestion()
	m, _ = m.Update(special(tea.KeyUp))
	assert.Equal(t, 0, m.Selected)
	for range 10 {
		m, _ = m.Update(special(tea.KeyDown))
	}
	assert.Equal(t, 3, m.Selected)
}

func TestMultiChoice_RevealLocks(t *testing.T) {
	m := quizQuestion()
	m.Select("B")
	m.Reveal("a")
	assert.False(t, m.IsCorrect())

	m, picked := m.Update(key('a'))
	assert.False(t, picked, "revealed question must ignore keys")
	assert.Equal(t, "b", m.Letter())

	m.Select("a")
	assert.True(t, m.IsCorrect())
}

func TestMultiChoice_RevealUnknownLetter(t *testing.T) {
	m := quizQuestion()
	m.Select("a")
	m.Reveal("z")
	assert.False(t, m.IsCorrect())
	assert.Contains(t, m.View(), "declares and assigns")
}

func TestMenu_SkipsDisabled(t *testing.T) {
	var ran string
	action := func(name string) func() tea.Cmd {
		return func() tea.Cmd { ran = name; return nil }
	}
	m := NewMenu([]MenuItem{
		{Label: "Continue", Disabled: true},
		{Label: "New chat", Action: action("new")},
		{Label: "Chats", Disabled: true},
		{Label: "Quit", Action: action("quit")},
	})
	assert.Equal(t, 1, m.Selected)

	m, _ = m.Update(special(tea.KeyDown))
	assert.Equal(t, 3, m.Selected)
	m, _ = m.Update(special(tea.KeyUp))
	assert.Equal(t, 1, m.Selected)

	m.Update(special(tea.KeyEnter))
	assert.Equal(t, "new", ran)
}

func TestProgress(t *testing.T) {
	tests := []struct {
		fraction float64
		pct      string
		filled   int
	}{
		{0, "0%", 0},
		{0.5, "50%", 10},
		{1, "100%", 20},
		{1.7, "100%", 20},
		{-1, "0%", 0},
	}
	for _, tt := range tests {
		out := Progress("", tt.fraction, 25)
		assert.Equal(t, 25, lipgloss.Width(out))
		assert.Contains(t, out, tt.pct)
		assert.Equal(t, tt.filled, strings.Count(out, "━"), "fraction %v", tt.fraction)
	}
}

func TestProgress_MinimumBar(t *testing.T) {
	out := Progress("3/4", 0.75, 2)
	assert.Equal(t, 4, strings.Count(out, "━")+strings.Count(out, "─"))
}

func TestTextInput_Reset(t *testing.T) {
	ti := NewTextInput("ask anything", 10)
	ti, _ = ti.Update(key('h'))
	ti, _ = ti.Update(key('i'))
	assert.Equal(t, "hi", ti.Value())
	ti.Reset()
	assert.Equal(t, "", ti.Value())
}
