package threads

import (
	"context"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/tutorchat/internal/chat"
	"github.com/abhisek/tutorchat/internal/router"
	"github.com/abhisek/tutorchat/internal/screen"
	"github.com/abhisek/tutorchat/internal/store"
)

type openedScreen struct{ id string }

func (o *openedScreen) Init() tea.Cmd                           { return nil }
func (o *openedScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return o, nil }
func (o *openedScreen) View(int, int) string                    { return o.id }
func (o *openedScreen) Title() string                           { return o.id }

func press(r rune) tea.KeyPressMsg { return tea.KeyPressMsg{Code: r, Text: string(r)} }

func newChats(t *testing.T, n int) *chat.Store {
	t.Helper()
	chats := chat.NewStore(store.NewMemoryKV(), nil)
	require.NoError(t, chats.Load(context.Background()))
	for i := 1; i < n; i++ {
		_, err := chats.Create(context.Background())
		require.NoError(t, err)
	}
	return chats
}

// run feeds msg to s and then the message its command produces.
func run(t *testing.T, s *Screen, msg tea.Msg) tea.Msg {
	t.Helper()
	_, cmd := s.Update(msg)
	if cmd == nil {
		return nil
	}
	_, cmd = s.Update(cmd())
	if cmd == nil {
		return nil
	}
	return cmd()
}

func TestThreads_SelectsCurrent(t *testing.T) {
	chats := newChats(t, 3)
	oldest := chats.Threads()[2].ID
	require.NoError(t, chats.Switch(context.Background(), oldest))

	s := New(chats, nil)
	assert.Equal(t, 2, s.selected)
}

func TestThreads_EnterSwitchesAndOpens(t *testing.T) {
	chats := newChats(t, 2)
	target := chats.Threads()[1].ID
	s := New(chats, func(id string) screen.Screen { return &openedScreen{id: id} })

	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	msg := run(t, s, tea.KeyPressMsg{Code: tea.KeyEnter})

	replace, ok := msg.(router.ReplaceScreenMsg)
	require.True(t, ok, "got %T", msg)
	assert.Equal(t, target, replace.Screen.Title())
	assert.Equal(t, target, chats.Current())
}

func TestThreads_NewChat(t *testing.T) {
	chats := newChats(t, 1)
	s := New(chats, func(id string) screen.Screen { return &openedScreen{id: id} })

	msg := run(t, s, press('n'))
	replace, ok := msg.(router.ReplaceScreenMsg)
	require.True(t, ok)
	assert.Len(t, chats.Threads(), 2)
	assert.Equal(t, chats.Current(), replace.Screen.Title())
}

func TestThreads_DeleteNeedsConfirmation(t *testing.T) {
	chats := newChats(t, 2)
	s := New(chats, nil)
	victim := s.threads[s.selected].ID

	s.Update(press('d'))
	assert.True(t, s.confirm)
	assert.Contains(t, s.View(80, 24), "Delete")

	run(t, s, press('n'))
	assert.False(t, s.confirm)
	assert.Len(t, chats.Threads(), 2)

	s.Update(press('d'))
	run(t, s, press('y'))
	assert.Len(t, s.threads, 2, "deleting the current chat starts a fresh one")
	_, ok := chats.Thread(victim)
	assert.False(t, ok)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmno", 10))
}
