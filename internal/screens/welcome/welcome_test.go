package welcome

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/tutorchat/internal/chat"
	"github.com/abhisek/tutorchat/internal/curriculum"
	"github.com/abhisek/tutorchat/internal/router"
	"github.com/abhisek/tutorchat/internal/screen"
	"github.com/abhisek/tutorchat/internal/store"
)

type homeStub struct{}

func (h *homeStub) Init() tea.Cmd                          { return nil }
func (h *homeStub) Update(tea.Msg) (screen.Screen, tea.Cmd) { return h, nil }
func (h *homeStub) View(int, int) string                   { return "home" }
func (h *homeStub) Title() string                          { return "Home" }

func splash(r Resume, err error) (*Screen, *int) {
	built := 0
	s := New(func() screen.Screen {
		built++
		return &homeStub{}
	}, func() (Resume, error) { return r, err })
	return s, &built
}

// settle types the whole tagline and delivers the lookup result.
func settle(s *Screen) {
	for !s.settled() {
		s.Update(tickMsg(time.Now()))
	}
	r, err := s.lookup()
	s.Update(resumeMsg{Resume: r, Err: err})
}

func TestTaglineTypesOut(t *testing.T) {
	s, _ := splash(Resume{}, nil)
	assert.NotContains(t, s.View(100, 30), Tagline)

	for i := 0; i < 5; i++ {
		s.Update(tickMsg(time.Now()))
	}
	assert.Contains(t, s.View(100, 30), "Learn▌")

	settle(s)
	view := s.View(100, 30)
	assert.Contains(t, view, Tagline)
	assert.NotContains(t, view, "▌")
	assert.Contains(t, view, "press any key")

	_, cmd := s.Update(tickMsg(time.Now()))
	assert.Nil(t, cmd, "ticking stops once settled")
}

func TestResumeCard(t *testing.T) {
	tests := []struct {
		name   string
		resume Resume
		want   []string
	}{
		{"new learner", Resume{Chats: 1}, []string{"Start by telling me what you want to learn."}},
		{"in progress", Resume{Subject: "Go", Count: 3, Total: 8, Progress: 0.375, Chats: 3}, []string{"Continue", "Go", "3/8", "38%", "3 chats in history"}},
		{"finished", Resume{Subject: "Rust", Count: 8, Total: 8, Progress: 1, Finished: true, Chats: 1}, []string{"Finished: Rust", "100%"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := splash(tt.resume, nil)
			settle(s)
			view := s.View(100, 30)
			for _, w := range tt.want {
				assert.Contains(t, view, w)
			}
		})
	}
}

func TestLookupFailureHidesCard(t *testing.T) {
	s, _ := splash(Resume{Subject: "Go"}, errors.New("disk gone"))
	settle(s)
	view := s.View(100, 30)
	assert.NotContains(t, view, "Continue")
	assert.Contains(t, view, "press any key")
}

func TestKeyReplacesScreenOnce(t *testing.T) {
	s, built := splash(Resume{}, nil)
	s.Update(tickMsg(time.Now()))

	_, cmd := s.Update(tea.KeyPressMsg{Code: ' '})
	require.NotNil(t, cmd, "a key skips the animation")
	msg, ok := cmd().(router.ReplaceScreenMsg)
	require.True(t, ok)
	assert.Equal(t, "home", msg.Screen.View(0, 0))

	_, cmd = s.Update(tea.KeyPressMsg{Code: 'b'})
	assert.Nil(t, cmd)
	assert.Equal(t, 1, *built)
}

func TestNoAutoTransition(t *testing.T) {
	s, built := splash(Resume{}, nil)
	settle(s)
	assert.Zero(t, *built)
}

func TestResumeOf(t *testing.T) {
	ctx := context.Background()
	chats := chat.NewStore(store.NewMemoryKV(), nil)
	require.NoError(t, chats.Load(ctx))

	r, err := ResumeOf(ctx, chats)
	require.NoError(t, err)
	assert.Equal(t, Resume{Chats: 1}, r)

	first := chats.Current()
	c := &curriculum.Curriculum{
		Subject:       "Go",
		Topics:        []string{"Basics"},
		Subtopics:     map[string][]string{"Basics": {"Types", "Loops"}},
		Started:       true,
		SubtopicIndex: 1,
	}
	require.NoError(t, chats.SaveCurriculum(ctx, first, c))

	r, err = ResumeOf(ctx, chats)
	require.NoError(t, err)
	assert.Equal(t, Resume{Subject: "Go", Count: 2, Total: 2, Progress: 1, Chats: 1}, r)

	// A new chat becomes current and has no subject yet.
	_, err = chats.Create(ctx)
	require.NoError(t, err)
	r, err = ResumeOf(ctx, chats)
	require.NoError(t, err)
	assert.Equal(t, Resume{Chats: 2}, r)
}
