package chat

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/tutorchat/internal/assessment"
	"github.com/abhisek/tutorchat/internal/curriculum"
	"github.com/abhisek/tutorchat/internal/greeting"
	"github.com/abhisek/tutorchat/internal/store"
)

func loadedStore(t *testing.T, kv store.KV) *Store {
	t.Helper()
	s := NewStore(kv, nil)
	require.NoError(t, s.Load(context.Background()))
	return s
}

func TestLoad_EmptyCreatesSeededThread(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	s := loadedStore(t, kv)

	threads := s.Threads()
	require.Len(t, threads, 1)
	assert.Equal(t, threads[0].ID, s.Current())
	assert.Equal(t, DefaultTitle, threads[0].Title)

	msgs, err := s.Messages(ctx, s.Current())
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, RoleBot, msgs[0].Role)
	assert.Equal(t, greeting.Intro, msgs[0].Content)

	raw, err := kv.Get(ctx, store.CurrentChatKey)
	require.NoError(t, err)
	assert.Equal(t, s.Current(), string(raw))
}

func TestLoad_RestoresPersistedState(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	s := loadedStore(t, kv)
	first := s.Current()
	second, err := s.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Switch(ctx, first))

	reloaded := loadedStore(t, kv)
	assert.Equal(t, first, reloaded.Current())
	ids := []string{reloaded.Threads()[0].ID, reloaded.Threads()[1].ID}
	assert.Equal(t, []string{second.ID, first}, ids)
}

func TestLoad_CorruptHistoryIsReinitialized(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	require.NoError(t, kv.Set(ctx, store.ChatHistoryKey, []byte("{not json")))

	s := loadedStore(t, kv)
	assert.Len(t, s.Threads(), 1)
}

func TestSwitch_UnknownThread(t *testing.T) {
	s := loadedStore(t, store.NewMemoryKV())
	assert.ErrorIs(t, s.Switch(context.Background(), "chat-missing"), ErrUnknownThread)
}

func TestDelete_CurrentCreatesNewThread(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	s := loadedStore(t, kv)
	old := s.Current()
	require.NoError(t, s.SaveCurriculum(ctx, old, curriculum.New("Go", []string{"A"}, map[string][]string{"A": {"a1"}})))
	require.NoError(t, s.SaveTaken(ctx, old, assessment.TakenLog{"quiz-4": true}))

	require.NoError(t, s.Delete(ctx, old))

	assert.NotEqual(t, old, s.Current())
	require.Len(t, s.Threads(), 1)
	for _, key := range []string{store.MessagesKey(old), store.CurriculumKey(old), store.TakenKey(old)} {
		_, err := kv.Get(ctx, key)
		assert.ErrorIs(t, err, store.ErrNotFound, key)
	}
}

func TestDelete_OtherThreadKeepsCurrent(t *testing.T) {
	ctx := context.Background()
	s := loadedStore(t, store.NewMemoryKV())
	first := s.Current()
	second, err := s.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, first))
	assert.Equal(t, second.ID, s.Current())
	assert.Len(t, s.Threads(), 1)
}

func TestAppendAndRefreshTitle(t *testing.T) {
	ctx := context.Background()
	s := loadedStore(t, store.NewMemoryKV())
	id := s.Current()

	require.NoError(t, s.Append(ctx, id, NewMessage(RoleUser, "hello")))
	title, err := s.RefreshTitle(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, DefaultTitle, title)

	long := "Teach me distributed systems from scratch please"
	require.NoError(t, s.Append(ctx, id, NewMessage(RoleUser, long)))
	title, err = s.RefreshTitle(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, long[:30]+"...", title)

	th, ok := s.Thread(id)
	require.True(t, ok)
	assert.Equal(t, title, th.Title)

	msgs, err := s.Messages(ctx, id)
	require.NoError(t, err)
	assert.Len(t, msgs, 3)
}

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name string
		msgs []Message
		want string
	}{
		{"none", nil, DefaultTitle},
		{"only greetings", []Message{{Role: RoleUser, Content: "hi there"}}, DefaultTitle},
		{"bot ignored", []Message{{Role: RoleBot, Content: "Python"}}, DefaultTitle},
		{"short", []Message{{Role: RoleUser, Content: "hey"}, {Role: RoleUser, Content: "Python"}}, "Python"},
		{"exactly 30", []Message{{Role: RoleUser, Content: strings.Repeat("x", 30)}}, strings.Repeat("x", 30)},
		{"runes", []Message{{Role: RoleUser, Content: strings.Repeat("é", 31)}}, strings.Repeat("é", 30) + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveTitle(tt.msgs))
		})
	}
}

func TestCurriculumAndAssessmentState(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	s := loadedStore(t, kv)
	id := s.Current()

	c, err := s.Curriculum(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, c)

	require.NoError(t, s.SaveCurriculum(ctx, id, curriculum.New("Go", []string{"A"}, map[string][]string{"A": {"a1", "a2"}})))
	c, err = s.Curriculum(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, 2, c.TotalSubtopics())

	require.NoError(t, kv.Set(ctx, store.CurriculumKey(id), []byte(`{"topics":`)))
	c, err = s.Curriculum(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, c, "corrupt curriculum reads as missing")

	taken, err := s.Taken(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, taken)
	taken.Mark(assessment.Trigger{Type: assessment.TypeQuiz, N: 4})
	require.NoError(t, s.SaveTaken(ctx, id, taken))
	taken, err = s.Taken(ctx, id)
	require.NoError(t, err)
	assert.True(t, taken["quiz-4"])

	tr := &assessment.Trigger{Type: assessment.TypeProject, N: 16}
	require.NoError(t, s.SavePending(ctx, id, tr))
	got, err := s.Pending(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, tr, got)
	require.NoError(t, s.SavePending(ctx, id, nil))
	got, err = s.Pending(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)
}
