package report

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/abhisek/tutorchat/internal/assessment"
	"github.com/abhisek/tutorchat/internal/chat"
	"github.com/abhisek/tutorchat/internal/curriculum"
	"github.com/abhisek/tutorchat/internal/store"
)

func sampleCurriculum() *curriculum.Curriculum {
	c := curriculum.New("Go", []string{"Basics", "Concurrency"}, map[string][]string{
		"Basics":      {"Types", "Functions"},
		"Concurrency": {"Goroutines", "Channels"},
	})
	c.Started = true
	c.TopicIndex, c.SubtopicIndex = 1, 0
	c.Completed = []string{"0-0", "0-1", "1-0"}
	return c
}

func TestCollect(t *testing.T) {
	ctx := context.Background()
	chats := chat.NewStore(store.NewMemoryKV(), nil)
	require.NoError(t, chats.Load(ctx))
	id := chats.Current()
	require.NoError(t, chats.SaveCurriculum(ctx, id, sampleCurriculum()))
	require.NoError(t, chats.SaveTaken(ctx, id, assessment.TakenLog{"quiz-2": true}))
	_, err := chats.Create(ctx)
	require.NoError(t, err)

	got, err := Collect(ctx, chats)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Nil(t, got[0].Curriculum)
	require.NotNil(t, got[1].Curriculum)
	assert.True(t, got[1].Taken["quiz-2"])
}

func TestWriteProgressXLSX(t *testing.T) {
	threads := []ThreadProgress{
		{Thread: chat.Thread{ID: "chat-1", Title: "learn go"}, Curriculum: sampleCurriculum(),
			Taken: assessment.TakenLog{"project-4": true, "quiz-2": true, "quiz-10": true}},
		{Thread: chat.Thread{ID: "chat-2", Title: "New Chat"}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteProgressXLSX(&buf, threads))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "learn go"}, f.GetSheetList())

	rows, err := f.GetRows("Summary")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Chat", rows[0][0])
	assert.Equal(t, []string{"learn go", "Go", "in_progress", "3", "4", "75", "quiz-2, quiz-10, project-4"}, rows[1])
	assert.Equal(t, "no curriculum", rows[2][2])

	rows, err = f.GetRows("learn go")
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"1.1", "Basics", "Types", "done"}, rows[1])
	assert.Equal(t, []string{"2.1", "Concurrency", "Goroutines", "current"}, rows[3])
	assert.Equal(t, []string{"2.2", "Concurrency", "Channels"}, rows[4])
}

func TestSheetName(t *testing.T) {
	used := map[string]bool{"Summary": true}
	assert.Equal(t, "a b", sheetName("a/b", used))
	assert.Equal(t, "a b (2)", sheetName("a:b", used))
	assert.Equal(t, "Chat", sheetName("  ", used))
	assert.Len(t, []rune(sheetName("a very long chat title that keeps going", used)), 25)
}

func TestWriteCurriculumPDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCurriculumPDF(&buf, sampleCurriculum()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 500)
}
