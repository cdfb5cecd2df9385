package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/tutorchat/internal/store"
)

func TestClearKV(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	for _, k := range []string{store.ChatHistoryKey, store.CurrentChatKey, store.MessagesKey("chat-1")} {
		require.NoError(t, kv.Set(ctx, k, []byte("x")))
	}

	n, err := clearKV(ctx, kv)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	keys, err := kv.Keys(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, keys)
}
