package service

import (
	"context"
	"testing"

	"github.com/jiashuyu/belay/internal/database"
	"github.com/jiashuyu/belay/internal/models"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func seedUser(t *testing.T, store *database.MemoryStore, name string) *models.User {
	t.Helper()
	u := &models.User{Name: name, PasswordHash: "x", APIKey: "key-" + name}
	require.NoError(t, store.Users().Create(context.Background(), u))
	return u
}

func seedChannel(t *testing.T, store *database.MemoryStore) *models.Channel {
	t.Helper()
	ch := &models.Channel{Name: "general"}
	require.NoError(t, store.Channels().Create(context.Background(), ch))
	return ch
}

func postN(t *testing.T, svc *MessageService, channelID, authorID int64, n int) []int64 {
	t.Helper()
	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		msg, err := svc.PostMessage(context.Background(), channelID, authorID, "hello", nil)
		require.NoError(t, err)
		ids = append(ids, msg.ID)
	}
	return ids
}

func requireKind(t *testing.T, err error, sentinel error) {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, sentinel)
}
