package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/fruitbox12/zik.sh/server/profile"
	"github.com/fruitbox12/zik.sh/store"
	"github.com/fruitbox12/zik.sh/store/db/sqlite"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	dir := t.TempDir()
	driver, err := sqlite.NewDB(&profile.Profile{
		Mode:   "prod",
		Driver: "sqlite",
		DSN:    filepath.Join(dir, "zik_test.db"),
		Data:   dir,
	})
	require.NoError(t, err)
	st := store.New(driver)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func createSession(t *testing.T, st *store.Store, title string) *store.ChatSession {
	t.Helper()
	sess, err := st.CreateChatSession(context.Background(), &store.ChatSession{
		UID:   uuid.New().String(),
		Title: title,
	})
	require.NoError(t, err)
	return sess
}

func TestChatSessionCRUD(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	first := createSession(t, st, "New Chat")
	second := createSession(t, st, "New Chat")

	t.Run("list is most recently created first", func(t *testing.T) {
		list, err := st.ListChatSessions(ctx, &store.FindChatSession{})
		require.NoError(t, err)
		require.Len(t, list, 2)
		require.Equal(t, second.UID, list[0].UID)
		require.Equal(t, first.UID, list[1].UID)
	})

	t.Run("get by uid", func(t *testing.T) {
		sess, err := st.GetChatSession(ctx, &store.FindChatSession{UID: &first.UID})
		require.NoError(t, err)
		require.NotNil(t, sess)
		require.Equal(t, first.ID, sess.ID)

		missing := uuid.New().String()
		sess, err = st.GetChatSession(ctx, &store.FindChatSession{UID: &missing})
		require.NoError(t, err)
		require.Nil(t, sess)
	})

	t.Run("rename touches only the target session", func(t *testing.T) {
		title := "Trip Plan"
		updated, err := st.UpdateChatSession(ctx, &store.UpdateChatSession{ID: first.ID, Title: &title})
		require.NoError(t, err)
		require.Equal(t, "Trip Plan", updated.Title)

		other, err := st.GetChatSession(ctx, &store.FindChatSession{ID: &second.ID})
		require.NoError(t, err)
		require.Equal(t, "New Chat", other.Title)
	})
}

func TestDeleteChatSessionRemovesConversation(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	sess := createSession(t, st, "New Chat")
	for _, content := range []string{"hello", "world"} {
		_, err := st.CreateChatMessage(ctx, &store.CreateChatMessage{
			SessionID: sess.ID,
			Role:      "user",
			Content:   content,
		})
		require.NoError(t, err)
	}

	require.NoError(t, st.DeleteChatSession(ctx, sess.UID))

	got, err := st.GetChatSession(ctx, &store.FindChatSession{UID: &sess.UID})
	require.NoError(t, err)
	require.Nil(t, got)

	msgs, err := st.ListChatMessages(ctx, &store.FindChatMessage{SessionID: sess.ID})
	require.NoError(t, err)
	require.Empty(t, msgs)

	// Deleting an unknown uid is a no-op.
	require.NoError(t, st.DeleteChatSession(ctx, uuid.New().String()))
}

func TestChatMessagesOldestFirst(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	sess := createSession(t, st, "New Chat")
	for _, content := range []string{"one", "two", "three"} {
		_, err := st.CreateChatMessage(ctx, &store.CreateChatMessage{
			SessionID: sess.ID,
			Role:      "user",
			Content:   content,
		})
		require.NoError(t, err)
	}

	msgs, err := st.ListChatMessages(ctx, &store.FindChatMessage{SessionID: sess.ID})
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	require.Equal(t, "one", msgs[0].Content)
	require.Equal(t, "three", msgs[2].Content)
}

func TestSubscribePushesSessionList(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	updates, cancel := st.Subscribe()
	defer cancel()

	sess := createSession(t, st, "New Chat")

	select {
	case list := <-updates:
		require.Len(t, list, 1)
		require.Equal(t, sess.UID, list[0].UID)
	case <-time.After(time.Second):
		t.Fatal("no update after create")
	}

	// Coalescing: two mutations with no reads leave only the latest list.
	createSession(t, st, "New Chat")
	require.NoError(t, st.DeleteChatSession(ctx, sess.UID))

	select {
	case list := <-updates:
		require.Len(t, list, 1)
		require.NotEqual(t, sess.UID, list[0].UID)
	case <-time.After(time.Second):
		t.Fatal("no update after mutations")
	}
}

func TestNextAfterDelete(t *testing.T) {
	sessions := []*store.ChatSession{
		{UID: "b"},
		{UID: "a"},
	}
	require.Equal(t, "a", store.NextAfterDelete(sessions, "b"))
	require.Equal(t, "b", store.NextAfterDelete(sessions, "a"))
	require.Equal(t, "", store.NextAfterDelete([]*store.ChatSession{{UID: "a"}}, "a"))
	require.Equal(t, "", store.NextAfterDelete(nil, "a"))
}
