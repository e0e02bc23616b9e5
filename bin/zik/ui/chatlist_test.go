package ui

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/require"

	"github.com/fruitbox12/zik.sh/store"
)

func testSessions() []*store.ChatSession {
	return []*store.ChatSession{
		{ID: 2, UID: "b", Title: "Second"},
		{ID: 1, UID: "a", Title: "First"},
	}
}

func TestChatListSelection(t *testing.T) {
	l := newChatList()
	l.SetSessions(testSessions())

	require.Equal(t, "b", l.Selected().UID)

	l.Move(1)
	require.Equal(t, "a", l.Selected().UID)
	l.Move(1)
	require.Equal(t, "a", l.Selected().UID)
	l.Move(-1)
	require.Equal(t, "b", l.Selected().UID)

	l.Select("a")
	require.Equal(t, "a", l.Selected().UID)

	// Shrinking the list clamps the cursor.
	l.SetSessions(testSessions()[:1])
	require.Equal(t, "b", l.Selected().UID)

	l.SetSessions(nil)
	require.Nil(t, l.Selected())
}

func TestChatListEdit(t *testing.T) {
	t.Run("commit persists the typed title", func(t *testing.T) {
		l := newChatList()
		l.SetSessions(testSessions())

		require.NotNil(t, l.StartEdit())
		require.Equal(t, stateEditing, l.State())
		require.Equal(t, "Second", l.editor.Value())

		l.editor.SetValue("Trip Plan")
		id, title, ok := l.CommitEdit()
		require.True(t, ok)
		require.Equal(t, int32(2), id)
		require.Equal(t, "Trip Plan", title)
		require.Equal(t, stateViewing, l.State())
	})

	t.Run("empty commit keeps the previous title", func(t *testing.T) {
		l := newChatList()
		l.SetSessions(testSessions())

		l.StartEdit()
		l.editor.SetValue("   ")
		_, title, ok := l.CommitEdit()
		require.True(t, ok)
		require.Equal(t, "Second", title)
	})

	t.Run("cancel discards the edit", func(t *testing.T) {
		l := newChatList()
		l.SetSessions(testSessions())

		l.StartEdit()
		l.editor.SetValue("discarded")
		l.Cancel()
		require.Equal(t, stateViewing, l.State())

		_, _, ok := l.CommitEdit()
		require.False(t, ok)
	})

	t.Run("selection is frozen while editing", func(t *testing.T) {
		l := newChatList()
		l.SetSessions(testSessions())

		l.StartEdit()
		l.Move(1)
		require.Equal(t, "b", l.Selected().UID)
	})

	t.Run("edit on an empty list is a no-op", func(t *testing.T) {
		l := newChatList()
		require.Nil(t, l.StartEdit())
		require.Equal(t, stateViewing, l.State())
	})
}

func TestChatListViewTruncatesWideTitles(t *testing.T) {
	l := newChatList()
	l.SetSessions([]*store.ChatSession{
		{ID: 1, UID: "a", Title: strings.Repeat("界", 30)},
		{ID: 2, UID: "b", Title: strings.Repeat("é", 40)},
	})

	const width = 12
	view := l.View(width, "a")
	require.True(t, utf8.ValidString(view))
	for _, line := range strings.Split(strings.TrimRight(view, "\n"), "\n") {
		require.LessOrEqual(t, lipgloss.Width(line), width)
	}
}

func TestChatListDelete(t *testing.T) {
	t.Run("delete requires confirmation", func(t *testing.T) {
		l := newChatList()
		l.SetSessions(testSessions())

		l.StartDelete()
		require.Equal(t, statePendingDelete, l.State())

		uid, ok := l.ConfirmDelete()
		require.True(t, ok)
		require.Equal(t, "b", uid)
		require.Equal(t, stateViewing, l.State())
	})

	t.Run("cancel keeps the session", func(t *testing.T) {
		l := newChatList()
		l.SetSessions(testSessions())

		l.StartDelete()
		l.Cancel()

		_, ok := l.ConfirmDelete()
		require.False(t, ok)
	})

	t.Run("confirm without a pending delete is a no-op", func(t *testing.T) {
		l := newChatList()
		l.SetSessions(testSessions())

		_, ok := l.ConfirmDelete()
		require.False(t, ok)
	})

	t.Run("states are mutually exclusive", func(t *testing.T) {
		l := newChatList()
		l.SetSessions(testSessions())

		l.StartEdit()
		l.StartDelete()
		require.Equal(t, stateEditing, l.State())
	})
}
