package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/fruitbox12/zik.sh/store"
)

// itemState is the state of the selected chat-history item. The states are
// mutually exclusive and only the selected item ever leaves viewing.
type itemState int

const (
	stateViewing itemState = iota
	stateEditing
	statePendingDelete
)

// chatList drives per-item edit and delete confirmation over the session
// list. Mutations are returned to the caller; the list itself never touches
// the store.
type chatList struct {
	sessions []*store.ChatSession
	cursor   int
	state    itemState
	editor   textinput.Model
}

func newChatList() chatList {
	editor := textinput.New()
	editor.Prompt = ""
	editor.CharLimit = 120
	return chatList{editor: editor}
}

func (l *chatList) SetSessions(sessions []*store.ChatSession) {
	l.sessions = sessions
	if l.cursor >= len(sessions) {
		l.cursor = len(sessions) - 1
	}
	if l.cursor < 0 {
		l.cursor = 0
	}
}

func (l *chatList) Selected() *store.ChatSession {
	if l.cursor < 0 || l.cursor >= len(l.sessions) {
		return nil
	}
	return l.sessions[l.cursor]
}

// Select moves the cursor to the session with the given UID.
func (l *chatList) Select(uid string) {
	for i, sess := range l.sessions {
		if sess.UID == uid {
			l.cursor = i
			return
		}
	}
}

// Move shifts the selection. Ignored while the selected item is being edited
// or awaiting delete confirmation.
func (l *chatList) Move(delta int) {
	if l.state != stateViewing {
		return
	}
	next := l.cursor + delta
	if next >= 0 && next < len(l.sessions) {
		l.cursor = next
	}
}

func (l *chatList) State() itemState {
	return l.state
}

// StartEdit makes the selected title editable in place. The returned command
// delivers input focus on the next frame, once the editable field exists.
func (l *chatList) StartEdit() tea.Cmd {
	sess := l.Selected()
	if sess == nil || l.state != stateViewing {
		return nil
	}
	l.state = stateEditing
	l.editor.SetValue(sess.Title)
	l.editor.CursorEnd()
	return l.editor.Focus()
}

// CommitEdit leaves editing and reports the title to persist. An empty edit
// is a no-op commit of the previous title.
func (l *chatList) CommitEdit() (sessionID int32, title string, ok bool) {
	sess := l.Selected()
	if sess == nil || l.state != stateEditing {
		return 0, "", false
	}
	l.state = stateViewing
	l.editor.Blur()
	title = strings.TrimSpace(l.editor.Value())
	if title == "" {
		title = sess.Title
	}
	return sess.ID, title, true
}

// StartDelete asks for confirmation before the selected session is removed.
func (l *chatList) StartDelete() {
	if l.Selected() == nil || l.state != stateViewing {
		return
	}
	l.state = statePendingDelete
}

// ConfirmDelete commits a pending delete and reports the UID to remove.
func (l *chatList) ConfirmDelete() (uid string, ok bool) {
	sess := l.Selected()
	if sess == nil || l.state != statePendingDelete {
		return "", false
	}
	l.state = stateViewing
	return sess.UID, true
}

// Cancel returns the selected item to viewing with no mutation.
func (l *chatList) Cancel() {
	l.state = stateViewing
	l.editor.Blur()
}

func (l *chatList) UpdateEditor(msg tea.Msg) tea.Cmd {
	if l.state != stateEditing {
		return nil
	}
	var cmd tea.Cmd
	l.editor, cmd = l.editor.Update(msg)
	return cmd
}

func (l *chatList) View(width int, activeUID string) string {
	if len(l.sessions) == 0 {
		return itemStyle.Render("no chats yet")
	}
	var b strings.Builder
	for i, sess := range l.sessions {
		style := itemStyle
		label := sess.Title
		switch {
		case i == l.cursor && l.state == stateEditing:
			label = l.editor.View()
			style = activeItemStyle
		case i == l.cursor && l.state == statePendingDelete:
			label = "delete? " + label
			style = pendingDeleteStyle
		case i == l.cursor:
			style = activeItemStyle
		}
		marker := "  "
		if sess.UID == activeUID {
			marker = "> "
		}
		line := ansi.Truncate(marker+label, width, "…")
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}
