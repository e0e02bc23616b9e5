// Package ui is the terminal chat client: a session sidebar with in-place
// title editing and guarded deletes, a message pane, and an auto-resizing
// input.
package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/fruitbox12/zik.sh/plugin/renderer"
	"github.com/fruitbox12/zik.sh/plugin/toolcall"
	"github.com/fruitbox12/zik.sh/server/profile"
	"github.com/fruitbox12/zik.sh/store"
)

const (
	sidebarWidth   = 28
	inputMaxHeight = 6

	// executionDepthLimit caps how many times outcome text may itself carry
	// a directive and re-enter the pipeline, matching the HTTP API.
	executionDepthLimit = 6
)

type (
	sessionsMsg []*store.ChatSession
	messagesMsg []*store.ChatMessage
	selectMsg   string // UID to activate, "" for the neutral location
	outcomeMsg  struct{}
	errMsg      struct{ err error }
)

type Model struct {
	ctx      context.Context
	profile  *profile.Profile
	store    *store.Store
	renderer *renderer.Renderer
	registry toolcall.Registry

	list     chatList
	input    textarea.Model
	viewport viewport.Model
	markdown *glamour.TermRenderer

	activeUID string
	messages  []*store.ChatMessage
	mounts    map[int32]*renderer.Mount

	updates       <-chan []*store.ChatSession
	cancelUpdates func()

	width, height int
	ready         bool
	status        string
}

// Run opens the chat client and blocks until it quits.
func Run(ctx context.Context, prof *profile.Profile, st *store.Store) error {
	m := newModel(ctx, prof, st)
	defer m.cancelUpdates()
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

func newModel(ctx context.Context, prof *profile.Profile, st *store.Store) *Model {
	input := textarea.New()
	input.Placeholder = "Send a message..."
	input.ShowLineNumbers = false
	input.SetHeight(1)
	input.KeyMap.InsertNewline.SetKeys("ctrl+j")
	input.Focus()

	updates, cancel := st.Subscribe()
	return &Model{
		ctx:           ctx,
		profile:       prof,
		store:         st,
		renderer:      renderer.New(),
		registry:      toolcall.NewRegistry(toolcall.NewExecutor()),
		list:          newChatList(),
		input:         input,
		mounts:        make(map[int32]*renderer.Mount),
		updates:       updates,
		cancelUpdates: cancel,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadSessions, m.listenUpdates, textarea.Blink)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.relayout(msg.Width, msg.Height)
		return m, nil

	case sessionsMsg:
		m.list.SetSessions(msg)
		if m.activeUID == "" && len(msg) > 0 {
			return m, tea.Batch(m.selectSession(msg[0].UID), m.listenUpdates)
		}
		m.list.Select(m.activeUID)
		return m, m.listenUpdates

	case selectMsg:
		m.activeUID = string(msg)
		m.mounts = make(map[int32]*renderer.Mount)
		m.list.Select(m.activeUID)
		if m.activeUID == "" {
			m.messages = nil
			m.refreshViewport()
			return m, nil
		}
		return m, m.loadMessages(m.activeUID)

	case messagesMsg:
		m.messages = msg
		cmd := m.armDirectives()
		m.refreshViewport()
		return m, cmd

	case outcomeMsg:
		return m, m.loadMessages(m.activeUID)

	case errMsg:
		m.status = errorStyle.Render(msg.err.Error())
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// While a title is being edited, the edit field owns the keyboard.
	if m.list.State() == stateEditing {
		switch msg.String() {
		case "enter":
			if id, title, ok := m.list.CommitEdit(); ok {
				return m, m.renameSession(id, title)
			}
			return m, nil
		case "esc":
			m.list.Cancel()
			return m, nil
		default:
			return m, m.list.UpdateEditor(msg)
		}
	}
	if m.list.State() == statePendingDelete {
		switch msg.String() {
		case "enter":
			if uid, ok := m.list.ConfirmDelete(); ok {
				return m, m.deleteSession(uid)
			}
		case "esc":
			m.list.Cancel()
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "up", "ctrl+p":
		m.list.Move(-1)
		if sess := m.list.Selected(); sess != nil {
			return m, m.selectSession(sess.UID)
		}
		return m, nil
	case "down", "ctrl+n":
		m.list.Move(1)
		if sess := m.list.Selected(); sess != nil {
			return m, m.selectSession(sess.UID)
		}
		return m, nil
	case "ctrl+t":
		return m, m.newSession
	case "ctrl+e":
		return m, m.list.StartEdit()
	case "ctrl+d":
		m.list.StartDelete()
		return m, nil
	case "ctrl+x":
		for _, mount := range m.mounts {
			mount.ToggleExpanded()
		}
		m.refreshViewport()
		return m, nil
	case "enter":
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		m.input.Reset()
		m.resizeInput()
		return m, m.sendMessage(text)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.resizeInput()
	return m, cmd
}

func (m *Model) View() string {
	if !m.ready {
		return "loading..."
	}
	sidebar := sidebarStyle.
		Width(sidebarWidth).
		Height(m.height - 1).
		Render(m.list.View(sidebarWidth-2, m.activeUID))

	main := lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		m.input.View(),
	)
	footer := statusStyle.Render(m.statusLine())
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, sidebar, main),
		footer,
	)
}

func (m *Model) statusLine() string {
	if m.status != "" {
		return m.status
	}
	return "enter send · ctrl+j newline · ctrl+t new · ctrl+e rename · ctrl+d delete · ctrl+x details · ctrl+c quit"
}

func (m *Model) relayout(width, height int) {
	m.width, m.height = width, height
	mainWidth := width - sidebarWidth - 2
	m.input.SetWidth(mainWidth)
	m.resizeInput()
	viewportHeight := height - m.input.Height() - 2
	if !m.ready {
		m.viewport = viewport.New(mainWidth, viewportHeight)
		m.ready = true
	} else {
		m.viewport.Width = mainWidth
		m.viewport.Height = viewportHeight
	}
	// glamour wraps at render width, so the markdown renderer follows the pane.
	md, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(max(20, mainWidth-2)),
	)
	if err == nil {
		m.markdown = md
	}
	m.refreshViewport()
}

// resizeInput grows the input with its content up to inputMaxHeight and keeps
// the message pane filling the rest.
func (m *Model) resizeInput() {
	lines := strings.Count(m.input.Value(), "\n") + 1
	if lines > inputMaxHeight {
		lines = inputMaxHeight
	}
	m.input.SetHeight(lines)
	if m.ready {
		m.viewport.Height = m.height - m.input.Height() - 2
	}
}
