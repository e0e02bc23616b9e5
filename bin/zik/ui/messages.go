package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/fruitbox12/zik.sh/plugin/renderer"
	"github.com/fruitbox12/zik.sh/plugin/toolcall"
	"github.com/fruitbox12/zik.sh/store"
)

func (m *Model) loadSessions() tea.Msg {
	sessions, err := m.store.ListChatSessions(m.ctx, &store.FindChatSession{})
	if err != nil {
		return errMsg{err}
	}
	return sessionsMsg(sessions)
}

// listenUpdates forwards the next push from the live session list.
func (m *Model) listenUpdates() tea.Msg {
	sessions, ok := <-m.updates
	if !ok {
		return nil
	}
	return sessionsMsg(sessions)
}

func (m *Model) selectSession(uid string) tea.Cmd {
	return func() tea.Msg {
		return selectMsg(uid)
	}
}

// loadMessages captures the UID up front; commands run off the update loop
// and must not read model fields.
func (m *Model) loadMessages(uid string) tea.Cmd {
	return func() tea.Msg {
		sess, err := m.store.GetChatSession(m.ctx, &store.FindChatSession{UID: &uid})
		if err != nil {
			return errMsg{err}
		}
		if sess == nil {
			return selectMsg("")
		}
		msgs, err := m.store.ListChatMessages(m.ctx, &store.FindChatMessage{SessionID: sess.ID})
		if err != nil {
			return errMsg{err}
		}
		return messagesMsg(msgs)
	}
}

func (m *Model) newSession() tea.Msg {
	sess, err := m.store.CreateChatSession(m.ctx, &store.ChatSession{
		UID:   uuid.New().String(),
		Title: "New Chat",
	})
	if err != nil {
		return errMsg{err}
	}
	return selectMsg(sess.UID)
}

func (m *Model) renameSession(id int32, title string) tea.Cmd {
	return func() tea.Msg {
		if _, err := m.store.UpdateChatSession(m.ctx, &store.UpdateChatSession{ID: id, Title: &title}); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

// deleteSession removes the session and navigates to the first remaining one,
// or to the neutral location when none remains.
func (m *Model) deleteSession(uid string) tea.Cmd {
	return func() tea.Msg {
		sessions, err := m.store.ListChatSessions(m.ctx, &store.FindChatSession{})
		if err != nil {
			return errMsg{err}
		}
		if err := m.store.DeleteChatSession(m.ctx, uid); err != nil {
			return errMsg{err}
		}
		return selectMsg(store.NextAfterDelete(sessions, uid))
	}
}

// sendMessage appends a user message to the active session, creating one
// first when none is active. The new session is activated via selectMsg; the
// command never writes model state itself.
func (m *Model) sendMessage(text string) tea.Cmd {
	uid := m.activeUID
	return func() tea.Msg {
		sess, err := m.store.GetChatSession(m.ctx, &store.FindChatSession{UID: &uid})
		if err != nil {
			return errMsg{err}
		}
		created := false
		if sess == nil {
			sess, err = m.store.CreateChatSession(m.ctx, &store.ChatSession{
				UID:   uuid.New().String(),
				Title: "New Chat",
			})
			if err != nil {
				return errMsg{err}
			}
			created = true
		}
		if _, err := m.store.CreateChatMessage(m.ctx, &store.CreateChatMessage{
			SessionID: sess.ID,
			Role:      "user",
			Content:   text,
		}); err != nil {
			return errMsg{err}
		}
		if created {
			return selectMsg(sess.UID)
		}
		return outcomeMsg{}
	}
}

// armDirectives mounts the first directive block of every assistant message
// that does not have a mount yet, and triggers the new mounts. A mount lives
// for as long as its message stays in the pane, so re-renders never re-run a
// directive.
func (m *Model) armDirectives() tea.Cmd {
	if !m.profile.AutoExecute {
		return nil
	}
	var cmds []tea.Cmd
	for _, msg := range m.messages {
		if msg.Role != "assistant" {
			continue
		}
		if _, mounted := m.mounts[msg.ID]; mounted {
			continue
		}
		directives := m.renderer.Directives(msg.Content)
		if len(directives) == 0 {
			continue
		}
		sessionID := msg.SessionID
		mount := renderer.NewMount(directives[0],
			func(ctx context.Context, raw string) string {
				return m.registry.Dispatch(ctx, toolcall.ToolName, raw)
			},
			func(text string) {
				if _, err := m.store.CreateChatMessage(m.ctx, &store.CreateChatMessage{
					SessionID: sessionID,
					Role:      "user",
					Content:   text,
				}); err != nil {
					slog.Error("failed to persist directive outcome", "err", err)
					return
				}
				m.continueDirectives(sessionID, text, 1)
			},
		)
		m.mounts[msg.ID] = mount
		cmds = append(cmds, m.triggerMount(mount))
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

// continueDirectives rescans outcome text so a directive-carrying outcome
// re-enters the pipeline, up to executionDepthLimit. Runs on the command
// goroutine and touches only the immutable collaborators.
func (m *Model) continueDirectives(sessionID int32, content string, depth int) {
	if depth >= executionDepthLimit {
		slog.Warn("directive execution depth exceeded", "depth", depth)
		return
	}
	directives := m.renderer.Directives(content)
	if len(directives) == 0 {
		return
	}
	out := m.registry.Dispatch(m.ctx, toolcall.ToolName, directives[0])
	if _, err := m.store.CreateChatMessage(m.ctx, &store.CreateChatMessage{
		SessionID: sessionID,
		Role:      "user",
		Content:   out,
	}); err != nil {
		slog.Error("failed to persist directive outcome", "err", err)
		return
	}
	m.continueDirectives(sessionID, out, depth+1)
}

func (m *Model) triggerMount(mount *renderer.Mount) tea.Cmd {
	return func() tea.Msg {
		mount.Trigger(m.ctx)
		return outcomeMsg{}
	}
}

func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	if m.activeUID == "" {
		m.viewport.SetContent(statusStyle.Render("No chat selected"))
		return
	}
	var b strings.Builder
	for _, msg := range m.messages {
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func (m *Model) renderMessage(msg *store.ChatMessage) string {
	header := roleUserStyle.Render("you")
	if msg.Role == "assistant" {
		header = roleAssistantStyle.Render("assistant")
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	for _, seg := range m.renderer.Render(msg.Content) {
		switch seg.Kind {
		case renderer.SegmentDirective:
			b.WriteString(m.renderDirective(msg.ID, seg))
		case renderer.SegmentCode:
			b.WriteString(m.renderMarkdown(fmt.Sprintf("```%s\n%s\n```", seg.Language, seg.Text)))
		default:
			b.WriteString(m.renderMarkdown(seg.Text))
		}
	}
	return b.String()
}

// renderDirective shows the fixed executing indicator; the raw directive text
// appears underneath only while the mount is expanded.
func (m *Model) renderDirective(messageID int32, seg renderer.Segment) string {
	mount := m.mounts[messageID]
	label := "⚙ Executing plugin..."
	if mount != nil && mount.State() == renderer.StateSettled {
		label = "✓ Plugin executed"
	}
	out := directiveStyle.Render(label) + "\n"
	if mount != nil && mount.Expanded() {
		out += directiveSourceStyle.Render(seg.Text) + "\n"
	}
	return out
}

func (m *Model) renderMarkdown(text string) string {
	if m.markdown == nil {
		return text + "\n"
	}
	out, err := m.markdown.Render(text)
	if err != nil {
		return text + "\n"
	}
	return out
}
