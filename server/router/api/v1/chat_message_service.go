package v1

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v5"

	"github.com/fruitbox12/zik.sh/plugin/renderer"
	"github.com/fruitbox12/zik.sh/plugin/toolcall"
	"github.com/fruitbox12/zik.sh/store"
)

const (
	// maxExecutionDepth caps how many times outcome text may itself carry a
	// directive and re-enter the pipeline.
	maxExecutionDepth = 6

	// autoTitleLimit bounds the title derived from the first user message.
	autoTitleLimit = 48
)

type messageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	ID        int32  `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedTs int64  `json:"createdTs"`
}

func (s *APIV1Service) listChatMessages(c *echo.Context) error {
	uid := c.Param("uid")
	sess, err := s.Store.GetChatSession(c.Request().Context(), &store.FindChatSession{UID: &uid})
	if err != nil || sess == nil {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	msgs, err := s.Store.ListChatMessages(c.Request().Context(), &store.FindChatMessage{
		SessionID: sess.ID,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		resp = append(resp, messageResponse{
			ID:        m.ID,
			Role:      m.Role,
			Content:   m.Content,
			CreatedTs: m.CreatedTs,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

// createChatMessage is the sole ingress for new conversation content: the
// manual send control and the executor outcome callback both land here.
func (s *APIV1Service) createChatMessage(c *echo.Context) error {
	uid := c.Param("uid")
	ctx := c.Request().Context()

	sess, err := s.Store.GetChatSession(ctx, &store.FindChatSession{UID: &uid})
	if err != nil || sess == nil {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}

	var req messageRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content required")
	}
	if req.Role == "" {
		req.Role = "user"
	}
	if req.Role != "user" && req.Role != "assistant" {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown role "+req.Role)
	}

	if req.Role == "user" && sess.Title == defaultSessionTitle {
		if existing, err := s.Store.ListChatMessages(ctx, &store.FindChatMessage{SessionID: sess.ID}); err == nil && len(existing) == 0 {
			s.autoTitleSession(ctx, sess, req.Content)
		}
	}

	msg, err := s.Store.CreateChatMessage(ctx, &store.CreateChatMessage{
		SessionID: sess.ID,
		Role:      req.Role,
		Content:   req.Content,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if req.Role == "assistant" && s.Profile.AutoExecute {
		s.executeDirectives(ctx, sess, req.Content, 0)
	}

	return c.JSON(http.StatusCreated, messageResponse{
		ID:        msg.ID,
		Role:      msg.Role,
		Content:   msg.Content,
		CreatedTs: msg.CreatedTs,
	})
}

// executeDirectives runs the first directive block found in content, exactly
// once, and appends the outcome back to the conversation. The outcome is
// scanned again so a directive-carrying outcome re-enters the pipeline, up to
// maxExecutionDepth.
func (s *APIV1Service) executeDirectives(ctx context.Context, sess *store.ChatSession, content string, depth int) {
	if depth >= maxExecutionDepth {
		slog.Warn("directive execution depth exceeded", "session", sess.UID, "depth", depth)
		return
	}
	directives := s.Renderer.Directives(content)
	if len(directives) == 0 {
		return
	}

	mount := renderer.NewMount(directives[0],
		func(ctx context.Context, raw string) string {
			return s.Registry.Dispatch(ctx, toolcall.ToolName, raw)
		},
		func(text string) {
			if _, err := s.Store.CreateChatMessage(ctx, &store.CreateChatMessage{
				SessionID: sess.ID,
				Role:      "user",
				Content:   text,
			}); err != nil {
				slog.Error("failed to persist directive outcome", "session", sess.UID, "err", err)
				return
			}
			s.executeDirectives(ctx, sess, text, depth+1)
		},
	)
	mount.Trigger(ctx)
}

// autoTitleSession derives a session title from the first line of the first
// user message.
func (s *APIV1Service) autoTitleSession(ctx context.Context, sess *store.ChatSession, firstMessage string) {
	title := strings.TrimSpace(firstMessage)
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = title[:i]
	}
	if runes := []rune(title); len(runes) > autoTitleLimit {
		title = string(runes[:autoTitleLimit])
	}
	if title == "" {
		return
	}
	updated, err := s.Store.UpdateChatSession(ctx, &store.UpdateChatSession{ID: sess.ID, Title: &title})
	if err != nil {
		slog.Warn("auto-title failed", "session", sess.UID, "err", err)
		return
	}
	sess.Title = updated.Title
}
