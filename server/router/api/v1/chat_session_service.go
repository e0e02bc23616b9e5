package v1

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/fruitbox12/zik.sh/store"
)

const defaultSessionTitle = "New Chat"

type sessionRequest struct {
	Title string `json:"title"`
}

type sessionResponse struct {
	ID        int32  `json:"id"`
	UID       string `json:"uid"`
	Title     string `json:"title"`
	CreatedTs int64  `json:"createdTs"`
	UpdatedTs int64  `json:"updatedTs"`
}

type deleteSessionResponse struct {
	// NextUID is where the client should navigate after the delete: the
	// first remaining session, or "" for the neutral no-chat location.
	NextUID string `json:"nextUid"`
}

func toSessionResponse(sess *store.ChatSession) sessionResponse {
	return sessionResponse{
		ID:        sess.ID,
		UID:       sess.UID,
		Title:     sess.Title,
		CreatedTs: sess.CreatedTs,
		UpdatedTs: sess.UpdatedTs,
	}
}

func (s *APIV1Service) listChatSessions(c *echo.Context) error {
	sessions, err := s.Store.ListChatSessions(c.Request().Context(), &store.FindChatSession{})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]sessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		resp = append(resp, toSessionResponse(sess))
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *APIV1Service) createChatSession(c *echo.Context) error {
	var req sessionRequest
	if err := c.Bind(&req); err != nil {
		req.Title = defaultSessionTitle
	}
	if req.Title == "" {
		req.Title = defaultSessionTitle
	}
	sess, err := s.Store.CreateChatSession(c.Request().Context(), &store.ChatSession{
		UID:   uuid.New().String(),
		Title: req.Title,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, toSessionResponse(sess))
}

func (s *APIV1Service) updateChatSession(c *echo.Context) error {
	uid := c.Param("uid")
	sess, err := s.Store.GetChatSession(c.Request().Context(), &store.FindChatSession{UID: &uid})
	if err != nil || sess == nil {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}

	var req sessionRequest
	if err := c.Bind(&req); err != nil || req.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title required")
	}
	updated, err := s.Store.UpdateChatSession(c.Request().Context(), &store.UpdateChatSession{
		ID:    sess.ID,
		Title: &req.Title,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, toSessionResponse(updated))
}

func (s *APIV1Service) deleteChatSession(c *echo.Context) error {
	uid := c.Param("uid")
	ctx := c.Request().Context()

	sess, err := s.Store.GetChatSession(ctx, &store.FindChatSession{UID: &uid})
	if err != nil || sess == nil {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	sessions, err := s.Store.ListChatSessions(ctx, &store.FindChatSession{})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := s.Store.DeleteChatSession(ctx, uid); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, deleteSessionResponse{
		NextUID: store.NextAfterDelete(sessions, uid),
	})
}
