// Package v1 is the HTTP API of the chat client: session CRUD, the message
// ingress, and the directive auto-execution pipeline behind it.
package v1

import (
	"github.com/labstack/echo/v5"

	"github.com/fruitbox12/zik.sh/plugin/renderer"
	"github.com/fruitbox12/zik.sh/plugin/toolcall"
	"github.com/fruitbox12/zik.sh/server/profile"
	"github.com/fruitbox12/zik.sh/store"
)

type APIV1Service struct {
	Profile  *profile.Profile
	Store    *store.Store
	Renderer *renderer.Renderer
	Registry toolcall.Registry
}

func NewAPIV1Service(profile *profile.Profile, store *store.Store) *APIV1Service {
	return &APIV1Service{
		Profile:  profile,
		Store:    store,
		Renderer: renderer.New(),
		Registry: toolcall.NewRegistry(toolcall.NewExecutor()),
	}
}

// Register mounts all /api/v1 routes.
func (s *APIV1Service) Register(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.GET("/chats", s.listChatSessions)
	g.POST("/chats", s.createChatSession)
	g.PATCH("/chats/:uid", s.updateChatSession)
	g.DELETE("/chats/:uid", s.deleteChatSession)
	g.GET("/chats/:uid/messages", s.listChatMessages)
	g.POST("/chats/:uid/messages", s.createChatMessage)
}
