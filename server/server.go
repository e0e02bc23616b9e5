// Package server assembles the echo HTTP server over the chat store.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	apiv1 "github.com/fruitbox12/zik.sh/server/router/api/v1"
	"github.com/fruitbox12/zik.sh/server/profile"
	"github.com/fruitbox12/zik.sh/store"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	httpServer *http.Server
}

func NewServer(profile *profile.Profile, store *store.Store) *Server {
	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	apiv1.NewAPIV1Service(profile, store).Register(e)

	addr := fmt.Sprintf("%s:%d", profile.Addr, profile.Port)
	return &Server{
		Profile:    profile,
		Store:      store,
		echoServer: e,
		httpServer: &http.Server{Addr: addr, Handler: e},
	}
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	slog.Info("server started", "addr", s.httpServer.Addr, "driver", s.Profile.Driver, "autoExecute", s.Profile.AutoExecute)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shut down server", "err", err)
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", "err", err)
	}
	slog.Info("server stopped")
}
