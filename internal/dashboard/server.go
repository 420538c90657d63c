// Package dashboard is the local HTTP server the browser UI talks to. It
// never proxies raw backend responses; everything is served from the
// daemon's reconciled state.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/crosswatch/dashd/internal/dashboard/middleware"
)

type Server struct {
	config *ServerConfig
	server *http.Server
}

func NewServer(config *ServerConfig, deps *Deps) (*Server, error) {
	routes := SetupRoutes(deps, &RouteConfig{
		Auth: middleware.TokenAuthConfig{
			Token: config.AuthToken,
		},
	})

	httpServer := &http.Server{
		Addr:    config.Addr,
		Handler: routes,
		// Timeouts to prevent slow client attacks. Write stays generous
		// because SSE and WebSocket connections are long-lived.
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}

	return &Server{
		config: config,
		server: httpServer,
	}, nil
}

func (s *Server) Start(ctx context.Context) error {
	slog.Info("dashboard start", "addr", fmt.Sprintf("http://%s", s.config.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	slog.Info("dashboard stop")
	return s.server.Shutdown(ctx)
}
