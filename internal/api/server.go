package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Server timeouts.
const (
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

// Server is the HTTP server for the read API.
type Server struct {
	router *gin.Engine
	server *http.Server
	logger *slog.Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets the logger used by the server and its middleware.
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a server listening on addr.
func NewServer(addr string, searcher Searcher, opts ...ServerOption) *Server {
	s := &Server{}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.router = NewRouter(searcher, s.logger)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       DefaultReadTimeout,
		ReadHeaderTimeout: DefaultReadTimeout,
		WriteTimeout:      DefaultWriteTimeout,
		IdleTimeout:       DefaultIdleTimeout,
	}
	return s
}

// Handler returns the HTTP handler, for use with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Listen opens the TCP listener for the configured address.
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}
	return ln, nil
}

// Serve serves on ln until Shutdown. A clean shutdown returns nil.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("starting HTTP server", "address", ln.Addr().String())

	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server, waiting at most DefaultShutdownTimeout.
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, DefaultShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}
