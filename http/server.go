// Package http serves the price estimator and the task priority predictor
// as a JSON API.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"
)

// Server is the dashboard HTTP server.
type Server struct {
	server *http.Server
	config ServerConfig
	logger *zap.Logger
}

type ServerConfig struct {
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string
	MaxUploadBytes int64
}

// DefaultServerConfig listens on 8080 with 15s reads and 60s writes.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:           8080,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    120 * time.Second,
		AllowedOrigins: []string{"*"},
		MaxUploadBytes: 64 << 20,
	}
}

// NewHandler builds the routed, middleware-wrapped handler.
func NewHandler(config ServerConfig) http.Handler {
	mux := http.NewServeMux()
	RegisterHandlers(mux)
	RegisterHousingHandlers(mux)
	RegisterTaskHandlers(mux)

	chain := Chain(
		RecoveryMiddleware,
		LoggerMiddleware,
		SecurityHeadersMiddleware,
		CORSMiddleware(config.AllowedOrigins),
		RequestSizeMiddleware(config.MaxUploadBytes),
	)
	return chain(mux)
}

// NewServer builds the mux and middleware chain; Start begins serving.
func NewServer(config ServerConfig) *Server {
	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			Handler:      NewHandler(config),
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
		config: config,
		logger: logger.Named("server"),
	}
}

// Start blocks until the server stops; a graceful Stop returns nil.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))
	s.logger.Info("websocket endpoint", zap.String("url", fmt.Sprintf("ws://localhost%s/api/ws/tasks", s.server.Addr)))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop shuts down gracefully, waiting up to 5 seconds.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.logger.Info("shutting down HTTP server")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// Addr is the configured listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// CORSMiddleware delegates to rs/cors; "*" in origins allows any origin.
func CORSMiddleware(origins []string) Middleware {
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
	})
	return c.Handler
}
