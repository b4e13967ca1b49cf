package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/feral-file/ff-market-indexer/internal/api/middleware"
	"github.com/feral-file/ff-market-indexer/internal/api/rest"
	"github.com/feral-file/ff-market-indexer/internal/api/shared/executor"
	"github.com/feral-file/ff-market-indexer/internal/logger"
	"github.com/feral-file/ff-market-indexer/internal/metadata"
	"github.com/feral-file/ff-market-indexer/internal/store"
)

// Config holds the server configuration
type Config struct {
	Debug        bool
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	CORSOrigins  []string
}

// Server wraps the HTTP server
type Server struct {
	config     Config
	store      store.Store
	metadata   metadata.Registry
	hasher     *metadata.Hasher
	httpServer *http.Server
}

// New creates a new API server
func New(cfg Config, store store.Store, registry metadata.Registry, hasher *metadata.Hasher) *Server {
	return &Server{
		config:   cfg,
		store:    store,
		metadata: registry,
		hasher:   hasher,
	}
}

// Router builds the gin engine with middleware and routes
func (s *Server) Router() *gin.Engine {
	if s.config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.SetupCORS(s.config.CORSOrigins))

	exec := executor.NewExecutor(s.store, s.metadata, s.hasher)
	rest.SetupRoutes(router, rest.NewHandler(exec))

	return router
}

// Start initializes and starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	logger.Info("Starting API server",
		zap.String("address", addr),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down API server")

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}

	return nil
}
