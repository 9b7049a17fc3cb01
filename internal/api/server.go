// Package api exposes the risk engine over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/smart-cvd-risk-server/internal/config"
	"github.com/smart-cvd-risk-server/internal/domain"
	"github.com/smart-cvd-risk-server/internal/history"
	"github.com/smart-cvd-risk-server/internal/middleware"
	"github.com/smart-cvd-risk-server/internal/service"
)

// Server hosts the risk estimation and evaluation endpoints.
type Server struct {
	configManager *config.Manager
	evaluator     *service.Evaluator
	interventions *domain.InterventionCatalog
	ldlTherapies  *domain.LDLTherapyCatalog
	historyStore  history.Store
	log           *logrus.Logger
	router        *gin.Engine
	server        *http.Server
}

// ServerOption configures optional server collaborators.
type ServerOption func(*Server)

// WithHistoryStore attaches an evaluation history store, enabling the
// retrieval endpoint.
func WithHistoryStore(store history.Store) ServerOption {
	return func(s *Server) {
		s.historyStore = store
	}
}

// WithCatalogs overrides the reference tables exposed by the catalog
// endpoints, keeping them consistent with database-loaded catalogs.
func WithCatalogs(interventions *domain.InterventionCatalog, ldlTherapies *domain.LDLTherapyCatalog) ServerOption {
	return func(s *Server) {
		s.interventions = interventions
		s.ldlTherapies = ldlTherapies
	}
}

// NewServer wires the router, middleware chain and handlers. Catalogs
// default to the configuration tables unless WithCatalogs overrides them.
func NewServer(configManager *config.Manager, evaluator *service.Evaluator, logger *logrus.Logger, opts ...ServerOption) *Server {
	cfg := configManager.GetConfig()

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.AuditLogger())
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CorrelationID())
	router.Use(corsMiddleware())
	router.Use(middleware.RateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst))

	server := &Server{
		configManager: configManager,
		evaluator:     evaluator,
		interventions: configManager.InterventionCatalog(),
		ldlTherapies:  configManager.LDLTherapyCatalog(),
		log:           logger,
		router:        router,
	}

	for _, opt := range opts {
		opt(server)
	}

	server.setupRoutes()
	return server
}

// Router exposes the underlying gin engine, primarily for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.log.Info("Shutting down HTTP server")
	return s.server.Shutdown(shutdownCtx)
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/estimate", s.handleEstimate)
		v1.POST("/evaluate", s.handleEvaluate)
		v1.GET("/catalog/interventions", s.handleListInterventions)
		v1.GET("/catalog/ldl-therapies", s.handleListLDLTherapies)
		v1.GET("/evaluation/:id", s.handleGetEvaluation)
	}
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-Correlation-ID")
		c.Header("Access-Control-Expose-Headers", "Content-Length, X-Correlation-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
