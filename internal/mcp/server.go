// Package mcp provides the MCP server implementation.
// This file contains the lightweight server that requires no external databases.
package mcp

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	litecfg "github.com/smart-cvd-risk-server/internal/config"
	"github.com/smart-cvd-risk-server/internal/domain"
	"github.com/smart-cvd-risk-server/internal/history"
	"github.com/smart-cvd-risk-server/internal/service"
)

// LiteServer is a lightweight MCP server that requires no external databases.
// It uses an in-process result cache and SQLite for the evaluation history.
type LiteServer struct {
	config        *litecfg.LiteConfig
	mcpServer     *mcp.Server
	evaluator     *service.Evaluator
	interventions *domain.InterventionCatalog
	ldlTherapies  *domain.LDLTherapyCatalog
	historyStore  history.Store
	logger        *logrus.Logger
}

// LiteServerOption is a functional option for LiteServer.
type LiteServerOption func(*LiteServer) error

// WithHistoryStore sets a custom history store.
func WithHistoryStore(store history.Store) LiteServerOption {
	return func(s *LiteServer) error {
		s.historyStore = store
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *logrus.Logger) LiteServerOption {
	return func(s *LiteServer) error {
		s.logger = logger
		return nil
	}
}

// NewLiteServer creates a new lightweight MCP server instance.
// It requires no external databases: SQLite history plus an in-memory cache.
func NewLiteServer(cfg *litecfg.LiteConfig, opts ...LiteServerOption) (*LiteServer, error) {
	// Create server with default logger
	server := &LiteServer{
		config: cfg,
		logger: logrus.New(),
	}

	// Configure default logger
	if cfg.LogFormat == "text" {
		server.logger.SetFormatter(&logrus.TextFormatter{})
	} else {
		server.logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, _ := logrus.ParseLevel(cfg.LogLevel)
	server.logger.SetLevel(level)

	// Apply options
	for _, opt := range opts {
		if err := opt(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	// Ensure data directory exists
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	// Initialize history store if not provided
	if server.historyStore == nil {
		store, err := history.NewSQLiteStore(cfg.HistoryDBPath())
		if err != nil {
			return nil, fmt.Errorf("failed to create history store: %w", err)
		}
		server.historyStore = store
	}

	// Compiled-in reference tables; the lite server has no config file.
	server.interventions = domain.NewInterventionCatalog(domain.DefaultInterventions())
	server.ldlTherapies = domain.NewLDLTherapyCatalog(domain.DefaultLDLTherapies())

	estimator := service.NewRiskEstimator(server.logger)
	composer := service.NewReductionComposer(server.logger, server.interventions, server.ldlTherapies)

	evaluator, err := service.NewEvaluator(server.logger, estimator, composer,
		service.WithSink(history.NewRecorder(server.historyStore)),
		service.WithResultCache(cfg.CacheMaxEntries),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create evaluator: %w", err)
	}
	server.evaluator = evaluator

	// Create server info
	serverInfo := &mcp.Implementation{
		Name:    "cvd-risk-mcp-server-lite",
		Version: "v0.1.0",
	}

	// Create MCP server
	mcpServer := mcp.NewServer(serverInfo, nil)
	server.mcpServer = mcpServer
	server.registerTools(mcpServer)

	server.logger.Info("Lite server initialized successfully")
	return server, nil
}

// registerTools registers all tools with the MCP SDK.
func (s *LiteServer) registerTools(mcpServer *mcp.Server) {
	tools := []struct {
		name        string
		description string
		handler     mcp.ToolHandler
	}{
		{
			name:        "estimate_risk",
			description: "Estimate baseline 10-year and 5-year cardiovascular event risk from a patient profile using the SMART risk score",
			handler:     s.handleEstimateRisk,
		},
		{
			name:        "compose_final_risk",
			description: "Compose the final cardiovascular risk after applying selected interventions, LDL-C therapy changes and blood pressure control",
			handler:     s.handleComposeFinalRisk,
		},
		{
			name:        "list_interventions",
			description: "List the available risk-reducing interventions with their absolute risk reductions",
			handler:     s.handleListInterventions,
		},
		{
			name:        "list_ldl_therapies",
			description: "List the available LDL-C lowering therapies with their expected potency",
			handler:     s.handleListLDLTherapies,
		},
	}

	for _, t := range tools {
		mcpServer.AddTool(&mcp.Tool{
			Name:        t.name,
			Description: t.description,
			// The SDK requires a non-nil object schema; argument parsing and
			// validation happen in the handlers themselves.
			InputSchema: &jsonschema.Schema{Type: "object"},
		}, t.handler)
		s.logger.WithField("tool_name", t.name).Debug("Registered MCP tool")
	}

	s.logger.WithField("tool_count", len(tools)).Info("Successfully registered all tools")
}

// Start runs the MCP server over stdio until the context is cancelled.
func (s *LiteServer) Start(ctx context.Context) error {
	s.logger.Info("Starting CVD Risk MCP Server (Lite)...")

	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}

	return nil
}

// Close cleans up server resources.
func (s *LiteServer) Close() error {
	if s.historyStore != nil {
		if err := s.historyStore.Close(); err != nil {
			s.logger.WithError(err).Error("Failed to close history store")
		}
	}
	return nil
}

// GetHistoryStore returns the history store for external access.
func (s *LiteServer) GetHistoryStore() history.Store {
	return s.historyStore
}
