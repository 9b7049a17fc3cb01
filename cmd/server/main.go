package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/smart-cvd-risk-server/internal/api"
	"github.com/smart-cvd-risk-server/internal/config"
	"github.com/smart-cvd-risk-server/internal/database"
	"github.com/smart-cvd-risk-server/internal/domain"
	"github.com/smart-cvd-risk-server/internal/history"
	"github.com/smart-cvd-risk-server/internal/repository"
	"github.com/smart-cvd-risk-server/internal/service"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := newLogger(cfg.Logging)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Reference catalogs default to configuration (or the compiled-in
	// tables); a database deployment serves them from PostgreSQL instead.
	interventions := configManager.InterventionCatalog()
	ldlTherapies := configManager.LDLTherapyCatalog()

	if cfg.Database.Enabled {
		db, err := database.NewConnection(ctx, cfg.Database, logger)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		migrator, err := database.NewMigrator(configManager.GetDatabaseURL(), cfg.Database.MigrationsPath, logger)
		if err != nil {
			log.Fatalf("Failed to create migrator: %v", err)
		}
		if err := migrator.Up(ctx); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		migrator.Close()

		catalogRepo := repository.NewCatalogRepository(db.Pool, logger)
		dbInterventions, err := catalogRepo.LoadInterventionCatalog(ctx)
		if err != nil {
			log.Fatalf("Failed to load intervention catalog: %v", err)
		}
		if dbInterventions.Len() == 0 {
			// First run against an empty database.
			if err := catalogRepo.SeedDefaults(ctx); err != nil {
				log.Fatalf("Failed to seed reference catalogs: %v", err)
			}
			dbInterventions, err = catalogRepo.LoadInterventionCatalog(ctx)
			if err != nil {
				log.Fatalf("Failed to load intervention catalog: %v", err)
			}
		}
		dbTherapies, err := catalogRepo.LoadLDLTherapyCatalog(ctx)
		if err != nil {
			log.Fatalf("Failed to load LDL therapy catalog: %v", err)
		}

		interventions = dbInterventions
		ldlTherapies = dbTherapies
	}

	// Build the engine
	estimator := service.NewRiskEstimator(logger)
	composer := service.NewReductionComposer(logger, interventions, ldlTherapies)

	var evalOpts []service.EvaluatorOption
	if cfg.Cache.Enabled {
		evalOpts = append(evalOpts, service.WithResultCache(cfg.Cache.MaxEntries))
	}

	var historyStore history.Store
	if cfg.History.Enabled {
		historyStore, err = openHistoryStore(cfg, configManager)
		if err != nil {
			log.Fatalf("Failed to open history store: %v", err)
		}
		defer historyStore.Close()
		evalOpts = append(evalOpts, service.WithSink(history.NewRecorder(historyStore)))
	}

	evaluator, err := service.NewEvaluator(logger, estimator, composer, evalOpts...)
	if err != nil {
		log.Fatalf("Failed to create evaluator: %v", err)
	}

	log.Printf("Starting CVD Risk Server on %s:%d", cfg.Server.Host, cfg.Server.Port)

	// Create server
	serverOpts := []api.ServerOption{api.WithCatalogs(interventions, ldlTherapies)}
	if historyStore != nil {
		serverOpts = append(serverOpts, api.WithHistoryStore(historyStore))
	}
	server := api.NewServer(configManager, evaluator, logger, serverOpts...)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	// Start server
	if err := server.Start(ctx); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}

	log.Println("Server stopped")
}

// openHistoryStore selects the audit-trail backend from configuration.
func openHistoryStore(cfg *domain.Config, configManager *config.Manager) (history.Store, error) {
	if strings.ToLower(cfg.History.Backend) == "postgres" {
		db, err := sql.Open("postgres", configManager.GetDatabaseConnectionString())
		if err != nil {
			return nil, err
		}
		return history.NewPostgresStore(db)
	}
	return history.NewSQLiteStore(cfg.History.SQLitePath)
}

// newLogger builds the application logger from configuration.
func newLogger(cfg domain.LoggingConfig) *logrus.Logger {
	logger := logrus.New()
	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}
