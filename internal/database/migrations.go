package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"
)

// Migrator applies the schema migrations that create the reference catalog
// tables and the evaluations audit table.
type Migrator struct {
	m   *migrate.Migrate
	log *logrus.Logger
}

// NewMigrator opens the file-based migration source against the given
// database URL.
func NewMigrator(databaseURL, migrationsDir string, logger *logrus.Logger) (*Migrator, error) {
	m, err := migrate.New(fmt.Sprintf("file://%s", migrationsDir), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening migration source %q: %w", migrationsDir, err)
	}
	return &Migrator{m: m, log: logger}, nil
}

// Up applies every pending migration. A database that is already at the
// latest schema is not an error.
func (mg *Migrator) Up(ctx context.Context) error {
	mg.log.Info("Applying schema migrations")

	err := mg.m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		mg.log.Debug("Schema already up to date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}

	mg.logSchemaVersion("Schema migrations applied")
	return nil
}

// Down reverts the most recent migration.
func (mg *Migrator) Down(ctx context.Context) error {
	mg.log.Warn("Reverting most recent schema migration")

	err := mg.m.Steps(-1)
	if errors.Is(err, migrate.ErrNoChange) {
		mg.log.Debug("No migration to revert")
		return nil
	}
	if err != nil {
		return fmt.Errorf("reverting migration: %w", err)
	}

	mg.logSchemaVersion("Schema migration reverted")
	return nil
}

// Version reports the current schema version and whether it is dirty.
func (mg *Migrator) Version() (uint, bool, error) {
	return mg.m.Version()
}

// Close releases the migration source and database handles.
func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	if srcErr != nil {
		return fmt.Errorf("closing migration source: %w", srcErr)
	}
	if dbErr != nil {
		return fmt.Errorf("closing migration database handle: %w", dbErr)
	}
	return nil
}

func (mg *Migrator) logSchemaVersion(msg string) {
	version, dirty, err := mg.m.Version()
	if err != nil {
		mg.log.WithError(err).Warn("Could not read schema version")
		return
	}
	mg.log.WithFields(logrus.Fields{
		"schema_version": version,
		"dirty":          dirty,
	}).Info(msg)
}
