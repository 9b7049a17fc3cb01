// Package repository provides PostgreSQL-backed persistence for reference
// catalogs, allowing deployments to manage intervention and therapy tables
// centrally instead of shipping them in the config file.
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/smart-cvd-risk-server/internal/domain"
)

// CatalogRepository handles reference-catalog persistence.
type CatalogRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *pgxpool.Pool, logger *logrus.Logger) *CatalogRepository {
	return &CatalogRepository{
		db:  db,
		log: logger,
	}
}

// UpsertIntervention inserts or updates one intervention reference row.
func (r *CatalogRepository) UpsertIntervention(ctx context.Context, entry domain.InterventionEntry) error {
	query := `
		INSERT INTO interventions (name, arr_lifetime, arr_5yr, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (name) DO UPDATE
		SET arr_lifetime = EXCLUDED.arr_lifetime,
		    arr_5yr = EXCLUDED.arr_5yr,
		    updated_at = now()`

	_, err := r.db.Exec(ctx, query, entry.Name, entry.ARRLifetime, entry.ARR5Yr)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"intervention": entry.Name,
			"error":        err,
		}).Error("Failed to upsert intervention")
		return fmt.Errorf("upserting intervention: %w", err)
	}

	return nil
}

// UpsertLDLTherapy inserts or updates one LDL therapy reference row.
func (r *CatalogRepository) UpsertLDLTherapy(ctx context.Context, entry domain.LDLTherapyEntry) error {
	query := `
		INSERT INTO ldl_therapies (name, potency_percent, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET potency_percent = EXCLUDED.potency_percent,
		    updated_at = now()`

	_, err := r.db.Exec(ctx, query, entry.Name, entry.PotencyPercent)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"therapy": entry.Name,
			"error":   err,
		}).Error("Failed to upsert LDL therapy")
		return fmt.Errorf("upserting ldl therapy: %w", err)
	}

	return nil
}

// LoadInterventionCatalog reads the full intervention table into an
// immutable catalog.
func (r *CatalogRepository) LoadInterventionCatalog(ctx context.Context) (*domain.InterventionCatalog, error) {
	rows, err := r.db.Query(ctx, `SELECT name, arr_lifetime, arr_5yr FROM interventions ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying interventions: %w", err)
	}
	defer rows.Close()

	var entries []domain.InterventionEntry
	for rows.Next() {
		var e domain.InterventionEntry
		if err := rows.Scan(&e.Name, &e.ARRLifetime, &e.ARR5Yr); err != nil {
			return nil, fmt.Errorf("scanning intervention row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating intervention rows: %w", err)
	}

	r.log.WithField("count", len(entries)).Info("Loaded intervention catalog from database")
	return domain.NewInterventionCatalog(entries), nil
}

// LoadLDLTherapyCatalog reads the full LDL therapy table into an immutable
// catalog.
func (r *CatalogRepository) LoadLDLTherapyCatalog(ctx context.Context) (*domain.LDLTherapyCatalog, error) {
	rows, err := r.db.Query(ctx, `SELECT name, potency_percent FROM ldl_therapies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying ldl therapies: %w", err)
	}
	defer rows.Close()

	var entries []domain.LDLTherapyEntry
	for rows.Next() {
		var e domain.LDLTherapyEntry
		if err := rows.Scan(&e.Name, &e.PotencyPercent); err != nil {
			return nil, fmt.Errorf("scanning ldl therapy row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ldl therapy rows: %w", err)
	}

	r.log.WithField("count", len(entries)).Info("Loaded LDL therapy catalog from database")
	return domain.NewLDLTherapyCatalog(entries), nil
}

// SeedDefaults writes the compiled-in reference tables into the database.
// Used on first deployment so the tables can be curated afterwards.
func (r *CatalogRepository) SeedDefaults(ctx context.Context) error {
	for _, e := range domain.DefaultInterventions() {
		if err := r.UpsertIntervention(ctx, e); err != nil {
			return err
		}
	}
	for _, e := range domain.DefaultLDLTherapies() {
		if err := r.UpsertLDLTherapy(ctx, e); err != nil {
			return err
		}
	}
	r.log.Info("Seeded default reference catalogs")
	return nil
}
