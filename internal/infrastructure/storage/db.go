// Package storage is the bun-backed relational store behind C6-C11: the
// hierarchy store, load/bronze-row lineage, version engine, mapping
// engine and audit log all persist through repositories in this package,
// the same bun.IDB-based repository pattern the teacher uses for its
// workflow/execution storage.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	storagemodels "github.com/AltimetrikAI/propelus-taxonomy/internal/infrastructure/storage/models"
)

// Config holds database connection configuration.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	Debug           bool
}

// DefaultConfig returns sensible pool defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxOpenConns:    20,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 10 * time.Minute,
	}
}

// NewDB opens a bun.DB over Postgres, registers every row model, and
// bootstraps the bronze/silver/gold schema (§6 "Persisted state layout").
func NewDB(ctx context.Context, cfg *Config) (*bun.DB, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	connector := pgdriver.NewConnector(
		pgdriver.WithDSN(cfg.DSN),
		pgdriver.WithTimeout(30*time.Second),
		pgdriver.WithDialTimeout(10*time.Second),
		pgdriver.WithReadTimeout(10*time.Second),
		pgdriver.WithWriteTimeout(10*time.Second),
	)
	sqldb := sql.OpenDB(connector)
	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqldb.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	db := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Debug {
		db.WithQueryHook(bundebug.NewQueryHook(
			bundebug.WithVerbose(true),
			bundebug.FromEnv("BUNDEBUG"),
		))
	}
	registerModels(db)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := bootstrapSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}

	return db, nil
}

func registerModels(db *bun.DB) {
	db.RegisterModel(
		(*storagemodels.TaxonomyModel)(nil),
		(*storagemodels.NodeTypeModel)(nil),
		(*storagemodels.AttributeTypeModel)(nil),
		(*storagemodels.NodeModel)(nil),
		(*storagemodels.NodeAttributeModel)(nil),
		(*storagemodels.LoadModel)(nil),
		(*storagemodels.BronzeRowModel)(nil),
		(*storagemodels.TaxonomyVersionModel)(nil),
		(*storagemodels.MappingModel)(nil),
		(*storagemodels.MappingRuleModel)(nil),
		(*storagemodels.MappingRuleAssignmentModel)(nil),
		(*storagemodels.MappingVersionModel)(nil),
		(*storagemodels.ProductionMappingModel)(nil),
		(*storagemodels.AuditLogModel)(nil),
	)
}

// Close releases the underlying connection pool.
func Close(db *bun.DB) error {
	return db.Close()
}

// Ping checks database connectivity.
func Ping(ctx context.Context, db *bun.DB) error {
	return db.PingContext(ctx)
}

// Stats mirrors the teacher's health/metrics endpoint shape.
func Stats(db *bun.DB) sql.DBStats {
	return db.DB.Stats()
}
