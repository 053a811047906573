package migration

import (
	"context"

	"github.com/jmoiron/sqlx"

	"gostats/internal/errors"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Statements returns the DDL in execution order
func (r *MigrationRunner) Statements() []Step {
	return []Step{
		{Name: "stats_tables", SQL: createStatsTables},
		{Name: "pairwise_results", SQL: createPairwiseResults},
		{Name: "indexes", SQL: createIndexes},
	}
}

// Step is one named DDL statement
type Step struct {
	Name string
	SQL  string
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	for _, step := range r.Statements() {
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			return errors.DatabaseError("failed to create "+step.Name, err)
		}
	}
	return nil
}

const createStatsTables = `
	CREATE TABLE IF NOT EXISTS stats_tables (
		id UUID PRIMARY KEY,
		test VARCHAR(32) NOT NULL,
		compare_mode VARCHAR(32) NOT NULL,
		alternative VARCHAR(16) NOT NULL,
		fingerprint VARCHAR(64) NOT NULL,
		row_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)
`

// NaN statistics are stored as NULL
const createPairwiseResults = `
	CREATE TABLE IF NOT EXISTS pairwise_results (
		table_id UUID NOT NULL REFERENCES stats_tables(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		facet_id TEXT NOT NULL DEFAULT '',
		group_a TEXT NOT NULL,
		group_b TEXT NOT NULL,
		n_a INTEGER NOT NULL,
		n_b INTEGER NOT NULL,
		measure_a DOUBLE PRECISION,
		measure_b DOUBLE PRECISION,
		n INTEGER NOT NULL,
		statistic DOUBLE PRECISION,
		p_value DOUBLE PRECISION,
		q_value DOUBLE PRECISION,
		p_value_method VARCHAR(16) NOT NULL,
		effect_size DOUBLE PRECISION,
		degradation VARCHAR(32) NOT NULL DEFAULT '',
		PRIMARY KEY (table_id, position)
	)
`

const createIndexes = `
	CREATE INDEX IF NOT EXISTS idx_stats_tables_created_at ON stats_tables(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_stats_tables_fingerprint ON stats_tables(fingerprint);
	CREATE INDEX IF NOT EXISTS idx_pairwise_results_groups ON pairwise_results(table_id, group_a, group_b)
`
