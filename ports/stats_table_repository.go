package ports

import (
	"context"

	"gostats/domain/core"
	"gostats/domain/stats"
)

// StatsTableRepository persists frozen stats tables
type StatsTableRepository interface {
	// SaveTable stores a frozen table with its rows
	SaveTable(ctx context.Context, table *stats.StatsTable) error

	// GetTable loads a table; the result is frozen
	GetTable(ctx context.Context, id core.TableID) (*stats.StatsTable, error)

	// ListTables returns the most recent tables first
	ListTables(ctx context.Context, limit int) ([]TableSummary, error)

	// DeleteTable removes a table and its rows
	DeleteTable(ctx context.Context, id core.TableID) error
}

// TableSummary describes a stored table without its rows
type TableSummary struct {
	ID          core.TableID      `json:"id" db:"id"`
	Test        stats.TestType    `json:"test" db:"test"`
	Compare     stats.CompareMode `json:"compare" db:"compare_mode"`
	Alternative stats.Alternative `json:"alternative" db:"alternative"`
	Rows        int               `json:"rows" db:"row_count"`
	Fingerprint string            `json:"fingerprint" db:"fingerprint"`
	CreatedAt   core.Timestamp    `json:"created_at" db:"created_at"`
}
