package testkit

import (
	"context"
	"sort"
	"sync"

	"gostats/domain/core"
	"gostats/domain/stats"
	"gostats/internal/errors"
	"gostats/ports"
)

// MemoryRepository is an in-process StatsTableRepository for tests and
// database-less runs
type MemoryRepository struct {
	mu     sync.RWMutex
	tables map[core.TableID]*stats.StatsTable
}

// NewMemoryRepository creates an empty repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{tables: make(map[core.TableID]*stats.StatsTable)}
}

var _ ports.StatsTableRepository = (*MemoryRepository)(nil)

// SaveTable stores a frozen table
func (r *MemoryRepository) SaveTable(ctx context.Context, table *stats.StatsTable) error {
	if !table.Frozen() {
		return core.NewSchemaError("table %s is not frozen", table.ID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tables[table.ID]; ok {
		return core.NewSchemaError("table %s already exists", table.ID)
	}
	r.tables[table.ID] = table
	return nil
}

// GetTable returns a stored table
func (r *MemoryRepository) GetTable(ctx context.Context, id core.TableID) (*stats.StatsTable, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	table, ok := r.tables[id]
	if !ok {
		return nil, errors.NotFound("stats table " + id.String())
	}
	return table, nil
}

// ListTables returns summaries, most recent first
func (r *MemoryRepository) ListTables(ctx context.Context, limit int) ([]ports.TableSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit <= 0 {
		limit = 50
	}

	out := make([]ports.TableSummary, 0, len(r.tables))
	for _, t := range r.tables {
		out = append(out, ports.TableSummary{
			ID:          t.ID,
			Test:        t.Test,
			Compare:     t.Compare,
			Alternative: t.Alternative,
			Rows:        t.Len(),
			Fingerprint: t.Fingerprint().String(),
			CreatedAt:   t.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := out[i].CreatedAt.Time(), out[j].CreatedAt.Time()
		if ti.Equal(tj) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return ti.After(tj)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DeleteTable removes a stored table
func (r *MemoryRepository) DeleteTable(ctx context.Context, id core.TableID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tables[id]; !ok {
		return errors.NotFound("stats table " + id.String())
	}
	delete(r.tables, id)
	return nil
}
