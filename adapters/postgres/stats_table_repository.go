package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"math"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"gostats/domain/core"
	"gostats/domain/stats"
	"gostats/internal/errors"
	"gostats/ports"
)

// StatsTableRepositoryImpl implements StatsTableRepository for PostgreSQL
type StatsTableRepositoryImpl struct {
	db *sqlx.DB
}

// NewStatsTableRepository creates a new PostgreSQL stats table repository
func NewStatsTableRepository(db *sqlx.DB) ports.StatsTableRepository {
	return &StatsTableRepositoryImpl{db: db}
}

// tableRecord is the stats_tables row
type tableRecord struct {
	ID          string    `db:"id"`
	Test        string    `db:"test"`
	Compare     string    `db:"compare_mode"`
	Alternative string    `db:"alternative"`
	Fingerprint string    `db:"fingerprint"`
	RowCount    int       `db:"row_count"`
	CreatedAt   time.Time `db:"created_at"`
}

// resultRecord is the pairwise_results row. NaN floats map to NULL.
type resultRecord struct {
	TableID     string          `db:"table_id"`
	Position    int             `db:"position"`
	FacetID     string          `db:"facet_id"`
	GroupA      string          `db:"group_a"`
	GroupB      string          `db:"group_b"`
	NA          int             `db:"n_a"`
	NB          int             `db:"n_b"`
	MeasureA    sql.NullFloat64 `db:"measure_a"`
	MeasureB    sql.NullFloat64 `db:"measure_b"`
	N           int             `db:"n"`
	Statistic   sql.NullFloat64 `db:"statistic"`
	PValue      sql.NullFloat64 `db:"p_value"`
	QValue      sql.NullFloat64 `db:"q_value"`
	Method      string          `db:"p_value_method"`
	EffectSize  sql.NullFloat64 `db:"effect_size"`
	Degradation string          `db:"degradation"`
}

// SaveTable stores a frozen table and its rows in one transaction
func (r *StatsTableRepositoryImpl) SaveTable(ctx context.Context, table *stats.StatsTable) error {
	if table == nil || !table.Frozen() {
		return core.NewSchemaError("only frozen stats tables can be saved")
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO stats_tables (id, test, compare_mode, alternative, fingerprint, row_count, created_at)
		VALUES (:id, :test, :compare_mode, :alternative, :fingerprint, :row_count, :created_at)`,
		toTableRecord(table))
	if err != nil {
		var pqErr *pq.Error
		if stderrors.As(err, &pqErr) && pqErr.Code == "23505" {
			return core.NewSchemaError("stats table %s already exists", table.ID)
		}
		return errors.DatabaseError("failed to insert stats table", err)
	}

	if records := toResultRecords(table); len(records) > 0 {
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO pairwise_results (
				table_id, position, facet_id, group_a, group_b, n_a, n_b, measure_a, measure_b,
				n, statistic, p_value, q_value, p_value_method, effect_size, degradation
			) VALUES (
				:table_id, :position, :facet_id, :group_a, :group_b, :n_a, :n_b, :measure_a, :measure_b,
				:n, :statistic, :p_value, :q_value, :p_value_method, :effect_size, :degradation
			)`, records)
		if err != nil {
			return errors.DatabaseError("failed to insert pairwise results", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("failed to commit stats table", err)
	}
	return nil
}

// GetTable loads a table by ID
func (r *StatsTableRepositoryImpl) GetTable(ctx context.Context, id core.TableID) (*stats.StatsTable, error) {
	var rec tableRecord
	err := r.db.GetContext(ctx, &rec, `
		SELECT id, test, compare_mode, alternative, fingerprint, row_count, created_at
		FROM stats_tables
		WHERE id = $1`, id.String())
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("stats table " + id.String())
	}
	if err != nil {
		return nil, errors.DatabaseError("failed to load stats table", err)
	}

	var records []resultRecord
	err = r.db.SelectContext(ctx, &records, `
		SELECT table_id, position, facet_id, group_a, group_b, n_a, n_b, measure_a, measure_b,
			   n, statistic, p_value, q_value, p_value_method, effect_size, degradation
		FROM pairwise_results
		WHERE table_id = $1
		ORDER BY position`, id.String())
	if err != nil {
		return nil, errors.DatabaseError("failed to load pairwise results", err)
	}

	return fromRecords(rec, records)
}

// ListTables returns table summaries, newest first
func (r *StatsTableRepositoryImpl) ListTables(ctx context.Context, limit int) ([]ports.TableSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	var recs []tableRecord
	err := r.db.SelectContext(ctx, &recs, `
		SELECT id, test, compare_mode, alternative, fingerprint, row_count, created_at
		FROM stats_tables
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, errors.DatabaseError("failed to list stats tables", err)
	}

	summaries := make([]ports.TableSummary, len(recs))
	for i, rec := range recs {
		summaries[i] = ports.TableSummary{
			ID:          core.TableID(rec.ID),
			Test:        stats.TestType(rec.Test),
			Compare:     stats.CompareMode(rec.Compare),
			Alternative: stats.Alternative(rec.Alternative),
			Rows:        rec.RowCount,
			Fingerprint: rec.Fingerprint,
			CreatedAt:   core.NewTimestamp(rec.CreatedAt),
		}
	}
	return summaries, nil
}

// DeleteTable removes a table; rows cascade
func (r *StatsTableRepositoryImpl) DeleteTable(ctx context.Context, id core.TableID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM stats_tables WHERE id = $1`, id.String())
	if err != nil {
		return errors.DatabaseError("failed to delete stats table", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.NotFound("stats table " + id.String())
	}
	return nil
}

func toTableRecord(t *stats.StatsTable) tableRecord {
	created := t.CreatedAt.Time()
	if created.IsZero() {
		created = time.Now().UTC()
	}
	return tableRecord{
		ID:          t.ID.String(),
		Test:        string(t.Test),
		Compare:     string(t.Compare),
		Alternative: string(t.Alternative),
		Fingerprint: string(t.Fingerprint()),
		RowCount:    t.Len(),
		CreatedAt:   created,
	}
}

func toResultRecords(t *stats.StatsTable) []resultRecord {
	rows := t.Rows()
	records := make([]resultRecord, len(rows))
	for i, row := range rows {
		records[i] = resultRecord{
			TableID:     t.ID.String(),
			Position:    i,
			FacetID:     row.FacetID,
			GroupA:      row.GroupA,
			GroupB:      row.GroupB,
			NA:          row.NA,
			NB:          row.NB,
			MeasureA:    nullFloat(row.MeasureA),
			MeasureB:    nullFloat(row.MeasureB),
			N:           row.N,
			Statistic:   nullFloat(row.Statistic),
			PValue:      nullFloat(row.PValue),
			QValue:      nullFloat(row.QValue),
			Method:      string(row.Method),
			EffectSize:  nullFloat(row.EffectSize),
			Degradation: string(row.Degradation),
		}
	}
	return records
}

func fromRecords(rec tableRecord, records []resultRecord) (*stats.StatsTable, error) {
	rows := make([]stats.PairwiseResult, len(records))
	for i, r := range records {
		rows[i] = stats.PairwiseResult{
			FacetID:     r.FacetID,
			GroupA:      r.GroupA,
			GroupB:      r.GroupB,
			NA:          r.NA,
			NB:          r.NB,
			MeasureA:    floatOrNaN(r.MeasureA),
			MeasureB:    floatOrNaN(r.MeasureB),
			N:           r.N,
			Statistic:   floatOrNaN(r.Statistic),
			PValue:      floatOrNaN(r.PValue),
			QValue:      floatOrNaN(r.QValue),
			Method:      stats.PValueMethod(r.Method),
			EffectSize:  floatOrNaN(r.EffectSize),
			Degradation: stats.Degradation(r.Degradation),
		}
	}
	return stats.RestoreStatsTable(
		core.TableID(rec.ID),
		stats.TestType(rec.Test),
		stats.CompareMode(rec.Compare),
		stats.Alternative(rec.Alternative),
		core.NewTimestamp(rec.CreatedAt),
		rows,
	)
}

func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
