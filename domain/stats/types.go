package stats

import (
	"encoding/json"
	"math"
	"slices"
	"strconv"

	"gostats/domain/core"
)

// ============================================================================
// TYPE DEFINITIONS
// ============================================================================

// TestType defines the hypothesis test performed
type TestType string

const (
	TestMannWhitneyU TestType = "mann-whitney-u" // independent samples
	TestWilcoxonSRT  TestType = "wilcoxon-srt"   // matched samples
)

// CompareMode selects which group pairs are tested
type CompareMode string

const (
	CompareAllPairwise CompareMode = "all-pairwise"
	CompareReference   CompareMode = "reference"
	CompareBaseline    CompareMode = "baseline" // synonym of reference, used for timepoints
	CompareConsecutive CompareMode = "consecutive"
)

// IsAnchored reports whether the mode compares one fixed group against the rest
func (m CompareMode) IsAnchored() bool {
	return m == CompareReference || m == CompareBaseline
}

// Alternative is the alternative hypothesis, phrased as Group A versus Group B
type Alternative string

const (
	TwoSided Alternative = "two-sided"
	Greater  Alternative = "greater" // A tends to be larger than B
	Less     Alternative = "less"    // A tends to be smaller than B
)

// PValueApprox is the caller's request for how p-values are computed
type PValueApprox string

const (
	ApproxAuto       PValueApprox = "auto"
	ApproxExact      PValueApprox = "exact"
	ApproxAsymptotic PValueApprox = "asymptotic"
)

// PValueMethod is the method actually used for a row
type PValueMethod string

const (
	MethodExact      PValueMethod = "exact"
	MethodAsymptotic PValueMethod = "asymptotic"
	MethodNone       PValueMethod = "none" // NaN row, nothing was computed
)

// Degradation records a recoverable condition that changed a row
type Degradation string

const (
	DegradationNone            Degradation = ""
	DegradationExactFallback   Degradation = "exact_fallback"
	DegradationEmptyComparator Degradation = "empty_comparator"
)

// FacetMode selects which nesting axis is decomposed
type FacetMode string

const (
	FacetWithin FacetMode = "within" // split by the outer key, compare inner groups
	FacetAcross FacetMode = "across" // split by the inner group, compare outer keys
)

// Params is the parameter surface shared by every entry point
type Params struct {
	Compare               CompareMode  `json:"compare" validate:"required,oneof=all-pairwise reference baseline consecutive"`
	ReferenceGroup        string       `json:"reference_group,omitempty"`
	Alternative           Alternative  `json:"alternative" validate:"required,oneof=two-sided greater less"`
	PValApprox            PValueApprox `json:"p_val_approx" validate:"required,oneof=auto exact asymptotic"`
	IgnoreEmptyComparator *bool        `json:"ignore_empty_comparator,omitempty"` // nil takes the configured default
	Facet                 FacetMode    `json:"facet,omitempty" validate:"omitempty,oneof=within across"`
}

// IgnoresEmptyComparator reports whether empty comparisons become NaN rows
func (p Params) IgnoresEmptyComparator() bool {
	return p.IgnoreEmptyComparator != nil && *p.IgnoreEmptyComparator
}

// Flag returns a pointer to v, for optional boolean parameters
func Flag(v bool) *bool { return &v }

// DefaultParams returns two-sided, auto, all-pairwise parameters
func DefaultParams() Params {
	return Params{
		Compare:     CompareAllPairwise,
		Alternative: TwoSided,
		PValApprox:  ApproxAuto,
	}
}

// ============================================================================
// RESULTS
// ============================================================================

// PairwiseResult is one row of a stats table
// INVARIANTS:
// - Method == MethodNone iff Statistic and PValue are NaN
// - Degradation == DegradationEmptyComparator implies Method == MethodNone
type PairwiseResult struct {
	FacetID     string       `json:"facet_id,omitempty"`
	GroupA      string       `json:"group_a"`
	GroupB      string       `json:"group_b"`
	NA          int          `json:"n_a"`
	NB          int          `json:"n_b"`
	MeasureA    float64      `json:"measure_a"` // median of group A
	MeasureB    float64      `json:"measure_b"` // median of group B
	N           int          `json:"n"`         // observations (or pairs) entering the test
	Statistic   float64      `json:"statistic"`
	PValue      float64      `json:"p_value"`
	QValue      float64      `json:"q_value"` // Benjamini-Hochberg within the table
	Method      PValueMethod `json:"p_value_method"`
	EffectSize  float64      `json:"effect_size"` // rank-biserial correlation
	Degradation Degradation  `json:"degradation,omitempty"`
}

// IsNaN reports whether the row carries no test result
func (r PairwiseResult) IsNaN() bool {
	return r.Method == MethodNone
}

// MarshalJSON writes NaN floats as null
func (r PairwiseResult) MarshalJSON() ([]byte, error) {
	type alias PairwiseResult
	return json.Marshal(struct {
		alias
		MeasureA   *float64 `json:"measure_a"`
		MeasureB   *float64 `json:"measure_b"`
		Statistic  *float64 `json:"statistic"`
		PValue     *float64 `json:"p_value"`
		QValue     *float64 `json:"q_value"`
		EffectSize *float64 `json:"effect_size"`
	}{
		alias:      alias(r),
		MeasureA:   nullable(r.MeasureA),
		MeasureB:   nullable(r.MeasureB),
		Statistic:  nullable(r.Statistic),
		PValue:     nullable(r.PValue),
		QValue:     nullable(r.QValue),
		EffectSize: nullable(r.EffectSize),
	})
}

// UnmarshalJSON reads null floats back as NaN
func (r *PairwiseResult) UnmarshalJSON(data []byte) error {
	type alias PairwiseResult
	aux := struct {
		*alias
		MeasureA   *float64 `json:"measure_a"`
		MeasureB   *float64 `json:"measure_b"`
		Statistic  *float64 `json:"statistic"`
		PValue     *float64 `json:"p_value"`
		QValue     *float64 `json:"q_value"`
		EffectSize *float64 `json:"effect_size"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.MeasureA = orNaN(aux.MeasureA)
	r.MeasureB = orNaN(aux.MeasureB)
	r.Statistic = orNaN(aux.Statistic)
	r.PValue = orNaN(aux.PValue)
	r.QValue = orNaN(aux.QValue)
	r.EffectSize = orNaN(aux.EffectSize)
	return nil
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// ============================================================================
// STATS TABLE
// ============================================================================

// StatsTable is an append-only sequence of rows plus metadata. Once frozen it
// rejects further appends; downstream consumers only read it.
type StatsTable struct {
	ID          core.TableID   `json:"id"`
	Test        TestType       `json:"test"`
	Compare     CompareMode    `json:"compare"`
	Alternative Alternative    `json:"alternative"`
	CreatedAt   core.Timestamp `json:"created_at"`

	rows   []PairwiseResult
	frozen bool
}

// NewStatsTable creates an empty, writable table
func NewStatsTable(test TestType, compare CompareMode, alternative Alternative) *StatsTable {
	return &StatsTable{
		ID:          core.NewTableID(),
		Test:        test,
		Compare:     compare,
		Alternative: alternative,
		CreatedAt:   core.Now(),
	}
}

// RestoreStatsTable rebuilds a frozen table from stored parts
func RestoreStatsTable(id core.TableID, test TestType, compare CompareMode, alternative Alternative, createdAt core.Timestamp, rows []PairwiseResult) (*StatsTable, error) {
	if test != TestMannWhitneyU && test != TestWilcoxonSRT {
		return nil, core.NewSchemaError("unknown test %q", test)
	}
	owned := make([]PairwiseResult, len(rows))
	copy(owned, rows)
	return &StatsTable{
		ID:          id,
		Test:        test,
		Compare:     compare,
		Alternative: alternative,
		CreatedAt:   createdAt,
		rows:        owned,
		frozen:      true,
	}, nil
}

// Append adds a row; fails once the table is frozen
func (t *StatsTable) Append(rows ...PairwiseResult) error {
	if t.frozen {
		return core.NewSchemaError("stats table %s is frozen", t.ID)
	}
	t.rows = append(t.rows, rows...)
	return nil
}

// Freeze makes the table read-only
func (t *StatsTable) Freeze() *StatsTable {
	t.frozen = true
	return t
}

// Frozen reports whether the table is read-only
func (t *StatsTable) Frozen() bool { return t.frozen }

// Len returns the number of rows
func (t *StatsTable) Len() int { return len(t.rows) }

// Rows returns a copy of the rows
func (t *StatsTable) Rows() []PairwiseResult {
	out := make([]PairwiseResult, len(t.rows))
	copy(out, t.rows)
	return out
}

// Columns returns the column schema of the table. Tables from different
// tests differ in their statistic column.
func (t *StatsTable) Columns() []string {
	return ColumnsFor(t.Test)
}

// ColumnsFor returns the column schema produced by a test
func ColumnsFor(test TestType) []string {
	statistic := "test-statistic"
	switch test {
	case TestMannWhitneyU:
		statistic = "test-statistic:U"
	case TestWilcoxonSRT:
		statistic = "test-statistic:W"
	}
	return []string{
		"facet", "Group A", "Group B",
		"A:group_n", "A:measure", "B:group_n", "B:measure",
		"n", statistic, "p-value", "q-value",
		"effect-size", "p-value-method", "degradation",
	}
}

// Fingerprint hashes the table's test, comparison and rows
func (t *StatsTable) Fingerprint() core.Hash {
	fields := []string{string(t.Test), string(t.Compare), string(t.Alternative)}
	for _, r := range t.rows {
		fields = append(fields, FormatRow(r)...)
	}
	return core.HashFields(fields...)
}

// FormatRow renders a row in column order. NaN renders as "NaN".
func FormatRow(r PairwiseResult) []string {
	return []string{
		r.FacetID, r.GroupA, r.GroupB,
		strconv.Itoa(r.NA), FormatFloat(r.MeasureA),
		strconv.Itoa(r.NB), FormatFloat(r.MeasureB),
		strconv.Itoa(r.N), FormatFloat(r.Statistic),
		FormatFloat(r.PValue), FormatFloat(r.QValue),
		FormatFloat(r.EffectSize), string(r.Method), string(r.Degradation),
	}
}

// FormatFloat renders v with full precision
func FormatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

type tableJSON struct {
	ID          core.TableID     `json:"id"`
	Test        TestType         `json:"test"`
	Compare     CompareMode      `json:"compare"`
	Alternative Alternative      `json:"alternative"`
	CreatedAt   core.Timestamp   `json:"created_at"`
	Columns     []string         `json:"columns"`
	Rows        []PairwiseResult `json:"rows"`
}

// MarshalJSON includes the rows and the column schema
func (t *StatsTable) MarshalJSON() ([]byte, error) {
	rows := t.rows
	if rows == nil {
		rows = []PairwiseResult{}
	}
	return json.Marshal(tableJSON{
		ID:          t.ID,
		Test:        t.Test,
		Compare:     t.Compare,
		Alternative: t.Alternative,
		CreatedAt:   t.CreatedAt,
		Columns:     t.Columns(),
		Rows:        rows,
	})
}

// UnmarshalJSON restores a frozen table
func (t *StatsTable) UnmarshalJSON(data []byte) error {
	var aux tableJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	restored, err := RestoreStatsTable(aux.ID, aux.Test, aux.Compare, aux.Alternative, aux.CreatedAt, aux.Rows)
	if err != nil {
		return err
	}
	if aux.Columns != nil && !slices.Equal(aux.Columns, restored.Columns()) {
		return core.NewSchemaMismatchError("columns %v do not match test %s", aux.Columns, aux.Test)
	}
	*t = *restored
	return nil
}
