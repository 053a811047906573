package stages

import (
	"errors"
	"fmt"
	"math"
	"sort"

	mstats "github.com/montanaflynn/stats"

	"gostats/adapters/stats/compare"
	"gostats/adapters/stats/hypotheses"
	"gostats/domain/core"
	"gostats/domain/distribution"
	"gostats/domain/stats"
	"gostats/internal"
)

// Performance guardrails
const (
	MaxGroups = 2000
	MaxPairs  = 500000
)

// PairwiseStage builds a stats table by running one test per resolved pair
type PairwiseStage struct {
	logger *internal.Logger
}

// NewPairwiseStage creates a new pairwise stage
func NewPairwiseStage(logger *internal.Logger) *PairwiseStage {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &PairwiseStage{logger: logger}
}

// Build runs test over every pair and returns a frozen table.
//
// Group A is always read from dist. Group B is read from against when it is
// non-nil, otherwise from dist. A pair with nothing to compare becomes a NaN
// row when params.IgnoresEmptyComparator() holds and aborts the build
// otherwise.
func (s *PairwiseStage) Build(dist, against *distribution.Distribution, pairs []compare.Pair, test stats.TestType, params stats.Params) (*stats.StatsTable, error) {
	if dist == nil {
		return nil, core.NewSchemaError("no distribution to test")
	}
	if err := stats.CheckCompatibility(test, dist.Tags(), params.Compare); err != nil {
		return nil, err
	}
	if against != nil {
		if err := stats.CheckCompatibility(test, against.Tags(), stats.CompareAllPairwise); err != nil {
			return nil, fmt.Errorf("against_each: %w", err)
		}
	}
	if n := len(dist.Groups()); n > MaxGroups {
		return nil, core.NewSchemaError("too many groups: %d > %d", n, MaxGroups)
	}
	if len(pairs) > MaxPairs {
		return nil, core.NewSchemaError("too many group pairs: %d > %d", len(pairs), MaxPairs)
	}

	comparator := dist
	if against != nil {
		comparator = against
	}

	table := stats.NewStatsTable(test, params.Compare, params.Alternative)
	rows := make([]stats.PairwiseResult, 0, len(pairs))

	for _, pair := range pairs {
		row, err := s.buildRow(dist, comparator, pair, test, params)
		if err != nil {
			return nil, fmt.Errorf("%s vs %s: %w", pair.A, pair.B, err)
		}
		rows = append(rows, row)
	}

	s.applyFDRCorrection(rows)

	if err := table.Append(rows...); err != nil {
		return nil, err
	}
	s.logger.Debug("[PairwiseStage] %s: %d rows (%s, %s)", test, len(rows), params.Compare, params.Alternative)
	return table.Freeze(), nil
}

func (s *PairwiseStage) buildRow(dist, comparator *distribution.Distribution, pair compare.Pair, test stats.TestType, params stats.Params) (stats.PairwiseResult, error) {
	valuesA, err := dist.ValuesFor(pair.A)
	if err != nil {
		return stats.PairwiseResult{}, err
	}
	valuesB, err := comparator.ValuesFor(pair.B)
	if err != nil {
		return stats.PairwiseResult{}, err
	}

	row := stats.PairwiseResult{
		GroupA:   pair.A,
		GroupB:   pair.B,
		NA:       len(valuesA),
		NB:       len(valuesB),
		MeasureA: median(valuesA),
		MeasureB: median(valuesB),
	}

	var outcome hypotheses.Outcome
	switch test {
	case stats.TestMannWhitneyU:
		if len(valuesA) == 0 || len(valuesB) == 0 {
			if !params.IgnoresEmptyComparator() {
				return row, core.NewSchemaError("group %q or %q has no observations", pair.A, pair.B)
			}
			outcome = s.emptyOutcome(pair)
			break
		}
		outcome, err = hypotheses.MannWhitneyU(valuesA, valuesB, params.Alternative, params.PValApprox)

	case stats.TestWilcoxonSRT:
		var paired []distribution.PairedValue
		paired, err = pairedValues(dist, comparator, pair)
		if errors.Is(err, core.ErrInsufficientPairing) && params.IgnoresEmptyComparator() {
			outcome, err = s.emptyOutcome(pair), nil
			break
		}
		if err != nil {
			return row, err
		}
		outcome, err = hypotheses.WilcoxonSRT(paired, params.Alternative, params.PValApprox)

	default:
		return row, core.NewInvalidComparisonError("unknown test %q", test)
	}
	if err != nil {
		return row, err
	}

	if outcome.Degradation == stats.DegradationExactFallback {
		s.logger.Warn("[PairwiseStage] %s vs %s: exact p-value unavailable, used %s", pair.A, pair.B, outcome.Method)
	}

	row.N = outcome.N
	row.Statistic = outcome.Statistic
	row.PValue = outcome.PValue
	row.QValue = math.NaN()
	row.Method = outcome.Method
	row.EffectSize = outcome.EffectSize
	row.Degradation = outcome.Degradation
	return row, nil
}

func (s *PairwiseStage) emptyOutcome(pair compare.Pair) hypotheses.Outcome {
	s.logger.Warn("[PairwiseStage] %s vs %s: nothing to compare, recording NaN row", pair.A, pair.B)
	return hypotheses.EmptyOutcome()
}

// pairedValues aligns subjects of a in dist with subjects of b in comparator
func pairedValues(dist, comparator *distribution.Distribution, pair compare.Pair) ([]distribution.PairedValue, error) {
	if dist == comparator {
		return dist.PairedValuesFor(pair.A, pair.B)
	}

	// across two distributions: join on subject by hand
	byA := make(map[string]float64)
	for _, r := range dist.Records() {
		if r.Group == pair.A {
			byA[r.Subject] = r.Value
		}
	}
	var out []distribution.PairedValue
	for _, r := range comparator.Records() {
		if r.Group != pair.B {
			continue
		}
		if v, ok := byA[r.Subject]; ok {
			out = append(out, distribution.PairedValue{Subject: r.Subject, A: v, B: r.Value})
		}
	}
	if len(out) == 0 {
		return nil, core.NewInsufficientPairingError(pair.A, pair.B)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Subject < out[j].Subject })
	return out, nil
}

// applyFDRCorrection writes Benjamini-Hochberg q-values over the table's non-NaN p-values
func (s *PairwiseStage) applyFDRCorrection(rows []stats.PairwiseResult) {
	pValues := make([]float64, len(rows))
	for i, r := range rows {
		pValues[i] = r.PValue
	}
	for i, q := range hypotheses.BenjaminiHochberg(pValues) {
		rows[i].QValue = q
	}
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	m, err := mstats.Median(values)
	if err != nil {
		return math.NaN()
	}
	return m
}
