package stats

import (
	"gostats/domain/core"
	"gostats/domain/distribution"
)

// CheckCompatibility validates that test and compare can run on a
// single-level distribution with the given tags.
func CheckCompatibility(test TestType, tags distribution.Tags, compare CompareMode) error {
	if tags.IsFaceted() {
		return core.NewInvalidComparisonError("%s must be faceted before running %s", tags, test)
	}

	switch test {
	case TestMannWhitneyU:
		if tags.IsMatched() {
			return core.NewInvalidComparisonError("%s needs independent samples, got %s", test, tags)
		}
	case TestWilcoxonSRT:
		if !tags.IsMatched() {
			return core.NewInvalidComparisonError("%s needs matched samples, got %s", test, tags)
		}
	default:
		return core.NewInvalidComparisonError("unknown test %q", test)
	}

	switch compare {
	case CompareAllPairwise, CompareReference, CompareBaseline:
	case CompareConsecutive:
		if !tags.IsOrdered() {
			return core.NewInvalidComparisonError("consecutive comparison requires ordered groups, got %s", tags)
		}
	default:
		return core.NewInvalidComparisonError("unknown comparison %q", compare)
	}
	return nil
}

// CheckFacetCompatibility validates a faceted request.
//
//	mann-whitney-u: Multi+Independent within; Nested*+Matched within;
//	                Nested*+Independent within or across
//	wilcoxon-srt:   Multi|Nested* + Matched, within only
func CheckFacetCompatibility(test TestType, tags distribution.Tags, facet FacetMode) error {
	if !tags.IsFaceted() {
		return core.NewInvalidComparisonError("%s has nothing to facet", tags)
	}
	if facet != FacetWithin && facet != FacetAcross {
		return core.NewInvalidComparisonError("unknown facet mode %q", facet)
	}

	switch test {
	case TestMannWhitneyU:
		if tags.Multiplicity == distribution.Multi && tags.IsMatched() {
			return core.NewInvalidComparisonError("%s cannot run on %s", test, tags)
		}
		if facet == FacetAcross && (!tags.IsNested() || tags.IsMatched()) {
			return core.NewInvalidComparisonError("across faceting needs a nested independent distribution, got %s", tags)
		}
	case TestWilcoxonSRT:
		if !tags.IsMatched() {
			return core.NewInvalidComparisonError("%s needs matched samples, got %s", test, tags)
		}
		if facet != FacetWithin {
			return core.NewInvalidComparisonError("%s only facets within", test)
		}
	default:
		return core.NewInvalidComparisonError("unknown test %q", test)
	}
	return nil
}
