package hypotheses

import (
	"fmt"

	"gostats/domain/core"
	"gostats/domain/stats"
)

const (
	// MannWhitneyAutoExactBelow: auto picks exact when both groups have
	// fewer observations than this and there are no ties.
	MannWhitneyAutoExactBelow = 8
	// MannWhitneyExactMaxCells caps n_A*n_B for an explicit exact request.
	MannWhitneyExactMaxCells = 2500
	// WilcoxonExactMax is the largest number of nonzero differences (inclusive)
	// for which the exact signed-rank distribution is used.
	WilcoxonExactMax = 25
)

// MethodDecision is the outcome of choosing between exact and asymptotic
// p-values. Degradation is set when an exact computation was wanted but its
// preconditions were unmet and auto fell back.
type MethodDecision struct {
	Method      stats.PValueMethod
	Degradation stats.Degradation
	Reason      string
}

// ChooseMannWhitneyMethod decides how a Mann-Whitney p-value is computed.
// An explicit exact request with ties or oversized groups fails with
// ErrUnsupportedExact.
func ChooseMannWhitneyMethod(nA, nB int, hasTies bool, approx stats.PValueApprox) (MethodDecision, error) {
	switch approx {
	case stats.ApproxAsymptotic:
		return MethodDecision{Method: stats.MethodAsymptotic, Reason: "requested"}, nil

	case stats.ApproxExact:
		if hasTies {
			return MethodDecision{}, core.NewUnsupportedExactError("mann-whitney exact distribution needs tie-free samples")
		}
		if nA*nB > MannWhitneyExactMaxCells {
			return MethodDecision{}, core.NewUnsupportedExactError(
				"mann-whitney exact distribution limited to n_A*n_B <= %d, got %d", MannWhitneyExactMaxCells, nA*nB)
		}
		return MethodDecision{Method: stats.MethodExact, Reason: "requested"}, nil

	case stats.ApproxAuto:
		if nA >= MannWhitneyAutoExactBelow || nB >= MannWhitneyAutoExactBelow {
			return MethodDecision{
				Method: stats.MethodAsymptotic,
				Reason: fmt.Sprintf("group sizes %d/%d reach %d", nA, nB, MannWhitneyAutoExactBelow),
			}, nil
		}
		if hasTies {
			return MethodDecision{
				Method:      stats.MethodAsymptotic,
				Degradation: stats.DegradationExactFallback,
				Reason:      "small samples contain ties",
			}, nil
		}
		return MethodDecision{Method: stats.MethodExact, Reason: "small tie-free samples"}, nil
	}
	return MethodDecision{}, core.NewInvalidComparisonError("unknown p_val_approx %q", approx)
}

// ChooseWilcoxonMethod decides how a signed-rank p-value is computed from the
// number of nonzero differences.
func ChooseWilcoxonMethod(n int, approx stats.PValueApprox) (MethodDecision, error) {
	switch approx {
	case stats.ApproxAsymptotic:
		return MethodDecision{Method: stats.MethodAsymptotic, Reason: "requested"}, nil

	case stats.ApproxExact:
		if n > WilcoxonExactMax {
			return MethodDecision{}, core.NewUnsupportedExactError(
				"signed-rank exact distribution limited to %d differences, got %d", WilcoxonExactMax, n)
		}
		return MethodDecision{Method: stats.MethodExact, Reason: "requested"}, nil

	case stats.ApproxAuto:
		if n <= WilcoxonExactMax {
			return MethodDecision{Method: stats.MethodExact, Reason: fmt.Sprintf("%d differences", n)}, nil
		}
		return MethodDecision{Method: stats.MethodAsymptotic, Reason: fmt.Sprintf("%d differences exceed %d", n, WilcoxonExactMax)}, nil
	}
	return MethodDecision{}, core.NewInvalidComparisonError("unknown p_val_approx %q", approx)
}
