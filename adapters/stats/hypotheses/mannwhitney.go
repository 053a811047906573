package hypotheses

import (
	"math"

	"gostats/domain/core"
	"gostats/domain/stats"
)

// MannWhitneyU compares two independent samples. The statistic is U of group
// A: the number of (a, b) pairs with a > b, ties counting one half.
func MannWhitneyU(a, b []float64, alternative stats.Alternative, approx stats.PValueApprox) (Outcome, error) {
	nA, nB := len(a), len(b)
	if nA == 0 || nB == 0 {
		return Outcome{}, core.NewSchemaError("mann-whitney needs observations in both groups, got %d and %d", nA, nB)
	}

	pooled := make([]float64, 0, nA+nB)
	pooled = append(pooled, a...)
	pooled = append(pooled, b...)
	rk := rank(pooled)

	rankSumA := 0.0
	for _, r := range rk.ranks[:nA] {
		rankSumA += r
	}
	u := rankSumA - float64(nA*(nA+1))/2

	decision, err := ChooseMannWhitneyMethod(nA, nB, rk.hasTies, approx)
	if err != nil {
		return Outcome{}, err
	}

	var p float64
	switch decision.Method {
	case stats.MethodExact:
		// tie-free, so U is integral
		lower, upper := uTails(nA, nB, int(math.Round(u)))
		p = tailPValue(lower, upper, alternative)
	default:
		p = mannWhitneyAsymptotic(u, nA, nB, rk.tieTerm, alternative)
	}

	cells := float64(nA * nB)
	return Outcome{
		Statistic:   u,
		PValue:      p,
		EffectSize:  2*u/cells - 1,
		N:           nA + nB,
		Method:      decision.Method,
		Degradation: decision.Degradation,
	}, nil
}

// mannWhitneyAsymptotic is the normal approximation with tie-corrected
// variance and a 0.5 continuity correction.
func mannWhitneyAsymptotic(u float64, nA, nB int, tieTerm float64, alternative stats.Alternative) float64 {
	m, n := float64(nA), float64(nB)
	total := m + n
	mu := m * n / 2

	variance := m * n / 12 * ((total + 1) - tieTerm/(total*(total-1)))
	if variance <= 0 {
		// every observation tied: no evidence either way
		return 1
	}
	sd := math.Sqrt(variance)

	var z float64
	switch alternative {
	case stats.Greater:
		z = (u - mu - 0.5) / sd
	case stats.Less:
		z = (u - mu + 0.5) / sd
	default:
		z = math.Max(math.Abs(u-mu)-0.5, 0) / sd
	}
	return normalPValue(z, alternative)
}
