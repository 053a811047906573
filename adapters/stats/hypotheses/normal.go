package hypotheses

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"gostats/domain/stats"
)

// normalPValue converts a z-score into a p-value for the alternative.
// z is oriented so that large values support "greater".
func normalPValue(z float64, alternative stats.Alternative) float64 {
	var p float64
	switch alternative {
	case stats.Greater:
		p = distuv.UnitNormal.Survival(z)
	case stats.Less:
		p = distuv.UnitNormal.CDF(z)
	default:
		p = 2 * distuv.UnitNormal.Survival(math.Abs(z))
	}
	return clampP(p)
}

// tailPValue turns lower/upper tail probabilities into a p-value.
// lower = P(T <= t), upper = P(T >= t) where large T supports "greater".
func tailPValue(lower, upper float64, alternative stats.Alternative) float64 {
	switch alternative {
	case stats.Greater:
		return clampP(upper)
	case stats.Less:
		return clampP(lower)
	default:
		return clampP(2 * math.Min(lower, upper))
	}
}

func clampP(p float64) float64 {
	if p > 1 {
		return 1
	}
	if p < 0 {
		return 0
	}
	return p
}
