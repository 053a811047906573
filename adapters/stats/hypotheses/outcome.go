package hypotheses

import (
	"math"

	"gostats/domain/stats"
)

// Outcome is the engine's result for one pair of groups
type Outcome struct {
	Statistic   float64
	PValue      float64
	EffectSize  float64
	N           int
	Method      stats.PValueMethod
	Degradation stats.Degradation
}

// EmptyOutcome is the NaN result recorded for a pair with nothing to compare
func EmptyOutcome() Outcome {
	return Outcome{
		Statistic:   math.NaN(),
		PValue:      math.NaN(),
		EffectSize:  math.NaN(),
		Method:      stats.MethodNone,
		Degradation: stats.DegradationEmptyComparator,
	}
}
