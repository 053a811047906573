package hypotheses

import (
	"math"
	"sort"
)

// BenjaminiHochberg returns BH-adjusted q-values in input order. NaN p-values
// stay NaN and do not count towards the number of tests.
func BenjaminiHochberg(pValues []float64) []float64 {
	q := make([]float64, len(pValues))
	idx := make([]int, 0, len(pValues))
	for i, p := range pValues {
		if math.IsNaN(p) {
			q[i] = math.NaN()
			continue
		}
		idx = append(idx, i)
	}

	m := len(idx)
	if m == 0 {
		return q
	}
	sort.SliceStable(idx, func(i, j int) bool { return pValues[idx[i]] < pValues[idx[j]] })

	// step-up: q_(k) = min over j >= k of p_(j) * m / j
	running := 1.0
	for k := m - 1; k >= 0; k-- {
		v := pValues[idx[k]] * float64(m) / float64(k+1)
		if v < running {
			running = v
		}
		q[idx[k]] = running
	}
	return q
}
