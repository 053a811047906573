package hypotheses

import (
	"sort"
)

// rankResult holds average ranks in input order plus tie bookkeeping
type rankResult struct {
	ranks   []float64
	tieTerm float64 // sum over tie groups of t^3 - t
	hasTies bool
}

// rank assigns 1-based ranks, averaging ranks across tied values
func rank(values []float64) rankResult {
	n := len(values)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool { return values[idx[i]] < values[idx[j]] })

	res := rankResult{ranks: make([]float64, n)}
	for i := 0; i < n; {
		j := i + 1
		for j < n && values[idx[j]] == values[idx[i]] {
			j++
		}
		// positions i..j-1 share ranks i+1..j
		avg := float64(i+1+j) / 2
		for k := i; k < j; k++ {
			res.ranks[idx[k]] = avg
		}
		if t := float64(j - i); t > 1 {
			res.tieTerm += t*t*t - t
			res.hasTies = true
		}
		i = j
	}
	return res
}
