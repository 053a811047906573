package hypotheses

import (
	mmstats "github.com/aclements/go-moremath/stats"
)

// uTails returns P(U <= u) and P(U >= u) under the tie-free null
// distribution of U for group sizes m and n. The upper tail is read off the
// lower one by symmetry around m*n/2.
func uTails(m, n, u int) (lower, upper float64) {
	dist := mmstats.UDist{N1: m, N2: n}
	return dist.CDF(float64(u)), dist.CDF(float64(m*n - u))
}

// signedRankDistribution returns the null pmf of the sum of positive ranks
// for the given integer ranks (ranks are doubled by the caller so averaged
// ties stay integral). Each rank is positive with probability 1/2.
func signedRankDistribution(ranks []int) []float64 {
	total := 0
	for _, r := range ranks {
		total += r
	}
	counts := make([]float64, total+1)
	counts[0] = 1
	reach := 0
	for _, r := range ranks {
		for s := reach; s >= 0; s-- {
			if counts[s] != 0 {
				counts[s+r] += counts[s]
			}
		}
		reach += r
	}

	norm := 1.0
	for range ranks {
		norm *= 2
	}
	for s := range counts {
		counts[s] /= norm
	}
	return counts
}

// tails returns P(X <= x) and P(X >= x) for an integer-valued pmf
func tails(pmf []float64, x int) (lower, upper float64) {
	for v, p := range pmf {
		if v <= x {
			lower += p
		}
		if v >= x {
			upper += p
		}
	}
	return lower, upper
}
