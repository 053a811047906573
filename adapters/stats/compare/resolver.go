package compare

import (
	"gostats/domain/core"
	"gostats/domain/stats"
)

// Pair is one comparison. A is always the anchor for reference/baseline modes.
type Pair struct {
	A string `json:"group_a"`
	B string `json:"group_b"`
}

// Resolve turns a comparison mode into the ordered list of group pairs.
//
// groups must already be in Groups() order. againstEach, when non-empty,
// replaces the right-hand side of every pair with the groups of a secondary
// distribution. Within one distribution pairs with identical labels are
// skipped and no pair is emitted twice. Across distributions every pair is
// kept: a shared label names two different samples.
func Resolve(groups []string, ordered bool, mode stats.CompareMode, reference string, againstEach []string) ([]Pair, error) {
	r := &resolver{seen: make(map[Pair]bool), cross: len(againstEach) > 0}

	switch mode {
	case stats.CompareAllPairwise:
		if len(againstEach) > 0 {
			for _, a := range groups {
				for _, b := range againstEach {
					r.add(a, b)
				}
			}
			break
		}
		for i := 0; i < len(groups)-1; i++ {
			for j := i + 1; j < len(groups); j++ {
				r.add(groups[i], groups[j])
			}
		}

	case stats.CompareReference, stats.CompareBaseline:
		if reference == "" {
			return nil, core.NewInvalidComparisonError("%s comparison requires a reference group", mode)
		}
		if !contains(groups, reference) {
			return nil, core.NewInvalidComparisonError("reference group %q is not one of %v", reference, groups)
		}
		rhs := groups
		if len(againstEach) > 0 {
			rhs = againstEach
		}
		for _, b := range rhs {
			r.add(reference, b)
		}

	case stats.CompareConsecutive:
		if !ordered {
			return nil, core.NewInvalidComparisonError("consecutive comparison requires ordered groups")
		}
		if len(againstEach) > 0 {
			return nil, core.NewInvalidComparisonError("consecutive comparison cannot be combined with against_each")
		}
		for i := 0; i+1 < len(groups); i++ {
			r.add(groups[i], groups[i+1])
		}

	default:
		return nil, core.NewInvalidComparisonError("unknown comparison %q", mode)
	}

	return r.pairs, nil
}

type resolver struct {
	pairs []Pair
	seen  map[Pair]bool
	cross bool // B labels come from against_each
}

func (r *resolver) add(a, b string) {
	p := Pair{A: a, B: b}
	if r.cross {
		if !r.seen[p] {
			r.seen[p] = true
			r.pairs = append(r.pairs, p)
		}
		return
	}
	if a == b {
		return
	}
	// (a, b) and (b, a) are the same comparison
	if r.seen[p] || r.seen[Pair{A: b, B: a}] {
		return
	}
	r.seen[p] = true
	r.pairs = append(r.pairs, p)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
