package stages

import (
	"math"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"gostats/domain/distribution"
)

// ProfileStage summarises every group of a distribution
type ProfileStage struct{}

// NewProfileStage creates a new profile stage
func NewProfileStage() *ProfileStage {
	return &ProfileStage{}
}

// GroupProfile contains descriptive statistics for a single group
type GroupProfile struct {
	Group        string  `json:"group"`
	N            int     `json:"n"`
	Mean         float64 `json:"mean"`
	Median       float64 `json:"median"`
	Q1           float64 `json:"q1"`
	Q3           float64 `json:"q3"`
	Variance     float64 `json:"variance"`
	Cardinality  int     `json:"cardinality"`
	ZeroVariance bool    `json:"zero_variance"`
	HasTies      bool    `json:"has_ties"` // exact Mann-Whitney p-values are unavailable
}

// Execute profiles each group in Groups() order
func (p *ProfileStage) Execute(dist *distribution.Distribution) ([]GroupProfile, error) {
	groups := dist.Groups()
	profiles := make([]GroupProfile, 0, len(groups))

	for _, g := range groups {
		values, err := dist.ValuesFor(g)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p.profileGroup(g, values))
	}
	return profiles, nil
}

// profileGroup analyzes a single group's values
func (p *ProfileStage) profileGroup(group string, values []float64) GroupProfile {
	profile := GroupProfile{
		Group:    group,
		N:        len(values),
		Mean:     math.NaN(),
		Median:   math.NaN(),
		Q1:       math.NaN(),
		Q3:       math.NaN(),
		Variance: math.NaN(),
	}
	if len(values) == 0 {
		return profile
	}

	valueSet := make(map[float64]bool, len(values))
	for _, v := range values {
		valueSet[v] = true
	}
	profile.Cardinality = len(valueSet)
	profile.HasTies = profile.Cardinality < len(values)

	profile.Mean = stat.Mean(values, nil)
	profile.Median = median(values)
	if q, err := mstats.Percentile(values, 25); err == nil {
		profile.Q1 = q
	}
	if q, err := mstats.Percentile(values, 75); err == nil {
		profile.Q3 = q
	}

	// sample variance (n-1)
	if len(values) > 1 {
		profile.Variance = stat.Variance(values, nil)
		profile.ZeroVariance = profile.Variance < 1e-10
	}
	return profile
}
