package hypotheses

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gostats/domain/core"
	"gostats/domain/distribution"
	"gostats/domain/stats"
)

func TestRank(t *testing.T) {
	for _, test := range []struct {
		name    string
		nums    []float64
		result  []float64
		hasTies bool
	}{
		{"ties", []float64{10, 10, 30, 40, 50}, []float64{1.5, 1.5, 3, 4, 5}, true},
		{"no ties", []float64{50, 20, 30, 40, 10}, []float64{5, 2, 3, 4, 1}, false},
		{"all tied", []float64{2, 2, 2}, []float64{2, 2, 2}, true},
	} {
		t.Run(test.name, func(t *testing.T) {
			got := rank(test.nums)
			assert.Equal(t, test.result, got.ranks)
			assert.Equal(t, test.hasTies, got.hasTies)
		})
	}
}

// U distribution for N=5 up to U=5, from Mann & Whitney (1947).
var udist5 = [][]float64{
	//    m=1         2         3         4         5
	{0.166667, 0.047619, 0.017857, 0.007937, 0.003968}, // U=0
	{0.333333, 0.095238, 0.035714, 0.015873, 0.007937}, // U=1
	{0.500000, 0.190476, 0.071429, 0.031746, 0.015873}, // U=2
	{0.666667, 0.285714, 0.125000, 0.055556, 0.027778}, // U=3
	{0.833333, 0.428571, 0.196429, 0.095238, 0.047619}, // U=4
	{1.000000, 0.571429, 0.285714, 0.142857, 0.075397}, // U=5
}

func TestUTailsMatchPublishedTable(t *testing.T) {
	for m := 1; m <= 5; m++ {
		for u := 0; u <= 5; u++ {
			lower, upper := uTails(m, 5, u)
			assert.InDelta(t, udist5[u][m-1], lower, 1e-6, "m=%d U=%d", m, u)

			// symmetry: P(U >= u) = P(U <= m*n - u)
			mirror, _ := uTails(m, 5, m*5-u)
			assert.InDelta(t, mirror, upper, 1e-12, "m=%d U=%d", m, u)
		}
	}
}

func TestUTails_Extremes(t *testing.T) {
	lower, upper := uTails(5, 5, 0)
	assert.InDelta(t, 1.0/252, lower, 1e-12)
	assert.InDelta(t, 1.0, upper, 1e-12)

	lower, upper = uTails(5, 5, 25)
	assert.InDelta(t, 1.0, lower, 1e-12)
	assert.InDelta(t, 1.0/252, upper, 1e-12)
}

func TestSignedRankDistributionSumsToOne(t *testing.T) {
	pmf := signedRankDistribution([]int{2, 4, 6, 8, 10})
	total := 0.0
	for _, p := range pmf {
		total += p
	}
	assert.InDelta(t, 1.0, total, 1e-12)
	// only the empty subset sums to zero
	assert.InDelta(t, 1.0/32, pmf[0], 1e-12)
}

func TestMannWhitneyU_SeparatedGroups(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5}
	b := []float64{6, 7, 8, 9, 10}

	auto, err := MannWhitneyU(a, b, stats.TwoSided, stats.ApproxAuto)
	require.NoError(t, err)
	assert.Equal(t, 0.0, auto.Statistic)
	assert.Equal(t, stats.MethodExact, auto.Method)
	assert.InDelta(t, 2.0/252, auto.PValue, 1e-9) // ≈ 0.0079
	assert.Equal(t, -1.0, auto.EffectSize)
	assert.Equal(t, 10, auto.N)

	asym, err := MannWhitneyU(a, b, stats.TwoSided, stats.ApproxAsymptotic)
	require.NoError(t, err)
	assert.Equal(t, 0.0, asym.Statistic)
	assert.Equal(t, stats.MethodAsymptotic, asym.Method)
	assert.InDelta(t, 0.012185780355344818, asym.PValue, 1e-9)
}

func TestMannWhitneyU_ExactSmallSamples(t *testing.T) {
	s1 := []float64{2, 1, 3, 5}
	s2 := []float64{12, 11, 13, 15}
	s3 := []float64{0, 4, 6, 7}

	r, err := MannWhitneyU(s1, s2, stats.TwoSided, stats.ApproxExact)
	require.NoError(t, err)
	assert.InDelta(t, 0.028571428571428577, r.PValue, 1e-12)

	r, err = MannWhitneyU(s2, s1, stats.TwoSided, stats.ApproxExact)
	require.NoError(t, err)
	assert.Equal(t, 16.0, r.Statistic)
	assert.InDelta(t, 0.028571428571428577, r.PValue, 1e-12)

	r, err = MannWhitneyU(s1, s3, stats.TwoSided, stats.ApproxExact)
	require.NoError(t, err)
	assert.Equal(t, 5.0, r.Statistic)
	assert.InDelta(t, 0.485714285714285770, r.PValue, 1e-12)
}

func TestMannWhitneyU_Alternatives(t *testing.T) {
	high := []float64{6, 7, 8, 9, 10}
	low := []float64{1, 2, 3, 4, 5}

	greater, err := MannWhitneyU(high, low, stats.Greater, stats.ApproxExact)
	require.NoError(t, err)
	assert.Equal(t, 25.0, greater.Statistic)
	assert.InDelta(t, 1.0/252, greater.PValue, 1e-12)

	less, err := MannWhitneyU(high, low, stats.Less, stats.ApproxExact)
	require.NoError(t, err)
	assert.Equal(t, 25.0, less.Statistic, "alternative must not change the statistic")
	assert.InDelta(t, 1.0, less.PValue, 1e-12)
}

func TestMannWhitneyU_AsymptoticReferenceValues(t *testing.T) {
	for _, test := range []struct {
		name     string
		a, b     []float64
		expected float64
	}{
		{
			name:     "separated",
			a:        []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
			b:        []float64{20, 21, 22, 23, 24, 25, 26, 27, 28, 29},
			expected: 0.00018267179110955002,
		},
		{
			name:     "overlapping with ties",
			a:        []float64{0, 1, 2, 3, 4},
			b:        []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
			expected: 0.13986357686781267,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			r, err := MannWhitneyU(test.a, test.b, stats.TwoSided, stats.ApproxAsymptotic)
			require.NoError(t, err)
			assert.InDelta(t, test.expected, r.PValue, 1e-7)
		})
	}
}

func TestMannWhitneyU_ExactPreconditions(t *testing.T) {
	tied := []float64{1, 2, 2, 3}
	other := []float64{4, 5, 6}

	_, err := MannWhitneyU(tied, other, stats.TwoSided, stats.ApproxExact)
	require.Error(t, err)
	assert.True(t, core.IsUnsupportedExact(err))

	r, err := MannWhitneyU(tied, other, stats.TwoSided, stats.ApproxAuto)
	require.NoError(t, err)
	assert.Equal(t, stats.MethodAsymptotic, r.Method)
	assert.Equal(t, stats.DegradationExactFallback, r.Degradation)

	big := make([]float64, 60)
	for i := range big {
		big[i] = float64(i)
	}
	_, err = MannWhitneyU(big[:51], big[51:], stats.TwoSided, stats.ApproxExact)
	assert.NoError(t, err, "51*9 cells is within the exact limit")
	_, err = MannWhitneyU(big[:30], append([]float64{}, big[30:]...), stats.TwoSided, stats.ApproxExact)
	assert.NoError(t, err)

	wide := make([]float64, 120)
	for i := range wide {
		wide[i] = float64(i)
	}
	_, err = MannWhitneyU(wide[:60], wide[60:], stats.TwoSided, stats.ApproxExact)
	assert.True(t, core.IsUnsupportedExact(err), "3600 cells exceeds the exact limit")
}

func TestChooseMannWhitneyMethod_AutoBoundary(t *testing.T) {
	d, err := ChooseMannWhitneyMethod(7, 7, false, stats.ApproxAuto)
	require.NoError(t, err)
	assert.Equal(t, stats.MethodExact, d.Method)

	d, err = ChooseMannWhitneyMethod(8, 3, false, stats.ApproxAuto)
	require.NoError(t, err)
	assert.Equal(t, stats.MethodAsymptotic, d.Method)
	assert.Equal(t, stats.DegradationNone, d.Degradation)

	d, err = ChooseMannWhitneyMethod(3, 3, true, stats.ApproxAsymptotic)
	require.NoError(t, err)
	assert.Equal(t, stats.MethodAsymptotic, d.Method)

	_, err = ChooseMannWhitneyMethod(3, 3, false, stats.PValueApprox("bogus"))
	assert.True(t, core.IsInvalidComparison(err))
}

func TestChooseWilcoxonMethod_AutoBoundary(t *testing.T) {
	d, err := ChooseWilcoxonMethod(25, stats.ApproxAuto)
	require.NoError(t, err)
	assert.Equal(t, stats.MethodExact, d.Method)

	d, err = ChooseWilcoxonMethod(26, stats.ApproxAuto)
	require.NoError(t, err)
	assert.Equal(t, stats.MethodAsymptotic, d.Method)

	_, err = ChooseWilcoxonMethod(26, stats.ApproxExact)
	assert.True(t, core.IsUnsupportedExact(err))
}

func TestMannWhitneyU_OrderInvariance(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	a := []float64{3.1, 4.7, 1.2, 9.9, 5.5, 2.2, 8.1, 6.4, 7.3}
	b := []float64{2.5, 6.6, 1.1, 3.3, 4.4, 7.7, 0.9, 5.2}

	base, err := MannWhitneyU(a, b, stats.TwoSided, stats.ApproxAuto)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		sa := append([]float64{}, a...)
		sb := append([]float64{}, b...)
		rng.Shuffle(len(sa), func(i, j int) { sa[i], sa[j] = sa[j], sa[i] })
		rng.Shuffle(len(sb), func(i, j int) { sb[i], sb[j] = sb[j], sb[i] })

		r, err := MannWhitneyU(sa, sb, stats.TwoSided, stats.ApproxAuto)
		require.NoError(t, err)
		assert.Equal(t, base.Statistic, r.Statistic)
		assert.InDelta(t, base.PValue, r.PValue, 1e-12)
	}
}

func TestMannWhitneyU_ExactConvergesToAsymptotic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 5; trial++ {
		a := make([]float64, 30)
		b := make([]float64, 30)
		for i := range a {
			a[i] = rng.Float64()
			b[i] = rng.Float64()
		}

		exact, err := MannWhitneyU(a, b, stats.TwoSided, stats.ApproxExact)
		require.NoError(t, err)
		asym, err := MannWhitneyU(a, b, stats.TwoSided, stats.ApproxAsymptotic)
		require.NoError(t, err)

		assert.Equal(t, exact.Statistic, asym.Statistic)
		assert.Less(t, math.Abs(exact.PValue-asym.PValue), 0.05,
			"trial %d: exact=%.4f asymptotic=%.4f", trial, exact.PValue, asym.PValue)
	}
}

func TestMannWhitneyU_EmptyGroup(t *testing.T) {
	_, err := MannWhitneyU(nil, []float64{1}, stats.TwoSided, stats.ApproxAuto)
	assert.True(t, core.IsSchemaError(err))
}

func pairs(ab ...[2]float64) []distribution.PairedValue {
	out := make([]distribution.PairedValue, len(ab))
	for i, p := range ab {
		out[i] = distribution.PairedValue{Subject: string(rune('a' + i)), A: p[0], B: p[1]}
	}
	return out
}

func TestWilcoxonSRT_TiedDifferences(t *testing.T) {
	// differences B-A: [1, 1, -2, 2] -> ranks [1.5, 1.5, 3.5, 3.5]
	p := pairs([2]float64{1, 2}, [2]float64{2, 3}, [2]float64{3, 1}, [2]float64{4, 6})

	r, err := WilcoxonSRT(p, stats.TwoSided, stats.ApproxAuto)
	require.NoError(t, err)
	assert.Equal(t, stats.MethodExact, r.Method)
	assert.Equal(t, 3.5, r.Statistic) // min(W+ = 6.5, W- = 3.5)
	assert.InDelta(t, 0.75, r.PValue, 1e-12)
	assert.InDelta(t, -0.3, r.EffectSize, 1e-12) // B mostly exceeds A
	assert.Equal(t, 4, r.N)

	less, err := WilcoxonSRT(p, stats.Less, stats.ApproxAuto)
	require.NoError(t, err)
	assert.Equal(t, 6.5, less.Statistic)
	assert.InDelta(t, 6.0/16, less.PValue, 1e-12)
}

func TestWilcoxonSRT_ExactReferenceValues(t *testing.T) {
	x := []float64{447, 832, 640, 286, 501, 123}
	y := []float64{241, 608, 130, 951, 604, 690}
	p := make([]distribution.PairedValue, len(x))
	for i := range x {
		p[i] = distribution.PairedValue{Subject: string(rune('a' + i)), A: x[i], B: y[i]}
	}

	for _, test := range []struct {
		alt      stats.Alternative
		expected float64
	}{
		{stats.TwoSided, 0.84375},
		{stats.Less, 0.421875},
		{stats.Greater, 0.65625},
	} {
		t.Run(string(test.alt), func(t *testing.T) {
			r, err := WilcoxonSRT(p, test.alt, stats.ApproxExact)
			require.NoError(t, err)
			assert.InDelta(t, test.expected, r.PValue, 1e-12)
		})
	}
}

func TestWilcoxonSRT_Asymptotic(t *testing.T) {
	x := []float64{4737, 1582, 5352, 4606, 7701, 2267, 2247, 6200, 9248, 2297, 4152, 199, 1743, 8457, 2462, 7268, 7014, 4716, 4992, 3264, 3885, 160, 4495, 6600, 3249, 4187, 1167, 8918, 6826, 9391, 3164, 3459, 9559, 836, 6252, 9997, 7246, 8492, 9713, 7141, 2880, 1499, 5605, 5838, 1469, 6679, 9534, 125, 5544, 3365}
	y := []float64{8362, 3569, 5106, 98, 4711, 3640, 8634, 1815, 7558, 2354, 4629, 6486, 630, 3679, 7190, 163, 2545, 6947, 802, 6571, 4834, 688, 7618, 8954, 3200, 1801, 9162, 6049, 6298, 5785, 9655, 9630, 9504, 1850, 4927, 1653, 7669, 4331, 4616, 9526, 8724, 4015, 8545, 246, 9912, 5474, 5455, 4335, 7096, 4175}
	p := make([]distribution.PairedValue, len(x))
	for i := range x {
		p[i] = distribution.PairedValue{Subject: string(rune(0x100 + i)), A: x[i], B: y[i]}
	}

	r, err := WilcoxonSRT(p, stats.TwoSided, stats.ApproxAuto)
	require.NoError(t, err)
	assert.Equal(t, stats.MethodAsymptotic, r.Method)
	// uncorrected normal approximation; R's continuity-corrected value is 0.6605
	assert.InDelta(t, 0.6570039728870138, r.PValue, 1e-6)

	_, err = WilcoxonSRT(p, stats.TwoSided, stats.ApproxExact)
	assert.True(t, core.IsUnsupportedExact(err))
}

func TestWilcoxonSRT_OrderInvariance(t *testing.T) {
	p := pairs([2]float64{1, 4}, [2]float64{2, 1}, [2]float64{5, 9}, [2]float64{3, 3.5}, [2]float64{8, 2})
	base, err := WilcoxonSRT(p, stats.TwoSided, stats.ApproxAuto)
	require.NoError(t, err)

	reversed := make([]distribution.PairedValue, len(p))
	for i := range p {
		reversed[len(p)-1-i] = p[i]
	}
	r, err := WilcoxonSRT(reversed, stats.TwoSided, stats.ApproxAuto)
	require.NoError(t, err)
	assert.Equal(t, base.Statistic, r.Statistic)
	assert.Equal(t, base.PValue, r.PValue)
}

func TestWilcoxonSRT_DegenerateInputs(t *testing.T) {
	_, err := WilcoxonSRT(nil, stats.TwoSided, stats.ApproxAuto)
	assert.True(t, core.IsInsufficientPairing(err))

	r, err := WilcoxonSRT(pairs([2]float64{1, 1}, [2]float64{2, 2}), stats.TwoSided, stats.ApproxAuto)
	require.NoError(t, err)
	assert.Equal(t, 0.0, r.Statistic)
	assert.Equal(t, 1.0, r.PValue)
	assert.True(t, math.IsNaN(r.EffectSize))
}

func TestEmptyOutcome(t *testing.T) {
	o := EmptyOutcome()
	assert.True(t, math.IsNaN(o.Statistic))
	assert.True(t, math.IsNaN(o.PValue))
	assert.Equal(t, stats.MethodNone, o.Method)
	assert.Equal(t, stats.DegradationEmptyComparator, o.Degradation)
}

func TestBenjaminiHochberg(t *testing.T) {
	q := BenjaminiHochberg([]float64{0.01, 0.04, math.NaN(), 0.03, 0.5})
	require.Len(t, q, 5)
	// m = 4 non-NaN tests
	assert.InDelta(t, 0.04, q[0], 1e-12)
	assert.InDelta(t, 0.04*4/3, q[1], 1e-12)
	assert.True(t, math.IsNaN(q[2]))
	assert.InDelta(t, 0.04*4/3, q[3], 1e-12, "step-up takes the running minimum")
	assert.InDelta(t, 0.5, q[4], 1e-12)

	assert.Empty(t, BenjaminiHochberg(nil))
}

func TestEffectSize_SharedOrientation(t *testing.T) {
	// A exceeds B for every observation, so both tests report +1
	high := []float64{6, 7, 8, 9, 10}
	low := []float64{1, 2, 3, 4, 5}

	tests := []struct {
		name string
		run  func() (Outcome, error)
		want float64
	}{
		{"mann-whitney a above b", func() (Outcome, error) {
			return MannWhitneyU(high, low, stats.TwoSided, stats.ApproxAuto)
		}, 1},
		{"mann-whitney a below b", func() (Outcome, error) {
			return MannWhitneyU(low, high, stats.TwoSided, stats.ApproxAuto)
		}, -1},
		{"wilcoxon a above b", func() (Outcome, error) {
			return WilcoxonSRT(pairs([2]float64{6, 1}, [2]float64{7, 2}, [2]float64{8, 4}, [2]float64{9, 3}), stats.TwoSided, stats.ApproxAuto)
		}, 1},
		{"wilcoxon a below b", func() (Outcome, error) {
			return WilcoxonSRT(pairs([2]float64{1, 6}, [2]float64{2, 7}, [2]float64{4, 8}, [2]float64{3, 9}), stats.TwoSided, stats.ApproxAuto)
		}, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := tt.run()
			require.NoError(t, err)
			assert.InDelta(t, tt.want, r.EffectSize, 1e-12)
		})
	}
}
