package distribution

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gostats/domain/core"
)

func TestTags_Validate(t *testing.T) {
	tests := []struct {
		name  string
		tags  Tags
		valid bool
	}{
		{"single ordered", Tags{Ordered, Independent, Single}, true},
		{"single unordered matched", Tags{Unordered, Matched, Single}, true},
		{"multi unordered", MultiTags(Independent), true},
		{"multi ordered", Tags{Ordered, Independent, Multi}, false},
		{"nested ordered", NestedTags(Ordered, Matched), true},
		{"nested ordered with unordered shape", Tags{Unordered, Matched, NestedOrdered}, false},
		{"nested unordered with ordered shape", Tags{Ordered, Independent, NestedUnordered}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tags.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.True(t, core.IsSchemaError(err), "got %v", err)
			}
		})
	}
}

func TestNew_SchemaErrors(t *testing.T) {
	single := SingleTags(Unordered, Independent)
	matched := SingleTags(Unordered, Matched)

	tests := []struct {
		name    string
		records []Record
		tags    Tags
		groups  []string
	}{
		{
			name:    "nan value",
			records: []Record{{Group: "a", Value: math.NaN()}},
			tags:    single,
		},
		{
			name:    "infinite value",
			records: []Record{{Group: "a", Value: math.Inf(1)}},
			tags:    single,
		},
		{
			name:    "undeclared group",
			records: []Record{{Group: "a", Value: 1}, {Group: "c", Value: 2}},
			tags:    single,
			groups:  []string{"a", "b"},
		},
		{
			name:    "matched without subject",
			records: []Record{{Group: "a", Value: 1}},
			tags:    matched,
		},
		{
			name: "matched subject repeated in a group",
			records: []Record{
				{Subject: "s1", Group: "a", Value: 1},
				{Subject: "s1", Group: "a", Value: 2},
			},
			tags: matched,
		},
		{
			name:    "multi without facet key",
			records: []Record{{Group: "a", Value: 1}},
			tags:    MultiTags(Independent),
		},
		{
			name:    "single with facet key",
			records: []Record{{Group: "a", Facet: "f1", Value: 1}},
			tags:    single,
		},
		{
			name:    "empty group label",
			records: []Record{{Value: 1}},
			tags:    single,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.records, tt.tags, tt.groups)
			require.Error(t, err)
			assert.True(t, core.IsSchemaError(err), "got %v", err)
		})
	}
}

func TestNew_SubjectMayRepeatAcrossFacets(t *testing.T) {
	d, err := New([]Record{
		{Subject: "s1", Group: "a", Facet: "f1", Value: 1},
		{Subject: "s1", Group: "a", Facet: "f2", Value: 2},
	}, MultiTags(Matched), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"f1", "f2"}, d.Facets())
}

func TestGroups_Ordering(t *testing.T) {
	records := []Record{
		{Group: "10", Value: 1},
		{Group: "2", Value: 1},
		{Group: "1", Value: 1},
	}

	ordered := MustNew(records, SingleTags(Ordered, Independent), nil)
	assert.Equal(t, []string{"1", "2", "10"}, ordered.Groups())

	unordered := MustNew(records, SingleTags(Unordered, Independent), nil)
	assert.Equal(t, []string{"1", "10", "2"}, unordered.Groups())

	named := MustNew([]Record{{Group: "week-b", Value: 1}, {Group: "week-a", Value: 1}},
		SingleTags(Ordered, Independent), nil)
	assert.Equal(t, []string{"week-a", "week-b"}, named.Groups())
}

func TestGroups_DeclaredSetIncludesEmptyGroups(t *testing.T) {
	d := MustNew([]Record{{Group: "a", Value: 1}}, SingleTags(Unordered, Independent), []string{"b", "a"})
	assert.Equal(t, []string{"a", "b"}, d.Groups())
	assert.True(t, d.HasGroup("b"))

	values, err := d.ValuesFor("b")
	require.NoError(t, err)
	assert.Empty(t, values)

	_, err = d.ValuesFor("zzz")
	assert.True(t, core.IsSchemaError(err))
}

func TestPairedValuesFor(t *testing.T) {
	d := MustNew([]Record{
		{Subject: "s2", Group: "pre", Value: 5},
		{Subject: "s1", Group: "pre", Value: 3},
		{Subject: "s3", Group: "pre", Value: 9},
		{Subject: "s1", Group: "post", Value: 4},
		{Subject: "s2", Group: "post", Value: 7},
		{Subject: "s4", Group: "post", Value: 1},
		{Subject: "s9", Group: "late", Value: 1},
	}, SingleTags(Ordered, Matched), nil)

	pairs, err := d.PairedValuesFor("pre", "post")
	require.NoError(t, err)
	assert.Equal(t, []PairedValue{
		{Subject: "s1", A: 3, B: 4},
		{Subject: "s2", A: 5, B: 7},
	}, pairs)

	_, err = d.PairedValuesFor("pre", "late")
	assert.True(t, core.IsInsufficientPairing(err))

	_, err = d.PairedValuesFor("pre", "missing")
	assert.True(t, core.IsSchemaError(err))

	_, err = d.AsIndependent().PairedValuesFor("pre", "post")
	assert.True(t, core.IsInvalidComparison(err))
}

func TestDistribution_IsImmutable(t *testing.T) {
	records := []Record{{Group: "a", Value: 1}, {Group: "b", Value: 2}}
	d := MustNew(records, SingleTags(Unordered, Independent), nil)

	records[0].Value = 100
	got := d.Records()
	got[1].Value = 200
	groups := d.Groups()
	groups[0] = "mutated"

	assert.Equal(t, 1.0, d.Records()[0].Value)
	assert.Equal(t, 2.0, d.Records()[1].Value)
	assert.Equal(t, []string{"a", "b"}, d.Groups())
}

func TestAsIndependent(t *testing.T) {
	d := MustNew([]Record{
		{Subject: "s1", Group: "a", Facet: "x", Value: 1},
		{Subject: "s1", Group: "b", Facet: "x", Value: 2},
	}, NestedTags(Ordered, Matched), nil)

	ind := d.AsIndependent()
	assert.Equal(t, Independent, ind.Tags().Pairing)
	assert.Equal(t, NestedOrdered, ind.Tags().Multiplicity)
	assert.Equal(t, Matched, d.Tags().Pairing)
	assert.Equal(t, d.Records(), ind.Records())
	assert.Equal(t, []string{"s1"}, ind.Subjects())
}
