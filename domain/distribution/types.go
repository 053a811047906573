package distribution

import (
	"math"
	"sort"
	"strconv"

	"gostats/domain/core"
)

// Record is one measurement in long form
type Record struct {
	Subject string  `json:"subject,omitempty" db:"subject"`
	Group   string  `json:"group" db:"group_key"`
	Facet   string  `json:"facet,omitempty" db:"facet"` // outer key for Multi/Nested distributions
	Value   float64 `json:"value" db:"value"`
}

// PairedValue is one subject observed in both groups of a comparison
type PairedValue struct {
	Subject string
	A       float64
	B       float64
}

// Distribution is a validated, immutable group-comparison dataset.
// INVARIANTS:
// - every record's group is in groups
// - no value is NaN or infinite
// - Matched: every record has a subject, unique per (facet, group)
// - Multi/Nested: every record has a facet key; Single: none does
type Distribution struct {
	tags    Tags
	groups  []string
	records []Record
	facets  []string
}

// New validates records against tags and the declared group set.
// An empty group set is derived from the records.
func New(records []Record, tags Tags, groups []string) (*Distribution, error) {
	if err := tags.Validate(); err != nil {
		return nil, err
	}

	declared := make(map[string]bool, len(groups))
	for _, g := range groups {
		if g == "" {
			return nil, core.NewSchemaError("declared group labels must be non-empty")
		}
		declared[g] = true
	}
	deriveGroups := len(groups) == 0

	type cell struct{ facet, group, subject string }
	seen := make(map[cell]bool)
	facetSeen := make(map[string]bool)
	var facets []string

	for i, r := range records {
		if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
			return nil, core.NewSchemaError("record %d: missing or non-finite value", i)
		}
		if r.Group == "" {
			return nil, core.NewSchemaError("record %d: missing group", i)
		}
		if deriveGroups {
			declared[r.Group] = true
		} else if !declared[r.Group] {
			return nil, core.NewSchemaError("record %d: group %q is not in the declared group set", i, r.Group)
		}

		if tags.IsFaceted() {
			if r.Facet == "" {
				return nil, core.NewSchemaError("record %d: %s requires a facet key", i, tags.Multiplicity)
			}
			if !facetSeen[r.Facet] {
				facetSeen[r.Facet] = true
				facets = append(facets, r.Facet)
			}
		} else if r.Facet != "" {
			return nil, core.NewSchemaError("record %d: single-level distribution carries facet key %q", i, r.Facet)
		}

		if tags.IsMatched() {
			if r.Subject == "" {
				return nil, core.NewSchemaError("record %d: matched distribution requires a subject", i)
			}
			k := cell{r.Facet, r.Group, r.Subject}
			if seen[k] {
				return nil, core.NewSchemaError("record %d: subject %q repeated in group %q", i, r.Subject, r.Group)
			}
			seen[k] = true
		}
	}

	labels := make([]string, 0, len(declared))
	for g := range declared {
		labels = append(labels, g)
	}
	SortGroups(labels, tags.IsOrdered())

	owned := make([]Record, len(records))
	copy(owned, records)

	return &Distribution{
		tags:    tags,
		groups:  labels,
		records: owned,
		facets:  facets,
	}, nil
}

// MustNew creates a distribution (panics on invalid input).
// Use only in tests and fixtures.
func MustNew(records []Record, tags Tags, groups []string) *Distribution {
	d, err := New(records, tags, groups)
	if err != nil {
		panic(err)
	}
	return d
}

// SortGroups orders labels in place. Ordered labels sort numerically when
// every label parses as a number and lexicographically otherwise.
func SortGroups(labels []string, ordered bool) {
	if ordered {
		nums := make(map[string]float64, len(labels))
		numeric := true
		for _, l := range labels {
			v, err := strconv.ParseFloat(l, 64)
			if err != nil {
				numeric = false
				break
			}
			nums[l] = v
		}
		if numeric {
			sort.SliceStable(labels, func(i, j int) bool {
				if nums[labels[i]] == nums[labels[j]] {
					return labels[i] < labels[j]
				}
				return nums[labels[i]] < nums[labels[j]]
			})
			return
		}
	}
	sort.Strings(labels)
}

// Tags returns the distribution's immutable tags
func (d *Distribution) Tags() Tags { return d.tags }

// Len returns the number of records
func (d *Distribution) Len() int { return len(d.records) }

// Groups returns the group labels in natural (Ordered) or lexicographic order
func (d *Distribution) Groups() []string {
	out := make([]string, len(d.groups))
	copy(out, d.groups)
	return out
}

// HasGroup reports whether group is in the declared group set
func (d *Distribution) HasGroup(group string) bool {
	for _, g := range d.groups {
		if g == group {
			return true
		}
	}
	return false
}

// Facets returns the outer keys in first-encounter order (empty for Single)
func (d *Distribution) Facets() []string {
	out := make([]string, len(d.facets))
	copy(out, d.facets)
	return out
}

// Records returns a copy of the records in input order
func (d *Distribution) Records() []Record {
	out := make([]Record, len(d.records))
	copy(out, d.records)
	return out
}

// Subjects returns the distinct subject identifiers, sorted
func (d *Distribution) Subjects() []string {
	set := make(map[string]bool)
	for _, r := range d.records {
		if r.Subject != "" {
			set[r.Subject] = true
		}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// ValuesFor returns the values recorded for group, in input order
func (d *Distribution) ValuesFor(group string) ([]float64, error) {
	if !d.HasGroup(group) {
		return nil, core.NewSchemaError("group %q is not in the distribution", group)
	}
	var values []float64
	for _, r := range d.records {
		if r.Group == group {
			values = append(values, r.Value)
		}
	}
	return values, nil
}

// PairedValuesFor aligns groups a and b by subject. Only subjects present in
// both groups are returned, sorted by subject. Zero shared subjects fails with
// an insufficient pairing error that callers may choose to recover from.
func (d *Distribution) PairedValuesFor(a, b string) ([]PairedValue, error) {
	if !d.tags.IsMatched() {
		return nil, core.NewInvalidComparisonError("paired values requested from an independent distribution")
	}
	if !d.HasGroup(a) {
		return nil, core.NewSchemaError("group %q is not in the distribution", a)
	}
	if !d.HasGroup(b) {
		return nil, core.NewSchemaError("group %q is not in the distribution", b)
	}

	byA := make(map[string]float64)
	for _, r := range d.records {
		if r.Group == a {
			byA[r.Subject] = r.Value
		}
	}

	var pairs []PairedValue
	for _, r := range d.records {
		if r.Group != b {
			continue
		}
		if va, ok := byA[r.Subject]; ok {
			pairs = append(pairs, PairedValue{Subject: r.Subject, A: va, B: r.Value})
		}
	}
	if len(pairs) == 0 {
		return nil, core.NewInsufficientPairingError(a, b)
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Subject < pairs[j].Subject })
	return pairs, nil
}

// AsIndependent returns a copy tagged Independent. Subjects are kept so the
// records still round-trip; they are no longer used for alignment.
func (d *Distribution) AsIndependent() *Distribution {
	tags := d.tags
	tags.Pairing = Independent
	return &Distribution{
		tags:    tags,
		groups:  d.Groups(),
		records: d.Records(),
		facets:  d.Facets(),
	}
}
