package facet

import (
	"gostats/domain/core"
	"gostats/domain/distribution"
	"gostats/domain/stats"
)

// Facet is one single-level sub-distribution cut out of a Multi or Nested
// distribution. Key is the label it was split on.
type Facet struct {
	Key  string
	Dist *distribution.Distribution
}

// Decompose splits dist into facets.
//
// within splits by the outer key and keeps the inner groups. Multi facets are
// unordered; Nested facets keep the inner ordering. across (Nested only)
// splits by the inner group and uses the outer keys as the facet's groups.
// Pairing is preserved in both modes and facets come out in first-encounter
// order of their key.
func Decompose(dist *distribution.Distribution, mode stats.FacetMode) ([]Facet, error) {
	if dist == nil {
		return nil, core.NewSchemaError("no distribution to decompose")
	}
	tags := dist.Tags()
	if !tags.IsFaceted() {
		return nil, core.NewInvalidComparisonError("%s has nothing to facet", tags)
	}

	switch mode {
	case stats.FacetWithin:
		return within(dist)
	case stats.FacetAcross:
		if !tags.IsNested() {
			return nil, core.NewInvalidComparisonError("across faceting needs a nested distribution, got %s", tags)
		}
		return across(dist)
	}
	return nil, core.NewInvalidComparisonError("unknown facet mode %q", mode)
}

func within(dist *distribution.Distribution) ([]Facet, error) {
	tags := dist.Tags()
	sub := distribution.SingleTags(distribution.Unordered, tags.Pairing)
	if tags.IsNested() {
		sub = distribution.SingleTags(tags.Ordering, tags.Pairing)
	}

	byKey := make(map[string][]distribution.Record)
	for _, r := range dist.Records() {
		byKey[r.Facet] = append(byKey[r.Facet], distribution.Record{
			Subject: r.Subject,
			Group:   r.Group,
			Value:   r.Value,
		})
	}

	keys := dist.Facets()
	facets := make([]Facet, 0, len(keys))
	for _, key := range keys {
		d, err := distribution.New(byKey[key], sub, nil)
		if err != nil {
			return nil, err
		}
		facets = append(facets, Facet{Key: key, Dist: d})
	}
	return facets, nil
}

func across(dist *distribution.Distribution) ([]Facet, error) {
	tags := dist.Tags()
	ordering := distribution.Unordered
	if tags.Multiplicity == distribution.NestedOrdered {
		ordering = distribution.Ordered
	}
	sub := distribution.SingleTags(ordering, tags.Pairing)

	var keys []string
	byKey := make(map[string][]distribution.Record)
	for _, r := range dist.Records() {
		if _, ok := byKey[r.Group]; !ok {
			keys = append(keys, r.Group)
		}
		byKey[r.Group] = append(byKey[r.Group], distribution.Record{
			Subject: r.Subject,
			Group:   r.Facet,
			Value:   r.Value,
		})
	}

	facets := make([]Facet, 0, len(keys))
	for _, key := range keys {
		d, err := distribution.New(byKey[key], sub, nil)
		if err != nil {
			return nil, err
		}
		facets = append(facets, Facet{Key: key, Dist: d})
	}
	return facets, nil
}
