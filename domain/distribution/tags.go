package distribution

import (
	"fmt"

	"gostats/domain/core"
)

// Ordering says whether group labels carry a natural order (e.g. timepoints)
type Ordering string

const (
	Ordered   Ordering = "ordered"
	Unordered Ordering = "unordered"
)

// Pairing says whether observations are linked across groups by subject
type Pairing string

const (
	Matched     Pairing = "matched"
	Independent Pairing = "independent"
)

// Multiplicity says how many grouping levels a distribution carries
type Multiplicity string

const (
	Single          Multiplicity = "single"
	Multi           Multiplicity = "multi"
	NestedOrdered   Multiplicity = "nested_ordered"
	NestedUnordered Multiplicity = "nested_unordered"
)

// Tags are fixed when a Distribution is built and never change afterwards
type Tags struct {
	Ordering     Ordering     `json:"ordering"`
	Pairing      Pairing      `json:"pairing"`
	Multiplicity Multiplicity `json:"multiplicity"`
}

// SingleTags builds tags for a one-level distribution
func SingleTags(ordering Ordering, pairing Pairing) Tags {
	return Tags{Ordering: ordering, Pairing: pairing, Multiplicity: Single}
}

// MultiTags builds tags for a distribution holding several independent groupings.
// The levels of a grouping have no order.
func MultiTags(pairing Pairing) Tags {
	return Tags{Ordering: Unordered, Pairing: pairing, Multiplicity: Multi}
}

// NestedTags builds tags for an outer/inner nested distribution. The inner
// ordering determines which nested variant is used.
func NestedTags(inner Ordering, pairing Pairing) Tags {
	m := NestedUnordered
	if inner == Ordered {
		m = NestedOrdered
	}
	return Tags{Ordering: inner, Pairing: pairing, Multiplicity: m}
}

// Validate checks that every axis holds a known value and that the axes agree
func (t Tags) Validate() error {
	switch t.Ordering {
	case Ordered, Unordered:
	default:
		return core.NewSchemaError("unknown ordering %q", t.Ordering)
	}
	switch t.Pairing {
	case Matched, Independent:
	default:
		return core.NewSchemaError("unknown pairing %q", t.Pairing)
	}
	switch t.Multiplicity {
	case Single:
	case Multi:
		if t.Ordering != Unordered {
			return core.NewSchemaError("multi distributions are unordered, got %q", t.Ordering)
		}
	case NestedOrdered:
		if t.Ordering != Ordered {
			return core.NewSchemaError("nested_ordered requires ordered inner groups, got %q", t.Ordering)
		}
	case NestedUnordered:
		if t.Ordering != Unordered {
			return core.NewSchemaError("nested_unordered requires unordered inner groups, got %q", t.Ordering)
		}
	default:
		return core.NewSchemaError("unknown multiplicity %q", t.Multiplicity)
	}
	return nil
}

// IsOrdered reports whether group labels have a natural order
func (t Tags) IsOrdered() bool { return t.Ordering == Ordered }

// IsMatched reports whether observations are linked by subject
func (t Tags) IsMatched() bool { return t.Pairing == Matched }

// IsNested reports whether the distribution is NestedOrdered or NestedUnordered
func (t Tags) IsNested() bool {
	return t.Multiplicity == NestedOrdered || t.Multiplicity == NestedUnordered
}

// IsFaceted reports whether the distribution must be decomposed before testing
func (t Tags) IsFaceted() bool {
	return t.Multiplicity == Multi || t.IsNested()
}

// String renders the tags the way the plugin artifacts spell them
func (t Tags) String() string {
	shape := map[Multiplicity]string{
		Multi:           "Multi",
		NestedOrdered:   "NestedOrdered",
		NestedUnordered: "NestedUnordered",
	}[t.Multiplicity]
	if shape == "" {
		shape = "Unordered"
		if t.IsOrdered() {
			shape = "Ordered"
		}
	}
	pairing := "Independent"
	if t.IsMatched() {
		pairing = "Matched"
	}
	return fmt.Sprintf("Dist1D[%s, %s]", shape, pairing)
}
