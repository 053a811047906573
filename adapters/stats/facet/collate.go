package facet

import (
	"slices"

	"gostats/domain/core"
	"gostats/domain/stats"
)

// Collate concatenates per-facet tables in facet order, then row order, and
// stamps every row with its facet key. Tables must come from the same test.
// q-values are carried over unchanged, so each facet keeps its own family.
func Collate(tables []*stats.StatsTable, keys []string) (*stats.StatsTable, error) {
	if len(tables) == 0 {
		return nil, core.NewSchemaError("nothing to collate")
	}
	if len(tables) != len(keys) {
		return nil, core.NewSchemaError("%d tables but %d facet keys", len(tables), len(keys))
	}

	first := tables[0]
	if first == nil {
		return nil, core.NewSchemaError("facet %q has no table", keys[0])
	}
	columns := first.Columns()

	out := stats.NewStatsTable(first.Test, first.Compare, first.Alternative)
	for i, t := range tables {
		if t == nil {
			return nil, core.NewSchemaError("facet %q has no table", keys[i])
		}
		if t.Test != first.Test || !slices.Equal(t.Columns(), columns) {
			return nil, core.NewSchemaMismatchError("facet %q was built by %s, expected %s", keys[i], t.Test, first.Test)
		}

		rows := t.Rows()
		for j := range rows {
			rows[j].FacetID = keys[i]
		}
		if err := out.Append(rows...); err != nil {
			return nil, err
		}
	}
	return out.Freeze(), nil
}
