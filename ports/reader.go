package ports

import (
	"context"
	"io"

	"gostats/domain/distribution"
	"gostats/domain/stats"
)

// DistributionReader turns a long-form table into a validated distribution.
// Malformed input fails here, before any test runs.
type DistributionReader interface {
	ReadDistribution(ctx context.Context, src Source, spec ReadSpec) (*distribution.Distribution, error)
}

// Source is a named input stream. Name carries the extension used to pick
// the format (.csv, .tsv, .xlsx).
type Source struct {
	Name   string
	Reader io.Reader
}

// ReadSpec says how to interpret the columns of a long-form table
type ReadSpec struct {
	Tags        distribution.Tags
	Groups      []string // declared group set; empty derives it from the data
	GroupColumn string   // defaults to "group"
	ValueColumn string   // defaults to "measure"
	Sheet       string   // xlsx only; defaults to the first sheet
}

// StatsTableWriter serialises a stats table
type StatsTableWriter interface {
	WriteTable(w io.Writer, table *stats.StatsTable) error
}
