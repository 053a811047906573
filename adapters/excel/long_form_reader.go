package excel

import (
	"context"
	"math"
	"strconv"
	"strings"

	"gostats/domain/core"
	"gostats/domain/distribution"
	"gostats/ports"
)

// LongFormReader reads one measurement per row:
//
//	id  group  measure  [subject]  [class]
//
// subject is required for matched distributions and class (the outer key)
// for Multi/Nested ones.
type LongFormReader struct{}

// NewLongFormReader creates a long-form distribution reader
func NewLongFormReader() ports.DistributionReader {
	return &LongFormReader{}
}

// ReadDistribution parses src and validates the records against spec.Tags
func (r *LongFormReader) ReadDistribution(ctx context.Context, src ports.Source, spec ports.ReadSpec) (*distribution.Distribution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := NewDataReader(src.Name, spec.Sheet).ReadData(src.Reader)
	if err != nil {
		return nil, core.NewSchemaError("%v", err)
	}

	groupCol := orDefault(spec.GroupColumn, ColumnGroup)
	valueCol := orDefault(spec.ValueColumn, ColumnMeasure)
	for _, col := range []string{groupCol, valueCol} {
		if !data.HasColumn(col) {
			return nil, core.NewSchemaError("%s: missing column %q", src.Name, col)
		}
	}
	if spec.Tags.IsMatched() && !data.HasColumn(ColumnSubject) {
		return nil, core.NewSchemaError("%s: matched data needs a %q column", src.Name, ColumnSubject)
	}
	if spec.Tags.IsFaceted() && !data.HasColumn(ColumnClass) {
		return nil, core.NewSchemaError("%s: %s data needs a %q column", src.Name, spec.Tags.Multiplicity, ColumnClass)
	}

	records := make([]distribution.Record, 0, len(data.Rows))
	for i, row := range data.Rows {
		value, err := parseMeasure(row[valueCol])
		if err != nil {
			return nil, core.NewSchemaError("%s line %d (id %q): %v", src.Name, data.Lines[i], row[ColumnID], err)
		}
		rec := distribution.Record{
			Group: row[groupCol],
			Value: value,
		}
		if spec.Tags.IsMatched() {
			rec.Subject = row[ColumnSubject]
		}
		if spec.Tags.IsFaceted() {
			rec.Facet = row[ColumnClass]
		}
		records = append(records, rec)
	}

	return distribution.New(records, spec.Tags, spec.Groups)
}

// parseMeasure rejects empty, non-numeric and non-finite cells
func parseMeasure(cell string) (float64, error) {
	switch strings.ToLower(cell) {
	case "", "na", "nan", "null":
		return 0, errMissing
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errMissing
	}
	return v, nil
}

var errMissing = missingValueError{}

type missingValueError struct{}

func (missingValueError) Error() string { return "missing or non-finite measure" }

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
