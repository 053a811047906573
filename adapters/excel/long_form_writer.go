package excel

import (
	"encoding/csv"
	"io"
	"strconv"

	"gostats/domain/distribution"
	"gostats/domain/stats"
)

// WriteLongForm writes dist as tab-separated long-form rows that
// LongFormReader reads back. subject and class columns are only written
// when the tags use them.
func WriteLongForm(w io.Writer, dist *distribution.Distribution) error {
	tags := dist.Tags()
	header := []string{ColumnID, ColumnGroup, ColumnMeasure}
	if tags.IsMatched() {
		header = append(header, ColumnSubject)
	}
	if tags.IsFaceted() {
		header = append(header, ColumnClass)
	}

	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := cw.Write(header); err != nil {
		return err
	}
	for i, r := range dist.Records() {
		row := []string{strconv.Itoa(i + 1), r.Group, stats.FormatFloat(r.Value)}
		if tags.IsMatched() {
			row = append(row, r.Subject)
		}
		if tags.IsFaceted() {
			row = append(row, r.Facet)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
