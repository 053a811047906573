package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/xuri/excelize/v2"

	"gostats/domain/stats"
	"gostats/ports"
)

// TSVWriter writes a stats table as tab-separated text with a header row
type TSVWriter struct{}

// NewTSVWriter creates a TSV stats table writer
func NewTSVWriter() ports.StatsTableWriter { return &TSVWriter{} }

// WriteTable writes the header and one line per row
func (w *TSVWriter) WriteTable(out io.Writer, table *stats.StatsTable) error {
	cw := csv.NewWriter(out)
	cw.Comma = '\t'
	if err := cw.Write(table.Columns()); err != nil {
		return err
	}
	for _, row := range table.Rows() {
		if err := cw.Write(stats.FormatRow(row)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// XLSXWriter writes a stats table to a single-sheet workbook
type XLSXWriter struct {
	config ExcelConfig
}

// NewXLSXWriter creates an xlsx stats table writer
func NewXLSXWriter(config ExcelConfig) ports.StatsTableWriter {
	if config.SheetName == "" {
		config.SheetName = DefaultExcelConfig().SheetName
	}
	return &XLSXWriter{config: config}
}

// WriteTable writes the table. NaN cells are left empty.
func (w *XLSXWriter) WriteTable(out io.Writer, table *stats.StatsTable) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := w.config.SheetName
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	columns := table.Columns()
	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	var numStyle, hitStyle int
	var err error
	if w.config.FloatFormat != "" {
		numFmt := w.config.FloatFormat
		if numStyle, err = f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt}); err != nil {
			return err
		}
		if hitStyle, err = f.NewStyle(&excelize.Style{
			CustomNumFmt: &numFmt,
			Fill:         excelize.Fill{Type: "pattern", Color: []string{"#C6EFCE"}, Pattern: 1},
		}); err != nil {
			return err
		}
	}

	qCol := indexOf(columns, "q-value") + 1
	for i, row := range table.Rows() {
		r := i + 2
		cell, err := excelize.CoordinatesToCellName(1, r)
		if err != nil {
			return err
		}
		values := rowValues(row)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}

		if numStyle != 0 {
			for _, col := range floatColumns {
				c, _ := excelize.CoordinatesToCellName(col, r)
				if err := f.SetCellStyle(sheet, c, c, numStyle); err != nil {
					return err
				}
			}
		}
		if hitStyle != 0 && w.config.HighlightBelow > 0 && !math.IsNaN(row.QValue) && row.QValue < w.config.HighlightBelow {
			q, _ := excelize.CoordinatesToCellName(qCol, r)
			if err := f.SetCellStyle(sheet, q, q, hitStyle); err != nil {
				return err
			}
		}
	}

	if w.config.FreezeHeader {
		if err := f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return err
		}
	}

	return f.Write(out)
}

// 1-based positions of the float columns in ColumnsFor
var floatColumns = []int{5, 7, 9, 10, 11, 12}

// rowValues mirrors stats.FormatRow with numeric cells
func rowValues(r stats.PairwiseResult) []interface{} {
	return []interface{}{
		r.FacetID, r.GroupA, r.GroupB,
		r.NA, cellFloat(r.MeasureA),
		r.NB, cellFloat(r.MeasureB),
		r.N, cellFloat(r.Statistic),
		cellFloat(r.PValue), cellFloat(r.QValue),
		cellFloat(r.EffectSize), string(r.Method), string(r.Degradation),
	}
}

func cellFloat(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if strings.EqualFold(v, s) {
			return i
		}
	}
	return -1
}

// WriterFor picks a writer from a file name's extension
func WriterFor(name string, config ExcelConfig) ports.StatsTableWriter {
	if strings.HasSuffix(strings.ToLower(name), ".xlsx") {
		return NewXLSXWriter(config)
	}
	return NewTSVWriter()
}
