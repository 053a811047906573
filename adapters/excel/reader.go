package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// DataReader handles reading xlsx, csv and tsv tables from a stream
type DataReader struct {
	name     string
	fileType string // "xlsx", "csv" or "tsv"
	sheet    string
}

// NewDataReader picks the format from name's extension. Unknown extensions
// are read as csv.
func NewDataReader(name, sheet string) *DataReader {
	fileType := "csv"
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx":
		fileType = "xlsx"
	case ".tsv", ".tab", ".txt":
		fileType = "tsv"
	}
	return &DataReader{name: name, fileType: fileType, sheet: sheet}
}

// FileType returns the detected format
func (r *DataReader) FileType() string { return r.fileType }

// ReadData reads src into headers and string rows
func (r *DataReader) ReadData(src io.Reader) (*TableData, error) {
	switch r.fileType {
	case "xlsx":
		return r.readExcelData(src)
	case "csv":
		return r.readDelimited(src, ',')
	case "tsv":
		return r.readDelimited(src, '\t')
	}
	return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
}

// readExcelData reads the configured sheet, or the first one
func (r *DataReader) readExcelData(src io.Reader) (*TableData, error) {
	startTime := time.Now()
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file %s: %w", r.name, err)
	}
	defer f.Close()

	sheet := r.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("Excel file %s has no sheets", r.name)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	log.Printf("[DataReader] %s/%s read in %.2fms (%d rows)", r.name, sheet,
		float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))

	// sheet rows keep their position, blank ones come back empty
	lines := make([]int, len(rows))
	for i := range rows {
		lines[i] = i + 1
	}
	return r.processRows(rows, lines)
}

// readDelimited records the line each row starts on, since comment and blank
// lines are dropped by the csv reader.
func (r *DataReader) readDelimited(src io.Reader, comma rune) (*TableData, error) {
	reader := csv.NewReader(src)
	reader.Comma = comma
	reader.Comment = '#'
	reader.FieldsPerRecord = -1

	var rows [][]string
	var lines []int
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s file %s: %w", strings.ToUpper(r.fileType), r.name, err)
		}
		line, _ := reader.FieldPos(0)
		rows = append(rows, row)
		lines = append(lines, line)
	}
	return r.processRows(rows, lines)
}

// processRows converts raw string rows into TableData
func (r *DataReader) processRows(rows [][]string, lines []int) (*TableData, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("%s must have at least a header row and one data row", r.name)
	}

	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	seen := make(map[string]bool, len(headerRow))
	for i, header := range headerRow {
		h := strings.TrimSpace(header)
		if seen[h] {
			return nil, fmt.Errorf("%s: duplicate column %q", r.name, h)
		}
		seen[h] = true
		headers[i] = h
	}

	dataRows := make([]RawRowData, 0, len(rows)-1)
	dataLines := make([]int, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		dataLines = append(dataLines, lines[i+1])
		rowData := make(RawRowData, len(headers))
		for j, cell := range row {
			if j < len(headers) {
				rowData[headers[j]] = strings.TrimSpace(cell)
			}
		}
		dataRows = append(dataRows, rowData)
	}

	return &TableData{
		Headers: headers,
		Rows:    dataRows,
		Lines:   dataLines,
	}, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
