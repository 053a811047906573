package excel

// RawRowData represents a row of raw table data as column -> cell text
type RawRowData map[string]string

// TableData represents a complete table read from a file
type TableData struct {
	Headers []string     // Column headers
	Rows    []RawRowData // Data rows
	Lines   []int        // 1-based source line (or sheet row) of each data row
}

// HasColumn reports whether the table carries a column
func (d *TableData) HasColumn(name string) bool {
	for _, h := range d.Headers {
		if h == name {
			return true
		}
	}
	return false
}

// Long-form column names
const (
	ColumnID      = "id"
	ColumnGroup   = "group"
	ColumnMeasure = "measure"
	ColumnSubject = "subject"
	ColumnClass   = "class" // outer key of Multi/Nested distributions
)
