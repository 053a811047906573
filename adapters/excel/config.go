package excel

// ExcelConfig holds output settings for written stats tables
type ExcelConfig struct {
	SheetName      string  `json:"sheet_name"`
	FloatFormat    string  `json:"float_format"` // excelize number format code
	FreezeHeader   bool    `json:"freeze_header"`
	HighlightBelow float64 `json:"highlight_below"` // q-value threshold; 0 disables
}

// DefaultExcelConfig returns sensible defaults for xlsx output
func DefaultExcelConfig() ExcelConfig {
	return ExcelConfig{
		SheetName:      "stats",
		FloatFormat:    "0.000000",
		FreezeHeader:   true,
		HighlightBelow: 0.05,
	}
}
