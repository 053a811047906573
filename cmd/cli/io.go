package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gostats/adapters/excel"
	"gostats/adapters/report"
	"gostats/adapters/stats/stages"
	"gostats/domain/distribution"
	"gostats/domain/stats"
	"gostats/ports"
)

// readDistribution reads a long-form file; "-" reads tsv from stdin
func readDistribution(ctx context.Context, path string, tags distribution.Tags, opts *testOptions) (*distribution.Distribution, error) {
	var r io.Reader = os.Stdin
	name := "stdin.tsv"
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		r, name = f, path
	}

	return excel.NewLongFormReader().ReadDistribution(ctx, ports.Source{Name: name, Reader: r}, ports.ReadSpec{
		Tags:        tags,
		Groups:      opts.groups,
		GroupColumn: opts.groupColumn,
		ValueColumn: opts.valueColumn,
		Sheet:       opts.sheet,
	})
}

// writeTable writes table in the format picked by the output extension.
// An empty output prints the text report to stdout.
func writeTable(output string, table *stats.StatsTable, profiles []stages.GroupProfile) error {
	cfg := report.DefaultConfig()
	cfg.Profiles = profiles
	formatter := report.NewFormatter(cfg)

	if output == "" {
		return formatter.Write(os.Stdout, table, "text")
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", output, err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(output)); ext {
	case ".json":
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		err = enc.Encode(table)
	case ".txt":
		err = formatter.Write(f, table, "text")
	case ".md", ".html":
		err = formatter.Write(f, table, strings.TrimPrefix(ext, "."))
	default:
		err = excel.WriterFor(output, excel.DefaultExcelConfig()).WriteTable(f, table)
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %d rows to %s\n", table.Len(), output)
	return nil
}

func readTable(path string) (*stats.StatsTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var table stats.StatsTable
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &table, nil
}
