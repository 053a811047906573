package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"gostats/adapters/excel"
	"gostats/adapters/stats/facet"
	"gostats/domain/distribution"
	"gostats/domain/stats"
	"gostats/internal/testkit"
)

func newFacetCmd() *cobra.Command {
	opts := &testOptions{}
	var outDir string

	cmd := &cobra.Command{
		Use:   "facet within|across [input]",
		Short: "Split a multi-level table into one long-form file per facet",
		Long: `within splits by the outer key (class) and keeps the inner groups.
across splits a nested table by the inner group and turns the outer keys
into the groups. Files are named <key>.tsv in --out-dir.`,
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(stats.FacetWithin), string(stats.FacetAcross)},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			service, closeDB, err := newService(cfg, logger, false)
			if err != nil {
				return err
			}
			defer closeDB()

			tags := distribution.Tags{
				Ordering:     distribution.Ordering(opts.ordering),
				Pairing:      distribution.Pairing(opts.pairing),
				Multiplicity: distribution.Multiplicity(opts.multiplicity),
			}
			dist, err := readDistribution(cmd.Context(), args[1], tags, opts)
			if err != nil {
				return err
			}

			var facets []facet.Facet
			switch stats.FacetMode(args[0]) {
			case stats.FacetWithin:
				facets, err = service.FacetWithin(dist)
			case stats.FacetAcross:
				facets, err = service.FacetAcross(dist)
			default:
				return fmt.Errorf("unknown facet mode %q (want within or across)", args[0])
			}
			if err != nil {
				return err
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			for _, f := range facets {
				path := filepath.Join(outDir, f.Key+".tsv")
				if err := writeLongForm(path, f.Dist); err != nil {
					return err
				}
				fmt.Printf("%s\t%d records\t%v\n", path, len(f.Dist.Records()), f.Dist.Tags())
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.ordering, "ordering", string(distribution.Ordered), "Inner group ordering: ordered|unordered")
	f.StringVar(&opts.pairing, "pairing", string(distribution.Matched), "Pairing: matched|independent")
	f.StringVar(&opts.multiplicity, "multiplicity", string(distribution.NestedOrdered), "Multiplicity: multi|nested_ordered|nested_unordered")
	f.StringVar(&opts.groupColumn, "group-column", "group", "Column holding the group label")
	f.StringVar(&opts.valueColumn, "value-column", "measure", "Column holding the measurement")
	f.StringVar(&opts.sheet, "sheet", "", "Sheet to read from xlsx input")
	f.StringVar(&outDir, "out-dir", ".", "Directory the facet files are written to")
	return cmd
}

func newCollateCmd() *cobra.Command {
	var keys, output string
	var persist bool

	cmd := &cobra.Command{
		Use:   "collate [table.json...]",
		Short: "Concatenate per-facet stats tables into one table",
		Example: `  gostats mann-whitney-u x.tsv -o x.json
  gostats mann-whitney-u y.tsv -o y.json
  gostats collate x.json y.json --keys x,y -o all.xlsx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			service, closeDB, err := newService(cfg, logger, persist)
			if err != nil {
				return err
			}
			defer closeDB()

			tables := make([]*stats.StatsTable, len(args))
			for i, path := range args {
				if tables[i], err = readTable(path); err != nil {
					return err
				}
			}

			// default keys are the file names without extension
			facetKeys := parseKeys(keys)
			if facetKeys == nil {
				for _, path := range args {
					base := filepath.Base(path)
					facetKeys = append(facetKeys, base[:len(base)-len(filepath.Ext(base))])
				}
			}

			table, err := service.CollateStats(cmd.Context(), tables, facetKeys, persist)
			if err != nil {
				return err
			}
			return writeTable(output, table, nil)
		},
	}

	cmd.Flags().StringVar(&keys, "keys", "", "Comma-separated facet keys, one per table (default: file names)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (.tsv, .xlsx, .json, .md, .html); stdout when empty")
	cmd.Flags().BoolVar(&persist, "persist", false, "Save the collated table to the database configured by DATABASE_URL")
	return cmd
}

func newGenerateCmd() *cobra.Command {
	config := testkit.DefaultGeneratorConfig()
	var ordering, pairing, multiplicity, output string
	var printConfig bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a reproducible synthetic long-form table",
		Example: `  gostats generate --groups 3 --per-group 6 --pairing matched -o demo.tsv
  gostats generate --facets 2 --multiplicity nested_ordered --ordering ordered --pairing matched`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config.Tags = distribution.Tags{
				Ordering:     distribution.Ordering(ordering),
				Pairing:      distribution.Pairing(pairing),
				Multiplicity: distribution.Multiplicity(multiplicity),
			}
			if printConfig {
				enc := json.NewEncoder(os.Stderr)
				enc.SetIndent("", "  ")
				if err := enc.Encode(config); err != nil {
					return err
				}
			}

			dist, err := testkit.NewGenerator(config).Distribution()
			if err != nil {
				return err
			}
			if output == "" {
				return excel.WriteLongForm(os.Stdout, dist)
			}
			return writeLongForm(output, dist)
		},
	}

	f := cmd.Flags()
	f.IntVar(&config.Groups, "groups", config.Groups, "Groups per facet")
	f.IntVar(&config.PerGroup, "per-group", config.PerGroup, "Observations (or subjects) per group")
	f.IntVar(&config.Facets, "facets", config.Facets, "Outer keys; 0 for single-level data")
	f.Float64Var(&config.Shift, "shift", config.Shift, "Location shift added per group index")
	f.Float64Var(&config.Sigma, "sigma", config.Sigma, "Noise standard deviation")
	f.IntVar(&config.Precision, "precision", config.Precision, "Decimal places kept (small values create ties); negative keeps all")
	f.Uint64Var(&config.Seed, "seed", config.Seed, "Random seed")
	f.StringVar(&ordering, "ordering", string(config.Tags.Ordering), "Group ordering: ordered|unordered")
	f.StringVar(&pairing, "pairing", string(config.Tags.Pairing), "Pairing: matched|independent")
	f.StringVar(&multiplicity, "multiplicity", string(config.Tags.Multiplicity), "Multiplicity: single|multi|nested_ordered|nested_unordered")
	f.StringVarP(&output, "output", "o", "", "Output file; stdout when empty")
	f.BoolVar(&printConfig, "print-config", false, "Print the generator config to stderr")
	return cmd
}

func writeLongForm(path string, dist *distribution.Distribution) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := excel.WriteLongForm(f, dist); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
