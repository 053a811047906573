package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"gostats/adapters/postgres"
	"gostats/adapters/stats/stages"
	"gostats/app"
	"gostats/domain/distribution"
	"gostats/domain/stats"
	"gostats/internal"
	"gostats/internal/config"
)

// options shared by every command that runs a test
type testOptions struct {
	ordering     string
	pairing      string
	multiplicity string
	groups       []string
	groupColumn  string
	valueColumn  string
	sheet        string

	compare     string
	reference   string
	alternative string
	approx      string
	ignoreEmpty bool
	ignoreSet   bool // --ignore-empty-comparator given explicitly
	facet       string
	againstEach string

	output  string
	profile bool
	persist bool
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gostats",
		Short: "Pairwise non-parametric group comparisons (Mann-Whitney U, Wilcoxon signed-rank)",
		Long: `gostats compares groups of a long-form table pairwise and writes a stats
table with p-values, Benjamini-Hochberg q-values and rank-biserial effect sizes.

Input tables have one measurement per row with the columns
  id, group, measure, [subject], [class]
where subject links matched observations and class is the outer key of
multi-level (Multi/Nested) data. csv, tsv and xlsx are accepted.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newTestCmd("mann-whitney-u", stats.TestMannWhitneyU, false),
		newTestCmd("wilcoxon-srt", stats.TestWilcoxonSRT, false),
		newTestCmd("mann-whitney-u-facet", stats.TestMannWhitneyU, true),
		newTestCmd("wilcoxon-srt-facet", stats.TestWilcoxonSRT, true),
		newFacetCmd(),
		newCollateCmd(),
		newGenerateCmd(),
	)
	return rootCmd
}

func newTestCmd(name string, test stats.TestType, faceted bool) *cobra.Command {
	opts := &testOptions{}

	short := fmt.Sprintf("Run %s over every resolved group pair", test)
	if faceted {
		short = fmt.Sprintf("Run %s per facet and collate the tables", test)
	}

	cmd := &cobra.Command{
		Use:   name + " [input]",
		Short: short,
		Example: fmt.Sprintf(`  gostats %s data.tsv --compare reference --reference ctrl
  gostats %s data.xlsx --alternative greater --output table.xlsx`, name, name),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ignoreSet = cmd.Flags().Changed("ignore-empty-comparator")
			return runTest(cmd.Context(), test, faceted, args[0], opts)
		},
	}

	pairing := string(distribution.Independent)
	multiplicity := string(distribution.Single)
	if test == stats.TestWilcoxonSRT {
		pairing = string(distribution.Matched)
	}
	if faceted {
		multiplicity = string(distribution.Multi)
	}

	f := cmd.Flags()
	f.StringVar(&opts.ordering, "ordering", string(distribution.Unordered), "Group ordering: ordered|unordered")
	f.StringVar(&opts.pairing, "pairing", pairing, "Pairing: matched|independent")
	f.StringVar(&opts.multiplicity, "multiplicity", multiplicity, "Multiplicity: single|multi|nested_ordered|nested_unordered")
	f.StringSliceVar(&opts.groups, "groups", nil, "Declared group set (default: derived from the data)")
	f.StringVar(&opts.groupColumn, "group-column", "group", "Column holding the group label")
	f.StringVar(&opts.valueColumn, "value-column", "measure", "Column holding the measurement")
	f.StringVar(&opts.sheet, "sheet", "", "Sheet to read from xlsx input (default: first)")

	f.StringVar(&opts.compare, "compare", "", "Comparison strategy: all-pairwise|reference|baseline|consecutive")
	f.StringVar(&opts.reference, "reference", "", "Reference (or baseline) group")
	f.StringVar(&opts.alternative, "alternative", "", "Alternative: two-sided|greater|less (default from STATS_ALTERNATIVE)")
	f.StringVar(&opts.approx, "p-val-approx", "", "p-value method: auto|exact|asymptotic (default from STATS_P_VAL_APPROX)")
	f.BoolVar(&opts.ignoreEmpty, "ignore-empty-comparator", false, "Record NaN rows instead of failing on empty comparisons (default from STATS_IGNORE_EMPTY_COMPARATOR)")
	if faceted {
		f.StringVar(&opts.facet, "facet", string(stats.FacetWithin), "Facet mode: within|across")
	} else {
		f.StringVar(&opts.againstEach, "against-each", "", "Second input whose groups every input group is compared against")
	}

	f.StringVarP(&opts.output, "output", "o", "", "Output file (.tsv, .xlsx, .json, .md, .html); stdout when empty")
	f.BoolVar(&opts.profile, "profile", false, "Include per-group summaries in text, markdown and html output")
	f.BoolVar(&opts.persist, "persist", false, "Save the table to the database configured by DATABASE_URL")
	return cmd
}

func runTest(ctx context.Context, test stats.TestType, faceted bool, input string, opts *testOptions) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	service, closeDB, err := newService(cfg, logger, opts.persist)
	if err != nil {
		return err
	}
	defer closeDB()

	tags := distribution.Tags{
		Ordering:     distribution.Ordering(opts.ordering),
		Pairing:      distribution.Pairing(opts.pairing),
		Multiplicity: distribution.Multiplicity(opts.multiplicity),
	}
	dist, err := readDistribution(ctx, input, tags, opts)
	if err != nil {
		return err
	}

	req := app.Request{
		Distribution: dist,
		Params: stats.Params{
			Compare:        stats.CompareMode(opts.compare),
			ReferenceGroup: opts.reference,
			Alternative:    stats.Alternative(opts.alternative),
			PValApprox:     stats.PValueApprox(opts.approx),
			Facet:          stats.FacetMode(opts.facet),
		},
		Persist: opts.persist,
	}
	if opts.ignoreSet {
		req.Params.IgnoreEmptyComparator = stats.Flag(opts.ignoreEmpty)
	}
	if opts.againstEach != "" {
		// against_each shares the primary's tags but never its declared groups
		againstOpts := *opts
		againstOpts.groups = nil
		if req.AgainstEach, err = readDistribution(ctx, opts.againstEach, tags, &againstOpts); err != nil {
			return err
		}
	}

	var table *stats.StatsTable
	switch {
	case test == stats.TestMannWhitneyU && !faceted:
		table, err = service.MannWhitneyU(ctx, req)
	case test == stats.TestWilcoxonSRT && !faceted:
		table, err = service.WilcoxonSRT(ctx, req)
	case test == stats.TestMannWhitneyU:
		table, err = service.MannWhitneyUFacet(ctx, req)
	default:
		table, err = service.WilcoxonSRTFacet(ctx, req)
	}
	if err != nil {
		return err
	}

	var profiles []stages.GroupProfile
	if opts.profile && !faceted {
		if profiles, err = service.Profile(dist); err != nil {
			return err
		}
	}
	if opts.persist {
		logger.Info("Saved table %s", table.ID)
	}
	return writeTable(opts.output, table, profiles)
}

func loadConfig() (*config.Config, *internal.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel)), nil
}

// newService wires a stats service. A database connection is only opened
// when persistence is requested and configured.
func newService(cfg *config.Config, logger *internal.Logger, persist bool) (*app.StatsService, func(), error) {
	opts := app.ServiceOptions{
		Defaults:     cfg.Params(),
		FacetWorkers: cfg.Stats.FacetWorkers,
		Logger:       logger,
	}
	closeDB := func() {}
	if persist {
		if !cfg.PersistenceEnabled() {
			return nil, nil, fmt.Errorf("--persist requires DATABASE_URL")
		}
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		opts.Repository = postgres.NewStatsTableRepository(db)
		closeDB = func() { db.Close() }
	}
	return app.NewStatsService(opts), closeDB, nil
}

func parseKeys(s string) []string {
	if s == "" {
		return nil
	}
	keys := strings.Split(s, ",")
	for i := range keys {
		keys[i] = strings.TrimSpace(keys[i])
	}
	return keys
}
