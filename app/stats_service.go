package app

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"gostats/adapters/stats/compare"
	"gostats/adapters/stats/facet"
	"gostats/adapters/stats/stages"
	"gostats/domain/core"
	"gostats/domain/distribution"
	"gostats/domain/stats"
	"gostats/internal"
	"gostats/internal/errors"
	"gostats/ports"
)

// StatsService exposes the pairwise tests, facet operations and collation
// behind one parameter surface. Every returned error is an *errors.AppError.
type StatsService struct {
	builder  *stages.PairwiseStage
	profiler *stages.ProfileStage
	pipeline *facet.Pipeline
	repo     ports.StatsTableRepository // nil disables persistence
	defaults stats.Params
	validate *validator.Validate
	logger   *internal.Logger
}

// Request is the input of every test entry point
type Request struct {
	Distribution *distribution.Distribution
	AgainstEach  *distribution.Distribution // optional comparator groups
	Params       stats.Params
	Persist      bool
}

// ServiceOptions configures a StatsService
type ServiceOptions struct {
	Defaults     stats.Params
	FacetWorkers int
	Repository   ports.StatsTableRepository
	Logger       *internal.Logger
}

// NewStatsService creates a stats service
func NewStatsService(opts ServiceOptions) *StatsService {
	logger := opts.Logger
	if logger == nil {
		logger = internal.DefaultLogger
	}
	defaults := opts.Defaults
	if defaults.Compare == "" {
		defaults = stats.DefaultParams()
	}
	return &StatsService{
		builder:  stages.NewPairwiseStage(logger),
		profiler: stages.NewProfileStage(),
		pipeline: facet.NewPipeline(opts.FacetWorkers, logger),
		repo:     opts.Repository,
		defaults: defaults,
		validate: validator.New(),
		logger:   logger,
	}
}

// MannWhitneyU compares independent groups of a single-level distribution
func (s *StatsService) MannWhitneyU(ctx context.Context, req Request) (*stats.StatsTable, error) {
	return s.run(ctx, stats.TestMannWhitneyU, req)
}

// WilcoxonSRT compares matched groups of a single-level distribution
func (s *StatsService) WilcoxonSRT(ctx context.Context, req Request) (*stats.StatsTable, error) {
	return s.run(ctx, stats.TestWilcoxonSRT, req)
}

// MannWhitneyUFacet runs Mann-Whitney per facet and collates the tables.
// Matched facets are reinterpreted as independent.
func (s *StatsService) MannWhitneyUFacet(ctx context.Context, req Request) (*stats.StatsTable, error) {
	return s.runFacet(ctx, stats.TestMannWhitneyU, req)
}

// WilcoxonSRTFacet runs Wilcoxon per facet (within only) and collates the tables
func (s *StatsService) WilcoxonSRTFacet(ctx context.Context, req Request) (*stats.StatsTable, error) {
	return s.runFacet(ctx, stats.TestWilcoxonSRT, req)
}

// FacetWithin splits a Multi or Nested distribution by its outer key
func (s *StatsService) FacetWithin(dist *distribution.Distribution) ([]facet.Facet, error) {
	facets, err := facet.Decompose(dist, stats.FacetWithin)
	if err != nil {
		return nil, errors.FromDomain(err)
	}
	return facets, nil
}

// FacetAcross splits a Nested distribution by its inner group
func (s *StatsService) FacetAcross(dist *distribution.Distribution) ([]facet.Facet, error) {
	facets, err := facet.Decompose(dist, stats.FacetAcross)
	if err != nil {
		return nil, errors.FromDomain(err)
	}
	return facets, nil
}

// CollateStats concatenates per-facet tables, stamping each row with its key
func (s *StatsService) CollateStats(ctx context.Context, tables []*stats.StatsTable, keys []string, persist bool) (*stats.StatsTable, error) {
	table, err := facet.Collate(tables, keys)
	if err != nil {
		return nil, errors.FromDomain(err)
	}
	s.logger.Info("[StatsService] collated %d tables into %s (%d rows)", len(tables), table.ID, table.Len())
	if err := s.persist(ctx, table, persist); err != nil {
		return nil, err
	}
	return table, nil
}

// Profile summarises each group of a single-level distribution
func (s *StatsService) Profile(dist *distribution.Distribution) ([]stages.GroupProfile, error) {
	if dist == nil {
		return nil, errors.FromDomain(core.NewSchemaError("no distribution to profile"))
	}
	profiles, err := s.profiler.Execute(dist)
	if err != nil {
		return nil, errors.FromDomain(err)
	}
	return profiles, nil
}

// GetTable loads a stored table
func (s *StatsService) GetTable(ctx context.Context, id core.TableID) (*stats.StatsTable, error) {
	if s.repo == nil {
		return nil, errors.New(errors.CodeNotFound, "persistence is disabled")
	}
	table, err := s.repo.GetTable(ctx, id)
	if err != nil {
		return nil, errors.FromDomain(err)
	}
	return table, nil
}

// ListTables lists stored tables, most recent first
func (s *StatsService) ListTables(ctx context.Context, limit int) ([]ports.TableSummary, error) {
	if s.repo == nil {
		return []ports.TableSummary{}, nil
	}
	summaries, err := s.repo.ListTables(ctx, limit)
	if err != nil {
		return nil, errors.FromDomain(err)
	}
	return summaries, nil
}

// DeleteTable removes a stored table
func (s *StatsService) DeleteTable(ctx context.Context, id core.TableID) error {
	if s.repo == nil {
		return errors.New(errors.CodeNotFound, "persistence is disabled")
	}
	return errors.FromDomain(s.repo.DeleteTable(ctx, id))
}

// Defaults returns the parameters applied to unset request fields
func (s *StatsService) Defaults() stats.Params { return s.defaults }

func (s *StatsService) run(ctx context.Context, test stats.TestType, req Request) (*stats.StatsTable, error) {
	start := time.Now()
	params, err := s.params(req)
	if err != nil {
		return nil, err
	}
	if params.Facet != "" {
		return nil, errors.New(errors.CodeInvalidComparison, "facet is only accepted by the facet entry points")
	}
	s.logger.Info("[StatsService] %s: %d records, %s, %s, %s", test, req.Distribution.Len(),
		params.Compare, params.Alternative, params.PValApprox)

	table, err := s.buildTable(req.Distribution, req.AgainstEach, test, params)
	if err != nil {
		s.logger.Warn("[StatsService] %s failed: %v", test, err)
		return nil, errors.FromDomain(err)
	}
	if err := s.persist(ctx, table, req.Persist); err != nil {
		return nil, err
	}

	s.logger.Info("[StatsService] %s: table %s, %d rows in %dms", test, table.ID, table.Len(), time.Since(start).Milliseconds())
	return table, nil
}

func (s *StatsService) runFacet(ctx context.Context, test stats.TestType, req Request) (*stats.StatsTable, error) {
	start := time.Now()
	params, err := s.params(req)
	if err != nil {
		return nil, err
	}
	if params.Facet == "" {
		params.Facet = stats.FacetWithin
	}
	if req.AgainstEach != nil {
		return nil, errors.New(errors.CodeInvalidComparison, "against_each is not accepted by the facet entry points")
	}
	if err := stats.CheckFacetCompatibility(test, req.Distribution.Tags(), params.Facet); err != nil {
		return nil, errors.FromDomain(err)
	}
	s.logger.Info("[StatsService] %s facet %s: %d records, %s, %s", test, params.Facet, req.Distribution.Len(),
		params.Compare, params.Alternative)

	table, err := s.pipeline.Run(ctx, req.Distribution, params.Facet, func(ctx context.Context, f facet.Facet) (*stats.StatsTable, error) {
		dist := f.Dist
		if test == stats.TestMannWhitneyU {
			dist = dist.AsIndependent()
		}
		return s.buildTable(dist, nil, test, params)
	})
	if err != nil {
		s.logger.Warn("[StatsService] %s facet failed: %v", test, err)
		return nil, errors.FromDomain(err)
	}
	if err := s.persist(ctx, table, req.Persist); err != nil {
		return nil, err
	}

	s.logger.Info("[StatsService] %s facet: table %s, %d rows in %dms", test, table.ID, table.Len(), time.Since(start).Milliseconds())
	return table, nil
}

func (s *StatsService) buildTable(dist, against *distribution.Distribution, test stats.TestType, params stats.Params) (*stats.StatsTable, error) {
	// compatibility first so a bad request reports the tags, not the pairs
	if err := stats.CheckCompatibility(test, dist.Tags(), params.Compare); err != nil {
		return nil, err
	}
	var againstEach []string
	if against != nil {
		againstEach = against.Groups()
	}
	pairs, err := compare.Resolve(dist.Groups(), dist.Tags().IsOrdered(), params.Compare, params.ReferenceGroup, againstEach)
	if err != nil {
		return nil, err
	}
	return s.builder.Build(dist, against, pairs, test, params)
}

// params fills unset fields from the service defaults and validates the result
func (s *StatsService) params(req Request) (stats.Params, error) {
	if req.Distribution == nil {
		return stats.Params{}, errors.FromDomain(core.NewSchemaError("no distribution given"))
	}
	p := req.Params
	if p.Compare == "" {
		p.Compare = s.defaults.Compare
	}
	if p.Alternative == "" {
		p.Alternative = s.defaults.Alternative
	}
	if p.PValApprox == "" {
		p.PValApprox = s.defaults.PValApprox
	}
	if p.IgnoreEmptyComparator == nil {
		p.IgnoreEmptyComparator = stats.Flag(s.defaults.IgnoresEmptyComparator())
	}

	if err := s.validate.Struct(p); err != nil {
		return p, errors.ValidationError("invalid parameters", err)
	}
	return p, nil
}

func (s *StatsService) persist(ctx context.Context, table *stats.StatsTable, requested bool) error {
	if !requested {
		return nil
	}
	if s.repo == nil {
		s.logger.Warn("[StatsService] persistence requested but no database is configured, table %s not saved", table.ID)
		return nil
	}
	if err := s.repo.SaveTable(ctx, table); err != nil {
		return errors.FromDomain(err)
	}
	s.logger.Debug("[StatsService] saved table %s", table.ID)
	return nil
}
