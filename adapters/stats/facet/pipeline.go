package facet

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"gostats/domain/core"
	"gostats/domain/distribution"
	"gostats/domain/stats"
	"gostats/internal"
)

// BuildFunc produces the stats table of one facet
type BuildFunc func(ctx context.Context, f Facet) (*stats.StatsTable, error)

// Pipeline fans a faceted distribution out to BuildFunc and collates the
// results in facet order.
//
// # Execution Model
//
//  1. Decompose the distribution into facets
//  2. Build every facet in parallel via errgroup, at most workers at a time
//  3. Collate in facet order regardless of completion order
//
// The first failing facet cancels the rest and fails the whole run.
type Pipeline struct {
	workers int
	logger  *internal.Logger
}

// NewPipeline creates a pipeline. workers <= 0 means GOMAXPROCS.
func NewPipeline(workers int, logger *internal.Logger) *Pipeline {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Pipeline{workers: workers, logger: logger}
}

// Run decomposes dist by mode, builds each facet and collates the tables
func (p *Pipeline) Run(ctx context.Context, dist *distribution.Distribution, mode stats.FacetMode, build BuildFunc) (*stats.StatsTable, error) {
	facets, err := Decompose(dist, mode)
	if err != nil {
		return nil, err
	}
	if len(facets) == 0 {
		return nil, core.NewSchemaError("decompose %s: distribution has no facets", mode)
	}

	start := time.Now()
	p.logger.Debug("[FacetPipeline] %d facets (%s), %d workers", len(facets), mode, p.workers)

	tables := make([]*stats.StatsTable, len(facets))
	keys := make([]string, len(facets))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, f := range facets {
		keys[i] = f.Key
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			table, err := build(gCtx, f)
			if err != nil {
				return fmt.Errorf("facet %q: %w", f.Key, err)
			}
			tables[i] = table
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		p.logger.Warn("[FacetPipeline] aborted: %v", err)
		return nil, err
	}

	out, err := Collate(tables, keys)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("[FacetPipeline] collated %d rows in %s", out.Len(), time.Since(start))
	return out, nil
}
