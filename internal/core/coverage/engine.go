// Package coverage computes how much of a subject area a set of candidate
// areas covers.
//
// All geometry work is delegated to a ports.GeometryEngine. The engine only
// decides the order of operations:
//
//	leftover = ((subject \ c1) \ c2) \ ... \ cn
//	covered  = subject \ leftover
//	covered% = 100 * area(covered) / area(subject)
//
// The covered region is derived by subtracting the leftover from the subject
// rather than by intersecting, so only the difference primitive is needed.
//
// Per-candidate results are recomputed from scratch against the subject, one
// candidate at a time. They are not a partition of the aggregate: candidates
// that overlap each other each report their full individual contribution, so
// the per-candidate percentages may sum to more than the aggregate.
package coverage

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/geocover/internal/core/domain"
	"github.com/samirrijal/geocover/internal/core/ports"
)

// Engine runs leftover, partial and full coverage computations.
// It holds no per-request state and is safe for concurrent use as long as
// the underlying GeometryEngine is.
type Engine struct {
	geo        ports.GeometryEngine
	maxWorkers int
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxWorkers bounds how many per-candidate computations may run at
// once. Values below 1 mean sequential.
func WithMaxWorkers(n int) Option {
	return func(e *Engine) {
		if n < 1 {
			n = 1
		}
		e.maxWorkers = n
	}
}

// NewEngine creates an Engine over the given geometry primitive.
func NewEngine(geo ports.GeometryEngine, opts ...Option) *Engine {
	e := &Engine{geo: geo, maxWorkers: 1}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Leftover subtracts each candidate, in order, from what remains of the
// subject. With no candidates the subject is returned unchanged.
func (e *Engine) Leftover(subject domain.MultiPolygon, candidates []domain.MultiPolygon) domain.MultiPolygon {
	remaining := subject
	for _, c := range candidates {
		remaining = e.geo.Difference(remaining, c)
	}
	return remaining
}

// Partial computes the coverage of subject by all of candidates combined.
// The percentage is a plain division: a zero-area subject yields NaN or Inf.
func (e *Engine) Partial(subject domain.MultiPolygon, candidates []domain.MultiPolygon) domain.CoverageResult {
	leftover := e.Leftover(subject, candidates)
	covered := e.Leftover(subject, []domain.MultiPolygon{leftover})

	pct := 100.0 * e.geo.Area(covered) / e.geo.Area(subject)

	return domain.CoverageResult{
		CoveredPercentage: domain.Percentage(pct),
		Leftover:          &leftover,
		Covered:           &covered,
	}
}

// Full computes the aggregate coverage followed by one independent
// coverage per candidate. Partials are index-aligned with candidates.
//
// ctx is only consulted between candidate computations; a single
// computation is never interrupted.
func (e *Engine) Full(ctx context.Context, subject domain.MultiPolygon, candidates []domain.MultiPolygon) (*domain.AggregateCoverageResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	aggregate := e.Partial(subject, candidates)

	partials := make([]domain.CoverageResult, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxWorkers)
	for i, c := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			partials[i] = e.Partial(subject, []domain.MultiPolygon{c})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &domain.AggregateCoverageResult{
		CoverageResult: aggregate,
		Partials:       partials,
	}, nil
}
