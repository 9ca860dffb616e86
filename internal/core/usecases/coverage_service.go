package usecases

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/geocover/internal/core/coverage"
	"github.com/samirrijal/geocover/internal/core/domain"
	"github.com/samirrijal/geocover/internal/core/ports"
	"github.com/samirrijal/geocover/internal/pkg/logging"
	"github.com/samirrijal/geocover/internal/pkg/metrics"
	"github.com/samirrijal/geocover/internal/pkg/telemetry"
)

type transportKey struct{}

// WithTransport tags ctx with the surface serving the request, used as a
// metric and span label.
func WithTransport(ctx context.Context, transport string) context.Context {
	return context.WithValue(ctx, transportKey{}, transport)
}

func transportFromCtx(ctx context.Context) string {
	if t, ok := ctx.Value(transportKey{}).(string); ok && t != "" {
		return t
	}
	return "unknown"
}

// CoverageService handles coverage requests for every transport.
type CoverageService struct {
	engine        *coverage.Engine
	maxCandidates int
	tracer        trace.Tracer
	clock         clockwork.Clock
}

// CoverageOption configures a CoverageService.
type CoverageOption func(*CoverageService)

// WithMaxCandidates rejects requests with more than n candidates.
// Zero disables the limit.
func WithMaxCandidates(n int) CoverageOption {
	return func(s *CoverageService) { s.maxCandidates = n }
}

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) CoverageOption {
	return func(s *CoverageService) { s.tracer = t }
}

// WithClock overrides the clock used to time computations.
func WithClock(c clockwork.Clock) CoverageOption {
	return func(s *CoverageService) { s.clock = c }
}

// NewCoverageService creates a new CoverageService. maxWorkers bounds the
// number of per-candidate computations run at once.
func NewCoverageService(geo ports.GeometryEngine, maxWorkers int, opts ...CoverageOption) *CoverageService {
	s := &CoverageService{
		engine: coverage.NewEngine(geo, coverage.WithMaxWorkers(maxWorkers)),
		tracer: telemetry.Tracer(),
		clock:  clockwork.NewRealClock(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Coverage computes the aggregate and per-candidate coverage of subject.
func (s *CoverageService) Coverage(ctx context.Context, subject domain.GeoArea, candidates []domain.GeoArea) (*domain.AggregateCoverageResult, error) {
	transport := transportFromCtx(ctx)
	log := logging.LoggerFromCtx(ctx)

	if s.maxCandidates > 0 && len(candidates) > s.maxCandidates {
		metrics.Computations.WithLabelValues(transport, metrics.OutcomeRejected).Inc()
		return nil, fmt.Errorf("%w: got %d, limit is %d", domain.ErrTooManyCandidates, len(candidates), s.maxCandidates)
	}

	ctx, span := s.tracer.Start(ctx, telemetry.SpanCoverage, trace.WithAttributes(
		attribute.Int(telemetry.AttrCandidates, len(candidates)),
		attribute.String(telemetry.AttrTransport, transport),
	))
	defer span.End()
	if subject.ID != nil {
		span.SetAttributes(attribute.String(telemetry.AttrSubjectID, *subject.ID))
	}

	areas := make([]domain.MultiPolygon, len(candidates))
	for i, c := range candidates {
		areas[i] = c.Area
	}

	start := s.clock.Now()
	res, err := s.engine.Full(ctx, subject.Area, areas)
	elapsed := s.clock.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.Computations.WithLabelValues(transport, metrics.OutcomeCancelled).Inc()
		return nil, fmt.Errorf("compute coverage: %w", err)
	}

	nonFinite := 0
	if !res.CoveredPercentage.IsFinite() {
		nonFinite++
	}
	for _, p := range res.Partials {
		if !p.CoveredPercentage.IsFinite() {
			nonFinite++
		}
	}

	metrics.Computations.WithLabelValues(transport, metrics.OutcomeOK).Inc()
	metrics.ComputationDuration.WithLabelValues(transport).Observe(elapsed.Seconds())
	metrics.CandidatesPerRequest.Observe(float64(len(candidates)))
	metrics.NonFinitePercentages.Add(float64(nonFinite))

	span.SetAttributes(
		attribute.Float64(telemetry.AttrPercentage, float64(res.CoveredPercentage)),
		attribute.Int(telemetry.AttrNonFinite, nonFinite),
	)

	if nonFinite > 0 {
		log.Warn("coverage percentage not finite, subject has zero area",
			"candidates", len(candidates),
			"non_finite", nonFinite,
		)
	}
	log.Debug("coverage computed",
		"candidates", len(candidates),
		"covered_pct", float64(res.CoveredPercentage),
		"duration", elapsed.String(),
	)

	return res, nil
}

// Leftover returns what remains of subject after subtracting each clipper
// in order.
func (s *CoverageService) Leftover(ctx context.Context, subject domain.MultiPolygon, clippers []domain.MultiPolygon) (domain.MultiPolygon, error) {
	if s.maxCandidates > 0 && len(clippers) > s.maxCandidates {
		return nil, fmt.Errorf("%w: got %d, limit is %d", domain.ErrTooManyCandidates, len(clippers), s.maxCandidates)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	_, span := s.tracer.Start(ctx, telemetry.SpanLeftover, trace.WithAttributes(
		attribute.Int(telemetry.AttrCandidates, len(clippers)),
		attribute.String(telemetry.AttrTransport, transportFromCtx(ctx)),
	))
	defer span.End()

	leftover := s.engine.Leftover(subject, clippers)
	span.SetAttributes(attribute.Int(telemetry.AttrPolygonsLeft, len(leftover)))

	logging.LoggerFromCtx(ctx).Debug("leftover computed",
		"clippers", len(clippers),
		"polygons", len(leftover),
	)
	return leftover, nil
}
