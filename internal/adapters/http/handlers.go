package http

import (
	"github.com/gofiber/fiber/v2"

	geojsonadapter "github.com/samirrijal/geocover/internal/adapters/geojson"
	"github.com/samirrijal/geocover/internal/core/usecases"
	"github.com/samirrijal/geocover/internal/pkg/metrics"
)

// CoverageHandler computes the aggregate and per-candidate coverage of
// areaToBeCovered by intersectingCandidates.
//
// POST /v1/coverage
func CoverageHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		subject, candidates, err := geojsonadapter.DecodeCoverageRequest(c.Body())
		if err != nil {
			return errFromDomain(c, err)
		}

		ctx := usecases.WithTransport(c.UserContext(), metrics.TransportHTTP)
		res, err := deps.Coverage.Coverage(ctx, subject, candidates)
		if err != nil {
			return errFromDomain(c, err)
		}

		return c.JSON(geojsonadapter.EncodeCoverage(res))
	}
}

// LeftoverHandler returns what remains of subject after every clipper is
// subtracted, as a MultiPolygon.
//
// POST /v1/leftover
func LeftoverHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		subject, clippers, err := geojsonadapter.DecodeLeftoverRequest(c.Body())
		if err != nil {
			return errFromDomain(c, err)
		}

		ctx := usecases.WithTransport(c.UserContext(), metrics.TransportHTTP)
		leftover, err := deps.Coverage.Leftover(ctx, subject, clippers)
		if err != nil {
			return errFromDomain(c, err)
		}

		return c.JSON(geojsonadapter.EncodeMultiPolygon(leftover))
	}
}
