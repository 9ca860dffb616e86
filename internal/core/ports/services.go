package ports

import (
	"github.com/samirrijal/geocover/internal/core/domain"
)

// GeometryEngine is the boolean/area primitive the coverage engine consumes.
type GeometryEngine interface {
	// Difference returns a \ b. A single difference may split a polygon into
	// several disjoint parts or perforate it with holes.
	Difference(a, b domain.MultiPolygon) domain.MultiPolygon

	// Area returns the unsigned area of mp, holes subtracted.
	Area(mp domain.MultiPolygon) float64
}
