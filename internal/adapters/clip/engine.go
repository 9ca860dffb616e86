package clip

import (
	"fmt"
	"strings"

	"github.com/ctessum/geom"

	"github.com/samirrijal/geocover/internal/core/domain"
	"github.com/samirrijal/geocover/internal/pkg/geospatial"
)

// AreaMeasure selects how Engine.Area measures a MultiPolygon.
type AreaMeasure string

const (
	// Planar treats coordinates as Cartesian units.
	Planar AreaMeasure = "planar"
	// Geodesic treats coordinates as lon/lat degrees and returns square
	// meters on a spherical Earth.
	Geodesic AreaMeasure = "geodesic"
)

// ParseAreaMeasure accepts "planar" or "geodesic", case-insensitively.
func ParseAreaMeasure(s string) (AreaMeasure, error) {
	switch m := AreaMeasure(strings.ToLower(strings.TrimSpace(s))); m {
	case Planar, Geodesic:
		return m, nil
	default:
		return "", fmt.Errorf("unknown area measure %q (want planar or geodesic)", s)
	}
}

// Engine implements ports.GeometryEngine on top of github.com/ctessum/geom.
// Coordinates are passed through without rounding or scaling.
type Engine struct {
	measure AreaMeasure
}

// New creates an Engine using the given area measure.
func New(measure AreaMeasure) *Engine {
	if measure == "" {
		measure = Planar
	}
	return &Engine{measure: measure}
}

// Measure returns the configured area measure.
func (e *Engine) Measure() AreaMeasure { return e.measure }

// Difference returns a \ b.
func (e *Engine) Difference(a, b domain.MultiPolygon) domain.MultiPolygon {
	if len(a) == 0 {
		return domain.MultiPolygon{}
	}
	if len(b) == 0 {
		return a
	}
	// ctessum/geom always hands back a geom.Polygon from its clipper.
	poly, _ := toGeom(a).Difference(toGeom(b)).(geom.Polygon)
	return fromRings(poly)
}

// Area returns the sum of the per-polygon areas of mp, holes subtracted.
func (e *Engine) Area(mp domain.MultiPolygon) float64 {
	total := 0.0
	for _, p := range mp {
		if e.measure == Geodesic {
			holes := make([][][2]float64, 0, len(p.Holes))
			for _, h := range p.Holes {
				holes = append(holes, lonLat(h))
			}
			total += geospatial.PolygonArea(lonLat(p.Exterior), holes...)
			continue
		}
		total += toGeomPolygon(p).Area()
	}
	return total
}

func lonLat(r domain.Ring) [][2]float64 {
	out := make([][2]float64, len(r))
	for i, c := range r {
		out[i] = [2]float64{c.X, c.Y}
	}
	return out
}

func toGeom(mp domain.MultiPolygon) geom.MultiPolygon {
	out := make(geom.MultiPolygon, 0, len(mp))
	for _, p := range mp {
		out = append(out, toGeomPolygon(p))
	}
	return out
}

func toGeomPolygon(p domain.Polygon) geom.Polygon {
	out := make(geom.Polygon, 0, 1+len(p.Holes))
	out = append(out, toPath(p.Exterior))
	for _, h := range p.Holes {
		out = append(out, toPath(h))
	}
	return out
}

// toPath drops an explicit closing vertex; geom paths are implicitly closed.
func toPath(r domain.Ring) geom.Path {
	n := len(r)
	if n > 1 && r[0] == r[n-1] {
		n--
	}
	out := make(geom.Path, n)
	for i, c := range r[:n] {
		out[i] = geom.Point{X: c.X, Y: c.Y}
	}
	return out
}

// fromRings regroups the flat ring list produced by a clipping operation
// into polygons. A ring nested inside an even number of other rings is an
// exterior; an odd nesting makes it a hole of its innermost enclosing ring.
func fromRings(rings geom.Polygon) domain.MultiPolygon {
	n := len(rings)
	containers := make([][]int, n)
	for i := range rings {
		for j := range rings {
			if i != j && ringInside(rings[i], rings[j]) {
				containers[i] = append(containers[i], j)
			}
		}
	}

	index := make(map[int]int, n) // ring -> polygon position
	out := make(domain.MultiPolygon, 0, n)
	for i, r := range rings {
		if len(containers[i])%2 == 0 {
			index[i] = len(out)
			out = append(out, domain.Polygon{Exterior: toRing(r)})
		}
	}
	for i, r := range rings {
		depth := len(containers[i])
		if depth%2 == 0 {
			continue
		}
		for _, j := range containers[i] {
			if len(containers[j]) == depth-1 {
				pos := index[j]
				out[pos].Holes = append(out[pos].Holes, toRing(r))
				break
			}
		}
	}
	return out
}

// ringInside reports whether inner lies within outer, judged by the first
// vertex of inner that is not on outer's boundary.
func ringInside(inner, outer geom.Path) bool {
	if len(outer) < 3 {
		return false
	}
	poly := geom.Polygon{outer}
	for _, pt := range inner {
		switch pt.Within(poly) {
		case geom.Inside:
			return true
		case geom.Outside:
			return false
		}
	}
	return false
}

func toRing(p geom.Path) domain.Ring {
	out := make(domain.Ring, len(p))
	for i, pt := range p {
		out[i] = domain.Coord{X: pt.X, Y: pt.Y}
	}
	return out
}
